package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"CasePublisher/internal/domain"
	"CasePublisher/internal/ports"
	"CasePublisher/internal/vocabulary"
)

const dateLayout = "2006-01-02"

// validateDraft reports every missing or malformed field at once.
func validateDraft(d domain.Draft) error {
	var problems []string

	if strings.TrimSpace(d.Body) == "" {
		problems = append(problems, "body is empty")
	}
	if strings.TrimSpace(d.Meta.Title) == "" {
		problems = append(problems, "title is required")
	}
	if d.Kind == domain.DocumentCase && strings.TrimSpace(d.Meta.Victim) == "" {
		problems = append(problems, "victim is required")
	}

	switch date := strings.TrimSpace(d.Meta.Date); {
	case date == "":
		problems = append(problems, "date is required")
	default:
		if _, err := time.Parse(dateLayout, date); err != nil {
			problems = append(problems, fmt.Sprintf("date %q is not YYYY-MM-DD", date))
		}
	}

	if d.Slug == "" {
		problems = append(problems, "file name yields an empty slug")
	}

	if len(problems) == 0 {
		return nil
	}
	return fmt.Errorf("%s: %s: %w", d.Path, strings.Join(problems, "; "), domain.ErrInvalidInput)
}

// newCanonical is a derived-list value the operator must accept before it is registered.
type newCanonical struct {
	List  string
	Value string
}

func (n newCanonical) String() string {
	return n.List + ": " + n.Value
}

// normalizeMeta rewrites constrained fields to canonical values. Fixed-list fields that do not
// normalize are input errors; unknown derived values are returned for confirmation.
func normalizeMeta(ctx context.Context, vocab ports.Vocabulary, kind domain.DocumentKind, meta domain.DraftMeta) (domain.DraftMeta, []newCanonical, error) {
	var (
		pending  []newCanonical
		problems []error
		seen     = map[newCanonical]bool{}
	)

	derived := func(raw, list string) string {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return ""
		}
		value := vocab.Normalize(ctx, raw, list)
		if !vocab.IsCanonical(ctx, value, list) {
			n := newCanonical{List: list, Value: value}
			if !seen[n] {
				seen[n] = true
				pending = append(pending, n)
			}
		}
		return value
	}
	derivedAll := func(raw []string, list string) []string {
		out := make([]string, 0, len(raw))
		dup := map[string]bool{}
		for _, r := range raw {
			v := derived(r, list)
			if v == "" || dup[v] {
				continue
			}
			dup[v] = true
			out = append(out, v)
		}
		return out
	}
	fixed := func(raw, list, field string) string {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			problems = append(problems, fmt.Errorf("%s is required", field))
			return ""
		}
		value := vocab.Normalize(ctx, raw, list)
		if !vocab.IsCanonical(ctx, value, list) {
			problems = append(problems, fmt.Errorf("%s %q is not one of the %s values", field, raw, list))
		}
		return value
	}

	meta.Tags = derivedAll(meta.Tags, vocabulary.ListTags)
	switch kind {
	case domain.DocumentCase:
		meta.Organizations = derivedAll(meta.Organizations, vocabulary.ListOrganizations)
		meta.Region = derived(meta.Region, vocabulary.ListRegions)
		meta.Status = fixed(meta.Status, vocabulary.ListStatuses, "status")
	case domain.DocumentPost:
		meta.Category = fixed(meta.Category, vocabulary.ListPostCategories, "category")
	}

	if err := errors.Join(problems...); err != nil {
		return meta, nil, fmt.Errorf("%v: %w", err, domain.ErrInvalidInput)
	}
	return meta, pending, nil
}
