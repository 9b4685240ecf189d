package extraction

import (
	"fmt"
	"strings"

	"CasePublisher/internal/domain"
)

// Icons a link card may carry.
var Icons = []string{"article", "court", "document", "government", "news", "social", "video", "external"}

// fieldRule bounds one metadata field of one resource kind.
type fieldRule struct {
	field    string
	required bool
	maxWords int
	get      func(domain.Metadata) string
}

var (
	alt         = func(m domain.Metadata) string { return m.Alt }
	caption     = func(m domain.Metadata) string { return m.Caption }
	title       = func(m domain.Metadata) string { return m.Title }
	description = func(m domain.Metadata) string { return m.Description }
)

var rules = map[domain.ResourceKind][]fieldRule{
	domain.KindImage: {
		{field: "alt", required: true, maxWords: 15, get: alt},
		{field: "caption", maxWords: 25, get: caption},
	},
	domain.KindVideo: {
		{field: "caption", maxWords: 25, get: caption},
	},
	domain.KindDocument: {
		{field: "title", required: true, maxWords: 8, get: title},
		{field: "description", required: true, maxWords: 30, get: description},
	},
	domain.KindLink: {
		{field: "title", maxWords: 8, get: title},
		{field: "description", maxWords: 30, get: description},
	},
}

// Violation is one field of one item that broke its rule.
type Violation struct {
	Index int
	URL   string
	Field string
	Limit string
	Got   string
}

func (v Violation) String() string {
	return fmt.Sprintf("item %d (%s): %s %s, got %s", v.Index+1, v.URL, v.Field, v.Limit, v.Got)
}

// ValidationError rejects a whole extraction batch and lists every violation in it.
type ValidationError struct {
	Violations []Violation
}

func (e *ValidationError) Error() string {
	lines := make([]string, 0, len(e.Violations))
	for _, v := range e.Violations {
		lines = append(lines, v.String())
	}
	return fmt.Sprintf("extraction rejected, %d violation(s): %s", len(e.Violations), strings.Join(lines, "; "))
}

// Validate checks one item's metadata against the rules of its kind.
func Validate(index int, ref domain.ResourceReference, md domain.Metadata) []Violation {
	var out []Violation
	add := func(field, limit, got string) {
		out = append(out, Violation{Index: index, URL: ref.URL, Field: field, Limit: limit, Got: got})
	}

	for _, rule := range rules[ref.Kind] {
		value := strings.TrimSpace(rule.get(md))
		if value == "" {
			if rule.required {
				add(rule.field, "is required", "empty")
			}
			continue
		}
		if n := WordCount(value); n > rule.maxWords {
			add(rule.field, fmt.Sprintf("must be at most %d words", rule.maxWords), fmt.Sprintf("%d", n))
		}
	}

	if md.Icon != "" {
		if ref.Kind != domain.KindLink {
			add("icon", "only applies to links", md.Icon)
		} else if !validIcon(md.Icon) {
			add("icon", "must be one of "+strings.Join(Icons, ", "), md.Icon)
		}
	}

	if md.Confidence < 0 || md.Confidence > 1 {
		add("confidence", "must be within [0,1]", fmt.Sprintf("%g", md.Confidence))
	}

	return out
}

// WordCount counts whitespace-separated words.
func WordCount(s string) int {
	return len(strings.Fields(s))
}

func validIcon(icon string) bool {
	for _, candidate := range Icons {
		if candidate == icon {
			return true
		}
	}
	return false
}
