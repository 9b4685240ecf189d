package vocabulary

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// RebuildReport counts canonical values per list after a rebuild.
type RebuildReport map[string]int

// Rebuild recomputes every derived list from the published corpus. Any corpus error aborts
// before the registry file is touched.
func (r *Registry) Rebuild(ctx context.Context) (RebuildReport, error) {
	if r.corpus == nil {
		return nil, errors.New("rebuild vocabulary: no corpus configured")
	}

	observed, err := r.corpus.ObservedValues(ctx)
	if err != nil {
		return nil, fmt.Errorf("rebuild vocabulary: %w", err)
	}

	report := RebuildReport{}
	err = r.doc.Update(ctx, func(lists *Lists) error {
		previous := *lists
		next := r.withFixed(previous)

		for _, name := range derivedLists {
			entries := map[string][]string{}
			seen := map[string]bool{}
			for _, raw := range observed[name] {
				value := strings.TrimSpace(raw)
				if value == "" || seen[key(value)] {
					continue
				}
				seen[key(value)] = true
				entries[value] = append([]string{}, previous[name][value]...)
			}
			next[name] = entries
		}

		for name, entries := range next {
			report[name] = len(entries)
		}
		*lists = next
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("rebuild vocabulary: %w", err)
	}

	r.logger.Info("vocabulary rebuilt", "lists", len(report))
	if err := r.reload(ctx); err != nil {
		return nil, err
	}
	return report, nil
}
