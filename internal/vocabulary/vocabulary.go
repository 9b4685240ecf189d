// Package vocabulary keeps the canonical values allowed in constrained frontmatter fields.
//
// Each named list maps a canonical display value to alias spellings. Derived lists are
// recomputed from the published corpus; fixed lists are closed enumerations kept in code.
package vocabulary

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/cases"

	"CasePublisher/internal/domain"
	"CasePublisher/internal/infrastructure/filestore"
	"CasePublisher/internal/logging"
	"CasePublisher/internal/ports"
)

const (
	ListOrganizations  = "organizations"
	ListRegions        = "regions"
	ListTags           = "tags"
	ListStatuses       = "statuses"
	ListPostCategories = "post_categories"
)

var fixedLists = map[string][]string{
	ListStatuses:       {"investigating", "charged", "convicted", "acquitted", "settled", "closed", "no-charges"},
	ListPostCategories: {"analysis", "news", "update", "guide"},
}

var derivedLists = []string{ListOrganizations, ListRegions, ListTags}

// Lists is the persisted layout: list name -> canonical value -> aliases.
type Lists map[string]map[string][]string

// Corpus yields the constrained values observed across all published documents.
type Corpus interface {
	ObservedValues(ctx context.Context) (map[string][]string, error)
}

type listIndex struct {
	canonical map[string]string
	alias     map[string]string
}

// Registry implements ports.Vocabulary over a JSON document.
type Registry struct {
	doc    *filestore.Document[Lists]
	corpus Corpus
	logger *slog.Logger

	mu     sync.RWMutex
	index  map[string]listIndex
	loaded bool
}

var _ ports.Vocabulary = (*Registry)(nil)

// New binds a registry to its JSON file; corpus may be nil when Rebuild is never called.
func New(path string, corpus Corpus, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Registry{
		doc:    filestore.NewDocument(path, emptyLists),
		corpus: corpus,
		logger: logger,
	}
}

func emptyLists() Lists {
	return Lists{}
}

// FixedLists returns the closed enumerations keyed by list name.
func FixedLists() map[string][]string {
	out := make(map[string][]string, len(fixedLists))
	for name, values := range fixedLists {
		out[name] = append([]string(nil), values...)
	}
	return out
}

// IsFixed reports whether list is a closed enumeration.
func (r *Registry) IsFixed(list string) bool {
	_, ok := fixedLists[list]
	return ok
}

// Normalize returns the canonical form of raw in list, or raw unchanged when it is unknown.
func (r *Registry) Normalize(ctx context.Context, raw, list string) string {
	idx, ok := r.list(ctx, list)
	if !ok {
		return raw
	}
	k := key(raw)
	if c, ok := idx.canonical[k]; ok {
		return c
	}
	if c, ok := idx.alias[k]; ok {
		return c
	}
	return raw
}

// IsCanonical reports whether value is, verbatim, a canonical entry of list.
func (r *Registry) IsCanonical(ctx context.Context, value, list string) bool {
	idx, ok := r.list(ctx, list)
	if !ok {
		return false
	}
	return idx.canonical[key(value)] == value
}

// Values returns the canonical values of list in sorted order.
func (r *Registry) Values(ctx context.Context, list string) []string {
	idx, ok := r.list(ctx, list)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(idx.canonical))
	for _, c := range idx.canonical {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// AddCanonical appends value to a derived list; adding a known value is a no-op.
func (r *Registry) AddCanonical(ctx context.Context, value, list string) error {
	value = strings.TrimSpace(value)
	if value == "" {
		return fmt.Errorf("add to %s: empty value: %w", list, domain.ErrInvalidInput)
	}
	if r.IsFixed(list) {
		return fmt.Errorf("add %q to %s: %w", value, list, domain.ErrFixedList)
	}

	err := r.doc.Update(ctx, func(lists *Lists) error {
		entries := (*lists)[list]
		if entries == nil {
			entries = map[string][]string{}
			(*lists)[list] = entries
		}
		k := key(value)
		for canonical, aliases := range entries {
			if key(canonical) == k {
				return nil
			}
			for _, a := range aliases {
				if key(a) == k {
					return nil
				}
			}
		}
		entries[value] = []string{}
		return nil
	})
	if err != nil {
		return fmt.Errorf("add %q to %s: %w", value, list, err)
	}

	r.logger.Info("canonical value added", "list", list, "value", value)
	return r.reload(ctx)
}

// AddAlias registers alias as another spelling of an existing canonical value.
func (r *Registry) AddAlias(ctx context.Context, alias, canonical, list string) error {
	alias = strings.TrimSpace(alias)
	if alias == "" {
		return fmt.Errorf("alias for %q: empty alias: %w", canonical, domain.ErrInvalidInput)
	}

	err := r.doc.Update(ctx, func(lists *Lists) error {
		merged := r.withFixed(*lists)
		entries := merged[list]
		aliases, ok := entries[canonical]
		if !ok {
			return fmt.Errorf("canonical %q in %s: %w", canonical, list, domain.ErrNotFound)
		}
		for _, a := range aliases {
			if key(a) == key(alias) {
				return nil
			}
		}
		entries[canonical] = append(aliases, alias)
		*lists = merged
		return nil
	})
	if err != nil {
		return fmt.Errorf("add alias %q: %w", alias, err)
	}
	return r.reload(ctx)
}

// Snapshot returns the registry as persisted, with fixed lists filled in.
func (r *Registry) Snapshot(ctx context.Context) (Lists, error) {
	lists, err := r.doc.Read(ctx)
	if err != nil {
		return nil, err
	}
	return r.withFixed(lists), nil
}

func (r *Registry) list(ctx context.Context, name string) (listIndex, bool) {
	r.mu.RLock()
	loaded := r.loaded
	r.mu.RUnlock()

	if !loaded {
		if err := r.reload(ctx); err != nil {
			r.logger.Warn("vocabulary unavailable, values pass through", "error", err)
		}
	}

	r.mu.RLock()
	defer r.mu.RUnlock()
	idx, ok := r.index[name]
	return idx, ok
}

func (r *Registry) reload(ctx context.Context) error {
	lists, err := r.doc.Read(ctx)
	if err != nil {
		lists = Lists{}
	}
	index := buildIndex(r.withFixed(lists))

	r.mu.Lock()
	r.index = index
	r.loaded = true
	r.mu.Unlock()
	return err
}

// withFixed returns a copy of lists whose fixed enumerations match the code constants,
// keeping any aliases recorded for them.
func (r *Registry) withFixed(lists Lists) Lists {
	out := make(Lists, len(lists)+len(fixedLists))
	for name, entries := range lists {
		copied := make(map[string][]string, len(entries))
		for c, aliases := range entries {
			copied[c] = append([]string{}, aliases...)
		}
		out[name] = copied
	}
	for name, values := range fixedLists {
		previous := out[name]
		entries := make(map[string][]string, len(values))
		for _, v := range values {
			entries[v] = append([]string{}, previous[v]...)
		}
		out[name] = entries
	}
	return out
}

func buildIndex(lists Lists) map[string]listIndex {
	index := make(map[string]listIndex, len(lists))
	for name, entries := range lists {
		idx := listIndex{canonical: map[string]string{}, alias: map[string]string{}}

		canonicals := make([]string, 0, len(entries))
		for c := range entries {
			canonicals = append(canonicals, c)
		}
		sort.Strings(canonicals)

		for _, c := range canonicals {
			if _, taken := idx.canonical[key(c)]; !taken {
				idx.canonical[key(c)] = c
			}
		}
		for _, c := range canonicals {
			for _, a := range entries[c] {
				k := key(a)
				if _, isCanonical := idx.canonical[k]; isCanonical {
					continue
				}
				if _, taken := idx.alias[k]; !taken {
					idx.alias[k] = idx.canonical[key(c)]
				}
			}
		}
		index[name] = idx
	}
	return index
}

// key folds case and collapses whitespace so lookups ignore spelling noise.
func key(s string) string {
	return cases.Fold().String(strings.Join(strings.Fields(s), " "))
}
