package vocabulary

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"CasePublisher/internal/domain"
)

type stubCorpus struct {
	values map[string][]string
	err    error
}

func (s stubCorpus) ObservedValues(context.Context) (map[string][]string, error) {
	return s.values, s.err
}

func seedRegistry(t *testing.T, raw string) (*Registry, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "vocabulary.json")
	if raw != "" {
		if err := os.WriteFile(path, []byte(raw), 0o644); err != nil {
			t.Fatalf("seed: %v", err)
		}
	}
	return New(path, nil, nil), path
}

const seed = `{
  "organizations": {
    "Chicago Police Department": ["CPD", "Chicago PD"],
    "Minneapolis Police Department": ["MPD"]
  },
  "regions": {"Illinois": ["IL"]},
  "statuses": {"charged": ["indicted"]}
}`

func TestNormalizeCanonicalAliasAndUnknown(t *testing.T) {
	t.Parallel()

	reg, _ := seedRegistry(t, seed)
	ctx := context.Background()

	cases := []struct {
		raw, list, want string
	}{
		{"Chicago Police Department", ListOrganizations, "Chicago Police Department"},
		{"chicago  police department", ListOrganizations, "Chicago Police Department"},
		{"cpd", ListOrganizations, "Chicago Police Department"},
		{"Chicago PD", ListOrganizations, "Chicago Police Department"},
		{"il", ListRegions, "Illinois"},
		{"Indicted", ListStatuses, "charged"},
		{"Closed", ListStatuses, "closed"},
		{"Unknown Sheriff", ListOrganizations, "Unknown Sheriff"},
		{"anything", "no-such-list", "anything"},
	}
	for _, tc := range cases {
		if got := reg.Normalize(ctx, tc.raw, tc.list); got != tc.want {
			t.Fatalf("Normalize(%q, %s) = %q, want %q", tc.raw, tc.list, got, tc.want)
		}
	}
}

func TestNormalizeIsIdempotent(t *testing.T) {
	t.Parallel()

	reg, _ := seedRegistry(t, `{"organizations": {"Alpha": ["Beta"], "Beta Corp": ["alpha"]}}`)
	ctx := context.Background()

	inputs := []string{"alpha", "ALPHA", "beta", "Beta Corp", "beta corp", "gamma", "", "  spaced  out "}
	for _, in := range inputs {
		once := reg.Normalize(ctx, in, ListOrganizations)
		twice := reg.Normalize(ctx, once, ListOrganizations)
		if once != twice {
			t.Fatalf("normalize not idempotent for %q: %q then %q", in, once, twice)
		}
	}
	if got := reg.Normalize(ctx, "alpha", ListOrganizations); got != "Alpha" {
		t.Fatalf("canonical key must win over alias, got %q", got)
	}
}

func TestNormalizeAliasOfFoldedTwinIsStable(t *testing.T) {
	t.Parallel()

	reg, _ := seedRegistry(t, `{"organizations":{"Police Dept":[],"police dept":["PD"]}}`)
	ctx := context.Background()

	once := reg.Normalize(ctx, "PD", ListOrganizations)
	if once != "Police Dept" {
		t.Fatalf("Normalize(PD) = %q, want %q", once, "Police Dept")
	}
	if twice := reg.Normalize(ctx, once, ListOrganizations); twice != once {
		t.Fatalf("normalization not idempotent: %q then %q", once, twice)
	}
}

func TestNormalizeMissingFilePassesThrough(t *testing.T) {
	t.Parallel()

	reg, _ := seedRegistry(t, "")
	ctx := context.Background()
	if got := reg.Normalize(ctx, "Somewhere", ListRegions); got != "Somewhere" {
		t.Fatalf("unexpected %q", got)
	}
	if got := reg.Normalize(ctx, "SETTLED", ListStatuses); got != "settled" {
		t.Fatalf("fixed list must be available without a file, got %q", got)
	}
}

func TestAddCanonicalIsIdempotent(t *testing.T) {
	t.Parallel()

	reg, path := seedRegistry(t, seed)
	ctx := context.Background()

	if err := reg.AddCanonical(ctx, "Ohio", ListRegions); err != nil {
		t.Fatalf("add: %v", err)
	}
	first, _ := os.ReadFile(path)

	if err := reg.AddCanonical(ctx, "ohio", ListRegions); err != nil {
		t.Fatalf("re-add: %v", err)
	}
	if err := reg.AddCanonical(ctx, "IL", ListRegions); err != nil {
		t.Fatalf("add alias spelling: %v", err)
	}
	second, _ := os.ReadFile(path)
	if string(first) != string(second) {
		t.Fatalf("idempotent add changed the file:\n%s\n%s", first, second)
	}

	if !reg.IsCanonical(ctx, "Ohio", ListRegions) {
		t.Fatal("Ohio should be canonical after add")
	}
	if reg.IsCanonical(ctx, "ohio", ListRegions) {
		t.Fatal("IsCanonical must match the display value verbatim")
	}
}

func TestAddCanonicalRejectsFixedAndEmpty(t *testing.T) {
	t.Parallel()

	reg, _ := seedRegistry(t, seed)
	ctx := context.Background()

	if err := reg.AddCanonical(ctx, "dismissed", ListStatuses); !errors.Is(err, domain.ErrFixedList) {
		t.Fatalf("expected ErrFixedList, got %v", err)
	}
	if err := reg.AddCanonical(ctx, "   ", ListTags); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
}

func TestAddAlias(t *testing.T) {
	t.Parallel()

	reg, _ := seedRegistry(t, seed)
	ctx := context.Background()

	if err := reg.AddAlias(ctx, "Minneapolis PD", "Minneapolis Police Department", ListOrganizations); err != nil {
		t.Fatalf("add alias: %v", err)
	}
	if got := reg.Normalize(ctx, "minneapolis pd", ListOrganizations); got != "Minneapolis Police Department" {
		t.Fatalf("alias not applied: %q", got)
	}
	err := reg.AddAlias(ctx, "x", "Nope", ListOrganizations)
	if !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestRebuildDerivesListsAndKeepsFixed(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "vocabulary.json")
	if err := os.WriteFile(path, []byte(seed), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	corpus := stubCorpus{values: map[string][]string{
		ListOrganizations: {"Chicago Police Department", "Cook County Sheriff", "chicago police department"},
		ListRegions:       {"Illinois"},
		ListTags:          {"use of force", " taser "},
	}}
	reg := New(path, corpus, nil)
	ctx := context.Background()

	report, err := reg.Rebuild(ctx)
	if err != nil {
		t.Fatalf("rebuild: %v", err)
	}
	if report[ListOrganizations] != 2 || report[ListTags] != 2 || report[ListStatuses] != len(fixedLists[ListStatuses]) {
		t.Fatalf("unexpected report %v", report)
	}

	if got := reg.Normalize(ctx, "CPD", ListOrganizations); got != "Chicago Police Department" {
		t.Fatalf("alias of surviving value lost: %q", got)
	}
	if got := reg.Normalize(ctx, "MPD", ListOrganizations); got != "MPD" {
		t.Fatalf("unobserved value should be gone, got %q", got)
	}
	if got := reg.Normalize(ctx, "indicted", ListStatuses); got != "charged" {
		t.Fatalf("fixed list alias lost: %q", got)
	}
	if got := reg.Normalize(ctx, "TASER", ListTags); got != "taser" {
		t.Fatalf("tag not trimmed/derived: %q", got)
	}
}

func TestRebuildFailureLeavesFileIntact(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "vocabulary.json")
	if err := os.WriteFile(path, []byte(seed), 0o644); err != nil {
		t.Fatalf("seed: %v", err)
	}
	reg := New(path, stubCorpus{err: errors.New("parse cases/broken.mdx: bad yaml")}, nil)

	if _, err := reg.Rebuild(context.Background()); err == nil {
		t.Fatal("expected rebuild error")
	}
	raw, _ := os.ReadFile(path)
	if string(raw) != seed {
		t.Fatalf("registry changed after failed rebuild:\n%s", raw)
	}
}
