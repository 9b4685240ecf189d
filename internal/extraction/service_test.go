package extraction

import (
	"context"
	"errors"
	"strings"
	"testing"

	"CasePublisher/internal/domain"
	"CasePublisher/internal/ports"
)

type stubExtractor struct {
	items []ports.ExtractedItem
	err   error
	calls int
}

func (s *stubExtractor) Extract(_ context.Context, _ []ports.ExtractionItem) ([]ports.ExtractedItem, error) {
	s.calls++
	return s.items, s.err
}

func words(n int) string {
	return strings.TrimSpace(strings.Repeat("word ", n))
}

func batch() []domain.ResourceReference {
	return []domain.ResourceReference{
		{URL: "https://img.example.org/scene.jpg", Kind: domain.KindImage},
		{URL: "https://cdn.example.org/bodycam.mp4", Kind: domain.KindVideo},
		{URL: "https://court.example.gov/complaint.pdf", Kind: domain.KindDocument},
		{URL: "https://news.example.com/story", Kind: domain.KindLink},
		{URL: "https://img.example.org/portrait.png", Kind: domain.KindImage},
	}
}

func validItems() []ports.ExtractedItem {
	return []ports.ExtractedItem{
		{URL: "https://img.example.org/scene.jpg", Metadata: domain.Metadata{Alt: "Police cars outside the apartment", Confidence: 0.9}},
		{URL: "https://cdn.example.org/bodycam.mp4", Metadata: domain.Metadata{Caption: "Body camera footage of the arrest", Confidence: 0.8}},
		{URL: "https://court.example.gov/complaint.pdf", Metadata: domain.Metadata{Title: "Civil rights complaint", Description: "Complaint filed in federal court.", Confidence: 0.7}},
		{URL: "https://news.example.com/story", Metadata: domain.Metadata{Icon: "news", Confidence: 0.6}},
		{URL: "https://img.example.org/portrait.png", Metadata: domain.Metadata{Alt: "Portrait of the victim", Confidence: 0.95}},
	}
}

func TestExtractValidBatch(t *testing.T) {
	t.Parallel()

	svc := NewService(&stubExtractor{items: validItems()}, nil)
	res, err := svc.Extract(context.Background(), batch())
	if err != nil {
		t.Fatalf("extract: %v", err)
	}
	if res.Degraded {
		t.Fatalf("did not expect degraded result")
	}
	if len(res.References) != 5 {
		t.Fatalf("expected 5 references, got %d", len(res.References))
	}
	if res.References[2].Metadata.Title != "Civil rights complaint" {
		t.Fatalf("unexpected document metadata %+v", res.References[2].Metadata)
	}
	if res.References[3].Metadata.Title != "news.example.com" {
		t.Fatalf("expected hostname fallback title, got %q", res.References[3].Metadata.Title)
	}
}

func TestExtractRejectsWholeBatch(t *testing.T) {
	t.Parallel()

	items := validItems()
	items[2].Metadata.Title = words(12)

	svc := NewService(&stubExtractor{items: items}, nil)
	res, err := svc.Extract(context.Background(), batch())

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if len(res.References) != 0 {
		t.Fatalf("no item may be accepted, got %d", len(res.References))
	}
	if len(verr.Violations) != 1 {
		t.Fatalf("expected one violation, got %+v", verr.Violations)
	}
	v := verr.Violations[0]
	if v.Index != 2 || v.Field != "title" || v.Got != "12" {
		t.Fatalf("unexpected violation %+v", v)
	}
	if !strings.Contains(err.Error(), "complaint.pdf") {
		t.Fatalf("message should name the offending item: %s", err)
	}
}

func TestExtractListsEveryViolation(t *testing.T) {
	t.Parallel()

	items := validItems()
	items[0].Metadata.Alt = ""
	items[1].Metadata.Caption = words(26)
	items[3].Metadata.Icon = "rocket"

	svc := NewService(&stubExtractor{items: items[:4]}, nil)
	refs := batch()
	refs = append(refs, domain.ResourceReference{URL: "https://missing.example.org/x.pdf", Kind: domain.KindDocument})

	_, err := svc.Extract(context.Background(), refs)
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	fields := map[string]bool{}
	for _, v := range verr.Violations {
		fields[v.Field] = true
	}
	for _, want := range []string{"alt", "caption", "icon", "metadata"} {
		if !fields[want] {
			t.Fatalf("missing %s violation in %+v", want, verr.Violations)
		}
	}
}

func TestExtractUnavailableFallsBack(t *testing.T) {
	t.Parallel()

	stub := &stubExtractor{err: errors.New("dial tcp: refused")}
	stub.err = errors.Join(domain.ErrExtractorUnavailable, stub.err)

	svc := NewService(stub, nil)
	res, err := svc.Extract(context.Background(), batch())
	if err != nil {
		t.Fatalf("fallback must not fail: %v", err)
	}
	if !res.Degraded {
		t.Fatalf("expected degraded result")
	}
	for _, ref := range res.References {
		if ref.Metadata.Confidence != 0 || ref.Metadata.Alt != "" || ref.Metadata.Description != "" {
			t.Fatalf("expected empty metadata, got %+v", ref.Metadata)
		}
	}
	if res.References[3].Metadata.Title != "news.example.com" {
		t.Fatalf("links keep the hostname title, got %q", res.References[3].Metadata.Title)
	}
}

func TestExtractMalformedIsFatal(t *testing.T) {
	t.Parallel()

	svc := NewService(&stubExtractor{err: domain.ErrMalformedResponse}, nil)
	if _, err := svc.Extract(context.Background(), batch()); !errors.Is(err, domain.ErrMalformedResponse) {
		t.Fatalf("expected malformed error, got %v", err)
	}
}

func TestExtractEmptyBatchSkipsCall(t *testing.T) {
	t.Parallel()

	stub := &stubExtractor{}
	res, err := NewService(stub, nil).Extract(context.Background(), nil)
	if err != nil || len(res.References) != 0 || stub.calls != 0 {
		t.Fatalf("unexpected result %+v err=%v calls=%d", res, err, stub.calls)
	}
}

func TestValidateWordLimits(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name string
		kind domain.ResourceKind
		md   domain.Metadata
		want int
	}{
		{"image alt at limit", domain.KindImage, domain.Metadata{Alt: words(15)}, 0},
		{"image alt over", domain.KindImage, domain.Metadata{Alt: words(16)}, 1},
		{"video caption optional", domain.KindVideo, domain.Metadata{}, 0},
		{"document needs both", domain.KindDocument, domain.Metadata{}, 2},
		{"document description over", domain.KindDocument, domain.Metadata{Title: "Report", Description: words(31)}, 1},
		{"link all optional", domain.KindLink, domain.Metadata{}, 0},
		{"icon on image", domain.KindImage, domain.Metadata{Alt: "x", Icon: "news"}, 1},
		{"negative confidence", domain.KindVideo, domain.Metadata{Confidence: -0.1}, 1},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := Validate(0, domain.ResourceReference{URL: "https://x.example", Kind: tc.kind}, tc.md)
			if len(got) != tc.want {
				t.Fatalf("expected %d violations, got %+v", tc.want, got)
			}
		})
	}
}
