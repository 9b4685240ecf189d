package extraction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"

	"CasePublisher/internal/domain"
	"CasePublisher/internal/logging"
	"CasePublisher/internal/ports"
)

// Result is a validated extraction batch.
type Result struct {
	References []domain.ResourceReference
	// Degraded is set when the service could not be reached and every item carries empty metadata.
	Degraded bool
}

// Service validates extractor output for a whole batch.
type Service struct {
	extractor ports.MetadataExtractor
	logger    *slog.Logger
}

// NewService wires an extractor.
func NewService(extractor ports.MetadataExtractor, logger *slog.Logger) *Service {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Service{extractor: extractor, logger: logger.With("component", "extraction")}
}

// Extract fills the metadata of every reference. Any invalid item fails the whole batch with a
// *ValidationError. When the extractor is unavailable the batch degrades to empty metadata with
// confidence 0.
func (s *Service) Extract(ctx context.Context, refs []domain.ResourceReference) (Result, error) {
	if len(refs) == 0 {
		return Result{}, nil
	}

	items := make([]ports.ExtractionItem, len(refs))
	for i, ref := range refs {
		items[i] = ports.ExtractionItem{URL: ref.URL, Kind: ref.Kind, Context: ref.Context}
	}

	extracted, err := s.extractor.Extract(ctx, items)
	if errors.Is(err, domain.ErrExtractorUnavailable) {
		s.logger.Warn("extraction unavailable, continuing with empty metadata", "items", len(refs), "error", err)
		return Fallback(refs), nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("extract metadata: %w", err)
	}

	byURL := make(map[string]domain.Metadata, len(extracted))
	for _, item := range extracted {
		byURL[item.URL] = item.Metadata
	}

	out := make([]domain.ResourceReference, len(refs))
	var violations []Violation
	for i, ref := range refs {
		md, ok := byURL[ref.URL]
		if !ok {
			violations = append(violations, Violation{Index: i, URL: ref.URL, Field: "metadata", Limit: "is required", Got: "missing"})
			continue
		}
		violations = append(violations, Validate(i, ref, md)...)
		ref.Metadata = trim(md)
		out[i] = withLinkFallback(ref)
	}

	if len(violations) > 0 {
		return Result{}, &ValidationError{Violations: violations}
	}

	s.logger.Debug("extraction validated", "items", len(out))
	return Result{References: out}, nil
}

// Fallback gives every reference empty metadata with confidence 0.
func Fallback(refs []domain.ResourceReference) Result {
	out := make([]domain.ResourceReference, len(refs))
	for i, ref := range refs {
		ref.Metadata = domain.Metadata{}
		out[i] = withLinkFallback(ref)
	}
	return Result{References: out, Degraded: true}
}

func trim(md domain.Metadata) domain.Metadata {
	md.Alt = strings.TrimSpace(md.Alt)
	md.Caption = strings.TrimSpace(md.Caption)
	md.Title = strings.TrimSpace(md.Title)
	md.Description = strings.TrimSpace(md.Description)
	md.Icon = strings.TrimSpace(md.Icon)
	return md
}

// withLinkFallback titles an untitled link with its hostname.
func withLinkFallback(ref domain.ResourceReference) domain.ResourceReference {
	if ref.Kind != domain.KindLink || ref.Metadata.Title != "" {
		return ref
	}
	if u, err := url.Parse(ref.URL); err == nil && u.Hostname() != "" {
		ref.Metadata.Title = strings.TrimPrefix(u.Hostname(), "www.")
	} else {
		ref.Metadata.Title = ref.URL
	}
	return ref
}
