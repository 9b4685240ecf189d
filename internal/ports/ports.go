package ports

import (
	"context"
	"io"

	"CasePublisher/internal/domain"
)

// ExtractionItem is one reference handed to the metadata extraction service.
type ExtractionItem struct {
	URL     string              `json:"url"`
	Kind    domain.ResourceKind `json:"type"`
	Context string              `json:"context"`
}

// ExtractedItem is the raw, not yet validated answer for one ExtractionItem.
type ExtractedItem struct {
	URL      string          `json:"url"`
	Metadata domain.Metadata `json:"metadata"`
}

// MetadataExtractor asks an external text-understanding service for per-resource metadata.
// Implementations return domain.ErrExtractorUnavailable when the call cannot be made at all.
type MetadataExtractor interface {
	Extract(ctx context.Context, items []ExtractionItem) ([]ExtractedItem, error)
}

// VideoUpload is a remote-to-remote video transfer request.
type VideoUpload struct {
	SourceURL string
	Name      string
}

// ImageUpload is a remote-to-remote image transfer request.
type ImageUpload struct {
	SourceURL string
	Alt       string
}

// DocumentUpload carries a downloaded document to the object store.
type DocumentUpload struct {
	SourceURL   string
	Filename    string
	ContentType string
	Title       string
	Body        io.Reader
}

// VideoUploader stores videos with the media provider.
type VideoUploader interface {
	UploadVideo(ctx context.Context, req VideoUpload) (domain.VideoAsset, error)
}

// ImageUploader stores images with the media provider.
type ImageUploader interface {
	UploadImage(ctx context.Context, req ImageUpload) (domain.ImageAsset, error)
}

// DocumentUploader stores document bytes in object storage.
type DocumentUploader interface {
	UploadDocument(ctx context.Context, req DocumentUpload) (domain.DocumentAsset, error)
}

// Download is an open remote payload.
type Download struct {
	Body        io.ReadCloser
	ContentType string
	Filename    string
}

// Downloader fetches remote documents that must be materialized locally.
type Downloader interface {
	Download(ctx context.Context, url string) (Download, error)
}

// ResourceLibrary is the append-only ledger of stored assets keyed by source URL.
type ResourceLibrary interface {
	FindBySourceURL(ctx context.Context, url string) (domain.LibraryEntry, bool, error)
	FindByKind(ctx context.Context, kind domain.ResourceKind, url string) (domain.LibraryEntry, bool, error)
	RegisterVideo(ctx context.Context, sourceURL string, asset domain.VideoAsset) (domain.LibraryEntry, error)
	RegisterImage(ctx context.Context, sourceURL string, asset domain.ImageAsset) (domain.LibraryEntry, error)
	RegisterDocument(ctx context.Context, sourceURL string, asset domain.DocumentAsset) (domain.LibraryEntry, error)
	List(ctx context.Context) ([]domain.LibraryEntry, error)
}

// Vocabulary normalizes constrained field values against canonical lists.
type Vocabulary interface {
	Normalize(ctx context.Context, raw, list string) string
	IsCanonical(ctx context.Context, value, list string) bool
	IsFixed(list string) bool
	AddCanonical(ctx context.Context, value, list string) error
}

// DraftStore is the pending area drafts are picked from.
type DraftStore interface {
	List(ctx context.Context) ([]domain.DraftSummary, error)
	Read(ctx context.Context, path string) (domain.Draft, error)
	Archive(ctx context.Context, path string) (string, error)
}

// PublishedStore receives final documents.
type PublishedStore interface {
	PathFor(kind domain.DocumentKind, slug string) string
	Exists(path string) (bool, error)
	Write(ctx context.Context, path string, content []byte, overwrite bool) error
}

// ReviewRow is one line of the extraction review shown to the operator.
type ReviewRow struct {
	URL        string
	Kind       domain.ResourceKind
	Summary    string
	Confidence float64
}

// Prompter is the human checkpoint between pipeline phases.
type Prompter interface {
	Confirm(ctx context.Context, question string) (bool, error)
	Select(ctx context.Context, title string, options []string) (int, error)
	Review(ctx context.Context, rows []ReviewRow, degraded bool) (bool, error)
}
