package domain

import "time"

// ResourceKind buckets a referenced URL by what the pipeline does with it.
type ResourceKind string

const (
	KindImage    ResourceKind = "image"
	KindVideo    ResourceKind = "video"
	KindDocument ResourceKind = "document"
	KindLink     ResourceKind = "link"
)

// Stored reports whether resources of this kind end up in the resource library.
func (k ResourceKind) Stored() bool {
	return k == KindImage || k == KindVideo || k == KindDocument
}

// Metadata is the descriptive data extracted for one referenced resource.
// Which fields apply depends on the resource kind.
type Metadata struct {
	Alt         string  `json:"alt,omitempty"`
	Caption     string  `json:"caption,omitempty"`
	Title       string  `json:"title,omitempty"`
	Description string  `json:"description,omitempty"`
	Icon        string  `json:"icon,omitempty"`
	Confidence  float64 `json:"confidence"`
}

// ResourceReference is a URL found in a draft, alive for one pipeline run only.
type ResourceReference struct {
	URL      string
	Kind     ResourceKind
	Context  string
	Metadata Metadata
}

// LibraryEntry is one asset fetched and stored exactly once.
type LibraryEntry struct {
	ID        string         `json:"-"`
	Kind      ResourceKind   `json:"-"`
	SourceURL string         `json:"sourceUrl"`
	AddedAt   time.Time      `json:"addedAt"`
	Video     *VideoAsset    `json:"stream,omitempty"`
	Image     *ImageAsset    `json:"images,omitempty"`
	Document  *DocumentAsset `json:"storage,omitempty"`
}

// VideoAsset holds the handles returned by the video provider.
type VideoAsset struct {
	UID          string `json:"uid"`
	PlaybackURL  string `json:"playbackUrl,omitempty"`
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
}

// ImageAsset holds the handles returned by the image provider.
type ImageAsset struct {
	ID       string   `json:"id"`
	Variants []string `json:"variants,omitempty"`
}

// DocumentAsset describes a document stored in the object bucket.
type DocumentAsset struct {
	Bucket      string `json:"bucket"`
	Key         string `json:"key"`
	PublicURL   string `json:"publicUrl"`
	ContentType string `json:"contentType,omitempty"`
	Size        int64  `json:"size,omitempty"`
}

// PublicURL returns the best URL a reader can use to reach the stored asset.
func (e LibraryEntry) PublicURL() string {
	switch {
	case e.Document != nil:
		return e.Document.PublicURL
	case e.Image != nil && len(e.Image.Variants) > 0:
		return e.Image.Variants[0]
	case e.Video != nil:
		return e.Video.PlaybackURL
	default:
		return e.SourceURL
	}
}

// Resolution is the outcome of resolving one stored-kind reference.
type Resolution struct {
	Reference ResourceReference
	Entry     LibraryEntry
	Reused    bool
}
