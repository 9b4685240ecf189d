package gcs

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path"
	"regexp"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	"CasePublisher/internal/config"
	"CasePublisher/internal/domain"
	"CasePublisher/internal/logging"
	"CasePublisher/internal/ports"
)

// Uploader writes documents into one GCS bucket.
type Uploader struct {
	client        *storage.Client
	bucket        string
	prefix        string
	publicBaseURL string
	logger        *slog.Logger
}

var _ ports.DocumentUploader = (*Uploader)(nil)

// NewUploader creates a storage client from configuration.
func NewUploader(ctx context.Context, cfg config.DocumentsConfig, logger *slog.Logger) (*Uploader, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("documents bucket is not configured")
	}

	opts := []option.ClientOption{option.WithScopes(storage.ScopeReadWrite)}
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}

	return NewUploaderWithClient(client, cfg, logger), nil
}

// NewUploaderWithClient wraps an existing storage client.
func NewUploaderWithClient(client *storage.Client, cfg config.DocumentsConfig, logger *slog.Logger) *Uploader {
	if logger == nil {
		logger = logging.Discard()
	}
	return &Uploader{
		client:        client,
		bucket:        cfg.Bucket,
		prefix:        strings.Trim(cfg.Prefix, "/"),
		publicBaseURL: strings.TrimRight(cfg.PublicBaseURL, "/"),
		logger:        logger.With("component", "gcs"),
	}
}

// Close releases the storage client.
func (u *Uploader) Close() error {
	return u.client.Close()
}

// UploadDocument streams the body into the bucket under a key derived from the source URL.
func (u *Uploader) UploadDocument(ctx context.Context, req ports.DocumentUpload) (domain.DocumentAsset, error) {
	key := ObjectKey(u.prefix, req.SourceURL, req.Filename)

	w := u.client.Bucket(u.bucket).Object(key).NewWriter(ctx)
	w.ContentType = req.ContentType
	if req.Title != "" {
		w.Metadata = map[string]string{"title": req.Title, "source-url": req.SourceURL}
	}

	size, err := io.Copy(w, req.Body)
	if err != nil {
		_ = w.Close()
		return domain.DocumentAsset{}, fmt.Errorf("failed to write data to GCS: %w", err)
	}
	if err := w.Close(); err != nil {
		return domain.DocumentAsset{}, fmt.Errorf("failed to close GCS writer: %w", err)
	}

	u.logger.Debug("document stored", "bucket", u.bucket, "key", key, "bytes", size)

	return domain.DocumentAsset{
		Bucket:      u.bucket,
		Key:         key,
		PublicURL:   PublicURL(u.publicBaseURL, u.bucket, key),
		ContentType: req.ContentType,
		Size:        size,
	}, nil
}

var unsafeName = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// ObjectKey is prefix/<source hash>/<filename>; the same source always maps to the same key.
func ObjectKey(prefix, sourceURL, filename string) string {
	sum := sha256.Sum256([]byte(sourceURL))
	name := unsafeName.ReplaceAllString(path.Base(filename), "-")
	name = strings.Trim(name, "-")
	if name == "" || name == "." {
		name = "document"
	}
	return path.Join(prefix, hex.EncodeToString(sum[:6]), name)
}

// PublicURL joins the key onto the configured base, or the public GCS host.
func PublicURL(base, bucket, key string) string {
	escaped := (&url.URL{Path: key}).EscapedPath()
	if base != "" {
		return base + "/" + escaped
	}
	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", bucket, escaped)
}
