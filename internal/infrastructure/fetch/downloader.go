package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strings"

	"CasePublisher/internal/config"
	"CasePublisher/internal/ports"
)

// ErrTooLarge is returned once a download exceeds the configured size.
var ErrTooLarge = errors.New("download exceeds size limit")

// Downloader fetches remote documents over HTTP.
type Downloader struct {
	client    *http.Client
	userAgent string
	maxBytes  int64
}

var _ ports.Downloader = (*Downloader)(nil)

// NewDownloader builds a downloader from configuration.
func NewDownloader(cfg config.FetchConfig) *Downloader {
	return &Downloader{
		client:    &http.Client{Timeout: cfg.Timeout},
		userAgent: cfg.UserAgent,
		maxBytes:  cfg.MaxBytes,
	}
}

// Download opens the remote resource. The caller closes the body.
func (d *Downloader) Download(ctx context.Context, rawURL string) (ports.Download, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return ports.Download{}, fmt.Errorf("new request: %w", err)
	}
	if d.userAgent != "" {
		req.Header.Set("User-Agent", d.userAgent)
	}

	resp, err := d.client.Do(req)
	if err != nil {
		return ports.Download{}, fmt.Errorf("do request: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return ports.Download{}, fmt.Errorf("unexpected status %s", resp.Status)
	}

	if d.maxBytes > 0 && resp.ContentLength > d.maxBytes {
		_ = resp.Body.Close()
		return ports.Download{}, fmt.Errorf("%d bytes: %w", resp.ContentLength, ErrTooLarge)
	}

	body := resp.Body
	if d.maxBytes > 0 {
		body = &limitedBody{ReadCloser: resp.Body, remaining: d.maxBytes}
	}

	return ports.Download{
		Body:        body,
		ContentType: contentType(resp.Header.Get("Content-Type")),
		Filename:    filename(resp.Header.Get("Content-Disposition"), rawURL),
	}, nil
}

// limitedBody fails instead of truncating silently.
type limitedBody struct {
	io.ReadCloser
	remaining int64
}

func (l *limitedBody) Read(p []byte) (int, error) {
	if l.remaining < 0 {
		return 0, ErrTooLarge
	}
	if int64(len(p)) > l.remaining+1 {
		p = p[:l.remaining+1]
	}
	n, err := l.ReadCloser.Read(p)
	l.remaining -= int64(n)
	if l.remaining < 0 {
		return 0, ErrTooLarge
	}
	return n, err
}

func contentType(header string) string {
	if header == "" {
		return "application/octet-stream"
	}
	mediaType, _, err := mime.ParseMediaType(header)
	if err != nil {
		return "application/octet-stream"
	}
	return mediaType
}

func filename(disposition, rawURL string) string {
	if disposition != "" {
		if _, params, err := mime.ParseMediaType(disposition); err == nil && params["filename"] != "" {
			return path.Base(params["filename"])
		}
	}
	if u, err := url.Parse(rawURL); err == nil {
		if base := path.Base(u.Path); base != "/" && base != "." && base != "" {
			return base
		}
		return strings.TrimPrefix(u.Hostname(), "www.")
	}
	return "document"
}
