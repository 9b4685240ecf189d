package media

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"CasePublisher/internal/config"
	"CasePublisher/internal/domain"
	"CasePublisher/internal/ports"
)

// Client talks to the media provider's image and stream APIs.
type Client struct {
	endpoint  string
	accountID string
	apiToken  string
	http      *http.Client
}

var _ ports.VideoUploader = (*Client)(nil)
var _ ports.ImageUploader = (*Client)(nil)

// NewClient creates a reusable HTTP client.
func NewClient(cfg config.MediaConfig) *Client {
	return &Client{
		endpoint:  strings.TrimRight(cfg.Endpoint, "/"),
		accountID: cfg.AccountID,
		apiToken:  cfg.APIToken,
		http:      &http.Client{Timeout: 2 * time.Minute},
	}
}

type envelope struct {
	Success bool `json:"success"`
	Errors  []struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"errors"`
	Result json.RawMessage `json:"result"`
}

// UploadVideo asks the stream API to copy the video from its source URL.
func (c *Client) UploadVideo(ctx context.Context, upload ports.VideoUpload) (domain.VideoAsset, error) {
	payload := map[string]any{
		"url":  upload.SourceURL,
		"meta": map[string]string{"name": upload.Name},
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return domain.VideoAsset{}, fmt.Errorf("marshal payload: %w", err)
	}

	var result struct {
		UID       string `json:"uid"`
		Thumbnail string `json:"thumbnail"`
		Playback  struct {
			HLS  string `json:"hls"`
			Dash string `json:"dash"`
		} `json:"playback"`
	}
	if err := c.post(ctx, "/stream/copy", "application/json", bytes.NewReader(body), &result); err != nil {
		return domain.VideoAsset{}, fmt.Errorf("copy video %s: %w", upload.SourceURL, err)
	}
	if result.UID == "" {
		return domain.VideoAsset{}, fmt.Errorf("copy video %s: provider returned no uid", upload.SourceURL)
	}

	return domain.VideoAsset{UID: result.UID, PlaybackURL: result.Playback.HLS, ThumbnailURL: result.Thumbnail}, nil
}

// UploadImage asks the images API to fetch the image from its source URL.
func (c *Client) UploadImage(ctx context.Context, upload ports.ImageUpload) (domain.ImageAsset, error) {
	var buf bytes.Buffer
	form := multipart.NewWriter(&buf)
	if err := form.WriteField("url", upload.SourceURL); err != nil {
		return domain.ImageAsset{}, fmt.Errorf("write form: %w", err)
	}
	if upload.Alt != "" {
		meta, err := json.Marshal(map[string]string{"alt": upload.Alt})
		if err != nil {
			return domain.ImageAsset{}, fmt.Errorf("marshal metadata: %w", err)
		}
		if err := form.WriteField("metadata", string(meta)); err != nil {
			return domain.ImageAsset{}, fmt.Errorf("write form: %w", err)
		}
	}
	if err := form.Close(); err != nil {
		return domain.ImageAsset{}, fmt.Errorf("close form: %w", err)
	}

	var result struct {
		ID       string   `json:"id"`
		Variants []string `json:"variants"`
	}
	if err := c.post(ctx, "/images/v1", form.FormDataContentType(), &buf, &result); err != nil {
		return domain.ImageAsset{}, fmt.Errorf("upload image %s: %w", upload.SourceURL, err)
	}
	if result.ID == "" {
		return domain.ImageAsset{}, fmt.Errorf("upload image %s: provider returned no id", upload.SourceURL)
	}

	return domain.ImageAsset{ID: result.ID, Variants: result.Variants}, nil
}

func (c *Client) post(ctx context.Context, path, contentType string, body io.Reader, v any) error {
	if c.accountID == "" || c.apiToken == "" {
		return fmt.Errorf("media client misconfigured: account id and api token are required")
	}

	url := c.endpoint + "/accounts/" + c.accountID + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, body)
	if err != nil {
		return fmt.Errorf("new request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+c.apiToken)

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("do request: %w", err)
	}

	var env envelope
	decodeErr := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&env)
	if err := resp.Body.Close(); err != nil {
		return fmt.Errorf("close response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK || !env.Success {
		return fmt.Errorf("unexpected status %s: %s", resp.Status, env.message())
	}
	if decodeErr != nil {
		return fmt.Errorf("decode response: %w", decodeErr)
	}

	if err := json.Unmarshal(env.Result, v); err != nil {
		return fmt.Errorf("decode result: %w", err)
	}
	return nil
}

func (e envelope) message() string {
	if len(e.Errors) == 0 {
		return "no error detail"
	}
	parts := make([]string, 0, len(e.Errors))
	for _, item := range e.Errors {
		parts = append(parts, fmt.Sprintf("%d %s", item.Code, item.Message))
	}
	return strings.Join(parts, "; ")
}
