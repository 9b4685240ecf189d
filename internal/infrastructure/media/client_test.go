package media

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"CasePublisher/internal/config"
	"CasePublisher/internal/ports"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(config.MediaConfig{Endpoint: srv.URL + "/", AccountID: "acct", APIToken: "token"})
}

func TestUploadVideo(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/accounts/acct/stream/copy" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer token" {
			t.Errorf("missing token")
		}
		var body struct {
			URL string `json:"url"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body.URL != "https://cdn.example.org/bodycam.mp4" {
			t.Errorf("unexpected url %q", body.URL)
		}
		_, _ = w.Write([]byte(`{"success":true,"errors":[],"result":{"uid":"v1","thumbnail":"https://t.example/v1.jpg","playback":{"hls":"https://p.example/v1.m3u8"}}}`))
	})

	asset, err := client.UploadVideo(context.Background(), ports.VideoUpload{SourceURL: "https://cdn.example.org/bodycam.mp4", Name: "bodycam"})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if asset.UID != "v1" || asset.PlaybackURL != "https://p.example/v1.m3u8" || asset.ThumbnailURL != "https://t.example/v1.jpg" {
		t.Fatalf("unexpected asset %+v", asset)
	}
}

func TestUploadImage(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/accounts/acct/images/v1" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse form: %v", err)
		}
		if r.FormValue("url") != "https://img.example.org/scene.jpg" || !strings.Contains(r.FormValue("metadata"), "Patrol car") {
			t.Errorf("unexpected form %v", r.MultipartForm.Value)
		}
		_, _ = w.Write([]byte(`{"success":true,"result":{"id":"i1","variants":["https://imagedelivery.example/i1/public"]}}`))
	})

	asset, err := client.UploadImage(context.Background(), ports.ImageUpload{SourceURL: "https://img.example.org/scene.jpg", Alt: "Patrol car"})
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if asset.ID != "i1" || len(asset.Variants) != 1 {
		t.Fatalf("unexpected asset %+v", asset)
	}
}

func TestProviderErrorSurfaces(t *testing.T) {
	t.Parallel()

	client := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"success":false,"errors":[{"code":5400,"message":"unable to fetch"}]}`))
	})

	_, err := client.UploadImage(context.Background(), ports.ImageUpload{SourceURL: "https://img.example.org/gone.jpg"})
	if err == nil || !strings.Contains(err.Error(), "unable to fetch") {
		t.Fatalf("expected provider message, got %v", err)
	}
}

func TestMisconfiguredClient(t *testing.T) {
	t.Parallel()

	client := NewClient(config.MediaConfig{Endpoint: "http://127.0.0.1:1"})
	if _, err := client.UploadVideo(context.Background(), ports.VideoUpload{SourceURL: "https://x.example/v.mp4"}); err == nil {
		t.Fatalf("expected configuration error")
	}
}
