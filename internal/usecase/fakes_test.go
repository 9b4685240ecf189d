package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"CasePublisher/internal/domain"
	"CasePublisher/internal/ports"
)

type fakeExtractor struct {
	mu    sync.Mutex
	calls int
	err   error
	// override replaces the generated metadata for a URL.
	override map[string]domain.Metadata
}

func (f *fakeExtractor) Extract(_ context.Context, items []ports.ExtractionItem) ([]ports.ExtractedItem, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}

	out := make([]ports.ExtractedItem, 0, len(items))
	for _, item := range items {
		md := domain.Metadata{Confidence: 0.9}
		switch item.Kind {
		case domain.KindImage:
			md.Alt = "Scene outside the apartment"
		case domain.KindVideo:
			md.Caption = "Body camera footage"
		case domain.KindDocument:
			md.Title = "Civil complaint"
			md.Description = "Complaint filed by the family."
		case domain.KindLink:
			md.Title = "News story"
		}
		if o, ok := f.override[item.URL]; ok {
			md = o
		}
		out = append(out, ports.ExtractedItem{URL: item.URL, Metadata: md})
	}
	return out, nil
}

type fakeMedia struct {
	mu     sync.Mutex
	videos []string
	images []string
	fail   error
}

func (f *fakeMedia) UploadVideo(_ context.Context, req ports.VideoUpload) (domain.VideoAsset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return domain.VideoAsset{}, f.fail
	}
	f.videos = append(f.videos, req.SourceURL)
	return domain.VideoAsset{UID: fmt.Sprintf("v%d", len(f.videos)), PlaybackURL: "https://p.example/" + req.Name}, nil
}

func (f *fakeMedia) UploadImage(_ context.Context, req ports.ImageUpload) (domain.ImageAsset, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != nil {
		return domain.ImageAsset{}, f.fail
	}
	f.images = append(f.images, req.SourceURL)
	id := fmt.Sprintf("i%d", len(f.images))
	return domain.ImageAsset{ID: id, Variants: []string{"https://imagedelivery.example/" + id + "/public"}}, nil
}

func (f *fakeMedia) uploads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.videos) + len(f.images)
}

type fakeDocuments struct {
	mu     sync.Mutex
	bodies map[string]string
}

func (f *fakeDocuments) UploadDocument(_ context.Context, req ports.DocumentUpload) (domain.DocumentAsset, error) {
	data, err := io.ReadAll(req.Body)
	if err != nil {
		return domain.DocumentAsset{}, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.bodies == nil {
		f.bodies = map[string]string{}
	}
	f.bodies[req.SourceURL] = string(data)
	key := "documents/" + req.Filename
	return domain.DocumentAsset{Bucket: "b", Key: key, PublicURL: "https://storage.example/b/" + key, Size: int64(len(data))}, nil
}

type fakeDownloader struct {
	fail bool
}

func (f *fakeDownloader) Download(_ context.Context, url string) (ports.Download, error) {
	if f.fail {
		return ports.Download{}, errors.New("connection reset")
	}
	name := url[strings.LastIndex(url, "/")+1:]
	return ports.Download{Body: io.NopCloser(strings.NewReader("%PDF " + url)), ContentType: "application/pdf", Filename: name}, nil
}

type fakePrompter struct {
	mu        sync.Mutex
	answer    bool
	deny      string
	selection int
	questions []string
	reviews   [][]ports.ReviewRow
	degraded  bool
}

func (f *fakePrompter) Confirm(_ context.Context, q string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.questions = append(f.questions, q)
	if f.deny != "" && strings.Contains(q, f.deny) {
		return false, nil
	}
	return f.answer, nil
}

func (f *fakePrompter) Select(_ context.Context, _ string, _ []string) (int, error) {
	return f.selection, nil
}

func (f *fakePrompter) Review(_ context.Context, rows []ports.ReviewRow, degraded bool) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.reviews = append(f.reviews, rows)
	f.degraded = degraded
	return f.answer, nil
}
