package usecase

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path"
	"strings"

	"golang.org/x/sync/errgroup"

	"CasePublisher/internal/domain"
	"CasePublisher/internal/logging"
	"CasePublisher/internal/ports"
)

// UploaderDeps wires the providers and the library into the upload orchestrator.
type UploaderDeps struct {
	Library    ports.ResourceLibrary
	Videos     ports.VideoUploader
	Images     ports.ImageUploader
	Documents  ports.DocumentUploader
	Downloader ports.Downloader
	TempDir    string
	Logger     *slog.Logger
}

// Uploader resolves stored-kind references to library entries, uploading only on a library miss.
type Uploader struct {
	library    ports.ResourceLibrary
	videos     ports.VideoUploader
	images     ports.ImageUploader
	documents  ports.DocumentUploader
	downloader ports.Downloader
	tempDir    string
	logger     *slog.Logger
}

// NewUploader constructs the orchestrator.
func NewUploader(deps UploaderDeps) *Uploader {
	logger := deps.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	return &Uploader{
		library:    deps.Library,
		videos:     deps.Videos,
		images:     deps.Images,
		documents:  deps.Documents,
		downloader: deps.Downloader,
		tempDir:    deps.TempDir,
		logger:     logger.With("component", "uploader"),
	}
}

// ResolveAll resolves refs with at most limit in flight. The first failure cancels the rest.
func (u *Uploader) ResolveAll(ctx context.Context, refs []domain.ResourceReference, limit int) ([]domain.Resolution, error) {
	out := make([]domain.Resolution, len(refs))

	g, gctx := errgroup.WithContext(ctx)
	if limit > 0 {
		g.SetLimit(limit)
	}
	for i, ref := range refs {
		i, ref := i, ref
		g.Go(func() error {
			res, err := u.Resolve(gctx, ref)
			if err != nil {
				return domain.Fail(domain.PhaseUpload, ref.URL, err)
			}
			out[i] = res
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Resolve returns the existing library entry for ref, or fetches, stores and registers it.
func (u *Uploader) Resolve(ctx context.Context, ref domain.ResourceReference) (domain.Resolution, error) {
	if !ref.Kind.Stored() {
		return domain.Resolution{}, fmt.Errorf("%s references are not stored: %w", ref.Kind, domain.ErrInvalidInput)
	}

	entry, ok, err := u.library.FindByKind(ctx, ref.Kind, ref.URL)
	if err != nil {
		return domain.Resolution{}, fmt.Errorf("library lookup: %w", err)
	}
	if ok {
		u.logger.Debug("library hit", "url", ref.URL, "kind", ref.Kind, "id", entry.ID, "state", "done")
		return domain.Resolution{Reference: ref, Entry: entry, Reused: true}, nil
	}

	u.logger.Debug("library miss", "url", ref.URL, "kind", ref.Kind, "state", "fetching")

	switch ref.Kind {
	case domain.KindVideo:
		entry, err = u.storeVideo(ctx, ref)
	case domain.KindImage:
		entry, err = u.storeImage(ctx, ref)
	default:
		entry, err = u.storeDocument(ctx, ref)
	}

	if errors.Is(err, domain.ErrDuplicate) && entry.ID != "" {
		u.logger.Warn("source registered concurrently, reusing entry", "url", ref.URL, "id", entry.ID)
		return domain.Resolution{Reference: ref, Entry: entry, Reused: true}, nil
	}
	if err != nil {
		return domain.Resolution{}, err
	}

	u.logger.Debug("resource registered", "url", ref.URL, "kind", ref.Kind, "id", entry.ID, "state", "registered")
	return domain.Resolution{Reference: ref, Entry: entry}, nil
}

func (u *Uploader) storeVideo(ctx context.Context, ref domain.ResourceReference) (domain.LibraryEntry, error) {
	if u.videos == nil {
		return domain.LibraryEntry{}, errors.New("no video provider configured")
	}
	asset, err := u.videos.UploadVideo(ctx, ports.VideoUpload{SourceURL: ref.URL, Name: displayName(ref)})
	if err != nil {
		return domain.LibraryEntry{}, fmt.Errorf("store video: %w", err)
	}
	return u.library.RegisterVideo(ctx, ref.URL, asset)
}

func (u *Uploader) storeImage(ctx context.Context, ref domain.ResourceReference) (domain.LibraryEntry, error) {
	if u.images == nil {
		return domain.LibraryEntry{}, errors.New("no image provider configured")
	}
	asset, err := u.images.UploadImage(ctx, ports.ImageUpload{SourceURL: ref.URL, Alt: ref.Metadata.Alt})
	if err != nil {
		return domain.LibraryEntry{}, fmt.Errorf("store image: %w", err)
	}
	return u.library.RegisterImage(ctx, ref.URL, asset)
}

// storeDocument downloads into a temp file first so a broken download never reaches the bucket.
func (u *Uploader) storeDocument(ctx context.Context, ref domain.ResourceReference) (domain.LibraryEntry, error) {
	if u.documents == nil || u.downloader == nil {
		return domain.LibraryEntry{}, errors.New("no document storage configured")
	}

	dl, err := u.downloader.Download(ctx, ref.URL)
	if err != nil {
		return domain.LibraryEntry{}, fmt.Errorf("fetch document: %w", err)
	}
	defer dl.Body.Close()

	tmp, err := os.CreateTemp(u.tempDir, "casepublisher-doc-*")
	if err != nil {
		return domain.LibraryEntry{}, fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
	}()

	if _, err := io.Copy(tmp, dl.Body); err != nil {
		return domain.LibraryEntry{}, fmt.Errorf("fetch document: %w", err)
	}
	if _, err := tmp.Seek(0, io.SeekStart); err != nil {
		return domain.LibraryEntry{}, fmt.Errorf("rewind temp file: %w", err)
	}

	u.logger.Debug("document fetched", "url", ref.URL, "state", "storing")

	asset, err := u.documents.UploadDocument(ctx, ports.DocumentUpload{
		SourceURL:   ref.URL,
		Filename:    dl.Filename,
		ContentType: dl.ContentType,
		Title:       ref.Metadata.Title,
		Body:        tmp,
	})
	if err != nil {
		return domain.LibraryEntry{}, fmt.Errorf("store document: %w", err)
	}
	return u.library.RegisterDocument(ctx, ref.URL, asset)
}

func displayName(ref domain.ResourceReference) string {
	if ref.Metadata.Caption != "" {
		return ref.Metadata.Caption
	}
	name := path.Base(strings.SplitN(ref.URL, "?", 2)[0])
	if name == "/" || name == "." {
		return ref.URL
	}
	return name
}
