// Package library is the append-only ledger of assets fetched from external URLs.
package library

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"CasePublisher/internal/domain"
	"CasePublisher/internal/infrastructure/filestore"
	"CasePublisher/internal/logging"
	"CasePublisher/internal/ports"
)

// Ledger is the persisted JSON layout: one section per kind, keyed by entry id.
type Ledger struct {
	Videos    map[string]domain.LibraryEntry `json:"videos"`
	Images    map[string]domain.LibraryEntry `json:"images"`
	Documents map[string]domain.LibraryEntry `json:"documents"`
}

func emptyLedger() Ledger {
	return Ledger{
		Videos:    map[string]domain.LibraryEntry{},
		Images:    map[string]domain.LibraryEntry{},
		Documents: map[string]domain.LibraryEntry{},
	}
}

func (l *Ledger) section(kind domain.ResourceKind) map[string]domain.LibraryEntry {
	switch kind {
	case domain.KindVideo:
		if l.Videos == nil {
			l.Videos = map[string]domain.LibraryEntry{}
		}
		return l.Videos
	case domain.KindImage:
		if l.Images == nil {
			l.Images = map[string]domain.LibraryEntry{}
		}
		return l.Images
	case domain.KindDocument:
		if l.Documents == nil {
			l.Documents = map[string]domain.LibraryEntry{}
		}
		return l.Documents
	default:
		return nil
	}
}

var kinds = []domain.ResourceKind{domain.KindVideo, domain.KindImage, domain.KindDocument}

// JSONLibrary implements ports.ResourceLibrary over a single JSON document.
type JSONLibrary struct {
	doc    *filestore.Document[Ledger]
	now    func() time.Time
	logger *slog.Logger
}

var _ ports.ResourceLibrary = (*JSONLibrary)(nil)

// NewJSONLibrary binds the library to path.
func NewJSONLibrary(path string, logger *slog.Logger) *JSONLibrary {
	if logger == nil {
		logger = logging.Discard()
	}
	return &JSONLibrary{
		doc:    filestore.NewDocument(path, emptyLedger),
		now:    time.Now,
		logger: logger,
	}
}

// FindBySourceURL looks up an entry by exact source URL across all kinds.
func (l *JSONLibrary) FindBySourceURL(ctx context.Context, url string) (domain.LibraryEntry, bool, error) {
	ledger, err := l.doc.Read(ctx)
	if err != nil {
		return domain.LibraryEntry{}, false, fmt.Errorf("read library: %w", err)
	}
	entry, ok := find(&ledger, url)
	return entry, ok, nil
}

// FindByKind looks up an entry by exact source URL within the section of kind.
func (l *JSONLibrary) FindByKind(ctx context.Context, kind domain.ResourceKind, url string) (domain.LibraryEntry, bool, error) {
	ledger, err := l.doc.Read(ctx)
	if err != nil {
		return domain.LibraryEntry{}, false, fmt.Errorf("read library: %w", err)
	}
	for id, e := range ledger.section(kind) {
		if e.SourceURL == url {
			e.ID, e.Kind = id, kind
			return e, true, nil
		}
	}
	return domain.LibraryEntry{}, false, nil
}

// RegisterVideo records a stored video.
func (l *JSONLibrary) RegisterVideo(ctx context.Context, sourceURL string, asset domain.VideoAsset) (domain.LibraryEntry, error) {
	return l.register(ctx, domain.LibraryEntry{Kind: domain.KindVideo, SourceURL: sourceURL, Video: &asset})
}

// RegisterImage records a stored image.
func (l *JSONLibrary) RegisterImage(ctx context.Context, sourceURL string, asset domain.ImageAsset) (domain.LibraryEntry, error) {
	return l.register(ctx, domain.LibraryEntry{Kind: domain.KindImage, SourceURL: sourceURL, Image: &asset})
}

// RegisterDocument records a stored document.
func (l *JSONLibrary) RegisterDocument(ctx context.Context, sourceURL string, asset domain.DocumentAsset) (domain.LibraryEntry, error) {
	return l.register(ctx, domain.LibraryEntry{Kind: domain.KindDocument, SourceURL: sourceURL, Document: &asset})
}

// List returns every entry ordered by id, which orders by creation time.
func (l *JSONLibrary) List(ctx context.Context) ([]domain.LibraryEntry, error) {
	ledger, err := l.doc.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("read library: %w", err)
	}
	var out []domain.LibraryEntry
	for _, kind := range kinds {
		for id, e := range ledger.section(kind) {
			e.ID, e.Kind = id, kind
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return idTime(out[i].ID) < idTime(out[j].ID) })
	return out, nil
}

// register inserts entry inside one read-modify-write cycle. A source URL already present
// in the same section is rejected with domain.ErrDuplicate and the existing entry.
func (l *JSONLibrary) register(ctx context.Context, entry domain.LibraryEntry) (domain.LibraryEntry, error) {
	entry.AddedAt = l.now().UTC()
	entry.ID = NewID(entry.Kind, entry.AddedAt)

	var existing domain.LibraryEntry
	err := l.doc.Update(ctx, func(ledger *Ledger) error {
		section := ledger.section(entry.Kind)
		for id, e := range section {
			if e.SourceURL == entry.SourceURL {
				e.ID, e.Kind = id, entry.Kind
				existing = e
				return domain.ErrDuplicate
			}
		}
		section[entry.ID] = entry
		return nil
	})
	if err != nil {
		return existing, fmt.Errorf("register %s %s: %w", entry.Kind, entry.SourceURL, err)
	}

	l.logger.Debug("library entry registered", "id", entry.ID, "kind", entry.Kind, "url", entry.SourceURL)
	return entry, nil
}

// idTime strips the kind prefix so ids of different kinds sort by their ulid part.
func idTime(id string) string {
	if i := strings.IndexByte(id, '_'); i >= 0 {
		return id[i+1:]
	}
	return id
}

func find(ledger *Ledger, url string) (domain.LibraryEntry, bool) {
	for _, kind := range kinds {
		for id, e := range ledger.section(kind) {
			if e.SourceURL == url {
				e.ID, e.Kind = id, kind
				return e, true
			}
		}
	}
	return domain.LibraryEntry{}, false
}
