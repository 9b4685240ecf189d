package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	_ "modernc.org/sqlite"

	"CasePublisher/internal/domain"
	"CasePublisher/internal/library"
	"CasePublisher/internal/ports"
)

const schema = `
CREATE TABLE IF NOT EXISTS library_entries (
	id TEXT PRIMARY KEY,
	kind TEXT NOT NULL,
	source_url TEXT NOT NULL,
	added_at TEXT NOT NULL,
	handles TEXT NOT NULL,
	UNIQUE(kind, source_url)
);
CREATE INDEX IF NOT EXISTS idx_library_source_url ON library_entries(source_url);
`

// addedAtLayout is fixed width so added_at sorts chronologically as text.
const addedAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteLibrary persists library entries in SQLite; uniqueness of (kind, source_url) is a
// table constraint rather than a caller convention.
type SQLiteLibrary struct {
	db  *sql.DB
	sb  sq.StatementBuilderType
	now func() time.Time
}

var _ ports.ResourceLibrary = (*SQLiteLibrary)(nil)

// OpenSQLiteLibrary opens (and migrates) the database at path.
func OpenSQLiteLibrary(ctx context.Context, path string) (*SQLiteLibrary, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create dir for %s: %w", path, err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// one connection keeps writes serialized within the process
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{"PRAGMA journal_mode=WAL", "PRAGMA busy_timeout=5000"} {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("%s: %w", pragma, err)
		}
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	return &SQLiteLibrary{
		db:  db,
		sb:  sq.StatementBuilder.PlaceholderFormat(sq.Question),
		now: time.Now,
	}, nil
}

// Close releases the database handle.
func (r *SQLiteLibrary) Close() error {
	return r.db.Close()
}

// FindBySourceURL returns the oldest entry whose source URL matches exactly.
func (r *SQLiteLibrary) FindBySourceURL(ctx context.Context, url string) (domain.LibraryEntry, bool, error) {
	return r.findOne(ctx, url, sq.Eq{"source_url": url})
}

// FindByKind returns the entry of kind whose source URL matches exactly.
func (r *SQLiteLibrary) FindByKind(ctx context.Context, kind domain.ResourceKind, url string) (domain.LibraryEntry, bool, error) {
	return r.findOne(ctx, url, sq.Eq{"kind": string(kind), "source_url": url})
}

func (r *SQLiteLibrary) findOne(ctx context.Context, url string, where sq.Eq) (domain.LibraryEntry, bool, error) {
	query, args, err := r.selectEntries().Where(where).OrderBy("added_at", "id").Limit(1).ToSql()
	if err != nil {
		return domain.LibraryEntry{}, false, fmt.Errorf("build query: %w", err)
	}

	entry, err := scanEntry(r.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.LibraryEntry{}, false, nil
	}
	if err != nil {
		return domain.LibraryEntry{}, false, fmt.Errorf("find %s: %w", url, err)
	}
	return entry, true, nil
}

// RegisterVideo records a stored video.
func (r *SQLiteLibrary) RegisterVideo(ctx context.Context, sourceURL string, asset domain.VideoAsset) (domain.LibraryEntry, error) {
	return r.insert(ctx, domain.LibraryEntry{Kind: domain.KindVideo, SourceURL: sourceURL, Video: &asset})
}

// RegisterImage records a stored image.
func (r *SQLiteLibrary) RegisterImage(ctx context.Context, sourceURL string, asset domain.ImageAsset) (domain.LibraryEntry, error) {
	return r.insert(ctx, domain.LibraryEntry{Kind: domain.KindImage, SourceURL: sourceURL, Image: &asset})
}

// RegisterDocument records a stored document.
func (r *SQLiteLibrary) RegisterDocument(ctx context.Context, sourceURL string, asset domain.DocumentAsset) (domain.LibraryEntry, error) {
	return r.insert(ctx, domain.LibraryEntry{Kind: domain.KindDocument, SourceURL: sourceURL, Document: &asset})
}

// List returns all entries in creation order.
func (r *SQLiteLibrary) List(ctx context.Context) ([]domain.LibraryEntry, error) {
	query, args, err := r.selectEntries().OrderBy("added_at", "id").ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}

	var out []domain.LibraryEntry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			_ = rows.Close()
			return nil, fmt.Errorf("scan entry: %w", err)
		}
		out = append(out, entry)
	}

	if rowsErr := rows.Err(); rowsErr != nil {
		_ = rows.Close()
		return nil, fmt.Errorf("rows iteration: %w", rowsErr)
	}

	if closeErr := rows.Close(); closeErr != nil {
		return nil, fmt.Errorf("close rows: %w", closeErr)
	}

	return out, nil
}

func (r *SQLiteLibrary) insert(ctx context.Context, entry domain.LibraryEntry) (domain.LibraryEntry, error) {
	entry.AddedAt = r.now().UTC()
	entry.ID = library.NewID(entry.Kind, entry.AddedAt)

	handles, err := json.Marshal(handlesOf(entry))
	if err != nil {
		return domain.LibraryEntry{}, fmt.Errorf("encode handles: %w", err)
	}

	query, args, err := r.sb.Insert("library_entries").
		Columns("id", "kind", "source_url", "added_at", "handles").
		Values(entry.ID, string(entry.Kind), entry.SourceURL, entry.AddedAt.Format(addedAtLayout), string(handles)).
		ToSql()
	if err != nil {
		return domain.LibraryEntry{}, fmt.Errorf("build insert: %w", err)
	}

	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			existing, _, findErr := r.FindByKind(ctx, entry.Kind, entry.SourceURL)
			if findErr != nil {
				return domain.LibraryEntry{}, findErr
			}
			return existing, fmt.Errorf("register %s %s: %w", entry.Kind, entry.SourceURL, domain.ErrDuplicate)
		}
		return domain.LibraryEntry{}, fmt.Errorf("insert entry: %w", err)
	}

	return entry, nil
}

func (r *SQLiteLibrary) selectEntries() sq.SelectBuilder {
	return r.sb.Select("id", "kind", "source_url", "added_at", "handles").From("library_entries")
}

type rowScanner interface {
	Scan(dest ...any) error
}

type handles struct {
	Video    *domain.VideoAsset    `json:"stream,omitempty"`
	Image    *domain.ImageAsset    `json:"images,omitempty"`
	Document *domain.DocumentAsset `json:"storage,omitempty"`
}

func handlesOf(e domain.LibraryEntry) handles {
	return handles{Video: e.Video, Image: e.Image, Document: e.Document}
}

func scanEntry(row rowScanner) (domain.LibraryEntry, error) {
	var (
		entry   domain.LibraryEntry
		kind    string
		addedAt string
		raw     string
	)
	if err := row.Scan(&entry.ID, &kind, &entry.SourceURL, &addedAt, &raw); err != nil {
		return domain.LibraryEntry{}, err
	}

	entry.Kind = domain.ResourceKind(kind)
	ts, err := time.Parse(time.RFC3339Nano, addedAt)
	if err != nil {
		return domain.LibraryEntry{}, fmt.Errorf("parse added_at %q: %w", addedAt, err)
	}
	entry.AddedAt = ts

	var h handles
	if err := json.Unmarshal([]byte(raw), &h); err != nil {
		return domain.LibraryEntry{}, fmt.Errorf("decode handles of %s: %w", entry.ID, err)
	}
	entry.Video, entry.Image, entry.Document = h.Video, h.Image, h.Document
	return entry, nil
}

func isUniqueViolation(err error) bool {
	return strings.Contains(err.Error(), "UNIQUE constraint failed")
}
