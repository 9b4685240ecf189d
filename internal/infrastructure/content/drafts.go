package content

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	md "github.com/JohannesKaufmann/html-to-markdown"
	"github.com/JohannesKaufmann/html-to-markdown/plugin"
	"github.com/adrg/frontmatter"
	"github.com/bmatcuk/doublestar/v4"

	"CasePublisher/internal/domain"
	"CasePublisher/internal/logging"
	"CasePublisher/internal/ports"
)

const draftPattern = "{cases,posts}/*.{md,mdx,html}"

// DraftStore reads drafts from <root>/<kind dir>/ and archives them into <kind dir>/<archiveDir>/.
type DraftStore struct {
	root       string
	archiveDir string
	logger     *slog.Logger
	now        func() time.Time
	html       *md.Converter
}

var _ ports.DraftStore = (*DraftStore)(nil)

// NewDraftStore wires the pending area.
func NewDraftStore(root, archiveDir string, logger *slog.Logger) *DraftStore {
	if logger == nil {
		logger = logging.Discard()
	}
	if archiveDir == "" {
		archiveDir = "published"
	}

	converter := md.NewConverter("", true, nil)
	converter.Use(plugin.GitHubFlavored())

	return &DraftStore{
		root:       root,
		archiveDir: archiveDir,
		logger:     logger.With("component", "drafts"),
		now:        time.Now,
		html:       converter,
	}
}

// List returns pending drafts of both kinds, newest first.
func (s *DraftStore) List(ctx context.Context) ([]domain.DraftSummary, error) {
	matches, err := doublestar.Glob(os.DirFS(s.root), draftPattern)
	if err != nil {
		return nil, fmt.Errorf("glob drafts: %w", err)
	}

	out := make([]domain.DraftSummary, 0, len(matches))
	for _, rel := range matches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		path := filepath.Join(s.root, filepath.FromSlash(rel))
		info, err := os.Stat(path)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", path, err)
		}
		if info.IsDir() {
			continue
		}

		kind, _ := domain.KindFromDir(filepath.Base(filepath.Dir(path)))
		out = append(out, domain.DraftSummary{
			Kind:       kind,
			Path:       path,
			Slug:       Slugify(stem(path)),
			ModifiedAt: info.ModTime(),
		})
	}

	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].ModifiedAt.Equal(out[j].ModifiedAt) {
			return out[i].ModifiedAt.After(out[j].ModifiedAt)
		}
		return out[i].Path < out[j].Path
	})

	return out, nil
}

// Read parses one draft. The kind comes from the containing directory.
func (s *DraftStore) Read(_ context.Context, path string) (domain.Draft, error) {
	kind, ok := domain.KindFromDir(filepath.Base(filepath.Dir(path)))
	if !ok {
		return domain.Draft{}, fmt.Errorf("%s is not inside cases/ or posts/: %w", path, domain.ErrInvalidInput)
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return domain.Draft{}, fmt.Errorf("draft %s: %w", path, domain.ErrNotFound)
	}
	if err != nil {
		return domain.Draft{}, fmt.Errorf("read draft %s: %w", path, err)
	}

	var meta domain.DraftMeta
	body, err := frontmatter.Parse(bytes.NewReader(raw), &meta)
	if err != nil {
		return domain.Draft{}, fmt.Errorf("parse frontmatter of %s: %v: %w", path, err, domain.ErrInvalidInput)
	}

	text := string(body)
	if strings.EqualFold(filepath.Ext(path), ".html") {
		text, err = s.html.ConvertString(text)
		if err != nil {
			return domain.Draft{}, fmt.Errorf("convert %s to markdown: %v: %w", path, err, domain.ErrInvalidInput)
		}
	}

	return domain.Draft{
		Kind: kind,
		Path: path,
		Slug: Slugify(stem(path)),
		Meta: meta,
		Body: strings.TrimSpace(text) + "\n",
	}, nil
}

// Archive renames the draft into the archive directory next to it and returns the new path.
func (s *DraftStore) Archive(_ context.Context, path string) (string, error) {
	dir := filepath.Join(filepath.Dir(path), s.archiveDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create archive dir %s: %w", dir, err)
	}

	target := filepath.Join(dir, filepath.Base(path))
	if _, err := os.Stat(target); err == nil {
		ext := filepath.Ext(path)
		target = filepath.Join(dir, fmt.Sprintf("%s-%s%s", stem(path), s.now().UTC().Format("20060102T150405"), ext))
	}

	if err := os.Rename(path, target); err != nil {
		return "", fmt.Errorf("archive %s: %w", path, err)
	}

	s.logger.Info("draft archived", "from", path, "to", target)
	return target, nil
}

var slugUnsafe = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify lowercases s and joins its alphanumeric runs with dashes.
func Slugify(s string) string {
	return strings.Trim(slugUnsafe.ReplaceAllString(strings.ToLower(s), "-"), "-")
}

func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
