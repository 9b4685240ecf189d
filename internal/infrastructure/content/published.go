package content

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"CasePublisher/internal/domain"
	"CasePublisher/internal/infrastructure/filestore"
	"CasePublisher/internal/ports"
)

// PublishedStore writes final documents under <root>/<kind dir>/<slug>.mdx.
type PublishedStore struct {
	root string
}

var _ ports.PublishedStore = (*PublishedStore)(nil)

func NewPublishedStore(root string) *PublishedStore {
	return &PublishedStore{root: root}
}

func (s *PublishedStore) PathFor(kind domain.DocumentKind, slug string) string {
	return filepath.Join(s.root, kind.Dir(), slug+".mdx")
}

func (s *PublishedStore) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, os.ErrNotExist):
		return false, nil
	default:
		return false, fmt.Errorf("stat %s: %w", path, err)
	}
}

// Write creates path; an existing file is replaced only when overwrite is set.
func (s *PublishedStore) Write(_ context.Context, path string, content []byte, overwrite bool) error {
	if overwrite {
		return filestore.WriteAtomic(path, content)
	}
	if err := filestore.WriteExclusive(path, content); err != nil {
		if errors.Is(err, os.ErrExist) {
			return fmt.Errorf("%s already exists: %w", path, domain.ErrDuplicate)
		}
		return err
	}
	return nil
}
