package content

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/adrg/frontmatter"
	"github.com/bmatcuk/doublestar/v4"

	"CasePublisher/internal/vocabulary"
)

const publishedPattern = "{cases,posts}/**/*.{md,mdx}"

type observedFields struct {
	Region        string   `yaml:"region"`
	Organizations []string `yaml:"organizations"`
	Tags          []string `yaml:"tags"`
}

// Corpus reads constrained values out of every published document.
type Corpus struct {
	root string
}

var _ vocabulary.Corpus = (*Corpus)(nil)

func NewCorpus(root string) *Corpus {
	return &Corpus{root: root}
}

// ObservedValues fails on the first document without parsable frontmatter.
func (c *Corpus) ObservedValues(ctx context.Context) (map[string][]string, error) {
	matches, err := doublestar.Glob(os.DirFS(c.root), publishedPattern)
	if err != nil {
		return nil, fmt.Errorf("glob published documents: %w", err)
	}

	out := map[string][]string{}
	for _, rel := range matches {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		path := filepath.Join(c.root, filepath.FromSlash(rel))
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}

		var fields observedFields
		if _, err := frontmatter.MustParse(bytes.NewReader(raw), &fields); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}

		if fields.Region != "" {
			out[vocabulary.ListRegions] = append(out[vocabulary.ListRegions], fields.Region)
		}
		out[vocabulary.ListOrganizations] = append(out[vocabulary.ListOrganizations], fields.Organizations...)
		out[vocabulary.ListTags] = append(out[vocabulary.ListTags], fields.Tags...)
	}

	return out, nil
}
