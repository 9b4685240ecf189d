package document

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"

	"CasePublisher/internal/domain"
)

// CaseHeader is the published frontmatter of an incident case; field order is the key order.
type CaseHeader struct {
	Title         string   `yaml:"title"`
	Date          string   `yaml:"date"`
	Description   string   `yaml:"description"`
	Victim        string   `yaml:"victim"`
	Age           int      `yaml:"age,omitempty"`
	City          string   `yaml:"city"`
	Region        string   `yaml:"region"`
	Organizations []string `yaml:"organizations"`
	Status        string   `yaml:"status"`
	Tags          []string `yaml:"tags"`
	Images        []string `yaml:"images"`
	Videos        []string `yaml:"videos"`
	Documents     []string `yaml:"documents"`
}

// PostHeader is the published frontmatter of an editorial post.
type PostHeader struct {
	Title       string   `yaml:"title"`
	Date        string   `yaml:"date"`
	Description string   `yaml:"description"`
	Author      string   `yaml:"author"`
	Category    string   `yaml:"category"`
	Tags        []string `yaml:"tags"`
	Images      []string `yaml:"images"`
	Videos      []string `yaml:"videos"`
	Documents   []string `yaml:"documents"`
}

// resourceIDs groups entry ids by field, first appearance first.
type resourceIDs struct {
	images, videos, documents []string
}

func collectIDs(resolved []domain.Resolution) resourceIDs {
	ids := resourceIDs{images: []string{}, videos: []string{}, documents: []string{}}
	seen := map[string]bool{}
	for _, r := range resolved {
		if seen[r.Entry.ID] {
			continue
		}
		seen[r.Entry.ID] = true
		switch r.Entry.Kind {
		case domain.KindImage:
			ids.images = append(ids.images, r.Entry.ID)
		case domain.KindVideo:
			ids.videos = append(ids.videos, r.Entry.ID)
		case domain.KindDocument:
			ids.documents = append(ids.documents, r.Entry.ID)
		}
	}
	return ids
}

func header(kind domain.DocumentKind, meta domain.DraftMeta, ids resourceIDs) (any, error) {
	switch kind {
	case domain.DocumentCase:
		return CaseHeader{
			Title:         meta.Title,
			Date:          meta.Date,
			Description:   meta.Description,
			Victim:        meta.Victim,
			Age:           meta.Age,
			City:          meta.City,
			Region:        meta.Region,
			Organizations: nonNil(meta.Organizations),
			Status:        meta.Status,
			Tags:          nonNil(meta.Tags),
			Images:        ids.images,
			Videos:        ids.videos,
			Documents:     ids.documents,
		}, nil
	case domain.DocumentPost:
		return PostHeader{
			Title:       meta.Title,
			Date:        meta.Date,
			Description: meta.Description,
			Author:      meta.Author,
			Category:    meta.Category,
			Tags:        nonNil(meta.Tags),
			Images:      ids.images,
			Videos:      ids.videos,
			Documents:   ids.documents,
		}, nil
	default:
		return nil, fmt.Errorf("unknown document kind %q", kind)
	}
}

func encodeHeader(v any) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteString("---\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("encode frontmatter: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode frontmatter: %w", err)
	}
	buf.WriteString("---\n")
	return buf.Bytes(), nil
}

func nonNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}
