package scanner

import (
	"net/url"
	"path"
	"strings"

	"CasePublisher/internal/domain"
)

// Rule maps a set of filename extensions to a resource kind.
type Rule struct {
	Kind       domain.ResourceKind
	Extensions []string
}

// Registry keeps classification rules in the order they are checked.
type Registry struct {
	rules []Rule
	index map[string]domain.ResourceKind
}

// NewRegistry builds an empty registry; every URL classifies as a link until rules are added.
func NewRegistry() *Registry {
	return &Registry{index: map[string]domain.ResourceKind{}}
}

// DefaultRegistry holds the image, video and document rules, checked in that order.
func DefaultRegistry() *Registry {
	reg := NewRegistry()
	reg.Register(Rule{Kind: domain.KindImage, Extensions: []string{"jpg", "jpeg", "png", "gif", "webp", "avif", "svg", "heic", "bmp", "tif", "tiff"}})
	reg.Register(Rule{Kind: domain.KindVideo, Extensions: []string{"mp4", "mov", "webm", "m4v", "avi", "mkv", "mpeg", "mpg", "m3u8"}})
	reg.Register(Rule{Kind: domain.KindDocument, Extensions: []string{"pdf", "doc", "docx", "odt", "rtf", "txt", "csv", "xls", "xlsx", "ppt", "pptx"}})
	return reg
}

// Register appends a rule. An extension already claimed by an earlier rule keeps its first kind.
func (r *Registry) Register(rule Rule) {
	if r.index == nil {
		r.index = map[string]domain.ResourceKind{}
	}
	r.rules = append(r.rules, rule)
	for _, ext := range rule.Extensions {
		ext = strings.ToLower(strings.TrimPrefix(ext, "."))
		if _, taken := r.index[ext]; !taken {
			r.index[ext] = rule.Kind
		}
	}
}

// Classify returns exactly one kind for any input; unknown or extensionless URLs are links.
func (r *Registry) Classify(rawURL string) domain.ResourceKind {
	ext := extension(rawURL)
	if ext == "" || r == nil {
		return domain.KindLink
	}
	if kind, ok := r.index[ext]; ok {
		return kind
	}
	return domain.KindLink
}

// extension returns the lowercase extension of the URL path, ignoring query and fragment.
func extension(rawURL string) string {
	p := rawURL
	if parsed, err := url.Parse(rawURL); err == nil {
		p = parsed.Path
	} else {
		if i := strings.IndexAny(p, "?#"); i >= 0 {
			p = p[:i]
		}
	}
	ext := path.Ext(p)
	if ext == "" {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(ext, "."))
}
