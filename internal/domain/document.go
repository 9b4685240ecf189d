package domain

import "time"

// DocumentKind tells which collection a draft belongs to.
type DocumentKind string

const (
	DocumentCase DocumentKind = "case"
	DocumentPost DocumentKind = "post"
)

// Dir is the directory name used for the kind in both the draft and content trees.
func (k DocumentKind) Dir() string {
	switch k {
	case DocumentCase:
		return "cases"
	case DocumentPost:
		return "posts"
	default:
		return ""
	}
}

// KindFromDir maps a directory name back to its document kind.
func KindFromDir(dir string) (DocumentKind, bool) {
	switch dir {
	case "cases":
		return DocumentCase, true
	case "posts":
		return DocumentPost, true
	default:
		return "", false
	}
}

// DraftMeta carries the author-supplied fields of a draft's frontmatter.
type DraftMeta struct {
	Title         string   `yaml:"title"`
	Date          string   `yaml:"date"`
	Description   string   `yaml:"description"`
	Tags          []string `yaml:"tags"`
	Victim        string   `yaml:"victim"`
	Age           int      `yaml:"age"`
	City          string   `yaml:"city"`
	Region        string   `yaml:"region"`
	Organizations []string `yaml:"organizations"`
	Status        string   `yaml:"status"`
	Author        string   `yaml:"author"`
	Category      string   `yaml:"category"`
}

// Draft is raw author input waiting in the pending area.
type Draft struct {
	Kind DocumentKind
	Path string
	Slug string
	Meta DraftMeta
	Body string
}

// DraftSummary is the listing view of a pending draft.
type DraftSummary struct {
	Kind       DocumentKind
	Path       string
	Slug       string
	ModifiedAt time.Time
}

// PublishReport is what the operator sees after a successful run.
type PublishReport struct {
	DocumentPath string
	ArchivePath  string
	NewUploads   int
	Reused       int
	Links        int
	Degraded     bool
}
