package scanner

import (
	"testing"

	"CasePublisher/internal/domain"
)

func TestDefaultRegistryClassify(t *testing.T) {
	t.Parallel()

	reg := DefaultRegistry()
	cases := map[string]domain.ResourceKind{
		"https://img.example.org/a.JPG":                 domain.KindImage,
		"https://img.example.org/a.webp?w=800":          domain.KindImage,
		"https://cdn.example.org/clip.mp4#t=10":         domain.KindVideo,
		"https://court.example.gov/filing.pdf":          domain.KindDocument,
		"https://court.example.gov/download?file=a.pdf": domain.KindLink,
		"https://news.example.com/story":                domain.KindLink,
		"https://news.example.com/":                     domain.KindLink,
		"https://example.com/archive.tar.gz":            domain.KindLink,
	}
	for in, want := range cases {
		if got := reg.Classify(in); got != want {
			t.Fatalf("Classify(%q) = %s, want %s", in, got, want)
		}
	}
}

func TestClassifyIsTotal(t *testing.T) {
	t.Parallel()

	reg := DefaultRegistry()
	inputs := []string{"", "%", "http://[::1", "not a url", "https://x/y.", "https://x/.png", "ftp://host/file.mov"}
	valid := map[domain.ResourceKind]bool{
		domain.KindImage: true, domain.KindVideo: true, domain.KindDocument: true, domain.KindLink: true,
	}
	for _, in := range inputs {
		if got := reg.Classify(in); !valid[got] {
			t.Fatalf("Classify(%q) returned unknown kind %q", in, got)
		}
	}
}

func TestRegisterKeepsFirstClaim(t *testing.T) {
	t.Parallel()

	reg := NewRegistry()
	reg.Register(Rule{Kind: domain.KindImage, Extensions: []string{".gif"}})
	reg.Register(Rule{Kind: domain.KindVideo, Extensions: []string{"gif", "mp4"}})

	if got := reg.Classify("https://x/y.gif"); got != domain.KindImage {
		t.Fatalf("expected first rule to win, got %s", got)
	}
	if got := reg.Classify("https://x/y.mp4"); got != domain.KindVideo {
		t.Fatalf("expected video, got %s", got)
	}
}
