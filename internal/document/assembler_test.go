package document

import (
	"bytes"
	"strings"
	"testing"

	"github.com/adrg/frontmatter"

	"CasePublisher/internal/domain"
)

func resolution(kind domain.ResourceKind, url, id string, md domain.Metadata) domain.Resolution {
	return domain.Resolution{
		Reference: domain.ResourceReference{URL: url, Kind: kind, Metadata: md},
		Entry:     domain.LibraryEntry{ID: id, Kind: kind, SourceURL: url},
	}
}

func caseDraft(body string) domain.Draft {
	return domain.Draft{
		Kind: domain.DocumentCase,
		Slug: "john-doe",
		Meta: domain.DraftMeta{
			Title:         "Death in custody",
			Date:          "2024-03-02",
			Victim:        "John Doe",
			Age:           34,
			Region:        "Illinois",
			Organizations: []string{"Chicago Police Department"},
			Status:        "investigating",
		},
		Body: body,
	}
}

func TestAssembleHeaderListsEveryResource(t *testing.T) {
	t.Parallel()

	body := "Intro paragraph.\n\nhttps://img.example.org/scene.jpg\n\nThe report https://court.example.gov/report.pdf was filed.\n"
	resolved := []domain.Resolution{
		resolution(domain.KindImage, "https://img.example.org/scene.jpg", "img_1", domain.Metadata{Alt: "Scene"}),
		resolution(domain.KindDocument, "https://court.example.gov/report.pdf", "doc_1", domain.Metadata{Title: "Report"}),
		resolution(domain.KindVideo, "https://cdn.example.org/v.mp4", "vid_1", domain.Metadata{}),
	}

	out, err := Assemble(Input{Draft: caseDraft(body), Resolved: resolved})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}

	var parsed CaseHeader
	rest, err := frontmatter.MustParse(bytes.NewReader(out), &parsed)
	if err != nil {
		t.Fatalf("parse output: %v\n%s", err, out)
	}
	if len(parsed.Images) != 1 || parsed.Images[0] != "img_1" {
		t.Fatalf("unexpected images %v", parsed.Images)
	}
	if len(parsed.Documents) != 1 || parsed.Documents[0] != "doc_1" {
		t.Fatalf("inline-only document must still be listed: %v", parsed.Documents)
	}
	if len(parsed.Videos) != 1 || parsed.Videos[0] != "vid_1" {
		t.Fatalf("unembedded video must still be listed: %v", parsed.Videos)
	}
	if parsed.Victim != "John Doe" || parsed.Age != 34 || parsed.Organizations[0] != "Chicago Police Department" {
		t.Fatalf("unexpected header %+v", parsed)
	}

	text := string(rest)
	if !strings.Contains(text, `<Image id="img_1" alt="Scene" />`) {
		t.Fatalf("standalone image not embedded:\n%s", text)
	}
	if !strings.Contains(text, "The report https://court.example.gov/report.pdf was filed.") {
		t.Fatalf("inline document reference must stay untouched:\n%s", text)
	}
}

func TestAssembleKeyOrder(t *testing.T) {
	t.Parallel()

	out, err := Assemble(Input{Draft: caseDraft("Body.\n")})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}

	text := string(out)
	order := []string{"title:", "date:", "description:", "victim:", "age:", "city:", "region:", "organizations:", "status:", "tags:", "images:", "videos:", "documents:"}
	last := -1
	for _, key := range order {
		idx := strings.Index(text, "\n"+key)
		if idx <= last {
			t.Fatalf("key %s out of order in\n%s", key, text)
		}
		last = idx
	}
	if !strings.Contains(text, "images: []") {
		t.Fatalf("empty resource lists must still be present:\n%s", text)
	}
}

func TestAssemblePostHeader(t *testing.T) {
	t.Parallel()

	draft := domain.Draft{
		Kind: domain.DocumentPost,
		Meta: domain.DraftMeta{Title: "Weekly", Date: "2024-04-01", Author: "Editor", Category: "news", Victim: "ignored"},
		Body: "Text\n",
	}
	out, err := Assemble(Input{Draft: draft})
	if err != nil {
		t.Fatalf("assemble: %v", err)
	}
	if strings.Contains(string(out), "victim") || !strings.Contains(string(out), "category: news") {
		t.Fatalf("unexpected post header:\n%s", out)
	}
}

func TestBodyEmbedsAndLinks(t *testing.T) {
	t.Parallel()

	body := strings.Join([]string{
		"![scene](https://img.example.org/scene.jpg)",
		`<video src="https://cdn.example.org/bodycam.mp4" controls></video>`,
		"[Complaint](https://court.example.gov/complaint.pdf)",
		"https://news.example.com/story",
		"Coverage at https://news.example.com/story, and [here](https://news.example.com/story).",
		"```",
		"https://img.example.org/scene.jpg",
		"```",
	}, "\n")

	resolved := []domain.Resolution{
		resolution(domain.KindImage, "https://img.example.org/scene.jpg", "img_1", domain.Metadata{Alt: `Officer says "stop"`, Caption: "Outside"}),
		resolution(domain.KindVideo, "https://cdn.example.org/bodycam.mp4", "vid_1", domain.Metadata{Caption: "Bodycam"}),
		resolution(domain.KindDocument, "https://court.example.gov/complaint.pdf", "doc_1", domain.Metadata{Title: "Complaint", Description: "Filed in court."}),
	}
	links := []domain.ResourceReference{{
		URL:      "https://news.example.com/story",
		Kind:     domain.KindLink,
		Metadata: domain.Metadata{Title: "Tribune story", Icon: "news"},
	}}

	got := strings.Split(Body(body, resolved, links), "\n")
	want := []string{
		`<Image id="img_1" alt="Officer says &quot;stop&quot;" caption="Outside" />`,
		`<Video id="vid_1" caption="Bodycam" />`,
		`<Document id="doc_1" title="Complaint" description="Filed in court." />`,
		`<LinkCard href="https://news.example.com/story" title="Tribune story" icon="news" />`,
		"Coverage at [Tribune story](https://news.example.com/story), and [here](https://news.example.com/story).",
		"```",
		"https://img.example.org/scene.jpg",
		"```",
	}
	if len(got) != len(want) {
		t.Fatalf("line count mismatch: %q", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("line %d:\n got %s\nwant %s", i, got[i], want[i])
		}
	}
}

func TestBodyEmbedsParenthesisedImage(t *testing.T) {
	t.Parallel()

	url := "https://img.example.org/scene_(1).jpg"
	resolved := []domain.Resolution{resolution(domain.KindImage, url, "img_7", domain.Metadata{Alt: "Scene"})}

	got := Body("![scene]("+url+")\nSee https://img.example.org/scene_(1).jpg.", resolved, nil)
	want := "<Image id=\"img_7\" alt=\"Scene\" />\nSee https://img.example.org/scene_(1).jpg."
	if got != want {
		t.Fatalf("Body() =\n%s\nwant\n%s", got, want)
	}
}

func TestStandaloneURL(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"https://x.example/a.png.":                          "https://x.example/a.png",
		"<https://x.example/a.png>":                         "https://x.example/a.png",
		`<img src="https://x.example/a.png" alt="a">`:       "https://x.example/a.png",
		`<a href="https://x.example/doc.pdf">Report</a>`:    "https://x.example/doc.pdf",
		"See https://x.example/a.png":                       "",
		"![scene](https://x.example/scene_(1).jpg)":         "https://x.example/scene_(1).jpg",
		"https://x.example/wiki/Case_(2014).":               "https://x.example/wiki/Case_(2014)",
		`<p>See <a href="https://x.example/">x</a> now</p>`: "",
	}
	for line, want := range cases {
		got, ok := standaloneURL(line)
		if (want != "") != ok || got != want {
			t.Fatalf("%q: got %q ok=%v, want %q", line, got, ok, want)
		}
	}
}
