package document

import (
	"fmt"
	"regexp"
	"strings"

	"CasePublisher/internal/domain"
	"CasePublisher/internal/scanner"
)

// Input is everything the assembler needs for one document.
type Input struct {
	Draft    domain.Draft
	Resolved []domain.Resolution
	Links    []domain.ResourceReference
}

var (
	tagExpr        = regexp.MustCompile(`<[^>]*>`)
	anchorOnlyExpr = regexp.MustCompile(`^<a\b[^>]*>[^<]*</a>$`)
	standaloneMD   = regexp.MustCompile(`^` + scanner.MarkdownLinkPattern + `$`)
	bareURLExpr    = regexp.MustCompile(scanner.URLPattern)
)

const trailingPunct = ".,;:!?"

// Assemble renders the frontmatter header followed by the body with embeds substituted.
// Every resolved resource is listed in the header whether or not it is embedded.
func Assemble(in Input) ([]byte, error) {
	h, err := header(in.Draft.Kind, in.Draft.Meta, collectIDs(in.Resolved))
	if err != nil {
		return nil, err
	}

	out, err := encodeHeader(h)
	if err != nil {
		return nil, err
	}

	out = append(out, '\n')
	out = append(out, Body(in.Draft.Body, in.Resolved, in.Links)...)
	return out, nil
}

// Body replaces lines holding a single resource with its component and turns bare generic links
// in prose into markdown links. Fenced code is left alone.
func Body(body string, resolved []domain.Resolution, links []domain.ResourceReference) string {
	stored := make(map[string]domain.Resolution, len(resolved))
	for _, r := range resolved {
		stored[r.Reference.URL] = r
	}
	linked := make(map[string]domain.ResourceReference, len(links))
	for _, l := range links {
		linked[l.URL] = l
	}

	lines := strings.Split(body, "\n")
	inFence := false
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~") {
			inFence = !inFence
			continue
		}
		if inFence || trimmed == "" {
			continue
		}

		if url, ok := standaloneURL(trimmed); ok {
			if r, ok := stored[url]; ok {
				lines[i] = embed(r)
				continue
			}
			if l, ok := linked[url]; ok {
				lines[i] = linkCard(l)
				continue
			}
		}

		if len(linked) > 0 {
			lines[i] = linkifyBare(line, linked)
		}
	}

	return strings.Join(lines, "\n")
}

// standaloneURL reports the URL of a line that holds nothing but one resource reference.
func standaloneURL(line string) (string, bool) {
	if m := standaloneMD.FindStringSubmatch(line); m != nil {
		return m[1], true
	}

	if strings.HasPrefix(line, "<") && strings.HasSuffix(line, ">") {
		inner := strings.TrimSuffix(strings.TrimPrefix(line, "<"), ">")
		if (strings.HasPrefix(inner, "http://") || strings.HasPrefix(inner, "https://")) && !strings.ContainsAny(inner, " <>") {
			return inner, true
		}

		urls := scanner.Scan(line)
		if len(urls) != 1 {
			return "", false
		}
		if strings.TrimSpace(tagExpr.ReplaceAllString(line, "")) == "" || anchorOnlyExpr.MatchString(line) {
			return urls[0], true
		}
		return "", false
	}

	if u := strings.TrimRight(line, trailingPunct); u != "" && bareURLExpr.FindString(u) == u {
		return u, true
	}
	return "", false
}

func linkifyBare(line string, linked map[string]domain.ResourceReference) string {
	matches := bareURLExpr.FindAllStringIndex(line, -1)
	if len(matches) == 0 {
		return line
	}

	var b strings.Builder
	last := 0
	for _, m := range matches {
		start, end := m[0], m[1]
		url := strings.TrimRight(line[start:end], trailingPunct)
		end = start + len(url)

		ref, ok := linked[url]
		if !ok || (start > 0 && strings.ContainsRune(`(["'<=`, rune(line[start-1]))) {
			continue
		}

		b.WriteString(line[last:start])
		fmt.Fprintf(&b, "[%s](%s)", escapeLinkText(ref.Metadata.Title, url), url)
		last = end
	}
	b.WriteString(line[last:])
	return b.String()
}

func embed(r domain.Resolution) string {
	md := r.Reference.Metadata
	switch r.Entry.Kind {
	case domain.KindImage:
		return component("Image", "id", r.Entry.ID, "alt", md.Alt, "caption", md.Caption)
	case domain.KindVideo:
		return component("Video", "id", r.Entry.ID, "caption", md.Caption)
	case domain.KindDocument:
		return component("Document", "id", r.Entry.ID, "title", md.Title, "description", md.Description)
	default:
		return r.Reference.URL
	}
}

func linkCard(l domain.ResourceReference) string {
	md := l.Metadata
	return component("LinkCard", "href", l.URL, "title", md.Title, "description", md.Description, "icon", md.Icon)
}

var attrEscaper = strings.NewReplacer(`&`, "&amp;", `"`, "&quot;", `<`, "&lt;", `>`, "&gt;")

// component renders <Name k="v" ... /> skipping empty values; pairs alternate key, value.
func component(name string, pairs ...string) string {
	var b strings.Builder
	b.WriteString("<")
	b.WriteString(name)
	for i := 0; i+1 < len(pairs); i += 2 {
		if pairs[i+1] == "" {
			continue
		}
		fmt.Fprintf(&b, ` %s="%s"`, pairs[i], attrEscaper.Replace(pairs[i+1]))
	}
	b.WriteString(" />")
	return b.String()
}

func escapeLinkText(title, fallback string) string {
	if title == "" {
		title = fallback
	}
	return strings.NewReplacer(`[`, `\[`, `]`, `\]`).Replace(title)
}
