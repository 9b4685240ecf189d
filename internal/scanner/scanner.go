package scanner

import (
	"regexp"
	"sort"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	urlChar    = `[^\s<>()\[\]"'` + "`" + `]`
	targetChar = `[^\s()<>]`

	// URLPattern matches a bare http(s) URL; one level of balanced parentheses is kept.
	URLPattern = `https?://(?:` + urlChar + `|\(` + urlChar + `*\))+`

	// MarkdownLinkPattern matches [text](url) and ![alt](url) with an optional "title".
	// Group 1 is the target, which may hold balanced parentheses.
	MarkdownLinkPattern = `!?\[[^\]]*\]\(\s*<?(https?://(?:` + targetChar + `|\(` + targetChar + `*\))+)>?(?:\s+"[^"]*")?\s*\)`
)

var (
	markdownLinkExpr = regexp.MustCompile(MarkdownLinkPattern)
	autolinkExpr     = regexp.MustCompile(`<(https?://[^\s<>]+)>`)
	tagExpr          = regexp.MustCompile(`</?[a-zA-Z][^>]*>`)
	bareURLExpr      = regexp.MustCompile(URLPattern)
)

const trailingPunct = ".,;:!?"

// Scan returns the distinct URLs found in text as markdown link targets, bare http(s)
// tokens or src/href attributes of inline HTML, in order of first appearance.
// Each occurrence yields one URL: markdown, autolink and tag spans are masked before
// the bare pass so their targets are not read a second time.
func Scan(text string) []string {
	type hit struct {
		pos int
		url string
	}
	var hits []hit
	masked := []byte(text)

	for _, m := range markdownLinkExpr.FindAllStringSubmatchIndex(text, -1) {
		hits = append(hits, hit{pos: m[2], url: text[m[2]:m[3]]})
		blank(masked, m[0], m[1])
	}
	for _, m := range autolinkExpr.FindAllSubmatchIndex(masked, -1) {
		hits = append(hits, hit{pos: m[2], url: text[m[2]:m[3]]})
		blank(masked, m[0], m[1])
	}
	for _, u := range htmlReferences(text) {
		hits = append(hits, hit{pos: strings.Index(text, u), url: u})
	}
	for _, m := range tagExpr.FindAllIndex(masked, -1) {
		blank(masked, m[0], m[1])
	}
	for _, m := range bareURLExpr.FindAllIndex(masked, -1) {
		u := strings.TrimRight(text[m[0]:m[1]], trailingPunct)
		if u == "" {
			continue
		}
		hits = append(hits, hit{pos: m[0], url: u})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })

	seen := make(map[string]struct{}, len(hits))
	urls := make([]string, 0, len(hits))
	for _, h := range hits {
		if _, ok := seen[h.url]; ok {
			continue
		}
		seen[h.url] = struct{}{}
		urls = append(urls, h.url)
	}
	return urls
}

func blank(b []byte, from, to int) {
	for i := from; i < to; i++ {
		b[i] = ' '
	}
}

// htmlReferences collects absolute URLs from inline HTML tags.
func htmlReferences(text string) []string {
	if !strings.Contains(text, "<") {
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(text))
	if err != nil {
		return nil
	}

	var urls []string
	collect := func(attr string) func(int, *goquery.Selection) {
		return func(_ int, s *goquery.Selection) {
			v, ok := s.Attr(attr)
			if !ok {
				return
			}
			v = strings.TrimSpace(v)
			if strings.HasPrefix(v, "http://") || strings.HasPrefix(v, "https://") {
				urls = append(urls, v)
			}
		}
	}
	doc.Find("a[href]").Each(collect("href"))
	doc.Find("img[src], video[src], source[src], iframe[src], embed[src]").Each(collect("src"))
	return urls
}

// Snippet returns up to radius characters of text on each side of the first occurrence of
// url, snapped to whitespace and with the url itself left in place.
func Snippet(text, url string, radius int) string {
	idx := strings.Index(text, url)
	if idx < 0 {
		return ""
	}
	if radius <= 0 {
		return url
	}

	start := idx - radius
	if start < 0 {
		start = 0
	} else if sp := strings.IndexAny(text[start:idx], " \n\t"); sp >= 0 {
		start += sp + 1
	}

	end := idx + len(url) + radius
	if end > len(text) {
		end = len(text)
	} else if sp := strings.LastIndexAny(text[idx+len(url):end], " \n\t"); sp >= 0 {
		end = idx + len(url) + sp
	}

	return strings.ToValidUTF8(strings.Join(strings.Fields(text[start:end]), " "), "")
}
