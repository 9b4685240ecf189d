package llm

import (
	"regexp"
	"strings"
)

var (
	jsonBlockPattern      = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(\\{.*\\})\\s*```")
	jsonObjectPattern     = regexp.MustCompile(`(?s)\{[\s\S]*\}`)
	jsonArrayBlockPattern = regexp.MustCompile("(?s)```(?:json)?\\s*\\n?(\\[.*\\])\\s*```")
	jsonArrayPattern      = regexp.MustCompile(`(?s)\[[\s\S]*\]`)
	trailingCommaPattern  = regexp.MustCompile(`,\s*([}\]])`)
)

// ExtractJSON returns the JSON object in a model reply, fenced or not, with trailing commas removed.
func ExtractJSON(content string) string {
	if m := jsonBlockPattern.FindStringSubmatch(content); len(m) > 1 {
		return clean(m[1])
	}
	if m := jsonObjectPattern.FindString(content); m != "" {
		return clean(m)
	}
	return ""
}

// ExtractJSONArray is ExtractJSON for a top-level array.
func ExtractJSONArray(content string) string {
	if m := jsonArrayBlockPattern.FindStringSubmatch(content); len(m) > 1 {
		return clean(m[1])
	}
	if m := jsonArrayPattern.FindString(content); m != "" {
		return clean(m)
	}
	return ""
}

func clean(raw string) string {
	return trailingCommaPattern.ReplaceAllString(strings.TrimSpace(raw), "$1")
}
