package affiliate

import (
	"net/url"
	"regexp"
	"strings"
)

var (
	headerLine  = regexp.MustCompile(`(?m)^#{2,6}\s+(.+)$`)
	boldMarkup  = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italic      = regexp.MustCompile(`\*(.*?)\*`)
	inlineCode  = regexp.MustCompile("`([^`]+)`")
	linkMarkup  = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	labelPrefix = regexp.MustCompile(`(?i)^((\d+[.)]\s*)|((Product|Item)\s*(Name|Title)?:\s*))`)
)

// structuralHeaders lists section names the model emits around product
// recommendations. Headers containing any of these are navigation, not
// product names.
var structuralHeaders = []string{
	"recommendation", "summary", "conclusion", "pros", "cons", "buying advice",
	"feature", "description", "price", "verdict", "intro", "best for",
	"top picks", "comparison", "reference", "guidelines", "rules",
}

// ProductName infers a human-readable product name from a marketplace URL.
// It prefers the search keyword parameter, then the path segment before a
// /dp/ product identifier. The second return is false when the URL carries
// no usable name.
func (n *Normalizer) ProductName(raw string) (string, bool) {
	if !n.mentionsBrand(raw) {
		return "", false
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", false
	}

	// Search URLs put the query in k with + for spaces; Query() decodes both.
	if k := strings.TrimSpace(u.Query().Get("k")); k != "" {
		return k, true
	}

	segments := splitPath(u.Path)
	for i, seg := range segments {
		if seg != "dp" || i == 0 {
			continue
		}
		name := segments[i-1]
		// /gp/product/ASIN style paths put a generic marker here.
		if name == "product" || len(name) <= 2 {
			break
		}
		return strings.TrimSpace(strings.ReplaceAll(name, "-", " ")), true
	}

	return "", false
}

// ProductHeaders extracts candidate product names from markdown text by
// scanning level 2-6 heading lines. Markup, ordinals, and label prefixes
// are stripped; structural section headers are rejected. Order is
// preserved and duplicates are kept (deduplication is a caller concern).
func ProductHeaders(text string) []string {
	headers := []string{}
	for _, m := range headerLine.FindAllStringSubmatch(text, -1) {
		header := StripInlineMarkup(m[1])
		header = labelPrefix.ReplaceAllString(header, "")
		header = strings.TrimSpace(header)

		if len(header) <= 3 {
			continue
		}
		lower := strings.ToLower(header)
		structural := false
		for _, word := range structuralHeaders {
			if strings.Contains(lower, word) {
				structural = true
				break
			}
		}
		if !structural {
			headers = append(headers, header)
		}
	}
	return headers
}

// StripInlineMarkup removes bold, italic, inline-code, and link markup
// from a single line, keeping the visible text.
func StripInlineMarkup(s string) string {
	s = strings.TrimSpace(s)
	s = boldMarkup.ReplaceAllString(s, "$1")
	s = italic.ReplaceAllString(s, "$1")
	s = inlineCode.ReplaceAllString(s, "$1")
	s = linkMarkup.ReplaceAllString(s, "$1")
	return strings.TrimSpace(s)
}

// splitPath returns the non-empty segments of a URL path.
func splitPath(path string) []string {
	raw := strings.Split(path, "/")
	segments := raw[:0]
	for _, seg := range raw {
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	return segments
}
