package affiliate

import (
	"regexp"
	"strings"
)

// reviewSites are publications and forums that show up in web-search
// queries alongside the product name.
var reviewSites = []string{
	"rtings", "wirecutter", "techradar", "cnet", "tom's guide", "toms guide",
	"the verge", "pcmag", "digital trends", "what hifi", "soundguys",
	"gsmarena", "notebookcheck", "reddit", "youtube", "quora",
	"nytimes", "forbes", "wsj", "bloomberg", "ign", "gamespot",
	"amazon", "walmart", "best buy", "target", "ebay", "consumer reports",
}

var (
	queryURL    = regexp.MustCompile(`https?://\S+`)
	sitePattern = regexp.MustCompile(`(?i)\b(` + strings.Join(quoteAll(reviewSites), "|") + `)\b`)

	intentPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)\b(reviews?|prices?|pricing?|specs?|specifications?)\b`),
		regexp.MustCompile(`(?i)\b(pros\s+and\s+cons)\b`),
		regexp.MustCompile(`(?i)\b(pros\s*&\s*cons)\b`),
		regexp.MustCompile(`(?i)\b(problems?|issues?|troubleshooting)\b`),
		regexp.MustCompile(`(?i)\b(vs|versus|comparison|compare)\b`),
		regexp.MustCompile(`(?i)\b(buy|shop|cost|deal|sale|best\s+price|cheap|affordable)\b`),
		regexp.MustCompile(`\b(202[0-9])\b`),
		regexp.MustCompile(`(?i)\b(best|top|rated|ranking|list|of)\b`),
	}

	multiSpace = regexp.MustCompile(`\s+`)
	edgePunct  = regexp.MustCompile(`^[^\w]+|[^\w]+$`)
)

func quoteAll(words []string) []string {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = regexp.QuoteMeta(w)
	}
	return quoted
}

// CleanQuery reduces a web-search query to the core product name by
// stripping URLs, review-site names, intent words, and years. The result
// may be empty when the query carried no product at all.
func CleanQuery(query string) string {
	cleaned := queryURL.ReplaceAllString(query, "")
	cleaned = sitePattern.ReplaceAllString(cleaned, "")
	for _, p := range intentPatterns {
		cleaned = p.ReplaceAllString(cleaned, "")
	}
	cleaned = strings.TrimSpace(multiSpace.ReplaceAllString(cleaned, " "))
	return edgePunct.ReplaceAllString(cleaned, "")
}

// ShoppingTags merges product headers extracted from a response with the
// cleaned web-search queries that grounded it, in that priority order.
// A query already covered by a header (substring either way, case
// insensitive) is dropped, and once any header exists only multi-word
// queries are kept so generic categories do not crowd out real products.
func ShoppingTags(text string, searchQueries []string) []string {
	terms := ProductHeaders(text)
	hasHeaders := len(terms) > 0

	for _, raw := range searchQueries {
		q := CleanQuery(raw)
		if len(q) <= 2 {
			continue
		}
		covered := false
		for _, t := range terms {
			tl, ql := strings.ToLower(t), strings.ToLower(q)
			if strings.Contains(tl, ql) || strings.Contains(ql, tl) {
				covered = true
				break
			}
		}
		if covered {
			continue
		}
		if hasHeaders && !strings.Contains(q, " ") {
			continue
		}
		terms = append(terms, q)
	}

	seen := make(map[string]bool, len(terms))
	unique := terms[:0]
	for _, t := range terms {
		key := strings.ToLower(t)
		if seen[key] {
			continue
		}
		seen[key] = true
		unique = append(unique, t)
	}
	return unique
}
