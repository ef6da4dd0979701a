package marketplace

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/shopassist/internal/affiliate"
)

// FormatContext renders verified product data as the hidden context
// block injected after the user's message. Product URLs are rewritten
// through the normalizer so the model echoes tagged links. Returns ""
// when there are no products.
func FormatContext(products []Product, norm *affiliate.Normalizer) string {
	if len(products) == 0 {
		return ""
	}

	entries := make([]string, 0, len(products))
	for _, p := range products {
		features := p.Features
		if len(features) > 3 {
			features = features[:3]
		}
		url := p.URL
		if norm != nil {
			url = norm.Rewrite(url)
		}
		entries = append(entries, fmt.Sprintf("- Product: %s\n  Price: %s\n  Image: %s\n  URL: %s\n  Features: %s",
			p.Title, p.Price, p.Image, url, strings.Join(features, ", ")))
	}

	return "[SYSTEM: VERIFIED AMAZON API DATA FOUND]\nUse the following REAL-TIME data to answer. Prefer this data for price/image accuracy.\n\n" +
		strings.Join(entries, "\n\n")
}
