package affiliate

import (
	"net/url"
	"strings"

	"git.home.luguber.info/inful/shopassist/internal/util/sets"
)

// Citation is one grounding source behind an assistant response.
type Citation struct {
	URI      string `json:"uri"`
	Title    string `json:"title"`
	Hostname string `json:"hostname,omitempty"`
}

// retailerDomains are e-commerce hosts excluded from the sources panel so
// that reviews, news, and blogs surface instead of storefronts.
var retailerDomains = []string{
	"amazon", "amzn", "walmart", "ebay", "target", "bestbuy", "newegg",
	"wayfair", "costco", "homedepot", "lowes", "aliexpress", "temu",
	"rakuten", "macys", "kohls", "etsy", "zappos", "chewy", "overstock",
	"shein", "flipkart", "dickssportinggoods", "bhphotovideo", "ikea",
	"sephora", "ulta", "nike", "adidas", "gamestop", "staples", "officedepot",
	"microcenter", "adorama", "banggood", "gearbest", "dhgate",
}

// FilterSources drops citations without a resolvable hostname,
// citations pointing at retailer storefronts, and duplicate URIs
// (first occurrence wins). The Hostname field is filled from the URI
// with any www. prefix removed.
func FilterSources(sources []Citation) []Citation {
	seen := sets.New[string]()
	filtered := make([]Citation, 0, len(sources))

	for _, src := range sources {
		if src.URI == "" || seen.Has(src.URI) {
			continue
		}
		u, err := url.Parse(src.URI)
		if err != nil {
			continue
		}
		host := strings.ToLower(u.Hostname())
		// Bare strings parse as paths; a source needs a real host.
		if host == "" {
			continue
		}
		retailer := false
		for _, domain := range retailerDomains {
			if strings.Contains(host, domain) {
				retailer = true
				break
			}
		}
		if retailer {
			continue
		}
		seen.Add(src.URI)
		src.Hostname = strings.TrimPrefix(host, "www.")
		filtered = append(filtered, src)
	}
	return filtered
}
