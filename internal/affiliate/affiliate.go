// Package affiliate rewrites outbound marketplace links so they satisfy
// affiliate-program requirements, and provides the product-name and
// search-query heuristics built on top of those links.
//
// Every function in this package is total: malformed input degrades to a
// safe output (the input returned verbatim, or an empty result), never an
// error. The functions are pure and safe to call concurrently.
package affiliate

import "strings"

// Config carries the marketplace identifiers the normalizer depends on.
// Deployments inject these; nothing in this package hardcodes a tag.
type Config struct {
	// Tag is the affiliate tracking tag set on every marketplace link.
	Tag string `yaml:"tag"`
	// BrandTokens identify marketplace hosts ("amazon", "amzn", ...).
	BrandTokens []string `yaml:"brand_tokens"`
	// ImageCDNHosts are marketplace image hosts that must never be rewritten.
	ImageCDNHosts []string `yaml:"image_cdn_hosts"`
	// SearchBaseURL is the marketplace search page used when a hallucinated
	// product identifier is downgraded to a keyword search.
	SearchBaseURL string `yaml:"search_base_url"`
}

// DefaultConfig returns the Amazon US defaults used when the configuration
// file leaves the marketplace section empty.
func DefaultConfig(tag string) Config {
	return Config{
		Tag:           tag,
		BrandTokens:   []string{"amazon", "amzn"},
		ImageCDNHosts: []string{"images-na.ssl-images-amazon.com", "m.media-amazon.com"},
		SearchBaseURL: "https://www.amazon.com/s",
	}
}

// Normalizer applies the affiliate link rules from a fixed Config.
// The zero value is not usable; construct with New.
type Normalizer struct {
	cfg Config
}

// New builds a Normalizer, filling missing Config fields with the
// Amazon defaults.
func New(cfg Config) *Normalizer {
	def := DefaultConfig(cfg.Tag)
	if len(cfg.BrandTokens) == 0 {
		cfg.BrandTokens = def.BrandTokens
	}
	if len(cfg.ImageCDNHosts) == 0 {
		cfg.ImageCDNHosts = def.ImageCDNHosts
	}
	if cfg.SearchBaseURL == "" {
		cfg.SearchBaseURL = def.SearchBaseURL
	}
	return &Normalizer{cfg: cfg}
}

// Tag returns the configured affiliate tag.
func (n *Normalizer) Tag() string { return n.cfg.Tag }

// MentionsBrand reports whether s contains any configured brand token.
// Callers use it to pick display text for bare marketplace URLs.
func (n *Normalizer) MentionsBrand(s string) bool {
	return n.mentionsBrand(s)
}

// mentionsBrand reports whether s contains any configured brand token.
func (n *Normalizer) mentionsBrand(s string) bool {
	s = strings.ToLower(s)
	for _, token := range n.cfg.BrandTokens {
		if strings.Contains(s, token) {
			return true
		}
	}
	return false
}

// isImageCDNHost reports whether host is one of the protected image hosts.
func (n *Normalizer) isImageCDNHost(host string) bool {
	host = strings.ToLower(host)
	for _, cdn := range n.cfg.ImageCDNHosts {
		if strings.Contains(host, cdn) {
			return true
		}
	}
	return false
}
