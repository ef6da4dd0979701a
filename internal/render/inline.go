package render

import (
	"regexp"
	"strings"

	"git.home.luguber.info/inful/shopassist/internal/affiliate"
)

// SegmentKind discriminates inline segments.
type SegmentKind int

const (
	SegmentText SegmentKind = iota
	SegmentLink
	SegmentImage
)

// Segment is one inline run. Links and images carry the normalized URL;
// WishlistName is filled during tree building for links that can be
// saved.
type Segment struct {
	Kind         SegmentKind
	Content      string
	URL          string
	WishlistName string
}

var (
	markdownLink  = regexp.MustCompile(`(!?)\[([^\]]+)\]\s*\(([^)]+)\)`)
	bareURL       = regexp.MustCompile(`https?://\S+`)
	trailingPunct = regexp.MustCompile(`[.,;!?)]+$`)
)

// Renderer expands inline markdown using a link normalizer.
type Renderer struct {
	norm *affiliate.Normalizer
}

func NewRenderer(n *affiliate.Normalizer) *Renderer {
	return &Renderer{norm: n}
}

// Expand splits a line into text, link, and image segments. Markdown
// links and images are matched left to right; the text between matches
// is scanned for bare URLs, which are promoted to links with a
// marketplace call-to-action label. Trailing sentence punctuation is
// excluded from bare URLs and re-emitted as text. Every URL passes
// through the normalizer.
func (r *Renderer) Expand(text string) []Segment {
	var segments []Segment
	last := 0

	for _, m := range markdownLink.FindAllStringSubmatchIndex(text, -1) {
		if m[0] > last {
			segments = append(segments, r.expandRawURLs(text[last:m[0]])...)
		}

		kind := SegmentLink
		if text[m[2]:m[3]] == "!" {
			kind = SegmentImage
		}
		segments = append(segments, Segment{
			Kind:    kind,
			Content: text[m[4]:m[5]],
			URL:     r.norm.Rewrite(text[m[6]:m[7]]),
		})
		last = m[1]
	}

	if last < len(text) {
		segments = append(segments, r.expandRawURLs(text[last:])...)
	}
	if segments == nil {
		segments = []Segment{{Kind: SegmentText, Content: text}}
	}
	return segments
}

// expandRawURLs promotes bare http(s) URLs inside plain text to link
// segments.
func (r *Renderer) expandRawURLs(text string) []Segment {
	var segments []Segment
	last := 0

	for _, m := range bareURL.FindAllStringIndex(text, -1) {
		if m[0] > last {
			segments = append(segments, Segment{Kind: SegmentText, Content: text[last:m[0]]})
		}

		raw := text[m[0]:m[1]]
		suffix := trailingPunct.FindString(raw)
		raw = raw[:len(raw)-len(suffix)]

		content := raw
		if r.norm.MentionsBrand(raw) {
			content = "Check Price on Amazon"
		}
		segments = append(segments, Segment{
			Kind:    SegmentLink,
			Content: content,
			URL:     r.norm.Rewrite(raw),
		})
		if suffix != "" {
			segments = append(segments, Segment{Kind: SegmentText, Content: suffix})
		}
		last = m[1]
	}

	if last < len(text) {
		segments = append(segments, Segment{Kind: SegmentText, Content: text[last:]})
	}
	if segments == nil {
		segments = []Segment{{Kind: SegmentText, Content: text}}
	}
	return segments
}

// SpanKind discriminates formatted runs inside a text segment.
type SpanKind int

const (
	SpanText SpanKind = iota
	SpanCode
	SpanBold
)

// Span is one formatted run of plain text.
type Span struct {
	Kind SpanKind
	Text string
}

var (
	inlineCodeRun = regexp.MustCompile("`[^`]+`")
	boldRun       = regexp.MustCompile(`\*\*.*?\*\*`)
)

// FormatSpans splits plain text into code, bold, and text spans. Inline
// code binds tighter than bold, so backticked asterisks stay literal.
func FormatSpans(text string) []Span {
	var spans []Span
	last := 0

	for _, m := range inlineCodeRun.FindAllStringIndex(text, -1) {
		if m[0] > last {
			spans = append(spans, boldSpans(text[last:m[0]])...)
		}
		spans = append(spans, Span{Kind: SpanCode, Text: text[m[0]+1 : m[1]-1]})
		last = m[1]
	}
	if last < len(text) {
		spans = append(spans, boldSpans(text[last:])...)
	}
	return spans
}

func boldSpans(text string) []Span {
	var spans []Span
	last := 0

	for _, m := range boldRun.FindAllStringIndex(text, -1) {
		if m[0] > last {
			spans = append(spans, Span{Kind: SpanText, Text: text[last:m[0]]})
		}
		spans = append(spans, Span{Kind: SpanBold, Text: text[m[0]+2 : m[1]-2]})
		last = m[1]
	}
	if last < len(text) {
		spans = append(spans, Span{Kind: SpanText, Text: text[last:]})
	}
	return spans
}

// cleanHeading strips link markup, leading hash markers, and a leading
// ordinal from heading text so it can serve as naming context for the
// blocks that follow.
var (
	headingLink    = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)
	headingHashes  = regexp.MustCompile(`^#+\s*`)
	headingOrdinal = regexp.MustCompile(`^\d+\.\s*`)
)

func cleanHeading(text string) string {
	clean := headingLink.ReplaceAllString(text, "$1")
	clean = headingHashes.ReplaceAllString(clean, "")
	clean = headingOrdinal.ReplaceAllString(clean, "")
	return strings.TrimSpace(clean)
}

// genericLinkWords are call-to-action phrases that make poor wishlist
// entry names.
var genericLinkWords = []string{
	"check", "price", "view", "shop", "buy", "amazon",
	"click", "details", "deal", "here",
}

func isGenericLinkText(text string) bool {
	lower := strings.ToLower(text)
	for _, w := range genericLinkWords {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return lower == "link"
}
