package export

import (
	"bytes"
	"fmt"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"golang.org/x/net/html"

	derrors "git.home.luguber.info/inful/shopassist/internal/errors"
	"git.home.luguber.info/inful/shopassist/internal/store"
)

// LinkRewriter normalizes a single outbound URL. *affiliate.Normalizer
// satisfies it.
type LinkRewriter interface {
	Rewrite(raw string) string
}

// HTMLExporter renders the markdown transcript to a standalone HTML page.
// Every anchor in the result opens in a new tab and has its href passed
// through the link rewriter, matching what the chat UI does per link.
type HTMLExporter struct {
	norm LinkRewriter
	opts Options
	md   goldmark.Markdown
}

// NewHTMLExporter builds an HTML exporter. norm may be nil, in which
// case hrefs are left as written.
func NewHTMLExporter(norm LinkRewriter, opts Options) *HTMLExporter {
	return &HTMLExporter{
		norm: norm,
		opts: opts,
		md:   goldmark.New(goldmark.WithExtensions(extension.GFM)),
	}
}

func (e *HTMLExporter) FileExtension() string { return ".html" }
func (e *HTMLExporter) MimeType() string      { return "text/html" }

func (e *HTMLExporter) Export(session store.ChatSession) ([]byte, error) {
	mdExp := &MarkdownExporter{opts: e.opts}
	transcript, err := mdExp.Export(session)
	if err != nil {
		return nil, err
	}

	var body bytes.Buffer
	if err := e.md.Convert(transcript, &body); err != nil {
		return nil, derrors.ExportError(FormatHTML, err)
	}

	title := session.Title
	if title == "" {
		title = store.DefaultChatTitle
	}
	page := fmt.Sprintf(pageTemplate, html.EscapeString(title), body.String())

	doc, err := html.Parse(bytes.NewReader([]byte(page)))
	if err != nil {
		return nil, derrors.ExportError(FormatHTML, err)
	}
	e.rewriteAnchors(doc)

	var out bytes.Buffer
	if err := html.Render(&out, doc); err != nil {
		return nil, derrors.ExportError(FormatHTML, err)
	}
	return out.Bytes(), nil
}

// rewriteAnchors walks the document and normalizes every <a> element.
func (e *HTMLExporter) rewriteAnchors(n *html.Node) {
	if n.Type == html.ElementNode && n.Data == "a" {
		for i, attr := range n.Attr {
			if attr.Key == "href" && e.norm != nil {
				n.Attr[i].Val = e.norm.Rewrite(attr.Val)
			}
		}
		setAttr(n, "target", "_blank")
		setAttr(n, "rel", "noopener noreferrer")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		e.rewriteAnchors(c)
	}
}

// setAttr sets or replaces an attribute on an element node.
func setAttr(n *html.Node, key, val string) {
	for i, attr := range n.Attr {
		if attr.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>%s</title>
<style>
body { font-family: -apple-system, "Segoe UI", Roboto, sans-serif; max-width: 760px; margin: 2rem auto; padding: 0 1rem; line-height: 1.6; color: #1a1a1a; }
h2 { border-bottom: 1px solid #e0e0e0; padding-bottom: 0.3rem; }
hr { border: none; border-top: 1px solid #e0e0e0; margin: 2rem 0; }
table { border-collapse: collapse; width: 100%%; }
th, td { border: 1px solid #d0d0d0; padding: 0.4rem 0.6rem; text-align: left; }
code { background: #f4f4f4; padding: 0.1rem 0.3rem; border-radius: 3px; }
pre { background: #f4f4f4; padding: 0.8rem; border-radius: 6px; overflow-x: auto; }
blockquote { color: #555; border-left: 3px solid #d0d0d0; margin-left: 0; padding-left: 1rem; }
</style>
</head>
<body>
%s
</body>
</html>
`
