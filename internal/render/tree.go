package render

import (
	"regexp"
	"strings"
)

// Node is one renderable element of a parsed message. Kind selects which
// fields are meaningful. Context carries the cleaned text of the nearest
// preceding heading.
type Node struct {
	Kind    BlockKind
	Context string

	// BlockHeading.
	Level    int
	Segments []Segment

	// BlockParagraph, one entry per source line.
	Lines [][]Segment

	// BlockTable.
	Table *Table

	// BlockCode.
	Language string
	Code     string
}

// Table is a parsed pipe table. Header cells are plain strings; body
// cells carry expanded inline segments.
type Table struct {
	Header []string
	Rows   [][][]Segment
}

var separatorCell = regexp.MustCompile(`^[-:| ]+$`)

// RenderTree runs the full pipeline: block scan, inline expansion, table
// shaping, heading context, and wishlist naming. When isUser is set the
// wishlist affordance is suppressed (user messages are not shopping
// results). RenderTree never fails; empty input yields an empty tree.
func (r *Renderer) RenderTree(content string, isUser bool) []Node {
	var nodes []Node
	context := ""

	for _, block := range Parse(content) {
		switch block.Kind {
		case BlockHeading:
			context = cleanHeading(block.Text)
			segments := dropImages(r.Expand(block.Text))
			r.nameLinks(segments, context, isUser)
			nodes = append(nodes, Node{
				Kind:     BlockHeading,
				Context:  context,
				Level:    block.Level,
				Segments: segments,
			})

		case BlockTable:
			nodes = append(nodes, r.tableNode(block.Lines, context, isUser))

		case BlockCode:
			nodes = append(nodes, Node{
				Kind:     BlockCode,
				Context:  context,
				Language: block.Language,
				Code:     strings.Join(block.Lines, "\n"),
			})

		default:
			nodes = append(nodes, r.paragraphNode(block.Lines, context, isUser))
		}
	}
	return nodes
}

func (r *Renderer) paragraphNode(lines []string, context string, isUser bool) Node {
	expanded := make([][]Segment, 0, len(lines))
	for _, line := range lines {
		segments := r.Expand(line)
		segments = dropImages(segments)
		r.nameLinks(segments, context, isUser)
		expanded = append(expanded, segments)
	}
	return Node{Kind: BlockParagraph, Context: context, Lines: expanded}
}

// tableNode shapes raw pipe rows into a Table. The first non-blank row
// is the header; the next row is discarded when every cell is only
// separator characters. Fewer than two non-blank rows means the pipes
// were not a real table, so the rows fall back to paragraph lines.
func (r *Renderer) tableNode(rows []string, context string, isUser bool) Node {
	valid := make([]string, 0, len(rows))
	for _, row := range rows {
		if strings.TrimSpace(row) != "" {
			valid = append(valid, row)
		}
	}
	if len(valid) < 2 {
		return r.paragraphNode(rows, context, isUser)
	}

	table := &Table{Header: splitRow(valid[0])}
	body := valid[1:]
	if cellsAreSeparator(splitRow(body[0])) {
		body = body[1:]
	}

	for _, row := range body {
		cells := splitRow(row)
		expanded := make([][]Segment, 0, len(cells))
		for _, cell := range cells {
			segments := dropImages(r.Expand(cell))
			r.nameLinks(segments, context, isUser)
			expanded = append(expanded, segments)
		}
		table.Rows = append(table.Rows, expanded)
	}
	return Node{Kind: BlockTable, Context: context, Table: table}
}

// splitRow trims one leading and trailing pipe, then splits on the rest.
// Uneven cell counts are the caller's problem; rows keep whatever cells
// they have.
func splitRow(row string) []string {
	row = strings.TrimSpace(row)
	row = strings.TrimPrefix(row, "|")
	row = strings.TrimSuffix(row, "|")
	cells := strings.Split(row, "|")
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}
	return cells
}

func cellsAreSeparator(cells []string) bool {
	for _, cell := range cells {
		if !separatorCell.MatchString(cell) {
			return false
		}
	}
	return true
}

// nameLinks fills WishlistName on link segments. The product name
// extracted from the URL wins; generic call-to-action text falls back to
// the heading context; otherwise the link text stands.
func (r *Renderer) nameLinks(segments []Segment, context string, isUser bool) {
	if isUser {
		return
	}
	for i := range segments {
		if segments[i].Kind != SegmentLink {
			continue
		}
		name := segments[i].Content
		if urlName, ok := r.norm.ProductName(segments[i].URL); ok {
			name = urlName
		} else if context != "" && isGenericLinkText(name) {
			name = context
		}
		segments[i].WishlistName = name
	}
}

func dropImages(segments []Segment) []Segment {
	kept := segments[:0]
	for _, s := range segments {
		if s.Kind != SegmentImage {
			kept = append(kept, s)
		}
	}
	return kept
}
