package render

import (
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRenderTree_Empty(t *testing.T) {
	require.Empty(t, testRenderer(t).RenderTree("", false))
}

func TestRenderTree_HeadingParagraphLink(t *testing.T) {
	r := testRenderer(t)
	nodes := r.RenderTree(
		"### Sony WH-1000XM5\n\nGreat headphones.\n\n[Check Price](https://amazon.com/dp/B0123456789)",
		false)
	require.Len(t, nodes, 2)

	h := nodes[0]
	require.Equal(t, BlockHeading, h.Kind)
	require.Equal(t, 3, h.Level)
	require.Equal(t, "Sony WH-1000XM5", h.Context)
	require.Equal(t, []Segment{{Kind: SegmentText, Content: "Sony WH-1000XM5"}}, h.Segments)

	p := nodes[1]
	require.Equal(t, BlockParagraph, p.Kind)
	require.Equal(t, "Sony WH-1000XM5", p.Context)
	require.Len(t, p.Lines, 4)
	require.Equal(t, []Segment{{Kind: SegmentText, Content: "Great headphones."}}, p.Lines[1])

	link := p.Lines[3][0]
	require.Equal(t, SegmentLink, link.Kind)
	u, err := url.Parse(link.URL)
	require.NoError(t, err)
	require.Equal(t, "amazon.com", u.Hostname())
	require.Equal(t, "/dp/B0123456789", u.Path)
	require.Equal(t, "shopassist-20", u.Query().Get("tag"))
}

func TestRenderTree_GenericLinkNamedFromHeading(t *testing.T) {
	r := testRenderer(t)
	nodes := r.RenderTree(
		"### Bose QuietComfort Ultra\n[Check Price](https://amzn.to/3abcDEF)", false)
	link := nodes[1].Lines[0][0]
	require.Equal(t, SegmentLink, link.Kind)
	require.Equal(t, "Bose QuietComfort Ultra", link.WishlistName)
}

func TestRenderTree_URLProductNameBeatsHeading(t *testing.T) {
	r := testRenderer(t)
	nodes := r.RenderTree(
		"### Context Heading\n[Check Price](https://www.amazon.com/s?k=anker+737)", false)
	link := nodes[1].Lines[0][0]
	require.Equal(t, "anker 737", link.WishlistName)
}

func TestRenderTree_UserMessageSuppressesWishlistNames(t *testing.T) {
	r := testRenderer(t)
	nodes := r.RenderTree("[Check Price](https://www.amazon.com/s?k=anker+737)", true)
	link := nodes[0].Lines[0][0]
	require.Empty(t, link.WishlistName)
}

func TestRenderTree_SpecificLinkTextKeptAsName(t *testing.T) {
	r := testRenderer(t)
	nodes := r.RenderTree(
		"### Heading\n[Sony WH-1000XM5](https://amzn.to/3abcDEF)", false)
	link := nodes[1].Lines[0][0]
	require.Equal(t, "Sony WH-1000XM5", link.WishlistName)
}

func TestRenderTree_Table(t *testing.T) {
	r := testRenderer(t)
	nodes := r.RenderTree(
		"| Model | Price |\n|---|---|\n| Sony | [Check](https://www.amazon.com/dp/B09XS7JWHH) |",
		false)
	require.Len(t, nodes, 1)
	require.Equal(t, BlockTable, nodes[0].Kind)

	table := nodes[0].Table
	require.Equal(t, []string{"Model", "Price"}, table.Header)
	require.Len(t, table.Rows, 1)
	require.Len(t, table.Rows[0], 2)
	require.Equal(t, SegmentLink, table.Rows[0][1][0].Kind)
}

func TestRenderTree_TableWithoutSeparatorRow(t *testing.T) {
	r := testRenderer(t)
	nodes := r.RenderTree("| a | b |\n| 1 | 2 |", false)
	table := nodes[0].Table
	require.Equal(t, []string{"a", "b"}, table.Header)
	require.Len(t, table.Rows, 1)
}

func TestRenderTree_SingleRowTableFallsBackToText(t *testing.T) {
	r := testRenderer(t)
	nodes := r.RenderTree("| just | one | row |", false)
	require.Len(t, nodes, 1)
	require.Equal(t, BlockParagraph, nodes[0].Kind)
	require.Equal(t, "| just | one | row |", nodes[0].Lines[0][0].Content)
}

func TestRenderTree_UnevenRowsTolerated(t *testing.T) {
	r := testRenderer(t)
	nodes := r.RenderTree("| a | b | c |\n|---|---|---|\n| only one |", false)
	table := nodes[0].Table
	require.Len(t, table.Header, 3)
	require.Len(t, table.Rows[0], 1)
}

func TestRenderTree_ImagesSuppressed(t *testing.T) {
	r := testRenderer(t)
	nodes := r.RenderTree("before ![pic](https://m.media-amazon.com/i.jpg) after", false)
	for _, segs := range nodes[0].Lines {
		for _, s := range segs {
			require.NotEqual(t, SegmentImage, s.Kind)
		}
	}
}

func TestRenderTree_CodeBlockJoined(t *testing.T) {
	r := testRenderer(t)
	nodes := r.RenderTree("```py\na = 1\nb = 2\n```", false)
	require.Len(t, nodes, 1)
	require.Equal(t, BlockCode, nodes[0].Kind)
	require.Equal(t, "py", nodes[0].Language)
	require.Equal(t, "a = 1\nb = 2", nodes[0].Code)
}

func TestRenderTree_ContextResetsPerHeading(t *testing.T) {
	r := testRenderer(t)
	nodes := r.RenderTree("## First\ntext\n## Second\nmore", false)
	require.Equal(t, "First", nodes[1].Context)
	require.Equal(t, "Second", nodes[3].Context)
}

func TestRenderTree_NeverPanicsOnHostileInput(t *testing.T) {
	r := testRenderer(t)
	inputs := []string{
		"``````",
		"[unclosed](http://",
		"|||||",
		strings.Repeat("#", 10),
		"![](https://)",
	}
	for _, in := range inputs {
		require.NotPanics(t, func() { r.RenderTree(in, false) }, "input %q", in)
	}
}
