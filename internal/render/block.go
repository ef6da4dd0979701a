// Package render turns streamed assistant markdown into typed blocks and
// inline segments ready for display. The parser is a single left-to-right
// line scan tuned for partially streamed input: it never fails, and a
// re-parse of a longer prefix only ever extends or completes the last
// block.
package render

import (
	"regexp"
	"strings"
)

// BlockKind discriminates the block types the scanner emits.
type BlockKind int

const (
	BlockParagraph BlockKind = iota
	BlockHeading
	BlockTable
	BlockCode
)

// Block is one top-level region of the input. Blocks partition the input
// in order; only fence delimiters and heading markers are consumed.
type Block struct {
	Kind BlockKind

	// Heading fields.
	Level int
	Text  string

	// Code fields.
	Language string

	// Paragraph and code lines, or raw table rows.
	Lines []string
}

var headingPattern = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)

// Parse scans content line by line into blocks. A triple-backtick fence
// toggles code mode and any trailing text on the opening fence becomes
// the language tag. Outside a fence, heading lines emit immediately,
// pipe-prefixed lines accumulate into a table, and everything else
// accumulates into a paragraph. An unterminated fence still emits its
// code block at end of input.
func Parse(content string) []Block {
	if content == "" {
		return nil
	}

	var blocks []Block
	var current *Block
	inCode := false

	flush := func() {
		if current != nil {
			blocks = append(blocks, *current)
			current = nil
		}
	}

	for _, line := range strings.Split(content, "\n") {
		trimmed := strings.TrimSpace(line)

		if strings.HasPrefix(trimmed, "```") {
			if inCode {
				flush()
				inCode = false
			} else {
				flush()
				current = &Block{
					Kind:     BlockCode,
					Language: strings.TrimSpace(trimmed[3:]),
					Lines:    []string{},
				}
				inCode = true
			}
			continue
		}

		if inCode {
			current.Lines = append(current.Lines, line)
			continue
		}

		if m := headingPattern.FindStringSubmatch(line); m != nil {
			flush()
			blocks = append(blocks, Block{
				Kind:  BlockHeading,
				Level: len(m[1]),
				Text:  m[2],
			})
			continue
		}

		if strings.HasPrefix(trimmed, "|") {
			if current == nil || current.Kind != BlockTable {
				flush()
				current = &Block{Kind: BlockTable}
			}
			current.Lines = append(current.Lines, line)
			continue
		}

		if current == nil || current.Kind != BlockParagraph {
			flush()
			current = &Block{Kind: BlockParagraph}
		}
		current.Lines = append(current.Lines, line)
	}

	flush()
	return blocks
}
