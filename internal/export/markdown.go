package export

import (
	"fmt"
	"strings"

	"git.home.luguber.info/inful/shopassist/internal/store"
)

// MarkdownExporter writes the session as a readable markdown transcript.
// Message text is emitted as the model produced it, so headings, tables,
// and links inside a turn survive unchanged.
type MarkdownExporter struct {
	opts Options
}

func (e *MarkdownExporter) FileExtension() string { return ".md" }
func (e *MarkdownExporter) MimeType() string      { return "text/markdown" }

func (e *MarkdownExporter) Export(session store.ChatSession) ([]byte, error) {
	var b strings.Builder

	title := session.Title
	if title == "" {
		title = store.DefaultChatTitle
	}
	fmt.Fprintf(&b, "# %s\n", title)

	if e.opts.IncludeMetadata {
		b.WriteString("\n")
		if ts := messageTime(session.Timestamp); ts != "" {
			fmt.Fprintf(&b, "> Started: %s  \n", ts)
		}
		fmt.Fprintf(&b, "> Messages: %d\n", len(session.Messages))
	}

	for _, m := range session.Messages {
		fmt.Fprintf(&b, "\n---\n\n## %s\n\n", roleLabel(m.Role))
		if e.opts.IncludeTimestamps {
			if ts := messageTime(m.Timestamp); ts != "" {
				fmt.Fprintf(&b, "*%s*\n\n", ts)
			}
		}
		b.WriteString(strings.TrimRight(m.Text, "\n"))
		b.WriteString("\n")

		if e.opts.IncludeMetadata {
			writeMessageMetadata(&b, m)
		}
	}

	return []byte(b.String()), nil
}

// writeMessageMetadata appends search queries and citations for one turn.
func writeMessageMetadata(b *strings.Builder, m store.Message) {
	if len(m.SearchQueries) > 0 {
		fmt.Fprintf(b, "\n*Searched: %s*\n", strings.Join(m.SearchQueries, ", "))
	}
	if len(m.Citations) > 0 {
		b.WriteString("\nSources:\n")
		for _, c := range m.Citations {
			title := c.Title
			if title == "" {
				title = c.URI
			}
			fmt.Fprintf(b, "- [%s](%s)\n", title, c.URI)
		}
	}
}
