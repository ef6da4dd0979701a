// Package export renders persisted chat sessions to portable formats.
//
// Three exporters are provided: markdown (the transcript as the model
// produced it), JSON (the stored session verbatim), and HTML (the
// markdown transcript rendered with outbound links normalized for
// affiliate use).
package export

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	derrors "git.home.luguber.info/inful/shopassist/internal/errors"
	"git.home.luguber.info/inful/shopassist/internal/store"
)

// Exporter converts a chat session to a single output document.
type Exporter interface {
	// Export renders the session to the exporter's format.
	Export(session store.ChatSession) ([]byte, error)

	// FileExtension returns the extension for exported files, with dot.
	FileExtension() string

	// MimeType returns the MIME type of the exported content.
	MimeType() string
}

// Options controls export output.
type Options struct {
	// OutputDir is where ExportToFile writes. Defaults to ".".
	OutputDir string

	// IncludeMetadata adds session metadata (export time, message count,
	// search queries, citations) to the output.
	IncludeMetadata bool

	// IncludeTimestamps adds a timestamp line to each message.
	IncludeTimestamps bool
}

// DefaultOptions returns the options used when the caller passes none.
func DefaultOptions() Options {
	return Options{
		OutputDir:       ".",
		IncludeMetadata: true,
	}
}

// Supported export format names accepted by New.
const (
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
	FormatHTML     = "html"
)

// New returns the exporter for the named format. "md" is accepted as an
// alias for markdown.
func New(format string, norm LinkRewriter, opts Options) (Exporter, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case FormatMarkdown, "md":
		return &MarkdownExporter{opts: opts}, nil
	case FormatJSON:
		return &JSONExporter{opts: opts}, nil
	case FormatHTML:
		return NewHTMLExporter(norm, opts), nil
	default:
		return nil, derrors.ExportError(format, fmt.Errorf("unsupported format %q", format))
	}
}

// ExportToFile renders the session and writes it under opts.OutputDir,
// returning the path written. The filename is derived from the session
// title and the current time.
func ExportToFile(e Exporter, session store.ChatSession, opts Options) (string, error) {
	data, err := e.Export(session)
	if err != nil {
		return "", err
	}

	dir := opts.OutputDir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", derrors.ExportError(e.FileExtension(), err)
	}

	name := fmt.Sprintf("chat_%s_%s%s",
		sanitizeFilename(session.Title),
		time.Now().Format("20060102_150405"),
		e.FileExtension())
	path := filepath.Join(dir, name)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", derrors.ExportError(e.FileExtension(), err)
	}
	return path, nil
}

const maxFilenameRunes = 50

var filenameReplacer = strings.NewReplacer(
	" ", "_",
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
	"\n", "_",
	"\t", "_",
)

// sanitizeFilename makes a session title safe for use in a filename.
func sanitizeFilename(title string) string {
	s := filenameReplacer.Replace(strings.TrimSpace(title))
	runes := []rune(s)
	if len(runes) > maxFilenameRunes {
		s = string(runes[:maxFilenameRunes])
	}
	s = strings.Trim(s, "._-")
	if s == "" {
		return "conversation"
	}
	return s
}

// messageTime renders a stored millisecond timestamp for display.
func messageTime(ms int64) string {
	if ms == 0 {
		return ""
	}
	return time.UnixMilli(ms).Format("2006-01-02 15:04:05")
}

// roleLabel maps stored roles to transcript headings.
func roleLabel(role string) string {
	switch role {
	case store.RoleUser:
		return "You"
	case store.RoleModel:
		return "Assistant"
	default:
		return role
	}
}
