package export

import (
	"encoding/json"
	"time"

	derrors "git.home.luguber.info/inful/shopassist/internal/errors"
	"git.home.luguber.info/inful/shopassist/internal/store"
)

// JSONExporter writes the stored session unmodified, optionally wrapped
// with export metadata. Useful for backup and re-import.
type JSONExporter struct {
	opts Options
}

func (e *JSONExporter) FileExtension() string { return ".json" }
func (e *JSONExporter) MimeType() string      { return "application/json" }

type jsonEnvelope struct {
	ExportedAt   time.Time         `json:"exportedAt"`
	MessageCount int               `json:"messageCount"`
	Session      store.ChatSession `json:"session"`
}

func (e *JSONExporter) Export(session store.ChatSession) ([]byte, error) {
	var doc any = session
	if e.opts.IncludeMetadata {
		doc = jsonEnvelope{
			ExportedAt:   time.Now().UTC(),
			MessageCount: len(session.Messages),
			Session:      session,
		}
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, derrors.ExportError(FormatJSON, err)
	}
	return append(data, '\n'), nil
}
