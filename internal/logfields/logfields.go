package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeySessionID  = "session_id"
	KeyMessageID  = "message_id"
	KeyChatID     = "chat_id"
	KeyModel      = "model"
	KeyStage      = "stage"
	KeyKeyword    = "keyword"
	KeyStore      = "store"
	KeyOperation  = "operation"
	KeyFormat     = "format"
	KeyCount      = "count"
	KeyDurationMS = "duration_ms"
	KeyMethod     = "method"
	KeyPath       = "path"
	KeyStatus     = "status"
	KeyUserAgent  = "user_agent"
	KeyRemoteAddr = "remote_addr"
	KeyRequestID  = "request_id"
	KeyURL        = "url"
	KeyError      = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func SessionID(id string) slog.Attr   { return slog.String(KeySessionID, id) }
func MessageID(id string) slog.Attr   { return slog.String(KeyMessageID, id) }
func ChatID(id string) slog.Attr      { return slog.String(KeyChatID, id) }
func Model(m string) slog.Attr        { return slog.String(KeyModel, m) }
func Stage(name string) slog.Attr     { return slog.String(KeyStage, name) }
func Keyword(k string) slog.Attr      { return slog.String(KeyKeyword, k) }
func Store(s string) slog.Attr        { return slog.String(KeyStore, s) }
func Operation(op string) slog.Attr   { return slog.String(KeyOperation, op) }
func Format(f string) slog.Attr       { return slog.String(KeyFormat, f) }
func Count(n int) slog.Attr           { return slog.Int(KeyCount, n) }
func DurationMS(ms float64) slog.Attr { return slog.Float64(KeyDurationMS, ms) }
func Method(m string) slog.Attr       { return slog.String(KeyMethod, m) }
func Path(p string) slog.Attr         { return slog.String(KeyPath, p) }
func Status(code int) slog.Attr       { return slog.Int(KeyStatus, code) }
func UserAgent(ua string) slog.Attr   { return slog.String(KeyUserAgent, ua) }
func RemoteAddr(a string) slog.Attr   { return slog.String(KeyRemoteAddr, a) }
func RequestID(id string) slog.Attr   { return slog.String(KeyRequestID, id) }
func URL(u string) slog.Attr          { return slog.String(KeyURL, u) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
