package server

import (
	"time"

	"git.home.luguber.info/inful/shopassist/internal/store"
)

// HealthResponse is the /api/health payload.
type HealthResponse struct {
	Status      string    `json:"status"`
	Timestamp   time.Time `json:"timestamp"`
	Version     string    `json:"version"`
	Uptime      float64   `json:"uptime"`
	Store       string    `json:"store"`
	Marketplace string    `json:"marketplace"`
}

// SearchResponse is the /api/search payload.
type SearchResponse struct {
	Products any `json:"products"`
}

// ToggleResponse reports the state after a toggle operation.
type ToggleResponse struct {
	Active bool `json:"active"`
}

// ChatListEntry is one item of the chat history listing. Messages are
// omitted; load the session for the full transcript.
type ChatListEntry struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Messages  int    `json:"messages"`
	Timestamp int64  `json:"timestamp"`
}

// ChatEvent is one server-sent event of a streamed chat turn. Tags are
// the shopping search terms derived from the finished reply; they are
// only present on the final event.
type ChatEvent struct {
	ChatID  string         `json:"chatId"`
	Delta   string         `json:"delta,omitempty"`
	Blocks  int            `json:"blocks"`
	Replace bool           `json:"replace,omitempty"`
	Done    bool           `json:"done,omitempty"`
	Error   string         `json:"error,omitempty"`
	Message *store.Message `json:"message,omitempty"`
	Tags    []string       `json:"tags,omitempty"`
}
