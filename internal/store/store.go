// Package store persists chat sessions, wishlist items, reviews, and
// saved queries. Two backends are provided: a JSON file store and a
// SQLite store. Both notify subscribers after every successful
// mutation so callers can recompute derived state without a global
// event bus.
package store

import (
	"context"
	"time"

	derrors "git.home.luguber.info/inful/shopassist/internal/errors"
	"git.home.luguber.info/inful/shopassist/internal/metrics"
)

// WishlistStore manages bookmarked products keyed by id, with
// URL-based helpers matching the toggle affordance in the chat UI.
type WishlistStore interface {
	Add(ctx context.Context, name, url string) (WishlistItem, error)
	List(ctx context.Context) ([]WishlistItem, error)
	Remove(ctx context.Context, id string) error
	RemoveByURL(ctx context.Context, url string) error
	ContainsURL(ctx context.Context, url string) (bool, error)
	// ToggleByURL adds the item when absent and removes it when
	// present. Returns true when the item ended up in the list.
	ToggleByURL(ctx context.Context, name, url string) (bool, error)
	Subscribe(fn func())
}

// ReviewStore manages user-submitted product reviews.
type ReviewStore interface {
	Add(ctx context.Context, r Review) (Review, error)
	List(ctx context.Context) ([]Review, error)
	Remove(ctx context.Context, id string) error
	// Summary renders the recent reviews as a system-prompt block.
	Summary(ctx context.Context) (string, error)
	Subscribe(fn func())
}

// QueryStore manages saved search phrases. Text comparisons are
// case-insensitive and trimmed.
type QueryStore interface {
	Save(ctx context.Context, text string) (SavedQuery, error)
	List(ctx context.Context) ([]SavedQuery, error)
	Remove(ctx context.Context, id string) error
	RemoveByText(ctx context.Context, text string) error
	IsSaved(ctx context.Context, text string) (bool, error)
	// ToggleByText saves the query when absent and removes it when
	// present. Returns true when the query ended up saved.
	ToggleByText(ctx context.Context, text string) (bool, error)
	Subscribe(fn func())
}

// ChatStore manages persisted conversations.
type ChatStore interface {
	// Save upserts a session. An empty title keeps the existing title
	// for known sessions, or derives one from the first user message.
	// A custom title is never overwritten by DefaultChatTitle.
	Save(ctx context.Context, id string, messages []Message, title string) (ChatSession, error)
	List(ctx context.Context) ([]ChatSession, error)
	Get(ctx context.Context, id string) (ChatSession, error)
	Delete(ctx context.Context, id string) error
	Clear(ctx context.Context) error
	Subscribe(fn func())
}

// Store aggregates the per-kind stores behind one handle.
type Store interface {
	Wishlist() WishlistStore
	Reviews() ReviewStore
	Queries() QueryStore
	Chats() ChatStore
	Health(ctx context.Context) Health
	Close(ctx context.Context) error
}

// Health reports whether the backing storage is reachable.
type Health struct {
	Status    string    `json:"status"`
	Message   string    `json:"message,omitempty"`
	CheckedAt time.Time `json:"checked_at"`
}

// Backend names accepted by Open.
const (
	BackendJSON   = "json"
	BackendSQLite = "sqlite"
)

// Open constructs the store for the configured backend. The path is a
// data directory for the JSON backend and a database file for SQLite.
func Open(backend, path string, rec metrics.Recorder) (Store, error) {
	switch backend {
	case BackendJSON:
		return NewJSONStore(path, rec)
	case BackendSQLite:
		return NewSQLiteStore(path, rec)
	default:
		return nil, derrors.ValidationError("unknown store backend: " + backend)
	}
}
