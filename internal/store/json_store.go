package store

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	derrors "git.home.luguber.info/inful/shopassist/internal/errors"
	"git.home.luguber.info/inful/shopassist/internal/metrics"
)

const (
	wishlistFile = "wishlist.json"
	reviewsFile  = "reviews.json"
	queriesFile  = "saved_queries.json"
	chatsFile    = "chat_history.json"
)

// JSONStore persists each record kind as a JSON file under a data
// directory. Lists are kept newest-first.
type JSONStore struct {
	dataDir string
	rec     metrics.Recorder

	mu       sync.RWMutex
	wishlist []WishlistItem
	reviews  []Review
	queries  []SavedQuery
	chats    []ChatSession
	subs     map[string][]func()
}

// NewJSONStore opens a JSON file store rooted at dataDir, creating the
// directory if needed. Missing or unreadable files start empty.
func NewJSONStore(dataDir string, rec metrics.Recorder) (*JSONStore, error) {
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, derrors.StoreError("open", err).WithContext("data_dir", dataDir)
	}

	s := &JSONStore{
		dataDir: dataDir,
		rec:     rec,
		subs:    make(map[string][]func()),
	}
	s.loadFile(wishlistFile, &s.wishlist)
	s.loadFile(reviewsFile, &s.reviews)
	s.loadFile(queriesFile, &s.queries)
	s.loadFile(chatsFile, &s.chats)
	return s, nil
}

func (s *JSONStore) Wishlist() WishlistStore { return &jsonWishlistStore{s} }
func (s *JSONStore) Reviews() ReviewStore    { return &jsonReviewStore{s} }
func (s *JSONStore) Queries() QueryStore     { return &jsonQueryStore{s} }
func (s *JSONStore) Chats() ChatStore        { return &jsonChatStore{s} }

// Health checks that the data directory is still accessible.
func (s *JSONStore) Health(ctx context.Context) Health {
	h := Health{Status: "healthy", CheckedAt: time.Now()}
	if _, err := os.Stat(s.dataDir); err != nil {
		h.Status = "unhealthy"
		h.Message = fmt.Sprintf("cannot access data directory: %v", err)
	}
	return h
}

// Close flushes all record kinds to disk.
func (s *JSONStore) Close(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for file, data := range map[string]any{
		wishlistFile: s.wishlist,
		reviewsFile:  s.reviews,
		queriesFile:  s.queries,
		chatsFile:    s.chats,
	} {
		if err := s.saveFileUnsafe(file, data); err != nil {
			return err
		}
	}
	return nil
}

func (s *JSONStore) loadFile(name string, out any) {
	data, err := os.ReadFile(filepath.Join(s.dataDir, name))
	if err != nil {
		return
	}
	// A corrupt file starts the kind empty rather than failing open.
	_ = json.Unmarshal(data, out)
}

// saveFileUnsafe writes atomically via a temp file. Callers hold mu.
func (s *JSONStore) saveFileUnsafe(name string, data any) error {
	encoded, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return derrors.StoreError("save", err).WithContext("file", name)
	}
	path := filepath.Join(s.dataDir, name)
	tempPath := path + ".tmp"
	if err := os.WriteFile(tempPath, encoded, 0o644); err != nil {
		return derrors.StoreError("save", err).WithContext("file", name)
	}
	if err := os.Rename(tempPath, path); err != nil {
		return derrors.StoreError("save", err).WithContext("file", name)
	}
	return nil
}

func (s *JSONStore) subscribe(kind string, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[kind] = append(s.subs[kind], fn)
}

// notify runs subscriber callbacks outside the lock.
func (s *JSONStore) notify(kind, op string) {
	if s.rec != nil {
		s.rec.IncStoreOperation(kind, op)
	}
	s.mu.RLock()
	fns := append([]func(){}, s.subs[kind]...)
	s.mu.RUnlock()
	for _, fn := range fns {
		fn()
	}
}

type jsonWishlistStore struct{ s *JSONStore }

func (w *jsonWishlistStore) Add(ctx context.Context, name, url string) (WishlistItem, error) {
	item := WishlistItem{
		ID:      uuid.NewString(),
		Name:    name,
		URL:     url,
		AddedAt: time.Now().UnixMilli(),
	}
	w.s.mu.Lock()
	w.s.wishlist = append([]WishlistItem{item}, w.s.wishlist...)
	err := w.s.saveFileUnsafe(wishlistFile, w.s.wishlist)
	w.s.mu.Unlock()
	if err != nil {
		return WishlistItem{}, err
	}
	w.s.notify("wishlist", "add")
	return item, nil
}

func (w *jsonWishlistStore) List(ctx context.Context) ([]WishlistItem, error) {
	w.s.mu.RLock()
	defer w.s.mu.RUnlock()
	return append([]WishlistItem{}, w.s.wishlist...), nil
}

func (w *jsonWishlistStore) Remove(ctx context.Context, id string) error {
	w.s.mu.Lock()
	kept := w.s.wishlist[:0:0]
	found := false
	for _, item := range w.s.wishlist {
		if item.ID == id {
			found = true
			continue
		}
		kept = append(kept, item)
	}
	if !found {
		w.s.mu.Unlock()
		return derrors.RecordNotFound("wishlist item", id)
	}
	w.s.wishlist = kept
	err := w.s.saveFileUnsafe(wishlistFile, w.s.wishlist)
	w.s.mu.Unlock()
	if err != nil {
		return err
	}
	w.s.notify("wishlist", "remove")
	return nil
}

func (w *jsonWishlistStore) RemoveByURL(ctx context.Context, url string) error {
	w.s.mu.Lock()
	kept := w.s.wishlist[:0:0]
	for _, item := range w.s.wishlist {
		if item.URL != url {
			kept = append(kept, item)
		}
	}
	w.s.wishlist = kept
	err := w.s.saveFileUnsafe(wishlistFile, w.s.wishlist)
	w.s.mu.Unlock()
	if err != nil {
		return err
	}
	w.s.notify("wishlist", "remove")
	return nil
}

func (w *jsonWishlistStore) ContainsURL(ctx context.Context, url string) (bool, error) {
	w.s.mu.RLock()
	defer w.s.mu.RUnlock()
	for _, item := range w.s.wishlist {
		if item.URL == url {
			return true, nil
		}
	}
	return false, nil
}

func (w *jsonWishlistStore) ToggleByURL(ctx context.Context, name, url string) (bool, error) {
	present, err := w.ContainsURL(ctx, url)
	if err != nil {
		return false, err
	}
	if present {
		return false, w.RemoveByURL(ctx, url)
	}
	_, err = w.Add(ctx, name, url)
	return err == nil, err
}

func (w *jsonWishlistStore) Subscribe(fn func()) { w.s.subscribe("wishlist", fn) }

type jsonReviewStore struct{ s *JSONStore }

func (r *jsonReviewStore) Add(ctx context.Context, review Review) (Review, error) {
	review.ID = uuid.NewString()
	review.Timestamp = time.Now().UnixMilli()
	r.s.mu.Lock()
	r.s.reviews = append([]Review{review}, r.s.reviews...)
	err := r.s.saveFileUnsafe(reviewsFile, r.s.reviews)
	r.s.mu.Unlock()
	if err != nil {
		return Review{}, err
	}
	r.s.notify("reviews", "add")
	return review, nil
}

func (r *jsonReviewStore) List(ctx context.Context) ([]Review, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return append([]Review{}, r.s.reviews...), nil
}

func (r *jsonReviewStore) Remove(ctx context.Context, id string) error {
	r.s.mu.Lock()
	kept := r.s.reviews[:0:0]
	found := false
	for _, review := range r.s.reviews {
		if review.ID == id {
			found = true
			continue
		}
		kept = append(kept, review)
	}
	if !found {
		r.s.mu.Unlock()
		return derrors.RecordNotFound("review", id)
	}
	r.s.reviews = kept
	err := r.s.saveFileUnsafe(reviewsFile, r.s.reviews)
	r.s.mu.Unlock()
	if err != nil {
		return err
	}
	r.s.notify("reviews", "remove")
	return nil
}

func (r *jsonReviewStore) Summary(ctx context.Context) (string, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()
	return ReviewSummary(r.s.reviews), nil
}

func (r *jsonReviewStore) Subscribe(fn func()) { r.s.subscribe("reviews", fn) }

type jsonQueryStore struct{ s *JSONStore }

func (q *jsonQueryStore) Save(ctx context.Context, text string) (SavedQuery, error) {
	clean := strings.TrimSpace(text)
	q.s.mu.Lock()
	for _, existing := range q.s.queries {
		if strings.EqualFold(existing.Text, clean) {
			q.s.mu.Unlock()
			return existing, nil
		}
	}
	query := SavedQuery{
		ID:        uuid.NewString(),
		Text:      clean,
		Timestamp: time.Now().UnixMilli(),
	}
	q.s.queries = append([]SavedQuery{query}, q.s.queries...)
	err := q.s.saveFileUnsafe(queriesFile, q.s.queries)
	q.s.mu.Unlock()
	if err != nil {
		return SavedQuery{}, err
	}
	q.s.notify("queries", "add")
	return query, nil
}

func (q *jsonQueryStore) List(ctx context.Context) ([]SavedQuery, error) {
	q.s.mu.RLock()
	defer q.s.mu.RUnlock()
	return append([]SavedQuery{}, q.s.queries...), nil
}

func (q *jsonQueryStore) Remove(ctx context.Context, id string) error {
	q.s.mu.Lock()
	kept := q.s.queries[:0:0]
	found := false
	for _, query := range q.s.queries {
		if query.ID == id {
			found = true
			continue
		}
		kept = append(kept, query)
	}
	if !found {
		q.s.mu.Unlock()
		return derrors.RecordNotFound("saved query", id)
	}
	q.s.queries = kept
	err := q.s.saveFileUnsafe(queriesFile, q.s.queries)
	q.s.mu.Unlock()
	if err != nil {
		return err
	}
	q.s.notify("queries", "remove")
	return nil
}

func (q *jsonQueryStore) RemoveByText(ctx context.Context, text string) error {
	clean := strings.TrimSpace(text)
	q.s.mu.Lock()
	kept := q.s.queries[:0:0]
	for _, query := range q.s.queries {
		if !strings.EqualFold(query.Text, clean) {
			kept = append(kept, query)
		}
	}
	q.s.queries = kept
	err := q.s.saveFileUnsafe(queriesFile, q.s.queries)
	q.s.mu.Unlock()
	if err != nil {
		return err
	}
	q.s.notify("queries", "remove")
	return nil
}

func (q *jsonQueryStore) IsSaved(ctx context.Context, text string) (bool, error) {
	clean := strings.TrimSpace(text)
	q.s.mu.RLock()
	defer q.s.mu.RUnlock()
	for _, query := range q.s.queries {
		if strings.EqualFold(query.Text, clean) {
			return true, nil
		}
	}
	return false, nil
}

func (q *jsonQueryStore) ToggleByText(ctx context.Context, text string) (bool, error) {
	saved, err := q.IsSaved(ctx, text)
	if err != nil {
		return false, err
	}
	if saved {
		return false, q.RemoveByText(ctx, text)
	}
	_, err = q.Save(ctx, text)
	return err == nil, err
}

func (q *jsonQueryStore) Subscribe(fn func()) { q.s.subscribe("queries", fn) }

type jsonChatStore struct{ s *JSONStore }

func (c *jsonChatStore) Save(ctx context.Context, id string, messages []Message, title string) (ChatSession, error) {
	c.s.mu.Lock()
	existingIdx := -1
	for i, chat := range c.s.chats {
		if chat.ID == id {
			existingIdx = i
			break
		}
	}

	var existing *ChatSession
	if existingIdx >= 0 {
		existing = &c.s.chats[existingIdx]
	}
	session := ChatSession{
		ID:        id,
		Title:     resolveTitle(existing, messages, title),
		Messages:  messages,
		Timestamp: time.Now().UnixMilli(),
	}

	if existingIdx >= 0 {
		c.s.chats[existingIdx] = session
	} else {
		c.s.chats = append([]ChatSession{session}, c.s.chats...)
	}
	err := c.s.saveFileUnsafe(chatsFile, c.s.chats)
	c.s.mu.Unlock()
	if err != nil {
		return ChatSession{}, err
	}
	c.s.notify("chats", "save")
	return session, nil
}

func (c *jsonChatStore) List(ctx context.Context) ([]ChatSession, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()
	return append([]ChatSession{}, c.s.chats...), nil
}

func (c *jsonChatStore) Get(ctx context.Context, id string) (ChatSession, error) {
	c.s.mu.RLock()
	defer c.s.mu.RUnlock()
	for _, chat := range c.s.chats {
		if chat.ID == id {
			return chat, nil
		}
	}
	return ChatSession{}, derrors.RecordNotFound("chat session", id)
}

func (c *jsonChatStore) Delete(ctx context.Context, id string) error {
	c.s.mu.Lock()
	kept := c.s.chats[:0:0]
	found := false
	for _, chat := range c.s.chats {
		if chat.ID == id {
			found = true
			continue
		}
		kept = append(kept, chat)
	}
	if !found {
		c.s.mu.Unlock()
		return derrors.RecordNotFound("chat session", id)
	}
	c.s.chats = kept
	err := c.s.saveFileUnsafe(chatsFile, c.s.chats)
	c.s.mu.Unlock()
	if err != nil {
		return err
	}
	c.s.notify("chats", "delete")
	return nil
}

func (c *jsonChatStore) Clear(ctx context.Context) error {
	c.s.mu.Lock()
	c.s.chats = nil
	err := c.s.saveFileUnsafe(chatsFile, c.s.chats)
	c.s.mu.Unlock()
	if err != nil {
		return err
	}
	c.s.notify("chats", "clear")
	return nil
}

func (c *jsonChatStore) Subscribe(fn func()) { c.s.subscribe("chats", fn) }

// resolveTitle keeps an existing custom title unless the caller
// supplies a new one, and never replaces a custom title with the
// default placeholder.
func resolveTitle(existing *ChatSession, messages []Message, title string) string {
	if title == "" {
		if existing != nil {
			return existing.Title
		}
		return DeriveTitle(messages)
	}
	if title == DefaultChatTitle && existing != nil && existing.Title != DefaultChatTitle {
		return existing.Title
	}
	return title
}
