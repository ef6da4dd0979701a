package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	derrors "git.home.luguber.info/inful/shopassist/internal/errors"
	"git.home.luguber.info/inful/shopassist/internal/metrics"
)

// SQLiteStore persists records in a SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	rec metrics.Recorder

	mu   sync.RWMutex
	subs map[string][]func()
}

// NewSQLiteStore opens (and if needed initializes) the database at
// dbPath. Use ":memory:" for an in-memory database in tests.
func NewSQLiteStore(dbPath string, rec metrics.Recorder) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, derrors.StoreError("open", err).WithContext("path", dbPath)
	}
	// An in-memory database exists per connection.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db, rec: rec, subs: make(map[string][]func())}
	if err := s.initialize(); err != nil {
		_ = db.Close()
		return nil, derrors.StoreError("initialize", err).WithContext("path", dbPath)
	}
	return s, nil
}

func (s *SQLiteStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS wishlist (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		url TEXT NOT NULL,
		added_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_wishlist_url ON wishlist(url);
	CREATE TABLE IF NOT EXISTS reviews (
		id TEXT PRIMARY KEY,
		product_name TEXT NOT NULL,
		rating INTEGER NOT NULL,
		comment TEXT NOT NULL,
		user_name TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS saved_queries (
		id TEXT PRIMARY KEY,
		text TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_saved_queries_text ON saved_queries(lower(text));
	CREATE TABLE IF NOT EXISTS chats (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		messages TEXT NOT NULL,
		updated_at INTEGER NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLiteStore) Wishlist() WishlistStore { return &sqliteWishlistStore{s} }
func (s *SQLiteStore) Reviews() ReviewStore    { return &sqliteReviewStore{s} }
func (s *SQLiteStore) Queries() QueryStore     { return &sqliteQueryStore{s} }
func (s *SQLiteStore) Chats() ChatStore        { return &sqliteChatStore{s} }

// Health pings the database.
func (s *SQLiteStore) Health(ctx context.Context) Health {
	h := Health{Status: "healthy", CheckedAt: time.Now()}
	if err := s.db.PingContext(ctx); err != nil {
		h.Status = "unhealthy"
		h.Message = err.Error()
	}
	return h
}

// Close closes the database connection.
func (s *SQLiteStore) Close(ctx context.Context) error {
	return s.db.Close()
}

func (s *SQLiteStore) subscribe(kind string, fn func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs[kind] = append(s.subs[kind], fn)
}

func (s *SQLiteStore) notify(kind, op string) {
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

type sqliteWishlistStore struct{ s *SQLiteStore }

func (w *sqliteWishlistStore) Add(ctx context.Context, name, url string) (WishlistItem, error) {
	item := WishlistItem{
		ID:      uuid.NewString(),
		Name:    name,
		URL:     url,
		AddedAt: time.Now().UnixMilli(),
	}
	_, err := w.s.db.ExecContext(ctx,
		"INSERT INTO wishlist (id, name, url, added_at) VALUES (?, ?, ?, ?)",
		item.ID, item.Name, item.URL, item.AddedAt,
	)
	if err != nil {
		return WishlistItem{}, derrors.StoreError("add wishlist item", err)
	}
	w.s.notify("wishlist", "add")
	return item, nil
}

func (w *sqliteWishlistStore) List(ctx context.Context) ([]WishlistItem, error) {
	rows, err := w.s.db.QueryContext(ctx,
		"SELECT id, name, url, added_at FROM wishlist ORDER BY added_at DESC, rowid DESC")
	if err != nil {
		return nil, derrors.StoreError("list wishlist", err)
	}
	defer rows.Close()

	items := []WishlistItem{}
	for rows.Next() {
		var item WishlistItem
		if err := rows.Scan(&item.ID, &item.Name, &item.URL, &item.AddedAt); err != nil {
			return nil, derrors.StoreError("scan wishlist item", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, derrors.StoreError("list wishlist", err)
	}
	return items, nil
}

func (w *sqliteWishlistStore) Remove(ctx context.Context, id string) error {
	res, err := w.s.db.ExecContext(ctx, "DELETE FROM wishlist WHERE id = ?", id)
	if err != nil {
		return derrors.StoreError("remove wishlist item", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return derrors.RecordNotFound("wishlist item", id)
	}
	w.s.notify("wishlist", "remove")
	return nil
}

func (w *sqliteWishlistStore) RemoveByURL(ctx context.Context, url string) error {
	_, err := w.s.db.ExecContext(ctx, "DELETE FROM wishlist WHERE url = ?", url)
	if err != nil {
		return derrors.StoreError("remove wishlist item", err)
	}
	w.s.notify("wishlist", "remove")
	return nil
}

func (w *sqliteWishlistStore) ContainsURL(ctx context.Context, url string) (bool, error) {
	var n int
	err := w.s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM wishlist WHERE url = ?", url).Scan(&n)
	if err != nil {
		return false, derrors.StoreError("check wishlist", err)
	}
	return n > 0, nil
}

func (w *sqliteWishlistStore) ToggleByURL(ctx context.Context, name, url string) (bool, error) {
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

func (w *sqliteWishlistStore) Subscribe(fn func()) { w.s.subscribe("wishlist", fn) }

type sqliteReviewStore struct{ s *SQLiteStore }

func (r *sqliteReviewStore) Add(ctx context.Context, review Review) (Review, error) {
	review.ID = uuid.NewString()
	review.Timestamp = time.Now().UnixMilli()
	_, err := r.s.db.ExecContext(ctx,
		"INSERT INTO reviews (id, product_name, rating, comment, user_name, created_at) VALUES (?, ?, ?, ?, ?, ?)",
		review.ID, review.ProductName, review.Rating, review.Comment, review.UserName, review.Timestamp,
	)
	if err != nil {
		return Review{}, derrors.StoreError("add review", err)
	}
	r.s.notify("reviews", "add")
	return review, nil
}

func (r *sqliteReviewStore) List(ctx context.Context) ([]Review, error) {
	rows, err := r.s.db.QueryContext(ctx,
		"SELECT id, product_name, rating, comment, user_name, created_at FROM reviews ORDER BY created_at DESC, rowid DESC")
	if err != nil {
		return nil, derrors.StoreError("list reviews", err)
	}
	defer rows.Close()

	reviews := []Review{}
	for rows.Next() {
		var review Review
		if err := rows.Scan(&review.ID, &review.ProductName, &review.Rating, &review.Comment, &review.UserName, &review.Timestamp); err != nil {
			return nil, derrors.StoreError("scan review", err)
		}
		reviews = append(reviews, review)
	}
	if err := rows.Err(); err != nil {
		return nil, derrors.StoreError("list reviews", err)
	}
	return reviews, nil
}

func (r *sqliteReviewStore) Remove(ctx context.Context, id string) error {
	res, err := r.s.db.ExecContext(ctx, "DELETE FROM reviews WHERE id = ?", id)
	if err != nil {
		return derrors.StoreError("remove review", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return derrors.RecordNotFound("review", id)
	}
	r.s.notify("reviews", "remove")
	return nil
}

func (r *sqliteReviewStore) Summary(ctx context.Context) (string, error) {
	reviews, err := r.List(ctx)
	if err != nil {
		return "", err
	}
	return ReviewSummary(reviews), nil
}

func (r *sqliteReviewStore) Subscribe(fn func()) { r.s.subscribe("reviews", fn) }

type sqliteQueryStore struct{ s *SQLiteStore }

func (q *sqliteQueryStore) Save(ctx context.Context, text string) (SavedQuery, error) {
	clean := strings.TrimSpace(text)

	var existing SavedQuery
	err := q.s.db.QueryRowContext(ctx,
		"SELECT id, text, created_at FROM saved_queries WHERE lower(text) = lower(?)", clean).
		Scan(&existing.ID, &existing.Text, &existing.Timestamp)
	if err == nil {
		return existing, nil
	}
	if err != sql.ErrNoRows {
		return SavedQuery{}, derrors.StoreError("save query", err)
	}

	query := SavedQuery{
		ID:        uuid.NewString(),
		Text:      clean,
		Timestamp: time.Now().UnixMilli(),
	}
	_, err = q.s.db.ExecContext(ctx,
		"INSERT INTO saved_queries (id, text, created_at) VALUES (?, ?, ?)",
		query.ID, query.Text, query.Timestamp,
	)
	if err != nil {
		return SavedQuery{}, derrors.StoreError("save query", err)
	}
	q.s.notify("queries", "add")
	return query, nil
}

func (q *sqliteQueryStore) List(ctx context.Context) ([]SavedQuery, error) {
	rows, err := q.s.db.QueryContext(ctx,
		"SELECT id, text, created_at FROM saved_queries ORDER BY created_at DESC, rowid DESC")
	if err != nil {
		return nil, derrors.StoreError("list queries", err)
	}
	defer rows.Close()

	queries := []SavedQuery{}
	for rows.Next() {
		var query SavedQuery
		if err := rows.Scan(&query.ID, &query.Text, &query.Timestamp); err != nil {
			return nil, derrors.StoreError("scan query", err)
		}
		queries = append(queries, query)
	}
	if err := rows.Err(); err != nil {
		return nil, derrors.StoreError("list queries", err)
	}
	return queries, nil
}

func (q *sqliteQueryStore) Remove(ctx context.Context, id string) error {
	res, err := q.s.db.ExecContext(ctx, "DELETE FROM saved_queries WHERE id = ?", id)
	if err != nil {
		return derrors.StoreError("remove query", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return derrors.RecordNotFound("saved query", id)
	}
	q.s.notify("queries", "remove")
	return nil
}

func (q *sqliteQueryStore) RemoveByText(ctx context.Context, text string) error {
	_, err := q.s.db.ExecContext(ctx,
		"DELETE FROM saved_queries WHERE lower(text) = lower(?)", strings.TrimSpace(text))
	if err != nil {
		return derrors.StoreError("remove query", err)
	}
	q.s.notify("queries", "remove")
	return nil
}

func (q *sqliteQueryStore) IsSaved(ctx context.Context, text string) (bool, error) {
	var n int
	err := q.s.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM saved_queries WHERE lower(text) = lower(?)",
		strings.TrimSpace(text)).Scan(&n)
	if err != nil {
		return false, derrors.StoreError("check query", err)
	}
	return n > 0, nil
}

func (q *sqliteQueryStore) ToggleByText(ctx context.Context, text string) (bool, error) {
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

func (q *sqliteQueryStore) Subscribe(fn func()) { q.s.subscribe("queries", fn) }

type sqliteChatStore struct{ s *SQLiteStore }

func (c *sqliteChatStore) Save(ctx context.Context, id string, messages []Message, title string) (ChatSession, error) {
	var existing *ChatSession
	if prev, err := c.Get(ctx, id); err == nil {
		existing = &prev
	} else if !derrors.IsCategory(err, derrors.CategoryNotFound) {
		return ChatSession{}, err
	}

	session := ChatSession{
		ID:        id,
		Title:     resolveTitle(existing, messages, title),
		Messages:  messages,
		Timestamp: time.Now().UnixMilli(),
	}
	encoded, err := json.Marshal(session.Messages)
	if err != nil {
		return ChatSession{}, derrors.StoreError("save chat", err)
	}

	_, err = c.s.db.ExecContext(ctx,
		`INSERT INTO chats (id, title, messages, updated_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET title = excluded.title, messages = excluded.messages, updated_at = excluded.updated_at`,
		session.ID, session.Title, string(encoded), session.Timestamp,
	)
	if err != nil {
		return ChatSession{}, derrors.StoreError("save chat", err)
	}
	c.s.notify("chats", "save")
	return session, nil
}

func (c *sqliteChatStore) List(ctx context.Context) ([]ChatSession, error) {
	rows, err := c.s.db.QueryContext(ctx,
		"SELECT id, title, messages, updated_at FROM chats ORDER BY updated_at DESC, rowid DESC")
	if err != nil {
		return nil, derrors.StoreError("list chats", err)
	}
	defer rows.Close()

	chats := []ChatSession{}
	for rows.Next() {
		session, err := scanChat(rows.Scan)
		if err != nil {
			return nil, err
		}
		chats = append(chats, session)
	}
	if err := rows.Err(); err != nil {
		return nil, derrors.StoreError("list chats", err)
	}
	return chats, nil
}

func (c *sqliteChatStore) Get(ctx context.Context, id string) (ChatSession, error) {
	row := c.s.db.QueryRowContext(ctx,
		"SELECT id, title, messages, updated_at FROM chats WHERE id = ?", id)
	session, err := scanChat(row.Scan)
	if err == sql.ErrNoRows {
		return ChatSession{}, derrors.RecordNotFound("chat session", id)
	}
	return session, err
}

func (c *sqliteChatStore) Delete(ctx context.Context, id string) error {
	res, err := c.s.db.ExecContext(ctx, "DELETE FROM chats WHERE id = ?", id)
	if err != nil {
		return derrors.StoreError("delete chat", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return derrors.RecordNotFound("chat session", id)
	}
	c.s.notify("chats", "delete")
	return nil
}

func (c *sqliteChatStore) Clear(ctx context.Context) error {
	if _, err := c.s.db.ExecContext(ctx, "DELETE FROM chats"); err != nil {
		return derrors.StoreError("clear chats", err)
	}
	c.s.notify("chats", "clear")
	return nil
}

func (c *sqliteChatStore) Subscribe(fn func()) { c.s.subscribe("chats", fn) }

func scanChat(scan func(dest ...any) error) (ChatSession, error) {
	var session ChatSession
	var encoded string
	if err := scan(&session.ID, &session.Title, &encoded, &session.Timestamp); err != nil {
		if err == sql.ErrNoRows {
			return ChatSession{}, err
		}
		return ChatSession{}, derrors.StoreError("scan chat", err)
	}
	if err := json.Unmarshal([]byte(encoded), &session.Messages); err != nil {
		return ChatSession{}, derrors.StoreError("decode chat messages", err)
	}
	return session, nil
}
