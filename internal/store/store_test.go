package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	derrors "git.home.luguber.info/inful/shopassist/internal/errors"
	"git.home.luguber.info/inful/shopassist/internal/metrics"
)

// backends runs a subtest against both store implementations.
func backends(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Helper()
	t.Run("json", func(t *testing.T) {
		s, err := NewJSONStore(t.TempDir(), metrics.NoopRecorder{})
		require.NoError(t, err)
		defer s.Close(context.Background())
		fn(t, s)
	})
	t.Run("sqlite", func(t *testing.T) {
		s, err := NewSQLiteStore(":memory:", metrics.NoopRecorder{})
		require.NoError(t, err)
		defer s.Close(context.Background())
		fn(t, s)
	})
}

func TestWishlist_AddListRemove(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		wl := s.Wishlist()

		first, err := wl.Add(ctx, "Sony WH-1000XM5", "https://www.amazon.com/dp/B09XS7JWHH")
		require.NoError(t, err)
		require.NotEmpty(t, first.ID)

		second, err := wl.Add(ctx, "Kindle Paperwhite", "https://www.amazon.com/dp/B08KTZ8249")
		require.NoError(t, err)

		items, err := wl.List(ctx)
		require.NoError(t, err)
		require.Len(t, items, 2)
		// Newest first.
		require.Equal(t, second.ID, items[0].ID)
		require.Equal(t, first.ID, items[1].ID)

		require.NoError(t, wl.Remove(ctx, first.ID))
		items, err = wl.List(ctx)
		require.NoError(t, err)
		require.Len(t, items, 1)

		err = wl.Remove(ctx, "missing-id")
		require.True(t, derrors.IsCategory(err, derrors.CategoryNotFound))
	})
}

func TestWishlist_ToggleByURL(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		wl := s.Wishlist()
		url := "https://www.amazon.com/dp/B09XS7JWHH"

		added, err := wl.ToggleByURL(ctx, "Headphones", url)
		require.NoError(t, err)
		require.True(t, added)

		present, err := wl.ContainsURL(ctx, url)
		require.NoError(t, err)
		require.True(t, present)

		added, err = wl.ToggleByURL(ctx, "Headphones", url)
		require.NoError(t, err)
		require.False(t, added)

		present, err = wl.ContainsURL(ctx, url)
		require.NoError(t, err)
		require.False(t, present)
	})
}

func TestQueries_CaseInsensitiveDedup(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		qs := s.Queries()

		first, err := qs.Save(ctx, "Sony WH-1000XM5")
		require.NoError(t, err)

		dup, err := qs.Save(ctx, "  sony wh-1000xm5  ")
		require.NoError(t, err)
		require.Equal(t, first.ID, dup.ID)

		list, err := qs.List(ctx)
		require.NoError(t, err)
		require.Len(t, list, 1)

		saved, err := qs.IsSaved(ctx, "SONY WH-1000XM5")
		require.NoError(t, err)
		require.True(t, saved)

		on, err := qs.ToggleByText(ctx, "sony wh-1000xm5")
		require.NoError(t, err)
		require.False(t, on)

		list, err = qs.List(ctx)
		require.NoError(t, err)
		require.Empty(t, list)
	})
}

func TestReviews_Summary(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		rs := s.Reviews()

		summary, err := rs.Summary(ctx)
		require.NoError(t, err)
		require.Empty(t, summary)

		_, err = rs.Add(ctx, Review{
			ProductName: "Anker PowerCore",
			Rating:      5,
			Comment:     "Charges fast",
			UserName:    "dana",
		})
		require.NoError(t, err)

		summary, err = rs.Summary(ctx)
		require.NoError(t, err)
		require.Contains(t, summary, "[USER REVIEWS DATABASE]")
		require.Contains(t, summary, `Product: "Anker PowerCore" | Rating: 5/5 | User: dana | Comment: "Charges fast"`)
	})
}

func TestChats_SaveGetDelete(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		cs := s.Chats()

		messages := []Message{
			{ID: "m1", Role: RoleUser, Text: "best budget headphones"},
			{ID: "m2", Role: RoleModel, Text: "Here are some options."},
		}
		session, err := cs.Save(ctx, "chat-1", messages, "")
		require.NoError(t, err)
		require.Equal(t, "best budget headphones", session.Title)

		got, err := cs.Get(ctx, "chat-1")
		require.NoError(t, err)
		require.Len(t, got.Messages, 2)
		require.Equal(t, RoleModel, got.Messages[1].Role)

		require.NoError(t, cs.Delete(ctx, "chat-1"))
		_, err = cs.Get(ctx, "chat-1")
		require.True(t, derrors.IsCategory(err, derrors.CategoryNotFound))
	})
}

func TestChats_TitleRules(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		cs := s.Chats()

		// Custom title sticks.
		_, err := cs.Save(ctx, "chat-1", nil, "Gift ideas")
		require.NoError(t, err)

		// The default placeholder never overwrites a custom title.
		session, err := cs.Save(ctx, "chat-1", nil, DefaultChatTitle)
		require.NoError(t, err)
		require.Equal(t, "Gift ideas", session.Title)

		// Empty title keeps the existing one.
		session, err = cs.Save(ctx, "chat-1", []Message{{Role: RoleUser, Text: "hi"}}, "")
		require.NoError(t, err)
		require.Equal(t, "Gift ideas", session.Title)

		// An explicit new title replaces it.
		session, err = cs.Save(ctx, "chat-1", nil, "Holiday shopping")
		require.NoError(t, err)
		require.Equal(t, "Holiday shopping", session.Title)
	})
}

func TestChats_Clear(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		cs := s.Chats()

		_, err := cs.Save(ctx, "chat-1", nil, "a")
		require.NoError(t, err)
		_, err = cs.Save(ctx, "chat-2", nil, "b")
		require.NoError(t, err)

		require.NoError(t, cs.Clear(ctx))
		list, err := cs.List(ctx)
		require.NoError(t, err)
		require.Empty(t, list)
	})
}

func TestSubscribe_NotifiesOnMutation(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		var calls int
		s.Wishlist().Subscribe(func() { calls++ })

		_, err := s.Wishlist().Add(ctx, "Item", "https://www.amazon.com/dp/B09XS7JWHH")
		require.NoError(t, err)
		require.Equal(t, 1, calls)

		// Reads do not notify.
		_, err = s.Wishlist().List(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, calls)
	})
}

func TestOpen_UnknownBackend(t *testing.T) {
	_, err := Open("etcd", "", metrics.NoopRecorder{})
	require.Error(t, err)
}

func TestHealth(t *testing.T) {
	backends(t, func(t *testing.T, s Store) {
		h := s.Health(context.Background())
		require.Equal(t, "healthy", h.Status)
	})
}
