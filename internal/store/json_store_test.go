package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/shopassist/internal/metrics"
)

func TestJSONStore_ReopenLoadsState(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := NewJSONStore(dir, metrics.NoopRecorder{})
	require.NoError(t, err)
	item, err := s.Wishlist().Add(ctx, "Sony WH-1000XM5", "https://www.amazon.com/dp/B09XS7JWHH")
	require.NoError(t, err)
	_, err = s.Queries().Save(ctx, "noise cancelling headphones")
	require.NoError(t, err)
	require.NoError(t, s.Close(ctx))

	reopened, err := NewJSONStore(dir, metrics.NoopRecorder{})
	require.NoError(t, err)
	defer reopened.Close(ctx)

	items, err := reopened.Wishlist().List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, item.ID, items[0].ID)
	require.Equal(t, "Sony WH-1000XM5", items[0].Name)

	saved, err := reopened.Queries().IsSaved(ctx, "Noise Cancelling Headphones")
	require.NoError(t, err)
	require.True(t, saved)
}

func TestJSONStore_CorruptFileStartsEmpty(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, wishlistFile), []byte("{not json"), 0o644))

	s, err := NewJSONStore(dir, metrics.NoopRecorder{})
	require.NoError(t, err)
	defer s.Close(ctx)

	items, err := s.Wishlist().List(ctx)
	require.NoError(t, err)
	require.Empty(t, items)
}
