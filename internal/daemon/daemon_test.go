package daemon

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/shopassist/internal/config"
	derrors "git.home.luguber.info/inful/shopassist/internal/errors"
	"git.home.luguber.info/inful/shopassist/internal/store"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Parse([]byte(`
llm:
  api_key: test-key
affiliate:
  tag: shopassist-20
`))
	require.NoError(t, err)
	return cfg
}

func TestNew_InitialState(t *testing.T) {
	d := New(testConfig(t), "", nil)
	require.Equal(t, StatusStopped, d.Status())
	require.Zero(t, d.Uptime())
	require.Zero(t, d.Marketplace().Checks)
}

func TestReloadConfig_AppliesAndSignals(t *testing.T) {
	d := New(testConfig(t), "", nil)

	newCfg := testConfig(t)
	newCfg.Server.Port = 9999
	require.NoError(t, d.ReloadConfig(context.Background(), newCfg))

	require.Equal(t, 9999, d.Config().Server.Port)
	select {
	case <-d.reloadCh:
	default:
		t.Fatal("expected a pending reload signal")
	}
}

func TestReloadConfig_RejectsInvalid(t *testing.T) {
	d := New(testConfig(t), "", nil)

	bad := testConfig(t)
	bad.Store.Backend = "etcd"
	err := d.ReloadConfig(context.Background(), bad)
	require.Error(t, err)
	require.True(t, derrors.IsCategory(err, derrors.CategoryValidation))

	// The active configuration is untouched and no reload is pending.
	require.Equal(t, store.BackendJSON, d.Config().Store.Backend)
	select {
	case <-d.reloadCh:
		t.Fatal("unexpected reload signal")
	default:
	}
}

func TestReloadConfig_CoalescesPendingSignals(t *testing.T) {
	d := New(testConfig(t), "", nil)

	require.NoError(t, d.ReloadConfig(context.Background(), testConfig(t)))
	require.NoError(t, d.ReloadConfig(context.Background(), testConfig(t)))

	<-d.reloadCh
	select {
	case <-d.reloadCh:
		t.Fatal("signals should coalesce into one")
	default:
	}
}

func TestStorePath_PerBackend(t *testing.T) {
	jsonCfg := config.StoreConfig{Backend: store.BackendJSON, Dir: "/data", Path: "/data/app.db"}
	require.Equal(t, "/data", storePath(jsonCfg))

	sqliteCfg := config.StoreConfig{Backend: store.BackendSQLite, Dir: "/data", Path: "/data/app.db"}
	require.Equal(t, "/data/app.db", storePath(sqliteCfg))
}

func TestScheduler_RunsTask(t *testing.T) {
	s, err := NewScheduler(nil)
	require.NoError(t, err)

	ran := make(chan struct{})
	var once sync.Once
	require.NoError(t, s.Every(10*time.Millisecond, "probe", func(ctx context.Context) {
		once.Do(func() { close(ran) })
	}))

	s.Start()
	defer func() { require.NoError(t, s.Stop()) }()

	select {
	case <-ran:
	case <-time.After(2 * time.Second):
		t.Fatal("scheduled task never ran")
	}
}
