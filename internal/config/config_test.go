package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	derrors "git.home.luguber.info/inful/shopassist/internal/errors"
)

const minimalYAML = `
llm:
  api_key: sk-test
affiliate:
  tag: shopassist-20
`

func TestParse_Defaults(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML))
	require.NoError(t, err)

	require.Equal(t, "127.0.0.1", cfg.Server.Host)
	require.Equal(t, 8780, cfg.Server.Port)
	require.Equal(t, "google/gemini-2.0-flash-001", cfg.LLM.Model)
	require.Equal(t, 20, cfg.LLM.MaxHistory)
	require.Equal(t, "json", cfg.Store.Backend)
	require.Equal(t, "text", cfg.Logging.Format)
	require.Equal(t, 5*time.Minute, cfg.Daemon.HealthInterval)
	require.Equal(t, []string{"amazon", "amzn"}, cfg.Affiliate.BrandTokens)
	require.Equal(t, "https://www.amazon.com/s", cfg.Affiliate.SearchBaseURL)
}

func TestParse_EnvExpansion(t *testing.T) {
	t.Setenv("TEST_OPENROUTER_KEY", "sk-from-env")
	cfg, err := Parse([]byte("llm:\n  api_key: ${TEST_OPENROUTER_KEY}\naffiliate:\n  tag: t-20\n"))
	require.NoError(t, err)
	require.Equal(t, "sk-from-env", cfg.LLM.APIKey)
}

func TestParse_Invalid(t *testing.T) {
	_, err := Parse([]byte("llm: [not a mapping"))
	require.Error(t, err)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.Error(t, err)
}

func TestLoad_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalYAML), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, "sk-test", cfg.LLM.APIKey)
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		cfg, err := Parse([]byte(minimalYAML))
		require.NoError(t, err)
		return cfg
	}

	require.NoError(t, base().Validate())

	missingKey := base()
	missingKey.LLM.APIKey = ""
	err := missingKey.Validate()
	require.Error(t, err)
	require.True(t, derrors.IsCategory(err, derrors.CategoryConfig))

	missingTag := base()
	missingTag.Affiliate.Tag = ""
	require.Error(t, missingTag.Validate())

	badBackend := base()
	badBackend.Store.Backend = "etcd"
	require.Error(t, badBackend.Validate())

	badPort := base()
	badPort.Server.Port = 70000
	require.Error(t, badPort.Validate())
}

func TestInit_RefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, Init(path, false))
	require.Error(t, Init(path, false))
	require.NoError(t, Init(path, true))
}

func TestInit_ProducesLoadableConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, Init(path, false))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	cfg, err := Parse(data)
	require.NoError(t, err)
	require.Equal(t, "yourtag-20", cfg.Affiliate.Tag)
}

func TestNormalizeLogLevel(t *testing.T) {
	require.Equal(t, LogLevelDebug, NormalizeLogLevel("DEBUG"))
	require.Equal(t, LogLevelWarn, NormalizeLogLevel("warning"))
	require.Equal(t, LogLevelInfo, NormalizeLogLevel("bogus"))
}

func TestNormalizeLogFormat(t *testing.T) {
	require.Equal(t, LogFormatJSON, NormalizeLogFormat("JSON"))
	require.Equal(t, LogFormatText, NormalizeLogFormat(""))
}
