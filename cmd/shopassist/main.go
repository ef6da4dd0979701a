package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/shopassist/internal/affiliate"
	"git.home.luguber.info/inful/shopassist/internal/chat"
	"git.home.luguber.info/inful/shopassist/internal/cli"
	"git.home.luguber.info/inful/shopassist/internal/config"
	"git.home.luguber.info/inful/shopassist/internal/daemon"
	derrors "git.home.luguber.info/inful/shopassist/internal/errors"
	"git.home.luguber.info/inful/shopassist/internal/export"
	"git.home.luguber.info/inful/shopassist/internal/llm"
	"git.home.luguber.info/inful/shopassist/internal/marketplace"
	"git.home.luguber.info/inful/shopassist/internal/metrics"
	"git.home.luguber.info/inful/shopassist/internal/store"
)

var CLI struct {
	Config  string `short:"c" help:"Configuration file path" default:"config.yaml"`
	Verbose bool   `short:"v" help:"Enable verbose logging"`

	Serve struct{} `cmd:"" help:"Run the HTTP API with config watching and periodic health checks"`

	Chat struct {
		Resume string `short:"r" help:"Chat id to resume"`
	} `cmd:"" help:"Start an interactive terminal chat"`

	Export struct {
		ChatID string `arg:"" help:"Chat id to export"`
		Format string `short:"f" help:"Output format" default:"markdown" enum:"markdown,md,json,html"`
		Output string `short:"o" help:"Output directory" default:"."`
	} `cmd:"" help:"Export a saved chat to markdown, JSON, or HTML"`

	Init struct {
		Force bool `help:"Overwrite existing configuration file"`
	} `cmd:"" help:"Initialize a new configuration file"`
}

func main() {
	kctx := kong.Parse(&CLI)

	logLevel := slog.LevelInfo
	if CLI.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: logLevel}))
	slog.SetDefault(logger)

	adapter := derrors.NewCLIErrorAdapter(CLI.Verbose, logger)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch kctx.Command() {
	case "serve":
		err = runServe(ctx)
	case "chat":
		err = runChat(ctx)
	case "export <chat-id>":
		err = runExport(ctx)
	case "init":
		err = runInit()
	}
	adapter.HandleError(err)
}

// loadConfig loads and validates the configuration, rebuilding the
// default logger from its logging section.
func loadConfig() (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(CLI.Config)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	if CLI.Verbose {
		cfg.Logging.Level = string(config.LogLevelDebug)
	}
	logger := cfg.Logging.NewLogger()
	slog.SetDefault(logger)

	return cfg, logger, nil
}

func runServe(ctx context.Context) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	d := daemon.New(cfg, CLI.Config, logger)
	return d.Run(ctx)
}

func runChat(ctx context.Context) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			logger.Warn("store close failed", "error", err)
		}
	}()

	norm := affiliate.New(cfg.Affiliate)
	search := marketplace.New(cfg.Marketplace, metrics.NoopRecorder{}, logger)
	model := llm.NewClient(cfg.LLM)
	chatSvc := chat.New(model, search, st, norm, cfg.LLM.Model, metrics.NoopRecorder{}, logger)

	c := cli.New(chatSvc, st, norm)
	if CLI.Chat.Resume != "" {
		if err := c.Open(ctx, CLI.Chat.Resume); err != nil {
			return err
		}
	}
	return c.Run(ctx)
}

func runExport(ctx context.Context) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(context.Background()); err != nil {
			logger.Warn("store close failed", "error", err)
		}
	}()

	session, err := st.Chats().Get(ctx, CLI.Export.ChatID)
	if err != nil {
		return err
	}

	opts := export.DefaultOptions()
	opts.OutputDir = CLI.Export.Output
	exporter, err := export.New(CLI.Export.Format, affiliate.New(cfg.Affiliate), opts)
	if err != nil {
		return err
	}

	path, err := export.ExportToFile(exporter, session, opts)
	if err != nil {
		return err
	}
	logger.Info("chat exported", "path", path, "format", CLI.Export.Format)
	return nil
}

func runInit() error {
	slog.Info("initializing configuration", "path", CLI.Config, "force", CLI.Init.Force)
	return config.Init(CLI.Config, CLI.Init.Force)
}

func openStore(cfg *config.Config) (store.Store, error) {
	path := cfg.Store.Dir
	if cfg.Store.Backend == store.BackendSQLite {
		path = cfg.Store.Path
	}
	return store.Open(cfg.Store.Backend, path, metrics.NoopRecorder{})
}
