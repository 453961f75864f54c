package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"

	"github.com/sandeepkv93/vibe/internal/auth"
	"github.com/sandeepkv93/vibe/internal/config"
	"github.com/sandeepkv93/vibe/internal/storage"
)

// app holds what every subcommand needs: config, the database and the
// local auth provider with any saved session restored.
type app struct {
	cfg      config.Config
	logger   *log.Logger
	db       *sqlx.DB
	repo     *storage.SQLRepository
	provider *auth.LocalProvider
	logFile  io.Closer
}

func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg}
	if err := a.openLog(); err != nil {
		return nil, err
	}
	if cfg.DatabaseDriver == storage.DriverSQLite {
		if err := os.MkdirAll(filepath.Dir(cfg.DatabaseDSN), 0o700); err != nil {
			a.Close()
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}
	if a.db, err = storage.Open(cfg.DatabaseDriver, cfg.DatabaseDSN); err != nil {
		a.Close()
		return nil, err
	}
	if err := storage.MigrateUp(a.db); err != nil {
		a.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	if a.repo, err = storage.NewSQLRepository(a.db); err != nil {
		a.Close()
		return nil, err
	}
	tokens, err := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)
	if err != nil {
		a.Close()
		return nil, err
	}
	a.provider = auth.NewLocalProvider(a.repo, tokens,
		auth.WithSessionStore(auth.NewDiskSessionStore(cfg.SessionDir)),
		auth.WithCodeTTL(cfg.CodeTTL),
		auth.WithLogger(a.logger),
	)
	if _, err := a.provider.Restore(ctx); err != nil {
		a.logger.Printf("restore session: %v", err)
	}
	return a, nil
}

func (a *app) openLog() error {
	if a.cfg.LogFile == "" {
		a.logger = log.New(io.Discard, "", 0)
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(a.cfg.LogFile), 0o700); err != nil {
		return fmt.Errorf("create log dir: %w", err)
	}
	f, err := os.OpenFile(a.cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	a.logFile = f
	a.logger = log.New(f, "vibe ", log.LstdFlags|log.Lmicroseconds)
	return nil
}

func (a *app) Close() {
	if a.db != nil {
		_ = a.db.Close()
	}
	if a.logFile != nil {
		_ = a.logFile.Close()
	}
}

// withApp wraps a command body with app setup and teardown.
func withApp(run func(ctx context.Context, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		a, err := openApp(ctx)
		if err != nil {
			return err
		}
		defer a.Close()
		return run(ctx, a, args)
	}
}
