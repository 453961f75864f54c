package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/sandeepkv93/vibe/internal/config"
	"github.com/sandeepkv93/vibe/internal/storage"
)

func addMigrate(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "migrate <up|down>",
		Short: "Apply or roll back the database schema.",
		Example: `
vibe migrate up
vibe migrate down
`,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) != 1 {
				return errors.New("requires a direction: up or down")
			}
			_, err := storage.ParseDirection(args[0])
			return err
		},
		RunE: func(_ *cobra.Command, args []string) error {
			dir, _ := storage.ParseDirection(args[0])
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if cfg.DatabaseDriver == storage.DriverSQLite {
				if err := os.MkdirAll(filepath.Dir(cfg.DatabaseDSN), 0o700); err != nil {
					return fmt.Errorf("create data dir: %w", err)
				}
			}
			db, err := storage.Open(cfg.DatabaseDriver, cfg.DatabaseDSN)
			if err != nil {
				return err
			}
			defer db.Close()

			applied, err := storage.Migrate(db, dir)
			for _, name := range applied {
				fmt.Printf("applied %s\n", filepath.Base(name))
			}
			if err != nil {
				return err
			}
			fmt.Printf("migrate %s: %d file(s)\n", dir, len(applied))
			return nil
		},
	}

	topLevel.AddCommand(cmd)
}
