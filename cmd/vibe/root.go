package main

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/sandeepkv93/vibe/internal/scheduler"
	"github.com/sandeepkv93/vibe/internal/update"
	"github.com/sandeepkv93/vibe/internal/vibe"
)

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "vibe",
		Short:         "Tasks, focus sessions and energy tracking in the terminal.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE:          withApp(runUI),
	}

	addMigrate(cmd)
	addAuth(cmd)
	addTasks(cmd)
	addEnergy(cmd)
	return cmd
}

func runUI(ctx context.Context, a *app, _ []string) error {
	bridge := update.NewBridge()
	opts := []vibe.Option{
		vibe.WithLogger(a.logger),
		vibe.WithChangeHook(bridge.Changed),
		vibe.WithNavigator(bridge),
	}
	if a.cfg.SerializedWrites {
		opts = append(opts, vibe.WithSerializedWrites())
	}
	store := vibe.New(a.repo, a.provider, opts...)
	if err := store.Start(ctx); err != nil {
		return fmt.Errorf("start store: %w", err)
	}
	defer store.Close()

	engine := scheduler.NewEngine(a.cfg.SchedulerBuffer)
	engine.Start()
	defer engine.Stop()

	var notifier update.DesktopNotifier = update.NoopDesktopNotifier{}
	if a.cfg.DesktopNotifications {
		notifier = update.ExecDesktopNotifier{}
	}
	model := update.NewModelWithConfig(update.Deps{
		Store:     store,
		Auth:      a.provider,
		Scheduler: engine,
		Bridge:    bridge,
		Notifier:  notifier,
		Context:   ctx,
	}, a.cfg)

	program := tea.NewProgram(model, tea.WithAltScreen(), tea.WithMouseCellMotion(), tea.WithContext(ctx))
	if _, err := program.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("run ui: %w", err)
	}
	return nil
}
