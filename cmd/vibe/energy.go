package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/sandeepkv93/vibe/internal/actions"
	"github.com/sandeepkv93/vibe/internal/model"
	"github.com/sandeepkv93/vibe/internal/views"
)

func addEnergy(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:   "energy",
		Short: "Log and review energy levels.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "log <green|yellow|red|0-100>",
		Short: "Record an energy level.",
		Example: `
vibe energy log green
vibe energy log 65
`,
		Args: cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *app, args []string) error {
			level, err := parseLevel(args[0])
			if err != nil {
				return err
			}
			entry, err := a.energy().Log(ctx, level)
			if err != nil {
				return err
			}
			fmt.Printf("logged %d at %s\n", entry.Level, entry.CreatedAt.Local().Format(time.Kitchen))
			return nil
		}),
	})

	var table bool
	history := &cobra.Command{
		Use:     "history",
		Aliases: []string{"chart"},
		Short:   "Show the last 100 energy levels.",
		Args:    cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app, _ []string) error {
			if err := requireSession(ctx, a); err != nil {
				return err
			}
			logs := a.energy().History(ctx)
			if len(logs) == 0 {
				_, _ = color.New(color.Faint, color.Italic).Println(views.EmptyChartText)
				return nil
			}
			if table {
				tbl := uitable.New()
				tbl.Separator = "  "
				tbl.AddRow("WHEN", "LEVEL")
				for _, l := range logs {
					tbl.AddRow(l.CreatedAt.Local().Format("2006-01-02 15:04"), l.Level)
				}
				_, _ = fmt.Fprintln(color.Output, tbl)
				return nil
			}
			levels := make([]int, 0, len(logs))
			for _, l := range logs {
				levels = append(levels, l.Level)
			}
			fmt.Println(views.RenderSparkline(levels, 0))
			_, _ = color.New(color.Faint).Printf("%d entries, daily streak %d\n", len(logs), model.DailyStreak(logs, time.Now(), time.Local))
			return nil
		}),
	}
	history.Flags().BoolVar(&table, "table", false, "print one row per entry")
	cmd.AddCommand(history)

	topLevel.AddCommand(cmd)
}

func (a *app) energy() *actions.EnergyActions {
	return actions.NewEnergyActions(a.repo, a.provider, a.logger)
}

func parseLevel(raw string) (int, error) {
	if e, err := model.ParseEnergy(raw); err == nil {
		return e.Level(), nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, errors.New("level must be green, yellow, red or a number from 0 to 100")
	}
	if err := model.ValidateLevel(n); err != nil {
		return 0, err
	}
	return n, nil
}
