package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
	"github.com/spf13/cobra"

	"github.com/sandeepkv93/vibe/internal/actions"
	"github.com/sandeepkv93/vibe/internal/model"
)

func addTasks(topLevel *cobra.Command) {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task", "t"},
		Short:   "Manage tasks without the full-screen UI.",
		Args:    cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app, _ []string) error {
			return listTasks(ctx, a)
		}),
	}

	cmd.AddCommand(&cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List tasks, pending first.",
		Args:    cobra.NoArgs,
		RunE: withApp(func(ctx context.Context, a *app, _ []string) error {
			return listTasks(ctx, a)
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <title>",
		Short: "Add a task.",
		Example: `
vibe tasks add write the quarterly report
`,
		Args: func(_ *cobra.Command, args []string) error {
			if len(args) < 1 {
				return errors.New("requires a title")
			}
			return nil
		},
		RunE: withApp(func(ctx context.Context, a *app, args []string) error {
			t, err := a.tasks().Add(ctx, strings.Join(args, " "))
			if err != nil {
				return err
			}
			_, _ = color.New(color.FgGreen).Print("added ")
			fmt.Printf("%s %s\n", shortID(t.ID), t.Title)
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "complete <task id>",
		Aliases: []string{"done"},
		Short:   "Mark a pending task completed.",
		Args:    cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *app, args []string) error {
			id, err := resolveTaskID(ctx, a, args[0])
			if err != nil {
				return err
			}
			t, err := a.tasks().Complete(ctx, id)
			if err != nil {
				return err
			}
			_, _ = color.New(color.FgGreen).Print("completed ")
			fmt.Println(t.Title)
			return nil
		}),
	})

	cmd.AddCommand(&cobra.Command{
		Use:     "delete <task id>",
		Aliases: []string{"rm"},
		Short:   "Delete a task.",
		Args:    cobra.ExactArgs(1),
		RunE: withApp(func(ctx context.Context, a *app, args []string) error {
			id, err := resolveTaskID(ctx, a, args[0])
			if err != nil {
				return err
			}
			if err := a.tasks().Delete(ctx, id); err != nil {
				return err
			}
			fmt.Println("deleted", shortID(id))
			return nil
		}),
	})

	topLevel.AddCommand(cmd)
}

func (a *app) tasks() *actions.TaskActions {
	return actions.NewTaskActions(a.repo, a.provider, a.logger)
}

func listTasks(ctx context.Context, a *app) error {
	if err := requireSession(ctx, a); err != nil {
		return err
	}
	tasks := model.FeedOrder(a.tasks().List(ctx))
	if len(tasks) == 0 {
		_, _ = color.New(color.Faint, color.Italic).Println(" no tasks")
		return nil
	}

	tbl := uitable.New()
	tbl.Separator = "  "
	tbl.MaxColWidth = 60
	tbl.AddRow("ID", "STATUS", "ENERGY", "TITLE")
	for _, t := range tasks {
		tbl.AddRow(shortID(t.ID), statusText(t.Status), energyText(t.Energy), t.Title)
	}
	_, _ = fmt.Fprintln(color.Output, tbl)
	return nil
}

// resolveTaskID accepts a full id or a unique prefix of one.
func resolveTaskID(ctx context.Context, a *app, ref string) (string, error) {
	if err := requireSession(ctx, a); err != nil {
		return "", err
	}
	var match string
	for _, t := range a.tasks().List(ctx) {
		if t.ID == ref {
			return t.ID, nil
		}
		if strings.HasPrefix(t.ID, ref) {
			if match != "" {
				return "", fmt.Errorf("task id %q is ambiguous", ref)
			}
			match = t.ID
		}
	}
	if match == "" {
		return "", actions.ErrTaskNotFound
	}
	return match, nil
}

func requireSession(ctx context.Context, a *app) error {
	s, err := a.provider.CurrentSession(ctx)
	if err != nil {
		return err
	}
	if s == nil {
		return errors.New("not signed in; run vibe login")
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func statusText(s model.Status) string {
	switch s {
	case model.StatusPending:
		return color.New(color.FgHiWhite).Sprint("[ ] pending")
	case model.StatusCompleted:
		return color.New(color.FgCyan).Sprint("[x] completed")
	case model.StatusAudited:
		return color.New(color.Faint).Sprint("[x] audited")
	default:
		return string(s)
	}
}

func energyText(e model.Energy) string {
	switch e {
	case model.EnergyGreen:
		return color.New(color.FgGreen).Sprint(e.Label())
	case model.EnergyYellow:
		return color.New(color.FgYellow).Sprint(e.Label())
	case model.EnergyRed:
		return color.New(color.FgRed).Sprint(e.Label())
	default:
		return "-"
	}
}
