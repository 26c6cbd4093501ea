package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/BuzzLyutic/task-tracker/internal/config"
	"github.com/BuzzLyutic/task-tracker/internal/model"
	"github.com/BuzzLyutic/task-tracker/internal/ranking"
)

const dueLayout = "2006-01-02 15:04"

func newAddCmd() *cobra.Command {
	var (
		userID      string
		title       string
		description string
		priority    string
		due         string
		in          time.Duration
		timeout     time.Duration
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a task for the user",
		Example: `  tracker add -u alice -t "Pay rent" -p HIGH --due "2026-11-01 09:00"
  tracker add -u alice -t "Stretch" --in 2h`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}

			deadline, err := parseDue(due, in, time.Now())
			if err != nil {
				return err
			}
			fields := model.TaskFields{
				Title:       title,
				Description: description,
				Deadline:    deadline,
				Priority:    model.Priority(strings.ToUpper(priority)),
			}

			return withSession(cmd.Context(), cfg, userID, timeout, func(ctx context.Context, a *app) error {
				task, err := a.service.Create(ctx, fields)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Created %s: %s (%s)\n",
					task.ID, task.Title, ranking.DeadlineLabel(task.Deadline, time.Now()))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "task owner")
	cmd.Flags().StringVarP(&title, "title", "t", "", "task title, up to 100 characters")
	cmd.Flags().StringVarP(&description, "description", "d", "", "optional description")
	cmd.Flags().StringVarP(&priority, "priority", "p", string(model.PriorityMedium), "LOW, MEDIUM or HIGH")
	cmd.Flags().StringVar(&due, "due", "", `deadline as RFC 3339 or "`+dueLayout+`" in local time`)
	cmd.Flags().DurationVar(&in, "in", 24*time.Hour, "deadline relative to now, used when --due is empty")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "how long to wait for the store")
	cmd.MarkFlagRequired("user")
	cmd.MarkFlagRequired("title")
	return cmd
}

func parseDue(due string, in time.Duration, now time.Time) (time.Time, error) {
	if due == "" {
		return now.Add(in), nil
	}
	if t, err := time.Parse(time.RFC3339, due); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(dueLayout, due, now.Location())
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --due %q: want RFC 3339 or %q", due, dueLayout)
	}
	return t, nil
}
