package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/BuzzLyutic/task-tracker/internal/config"
	"github.com/BuzzLyutic/task-tracker/internal/model"
)

func newListCmd() *cobra.Command {
	var (
		userID  string
		focus   string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Print the user's tasks ranked by urgency",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			mode := model.FocusMode(strings.ToUpper(focus))

			return withSession(cmd.Context(), cfg, userID, timeout, func(ctx context.Context, a *app) error {
				if err := a.service.SetFocusMode(mode); err != nil {
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), renderView(a.service.View()))
				return nil
			})
		},
	}

	cmd.Flags().StringVarP(&userID, "user", "u", "", "user whose tasks to show")
	cmd.Flags().StringVarP(&focus, "focus", "f", string(model.FocusAll), "focus mode: ALL, TODAY or HIGH_PRIORITY")
	cmd.Flags().DurationVar(&timeout, "timeout", 10*time.Second, "how long to wait for the first snapshot")
	cmd.MarkFlagRequired("user")
	return cmd
}

// withSession поднимает приложение, открывает сессию и ждет первый снимок
func withSession(ctx context.Context, cfg config.Config, userID string, timeout time.Duration, fn func(context.Context, *app) error) error {
	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer logger.Sync()

	a, err := newApp(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := a.service.StartSession(ctx, userID); err != nil {
		return err
	}
	if err := a.service.Wait(ctx); err != nil {
		return fmt.Errorf("syncing tasks for %s: %w", userID, err)
	}
	return fn(ctx, a)
}
