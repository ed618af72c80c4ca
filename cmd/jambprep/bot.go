package main

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/jambprep/jamb-mastery/internal/delivery/telegram"
	"github.com/jambprep/jamb-mastery/internal/storage"
)

var botCmd = &cobra.Command{
	Use:   "bot",
	Short: "Run the Telegram review bot",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		bot, err := a.newBotAPI()
		if err != nil {
			return err
		}

		handler := telegram.NewHandler(
			bot,
			a.logger,
			a.students,
			a.mastery,
			storage.NewReviewSessionStorage(),
			a.cfg.Telegram.ReviewSize,
		)

		err = handler.Run(ctx)
		if errors.Is(err, context.Canceled) {
			a.logger.Info("shutdown signal received")
			return nil
		}
		return err
	},
}
