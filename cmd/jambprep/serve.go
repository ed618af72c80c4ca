package main

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/jambprep/jamb-mastery/internal/delivery/httpapi"
	"github.com/jambprep/jamb-mastery/internal/delivery/telegram"
	"github.com/jambprep/jamb-mastery/internal/service"
	"github.com/jambprep/jamb-mastery/internal/storage"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and the due digest job",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		a, err := newApp(ctx, cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		server, err := httpapi.New(a.cfg.HTTP, a.mastery, a.logger)
		if err != nil {
			return err
		}

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			return server.Run(gctx)
		})

		if reminders := a.reminderService(); reminders != nil {
			g.Go(func() error {
				return reminders.Start(gctx)
			})
		}

		return g.Wait()
	},
}

// reminderService builds the due digest job, or returns nil when it is off or
// no bot token is configured.
func (a *app) reminderService() *service.ReminderService {
	if !a.cfg.Reminders.Enabled {
		return nil
	}

	bot, err := a.newBotAPI()
	if err != nil {
		a.logger.Warn("due digests disabled", zap.Error(err))
		return nil
	}

	reminders := service.NewReminderService(
		a.repos.students,
		a.mastery,
		service.ReminderOptions{
			Cron:          a.cfg.Reminders.Cron,
			MaxConcurrent: a.cfg.Reminders.MaxConcurrent,
		},
		a.logger,
	)
	reminders.SetNotifier(telegram.NewNotifier(bot, storage.NewReminderStorage(), a.logger))
	return reminders
}
