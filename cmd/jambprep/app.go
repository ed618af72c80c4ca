package main

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/jambprep/jamb-mastery/internal/config"
	"github.com/jambprep/jamb-mastery/internal/delivery/telegram"
	"github.com/jambprep/jamb-mastery/internal/infra/postgres"
	"github.com/jambprep/jamb-mastery/internal/infra/postgres/repository"
	"github.com/jambprep/jamb-mastery/internal/infra/sqlite"
	"github.com/jambprep/jamb-mastery/internal/logger"
	"github.com/jambprep/jamb-mastery/internal/service"
)

// app holds what every command needs: config, logger, stores and services.
type app struct {
	cfg    *config.Config
	logger *zap.Logger
	repos  repositories

	mastery  *service.MasteryService
	students *service.StudentService

	closeStore func()
}

type repositories struct {
	mastery   service.MasteryRepository
	questions service.QuestionRepository
	reviews   service.ReviewLogRepository
	students  service.StudentRepository
}

func newApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	dir, _ := cmd.Flags().GetString("config")

	cfg, err := config.Load(dir)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	repos, closeStore, err := openStore(ctx, cfg.DB, log)
	if err != nil {
		_ = log.Sync()
		return nil, err
	}

	mastery := service.NewMasteryService(
		repos.mastery,
		repos.questions,
		repos.reviews,
		service.MasteryOptions{
			DefaultExpectedSeconds: cfg.Scheduler.DefaultExpectedSeconds,
			DueLimit:               cfg.Scheduler.DueLimit,
			MaxDueLimit:            cfg.Scheduler.MaxDueLimit,
			UnseenLast:             cfg.Scheduler.UnseenLast,
		},
		log,
	)

	return &app{
		cfg:        cfg,
		logger:     log,
		repos:      repos,
		mastery:    mastery,
		students:   service.NewStudentService(repos.students, repos.questions, log),
		closeStore: closeStore,
	}, nil
}

func (a *app) Close() {
	a.closeStore()
	_ = a.logger.Sync()
}

// openStore connects to the configured database. Postgres migrations are applied on connect.
func openStore(ctx context.Context, cfg config.DB, log *zap.Logger) (repositories, func(), error) {
	switch cfg.Driver {
	case config.DriverSQLite:
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return repositories{}, nil, err
		}
		log.Info("using sqlite store", zap.String("path", cfg.SQLitePath))

		return repositories{
			mastery:   sqlite.NewMasteryRepository(db),
			questions: sqlite.NewQuestionRepository(db),
			reviews:   sqlite.NewReviewLogRepository(db),
			students:  sqlite.NewStudentRepository(db),
		}, func() { _ = db.Close() }, nil

	case config.DriverPostgres:
		dsn, err := cfg.DSN()
		if err != nil {
			return repositories{}, nil, err
		}

		pool, err := postgres.NewPool(ctx, dsn, postgres.PoolConfig{
			MaxConns:        int32(cfg.MaxConnections),
			MaxConnLifetime: cfg.MaxConnLifetime,
		})
		if err != nil {
			return repositories{}, nil, fmt.Errorf("connect postgres: %w", err)
		}

		if _, err := postgres.Migrate(ctx, pool, log); err != nil {
			pool.Close()
			return repositories{}, nil, err
		}
		log.Info("using postgres store")

		return repositories{
			mastery:   repository.NewMasteryRepository(pool),
			questions: repository.NewQuestionRepository(pool),
			reviews:   repository.NewReviewLogRepository(pool),
			students:  repository.NewStudentRepository(pool),
		}, pool.Close, nil

	default:
		return repositories{}, nil, fmt.Errorf("%w: %q", config.ErrUnknownDriver, cfg.Driver)
	}
}

// newBotAPI authorizes the bot and publishes its command menu.
func (a *app) newBotAPI() (*tgbotapi.BotAPI, error) {
	if err := a.cfg.RequireTelegram(); err != nil {
		return nil, err
	}

	bot, err := tgbotapi.NewBotAPI(a.cfg.Telegram.Token)
	if err != nil {
		return nil, fmt.Errorf("authorize bot: %w", err)
	}
	bot.Debug = a.cfg.Telegram.Debug

	if _, err := bot.Request(tgbotapi.NewSetMyCommands(telegram.Commands()...)); err != nil {
		a.logger.Warn("failed to set bot commands", zap.Error(err))
	}

	a.logger.Info("authorized on telegram", zap.String("username", bot.Self.UserName))
	return bot, nil
}
