package main

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/example/vocabdeck/internal/bot"
	"github.com/example/vocabdeck/internal/database"
	"github.com/example/vocabdeck/internal/scheduler"
	"github.com/example/vocabdeck/internal/session"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// serveCmd runs the Telegram bot
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the Telegram bot until interrupted",
	Long: `Starts the Telegram bot with one in-memory card list per chat.
Idle lists are dropped by a background sweeper. When archive.driver is set,
the /save, /open, /decks and /drop commands use the deck archive.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	if err := cfg.ValidateServe(); err != nil {
		return err
	}
	idleTTL, err := cfg.IdleTTL()
	if err != nil {
		return err
	}
	interval, err := cfg.SweepInterval()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sessions := session.NewStore(logger)

	botConfig := bot.DefaultConfig()
	botConfig.ListPageSize = cfg.Telegram.ListPageSize
	botConfig.UpdateTimeout = cfg.Telegram.UpdateTimeout
	botConfig.ExportFileName = cfg.Export.FileName

	var opts []bot.Option
	if cfg.Archive.Driver != "" {
		db, err := database.Connect(cfg.Archive.Driver, cfg.Archive.DSN)
		if err != nil {
			return fmt.Errorf("failed to open deck archive: %w", err)
		}
		defer db.Close()
		opts = append(opts, bot.WithArchive(database.NewDeckRepository(db)))
		logger.Info("Deck archive enabled", zap.String("driver", cfg.Archive.Driver))
	}

	api, err := bot.Connect(cfg.Telegram.Token, cfg.Telegram.Debug, logger)
	if err != nil {
		return err
	}
	b := bot.New(api, sessions, botConfig, logger, opts...)
	if err := b.SetupCommands(); err != nil {
		logger.Warn("Failed to register bot commands", zap.Error(err))
	}

	sweeper := scheduler.New(sessions, interval, idleTTL, logger)

	err = supervise(ctx, b, sweeper)
	logger.Info("Shut down", zap.Int("sessions", sessions.Len()))
	return err
}

type updateLoop interface {
	Start(ctx context.Context) error
}

type backgroundJob interface {
	Start() error
	Stop()
}

// supervise runs the bot loop and the background job until ctx is cancelled
// or either of them fails. The job is always stopped before returning.
func supervise(ctx context.Context, loop updateLoop, job backgroundJob) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		defer cancel()
		return loop.Start(gctx)
	})
	g.Go(func() error {
		if err := job.Start(); err != nil {
			return err
		}
		<-gctx.Done()
		job.Stop()
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
