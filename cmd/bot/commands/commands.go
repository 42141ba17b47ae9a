package commands

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/focusplan/bot/internal/adapters/storage"
	"github.com/focusplan/bot/internal/adapters/telegram"
	"github.com/focusplan/bot/internal/application/services"
	"github.com/focusplan/bot/internal/infrastructure/config"
	"github.com/focusplan/bot/internal/infrastructure/logger"
	"github.com/focusplan/bot/internal/infrastructure/metrics"
	"github.com/focusplan/bot/internal/infrastructure/scheduler"
	"github.com/focusplan/bot/internal/infrastructure/server"
)

// NewServeCommand creates the serve command
func NewServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the FocusPlan bot",
		Long:  "Run the bot: the Telegram update loop, the daily schedule, and the liveness endpoint",
		Run: func(cmd *cobra.Command, args []string) {
			runBot()
		},
	}
}

// NewRolloverCommand creates the manual rollover command. The daily
// sweep is not idempotent, so this exists for operators recovering from
// a missed scheduler fire; running it twice on one day duplicates the
// carried tasks.
func NewRolloverCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "rollover",
		Short: "Carry yesterday's unfinished tasks forward once, then exit",
		Run: func(cmd *cobra.Command, args []string) {
			runRollover()
		},
	}
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print FocusPlan bot version",
		Run: func(cmd *cobra.Command, args []string) {
			cfg, err := config.Load()
			if err != nil {
				log.Fatalf("Failed to load configuration: %v", err)
			}
			fmt.Printf("%s %s\n", cfg.App.Name, cfg.App.Version)
		},
	}
}

func runBot() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Bot.Token == "" {
		log.Fatal("BOT_TOKEN is required")
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Close()

	m := metrics.New()

	store := storage.NewFileStore(cfg.Storage.DataFile, appLogger.WithComponent("storage"))
	ledger := services.NewLedgerService(store, appLogger.WithComponent("ledger"))
	aggregator := services.NewStatsService(store, appLogger.WithComponent("stats"))
	rollover := services.NewRolloverService(ledger, appLogger.WithComponent("rollover"), m)

	bot, err := telegram.New(cfg.Bot, ledger, aggregator, appLogger.WithComponent("telegram"), m)
	if err != nil {
		appLogger.Fatalw("Failed to initialize Telegram bot", "error", err.Error())
	}

	notifier := services.NewNotifierService(store, bot, cfg.Notifier, appLogger.WithComponent("notifier"), m)

	sched := scheduler.New(appLogger.WithComponent("scheduler"))
	err = sched.RegisterDaily(cfg.Scheduler,
		func(ctx context.Context) error { return rollover.RolloverAll(ctx, time.Now()) },
		notifier.Broadcast,
		cfg.Notifier,
	)
	if err != nil {
		appLogger.Fatalw("Failed to register scheduled jobs", "error", err.Error())
	}

	srv := server.New(&cfg.Server, appLogger.WithComponent("server"), m, cfg.Metrics.Enabled)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := srv.Start(); err != nil {
			appLogger.Fatalw("Liveness server failed", "error", err.Error())
		}
	}()

	sched.Start()

	botDone := make(chan struct{})
	go func() {
		bot.Run(ctx)
		close(botDone)
	}()

	appLogger.Infow("FocusPlan bot started",
		"environment", cfg.App.Environment,
		"addr", cfg.Server.Addr(),
		"data_file", cfg.Storage.DataFile,
	)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	appLogger.Infow("Shutting down")

	sched.Stop()
	cancel()
	<-botDone

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLogger.Warnw("Liveness server forced to shut down", "error", err.Error())
	}

	appLogger.Infow("Shutdown complete")
}

func runRollover() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Logger)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLogger.Close()

	m := metrics.New()
	store := storage.NewFileStore(cfg.Storage.DataFile, appLogger.WithComponent("storage"))
	ledger := services.NewLedgerService(store, appLogger.WithComponent("ledger"))
	rollover := services.NewRolloverService(ledger, appLogger.WithComponent("rollover"), m)

	if err := rollover.RolloverAll(context.Background(), time.Now()); err != nil {
		appLogger.Fatalw("Rollover failed", "error", err.Error())
	}
}
