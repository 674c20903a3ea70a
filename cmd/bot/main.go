// Package main contains the entrypoint for the support relay bot.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbot "github.com/go-telegram/bot"
	"github.com/go-telegram/bot/models"

	"support-relay/internal/bot"
	"support-relay/internal/bot/handlers"
	"support-relay/internal/bot/tasks"
	"support-relay/internal/config"
	"support-relay/internal/database"
	"support-relay/internal/health"
	"support-relay/internal/logger"
	"support-relay/internal/relay"
	"support-relay/internal/telegram"

	_ "modernc.org/sqlite"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	exitCode := run(ctx)
	stop()
	os.Exit(exitCode)
}

// run initializes and starts all application components, handles graceful
// shutdown, and returns an exit code (0 for success, 1 for failure).
func run(ctx context.Context) int {
	configPath := flag.String("config", "./config.yaml", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("Failed to load configuration", "path", *configPath, "error", err)
		return 1
	}

	log := logger.New(cfg.Log)
	slog.SetDefault(log)
	log.Info("Logger initialized", "level", cfg.Log.Level, "format", cfg.Log.Format)

	db, err := database.NewDB(cfg.Database.Path)
	if err != nil {
		log.Error("Failed to connect to database", "path", cfg.Database.Path, "error", err)
		return 1
	}
	defer database.CloseDB(db)
	store := database.NewStore(db, log)

	if unfinished, err := store.BroadcastInProgress(ctx); err == nil && unfinished {
		log.Warn("Found broadcast left unfinished by a previous run; its outcome records are partial")
	}

	// The default handler needs dependencies that in turn need the bot
	// instance, so it closes over hDeps and the fields are filled in below
	// before the listener starts.
	hDeps := handlers.HandlerDeps{
		Logger:  log,
		Config:  cfg,
		Store:   store,
		Pending: handlers.NewPendingBroadcasts(),
	}

	botOpts := []tgbot.Option{
		tgbot.WithMiddlewares(logger.Middleware(log)),
		tgbot.WithDefaultHandler(func(ctx context.Context, b *tgbot.Bot, update *models.Update) {
			handlers.NewRelayHandler(hDeps)(ctx, b, update)
		}),
	}
	tg, err := telegram.NewTelegramBot(cfg.Telegram.Token, log, botOpts...)
	if err != nil {
		log.Error("Failed to create Telegram bot", "error", err)
		return 1
	}

	me, err := tg.GetMe(ctx)
	if err != nil {
		log.Error("Failed to get bot info", "error", err)
		return 1
	}
	log.Info("Retrieved bot info", "bot_id", me.ID, "bot_username", me.Username)

	transport := telegram.NewTransport(tg, cfg.Telegram.SendTimeout, log)

	var destinations []int64
	if cfg.Telegram.ForwardMode == config.ForwardModeSingleGroup {
		destinations = []int64{cfg.Telegram.AdminGroupID}
	} else {
		destinations = cfg.Telegram.OperatorIDs
	}

	gate := relay.NewGate(store, log)
	broadcaster := relay.NewBroadcaster(store, transport, cfg.Broadcast.MaxInFlight, log)
	stats := relay.NewStatsService(store, broadcaster, log)

	hDeps.Gate = gate
	hDeps.Inbound = relay.NewInboundRouter(store, transport, gate, destinations, log)
	hDeps.Reply = relay.NewReplyRouter(store, transport, cfg.Messages.ReplyPrefix, log)
	hDeps.Broadcaster = broadcaster
	hDeps.Stats = stats
	hDeps.Transport = transport

	if err := telegram.RegisterHandlers(ctx, tg, log, handlers.RegisterAllCommands(hDeps)); err != nil {
		log.Error("Failed to register Telegram handlers", "error", err)
		return 1
	}

	tDeps := tasks.TaskDeps{
		Logger: log,
		Store:  store,
		Config: cfg,
	}
	sched, err := bot.NewScheduler(log, &cfg.Scheduler, tasks.RegisterAllTasks(tDeps))
	if err != nil {
		log.Error("Failed to create scheduler", "error", err)
		return 1
	}

	healthServer := health.NewServer(cfg.Health.ListenAddr, store, stats, log)
	app := bot.NewBot(log, cfg, db, store, tg, sched, healthServer)

	log.Info("Starting bot", "forward_mode", cfg.Telegram.ForwardMode, "operators", len(cfg.Telegram.OperatorIDs))
	runErr := app.Run(ctx)

	if runErr != nil && !errors.Is(runErr, context.Canceled) {
		log.Error("Bot stopped due to error", "error", runErr)
		time.Sleep(time.Second)
		return 1
	}

	log.Info("Bot stopped gracefully")
	time.Sleep(time.Second)
	return 0
}
