package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/brensch/counterbot/config"
	"github.com/brensch/counterbot/counters"
	"github.com/brensch/counterbot/discord"
	"github.com/brensch/counterbot/health"
	"github.com/brensch/counterbot/log"
	"github.com/brensch/counterbot/telemetry"
)

func main() {
	// Load configuration
	cfg := config.Get()

	opts := log.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: log.ParseLevel(cfg.Log.Level),
		},
	}
	var handler slog.Handler = log.NewPrettyHandler(os.Stdout, opts)
	if cfg.Log.UTC {
		handler = log.NewUTCPrettyHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
	discord.RouteLogs()
	telemetry.Init()

	slog.Info("Discord Bot Starting", "guild", cfg.Discord.GuildID, "interval", cfg.Counters.Interval)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	bot, err := discord.NewBot(discord.BotConfig{
		AppID:    cfg.Discord.AppID,
		BotToken: cfg.Discord.BotToken,
		GuildID:  cfg.Discord.GuildID,
		Activity: cfg.Discord.Activity,
	})
	if err != nil {
		slog.Error("Failed to create bot", "error", err)
		os.Exit(1)
	}

	store := counters.NewStore(cfg.Counters.ConfigPath)
	platform := counters.NewSessionPlatform(bot.Session(), cfg.Discord.GuildID, cfg.Counters.FetchTimeout)
	svc := counters.NewService(store, platform)

	sched := discord.NewScheduler()
	svc.SetTimer(sched.Handle(svc.DiscordScheduleRefresh(cfg.Counters.Interval)))
	sched.Start()

	bot.AddFunctions(svc.DiscordFunctions()...)
	bot.OnGuildReady(func(ctx context.Context, guildID string) {
		svc.Start(ctx)
	})

	srv := health.NewServer(cfg.HTTP.Port, cfg.HTTP.Metrics)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(srv.Start)
	g.Go(bot.Open)
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("Shutting down...")

		sched.Stop()
		if err := bot.Close(); err != nil {
			slog.Error("Error closing bot", "error", err)
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		slog.Error("Bot stopped with error", "error", err)
		os.Exit(1)
	}
}
