// Command local connects with the configured token, runs one counter pass
// against the real guild and logs the renames instead of applying them.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/bwmarrin/discordgo"
	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"

	"github.com/brensch/counterbot/config"
	"github.com/brensch/counterbot/counters"
	"github.com/brensch/counterbot/discord"
)

// dryRunPlatform reads from Discord but never writes to it.
type dryRunPlatform struct {
	*counters.SessionPlatform
}

func (p dryRunPlatform) RenameChannel(ctx context.Context, channelID, name string) error {
	slog.Info("would rename channel", "channel", channelID, "name", name)
	return nil
}

func (p dryRunPlatform) CreateVoiceChannel(ctx context.Context, guildID, parentID, name string) (*discordgo.Channel, error) {
	slog.Info("would create channel", "parent", parentID, "name", name)
	return &discordgo.Channel{ID: "dry-run", GuildID: guildID, ParentID: parentID, Name: name, Type: discordgo.ChannelTypeGuildVoice}, nil
}

func main() {
	// Configure pretty colored logging with tint.
	handler := tint.NewHandler(colorable.NewColorableStdout(), &tint.Options{
		Level:      slog.LevelDebug,
		TimeFormat: "15:04:05.000",
		AddSource:  true,
	})
	slog.SetDefault(slog.New(handler))
	discord.RouteLogs()

	cfg := config.Get()
	slog.Info("dry run starting", "guild", cfg.Discord.GuildID, "config", cfg.Counters.ConfigPath)

	// The activity is left alone so the running bot's presence is untouched.
	bot, err := discord.NewBot(discord.BotConfig{
		BotToken: cfg.Discord.BotToken,
		GuildID:  cfg.Discord.GuildID,
	})
	if err != nil {
		slog.Error("Failed to create bot", "error", err)
		os.Exit(1)
	}

	platform := dryRunPlatform{counters.NewSessionPlatform(bot.Session(), cfg.Discord.GuildID, cfg.Counters.FetchTimeout)}
	svc := counters.NewService(counters.NewStore(cfg.Counters.ConfigPath), platform)

	done := make(chan error, 1)
	bot.OnGuildReady(func(ctx context.Context, guildID string) {
		done <- svc.Reconcile(ctx)
	})

	if err := bot.Open(); err != nil {
		slog.Error("Failed to open session", "error", err)
		os.Exit(1)
	}
	defer bot.Close()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt)

	select {
	case err := <-done:
		if err != nil {
			slog.Error("dry run failed", "error", err)
			return
		}
		slog.Info("dry run finished")
	case <-stop:
		slog.Info("interrupted")
	}
}
