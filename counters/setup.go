package counters

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
)

// ErrNotCategory rejects a setup target that is not a category of the guild.
var ErrNotCategory = errors.New("target is not a category")

// Setup creates three fresh display channels under categoryID, replaces the
// whole mapping with them, then refreshes the counters and rearms the timer.
// Channels from a previous setup are left untouched.
func (s *Service) Setup(ctx context.Context, categoryID string) error {
	if err := s.setup(ctx, categoryID); err != nil {
		return err
	}
	if err := s.Reconcile(ctx); err != nil {
		slog.Error("counter update after setup failed", "error", err)
	}
	s.restartTimer()
	return nil
}

func (s *Service) setup(ctx context.Context, categoryID string) error {
	if err := s.pass.Acquire(ctx, 1); err != nil {
		return err
	}
	defer s.pass.Release(1)

	guildID, err := s.platform.ResolveGuild(ctx)
	if err != nil {
		return err
	}

	if categoryID == "" {
		return ErrNotCategory
	}
	category, err := s.platform.Channel(ctx, categoryID)
	if err != nil {
		slog.Warn("setup target lookup failed", "channel", categoryID, "error", err)
		return fmt.Errorf("%w: %v", ErrNotCategory, err)
	}
	if category.Type != discordgo.ChannelTypeGuildCategory || category.GuildID != guildID {
		return ErrNotCategory
	}

	cfg := Config{CategoryID: category.ID, Counters: make(map[Kind]string, len(Kinds))}
	for _, kind := range Kinds {
		ch, err := s.platform.CreateVoiceChannel(ctx, guildID, category.ID, kind.Render(0))
		if err != nil {
			return fmt.Errorf("create %s channel: %w", kind, err)
		}
		cfg.Counters[kind] = ch.ID
		slog.Info("counter channel created", "kind", kind, "channel", ch.ID)
	}

	return s.store.Save(cfg)
}
