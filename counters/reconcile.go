package counters

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/brensch/counterbot/telemetry"
	"github.com/bwmarrin/discordgo"
)

// Reconcile renames every mapped display channel to show current statistics.
// Only a missing guild or a failed member fetch fails the pass; a missing or
// unrenamable channel is logged and skipped.
func (s *Service) Reconcile(ctx context.Context) error {
	if err := s.pass.Acquire(ctx, 1); err != nil {
		return err
	}
	defer s.pass.Release(1)

	start := time.Now()
	err := s.reconcile(ctx)
	telemetry.ObservePass(time.Since(start), err)
	return err
}

func (s *Service) reconcile(ctx context.Context) error {
	slog.Debug("counter update starting")
	cfg := s.store.Load()

	guildID, err := s.platform.ResolveGuild(ctx)
	if err != nil {
		slog.Error("cannot update counters without a guild", "error", err)
		return err
	}

	snap, err := s.platform.FetchSnapshot(ctx, guildID)
	if err != nil {
		slog.Error("failed to fetch members", "guild", guildID, "error", err)
		return fmt.Errorf("fetch snapshot: %w", err)
	}
	stats := ComputeStats(snap)
	telemetry.SetStats(stats.All, stats.Online, stats.Voice)
	slog.Info("stats computed", "guild", guildID, "all", stats.All, "online", stats.Online, "voice", stats.Voice)

	if len(cfg.Counters) == 0 {
		slog.Info("no counter channels configured, run /setup first", "guild", guildID)
		return nil
	}

	channels, err := s.platform.GuildChannels(ctx, guildID)
	if err != nil {
		slog.Error("failed to fetch channels", "guild", guildID, "error", err)
		return fmt.Errorf("fetch channels: %w", err)
	}
	byID := make(map[string]*discordgo.Channel, len(channels))
	for _, ch := range channels {
		byID[ch.ID] = ch
	}

	for _, kind := range Kinds {
		id, ok := cfg.Counters[kind]
		if !ok {
			continue
		}
		ch, ok := byID[id]
		if !ok {
			slog.Warn("counter channel missing", "kind", kind, "channel", id)
			continue
		}
		name := kind.Render(kind.Value(stats))
		if ch.Name == name {
			slog.Debug("counter channel already up to date", "kind", kind, "channel", id, "name", name)
			continue
		}
		slog.Info("renaming counter channel", "kind", kind, "channel", id, "name", name)
		if err := s.platform.RenameChannel(ctx, id, name); err != nil {
			telemetry.RenameFailed(string(kind))
			slog.Error("failed to rename counter channel", "kind", kind, "channel", id, "error", err)
		}
	}

	slog.Debug("counter update finished", "guild", guildID)
	return nil
}

// DetectExistingChannels back-fills missing kinds from voice channels in the
// configured category whose names carry a kind's prefix. The first match in
// platform order wins. It does nothing without a category or when the mapping
// is already complete.
func (s *Service) DetectExistingChannels(ctx context.Context) error {
	if err := s.pass.Acquire(ctx, 1); err != nil {
		return err
	}
	defer s.pass.Release(1)

	cfg := s.store.Load()
	if cfg.CategoryID == "" || cfg.Complete() {
		return nil
	}

	guildID, err := s.platform.ResolveGuild(ctx)
	if err != nil {
		return err
	}
	channels, err := s.platform.GuildChannels(ctx, guildID)
	if err != nil {
		return fmt.Errorf("fetch channels: %w", err)
	}

	next := cfg.Clone()
	found := 0
	for _, kind := range Kinds {
		if next.Counters[kind] != "" {
			continue
		}
		for _, ch := range channels {
			if ch.ParentID != cfg.CategoryID || ch.Type != discordgo.ChannelTypeGuildVoice {
				continue
			}
			if kind.Matches(ch.Name) {
				next.Counters[kind] = ch.ID
				found++
				slog.Info("recovered counter channel", "kind", kind, "channel", ch.ID, "name", ch.Name)
				break
			}
		}
	}

	if found == 0 {
		slog.Info("no existing counter channels found", "category", cfg.CategoryID)
		return nil
	}
	return s.store.Save(next)
}
