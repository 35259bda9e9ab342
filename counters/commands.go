package counters

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/brensch/counterbot/discord"
)

const (
	msgSetupDone      = "✅ Salons créés avec succès."
	msgInvalidTarget  = "❌ Catégorie invalide."
	msgUpdateStarted  = "🔄 Mise à jour en cours..."
	msgUpdateFinished = "✅ Compteurs mis à jour !"
)

// SetupRequest is the /setup option set.
type SetupRequest struct {
	Category string `mapstructure:"category" discord:"description:Catégorie cible,type:channel,channel_types:category"`
}

// UpdateRequest is the empty /update option set.
type UpdateRequest struct{}

func (s *Service) handleSetup(ctx context.Context, r discord.Responder, req SetupRequest) error {
	if err := r.Defer(); err != nil {
		return err
	}
	err := s.Setup(ctx, req.Category)
	if errors.Is(err, ErrNotCategory) {
		return r.Edit(msgInvalidTarget)
	}
	if err != nil {
		return err
	}
	return r.Edit(msgSetupDone)
}

func (s *Service) handleUpdate(ctx context.Context, r discord.Responder, _ UpdateRequest) error {
	if err := r.Reply(msgUpdateStarted); err != nil {
		return err
	}
	// A failed pass is logged; the user still sees the completion message.
	if err := s.Update(ctx); err != nil {
		slog.Warn("manual counter update did not complete", "error", err)
	}
	return r.Edit(msgUpdateFinished)
}

// DiscordFunctions returns the /setup and /update commands.
func (s *Service) DiscordFunctions() []discord.BotFunctionI {
	return []discord.BotFunctionI{
		discord.NewBotFunction("setup", "Créer les salons de stats", s.handleSetup),
		discord.NewBotFunction("update", "Force la mise à jour des stats", s.handleUpdate),
	}
}

// DiscordScheduleRefresh returns the repeating refresh run every interval.
func (s *Service) DiscordScheduleRefresh(interval time.Duration) discord.BotScheduleI {
	return discord.NewBotSchedule("counters_refresh", interval, s.Tick)
}
