package discord

import (
	"fmt"
	"log/slog"

	"github.com/bwmarrin/discordgo"
)

// RouteLogs sends discordgo's internal log lines to slog.
func RouteLogs() {
	discordgo.Logger = func(msgL, caller int, format string, a ...interface{}) {
		msg := fmt.Sprintf(format, a...)
		switch msgL {
		case discordgo.LogError:
			slog.Error("discordgo: " + msg)
		case discordgo.LogWarning:
			slog.Warn("discordgo: " + msg)
		case discordgo.LogInformational:
			slog.Info("discordgo: " + msg)
		default:
			slog.Debug("discordgo: " + msg)
		}
	}
}
