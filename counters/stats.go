package counters

import "github.com/bwmarrin/discordgo"

// MemberState is what the collector needs to know about one guild member.
type MemberState struct {
	UserID string
	// Status is empty when the platform sent no presence for the member.
	Status discordgo.Status
	// VoiceChannelID is empty when the member is not connected to voice.
	VoiceChannelID string
}

// Snapshot is a freshly fetched view of a guild's membership.
type Snapshot struct {
	GuildID string
	Members []MemberState
}

// Stats are the three values rendered into the display channels.
type Stats struct {
	All    int
	Online int
	Voice  int
}

// ComputeStats derives the counter values from a snapshot.
func ComputeStats(snap Snapshot) Stats {
	st := Stats{All: len(snap.Members)}
	for _, m := range snap.Members {
		if isActive(m.Status) {
			st.Online++
		}
		if m.VoiceChannelID != "" {
			st.Voice++
		}
	}
	return st
}

func isActive(s discordgo.Status) bool {
	switch s {
	case discordgo.StatusOnline, discordgo.StatusIdle, discordgo.StatusDoNotDisturb:
		return true
	}
	return false
}
