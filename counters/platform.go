package counters

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"
	"github.com/google/uuid"
)

// ErrGuildNotFound is returned when the target guild is not known to the session.
var ErrGuildNotFound = errors.New("guild not found")

// Platform is the slice of the chat platform the counters need.
type Platform interface {
	// ResolveGuild returns the ID of the guild the counters belong to.
	ResolveGuild(ctx context.Context) (string, error)
	// FetchSnapshot fetches membership, presences and voice states fresh from the platform.
	FetchSnapshot(ctx context.Context, guildID string) (Snapshot, error)
	GuildChannels(ctx context.Context, guildID string) ([]*discordgo.Channel, error)
	Channel(ctx context.Context, channelID string) (*discordgo.Channel, error)
	// CreateVoiceChannel creates a voice channel under parentID that @everyone cannot join.
	CreateVoiceChannel(ctx context.Context, guildID, parentID, name string) (*discordgo.Channel, error)
	RenameChannel(ctx context.Context, channelID, name string) error
}

// SessionPlatform implements Platform on a discordgo session.
type SessionPlatform struct {
	session      *discordgo.Session
	guildID      string
	fetchTimeout time.Duration
}

// NewSessionPlatform targets guildID, or the first guild the session knows
// about when guildID is empty.
func NewSessionPlatform(s *discordgo.Session, guildID string, fetchTimeout time.Duration) *SessionPlatform {
	if fetchTimeout <= 0 {
		fetchTimeout = 30 * time.Second
	}
	return &SessionPlatform{session: s, guildID: guildID, fetchTimeout: fetchTimeout}
}

func (p *SessionPlatform) ResolveGuild(ctx context.Context) (string, error) {
	state := p.session.State
	if p.guildID != "" {
		if _, err := state.Guild(p.guildID); err != nil {
			return "", fmt.Errorf("%w: %s", ErrGuildNotFound, p.guildID)
		}
		return p.guildID, nil
	}

	state.RLock()
	defer state.RUnlock()
	if len(state.Guilds) == 0 {
		return "", ErrGuildNotFound
	}
	return state.Guilds[0].ID, nil
}

// FetchSnapshot asks the gateway for every member with presences and waits
// for all chunks. Voice states come from the session state, which the gateway
// keeps current through VOICE_STATE_UPDATE events.
func (p *SessionPlatform) FetchSnapshot(ctx context.Context, guildID string) (Snapshot, error) {
	ctx, cancel := context.WithTimeout(ctx, p.fetchTimeout)
	defer cancel()

	nonce := uuid.NewString()
	done := make(chan struct{})

	var (
		mu        sync.Mutex
		members   = make(map[string]*discordgo.Member)
		presences = make(map[string]discordgo.Status)
		received  int
	)
	remove := p.session.AddHandler(func(_ *discordgo.Session, c *discordgo.GuildMembersChunk) {
		if c.Nonce != nonce {
			return
		}
		mu.Lock()
		defer mu.Unlock()
		for _, m := range c.Members {
			if m.User != nil {
				members[m.User.ID] = m
			}
		}
		for _, pr := range c.Presences {
			if pr.User != nil {
				presences[pr.User.ID] = pr.Status
			}
		}
		received++
		if received == c.ChunkCount {
			close(done)
		}
	})
	defer remove()

	if err := p.session.RequestGuildMembers(guildID, "", 0, nonce, true); err != nil {
		return Snapshot{}, fmt.Errorf("failed to request guild members: %w", err)
	}

	select {
	case <-done:
	case <-ctx.Done():
		return Snapshot{}, fmt.Errorf("waiting for member chunks: %w", ctx.Err())
	}

	voice := make(map[string]string)
	if g, err := p.session.State.Guild(guildID); err == nil {
		p.session.State.RLock()
		for _, vs := range g.VoiceStates {
			if vs.ChannelID != "" {
				voice[vs.UserID] = vs.ChannelID
			}
		}
		p.session.State.RUnlock()
	} else {
		slog.Warn("guild missing from state, voice count will be zero", "guild", guildID, "error", err)
	}

	mu.Lock()
	defer mu.Unlock()
	snap := Snapshot{GuildID: guildID, Members: make([]MemberState, 0, len(members))}
	for id := range members {
		snap.Members = append(snap.Members, MemberState{
			UserID:         id,
			Status:         presences[id],
			VoiceChannelID: voice[id],
		})
	}
	return snap, nil
}

func (p *SessionPlatform) GuildChannels(ctx context.Context, guildID string) ([]*discordgo.Channel, error) {
	return p.session.GuildChannels(guildID, discordgo.WithContext(ctx))
}

func (p *SessionPlatform) Channel(ctx context.Context, channelID string) (*discordgo.Channel, error) {
	return p.session.Channel(channelID, discordgo.WithContext(ctx))
}

func (p *SessionPlatform) CreateVoiceChannel(ctx context.Context, guildID, parentID, name string) (*discordgo.Channel, error) {
	return p.session.GuildChannelCreateComplex(guildID, discordgo.GuildChannelCreateData{
		Name:     name,
		Type:     discordgo.ChannelTypeGuildVoice,
		ParentID: parentID,
		PermissionOverwrites: []*discordgo.PermissionOverwrite{
			{
				// The @everyone role shares the guild's ID.
				ID:   guildID,
				Type: discordgo.PermissionOverwriteTypeRole,
				Deny: discordgo.PermissionVoiceConnect,
			},
		},
	}, discordgo.WithContext(ctx))
}

func (p *SessionPlatform) RenameChannel(ctx context.Context, channelID, name string) error {
	_, err := p.session.ChannelEdit(channelID, &discordgo.ChannelEdit{Name: name}, discordgo.WithContext(ctx))
	return err
}
