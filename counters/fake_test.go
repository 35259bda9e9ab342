package counters

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/bwmarrin/discordgo"
)

const testGuild = "guild-1"

// fakePlatform is an in-memory guild.
type fakePlatform struct {
	mu sync.Mutex

	guildMissing bool
	snapshot     Snapshot
	channels     []*discordgo.Channel
	renameErr    map[string]error
	createErr    error

	renames   map[string]string
	created   []*discordgo.Channel
	nextID    int
	snapshots int
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		renameErr: map[string]error{},
		renames:   map[string]string{},
	}
}

func (f *fakePlatform) addChannel(id, name string, typ discordgo.ChannelType, parent string) {
	f.channels = append(f.channels, &discordgo.Channel{ID: id, GuildID: testGuild, Name: name, Type: typ, ParentID: parent})
}

func (f *fakePlatform) ResolveGuild(ctx context.Context) (string, error) {
	if f.guildMissing {
		return "", ErrGuildNotFound
	}
	return testGuild, nil
}

func (f *fakePlatform) FetchSnapshot(ctx context.Context, guildID string) (Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots++
	return f.snapshot, nil
}

func (f *fakePlatform) GuildChannels(ctx context.Context, guildID string) ([]*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*discordgo.Channel, len(f.channels))
	copy(out, f.channels)
	return out, nil
}

func (f *fakePlatform) Channel(ctx context.Context, channelID string) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ch := range f.channels {
		if ch.ID == channelID {
			return ch, nil
		}
	}
	return nil, errors.New("HTTP 404 Not Found")
}

func (f *fakePlatform) CreateVoiceChannel(ctx context.Context, guildID, parentID, name string) (*discordgo.Channel, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.nextID++
	ch := &discordgo.Channel{
		ID:       fmt.Sprintf("new-%d", f.nextID),
		GuildID:  guildID,
		Name:     name,
		Type:     discordgo.ChannelTypeGuildVoice,
		ParentID: parentID,
	}
	f.channels = append(f.channels, ch)
	f.created = append(f.created, ch)
	return ch, nil
}

func (f *fakePlatform) RenameChannel(ctx context.Context, channelID, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.renameErr[channelID]; err != nil {
		return err
	}
	f.renames[channelID] = name
	for _, ch := range f.channels {
		if ch.ID == channelID {
			ch.Name = name
		}
	}
	return nil
}

type countingTimer struct {
	mu       sync.Mutex
	restarts int
}

func (t *countingTimer) Restart() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.restarts++
	return nil
}

func (t *countingTimer) count() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.restarts
}

func newTestService(t *testing.T, p Platform) (*Service, *countingTimer) {
	t.Helper()
	store := NewStore(filepath.Join(t.TempDir(), "config.json"))
	svc := NewService(store, p)
	timer := &countingTimer{}
	svc.SetTimer(timer)
	return svc, timer
}

// snapshotOf builds a snapshot with total members, online of them active and
// voice of them in a voice channel.
func snapshotOf(total, online, voice int) Snapshot {
	snap := Snapshot{GuildID: testGuild}
	statuses := []discordgo.Status{discordgo.StatusOnline, discordgo.StatusIdle, discordgo.StatusDoNotDisturb}
	for i := 0; i < total; i++ {
		m := MemberState{UserID: fmt.Sprintf("u%d", i)}
		if i < online {
			m.Status = statuses[i%len(statuses)]
		} else if i%2 == 0 {
			m.Status = discordgo.StatusOffline
		}
		if i < voice {
			m.VoiceChannelID = "vc"
		}
		snap.Members = append(snap.Members, m)
	}
	return snap
}
