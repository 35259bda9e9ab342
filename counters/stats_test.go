package counters

import (
	"testing"

	"github.com/bwmarrin/discordgo"
)

func TestComputeStats(t *testing.T) {
	tests := []struct {
		name string
		snap Snapshot
		want Stats
	}{
		{
			name: "empty guild",
			snap: Snapshot{},
			want: Stats{},
		},
		{
			name: "fifty members",
			snap: snapshotOf(50, 20, 5),
			want: Stats{All: 50, Online: 20, Voice: 5},
		},
		{
			name: "presence filter",
			snap: Snapshot{Members: []MemberState{
				{UserID: "a", Status: discordgo.StatusOnline},
				{UserID: "b", Status: discordgo.StatusIdle},
				{UserID: "c", Status: discordgo.StatusDoNotDisturb},
				{UserID: "d", Status: discordgo.StatusOffline},
				{UserID: "e", Status: discordgo.StatusInvisible},
				{UserID: "f"},
			}},
			want: Stats{All: 6, Online: 3},
		},
		{
			name: "voice counts offline members too",
			snap: Snapshot{Members: []MemberState{
				{UserID: "a", VoiceChannelID: "1"},
				{UserID: "b", Status: discordgo.StatusOnline, VoiceChannelID: "2"},
				{UserID: "c", Status: discordgo.StatusOnline},
			}},
			want: Stats{All: 3, Online: 2, Voice: 2},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ComputeStats(tt.snap)
			if got != tt.want {
				t.Errorf("ComputeStats() = %+v, want %+v", got, tt.want)
			}
			if again := ComputeStats(tt.snap); again != got {
				t.Errorf("second call = %+v, first = %+v", again, got)
			}
		})
	}
}

func TestKindRendering(t *testing.T) {
	stats := Stats{All: 50, Online: 20, Voice: 5}
	want := map[Kind]string{
		KindAll:    "🍂ゝMembres : 50",
		KindOnline: "🍡ゝEn ligne : 20",
		KindVoice:  "👒ゝEn vocal : 5",
	}
	for kind, name := range want {
		if got := kind.Render(kind.Value(stats)); got != name {
			t.Errorf("%s rendered %q, want %q", kind, got, name)
		}
		if !kind.Matches(name) {
			t.Errorf("%s does not match its own rendering %q", kind, name)
		}
		if !kind.Matches(kind.Render(0)) {
			t.Errorf("%s does not match its zero rendering", kind)
		}
	}
	if KindAll.Matches(KindOnline.Render(3)) {
		t.Error("all matched the online channel")
	}
	if Kind("bogus").Valid() || Kind("bogus").Matches("anything") {
		t.Error("unknown kind treated as valid")
	}
}
