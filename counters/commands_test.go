package counters

import (
	"context"
	"testing"

	"github.com/bwmarrin/discordgo"
)

type recordingResponder struct {
	replies  []string
	edits    []string
	deferred bool
}

func (r *recordingResponder) Reply(content string) error {
	r.replies = append(r.replies, content)
	return nil
}

func (r *recordingResponder) Defer() error {
	r.deferred = true
	return nil
}

func (r *recordingResponder) Edit(content string) error {
	r.edits = append(r.edits, content)
	return nil
}

func (r *recordingResponder) Replied() bool {
	return r.deferred || len(r.replies) > 0
}

func commandData(name string, opts ...*discordgo.ApplicationCommandInteractionDataOption) *discordgo.ApplicationCommandInteractionData {
	return &discordgo.ApplicationCommandInteractionData{Name: name, Options: opts}
}

func findFunction(t *testing.T, svc *Service, name string) func(context.Context, *recordingResponder, *discordgo.ApplicationCommandInteractionData) error {
	t.Helper()
	for _, fn := range svc.DiscordFunctions() {
		if fn.GetName() == name {
			return func(ctx context.Context, r *recordingResponder, data *discordgo.ApplicationCommandInteractionData) error {
				return fn.HandleInteraction(ctx, r, data)
			}
		}
	}
	t.Fatalf("no %s command", name)
	return nil
}

func TestSetupCommand(t *testing.T) {
	p := newFakePlatform()
	p.addChannel("cat", "Stats", discordgo.ChannelTypeGuildCategory, "")
	p.addChannel("text", "general", discordgo.ChannelTypeGuildText, "")
	svc, _ := newTestService(t, p)
	setup := findFunction(t, svc, "setup")

	r := &recordingResponder{}
	err := setup(context.Background(), r, commandData("setup", &discordgo.ApplicationCommandInteractionDataOption{
		Name:  "category",
		Type:  discordgo.ApplicationCommandOptionChannel,
		Value: "cat",
	}))
	if err != nil {
		t.Fatalf("setup error = %v", err)
	}
	if !r.deferred || len(r.edits) != 1 || r.edits[0] != msgSetupDone {
		t.Errorf("responses = %+v", r)
	}

	r = &recordingResponder{}
	err = setup(context.Background(), r, commandData("setup", &discordgo.ApplicationCommandInteractionDataOption{
		Name:  "category",
		Type:  discordgo.ApplicationCommandOptionChannel,
		Value: "text",
	}))
	if err != nil {
		t.Fatalf("setup error = %v", err)
	}
	if len(r.edits) != 1 || r.edits[0] != msgInvalidTarget {
		t.Errorf("responses = %+v", r)
	}
}

func TestUpdateCommand(t *testing.T) {
	p := newFakePlatform()
	p.snapshot = snapshotOf(2, 1, 0)
	svc, timer := newTestService(t, p)
	update := findFunction(t, svc, "update")

	r := &recordingResponder{}
	if err := update(context.Background(), r, commandData("update")); err != nil {
		t.Fatalf("update error = %v", err)
	}
	if len(r.replies) != 1 || r.replies[0] != msgUpdateStarted {
		t.Errorf("replies = %v", r.replies)
	}
	if len(r.edits) != 1 || r.edits[0] != msgUpdateFinished {
		t.Errorf("edits = %v", r.edits)
	}
	if timer.count() != 1 {
		t.Errorf("timer restarted %d times, want 1", timer.count())
	}

	p.guildMissing = true
	r = &recordingResponder{}
	if err := update(context.Background(), r, commandData("update")); err != nil {
		t.Errorf("update without guild returned %v", err)
	}
	if len(r.edits) != 1 || r.edits[0] != msgUpdateFinished {
		t.Errorf("edits = %v, want the completion message", r.edits)
	}
	if timer.count() != 2 {
		t.Errorf("timer restarted %d times, want 2", timer.count())
	}
}
