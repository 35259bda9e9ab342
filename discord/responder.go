package discord

import (
	"sync"

	"github.com/bwmarrin/discordgo"
)

// GenericErrorMessage is shown when a command fails unexpectedly.
const GenericErrorMessage = "⚠️ Erreur lors de l’exécution."

// Responder answers one interaction. Every response is ephemeral.
type Responder interface {
	// Reply sends the initial response.
	Reply(content string) error
	// Defer acknowledges now; the content comes later through Edit.
	Defer() error
	// Edit replaces the content of the initial or deferred response.
	Edit(content string) error
	// Replied reports whether Reply or Defer already succeeded.
	Replied() bool
}

type interactionResponder struct {
	session     *discordgo.Session
	interaction *discordgo.Interaction

	mu      sync.Mutex
	replied bool
}

// NewInteractionResponder answers i through s.
func NewInteractionResponder(s *discordgo.Session, i *discordgo.Interaction) Responder {
	return &interactionResponder{session: s, interaction: i}
}

func (r *interactionResponder) Reply(content string) error {
	return r.respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Content: content,
			Flags:   discordgo.MessageFlagsEphemeral,
		},
	})
}

func (r *interactionResponder) Defer() error {
	return r.respond(&discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
		Data: &discordgo.InteractionResponseData{
			Flags: discordgo.MessageFlagsEphemeral,
		},
	})
}

func (r *interactionResponder) respond(resp *discordgo.InteractionResponse) error {
	if err := r.session.InteractionRespond(r.interaction, resp); err != nil {
		return err
	}
	r.mu.Lock()
	r.replied = true
	r.mu.Unlock()
	return nil
}

func (r *interactionResponder) Edit(content string) error {
	_, err := r.session.InteractionResponseEdit(r.interaction, &discordgo.WebhookEdit{
		Content: &content,
	})
	return err
}

func (r *interactionResponder) Replied() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.replied
}
