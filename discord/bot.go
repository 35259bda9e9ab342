package discord

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// Bot encapsulates the discordgo session, configuration and registered functions.
type Bot struct {
	session   *discordgo.Session
	config    BotConfig
	functions []BotFunctionI

	ctx    context.Context
	cancel context.CancelFunc

	readyOnce sync.Once
	onReady   func(ctx context.Context, guildID string)
}

// BotConfig contains configuration for the bot.
type BotConfig struct {
	// AppID defaults to the bot user's ID when empty.
	AppID    string
	BotToken string
	// GuildID is the guild commands are registered in; empty means the first guild seen.
	GuildID string
	// Activity is shown as "Watching <Activity>"; empty leaves the presence alone.
	Activity string
}

// Intents the counters need: membership and presences for the statistics,
// voice states for the voice count.
const Intents = discordgo.IntentsGuilds |
	discordgo.IntentsGuildMembers |
	discordgo.IntentsGuildPresences |
	discordgo.IntentsGuildVoiceStates

// NewBot creates the session and wires event handlers. Nothing is sent to
// Discord until Open.
func NewBot(cfg BotConfig) (*Bot, error) {
	dg, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		return nil, err
	}

	dg.Identify.Intents = Intents
	dg.State.TrackVoice = true
	dg.State.TrackPresences = true

	ctx, cancel := context.WithCancel(context.Background())
	bot := &Bot{
		session: dg,
		config:  cfg,
		ctx:     ctx,
		cancel:  cancel,
	}

	dg.AddHandler(bot.onReadyEvent)
	dg.AddHandler(bot.onGuildCreate)
	dg.AddHandler(bot.onInteractionCreate)

	return bot, nil
}

// Session exposes the underlying discordgo session.
func (b *Bot) Session() *discordgo.Session {
	return b.session
}

// AddFunctions registers slash command functions. They are pushed to Discord
// when the target guild becomes available.
func (b *Bot) AddFunctions(functions ...BotFunctionI) {
	b.functions = append(b.functions, functions...)
}

// OnGuildReady sets the hook run once, the first time the target guild is
// available on the gateway.
func (b *Bot) OnGuildReady(fn func(ctx context.Context, guildID string)) {
	b.onReady = fn
}

// Open connects the websocket.
func (b *Bot) Open() error {
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("error opening connection: %w", err)
	}
	return nil
}

func (b *Bot) onReadyEvent(s *discordgo.Session, r *discordgo.Ready) {
	slog.Info("connected to gateway", "user", r.User.String(), "guilds", len(r.Guilds))
	if b.config.Activity == "" {
		return
	}
	if err := s.UpdateWatchStatus(0, b.config.Activity); err != nil {
		slog.Error("failed to set activity", "error", err)
	}
}

// onGuildCreate treats the first GUILD_CREATE of the target guild as the
// ready signal: members, presences and voice states are known from here on.
func (b *Bot) onGuildCreate(s *discordgo.Session, g *discordgo.GuildCreate) {
	if b.config.GuildID != "" && g.ID != b.config.GuildID {
		slog.Debug("ignoring guild outside scope", "guild", g.ID)
		return
	}
	b.readyOnce.Do(func() {
		slog.Info("target guild available", "guild", g.ID, "name", g.Name)
		if err := b.registerCommands(g.ID); err != nil {
			slog.Error("failed to register commands", "guild", g.ID, "error", err)
		}
		if b.onReady != nil {
			b.onReady(b.ctx, g.ID)
		}
	})
}

// registerCommands replaces the guild's commands with the registered functions.
// With no functions registered nothing is sent, so tools sharing the token
// leave the bot's commands alone.
func (b *Bot) registerCommands(guildID string) error {
	if len(b.functions) == 0 {
		slog.Debug("no functions to register", "guild", guildID)
		return nil
	}
	appID := b.config.AppID
	if appID == "" && b.session.State.User != nil {
		appID = b.session.State.User.ID
	}

	cmds := make([]*discordgo.ApplicationCommand, 0, len(b.functions))
	for _, fn := range b.functions {
		options, err := structToCommandOptions(fn.GetRequestPrototype())
		if err != nil {
			return fmt.Errorf("generate options for %s: %w", fn.GetName(), err)
		}
		slog.Debug("initialising function", "name", fn.GetName(), "options", len(options), "guild", guildID)
		cmds = append(cmds, &discordgo.ApplicationCommand{
			Name:        fn.GetName(),
			Description: fn.GetDescription(),
			Options:     options,
		})
	}

	created, err := b.session.ApplicationCommandBulkOverwrite(appID, guildID, cmds, discordgo.WithContext(b.ctx))
	if err != nil {
		return err
	}
	slog.Info("commands registered", "guild", guildID, "count", len(created))
	return nil
}

// onInteractionCreate routes slash commands to the matching BotFunction.
func (b *Bot) onInteractionCreate(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}
	cmdData := i.ApplicationCommandData()
	slog.Debug("received interaction", "cmd", cmdData.Name, "guild", i.GuildID)

	r := NewInteractionResponder(s, i.Interaction)
	b.dispatch(b.ctx, r, &cmdData)
}

// dispatch runs the handler and converts any error or panic into the generic
// ephemeral failure message.
func (b *Bot) dispatch(ctx context.Context, r Responder, data *discordgo.ApplicationCommandInteractionData) {
	var fn BotFunctionI
	for _, f := range b.functions {
		if f.GetName() == data.Name {
			fn = f
			break
		}
	}
	if fn == nil {
		slog.Warn("received unknown command", "command", data.Name)
		return
	}

	defer func() {
		if rec := recover(); rec != nil {
			slog.Error("command panicked", "command", fn.GetName(), "panic", rec, "stack", string(debug.Stack()))
			respondError(r, fn.GetName())
		}
	}()

	if err := fn.HandleInteraction(ctx, r, data); err != nil {
		slog.Error("failed to execute command", "command", fn.GetName(), "error", err)
		respondError(r, fn.GetName())
	}
}

func respondError(r Responder, command string) {
	var err error
	if r.Replied() {
		err = r.Edit(GenericErrorMessage)
	} else {
		err = r.Reply(GenericErrorMessage)
	}
	if err != nil {
		slog.Error("failed to report command error", "command", command, "error", err)
	}
}

// Close stops in-flight handlers and closes the Discord session.
func (b *Bot) Close() error {
	slog.Info("shutting down bot")
	b.cancel()
	return b.session.Close()
}
