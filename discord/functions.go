package discord

import (
	"context"

	"github.com/bwmarrin/discordgo"
	"github.com/mitchellh/mapstructure"
)

// Request is a blank interface for the command request definitions.
type Request interface{}

// BotFunctionI is the common interface for all bot command functions.
type BotFunctionI interface {
	GetName() string
	GetDescription() string
	GetRequestPrototype() Request
	// HandleInteraction decodes interaction data into a request struct and calls
	// the handler, which answers through r.
	HandleInteraction(ctx context.Context, r Responder, data *discordgo.ApplicationCommandInteractionData) error
}

// GenericBotFunction is a generic implementation of BotFunctionI.
type GenericBotFunction[T Request] struct {
	// Name is the command name.
	Name string
	// Description is shown in the Discord command picker.
	Description string
	// RequestPrototype is an instance of the request type (typically the zero value)
	// used for reflection to generate command options.
	RequestPrototype T
	// Handler is the function to execute for the command.
	Handler func(ctx context.Context, r Responder, req T) error
}

// GetName returns the command's name.
func (bf *GenericBotFunction[T]) GetName() string {
	return bf.Name
}

// GetDescription returns the command's description.
func (bf *GenericBotFunction[T]) GetDescription() string {
	if bf.Description == "" {
		return "Auto-generated command for " + bf.Name
	}
	return bf.Description
}

// GetRequestPrototype returns the command's request prototype.
func (bf *GenericBotFunction[T]) GetRequestPrototype() Request {
	return bf.RequestPrototype
}

// HandleInteraction decodes the options with mapstructure and invokes the handler.
func (bf *GenericBotFunction[T]) HandleInteraction(ctx context.Context, r Responder, data *discordgo.ApplicationCommandInteractionData) error {
	req, err := decodeRequest[T](data.Options)
	if err != nil {
		return err
	}
	return bf.Handler(ctx, r, req)
}

func decodeRequest[T Request](opts []*discordgo.ApplicationCommandInteractionDataOption) (T, error) {
	var req T

	optsMap := make(map[string]interface{}, len(opts))
	for _, opt := range opts {
		optsMap[opt.Name] = opt.Value
	}

	decoderConfig := mapstructure.DecoderConfig{
		Result:           &req,
		WeaklyTypedInput: true, // helps convert numbers and booleans automatically.
	}
	decoder, err := mapstructure.NewDecoder(&decoderConfig)
	if err != nil {
		return req, err
	}
	if err := decoder.Decode(optsMap); err != nil {
		return req, err
	}
	return req, nil
}

// NewBotFunction creates a command whose options are generated from T.
//
// Option names come from the field's `mapstructure` tag (lowercased field name
// otherwise). The `discord` tag customizes the option:
//
//   - optional:       the option is not required.
//   - description:    replaces the auto-generated description.
//   - type:channel    makes a channel picker for a string field.
//   - channel_types:  restricts a channel picker, e.g. "category" or "voice|text".
func NewBotFunction[T Request](name, description string, handler func(ctx context.Context, r Responder, req T) error) BotFunctionI {
	var reqPrototype T
	return &GenericBotFunction[T]{
		Name:             name,
		Description:      description,
		RequestPrototype: reqPrototype,
		Handler:          handler,
	}
}
