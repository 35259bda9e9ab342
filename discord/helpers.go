package discord

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/bwmarrin/discordgo"
)

// discordTag holds the keys of a `discord:"optional,description:...,type:channel"`
// struct tag. Bare keys map to "true".
type discordTag map[string]string

func parseDiscordTag(tag string) discordTag {
	out := discordTag{}
	for _, part := range strings.Split(tag, ",") {
		key, value, found := strings.Cut(strings.TrimSpace(part), ":")
		key = strings.TrimSpace(key)
		if key == "" {
			continue
		}
		if !found {
			out[key] = "true"
			continue
		}
		out[key] = strings.TrimSpace(value)
	}
	return out
}

var channelTypeNames = map[string]discordgo.ChannelType{
	"text":     discordgo.ChannelTypeGuildText,
	"voice":    discordgo.ChannelTypeGuildVoice,
	"category": discordgo.ChannelTypeGuildCategory,
	"news":     discordgo.ChannelTypeGuildNews,
	"stage":    discordgo.ChannelTypeGuildStageVoice,
	"forum":    discordgo.ChannelTypeGuildForum,
}

// parseChannelTypes parses "category" or "voice|text" into channel types.
func parseChannelTypes(s string) ([]discordgo.ChannelType, error) {
	var types []discordgo.ChannelType
	for _, name := range strings.Split(s, "|") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		ct, ok := channelTypeNames[name]
		if !ok {
			return nil, fmt.Errorf("unknown channel type %q", name)
		}
		types = append(types, ct)
	}
	return types, nil
}

// optionName is the field's mapstructure name, which is also the key the
// decoder reads the option value from.
func optionName(field reflect.StructField) string {
	if tag := field.Tag.Get("mapstructure"); tag != "" {
		if name := strings.SplitN(tag, ",", 2)[0]; name != "" {
			return name
		}
	}
	return strings.ToLower(field.Name)
}

// structToCommandOptions generates one command option per exported field of
// the request struct, shaped by the field's "discord" tag.
func structToCommandOptions(req Request) ([]*discordgo.ApplicationCommandOption, error) {
	t := reflect.TypeOf(req)
	if t == nil {
		return nil, fmt.Errorf("request is nil")
	}
	// If req is a pointer, get the underlying value and type.
	if t.Kind() == reflect.Ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("request is not a struct")
	}

	var options []*discordgo.ApplicationCommandOption
	for i := 0; i < t.NumField(); i++ {
		field := t.Field(i)
		if !field.IsExported() {
			continue
		}
		name := optionName(field)
		var optionType discordgo.ApplicationCommandOptionType

		// Map common Go types to Discord option types.
		switch field.Type.Kind() {
		case reflect.String:
			optionType = discordgo.ApplicationCommandOptionString
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
			optionType = discordgo.ApplicationCommandOptionInteger
		case reflect.Float32, reflect.Float64:
			optionType = discordgo.ApplicationCommandOptionNumber
		case reflect.Bool:
			optionType = discordgo.ApplicationCommandOptionBoolean
		default:
			optionType = discordgo.ApplicationCommandOptionString
		}

		required := true
		description := "Auto-generated option for " + name
		var channelTypes []discordgo.ChannelType

		if tagValue := field.Tag.Get("discord"); tagValue != "" {
			tags := parseDiscordTag(tagValue)
			if _, ok := tags["optional"]; ok {
				required = false
			}
			if desc, ok := tags["description"]; ok && desc != "" {
				description = desc
			}
			if tags["type"] == "channel" {
				if field.Type.Kind() != reflect.String {
					return nil, fmt.Errorf("channel option %s must be a string field", name)
				}
				optionType = discordgo.ApplicationCommandOptionChannel
			}
			if ct, ok := tags["channel_types"]; ok && ct != "" {
				var err error
				channelTypes, err = parseChannelTypes(ct)
				if err != nil {
					return nil, fmt.Errorf("option %s: %w", name, err)
				}
			}
		}

		options = append(options, &discordgo.ApplicationCommandOption{
			Type:         optionType,
			Name:         name,
			Description:  description,
			Required:     required,
			ChannelTypes: channelTypes,
		})
	}

	return options, nil
}
