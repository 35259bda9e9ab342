// Package counters keeps three voice channels named after live guild
// statistics: total members, members online and members in voice.
package counters

import (
	"fmt"
	"strings"
)

// Kind identifies one of the three tracked statistics.
type Kind string

const (
	KindAll    Kind = "all"
	KindOnline Kind = "online"
	KindVoice  Kind = "voice"
)

// Kinds lists every counter kind in the order channels are created and renamed.
var Kinds = []Kind{KindAll, KindOnline, KindVoice}

var prefixes = map[Kind]string{
	KindAll:    "🍂ゝMembres",
	KindOnline: "🍡ゝEn ligne",
	KindVoice:  "👒ゝEn vocal",
}

// Valid reports whether k is one of the three known kinds.
func (k Kind) Valid() bool {
	_, ok := prefixes[k]
	return ok
}

// Prefix is the fixed part of the channel name, shared by every rendering.
func (k Kind) Prefix() string {
	return prefixes[k]
}

// Render returns the channel name displaying n.
func (k Kind) Render(n int) string {
	return fmt.Sprintf("%s : %d", k.Prefix(), n)
}

// Matches reports whether a channel name looks like it was rendered for k.
func (k Kind) Matches(name string) bool {
	p := k.Prefix()
	return p != "" && strings.HasPrefix(name, p)
}

// Value picks the statistic displayed by k.
func (k Kind) Value(s Stats) int {
	switch k {
	case KindAll:
		return s.All
	case KindOnline:
		return s.Online
	case KindVoice:
		return s.Voice
	}
	return 0
}
