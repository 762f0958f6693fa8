package core

import (
	"time"

	"github.com/argostroloji/mircbook/internal/proto"
)

// historyLimit caps the per-channel message ring.
const historyLimit = 100

// Modes are the per-channel access-control flags.
type Modes struct {
	Moderated      bool   // +m: only operators and voiced members may speak
	InviteOnly     bool   // +i: joining requires an invite
	Key            string // +k: joining requires this key ("" = no key)
	TopicProtected bool   // +t: only operators may change the topic
}

// HistoryEntry is one retained channel message.
type HistoryEntry struct {
	Nick      string
	Message   string
	Timestamp time.Time
}

// Channel is all state for one named channel. Channels are owned by the
// Table and must only be touched under its lock; membership sets may
// contain names that are no longer connected (bans, invites, voices).
type Channel struct {
	Name      string // display name, case preserved
	Topic     string
	CreatedAt time.Time
	CreatedBy string

	Members   map[string]struct{}
	Operators map[string]struct{}
	Banned    map[string]struct{}
	Voiced    map[string]struct{}
	Invited   map[string]struct{}

	Modes   Modes
	History []HistoryEntry
}

func (ch *Channel) isMember(nick string) bool {
	_, ok := ch.Members[nick]
	return ok
}

func (ch *Channel) isVoiced(nick string) bool {
	_, ok := ch.Voiced[nick]
	return ok
}

func (ch *Channel) appendHistory(nick, message string) {
	ch.History = append(ch.History, HistoryEntry{
		Nick:      nick,
		Message:   message,
		Timestamp: time.Now(),
	})
	if len(ch.History) > historyLimit {
		ch.History = ch.History[len(ch.History)-historyLimit:]
	}
}

// protoModes converts channel modes to their wire representation. The key
// itself never leaves the server, only whether one is set.
func (ch *Channel) protoModes() *proto.ChannelModes {
	return &proto.ChannelModes{
		Moderated:      ch.Modes.Moderated,
		InviteOnly:     ch.Modes.InviteOnly,
		Key:            ch.Modes.Key != "",
		TopicProtected: ch.Modes.TopicProtected,
	}
}
