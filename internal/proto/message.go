// Package proto defines the wire frames exchanged with connected agents.
// Clients send {"command": ..., "params": {...}}; the server answers with
// flat objects discriminated by a "type" field.
package proto

import "encoding/json"

// Inbound is the envelope for frames coming from a client.
type Inbound struct {
	Command string          `json:"command"`
	Params  json.RawMessage `json:"params"`
}

// Inbound command names. Matching is case-insensitive on the wire.
const (
	CmdRegister      = "REGISTER"
	CmdJoin          = "JOIN"
	CmdPart          = "PART"
	CmdPrivmsg       = "PRIVMSG"
	CmdNotice        = "NOTICE"
	CmdAway          = "AWAY"
	CmdKick          = "KICK"
	CmdMode          = "MODE"
	CmdTopic         = "TOPIC"
	CmdList          = "LIST"
	CmdNames         = "NAMES"
	CmdWhois         = "WHOIS"
	CmdInvite        = "INVITE"
	CmdCreateChannel = "CREATE_CHANNEL"
	CmdFindInterest  = "FIND_BY_INTEREST"
	CmdPong          = "PONG"
)

// Metadata is the free-form descriptive block a client may attach to
// REGISTER. Password is only consulted for the reserved privileged name.
type Metadata struct {
	Description string `json:"description,omitempty"`
	Personality string `json:"personality,omitempty"`
	Password    string `json:"password,omitempty"`
}

// RegisterParams introduces a new identity.
type RegisterParams struct {
	Name     string   `json:"name"`
	Metadata Metadata `json:"metadata"`
}

// JoinParams requests membership in a channel, with an optional key
// for +k channels.
type JoinParams struct {
	Channel string `json:"channel"`
	Key     string `json:"key,omitempty"`
}

// PartParams leaves a channel.
type PartParams struct {
	Channel string `json:"channel"`
}

// MessageParams carries PRIVMSG and NOTICE payloads. Target is either a
// #channel or an identity name.
type MessageParams struct {
	Target  string `json:"target"`
	Message string `json:"message"`
}

// AwayParams sets an away message; an empty message clears away status.
type AwayParams struct {
	Message string `json:"message,omitempty"`
}

// KickParams ejects a member from a channel.
type KickParams struct {
	Channel string `json:"channel"`
	Nick    string `json:"nick"`
	Reason  string `json:"reason,omitempty"`
}

// ModeParams changes a channel mode, e.g. {"mode": "+m"} or
// {"mode": "+b", "nick": "Spammy"} or {"mode": "+k", "key": "s3cret"}.
type ModeParams struct {
	Channel string `json:"channel"`
	Mode    string `json:"mode"`
	Nick    string `json:"nick,omitempty"`
	Key     string `json:"key,omitempty"`
}

// TopicParams replaces a channel topic.
type TopicParams struct {
	Channel string `json:"channel"`
	Topic   string `json:"topic"`
}

// NamesParams asks for the member list of a channel.
type NamesParams struct {
	Channel string `json:"channel"`
}

// WhoisParams asks for details about an identity.
type WhoisParams struct {
	Nick string `json:"nick"`
}

// InviteParams invites an identity into a channel.
type InviteParams struct {
	Channel string `json:"channel"`
	Nick    string `json:"nick"`
}

// CreateChannelParams explicitly creates a channel.
type CreateChannelParams struct {
	Channel string `json:"channel"`
	Topic   string `json:"topic,omitempty"`
}

// FindInterestParams searches registered identities by profile keyword.
type FindInterestParams struct {
	Topic string `json:"topic"`
}

// Outbound event types.
const (
	EventWelcome        = "WELCOME"
	EventChannelInfo    = "CHANNEL_INFO"
	EventChannelList    = "CHANNEL_LIST"
	EventNames          = "NAMES"
	EventJoin           = "JOIN"
	EventPart           = "PART"
	EventQuit           = "QUIT"
	EventPrivmsg        = "PRIVMSG"
	EventNotice         = "NOTICE"
	EventTopic          = "TOPIC"
	EventMode           = "MODE"
	EventNewChannel     = "NEW_CHANNEL_CREATED"
	EventChannelCreated = "CHANNEL_CREATED"
	EventKicked         = "KICKED"
	EventKick           = "KICK"
	EventInvite         = "INVITE"
	EventInviteSent     = "INVITE_SENT"
	EventWhois          = "WHOIS_RESULT"
	EventBotMatches     = "BOT_MATCHES"
	EventAwaySet        = "AWAY_SET"
	EventAwayCleared    = "AWAY_CLEARED"
	EventError          = "ERROR"
	EventPing           = "PING"
)

// Outbound is a server-to-client frame. Type is always set; the remaining
// fields are populated per event type and elided from the JSON otherwise.
type Outbound struct {
	Type      string `json:"type"`
	Channel   string `json:"channel,omitempty"`
	Nick      string `json:"nick,omitempty"`
	From      string `json:"from,omitempty"`
	By        string `json:"by,omitempty"`
	Target    string `json:"target,omitempty"`
	Message   string `json:"message,omitempty"`
	Topic     string `json:"topic,omitempty"`
	Mode      string `json:"mode,omitempty"`
	Reason    string `json:"reason,omitempty"`
	Code      string `json:"code,omitempty"`
	IsDM      bool   `json:"isDM,omitempty"`
	Timestamp int64  `json:"timestamp,omitempty"`

	// Registration / channel bootstrap payloads.
	Channels   []ChannelSummary `json:"channels,omitempty"`
	Bots       []string         `json:"bots,omitempty"`
	Users      []Member         `json:"users,omitempty"`
	Modes      *ChannelModes    `json:"modes,omitempty"`
	IsOperator bool             `json:"isOperator,omitempty"`

	// WHOIS / FIND_BY_INTEREST payloads.
	Whois   *WhoisInfo     `json:"whois,omitempty"`
	Matches []AgentSummary `json:"matches,omitempty"`
}

// ChannelSummary is one row of CHANNEL_LIST and the WELCOME channel set.
type ChannelSummary struct {
	Name      string `json:"name"`
	Topic     string `json:"topic"`
	UserCount int    `json:"userCount"`
	CreatedBy string `json:"createdBy"`
}

// Member is one entry of a channel member listing.
type Member struct {
	Nick       string `json:"nick"`
	IsOperator bool   `json:"isOperator"`
	IsVoiced   bool   `json:"isVoiced"`
}

// ChannelModes mirrors the channel mode flags on the wire.
type ChannelModes struct {
	Moderated      bool `json:"moderated"`
	InviteOnly     bool `json:"inviteOnly"`
	Key            bool `json:"keyRequired"`
	TopicProtected bool `json:"topicProtected"`
}

// WhoisChannel describes one channel membership in a WHOIS_RESULT.
type WhoisChannel struct {
	Name       string `json:"name"`
	IsOperator bool   `json:"isOperator"`
	IsCreator  bool   `json:"isCreator"`
}

// WhoisInfo is the payload of a WHOIS_RESULT.
type WhoisInfo struct {
	Nick        string         `json:"nick"`
	Channels    []WhoisChannel `json:"channels"`
	Abilities   []string       `json:"abilities,omitempty"`
	Interests   []string       `json:"interests,omitempty"`
	CanManage   []string       `json:"canManage,omitempty"`
	Description string         `json:"description,omitempty"`
	Personality string         `json:"personality,omitempty"`
	ConnectedAt int64          `json:"connectedAt"`
	Away        string         `json:"away,omitempty"`
}

// AgentSummary is one row of a BOT_MATCHES result or the /api/agents listing.
type AgentSummary struct {
	Nick        string   `json:"nick"`
	Description string   `json:"description,omitempty"`
	Abilities   []string `json:"abilities,omitempty"`
	Interests   []string `json:"interests,omitempty"`
	ConnectedAt int64    `json:"connectedAt"`
}
