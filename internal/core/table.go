package core

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/argostroloji/mircbook/internal/proto"
	"github.com/rs/zerolog"
)

// Table owns every channel. Lookup keys are upper-cased so channel names
// are case-insensitive on the wire while display names keep their original
// case. Safe for concurrent use; acquired after the registry lock when both
// are needed.
type Table struct {
	mu       sync.RWMutex
	channels map[string]*Channel

	// globalOps are operator in every channel regardless of membership or
	// per-channel grants.
	globalOps map[string]struct{}

	log *zerolog.Logger
}

// NewTable builds an empty channel table with the given globally privileged
// names.
func NewTable(globalOps []string, logger *zerolog.Logger) *Table {
	ops := make(map[string]struct{}, len(globalOps))
	for _, name := range globalOps {
		ops[name] = struct{}{}
	}
	return &Table{
		channels:  make(map[string]*Channel),
		globalOps: ops,
		log:       logger,
	}
}

func channelKey(name string) string {
	return strings.ToUpper(name)
}

// ValidChannelName reports whether name is a well-formed channel name.
func ValidChannelName(name string) bool {
	return len(name) > 1 && strings.HasPrefix(name, "#") && !strings.ContainsAny(name, " ,")
}

// Create adds a new channel. The operator set is seeded with the global
// privileged names plus the creator. createdBy may be empty for channels
// seeded at startup.
func (t *Table) Create(name, createdBy, topic string) (*Channel, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	key := channelKey(name)
	if _, exists := t.channels[key]; exists {
		return nil, ErrChannelExists
	}

	ch := &Channel{
		Name:      name,
		Topic:     topic,
		CreatedAt: time.Now(),
		CreatedBy: createdBy,
		Members:   make(map[string]struct{}),
		Operators: make(map[string]struct{}),
		Banned:    make(map[string]struct{}),
		Voiced:    make(map[string]struct{}),
		Invited:   make(map[string]struct{}),
		Modes:     Modes{TopicProtected: true},
	}
	for op := range t.globalOps {
		ch.Operators[op] = struct{}{}
	}
	if createdBy != "" {
		ch.Operators[createdBy] = struct{}{}
	}

	t.channels[key] = ch
	t.log.Info().Str("channel", name).Str("created_by", createdBy).Msg("channel created")
	return ch, nil
}

// Exists reports whether a channel with this name is known.
func (t *Table) Exists(name string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	_, ok := t.channels[channelKey(name)]
	return ok
}

// CanJoin checks join eligibility. The check order is deliberate: ban beats
// key, key beats invite-only.
func (t *Table) CanJoin(name, nick, key string) error {
	t.mu.RLock()
	defer t.mu.RUnlock()

	ch, ok := t.channels[channelKey(name)]
	if !ok {
		return newError(ErrCodeNotFound, "no such channel")
	}
	if _, banned := ch.Banned[nick]; banned {
		return newError(ErrCodeDenied, "you are banned")
	}
	if ch.Modes.Key != "" && ch.Modes.Key != key {
		return newError(ErrCodeDenied, "bad channel key")
	}
	if ch.Modes.InviteOnly {
		if _, invited := ch.Invited[nick]; !invited {
			return newError(ErrCodeDenied, "invite only")
		}
	}
	return nil
}

// Join adds nick to the channel members. Joining a channel one is already in
// is a no-op; the returned flag lets the caller suppress the duplicate JOIN
// broadcast.
func (t *Table) Join(name, nick string) (alreadyMember bool, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ch, ok := t.channels[channelKey(name)]
	if !ok {
		return false, ErrNotFound
	}
	if ch.isMember(nick) {
		return true, nil
	}
	ch.Members[nick] = struct{}{}
	t.log.Debug().Str("channel", ch.Name).Str("nick", nick).Msg("joined channel")
	return false, nil
}

// Part removes nick from members and the per-channel operator set. Unknown
// channels and non-members are a no-op.
func (t *Table) Part(name, nick string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ch, ok := t.channels[channelKey(name)]
	if !ok {
		return
	}
	delete(ch.Members, nick)
	delete(ch.Operators, nick)
}

// RemoveFromAll parts nick from every channel and returns the display names
// of the channels it was actually a member of, for quit notifications.
func (t *Table) RemoveFromAll(nick string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	var parted []string
	for _, ch := range t.channels {
		if ch.isMember(nick) {
			parted = append(parted, ch.Name)
		}
		delete(ch.Members, nick)
		delete(ch.Operators, nick)
	}
	return parted
}

// IsOperator reports whether nick has operator authority in the channel:
// globally privileged names always do, otherwise the per-channel set
// decides.
func (t *Table) IsOperator(name, nick string) bool {
	if _, global := t.globalOps[nick]; global {
		return true
	}

	t.mu.RLock()
	defer t.mu.RUnlock()
	ch, ok := t.channels[channelKey(name)]
	if !ok {
		return false
	}
	_, op := ch.Operators[nick]
	return op
}

// GrantOperator adds target to the channel operator set. The grantor must
// already be an operator.
func (t *Table) GrantOperator(name, target, by string) error {
	if !t.IsOperator(name, by) {
		return ErrNotOperator
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	ch, ok := t.channels[channelKey(name)]
	if !ok {
		return ErrNotFound
	}
	ch.Operators[target] = struct{}{}
	return nil
}

// SetMode applies one mode change. mode is the single-letter IRC flag:
// m, i, t (booleans), k (param is the key), b/v/o (param is a nick).
func (t *Table) SetMode(name string, mode byte, enabled bool, param string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	ch, ok := t.channels[channelKey(name)]
	if !ok {
		return ErrNotFound
	}

	switch mode {
	case 'm':
		ch.Modes.Moderated = enabled
	case 'i':
		ch.Modes.InviteOnly = enabled
	case 't':
		ch.Modes.TopicProtected = enabled
	case 'k':
		if enabled {
			ch.Modes.Key = param
		} else {
			ch.Modes.Key = ""
		}
	case 'b':
		toggle(ch.Banned, param, enabled)
	case 'v':
		toggle(ch.Voiced, param, enabled)
	case 'o':
		toggle(ch.Operators, param, enabled)
	default:
		return newError(ErrCodeBadRequest, "unknown mode")
	}
	return nil
}

// SetTopic replaces the channel topic. When the channel is topic-protected
// only operators may change it.
func (t *Table) SetTopic(name, topic, by string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	ch, ok := t.channels[channelKey(name)]
	if !ok {
		return ErrNotFound
	}
	if ch.Modes.TopicProtected && !t.isOperatorLocked(ch, by) {
		return ErrNotOperator
	}
	ch.Topic = topic
	return nil
}

// Kick removes target from members and operators. It does not ban.
func (t *Table) Kick(name, target, by string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	ch, ok := t.channels[channelKey(name)]
	if !ok {
		return ErrNotFound
	}
	if !t.isOperatorLocked(ch, by) {
		return ErrNotOperator
	}
	if !ch.isMember(target) {
		return ErrNotMember
	}
	delete(ch.Members, target)
	delete(ch.Operators, target)
	return nil
}

// Invite marks nick as invited, letting it through +i. Unknown channels are
// a no-op so an invite can precede explicit creation.
func (t *Table) Invite(name, nick string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if ch, ok := t.channels[channelKey(name)]; ok {
		ch.Invited[nick] = struct{}{}
	}
}

// CanSpeak reports whether nick may send to the channel right now, honoring
// moderated mode.
func (t *Table) CanSpeak(name, nick string) error {
	t.mu.RLock()
	ch, ok := t.channels[channelKey(name)]
	if !ok {
		t.mu.RUnlock()
		return newError(ErrCodeNotFound, "no such channel")
	}
	member := ch.isMember(nick)
	moderated := ch.Modes.Moderated
	voiced := ch.isVoiced(nick)
	t.mu.RUnlock()

	if !member {
		return newError(ErrCodeNotMember, "you are not in this channel")
	}
	if moderated && !voiced && !t.IsOperator(name, nick) {
		return newError(ErrCodeDenied, "cannot speak in moderated channel")
	}
	return nil
}

// AppendHistory records a channel message, evicting the oldest entry past
// the 100-message cap. Unknown channels are ignored.
func (t *Table) AppendHistory(name, nick, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if ch, ok := t.channels[channelKey(name)]; ok {
		ch.appendHistory(nick, message)
	}
}

// History returns a copy of the channel's retained messages.
func (t *Table) History(name string) []HistoryEntry {
	t.mu.RLock()
	defer t.mu.RUnlock()

	ch, ok := t.channels[channelKey(name)]
	if !ok {
		return nil
	}
	out := make([]HistoryEntry, len(ch.History))
	copy(out, ch.History)
	return out
}

// Members lists the current channel membership with operator and voice
// status. Unknown channels yield an empty list.
func (t *Table) Members(name string) []proto.Member {
	t.mu.RLock()
	defer t.mu.RUnlock()

	ch, ok := t.channels[channelKey(name)]
	if !ok {
		return nil
	}
	out := make([]proto.Member, 0, len(ch.Members))
	for nick := range ch.Members {
		_, global := t.globalOps[nick]
		_, op := ch.Operators[nick]
		out = append(out, proto.Member{
			Nick:       nick,
			IsOperator: global || op,
			IsVoiced:   ch.isVoiced(nick),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Nick < out[j].Nick })
	return out
}

// MemberNames returns just the nicks of current members, for fan-out.
func (t *Table) MemberNames(name string) []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	ch, ok := t.channels[channelKey(name)]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(ch.Members))
	for nick := range ch.Members {
		out = append(out, nick)
	}
	return out
}

// ListAll summarizes every channel, sorted by name.
func (t *Table) ListAll() []proto.ChannelSummary {
	t.mu.RLock()
	defer t.mu.RUnlock()

	out := make([]proto.ChannelSummary, 0, len(t.channels))
	for _, ch := range t.channels {
		out = append(out, proto.ChannelSummary{
			Name:      ch.Name,
			Topic:     ch.Topic,
			UserCount: len(ch.Members),
			CreatedBy: ch.CreatedBy,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Info returns the bootstrap view of one channel: topic, modes, and member
// list. ok is false for unknown channels.
func (t *Table) Info(name string) (topic string, modes *proto.ChannelModes, ok bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()

	ch, found := t.channels[channelKey(name)]
	if !found {
		return "", nil, false
	}
	return ch.Topic, ch.protoModes(), true
}

// ChannelsOf lists the channels nick is currently a member of.
func (t *Table) ChannelsOf(nick string) []proto.WhoisChannel {
	t.mu.RLock()
	defer t.mu.RUnlock()

	var out []proto.WhoisChannel
	for _, ch := range t.channels {
		if !ch.isMember(nick) {
			continue
		}
		_, global := t.globalOps[nick]
		_, op := ch.Operators[nick]
		out = append(out, proto.WhoisChannel{
			Name:       ch.Name,
			IsOperator: global || op,
			IsCreator:  ch.CreatedBy == nick,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// isOperatorLocked is IsOperator for callers already holding t.mu.
func (t *Table) isOperatorLocked(ch *Channel, nick string) bool {
	if _, global := t.globalOps[nick]; global {
		return true
	}
	_, op := ch.Operators[nick]
	return op
}

func toggle(set map[string]struct{}, name string, add bool) {
	if name == "" {
		return
	}
	if add {
		set[name] = struct{}{}
	} else {
		delete(set, name)
	}
}
