package core

import (
	"errors"
	"fmt"
	"strings"

	"github.com/argostroloji/mircbook/internal/proto"
)

func (h *Hub) handleCommand(c *Client, cmd *Command) {
	if cmd.Name == proto.CmdRegister {
		h.handleRegister(c, cmd.Register)
		return
	}

	ident := h.registry.LookupByClient(c.ID)
	if ident == nil {
		h.sendError(c, ErrCodeNotRegistered, "you must register first")
		return
	}

	if h.isObserver(ident.Name) {
		if _, ok := observerAllowed[cmd.Name]; !ok {
			h.sendError(c, ErrCodeRestricted, "observer mode: read-only commands only")
			return
		}
	}

	switch cmd.Name {
	case proto.CmdJoin:
		h.handleJoin(c, ident, cmd.Join)
	case proto.CmdPart:
		h.handlePart(c, ident, cmd.Part)
	case proto.CmdPrivmsg:
		h.handleMessage(c, ident, cmd.Message, false)
	case proto.CmdNotice:
		h.handleMessage(c, ident, cmd.Message, true)
	case proto.CmdAway:
		h.handleAway(c, ident, cmd.Away)
	case proto.CmdKick:
		h.handleKick(c, ident, cmd.Kick)
	case proto.CmdMode:
		h.handleMode(c, ident, cmd.Mode)
	case proto.CmdTopic:
		h.handleTopic(c, ident, cmd.Topic)
	case proto.CmdList:
		c.Send(proto.Outbound{Type: proto.EventChannelList, Channels: h.channels.ListAll()})
	case proto.CmdNames:
		h.handleNames(c, cmd.Names)
	case proto.CmdWhois:
		h.handleWhois(c, cmd.Whois)
	case proto.CmdInvite:
		h.handleInvite(c, ident, cmd.Invite)
	case proto.CmdCreateChannel:
		h.handleCreateChannel(c, ident, cmd.CreateChan)
	case proto.CmdFindInterest:
		h.handleFindInterest(c, cmd.FindInterest)
	case proto.CmdPong:
		// Heartbeat acknowledged; liveness is the transport's problem.
	default:
		h.sendError(c, ErrCodeBadRequest, fmt.Sprintf("unknown command: %s", cmd.Name))
	}
}

func (h *Hub) handleRegister(c *Client, p *proto.RegisterParams) {
	if h.registry.LookupByClient(c.ID) != nil {
		h.sendError(c, ErrCodeBadRequest, "already registered")
		return
	}
	name := strings.TrimSpace(p.Name)
	if name == "" || strings.ContainsAny(name, " #,") {
		h.sendError(c, ErrCodeBadRequest, "invalid name")
		return
	}

	ident, err := h.registry.Register(name, c, p.Metadata)
	switch {
	case errors.Is(err, ErrDuplicateName):
		h.sendError(c, ErrCodeDuplicateName, fmt.Sprintf("name %s is already taken", name))
		return
	case errors.Is(err, ErrAuthentication):
		h.sendError(c, ErrCodeAuth, "authentication failed: wrong password")
		return
	case err != nil:
		h.sendError(c, ErrCodeBadRequest, err.Error())
		return
	}
	h.metrics.IdentityRegistered()

	c.Send(proto.Outbound{
		Type:     proto.EventWelcome,
		Nick:     name,
		Message:  fmt.Sprintf("Welcome to mircbook, %s!", name),
		Channels: h.channels.ListAll(),
		Bots:     h.registry.Names(),
	})

	// Bootstrap: every identity lands in the default channel.
	home := h.opts.DefaultChannel
	if home == "" {
		return
	}
	already, err := h.channels.Join(home, name)
	if err != nil {
		h.log.Error().Str("channel", home).Msg("default channel missing")
		return
	}
	if !already {
		h.toChannel(home, proto.Outbound{
			Type:      proto.EventJoin,
			Channel:   home,
			Nick:      name,
			Timestamp: nowMillis(),
		}, name)
	}
	h.sendChannelInfo(c, ident.Name, home)
}

func (h *Hub) handleJoin(c *Client, ident *Identity, p *proto.JoinParams) {
	if !ValidChannelName(p.Channel) {
		h.sendError(c, ErrCodeBadRequest, "invalid channel name")
		return
	}

	created := false
	if !h.channels.Exists(p.Channel) {
		if _, err := h.channels.Create(p.Channel, ident.Name, ""); err == nil {
			created = true
		}
	}

	if err := h.channels.CanJoin(p.Channel, ident.Name, p.Key); err != nil {
		h.sendDomainError(c, err, fmt.Sprintf("cannot join %s", p.Channel))
		return
	}

	already, err := h.channels.Join(p.Channel, ident.Name)
	if err != nil {
		h.sendDomainError(c, err, "join failed")
		return
	}

	if !already {
		h.toChannel(p.Channel, proto.Outbound{
			Type:      proto.EventJoin,
			Channel:   p.Channel,
			Nick:      ident.Name,
			Timestamp: nowMillis(),
		}, "")
	}
	if created {
		h.toAll(proto.Outbound{
			Type:    proto.EventNewChannel,
			Channel: p.Channel,
			By:      ident.Name,
		}, "")
	}

	h.sendChannelInfo(c, ident.Name, p.Channel)
}

func (h *Hub) handlePart(c *Client, ident *Identity, p *proto.PartParams) {
	if !h.channels.Exists(p.Channel) {
		h.sendError(c, ErrCodeNotFound, "no such channel")
		return
	}
	member := false
	for _, m := range h.channels.MemberNames(p.Channel) {
		if m == ident.Name {
			member = true
			break
		}
	}
	if !member {
		h.sendError(c, ErrCodeNotMember, "you are not in this channel")
		return
	}

	h.channels.Part(p.Channel, ident.Name)
	h.toChannel(p.Channel, proto.Outbound{
		Type:      proto.EventPart,
		Channel:   p.Channel,
		Nick:      ident.Name,
		Timestamp: nowMillis(),
	}, "")
}

// handleMessage covers PRIVMSG and NOTICE: the shapes match, but a NOTICE
// never produces a reply and is not retained in history.
func (h *Hub) handleMessage(c *Client, ident *Identity, p *proto.MessageParams, notice bool) {
	eventType := proto.EventPrivmsg
	if notice {
		eventType = proto.EventNotice
	}

	if strings.HasPrefix(p.Target, "#") {
		if err := h.channels.CanSpeak(p.Target, ident.Name); err != nil {
			if notice {
				return // notices are one-way, failures are silent
			}
			h.sendDomainError(c, err, "cannot send")
			return
		}
		if !notice {
			h.channels.AppendHistory(p.Target, ident.Name, p.Message)
			h.metrics.MessageAccepted("channel")
		}
		h.toChannel(p.Target, proto.Outbound{
			Type:      eventType,
			Channel:   p.Target,
			Nick:      ident.Name,
			From:      ident.Name,
			Message:   p.Message,
			Timestamp: nowMillis(),
		}, "")
		return
	}

	target := h.registry.LookupByName(p.Target)
	if target == nil {
		if notice {
			return
		}
		h.sendError(c, ErrCodeNotFound, "user not found")
		return
	}

	// Courtesy reply when messaging someone marked away.
	if awayMsg, isAway := h.away[target.Name]; isAway && !notice {
		c.Send(proto.Outbound{
			Type:      proto.EventNotice,
			From:      "server",
			Message:   fmt.Sprintf("%s is away: %s", target.Name, awayMsg),
			Timestamp: nowMillis(),
		})
	}

	if !notice {
		h.metrics.MessageAccepted("direct")
	}
	h.toOne(target.Name, proto.Outbound{
		Type:      eventType,
		Nick:      ident.Name,
		From:      ident.Name,
		Message:   p.Message,
		IsDM:      true,
		Timestamp: nowMillis(),
	})
}

func (h *Hub) handleAway(c *Client, ident *Identity, p *proto.AwayParams) {
	if p.Message != "" {
		h.away[ident.Name] = p.Message
		c.Send(proto.Outbound{Type: proto.EventAwaySet, Message: "you have been marked as being away"})
		return
	}
	delete(h.away, ident.Name)
	c.Send(proto.Outbound{Type: proto.EventAwayCleared, Message: "you are no longer marked as being away"})
}

func (h *Hub) handleKick(c *Client, ident *Identity, p *proto.KickParams) {
	if err := h.channels.Kick(p.Channel, p.Nick, ident.Name); err != nil {
		h.sendDomainError(c, err, "kick failed")
		return
	}

	reason := p.Reason
	if reason == "" {
		reason = "no reason given"
	}
	h.toOne(p.Nick, proto.Outbound{
		Type:    proto.EventKicked,
		Channel: p.Channel,
		By:      ident.Name,
		Reason:  reason,
	})
	h.toChannel(p.Channel, proto.Outbound{
		Type:      proto.EventKick,
		Channel:   p.Channel,
		Nick:      p.Nick,
		By:        ident.Name,
		Reason:    reason,
		Timestamp: nowMillis(),
	}, "")
}

func (h *Hub) handleMode(c *Client, ident *Identity, p *proto.ModeParams) {
	if len(p.Mode) != 2 || (p.Mode[0] != '+' && p.Mode[0] != '-') {
		h.sendError(c, ErrCodeBadRequest, "malformed mode")
		return
	}
	if !h.channels.Exists(p.Channel) {
		h.sendError(c, ErrCodeNotFound, "no such channel")
		return
	}
	if !h.channels.IsOperator(p.Channel, ident.Name) {
		h.sendError(c, ErrCodeNotOperator, "you are not an operator")
		return
	}

	enabled := p.Mode[0] == '+'
	flag := p.Mode[1]
	param := p.Nick
	if flag == 'k' {
		param = p.Key
	}

	if err := h.channels.SetMode(p.Channel, flag, enabled, param); err != nil {
		h.sendDomainError(c, err, "mode change failed")
		return
	}

	h.toChannel(p.Channel, proto.Outbound{
		Type:      proto.EventMode,
		Channel:   p.Channel,
		Mode:      p.Mode,
		Nick:      p.Nick,
		By:        ident.Name,
		Timestamp: nowMillis(),
	}, "")
}

func (h *Hub) handleTopic(c *Client, ident *Identity, p *proto.TopicParams) {
	if err := h.channels.SetTopic(p.Channel, p.Topic, ident.Name); err != nil {
		h.sendDomainError(c, err, "topic change failed")
		return
	}
	h.toChannel(p.Channel, proto.Outbound{
		Type:      proto.EventTopic,
		Channel:   p.Channel,
		Topic:     p.Topic,
		By:        ident.Name,
		Timestamp: nowMillis(),
	}, "")
}

func (h *Hub) handleNames(c *Client, p *proto.NamesParams) {
	c.Send(proto.Outbound{
		Type:    proto.EventNames,
		Channel: p.Channel,
		Users:   h.channels.Members(p.Channel),
	})
}

func (h *Hub) handleWhois(c *Client, p *proto.WhoisParams) {
	target := h.registry.LookupByName(p.Nick)
	if target == nil {
		h.sendError(c, ErrCodeNotFound, "user not found")
		return
	}

	info := &proto.WhoisInfo{
		Nick:        target.Name,
		Channels:    h.channels.ChannelsOf(target.Name),
		Abilities:   target.Profile.Abilities,
		Interests:   target.Profile.Interests,
		CanManage:   target.Profile.CanManage,
		Description: target.Profile.Description,
		Personality: target.Profile.Personality,
		ConnectedAt: target.ConnectedAt.UnixMilli(),
		Away:        h.away[target.Name],
	}
	if info.Description == "" {
		info.Description = target.Metadata.Description
	}
	if info.Personality == "" {
		info.Personality = target.Metadata.Personality
	}
	c.Send(proto.Outbound{Type: proto.EventWhois, Whois: info})
}

func (h *Hub) handleInvite(c *Client, ident *Identity, p *proto.InviteParams) {
	target := h.registry.LookupByName(p.Nick)
	if target == nil {
		h.sendError(c, ErrCodeNotFound, "user not found")
		return
	}

	h.channels.Invite(p.Channel, target.Name)
	h.toOne(target.Name, proto.Outbound{
		Type:      proto.EventInvite,
		Channel:   p.Channel,
		By:        ident.Name,
		Timestamp: nowMillis(),
	})
	c.Send(proto.Outbound{
		Type:    proto.EventInviteSent,
		Channel: p.Channel,
		Nick:    target.Name,
	})
}

func (h *Hub) handleCreateChannel(c *Client, ident *Identity, p *proto.CreateChannelParams) {
	if !ValidChannelName(p.Channel) {
		h.sendError(c, ErrCodeBadRequest, "invalid channel name")
		return
	}
	if _, err := h.channels.Create(p.Channel, ident.Name, p.Topic); err != nil {
		h.sendDomainError(c, err, fmt.Sprintf("cannot create %s", p.Channel))
		return
	}
	if _, err := h.channels.Join(p.Channel, ident.Name); err != nil {
		h.sendDomainError(c, err, "join failed")
		return
	}

	h.toAll(proto.Outbound{
		Type:    proto.EventNewChannel,
		Channel: p.Channel,
		By:      ident.Name,
		Topic:   p.Topic,
	}, "")
	c.Send(proto.Outbound{
		Type:       proto.EventChannelCreated,
		Channel:    p.Channel,
		IsOperator: true,
	})
}

func (h *Hub) handleFindInterest(c *Client, p *proto.FindInterestParams) {
	c.Send(proto.Outbound{
		Type:    proto.EventBotMatches,
		Topic:   p.Topic,
		Matches: h.registry.FindByInterest(p.Topic),
	})
}

// sendChannelInfo delivers the bootstrap view of a channel to one client.
func (h *Hub) sendChannelInfo(c *Client, nick, channel string) {
	topic, modes, ok := h.channels.Info(channel)
	if !ok {
		return
	}
	c.Send(proto.Outbound{
		Type:       proto.EventChannelInfo,
		Channel:    channel,
		Topic:      topic,
		Modes:      modes,
		Users:      h.channels.Members(channel),
		IsOperator: h.channels.IsOperator(channel, nick),
	})
}

func (h *Hub) isObserver(name string) bool {
	return h.opts.ObserverPrefix != "" && strings.HasPrefix(name, h.opts.ObserverPrefix)
}

func (h *Hub) sendError(c *Client, code, msg string) {
	h.metrics.CommandRejected()
	c.Send(proto.Outbound{Type: proto.EventError, Code: code, Message: msg})
}

// sendDomainError maps a domain error onto an ERROR frame, prefixing the
// message with context.
func (h *Hub) sendDomainError(c *Client, err error, context string) {
	var domErr *Error
	if errors.As(err, &domErr) {
		h.sendError(c, domErr.Code, fmt.Sprintf("%s: %s", context, domErr.Message))
		return
	}
	switch {
	case errors.Is(err, ErrNotFound):
		h.sendError(c, ErrCodeNotFound, fmt.Sprintf("%s: not found", context))
	case errors.Is(err, ErrNotOperator):
		h.sendError(c, ErrCodeNotOperator, fmt.Sprintf("%s: you are not an operator", context))
	case errors.Is(err, ErrNotMember):
		h.sendError(c, ErrCodeNotMember, fmt.Sprintf("%s: not a member", context))
	case errors.Is(err, ErrChannelExists):
		h.sendError(c, ErrCodeAlreadyExists, fmt.Sprintf("%s: channel already exists", context))
	default:
		h.sendError(c, ErrCodeBadRequest, fmt.Sprintf("%s: %s", context, err))
	}
}
