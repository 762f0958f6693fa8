package http

import (
	"encoding/json"
	"strings"

	"github.com/argostroloji/mircbook/internal/core"
	"github.com/argostroloji/mircbook/internal/proto"
)

// inboundToCommand decodes one inbound frame. A malformed frame yields an
// ERROR outbound to return to the sender; only one of the results is
// non-nil.
func inboundToCommand(inbound proto.Inbound) (*core.Command, *proto.Outbound) {
	name := strings.ToUpper(strings.TrimSpace(inbound.Command))
	if name == "" {
		return nil, badRequest("command is required")
	}

	cmd := &core.Command{Name: name}

	switch name {
	case proto.CmdRegister:
		p := &proto.RegisterParams{}
		if err := unmarshalParams(inbound.Params, p); err != nil {
			return nil, badRequest("malformed params")
		}
		if p.Name == "" {
			return nil, badRequest("name is required")
		}
		cmd.Register = p
	case proto.CmdJoin:
		p := &proto.JoinParams{}
		if err := unmarshalParams(inbound.Params, p); err != nil {
			return nil, badRequest("malformed params")
		}
		if p.Channel == "" {
			return nil, badRequest("channel is required")
		}
		cmd.Join = p
	case proto.CmdPart:
		p := &proto.PartParams{}
		if err := unmarshalParams(inbound.Params, p); err != nil {
			return nil, badRequest("malformed params")
		}
		if p.Channel == "" {
			return nil, badRequest("channel is required")
		}
		cmd.Part = p
	case proto.CmdPrivmsg, proto.CmdNotice:
		p := &proto.MessageParams{}
		if err := unmarshalParams(inbound.Params, p); err != nil {
			return nil, badRequest("malformed params")
		}
		if p.Target == "" {
			return nil, badRequest("target is required")
		}
		cmd.Message = p
	case proto.CmdAway:
		p := &proto.AwayParams{}
		if err := unmarshalParams(inbound.Params, p); err != nil {
			return nil, badRequest("malformed params")
		}
		cmd.Away = p
	case proto.CmdKick:
		p := &proto.KickParams{}
		if err := unmarshalParams(inbound.Params, p); err != nil {
			return nil, badRequest("malformed params")
		}
		if p.Channel == "" || p.Nick == "" {
			return nil, badRequest("channel and nick are required")
		}
		cmd.Kick = p
	case proto.CmdMode:
		p := &proto.ModeParams{}
		if err := unmarshalParams(inbound.Params, p); err != nil {
			return nil, badRequest("malformed params")
		}
		if p.Channel == "" || p.Mode == "" {
			return nil, badRequest("channel and mode are required")
		}
		cmd.Mode = p
	case proto.CmdTopic:
		p := &proto.TopicParams{}
		if err := unmarshalParams(inbound.Params, p); err != nil {
			return nil, badRequest("malformed params")
		}
		if p.Channel == "" {
			return nil, badRequest("channel is required")
		}
		cmd.Topic = p
	case proto.CmdList, proto.CmdPong:
		// No params.
	case proto.CmdNames:
		p := &proto.NamesParams{}
		if err := unmarshalParams(inbound.Params, p); err != nil {
			return nil, badRequest("malformed params")
		}
		if p.Channel == "" {
			return nil, badRequest("channel is required")
		}
		cmd.Names = p
	case proto.CmdWhois:
		p := &proto.WhoisParams{}
		if err := unmarshalParams(inbound.Params, p); err != nil {
			return nil, badRequest("malformed params")
		}
		if p.Nick == "" {
			return nil, badRequest("nick is required")
		}
		cmd.Whois = p
	case proto.CmdInvite:
		p := &proto.InviteParams{}
		if err := unmarshalParams(inbound.Params, p); err != nil {
			return nil, badRequest("malformed params")
		}
		if p.Channel == "" || p.Nick == "" {
			return nil, badRequest("channel and nick are required")
		}
		cmd.Invite = p
	case proto.CmdCreateChannel:
		p := &proto.CreateChannelParams{}
		if err := unmarshalParams(inbound.Params, p); err != nil {
			return nil, badRequest("malformed params")
		}
		if p.Channel == "" {
			return nil, badRequest("channel is required")
		}
		cmd.CreateChan = p
	case proto.CmdFindInterest:
		p := &proto.FindInterestParams{}
		if err := unmarshalParams(inbound.Params, p); err != nil {
			return nil, badRequest("malformed params")
		}
		if p.Topic == "" {
			return nil, badRequest("topic is required")
		}
		cmd.FindInterest = p
	default:
		// The hub answers unknown commands so the sender gets a uniform
		// ERROR frame whether the command is unknown or merely restricted.
	}

	return cmd, nil
}

func unmarshalParams(raw json.RawMessage, v any) error {
	if len(raw) == 0 {
		return nil
	}
	return json.Unmarshal(raw, v)
}

func badRequest(msg string) *proto.Outbound {
	return &proto.Outbound{
		Type:    proto.EventError,
		Code:    core.ErrCodeBadRequest,
		Message: msg,
	}
}
