package core

import "github.com/argostroloji/mircbook/internal/proto"

// Command is one decoded request from a client, processed to completion by
// the hub before the next command from the same connection is looked at.
type Command struct {
	// Name is the canonical upper-case command name.
	Name string

	// Exactly one of the following is populated, matching Name. Parse
	// failures never reach the hub; the transport maps them to ERROR
	// frames directly.
	Register     *proto.RegisterParams
	Join         *proto.JoinParams
	Part         *proto.PartParams
	Message      *proto.MessageParams
	Away         *proto.AwayParams
	Kick         *proto.KickParams
	Mode         *proto.ModeParams
	Topic        *proto.TopicParams
	Names        *proto.NamesParams
	Whois        *proto.WhoisParams
	Invite       *proto.InviteParams
	CreateChan   *proto.CreateChannelParams
	FindInterest *proto.FindInterestParams
}
