package core

import (
	"testing"

	"github.com/argostroloji/mircbook/internal/proto"
)

func TestRegisterWelcomeAndAutoJoin(t *testing.T) {
	env := newTestEnv(t)

	c := env.open(t)
	c.Commands <- &Command{Name: proto.CmdRegister, Register: &proto.RegisterParams{Name: "X"}}

	welcome := mustEvent(t, c, proto.EventWelcome)
	if welcome.Nick != "X" {
		t.Fatalf("unexpected welcome nick: %q", welcome.Nick)
	}
	if len(welcome.Channels) == 0 {
		t.Fatalf("welcome should list known channels")
	}

	info := mustEvent(t, c, proto.EventChannelInfo)
	if info.Channel != "#GENERAL" {
		t.Fatalf("expected auto-join to #GENERAL, got %q", info.Channel)
	}

	c.Commands <- &Command{Name: proto.CmdList}
	list := mustEvent(t, c, proto.EventChannelList)
	for _, ch := range list.Channels {
		if ch.Name == "#GENERAL" {
			if ch.UserCount < 1 {
				t.Fatalf("expected #GENERAL userCount >= 1, got %d", ch.UserCount)
			}
			return
		}
	}
	t.Fatalf("#GENERAL missing from LIST: %+v", list.Channels)
}

func TestDuplicateNameRejected(t *testing.T) {
	env := newTestEnv(t)

	first := env.connect(t, "X")

	second := env.open(t)
	second.Commands <- &Command{Name: proto.CmdRegister, Register: &proto.RegisterParams{Name: "X"}}
	ev := mustEvent(t, second, proto.EventError)
	if ev.Code != ErrCodeDuplicateName {
		t.Fatalf("expected %s, got %s", ErrCodeDuplicateName, ev.Code)
	}

	// The original session is unaffected.
	first.Commands <- &Command{Name: proto.CmdList}
	mustEvent(t, first, proto.EventChannelList)
	if env.registry.LookupByName("X") == nil {
		t.Fatalf("original identity should still be registered")
	}
}

func TestReservedNameRequiresSecret(t *testing.T) {
	env := newTestEnv(t)

	c := env.open(t)
	c.Commands <- &Command{Name: proto.CmdRegister, Register: &proto.RegisterParams{Name: "Argobot"}}
	ev := mustEvent(t, c, proto.EventError)
	if ev.Code != ErrCodeAuth {
		t.Fatalf("expected %s, got %s", ErrCodeAuth, ev.Code)
	}
	if env.registry.LookupByName("Argobot") != nil {
		t.Fatalf("failed auth must not register the identity")
	}

	env.registerAs(t, c, "Argobot", proto.Metadata{Password: testSecret})
	if env.registry.LookupByName("Argobot") == nil {
		t.Fatalf("correct secret should register the reserved name")
	}
}

func TestModeratedChannelSilencesNonVoiced(t *testing.T) {
	env := newTestEnv(t)

	op := env.connect(t, "A")
	member := env.connect(t, "B")

	env.join(t, op, "#room") // creator becomes operator
	env.join(t, member, "#room")

	op.Commands <- &Command{Name: proto.CmdMode, Mode: &proto.ModeParams{Channel: "#room", Mode: "+m"}}
	mustEvent(t, op, proto.EventMode)

	member.Commands <- &Command{Name: proto.CmdPrivmsg, Message: &proto.MessageParams{Target: "#room", Message: "hi"}}
	ev := mustEvent(t, member, proto.EventError)
	if ev.Code != ErrCodeDenied {
		t.Fatalf("expected %s, got %s", ErrCodeDenied, ev.Code)
	}

	if got := len(env.channels.History("#room")); got != 0 {
		t.Fatalf("denied message must not reach history, got %d entries", got)
	}
	noEvent(t, op, proto.EventPrivmsg)

	// Voicing B lifts the restriction.
	op.Commands <- &Command{Name: proto.CmdMode, Mode: &proto.ModeParams{Channel: "#room", Mode: "+v", Nick: "B"}}
	mustEvent(t, op, proto.EventMode)

	member.Commands <- &Command{Name: proto.CmdPrivmsg, Message: &proto.MessageParams{Target: "#room", Message: "hi again"}}
	msg := mustEvent(t, op, proto.EventPrivmsg)
	if msg.Message != "hi again" || msg.Nick != "B" {
		t.Fatalf("unexpected message event: %+v", msg)
	}
}

func TestBanBlocksJoin(t *testing.T) {
	env := newTestEnv(t)

	op := env.connect(t, "A")
	banned := env.connect(t, "B")

	env.join(t, op, "#room")
	op.Commands <- &Command{Name: proto.CmdMode, Mode: &proto.ModeParams{Channel: "#room", Mode: "+b", Nick: "B"}}
	mustEvent(t, op, proto.EventMode)

	banned.Commands <- &Command{Name: proto.CmdJoin, Join: &proto.JoinParams{Channel: "#room"}}
	ev := mustEvent(t, banned, proto.EventError)
	if ev.Code != ErrCodeDenied {
		t.Fatalf("expected %s, got %s", ErrCodeDenied, ev.Code)
	}
	for _, nick := range env.channels.MemberNames("#room") {
		if nick == "B" {
			t.Fatalf("banned identity must not become a member")
		}
	}
}

func TestKickRemovesMemberWithReason(t *testing.T) {
	env := newTestEnv(t)

	op := env.connect(t, "A")
	witness := env.connect(t, "B")
	victim := env.connect(t, "C")

	env.join(t, op, "#room")
	env.join(t, witness, "#room")
	env.join(t, victim, "#room")

	op.Commands <- &Command{Name: proto.CmdKick, Kick: &proto.KickParams{Channel: "#room", Nick: "C", Reason: "rule violation"}}

	kicked := mustEvent(t, victim, proto.EventKicked)
	if kicked.Reason != "rule violation" || kicked.By != "A" {
		t.Fatalf("unexpected KICKED event: %+v", kicked)
	}

	kick := mustEvent(t, witness, proto.EventKick)
	if kick.Nick != "C" || kick.Channel != "#room" {
		t.Fatalf("unexpected KICK broadcast: %+v", kick)
	}

	for _, nick := range env.channels.MemberNames("#room") {
		if nick == "C" {
			t.Fatalf("kicked identity still a member")
		}
	}
}

func TestKickRequiresOperator(t *testing.T) {
	env := newTestEnv(t)

	op := env.connect(t, "A")
	peon := env.connect(t, "B")

	env.join(t, op, "#room")
	env.join(t, peon, "#room")

	peon.Commands <- &Command{Name: proto.CmdKick, Kick: &proto.KickParams{Channel: "#room", Nick: "A"}}
	ev := mustEvent(t, peon, proto.EventError)
	if ev.Code != ErrCodeNotOperator {
		t.Fatalf("expected %s, got %s", ErrCodeNotOperator, ev.Code)
	}
}

func TestDisconnectCleansUpEverywhere(t *testing.T) {
	env := newTestEnv(t)

	leaver := env.connect(t, "X")
	watcher := env.connect(t, "Y")

	for _, ch := range []string{"#one", "#two", "#three"} {
		env.join(t, leaver, ch)
		env.join(t, watcher, ch)
	}

	leaver.Commands <- &Command{Name: proto.CmdAway, Away: &proto.AwayParams{Message: "brb"}}
	mustEvent(t, leaver, proto.EventAwaySet)

	env.hub.UnregisterClient(leaver)

	seen := map[string]int{}
	for i := 0; i < 3; i++ {
		quit := mustEvent(t, watcher, proto.EventQuit)
		if quit.Nick != "X" {
			t.Fatalf("unexpected quit nick: %q", quit.Nick)
		}
		seen[quit.Channel]++
	}
	for _, ch := range []string{"#one", "#two", "#three"} {
		if seen[ch] != 1 {
			t.Fatalf("expected exactly one QUIT for %s, got %d", ch, seen[ch])
		}
	}
	noEvent(t, watcher, proto.EventQuit)

	if env.registry.LookupByName("X") != nil {
		t.Fatalf("identity should be unregistered after disconnect")
	}
	for _, ch := range []string{"#one", "#two", "#three"} {
		for _, nick := range env.channels.MemberNames(ch) {
			if nick == "X" {
				t.Fatalf("%s still a member of %s", nick, ch)
			}
		}
	}
}

func TestDuplicateJoinSuppressed(t *testing.T) {
	env := newTestEnv(t)

	a := env.connect(t, "A")
	b := env.connect(t, "B")

	env.join(t, a, "#room")
	env.join(t, b, "#room")
	mustEvent(t, a, proto.EventJoin) // B's join

	// Second JOIN from B: no duplicate broadcast to A.
	env.join(t, b, "#room")
	noEvent(t, a, proto.EventJoin)
}

func TestTopicProtection(t *testing.T) {
	env := newTestEnv(t)

	op := env.connect(t, "A")
	member := env.connect(t, "B")

	env.join(t, op, "#room")
	env.join(t, member, "#room")

	member.Commands <- &Command{Name: proto.CmdTopic, Topic: &proto.TopicParams{Channel: "#room", Topic: "takeover"}}
	ev := mustEvent(t, member, proto.EventError)
	if ev.Code != ErrCodeNotOperator {
		t.Fatalf("expected %s, got %s", ErrCodeNotOperator, ev.Code)
	}

	op.Commands <- &Command{Name: proto.CmdTopic, Topic: &proto.TopicParams{Channel: "#room", Topic: "agenda"}}
	topicEv := mustEvent(t, member, proto.EventTopic)
	if topicEv.Topic != "agenda" || topicEv.By != "A" {
		t.Fatalf("unexpected topic event: %+v", topicEv)
	}

	topic, _, ok := env.channels.Info("#room")
	if !ok || topic != "agenda" {
		t.Fatalf("topic not applied, got %q", topic)
	}

	// Dropping +t lets anyone set the topic.
	op.Commands <- &Command{Name: proto.CmdMode, Mode: &proto.ModeParams{Channel: "#room", Mode: "-t"}}
	mustEvent(t, op, proto.EventMode)
	member.Commands <- &Command{Name: proto.CmdTopic, Topic: &proto.TopicParams{Channel: "#room", Topic: "free for all"}}
	mustEvent(t, op, proto.EventTopic)
}

func TestObserverWhitelist(t *testing.T) {
	env := newTestEnv(t)

	obs := env.connect(t, "Viewer_1")

	obs.Commands <- &Command{Name: proto.CmdPrivmsg, Message: &proto.MessageParams{Target: "#GENERAL", Message: "hi"}}
	ev := mustEvent(t, obs, proto.EventError)
	if ev.Code != ErrCodeRestricted {
		t.Fatalf("expected %s, got %s", ErrCodeRestricted, ev.Code)
	}

	// Read-only commands still work.
	obs.Commands <- &Command{Name: proto.CmdNames, Names: &proto.NamesParams{Channel: "#GENERAL"}}
	mustEvent(t, obs, proto.EventNames)
}

func TestDirectMessageAndAwayReply(t *testing.T) {
	env := newTestEnv(t)

	a := env.connect(t, "A")
	b := env.connect(t, "B")

	b.Commands <- &Command{Name: proto.CmdAway, Away: &proto.AwayParams{Message: "lunch"}}
	mustEvent(t, b, proto.EventAwaySet)

	a.Commands <- &Command{Name: proto.CmdPrivmsg, Message: &proto.MessageParams{Target: "B", Message: "ping"}}

	notice := mustEvent(t, a, proto.EventNotice)
	if notice.Message != "B is away: lunch" {
		t.Fatalf("unexpected away notice: %q", notice.Message)
	}

	dm := mustEvent(t, b, proto.EventPrivmsg)
	if !dm.IsDM || dm.From != "A" || dm.Message != "ping" {
		t.Fatalf("unexpected DM: %+v", dm)
	}

	// Clearing away stops the notice.
	b.Commands <- &Command{Name: proto.CmdAway, Away: &proto.AwayParams{}}
	mustEvent(t, b, proto.EventAwayCleared)
	a.Commands <- &Command{Name: proto.CmdPrivmsg, Message: &proto.MessageParams{Target: "B", Message: "ping2"}}
	mustEvent(t, b, proto.EventPrivmsg)
	noEvent(t, a, proto.EventNotice)
}

func TestUnknownTargetDirectMessage(t *testing.T) {
	env := newTestEnv(t)

	a := env.connect(t, "A")
	a.Commands <- &Command{Name: proto.CmdPrivmsg, Message: &proto.MessageParams{Target: "Ghost", Message: "hello?"}}
	ev := mustEvent(t, a, proto.EventError)
	if ev.Code != ErrCodeNotFound {
		t.Fatalf("expected %s, got %s", ErrCodeNotFound, ev.Code)
	}
}

func TestCreateChannelBroadcastsOnce(t *testing.T) {
	env := newTestEnv(t)

	creator := env.connect(t, "A")
	other := env.connect(t, "B")

	creator.Commands <- &Command{Name: proto.CmdCreateChannel, CreateChan: &proto.CreateChannelParams{Channel: "#new", Topic: "fresh"}}

	created := mustEvent(t, creator, proto.EventChannelCreated)
	if created.Channel != "#new" || !created.IsOperator {
		t.Fatalf("unexpected CHANNEL_CREATED ack: %+v", created)
	}
	announce := mustEvent(t, other, proto.EventNewChannel)
	if announce.Channel != "#new" || announce.By != "A" {
		t.Fatalf("unexpected NEW_CHANNEL_CREATED: %+v", announce)
	}
	noEvent(t, other, proto.EventNewChannel)

	// Creating it again fails.
	creator.Commands <- &Command{Name: proto.CmdCreateChannel, CreateChan: &proto.CreateChannelParams{Channel: "#new"}}
	ev := mustEvent(t, creator, proto.EventError)
	if ev.Code != ErrCodeAlreadyExists {
		t.Fatalf("expected %s, got %s", ErrCodeAlreadyExists, ev.Code)
	}
}

func TestInviteOpensInviteOnlyChannel(t *testing.T) {
	env := newTestEnv(t)

	op := env.connect(t, "A")
	guest := env.connect(t, "B")

	env.join(t, op, "#club")
	op.Commands <- &Command{Name: proto.CmdMode, Mode: &proto.ModeParams{Channel: "#club", Mode: "+i"}}
	mustEvent(t, op, proto.EventMode)

	guest.Commands <- &Command{Name: proto.CmdJoin, Join: &proto.JoinParams{Channel: "#club"}}
	ev := mustEvent(t, guest, proto.EventError)
	if ev.Code != ErrCodeDenied {
		t.Fatalf("expected %s, got %s", ErrCodeDenied, ev.Code)
	}

	op.Commands <- &Command{Name: proto.CmdInvite, Invite: &proto.InviteParams{Channel: "#club", Nick: "B"}}
	invite := mustEvent(t, guest, proto.EventInvite)
	if invite.Channel != "#club" || invite.By != "A" {
		t.Fatalf("unexpected INVITE: %+v", invite)
	}
	mustEvent(t, op, proto.EventInviteSent)

	env.join(t, guest, "#club")
}

func TestChannelKey(t *testing.T) {
	env := newTestEnv(t)

	op := env.connect(t, "A")
	guest := env.connect(t, "B")

	env.join(t, op, "#vault")
	op.Commands <- &Command{Name: proto.CmdMode, Mode: &proto.ModeParams{Channel: "#vault", Mode: "+k", Key: "hunter2"}}
	mustEvent(t, op, proto.EventMode)

	guest.Commands <- &Command{Name: proto.CmdJoin, Join: &proto.JoinParams{Channel: "#vault", Key: "wrong"}}
	ev := mustEvent(t, guest, proto.EventError)
	if ev.Code != ErrCodeDenied {
		t.Fatalf("expected %s, got %s", ErrCodeDenied, ev.Code)
	}

	guest.Commands <- &Command{Name: proto.CmdJoin, Join: &proto.JoinParams{Channel: "#vault", Key: "hunter2"}}
	mustEvent(t, guest, proto.EventChannelInfo)
}

func TestWhoisReportsChannelsAndAway(t *testing.T) {
	env := newTestEnv(t)

	a := env.connect(t, "A")
	b := env.connect(t, "B")

	env.join(t, b, "#room")
	b.Commands <- &Command{Name: proto.CmdAway, Away: &proto.AwayParams{Message: "afk"}}
	mustEvent(t, b, proto.EventAwaySet)

	a.Commands <- &Command{Name: proto.CmdWhois, Whois: &proto.WhoisParams{Nick: "B"}}
	ev := mustEvent(t, a, proto.EventWhois)
	if ev.Whois == nil || ev.Whois.Nick != "B" || ev.Whois.Away != "afk" {
		t.Fatalf("unexpected whois: %+v", ev.Whois)
	}

	foundRoom := false
	for _, ch := range ev.Whois.Channels {
		if ch.Name == "#room" {
			foundRoom = true
			if !ch.IsOperator || !ch.IsCreator {
				t.Fatalf("B created #room and should be operator: %+v", ch)
			}
		}
	}
	if !foundRoom {
		t.Fatalf("whois missing #room membership: %+v", ev.Whois.Channels)
	}
}

func TestUnregisteredSenderRejected(t *testing.T) {
	env := newTestEnv(t)

	c := env.open(t)
	c.Commands <- &Command{Name: proto.CmdList}
	ev := mustEvent(t, c, proto.EventError)
	if ev.Code != ErrCodeNotRegistered {
		t.Fatalf("expected %s, got %s", ErrCodeNotRegistered, ev.Code)
	}
}

func TestPartRequiresMembership(t *testing.T) {
	env := newTestEnv(t)

	a := env.connect(t, "A")
	b := env.connect(t, "B")

	env.join(t, a, "#room")

	b.Commands <- &Command{Name: proto.CmdPart, Part: &proto.PartParams{Channel: "#room"}}
	ev := mustEvent(t, b, proto.EventError)
	if ev.Code != ErrCodeNotMember {
		t.Fatalf("expected %s, got %s", ErrCodeNotMember, ev.Code)
	}

	env.join(t, b, "#room")
	b.Commands <- &Command{Name: proto.CmdPart, Part: &proto.PartParams{Channel: "#room"}}
	part := mustEvent(t, a, proto.EventPart)
	if part.Nick != "B" || part.Channel != "#room" {
		t.Fatalf("unexpected PART: %+v", part)
	}
}
