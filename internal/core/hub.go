package core

import (
	"context"
	"time"

	"github.com/argostroloji/mircbook/internal/metrics"
	"github.com/argostroloji/mircbook/internal/proto"
	"github.com/rs/zerolog"
)

// Options tunes hub behavior.
type Options struct {
	// DefaultChannel is auto-joined on registration. It must exist before
	// the hub starts.
	DefaultChannel string

	// ObserverPrefix marks read-only identities. Names starting with it may
	// only issue the observer command whitelist.
	ObserverPrefix string

	// HeartbeatInterval is how often PING frames go out to every identity.
	// Zero disables the heartbeat.
	HeartbeatInterval time.Duration
}

// observerAllowed is the command whitelist for observer identities.
var observerAllowed = map[string]struct{}{
	proto.CmdJoin:         {},
	proto.CmdPart:         {},
	proto.CmdList:         {},
	proto.CmdNames:        {},
	proto.CmdWhois:        {},
	proto.CmdFindInterest: {},
	proto.CmdPong:         {},
}

type clientCommand struct {
	client *Client
	cmd    *Command
}

// Hub is the command dispatcher. A single Run goroutine processes every
// command, so each request is handled to completion before the next one and
// no mode or membership change is ever observed half-applied. The registry
// and channel table carry their own locks for the read-only HTTP surface.
type Hub struct {
	registry *Registry
	channels *Table
	away     map[string]string // hub goroutine only

	opts    Options
	metrics *metrics.Metrics
	log     *zerolog.Logger

	register   chan *Client
	unregister chan *Client
	commands   chan clientCommand
	done       chan struct{}
}

// NewHub wires the dispatcher over the registry and channel table. metrics
// may be nil.
func NewHub(registry *Registry, channels *Table, opts Options, m *metrics.Metrics, logger *zerolog.Logger) *Hub {
	return &Hub{
		registry:   registry,
		channels:   channels,
		away:       make(map[string]string),
		opts:       opts,
		metrics:    m,
		log:        logger,
		register:   make(chan *Client),
		unregister: make(chan *Client),
		commands:   make(chan clientCommand),
		done:       make(chan struct{}),
	}
}

// RegisterClient hands a new connection to the hub and starts pumping its
// commands into the dispatch loop. No-op after shutdown.
func (h *Hub) RegisterClient(c *Client) {
	select {
	case h.register <- c:
	case <-h.done:
	}
}

// UnregisterClient tells the hub the connection is gone. Safe to call while
// a command from the same connection is still queued; cleanup and the
// queued command are serialized by the dispatch loop. No-op after shutdown.
func (h *Hub) UnregisterClient(c *Client) {
	select {
	case h.unregister <- c:
	case <-h.done:
	}
}

// Run processes commands until ctx is cancelled, then notifies every
// identity and closes all event streams.
func (h *Hub) Run(ctx context.Context) {
	var heartbeat <-chan time.Time
	if h.opts.HeartbeatInterval > 0 {
		ticker := time.NewTicker(h.opts.HeartbeatInterval)
		defer ticker.Stop()
		heartbeat = ticker.C
	}

	for {
		select {
		case c := <-h.register:
			h.metrics.ConnectionOpened()
			go h.pump(c)
		case c := <-h.unregister:
			h.metrics.ConnectionClosed()
			h.handleDisconnect(c)
		case cc := <-h.commands:
			h.handleCommand(cc.client, cc.cmd)
		case <-heartbeat:
			h.toAll(proto.Outbound{Type: proto.EventPing, Timestamp: nowMillis()}, "")
		case <-ctx.Done():
			h.shutdown()
			return
		}
	}
}

// pump forwards one client's commands into the shared dispatch channel,
// preserving per-connection ordering. It exits when the transport closes
// the client's command channel or the hub stops.
func (h *Hub) pump(c *Client) {
	for cmd := range c.Commands {
		select {
		case h.commands <- clientCommand{client: c, cmd: cmd}:
		case <-h.done:
			return
		}
	}
}

// handleDisconnect cleans up after a closed connection: away status, channel
// membership, registry entry, and a QUIT notice per channel the identity
// was actually in.
func (h *Hub) handleDisconnect(c *Client) {
	defer c.CloseEvents()

	ident := h.registry.LookupByClient(c.ID)
	if ident == nil {
		return
	}

	delete(h.away, ident.Name)
	parted := h.channels.RemoveFromAll(ident.Name)
	h.registry.Unregister(ident.Name)
	h.metrics.IdentityUnregistered()

	quit := proto.Outbound{Type: proto.EventQuit, Nick: ident.Name, Timestamp: nowMillis()}
	for _, channel := range parted {
		quit.Channel = channel
		h.toChannel(channel, quit, "")
	}
	h.log.Info().Str("nick", ident.Name).Int("channels", len(parted)).Msg("identity disconnected")
}

// shutdown notifies all connected identities and closes their event
// streams. New register/unregister calls turn into no-ops once done is
// closed.
func (h *Hub) shutdown() {
	h.toAll(proto.Outbound{
		Type:    proto.EventNotice,
		From:    "server",
		Message: "server shutting down",
	}, "")

	for _, name := range h.registry.Names() {
		if ident := h.registry.LookupByName(name); ident != nil {
			ident.Client.CloseEvents()
		}
	}
	close(h.done)
	h.log.Info().Msg("hub stopped")
}

// toChannel delivers an event to the channel's membership as it stands
// right now. Members whose connection is gone are skipped by the registry.
func (h *Hub) toChannel(channel string, ev proto.Outbound, exclude string) {
	for _, nick := range h.channels.MemberNames(channel) {
		if nick == exclude {
			continue
		}
		h.registry.SendTo(nick, ev)
		h.metrics.BroadcastSent()
	}
}

// toOne delivers an event to a single identity, best effort.
func (h *Hub) toOne(nick string, ev proto.Outbound) {
	h.registry.SendTo(nick, ev)
}

// toAll delivers an event to every registered identity except exclude.
func (h *Hub) toAll(ev proto.Outbound, exclude string) {
	h.registry.BroadcastAll(ev, exclude)
	h.metrics.BroadcastSent()
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}
