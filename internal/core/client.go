package core

import (
	"sync"

	"github.com/argostroloji/mircbook/internal/proto"
)

// Client is one connection as seen by the core. The transport owns the
// socket; the core only ever pushes outbound frames into Events and pulls
// decoded commands out of Commands. A client has no name until its REGISTER
// command succeeds.
type Client struct {
	ID       string
	Commands chan *Command
	Events   chan proto.Outbound

	mu     sync.Mutex
	closed bool
}

// NewClient constructs a client with buffered channels. eventBuffer bounds
// how far a slow consumer may fall behind before frames are dropped.
func NewClient(id string, eventBuffer int) *Client {
	if eventBuffer <= 0 {
		eventBuffer = 32
	}
	return &Client{
		ID:       id,
		Commands: make(chan *Command, 8),
		Events:   make(chan proto.Outbound, eventBuffer),
	}
}

// Send queues an outbound frame without blocking. Delivery is best-effort:
// if the client's buffer is full the frame is dropped and Send reports
// false. Callers never treat a drop as a request failure.
func (c *Client) Send(ev proto.Outbound) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return false
	}
	select {
	case c.Events <- ev:
		return true
	default:
		return false
	}
}

// CloseEvents closes the event stream exactly once. Called by the hub when
// the client is unregistered or the server shuts down; late Sends become
// silent drops.
func (c *Client) CloseEvents() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.Events)
	}
}
