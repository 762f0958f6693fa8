package core

import (
	"context"
	"testing"
	"time"

	"github.com/argostroloji/mircbook/internal/auth"
	"github.com/argostroloji/mircbook/internal/proto"
	"github.com/rs/zerolog"
)

const testSecret = "admin-secret"

func nopLogger() *zerolog.Logger {
	logger := zerolog.Nop()
	return &logger
}

type testEnv struct {
	hub      *Hub
	registry *Registry
	channels *Table
}

// newTestEnv builds a running hub with one seeded #GENERAL channel,
// DevBot/Argobot as global operators, and Argobot reserved behind
// testSecret.
func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	logger := nopLogger()
	hash, err := auth.HashSecret(testSecret)
	if err != nil {
		t.Fatalf("hash secret: %v", err)
	}

	registry := NewRegistry("Argobot", hash, nil, logger)
	channels := NewTable([]string{"DevBot", "Argobot"}, logger)
	if _, err := channels.Create("#GENERAL", "", "lobby"); err != nil {
		t.Fatalf("seed channel: %v", err)
	}

	hub := NewHub(registry, channels, Options{
		DefaultChannel: "#GENERAL",
		ObserverPrefix: "Viewer_",
	}, nil, logger)

	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)
	t.Cleanup(cancel)

	return &testEnv{hub: hub, registry: registry, channels: channels}
}

// connect opens a connection and registers name, consuming the WELCOME and
// default-channel bootstrap frames.
func (e *testEnv) connect(t *testing.T, name string) *Client {
	t.Helper()

	c := e.open(t)
	e.registerAs(t, c, name, proto.Metadata{})
	return c
}

// open adds an unregistered connection to the hub.
func (e *testEnv) open(t *testing.T) *Client {
	t.Helper()

	c := NewClient("conn-"+t.Name()+"-"+time.Now().Format("150405.000000000"), 64)
	e.hub.RegisterClient(c)
	t.Cleanup(func() { e.hub.UnregisterClient(c) })
	return c
}

func (e *testEnv) registerAs(t *testing.T, c *Client, name string, meta proto.Metadata) {
	t.Helper()

	c.Commands <- &Command{Name: proto.CmdRegister, Register: &proto.RegisterParams{Name: name, Metadata: meta}}
	mustEvent(t, c, proto.EventWelcome)
	mustEvent(t, c, proto.EventChannelInfo)
}

// join issues a JOIN and waits for the resulting CHANNEL_INFO.
func (e *testEnv) join(t *testing.T, c *Client, channel string) {
	t.Helper()

	c.Commands <- &Command{Name: proto.CmdJoin, Join: &proto.JoinParams{Channel: channel}}
	mustEvent(t, c, proto.EventChannelInfo)
}

// mustEvent reads events until one of the wanted type arrives, skipping
// everything else (heartbeats, broadcasts from other clients).
func mustEvent(t *testing.T, c *Client, eventType string) proto.Outbound {
	t.Helper()

	deadline := time.After(2 * time.Second)
	for {
		select {
		case ev, ok := <-c.Events:
			if !ok {
				t.Fatalf("event stream closed while waiting for %s", eventType)
			}
			if ev.Type == eventType {
				return ev
			}
		case <-deadline:
			t.Fatalf("expected event %s not received", eventType)
		}
	}
}

// noEvent asserts that no event of the given type is pending for c. A probe
// command is issued first so every earlier command has been dispatched.
func noEvent(t *testing.T, c *Client, eventType string) {
	t.Helper()

	c.Commands <- &Command{Name: proto.CmdList}
	for {
		select {
		case ev, ok := <-c.Events:
			if !ok {
				t.Fatalf("event stream closed")
			}
			if ev.Type == eventType {
				t.Fatalf("unexpected event %s: %+v", eventType, ev)
			}
			if ev.Type == proto.EventChannelList {
				return
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("probe response never arrived")
		}
	}
}
