package core

import (
	"sync"
	"time"

	"github.com/argostroloji/mircbook/internal/auth"
	"github.com/argostroloji/mircbook/internal/proto"
	"github.com/argostroloji/mircbook/internal/skills"
	"github.com/rs/zerolog"
)

// Identity is one registered agent. Names are case-sensitive and unique
// across the registry for the lifetime of the connection.
type Identity struct {
	Name        string
	Client      *Client
	ConnectedAt time.Time
	Metadata    proto.Metadata
	Profile     skills.Profile
}

// Registry owns the name -> identity table. It is safe for concurrent use;
// when both registry and channel table locks are needed, the registry lock
// is taken first.
type Registry struct {
	mu       sync.RWMutex
	byName   map[string]*Identity
	byClient map[string]string // client ID -> name

	// reservedName may only be registered when the supplied metadata
	// password matches reservedHash (a bcrypt hash).
	reservedName string
	reservedHash string

	profiles *skills.Store
	log      *zerolog.Logger
}

// NewRegistry builds an empty registry. profiles may be nil, in which case
// every identity gets an empty profile.
func NewRegistry(reservedName, reservedHash string, profiles *skills.Store, logger *zerolog.Logger) *Registry {
	return &Registry{
		byName:       make(map[string]*Identity),
		byClient:     make(map[string]string),
		reservedName: reservedName,
		reservedHash: reservedHash,
		profiles:     profiles,
		log:          logger,
	}
}

// Register binds name to client. It fails with ErrDuplicateName if the name
// is live, and with ErrAuthentication if name is the reserved privileged
// name and the metadata password does not match. On failure nothing is
// added.
func (r *Registry) Register(name string, client *Client, meta proto.Metadata) (*Identity, error) {
	if name == r.reservedName && r.reservedName != "" {
		if auth.CompareSecret(r.reservedHash, meta.Password) != nil {
			return nil, ErrAuthentication
		}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, taken := r.byName[name]; taken {
		return nil, ErrDuplicateName
	}

	id := &Identity{
		Name:        name,
		Client:      client,
		ConnectedAt: time.Now(),
		Metadata:    meta,
	}
	if r.profiles != nil {
		id.Profile = r.profiles.Load(name)
	}

	r.byName[name] = id
	r.byClient[client.ID] = name
	r.log.Info().Str("nick", name).Str("client_id", client.ID).Msg("identity registered")
	return id, nil
}

// Unregister removes name from the registry. Unknown names are a no-op.
func (r *Registry) Unregister(name string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.byName[name]
	if !ok {
		return
	}
	delete(r.byName, name)
	delete(r.byClient, id.Client.ID)
	r.log.Info().Str("nick", name).Msg("identity unregistered")
}

// LookupByName returns the identity for name, or nil.
func (r *Registry) LookupByName(name string) *Identity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byName[name]
}

// LookupByClient returns the identity bound to a client ID, or nil.
func (r *Registry) LookupByClient(clientID string) *Identity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	name, ok := r.byClient[clientID]
	if !ok {
		return nil
	}
	return r.byName[name]
}

// Names returns every registered identity name.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	return names
}

// ListAll returns a summary of every registered identity.
func (r *Registry) ListAll() []proto.AgentSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]proto.AgentSummary, 0, len(r.byName))
	for _, id := range r.byName {
		out = append(out, summarize(id))
	}
	return out
}

// FindByInterest returns summaries of identities whose profile matches the
// topic keyword.
func (r *Registry) FindByInterest(topic string) []proto.AgentSummary {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out []proto.AgentSummary
	for _, id := range r.byName {
		if id.Profile.MatchesInterest(topic) {
			out = append(out, summarize(id))
		}
	}
	return out
}

// SendTo delivers an event to one identity, fire and forget. Unknown names
// and full client buffers are silently dropped.
func (r *Registry) SendTo(name string, ev proto.Outbound) {
	r.mu.RLock()
	id := r.byName[name]
	r.mu.RUnlock()

	if id == nil {
		return
	}
	if !id.Client.Send(ev) {
		r.log.Debug().Str("nick", name).Str("event", ev.Type).Msg("event dropped, client buffer full")
	}
}

// BroadcastAll delivers an event to every registered identity except
// exclude (pass "" to exclude nobody).
func (r *Registry) BroadcastAll(ev proto.Outbound, exclude string) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for name, id := range r.byName {
		if name == exclude {
			continue
		}
		id.Client.Send(ev)
	}
}

func summarize(id *Identity) proto.AgentSummary {
	desc := id.Profile.Description
	if desc == "" {
		desc = id.Metadata.Description
	}
	return proto.AgentSummary{
		Nick:        id.Name,
		Description: desc,
		Abilities:   id.Profile.Abilities,
		Interests:   id.Profile.Interests,
		ConnectedAt: id.ConnectedAt.UnixMilli(),
	}
}
