package hub

import (
	"encoding/json"
	"sync"

	"github.com/openfloor/qna-service/pkg/log"
)

// Role tags a session with the view it serves.
type Role string

const (
	RolePublic    Role = "public"
	RoleModerator Role = "moderator"
)

// Audience selects which sessions receive a published event.
type Audience string

const (
	AudienceAll       Audience = "all"
	AudiencePublic    Audience = "public"
	AudienceModerator Audience = "moderator"
)

// Hub tracks live sessions tagged by role and fans events out to the
// audience that should see them. Registration, unregistration and publish
// all run under the hub mutex: registration must be synchronous so that a
// session's bootstrap snapshot is enqueued before it can receive events,
// and serialized publishes give every session the same FIFO event order.
type Hub struct {
	clients map[string]*Client
	mu      sync.Mutex
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]*Client),
	}
}

// Register adds a client to the hub. From this point on the client receives
// every event published to an audience matching its roles.
func (h *Hub) Register(client *Client) {
	h.mu.Lock()
	h.clients[client.ID] = client
	h.mu.Unlock()

	l := log.L()
	l.Debug().Str(log.FieldClientID, client.ID).Strs("roles", roleStrings(client.Roles)).Msg("client registered")
}

// Unregister removes a client from the hub and closes its send channel.
// Safe to call more than once for the same client.
func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	_, ok := h.clients[client.ID]
	if ok {
		delete(h.clients, client.ID)
	}
	h.mu.Unlock()

	if ok {
		client.closeSend()
		l := log.L()
		l.Debug().Str(log.FieldClientID, client.ID).Msg("client unregistered")
	}
}

// Publish marshals the message once and enqueues it to every currently
// registered session matching the audience. Delivery per session preserves
// the order in which Publish calls were made. A session whose send buffer
// is full is evicted asynchronously rather than blocking the publish.
func (h *Hub) Publish(audience Audience, message interface{}) error {
	data, err := json.Marshal(message)
	if err != nil {
		return err
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for _, client := range h.clients {
		if !matches(audience, client.Roles) {
			continue
		}
		if !client.enqueue(data) {
			go h.Unregister(client)
		}
	}
	return nil
}

// ClientCount returns the number of registered sessions.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func matches(audience Audience, roles []Role) bool {
	if audience == AudienceAll {
		return true
	}
	for _, role := range roles {
		if Audience(role) == audience {
			return true
		}
	}
	return false
}

func roleStrings(roles []Role) []string {
	out := make([]string, len(roles))
	for i, r := range roles {
		out[i] = string(r)
	}
	return out
}
