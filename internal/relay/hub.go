package relay

import (
	"encoding/json"
	"log"

	"github.com/Piyush-Mishra-IIITB/socket/internal/models"
	"github.com/gorilla/websocket"
)

// Hub ties the registry, router and chat relay to live WebSocket
// connections. One inbound message per connection is processed to
// completion before the next; independent connections proceed
// concurrently.
type Hub struct {
	registry *Registry
	router   *Router
	chat     *ChatRelay
}

func NewHub(mirror PresenceMirror) *Hub {
	registry := NewRegistry(mirror)
	router := NewRouter(registry)
	return &Hub{
		registry: registry,
		router:   router,
		chat:     NewChatRelay(router),
	}
}

// Registry exposes the live-endpoint view for the HTTP layer.
func (h *Hub) Registry() *Registry {
	return h.registry
}

// HandleConn registers the connection as a new endpoint and runs its
// read and write pumps. It returns once registration is done; the
// pumps own the connection from then on.
func (h *Hub) HandleConn(conn *websocket.Conn) {
	client := NewClient(conn)
	id := h.registry.Register(client)
	log.Printf("endpoint %s connected", id)

	go client.writePump()
	go client.readPump(h)
}

// dispatch routes one raw inbound message from c. Unknown kinds are
// logged and dropped.
func (h *Hub) dispatch(c *Client, raw []byte) {
	var env models.Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		log.Printf("failed to parse message from %s: %v", c.ID, err)
		return
	}

	switch {
	case env.Kind.IsSignaling():
		h.router.Route(c.ID, env)
	case env.Kind == models.KindChatMessage:
		var msg models.ChatMessage
		if err := env.Decode(&msg); err != nil {
			log.Printf("failed to parse chat payload from %s: %v", c.ID, err)
			return
		}
		h.chat.Send(c.ID, env.To, msg.Text)
	default:
		log.Printf("unknown message kind from %s: %s", c.ID, env.Kind)
	}
}
