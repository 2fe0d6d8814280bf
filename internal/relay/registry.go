package relay

import (
	"encoding/json"
	"log"
	"sort"
	"sync"

	"github.com/Piyush-Mishra-IIITB/socket/internal/models"
	"github.com/google/uuid"
)

// PresenceMirror receives best-effort copies of registry mutations so
// presence can be observed outside the relay process. The in-memory
// set remains the source of truth.
type PresenceMirror interface {
	Add(id string)
	Remove(id string)
}

// Registry is the single source of truth for which endpoints are live.
// Every mutation broadcasts the full presence set to all connected
// endpoints, never a delta.
type Registry struct {
	mu      sync.RWMutex
	clients map[string]*Client
	mirror  PresenceMirror
}

// NewRegistry creates an empty registry. mirror may be nil.
func NewRegistry(mirror PresenceMirror) *Registry {
	return &Registry{
		clients: make(map[string]*Client),
		mirror:  mirror,
	}
}

// Register allocates a fresh endpoint id for c, adds it to the live
// set, sends the client its id and broadcasts the updated presence set
// to everyone, the new client included. It never fails.
func (r *Registry) Register(c *Client) string {
	r.mu.Lock()

	id := uuid.New().String()
	c.ID = id
	r.clients[id] = c

	if welcome, err := models.NewEnvelope(models.KindWelcome, id, models.Welcome{ID: id}); err != nil {
		log.Printf("failed to build welcome envelope for %s: %v", id, err)
	} else if data, err := json.Marshal(welcome); err != nil {
		log.Printf("failed to marshal welcome for %s: %v", id, err)
	} else {
		c.enqueue(data)
	}
	r.broadcastPresenceLocked()
	r.mu.Unlock()

	// The mirror does network I/O; it must never stall lookups.
	if r.mirror != nil {
		r.mirror.Add(id)
	}
	return id
}

// Unregister removes id from the live set and broadcasts the updated
// presence set. Absent ids are a no-op.
func (r *Registry) Unregister(id string) {
	r.mu.Lock()

	if _, ok := r.clients[id]; !ok {
		r.mu.Unlock()
		return
	}
	delete(r.clients, id)
	r.broadcastPresenceLocked()
	r.mu.Unlock()

	if r.mirror != nil {
		r.mirror.Remove(id)
	}
}

// LiveSet returns a sorted point-in-time snapshot of live endpoint ids.
func (r *Registry) LiveSet() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.liveSetLocked()
}

func (r *Registry) liveSetLocked() []string {
	ids := make([]string, 0, len(r.clients))
	for id := range r.clients {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// lookup returns the live client for id, if any.
func (r *Registry) lookup(id string) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	c, ok := r.clients[id]
	return c, ok
}

// broadcastPresenceLocked sends the full live set to every connected
// endpoint. Holding the lock keeps the broadcast consistent with the
// snapshot it describes.
func (r *Registry) broadcastPresenceLocked() {
	env, err := models.NewEnvelope(models.KindPresence, "", models.Presence{Endpoints: r.liveSetLocked()})
	if err != nil {
		log.Printf("failed to build presence envelope: %v", err)
		return
	}
	data, err := json.Marshal(env)
	if err != nil {
		log.Printf("failed to marshal presence: %v", err)
		return
	}
	for _, c := range r.clients {
		c.enqueue(data)
	}
}
