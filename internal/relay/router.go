package relay

import (
	"encoding/json"
	"log"

	"github.com/Piyush-Mishra-IIITB/socket/internal/models"
)

// Router delivers addressed envelopes to live endpoints. Delivery is
// fire-and-forget: an absent target drops the envelope with no signal
// back to the sender, and the sender learns of failure only through
// its own lack of progress.
type Router struct {
	registry *Registry
}

func NewRouter(registry *Registry) *Router {
	return &Router{registry: registry}
}

// Route delivers env to env.To. From is overwritten with the router's
// own record of the sender so recipients never see a spoofed origin.
func (rt *Router) Route(from string, env models.Envelope) {
	env.From = from

	target, ok := rt.registry.lookup(env.To)
	if !ok {
		return
	}

	data, err := json.Marshal(env)
	if err != nil {
		log.Printf("failed to marshal envelope: %v", err)
		return
	}
	target.enqueue(data)
}
