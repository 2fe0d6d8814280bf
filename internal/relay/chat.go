package relay

import (
	"log"

	"github.com/Piyush-Mishra-IIITB/socket/internal/models"
)

// ChatRelay is a stateless pass-through for plain text messages
// between identified endpoints. It shares the Router's best-effort
// delivery policy and adds no lifecycle of its own.
type ChatRelay struct {
	router *Router
}

func NewChatRelay(router *Router) *ChatRelay {
	return &ChatRelay{router: router}
}

// Send relays text from one endpoint to another.
func (cr *ChatRelay) Send(from, to, text string) {
	env, err := models.NewEnvelope(models.KindChatMessage, to, models.ChatMessage{Text: text})
	if err != nil {
		log.Printf("failed to build chat envelope: %v", err)
		return
	}
	cr.router.Route(from, env)
}
