// Package signal is the client side of the relay connection: it dials
// the WebSocket, decodes inbound envelopes and hands them to a Handler.
package signal

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/Piyush-Mishra-IIITB/socket/internal/models"
	"github.com/gorilla/websocket"
)

const pingInterval = 30 * time.Second

// Handler receives decoded relay events.
type Handler interface {
	// OnWelcome delivers the endpoint id the relay assigned us.
	OnWelcome(id string)
	// OnPresence delivers the full live endpoint set.
	OnPresence(endpoints []string)
	// OnEnvelope delivers any addressed envelope (signaling or chat).
	OnEnvelope(env models.Envelope)
}

// Client manages the WebSocket connection to the relay.
type Client struct {
	conn    *websocket.Conn
	handler Handler

	mu     sync.Mutex
	closed chan struct{}
}

// Dial connects to the relay and starts the read and ping loops.
func Dial(relayURL string, handler Handler) (*Client, error) {
	conn, _, err := websocket.DefaultDialer.Dial(relayURL, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket dial: %w", err)
	}

	c := &Client{
		conn:    conn,
		handler: handler,
		closed:  make(chan struct{}),
	}
	go c.readLoop()
	go c.pingLoop()
	return c, nil
}

// Send writes one envelope to the relay.
func (c *Client) Send(env models.Envelope) error {
	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return fmt.Errorf("write envelope: %w", err)
	}
	return nil
}

// Close shuts down the connection. Safe to call more than once.
func (c *Client) Close() {
	select {
	case <-c.closed:
		return
	default:
		close(c.closed)
	}
	c.conn.Close()
}

func (c *Client) readLoop() {
	defer c.Close()

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.closed:
			default:
				log.Printf("[signal] read error: %v", err)
			}
			return
		}

		var env models.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			log.Printf("[signal] unmarshal error: %v", err)
			continue
		}
		c.dispatch(env)
	}
}

func (c *Client) dispatch(env models.Envelope) {
	switch env.Kind {
	case models.KindWelcome:
		var welcome models.Welcome
		if err := env.Decode(&welcome); err != nil {
			log.Printf("[signal] bad welcome payload: %v", err)
			return
		}
		c.handler.OnWelcome(welcome.ID)

	case models.KindPresence:
		var presence models.Presence
		if err := env.Decode(&presence); err != nil {
			log.Printf("[signal] bad presence payload: %v", err)
			return
		}
		c.handler.OnPresence(presence.Endpoints)

	default:
		c.handler.OnEnvelope(env)
	}
}

func (c *Client) pingLoop() {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-c.closed:
			return
		case <-ticker.C:
			c.mu.Lock()
			err := c.conn.WriteControl(
				websocket.PingMessage,
				[]byte{},
				time.Now().Add(5*time.Second),
			)
			c.mu.Unlock()
			if err != nil {
				select {
				case <-c.closed:
				default:
					log.Printf("[signal] ping error: %v", err)
				}
				return
			}
		}
	}
}
