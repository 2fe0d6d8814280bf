package handlers

import (
	"log"
	"net/http"

	"github.com/Piyush-Mishra-IIITB/socket/internal/relay"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin checking is handled by middleware
		return true
	},
}

// HandleSignaling upgrades the connection and hands it to the hub. The
// endpoint gets its identifier from the registry, not from the client.
func HandleSignaling(hub *relay.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("failed to upgrade connection: %v", err)
			return
		}
		hub.HandleConn(conn)
	}
}

// Endpoints reports the current live set, mirroring what clients see
// in presence broadcasts.
func Endpoints(hub *relay.Hub) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"endpoints": hub.Registry().LiveSet()})
	}
}
