package main

import (
	"log"

	"github.com/Piyush-Mishra-IIITB/socket/config"
	"github.com/Piyush-Mishra-IIITB/socket/internal/handlers"
	"github.com/Piyush-Mishra-IIITB/socket/internal/redis"
	"github.com/Piyush-Mishra-IIITB/socket/internal/relay"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Optional presence mirror
	var mirror relay.PresenceMirror
	if cfg.Redis.Addr != "" {
		m, err := redis.NewMirror(cfg.Redis)
		if err != nil {
			log.Fatalf("Failed to connect to Redis: %v", err)
		}
		defer m.Close()
		mirror = m
		log.Println("Redis presence mirror enabled")
	}

	hub := relay.NewHub(mirror)

	// Setup Gin router
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	// Global CORS middleware (runs before routing)
	router.Use(handlers.OriginFilter(cfg.AllowedOrigins))

	router.GET("/", func(c *gin.Context) {
		c.String(200, "ok")
	})

	// Health check endpoint
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// Live endpoint set, for operators
	router.GET("/endpoints", handlers.Endpoints(hub))

	// WebSocket signaling endpoint
	wsGroup := router.Group("/ws")
	{
		wsGroup.GET("/signal", handlers.HandleSignaling(hub))
	}

	// Start server
	log.Printf("Starting signaling relay on port %s", cfg.Port)
	if err := router.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
