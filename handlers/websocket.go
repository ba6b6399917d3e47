package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"

	"ecopulse-analytics-api/middleware"
	"ecopulse-analytics-api/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// RecordFeed streams record write events to websocket clients. When an auth
// service is configured the token query parameter must carry the admin role.
func RecordFeed(cache *services.CacheService, authService *services.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if authService != nil {
			tokenStr := c.Query("token")
			if tokenStr == "" {
				c.JSON(http.StatusUnauthorized, gin.H{"status": "error", "message": "missing token query parameter"})
				return
			}
			if _, err := authService.Authorize(tokenStr, services.RoleAdmin); err != nil {
				c.JSON(middleware.AuthStatus(err), gin.H{"status": "error", "message": middleware.AuthMessage(err)})
				return
			}
		}
		if cache == nil || !cache.Available() {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "error", "message": "live updates unavailable"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Printf("websocket upgrade failed: %v", err)
			return
		}
		defer conn.Close()

		ctx, cancel := context.WithCancel(c.Request.Context())
		defer cancel()

		// Read pump: detect client disconnect
		go func() {
			defer cancel()
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()

		pubsub := cache.Subscribe(ctx, services.RecordsChannel)
		defer pubsub.Close()

		ch := pubsub.Channel()

		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				err := conn.WriteJSON(gin.H{
					"type": "record_update",
					"data": json.RawMessage(msg.Payload),
				})
				if err != nil {
					log.Printf("ws write error: %v", err)
					return
				}
			}
		}
	}
}
