package handlers

import (
	"log"

	websocketcontrib "github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/mnacademy/academy/websocket"
)

// ServeDashboardWs keeps a learner's dashboard session open so issuance
// events reach it live. The first frame must be an auth message carrying a
// valid JWT.
func ServeDashboardWs(c *websocketcontrib.Conn) {
	type AuthMessage struct {
		Type  string `json:"type"`
		Token string `json:"token"`
	}
	var authMsg AuthMessage
	if err := c.ReadJSON(&authMsg); err != nil || authMsg.Type != "auth" {
		_ = c.WriteJSON(fiber.Map{"error": "Invalid or missing auth message"})
		c.Close()
		return
	}

	claims, err := parseToken(authMsg.Token)
	if err != nil {
		_ = c.WriteJSON(fiber.Map{"error": "Invalid token"})
		c.Close()
		return
	}

	learnerID, ok := claims["user_id"].(string)
	if !ok || learnerID == "" {
		_ = c.WriteJSON(fiber.Map{"error": "Invalid user ID"})
		c.Close()
		return
	}

	log.Printf("Dashboard WebSocket client authenticated: %s", learnerID)
	client := &websocket.Client{LearnerID: learnerID, Conn: c}
	websocket.Register <- client
	defer func() {
		websocket.Unregister <- client
		c.Close()
	}()

	// Hold the connection open; the hub does all the writing.
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			return
		}
	}
}
