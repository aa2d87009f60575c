package websocket

import (
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"

	"github.com/mnacademy/academy/models"
)

type Client struct {
	LearnerID string
	Conn      *websocket.Conn
}

// IssuedEvent is pushed to a learner's open dashboard sessions the moment
// one of their certificates is issued.
type IssuedEvent struct {
	Type        string             `json:"type"`
	Certificate models.Certificate `json:"certificate"`
}

var clients = make(map[string]*websocket.Conn)
var clientsMu sync.RWMutex
var Register = make(chan *Client)
var Unregister = make(chan *Client)
var Issued = make(chan models.Certificate, 16)

func RunHub() {
	for {
		select {
		case client := <-Register:
			log.Printf("Dashboard client registered: %s", client.LearnerID)
			clientsMu.Lock()
			clients[client.LearnerID] = client.Conn
			clientsMu.Unlock()
		case client := <-Unregister:
			log.Printf("Dashboard client unregistered: %s", client.LearnerID)
			clientsMu.Lock()
			if conn, ok := clients[client.LearnerID]; ok && conn == client.Conn {
				delete(clients, client.LearnerID)
			}
			clientsMu.Unlock()
		case cert := <-Issued:
			clientsMu.RLock()
			conn, ok := clients[cert.LearnerID]
			clientsMu.RUnlock()
			if !ok {
				continue
			}
			event := IssuedEvent{Type: "certificate_issued", Certificate: cert}
			if err := conn.WriteJSON(event); err != nil {
				log.Printf("Error pushing issuance event to learner %s: %v", cert.LearnerID, err)
				conn.Close()
				clientsMu.Lock()
				delete(clients, cert.LearnerID)
				clientsMu.Unlock()
			}
		}
	}
}

// NotifyIssued hands a freshly issued certificate to the hub without
// blocking the issuance path when no hub is running.
func NotifyIssued(cert models.Certificate) {
	select {
	case Issued <- cert:
	default:
	}
}
