package orders

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"boutique/globals"
	"boutique/middleware"
	"boutique/models"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

// AdminFeedRoom receives every status event. Each user additionally
// gets a room keyed by their userid carrying only their own orders.
const AdminFeedRoom = "orders"

type Client struct {
	Conn   *websocket.Conn
	Send   chan []byte
	Room   string
	UserID string
}

type broadcastMsg struct {
	Room string
	Data []byte
}

type Hub struct {
	rooms      map[string]map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan broadcastMsg
	done       chan struct{}
	mu         sync.Mutex
}

func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[string]map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan broadcastMsg),
		done:       make(chan struct{}),
	}
}

func (h *Hub) Run() {
	for {
		select {
		case <-h.done:
			return

		case c := <-h.register:
			h.mu.Lock()
			if h.rooms[c.Room] == nil {
				h.rooms[c.Room] = make(map[*Client]bool)
			}
			h.rooms[c.Room][c] = true
			h.mu.Unlock()

		case c := <-h.unregister:
			h.mu.Lock()
			if conns := h.rooms[c.Room]; conns != nil {
				// Skip clients already evicted by a full broadcast;
				// their Send channel is closed.
				if _, ok := conns[c]; ok {
					delete(conns, c)
					close(c.Send)
				}
			}
			h.mu.Unlock()

		case m := <-h.broadcast:
			h.mu.Lock()
			for c := range h.rooms[m.Room] {
				select {
				case c.Send <- m.Data:
				default:
					close(c.Send)
					delete(h.rooms[m.Room], c)
				}
			}
			h.mu.Unlock()
		}
	}
}

func (h *Hub) Stop() { close(h.done) }

// Publish fans a status event out to the admin feed and to the room of
// the order's owner. Wire it as Lifecycle.Broadcast.
func (h *Hub) Publish(ev StatusEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	h.broadcast <- broadcastMsg{Room: AdminFeedRoom, Data: data}
	if ev.UserID != "" {
		h.broadcast <- broadcastMsg{Room: ev.UserID, Data: data}
	}
}

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// StatusFeed upgrades the connection and subscribes the caller. Admins
// and super admins join the global feed, everyone else joins their own
// room and only sees their own orders.
func StatusFeed(hub *Hub) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		userID, ok := r.Context().Value(globals.UserIDKey).(string)
		if !ok || userID == "" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		role, _ := r.Context().Value(globals.RoleKey).(string)

		room := userID
		if middleware.HasRole(role, models.RoleAdmin, models.RoleSuperAdmin) {
			room = AdminFeedRoom
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("upgrade:", err)
			return
		}

		client := &Client{
			Conn:   conn,
			Send:   make(chan []byte, 256),
			Room:   room,
			UserID: userID,
		}

		hub.register <- client
		go writePump(client)
		go readPump(client, hub)
	}
}

func writePump(c *Client) {
	defer c.Conn.Close()
	for msg := range c.Send {
		if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			break
		}
	}
}

// The feed is one-way. Reads only watch for the close frame.
func readPump(c *Client, hub *Hub) {
	defer func() {
		hub.unregister <- c
		c.Conn.Close()
	}()
	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			break
		}
	}
}
