// Package live pushes recorded scans to dashboards over websockets.
// Each school is a separate room.
package live

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/anishka-v/eco-dining/internal/ledger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
	sendBuffer = 32
)

type Message struct {
	Type      string        `json:"type"`
	Timestamp string        `json:"timestamp"`
	SchoolID  string        `json:"school_id"`
	Data      ledger.Record `json:"data"`
}

// ClientGauge tracks connected dashboards.
type ClientGauge interface {
	LiveClientConnected()
	LiveClientDisconnected()
}

type client struct {
	id     string
	school string
	conn   *websocket.Conn
	send   chan []byte
}

type Hub struct {
	mu       sync.RWMutex
	rooms    map[string]map[*client]struct{}
	upgrader websocket.Upgrader
	gauge    ClientGauge
	log      *slog.Logger
}

// NewHub accepts upgrades from the listed origins. An empty list or "*"
// accepts any origin.
func NewHub(allowedOrigins []string, gauge ClientGauge, log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	h := &Hub{
		rooms: make(map[string]map[*client]struct{}),
		gauge: gauge,
		log:   log.With(slog.String("component", "live_hub")),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		if o == "*" {
			return func(*http.Request) bool { return true }
		}
		set[o] = true
	}
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		return origin == "" || len(set) == 0 || set[origin]
	}
}

// ServeWS upgrades the request and joins the caller's school room. The
// school comes from the "schoolID" context key set by the scope middleware.
func (h *Hub) ServeWS(c *gin.Context) {
	school := c.GetString("schoolID")
	if school == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "school_id required"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("ws_upgrade_err", slog.Any("err", err))
		return
	}

	cl := &client{
		id:     uuid.NewString(),
		school: school,
		conn:   conn,
		send:   make(chan []byte, sendBuffer),
	}
	h.register(cl)

	go h.writePump(cl)
	go h.readPump(cl)
}

// OnScan broadcasts a recorded scan to its school's room. Slow clients
// are disconnected rather than allowed to block the caller.
func (h *Hub) OnScan(rec ledger.Record) {
	rec.Impact = rec.Impact.Rounded()
	msg, err := json.Marshal(Message{
		Type:      "scan_recorded",
		Timestamp: rec.Timestamp.UTC().Format(time.RFC3339),
		SchoolID:  rec.SchoolID,
		Data:      rec,
	})
	if err != nil {
		h.log.Error("ws_encode_err", slog.Any("err", err))
		return
	}

	var slow []*client
	h.mu.RLock()
	for cl := range h.rooms[rec.SchoolID] {
		select {
		case cl.send <- msg:
		default:
			slow = append(slow, cl)
		}
	}
	h.mu.RUnlock()

	for _, cl := range slow {
		h.log.Warn("ws_client_slow", slog.String("client_id", cl.id))
		h.unregister(cl)
	}
}

// Clients returns the number of connections in a school's room.
func (h *Hub) Clients(school string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[school])
}

func (h *Hub) register(cl *client) {
	h.mu.Lock()
	if h.rooms[cl.school] == nil {
		h.rooms[cl.school] = make(map[*client]struct{})
	}
	h.rooms[cl.school][cl] = struct{}{}
	h.mu.Unlock()

	if h.gauge != nil {
		h.gauge.LiveClientConnected()
	}
	h.log.Info("ws_client_connected",
		slog.String("client_id", cl.id),
		slog.String("school_id", cl.school),
	)
}

func (h *Hub) unregister(cl *client) {
	h.mu.Lock()
	room, ok := h.rooms[cl.school]
	if ok {
		if _, ok = room[cl]; ok {
			delete(room, cl)
			close(cl.send)
			if len(room) == 0 {
				delete(h.rooms, cl.school)
			}
		}
	}
	h.mu.Unlock()

	if !ok {
		return
	}
	if h.gauge != nil {
		h.gauge.LiveClientDisconnected()
	}
	h.log.Info("ws_client_disconnected",
		slog.String("client_id", cl.id),
		slog.String("school_id", cl.school),
	)
}

// readPump only services pings and close frames; dashboards never send data.
func (h *Hub) readPump(cl *client) {
	defer func() {
		h.unregister(cl)
		cl.conn.Close()
	}()

	cl.conn.SetReadLimit(512)
	_ = cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	cl.conn.SetPongHandler(func(string) error {
		return cl.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := cl.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Warn("ws_read_err", slog.Any("err", err), slog.String("client_id", cl.id))
			}
			return
		}
	}
}

func (h *Hub) writePump(cl *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cl.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-cl.send:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = cl.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := cl.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			_ = cl.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := cl.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
