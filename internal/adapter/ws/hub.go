// Package ws pushes progress events to connected browsers over websockets.
package ws

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"stressless/internal/app"
	"stressless/internal/domain"
	"stressless/internal/metrics"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 32
	outboundBuffer = 256

	// Channel is the Redis pub/sub channel shared by all instances.
	Channel = "stressless:events"
)

// Event types pushed to clients.
const (
	EventRecommendation    = "recommendation"
	EventNoExercise        = "no_exercise"
	EventTimerTick         = "timer_tick"
	EventTimerExpired      = "timer_expired"
	EventSessionFinalized  = "session_finalized"
	EventAchievementEarned = "achievement_earned"
)

var _ app.Presenter = (*Hub)(nil)

// Event is the JSON frame written to a client.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data,omitempty"`
}

type envelope struct {
	UserID  string          `json:"userId"`
	Payload json.RawMessage `json:"payload"`
}

type client struct {
	userID string
	conn   *websocket.Conn
	send   chan []byte
}

// Hub fans events out to the websocket connections of each user. With a
// Redis client, events are published on Channel and every instance delivers
// them to its own connections.
type Hub struct {
	mu       sync.RWMutex
	clients  map[string]map[*client]struct{}
	outbound chan envelope
	rdb      *redis.Client
	logger   *zap.Logger
	upgrader websocket.Upgrader
}

// NewHub returns a Hub. rdb may be nil for a single instance.
func NewHub(rdb *redis.Client, logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients:  make(map[string]map[*client]struct{}),
		outbound: make(chan envelope, outboundBuffer),
		rdb:      rdb,
		logger:   logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}
}

// Run delivers queued events until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	var incoming <-chan *redis.Message
	if h.rdb != nil {
		pubsub := h.rdb.Subscribe(ctx, Channel)
		defer pubsub.Close() //nolint:errcheck
		incoming = pubsub.Channel()
	}

	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case env := <-h.outbound:
			if h.rdb == nil {
				h.deliver(env.UserID, env.Payload)
				continue
			}
			data, err := json.Marshal(env)
			if err != nil {
				h.logger.Error("marshal envelope", zap.Error(err))
				continue
			}
			if err := h.rdb.Publish(ctx, Channel, data).Err(); err != nil {
				h.logger.Warn("publish event, delivering locally", zap.Error(err))
				h.deliver(env.UserID, env.Payload)
			}
		case msg, ok := <-incoming:
			if !ok {
				incoming = nil
				continue
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				h.logger.Warn("pubsub unmarshal", zap.Error(err))
				continue
			}
			h.deliver(env.UserID, env.Payload)
		}
	}
}

// ServeWS upgrades the request and attaches the connection to userID.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, userID string) error {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	c := &client{userID: userID, conn: conn, send: make(chan []byte, sendBuffer)}
	h.register(c)
	go c.writePump()
	go h.readPump(c)
	return nil
}

// Connections returns the number of open connections for userID.
func (h *Hub) Connections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	set := h.clients[c.userID]
	if set == nil {
		set = make(map[*client]struct{})
		h.clients[c.userID] = set
	}
	set[c] = struct{}{}
	h.mu.Unlock()
	metrics.WSConnected(1)
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	set := h.clients[c.userID]
	if _, ok := set[c]; !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(h.clients, c.userID)
	}
	close(c.send)
	metrics.WSConnected(-1)
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, set := range h.clients {
		for c := range set {
			close(c.send)
			metrics.WSConnected(-1)
		}
		delete(h.clients, userID)
	}
}

func (h *Hub) deliver(userID string, payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients[userID] {
		select {
		case c.send <- payload:
		default:
			metrics.RecordWSDropped()
		}
	}
}

// publish queues ev for userID without blocking the caller.
func (h *Hub) publish(userID string, ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("marshal event", zap.String("type", ev.Type), zap.Error(err))
		return
	}
	select {
	case h.outbound <- envelope{UserID: userID, Payload: payload}:
	default:
		metrics.RecordWSDropped()
		h.logger.Warn("event queue full", zap.String("type", ev.Type), zap.String("user_id", userID))
	}
}

func (h *Hub) readPump(c *client) {
	defer func() {
		h.unregister(c)
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.logger.Debug("websocket closed", zap.String("user_id", c.userID), zap.Error(err))
			}
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// --- app.Presenter ---

func (h *Hub) OnRecommendationReady(userID string, ex domain.ExerciseDefinition) {
	h.publish(userID, Event{Type: EventRecommendation, Data: ex})
}

func (h *Hub) OnNoExerciseAvailable(userID string) {
	h.publish(userID, Event{Type: EventNoExercise, Data: map[string]string{
		"message": domain.ErrNoExercisesAvailable.Error(),
	}})
}

func (h *Hub) OnTimerTick(userID string, remainingSeconds int, percentElapsed float64) {
	h.publish(userID, Event{Type: EventTimerTick, Data: map[string]any{
		"remainingSeconds": remainingSeconds,
		"percentElapsed":   percentElapsed,
	}})
}

func (h *Hub) OnTimerExpired(userID string) {
	h.publish(userID, Event{Type: EventTimerExpired})
}

func (h *Hub) OnSessionFinalized(userID string, completion float64) {
	h.publish(userID, Event{Type: EventSessionFinalized, Data: map[string]float64{
		"completionPercentage": completion,
	}})
}

func (h *Hub) OnAchievementEarned(userID, name, description string, at time.Time) {
	h.publish(userID, Event{Type: EventAchievementEarned, Data: map[string]any{
		"name":        name,
		"description": description,
		"earnedAt":    at,
	}})
}
