package ws

import (
	"encoding/json"
	"log/slog"
	"sync"

	"hand_hockey/internal/domain"
	"hand_hockey/internal/events"
	"hand_hockey/internal/logger"
)

const (
	MessageSnapshot     = "snapshot"
	MessageNotification = "notification"
)

// Message - кадр, который получает зритель
type Message struct {
	Type         string               `json:"type"`
	Match        *domain.MatchView    `json:"match,omitempty"`
	Notification *domain.Notification `json:"notification,omitempty"`
}

// Snapshotter отдает текущее состояние живого матча
type Snapshotter interface {
	Snapshot(matchID string) (*domain.Match, error)
}

type room struct {
	matchID     string
	clients     map[*Client]struct{}
	unsubscribe func()
}

// Hub держит по одной подписке на шину для каждого матча, у которого есть зрители,
// и раздает уведомления всем его клиентам
type Hub struct {
	bus     *events.Bus
	matches Snapshotter
	log     *slog.Logger

	mu    sync.Mutex
	rooms map[string]*room
}

func NewHub(bus *events.Bus, matches Snapshotter) *Hub {
	return &Hub{
		bus:     bus,
		matches: matches,
		log:     logger.With("component", "ws_hub"),
		rooms:   make(map[string]*room),
	}
}

// Snapshot - первый кадр для нового зрителя
func (h *Hub) Snapshot(matchID string) ([]byte, error) {
	m, err := h.matches.Snapshot(matchID)
	if err != nil {
		return nil, err
	}
	v := m.View()
	return json.Marshal(Message{Type: MessageSnapshot, Match: &v})
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	r, ok := h.rooms[c.MatchID]
	if !ok {
		ch, unsubscribe := h.bus.Subscribe(c.MatchID)
		r = &room{matchID: c.MatchID, clients: make(map[*Client]struct{}), unsubscribe: unsubscribe}
		h.rooms[c.MatchID] = r
		go h.pump(r, ch)
	}
	r.clients[c] = struct{}{}
	h.log.Debug("spectator joined", "match_id", c.MatchID, "user_id", c.UserID, "spectators", len(r.clients))
}

func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.drop(c)
}

// drop убирает клиента из комнаты; вызывается под h.mu
func (h *Hub) drop(c *Client) {
	r, ok := h.rooms[c.MatchID]
	if !ok {
		return
	}
	if _, ok := r.clients[c]; !ok {
		return
	}
	delete(r.clients, c)
	close(c.Send)
	if len(r.clients) == 0 {
		h.closeRoom(r)
	}
}

// closeRoom отписывает комнату от шины; вызывается под h.mu
func (h *Hub) closeRoom(r *room) {
	if h.rooms[r.matchID] == r {
		delete(h.rooms, r.matchID)
	}
	r.unsubscribe()
}

// Spectators - число зрителей матча
func (h *Hub) Spectators(matchID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	if r, ok := h.rooms[matchID]; ok {
		return len(r.clients)
	}
	return 0
}

func (h *Hub) pump(r *room, ch <-chan domain.Notification) {
	for n := range ch {
		data, err := json.Marshal(Message{Type: MessageNotification, Notification: &n})
		if err != nil {
			h.log.Error("failed to encode notification", "match_id", n.MatchID, "kind", n.Kind, "error", err)
			continue
		}
		h.broadcast(r, data, n.To.Terminal())
	}
}

func (h *Hub) broadcast(r *room, data []byte, last bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range r.clients {
		select {
		case c.Send <- data:
		default:
			h.log.Warn("spectator is too slow, disconnecting", "match_id", r.matchID, "user_id", c.UserID)
			delete(r.clients, c)
			close(c.Send)
		}
	}
	if last {
		// матч окончен: закрываем соединения после последнего кадра
		for c := range r.clients {
			close(c.Send)
		}
		r.clients = make(map[*Client]struct{})
		h.closeRoom(r)
		return
	}
	if len(r.clients) == 0 {
		h.closeRoom(r)
	}
}
