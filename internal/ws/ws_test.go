package ws

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"hand_hockey/internal/domain"
	"hand_hockey/internal/events"
	"hand_hockey/internal/service"
)

type liveMatches struct {
	mu      sync.Mutex
	matches map[string]*domain.Match
}

func (l *liveMatches) Snapshot(id string) (*domain.Match, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.matches[id]
	if !ok {
		return nil, domain.ErrMatchNotFound
	}
	return m.Clone(), nil
}

type fixedToken struct{}

func (fixedToken) Parse(token string) (*service.Claims, error) {
	if token != "good" {
		return nil, service.ErrInvalidToken
	}
	return &service.Claims{UserID: 7}, nil
}

func newServer(t *testing.T) (*httptest.Server, *events.Bus, *Hub) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	m := domain.NewMatch("match_LIVE01", 1, -100, 1, time.Unix(1700000000, 0), time.Minute)
	if err := m.Roster.Add(domain.MatchPlayer{PlayerID: 1, Name: "@host"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	bus := events.NewBus()
	hub := NewHub(bus, &liveMatches{matches: map[string]*domain.Match{m.ID: m}})

	r := gin.New()
	r.GET("/ws/matches/:id", NewHandler(hub, fixedToken{}, "*").HandleWS)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, bus, hub
}

func dial(t *testing.T, srv *httptest.Server, path string) (*websocket.Conn, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Cleanup(func() { conn.Close() })
	}
	return conn, err
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("чтение: %v", err)
	}
	var msg Message
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("json: %v", err)
	}
	return msg
}

func waitSpectators(t *testing.T, hub *Hub, matchID string, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for hub.Spectators(matchID) != n {
		if time.Now().After(deadline) {
			t.Fatalf("зрителей %d, ожидали %d", hub.Spectators(matchID), n)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestHandleWS_SnapshotThenNotifications(t *testing.T) {
	srv, bus, hub := newServer(t)

	conn, err := dial(t, srv, "/ws/matches/match_LIVE01?token=good")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}

	snap := readMessage(t, conn)
	if snap.Type != MessageSnapshot || snap.Match == nil || snap.Match.ID != "match_LIVE01" {
		t.Fatalf("первым кадром ожидали снимок, получили %+v", snap)
	}
	if len(snap.Match.Players) != 1 {
		t.Fatalf("в снимке %d игроков, ожидали 1", len(snap.Match.Players))
	}
	waitSpectators(t, hub, "match_LIVE01", 1)

	bus.Notify(context.Background(), domain.Notification{MatchID: "match_OTHER", Kind: domain.NoteStarted})
	bus.Notify(context.Background(), domain.Notification{
		MatchID: "match_LIVE01", Kind: domain.NoteStarted, From: domain.StateTossed, To: domain.StateInProgress,
	})
	got := readMessage(t, conn)
	if got.Type != MessageNotification || got.Notification.Kind != domain.NoteStarted || got.Notification.MatchID != "match_LIVE01" {
		t.Fatalf("неожиданный кадр: %+v", got)
	}

	bus.Notify(context.Background(), domain.Notification{
		MatchID: "match_LIVE01", Kind: domain.NoteCancelled, From: domain.StateInProgress, To: domain.StateCancelled,
	})
	if got := readMessage(t, conn); got.Notification.Kind != domain.NoteCancelled {
		t.Fatalf("ожидали отмену, получили %+v", got)
	}

	// после конечного состояния сервер закрывает соединение
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); !websocket.IsCloseError(err, websocket.CloseNormalClosure) {
		t.Fatalf("ожидали закрытие соединения, получили %v", err)
	}
	waitSpectators(t, hub, "match_LIVE01", 0)
	if bus.Subscribers("match_LIVE01") != 0 {
		t.Fatalf("подписка на шину не снята")
	}
}

func TestHandleWS_Rejects(t *testing.T) {
	srv, _, _ := newServer(t)

	tests := []struct {
		name   string
		path   string
		status int
	}{
		{"без токена", "/ws/matches/match_LIVE01", 401},
		{"плохой токен", "/ws/matches/match_LIVE01?token=bad", 401},
		{"нет матча", "/ws/matches/match_NONE00?token=good", 404},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			url := "ws" + strings.TrimPrefix(srv.URL, "http") + tt.path
			_, resp, err := websocket.DefaultDialer.Dial(url, nil)
			if err == nil {
				t.Fatalf("ожидали отказ")
			}
			if resp == nil || resp.StatusCode != tt.status {
				t.Fatalf("ожидали статус %d, получили %v", tt.status, resp)
			}
		})
	}
}

func TestHub_Unregister(t *testing.T) {
	srv, bus, hub := newServer(t)

	conn, err := dial(t, srv, "/ws/matches/match_LIVE01?token=good")
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	readMessage(t, conn)
	waitSpectators(t, hub, "match_LIVE01", 1)

	conn.Close()
	waitSpectators(t, hub, "match_LIVE01", 0)
	deadline := time.Now().Add(time.Second)
	for bus.Subscribers("match_LIVE01") != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("подписка на шину не снята после ухода зрителя")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
