package http

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	stdhttp "net/http"
	"net/http/httptest"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"hand_hockey/internal/domain"
	"hand_hockey/internal/http/handlers"
	"hand_hockey/internal/ratelimit"
	"hand_hockey/internal/service"
)

const botToken = "test-bot-token"

type fakeLive struct {
	matches   map[string]*domain.Match
	cancelled []string
}

func (f *fakeLive) List() []*domain.Match {
	out := make([]*domain.Match, 0, len(f.matches))
	for _, m := range f.matches {
		out = append(out, m.Clone())
	}
	return out
}

func (f *fakeLive) Snapshot(id string) (*domain.Match, error) {
	if m, ok := f.matches[id]; ok {
		return m.Clone(), nil
	}
	return nil, domain.ErrMatchNotFound
}

func (f *fakeLive) ByPlayer(playerID int64) (*domain.Match, error) {
	for _, m := range f.matches {
		if _, ok := m.Roster.Get(playerID); ok {
			return m.Clone(), nil
		}
	}
	return nil, domain.ErrMatchNotFound
}

func (f *fakeLive) Cancel(_ context.Context, id string, actor int64) (*domain.Match, error) {
	m, ok := f.matches[id]
	if !ok {
		return nil, domain.ErrMatchNotFound
	}
	if m.State.Terminal() {
		return nil, &domain.StateConflictError{Op: "cancel", Current: m.State, Requested: domain.StateCancelled}
	}
	m.State = domain.StateCancelled
	f.cancelled = append(f.cancelled, id)
	return m.Clone(), nil
}

type fakeArchive struct {
	matches map[string]*domain.Match
	events  map[string][]domain.ActionEvent
	err     error
}

func (f *fakeArchive) GetByID(_ context.Context, id string) (*domain.Match, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.matches[id], nil
}

func (f *fakeArchive) Events(_ context.Context, id string) ([]domain.ActionEvent, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.events[id], nil
}

type fakePlayers map[int64]*domain.Player

func (f fakePlayers) GetByID(_ context.Context, id int64) (*domain.Player, error) {
	return f[id], nil
}

func (f fakePlayers) Top(_ context.Context, limit int) ([]*domain.Player, error) {
	out := make([]*domain.Player, 0, len(f))
	for _, p := range f {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Goals > out[j].Goals })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fixture struct {
	router  stdhttp.Handler
	live    *fakeLive
	archive *fakeArchive
	auth    *service.Auth
}

func newFixture(t *testing.T, limiter ratelimit.Limiter) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	created := time.Unix(1700000000, 0)
	live := domain.NewMatch("match_LIVE01", 1, -100, 1, created, 10*time.Minute)
	if err := live.Roster.Add(domain.MatchPlayer{PlayerID: 1, Name: "@host", Team: domain.TeamA, Role: domain.RoleStriker}); err != nil {
		t.Fatalf("add: %v", err)
	}
	archived := domain.NewMatch("match_DONE01", 2, -200, 1, created.Add(-time.Hour), 10*time.Minute)
	archived.State = domain.StateFinished
	archived.Score = domain.Score{A: 3, B: 1}

	auth, err := service.NewAuth("0123456789abcdef-secret", time.Hour)
	if err != nil {
		t.Fatalf("auth: %v", err)
	}

	f := &fixture{
		live: &fakeLive{matches: map[string]*domain.Match{live.ID: live}},
		archive: &fakeArchive{
			matches: map[string]*domain.Match{archived.ID: archived},
			events: map[string][]domain.ActionEvent{archived.ID: {
				{ID: "ev-1", MatchID: archived.ID, Round: 1, Scenario: domain.ScenarioShooting, Category: domain.OutcomeBreakthrough},
			}},
		},
		auth: auth,
	}
	players := fakePlayers{
		1: {ID: 1, Username: "host", Goals: 5, MatchesPlayed: 3, Rating: 7.1},
		2: {ID: 2, FirstName: "Петя", Goals: 9, MatchesPlayed: 4, Rating: 6.4},
	}
	isAdmin := func(id int64) bool { return id == 99 }
	h := handlers.New(f.live, f.archive, players, auth, botToken, isAdmin)

	f.router = NewRouter(Deps{
		Handler:       h,
		Limiter:       limiter,
		Metrics:       stdhttp.NotFoundHandler(),
		AllowedOrigin: "https://app.example",
	})
	return f
}

func (f *fixture) do(t *testing.T, method, path, body string, header map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range header {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("ответ не json (%d): %s", w.Code, w.Body.String())
	}
	return out
}

func TestReadRoutes(t *testing.T) {
	f := newFixture(t, nil)

	tests := []struct {
		name   string
		path   string
		status int
		want   string
	}{
		{"health", "/health", 200, `"live_matches":1`},
		{"список живых", "/api/matches", 200, `"id":"match_LIVE01"`},
		{"живой матч", "/api/matches/match_LIVE01", 200, `"live":true`},
		{"состав в снимке", "/api/matches/match_LIVE01", 200, `"player_id":1`},
		{"матч из архива", "/api/matches/match_DONE01", 200, `"live":false`},
		{"нет матча", "/api/matches/match_NONE00", 404, "not found"},
		{"события", "/api/matches/match_DONE01/events", 200, `"id":"ev-1"`},
		{"пустой журнал живого", "/api/matches/match_LIVE01/events", 200, `"events":[]`},
		{"события нет матча", "/api/matches/match_NONE00/events", 404, "not found"},
		{"игрок", "/api/players/1", 200, `"live_match":"match_LIVE01"`},
		{"нет игрока", "/api/players/3", 404, "player not found"},
		{"плохой id", "/api/players/abc", 400, "invalid id"},
		{"лидерборд", "/api/leaderboard?limit=1", 200, `"name":"Петя"`},
		{"плохой limit", "/api/leaderboard?limit=1000", 400, "limit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.do(t, "GET", tt.path, "", nil)
			if w.Code != tt.status {
				t.Fatalf("статус %d, ожидали %d: %s", w.Code, tt.status, w.Body.String())
			}
			if !strings.Contains(w.Body.String(), tt.want) {
				t.Fatalf("в ответе нет %s: %s", tt.want, w.Body.String())
			}
		})
	}
}

func TestArchiveFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.archive.err = errors.New("connection refused")

	w := f.do(t, "GET", "/api/matches/match_DONE01", "", nil)
	if w.Code != 500 || strings.Contains(w.Body.String(), "connection refused") {
		t.Fatalf("ошибка базы должна скрываться за 500: %d %s", w.Code, w.Body.String())
	}
}

func signInitData(t *testing.T, userID int64, at time.Time) string {
	t.Helper()
	fields := map[string]string{
		"auth_date": strconv.FormatInt(at.Unix(), 10),
		"user":      `{"id":` + strconv.FormatInt(userID, 10) + `,"username":"u"}`,
	}
	parts := make([]string, 0, len(fields))
	vals := url.Values{}
	for k, v := range fields {
		parts = append(parts, k+"="+v)
		vals.Set(k, v)
	}
	sort.Strings(parts)

	key := hmac.New(sha256.New, []byte("WebAppData"))
	key.Write([]byte(botToken))
	h := hmac.New(sha256.New, key.Sum(nil))
	h.Write([]byte(strings.Join(parts, "\n")))
	vals.Set("hash", hex.EncodeToString(h.Sum(nil)))
	return vals.Encode()
}

func (f *fixture) login(t *testing.T, userID int64) string {
	t.Helper()
	body, _ := json.Marshal(map[string]string{"init_data": signInitData(t, userID, time.Now())})
	w := f.do(t, "POST", "/api/auth/telegram", string(body), nil)
	if w.Code != 200 {
		t.Fatalf("вход %d: %d %s", userID, w.Code, w.Body.String())
	}
	token, _ := decode(t, w)["token"].(string)
	if token == "" {
		t.Fatalf("нет токена в ответе")
	}
	return token
}

func TestTelegramAuth(t *testing.T) {
	f := newFixture(t, nil)

	token := f.login(t, 99)
	claims, err := f.auth.Parse(token)
	if err != nil || claims.UserID != 99 || !claims.Admin {
		t.Fatalf("токен админа: %+v, %v", claims, err)
	}

	w := f.do(t, "POST", "/api/auth/telegram", `{"init_data":"auth_date=1&hash=00"}`, nil)
	if w.Code != 401 {
		t.Fatalf("подделка должна отклоняться, статус %d", w.Code)
	}
	if w := f.do(t, "POST", "/api/auth/telegram", `{}`, nil); w.Code != 400 {
		t.Fatalf("пустой запрос: статус %d", w.Code)
	}
}

func TestAdminCancel(t *testing.T) {
	f := newFixture(t, nil)
	path := "/api/admin/matches/match_LIVE01/cancel"

	if w := f.do(t, "POST", path, "", nil); w.Code != 401 {
		t.Fatalf("без токена: статус %d", w.Code)
	}
	user := f.login(t, 5)
	if w := f.do(t, "POST", path, "", map[string]string{"Authorization": "Bearer " + user}); w.Code != 403 {
		t.Fatalf("не админ: статус %d", w.Code)
	}

	admin := map[string]string{"Authorization": "Bearer " + f.login(t, 99)}
	w := f.do(t, "POST", path, "", admin)
	if w.Code != 200 || len(f.live.cancelled) != 1 {
		t.Fatalf("отмена: %d %s", w.Code, w.Body.String())
	}
	if w := f.do(t, "POST", path, "", admin); w.Code != 409 {
		t.Fatalf("повторная отмена должна дать 409, получили %d", w.Code)
	}
	if w := f.do(t, "POST", "/api/admin/matches/match_NONE00/cancel", "", admin); w.Code != 404 {
		t.Fatalf("нет матча: статус %d", w.Code)
	}
}

func TestRateLimit(t *testing.T) {
	f := newFixture(t, ratelimit.NewMemoryLimiter(2, time.Minute))

	for i := 0; i < 2; i++ {
		if w := f.do(t, "GET", "/api/matches", "", nil); w.Code != 200 {
			t.Fatalf("запрос %d: статус %d", i, w.Code)
		}
	}
	if w := f.do(t, "GET", "/api/matches", "", nil); w.Code != 429 {
		t.Fatalf("третий запрос должен упереться в лимит, статус %d", w.Code)
	}
	if w := f.do(t, "GET", "/health", "", nil); w.Code != 200 {
		t.Fatalf("health не лимитируется, статус %d", w.Code)
	}
}

func TestCORS(t *testing.T) {
	f := newFixture(t, nil)

	w := f.do(t, "OPTIONS", "/api/matches", "", map[string]string{
		"Origin":                        "https://app.example",
		"Access-Control-Request-Method": "GET",
	})
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "https://app.example" {
		t.Fatalf("preflight: Allow-Origin = %q", got)
	}

	w = f.do(t, "GET", "/api/matches", "", map[string]string{"Origin": "https://evil.example"})
	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Fatalf("чужой origin не должен разрешаться: %q", got)
	}
}
