package game

import (
	"context"
	"sync"
	"testing"
	"time"

	"hand_hockey/internal/domain"
)

// step - один ответ участника; wait - молчать до конца окна
type step struct {
	value int
	wait  bool
	err   error
}

func answer(v int) step { return step{value: v} }

var silent = step{wait: true}

// scriptPrompter отвечает по заранее заданному сценарию и запоминает запросы
type scriptPrompter struct {
	mu    sync.Mutex
	steps map[int64][]step
	seen  map[int64][]PromptKind
}

func newScript(steps map[int64][]step) *scriptPrompter {
	return &scriptPrompter{steps: steps, seen: make(map[int64][]PromptKind)}
}

func (s *scriptPrompter) Prompt(ctx context.Context, p Prompt) (int, error) {
	s.mu.Lock()
	id := p.Player.PlayerID
	s.seen[id] = append(s.seen[id], p.Kind)
	st := silent
	if q := s.steps[id]; len(q) > 0 {
		st = q[0]
		s.steps[id] = q[1:]
	}
	s.mu.Unlock()

	if st.err != nil {
		return 0, st.err
	}
	if st.wait {
		<-ctx.Done()
		return 0, ctx.Err()
	}
	return st.value, nil
}

func (s *scriptPrompter) kinds(id int64) []PromptKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]PromptKind(nil), s.seen[id]...)
}

func testConfig() Config {
	return Config{
		FirstDeadline:   30 * time.Millisecond,
		WarningDeadline: 15 * time.Millisecond,
		OffsideChance:   DefaultOffsideChance,
	}
}

var (
	striker = domain.Participant{PlayerID: 1, Name: "st", Role: domain.RoleStriker, Team: domain.TeamA}
	keeper  = domain.Participant{PlayerID: 4, Name: "gk", Role: domain.RoleGoalkeeper, Team: domain.TeamB}
	back    = domain.Participant{PlayerID: 3, Name: "def", Role: domain.RoleDefender, Team: domain.TeamB}
	midB    = domain.Participant{PlayerID: 5, Name: "mf", Role: domain.RoleMidfielder, Team: domain.TeamB}
)

// newTestMatch: A = ST(1), GK(2); B = DEF(3), GK(4), MF(5)
func newTestMatch(t *testing.T) *domain.Match {
	t.Helper()
	m := domain.NewMatch("match_TEST01", 1, -100, 42, time.Unix(1700000000, 0), 10*time.Minute)
	players := []domain.MatchPlayer{
		{PlayerID: 1, Name: "st", Team: domain.TeamA, Role: domain.RoleStriker},
		{PlayerID: 2, Name: "gkA", Team: domain.TeamA, Role: domain.RoleGoalkeeper},
		{PlayerID: 3, Name: "def", Team: domain.TeamB, Role: domain.RoleDefender},
		{PlayerID: 4, Name: "gk", Team: domain.TeamB, Role: domain.RoleGoalkeeper},
		{PlayerID: 5, Name: "mf", Team: domain.TeamB, Role: domain.RoleMidfielder},
	}
	for _, p := range players {
		if err := m.Roster.Add(p); err != nil {
			t.Fatalf("не удалось добавить игрока %d: %v", p.PlayerID, err)
		}
	}
	m.State = domain.StateInProgress
	m.Possession = domain.TeamA
	return m
}
