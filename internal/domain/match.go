package domain

import (
	"strings"
	"time"
)

// State - состояние жизненного цикла матча
type State string

const (
	StateWaiting    State = "waiting"
	StateSetup      State = "setup"
	StateTossed     State = "tossed"
	StateInProgress State = "in_progress"
	StateFinished   State = "finished"
	StateExpired    State = "expired"
	StateCancelled  State = "cancelled"
)

// Terminal - из этого состояния переходов нет
func (s State) Terminal() bool {
	return s == StateFinished || s == StateExpired || s == StateCancelled
}

// Action - выбор победителя жеребьевки
type Action string

const (
	ActionNone   Action = ""
	ActionAttack Action = "attack"
	ActionDefend Action = "defend"
)

// ParseAction нормализует выбор атаки или защиты
func ParseAction(s string) (Action, error) {
	switch Action(strings.ToLower(strings.TrimSpace(s))) {
	case ActionAttack, "att", "a":
		return ActionAttack, nil
	case ActionDefend, "def", "d":
		return ActionDefend, nil
	}
	return ActionNone, &ValidationError{Field: "action", Reason: "нужно выбрать attack или defend"}
}

// Team - команда матча; состав хранится в Roster, здесь только метаданные
type Team struct {
	Label   TeamLabel `json:"label"`
	Name    string    `json:"name"`
	Captain int64     `json:"captain,omitempty"` // 0 - капитан не назначен
}

// DefaultTeamName возвращает имя команды по умолчанию
func DefaultTeamName(l TeamLabel) string {
	return "Team " + string(l)
}

// Toss - результат жеребьевки
type Toss struct {
	Winner TeamLabel `json:"winner"`
	Choice Action    `json:"choice"`
}

// Score - голы команд
type Score struct {
	A int `json:"a"`
	B int `json:"b"`
}

// Get возвращает голы команды
func (s Score) Get(t TeamLabel) int {
	if t == TeamB {
		return s.B
	}
	if t == TeamA {
		return s.A
	}
	return 0
}

// Add возвращает счет с добавленными голами
func (s Score) Add(t TeamLabel, n int) Score {
	switch t {
	case TeamA:
		s.A += n
	case TeamB:
		s.B += n
	}
	return s
}

// Leader - ведущая команда, TeamNone при ничьей
func (s Score) Leader() TeamLabel {
	switch {
	case s.A > s.B:
		return TeamA
	case s.B > s.A:
		return TeamB
	}
	return TeamNone
}

// TeamStats - командная статистика матча
type TeamStats struct {
	Shots    int `json:"shots"`
	Saves    int `json:"saves"`
	Fouls    int `json:"fouls"`
	Corners  int `json:"corners"`
	Offsides int `json:"offsides"`
}

// Match - состояние одного матча
type Match struct {
	ID        string     `db:"id" json:"id"`
	HostID    int64      `db:"host_id" json:"host_id"`
	ChatID    int64      `db:"chat_id" json:"chat_id"`
	State     State      `db:"state" json:"state"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
	UpdatedAt time.Time  `db:"updated_at" json:"updated_at"`
	ExpiresAt time.Time  `db:"expires_at" json:"expires_at"`
	StartedAt *time.Time `db:"started_at" json:"started_at,omitempty"`
	EndedAt   *time.Time `db:"ended_at" json:"ended_at,omitempty"`

	// зерно генератора матча (жеребьевка, офсайды)
	Seed int64 `json:"-"`

	Roster Roster `json:"-"`
	TeamA  Team   `json:"team_a"`
	TeamB  Team   `json:"team_b"`
	Toss   Toss   `json:"toss"`

	Possession    TeamLabel      `json:"possession"`
	Round         int            `json:"round"`
	LastOutcome   *Outcome       `json:"last_outcome,omitempty"`
	Events        []ActionEvent  `json:"events"`
	Score         Score          `json:"score"`
	StatsA        TeamStats      `json:"stats_a"`
	StatsB        TeamStats      `json:"stats_b"`
	Notifications []Notification `json:"-"`
}

// NewMatch создает матч в состоянии waiting
func NewMatch(id string, hostID, chatID int64, seed int64, now time.Time, ttl time.Duration) *Match {
	return &Match{
		ID:        id,
		HostID:    hostID,
		ChatID:    chatID,
		State:     StateWaiting,
		CreatedAt: now,
		UpdatedAt: now,
		ExpiresAt: now.Add(ttl),
		Seed:      seed,
		TeamA:     Team{Label: TeamA, Name: DefaultTeamName(TeamA)},
		TeamB:     Team{Label: TeamB, Name: DefaultTeamName(TeamB)},
	}
}

// Team возвращает указатель на команду по метке
func (m *Match) Team(l TeamLabel) *Team {
	switch l {
	case TeamA:
		return &m.TeamA
	case TeamB:
		return &m.TeamB
	}
	return nil
}

// Stats возвращает указатель на статистику команды
func (m *Match) Stats(l TeamLabel) *TeamStats {
	switch l {
	case TeamA:
		return &m.StatsA
	case TeamB:
		return &m.StatsB
	}
	return nil
}

// Player возвращает участника или PlayerNotInMatchError
func (m *Match) Player(playerID int64) (*MatchPlayer, error) {
	p, ok := m.Roster.Get(playerID)
	if !ok {
		return nil, &PlayerNotInMatchError{MatchID: m.ID, PlayerID: playerID}
	}
	return p, nil
}

// Touch продлевает срок жизни матча после активности
func (m *Match) Touch(now time.Time, ttl time.Duration) {
	m.UpdatedAt = now
	m.ExpiresAt = now.Add(ttl)
}

// Expired - дедлайн неактивности прошел
func (m *Match) Expired(now time.Time) bool {
	return !m.State.Terminal() && !now.Before(m.ExpiresAt)
}

// LastEventAt - время последнего события или нулевое время
func (m *Match) LastEventAt() time.Time {
	if len(m.Events) == 0 {
		return time.Time{}
	}
	return m.Events[len(m.Events)-1].At
}

// Clone возвращает независимую копию; переходы применяются к копии и фиксируются целиком
func (m *Match) Clone() *Match {
	cp := *m
	cp.Roster = m.Roster.Clone()
	if m.StartedAt != nil {
		t := *m.StartedAt
		cp.StartedAt = &t
	}
	if m.EndedAt != nil {
		t := *m.EndedAt
		cp.EndedAt = &t
	}
	if m.LastOutcome != nil {
		o := *m.LastOutcome
		cp.LastOutcome = &o
	}
	cp.Events = append([]ActionEvent(nil), m.Events...)
	cp.Notifications = append([]Notification(nil), m.Notifications...)
	return &cp
}
