package domain

import "time"

// MatchPlayer - участник конкретного матча
type MatchPlayer struct {
	PlayerID int64     `db:"user_id" json:"player_id"`
	Name     string    `db:"username" json:"name"`
	Team     TeamLabel `db:"team" json:"team"`
	Role     Role      `db:"role" json:"role"`
	Captain  bool      `db:"is_captain" json:"captain"`
	JoinedAt time.Time `db:"joined_at" json:"joined_at"`

	// счетчики текущего матча
	Goals         int `json:"goals"`
	Saves         int `json:"saves"`
	Tackles       int `json:"tackles"`
	Interceptions int `json:"interceptions"`
}

// Participant возвращает снимок игрока для раунда
func (p *MatchPlayer) Participant() Participant {
	return Participant{PlayerID: p.PlayerID, Name: p.Name, Role: p.Role, Team: p.Team}
}

// Roster хранит участников матча в порядке присоединения
type Roster struct {
	players []*MatchPlayer
}

// Add добавляет участника, повторное присоединение отклоняется
func (r *Roster) Add(p MatchPlayer) error {
	if _, ok := r.Get(p.PlayerID); ok {
		return &ValidationError{Field: "player", Reason: "игрок уже в матче"}
	}
	cp := p
	r.players = append(r.players, &cp)
	return nil
}

// Remove удаляет участника и возвращает его
func (r *Roster) Remove(playerID int64) (MatchPlayer, bool) {
	for i, p := range r.players {
		if p.PlayerID == playerID {
			r.players = append(r.players[:i], r.players[i+1:]...)
			return *p, true
		}
	}
	return MatchPlayer{}, false
}

// Get возвращает участника по id
func (r *Roster) Get(playerID int64) (*MatchPlayer, bool) {
	for _, p := range r.players {
		if p.PlayerID == playerID {
			return p, true
		}
	}
	return nil, false
}

// Len - количество участников
func (r *Roster) Len() int {
	return len(r.players)
}

// Players возвращает участников в порядке присоединения
func (r *Roster) Players() []*MatchPlayer {
	return r.players
}

// IDs возвращает id участников в порядке присоединения
func (r *Roster) IDs() []int64 {
	ids := make([]int64, 0, len(r.players))
	for _, p := range r.players {
		ids = append(ids, p.PlayerID)
	}
	return ids
}

// Members возвращает участников команды в порядке присоединения
func (r *Roster) Members(team TeamLabel) []*MatchPlayer {
	var out []*MatchPlayer
	for _, p := range r.players {
		if p.Team == team {
			out = append(out, p)
		}
	}
	return out
}

// Unassigned - участники без команды или без амплуа
func (r *Roster) Unassigned() []*MatchPlayer {
	var out []*MatchPlayer
	for _, p := range r.players {
		if !p.Team.Valid() || !p.Role.Valid() {
			out = append(out, p)
		}
	}
	return out
}

// Clone делает глубокую копию состава
func (r Roster) Clone() Roster {
	out := Roster{players: make([]*MatchPlayer, 0, len(r.players))}
	for _, p := range r.players {
		cp := *p
		out.players = append(out.players, &cp)
	}
	return out
}
