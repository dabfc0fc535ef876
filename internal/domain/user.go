package domain

import "time"

// Player - карьерная запись игрока (id = telegram user id)
type Player struct {
	ID            int64     `db:"id" json:"id"`
	Username      string    `db:"username" json:"username"`
	FirstName     string    `db:"first_name" json:"first_name"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
	LastActive    time.Time `db:"last_active" json:"last_active"`
	MatchesPlayed int       `db:"matches_played" json:"matches_played"`
	MatchesWon    int       `db:"matches_won" json:"matches_won"`
	MatchesLost   int       `db:"matches_lost" json:"matches_lost"`
	Goals         int       `db:"goals" json:"goals"`
	Saves         int       `db:"saves" json:"saves"`
	Tackles       int       `db:"tackles" json:"tackles"`
	Interceptions int       `db:"interceptions" json:"interceptions"`
	HatTricks     int       `db:"hat_tricks" json:"hat_tricks"`
	MVPCount      int       `db:"mvp_count" json:"mvp_count"`
	Rating        float64   `db:"rating" json:"rating"` // средняя оценка за матчи
}

// DisplayName - имя для сообщений
func (p Player) DisplayName() string {
	if p.Username != "" {
		return "@" + p.Username
	}
	return p.FirstName
}

// Границы оценки игрока за матч
const (
	BaseRating = 6.0
	MinRating  = 1.0
	MaxRating  = 10.0
	HatTrick   = 3 // голов за матч
)

// PlayerResult - итог матча для одного игрока, пишется в карьерную статистику
type PlayerResult struct {
	PlayerID      int64     `json:"player_id"`
	Name          string    `json:"name"`
	Team          TeamLabel `json:"team"`
	Role          Role      `json:"role"`
	Won           bool      `json:"won"`
	Lost          bool      `json:"lost"`
	Goals         int       `json:"goals"`
	Saves         int       `json:"saves"`
	Tackles       int       `json:"tackles"`
	Interceptions int       `json:"interceptions"`
	HatTrick      bool      `json:"hat_trick"`
	MVP           bool      `json:"mvp"`
	Rating        float64   `json:"rating"`
}

// MatchSummary - итог завершенного матча
type MatchSummary struct {
	MatchID string         `json:"match_id"`
	Score   Score          `json:"score"`
	Winner  TeamLabel      `json:"winner"` // TeamNone - ничья
	MVP     int64          `json:"mvp,omitempty"`
	Players []PlayerResult `json:"players"`
}
