package game

import (
	"math"

	"hand_hockey/internal/domain"
)

// веса вклада игрока
const (
	goalWeight         = 3
	saveWeight         = 2
	tackleWeight       = 1
	interceptionWeight = 1
)

// Summarize подводит итог матча: победитель, оценки игроков и MVP.
// MVP выбирается среди победителей, при ничьей - среди всех.
func Summarize(m *domain.Match) domain.MatchSummary {
	winner := m.Score.Leader()
	sum := domain.MatchSummary{
		MatchID: m.ID,
		Score:   m.Score,
		Winner:  winner,
	}

	best := 0
	for _, p := range m.Roster.Players() {
		if !p.Team.Valid() {
			continue
		}
		res := domain.PlayerResult{
			PlayerID:      p.PlayerID,
			Name:          p.Name,
			Team:          p.Team,
			Role:          p.Role,
			Won:           winner.Valid() && p.Team == winner,
			Lost:          winner.Valid() && p.Team != winner,
			Goals:         p.Goals,
			Saves:         p.Saves,
			Tackles:       p.Tackles,
			Interceptions: p.Interceptions,
			HatTrick:      p.Goals >= domain.HatTrick,
		}
		res.Rating = Rate(res)

		if c := contribution(p); c > best && (!winner.Valid() || p.Team == winner) {
			best = c
			sum.MVP = p.PlayerID
		}
		sum.Players = append(sum.Players, res)
	}

	for i := range sum.Players {
		if sum.Players[i].PlayerID == sum.MVP {
			sum.Players[i].MVP = true
		}
	}
	return sum
}

// Rate - оценка за матч от 6.00, в пределах [1.00, 10.00]
func Rate(r domain.PlayerResult) float64 {
	v := domain.BaseRating +
		float64(r.Goals)*1.0 +
		float64(r.Saves)*0.5 +
		float64(r.Tackles)*0.3 +
		float64(r.Interceptions)*0.3
	switch {
	case r.Won:
		v += 0.5
	case r.Lost:
		v -= 0.5
	}
	v = math.Max(domain.MinRating, math.Min(domain.MaxRating, v))
	return math.Round(v*100) / 100
}

func contribution(p *domain.MatchPlayer) int {
	return p.Goals*goalWeight + p.Saves*saveWeight + p.Tackles*tackleWeight + p.Interceptions*interceptionWeight
}
