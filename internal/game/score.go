package game

import "hand_hockey/internal/domain"

// ScoreKeeper - единственное место, где меняются счет и счетчики матча
type ScoreKeeper struct{}

// Apply применяет событие раунда к матчу и добавляет его в журнал.
// Повторное применение события с тем же id отклоняется без изменений.
func (ScoreKeeper) Apply(m *domain.Match, ev domain.ActionEvent) (domain.Score, error) {
	for i := range m.Events {
		if m.Events[i].ID == ev.ID {
			return m.Score, &domain.DuplicateEventError{EventID: ev.ID}
		}
	}
	if ev.At.Before(m.LastEventAt()) {
		return m.Score, &domain.ValidationError{Field: "event", Reason: "время события раньше предыдущего"}
	}

	attTeam, defTeam := ev.Attacker.Team, ev.Defender.Team
	attStats, defStats := m.Stats(attTeam), m.Stats(defTeam)
	attacker, _ := m.Roster.Get(ev.Attacker.PlayerID)
	defender, _ := m.Roster.Get(ev.Defender.PlayerID)

	var delta domain.Score
	if ev.Scenario.IsShot() && ev.Category != domain.OutcomeNeutral && attStats != nil {
		attStats.Shots++
	}

	switch ev.Category {
	case domain.OutcomeBreakthrough:
		if IsGoal(ev.Outcome()) {
			delta = delta.Add(attTeam, 1)
			if attacker != nil {
				attacker.Goals++
			}
		}
	case domain.OutcomeSave:
		if defender != nil {
			defender.Saves++
		}
		if defStats != nil {
			defStats.Saves++
		}
		// после сейва назначается угловой
		if attStats != nil {
			attStats.Corners++
		}
	case domain.OutcomeInterception:
		if defender != nil {
			if ev.Scenario == domain.ScenarioTackle ||
				(ev.Scenario == domain.ScenarioDribbling && ev.Defender.Role == domain.RoleDefender) {
				defender.Tackles++
			} else {
				defender.Interceptions++
			}
		}
	case domain.OutcomeFoul:
		if defStats != nil {
			defStats.Fouls++
		}
	case domain.OutcomeOffside:
		if attStats != nil {
			attStats.Offsides++
		}
	}

	ev.ScoreDelta = delta
	m.Score = m.Score.Add(domain.TeamA, delta.A).Add(domain.TeamB, delta.B)
	m.Events = append(m.Events, ev)
	return m.Score, nil
}

// IsGoal - прорыв атакующего в ударе по воротам.
// Если вратаря в команде нет, удар все равно идет по воротам.
func IsGoal(o domain.Outcome) bool {
	return o.Category == domain.OutcomeBreakthrough &&
		o.Winner == domain.SideAttacker &&
		o.Scenario.IsShot()
}
