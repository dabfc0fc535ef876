package game

import "hand_hockey/internal/domain"

// Narrate сопоставляет исходу ровно одну категорию комментария.
// Для нейтрального исхода комментария нет.
func Narrate(o domain.Outcome) (domain.Narrative, bool) {
	switch o.Category {
	case domain.OutcomeOffside:
		return domain.NarrativeOffside, true
	case domain.OutcomeFoul:
		return domain.NarrativeFoul, true
	case domain.OutcomeSave:
		return domain.NarrativeSave, true
	case domain.OutcomeInterception:
		return domain.NarrativeInterception, true
	case domain.OutcomeBreakthrough:
		if o.Winner == domain.SideDefender {
			return domain.NarrativeInterception, true
		}
		if o.Scenario == domain.ScenarioCornerKick {
			return domain.NarrativeCorner, true
		}
		return domain.NarrativeDribblePassed, true
	}
	return "", false
}
