package game

import "hand_hockey/internal/domain"

// OffsideEvery - каждый такой раунд начинается с проверки офсайда
const OffsideEvery = 5

// Contest - следующее единоборство
type Contest struct {
	Scenario domain.Scenario
	Attacker domain.Participant
	Defender domain.Participant
}

// амплуа сторон для сценариев, которые выбирает планировщик
var scenarioRoles = map[domain.Scenario][2]domain.Role{
	domain.ScenarioDefault:      {domain.RoleStriker, domain.RoleDefender},
	domain.ScenarioDribbling:    {domain.RoleStriker, domain.RoleDefender},
	domain.ScenarioPassing:      {domain.RoleMidfielder, domain.RoleDefender},
	domain.ScenarioShooting:     {domain.RoleStriker, domain.RoleGoalkeeper},
	domain.ScenarioLongShot:     {domain.RoleMidfielder, domain.RoleGoalkeeper},
	domain.ScenarioQuickPass:    {domain.RoleStriker, domain.RoleMidfielder},
	domain.ScenarioCornerKick:   {domain.RoleStriker, domain.RoleDefender},
	domain.ScenarioInterception: {domain.RoleGoalkeeper, domain.RoleStriker},
	domain.ScenarioTackle:       {domain.RoleDefender, domain.RoleStriker},
	domain.ScenarioOffside:      {domain.RoleStriker, domain.RoleDefender},
}

var (
	attackerFallback = []domain.Role{domain.RoleStriker, domain.RoleMidfielder, domain.RoleDefender, domain.RoleGoalkeeper}
	defenderFallback = []domain.Role{domain.RoleDefender, domain.RoleMidfielder, domain.RoleGoalkeeper, domain.RoleStriker}
)

// NextScenario выбирает сценарий следующего раунда по владению и прошлому исходу
func NextScenario(round int, possession domain.TeamLabel, last *domain.Outcome) domain.Scenario {
	if last == nil {
		return domain.ScenarioDribbling
	}
	// команда с мячом сменилась - розыгрыш с центра или с передачи
	if last.Attacker.Team != possession {
		if IsGoal(*last) {
			return domain.ScenarioDribbling
		}
		return domain.ScenarioPassing
	}
	if (round+1)%OffsideEvery == 0 && last.Scenario != domain.ScenarioOffside {
		return domain.ScenarioOffside
	}

	switch last.Category {
	case domain.OutcomeNeutral:
		return last.Scenario
	case domain.OutcomeSave:
		return domain.ScenarioCornerKick
	case domain.OutcomeFoul:
		return domain.ScenarioQuickPass
	case domain.OutcomeBreakthrough:
		if last.Winner == domain.SideAttacker && !last.Scenario.IsShot() {
			// полузащитник, прошедший пас, бьет издали
			if last.Attacker.Role == domain.RoleMidfielder {
				return domain.ScenarioLongShot
			}
			return domain.ScenarioShooting
		}
	}
	return domain.ScenarioDribbling
}

// PossessionAfter возвращает команду с мячом после исхода раунда
func PossessionAfter(possession domain.TeamLabel, o domain.Outcome) domain.TeamLabel {
	switch o.Category {
	case domain.OutcomeInterception, domain.OutcomeOffside:
		return possession.Other()
	case domain.OutcomeBreakthrough:
		if o.Winner == domain.SideDefender || IsGoal(o) {
			return possession.Other()
		}
	}
	return possession
}

// NextContest выбирает сценарий и участников следующего раунда матча
func NextContest(m *domain.Match) (Contest, error) {
	if !m.Possession.Valid() {
		return Contest{}, &domain.ValidationError{Field: "possession", Reason: "не определена команда с мячом"}
	}
	sc := NextScenario(m.Round, m.Possession, m.LastOutcome)
	att, def, err := PickParticipants(m, sc, m.Possession)
	if err != nil {
		return Contest{}, err
	}
	return Contest{Scenario: sc, Attacker: att, Defender: def}, nil
}

// PickParticipants подбирает атакующего и защитника по амплуа сценария.
// Если нужного амплуа нет, берется следующее по запасному порядку.
func PickParticipants(m *domain.Match, sc domain.Scenario, attacking domain.TeamLabel) (domain.Participant, domain.Participant, error) {
	roles, ok := scenarioRoles[sc]
	if !ok {
		roles = scenarioRoles[domain.ScenarioDefault]
	}
	att, err := pick(m, attacking, roles[0], attackerFallback)
	if err != nil {
		return domain.Participant{}, domain.Participant{}, err
	}
	def, err := pick(m, attacking.Other(), roles[1], defenderFallback)
	if err != nil {
		return domain.Participant{}, domain.Participant{}, err
	}
	return att, def, nil
}

// pick выбирает игрока команды; среди нескольких игроков одного амплуа ходят по очереди
func pick(m *domain.Match, team domain.TeamLabel, preferred domain.Role, fallback []domain.Role) (domain.Participant, error) {
	members := m.Roster.Members(team)
	if len(members) == 0 {
		return domain.Participant{}, &domain.EmptyTeamError{Team: team}
	}
	order := append([]domain.Role{preferred}, fallback...)
	for _, role := range order {
		var candidates []*domain.MatchPlayer
		for _, p := range members {
			if p.Role == role {
				candidates = append(candidates, p)
			}
		}
		if len(candidates) > 0 {
			return candidates[m.Round%len(candidates)].Participant(), nil
		}
	}
	return members[m.Round%len(members)].Participant(), nil
}
