package game

import (
	"errors"
	"testing"

	"hand_hockey/internal/domain"
)

func TestNextScenario(t *testing.T) {
	a, b := domain.TeamA, domain.TeamB
	stA := domain.Participant{PlayerID: 1, Team: a, Role: domain.RoleStriker}
	mfA := domain.Participant{PlayerID: 6, Team: a, Role: domain.RoleMidfielder}
	out := func(sc domain.Scenario, cat domain.OutcomeCategory, w domain.Side) *domain.Outcome {
		return &domain.Outcome{Scenario: sc, Category: cat, Winner: w, Attacker: stA}
	}

	tests := []struct {
		name       string
		round      int
		possession domain.TeamLabel
		last       *domain.Outcome
		want       domain.Scenario
	}{
		{"начало матча", 0, a, nil, domain.ScenarioDribbling},
		{"обводка -> удар", 1, a, out(domain.ScenarioDribbling, domain.OutcomeBreakthrough, domain.SideAttacker), domain.ScenarioShooting},
		{"пас полузащитника -> дальний удар", 1, a, &domain.Outcome{Scenario: domain.ScenarioPassing, Category: domain.OutcomeBreakthrough, Winner: domain.SideAttacker, Attacker: mfA}, domain.ScenarioLongShot},
		{"дальний удар отбит -> угловой", 2, a, out(domain.ScenarioLongShot, domain.OutcomeSave, domain.SideDefender), domain.ScenarioCornerKick},
		{"гол -> с центра", 2, b, out(domain.ScenarioShooting, domain.OutcomeBreakthrough, domain.SideAttacker), domain.ScenarioDribbling},
		{"сейв -> угловой", 2, a, out(domain.ScenarioShooting, domain.OutcomeSave, domain.SideDefender), domain.ScenarioCornerKick},
		{"фол -> быстрый пас", 1, a, out(domain.ScenarioDribbling, domain.OutcomeFoul, domain.SideAttacker), domain.ScenarioQuickPass},
		{"перехват -> пас", 1, b, out(domain.ScenarioDribbling, domain.OutcomeInterception, domain.SideDefender), domain.ScenarioPassing},
		{"нейтральный -> повтор", 2, a, out(domain.ScenarioCornerKick, domain.OutcomeNeutral, domain.SideNone), domain.ScenarioCornerKick},
		{"пятый раунд -> офсайд", 4, a, out(domain.ScenarioDribbling, domain.OutcomeBreakthrough, domain.SideAttacker), domain.ScenarioOffside},
		{"чистый выход -> удар", 5, a, out(domain.ScenarioOffside, domain.OutcomeBreakthrough, domain.SideAttacker), domain.ScenarioShooting},
		{"офсайд -> пас соперника", 5, b, out(domain.ScenarioOffside, domain.OutcomeOffside, domain.SideDefender), domain.ScenarioPassing},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NextScenario(tt.round, tt.possession, tt.last); got != tt.want {
				t.Fatalf("получили %s, ожидали %s", got, tt.want)
			}
		})
	}
}

func TestPossessionAfter(t *testing.T) {
	tests := []struct {
		o    domain.Outcome
		want domain.TeamLabel
	}{
		{domain.Outcome{Scenario: domain.ScenarioShooting, Category: domain.OutcomeBreakthrough, Winner: domain.SideAttacker}, domain.TeamB},
		{domain.Outcome{Scenario: domain.ScenarioDribbling, Category: domain.OutcomeBreakthrough, Winner: domain.SideAttacker}, domain.TeamA},
		{domain.Outcome{Scenario: domain.ScenarioDribbling, Category: domain.OutcomeBreakthrough, Winner: domain.SideDefender}, domain.TeamB},
		{domain.Outcome{Category: domain.OutcomeInterception}, domain.TeamB},
		{domain.Outcome{Category: domain.OutcomeOffside}, domain.TeamB},
		{domain.Outcome{Category: domain.OutcomeFoul}, domain.TeamA},
		{domain.Outcome{Category: domain.OutcomeSave}, domain.TeamA},
		{domain.Outcome{Category: domain.OutcomeNeutral}, domain.TeamA},
	}
	for _, tt := range tests {
		if got := PossessionAfter(domain.TeamA, tt.o); got != tt.want {
			t.Fatalf("%s/%s: получили %s, ожидали %s", tt.o.Category, tt.o.Winner, got, tt.want)
		}
	}
}

func TestPickParticipants_Fallback(t *testing.T) {
	m := newTestMatch(t)

	// у A нет полузащитника, атакует нападающий
	att, def, err := PickParticipants(m, domain.ScenarioPassing, domain.TeamA)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if att.PlayerID != 1 || def.PlayerID != 3 {
		t.Fatalf("пас: атакующий %d, защитник %d", att.PlayerID, def.PlayerID)
	}

	// у A нет ни защитника, ни полузащитника, обороняется вратарь
	att, def, err = PickParticipants(m, domain.ScenarioDribbling, domain.TeamB)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if att.Role != domain.RoleMidfielder || def.PlayerID != 2 {
		t.Fatalf("обводка B: атакующий %+v, защитник %+v", att, def)
	}

	att, def, err = PickParticipants(m, domain.ScenarioShooting, domain.TeamA)
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if att.Role != domain.RoleStriker || def.Role != domain.RoleGoalkeeper || def.Team != domain.TeamB {
		t.Fatalf("удар: %+v против %+v", att, def)
	}
}

func TestNextContest_EmptyTeam(t *testing.T) {
	m := newTestMatch(t)
	for _, id := range []int64{3, 4, 5} {
		m.Roster.Remove(id)
	}
	_, err := NextContest(m)
	if !errors.Is(err, domain.ErrEmptyTeam) {
		t.Fatalf("ожидали EmptyTeamError, получили %v", err)
	}
}
