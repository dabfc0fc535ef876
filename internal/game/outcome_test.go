package game

import (
	"testing"

	"hand_hockey/internal/domain"
)

func TestRangeFor(t *testing.T) {
	tests := []struct {
		attacker, defender domain.Role
		scenario           domain.Scenario
		want               domain.Range
	}{
		{domain.RoleStriker, domain.RoleDefender, domain.ScenarioDribbling, domain.Range{Lo: 1, Hi: 3}},
		{domain.RoleStriker, domain.RoleMidfielder, domain.ScenarioPassing, domain.Range{Lo: 1, Hi: 3}},
		{domain.RoleMidfielder, domain.RoleDefender, domain.ScenarioPassing, domain.Range{Lo: 1, Hi: 3}},
		{domain.RoleStriker, domain.RoleGoalkeeper, domain.ScenarioShooting, domain.Range{Lo: 1, Hi: 6}},
		{domain.RoleStriker, domain.RoleMidfielder, domain.ScenarioQuickPass, domain.Range{Lo: 1, Hi: 2}},
		{domain.RoleStriker, domain.RoleDefender, domain.ScenarioCornerKick, domain.Range{Lo: 4, Hi: 6}},
		{domain.RoleGoalkeeper, domain.RoleStriker, domain.ScenarioInterception, domain.Range{Lo: 1, Hi: 3}},
		{domain.RoleGoalkeeper, domain.RoleMidfielder, domain.ScenarioInterception, domain.Range{Lo: 1, Hi: 3}},
		{domain.RoleMidfielder, domain.RoleGoalkeeper, domain.ScenarioLongShot, domain.Range{Lo: 2, Hi: 5}},
		{domain.RoleDefender, domain.RoleStriker, domain.ScenarioTackle, domain.Range{Lo: 1, Hi: 4}},
		// пары вне таблицы
		{domain.RoleMidfielder, domain.RoleGoalkeeper, domain.ScenarioShooting, FallbackRange},
		{domain.RoleDefender, domain.RoleStriker, domain.ScenarioDefault, FallbackRange},
		{domain.RoleMidfielder, domain.RoleDefender, domain.ScenarioCornerKick, FallbackRange},
		{domain.RoleStriker, domain.RoleGoalkeeper, domain.ScenarioLongShot, FallbackRange},
		{domain.RoleMidfielder, domain.RoleStriker, domain.ScenarioTackle, FallbackRange},
	}

	for _, tt := range tests {
		got, ok := RangeFor(tt.attacker, tt.defender, tt.scenario)
		if !ok {
			t.Fatalf("%s vs %s %s: ожидали сценарий с вводом", tt.attacker, tt.defender, tt.scenario)
		}
		if got != tt.want {
			t.Fatalf("%s vs %s %s: получили %s, ожидали %s", tt.attacker, tt.defender, tt.scenario, got, tt.want)
		}
	}
}

func TestRangeFor_Offside(t *testing.T) {
	for _, a := range domain.Roles {
		for _, d := range domain.Roles {
			r, ok := RangeFor(a, d, domain.ScenarioOffside)
			if ok || !r.IsZero() {
				t.Fatalf("%s vs %s: офсайд не требует ввода", a, d)
			}
		}
	}
}

func TestDecide_DifferentValuesAlwaysBreakthrough(t *testing.T) {
	ranges := []domain.Range{{Lo: 1, Hi: 3}, {Lo: 1, Hi: 6}, {Lo: 1, Hi: 2}, {Lo: 4, Hi: 6}}
	scenarios := []domain.Scenario{domain.ScenarioDribbling, domain.ScenarioShooting, domain.ScenarioQuickPass, domain.ScenarioCornerKick}

	for i, r := range ranges {
		for a := r.Lo; a <= r.Hi; a++ {
			for d := r.Lo; d <= r.Hi; d++ {
				if a == d {
					continue
				}
				o := Decide(scenarios[i], r, striker, back, domain.Submitted(a), domain.Submitted(d))
				if o.Category != domain.OutcomeBreakthrough || o.Winner != domain.SideAttacker {
					t.Fatalf("%s %d vs %d: получили %s/%s", scenarios[i], a, d, o.Category, o.Winner)
				}
			}
		}
	}
}

func TestDecide_EqualValues(t *testing.T) {
	tests := []struct {
		scenario domain.Scenario
		r        domain.Range
		v        int
		want     domain.OutcomeCategory
	}{
		{domain.ScenarioDribbling, domain.Range{Lo: 1, Hi: 3}, 1, domain.OutcomeFoul},
		{domain.ScenarioDribbling, domain.Range{Lo: 1, Hi: 3}, 2, domain.OutcomeInterception},
		{domain.ScenarioDribbling, domain.Range{Lo: 1, Hi: 3}, 3, domain.OutcomeInterception},
		{domain.ScenarioPassing, domain.Range{Lo: 1, Hi: 3}, 3, domain.OutcomeInterception},
		{domain.ScenarioShooting, domain.Range{Lo: 1, Hi: 6}, 1, domain.OutcomeFoul},
		{domain.ScenarioShooting, domain.Range{Lo: 1, Hi: 6}, 5, domain.OutcomeSave},
		{domain.ScenarioShooting, domain.Range{Lo: 1, Hi: 6}, 6, domain.OutcomeSave},
		{domain.ScenarioCornerKick, domain.Range{Lo: 4, Hi: 6}, 4, domain.OutcomeFoul},
		{domain.ScenarioCornerKick, domain.Range{Lo: 4, Hi: 6}, 5, domain.OutcomeInterception},
		{domain.ScenarioQuickPass, domain.Range{Lo: 1, Hi: 2}, 2, domain.OutcomeInterception},
	}

	for _, tt := range tests {
		o := Decide(tt.scenario, tt.r, striker, keeper, domain.Submitted(tt.v), domain.Submitted(tt.v))
		if o.Category != tt.want {
			t.Fatalf("%s %s равные %d: получили %s, ожидали %s", tt.scenario, tt.r, tt.v, o.Category, tt.want)
		}
		if o.Category == domain.OutcomeFoul && o.Winner != domain.SideAttacker {
			t.Fatalf("фол дает штрафной атакующим")
		}
	}
}

func TestDecide_Absence(t *testing.T) {
	r := domain.Range{Lo: 1, Hi: 3}

	o := Decide(domain.ScenarioDribbling, r, striker, back, domain.Submitted(1), domain.Absent())
	if o.Category != domain.OutcomeBreakthrough || o.Winner != domain.SideAttacker || !o.Forfeit {
		t.Fatalf("неявка защитника: %+v", o)
	}

	// значение без признака присутствия не записывается
	o = Decide(domain.ScenarioDribbling, r, striker, back, domain.Input{Value: 2}, domain.Submitted(3))
	if o.AttackerInput != (domain.Input{}) {
		t.Fatalf("ввод отсутствующего должен быть пустым: %+v", o.AttackerInput)
	}
	if o.Winner != domain.SideDefender {
		t.Fatalf("неявка атакующего: победитель %s", o.Winner)
	}

	o = Decide(domain.ScenarioDribbling, r, striker, back, domain.Absent(), domain.Absent())
	if o.Category != domain.OutcomeNeutral || o.Forfeit {
		t.Fatalf("обе неявки: %+v", o)
	}
}

func TestNarrate(t *testing.T) {
	tests := []struct {
		name string
		o    domain.Outcome
		want domain.Narrative
	}{
		{"обводка", domain.Outcome{Scenario: domain.ScenarioDribbling, Category: domain.OutcomeBreakthrough, Winner: domain.SideAttacker}, domain.NarrativeDribblePassed},
		{"угловой", domain.Outcome{Scenario: domain.ScenarioCornerKick, Category: domain.OutcomeBreakthrough, Winner: domain.SideAttacker}, domain.NarrativeCorner},
		{"неявка атакующего", domain.Outcome{Scenario: domain.ScenarioPassing, Category: domain.OutcomeBreakthrough, Winner: domain.SideDefender, Forfeit: true}, domain.NarrativeInterception},
		{"перехват", domain.Outcome{Category: domain.OutcomeInterception}, domain.NarrativeInterception},
		{"фол", domain.Outcome{Category: domain.OutcomeFoul}, domain.NarrativeFoul},
		{"сейв", domain.Outcome{Category: domain.OutcomeSave}, domain.NarrativeSave},
		{"офсайд", domain.Outcome{Category: domain.OutcomeOffside}, domain.NarrativeOffside},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Narrate(tt.o)
			if !ok || got != tt.want {
				t.Fatalf("получили %q, ожидали %q", got, tt.want)
			}
		})
	}
}
