package game

import (
	"math/rand"

	"hand_hockey/internal/domain"
)

// DefaultOffsideChance - вероятность офсайда при проверке
const DefaultOffsideChance = 0.3

// Decide вычисляет исход раунда по двум вводам.
//
// Правила:
//   - оба отсутствуют: нейтральный исход без победителя;
//   - отсутствует один: прорыв присутствующей стороны (Forfeit);
//   - a != d: прорыв атакующего;
//   - a == d == нижней границе: фол, в любом сценарии;
//   - a == d в ударе: сейв;
//   - иначе a == d: перехват.
func Decide(scenario domain.Scenario, r domain.Range, attacker, defender domain.Participant, a, d domain.Input) domain.Outcome {
	o := domain.Outcome{
		Scenario:      scenario,
		Range:         r,
		Attacker:      attacker,
		Defender:      defender,
		AttackerInput: normalize(a),
		DefenderInput: normalize(d),
	}

	switch {
	case !a.Present && !d.Present:
		o.Category = domain.OutcomeNeutral
		o.Winner = domain.SideNone
	case !d.Present:
		o.Category = domain.OutcomeBreakthrough
		o.Winner = domain.SideAttacker
		o.Forfeit = true
	case !a.Present:
		o.Category = domain.OutcomeBreakthrough
		o.Winner = domain.SideDefender
		o.Forfeit = true
	case a.Value != d.Value:
		o.Category = domain.OutcomeBreakthrough
		o.Winner = domain.SideAttacker
	case a.Value == r.Lo:
		// равные минимальные значения - фол защиты, штрафной у атакующих
		o.Category = domain.OutcomeFoul
		o.Winner = domain.SideAttacker
	case scenario.IsShot():
		o.Category = domain.OutcomeSave
		o.Winner = domain.SideDefender
	default:
		o.Category = domain.OutcomeInterception
		o.Winner = domain.SideDefender
	}
	return o
}

// DecideOffside разыгрывает офсайд без ввода участников
func DecideOffside(rng *rand.Rand, chance float64, attacker, defender domain.Participant) domain.Outcome {
	o := domain.Outcome{
		Scenario: domain.ScenarioOffside,
		Attacker: attacker,
		Defender: defender,
	}
	if rng.Float64() < chance {
		o.Category = domain.OutcomeOffside
		o.Winner = domain.SideDefender
		return o
	}
	o.Category = domain.OutcomeBreakthrough
	o.Winner = domain.SideAttacker
	return o
}

// отсутствующий ввод не несет значения
func normalize(in domain.Input) domain.Input {
	if !in.Present {
		return domain.Absent()
	}
	return in
}
