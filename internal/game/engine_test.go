package game

import (
	"context"
	"errors"
	"math/rand"
	"slices"
	"testing"
	"time"

	"hand_hockey/internal/domain"
)

func TestEngineResolve_BothPresent(t *testing.T) {
	tests := []struct {
		name     string
		scenario domain.Scenario
		defender domain.Participant
		a, d     int
		category domain.OutcomeCategory
		winner   domain.Side
	}{
		{"обводка удалась", domain.ScenarioDribbling, back, 3, 2, domain.OutcomeBreakthrough, domain.SideAttacker},
		{"сейв на равных", domain.ScenarioShooting, keeper, 5, 5, domain.OutcomeSave, domain.SideDefender},
		{"перехват на равных", domain.ScenarioDribbling, back, 2, 2, domain.OutcomeInterception, domain.SideDefender},
		{"фол на минимуме", domain.ScenarioDribbling, back, 1, 1, domain.OutcomeFoul, domain.SideAttacker},
		{"фол на минимуме в ударе", domain.ScenarioShooting, keeper, 1, 1, domain.OutcomeFoul, domain.SideAttacker},
		{"угловой: равные минимальные", domain.ScenarioCornerKick, back, 4, 4, domain.OutcomeFoul, domain.SideAttacker},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := newScript(map[int64][]step{
				striker.PlayerID:     {answer(tt.a)},
				tt.defender.PlayerID: {answer(tt.d)},
			})
			e := NewEngine(testConfig(), p)

			o, err := e.Resolve(context.Background(), Round{MatchID: "m", Scenario: tt.scenario, Attacker: striker, Defender: tt.defender})
			if err != nil {
				t.Fatalf("неожиданная ошибка: %v", err)
			}
			if o.Category != tt.category || o.Winner != tt.winner {
				t.Fatalf("получили %s/%s, ожидали %s/%s", o.Category, o.Winner, tt.category, tt.winner)
			}
			if !o.AttackerInput.Present || o.AttackerInput.Value != tt.a {
				t.Fatalf("ввод атакующего записан неверно: %+v", o.AttackerInput)
			}
			if o.Forfeit {
				t.Fatalf("исход не должен быть решен неявкой")
			}
		})
	}
}

func TestEngineResolve_DribbleExample(t *testing.T) {
	p := newScript(map[int64][]step{striker.PlayerID: {answer(3)}, back.PlayerID: {answer(2)}})
	e := NewEngine(testConfig(), p)

	o, err := e.Resolve(context.Background(), Round{Scenario: domain.ScenarioDribbling, Attacker: striker, Defender: back})
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if o.Range != (domain.Range{Lo: 1, Hi: 3}) {
		t.Fatalf("диапазон %s, ожидали [1,3]", o.Range)
	}
	n, ok := Narrate(o)
	if !ok || n != domain.NarrativeDribblePassed {
		t.Fatalf("комментарий %q, ожидали dribble_passed", n)
	}
	if IsGoal(o) {
		t.Fatalf("обводка не может быть голом")
	}
}

func TestEngineResolve_DefenderAbsent(t *testing.T) {
	p := newScript(map[int64][]step{striker.PlayerID: {answer(2)}})
	e := NewEngine(testConfig(), p)

	o, err := e.Resolve(context.Background(), Round{Scenario: domain.ScenarioDribbling, Attacker: striker, Defender: back})
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if o.Category != domain.OutcomeBreakthrough || o.Winner != domain.SideAttacker || !o.Forfeit {
		t.Fatalf("ожидали прорыв атакующего из-за неявки, получили %+v", o)
	}
	if o.DefenderInput.Present || o.DefenderInput.Value != 0 {
		t.Fatalf("ввод защитника должен быть отсутствующим: %+v", o.DefenderInput)
	}
	want := []PromptKind{PromptAsk, PromptWarning}
	if got := p.kinds(back.PlayerID); !slices.Equal(got, want) {
		t.Fatalf("запросы защитнику %v, ожидали %v", got, want)
	}
	if got := p.kinds(striker.PlayerID); !slices.Equal(got, []PromptKind{PromptAsk}) {
		t.Fatalf("атакующему не должно быть предупреждения: %v", got)
	}
}

func TestEngineResolve_AttackerAbsent(t *testing.T) {
	p := newScript(map[int64][]step{back.PlayerID: {answer(1)}})
	e := NewEngine(testConfig(), p)

	o, err := e.Resolve(context.Background(), Round{Scenario: domain.ScenarioDribbling, Attacker: striker, Defender: back})
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if o.Category != domain.OutcomeBreakthrough || o.Winner != domain.SideDefender || !o.Forfeit {
		t.Fatalf("ожидали прорыв защитника, получили %+v", o)
	}
	if o.WinnerTeam() != domain.TeamB {
		t.Fatalf("победила команда %s, ожидали B", o.WinnerTeam())
	}
}

func TestEngineResolve_BothAbsent(t *testing.T) {
	e := NewEngine(testConfig(), newScript(nil))

	o, err := e.Resolve(context.Background(), Round{Scenario: domain.ScenarioShooting, Attacker: striker, Defender: keeper})
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if o.Category != domain.OutcomeNeutral || o.Winner != domain.SideNone {
		t.Fatalf("ожидали нейтральный исход, получили %s/%s", o.Category, o.Winner)
	}
	if _, ok := Narrate(o); ok {
		t.Fatalf("нейтральный исход не комментируется")
	}
}

func TestEngineResolve_LateAnswerAfterWarning(t *testing.T) {
	p := newScript(map[int64][]step{
		striker.PlayerID: {answer(3)},
		back.PlayerID:    {silent, answer(3)},
	})
	e := NewEngine(testConfig(), p)

	o, err := e.Resolve(context.Background(), Round{Scenario: domain.ScenarioDribbling, Attacker: striker, Defender: back})
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if o.Category != domain.OutcomeInterception || o.Forfeit {
		t.Fatalf("ответ после предупреждения должен учитываться: %+v", o)
	}
}

func TestEngineResolve_OutOfRangeRetry(t *testing.T) {
	p := newScript(map[int64][]step{
		striker.PlayerID: {answer(9), answer(2)},
		back.PlayerID:    {answer(1)},
	})
	e := NewEngine(testConfig(), p)

	o, err := e.Resolve(context.Background(), Round{Scenario: domain.ScenarioDribbling, Attacker: striker, Defender: back})
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if o.AttackerInput.Value != 2 || o.Category != domain.OutcomeBreakthrough {
		t.Fatalf("после повтора ожидали значение 2 и прорыв: %+v", o)
	}
	want := []PromptKind{PromptAsk, PromptRetry}
	if got := p.kinds(striker.PlayerID); !slices.Equal(got, want) {
		t.Fatalf("запросы %v, ожидали %v", got, want)
	}
}

func TestEngineResolve_SecondOutOfRangeIsAbsence(t *testing.T) {
	p := newScript(map[int64][]step{
		striker.PlayerID: {answer(0), answer(7)},
		back.PlayerID:    {answer(2)},
	})
	e := NewEngine(testConfig(), p)

	o, err := e.Resolve(context.Background(), Round{Scenario: domain.ScenarioDribbling, Attacker: striker, Defender: back})
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if o.AttackerInput.Present {
		t.Fatalf("второе значение вне диапазона должно считаться неявкой")
	}
	if o.Winner != domain.SideDefender || !o.Forfeit {
		t.Fatalf("ожидали победу защитника по неявке: %+v", o)
	}
	if got := p.kinds(striker.PlayerID); len(got) != 2 {
		t.Fatalf("предупреждение после второй ошибки не отправляется: %v", got)
	}
}

func TestEngineResolve_RetryBudgetSharedWithWarning(t *testing.T) {
	// повтор израсходован в первом окне, в окне предупреждения ошибка уже окончательная
	p := newScript(map[int64][]step{
		striker.PlayerID: {answer(8), silent, answer(8)},
		back.PlayerID:    {answer(2)},
	})
	e := NewEngine(testConfig(), p)

	o, err := e.Resolve(context.Background(), Round{Scenario: domain.ScenarioDribbling, Attacker: striker, Defender: back})
	if err != nil {
		t.Fatalf("неожиданная ошибка: %v", err)
	}
	if o.AttackerInput.Present {
		t.Fatalf("ожидали неявку атакующего: %+v", o.AttackerInput)
	}
	want := []PromptKind{PromptAsk, PromptRetry, PromptWarning}
	if got := p.kinds(striker.PlayerID); !slices.Equal(got, want) {
		t.Fatalf("запросы %v, ожидали %v", got, want)
	}
}

func TestEngineResolve_Cancelled(t *testing.T) {
	e := NewEngine(Config{FirstDeadline: time.Second, WarningDeadline: time.Second}, newScript(nil))
	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(10*time.Millisecond, cancel)

	_, err := e.Resolve(ctx, Round{Scenario: domain.ScenarioDribbling, Attacker: striker, Defender: back})
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("ожидали context.Canceled, получили %v", err)
	}
}

func TestEngineResolve_GatewayFailure(t *testing.T) {
	boom := errors.New("telegram недоступен")
	p := newScript(map[int64][]step{
		striker.PlayerID: {{err: boom}},
		back.PlayerID:    {answer(2)},
	})
	e := NewEngine(testConfig(), p)

	_, err := e.Resolve(context.Background(), Round{Scenario: domain.ScenarioDribbling, Attacker: striker, Defender: back})
	if !errors.Is(err, boom) {
		t.Fatalf("ожидали ошибку шлюза, получили %v", err)
	}
}

func TestEngineResolve_TimeoutSignalFromGateway(t *testing.T) {
	p := newScript(map[int64][]step{
		striker.PlayerID: {{err: domain.ErrTimeoutExpired}, answer(3)},
		back.PlayerID:    {answer(1)},
	})
	e := NewEngine(testConfig(), p)

	o, err := e.Resolve(context.Background(), Round{Scenario: domain.ScenarioDribbling, Attacker: striker, Defender: back})
	if err != nil {
		t.Fatalf("таймаут не должен всплывать как ошибка: %v", err)
	}
	if o.AttackerInput.Value != 3 {
		t.Fatalf("ожидали ответ в окне предупреждения: %+v", o.AttackerInput)
	}
}

func TestEngineResolve_Offside(t *testing.T) {
	for _, tt := range []struct {
		chance   float64
		category domain.OutcomeCategory
	}{
		{1, domain.OutcomeOffside},
		{0, domain.OutcomeBreakthrough},
	} {
		p := newScript(nil)
		e := NewEngine(Config{FirstDeadline: time.Second, WarningDeadline: time.Second, OffsideChance: tt.chance}, p)

		o, err := e.Resolve(context.Background(), Round{
			Scenario: domain.ScenarioOffside,
			Attacker: striker,
			Defender: back,
			Rand:     rand.New(rand.NewSource(1)),
		})
		if err != nil {
			t.Fatalf("неожиданная ошибка: %v", err)
		}
		if o.Category != tt.category {
			t.Fatalf("шанс %.0f: получили %s, ожидали %s", tt.chance, o.Category, tt.category)
		}
		if len(p.kinds(striker.PlayerID))+len(p.kinds(back.PlayerID)) != 0 {
			t.Fatalf("при офсайде ввод не запрашивается")
		}
	}
}

func TestEngineResolve_Validation(t *testing.T) {
	e := NewEngine(testConfig(), newScript(nil))

	_, err := e.Resolve(context.Background(), Round{Scenario: domain.ScenarioDribbling, Attacker: striker, Defender: striker})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("один игрок с двух сторон: ожидали ValidationError, получили %v", err)
	}
	_, err = e.Resolve(context.Background(), Round{Scenario: "penalty", Attacker: striker, Defender: back})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("неизвестный сценарий: ожидали ValidationError, получили %v", err)
	}
	_, err = e.Resolve(context.Background(), Round{Scenario: domain.ScenarioOffside, Attacker: striker, Defender: back})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("офсайд без генератора: ожидали ValidationError, получили %v", err)
	}
}
