package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"time"

	"golang.org/x/sync/errgroup"

	"hand_hockey/internal/domain"
	"hand_hockey/internal/logger"
)

// Config - параметры розыгрыша
type Config struct {
	FirstDeadline   time.Duration
	WarningDeadline time.Duration
	OffsideChance   float64
}

// DefaultConfig возвращает стандартные окна ожидания 15s и 10s
func DefaultConfig() Config {
	return Config{
		FirstDeadline:   15 * time.Second,
		WarningDeadline: 10 * time.Second,
		OffsideChance:   DefaultOffsideChance,
	}
}

// Round - входные данные одного раунда
type Round struct {
	MatchID  string
	Number   int
	Scenario domain.Scenario
	Attacker domain.Participant
	Defender domain.Participant
	Rand     *rand.Rand // генератор матча, нужен для офсайда
}

// Engine разыгрывает раунды. Состояния между вызовами не хранит.
type Engine struct {
	cfg      Config
	prompter Prompter
}

func NewEngine(cfg Config, p Prompter) *Engine {
	if cfg.FirstDeadline <= 0 {
		cfg.FirstDeadline = DefaultConfig().FirstDeadline
	}
	if cfg.WarningDeadline <= 0 {
		cfg.WarningDeadline = DefaultConfig().WarningDeadline
	}
	if cfg.OffsideChance < 0 || cfg.OffsideChance > 1 {
		cfg.OffsideChance = DefaultOffsideChance
	}
	return &Engine{cfg: cfg, prompter: p}
}

// Resolve собирает ввод обоих участников параллельно и вычисляет исход.
// Отмена ctx прерывает ожидание, частичный ввод отбрасывается.
func (e *Engine) Resolve(ctx context.Context, r Round) (domain.Outcome, error) {
	if !r.Scenario.Valid() {
		return domain.Outcome{}, &domain.ValidationError{Field: "scenario", Reason: fmt.Sprintf("неизвестный сценарий %q", r.Scenario)}
	}
	if r.Attacker.PlayerID == r.Defender.PlayerID {
		return domain.Outcome{}, &domain.ValidationError{Field: "participants", Reason: "атакующий и защитник должны быть разными игроками"}
	}
	if r.Attacker.Team.Valid() && r.Attacker.Team == r.Defender.Team {
		return domain.Outcome{}, &domain.ValidationError{Field: "participants", Reason: "участники из одной команды"}
	}

	log := logger.ForMatch("engine", r.MatchID).With("round", r.Number, "scenario", r.Scenario)

	rng, needInput := RangeFor(r.Attacker.Role, r.Defender.Role, r.Scenario)
	if !needInput {
		if r.Rand == nil {
			return domain.Outcome{}, &domain.ValidationError{Field: "rand", Reason: "для офсайда нужен генератор"}
		}
		o := DecideOffside(r.Rand, e.cfg.OffsideChance, r.Attacker, r.Defender)
		log.Info("offside check", "category", o.Category)
		return o, nil
	}

	var a, d domain.Input
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		in, err := e.collect(gctx, log, e.prompt(r, rng, r.Attacker, domain.SideAttacker))
		a = in
		return err
	})
	g.Go(func() error {
		in, err := e.collect(gctx, log, e.prompt(r, rng, r.Defender, domain.SideDefender))
		d = in
		return err
	})
	if err := g.Wait(); err != nil {
		return domain.Outcome{}, err
	}

	o := Decide(r.Scenario, rng, r.Attacker, r.Defender, a, d)
	log.Info("round resolved",
		"range", rng.String(),
		"attacker", r.Attacker.PlayerID,
		"defender", r.Defender.PlayerID,
		"category", o.Category,
		"winner", o.Winner,
		"forfeit", o.Forfeit,
	)
	return o, nil
}

func (e *Engine) prompt(r Round, rng domain.Range, p domain.Participant, side domain.Side) Prompt {
	return Prompt{
		MatchID:  r.MatchID,
		Round:    r.Number,
		Player:   p,
		Side:     side,
		Scenario: r.Scenario,
		Range:    rng,
		Kind:     PromptAsk,
	}
}

// collect ждет ответ участника в двух окнах: основном и после предупреждения.
// Повторный запрос при значении вне диапазона один на раунд; второе такое значение - неявка.
func (e *Engine) collect(ctx context.Context, log *slog.Logger, p Prompt) (domain.Input, error) {
	retried := false
	windows := []struct {
		kind    PromptKind
		timeout time.Duration
	}{
		{PromptAsk, e.cfg.FirstDeadline},
		{PromptWarning, e.cfg.WarningDeadline},
	}

	for _, w := range windows {
		p.Kind = w.kind
		in, settled, err := e.window(ctx, log, p, w.timeout, &retried)
		if err != nil || settled {
			return in, err
		}
		log.Warn("no answer in window", "player", p.Player.PlayerID, "kind", w.kind)
	}
	return domain.Absent(), nil
}

// window возвращает settled=false, если окно истекло без окончательного ответа
func (e *Engine) window(ctx context.Context, log *slog.Logger, p Prompt, timeout time.Duration, retried *bool) (domain.Input, bool, error) {
	wctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	p.Deadline, _ = wctx.Deadline()

	for {
		v, err := e.prompter.Prompt(wctx, p)
		if err != nil {
			if ctx.Err() != nil {
				return domain.Absent(), true, ctx.Err()
			}
			if isTimeout(err) {
				return domain.Absent(), false, nil
			}
			return domain.Absent(), true, fmt.Errorf("запрос ввода у игрока %d: %w", p.Player.PlayerID, err)
		}
		if p.Range.Contains(v) {
			return domain.Submitted(v), true, nil
		}
		if *retried {
			log.Warn("second out of range value", "player", p.Player.PlayerID, "value", v)
			return domain.Absent(), true, nil
		}
		*retried = true
		log.Debug("out of range value, retry", "player", p.Player.PlayerID, "value", v, "range", p.Range.String())
		p.Kind = PromptRetry
	}
}

func isTimeout(err error) bool {
	return errors.Is(err, context.DeadlineExceeded) || errors.Is(err, domain.ErrTimeoutExpired)
}
