package match

import (
	"context"
	"fmt"

	"hand_hockey/internal/domain"
	"hand_hockey/internal/game"
	"hand_hockey/internal/logger"
)

// RoundRequest - параметры раунда. Пустые поля подбирает планировщик.
type RoundRequest struct {
	Scenario   domain.Scenario
	AttackerID int64
	DefenderID int64
}

// RoundResult - принятый раунд
type RoundResult struct {
	Event   domain.ActionEvent
	Score   domain.Score
	Match   *domain.Match
	Summary *domain.MatchSummary // не nil, если матч завершился этим раундом
}

// ResolveRound разыгрывает один раунд. Пока идет сбор ввода, матч не заблокирован:
// отмена или истечение матча прерывает ожидание, и результат раунда отбрасывается.
func (l *Lifecycle) ResolveRound(ctx context.Context, matchID string, actor int64, req RoundRequest) (RoundResult, error) {
	s, err := l.session(matchID)
	if err != nil {
		return RoundResult{}, err
	}

	s.mu.Lock()
	if snap, notes, err := l.expireIfDue(ctx, s, "round"); err != nil {
		s.mu.Unlock()
		if snap != nil {
			l.finalize(ctx, snap, notes)
		}
		return RoundResult{}, err
	}
	m := s.match
	if err := requireState("round", m, domain.StateInProgress); err != nil {
		s.mu.Unlock()
		return RoundResult{}, err
	}
	if err := l.requirePlayer("round", m, actor); err != nil {
		s.mu.Unlock()
		return RoundResult{}, err
	}
	if s.roundCancel != nil {
		s.mu.Unlock()
		return RoundResult{}, domain.ErrRoundInProgress
	}
	contest, err := contestFor(m, req)
	if err != nil {
		s.mu.Unlock()
		return RoundResult{}, err
	}
	number := m.Round + 1
	roundCtx, cancel := context.WithCancel(ctx)
	s.roundCancel = cancel
	s.mu.Unlock()

	log := logger.ForMatch("lifecycle", matchID).With("round", number)
	log.Debug("round started", "scenario", contest.Scenario,
		"attacker", contest.Attacker.PlayerID, "defender", contest.Defender.PlayerID)

	// генератор матча нужен только для офсайда; ввод игроков его не трогает
	outcome, rerr := l.engine.Resolve(roundCtx, game.Round{
		MatchID:  matchID,
		Number:   number,
		Scenario: contest.Scenario,
		Attacker: contest.Attacker,
		Defender: contest.Defender,
		Rand:     s.rng,
	})

	s.mu.Lock()
	cancel()
	s.roundCancel = nil
	// матч отменен или истек, пока ждали ввод: частичный ввод отбрасывается
	if s.match.State != domain.StateInProgress {
		cur := s.match.State
		s.mu.Unlock()
		log.Info("round discarded", "state", cur)
		return RoundResult{}, &domain.StateConflictError{Op: "round", Current: cur, Requested: domain.StateInProgress}
	}
	if rerr != nil {
		s.mu.Unlock()
		log.Warn("round failed", "err", rerr)
		return RoundResult{}, fmt.Errorf("раунд %d: %w", number, rerr)
	}

	res, notes, err := l.applyRound(ctx, s, outcome)
	if err != nil {
		s.mu.Unlock()
		return RoundResult{}, err
	}
	snap := l.commit(s, res.Match, notes)
	s.mu.Unlock()

	res.Match = snap
	l.metrics.RoundResolved(string(outcome.Scenario), string(outcome.Category))
	log.Info("round resolved", "scenario", outcome.Scenario, "category", outcome.Category,
		"winner", outcome.Winner, "forfeit", outcome.Forfeit, "score_a", res.Score.A, "score_b", res.Score.B)
	l.finalize(ctx, snap, notes)
	return res, nil
}

// applyRound записывает исход в копию матча и сохраняет ее; вызывается под s.mu
func (l *Lifecycle) applyRound(ctx context.Context, s *session, o domain.Outcome) (RoundResult, []domain.Notification, error) {
	m := s.match.Clone()
	now := l.now()
	m.Touch(now, l.cfg.MatchTimeout)

	ev := domain.NewActionEvent(l.newEventID(), m.ID, m.Round+1, o, now)
	if n, ok := game.Narrate(o); ok {
		ev.Narrative = n
	}
	score, err := l.keeper.Apply(m, ev)
	if err != nil {
		return RoundResult{}, nil, err
	}
	ev = m.Events[len(m.Events)-1]

	possession := m.Possession
	if o.Attacker.Team.Valid() {
		possession = o.Attacker.Team
	}
	m.Round++
	last := o
	m.LastOutcome = &last
	m.Possession = game.PossessionAfter(possession, o)

	if err := l.store.RecordRound(ctx, m, ev); err != nil {
		return RoundResult{}, nil, storeErr("round", err)
	}

	evCopy := ev
	notes := []domain.Notification{{
		Kind:  domain.NoteRound,
		From:  m.State,
		To:    m.State,
		Event: &evCopy,
		Details: map[string]any{
			"possession": string(m.Possession),
		},
	}}
	res := RoundResult{Event: ev, Score: score, Match: m}

	if l.cfg.RoundsPerMatch > 0 && m.Round >= l.cfg.RoundsPerMatch {
		n, err := l.finish(ctx, m, 0)
		if err != nil {
			return RoundResult{}, nil, err
		}
		sum, _ := n.Details["summary"].(domain.MatchSummary)
		res.Summary = &sum
		notes = append(notes, n)
	}
	return res, notes, nil
}

// requirePlayer - раунд запускают участники матча, хост или админ
func (l *Lifecycle) requirePlayer(op string, m *domain.Match, actor int64) error {
	if _, ok := m.Roster.Get(actor); ok {
		return nil
	}
	return l.requireHost(op, m, actor)
}

// contestFor строит единоборство из запроса, дополняя пустые поля планировщиком
func contestFor(m *domain.Match, req RoundRequest) (game.Contest, error) {
	if req.Scenario == "" && req.AttackerID == 0 && req.DefenderID == 0 {
		return game.NextContest(m)
	}

	sc := req.Scenario
	if sc == "" {
		sc = game.NextScenario(m.Round, m.Possession, m.LastOutcome)
	}
	if !sc.Valid() {
		return game.Contest{}, &domain.ValidationError{Field: "scenario", Reason: fmt.Sprintf("неизвестный сценарий %q", sc)}
	}

	attacking := m.Possession
	if req.AttackerID != 0 {
		p, err := m.Player(req.AttackerID)
		if err != nil {
			return game.Contest{}, err
		}
		attacking = p.Team
	}
	if !attacking.Valid() {
		return game.Contest{}, &domain.ValidationError{Field: "possession", Reason: "не определена команда с мячом"}
	}
	att, def, err := game.PickParticipants(m, sc, attacking)
	if err != nil {
		return game.Contest{}, err
	}
	if req.AttackerID != 0 {
		p, _ := m.Roster.Get(req.AttackerID)
		att = p.Participant()
	}
	if req.DefenderID != 0 {
		p, err := m.Player(req.DefenderID)
		if err != nil {
			return game.Contest{}, err
		}
		if p.Team == att.Team {
			return game.Contest{}, &domain.ValidationError{Field: "defender", Reason: "защитник должен быть из другой команды"}
		}
		def = p.Participant()
	}
	return game.Contest{Scenario: sc, Attacker: att, Defender: def}, nil
}
