package repository

import (
	"context"
	"fmt"

	"hand_hockey/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store собирает репозитории в логические операции жизненного цикла матча.
// Каждая операция, меняющая несколько таблиц, идет в одной транзакции.
type Store struct {
	db      *pgxpool.Pool
	Players *PlayerRepository
	Matches *MatchRepository
}

func NewStore(db *pgxpool.Pool) *Store {
	return &Store{
		db:      db,
		Players: NewPlayerRepository(db),
		Matches: NewMatchRepository(db),
	}
}

func (s *Store) inTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func (s *Store) UpsertPlayer(ctx context.Context, p domain.Player) error {
	return s.Players.Upsert(ctx, p)
}

func (s *Store) CreateMatch(ctx context.Context, m *domain.Match) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		return s.Matches.CreateWithTx(ctx, tx, m)
	})
}

func (s *Store) AddMatchPlayer(ctx context.Context, matchID string, p domain.MatchPlayer) error {
	return s.Matches.AddPlayer(ctx, matchID, p)
}

func (s *Store) RemoveMatchPlayer(ctx context.Context, matchID string, playerID int64) error {
	return s.Matches.RemovePlayer(ctx, matchID, playerID)
}

func (s *Store) SubstitutePlayer(ctx context.Context, matchID string, outID int64, in domain.MatchPlayer) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		return s.Matches.SubstituteWithTx(ctx, tx, matchID, outID, in)
	})
}

func (s *Store) SaveAssignments(ctx context.Context, m *domain.Match) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		if err := s.Matches.SavePlayersWithTx(ctx, tx, m); err != nil {
			return err
		}
		return s.Matches.UpdateWithTx(ctx, tx, m)
	})
}

func (s *Store) UpdateMatchState(ctx context.Context, m *domain.Match) error {
	return s.Matches.Update(ctx, m)
}

// RecordRound сохраняет событие, счет и счетчики игроков вместе
func (s *Store) RecordRound(ctx context.Context, m *domain.Match, ev domain.ActionEvent) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		if err := s.Matches.InsertEventWithTx(ctx, tx, ev); err != nil {
			return err
		}
		if err := s.Matches.SavePlayersWithTx(ctx, tx, m); err != nil {
			return err
		}
		return s.Matches.UpdateWithTx(ctx, tx, m)
	})
}

// FinishMatch закрывает матч и переносит итоги в карьерную статистику
func (s *Store) FinishMatch(ctx context.Context, m *domain.Match, sum domain.MatchSummary) error {
	return s.inTx(ctx, func(tx pgx.Tx) error {
		if err := s.Matches.UpdateWithTx(ctx, tx, m); err != nil {
			return err
		}
		if err := s.Matches.FinishWithTx(ctx, tx, sum); err != nil {
			return err
		}
		for _, res := range sum.Players {
			if err := s.Players.ApplyResultWithTx(ctx, tx, res); err != nil {
				return fmt.Errorf("apply result %d: %w", res.PlayerID, err)
			}
		}
		return nil
	})
}
