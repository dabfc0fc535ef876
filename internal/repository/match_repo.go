package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"hand_hockey/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// querier - общее у пула и транзакции
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type MatchRepository struct {
	db *pgxpool.Pool
}

func NewMatchRepository(db *pgxpool.Pool) *MatchRepository {
	return &MatchRepository{db: db}
}

// CreateWithTx создает матч вместе с его текущим составом
func (r *MatchRepository) CreateWithTx(ctx context.Context, tx pgx.Tx, m *domain.Match) error {
	statsA, statsB, err := marshalStats(m)
	if err != nil {
		return err
	}
	_, err = tx.Exec(ctx, `
		INSERT INTO matches (id, host_id, chat_id, state, team_a_name, team_b_name, possession,
			stats_a, stats_b, created_at, updated_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`, m.ID, m.HostID, m.ChatID, m.State, m.TeamA.Name, m.TeamB.Name, m.Possession,
		statsA, statsB, m.CreatedAt, m.UpdatedAt, m.ExpiresAt)
	if err != nil {
		return fmt.Errorf("insert match: %w", err)
	}
	for _, p := range m.Roster.Players() {
		if err := r.addPlayer(ctx, tx, m.ID, *p); err != nil {
			return err
		}
	}
	return nil
}

// AddPlayer добавляет участника; повторный вход после выхода возвращает строку
func (r *MatchRepository) AddPlayer(ctx context.Context, matchID string, p domain.MatchPlayer) error {
	return r.addPlayer(ctx, r.db, matchID, p)
}

func (r *MatchRepository) addPlayer(ctx context.Context, q querier, matchID string, p domain.MatchPlayer) error {
	_, err := q.Exec(ctx, `
		INSERT INTO match_players (match_id, player_id, name, team, role, is_captain, joined_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (match_id, player_id) DO UPDATE
		SET name = EXCLUDED.name,
		    team = EXCLUDED.team,
		    role = EXCLUDED.role,
		    is_captain = EXCLUDED.is_captain,
		    joined_at = EXCLUDED.joined_at,
		    left_at = NULL
	`, matchID, p.PlayerID, p.Name, p.Team, p.Role, p.Captain, p.JoinedAt)
	if err != nil {
		return fmt.Errorf("insert match player %d: %w", p.PlayerID, err)
	}
	return nil
}

// RemovePlayer удаляет участника, вышедшего до начала игры
func (r *MatchRepository) RemovePlayer(ctx context.Context, matchID string, playerID int64) error {
	_, err := r.db.Exec(ctx, `DELETE FROM match_players WHERE match_id = $1 AND player_id = $2`, matchID, playerID)
	return err
}

// SubstituteWithTx помечает ушедшего игрока и добавляет замену.
// Строка ушедшего остается: его счетчики принадлежат матчу.
func (r *MatchRepository) SubstituteWithTx(ctx context.Context, tx pgx.Tx, matchID string, outID int64, in domain.MatchPlayer) error {
	tag, err := tx.Exec(ctx, `
		UPDATE match_players
		SET left_at = now(), is_captain = false
		WHERE match_id = $1 AND player_id = $2 AND left_at IS NULL
	`, matchID, outID)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("substitute: player %d not active in match %s", outID, matchID)
	}
	return r.addPlayer(ctx, tx, matchID, in)
}

// UpdateWithTx записывает состояние, команды, счет и статистику матча
func (r *MatchRepository) UpdateWithTx(ctx context.Context, tx pgx.Tx, m *domain.Match) error {
	return r.update(ctx, tx, m)
}

func (r *MatchRepository) Update(ctx context.Context, m *domain.Match) error {
	return r.update(ctx, r.db, m)
}

func (r *MatchRepository) update(ctx context.Context, q querier, m *domain.Match) error {
	statsA, statsB, err := marshalStats(m)
	if err != nil {
		return err
	}
	tag, err := q.Exec(ctx, `
		UPDATE matches
		SET state = $2, team_a_name = $3, team_b_name = $4, captain_a = $5, captain_b = $6,
		    toss_winner = $7, toss_choice = $8, possession = $9, round = $10,
		    score_a = $11, score_b = $12, stats_a = $13, stats_b = $14,
		    updated_at = $15, expires_at = $16, started_at = $17, ended_at = $18
		WHERE id = $1
	`, m.ID, m.State, m.TeamA.Name, m.TeamB.Name, nullID(m.TeamA.Captain), nullID(m.TeamB.Captain),
		m.Toss.Winner, m.Toss.Choice, m.Possession, m.Round,
		m.Score.A, m.Score.B, statsA, statsB,
		m.UpdatedAt, m.ExpiresAt, m.StartedAt, m.EndedAt)
	if err != nil {
		return fmt.Errorf("update match: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("update match %s: %w", m.ID, domain.ErrMatchNotFound)
	}
	return nil
}

// SavePlayersWithTx записывает команды, амплуа и счетчики всего состава одним батчем
func (r *MatchRepository) SavePlayersWithTx(ctx context.Context, tx pgx.Tx, m *domain.Match) error {
	batch := &pgx.Batch{}
	for _, p := range m.Roster.Players() {
		batch.Queue(`
			UPDATE match_players
			SET team = $3, role = $4, is_captain = $5,
			    goals = $6, saves = $7, tackles = $8, interceptions = $9
			WHERE match_id = $1 AND player_id = $2
		`, m.ID, p.PlayerID, p.Team, p.Role, p.Captain, p.Goals, p.Saves, p.Tackles, p.Interceptions)
	}
	br := tx.SendBatch(ctx, batch)
	for range m.Roster.Players() {
		if _, err := br.Exec(); err != nil {
			br.Close()
			return fmt.Errorf("update match players: %w", err)
		}
	}
	return br.Close()
}

// InsertEventWithTx добавляет событие раунда; повтор того же id отклоняется
func (r *MatchRepository) InsertEventWithTx(ctx context.Context, tx pgx.Tx, ev domain.ActionEvent) error {
	tag, err := tx.Exec(ctx, `
		INSERT INTO match_events (id, match_id, round, scenario, range_lo, range_hi,
			attacker_id, attacker_role, attacker_team, defender_id, defender_role, defender_team,
			attacker_input, defender_input, category, winner, forfeit, narrative, delta_a, delta_b, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)
		ON CONFLICT (id) DO NOTHING
	`, ev.ID, ev.MatchID, ev.Round, ev.Scenario, ev.Range.Lo, ev.Range.Hi,
		ev.Attacker.PlayerID, ev.Attacker.Role, ev.Attacker.Team,
		ev.Defender.PlayerID, ev.Defender.Role, ev.Defender.Team,
		inputValue(ev.AttackerInput), inputValue(ev.DefenderInput),
		ev.Category, ev.Winner, ev.Forfeit, ev.Narrative, ev.ScoreDelta.A, ev.ScoreDelta.B, ev.At)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.DuplicateEventError{EventID: ev.ID}
	}
	return nil
}

// FinishWithTx записывает MVP и оценки игроков за матч
func (r *MatchRepository) FinishWithTx(ctx context.Context, tx pgx.Tx, sum domain.MatchSummary) error {
	if _, err := tx.Exec(ctx, `UPDATE matches SET mvp_id = $2 WHERE id = $1`, sum.MatchID, nullID(sum.MVP)); err != nil {
		return err
	}
	batch := &pgx.Batch{}
	for _, p := range sum.Players {
		batch.Queue(`UPDATE match_players SET rating = $3 WHERE match_id = $1 AND player_id = $2`,
			sum.MatchID, p.PlayerID, p.Rating)
	}
	return tx.SendBatch(ctx, batch).Close()
}

// GetByID загружает матч с активным составом; nil, если матча нет
func (r *MatchRepository) GetByID(ctx context.Context, id string) (*domain.Match, error) {
	var (
		m              domain.Match
		capA, capB     *int64
		statsA, statsB []byte
	)
	err := r.db.QueryRow(ctx, `
		SELECT id, host_id, chat_id, state, team_a_name, team_b_name, captain_a, captain_b,
		       toss_winner, toss_choice, possession, round, score_a, score_b, stats_a, stats_b,
		       created_at, updated_at, expires_at, started_at, ended_at
		FROM matches
		WHERE id = $1
	`, id).Scan(
		&m.ID, &m.HostID, &m.ChatID, &m.State, &m.TeamA.Name, &m.TeamB.Name, &capA, &capB,
		&m.Toss.Winner, &m.Toss.Choice, &m.Possession, &m.Round, &m.Score.A, &m.Score.B, &statsA, &statsB,
		&m.CreatedAt, &m.UpdatedAt, &m.ExpiresAt, &m.StartedAt, &m.EndedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	m.TeamA.Label, m.TeamB.Label = domain.TeamA, domain.TeamB
	if capA != nil {
		m.TeamA.Captain = *capA
	}
	if capB != nil {
		m.TeamB.Captain = *capB
	}
	if err := json.Unmarshal(statsA, &m.StatsA); err != nil {
		return nil, fmt.Errorf("decode stats_a: %w", err)
	}
	if err := json.Unmarshal(statsB, &m.StatsB); err != nil {
		return nil, fmt.Errorf("decode stats_b: %w", err)
	}

	rows, err := r.db.Query(ctx, `
		SELECT player_id, name, team, role, is_captain, joined_at, goals, saves, tackles, interceptions
		FROM match_players
		WHERE match_id = $1 AND left_at IS NULL
		ORDER BY joined_at, player_id
	`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	for rows.Next() {
		var p domain.MatchPlayer
		if err := rows.Scan(&p.PlayerID, &p.Name, &p.Team, &p.Role, &p.Captain, &p.JoinedAt,
			&p.Goals, &p.Saves, &p.Tackles, &p.Interceptions); err != nil {
			return nil, err
		}
		if err := m.Roster.Add(p); err != nil {
			return nil, err
		}
	}
	return &m, rows.Err()
}

// Events возвращает события матча по порядку раундов
func (r *MatchRepository) Events(ctx context.Context, matchID string) ([]domain.ActionEvent, error) {
	rows, err := r.db.Query(ctx, `
		SELECT id, match_id, round, scenario, range_lo, range_hi,
		       attacker_id, attacker_role, attacker_team, defender_id, defender_role, defender_team,
		       attacker_input, defender_input, category, winner, forfeit, narrative, delta_a, delta_b, created_at
		FROM match_events
		WHERE match_id = $1
		ORDER BY round, created_at
	`, matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.ActionEvent
	for rows.Next() {
		var (
			ev       domain.ActionEvent
			attInput *int
			defInput *int
		)
		if err := rows.Scan(
			&ev.ID, &ev.MatchID, &ev.Round, &ev.Scenario, &ev.Range.Lo, &ev.Range.Hi,
			&ev.Attacker.PlayerID, &ev.Attacker.Role, &ev.Attacker.Team,
			&ev.Defender.PlayerID, &ev.Defender.Role, &ev.Defender.Team,
			&attInput, &defInput, &ev.Category, &ev.Winner, &ev.Forfeit, &ev.Narrative,
			&ev.ScoreDelta.A, &ev.ScoreDelta.B, &ev.At,
		); err != nil {
			return nil, err
		}
		ev.AttackerInput = inputFrom(attInput)
		ev.DefenderInput = inputFrom(defInput)
		out = append(out, ev)
	}
	return out, rows.Err()
}

// Recent возвращает последние матчи чата
func (r *MatchRepository) Recent(ctx context.Context, chatID int64, limit int) ([]*domain.Match, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	rows, err := r.db.Query(ctx, `
		SELECT id, state, team_a_name, team_b_name, score_a, score_b, round, created_at, ended_at
		FROM matches
		WHERE chat_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, chatID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Match
	for rows.Next() {
		m := &domain.Match{ChatID: chatID}
		var endedAt *time.Time
		if err := rows.Scan(&m.ID, &m.State, &m.TeamA.Name, &m.TeamB.Name, &m.Score.A, &m.Score.B,
			&m.Round, &m.CreatedAt, &endedAt); err != nil {
			return nil, err
		}
		m.TeamA.Label, m.TeamB.Label = domain.TeamA, domain.TeamB
		m.EndedAt = endedAt
		out = append(out, m)
	}
	return out, rows.Err()
}

func marshalStats(m *domain.Match) ([]byte, []byte, error) {
	a, err := json.Marshal(m.StatsA)
	if err != nil {
		return nil, nil, err
	}
	b, err := json.Marshal(m.StatsB)
	if err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

// nullID - 0 пишется как NULL
func nullID(id int64) *int64 {
	if id == 0 {
		return nil
	}
	return &id
}

// inputValue - отсутствующий ввод пишется как NULL
func inputValue(in domain.Input) *int {
	if !in.Present {
		return nil
	}
	v := in.Value
	return &v
}

func inputFrom(v *int) domain.Input {
	if v == nil {
		return domain.Absent()
	}
	return domain.Submitted(*v)
}
