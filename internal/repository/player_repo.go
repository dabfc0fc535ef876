package repository

import (
	"context"

	"hand_hockey/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type PlayerRepository struct {
	db *pgxpool.Pool
}

func NewPlayerRepository(db *pgxpool.Pool) *PlayerRepository {
	return &PlayerRepository{db: db}
}

const playerColumns = `id, username, first_name, created_at, last_active, matches_played, matches_won,
	matches_lost, goals, saves, tackles, interceptions, hat_tricks, mvp_count, rating::float8`

// создает игрока или обновляет имя и время активности
func (r *PlayerRepository) Upsert(ctx context.Context, p domain.Player) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO players (id, username, first_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO UPDATE
		SET username = EXCLUDED.username,
		    first_name = EXCLUDED.first_name,
		    last_active = now()
	`, p.ID, p.Username, p.FirstName)
	return err
}

// получает игрока по telegram id; nil, если его нет
func (r *PlayerRepository) GetByID(ctx context.Context, id int64) (*domain.Player, error) {
	row := r.db.QueryRow(ctx, `SELECT `+playerColumns+` FROM players WHERE id = $1`, id)
	p, err := scanPlayer(row)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// Top возвращает лучших игроков: голы, затем рейтинг
func (r *PlayerRepository) Top(ctx context.Context, limit int) ([]*domain.Player, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	rows, err := r.db.Query(ctx, `
		SELECT `+playerColumns+`
		FROM players
		WHERE matches_played > 0
		ORDER BY goals DESC, rating DESC, id
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*domain.Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ApplyResultWithTx добавляет итог матча в карьерную статистику.
// Рейтинг - среднее оценок за все матчи.
func (r *PlayerRepository) ApplyResultWithTx(ctx context.Context, tx pgx.Tx, res domain.PlayerResult) error {
	_, err := tx.Exec(ctx, `
		UPDATE players
		SET matches_played = matches_played + 1,
		    matches_won    = matches_won + $2,
		    matches_lost   = matches_lost + $3,
		    goals          = goals + $4,
		    saves          = saves + $5,
		    tackles        = tackles + $6,
		    interceptions  = interceptions + $7,
		    hat_tricks     = hat_tricks + $8,
		    mvp_count      = mvp_count + $9,
		    rating         = ROUND((rating * matches_played + $10) / (matches_played + 1), 2),
		    last_active    = now()
		WHERE id = $1
	`, res.PlayerID, boolInt(res.Won), boolInt(res.Lost), res.Goals, res.Saves, res.Tackles,
		res.Interceptions, boolInt(res.HatTrick), boolInt(res.MVP), res.Rating)
	return err
}

func scanPlayer(row pgx.Row) (*domain.Player, error) {
	var p domain.Player
	if err := row.Scan(
		&p.ID, &p.Username, &p.FirstName, &p.CreatedAt, &p.LastActive, &p.MatchesPlayed, &p.MatchesWon,
		&p.MatchesLost, &p.Goals, &p.Saves, &p.Tackles, &p.Interceptions, &p.HatTricks, &p.MVPCount, &p.Rating,
	); err != nil {
		return nil, err
	}
	return &p, nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
