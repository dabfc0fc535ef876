package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"hand_hockey/internal/domain"
	"hand_hockey/internal/logger"
	"hand_hockey/internal/service"
)

// LiveMatches - живые матчи в памяти процесса
type LiveMatches interface {
	List() []*domain.Match
	Snapshot(matchID string) (*domain.Match, error)
	ByPlayer(playerID int64) (*domain.Match, error)
	Cancel(ctx context.Context, matchID string, actor int64) (*domain.Match, error)
}

// MatchArchive - сохраненные матчи и их события
type MatchArchive interface {
	GetByID(ctx context.Context, id string) (*domain.Match, error)
	Events(ctx context.Context, matchID string) ([]domain.ActionEvent, error)
}

type Players interface {
	GetByID(ctx context.Context, id int64) (*domain.Player, error)
	Top(ctx context.Context, limit int) ([]*domain.Player, error)
}

type Handler struct {
	Matches  LiveMatches
	Archive  MatchArchive
	Players  Players
	Auth     *service.Auth
	BotToken string
	IsAdmin  func(id int64) bool
	Version  string

	now func() time.Time
	log *slog.Logger
}

func New(matches LiveMatches, archive MatchArchive, players Players, auth *service.Auth, botToken string, isAdmin func(int64) bool) *Handler {
	return &Handler{
		Matches:  matches,
		Archive:  archive,
		Players:  players,
		Auth:     auth,
		BotToken: botToken,
		IsAdmin:  isAdmin,
		Version:  "dev",
		now:      time.Now,
		log:      logger.With("component", "http"),
	}
}

// getUserID - telegram id из токена, положенный middleware.RequireAuth
func getUserID(c *gin.Context) (int64, bool) {
	v, ok := c.Get("user_id")
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok && id != 0
}

// writeError переводит ошибку домена в HTTP статус
func (h *Handler) writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrMatchNotFound), errors.Is(err, domain.ErrPlayerNotInMatch):
		status = http.StatusNotFound
	case errors.Is(err, domain.ErrPermission):
		status = http.StatusForbidden
	case errors.Is(err, domain.ErrStateConflict), errors.Is(err, domain.ErrRoundInProgress):
		status = http.StatusConflict
	case errors.Is(err, domain.ErrValidation), errors.Is(err, domain.ErrEmptyTeam):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		h.log.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(status, gin.H{"error": "internal error"})
		return
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

// Health - живость процесса и число живых матчей
func (h *Handler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":       "ok",
		"version":      h.Version,
		"live_matches": len(h.Matches.List()),
	})
}
