package handlers

import (
	"errors"
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"

	"hand_hockey/internal/domain"
)

// ListMatches - живые матчи, новые первыми
func (h *Handler) ListMatches(c *gin.Context) {
	live := h.Matches.List()
	sort.Slice(live, func(i, j int) bool { return live[i].CreatedAt.After(live[j].CreatedAt) })

	out := make([]gin.H, 0, len(live))
	for _, m := range live {
		out = append(out, gin.H{
			"id":         m.ID,
			"chat_id":    m.ChatID,
			"state":      m.State,
			"team_a":     m.TeamA.Name,
			"team_b":     m.TeamB.Name,
			"score":      m.Score,
			"round":      m.Round,
			"players":    m.Roster.Len(),
			"expires_at": m.ExpiresAt,
		})
	}
	c.JSON(http.StatusOK, gin.H{"matches": out})
}

// GetMatch - снимок живого матча, иначе сохраненный матч из базы
func (h *Handler) GetMatch(c *gin.Context) {
	id := c.Param("id")

	m, err := h.Matches.Snapshot(id)
	if err == nil {
		c.JSON(http.StatusOK, gin.H{"live": true, "match": m.View()})
		return
	}
	if !errors.Is(err, domain.ErrMatchNotFound) {
		h.writeError(c, err)
		return
	}

	m, err = h.Archive.GetByID(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if m == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "match not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"live": false, "match": m.View()})
}

// MatchEvents - журнал раундов матча
func (h *Handler) MatchEvents(c *gin.Context) {
	id := c.Param("id")

	events, err := h.Archive.Events(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if len(events) == 0 {
		// пустой журнал отличаем от несуществующего матча
		if _, err := h.Matches.Snapshot(id); err != nil {
			m, aerr := h.Archive.GetByID(c.Request.Context(), id)
			if aerr != nil {
				h.writeError(c, aerr)
				return
			}
			if m == nil {
				c.JSON(http.StatusNotFound, gin.H{"error": "match not found"})
				return
			}
		}
		events = []domain.ActionEvent{}
	}
	c.JSON(http.StatusOK, gin.H{"match_id": id, "events": events})
}

// CancelMatch - принудительная отмена матча администратором
func (h *Handler) CancelMatch(c *gin.Context) {
	userID, ok := getUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	m, err := h.Matches.Cancel(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.writeError(c, err)
		return
	}
	h.log.Info("match cancelled via api", "match_id", m.ID, "actor", userID)
	c.JSON(http.StatusOK, gin.H{"match": m.View()})
}
