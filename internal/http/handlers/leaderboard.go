package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// GetLeaderboard - лучшие игроки по голам, затем по рейтингу
func (h *Handler) GetLeaderboard(c *gin.Context) {
	limit := 10
	if s := c.Query("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n <= 0 || n > 100 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be 1..100"})
			return
		}
		limit = n
	}

	top, err := h.Players.Top(c.Request.Context(), limit)
	if err != nil {
		h.writeError(c, err)
		return
	}

	out := make([]gin.H, 0, len(top))
	for i, p := range top {
		out = append(out, gin.H{
			"rank":           i + 1,
			"id":             p.ID,
			"name":           p.DisplayName(),
			"matches_played": p.MatchesPlayed,
			"goals":          p.Goals,
			"saves":          p.Saves,
			"mvp_count":      p.MVPCount,
			"rating":         p.Rating,
		})
	}
	c.JSON(http.StatusOK, gin.H{"leaderboard": out})
}
