package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// Player - карьерная статистика игрока по telegram id
func (h *Handler) Player(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return
	}

	p, err := h.Players.GetByID(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}
	if p == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "player not found"})
		return
	}

	resp := gin.H{"player": p}
	if m, err := h.Matches.ByPlayer(id); err == nil {
		resp["live_match"] = m.ID
	}
	c.JSON(http.StatusOK, resp)
}
