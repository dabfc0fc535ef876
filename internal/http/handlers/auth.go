package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"hand_hockey/internal/service"
)

// TelegramAuth меняет init_data Telegram WebApp на токен API
func (h *Handler) TelegramAuth(c *gin.Context) {
	if h.Auth == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "auth is disabled"})
		return
	}

	var req struct {
		InitData string `json:"init_data" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "init_data required"})
		return
	}

	p, err := service.PlayerFromInitData(req.InitData, h.BotToken, h.now())
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid init_data"})
		return
	}

	admin := h.IsAdmin != nil && h.IsAdmin(p.ID)
	token, err := h.Auth.Issue(p.ID, admin)
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token": token,
		"user":  gin.H{"id": p.ID, "username": p.Username, "first_name": p.FirstName},
		"admin": admin,
	})
}
