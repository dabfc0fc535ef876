package ws

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"hand_hockey/internal/domain"
	"hand_hockey/internal/service"
)

// TokenParser проверяет токен зрителя
type TokenParser interface {
	Parse(token string) (*service.Claims, error)
}

// Handler подключает зрителей к живому матчу: GET /ws/matches/:id?token=...
type Handler struct {
	hub      *Hub
	auth     TokenParser
	upgrader websocket.Upgrader
}

// NewHandler - auth может быть nil, тогда смотреть матчи можно без токена
func NewHandler(hub *Hub, auth TokenParser, allowedOrigin string) *Handler {
	return &Handler{
		hub:  hub,
		auth: auth,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				if allowedOrigin == "" || allowedOrigin == "*" {
					return true
				}
				return r.Header.Get("Origin") == allowedOrigin
			},
		},
	}
}

func (h *Handler) HandleWS(c *gin.Context) {
	var userID int64
	if h.auth != nil {
		token := c.Query("token")
		if token == "" {
			token = strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
		}
		if token == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "токен обязателен"})
			return
		}
		claims, err := h.auth.Parse(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "неверный токен"})
			return
		}
		userID = claims.UserID
	}

	matchID := c.Param("id")
	snapshot, err := h.hub.Snapshot(matchID)
	if err != nil {
		if errors.Is(err, domain.ErrMatchNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "матч не найден или уже завершен"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "не удалось получить матч"})
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.hub.log.Warn("ws upgrade failed", "match_id", matchID, "error", err)
		return
	}

	client := NewClient(matchID, userID, conn, h.hub)
	client.Send <- snapshot
	h.hub.Register(client)
	go client.Run()

	// матч мог завершиться между снимком и подпиской
	if _, err := h.hub.matches.Snapshot(matchID); err != nil {
		h.hub.Unregister(client)
	}
}
