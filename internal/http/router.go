package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"hand_hockey/internal/http/handlers"
	"hand_hockey/internal/http/middleware"
	"hand_hockey/internal/ratelimit"
	"hand_hockey/internal/ws"
)

type Deps struct {
	Handler       *handlers.Handler
	WS            *ws.Handler
	Limiter       ratelimit.Limiter
	Metrics       stdhttp.Handler // nil - promhttp.Handler()
	AllowedOrigin string
}

// NewRouter собирает gin с маршрутами API и оборачивает его в CORS
func NewRouter(d Deps) stdhttp.Handler {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.RequestLogger())
	RegisterRoutes(r, d)

	origin := d.AllowedOrigin
	if origin == "" {
		origin = "*"
	}
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{origin},
		AllowedMethods:   []string{stdhttp.MethodGet, stdhttp.MethodPost, stdhttp.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: origin != "*",
		MaxAge:           600,
	})
	return c.Handler(r)
}

func RegisterRoutes(r *gin.Engine, d Deps) {
	h := d.Handler

	metrics := d.Metrics
	if metrics == nil {
		metrics = promhttp.Handler()
	}
	r.GET("/metrics", gin.WrapH(metrics))
	r.GET("/health", h.Health)

	api := r.Group("/api", middleware.RateLimit(d.Limiter))
	{
		api.GET("/matches", h.ListMatches)
		api.GET("/matches/:id", h.GetMatch)
		api.GET("/matches/:id/events", h.MatchEvents)
		api.GET("/players/:id", h.Player)
		api.GET("/leaderboard", h.GetLeaderboard)
		api.POST("/auth/telegram", h.TelegramAuth)

		admin := api.Group("/admin", middleware.RequireAuth(authOrNil(h)), middleware.RequireAdmin())
		admin.POST("/matches/:id/cancel", h.CancelMatch)
	}

	if d.WS != nil {
		r.GET("/ws/matches/:id", d.WS.HandleWS)
	}
}

// authOrNil не дает типизированному nil попасть в интерфейс
func authOrNil(h *handlers.Handler) middleware.TokenParser {
	if h.Auth == nil {
		return nil
	}
	return h.Auth
}
