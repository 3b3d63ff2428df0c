// Package api exposes the optional HTTP surface: the Telegram webhook
// receiver and a small JWT-guarded admin API.
package api

import (
	"time"

	"joingate/internal/store"
	"joingate/internal/telegram"
	"joingate/middleware"

	cache "github.com/chenyahui/gin-cache"
	"github.com/chenyahui/gin-cache/persist"
	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var cacheStore = persist.NewMemoryStore(time.Minute)

type API struct {
	Router *gin.Engine
	Ledger *store.Ledger
	Poller *telegram.Poller
}

func NewRouter(ledger *store.Ledger, poller *telegram.Poller) *API {
	a := &API{
		Ledger: ledger,
		Poller: poller,
	}

	router := gin.New()
	a.Router = router

	router.Use(
		cors.New(cors.Config{
			AllowOrigins:  []string{"http://localhost:5173"},
			AllowMethods:  []string{"GET", "POST", "HEAD", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
			ExposeHeaders: []string{"Content-Length"},
			MaxAge:        12 * time.Hour,
		}),
		gin.Recovery(),
		middleware.NewRequestIDMiddleware(),
		ginzap.GinzapWithConfig(zap.L(), &ginzap.Config{
			TimeFormat: "15:04:05.000",
			UTC:        true,
			Skipper: func(c *gin.Context) bool {
				return c.Request.Method == "HEAD"
			},
			Context: func(c *gin.Context) []zapcore.Field {
				fields := []zapcore.Field{}

				if v := c.GetString("requestID"); v != "" {
					fields = append(fields, zap.String("request_id", v))
				}

				return fields
			},
		}),
	)

	router.HandleMethodNotAllowed = true

	jwt := middleware.NewJWTMiddleware()

	main := router.Group("/api")
	{
		// HEAD /api/heartbeat		-> Used to check if the server is alive
		main.HEAD("/heartbeat", a.Heartbeat)

		// GET /api/status		-> Returns request counts per status
		main.GET("/status", jwt, cacheFor(30), a.Status)
	}

	// POST /webhook/:secret	-> Receives Bot API updates in webhook mode
	router.POST("/webhook/:secret", a.Webhook)

	return a
}

func cacheFor(sec int) gin.HandlerFunc {
	return cache.CacheByRequestURI(cacheStore, time.Second*time.Duration(sec))
}
