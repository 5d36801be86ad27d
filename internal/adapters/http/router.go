package http

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/yhkiel05/team-map/internal/adapters/live"
	"github.com/yhkiel05/team-map/internal/app"
	"github.com/yhkiel05/team-map/internal/config"
)

func genClientToken() string {
	idStr := uuid.NewString()
	return idStr
}

func ClientTokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Cookie("ct")
		if token == "" {
			token = genClientToken()
			c.SetCookie("ct", token, 3600*24*7, "/", "", false, true)
		}
		c.Set("client_token", token)
		c.Next()
	}
}

func CORSMiddleware(origins []string) gin.HandlerFunc {
	allowed := strings.Join(origins, ",")
	if allowed == "" {
		allowed = "*"
	}
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", allowed)
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func SetupRouter(ctx context.Context, cfg *config.Config, svc *app.Service, ctl *live.Controller) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	r.Use(sessions.Sessions("TeamMapSessions", store))
	r.Use(ClientTokenMiddleware())
	r.Use(CORSMiddleware(cfg.CORSOrigins))

	r.Static("/static", cfg.StaticPath)

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	h := NewHandler(svc, cfg)

	api := r.Group("/api")
	api.GET("/", h.banner)

	api.POST("/rooms", h.createRoom)
	api.GET("/rooms", h.listRooms)
	api.GET("/rooms/:id", h.getRoom)
	api.POST("/rooms/:id/join", h.joinRoom)
	api.DELETE("/rooms/:id", h.deactivateRoom)
	api.GET("/rooms/:id/optimal-location", h.optimalLocation)

	api.POST("/pins", h.createPin)
	api.GET("/pins/nearby", h.nearbyPins)
	api.GET("/pins/room/:room_id", h.roomPins)
	api.POST("/pins/:id/vote", h.votePin)
	api.DELETE("/pins/:id", h.deletePin)

	api.POST("/users", h.createUser)
	api.GET("/users/:id", h.getUser)

	api.GET("/ws", func(c *gin.Context) {
		log.Info().Str("module", "adapters.http").Str("ct", c.GetString("client_token")).Msg("ws endpoint hit")
		ctl.HandleWS(ctx, c)
	})

	return r
}
