package logic

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"healthcoach-backend/internal/common"
	"healthcoach-backend/internal/db"
	"healthcoach-backend/internal/llm"
	"healthcoach-backend/internal/middlewares"
)

// Server 持有处理请求需要的依赖，请求之间除连接池外不共享可变状态
type Server struct {
	store       *db.Store
	llm         llm.Completer
	auth        *middlewares.Authenticator
	logger      zerolog.Logger
	recentLimit int
	now         func() time.Time
}

func NewServer(store *db.Store, completer llm.Completer, auth *middlewares.Authenticator, logger zerolog.Logger, recentLimit int) *Server {
	if recentLimit <= 0 {
		recentLimit = 3
	}
	return &Server{
		store:       store,
		llm:         completer,
		auth:        auth,
		logger:      logger,
		recentLimit: recentLimit,
		now:         time.Now,
	}
}

// SetupRouter 路由入口
func (s *Server) SetupRouter() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middlewares.RequestID(), middlewares.LoggingMiddleware(s.logger), middlewares.MetricsMiddleware())

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{"message": "pong"})
	})
	r.GET("/health", s.HealthHandler)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.POST("/chat", s.auth.OptionalUser(), s.ChatHandler)
	r.POST("/coach", s.auth.RequireUser(), s.CoachHandler)
	r.GET("/coach/ws", s.auth.RequireWebsocketUser(), s.CoachWSHandler)

	api := r.Group("/api", s.auth.RequireUser())
	api.GET("/entries", s.ListEntriesHandler)
	api.GET("/entries/:date", s.GetEntryHandler)
	api.PUT("/entries/:date", s.PutEntryHandler)
	api.GET("/profile", s.GetProfileHandler)
	api.PUT("/profile", s.PutProfileHandler)
	api.GET("/goals", s.ListGoalsHandler)
	api.POST("/goals", s.CreateGoalHandler)
	api.GET("/goals/suggested", s.SuggestedGoalsHandler)
	api.PUT("/goals/:id", s.UpdateGoalHandler)
	api.DELETE("/goals/:id", s.DeleteGoalHandler)
	api.GET("/messages/latest", s.LatestMessageHandler)
	api.POST("/messages/generate", s.GenerateMessageHandler)
	api.GET("/motivation", s.MotivationHandler)

	return r
}

// HealthHandler 检查数据库连接
func (s *Server) HealthHandler(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
	defer cancel()
	if err := s.store.Ping(ctx); err != nil {
		s.logger.Error().Err(err).Msg("health check failed")
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": "database unavailable"})
		return
	}
	c.JSON(200, gin.H{"status": "ok"})
}

// 当前用户，路由已经过 RequireUser
func currentUser(c *gin.Context) string {
	userID, _ := middlewares.UserIDFromContext(c)
	return userID
}

// validDate 只接受 yyyy-mm-dd
func validDate(date string) bool {
	_, err := time.Parse(common.DateLayout, date)
	return err == nil
}

func (s *Server) today() string {
	return s.now().Format(common.DateLayout)
}
