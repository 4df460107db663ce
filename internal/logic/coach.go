package logic

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"healthcoach-backend/internal/db"
	"healthcoach-backend/internal/llm"
	"healthcoach-backend/internal/metrics"
	"healthcoach-backend/internal/prompt"
)

const streamType = "coach"

type coachRequest struct {
	Messages []llm.Message `json:"messages"`
}

// coachGoals 提示词里的目标部分
type coachGoals struct {
	HealthGoals   []db.HealthGoal `json:"healthGoals"`
	PersonalGoals string          `json:"personalGoals"`
}

// coachConversation 并发读取最近记录、目标和资料，拼出系统提示词并放在对话最前面
func (s *Server) coachConversation(ctx context.Context, userID string, messages []llm.Message) ([]llm.Message, error) {
	var (
		recent  []db.DailyEntry
		goals   []db.HealthGoal
		profile *db.UserProfile
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		recent, err = s.store.ListDailyEntries(gctx, userID, db.EntryFilter{Limit: s.recentLimit})
		return err
	})
	g.Go(func() error {
		var err error
		goals, err = s.store.ListGoals(gctx, userID)
		return err
	})
	g.Go(func() error {
		p, err := s.store.GetProfile(gctx, userID)
		if errors.Is(err, db.ErrNotFound) {
			return nil
		}
		profile = p
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	cg := coachGoals{HealthGoals: goals}
	if profile != nil {
		cg.PersonalGoals = profile.PersonalGoals
	}
	system, err := prompt.CoachPrompt(prompt.CoachContext{
		RecentActivities: recent,
		Goals:            cg,
		Profile:          profile.Describe(),
	})
	if err != nil {
		return nil, err
	}

	out := make([]llm.Message, 0, len(messages)+1)
	out = append(out, llm.Message{Role: llm.RoleSystem, Content: system})
	return append(out, messages...), nil
}

// stream 把上游片段原样交给 write，并记录指标
func (s *Server) stream(ctx context.Context, messages []llm.Message, write func(string) error) error {
	metrics.ActiveStreams.Inc()
	defer metrics.ActiveStreams.Dec()

	start := time.Now()
	err := s.llm.Stream(ctx, messages, write)
	metrics.RecordLLM(streamType, true, time.Since(start).Seconds(), err)
	return err
}

// CoachHandler 流式教练对话，text/plain 逐段写出
func (s *Server) CoachHandler(c *gin.Context) {
	userID := currentUser(c)
	var req coachRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	ctx := c.Request.Context()
	messages, err := s.coachConversation(ctx, userID, req.Messages)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("load coach context failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": errGenerate})
		return
	}

	// 第一个片段到达前不写响应头，这样上游直接失败时还能返回 500
	started := false
	begin := func() {
		if started {
			return
		}
		started = true
		c.Header("Content-Type", "text/plain; charset=utf-8")
		c.Header("Cache-Control", "no-cache")
		c.Header("X-Accel-Buffering", "no")
		c.Status(http.StatusOK)
		c.Writer.WriteHeaderNow()
	}

	err = s.stream(ctx, messages, func(delta string) error {
		begin()
		if _, err := c.Writer.WriteString(delta); err != nil {
			return err
		}
		c.Writer.Flush()
		return nil
	})
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Bool("started", started).Msg("coach stream failed")
		if !started {
			c.JSON(http.StatusInternalServerError, gin.H{"error": errGenerate})
		}
		return
	}
	begin()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// CoachWSHandler 与 /coach 相同，但每个片段是一条文本帧
func (s *Server) CoachWSHandler(c *gin.Context) {
	userID := currentUser(c)
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		s.logger.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	defer conn.Close()

	fail := func(msg string) {
		conn.WriteJSON(gin.H{"error": msg})
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseInternalServerErr, msg))
	}

	var req coachRequest
	if err := conn.ReadJSON(&req); err != nil {
		s.logger.Warn().Err(err).Str("user_id", userID).Msg("read coach request failed")
		fail("invalid request body")
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()
	// 客户端断开时取消上游调用
	go func() {
		for {
			if _, _, err := conn.NextReader(); err != nil {
				cancel()
				return
			}
		}
	}()

	messages, err := s.coachConversation(ctx, userID, req.Messages)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("load coach context failed")
		fail(errGenerate)
		return
	}

	err = s.stream(ctx, messages, func(delta string) error {
		return conn.WriteMessage(websocket.TextMessage, []byte(delta))
	})
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("coach stream failed")
		fail(errGenerate)
		return
	}
	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
