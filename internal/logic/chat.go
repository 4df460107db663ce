package logic

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"healthcoach-backend/internal/common"
	"healthcoach-backend/internal/extract"
	"healthcoach-backend/internal/llm"
	"healthcoach-backend/internal/metrics"
	"healthcoach-backend/internal/middlewares"
	"healthcoach-backend/internal/prompt"
)

const errGenerate = "Failed to generate message"

// ChatHandler 单次补全：按 type 选模板，analyze 额外提取营养估算
func (s *Server) ChatHandler(c *gin.Context) {
	var req prompt.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	reply, err := s.generate(c.Request.Context(), req)
	if err != nil {
		userID, _ := middlewares.UserIDFromContext(c)
		s.logger.Error().Err(err).Str("type", req.Type).Str("user_id", userID).Msg("chat completion failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": errGenerate})
		return
	}

	var nutrition extract.Object
	if req.Type == common.TypeAnalyze {
		nutrition = s.extractNutrition(reply)
	}
	c.JSON(200, gin.H{"analysis": reply, "nutrition": nutrition})
}

// generate 渲染提示词并做一次缓冲补全
func (s *Server) generate(ctx context.Context, req prompt.Request) (string, error) {
	system, err := prompt.SystemPrompt(req)
	if err != nil {
		return "", err
	}
	start := time.Now()
	reply, err := s.llm.Complete(ctx, llm.Prompt(system, prompt.UserContent(req)))
	metrics.RecordLLM(req.Type, false, time.Since(start).Seconds(), err)
	return reply, err
}

func (s *Server) extractNutrition(reply string) extract.Object {
	obj := extract.ExtractObject(reply)
	if obj == nil {
		metrics.ExtractionFailuresTotal.Inc()
		s.logger.Debug().Int("reply_len", len(reply)).Msg("no nutrition object in analysis")
		return nil
	}
	if est, ok := extract.Estimate(obj); ok {
		s.logger.Debug().
			Float64("calories", est.Calories).
			Float64("protein", est.Protein).
			Float64("carbs", est.Carbs).
			Float64("fats", est.Fats).
			Msg("nutrition estimate")
	}
	return obj
}
