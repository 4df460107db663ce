package logic

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/datatypes"

	"healthcoach-backend/internal/common"
	"healthcoach-backend/internal/db"
	"healthcoach-backend/internal/prompt"
)

// 生成每日寄语时回看的天数
const recentDays = 3

// recentInfo 寄语提示词只需要这几列
type recentInfo struct {
	Date          string         `json:"date"`
	LLMAnalysis   string         `json:"llm_analysis"`
	Journal       string         `json:"journal"`
	NutritionInfo datatypes.JSON `json:"nutrition_info"`
}

type dailyMessageContent struct {
	RecentInfo  []recentInfo   `json:"recentInfo"`
	UserProfile string         `json:"userProfile"`
	UserGoals   string         `json:"userGoals"`
	CurrentDay  *db.DailyEntry `json:"currentDay"`
}

func (s *Server) LatestMessageHandler(c *gin.Context) {
	msg, err := s.store.LatestMessage(c.Request.Context(), currentUser(c))
	if errors.Is(err, db.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "no daily message yet"})
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("get latest message failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	c.JSON(200, msg)
}

// GenerateMessageHandler 根据最近三天的记录生成寄语并追加保存
func (s *Server) GenerateMessageHandler(c *gin.Context) {
	ctx := c.Request.Context()
	userID := currentUser(c)

	content, err := s.dailyMessageContent(ctx, userID)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("load daily message context failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": errGenerate})
		return
	}
	raw, err := json.Marshal(content)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": errGenerate})
		return
	}

	reply, err := s.generate(ctx, prompt.Request{Type: common.TypeDailyMessage, Content: raw})
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("daily message completion failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": errGenerate})
		return
	}
	msg, err := s.store.AppendMessage(ctx, userID, reply)
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("save daily message failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	c.JSON(200, msg)
}

func (s *Server) dailyMessageContent(ctx context.Context, userID string) (dailyMessageContent, error) {
	now := s.now()
	since := now.AddDate(0, 0, -recentDays).Format(common.DateLayout)
	entries, err := s.store.ListDailyEntries(ctx, userID, db.EntryFilter{Since: since})
	if err != nil {
		return dailyMessageContent{}, err
	}

	content := dailyMessageContent{RecentInfo: make([]recentInfo, 0, len(entries))}
	today := now.Format(common.DateLayout)
	for i := range entries {
		e := &entries[i]
		content.RecentInfo = append(content.RecentInfo, recentInfo{
			Date:          e.Date,
			LLMAnalysis:   e.LLMAnalysis,
			Journal:       e.Journal,
			NutritionInfo: e.NutritionInfo,
		})
		if e.Date == today {
			content.CurrentDay = e
		}
	}

	profile, err := s.store.GetProfile(ctx, userID)
	switch {
	case errors.Is(err, db.ErrNotFound):
	case err != nil:
		return dailyMessageContent{}, err
	default:
		content.UserProfile = profile.Describe()
		content.UserGoals = profile.PersonalGoals
	}
	return content, nil
}

// MotivationHandler 当天已有激励语直接返回，否则生成一条并追加
func (s *Server) MotivationHandler(c *gin.Context) {
	ctx := c.Request.Context()
	userID := currentUser(c)
	date := c.DefaultQuery("date", s.today())
	if !validDate(date) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}

	existing, err := s.store.LatestMotivation(ctx, userID, date)
	if err == nil {
		c.JSON(200, gin.H{"date": date, "message": existing.Message, "generated": false})
		return
	}
	if !errors.Is(err, db.ErrNotFound) {
		s.logger.Error().Err(err).Msg("get motivation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}

	content, err := s.motivationContent(ctx, userID, date)
	if err != nil {
		s.logger.Error().Err(err).Msg("load motivation context failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": errGenerate})
		return
	}
	raw, _ := json.Marshal(content)
	reply, err := s.generate(ctx, prompt.Request{Type: common.TypeMotivate, Content: raw})
	if err != nil {
		s.logger.Error().Err(err).Str("user_id", userID).Msg("motivation completion failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": errGenerate})
		return
	}
	if _, err := s.store.AppendMotivation(ctx, userID, date, reply); err != nil {
		s.logger.Error().Err(err).Msg("save motivation failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	c.JSON(200, gin.H{"date": date, "message": reply, "generated": true})
}

func (s *Server) motivationContent(ctx context.Context, userID, date string) (string, error) {
	entry, err := s.store.GetDailyEntry(ctx, userID, date)
	if errors.Is(err, db.ErrNotFound) {
		return "New day starting", nil
	}
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("Today's activities:\nFood: %s\nExercise: %s\nNotes: %s", entry.Food, entry.Activity, entry.Other), nil
}
