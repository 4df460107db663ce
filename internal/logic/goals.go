package logic

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"healthcoach-backend/internal/db"
)

type goalRequest struct {
	Title       string  `json:"title"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	TargetDate  *string `json:"target_date"`
}

// suggestedGoals 前端“推荐目标”里的固定选项
var suggestedGoals = []goalRequest{
	{Title: "Weight Management", Description: "Reach and maintain a healthy weight of [target] lbs", Category: "weight"},
	{Title: "Strength Training", Description: "Build muscle mass and increase strength through regular weight training", Category: "strength"},
	{Title: "Cardiovascular Health", Description: "Improve cardiovascular endurance through regular cardio exercises", Category: "cardio"},
	{Title: "Flexibility", Description: "Enhance flexibility and mobility through stretching and yoga", Category: "flexibility"},
}

func bindGoal(c *gin.Context) (db.HealthGoal, bool) {
	var req goalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return db.HealthGoal{}, false
	}
	if strings.TrimSpace(req.Title) == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "title required"})
		return db.HealthGoal{}, false
	}
	if req.TargetDate != nil && *req.TargetDate == "" {
		req.TargetDate = nil
	}
	if req.TargetDate != nil && !validDate(*req.TargetDate) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "target_date must be YYYY-MM-DD"})
		return db.HealthGoal{}, false
	}
	return db.HealthGoal{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		TargetDate:  req.TargetDate,
	}, true
}

func goalID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid goal id"})
		return 0, false
	}
	return uint(id), true
}

func (s *Server) ListGoalsHandler(c *gin.Context) {
	goals, err := s.store.ListGoals(c.Request.Context(), currentUser(c))
	if err != nil {
		s.logger.Error().Err(err).Msg("list goals failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	c.JSON(200, gin.H{"goals": goals})
}

func (s *Server) SuggestedGoalsHandler(c *gin.Context) {
	c.JSON(200, gin.H{"goals": suggestedGoals})
}

func (s *Server) CreateGoalHandler(c *gin.Context) {
	goal, ok := bindGoal(c)
	if !ok {
		return
	}
	created, err := s.store.CreateGoal(c.Request.Context(), currentUser(c), goal)
	if err != nil {
		s.logger.Error().Err(err).Msg("create goal failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (s *Server) UpdateGoalHandler(c *gin.Context) {
	id, ok := goalID(c)
	if !ok {
		return
	}
	goal, ok := bindGoal(c)
	if !ok {
		return
	}
	updated, err := s.store.UpdateGoal(c.Request.Context(), currentUser(c), id, goal)
	if errors.Is(err, db.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "goal not found"})
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("update goal failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	c.JSON(200, updated)
}

func (s *Server) DeleteGoalHandler(c *gin.Context) {
	id, ok := goalID(c)
	if !ok {
		return
	}
	err := s.store.DeleteGoal(c.Request.Context(), currentUser(c), id)
	if errors.Is(err, db.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "goal not found"})
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("delete goal failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	c.Status(http.StatusNoContent)
}
