package logic

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"healthcoach-backend/internal/db"
)

func (s *Server) GetProfileHandler(c *gin.Context) {
	profile, err := s.store.GetProfile(c.Request.Context(), currentUser(c))
	if errors.Is(err, db.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "profile not found"})
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("get profile failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	c.JSON(200, profile)
}

// PutProfileHandler 整体覆盖用户资料
func (s *Server) PutProfileHandler(c *gin.Context) {
	var req db.UserProfile
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	if req.Height < 0 || req.Weight < 0 || req.TargetWeight < 0 || req.Age < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "measurements must not be negative"})
		return
	}
	profile, err := s.store.UpsertProfile(c.Request.Context(), currentUser(c), req)
	if err != nil {
		s.logger.Error().Err(err).Msg("upsert profile failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	c.JSON(200, profile)
}
