package logic

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"healthcoach-backend/internal/db"
)

// GetEntryHandler 某天的记录
func (s *Server) GetEntryHandler(c *gin.Context) {
	date := c.Param("date")
	if !validDate(date) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}
	entry, err := s.store.GetDailyEntry(c.Request.Context(), currentUser(c), date)
	if errors.Is(err, db.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "entry not found"})
		return
	}
	if err != nil {
		s.logger.Error().Err(err).Msg("get daily entry failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	c.JSON(200, entry)
}

// PutEntryHandler 当天有记录则覆盖，没有则新建
func (s *Server) PutEntryHandler(c *gin.Context) {
	date := c.Param("date")
	if !validDate(date) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "date must be YYYY-MM-DD"})
		return
	}
	var fields db.EntryFields
	if err := c.ShouldBindJSON(&fields); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	entry, err := s.store.UpsertDailyEntry(c.Request.Context(), currentUser(c), date, fields)
	if err != nil {
		s.logger.Error().Err(err).Msg("upsert daily entry failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	c.JSON(200, entry)
}

// ListEntriesHandler 按日期倒序，支持 since 和 limit
func (s *Server) ListEntriesHandler(c *gin.Context) {
	var filter db.EntryFilter
	if since := c.Query("since"); since != "" {
		if !validDate(since) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "since must be YYYY-MM-DD"})
			return
		}
		filter.Since = since
	}
	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a non-negative integer"})
			return
		}
		filter.Limit = limit
	}
	entries, err := s.store.ListDailyEntries(c.Request.Context(), currentUser(c), filter)
	if err != nil {
		s.logger.Error().Err(err).Msg("list daily entries failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	c.JSON(200, gin.H{"entries": entries})
}
