package db

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound 唯一需要调用方区分的错误
var ErrNotFound = errors.New("record not found")

// Store 按用户隔离的读写，所有查询都带 user_id 条件
type Store struct {
	db *gorm.DB
}

func NewStore(conn *gorm.DB) *Store {
	return &Store{db: conn}
}

func (s *Store) Ping(ctx context.Context) error {
	return Ping(ctx, s.db)
}

func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// EntryFields 每日记录中可由用户写入的字段
type EntryFields struct {
	Food          string         `json:"food"`
	Journal       string         `json:"journal"`
	Activity      string         `json:"activity"`
	Other         string         `json:"other"`
	LLMAnalysis   string         `json:"llm_analysis"`
	NutritionInfo datatypes.JSON `json:"nutrition_info"`
}

var entryUpdateColumns = []string{"food", "journal", "activity", "other", "llm_analysis", "nutrition_info", "updated_at"}

// UpsertDailyEntry 存在则更新，否则插入；后写覆盖先写
func (s *Store) UpsertDailyEntry(ctx context.Context, userID, date string, f EntryFields) (*DailyEntry, error) {
	nutrition := f.NutritionInfo
	if len(nutrition) == 0 {
		nutrition = datatypes.JSON("null")
	}
	entry := DailyEntry{
		UserID:        userID,
		Date:          date,
		Food:          f.Food,
		Journal:       f.Journal,
		Activity:      f.Activity,
		Other:         f.Other,
		LLMAnalysis:   f.LLMAnalysis,
		NutritionInfo: nutrition,
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns(entryUpdateColumns),
	}).Create(&entry).Error
	if err != nil {
		return nil, fmt.Errorf("upsert daily entry: %w", err)
	}
	return s.GetDailyEntry(ctx, userID, date)
}

func (s *Store) GetDailyEntry(ctx context.Context, userID, date string) (*DailyEntry, error) {
	var entry DailyEntry
	err := s.db.WithContext(ctx).
		Where(map[string]any{"user_id": userID, "date": date}).
		First(&entry).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &entry, nil
}

// EntryFilter Since 为空表示不限日期，Limit<=0 表示不限条数
type EntryFilter struct {
	Since string
	Limit int
}

// ListDailyEntries 按日期倒序
func (s *Store) ListDailyEntries(ctx context.Context, userID string, filter EntryFilter) ([]DailyEntry, error) {
	q := s.db.WithContext(ctx).Where(map[string]any{"user_id": userID})
	if filter.Since != "" {
		q = q.Where(clause.Gte{Column: clause.Column{Name: "date"}, Value: filter.Since})
	}
	q = q.Order(clause.OrderByColumn{Column: clause.Column{Name: "date"}, Desc: true})
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	entries := []DailyEntry{}
	if err := q.Find(&entries).Error; err != nil {
		return nil, fmt.Errorf("list daily entries: %w", err)
	}
	return entries, nil
}

func (s *Store) GetProfile(ctx context.Context, userID string) (*UserProfile, error) {
	var profile UserProfile
	if err := s.db.WithContext(ctx).Where(map[string]any{"user_id": userID}).First(&profile).Error; err != nil {
		return nil, notFound(err)
	}
	return &profile, nil
}

var profileUpdateColumns = []string{"height", "weight", "target_weight", "age", "gender", "activity_level", "summary", "personal_goals", "updated_at"}

// UpsertProfile 每个用户只有一份资料
func (s *Store) UpsertProfile(ctx context.Context, userID string, p UserProfile) (*UserProfile, error) {
	p.ID = 0
	p.UserID = userID
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}},
		DoUpdates: clause.AssignmentColumns(profileUpdateColumns),
	}).Create(&p).Error
	if err != nil {
		return nil, fmt.Errorf("upsert profile: %w", err)
	}
	return s.GetProfile(ctx, userID)
}

// ListGoals 最新的在前
func (s *Store) ListGoals(ctx context.Context, userID string) ([]HealthGoal, error) {
	goals := []HealthGoal{}
	err := s.db.WithContext(ctx).
		Where(map[string]any{"user_id": userID}).
		Order("created_at desc, id desc").
		Find(&goals).Error
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	return goals, nil
}

func (s *Store) CreateGoal(ctx context.Context, userID string, g HealthGoal) (*HealthGoal, error) {
	g.ID = 0
	g.UserID = userID
	if err := s.db.WithContext(ctx).Create(&g).Error; err != nil {
		return nil, fmt.Errorf("create goal: %w", err)
	}
	return &g, nil
}

// UpdateGoal 只能修改自己的目标
func (s *Store) UpdateGoal(ctx context.Context, userID string, id uint, g HealthGoal) (*HealthGoal, error) {
	var goal HealthGoal
	err := s.db.WithContext(ctx).Where(map[string]any{"id": id, "user_id": userID}).First(&goal).Error
	if err != nil {
		return nil, notFound(err)
	}
	goal.Title = g.Title
	goal.Description = g.Description
	goal.Category = g.Category
	goal.TargetDate = g.TargetDate
	if err := s.db.WithContext(ctx).Save(&goal).Error; err != nil {
		return nil, fmt.Errorf("update goal: %w", err)
	}
	return &goal, nil
}

func (s *Store) DeleteGoal(ctx context.Context, userID string, id uint) error {
	res := s.db.WithContext(ctx).Where(map[string]any{"id": id, "user_id": userID}).Delete(&HealthGoal{})
	if res.Error != nil {
		return fmt.Errorf("delete goal: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) AppendMessage(ctx context.Context, userID, message string) (*DailyMessage, error) {
	msg := DailyMessage{UserID: userID, Message: message}
	if err := s.db.WithContext(ctx).Create(&msg).Error; err != nil {
		return nil, fmt.Errorf("append message: %w", err)
	}
	return &msg, nil
}

func (s *Store) LatestMessage(ctx context.Context, userID string) (*DailyMessage, error) {
	var msg DailyMessage
	err := s.db.WithContext(ctx).
		Where(map[string]any{"user_id": userID}).
		Order("created_at desc, id desc").
		First(&msg).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &msg, nil
}

func (s *Store) AppendMotivation(ctx context.Context, userID, date, message string) (*DailyMotivation, error) {
	m := DailyMotivation{UserID: userID, Date: date, Message: message}
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return nil, fmt.Errorf("append motivation: %w", err)
	}
	return &m, nil
}

func (s *Store) LatestMotivation(ctx context.Context, userID, date string) (*DailyMotivation, error) {
	var m DailyMotivation
	err := s.db.WithContext(ctx).
		Where(map[string]any{"user_id": userID, "date": date}).
		Order("created_at desc, id desc").
		First(&m).Error
	if err != nil {
		return nil, notFound(err)
	}
	return &m, nil
}
