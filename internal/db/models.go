package db

import (
	"fmt"
	"strings"
	"time"

	"gorm.io/datatypes"
)

// DailyEntry 每日记录，每个用户每天一条
type DailyEntry struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	UserID        string         `gorm:"size:64;not null;uniqueIndex:idx_daily_user_date" json:"user_id"`
	Date          string         `gorm:"size:10;not null;uniqueIndex:idx_daily_user_date" json:"date"` // yyyy-mm-dd
	Food          string         `gorm:"type:text" json:"food"`
	Journal       string         `gorm:"type:text" json:"journal"`
	Activity      string         `gorm:"type:text" json:"activity"`
	Other         string         `gorm:"type:text" json:"other"`
	LLMAnalysis   string         `gorm:"column:llm_analysis;type:text" json:"llm_analysis"`
	NutritionInfo datatypes.JSON `json:"nutrition_info"` // 模型返回的营养估算，原样保存
	CreatedAt     time.Time      `json:"created_at"`
	UpdatedAt     time.Time      `json:"updated_at"`
}

func (DailyEntry) TableName() string {
	return "daily_info"
}

type UserProfile struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        string    `gorm:"size:64;not null;uniqueIndex" json:"user_id"`
	Height        float64   `json:"height"`        // cm
	Weight        float64   `json:"weight"`        // kg
	TargetWeight  float64   `json:"target_weight"` // kg
	Age           int       `json:"age"`
	Gender        string    `gorm:"size:16" json:"gender"`
	ActivityLevel string    `gorm:"size:32" json:"activity_level"`
	Summary       string    `gorm:"type:text" json:"summary"`        // 用户自述，优先用于提示词
	PersonalGoals string    `gorm:"type:text" json:"personal_goals"` // 自由文本目标
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Describe 生成提示词里使用的用户画像
func (p *UserProfile) Describe() string {
	if p == nil {
		return ""
	}
	if s := strings.TrimSpace(p.Summary); s != "" {
		return s
	}
	var parts []string
	if p.Age > 0 {
		parts = append(parts, fmt.Sprintf("Age: %d", p.Age))
	}
	if p.Gender != "" {
		parts = append(parts, "Gender: "+p.Gender)
	}
	if p.Height > 0 {
		parts = append(parts, fmt.Sprintf("Height: %g cm", p.Height))
	}
	if p.Weight > 0 {
		parts = append(parts, fmt.Sprintf("Weight: %g kg", p.Weight))
	}
	if p.TargetWeight > 0 {
		parts = append(parts, fmt.Sprintf("Target weight: %g kg", p.TargetWeight))
	}
	if p.ActivityLevel != "" {
		parts = append(parts, "Activity level: "+p.ActivityLevel)
	}
	return strings.Join(parts, ", ")
}

type HealthGoal struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	UserID      string    `gorm:"size:64;not null;index" json:"user_id"`
	Title       string    `gorm:"size:128" json:"title"`
	Description string    `gorm:"type:text" json:"description"`
	Category    string    `gorm:"size:32" json:"category"`              // weight/strength/cardio/flexibility
	TargetDate  *string   `gorm:"size:10" json:"target_date,omitempty"` // yyyy-mm-dd
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// DailyMessage 教练每日寄语，只追加，取最新一条
type DailyMessage struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"size:64;not null;index" json:"user_id"`
	Message   string    `gorm:"type:text" json:"message"`
	CreatedAt time.Time `json:"created_at"`
}

// DailyMotivation 按日期的激励语，只追加
type DailyMotivation struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	UserID    string    `gorm:"size:64;not null;index:idx_motivation_user_date" json:"user_id"`
	Date      string    `gorm:"size:10;not null;index:idx_motivation_user_date" json:"date"`
	Message   string    `gorm:"type:text" json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
