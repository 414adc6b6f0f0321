// models/achievement.go
package models

import "time"

// Trigger types the achievement engine knows how to evaluate. Each is a
// simple threshold over one counter, so the engine stays a single interpreter.
const (
	TriggerActivityCount   = "activity_count"
	TriggerPerfectCount    = "perfect_count"
	TriggerAttendanceCount = "attendance_count"
	TriggerStreakDays      = "streak_days"
	TriggerLevelReached    = "level_reached"
	TriggerCoinsEarned     = "coins_earned"
)

type Achievement struct {
	ID          uint   `gorm:"primaryKey" json:"id"`
	Code        string `gorm:"not null;uniqueIndex;size:100" json:"code"`
	Name        string `gorm:"not null" json:"name"`
	Description string `gorm:"not null" json:"description"`
	Category    string `gorm:"not null;index" json:"category"` // starter, attendance, streak, mastery, elite
	Rarity      string `gorm:"not null;size:20" json:"rarity"` // common, rare, epic, legendary
	Icon        string `json:"icon"`

	// Declarative trigger rule
	TriggerType      string `gorm:"not null;size:50" json:"trigger_type"`
	TriggerThreshold int    `gorm:"not null" json:"trigger_threshold"`

	// Rewards
	XPReward int `gorm:"default:0" json:"xp_reward"`

	Active bool `gorm:"default:true" json:"active"`
	Secret bool `gorm:"default:false" json:"secret"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// AchievementUnlock marks an achievement as earned. The (student_id,
// achievement_id) pair is unique; unlocking twice is a no-op upstream.
type AchievementUnlock struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	StudentID     uint      `gorm:"not null;uniqueIndex:idx_achievement_unlocks_pair" json:"student_id"`
	AchievementID uint      `gorm:"not null;uniqueIndex:idx_achievement_unlocks_pair" json:"achievement_id"`
	UnlockedAt    time.Time `json:"unlocked_at"`
	Seen          bool      `gorm:"default:false" json:"seen"`

	Achievement Achievement `gorm:"foreignKey:AchievementID" json:"achievement,omitempty"`
}

func (Achievement) TableName() string {
	return "achievements"
}

func (AchievementUnlock) TableName() string {
	return "achievement_unlocks"
}
