// models/models.go - Core Models (students, tutors, course catalog)
package models

import (
	"time"
)

// Student is the learner profile. Identity is issued elsewhere; this row only
// carries what the progression core needs (tutor assignment, display data).
type Student struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Username  string    `json:"username" gorm:"uniqueIndex;not null;size:100"`
	FirstName string    `json:"first_name" gorm:"size:100"`
	LastName  string    `json:"last_name" gorm:"size:100"`
	AvatarURL string    `json:"avatar_url" gorm:"size:500"`
	TutorID   *uint     `json:"tutor_id" gorm:"index"`
	Tutor     *Tutor    `json:"tutor,omitempty" gorm:"foreignKey:TutorID"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Tutor is the parent/guardian who approves course redemptions.
type Tutor struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	FirstName string    `json:"first_name" gorm:"size:100"`
	LastName  string    `json:"last_name" gorm:"size:100"`
	Email     string    `json:"email" gorm:"uniqueIndex;size:255"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Course is catalog reference data for the redemption marketplace. Content
// itself (lessons, videos) lives in another system; we only keep what the
// redemption workflow validates against.
type Course struct {
	ID               uint      `json:"id" gorm:"primaryKey"`
	Code             string    `json:"code" gorm:"uniqueIndex;not null;size:100"`
	Title            string    `json:"title" gorm:"not null;size:255"`
	Description      string    `json:"description" gorm:"type:text"`
	Category         string    `json:"category" gorm:"index;size:100"`
	PriceCoins       int       `json:"price_coins" gorm:"not null;default:0"`
	PriceUSD         float64   `json:"price_usd" gorm:"not null;default:0"`
	LevelRequired    int       `json:"level_required" gorm:"default:1"`
	Active           bool      `json:"active" gorm:"default:true;index"`
	Featured         bool      `json:"featured" gorm:"default:false"`
	Fresh            bool      `json:"fresh" gorm:"column:is_new;default:false"`
	SortOrder        int       `json:"sort_order" gorm:"default:0"`
	TotalRedemptions int       `json:"total_redemptions" gorm:"default:0"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// CourseGrant records that a student owns a course. Created only by an
// approved redemption; (student_id, course_id) is unique.
type CourseGrant struct {
	ID              uint       `json:"id" gorm:"primaryKey"`
	StudentID       uint       `json:"student_id" gorm:"not null;uniqueIndex:idx_course_grants_pair"`
	CourseID        uint       `json:"course_id" gorm:"not null;uniqueIndex:idx_course_grants_pair"`
	Course          *Course    `json:"course,omitempty" gorm:"foreignKey:CourseID"`
	ProgressPercent int        `json:"progress_percent" gorm:"default:0"`
	Completed       bool       `json:"completed" gorm:"default:false"`
	StartedAt       time.Time  `json:"started_at"`
	CompletedAt     *time.Time `json:"completed_at,omitempty"`
}

// PointAction is a catalogued reason a teacher can award points for
// (participation, helping a classmate, extra challenge).
type PointAction struct {
	ID          uint      `json:"id" gorm:"primaryKey"`
	Code        string    `json:"code" gorm:"uniqueIndex;not null;size:100"`
	Name        string    `json:"name" gorm:"not null;size:255"`
	Description string    `json:"description" gorm:"type:text"`
	XP          int       `json:"xp" gorm:"not null;default:0"`
	Coins       int       `json:"coins" gorm:"default:0"`
	Active      bool      `json:"active" gorm:"default:true"`
	CreatedAt   time.Time `json:"created_at"`
}

// PointAward is the audit trail for manual teacher awards.
type PointAward struct {
	ID        uint         `json:"id" gorm:"primaryKey"`
	StudentID uint         `json:"student_id" gorm:"not null;index"`
	AwardedBy uint         `json:"awarded_by" gorm:"not null;index"`
	ActionID  uint         `json:"action_id" gorm:"not null;index"`
	Action    *PointAction `json:"action,omitempty" gorm:"foreignKey:ActionID"`
	Context   string       `json:"context" gorm:"size:500"`
	CreatedAt time.Time    `json:"created_at"`
}

func (Student) TableName() string {
	return "students"
}

func (Tutor) TableName() string {
	return "tutors"
}

func (Course) TableName() string {
	return "courses"
}

func (CourseGrant) TableName() string {
	return "course_grants"
}

func (PointAction) TableName() string {
	return "point_actions"
}

func (PointAward) TableName() string {
	return "point_awards"
}
