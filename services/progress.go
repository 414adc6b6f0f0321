// services/progress.go - Activity orchestration.
//
// Completion sources (lessons, quizzes, attendance, manual teacher awards)
// call in here; this is the explicit call path that replaces any event-bus
// indirection between activity handling and gamification. One activity event
// registers the streak day, credits coins, then credits XP — which runs the
// achievement pass before the request returns.
package services

import (
	"errors"
	"time"

	"numera/models"

	"gorm.io/gorm"
)

type ProgressService struct {
	db        *gorm.DB
	resources *ResourceService
	streaks   *StreakService
}

func NewProgressService(db *gorm.DB, resources *ResourceService, streaks *StreakService) *ProgressService {
	return &ProgressService{db: db, resources: resources, streaks: streaks}
}

// ActivityEvent is an upstream "student completed something" notification.
// The source decides the amounts; this core only records and aggregates.
type ActivityEvent struct {
	StudentID uint
	XP        int
	Coins     int
	Reason    string
	Metadata  map[string]interface{}
}

// ActivityResult is what the completing request reports back.
type ActivityResult struct {
	XPAwarded    int                    `json:"xp_awarded"`
	CoinsAwarded int                    `json:"coins_awarded"`
	Account      models.ResourceAccount `json:"account"`
	Level        LevelInfo              `json:"level"`
	LeveledUp    bool                   `json:"leveled_up"`
	Streak       models.StreakRecord    `json:"streak"`
	Unlocked     []models.Achievement   `json:"unlocked"`
}

// RecordActivity applies one activity event end to end.
func (s *ProgressService) RecordActivity(ev ActivityEvent, now time.Time) (*ActivityResult, error) {
	if ev.XP <= 0 {
		return nil, validationError("activity must award positive XP, got %d", ev.XP)
	}
	if ev.Reason == "" {
		ev.Reason = ReasonActivity
	}

	streak, err := s.streaks.RegisterActivity(ev.StudentID, now)
	if err != nil {
		return nil, err
	}

	if ev.Coins > 0 {
		if _, err := s.resources.Credit(ev.StudentID, models.ResourceCoins, ev.Coins, ev.Reason, ev.Metadata); err != nil {
			return nil, err
		}
	}

	change, err := s.resources.Credit(ev.StudentID, models.ResourceXP, ev.XP, ev.Reason, ev.Metadata)
	if err != nil {
		return nil, err
	}

	return &ActivityResult{
		XPAwarded:    ev.XP,
		CoinsAwarded: ev.Coins,
		Account:      change.Account,
		Level:        LevelInfoFor(change.Account.XPTotal),
		LeveledUp:    change.LeveledUp,
		Streak:       *streak,
		Unlocked:     change.Unlocked,
	}, nil
}

// AwardAction is the manual teacher award: a catalogued action's XP/coins
// applied to a student, with an audit row naming who awarded it and why.
func (s *ProgressService) AwardAction(teacherID, studentID uint, actionCode, context string, now time.Time) (*ActivityResult, error) {
	var action models.PointAction
	err := s.db.Where("code = ?", actionCode).First(&action).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("point action " + actionCode)
	}
	if err != nil {
		return nil, err
	}
	if !action.Active {
		return nil, validationError("point action %q is inactive", actionCode)
	}

	var student models.Student
	err = s.db.First(&student, studentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("student")
	}
	if err != nil {
		return nil, err
	}

	award := models.PointAward{
		StudentID: studentID,
		AwardedBy: teacherID,
		ActionID:  action.ID,
		Context:   context,
		CreatedAt: now,
	}
	if err := s.db.Create(&award).Error; err != nil {
		return nil, err
	}

	return s.RecordActivity(ActivityEvent{
		StudentID: studentID,
		XP:        action.XP,
		Coins:     action.Coins,
		Reason:    ReasonTeacherAward,
		Metadata: map[string]interface{}{
			"action_code": action.Code,
			"awarded_by":  teacherID,
			"award_id":    award.ID,
			"context":     context,
		},
	}, now)
}

// ListActions returns the active point-action catalog for teacher UIs.
func (s *ProgressService) ListActions() ([]models.PointAction, error) {
	var actions []models.PointAction
	err := s.db.Where("active = ?", true).Order("xp DESC").Find(&actions).Error
	return actions, err
}

// AwardHistory lists the manual awards a student has received.
func (s *ProgressService) AwardHistory(studentID uint, limit int) ([]models.PointAward, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	var awards []models.PointAward
	err := s.db.Where("student_id = ?", studentID).
		Preload("Action").
		Order("created_at DESC").Limit(limit).Find(&awards).Error
	return awards, err
}
