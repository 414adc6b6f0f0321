// services/streaks.go - Streak Tracker.
//
// Day boundaries use one reference timezone configured per deployment
// (STREAK_TIMEZONE), never per request, so "yesterday" means the same thing
// for every caller.
package services

import (
	"errors"
	"time"

	"numera/models"

	"gorm.io/gorm"
)

type StreakService struct {
	db  *gorm.DB
	loc *time.Location
}

func NewStreakService(db *gorm.DB, loc *time.Location) *StreakService {
	if loc == nil {
		loc = time.UTC
	}
	return &StreakService{db: db, loc: loc}
}

// RegisterActivity records that the student was active at now. Idempotent
// per calendar day: a second call on the same day changes nothing.
func (s *StreakService) RegisterActivity(studentID uint, now time.Time) (*models.StreakRecord, error) {
	var rec models.StreakRecord
	err := s.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where(models.StreakRecord{StudentID: studentID}).
			FirstOrCreate(&rec).Error; err != nil {
			return err
		}

		today := s.startOfDay(now)

		if rec.LastActivityAt != nil {
			switch s.daysBetween(*rec.LastActivityAt, now) {
			case 0:
				// Already counted today.
				return nil
			case 1:
				rec.CurrentStreak++
			default:
				rec.CurrentStreak = 1
				rec.StreakStartedAt = &today
			}
		} else {
			rec.CurrentStreak = 1
			rec.StreakStartedAt = &today
		}

		if rec.CurrentStreak > rec.MaxStreak {
			rec.MaxStreak = rec.CurrentStreak
		}
		rec.TotalActiveDays++
		ts := now
		rec.LastActivityAt = &ts

		return tx.Save(&rec).Error
	})
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Reconcile makes a silently expired streak visible: when more than one full
// day has passed since the last activity, CurrentStreak drops to 0 without
// touching MaxStreak. Called at read time; there is no background job.
func (s *StreakService) Reconcile(studentID uint, now time.Time) (*models.StreakRecord, error) {
	var rec models.StreakRecord
	err := s.db.Where("student_id = ?", studentID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.StreakRecord{StudentID: studentID}, nil
	}
	if err != nil {
		return nil, err
	}

	if rec.LastActivityAt != nil && rec.CurrentStreak > 0 &&
		s.daysBetween(*rec.LastActivityAt, now) >= 2 {
		rec.CurrentStreak = 0
		if err := s.db.Model(&rec).UpdateColumn("current_streak", 0).Error; err != nil {
			return nil, err
		}
	}
	return &rec, nil
}

func (s *StreakService) startOfDay(t time.Time) time.Time {
	lt := t.In(s.loc)
	return time.Date(lt.Year(), lt.Month(), lt.Day(), 0, 0, 0, 0, s.loc)
}

// daysBetween counts calendar-day boundaries crossed between a and b. The
// dates are re-anchored in UTC so DST transitions in the reference timezone
// cannot make a day count as 23 or 25 hours.
func (s *StreakService) daysBetween(a, b time.Time) int {
	ay, am, ad := a.In(s.loc).Date()
	by, bm, bd := b.In(s.loc).Date()
	ua := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	ub := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(ub.Sub(ua) / (24 * time.Hour))
}
