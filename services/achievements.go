// services/achievements.go - Achievement Engine.
//
// Catalog rows carry a declarative trigger (one counter, one threshold); the
// engine is a single interpreter over counters derived from the transaction
// log, the streak record and the leveling function. Evaluation snapshots the
// unlocked set at pass start, and reward XP goes through the ledger's
// internal credit path, so a reward can never re-trigger the pass that
// granted it.
package services

import (
	"errors"
	"time"

	"numera/models"

	"gorm.io/gorm"
)

type AchievementService struct {
	db        *gorm.DB
	resources *ResourceService
}

func NewAchievementService(db *gorm.DB, resources *ResourceService) *AchievementService {
	return &AchievementService{db: db, resources: resources}
}

// EvaluationResult reports one evaluation pass.
type EvaluationResult struct {
	Unlocked  []models.Achievement `json:"unlocked"`
	LeveledUp bool                 `json:"leveled_up"`
}

// UnlockResult reports a single unlock attempt.
type UnlockResult struct {
	Achievement     models.Achievement `json:"achievement"`
	AlreadyUnlocked bool               `json:"already_unlocked"`
	XPAwarded       int                `json:"xp_awarded"`
}

// triggerCounters are the aggregates the rule interpreter reads.
type triggerCounters struct {
	ActivityCount   int64
	PerfectCount    int64
	AttendanceCount int64
	StreakDays      int
	Level           int
	CoinsEarned     int64
}

// Evaluate checks every active, not-yet-unlocked achievement against the
// student's current counters and unlocks the ones whose rule is satisfied.
func (s *AchievementService) Evaluate(studentID uint) (*EvaluationResult, error) {
	var defs []models.Achievement
	if err := s.db.Where("active = ?", true).Find(&defs).Error; err != nil {
		return nil, err
	}

	// Snapshot of what is already unlocked as of the start of this pass.
	var unlockedIDs []uint
	if err := s.db.Model(&models.AchievementUnlock{}).
		Where("student_id = ?", studentID).
		Pluck("achievement_id", &unlockedIDs).Error; err != nil {
		return nil, err
	}
	unlockedSet := make(map[uint]bool, len(unlockedIDs))
	for _, id := range unlockedIDs {
		unlockedSet[id] = true
	}

	counters, err := s.counters(studentID)
	if err != nil {
		return nil, err
	}
	levelBefore := counters.Level

	result := &EvaluationResult{Unlocked: []models.Achievement{}}
	for _, def := range defs {
		if unlockedSet[def.ID] {
			continue
		}
		if !ruleSatisfied(def, counters) {
			continue
		}
		unlock, err := s.unlock(studentID, def)
		if err != nil {
			return result, err
		}
		if !unlock.AlreadyUnlocked {
			result.Unlocked = append(result.Unlocked, def)
		}
	}

	if len(result.Unlocked) > 0 {
		acct, err := s.resources.Balance(studentID)
		if err != nil {
			return result, err
		}
		result.LeveledUp = Level(acct.XPTotal) > levelBefore
	}
	return result, nil
}

// Unlock grants a single achievement by code. Idempotent: a repeat reports
// already_unlocked and credits nothing.
func (s *AchievementService) Unlock(studentID uint, code string) (*UnlockResult, error) {
	var def models.Achievement
	err := s.db.Where("code = ? AND active = ?", code, true).First(&def).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("achievement " + code)
	}
	if err != nil {
		return nil, err
	}
	return s.unlock(studentID, def)
}

// unlock inserts the unlock row and credits the reward in one transaction.
// FirstOrCreate against the unique (student, achievement) pair is what makes
// the operation idempotent under races: the loser of a concurrent insert
// sees RowsAffected == 0 and credits nothing.
func (s *AchievementService) unlock(studentID uint, def models.Achievement) (*UnlockResult, error) {
	result := &UnlockResult{Achievement: def}
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var row models.AchievementUnlock
		res := tx.Where(models.AchievementUnlock{StudentID: studentID, AchievementID: def.ID}).
			Attrs(models.AchievementUnlock{UnlockedAt: time.Now().UTC()}).
			FirstOrCreate(&row)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			result.AlreadyUnlocked = true
			return nil
		}

		if def.XPReward > 0 {
			_, err := s.resources.creditTx(tx, studentID, models.ResourceXP, def.XPReward,
				ReasonAchievementReward, map[string]interface{}{"achievement_code": def.Code})
			if err != nil {
				return err
			}
			result.XPAwarded = def.XPReward
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// CatalogEntry is an achievement definition plus the student's unlock state.
type CatalogEntry struct {
	models.Achievement
	Unlocked   bool       `json:"unlocked"`
	UnlockedAt *time.Time `json:"unlocked_at,omitempty"`
	Seen       bool       `json:"seen"`
}

// Catalog lists active achievements with unlock flags. Secret achievements
// stay hidden until the student has unlocked them.
func (s *AchievementService) Catalog(studentID uint) ([]CatalogEntry, error) {
	var defs []models.Achievement
	if err := s.db.Where("active = ?", true).
		Order("category, trigger_threshold").Find(&defs).Error; err != nil {
		return nil, err
	}

	var unlocks []models.AchievementUnlock
	if err := s.db.Where("student_id = ?", studentID).Find(&unlocks).Error; err != nil {
		return nil, err
	}
	byID := make(map[uint]models.AchievementUnlock, len(unlocks))
	for _, u := range unlocks {
		byID[u.AchievementID] = u
	}

	entries := make([]CatalogEntry, 0, len(defs))
	for _, def := range defs {
		u, unlocked := byID[def.ID]
		if def.Secret && !unlocked {
			continue
		}
		entry := CatalogEntry{Achievement: def, Unlocked: unlocked}
		if unlocked {
			at := u.UnlockedAt
			entry.UnlockedAt = &at
			entry.Seen = u.Seen
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// MarkSeen clears the notification badge for all of a student's unlocks.
func (s *AchievementService) MarkSeen(studentID uint) error {
	return s.db.Model(&models.AchievementUnlock{}).
		Where("student_id = ? AND seen = ?", studentID, false).
		UpdateColumn("seen", true).Error
}

func (s *AchievementService) counters(studentID uint) (*triggerCounters, error) {
	acct, err := s.resources.Balance(studentID)
	if err != nil {
		return nil, err
	}

	c := &triggerCounters{Level: Level(acct.XPTotal)}

	if acct.ID != 0 {
		base := func() *gorm.DB {
			return s.db.Model(&models.ResourceTransaction{}).
				Where("account_id = ? AND amount > 0", acct.ID)
		}

		if err := base().Where("resource_type = ? AND reason <> ?",
			models.ResourceXP, ReasonAchievementReward).
			Count(&c.ActivityCount).Error; err != nil {
			return nil, err
		}
		if err := base().Where("reason = ?", ReasonQuizPerfect).
			Count(&c.PerfectCount).Error; err != nil {
			return nil, err
		}
		if err := base().Where("reason = ?", ReasonAttendance).
			Count(&c.AttendanceCount).Error; err != nil {
			return nil, err
		}

		if err := base().Where("resource_type = ?", models.ResourceCoins).
			Select("COALESCE(SUM(amount), 0)").Scan(&c.CoinsEarned).Error; err != nil {
			return nil, err
		}
	}

	var streak models.StreakRecord
	err = s.db.Where("student_id = ?", studentID).First(&streak).Error
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	c.StreakDays = streak.CurrentStreak

	return c, nil
}

// ruleSatisfied is the whole rule interpreter: one counter, one threshold.
func ruleSatisfied(def models.Achievement, c *triggerCounters) bool {
	if def.TriggerThreshold <= 0 {
		return false
	}
	switch def.TriggerType {
	case models.TriggerActivityCount:
		return c.ActivityCount >= int64(def.TriggerThreshold)
	case models.TriggerPerfectCount:
		return c.PerfectCount >= int64(def.TriggerThreshold)
	case models.TriggerAttendanceCount:
		return c.AttendanceCount >= int64(def.TriggerThreshold)
	case models.TriggerStreakDays:
		return c.StreakDays >= def.TriggerThreshold
	case models.TriggerLevelReached:
		return c.Level >= def.TriggerThreshold
	case models.TriggerCoinsEarned:
		return c.CoinsEarned >= int64(def.TriggerThreshold)
	default:
		return false
	}
}
