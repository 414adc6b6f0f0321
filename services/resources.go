// services/resources.go - Resource Store: the XP/coin ledger.
//
// All balance mutations flow through Credit/Debit so the reconciliation
// invariant holds: an account's totals always equal the signed sum of its
// transactions. Debits are a single conditional UPDATE guarded by the
// balance, which is what serializes concurrent debits against one account.
package services

import (
	"encoding/json"
	"errors"
	"log"
	"time"

	"numera/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Ledger reason codes. The achievement engine aggregates over these, so
// activity sources must use them consistently.
const (
	ReasonActivity          = "activity"
	ReasonLessonComplete    = "lesson_complete"
	ReasonQuizPerfect       = "quiz_perfect"
	ReasonAttendance        = "attendance"
	ReasonTeacherAward      = "teacher_award"
	ReasonAchievementReward = "achievement_reward"
	ReasonCourseRedemption  = "course_redemption"
	ReasonShopPurchase      = "shop_purchase"
)

type ResourceService struct {
	db           *gorm.DB
	achievements *AchievementService
}

func NewResourceService(db *gorm.DB) *ResourceService {
	return &ResourceService{db: db}
}

// SetAchievementService wires the post-credit evaluation hook. Optional:
// without it credits simply skip evaluation.
func (s *ResourceService) SetAchievementService(a *AchievementService) {
	s.achievements = a
}

// BalanceChange is the result of a ledger mutation.
type BalanceChange struct {
	Account     models.ResourceAccount     `json:"account"`
	Transaction models.ResourceTransaction `json:"transaction"`
	LeveledUp   bool                       `json:"leveled_up"`
	Unlocked    []models.Achievement       `json:"unlocked,omitempty"`
}

// Credit adds XP or coins. It cannot fail on balance grounds and creates the
// account on first use. XP credits recompute the cached level and run an
// achievement evaluation pass before returning; an evaluation failure is
// logged but never rolls back the credit.
func (s *ResourceService) Credit(studentID uint, resource string, amount int, reason string, metadata map[string]interface{}) (*BalanceChange, error) {
	if err := validateMutation(resource, amount); err != nil {
		return nil, err
	}

	var change *BalanceChange
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		change, err = s.creditTx(tx, studentID, resource, amount, reason, metadata)
		return err
	})
	if err != nil {
		return nil, err
	}

	if resource == models.ResourceXP && s.achievements != nil {
		result, err := s.achievements.Evaluate(studentID)
		if err != nil {
			// An achievement that fails to unlock is recoverable on the
			// next pass; a lost XP credit is not.
			log.Printf("achievement evaluation failed for student %d: %v", studentID, err)
		} else {
			change.Unlocked = result.Unlocked
			change.LeveledUp = change.LeveledUp || result.LeveledUp
			if len(result.Unlocked) > 0 {
				// Reward credits moved the balance; report the final state.
				if acct, err := s.Balance(studentID); err == nil {
					change.Account = *acct
				}
			}
		}
	}

	return change, nil
}

// Debit removes coins, failing with InsufficientBalanceError when the
// balance does not cover the amount. XP is never debited.
func (s *ResourceService) Debit(studentID uint, resource string, amount int, reason string, metadata map[string]interface{}) (*BalanceChange, error) {
	var change *BalanceChange
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var err error
		change, err = s.debitTx(tx, studentID, resource, amount, reason, metadata)
		return err
	})
	if err != nil {
		return nil, err
	}
	return change, nil
}

// Balance returns the account, or a zeroed (unpersisted) view when the
// student has no resource events yet.
func (s *ResourceService) Balance(studentID uint) (*models.ResourceAccount, error) {
	var acct models.ResourceAccount
	err := s.db.Where("student_id = ?", studentID).First(&acct).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &models.ResourceAccount{StudentID: studentID, CurrentLevel: 1}, nil
	}
	if err != nil {
		return nil, err
	}
	return &acct, nil
}

// History returns the most recent transactions, newest first. resource may
// be empty to include both types.
func (s *ResourceService) History(studentID uint, resource string, limit int) ([]models.ResourceTransaction, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	var acct models.ResourceAccount
	err := s.db.Where("student_id = ?", studentID).First(&acct).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return []models.ResourceTransaction{}, nil
	}
	if err != nil {
		return nil, err
	}

	q := s.db.Where("account_id = ?", acct.ID)
	if resource != "" {
		q = q.Where("resource_type = ?", resource)
	}

	var txns []models.ResourceTransaction
	if err := q.Order("created_at DESC, id DESC").Limit(limit).Find(&txns).Error; err != nil {
		return nil, err
	}
	return txns, nil
}

// creditTx applies a credit inside an existing transaction. The increment is
// a single UPDATE expression, never a read-modify-write pair. Used directly
// by the achievement engine for reward credits so those do not re-enter
// evaluation.
func (s *ResourceService) creditTx(tx *gorm.DB, studentID uint, resource string, amount int, reason string, metadata map[string]interface{}) (*BalanceChange, error) {
	if err := validateMutation(resource, amount); err != nil {
		return nil, err
	}

	var acct models.ResourceAccount
	if err := tx.Where(models.ResourceAccount{StudentID: studentID}).
		Attrs(models.ResourceAccount{CurrentLevel: 1}).
		FirstOrCreate(&acct).Error; err != nil {
		return nil, err
	}

	column := balanceColumn(resource)
	if err := tx.Model(&models.ResourceAccount{}).Where("id = ?", acct.ID).
		UpdateColumn(column, gorm.Expr(column+" + ?", amount)).Error; err != nil {
		return nil, err
	}
	if err := tx.First(&acct, acct.ID).Error; err != nil {
		return nil, err
	}

	leveledUp := false
	if resource == models.ResourceXP {
		if lvl := Level(acct.XPTotal); lvl != acct.CurrentLevel {
			leveledUp = lvl > acct.CurrentLevel
			if err := tx.Model(&models.ResourceAccount{}).Where("id = ?", acct.ID).
				UpdateColumn("current_level", lvl).Error; err != nil {
				return nil, err
			}
			acct.CurrentLevel = lvl
		}
	}

	txn := models.ResourceTransaction{
		AccountID:    acct.ID,
		Reference:    uuid.NewString(),
		ResourceType: resource,
		Amount:       amount,
		Reason:       reason,
		Metadata:     marshalMetadata(metadata),
		CreatedAt:    time.Now().UTC(),
	}
	if err := tx.Create(&txn).Error; err != nil {
		return nil, err
	}

	return &BalanceChange{Account: acct, Transaction: txn, LeveledUp: leveledUp}, nil
}

// debitTx applies a debit inside an existing transaction. The balance check
// and the decrement are one conditional UPDATE: zero rows affected means the
// balance did not cover the amount, and nothing was written.
func (s *ResourceService) debitTx(tx *gorm.DB, studentID uint, resource string, amount int, reason string, metadata map[string]interface{}) (*BalanceChange, error) {
	if err := validateMutation(resource, amount); err != nil {
		return nil, err
	}
	if resource == models.ResourceXP {
		return nil, validationError("XP cannot be debited")
	}

	var acct models.ResourceAccount
	err := tx.Where("student_id = ?", studentID).First(&acct).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// No resource events yet means a zero balance.
		return nil, &InsufficientBalanceError{Resource: resource, Required: amount, Available: 0}
	}
	if err != nil {
		return nil, err
	}

	column := balanceColumn(resource)
	res := tx.Model(&models.ResourceAccount{}).
		Where("id = ? AND "+column+" >= ?", acct.ID, amount).
		UpdateColumn(column, gorm.Expr(column+" - ?", amount))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, &InsufficientBalanceError{Resource: resource, Required: amount, Available: acct.CoinTotal}
	}
	if err := tx.First(&acct, acct.ID).Error; err != nil {
		return nil, err
	}

	txn := models.ResourceTransaction{
		AccountID:    acct.ID,
		Reference:    uuid.NewString(),
		ResourceType: resource,
		Amount:       -amount,
		Reason:       reason,
		Metadata:     marshalMetadata(metadata),
		CreatedAt:    time.Now().UTC(),
	}
	if err := tx.Create(&txn).Error; err != nil {
		return nil, err
	}

	return &BalanceChange{Account: acct, Transaction: txn}, nil
}

func validateMutation(resource string, amount int) error {
	if resource != models.ResourceXP && resource != models.ResourceCoins {
		return validationError("unknown resource type %q", resource)
	}
	if amount <= 0 {
		return validationError("amount must be positive, got %d", amount)
	}
	return nil
}

func balanceColumn(resource string) string {
	if resource == models.ResourceXP {
		return "xp_total"
	}
	return "coin_total"
}

func marshalMetadata(metadata map[string]interface{}) string {
	if len(metadata) == 0 {
		return ""
	}
	raw, err := json.Marshal(metadata)
	if err != nil {
		return ""
	}
	return string(raw)
}
