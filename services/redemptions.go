// services/redemptions.go - Course redemption workflow.
//
// A redemption is a request/approval state machine on top of the ledger:
// PENDING -> APPROVED | REJECTED | EXPIRED, the last three terminal. Coins
// are only debited at approval time, never at request time, so a rejected
// request never locks funds. Expiration is lazy: any touch of a stale
// PENDING request first persists the EXPIRED transition, then refuses.
package services

import (
	"errors"
	"fmt"
	"time"

	"numera/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Requests are approvable for seven days.
const redemptionTTL = 7 * 24 * time.Hour

type RedemptionService struct {
	db        *gorm.DB
	resources *ResourceService
}

func NewRedemptionService(db *gorm.DB, resources *ResourceService) *RedemptionService {
	return &RedemptionService{db: db, resources: resources}
}

// Request creates a PENDING redemption for a course. Validates the level
// requirement, the current coin balance (informational only, the real debit
// happens at approval), prior grants, duplicate pending requests, and that
// the student has a tutor to ask.
func (s *RedemptionService) Request(studentID, courseID uint, now time.Time) (*models.RedemptionRequest, error) {
	var course models.Course
	err := s.db.First(&course, courseID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("course")
	}
	if err != nil {
		return nil, err
	}
	if !course.Active {
		return nil, validationError("course %q is no longer available", course.Title)
	}

	var student models.Student
	err = s.db.First(&student, studentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("student")
	}
	if err != nil {
		return nil, err
	}
	if student.TutorID == nil {
		return nil, validationError("student has no tutor assigned")
	}

	acct, err := s.resources.Balance(studentID)
	if err != nil {
		return nil, err
	}
	if level := Level(acct.XPTotal); level < course.LevelRequired {
		return nil, validationError("course requires level %d, student is level %d",
			course.LevelRequired, level)
	}
	if acct.CoinTotal < course.PriceCoins {
		return nil, &InsufficientBalanceError{
			Resource:  models.ResourceCoins,
			Required:  course.PriceCoins,
			Available: acct.CoinTotal,
		}
	}

	var granted int64
	if err := s.db.Model(&models.CourseGrant{}).
		Where("student_id = ? AND course_id = ?", studentID, courseID).
		Count(&granted).Error; err != nil {
		return nil, err
	}
	if granted > 0 {
		return nil, fmt.Errorf("course already granted: %w", ErrAlreadyExists)
	}

	// Stale PENDING rows for this pair expire first so they cannot block a
	// fresh request.
	if err := s.expireStale(s.db.Where("student_id = ? AND course_id = ?", studentID, courseID), now); err != nil {
		return nil, err
	}
	var pending int64
	if err := s.db.Model(&models.RedemptionRequest{}).
		Where("student_id = ? AND course_id = ? AND status = ?",
			studentID, courseID, models.RedemptionPending).
		Count(&pending).Error; err != nil {
		return nil, err
	}
	if pending > 0 {
		return nil, fmt.Errorf("a pending request for this course already exists: %w", ErrAlreadyExists)
	}

	req := models.RedemptionRequest{
		Reference:   uuid.NewString(),
		StudentID:   studentID,
		TutorID:     *student.TutorID,
		CourseID:    courseID,
		CoinsQuoted: course.PriceCoins,
		Status:      models.RedemptionPending,
		RequestedAt: now,
		ExpiresAt:   now.Add(redemptionTTL),
	}
	if err := s.db.Create(&req).Error; err != nil {
		return nil, err
	}
	req.Course = &course
	return &req, nil
}

// Approve decides a PENDING request. The chosen payment option splits the
// cost between the student's coins and the tutor's fiat amount; any coin
// share is debited, the course granted, and the request closed in a single
// all-or-nothing transaction. An insufficient balance at approval time (the
// balance may have dropped since the request) surfaces as a normal failure.
func (s *RedemptionService) Approve(requestID, tutorID uint, paymentOption, message string, now time.Time) (*models.RedemptionRequest, error) {
	req, err := s.getForDecision(requestID, tutorID, now)
	if err != nil {
		return nil, err
	}

	var course models.Course
	if err := s.db.First(&course, req.CourseID).Error; err != nil {
		return nil, err
	}

	coinsToSpend, tutorAmount, err := splitPayment(paymentOption, req.CoinsQuoted, course.PriceUSD)
	if err != nil {
		return nil, err
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if coinsToSpend > 0 {
			_, err := s.resources.debitTx(tx, req.StudentID, models.ResourceCoins, coinsToSpend,
				ReasonCourseRedemption, map[string]interface{}{
					"course_id":      req.CourseID,
					"course_code":    course.Code,
					"request_id":     req.ID,
					"payment_option": paymentOption,
				})
			if err != nil {
				return err
			}
		}

		grant := models.CourseGrant{
			StudentID: req.StudentID,
			CourseID:  req.CourseID,
			StartedAt: now,
		}
		if err := tx.Create(&grant).Error; err != nil {
			return err
		}

		if err := tx.Model(&models.Course{}).Where("id = ?", req.CourseID).
			UpdateColumn("total_redemptions", gorm.Expr("total_redemptions + 1")).Error; err != nil {
			return err
		}

		decided := now
		return tx.Model(req).Updates(map[string]interface{}{
			"status":           models.RedemptionApproved,
			"payment_option":   paymentOption,
			"tutor_amount_due": tutorAmount,
			"tutor_message":    message,
			"decided_at":       &decided,
		}).Error
	})
	if err != nil {
		return nil, err
	}

	req.Course = &course
	return req, nil
}

// Reject closes a PENDING request without touching any balance.
func (s *RedemptionService) Reject(requestID, tutorID uint, message string, now time.Time) (*models.RedemptionRequest, error) {
	req, err := s.getForDecision(requestID, tutorID, now)
	if err != nil {
		return nil, err
	}

	if message == "" {
		message = "Request rejected by tutor"
	}
	decided := now
	if err := s.db.Model(req).Updates(map[string]interface{}{
		"status":        models.RedemptionRejected,
		"tutor_message": message,
		"decided_at":    &decided,
	}).Error; err != nil {
		return nil, err
	}
	return req, nil
}

// PendingForTutor lists a tutor's open requests, expiring stale ones first.
func (s *RedemptionService) PendingForTutor(tutorID uint, now time.Time) ([]models.RedemptionRequest, error) {
	if err := s.expireStale(s.db.Where("tutor_id = ?", tutorID), now); err != nil {
		return nil, err
	}
	var reqs []models.RedemptionRequest
	err := s.db.Where("tutor_id = ? AND status = ?", tutorID, models.RedemptionPending).
		Preload("Student").Preload("Course").
		Order("requested_at DESC").Find(&reqs).Error
	return reqs, err
}

// HistoryForTutor lists a tutor's most recent requests in any state.
func (s *RedemptionService) HistoryForTutor(tutorID uint, now time.Time) ([]models.RedemptionRequest, error) {
	if err := s.expireStale(s.db.Where("tutor_id = ?", tutorID), now); err != nil {
		return nil, err
	}
	var reqs []models.RedemptionRequest
	err := s.db.Where("tutor_id = ?", tutorID).
		Preload("Student").Preload("Course").
		Order("requested_at DESC").Limit(50).Find(&reqs).Error
	return reqs, err
}

// ForStudent lists a student's own requests.
func (s *RedemptionService) ForStudent(studentID uint, now time.Time) ([]models.RedemptionRequest, error) {
	if err := s.expireStale(s.db.Where("student_id = ?", studentID), now); err != nil {
		return nil, err
	}
	var reqs []models.RedemptionRequest
	err := s.db.Where("student_id = ?", studentID).
		Preload("Course").
		Order("requested_at DESC").Limit(50).Find(&reqs).Error
	return reqs, err
}

// GrantsForStudent lists the student's granted courses with progress.
func (s *RedemptionService) GrantsForStudent(studentID uint) ([]models.CourseGrant, error) {
	var grants []models.CourseGrant
	err := s.db.Where("student_id = ?", studentID).
		Preload("Course").
		Order("started_at DESC").Find(&grants).Error
	return grants, err
}

// UpdateCourseProgress records progress (0-100) on a granted course;
// reaching 100 marks it completed.
func (s *RedemptionService) UpdateCourseProgress(studentID, courseID uint, progress int, now time.Time) (*models.CourseGrant, error) {
	if progress < 0 || progress > 100 {
		return nil, validationError("progress must be between 0 and 100, got %d", progress)
	}

	var grant models.CourseGrant
	err := s.db.Where("student_id = ? AND course_id = ?", studentID, courseID).
		First(&grant).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("course grant")
	}
	if err != nil {
		return nil, err
	}

	updates := map[string]interface{}{
		"progress_percent": progress,
		"completed":        progress == 100,
	}
	if progress == 100 && grant.CompletedAt == nil {
		updates["completed_at"] = &now
	}
	if err := s.db.Model(&grant).Updates(updates).Error; err != nil {
		return nil, err
	}
	return &grant, nil
}

// getForDecision loads a request and runs the shared decide-time checks:
// existence, tutor ownership, PENDING state, and lazy expiration (which
// persists EXPIRED before refusing).
func (s *RedemptionService) getForDecision(requestID, tutorID uint, now time.Time) (*models.RedemptionRequest, error) {
	var req models.RedemptionRequest
	err := s.db.First(&req, requestID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, notFound("redemption request")
	}
	if err != nil {
		return nil, err
	}

	if req.TutorID != tutorID {
		return nil, fmt.Errorf("only the assigned tutor can decide this request: %w", ErrUnauthorized)
	}
	if req.Status != models.RedemptionPending {
		return nil, fmt.Errorf("request already %s: %w", req.Status, ErrInvalidState)
	}
	if now.After(req.ExpiresAt) {
		decided := now
		if err := s.db.Model(&req).Updates(map[string]interface{}{
			"status":     models.RedemptionExpired,
			"decided_at": &decided,
		}).Error; err != nil {
			return nil, err
		}
		return nil, &ExpiredError{ExpiresAt: req.ExpiresAt}
	}
	return &req, nil
}

// expireStale flips past-deadline PENDING rows matching scope to EXPIRED.
func (s *RedemptionService) expireStale(scope *gorm.DB, now time.Time) error {
	return scope.Model(&models.RedemptionRequest{}).
		Where("status = ? AND expires_at < ?", models.RedemptionPending, now).
		Updates(map[string]interface{}{
			"status":     models.RedemptionExpired,
			"decided_at": &now,
		}).Error
}

// splitPayment maps a payment option onto the student's coin share and the
// tutor's fiat share. SPLIT_HALF floors the coin half so the student is
// never overcharged by rounding.
func splitPayment(option string, coinsQuoted int, priceUSD float64) (int, float64, error) {
	switch option {
	case models.PaymentTutorPaysAll:
		return 0, priceUSD, nil
	case models.PaymentSplitHalf:
		return coinsQuoted / 2, priceUSD / 2, nil
	case models.PaymentStudentPaysAll:
		return coinsQuoted, 0, nil
	default:
		return 0, 0, validationError("unknown payment option %q", option)
	}
}
