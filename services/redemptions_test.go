package services

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"numera/models"
)

func newRedemptionFixture(t *testing.T) (*ResourceService, *RedemptionService) {
	t.Helper()

	db := setupTestDB(t)
	resources := NewResourceService(db)
	return resources, NewRedemptionService(db, resources)
}

func TestRedemptionApproveStudentPaysAll(t *testing.T) {
	resources, svc := newRedemptionFixture(t)
	student, tutor := seedStudentWithTutor(t, svc.db, "lena")
	course := seedCourse(t, svc.db, "algebra-1", 400, 19.99, 1)

	_, err := resources.Credit(student.ID, models.ResourceCoins, 500, ReasonActivity, nil)
	require.NoError(t, err)

	now := dayAt(2026, time.March, 1, 10)
	req, err := svc.Request(student.ID, course.ID, now)
	require.NoError(t, err)
	assert.Equal(t, models.RedemptionPending, req.Status)
	assert.Equal(t, 400, req.CoinsQuoted)
	assert.Equal(t, tutor.ID, req.TutorID)
	assert.NotEmpty(t, req.Reference)

	decided, err := svc.Approve(req.ID, tutor.ID, models.PaymentStudentPaysAll, "go for it", now.Add(time.Hour))
	require.NoError(t, err)
	assert.Equal(t, models.RedemptionApproved, decided.Status)
	assert.Zero(t, decided.TutorAmountDue)

	acct, err := resources.Balance(student.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, acct.CoinTotal)

	var grant models.CourseGrant
	require.NoError(t, svc.db.Where("student_id = ? AND course_id = ?", student.ID, course.ID).First(&grant).Error)

	var refreshed models.Course
	require.NoError(t, svc.db.First(&refreshed, course.ID).Error)
	assert.Equal(t, 1, refreshed.TotalRedemptions)
}

func TestRedemptionApproveTutorPaysAll(t *testing.T) {
	resources, svc := newRedemptionFixture(t)
	student, tutor := seedStudentWithTutor(t, svc.db, "marc")
	course := seedCourse(t, svc.db, "geometry", 100, 20.0, 1)

	_, err := resources.Credit(student.ID, models.ResourceCoins, 100, ReasonActivity, nil)
	require.NoError(t, err)

	now := dayAt(2026, time.March, 1, 10)
	req, err := svc.Request(student.ID, course.ID, now)
	require.NoError(t, err)

	decided, err := svc.Approve(req.ID, tutor.ID, models.PaymentTutorPaysAll, "", now)
	require.NoError(t, err)
	assert.Equal(t, 20.0, decided.TutorAmountDue)

	// No coins moved.
	acct, err := resources.Balance(student.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, acct.CoinTotal)
}

func TestRedemptionSplitHalfFloorsCoins(t *testing.T) {
	coins, fiat, err := splitPayment(models.PaymentSplitHalf, 101, 20.0)
	require.NoError(t, err)
	assert.Equal(t, 50, coins, "odd quote floors in the student's favor")
	assert.Equal(t, 10.0, fiat)

	_, _, err = splitPayment("SOMETHING_ELSE", 100, 20.0)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRedemptionDecisionGuards(t *testing.T) {
	resources, svc := newRedemptionFixture(t)
	student, tutor := seedStudentWithTutor(t, svc.db, "nora")
	otherTutor := models.Tutor{Email: "other@example.com"}
	require.NoError(t, svc.db.Create(&otherTutor).Error)
	course := seedCourse(t, svc.db, "chemistry", 100, 15.0, 1)

	_, err := resources.Credit(student.ID, models.ResourceCoins, 200, ReasonActivity, nil)
	require.NoError(t, err)

	now := dayAt(2026, time.March, 1, 10)
	req, err := svc.Request(student.ID, course.ID, now)
	require.NoError(t, err)

	// Only the assigned tutor may decide.
	_, err = svc.Approve(req.ID, otherTutor.ID, models.PaymentStudentPaysAll, "", now)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = svc.Approve(req.ID, tutor.ID, models.PaymentStudentPaysAll, "", now)
	require.NoError(t, err)

	// Terminal states refuse a second decision.
	_, err = svc.Approve(req.ID, tutor.ID, models.PaymentStudentPaysAll, "", now)
	assert.ErrorIs(t, err, ErrInvalidState)
	_, err = svc.Reject(req.ID, tutor.ID, "", now)
	assert.ErrorIs(t, err, ErrInvalidState)
}

func TestRedemptionReject(t *testing.T) {
	resources, svc := newRedemptionFixture(t)
	student, tutor := seedStudentWithTutor(t, svc.db, "omar")
	course := seedCourse(t, svc.db, "physics", 100, 15.0, 1)

	_, err := resources.Credit(student.ID, models.ResourceCoins, 150, ReasonActivity, nil)
	require.NoError(t, err)

	now := dayAt(2026, time.March, 1, 10)
	req, err := svc.Request(student.ID, course.ID, now)
	require.NoError(t, err)

	decided, err := svc.Reject(req.ID, tutor.ID, "", now)
	require.NoError(t, err)
	assert.Equal(t, models.RedemptionRejected, decided.Status)
	assert.Equal(t, "Request rejected by tutor", decided.TutorMessage)

	// Rejection never touches the balance.
	acct, err := resources.Balance(student.ID)
	require.NoError(t, err)
	assert.Equal(t, 150, acct.CoinTotal)

	// A rejected request does not block a fresh one.
	_, err = svc.Request(student.ID, course.ID, now.Add(time.Hour))
	require.NoError(t, err)
}

func TestRedemptionLazyExpiration(t *testing.T) {
	resources, svc := newRedemptionFixture(t)
	student, tutor := seedStudentWithTutor(t, svc.db, "faye")
	course := seedCourse(t, svc.db, "biology", 100, 15.0, 1)

	_, err := resources.Credit(student.ID, models.ResourceCoins, 150, ReasonActivity, nil)
	require.NoError(t, err)

	requested := dayAt(2026, time.March, 1, 10)
	req, err := svc.Request(student.ID, course.ID, requested)
	require.NoError(t, err)

	// Eight days later the request is stale; approving both fails and
	// persists the EXPIRED transition.
	late := requested.Add(8 * 24 * time.Hour)
	_, err = svc.Approve(req.ID, tutor.ID, models.PaymentStudentPaysAll, "", late)

	var expired *ExpiredError
	require.True(t, errors.As(err, &expired))

	var stored models.RedemptionRequest
	require.NoError(t, svc.db.First(&stored, req.ID).Error)
	assert.Equal(t, models.RedemptionExpired, stored.Status)
	require.NotNil(t, stored.DecidedAt)

	// Coins never moved.
	acct, err := resources.Balance(student.ID)
	require.NoError(t, err)
	assert.Equal(t, 150, acct.CoinTotal)

	// The expired request no longer blocks a new one.
	_, err = svc.Request(student.ID, course.ID, late)
	require.NoError(t, err)
}

func TestRedemptionRequestGuards(t *testing.T) {
	resources, svc := newRedemptionFixture(t)
	student, _ := seedStudentWithTutor(t, svc.db, "iris")
	now := dayAt(2026, time.March, 1, 10)

	// Unknown course.
	_, err := svc.Request(student.ID, 999, now)
	assert.ErrorIs(t, err, ErrNotFound)

	// Inactive course.
	retired := seedCourse(t, svc.db, "retired", 50, 10.0, 1)
	require.NoError(t, svc.db.Model(retired).UpdateColumn("active", false).Error)
	_, err = svc.Request(student.ID, retired.ID, now)
	assert.ErrorIs(t, err, ErrValidation)

	// Level requirement.
	advanced := seedCourse(t, svc.db, "advanced", 50, 10.0, 5)
	_, err = resources.Credit(student.ID, models.ResourceCoins, 500, ReasonActivity, nil)
	require.NoError(t, err)
	_, err = svc.Request(student.ID, advanced.ID, now)
	assert.ErrorIs(t, err, ErrValidation)

	// Insufficient coins at request time.
	pricey := seedCourse(t, svc.db, "pricey", 9000, 99.0, 1)
	_, err = svc.Request(student.ID, pricey.ID, now)
	var insufficient *InsufficientBalanceError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, 9000, insufficient.Required)

	// No tutor assigned.
	orphan := models.Student{Username: "orphan"}
	require.NoError(t, svc.db.Create(&orphan).Error)
	basic := seedCourse(t, svc.db, "basic", 10, 5.0, 1)
	_, err = svc.Request(orphan.ID, basic.ID, now)
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRedemptionDuplicateGuards(t *testing.T) {
	resources, svc := newRedemptionFixture(t)
	student, tutor := seedStudentWithTutor(t, svc.db, "theo")
	course := seedCourse(t, svc.db, "spanish", 100, 15.0, 1)

	_, err := resources.Credit(student.ID, models.ResourceCoins, 500, ReasonActivity, nil)
	require.NoError(t, err)

	now := dayAt(2026, time.March, 1, 10)
	req, err := svc.Request(student.ID, course.ID, now)
	require.NoError(t, err)

	// A second request while one is pending.
	_, err = svc.Request(student.ID, course.ID, now)
	assert.ErrorIs(t, err, ErrAlreadyExists)

	_, err = svc.Approve(req.ID, tutor.ID, models.PaymentStudentPaysAll, "", now)
	require.NoError(t, err)

	// A request for an already granted course.
	_, err = svc.Request(student.ID, course.ID, now)
	assert.ErrorIs(t, err, ErrAlreadyExists)
}

// The balance can drop between request and approval; the approval then
// fails atomically and the request stays PENDING.
func TestRedemptionApproveInsufficientAtDecision(t *testing.T) {
	resources, svc := newRedemptionFixture(t)
	student, tutor := seedStudentWithTutor(t, svc.db, "zoe")
	course := seedCourse(t, svc.db, "french", 100, 15.0, 1)

	_, err := resources.Credit(student.ID, models.ResourceCoins, 120, ReasonActivity, nil)
	require.NoError(t, err)

	now := dayAt(2026, time.March, 1, 10)
	req, err := svc.Request(student.ID, course.ID, now)
	require.NoError(t, err)

	// Spend the coins elsewhere before the tutor decides.
	_, err = resources.Debit(student.ID, models.ResourceCoins, 80, ReasonShopPurchase, nil)
	require.NoError(t, err)

	_, err = svc.Approve(req.ID, tutor.ID, models.PaymentStudentPaysAll, "", now)
	var insufficient *InsufficientBalanceError
	require.True(t, errors.As(err, &insufficient))
	assert.Equal(t, 40, insufficient.Available)

	var stored models.RedemptionRequest
	require.NoError(t, svc.db.First(&stored, req.ID).Error)
	assert.Equal(t, models.RedemptionPending, stored.Status, "failed approval rolls back")

	var grants int64
	svc.db.Model(&models.CourseGrant{}).Where("student_id = ?", student.ID).Count(&grants)
	assert.Zero(t, grants)
}

func TestUpdateCourseProgress(t *testing.T) {
	resources, svc := newRedemptionFixture(t)
	student, tutor := seedStudentWithTutor(t, svc.db, "ruth")
	course := seedCourse(t, svc.db, "latin", 50, 10.0, 1)

	_, err := resources.Credit(student.ID, models.ResourceCoins, 100, ReasonActivity, nil)
	require.NoError(t, err)

	now := dayAt(2026, time.March, 1, 10)
	req, err := svc.Request(student.ID, course.ID, now)
	require.NoError(t, err)
	_, err = svc.Approve(req.ID, tutor.ID, models.PaymentStudentPaysAll, "", now)
	require.NoError(t, err)

	grant, err := svc.UpdateCourseProgress(student.ID, course.ID, 40, now)
	require.NoError(t, err)
	assert.Equal(t, 40, grant.ProgressPercent)
	assert.False(t, grant.Completed)

	grant, err = svc.UpdateCourseProgress(student.ID, course.ID, 100, now)
	require.NoError(t, err)
	assert.Equal(t, 100, grant.ProgressPercent)
	assert.True(t, grant.Completed)

	_, err = svc.UpdateCourseProgress(student.ID, course.ID, 101, now)
	assert.ErrorIs(t, err, ErrValidation)

	// No grant means no progress to record.
	_, err = svc.UpdateCourseProgress(student.ID, 999, 10, now)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestPendingForTutorExpiresFirst(t *testing.T) {
	resources, svc := newRedemptionFixture(t)
	student, tutor := seedStudentWithTutor(t, svc.db, "hana")
	fresh := seedCourse(t, svc.db, "fresh-course", 50, 10.0, 1)
	stale := seedCourse(t, svc.db, "stale-course", 50, 10.0, 1)

	_, err := resources.Credit(student.ID, models.ResourceCoins, 500, ReasonActivity, nil)
	require.NoError(t, err)

	t0 := dayAt(2026, time.March, 1, 10)
	_, err = svc.Request(student.ID, stale.ID, t0)
	require.NoError(t, err)

	t1 := t0.Add(6 * 24 * time.Hour)
	_, err = svc.Request(student.ID, fresh.ID, t1)
	require.NoError(t, err)

	// Day 9: the first request is past its deadline, the second is not.
	pending, err := svc.PendingForTutor(tutor.ID, t0.Add(8*24*time.Hour))
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, fresh.ID, pending[0].CourseID)

	history, err := svc.HistoryForTutor(tutor.ID, t0.Add(8*24*time.Hour))
	require.NoError(t, err)
	assert.Len(t, history, 2)
}
