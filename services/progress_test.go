package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"numera/models"
)

func newProgressFixture(t *testing.T) (*ProgressService, *ResourceService) {
	t.Helper()

	db := setupTestDB(t)
	resources := NewResourceService(db)
	achievements := NewAchievementService(db, resources)
	resources.SetAchievementService(achievements)
	streaks := NewStreakService(db, time.UTC)
	return NewProgressService(db, resources, streaks), resources
}

func TestRecordActivity(t *testing.T) {
	svc, resources := newProgressFixture(t)

	result, err := svc.RecordActivity(ActivityEvent{
		StudentID: 1,
		XP:        50,
		Coins:     10,
		Reason:    ReasonLessonComplete,
	}, dayAt(2026, time.March, 1, 10))
	require.NoError(t, err)

	assert.Equal(t, 50, result.XPAwarded)
	assert.Equal(t, 10, result.CoinsAwarded)
	assert.Equal(t, 50, result.Account.XPTotal)
	assert.Equal(t, 10, result.Account.CoinTotal)
	assert.Equal(t, 1, result.Level.Level)
	assert.Equal(t, 1, result.Streak.CurrentStreak)

	// Both credits hit the ledger under the source's reason.
	acct, err := resources.Balance(1)
	require.NoError(t, err)
	var count int64
	svc.db.Model(&models.ResourceTransaction{}).
		Where("account_id = ? AND reason = ?", acct.ID, ReasonLessonComplete).Count(&count)
	assert.EqualValues(t, 2, count)
}

func TestRecordActivityDefaultsReason(t *testing.T) {
	svc, resources := newProgressFixture(t)

	_, err := svc.RecordActivity(ActivityEvent{StudentID: 1, XP: 10}, dayAt(2026, time.March, 1, 10))
	require.NoError(t, err)

	txns, err := resources.History(1, "", 10)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, ReasonActivity, txns[0].Reason)
}

func TestRecordActivityRequiresXP(t *testing.T) {
	svc, _ := newProgressFixture(t)

	_, err := svc.RecordActivity(ActivityEvent{StudentID: 1, XP: 0, Coins: 5}, dayAt(2026, time.March, 1, 10))
	assert.ErrorIs(t, err, ErrValidation)

	_, err = svc.RecordActivity(ActivityEvent{StudentID: 1, XP: -10}, dayAt(2026, time.March, 1, 10))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRecordActivityExtendsStreak(t *testing.T) {
	svc, _ := newProgressFixture(t)

	for day := 1; day <= 3; day++ {
		result, err := svc.RecordActivity(ActivityEvent{StudentID: 1, XP: 10},
			dayAt(2026, time.March, day, 12))
		require.NoError(t, err)
		assert.Equal(t, day, result.Streak.CurrentStreak)
	}
}

func TestAwardAction(t *testing.T) {
	svc, resources := newProgressFixture(t)
	student, _ := seedStudentWithTutor(t, svc.db, "gabe")

	action := models.PointAction{
		Code:   "participation",
		Name:   "Class Participation",
		XP:     25,
		Coins:  5,
		Active: true,
	}
	require.NoError(t, svc.db.Create(&action).Error)

	result, err := svc.AwardAction(77, student.ID, "participation", "great question in class",
		dayAt(2026, time.March, 1, 10))
	require.NoError(t, err)

	assert.Equal(t, 25, result.XPAwarded)
	assert.Equal(t, 5, result.CoinsAwarded)

	// The audit row names the awarding teacher.
	var award models.PointAward
	require.NoError(t, svc.db.Where("student_id = ?", student.ID).First(&award).Error)
	assert.Equal(t, uint(77), award.AwardedBy)
	assert.Equal(t, action.ID, award.ActionID)
	assert.Equal(t, "great question in class", award.Context)

	// The ledger reason marks it a teacher award.
	txns, err := resources.History(student.ID, models.ResourceXP, 10)
	require.NoError(t, err)
	require.Len(t, txns, 1)
	assert.Equal(t, ReasonTeacherAward, txns[0].Reason)
}

func TestAwardActionGuards(t *testing.T) {
	svc, _ := newProgressFixture(t)
	student, _ := seedStudentWithTutor(t, svc.db, "mila")
	now := dayAt(2026, time.March, 1, 10)

	_, err := svc.AwardAction(77, student.ID, "no-such-action", "", now)
	assert.ErrorIs(t, err, ErrNotFound)

	retired := models.PointAction{Code: "retired", Name: "Retired", XP: 10, Active: false}
	require.NoError(t, svc.db.Create(&retired).Error)
	_, err = svc.AwardAction(77, student.ID, "retired", "", now)
	assert.ErrorIs(t, err, ErrValidation)

	active := models.PointAction{Code: "active", Name: "Active", XP: 10, Active: true}
	require.NoError(t, svc.db.Create(&active).Error)
	_, err = svc.AwardAction(77, 999, "active", "", now)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListActions(t *testing.T) {
	svc, _ := newProgressFixture(t)

	require.NoError(t, svc.db.Create(&models.PointAction{Code: "small", Name: "Small", XP: 5, Active: true}).Error)
	require.NoError(t, svc.db.Create(&models.PointAction{Code: "big", Name: "Big", XP: 50, Active: true}).Error)
	require.NoError(t, svc.db.Create(&models.PointAction{Code: "off", Name: "Off", XP: 10, Active: false}).Error)

	actions, err := svc.ListActions()
	require.NoError(t, err)
	require.Len(t, actions, 2)
	assert.Equal(t, "big", actions[0].Code, "highest XP first")
}

func TestAwardHistory(t *testing.T) {
	svc, _ := newProgressFixture(t)
	student, _ := seedStudentWithTutor(t, svc.db, "leah")

	action := models.PointAction{Code: "participation", Name: "Participation", XP: 10, Active: true}
	require.NoError(t, svc.db.Create(&action).Error)

	_, err := svc.AwardAction(77, student.ID, "participation", "day one", dayAt(2026, time.March, 1, 10))
	require.NoError(t, err)
	_, err = svc.AwardAction(77, student.ID, "participation", "day two", dayAt(2026, time.March, 2, 10))
	require.NoError(t, err)

	awards, err := svc.AwardHistory(student.ID, 10)
	require.NoError(t, err)
	require.Len(t, awards, 2)
	assert.Equal(t, "day two", awards[0].Context, "newest first")
	require.NotNil(t, awards[0].Action)
	assert.Equal(t, "participation", awards[0].Action.Code)
}
