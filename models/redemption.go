// models/redemption.go - Course redemption request state machine rows
package models

import "time"

// Redemption request states. PENDING is the only non-terminal state.
const (
	RedemptionPending  = "PENDING"
	RedemptionApproved = "APPROVED"
	RedemptionRejected = "REJECTED"
	RedemptionExpired  = "EXPIRED"
)

// Payment options a tutor chooses at approval time.
const (
	PaymentTutorPaysAll   = "TUTOR_PAYS_ALL"
	PaymentSplitHalf      = "SPLIT_HALF"
	PaymentStudentPaysAll = "STUDENT_PAYS_ALL"
)

// RedemptionRequest is a student's ask to unlock a course with coins, gated
// by tutor approval. CoinsQuoted snapshots the price at request time so a
// later catalog change cannot alter what was agreed.
type RedemptionRequest struct {
	ID            uint       `json:"id" gorm:"primaryKey"`
	Reference     string     `json:"reference" gorm:"uniqueIndex;size:36"`
	StudentID     uint       `json:"student_id" gorm:"not null;index"`
	Student       *Student   `json:"student,omitempty" gorm:"foreignKey:StudentID"`
	TutorID       uint       `json:"tutor_id" gorm:"not null;index"`
	CourseID      uint       `json:"course_id" gorm:"not null;index"`
	Course        *Course    `json:"course,omitempty" gorm:"foreignKey:CourseID"`
	CoinsQuoted   int        `json:"coins_quoted" gorm:"not null"`
	Status        string     `json:"status" gorm:"not null;size:20;index"`
	PaymentOption string     `json:"payment_option" gorm:"size:30"`
	TutorAmountDue float64   `json:"tutor_amount_due" gorm:"default:0"`
	TutorMessage  string     `json:"tutor_message" gorm:"size:500"`
	RequestedAt   time.Time  `json:"requested_at"`
	DecidedAt     *time.Time `json:"decided_at,omitempty"`
	ExpiresAt     time.Time  `json:"expires_at" gorm:"index"`
}

func (RedemptionRequest) TableName() string {
	return "redemption_requests"
}
