// models/resources.go - Resource ledger (XP/coin balances + transaction log)
package models

import (
	"time"
)

// Resource types recorded in the ledger.
const (
	ResourceXP    = "XP"
	ResourceCoins = "COINS"
)

// ResourceAccount holds a student's running balances. Invariant: each total
// equals the signed sum of the account's transactions, and coin_total never
// goes negative. CurrentLevel is a cache derived from XPTotal.
type ResourceAccount struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	StudentID    uint      `json:"student_id" gorm:"uniqueIndex;not null"`
	XPTotal      int       `json:"xp_total" gorm:"not null;default:0"`
	CoinTotal    int       `json:"coin_total" gorm:"not null;default:0"`
	CurrentLevel int       `json:"current_level" gorm:"not null;default:1"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ResourceTransaction is an append-only audit record. Amount is signed:
// positive credits, negative debits. Metadata is a JSON payload linking back
// to whatever triggered the mutation (activity, achievement, purchase).
type ResourceTransaction struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	AccountID    uint      `json:"account_id" gorm:"not null;index"`
	Reference    string    `json:"reference" gorm:"uniqueIndex;size:36"`
	ResourceType string    `json:"resource_type" gorm:"not null;size:10;index"`
	Amount       int       `json:"amount" gorm:"not null"`
	Reason       string    `json:"reason" gorm:"not null;size:100;index"`
	Metadata     string    `json:"metadata" gorm:"type:text"`
	CreatedAt    time.Time `json:"created_at"`
}

// StreakRecord tracks consecutive activity days. Mutated only by the
// register-activity operation; MaxStreak is a monotonic high-water mark.
type StreakRecord struct {
	ID              uint       `json:"id" gorm:"primaryKey"`
	StudentID       uint       `json:"student_id" gorm:"uniqueIndex;not null"`
	CurrentStreak   int        `json:"current_streak" gorm:"not null;default:0"`
	MaxStreak       int        `json:"max_streak" gorm:"not null;default:0"`
	TotalActiveDays int        `json:"total_active_days" gorm:"not null;default:0"`
	LastActivityAt  *time.Time `json:"last_activity_at"`
	StreakStartedAt *time.Time `json:"streak_started_at"`
	UpdatedAt       time.Time  `json:"updated_at"`
}

func (ResourceAccount) TableName() string {
	return "resource_accounts"
}

func (ResourceTransaction) TableName() string {
	return "resource_transactions"
}

func (StreakRecord) TableName() string {
	return "streak_records"
}
