package models

import "time"

type LedgerType string

const (
	LedgerPayment LedgerType = "PAYMENT"
	LedgerRefund  LedgerType = "REFUND"
)

// LedgerEntry rows are append-only; wallet balance is reconstructible by
// replaying them in insertion order.
type LedgerEntry struct {
	ID         uint       `gorm:"primaryKey"`
	Debit      int        `gorm:"not null;default:0"`
	Credit     int        `gorm:"not null;default:0"`
	LedgerType LedgerType `gorm:"type:varchar(16);not null"`
	Balance    int        `gorm:"not null"`
	Note       string
	UserID     uint `gorm:"not null;index"`
	CreatedAt  time.Time
}
