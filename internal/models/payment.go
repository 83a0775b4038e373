package models

import (
	"fmt"
	"time"

	"gorm.io/gorm"
)

type PaymentStatus string

const (
	PaymentUnset    PaymentStatus = "unset"
	PaymentReady    PaymentStatus = "ready"
	PaymentPaid     PaymentStatus = "paid"
	PaymentFailed   PaymentStatus = "failed"
	PaymentCanceled PaymentStatus = "canceled"
)

type Payment struct {
	ID               uint          `gorm:"primaryKey"`
	PriceSubtotal    int           `gorm:"not null"`
	ShippingSubtotal int           `gorm:"not null;default:0"`
	ShippingDiscount int           `gorm:"not null;default:0"`
	CouponDiscount   int           `gorm:"not null;default:0"`
	Total            int           `gorm:"not null"`
	GrandTotal       int           `gorm:"not null"`
	PaymentStatus    PaymentStatus `gorm:"type:varchar(16);not null;default:'unset'"`
	PgID             string
	PaymentMethod    string
	Note             string
	Country          string `gorm:"not null;default:'KR'"`
	PostalCode       string
	PaidAt           *time.Time
	CanceledAt       *time.Time
	UserID           uint  `gorm:"not null;index"`
	GrantID          *uint `gorm:"index"`
	Grant            *Grant
	Orders           []Order `gorm:"foreignKey:PaymentID"`
	CreatedAt        time.Time
	UpdatedAt        time.Time
	DeletedAt        gorm.DeletedAt `gorm:"index"`
}

// MerchantUID is the reference this payment is known by at the gateway.
func (p *Payment) MerchantUID() string {
	return fmt.Sprintf("payment_%d", p.ID)
}
