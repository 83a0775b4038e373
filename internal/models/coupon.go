package models

import (
	"time"

	"gorm.io/gorm"
)

type Coupon struct {
	ID        uint   `gorm:"primaryKey"`
	Code      string `gorm:"not null;unique"`
	Discount  int    `gorm:"not null"`
	ExpiredAt time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}

// Grant is an issued coupon instance tied to a user, consumable once
// against a payment.
type Grant struct {
	ID        uint `gorm:"primaryKey"`
	UserID    uint `gorm:"not null;index"`
	CouponID  uint `gorm:"not null;index"`
	Coupon    *Coupon
	IsUsed    bool `gorm:"not null;default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
}
