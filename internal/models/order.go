package models

import (
	"time"

	"gorm.io/gorm"
)

type OrderType string

const (
	OrderTypeAuction  OrderType = "AUCTION"
	OrderTypeBuyItNow OrderType = "BUYITNOW"
)

type OrderStatus string

const (
	OrderWaiting OrderStatus = "WAITING"
	OrderPaid    OrderStatus = "PAID"
)

type ShippingStatus string

const (
	ShippingPending ShippingStatus = "PENDING"
	ShippingPacked  ShippingStatus = "PACKED"
	ShippingShipped ShippingStatus = "SHIPPED"
)

type Order struct {
	ID              uint           `gorm:"primaryKey"`
	OrderType       OrderType      `gorm:"type:varchar(16);not null"`
	OrderStatus     OrderStatus    `gorm:"type:varchar(16);not null;default:'WAITING'"`
	Price           int            `gorm:"not null"`
	Shipping        int            `gorm:"not null;default:0"`
	ShippingStatus  ShippingStatus `gorm:"type:varchar(16);not null;default:'PENDING'"`
	ShippingComment string
	IsCombined      bool `gorm:"not null;default:false"`
	AuctionID       uint `gorm:"not null;uniqueIndex"`
	Auction         *Auction
	UserID          uint  `gorm:"not null;index"`
	PaymentID       *uint `gorm:"index"`
	CreatedAt       time.Time
	UpdatedAt       time.Time
	DeletedAt       gorm.DeletedAt `gorm:"index"`
}
