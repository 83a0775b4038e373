package models

import (
	"time"

	"gorm.io/gorm"
)

type AuctionStatus string

const (
	AuctionPreparing AuctionStatus = "PREPARING"
	AuctionActive    AuctionStatus = "ACTIVE"
	AuctionEnded     AuctionStatus = "ENDED"
)

type Auction struct {
	ID            uint          `gorm:"primaryKey"`
	Title         string        `gorm:"not null"`
	Status        AuctionStatus `gorm:"type:varchar(16);not null;default:'PREPARING'"`
	ReservePrice  int           `gorm:"not null;default:0"`
	BuyItNowPrice int           `gorm:"not null;default:0"`
	LastBidAmount *int
	LastBidderID  *uint `gorm:"index"`
	IsCombinable  bool  `gorm:"not null;default:true"`
	SellerID      uint  `gorm:"not null;index"`
	EndsAt        time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
	DeletedAt     gorm.DeletedAt `gorm:"index"`
}
