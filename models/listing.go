package models

import (
	"time"
)

type Listing struct {
	ListingID        int        `gorm:"primaryKey;column:listing_id" json:"listing_id"`
	SellerID         int        `gorm:"column:seller_id" json:"seller_id"`
	Title            string     `gorm:"column:title" json:"title"`
	Description      *string    `gorm:"column:description" json:"description,omitempty"`
	Price            float64    `gorm:"column:price" json:"price"`
	CategoryID       *int       `gorm:"column:category_id" json:"category_id,omitempty"`
	IsVerified       bool       `gorm:"column:is_verified;default:false" json:"is_verified"`
	IsActive         bool       `gorm:"column:is_active;default:true" json:"is_active"`
	IsSpotlighted    bool       `gorm:"column:is_spotlighted;default:false" json:"is_spotlighted"`
	SpotlightEndTime *time.Time `gorm:"column:spotlight_end_time" json:"spotlight_end_time,omitempty"`
	CreateAt         *time.Time `gorm:"column:create_at" json:"create_at"`
	UpdateAt         *time.Time `gorm:"column:update_at" json:"update_at"`
	DeleteAt         *time.Time `gorm:"column:delete_at" json:"delete_at,omitempty"`

	// Relations
	Seller User `gorm:"foreignKey:SellerID;references:UserID" json:"seller,omitempty"`
}

func (Listing) TableName() string {
	return "listings"
}
