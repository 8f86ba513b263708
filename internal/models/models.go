package models

import (
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// Role values stored on User records
const (
	RoleUser   = "user"
	RoleVendor = "vendor"
	RoleAdmin  = "admin"
)

// Listing status values
const (
	StatusPending  = "pending"
	StatusApproved = "approved"
	StatusRejected = "rejected"
)

// BaseModel provides common fields and auto-generated ULID for all models
type BaseModel struct {
	ID        string    `json:"id" gorm:"primaryKey;type:varchar(26)"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

// BeforeCreate generates a ULID for the ID field if it's empty
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = ulid.Make().String()
	}
	return nil
}

// User represents a marketplace account. The role lives here, not in the
// identity token: the role endpoint is the authoritative source.
type User struct {
	BaseModel
	Email        string `json:"email" gorm:"uniqueIndex;not null"`
	Name         string `json:"name"`
	PhotoURL     string `json:"photo_url,omitempty"`
	PasswordHash string `json:"-" gorm:"not null"`
	Role         string `json:"role" gorm:"not null;default:user"`
}

// Product represents a commodity listing submitted by a vendor
type Product struct {
	BaseModel
	ItemName     string  `json:"item_name" gorm:"not null;index"`
	MarketName   string  `json:"market_name" gorm:"not null"`
	Category     string  `json:"category,omitempty"`
	ImageURL     string  `json:"image_url,omitempty"`
	PricePerUnit float64 `json:"price_per_unit" gorm:"not null"`
	Unit         string  `json:"unit" gorm:"not null"`
	Date         string  `json:"date" gorm:"not null"`
	VendorEmail  string  `json:"vendor_email" gorm:"not null;index"`
	Status       string  `json:"status" gorm:"not null;default:approved"`
}

// Offer represents a discounted price on a product
type Offer struct {
	BaseModel
	ProductID   string  `json:"product_id" gorm:"not null;index"`
	OfferPrice  float64 `json:"offer_price" gorm:"not null"`
	VendorEmail string  `json:"vendor_email" gorm:"not null"`
	Status      string  `json:"status" gorm:"not null;default:pending"`
}

// Advertisement represents a vendor advertisement
type Advertisement struct {
	BaseModel
	Title       string `json:"title" gorm:"not null"`
	Description string `json:"description,omitempty"`
	ImageURL    string `json:"image_url,omitempty"`
	VendorEmail string `json:"vendor_email" gorm:"not null;index"`
	Status      string `json:"status" gorm:"not null;default:pending"`
}

// Review represents a user review on a product
type Review struct {
	BaseModel
	ProductID string `json:"product_id" gorm:"not null;index"`
	UserEmail string `json:"user_email" gorm:"not null"`
	UserName  string `json:"user_name,omitempty"`
	Rating    int    `json:"rating" gorm:"not null"`
	Comment   string `json:"comment,omitempty"`
}

// WatchItem represents one entry on a user's watchlist
type WatchItem struct {
	BaseModel
	ProductID string `json:"product_id" gorm:"not null;index"`
	UserEmail string `json:"user_email" gorm:"not null;index"`
}

// Payment represents a completed payment record
type Payment struct {
	BaseModel
	ProductID     string  `json:"product_id" gorm:"not null"`
	UserEmail     string  `json:"user_email" gorm:"not null;index"`
	Amount        float64 `json:"amount" gorm:"not null"`
	TransactionID string  `json:"transaction_id" gorm:"not null"`
}

// AutoMigrate runs database migrations for all models
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Product{},
		&Offer{},
		&Advertisement{},
		&Review{},
		&WatchItem{},
		&Payment{},
	)
}
