package models

import (
	"time"

	"github.com/google/uuid"
)

type CartStatus string

const (
	CartStatusActive    CartStatus = "ACTIVE"
	CartStatusCompleted CartStatus = "COMPLETED"
)

type Cart struct {
	ID        uuid.UUID  `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	OwnerID   string     `gorm:"not null;index" json:"owner_id"`
	Status    CartStatus `gorm:"type:varchar(20);not null;default:'ACTIVE'" json:"status"`
	// ActiveOwner mirrors OwnerID while the cart is ACTIVE and is cleared on
	// completion; its unique index is what enforces one ACTIVE cart per owner.
	ActiveOwner *string    `gorm:"uniqueIndex" json:"-"`
	CreatedAt   time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
	Items       []CartItem `gorm:"foreignKey:CartID;constraint:OnDelete:CASCADE" json:"items"`
}

type CartItem struct {
	ID          uuid.UUID `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CartID      uuid.UUID `gorm:"type:uuid;not null;index;uniqueIndex:idx_cart_external" json:"cart_id"`
	ExternalID  string    `gorm:"not null;index;uniqueIndex:idx_cart_external" json:"external_id"`
	Quantity    int       `gorm:"not null" json:"quantity"`
	Price       float64   `gorm:"not null" json:"price"`
	Title       *string   `json:"title"`
	Description *string   `json:"description"`
	Category    *string   `json:"category"`
	ImageURL    *string   `json:"image_url"`
	Rating      *float64  `json:"rating"`
	AddedAt     time.Time `gorm:"autoCreateTime" json:"added_at"`
}

func (i *CartItem) Subtotal() float64 {
	return i.Price * float64(i.Quantity)
}

// TotalAmount is the checkout-time total over all items
func (c *Cart) TotalAmount() float64 {
	var total float64
	for i := range c.Items {
		total += c.Items[i].Subtotal()
	}
	return total
}

func (c *Cart) TotalItems() int {
	var n int
	for i := range c.Items {
		n += c.Items[i].Quantity
	}
	return n
}
