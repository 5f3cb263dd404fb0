package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type PaymentStatus string

const (
	PaymentStatusPending   PaymentStatus = "PENDING"
	PaymentStatusCompleted PaymentStatus = "COMPLETED"
	PaymentStatusFailed    PaymentStatus = "FAILED"
)

type Payment struct {
	ID             uuid.UUID     `gorm:"type:uuid;default:gen_random_uuid();primaryKey" json:"id"`
	CartID         uuid.UUID     `gorm:"type:uuid;not null;uniqueIndex" json:"cart_id"`
	OwnerID        string        `gorm:"not null;index" json:"owner_id"`
	Amount         float64       `gorm:"not null" json:"amount"`
	Method         string        `gorm:"type:varchar(30);not null" json:"method"`
	Status         PaymentStatus `gorm:"type:varchar(20);not null;default:'PENDING'" json:"status"`
	TransactionID  *string       `gorm:"index" json:"transaction_id"`
	Message        *string       `json:"message"`
	CardNumber     string        `json:"card_number"`
	CardHolderName string        `json:"card_holder_name"`
	ProcessedAt    *time.Time    `json:"processed_at"`
	CreatedAt      time.Time     `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt      time.Time     `gorm:"autoUpdateTime" json:"updated_at"`
}

// MaskCardNumber stores only the last four digits of the card
func (p *Payment) MaskCardNumber(original string) {
	if len(original) >= 4 {
		p.CardNumber = "**** **** **** " + original[len(original)-4:]
	}
}

func (p *Payment) Complete(transactionID string, message string, at time.Time) {
	p.Status = PaymentStatusCompleted
	p.TransactionID = &transactionID
	p.Message = &message
	p.ProcessedAt = &at
}

func (p *Payment) Fail(message string, at time.Time) {
	p.Status = PaymentStatusFailed
	p.Message = &message
	p.ProcessedAt = &at
}

type PaymentRequest struct {
	CartID         uuid.UUID `json:"cart_id" binding:"required"`
	Method         string    `json:"method" binding:"required"`
	CardNumber     string    `json:"card_number" binding:"required"`
	CardHolderName string    `json:"card_holder_name" binding:"required"`
}

// ValidCardShape checks the basic card-data shape before any payment row is created
func (r *PaymentRequest) ValidCardShape() bool {
	digits := strings.ReplaceAll(strings.ReplaceAll(r.CardNumber, " ", ""), "-", "")
	if len(digits) < 13 {
		return false
	}
	for _, c := range digits {
		if c < '0' || c > '9' {
			return false
		}
	}
	return strings.TrimSpace(r.CardHolderName) != ""
}

type PaymentResponse struct {
	TransactionID string        `json:"transaction_id,omitempty"`
	Status        PaymentStatus `json:"status"`
	Amount        float64       `json:"amount,omitempty"`
	Message       string        `json:"message,omitempty"`
	ProcessedAt   time.Time     `json:"processed_at"`
}

// PaymentResult is the outcome returned by the payment simulator
type PaymentResult struct {
	Status        PaymentStatus
	TransactionID string
	Message       string
	ProcessedAt   time.Time
}
