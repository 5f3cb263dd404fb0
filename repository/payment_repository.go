package repository

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"cart-payment-service/models"
)

type PaymentRepository interface {
	Create(ctx context.Context, payment *models.Payment) error
	ExistsForCart(ctx context.Context, cartID uuid.UUID) (bool, error)
	Update(ctx context.Context, payment *models.Payment) error
	FindByOwner(ctx context.Context, ownerID string) ([]models.Payment, error)
	FindByTransactionID(ctx context.Context, transactionID string) (*models.Payment, error)
}

type gormPaymentRepo struct {
	db *gorm.DB
}

func NewGormPaymentRepository(db *gorm.DB) PaymentRepository {
	return &gormPaymentRepo{db: db}
}

func (r *gormPaymentRepo) Create(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Create(payment).Error
}

func (r *gormPaymentRepo) ExistsForCart(ctx context.Context, cartID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Payment{}).
		Where("cart_id = ?", cartID).
		Count(&count).Error
	return count > 0, err
}

func (r *gormPaymentRepo) Update(ctx context.Context, payment *models.Payment) error {
	return r.db.WithContext(ctx).Save(payment).Error
}

func (r *gormPaymentRepo) FindByOwner(ctx context.Context, ownerID string) ([]models.Payment, error) {
	var payments []models.Payment
	err := r.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("processed_at DESC").
		Find(&payments).Error
	return payments, err
}

func (r *gormPaymentRepo) FindByTransactionID(ctx context.Context, transactionID string) (*models.Payment, error) {
	var payment models.Payment
	err := r.db.WithContext(ctx).
		Where("transaction_id = ?", transactionID).
		First(&payment).Error
	if err != nil {
		return nil, err
	}
	return &payment, nil
}
