package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"cart-payment-service/models"
)

type CartRepository interface {
	FindActiveByOwner(ctx context.Context, ownerID string) (*models.Cart, error)
	CreateActive(ctx context.Context, cart *models.Cart) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Cart, error)
	FindByOwner(ctx context.Context, ownerID string) ([]models.Cart, error)
	FindItemByID(ctx context.Context, itemID uuid.UUID) (*models.CartItem, error)
	FindItemByExternalID(ctx context.Context, cartID uuid.UUID, externalID string) (*models.CartItem, error)
	InsertItem(ctx context.Context, item *models.CartItem) error
	UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error
	DeleteItem(ctx context.Context, itemID uuid.UUID) error
	ClearItems(ctx context.Context, cartID uuid.UUID) error
	CompleteCart(ctx context.Context, cart *models.Cart) error
	EnrichItemsByExternalID(ctx context.Context, externalID string, fields map[string]interface{}) (int64, error)
}

type gormCartRepo struct {
	db *gorm.DB
}

func NewGormCartRepository(db *gorm.DB) CartRepository {
	return &gormCartRepo{db: db}
}

func (r *gormCartRepo) FindActiveByOwner(ctx context.Context, ownerID string) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("owner_id = ? AND status = ?", ownerID, models.CartStatusActive).
		First(&cart).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *gormCartRepo) CreateActive(ctx context.Context, cart *models.Cart) error {
	cart.Status = models.CartStatusActive
	owner := cart.OwnerID
	cart.ActiveOwner = &owner
	return r.db.WithContext(ctx).Create(cart).Error
}

func (r *gormCartRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Cart, error) {
	var cart models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items").
		First(&cart, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &cart, nil
}

func (r *gormCartRepo) FindByOwner(ctx context.Context, ownerID string) ([]models.Cart, error) {
	var carts []models.Cart
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&carts).Error
	return carts, err
}

func (r *gormCartRepo) FindItemByID(ctx context.Context, itemID uuid.UUID) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).First(&item, "id = ?", itemID).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *gormCartRepo) FindItemByExternalID(ctx context.Context, cartID uuid.UUID, externalID string) (*models.CartItem, error) {
	var item models.CartItem
	err := r.db.WithContext(ctx).
		Where("cart_id = ? AND external_id = ?", cartID, externalID).
		First(&item).Error
	if err != nil {
		return nil, err
	}
	return &item, nil
}

// InsertItem creates the item and bumps the owning cart's updated_at in one
// transaction; either both persist or neither does.
func (r *gormCartRepo) InsertItem(ctx context.Context, item *models.CartItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(item).Error; err != nil {
			return err
		}
		return touchCart(tx, item.CartID)
	})
}

func (r *gormCartRepo) UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item models.CartItem
		if err := tx.First(&item, "id = ?", itemID).Error; err != nil {
			return err
		}
		if err := tx.Model(&item).Update("quantity", quantity).Error; err != nil {
			return err
		}
		return touchCart(tx, item.CartID)
	})
}

func (r *gormCartRepo) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var item models.CartItem
		if err := tx.First(&item, "id = ?", itemID).Error; err != nil {
			return err
		}
		if err := tx.Delete(&item).Error; err != nil {
			return err
		}
		return touchCart(tx, item.CartID)
	})
}

func (r *gormCartRepo) ClearItems(ctx context.Context, cartID uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("cart_id = ?", cartID).Delete(&models.CartItem{}).Error; err != nil {
			return err
		}
		return touchCart(tx, cartID)
	})
}

// CompleteCart moves the cart to its terminal status and releases the
// per-owner active slot.
func (r *gormCartRepo) CompleteCart(ctx context.Context, cart *models.Cart) error {
	return r.db.WithContext(ctx).Model(cart).Updates(map[string]interface{}{
		"status":       models.CartStatusCompleted,
		"active_owner": nil,
		"updated_at":   time.Now(),
	}).Error
}

// EnrichItemsByExternalID overwrites enrichment fields on every item of an
// ACTIVE cart referencing externalID. Quantity is never part of fields.
func (r *gormCartRepo) EnrichItemsByExternalID(ctx context.Context, externalID string, fields map[string]interface{}) (int64, error) {
	activeCarts := r.db.Model(&models.Cart{}).
		Select("id").
		Where("status = ?", models.CartStatusActive)

	res := r.db.WithContext(ctx).Model(&models.CartItem{}).
		Where("external_id = ? AND cart_id IN (?)", externalID, activeCarts).
		Updates(fields)

	return res.RowsAffected, res.Error
}

func touchCart(tx *gorm.DB, cartID uuid.UUID) error {
	return tx.Model(&models.Cart{}).
		Where("id = ?", cartID).
		Update("updated_at", time.Now()).Error
}
