package services

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"cart-payment-service/apperrors"
	"cart-payment-service/models"
	"cart-payment-service/repository"
)

const (
	maxDescriptionLen = 1000
	defaultCategory   = "General"
)

// SnapshotFetcher resolves an external item id to its catalog snapshot
type SnapshotFetcher interface {
	Fetch(ctx context.Context, externalID string) (*models.ServiceSnapshot, error)
}

// CartEventPublisher publishes cart lifecycle events, best-effort
type CartEventPublisher interface {
	SendCartEvent(ctx context.Context, event models.CartEvent)
}

type CartService struct {
	carts  repository.CartRepository
	lookup SnapshotFetcher
	events CartEventPublisher
	log    *zap.Logger
}

func NewCartService(carts repository.CartRepository, lookup SnapshotFetcher, events CartEventPublisher, log *zap.Logger) *CartService {
	return &CartService{
		carts:  carts,
		lookup: lookup,
		events: events,
		log:    log,
	}
}

// GetOrCreateActiveCart returns the owner's ACTIVE cart, creating one lazily.
// A create that loses the race to a concurrent first request re-reads and
// returns the winner's cart; the unique active-owner index guarantees there
// is only one.
func (s *CartService) GetOrCreateActiveCart(ctx context.Context, ownerID string) (*models.Cart, error) {
	cart, err := s.carts.FindActiveByOwner(ctx, ownerID)
	if err == nil {
		return cart, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	newCart := &models.Cart{OwnerID: ownerID}
	if err := s.carts.CreateActive(ctx, newCart); err != nil {
		if cart, readErr := s.carts.FindActiveByOwner(ctx, ownerID); readErr == nil {
			return cart, nil
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.log.Info("Created new active cart",
		zap.String("cart_id", newCart.ID.String()),
		zap.String("owner_id", ownerID))
	return newCart, nil
}

// AddItem looks the item up on the bus and merges it into the owner's cart.
// A repeated add of the same external id accumulates quantity on the
// existing row. On any lookup failure nothing is persisted.
func (s *CartService) AddItem(ctx context.Context, ownerID, externalID string, quantity int) (*models.CartItem, error) {
	if quantity < 1 {
		return nil, apperrors.New(apperrors.ErrValidation.Code, "Quantity must be at least 1", nil)
	}

	cart, err := s.GetOrCreateActiveCart(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	snap, err := s.lookup.Fetch(ctx, externalID)
	if err != nil {
		return nil, err
	}

	existing, err := s.carts.FindItemByExternalID(ctx, cart.ID, externalID)
	if err == nil {
		newQuantity := existing.Quantity + quantity
		if err := s.carts.UpdateItemQuantity(ctx, existing.ID, newQuantity); err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		existing.Quantity = newQuantity

		s.events.SendCartEvent(ctx, models.NewCartEvent(models.CartEventItemAdded, cart.ID, ownerID, externalID, quantity))
		s.log.Info("Merged quantity into existing cart item",
			zap.String("item_id", existing.ID.String()),
			zap.Int("quantity", newQuantity))
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	item := newItemFromSnapshot(cart.ID, snap, quantity)
	if err := s.carts.InsertItem(ctx, item); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.events.SendCartEvent(ctx, models.NewCartEvent(models.CartEventItemAdded, cart.ID, ownerID, externalID, quantity))
	s.log.Info("Added new cart item",
		zap.String("item_id", item.ID.String()),
		zap.String("external_id", externalID))
	return item, nil
}

func (s *CartService) UpdateQuantity(ctx context.Context, itemID uuid.UUID, quantity int) (*models.CartItem, error) {
	if quantity < 1 {
		return nil, apperrors.New(apperrors.ErrValidation.Code, "Quantity must be at least 1", nil)
	}

	item, err := s.carts.FindItemByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrItemNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := s.carts.UpdateItemQuantity(ctx, itemID, quantity); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	item.Quantity = quantity

	s.publishItemEvent(ctx, models.CartEventQuantityUpdate, item, quantity)
	return item, nil
}

func (s *CartService) RemoveItem(ctx context.Context, itemID uuid.UUID) error {
	item, err := s.carts.FindItemByID(ctx, itemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apperrors.ErrItemNotFound
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := s.carts.DeleteItem(ctx, itemID); err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.publishItemEvent(ctx, models.CartEventItemRemoved, item, 0)
	return nil
}

// Clear removes all items from the owner's active cart; a no-op when the
// owner has none.
func (s *CartService) Clear(ctx context.Context, ownerID string) error {
	cart, err := s.carts.FindActiveByOwner(ctx, ownerID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if err := s.carts.ClearItems(ctx, cart.ID); err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.events.SendCartEvent(ctx, models.NewCartEvent(models.CartEventCleared, cart.ID, ownerID, "", 0))
	return nil
}

// ApplyEnrichment fans a snapshot out to every ACTIVE cart item referencing
// its external id, overwriting all enrichment fields and leaving quantity
// untouched. Zero matches is a no-op.
func (s *CartService) ApplyEnrichment(ctx context.Context, snap *models.ServiceSnapshot) error {
	fields := map[string]interface{}{
		"title":       snap.Title,
		"description": truncateDescription(snap.Description),
		"price":       snap.Price,
		"rating":      snap.SafeRating(),
		"category":    categoryOrDefault(snap.Category),
		"image_url":   snap.ImageURL,
	}

	updated, err := s.carts.EnrichItemsByExternalID(ctx, snap.ExternalID, fields)
	if err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if updated > 0 {
		s.log.Info("Applied snapshot to cart items",
			zap.String("external_id", snap.ExternalID),
			zap.Int64("items", updated))
	}
	return nil
}

// GetCart returns the owner's active cart, creating an empty one if needed
func (s *CartService) GetCart(ctx context.Context, ownerID string) (*models.Cart, error) {
	return s.GetOrCreateActiveCart(ctx, ownerID)
}

// GetCartHistory returns all of the owner's carts, newest first
func (s *CartService) GetCartHistory(ctx context.Context, ownerID string) ([]models.Cart, error) {
	carts, err := s.carts.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return carts, nil
}

// CompleteCart marks a cart COMPLETED, releasing the owner's active slot
func (s *CartService) CompleteCart(ctx context.Context, cart *models.Cart) error {
	if err := s.carts.CompleteCart(ctx, cart); err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	cart.Status = models.CartStatusCompleted
	cart.ActiveOwner = nil

	s.log.Info("Cart completed", zap.String("cart_id", cart.ID.String()))
	return nil
}

func (s *CartService) publishItemEvent(ctx context.Context, event string, item *models.CartItem, quantity int) {
	cart, err := s.carts.FindByID(ctx, item.CartID)
	if err != nil {
		s.log.Warn("Could not load cart for event", zap.Error(err))
		return
	}
	s.events.SendCartEvent(ctx, models.NewCartEvent(event, cart.ID, cart.OwnerID, item.ExternalID, quantity))
}

func newItemFromSnapshot(cartID uuid.UUID, snap *models.ServiceSnapshot, quantity int) *models.CartItem {
	title := snap.Title
	description := truncateDescription(snap.Description)
	category := categoryOrDefault(snap.Category)
	imageURL := snap.ImageURL
	rating := snap.SafeRating()

	return &models.CartItem{
		CartID:      cartID,
		ExternalID:  snap.ExternalID,
		Quantity:    quantity,
		Price:       snap.Price,
		Title:       &title,
		Description: &description,
		Category:    &category,
		ImageURL:    &imageURL,
		Rating:      &rating,
	}
}

// truncateDescription caps descriptions at 1000 characters, replacing the
// trailing three with an ellipsis when cut.
func truncateDescription(description string) string {
	runes := []rune(description)
	if len(runes) <= maxDescriptionLen {
		return description
	}
	return string(runes[:maxDescriptionLen-3]) + "..."
}

func categoryOrDefault(category string) string {
	if category == "" {
		return defaultCategory
	}
	return category
}
