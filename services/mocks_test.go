package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"cart-payment-service/models"
	"cart-payment-service/repository"
)

// ---- in-memory cart repository ----

type memCartRepo struct {
	mu    sync.Mutex
	carts map[uuid.UUID]*models.Cart
	items map[uuid.UUID]*models.CartItem
}

func newMemCartRepo() *memCartRepo {
	return &memCartRepo{
		carts: make(map[uuid.UUID]*models.Cart),
		items: make(map[uuid.UUID]*models.CartItem),
	}
}

func (m *memCartRepo) copyCart(c *models.Cart) *models.Cart {
	cp := *c
	cp.Items = nil
	for _, item := range m.items {
		if item.CartID == c.ID {
			cp.Items = append(cp.Items, *item)
		}
	}
	return &cp
}

func (m *memCartRepo) FindActiveByOwner(_ context.Context, ownerID string) (*models.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.carts {
		if c.OwnerID == ownerID && c.Status == models.CartStatusActive {
			return m.copyCart(c), nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memCartRepo) CreateActive(_ context.Context, cart *models.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.carts {
		if c.OwnerID == cart.OwnerID && c.Status == models.CartStatusActive {
			return errors.New("duplicate key value violates unique constraint")
		}
	}
	cart.ID = uuid.New()
	cart.Status = models.CartStatusActive
	owner := cart.OwnerID
	cart.ActiveOwner = &owner
	now := time.Now()
	cart.CreatedAt = now
	cart.UpdatedAt = now

	stored := *cart
	m.carts[cart.ID] = &stored
	return nil
}

func (m *memCartRepo) FindByID(_ context.Context, id uuid.UUID) (*models.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	c, ok := m.carts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return m.copyCart(c), nil
}

func (m *memCartRepo) FindByOwner(_ context.Context, ownerID string) ([]models.Cart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Cart
	for _, c := range m.carts {
		if c.OwnerID == ownerID {
			out = append(out, *m.copyCart(c))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memCartRepo) FindItemByID(_ context.Context, itemID uuid.UUID) (*models.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[itemID]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *item
	return &cp, nil
}

func (m *memCartRepo) FindItemByExternalID(_ context.Context, cartID uuid.UUID, externalID string) (*models.CartItem, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, item := range m.items {
		if item.CartID == cartID && item.ExternalID == externalID {
			cp := *item
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memCartRepo) InsertItem(_ context.Context, item *models.CartItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.items {
		if existing.CartID == item.CartID && existing.ExternalID == item.ExternalID {
			return errors.New("duplicate key value violates unique constraint")
		}
	}
	if _, ok := m.carts[item.CartID]; !ok {
		return gorm.ErrRecordNotFound
	}
	item.ID = uuid.New()
	item.AddedAt = time.Now()

	stored := *item
	m.items[item.ID] = &stored
	m.touch(item.CartID)
	return nil
}

func (m *memCartRepo) UpdateItemQuantity(_ context.Context, itemID uuid.UUID, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[itemID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	item.Quantity = quantity
	m.touch(item.CartID)
	return nil
}

func (m *memCartRepo) DeleteItem(_ context.Context, itemID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	item, ok := m.items[itemID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	delete(m.items, itemID)
	m.touch(item.CartID)
	return nil
}

func (m *memCartRepo) ClearItems(_ context.Context, cartID uuid.UUID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, item := range m.items {
		if item.CartID == cartID {
			delete(m.items, id)
		}
	}
	m.touch(cartID)
	return nil
}

func (m *memCartRepo) CompleteCart(_ context.Context, cart *models.Cart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	stored, ok := m.carts[cart.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.Status = models.CartStatusCompleted
	stored.ActiveOwner = nil
	stored.UpdatedAt = time.Now()
	return nil
}

func (m *memCartRepo) EnrichItemsByExternalID(_ context.Context, externalID string, fields map[string]interface{}) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, item := range m.items {
		cart := m.carts[item.CartID]
		if cart == nil || cart.Status != models.CartStatusActive || item.ExternalID != externalID {
			continue
		}
		if v, ok := fields["title"].(string); ok {
			title := v
			item.Title = &title
		}
		if v, ok := fields["description"].(string); ok {
			description := v
			item.Description = &description
		}
		if v, ok := fields["price"].(float64); ok {
			item.Price = v
		}
		if v, ok := fields["rating"].(float64); ok {
			rating := v
			item.Rating = &rating
		}
		if v, ok := fields["category"].(string); ok {
			category := v
			item.Category = &category
		}
		if v, ok := fields["image_url"].(string); ok {
			imageURL := v
			item.ImageURL = &imageURL
		}
		n++
	}
	return n, nil
}

func (m *memCartRepo) touch(cartID uuid.UUID) {
	if c, ok := m.carts[cartID]; ok {
		c.UpdatedAt = time.Now()
	}
}

func (m *memCartRepo) activeCartCount(ownerID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, c := range m.carts {
		if c.OwnerID == ownerID && c.Status == models.CartStatusActive {
			n++
		}
	}
	return n
}

var _ repository.CartRepository = (*memCartRepo)(nil)

// ---- in-memory payment repository ----

type memPaymentRepo struct {
	mu       sync.Mutex
	payments map[uuid.UUID]*models.Payment
}

func newMemPaymentRepo() *memPaymentRepo {
	return &memPaymentRepo{payments: make(map[uuid.UUID]*models.Payment)}
}

func (m *memPaymentRepo) Create(_ context.Context, payment *models.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.payments {
		if p.CartID == payment.CartID {
			return errors.New("duplicate key value violates unique constraint")
		}
	}
	payment.ID = uuid.New()
	payment.CreatedAt = time.Now()

	stored := *payment
	m.payments[payment.ID] = &stored
	return nil
}

func (m *memPaymentRepo) ExistsForCart(_ context.Context, cartID uuid.UUID) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.payments {
		if p.CartID == cartID {
			return true, nil
		}
	}
	return false, nil
}

func (m *memPaymentRepo) Update(_ context.Context, payment *models.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.payments[payment.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	stored := *payment
	m.payments[payment.ID] = &stored
	return nil
}

func (m *memPaymentRepo) FindByOwner(_ context.Context, ownerID string) ([]models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Payment
	for _, p := range m.payments {
		if p.OwnerID == ownerID {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (m *memPaymentRepo) FindByTransactionID(_ context.Context, transactionID string) (*models.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.payments {
		if p.TransactionID != nil && *p.TransactionID == transactionID {
			cp := *p
			return &cp, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *memPaymentRepo) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.payments)
}

var _ repository.PaymentRepository = (*memPaymentRepo)(nil)

// ---- in-memory idempotency store ----

type memIdemStore struct {
	mu   sync.Mutex
	keys map[string]string
}

func newMemIdemStore() *memIdemStore {
	return &memIdemStore{keys: make(map[string]string)}
}

func (m *memIdemStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.keys[key], nil
}

func (m *memIdemStore) Set(_ context.Context, key, transactionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[key] = transactionID
	return nil
}

var _ repository.IdempotencyStore = (*memIdemStore)(nil)

// ---- event recorder ----

type eventRecorder struct {
	mu            sync.Mutex
	cartEvents    []models.CartEvent
	paymentEvents []models.PaymentEvent
}

func (e *eventRecorder) SendCartEvent(_ context.Context, event models.CartEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cartEvents = append(e.cartEvents, event)
}

func (e *eventRecorder) SendPaymentEvent(_ context.Context, event models.PaymentEvent) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.paymentEvents = append(e.paymentEvents, event)
}

func (e *eventRecorder) paymentEventTypes() []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []string
	for _, ev := range e.paymentEvents {
		out = append(out, ev.Event)
	}
	return out
}

// ---- snapshot fetcher stub ----

type fakeFetcher struct {
	snap *models.ServiceSnapshot
	err  error
}

func (f *fakeFetcher) Fetch(context.Context, string) (*models.ServiceSnapshot, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.snap, nil
}

// ---- payment simulator stub ----

type stubSimulator struct {
	result      *models.PaymentResult
	err         error
	panicMsg    string
	invalidCard bool
}

func (s *stubSimulator) Simulate(context.Context, *models.PaymentRequest) (*models.PaymentResult, error) {
	if s.panicMsg != "" {
		panic(s.panicMsg)
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s *stubSimulator) ValidateCard(*models.PaymentRequest) bool {
	return !s.invalidCard
}

func completedSimulator() *stubSimulator {
	return &stubSimulator{result: &models.PaymentResult{
		Status:        models.PaymentStatusCompleted,
		TransactionID: "TXN-TEST-1",
		Message:       "Payment processed successfully",
		ProcessedAt:   time.Now(),
	}}
}

func failedSimulator(reason string) *stubSimulator {
	return &stubSimulator{result: &models.PaymentResult{
		Status:      models.PaymentStatusFailed,
		Message:     reason,
		ProcessedAt: time.Now(),
	}}
}

func marketplaceSnapshot(externalID string, price float64) *models.ServiceSnapshot {
	active := true
	rating := 4.5
	return &models.ServiceSnapshot{
		ExternalID:  externalID,
		Title:       "House Cleaning",
		Description: "Professional cleaning service",
		Price:       price,
		Rating:      &rating,
		Category:    "Home",
		IsActive:    &active,
		ImageURL:    "https://example.com/cleaning.jpg",
	}
}
