package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"cart-payment-service/apperrors"
	"cart-payment-service/models"
	"cart-payment-service/repository"
)

// PaymentSimulator is the opaque payment processor
type PaymentSimulator interface {
	Simulate(ctx context.Context, req *models.PaymentRequest) (*models.PaymentResult, error)
	ValidateCard(req *models.PaymentRequest) bool
}

// PaymentEventPublisher publishes payment lifecycle events, best-effort
type PaymentEventPublisher interface {
	SendPaymentEvent(ctx context.Context, event models.PaymentEvent)
}

const genericFailureMessage = "Internal error processing payment"

// PaymentService drives a cart from its priced snapshot through simulated
// settlement to a terminal status, guaranteeing at most one payment per cart.
type PaymentService struct {
	payments  repository.PaymentRepository
	carts     repository.CartRepository
	cartSvc   *CartService
	simulator PaymentSimulator
	events    PaymentEventPublisher
	idem      repository.IdempotencyStore
	log       *zap.Logger
}

func NewPaymentService(
	payments repository.PaymentRepository,
	carts repository.CartRepository,
	cartSvc *CartService,
	simulator PaymentSimulator,
	events PaymentEventPublisher,
	idem repository.IdempotencyStore,
	log *zap.Logger,
) *PaymentService {
	return &PaymentService{
		payments:  payments,
		carts:     carts,
		cartSvc:   cartSvc,
		simulator: simulator,
		events:    events,
		idem:      idem,
		log:       log,
	}
}

// ProcessPayment runs the checkout state machine:
// PENDING -> COMPLETED|FAILED, both terminal. On COMPLETED the cart moves
// ACTIVE -> COMPLETED. A FAILED payment row still blocks a second attempt on
// the same cart; only a fresh cart can be paid after a failure.
func (s *PaymentService) ProcessPayment(ctx context.Context, ownerID string, req *models.PaymentRequest, idempotencyKey string) (*models.PaymentResponse, error) {
	if replay := s.replayedResponse(ctx, idempotencyKey); replay != nil {
		return replay, nil
	}

	cart, err := s.carts.FindByID(ctx, req.CartID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCartNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if cart.OwnerID != ownerID {
		return nil, apperrors.ErrForbidden
	}

	exists, err := s.payments.ExistsForCart(ctx, cart.ID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if exists {
		return nil, apperrors.ErrDuplicatePayment
	}

	if len(cart.Items) == 0 {
		return nil, apperrors.ErrEmptyCart
	}

	// Malformed card data short-circuits before any payment row or event
	if !s.simulator.ValidateCard(req) {
		return &models.PaymentResponse{
			Status:      models.PaymentStatusFailed,
			Message:     "Invalid card data",
			ProcessedAt: time.Now(),
		}, nil
	}

	payment := &models.Payment{
		CartID:         cart.ID,
		OwnerID:        ownerID,
		Amount:         cart.TotalAmount(),
		Method:         req.Method,
		Status:         models.PaymentStatusPending,
		CardHolderName: req.CardHolderName,
	}
	payment.MaskCardNumber(req.CardNumber)

	if err := s.payments.Create(ctx, payment); err != nil {
		// The unique index on cart_id rejects the loser of a concurrent
		// checkout on the same cart.
		if exists, checkErr := s.payments.ExistsForCart(ctx, cart.ID); checkErr == nil && exists {
			return nil, apperrors.ErrDuplicatePayment
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.events.SendPaymentEvent(ctx, models.NewPaymentEvent(
		models.PaymentEventInitiated, payment.ID, cart.ID, ownerID, payment.Amount, ""))

	result, err := s.runSimulation(ctx, req)
	if err != nil {
		s.log.Error("Payment simulation failed", zap.Error(err))
		payment.Fail(genericFailureMessage, time.Now())
		if updateErr := s.payments.Update(ctx, payment); updateErr != nil {
			s.log.Error("Failed to persist failed payment", zap.Error(updateErr))
		}

		s.events.SendPaymentEvent(ctx, models.NewPaymentEvent(
			models.PaymentEventFailed, payment.ID, cart.ID, ownerID, payment.Amount, genericFailureMessage))

		return &models.PaymentResponse{
			Status:      models.PaymentStatusFailed,
			Message:     genericFailureMessage,
			ProcessedAt: time.Now(),
		}, nil
	}

	if result.Status == models.PaymentStatusCompleted {
		payment.Complete(result.TransactionID, result.Message, result.ProcessedAt)
	} else {
		payment.Fail(result.Message, result.ProcessedAt)
	}
	if err := s.payments.Update(ctx, payment); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	if payment.Status == models.PaymentStatusCompleted {
		if err := s.cartSvc.CompleteCart(ctx, cart); err != nil {
			s.log.Error("Failed to complete cart after payment", zap.Error(err))
		}
		s.events.SendPaymentEvent(ctx, models.NewPaymentEvent(
			models.PaymentEventSucceeded, payment.ID, cart.ID, ownerID, payment.Amount, ""))
		s.storeIdempotencyKey(ctx, idempotencyKey, result.TransactionID)

		s.log.Info("Payment completed",
			zap.String("payment_id", payment.ID.String()),
			zap.String("transaction_id", result.TransactionID))
	} else {
		s.events.SendPaymentEvent(ctx, models.NewPaymentEvent(
			models.PaymentEventFailed, payment.ID, cart.ID, ownerID, payment.Amount, result.Message))

		s.log.Warn("Payment failed",
			zap.String("payment_id", payment.ID.String()),
			zap.String("reason", result.Message))
	}

	return &models.PaymentResponse{
		TransactionID: result.TransactionID,
		Status:        payment.Status,
		Amount:        payment.Amount,
		Message:       result.Message,
		ProcessedAt:   result.ProcessedAt,
	}, nil
}

// GetPaymentHistory returns the owner's payments, newest first
func (s *PaymentService) GetPaymentHistory(ctx context.Context, ownerID string) ([]models.Payment, error) {
	payments, err := s.payments.FindByOwner(ctx, ownerID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return payments, nil
}

// GetByTransactionID returns the payment recorded under a transaction id
func (s *PaymentService) GetByTransactionID(ctx context.Context, transactionID string) (*models.Payment, error) {
	payment, err := s.payments.FindByTransactionID(ctx, transactionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrPaymentNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return payment, nil
}

// runSimulation shields the state machine from simulator panics; anything
// thrown is converted into an error and the payment fails with a generic
// message.
func (s *PaymentService) runSimulation(ctx context.Context, req *models.PaymentRequest) (result *models.PaymentResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("payment simulator panic: %v", r)
		}
	}()
	return s.simulator.Simulate(ctx, req)
}

func (s *PaymentService) replayedResponse(ctx context.Context, idempotencyKey string) *models.PaymentResponse {
	if s.idem == nil || idempotencyKey == "" {
		return nil
	}

	transactionID, err := s.idem.Get(ctx, idempotencyKey)
	if err != nil {
		s.log.Warn("Idempotency lookup failed", zap.Error(err))
		return nil
	}
	if transactionID == "" {
		return nil
	}

	payment, err := s.payments.FindByTransactionID(ctx, transactionID)
	if err != nil {
		return nil
	}

	s.log.Info("Replaying checkout for idempotency key",
		zap.String("transaction_id", transactionID))
	resp := &models.PaymentResponse{
		TransactionID: transactionID,
		Status:        payment.Status,
		Amount:        payment.Amount,
		ProcessedAt:   time.Now(),
	}
	if payment.Message != nil {
		resp.Message = *payment.Message
	}
	if payment.ProcessedAt != nil {
		resp.ProcessedAt = *payment.ProcessedAt
	}
	return resp
}

func (s *PaymentService) storeIdempotencyKey(ctx context.Context, key, transactionID string) {
	if s.idem == nil || key == "" {
		return
	}
	if err := s.idem.Set(ctx, key, transactionID); err != nil {
		s.log.Warn("Failed to store idempotency key", zap.Error(err))
	}
}
