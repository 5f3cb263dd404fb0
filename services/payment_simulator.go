package services

import (
	"context"
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"cart-payment-service/models"
)

var failureReasons = []string{
	"Insufficient funds",
	"Card expired",
	"Bank network error",
	"Transaction declined by issuer",
	"Transaction limit exceeded",
	"Card temporarily blocked",
	"Card data validation error",
	"Banking service unavailable",
}

// SimulatedProcessor is a random-outcome stand-in for a real payment
// provider, with a bounded but variable processing latency.
type SimulatedProcessor struct {
	successRate float64
	minDelay    time.Duration
	maxDelay    time.Duration

	mu  sync.Mutex
	rng *rand.Rand

	log *zap.Logger
}

func NewSimulatedProcessor(successRate float64, minDelay, maxDelay time.Duration, log *zap.Logger) *SimulatedProcessor {
	return &SimulatedProcessor{
		successRate: successRate,
		minDelay:    minDelay,
		maxDelay:    maxDelay,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		log:         log,
	}
}

// Simulate processes a payment request with a random outcome
func (p *SimulatedProcessor) Simulate(ctx context.Context, req *models.PaymentRequest) (*models.PaymentResult, error) {
	if err := p.sleep(ctx); err != nil {
		return nil, err
	}

	if p.roll() < p.successRate {
		transactionID := p.newTransactionID()
		p.log.Info("Simulated payment succeeded",
			zap.String("transaction_id", transactionID))

		return &models.PaymentResult{
			Status:        models.PaymentStatusCompleted,
			TransactionID: transactionID,
			Message:       "Payment processed successfully",
			ProcessedAt:   time.Now(),
		}, nil
	}

	reason := p.failureReason()
	p.log.Warn("Simulated payment failed", zap.String("reason", reason))

	return &models.PaymentResult{
		Status:      models.PaymentStatusFailed,
		Message:     reason,
		ProcessedAt: time.Now(),
	}, nil
}

// ValidateCard checks the basic card-data shape
func (p *SimulatedProcessor) ValidateCard(req *models.PaymentRequest) bool {
	if req.CardNumber == "" || strings.TrimSpace(req.CardHolderName) == "" {
		return false
	}
	return req.ValidCardShape()
}

func (p *SimulatedProcessor) sleep(ctx context.Context) error {
	spread := p.maxDelay - p.minDelay
	delay := p.minDelay
	if spread > 0 {
		p.mu.Lock()
		delay += time.Duration(p.rng.Int63n(int64(spread)))
		p.mu.Unlock()
	}

	timer := time.NewTimer(delay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *SimulatedProcessor) roll() float64 {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.rng.Float64()
}

func (p *SimulatedProcessor) newTransactionID() string {
	p.mu.Lock()
	n := p.rng.Intn(10000)
	p.mu.Unlock()
	return fmt.Sprintf("TXN-%d-%d", time.Now().UnixMilli(), n)
}

func (p *SimulatedProcessor) failureReason() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return failureReasons[p.rng.Intn(len(failureReasons))]
}
