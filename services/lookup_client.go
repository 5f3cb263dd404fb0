package services

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"cart-payment-service/apperrors"
	"cart-payment-service/correlation"
	"cart-payment-service/models"
)

// LookupPublisher publishes lookup request envelopes to the marketplace
type LookupPublisher interface {
	SendLookupRequest(ctx context.Context, req models.ServiceLookupRequest) error
}

// LookupClient asks the marketplace for catalog item details over the bus.
// The answer arrives asynchronously through the response ingress; the client
// correlates it back via the registry and bounds the wait with a fixed
// timeout.
type LookupClient struct {
	registry  *correlation.Registry
	publisher LookupPublisher
	timeout   time.Duration
	requester string
	log       *zap.Logger
}

func NewLookupClient(registry *correlation.Registry, publisher LookupPublisher, timeout time.Duration, requester string, log *zap.Logger) *LookupClient {
	return &LookupClient{
		registry:  registry,
		publisher: publisher,
		timeout:   timeout,
		requester: requester,
		log:       log,
	}
}

// Request issues a correlated lookup and returns the waiter without blocking
func (c *LookupClient) Request(ctx context.Context, externalID string) (*correlation.Waiter, error) {
	correlationID := uuid.NewString()

	waiter, err := c.registry.Register(correlationID)
	if err != nil {
		return nil, err
	}

	req := models.ServiceLookupRequest{
		ExternalID:    externalID,
		CorrelationID: correlationID,
		RequesterTag:  c.requester,
	}
	if err := c.publisher.SendLookupRequest(ctx, req); err != nil {
		c.registry.Discard(correlationID)
		return nil, apperrors.Wrap(apperrors.ErrPublishFailed, err)
	}

	// Expire is a no-op when the response wins the race, so the timer can
	// simply be left to fire.
	time.AfterFunc(c.timeout, func() {
		c.registry.Expire(correlationID)
	})

	c.log.Info("Lookup request sent",
		zap.String("external_id", externalID),
		zap.String("correlation_id", correlationID))
	return waiter, nil
}

// Fetch blocks for the lookup outcome and normalizes it: an error payload
// becomes a lookup failure, an inactive snapshot becomes unavailable.
func (c *LookupClient) Fetch(ctx context.Context, externalID string) (*models.ServiceSnapshot, error) {
	waiter, err := c.Request(ctx, externalID)
	if err != nil {
		return nil, err
	}

	snap, err := waiter.Wait(ctx)
	if err != nil {
		return nil, err
	}

	if snap.ErrorMessage != "" {
		c.log.Warn("Lookup returned error payload",
			zap.String("external_id", externalID),
			zap.String("error", snap.ErrorMessage))
		return nil, apperrors.Wrap(apperrors.ErrLookupFailure, errors.New(snap.ErrorMessage))
	}

	if !snap.Available() {
		return nil, apperrors.ErrItemUnavailable
	}

	return snap, nil
}
