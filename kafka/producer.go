package kafka

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"cart-payment-service/models"
)

// Producer publishes lookup requests and cart/payment lifecycle events.
// Event publishes are fire-and-forget: failures are logged and never
// propagated to the caller. Lookup request publishes return their error so
// the lookup client can unregister the waiter.
type Producer struct {
	lookupWriter  *kafka.Writer
	cartWriter    *kafka.Writer
	paymentWriter *kafka.Writer
	log           *zap.Logger
}

func NewProducer(brokers []string, lookupTopic, cartTopic, paymentTopic string, log *zap.Logger) *Producer {
	newWriter := func(topic string) *kafka.Writer {
		return &kafka.Writer{
			Addr:     kafka.TCP(brokers...),
			Topic:    topic,
			Balancer: &kafka.LeastBytes{},
		}
	}

	return &Producer{
		lookupWriter:  newWriter(lookupTopic),
		cartWriter:    newWriter(cartTopic),
		paymentWriter: newWriter(paymentTopic),
		log:           log,
	}
}

// SendLookupRequest publishes a correlated lookup request envelope
func (p *Producer) SendLookupRequest(ctx context.Context, req models.ServiceLookupRequest) error {
	data, err := json.Marshal(req)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(req.ExternalID),
		Value: data,
	}
	if err := p.lookupWriter.WriteMessages(ctx, msg); err != nil {
		p.log.Error("Failed to publish lookup request",
			zap.String("external_id", req.ExternalID),
			zap.String("correlation_id", req.CorrelationID),
			zap.Error(err))
		return err
	}

	p.log.Info("Lookup request published",
		zap.String("external_id", req.ExternalID),
		zap.String("correlation_id", req.CorrelationID))
	return nil
}

// SendCartEvent publishes a cart lifecycle event, best-effort
func (p *Producer) SendCartEvent(ctx context.Context, event models.CartEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		p.log.Error("Failed to marshal cart event", zap.Error(err))
		return
	}

	msg := kafka.Message{
		Key:   []byte(event.OwnerID),
		Value: data,
	}
	if err := p.cartWriter.WriteMessages(ctx, msg); err != nil {
		p.log.Error("Failed to publish cart event",
			zap.String("event", event.Event), zap.Error(err))
		return
	}

	p.log.Info("Cart event published",
		zap.String("event", event.Event),
		zap.String("cart_id", event.CartID.String()))
}

// SendPaymentEvent publishes a payment lifecycle event, best-effort
func (p *Producer) SendPaymentEvent(ctx context.Context, event models.PaymentEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		p.log.Error("Failed to marshal payment event", zap.Error(err))
		return
	}

	msg := kafka.Message{
		Key:   []byte(event.OwnerID),
		Value: data,
	}
	if err := p.paymentWriter.WriteMessages(ctx, msg); err != nil {
		p.log.Error("Failed to publish payment event",
			zap.String("event", event.Event), zap.Error(err))
		return
	}

	p.log.Info("Payment event published",
		zap.String("event", event.Event),
		zap.String("payment_id", event.PaymentID.String()))
}

func (p *Producer) Close() {
	_ = p.lookupWriter.Close()
	_ = p.cartWriter.Close()
	_ = p.paymentWriter.Close()
}
