package kafka

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"cart-payment-service/models"
)

// Resolver hands a correlated snapshot back to its waiting lookup
type Resolver interface {
	Resolve(correlationID string, snapshot *models.ServiceSnapshot)
}

// Enricher fans a snapshot out to every active cart item referencing it
type Enricher interface {
	ApplyEnrichment(ctx context.Context, snapshot *models.ServiceSnapshot) error
}

// SnapshotConsumer is the response ingress: it reads raw marketplace
// messages, normalizes the payload encoding, and routes valid snapshots to
// cart enrichment and, when correlated, to the registry.
type SnapshotConsumer struct {
	reader   *kafka.Reader
	registry Resolver
	carts    Enricher
	log      *zap.Logger
}

func NewSnapshotConsumer(brokers []string, topic, groupID string, registry Resolver, carts Enricher, log *zap.Logger) *SnapshotConsumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:  brokers,
		Topic:    topic,
		GroupID:  groupID,
		MinBytes: 1e3, // 1KB
		MaxBytes: 1e6, // 1MB
	})

	return &SnapshotConsumer{
		reader:   r,
		registry: registry,
		carts:    carts,
		log:      log,
	}
}

// Start consumes until ctx is cancelled
func (c *SnapshotConsumer) Start(ctx context.Context) {
	c.log.Info("Snapshot consumer started", zap.String("topic", c.reader.Config().Topic))

	for {
		m, err := c.reader.ReadMessage(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				break
			}
			c.log.Error("Failed to read message", zap.Error(err))
			break
		}
		c.HandleMessage(ctx, m.Value)
	}

	if err := c.reader.Close(); err != nil {
		c.log.Error("Failed to close reader", zap.Error(err))
	}
	c.log.Info("Snapshot consumer stopped")
}

// HandleMessage decodes one raw bus payload and routes it. Decode failures
// are logged and the message dropped; they never reach waiting callers,
// which instead hit the normal timeout path.
func (c *SnapshotConsumer) HandleMessage(ctx context.Context, raw []byte) {
	payload := decodePayload(raw)

	var snap models.ServiceSnapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		c.log.Error("Dropping undecodable snapshot message", zap.Error(err))
		return
	}

	if snap.ExternalID == "" {
		c.log.Warn("Dropping snapshot without external id")
		return
	}

	// Every valid snapshot refreshes matching cart items, solicited or not;
	// broadcast updates reach carts that never issued a lookup for this id.
	if err := c.carts.ApplyEnrichment(ctx, &snap); err != nil {
		c.log.Error("Cart enrichment failed",
			zap.String("external_id", snap.ExternalID), zap.Error(err))
	}

	if snap.CorrelationID != "" {
		c.registry.Resolve(snap.CorrelationID, &snap)
	}
}

// decodePayload normalizes the three inbound encodings, each handled
// explicitly: a JSON object, a JSON string payload, or a base64-wrapped JSON
// string payload. Anything else falls back to the raw bytes and fails JSON
// parsing upstream.
func decodePayload(raw []byte) []byte {
	trimmed := bytes.TrimSpace(raw)
	if bytes.HasPrefix(trimmed, []byte("{")) {
		return trimmed
	}

	// Strip a single layer of string quoting
	if len(trimmed) >= 2 && trimmed[0] == '"' && trimmed[len(trimmed)-1] == '"' {
		trimmed = trimmed[1 : len(trimmed)-1]
	}

	decoded, err := base64.StdEncoding.DecodeString(string(trimmed))
	if err != nil {
		return trimmed
	}
	if bytes.HasPrefix(bytes.TrimSpace(decoded), []byte("{")) {
		return decoded
	}
	return trimmed
}
