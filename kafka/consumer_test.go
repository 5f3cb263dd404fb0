package kafka

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cart-payment-service/models"
)

type stubResolver struct {
	mu       sync.Mutex
	resolved map[string]*models.ServiceSnapshot
}

func (r *stubResolver) Resolve(correlationID string, snapshot *models.ServiceSnapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.resolved == nil {
		r.resolved = make(map[string]*models.ServiceSnapshot)
	}
	r.resolved[correlationID] = snapshot
}

type stubEnricher struct {
	mu      sync.Mutex
	applied []*models.ServiceSnapshot
	err     error
}

func (e *stubEnricher) ApplyEnrichment(_ context.Context, snapshot *models.ServiceSnapshot) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.applied = append(e.applied, snapshot)
	return e.err
}

func newTestConsumer() (*SnapshotConsumer, *stubResolver, *stubEnricher) {
	resolver := &stubResolver{}
	enricher := &stubEnricher{}
	c := &SnapshotConsumer{
		registry: resolver,
		carts:    enricher,
		log:      zap.NewNop(),
	}
	return c, resolver, enricher
}

func snapshotJSON(t *testing.T, correlationID string) []byte {
	t.Helper()
	active := true
	data, err := json.Marshal(models.ServiceSnapshot{
		CorrelationID: correlationID,
		ExternalID:    "svc-A",
		Title:         "House Cleaning",
		Price:         100,
		IsActive:      &active,
	})
	require.NoError(t, err)
	return data
}

func TestHandleMessage_DirectJSON(t *testing.T) {
	c, resolver, enricher := newTestConsumer()

	c.HandleMessage(context.Background(), snapshotJSON(t, "req-1"))

	require.Len(t, enricher.applied, 1)
	assert.Equal(t, "svc-A", enricher.applied[0].ExternalID)
	require.Contains(t, resolver.resolved, "req-1")
	assert.Equal(t, "House Cleaning", resolver.resolved["req-1"].Title)
}

func TestHandleMessage_LeadingWhitespaceJSON(t *testing.T) {
	c, _, enricher := newTestConsumer()

	payload := append([]byte("  \n\t"), snapshotJSON(t, "")...)
	c.HandleMessage(context.Background(), payload)

	assert.Len(t, enricher.applied, 1)
}

func TestHandleMessage_QuotedBase64(t *testing.T) {
	c, resolver, enricher := newTestConsumer()

	encoded := base64.StdEncoding.EncodeToString(snapshotJSON(t, "req-2"))
	payload := []byte(`"` + encoded + `"`)

	c.HandleMessage(context.Background(), payload)

	assert.Len(t, enricher.applied, 1)
	assert.Contains(t, resolver.resolved, "req-2")
}

func TestHandleMessage_BareBase64(t *testing.T) {
	c, resolver, _ := newTestConsumer()

	encoded := base64.StdEncoding.EncodeToString(snapshotJSON(t, "req-3"))
	c.HandleMessage(context.Background(), []byte(encoded))

	assert.Contains(t, resolver.resolved, "req-3")
}

func TestHandleMessage_Base64OfNonJSON_Dropped(t *testing.T) {
	c, resolver, enricher := newTestConsumer()

	encoded := base64.StdEncoding.EncodeToString([]byte("plain text, not json"))
	c.HandleMessage(context.Background(), []byte(`"`+encoded+`"`))

	assert.Empty(t, enricher.applied)
	assert.Empty(t, resolver.resolved)
}

func TestHandleMessage_Garbage_Dropped(t *testing.T) {
	c, resolver, enricher := newTestConsumer()

	c.HandleMessage(context.Background(), []byte("!!not base64 and not json!!"))

	assert.Empty(t, enricher.applied)
	assert.Empty(t, resolver.resolved)
}

func TestHandleMessage_MissingExternalID_Dropped(t *testing.T) {
	c, resolver, enricher := newTestConsumer()

	c.HandleMessage(context.Background(), []byte(`{"requestId":"req-4","title":"No ID"}`))

	assert.Empty(t, enricher.applied)
	assert.Empty(t, resolver.resolved)
}

func TestHandleMessage_UncorrelatedBroadcast_FanOutOnly(t *testing.T) {
	c, resolver, enricher := newTestConsumer()

	c.HandleMessage(context.Background(), snapshotJSON(t, ""))

	assert.Len(t, enricher.applied, 1)
	assert.Empty(t, resolver.resolved)
}

func TestHandleMessage_EnrichmentErrorStillResolves(t *testing.T) {
	c, resolver, enricher := newTestConsumer()
	enricher.err = assert.AnError

	c.HandleMessage(context.Background(), snapshotJSON(t, "req-5"))

	assert.Contains(t, resolver.resolved, "req-5")
}

func TestDecodePayload_FallsBackToRawString(t *testing.T) {
	raw := []byte(`"not-base64-!!"`)
	out := decodePayload(raw)
	assert.Equal(t, []byte(`not-base64-!!`), out)
}
