package correlation

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"cart-payment-service/apperrors"
	"cart-payment-service/models"
)

// Outcome is the single resolution of a pending lookup: a snapshot from the
// marketplace, or a timeout/cancellation error. Exactly one Outcome is ever
// delivered per registered correlation id.
type Outcome struct {
	Snapshot *models.ServiceSnapshot
	Err      error
}

// Waiter is the caller's handle on an in-flight lookup
type Waiter struct {
	id string
	ch <-chan Outcome
}

// CorrelationID returns the id the waiter is bound to
func (w *Waiter) CorrelationID() string {
	return w.id
}

// Done returns the channel the outcome is delivered on
func (w *Waiter) Done() <-chan Outcome {
	return w.ch
}

// Wait blocks until the lookup resolves, expires, or ctx is cancelled
func (w *Waiter) Wait(ctx context.Context) (*models.ServiceSnapshot, error) {
	select {
	case out := <-w.ch:
		return out.Snapshot, out.Err
	case <-ctx.Done():
		return nil, apperrors.Wrap(apperrors.ErrLookupCancelled, ctx.Err())
	}
}

type pendingLookup struct {
	createdAt time.Time
	done      chan Outcome
}

// Registry correlates outbound lookup requests with inbound bus responses.
// It is the only structure in the service mutated concurrently by unrelated
// goroutines: the publisher registering, the consumer resolving, and the
// per-lookup timer expiring.
type Registry struct {
	mu      sync.Mutex
	pending map[string]*pendingLookup
	closed  bool
	log     *zap.Logger
}

func NewRegistry(log *zap.Logger) *Registry {
	return &Registry{
		pending: make(map[string]*pendingLookup),
		log:     log,
	}
}

// Register allocates a pending lookup keyed by id and returns its waiter
func (r *Registry) Register(id string) (*Waiter, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, apperrors.ErrLookupCancelled
	}
	if _, exists := r.pending[id]; exists {
		return nil, apperrors.ErrDuplicateLookup
	}

	p := &pendingLookup{
		createdAt: time.Now(),
		done:      make(chan Outcome, 1),
	}
	r.pending[id] = p

	return &Waiter{id: id, ch: p.done}, nil
}

// take removes and returns the entry for id. Removal under the lock is what
// makes resolve and expire race-safe: only the first caller gets the entry.
func (r *Registry) take(id string) *pendingLookup {
	r.mu.Lock()
	defer r.mu.Unlock()

	p, ok := r.pending[id]
	if !ok {
		return nil
	}
	delete(r.pending, id)
	return p
}

// Resolve fulfills the waiter registered under id with a snapshot. Unknown
// ids (already resolved, expired, or never registered) are discarded; this is
// the idempotency guard against duplicate and late bus deliveries.
func (r *Registry) Resolve(id string, snapshot *models.ServiceSnapshot) {
	p := r.take(id)
	if p == nil {
		r.log.Warn("No pending lookup for response, discarding",
			zap.String("correlation_id", id))
		return
	}

	p.done <- Outcome{Snapshot: snapshot}
	r.log.Debug("Lookup resolved",
		zap.String("correlation_id", id),
		zap.Duration("waited", time.Since(p.createdAt)))
}

// Expire fulfills the waiter registered under id with a timeout error. A
// no-op when the lookup already resolved.
func (r *Registry) Expire(id string) {
	p := r.take(id)
	if p == nil {
		return
	}

	p.done <- Outcome{Err: apperrors.ErrLookupTimeout}
	r.log.Warn("Lookup timed out",
		zap.String("correlation_id", id),
		zap.Duration("waited", time.Since(p.createdAt)))
}

// Discard removes a pending lookup without delivering any outcome. Used
// when the outbound publish failed synchronously and no response can come.
func (r *Registry) Discard(id string) {
	if p := r.take(id); p != nil {
		r.log.Debug("Pending lookup discarded", zap.String("correlation_id", id))
	}
}

// Shutdown fails every pending waiter with a cancellation error and rejects
// further registrations. In-flight requests are not persisted; callers that
// already gave up will simply never be answered.
func (r *Registry) Shutdown() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.closed = true
	for id, p := range r.pending {
		delete(r.pending, id)
		p.done <- Outcome{Err: apperrors.ErrLookupCancelled}
	}
}

// Len reports the number of in-flight lookups
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.pending)
}
