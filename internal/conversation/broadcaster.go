// ABOUTME: In-memory fan-out of transcript change events to view subscribers
// ABOUTME: Non-blocking publish; slow subscribers drop events rather than stall reconciliation

package conversation

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// subscriberBufferSize is the channel buffer for each subscriber.
const subscriberBufferSize = 64

// ChangeKind says what changed in a Controller.
type ChangeKind int

const (
	// ChangeAppended means a user entry and its placeholder were appended.
	ChangeAppended ChangeKind = iota
	// ChangeReconciled means a placeholder was replaced by an answer.
	ChangeReconciled
	// ChangeContexts means the context list or selection changed.
	ChangeContexts
	// ChangeDraft means the question draft changed.
	ChangeDraft
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeAppended:
		return "appended"
	case ChangeReconciled:
		return "reconciled"
	case ChangeContexts:
		return "contexts"
	case ChangeDraft:
		return "draft"
	}
	return "unknown"
}

// Change is published after a Controller's state changed. Index is the
// affected entry for appended and reconciled changes, -1 otherwise.
type Change struct {
	Kind  ChangeKind
	Index int
}

// Broadcaster provides in-memory pub/sub for Change events.
type Broadcaster struct {
	mu          sync.RWMutex
	subscribers map[string]chan Change
	closed      bool
	done        chan struct{}
	logger      *zap.Logger
}

// NewBroadcaster creates a broadcaster. Pass nil logger for a no-op logger.
func NewBroadcaster(logger *zap.Logger) *Broadcaster {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Broadcaster{
		subscribers: make(map[string]chan Change),
		done:        make(chan struct{}),
		logger:      logger.Named("broadcaster"),
	}
}

// Subscribe registers a subscriber and returns its channel and id. The
// subscription ends when ctx is done or the broadcaster closes; either way
// the channel is closed.
func (b *Broadcaster) Subscribe(ctx context.Context) (<-chan Change, string) {
	subID := uuid.NewString()
	ch := make(chan Change, subscriberBufferSize)

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		close(ch)
		return ch, subID
	}
	b.subscribers[subID] = ch
	b.mu.Unlock()

	b.logger.Debug("subscriber added", zap.String("sub_id", subID))

	go func() {
		select {
		case <-ctx.Done():
			b.Unsubscribe(subID)
		case <-b.done:
		}
	}()

	return ch, subID
}

// Publish delivers change to every subscriber without blocking.
func (b *Broadcaster) Publish(change Change) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	for id, ch := range b.subscribers {
		select {
		case ch <- change:
		default:
			b.logger.Debug("dropped change for slow subscriber",
				zap.String("sub_id", id),
				zap.Stringer("kind", change.Kind))
		}
	}
}

// Unsubscribe removes a subscription and closes its channel.
func (b *Broadcaster) Unsubscribe(subID string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	ch, ok := b.subscribers[subID]
	if !ok {
		return
	}
	delete(b.subscribers, subID)
	close(ch)

	b.logger.Debug("subscriber removed", zap.String("sub_id", subID))
}

// Close closes every subscriber channel. Later Subscribe calls get an
// already-closed channel.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closed {
		return
	}
	b.closed = true
	close(b.done)
	for id, ch := range b.subscribers {
		close(ch)
		delete(b.subscribers, id)
	}
}
