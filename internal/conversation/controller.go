// ABOUTME: Conversation controller: optimistic transcript with one in-flight question
// ABOUTME: Placeholders are reconciled by index; failures become a fixed fallback answer

package conversation

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/2389/legisbot/internal/api"
)

// FallbackText replaces a placeholder when the backend could not answer.
const FallbackText = "Error: no se pudo consultar el servidor."

// ErrUnknownContext is returned when selecting a context not in the list.
var ErrUnknownContext = errors.New("unknown document context")

// Role tags a transcript entry.
type Role int

const (
	RoleUser Role = iota
	RolePending
	RoleAssistant
)

func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RolePending:
		return "pending"
	case RoleAssistant:
		return "assistant"
	}
	return "unknown"
}

// Entry is one transcript line. Identity is its position.
type Entry struct {
	Role    Role
	Text    string
	Sources []api.Source
}

// Backend is what the controller needs from the backend client.
type Backend interface {
	ListContexts(ctx context.Context) ([]api.Context, error)
	Query(ctx context.Context, req api.ChatRequest) (*api.ChatResponse, error)
}

// Controller owns the transcript of one chat view.
type Controller struct {
	backend Backend
	logger  *zap.Logger
	events  *Broadcaster

	inFlight     slot
	contextsOnce sync.Once

	mu       sync.Mutex
	entries  []Entry
	draft    string
	selected api.ContextID
	contexts []api.Context
	closed   bool
}

// NewController creates a controller for a freshly activated chat view.
func NewController(backend Backend, logger *zap.Logger) *Controller {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.Named("conversation")
	return &Controller{
		backend: backend,
		logger:  logger,
		events:  NewBroadcaster(logger),
	}
}

// Subscribe returns a channel of change events for re-rendering.
func (c *Controller) Subscribe(ctx context.Context) (<-chan Change, string) {
	return c.events.Subscribe(ctx)
}

// LoadContexts fetches the available contexts. Only the first call per
// controller does anything; a failure leaves the list empty.
func (c *Controller) LoadContexts(ctx context.Context) {
	c.contextsOnce.Do(func() {
		contexts, err := c.backend.ListContexts(ctx)
		if err != nil {
			c.logger.Warn("loading document contexts", zap.Error(err))
			contexts = nil
		}

		c.mu.Lock()
		if c.closed {
			c.mu.Unlock()
			return
		}
		c.contexts = contexts
		c.mu.Unlock()

		c.events.Publish(Change{Kind: ChangeContexts, Index: -1})
	})
}

// Contexts returns a copy of the available contexts.
func (c *Controller) Contexts() []api.Context {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.contexts)
}

// SelectContext scopes the next question to id. An empty id clears the scope.
func (c *Controller) SelectContext(id api.ContextID) error {
	c.mu.Lock()
	if id != "" && !slices.ContainsFunc(c.contexts, func(ctx api.Context) bool { return ctx.ID == id }) {
		c.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknownContext, id)
	}
	c.selected = id
	c.mu.Unlock()

	c.events.Publish(Change{Kind: ChangeContexts, Index: -1})
	return nil
}

// SelectedContext returns the current scope, empty for none.
func (c *Controller) SelectedContext() api.ContextID {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.selected
}

// SetDraft replaces the question being typed.
func (c *Controller) SetDraft(text string) {
	c.mu.Lock()
	c.draft = text
	c.mu.Unlock()

	c.events.Publish(Change{Kind: ChangeDraft, Index: -1})
}

// Draft returns the question being typed.
func (c *Controller) Draft() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.draft
}

// Entries returns a copy of the transcript.
func (c *Controller) Entries() []Entry {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.entries)
}

// InFlight reports whether a question is outstanding.
func (c *Controller) InFlight() bool {
	return c.inFlight.busy()
}

// Submit asks question. It returns false and changes nothing when question
// is blank, a question is already outstanding, or the view is closed.
// Otherwise the returned channel closes once the placeholder is reconciled
// and the slot released.
//
// The query runs detached from ctx's cancellation: a submitted question
// always settles.
func (c *Controller) Submit(ctx context.Context, question string) (<-chan struct{}, bool) {
	if strings.TrimSpace(question) == "" {
		return nil, false
	}

	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil, false
	}
	t, ok := c.inFlight.tryAcquire()
	if !ok {
		c.mu.Unlock()
		c.logger.Debug("question ignored, another is in flight")
		return nil, false
	}
	c.entries = append(c.entries,
		Entry{Role: RoleUser, Text: question},
		Entry{Role: RolePending},
	)
	pending := len(c.entries) - 1
	c.draft = ""
	req := api.ChatRequest{Query: question, ContextID: c.selected}
	c.mu.Unlock()

	c.events.Publish(Change{Kind: ChangeAppended, Index: pending})

	done := make(chan struct{})
	go c.ask(context.WithoutCancel(ctx), t, pending, req, done)
	return done, true
}

func (c *Controller) ask(ctx context.Context, t ticket, pending int, req api.ChatRequest, done chan struct{}) {
	defer close(done)
	defer c.inFlight.release(t)

	start := time.Now()
	answer := Entry{Role: RoleAssistant, Text: FallbackText}
	resp, err := c.backend.Query(ctx, req)
	if err != nil {
		c.logger.Warn("chat query failed",
			zap.Error(err),
			zap.Duration("took", time.Since(start)))
	} else {
		answer.Text = resp.Answer
		answer.Sources = resp.Sources
		c.logger.Debug("chat query answered",
			zap.Int("sources", len(resp.Sources)),
			zap.Duration("took", time.Since(start)))
	}

	c.reconcile(pending, answer)
}

// reconcile replaces the placeholder at index with answer. Results for a
// closed view are discarded.
func (c *Controller) reconcile(index int, answer Entry) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		c.logger.Debug("discarding answer for closed view")
		return
	}
	if index >= len(c.entries) || c.entries[index].Role != RolePending {
		c.mu.Unlock()
		c.logger.Error("no pending entry to reconcile", zap.Int("index", index))
		return
	}
	c.entries[index] = answer
	c.mu.Unlock()

	c.events.Publish(Change{Kind: ChangeReconciled, Index: index})
}

// Close tears the view down. The transcript is dropped and subscribers'
// channels close. Outstanding questions still settle but are discarded.
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.entries = nil
	c.draft = ""
	c.mu.Unlock()

	c.events.Close()
}
