package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jmallon/parley/core/format"
	"github.com/jmallon/parley/core/store"
	"github.com/jmallon/parley/core/token"
	"github.com/jmallon/parley/providers/ai"
	"github.com/jmallon/parley/providers/observability"
)

// State is the orchestrator's position in its Idle/Sending/Error machine.
type State string

const (
	// StateIdle accepts submissions and session management calls.
	StateIdle State = "idle"

	// StateSending has exactly one request in flight. Further submissions
	// are refused until it resolves; this doubles as backpressure since
	// there is no queue.
	StateSending State = "sending"

	// StateError holds the failed turn's notice until Acknowledge.
	StateError State = "error"
)

// Sentinel errors for locally refused operations. None of them mutate the
// session.
var (
	// ErrBusy is returned while a previous submission is still in flight.
	ErrBusy = errors.New("a message is already in flight")

	// ErrEmptyMessage is returned when both the input text and the pending
	// attachments are empty.
	ErrEmptyMessage = errors.New("message text and attachments are both empty")

	// ErrNoAPIKey is returned when the selected provider has no configured
	// API key.
	ErrNoAPIKey = errors.New("no API key configured for the selected provider")

	// ErrUnknownProvider is returned for a provider tag with no registered
	// adapter.
	ErrUnknownProvider = errors.New("unknown provider")

	// ErrNothingToSave is returned when an explicit archive is requested on
	// an empty session.
	ErrNothingToSave = errors.New("active session is empty")

	// ErrNoticePending is returned when a submission arrives while the
	// previous failure has not been acknowledged.
	ErrNoticePending = errors.New("previous failure has not been acknowledged")
)

// Config is the caller-owned configuration handed to the orchestrator at
// construction. There is no ambient key lookup anywhere below this type.
type Config struct {
	// Provider is the initially selected provider tag.
	Provider string

	// Models maps provider tags to model variant overrides. Absent entries
	// use each adapter's default.
	Models map[string]string

	// Keys maps provider tags to API keys. A missing or empty key blocks
	// submission for that provider.
	Keys map[string]string

	// MaxTokens caps reply length for providers that require a cap. Zero
	// keeps the adapter default.
	MaxTokens int
}

// Orchestrator ties the formatter, the provider adapters, and the
// conversation store together around one active session. All methods are
// safe for use from a single UI goroutine plus observers; internally a mutex
// guards the state machine.
type Orchestrator struct {
	providers map[string]ai.Provider
	formatter *format.Formatter
	store     *store.Store

	mu      sync.Mutex
	cfg     Config
	state   State
	active  []ai.Message
	pending []ai.Attachment
	notice  *Notice
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithFormatter replaces the default message formatter.
func WithFormatter(formatter *format.Formatter) Option {
	return func(o *Orchestrator) {
		o.formatter = formatter
	}
}

// New creates an Orchestrator over the given provider registry, conversation
// store, and configuration. The registry maps provider tags to adapters;
// callers select among them with [Orchestrator.SelectProvider].
func New(providers map[string]ai.Provider, st *store.Store, cfg Config, opts ...Option) *Orchestrator {
	if cfg.Models == nil {
		cfg.Models = map[string]string{}
	}
	if cfg.Keys == nil {
		cfg.Keys = map[string]string{}
	}

	o := &Orchestrator{
		providers: providers,
		formatter: format.New(),
		store:     st,
		cfg:       cfg,
		state:     StateIdle,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// State returns the current state.
func (o *Orchestrator) State() State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.state
}

// Notice returns the user-visible rendering of the last failure, or nil.
func (o *Orchestrator) Notice() *Notice {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.notice
}

// Messages returns a copy of the active session's messages.
func (o *Orchestrator) Messages() []ai.Message {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]ai.Message, len(o.active))
	copy(out, o.active)
	return out
}

// Provider returns the currently selected provider tag.
func (o *Orchestrator) Provider() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.cfg.Provider
}

// SelectProvider switches the active provider tag.
func (o *Orchestrator) SelectProvider(tag string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.providers[tag]; !ok {
		return fmt.Errorf("%w: %s", ErrUnknownProvider, tag)
	}
	o.cfg.Provider = tag
	return nil
}

// SelectModel sets the model variant for the currently selected provider.
// An empty variant restores the adapter default.
func (o *Orchestrator) SelectModel(variant string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cfg.Models[o.cfg.Provider] = variant
}

// SetAPIKey records the API key for a provider tag.
func (o *Orchestrator) SetAPIKey(provider, key string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.cfg.Keys[provider] = key
}

// AddAttachment queues an attachment for the next submission.
func (o *Orchestrator) AddAttachment(att ai.Attachment) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pending = append(o.pending, att)
}

// PendingAttachments returns a copy of the attachments queued for the next
// submission.
func (o *Orchestrator) PendingAttachments() []ai.Attachment {
	o.mu.Lock()
	defer o.mu.Unlock()
	out := make([]ai.Attachment, len(o.pending))
	copy(out, o.pending)
	return out
}

// ClearAttachments drops all pending attachments.
func (o *Orchestrator) ClearAttachments() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pending = nil
}

// Submit sends the input plus any pending attachments as a user turn.
//
// Submission is guarded: it is refused with ErrBusy while a previous turn is
// in flight, with ErrNoticePending while a failed turn awaits
// [Orchestrator.Acknowledge], with ErrEmptyMessage when there is nothing to
// send, and with ErrNoAPIKey when the selected provider has no key; refusals
// have no side effects on the session beyond the ErrNoAPIKey notice.
//
// An accepted submission appends the user message immediately (it is never
// rolled back), clears the pending attachments, and dispatches exactly one
// provider call. On success the assistant reply is appended and the session
// returns to Idle. On failure the session enters Error with a user-visible
// notice until [Orchestrator.Acknowledge]; the error is also returned.
func (o *Orchestrator) Submit(ctx context.Context, input string) error {
	o.mu.Lock()

	if o.state == StateSending {
		o.mu.Unlock()
		return ErrBusy
	}
	if o.state == StateError {
		o.mu.Unlock()
		return ErrNoticePending
	}
	if input == "" && len(o.pending) == 0 {
		o.mu.Unlock()
		return ErrEmptyMessage
	}

	tag := o.cfg.Provider
	provider, ok := o.providers[tag]
	if !ok {
		o.mu.Unlock()
		return fmt.Errorf("%w: %s", ErrUnknownProvider, tag)
	}
	if o.cfg.Keys[tag] == "" {
		o.notice = &Notice{
			Kind:    KindConfiguration,
			Message: "Save API key first",
		}
		o.mu.Unlock()
		return ErrNoAPIKey
	}

	userMsg := ai.Message{
		Role:        ai.RoleUser,
		Content:     input,
		Attachments: o.pending,
	}
	o.active = append(o.active, userMsg)
	o.pending = nil
	o.state = StateSending
	o.notice = nil

	conversation := make([]ai.Message, len(o.active))
	copy(conversation, o.active)
	model := o.cfg.Models[tag]
	maxTokens := o.cfg.MaxTokens
	key := o.cfg.Keys[tag]
	o.mu.Unlock()

	wire := o.formatter.FlattenAll(ctx, conversation)

	// The span enters the context here so the adapters and the HTTP layer
	// attach their events to this turn.
	observer := observability.ObserverFromContext(ctx)
	var span observability.Span
	if observer != nil {
		ctx, span = observer.StartSpan(ctx, observability.SpanSessionSubmit,
			observability.String(observability.AttrLLMProvider, tag),
			observability.String(observability.AttrLLMModel, model),
		)
		observer.Debug(ctx, "dispatching conversation",
			observability.String(observability.AttrLLMProvider, tag),
			observability.Int(observability.AttrRequestMessagesCount, len(wire)),
			observability.Int(observability.AttrTokensEstimated, token.EstimateMessages(wire)),
		)
	}

	requestStart := time.Now()
	response, err := provider.WithAPIKey(key).SendMessage(ctx, ai.ChatRequest{
		Model:     model,
		Messages:  wire,
		MaxTokens: maxTokens,
	})
	elapsed := time.Since(requestStart)

	if observer != nil {
		status := "success"
		if err != nil {
			status = "error"
		}
		observer.Counter(observability.MetricSessionRequestCount).Add(ctx, 1,
			observability.String(observability.AttrStatus, status),
			observability.String(observability.AttrLLMProvider, tag),
		)
		observer.Histogram(observability.MetricSessionRequestDuration).Record(ctx, elapsed.Seconds(),
			observability.String(observability.AttrLLMProvider, tag),
		)

		if err != nil {
			span.RecordError(err)
			span.SetStatus(observability.StatusError, "turn failed")
			observer.Error(ctx, "turn failed",
				observability.Error(err),
				observability.String(observability.AttrLLMProvider, tag),
				observability.Duration(observability.AttrDuration, elapsed),
			)
		} else {
			if response.Usage != nil {
				observer.Counter(observability.MetricSessionTokensTotal).Add(ctx, int64(response.Usage.TotalTokens),
					observability.String(observability.AttrLLMProvider, tag),
				)
			}
			observer.Info(ctx, "turn completed",
				observability.String(observability.AttrLLMProvider, tag),
				observability.String(observability.AttrLLMFinishReason, response.FinishReason),
				observability.Duration(observability.AttrDuration, elapsed),
			)
		}
		span.End()
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	if err != nil {
		o.state = StateError
		o.notice = noticeFromError(err)
		return err
	}

	o.active = append(o.active, ai.Message{
		Role:    ai.RoleAssistant,
		Content: response.Content,
	})
	o.state = StateIdle
	return nil
}

// Acknowledge clears an Error state back to Idle. It is a no-op in any other
// state.
func (o *Orchestrator) Acknowledge() {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.state == StateError {
		o.state = StateIdle
		o.notice = nil
	}
}

// StartNew archives the active session into the temporary tier (unless it is
// empty or duplicates the most recent temporary entry) and clears the active
// session and pending attachments. Refused with ErrBusy while a turn is in
// flight.
func (o *Orchestrator) StartNew(ctx context.Context) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state == StateSending {
		return ErrBusy
	}

	if _, err := o.store.AutoArchiveOnNew(ctx, o.active); err != nil {
		return err
	}

	o.active = nil
	o.pending = nil
	o.state = StateIdle
	o.notice = nil
	return nil
}

// SaveActive explicitly archives the active session into the chosen tier and
// returns the new conversation. The session keeps running; archival is a
// snapshot, not a reset. Refused with ErrNothingToSave on an empty session
// and ErrBusy while a turn is in flight.
func (o *Orchestrator) SaveActive(ctx context.Context, permanent bool) (*store.Conversation, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state == StateSending {
		return nil, ErrBusy
	}
	if len(o.active) == 0 {
		return nil, ErrNothingToSave
	}

	return o.store.Archive(ctx, o.active, permanent)
}

// LoadConversation replaces the active session with the archived
// conversation's messages. Pending attachments are dropped. Refused with
// ErrBusy while a turn is in flight.
func (o *Orchestrator) LoadConversation(ctx context.Context, id string) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.state == StateSending {
		return ErrBusy
	}

	messages, err := o.store.Load(ctx, id)
	if err != nil {
		return err
	}

	o.active = messages
	o.pending = nil
	o.state = StateIdle
	o.notice = nil
	return nil
}
