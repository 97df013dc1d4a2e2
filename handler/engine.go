package handler

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/moby/locker"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"QuestionnaireBot/model"
	"QuestionnaireBot/repo"
)

const (
	seenMessagesSize       = 4096
	defaultDispatchTimeout = 15 * time.Second
)

// CatalogReader returns the questionnaire in order
type CatalogReader interface {
	ListQuestions(ctx context.Context) (model.Catalog, error)
}

// LedgerUpdater applies an atomic read-modify-write to one identity's ledger
type LedgerUpdater interface {
	UpdateLedger(ctx context.Context, identity string, fn repo.UpdateFunc) error
}

// MessageSender delivers outbound messages on the recipient's channel
type MessageSender interface {
	Send(ctx context.Context, to model.Recipient, msg model.OutboundMessage) error
}

// CompletionNotifier is told about completed ledgers
type CompletionNotifier interface {
	Notify(ctx context.Context, ledger *model.Ledger, catalog model.Catalog)
}

// EventHandler processes one classified inbound event
type EventHandler interface {
	Handle(ctx context.Context, in model.Inbound) error
}

// Engine runs the conversation state machine for every identity. Events for one
// identity are serialized; outbound delivery happens after the ledger is committed
// and never blocks the caller.
type Engine struct {
	catalog  CatalogReader
	ledgers  LedgerUpdater
	sender   MessageSender
	notifier CompletionNotifier

	locks           *locker.Locker
	seen            *lru.Cache[string, struct{}]
	dispatchTimeout time.Duration
	now             func() time.Time

	wg sync.WaitGroup
}

type EngineOption func(*Engine)

// WithDispatchTimeout bounds the time spent delivering one event's messages
func WithDispatchTimeout(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.dispatchTimeout = d
		}
	}
}

// WithClock overrides time.Now
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) {
		e.now = now
	}
}

func NewEngine(catalog CatalogReader, ledgers LedgerUpdater, sender MessageSender, notifier CompletionNotifier, opts ...EngineOption) *Engine {
	seen, err := lru.New[string, struct{}](seenMessagesSize)
	if err != nil {
		panic(fmt.Sprintf("error creating message cache: %v", err))
	}
	e := &Engine{
		catalog:         catalog,
		ledgers:         ledgers,
		sender:          sender,
		notifier:        notifier,
		locks:           locker.New(),
		seen:            seen,
		dispatchTimeout: defaultDispatchTimeout,
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Handle applies one inbound event. It returns model.ErrCatalogEmpty when there is
// nothing to ask and any persistence error; outbound failures are only logged.
func (e *Engine) Handle(ctx context.Context, in model.Inbound) error {
	logger := loggerFrom(ctx).With().
		Str("identity", in.Identity).
		Str("channel", in.Recipient.Channel).
		Stringer("event", in.Event.Kind).
		Logger()

	if in.Event.Kind == model.EventIgnore || in.Identity == "" {
		logger.Debug().Msg("ignoring inbound message")
		return nil
	}

	e.locks.Lock(in.Identity)
	defer func() {
		_ = e.locks.Unlock(in.Identity)
	}()

	if in.MessageID != "" && e.seen.Contains(in.MessageID) {
		logger.Info().Str("message_id", in.MessageID).Msg("duplicate delivery ignored")
		return nil
	}

	catalog, err := e.catalog.ListQuestions(ctx)
	if err != nil {
		return fmt.Errorf("error loading questions: %w", err)
	}
	if len(catalog) == 0 {
		return model.ErrCatalogEmpty
	}

	var t Transition
	err = e.ledgers.UpdateLedger(ctx, in.Identity, func(current *model.Ledger) (*model.Ledger, error) {
		t = Step(current, catalog, in, e.now())
		return t.Ledger, nil
	})
	if err != nil {
		return err
	}
	if in.MessageID != "" {
		e.seen.Add(in.MessageID, struct{}{})
	}

	logger.Info().
		Stringer("from", t.From).
		Stringer("to", t.To).
		Int("confirmed", t.Result.ConfirmedCount()).
		Int("messages", len(t.Messages)).
		Bool("notify", t.Notify).
		Msg("event handled")

	e.dispatch(logger, in.Recipient, t, catalog)
	return nil
}

// Close waits for in-flight deliveries
func (e *Engine) Close() {
	e.wg.Wait()
}

func (e *Engine) dispatch(logger zerolog.Logger, to model.Recipient, t Transition, catalog model.Catalog) {
	if len(t.Messages) == 0 && !t.Notify {
		return
	}

	e.wg.Add(1)
	go func() {
		defer e.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				logger.Error().Interface("panic", r).Msg("outbound dispatch panicked")
			}
		}()

		ctx, cancel := context.WithTimeout(logger.WithContext(context.Background()), e.dispatchTimeout)
		defer cancel()

		for _, msg := range t.Messages {
			if err := e.sender.Send(ctx, to, msg); err != nil {
				logger.Error().Err(err).Msg("error sending message")
			}
		}
		if t.Notify && e.notifier != nil {
			e.notifier.Notify(ctx, t.Result, catalog)
		}
	}()
}

// loggerFrom returns the request logger stored in ctx, or the global logger
func loggerFrom(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &log.Logger
}
