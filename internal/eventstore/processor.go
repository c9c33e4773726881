package eventstore

import (
	"context"
	"fmt"
	"time"

	"contabile/internal/log"
)

// Handler consumes one decoded event from the global stream.
type Handler interface {
	HandleEvent(ctx context.Context, ev Event) error
}

// HandlerFunc adapts a function to the Handler interface.
type HandlerFunc func(ctx context.Context, ev Event) error

func (f HandlerFunc) HandleEvent(ctx context.Context, ev Event) error {
	return f(ctx, ev)
}

// Processor is a named tracking consumer of the global event stream.
// Each processor runs single-threaded in strict emission order and
// progresses independently of every other group. A handler error halts
// the group; the read model must not drift silently past a failure.
type Processor struct {
	name          string
	owner         string
	store         Store
	positions     PositionStore
	handler       Handler
	logger        *log.Logger
	interval      time.Duration
	batchSize     int
	supportsReset bool
	wake          chan struct{}
}

type ProcessorOption func(*Processor)

// WithPollInterval overrides how often the processor polls for new
// events when no wake-up arrives.
func WithPollInterval(interval time.Duration) ProcessorOption {
	return func(p *Processor) { p.interval = interval }
}

// WithBatchSize overrides how many events are read per poll.
func WithBatchSize(size int) ProcessorOption {
	return func(p *Processor) { p.batchSize = size }
}

// WithoutReset marks the processor as not replayable. Restart requests
// for such a group report an error instead of rewinding the position.
func WithoutReset() ProcessorOption {
	return func(p *Processor) { p.supportsReset = false }
}

func NewProcessor(name, owner string, store Store, positions PositionStore, handler Handler, logger *log.Logger, opts ...ProcessorOption) *Processor {
	p := &Processor{
		name:          name,
		owner:         owner,
		store:         store,
		positions:     positions,
		handler:       handler,
		logger:        logger.WithComponent(log.ComponentProjection).With(log.FieldGroup, name),
		interval:      time.Second,
		batchSize:     100,
		supportsReset: true,
		wake:          make(chan struct{}, 1),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *Processor) Name() string { return p.name }

func (p *Processor) SupportsReset() bool { return p.supportsReset }

// Wake nudges the processor to poll immediately instead of waiting for
// the next tick. Safe to call from any goroutine; wake-ups coalesce.
func (p *Processor) Wake() {
	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Run claims the group's position and consumes the stream until ctx is
// cancelled or the handler fails. The claim is released on exit.
func (p *Processor) Run(ctx context.Context) error {
	position, err := p.positions.Claim(ctx, p.name, p.owner)
	if err != nil {
		return fmt.Errorf("claim group %s: %w", p.name, err)
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := p.positions.Release(releaseCtx, p.name, p.owner); err != nil {
			p.logger.Warn("Failed to release position claim", log.FieldError, err)
		}
	}()

	p.logger.Info("Processor started", log.FieldPosition, position)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		events, err := p.store.ReadAfter(ctx, position, p.batchSize)
		if err != nil {
			return fmt.Errorf("read events for group %s: %w", p.name, err)
		}

		for _, ev := range events {
			if err := p.handler.HandleEvent(ctx, ev); err != nil {
				p.logger.Error("Event handling failed, halting group",
					log.FieldEvent, ev.Type,
					log.FieldPosition, ev.GlobalSeq,
					log.FieldError, err)
				return fmt.Errorf("group %s at position %d: %w", p.name, ev.GlobalSeq, err)
			}
			position = ev.GlobalSeq
			if err := p.positions.Save(ctx, p.name, p.owner, position); err != nil {
				return fmt.Errorf("save position for group %s: %w", p.name, err)
			}
		}

		if len(events) == p.batchSize {
			// More events may be pending; poll again right away.
			continue
		}

		select {
		case <-ctx.Done():
			p.logger.Info("Processor stopping", log.FieldPosition, position)
			return ctx.Err()
		case <-p.wake:
		case <-ticker.C:
		}
	}
}
