// Package commandbus routes commands to their aggregate: pre-validation
// interceptors first, then single-writer dispatch per aggregate id
// (replay history, fold state, handle, append emitted events).
package commandbus

import (
	"context"
	"fmt"
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"

	"contabile/internal/cache"
	"contabile/internal/eventstore"
	"contabile/internal/log"
)

// Command is a request to change one aggregate's state. The target id
// is part of the command; the bus guarantees it reaches the single
// writer for that id.
type Command interface {
	AggregateID() uuid.UUID
	AggregateType() string
	CommandType() string
}

// Interceptor runs before a command is routed to its aggregate. A
// non-nil error rejects the command; it never reaches the aggregate.
// Interceptors may only consult the read model, never aggregate state.
type Interceptor func(ctx context.Context, cmd Command) error

// AggregateDefinition adapts one aggregate kind's pure fold and handle
// functions to the bus. NewState returns the empty (pre-creation)
// state; Apply folds one event; Handle validates a command against the
// folded state and returns the events to append.
type AggregateDefinition struct {
	Type     string
	NewState func() any
	Apply    func(state any, ev eventstore.EventData) any
	Handle   func(state any, cmd Command) ([]eventstore.EventData, error)
}

// Notifier observes successfully appended events, e.g. to wake local
// processors or publish an AMQP nudge for remote workers.
type Notifier interface {
	EventsAppended(ctx context.Context, events []eventstore.Event)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, events []eventstore.Event)

func (f NotifierFunc) EventsAppended(ctx context.Context, events []eventstore.Event) {
	f(ctx, events)
}

const lockStripes = 64

type cachedState struct {
	state   any
	version int64
}

// Bus dispatches commands. Commands addressed to the same aggregate id
// are serialized in arrival order by a striped lock; different ids run
// in parallel.
type Bus struct {
	store        eventstore.Store
	logger       *log.Logger
	definitions  map[string]AggregateDefinition
	interceptors []Interceptor
	notifiers    []Notifier
	locks        [lockStripes]sync.Mutex
	states       *cache.LRUCache[cachedState]
}

func New(store eventstore.Store, logger *log.Logger) *Bus {
	return &Bus{
		store:       store,
		logger:      logger.WithComponent(log.ComponentBus),
		definitions: make(map[string]AggregateDefinition),
		states:      cache.NewLRUCache[cachedState](1024, 10*time.Minute),
	}
}

// RegisterAggregate wires one aggregate kind into the bus.
func (b *Bus) RegisterAggregate(def AggregateDefinition) {
	if _, dup := b.definitions[def.Type]; dup {
		panic(fmt.Sprintf("commandbus: aggregate type %q registered twice", def.Type))
	}
	b.definitions[def.Type] = def
}

// Use appends an interceptor. Interceptors run in registration order.
func (b *Bus) Use(interceptor Interceptor) {
	b.interceptors = append(b.interceptors, interceptor)
}

// Notify registers an appended-events observer.
func (b *Bus) Notify(notifier Notifier) {
	b.notifiers = append(b.notifiers, notifier)
}

// Dispatch routes a command through the interceptors to its aggregate
// and durably appends the emitted events. Validation and aggregate
// logic errors surface directly to the caller; no event is written on
// rejection.
func (b *Bus) Dispatch(ctx context.Context, cmd Command) error {
	def, ok := b.definitions[cmd.AggregateType()]
	if !ok {
		return fmt.Errorf("commandbus: unknown aggregate type %q", cmd.AggregateType())
	}

	for _, interceptor := range b.interceptors {
		if err := interceptor(ctx, cmd); err != nil {
			b.logger.Warn("Command rejected by pre-validation",
				log.FieldCommand, cmd.CommandType(),
				log.FieldAggregateID, cmd.AggregateID(),
				log.FieldError, err)
			return err
		}
	}

	id := cmd.AggregateID()
	lock := &b.locks[stripeFor(id)]
	lock.Lock()
	defer lock.Unlock()

	state, version, err := b.currentState(ctx, def, id)
	if err != nil {
		return err
	}

	events, err := def.Handle(state, cmd)
	if err != nil {
		b.logger.Warn("Command rejected by aggregate",
			log.FieldCommand, cmd.CommandType(),
			log.FieldAggregateID, id,
			log.FieldError, err)
		return err
	}
	if len(events) == 0 {
		return nil
	}

	stored, err := b.store.Append(ctx, def.Type, id, version, events)
	if err != nil {
		// The striped lock makes a conflict on this node impossible;
		// seeing one means another writer shares the log.
		b.states.Delete(id.String())
		return fmt.Errorf("append events for %s: %w", cmd.CommandType(), err)
	}

	for _, ev := range stored {
		state = def.Apply(state, ev.Data)
		version = ev.Version
	}
	b.states.Set(id.String(), cachedState{state: state, version: version})

	b.logger.Info("Command handled",
		log.FieldCommand, cmd.CommandType(),
		log.FieldAggregateID, id,
		"events", len(stored))

	for _, notifier := range b.notifiers {
		notifier.EventsAppended(ctx, stored)
	}
	return nil
}

// currentState returns the folded state and version for an aggregate,
// replaying its history unless a cached fold is available.
func (b *Bus) currentState(ctx context.Context, def AggregateDefinition, id uuid.UUID) (any, int64, error) {
	if cached, ok := b.states.Get(id.String()); ok {
		return cached.state, cached.version, nil
	}

	history, err := b.store.Load(ctx, id)
	if err != nil {
		return nil, 0, fmt.Errorf("load aggregate %s: %w", id, err)
	}

	state := def.NewState()
	version := int64(0)
	for _, ev := range history {
		state = def.Apply(state, ev.Data)
		version = ev.Version
	}
	return state, version, nil
}

func stripeFor(id uuid.UUID) int {
	h := fnv.New32a()
	h.Write(id[:])
	return int(h.Sum32() % lockStripes)
}
