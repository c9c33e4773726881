package projection

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"contabile/internal/eventstore"
	"contabile/internal/log"
)

var (
	ErrUnknownGroup     = errors.New("projection: unknown processing group")
	ErrResetUnsupported = errors.New("projection: group does not support reset")
)

type managed struct {
	processor *eventstore.Processor
	cancel    context.CancelFunc
	done      chan error
}

// Manager runs a set of tracking processors and offers the operator
// controls: list groups, restart a group from the start of the log.
// Processor failures are fatal for the whole node; they surface on the
// channel returned by Run rather than being swallowed.
type Manager struct {
	positions eventstore.PositionStore
	owner     string
	logger    *log.Logger

	mu         sync.Mutex
	processors map[string]*managed
	runCtx     context.Context
	fatal      chan error
}

// NewManager creates a manager whose processors all claim positions
// under the given owner id.
func NewManager(positions eventstore.PositionStore, owner string, logger *log.Logger) *Manager {
	return &Manager{
		positions:  positions,
		owner:      owner,
		logger:     logger.WithComponent(log.ComponentProjection),
		processors: make(map[string]*managed),
		fatal:      make(chan error, 16),
	}
}

// Register adds a processor before Run is called.
func (m *Manager) Register(p *eventstore.Processor) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, dup := m.processors[p.Name()]; dup {
		panic(fmt.Sprintf("projection: group %q registered twice", p.Name()))
	}
	m.processors[p.Name()] = &managed{processor: p}
}

// Names lists the registered processing groups.
func (m *Manager) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	names := make([]string, 0, len(m.processors))
	for name := range m.processors {
		names = append(names, name)
	}
	return names
}

// Run starts every registered processor. The returned channel carries
// the first fatal error of any group; context cancellation is a normal
// stop and is not reported there.
func (m *Manager) Run(ctx context.Context) <-chan error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runCtx = ctx
	for _, mp := range m.processors {
		m.start(ctx, mp)
	}
	return m.fatal
}

// start launches one processor. Caller holds m.mu.
func (m *Manager) start(parent context.Context, mp *managed) {
	ctx, cancel := context.WithCancel(parent)
	done := make(chan error, 1)
	mp.cancel = cancel
	mp.done = done

	go func() {
		err := mp.processor.Run(ctx)
		done <- err
		if err != nil && !errors.Is(err, context.Canceled) {
			select {
			case m.fatal <- fmt.Errorf("group %s: %w", mp.processor.Name(), err):
			default:
			}
		}
	}()
}

// WakeAll nudges every processor to poll now.
func (m *Manager) WakeAll() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, mp := range m.processors {
		mp.processor.Wake()
	}
}

// Restart stops a group, rewinds its position to the start of the log
// and starts it again, replaying every event. A failed rewind (e.g. the
// position is claimed by another node) is logged but the processor is
// restarted regardless, resuming from wherever the position ends up.
func (m *Manager) Restart(ctx context.Context, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	mp, ok := m.processors[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownGroup, name)
	}
	if !mp.processor.SupportsReset() {
		return fmt.Errorf("%w: %q", ErrResetUnsupported, name)
	}
	if m.runCtx == nil {
		return fmt.Errorf("projection: manager not running")
	}

	m.logger.Info("Restarting processing group", log.FieldGroup, name)

	if mp.cancel != nil {
		mp.cancel()
		if err := <-mp.done; err != nil && !errors.Is(err, context.Canceled) {
			m.logger.Warn("Group stopped with error during restart",
				log.FieldGroup, name, log.FieldError, err)
		}
	}

	if err := m.positions.Reset(ctx, name, m.owner); err != nil {
		// The position may be claimed elsewhere. Not retried: the
		// operator asked for a restart and gets one either way.
		m.logger.Error("Failed to rewind group position",
			log.FieldGroup, name, log.FieldError, err)
	}

	m.start(m.runCtx, mp)
	return nil
}

// Stop cancels every processor and waits for them to exit.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, mp := range m.processors {
		if mp.cancel != nil {
			mp.cancel()
		}
	}
	for _, mp := range m.processors {
		if mp.done != nil {
			<-mp.done
		}
	}
}
