package eventstore

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryStore is an in-memory Store and PositionStore used by tests and
// by single-process setups that do not need durability.
type MemoryStore struct {
	mu        sync.Mutex
	events    []Event
	byID      map[uuid.UUID][]int // indexes into events
	positions map[string]*memoryPosition
}

type memoryPosition struct {
	position  int64
	claimedBy string
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		byID:      make(map[uuid.UUID][]int),
		positions: make(map[string]*memoryPosition),
	}
}

func (s *MemoryStore) Append(ctx context.Context, aggregateType string, aggregateID uuid.UUID, expectedVersion int64, events []EventData) ([]Event, error) {
	if len(events) == 0 {
		return nil, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current := int64(len(s.byID[aggregateID]))
	if current != expectedVersion {
		return nil, fmt.Errorf("%w: aggregate %s at version %d, expected %d",
			ErrVersionConflict, aggregateID, current, expectedVersion)
	}

	now := time.Now().UTC()
	stored := make([]Event, 0, len(events))
	for i, data := range events {
		ev := Event{
			GlobalSeq:     int64(len(s.events)) + 1,
			AggregateType: aggregateType,
			AggregateID:   aggregateID,
			Version:       expectedVersion + int64(i) + 1,
			Type:          data.EventType(),
			Data:          data,
			RecordedAt:    now,
		}
		s.byID[aggregateID] = append(s.byID[aggregateID], len(s.events))
		s.events = append(s.events, ev)
		stored = append(stored, ev)
	}
	return stored, nil
}

func (s *MemoryStore) Load(ctx context.Context, aggregateID uuid.UUID) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	indexes := s.byID[aggregateID]
	events := make([]Event, 0, len(indexes))
	for _, i := range indexes {
		events = append(events, s.events[i])
	}
	return events, nil
}

func (s *MemoryStore) ReadAfter(ctx context.Context, afterSeq int64, limit int) ([]Event, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var events []Event
	for _, ev := range s.events {
		if ev.GlobalSeq <= afterSeq {
			continue
		}
		events = append(events, ev)
		if len(events) == limit {
			break
		}
	}
	return events, nil
}

func (s *MemoryStore) Claim(ctx context.Context, group, owner string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.positions[group]
	if !ok {
		pos = &memoryPosition{}
		s.positions[group] = pos
	}
	if pos.claimedBy != "" && pos.claimedBy != owner {
		return 0, fmt.Errorf("%w: group %s held by %s", ErrPositionClaimed, group, pos.claimedBy)
	}
	pos.claimedBy = owner
	return pos.position, nil
}

func (s *MemoryStore) Save(ctx context.Context, group, owner string, position int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.positions[group]
	if !ok || pos.claimedBy != owner {
		return fmt.Errorf("%w: group %s not held by %s", ErrPositionClaimed, group, owner)
	}
	pos.position = position
	return nil
}

func (s *MemoryStore) Reset(ctx context.Context, group, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.positions[group]
	if !ok {
		s.positions[group] = &memoryPosition{}
		return nil
	}
	if pos.claimedBy != "" && pos.claimedBy != owner {
		return fmt.Errorf("%w: group %s held by %s", ErrPositionClaimed, group, pos.claimedBy)
	}
	pos.position = 0
	return nil
}

func (s *MemoryStore) Release(ctx context.Context, group, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if pos, ok := s.positions[group]; ok && pos.claimedBy == owner {
		pos.claimedBy = ""
	}
	return nil
}
