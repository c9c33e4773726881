package eventstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists the event log and the tracking positions in a
// single SQLite database.
type SQLiteStore struct {
	db       *sql.DB
	registry *Registry
}

func NewSQLiteStore(dbPath string, registry *Registry) (*SQLiteStore, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteStore{db: db, registry: registry}, nil
}

func (s *SQLiteStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func (s *SQLiteStore) Append(ctx context.Context, aggregateType string, aggregateID uuid.UUID, expectedVersion int64, events []EventData) ([]Event, error) {
	if len(events) == 0 {
		return nil, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback()

	var current int64
	err = tx.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM events WHERE aggregate_id = ?`,
		aggregateID.String(),
	).Scan(&current)
	if err != nil {
		return nil, fmt.Errorf("read current version: %w", err)
	}
	if current != expectedVersion {
		return nil, fmt.Errorf("%w: aggregate %s at version %d, expected %d",
			ErrVersionConflict, aggregateID, current, expectedVersion)
	}

	stored := make([]Event, 0, len(events))
	now := time.Now().UTC()
	for i, data := range events {
		payload, err := json.Marshal(data)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", data.EventType(), err)
		}

		version := expectedVersion + int64(i) + 1
		res, err := tx.ExecContext(ctx,
			`INSERT INTO events (aggregate_type, aggregate_id, version, event_type, data, recorded_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			aggregateType, aggregateID.String(), version, data.EventType(), payload, now,
		)
		if err != nil {
			return nil, fmt.Errorf("append %s: %w", data.EventType(), err)
		}
		seq, err := res.LastInsertId()
		if err != nil {
			return nil, fmt.Errorf("read global sequence: %w", err)
		}

		stored = append(stored, Event{
			GlobalSeq:     seq,
			AggregateType: aggregateType,
			AggregateID:   aggregateID,
			Version:       version,
			Type:          data.EventType(),
			Data:          data,
			RecordedAt:    now,
		})
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit append: %w", err)
	}
	return stored, nil
}

func (s *SQLiteStore) Load(ctx context.Context, aggregateID uuid.UUID) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT global_seq, aggregate_type, aggregate_id, version, event_type, data, recorded_at
		 FROM events WHERE aggregate_id = ? ORDER BY version`,
		aggregateID.String(),
	)
	if err != nil {
		return nil, fmt.Errorf("load aggregate %s: %w", aggregateID, err)
	}
	defer rows.Close()

	return s.scanEvents(rows)
}

func (s *SQLiteStore) ReadAfter(ctx context.Context, afterSeq int64, limit int) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT global_seq, aggregate_type, aggregate_id, version, event_type, data, recorded_at
		 FROM events WHERE global_seq > ? ORDER BY global_seq LIMIT ?`,
		afterSeq, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("read after %d: %w", afterSeq, err)
	}
	defer rows.Close()

	return s.scanEvents(rows)
}

func (s *SQLiteStore) scanEvents(rows *sql.Rows) ([]Event, error) {
	var events []Event
	for rows.Next() {
		var (
			ev         Event
			idStr      string
			payload    []byte
			recordedAt time.Time
		)
		if err := rows.Scan(&ev.GlobalSeq, &ev.AggregateType, &idStr, &ev.Version, &ev.Type, &payload, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}

		id, err := uuid.Parse(idStr)
		if err != nil {
			return nil, fmt.Errorf("parse aggregate id %q: %w", idStr, err)
		}
		data, err := s.registry.Decode(ev.Type, payload)
		if err != nil {
			return nil, err
		}

		ev.AggregateID = id
		ev.Data = data
		ev.RecordedAt = recordedAt
		events = append(events, ev)
	}
	return events, rows.Err()
}

// Claim implements PositionStore.
func (s *SQLiteStore) Claim(ctx context.Context, group, owner string) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin claim: %w", err)
	}
	defer tx.Rollback()

	var (
		position  int64
		claimedBy sql.NullString
	)
	err = tx.QueryRowContext(ctx,
		`SELECT position, claimed_by FROM positions WHERE group_name = ?`, group,
	).Scan(&position, &claimedBy)
	switch {
	case err == sql.ErrNoRows:
		_, err = tx.ExecContext(ctx,
			`INSERT INTO positions (group_name, position, claimed_by, claimed_at) VALUES (?, 0, ?, ?)`,
			group, owner, time.Now().UTC(),
		)
		if err != nil {
			return 0, fmt.Errorf("claim new position: %w", err)
		}
	case err != nil:
		return 0, fmt.Errorf("read position: %w", err)
	default:
		if claimedBy.Valid && claimedBy.String != "" && claimedBy.String != owner {
			return 0, fmt.Errorf("%w: group %s held by %s", ErrPositionClaimed, group, claimedBy.String)
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE positions SET claimed_by = ?, claimed_at = ? WHERE group_name = ?`,
			owner, time.Now().UTC(), group,
		)
		if err != nil {
			return 0, fmt.Errorf("claim position: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit claim: %w", err)
	}
	return position, nil
}

// Save implements PositionStore.
func (s *SQLiteStore) Save(ctx context.Context, group, owner string, position int64) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE positions SET position = ? WHERE group_name = ? AND claimed_by = ?`,
		position, group, owner,
	)
	if err != nil {
		return fmt.Errorf("save position: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save position: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: group %s not held by %s", ErrPositionClaimed, group, owner)
	}
	return nil
}

// Reset implements PositionStore.
func (s *SQLiteStore) Reset(ctx context.Context, group, owner string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE positions SET position = 0
		 WHERE group_name = ? AND (claimed_by IS NULL OR claimed_by = '' OR claimed_by = ?)`,
		group, owner,
	)
	if err != nil {
		return fmt.Errorf("reset position: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reset position: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: group %s", ErrPositionClaimed, group)
	}
	return nil
}

// Release implements PositionStore.
func (s *SQLiteStore) Release(ctx context.Context, group, owner string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE positions SET claimed_by = NULL, claimed_at = NULL WHERE group_name = ? AND claimed_by = ?`,
		group, owner,
	)
	if err != nil {
		return fmt.Errorf("release position: %w", err)
	}
	return nil
}
