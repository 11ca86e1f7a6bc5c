// Package eventstore is an append-only event log on SQLite with polling
// subscriptions and opaque cursor pagination.
package eventstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/timada/market/internal/idutil"
)

var (
	ErrNotFound        = errors.New("aggregate not found")
	ErrVersionConflict = errors.New("aggregate version conflict")
)

type Event struct {
	Seq           int64
	ID            string
	Name          string
	AggregateID   string
	AggregateType string
	Version       int
	Data          json.RawMessage
	Metadata      json.RawMessage
	RoutingKey    string
	Timestamp     time.Time
}

// Decode unmarshals the event payload into v.
func (e Event) Decode(v any) error {
	if err := json.Unmarshal(e.Data, v); err != nil {
		return fmt.Errorf("decode %s data: %w", e.Name, err)
	}
	return nil
}

// DecodeMetadata unmarshals the event metadata into v. Missing metadata
// leaves v untouched.
func (e Event) DecodeMetadata(v any) error {
	if len(e.Metadata) == 0 {
		return nil
	}
	if err := json.Unmarshal(e.Metadata, v); err != nil {
		return fmt.Errorf("decode %s metadata: %w", e.Name, err)
	}
	return nil
}

// Pending is an event not yet written.
type Pending struct {
	Name string
	Data any
}

// Save describes one atomic write to a single aggregate. OriginalVersion is
// the version the caller loaded; zero means the aggregate must not exist.
type Save struct {
	AggregateType   string
	AggregateID     string
	OriginalVersion int
	RoutingKey      string
	Metadata        any
	Events          []Pending
}

type Store struct {
	db  *sql.DB
	now func() time.Time
}

func New(db *sql.DB) *Store {
	return &Store{db: db, now: time.Now}
}

// Open parses dsn, opens the database and applies the event migrations.
func Open(ctx context.Context, dsn string) (*Store, error) {
	path, err := ParseDSN(dsn)
	if err != nil {
		return nil, err
	}
	db, err := OpenDB(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := Migrate(ctx, db, EventMigrations); err != nil {
		_ = db.Close()
		return nil, err
	}
	return New(db), nil
}

func (s *Store) DB() *sql.DB { return s.db }

func (s *Store) Close() error { return s.db.Close() }

func (s *Store) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

// Commit appends the events of save in one transaction and returns them as
// stored. A concurrent writer on the same aggregate yields ErrVersionConflict.
func (s *Store) Commit(ctx context.Context, save Save) ([]Event, error) {
	if save.AggregateType == "" || save.AggregateID == "" {
		return nil, fmt.Errorf("aggregate type and id are required")
	}
	if len(save.Events) == 0 {
		return nil, fmt.Errorf("nothing to commit for %s/%s", save.AggregateType, save.AggregateID)
	}

	var metadata []byte
	if save.Metadata != nil {
		b, err := json.Marshal(save.Metadata)
		if err != nil {
			return nil, fmt.Errorf("encode metadata: %w", err)
		}
		metadata = b
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer func() { _ = tx.Rollback() }()

	var current int
	if err := tx.QueryRowContext(ctx,
		"SELECT COALESCE(MAX(version), 0) FROM event WHERE aggregate_type = ? AND aggregate_id = ?",
		save.AggregateType, save.AggregateID,
	).Scan(&current); err != nil {
		return nil, fmt.Errorf("read version: %w", err)
	}
	if current != save.OriginalVersion {
		return nil, fmt.Errorf("%w: %s/%s is at %d, expected %d", ErrVersionConflict, save.AggregateType, save.AggregateID, current, save.OriginalVersion)
	}

	now := s.now()
	out := make([]Event, 0, len(save.Events))
	for i, p := range save.Events {
		data, err := json.Marshal(p.Data)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", p.Name, err)
		}
		ev := Event{
			ID:            idutil.NewID(),
			Name:          p.Name,
			AggregateID:   save.AggregateID,
			AggregateType: save.AggregateType,
			Version:       save.OriginalVersion + i + 1,
			Data:          data,
			Metadata:      metadata,
			RoutingKey:    save.RoutingKey,
			Timestamp:     now,
		}
		res, err := tx.ExecContext(ctx, `INSERT INTO event
	(id, name, aggregate_id, aggregate_type, version, data, metadata, routing_key, timestamp)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			ev.ID, ev.Name, ev.AggregateID, ev.AggregateType, ev.Version,
			[]byte(ev.Data), nullBytes(ev.Metadata), ev.RoutingKey, now.UnixMilli(),
		)
		if err != nil {
			if isUniqueViolation(err) {
				return nil, fmt.Errorf("%w: %s/%s version %d", ErrVersionConflict, save.AggregateType, save.AggregateID, ev.Version)
			}
			return nil, fmt.Errorf("insert %s: %w", p.Name, err)
		}
		if ev.Seq, err = res.LastInsertId(); err != nil {
			return nil, err
		}
		out = append(out, ev)
	}

	if err := tx.Commit(); err != nil {
		if isUniqueViolation(err) {
			return nil, ErrVersionConflict
		}
		return nil, fmt.Errorf("commit: %w", err)
	}
	return out, nil
}

// Load returns the events of one aggregate ordered by version.
func (s *Store) Load(ctx context.Context, aggregateType, aggregateID string) ([]Event, error) {
	rows, err := s.db.QueryContext(ctx, selectEvent+`
	WHERE aggregate_type = ? AND aggregate_id = ?
	ORDER BY version ASC`, aggregateType, aggregateID)
	if err != nil {
		return nil, fmt.Errorf("load %s/%s: %w", aggregateType, aggregateID, err)
	}
	events, err := scanEvents(rows)
	if err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, aggregateType, aggregateID)
	}
	return events, nil
}

// ReadAfter returns up to limit events with seq > after. An empty routingKey
// matches every key; an empty types list matches every aggregate type.
func (s *Store) ReadAfter(ctx context.Context, after int64, routingKey string, types []string, limit int) ([]Event, error) {
	if limit <= 0 {
		limit = 100
	}
	var (
		where = []string{"seq > ?"}
		args  = []any{after}
	)
	if routingKey != "" {
		where = append(where, "routing_key = ?")
		args = append(args, routingKey)
	}
	if len(types) > 0 {
		where = append(where, "aggregate_type IN (?"+strings.Repeat(", ?", len(types)-1)+")")
		for _, t := range types {
			args = append(args, t)
		}
	}
	args = append(args, limit)

	rows, err := s.db.QueryContext(ctx, selectEvent+" WHERE "+strings.Join(where, " AND ")+" ORDER BY seq ASC LIMIT ?", args...)
	if err != nil {
		return nil, fmt.Errorf("read events: %w", err)
	}
	return scanEvents(rows)
}

// Cursor returns the last acknowledged seq of a subscriber, 0 if unknown.
func (s *Store) Cursor(ctx context.Context, key string) (int64, error) {
	var cursor int64
	err := s.db.QueryRowContext(ctx, "SELECT cursor FROM subscriber WHERE key = ?", key).Scan(&cursor)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read cursor %s: %w", key, err)
	}
	return cursor, nil
}

// Acknowledge moves the subscriber cursor to seq.
func (s *Store) Acknowledge(ctx context.Context, key string, seq int64) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO subscriber (key, cursor, updated_at) VALUES (?, ?, ?)
	ON CONFLICT(key) DO UPDATE SET cursor = excluded.cursor, updated_at = excluded.updated_at`,
		key, seq, s.now().Unix())
	if err != nil {
		return fmt.Errorf("acknowledge %s@%d: %w", key, seq, err)
	}
	return nil
}

const selectEvent = `SELECT seq, id, name, aggregate_id, aggregate_type, version, data, metadata, routing_key, timestamp FROM event`

func scanEvents(rows *sql.Rows) ([]Event, error) {
	defer rows.Close()

	var out []Event
	for rows.Next() {
		var (
			ev       Event
			data     []byte
			metadata []byte
			ts       int64
		)
		if err := rows.Scan(&ev.Seq, &ev.ID, &ev.Name, &ev.AggregateID, &ev.AggregateType,
			&ev.Version, &data, &metadata, &ev.RoutingKey, &ts); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		ev.Data = data
		ev.Metadata = metadata
		ev.Timestamp = time.UnixMilli(ts)
		out = append(out, ev)
	}
	return out, rows.Err()
}

func nullBytes(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	return b
}
