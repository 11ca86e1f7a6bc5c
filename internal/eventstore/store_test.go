package eventstore

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type created struct {
	Name string `json:"name"`
}

type meta struct {
	RequestID string `json:"request_id"`
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), "sqlite:"+filepath.Join(t.TempDir(), "events.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestParseDSN(t *testing.T) {
	tests := []struct {
		dsn     string
		want    string
		wantErr bool
	}{
		{"sqlite:data/events.db", "data/events.db", false},
		{"sqlite://data/events.db?mode=rwc", "data/events.db", false},
		{"/tmp/events.db", "/tmp/events.db", false},
		{"postgres://localhost/market", "", true},
		{"mysql://localhost/market", "", true},
		{"postgresql://h/db", "", true},
		{"file:x.db", "", true},
		{"SQLite:events.db", "events.db", false},
		{"events.db", "events.db", false},
		{`C:\data\events.db`, `C:\data\events.db`, false},
		{"sqlite:", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.dsn, func(t *testing.T) {
			got, err := ParseDSN(tt.dsn)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, Migrate(ctx, s.DB(), EventMigrations))
	require.NoError(t, Migrate(ctx, s.DB(), EventMigrations))

	var n int
	require.NoError(t, s.DB().QueryRowContext(ctx, "SELECT COUNT(*) FROM schema_migrations").Scan(&n))
	assert.Equal(t, len(EventMigrations), n)
}

func TestCommitAndLoad(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	events, err := s.Commit(ctx, Save{
		AggregateType: "market/Product",
		AggregateID:   "p1",
		RoutingKey:    "eu-west-3",
		Metadata:      meta{RequestID: "r1"},
		Events: []Pending{
			{Name: "CreateRequested", Data: created{Name: "mouse 345"}},
			{Name: "Created", Data: map[string]string{"state": "ready"}},
		},
	})
	require.NoError(t, err)
	require.Len(t, events, 2)
	assert.Equal(t, 1, events[0].Version)
	assert.Equal(t, 2, events[1].Version)
	assert.Less(t, events[0].Seq, events[1].Seq)

	loaded, err := s.Load(ctx, "market/Product", "p1")
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	var c created
	require.NoError(t, loaded[0].Decode(&c))
	assert.Equal(t, "mouse 345", c.Name)

	var m meta
	require.NoError(t, loaded[1].DecodeMetadata(&m))
	assert.Equal(t, "r1", m.RequestID)
	assert.Equal(t, "eu-west-3", loaded[1].RoutingKey)
}

func TestLoadUnknown(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Load(context.Background(), "market/Product", "missing")
	assert.True(t, errors.Is(err, ErrNotFound), "got %v", err)
}

func TestCommitVersionConflict(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	save := Save{
		AggregateType: "market/Product",
		AggregateID:   "p1",
		Events:        []Pending{{Name: "CreateRequested", Data: created{Name: "desk"}}},
	}
	_, err := s.Commit(ctx, save)
	require.NoError(t, err)

	_, err = s.Commit(ctx, save)
	assert.ErrorIs(t, err, ErrVersionConflict)

	save.OriginalVersion = 1
	save.Events = []Pending{{Name: "Created", Data: struct{}{}}}
	_, err = s.Commit(ctx, save)
	assert.NoError(t, err)
}

func TestCommitConcurrentWritersOneWins(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		ok        int
		conflicts int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Commit(ctx, Save{
				AggregateType: "market/Product",
				AggregateID:   "race",
				Events:        []Pending{{Name: "CreateRequested", Data: created{Name: "chair"}}},
			})
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, ErrVersionConflict):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 1, ok)
	assert.Equal(t, 7, conflicts)
}

func TestCommitRejectsEmpty(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Commit(context.Background(), Save{AggregateType: "market/Product", AggregateID: "p"})
	assert.Error(t, err)
	_, err = s.Commit(context.Background(), Save{Events: []Pending{{Name: "x"}}})
	assert.Error(t, err)
}

func TestReadAfterFilters(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i, rk := range []string{"eu-west-3", "us-east-1", "eu-west-3"} {
		_, err := s.Commit(ctx, Save{
			AggregateType: "market/Product",
			AggregateID:   string(rune('a' + i)),
			RoutingKey:    rk,
			Events:        []Pending{{Name: "CreateRequested", Data: created{Name: rk}}},
		})
		require.NoError(t, err)
	}
	_, err := s.Commit(ctx, Save{
		AggregateType: "market/Order",
		AggregateID:   "o1",
		RoutingKey:    "eu-west-3",
		Events:        []Pending{{Name: "Placed", Data: struct{}{}}},
	})
	require.NoError(t, err)

	all, err := s.ReadAfter(ctx, 0, "", nil, 0)
	require.NoError(t, err)
	assert.Len(t, all, 4)

	eu, err := s.ReadAfter(ctx, 0, "eu-west-3", []string{"market/Product"}, 10)
	require.NoError(t, err)
	require.Len(t, eu, 2)
	assert.Equal(t, "a", eu[0].AggregateID)
	assert.Equal(t, "c", eu[1].AggregateID)

	tail, err := s.ReadAfter(ctx, eu[0].Seq, "eu-west-3", []string{"market/Product"}, 10)
	require.NoError(t, err)
	require.Len(t, tail, 1)
	assert.Equal(t, "c", tail[0].AggregateID)

	limited, err := s.ReadAfter(ctx, 0, "", nil, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestCursorAcknowledge(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	c, err := s.Cursor(ctx, "sub")
	require.NoError(t, err)
	assert.Zero(t, c)

	require.NoError(t, s.Acknowledge(ctx, "sub", 7))
	require.NoError(t, s.Acknowledge(ctx, "sub", 9))

	c, err = s.Cursor(ctx, "sub")
	require.NoError(t, err)
	assert.EqualValues(t, 9, c)
}
