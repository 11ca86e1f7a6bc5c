package market

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/timada/market/internal/eventstore"
	"github.com/timada/market/internal/idutil"
)

type Service struct {
	events *eventstore.Store
	query  *projection
	region string
	delay  time.Duration
}

func NewService(events *eventstore.Store, queryDB *sql.DB, region string) *Service {
	return &Service{
		events: events,
		query:  &projection{db: queryDB},
		region: region,
		delay:  300 * time.Millisecond,
	}
}

// SetPollDelay changes how often subscriptions poll the event log.
func (s *Service) SetPollDelay(d time.Duration) {
	if d > 0 {
		s.delay = d
	}
}

func (s *Service) Region() string { return s.region }

// Create validates input and records a CreateRequested event. The product
// starts in the checking state until the command subscription accepts it.
func (s *Service) Create(ctx context.Context, in CreateInput, md Metadata) (string, error) {
	if err := in.Validate(); err != nil {
		return "", err
	}

	id := idutil.NewID()
	_, err := s.events.Commit(ctx, eventstore.Save{
		AggregateType: AggregateType,
		AggregateID:   id,
		RoutingKey:    s.region,
		Metadata:      md,
		Events: []eventstore.Pending{{
			Name: EventCreateRequested,
			Data: CreateRequested{Name: in.Name, State: StateChecking},
		}},
	})
	if err != nil {
		return "", fmt.Errorf("create product: %w", err)
	}
	slog.Info("product create requested", "id", id, "requestId", md.RequestID)
	return id, nil
}

func (s *Service) Load(ctx context.Context, id string) (*Product, error) {
	if !idutil.IsValidID(id) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	events, err := s.events.Load(ctx, AggregateType, id)
	if errors.Is(err, eventstore.ErrNotFound) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return Fold(events)
}

func (s *Service) Search(ctx context.Context, query string, args eventstore.Args) (eventstore.ReadResult[QueryProduct], error) {
	return s.query.search(ctx, query, args)
}

// CommandSubscription appends Created{ready} for every requested product.
func (s *Service) CommandSubscription() *eventstore.Subscription {
	sub := eventstore.NewSubscription(fmt.Sprintf("market.%s.product.command", s.region)).
		Routing(s.region).
		Aggregate(AggregateType).
		Handle(EventCreateRequested, s.handleCreateRequested)
	sub.Delay = s.delay
	return sub
}

// QuerySubscription keeps the product read model in sync.
func (s *Service) QuerySubscription() *eventstore.Subscription {
	sub := eventstore.NewSubscription(fmt.Sprintf("%s.product.query.products", s.region)).
		Routing(s.region).
		Aggregate(AggregateType).
		Handle(EventCreateRequested, s.query.createRequested).
		Handle(EventCreated, s.query.created).
		Handle(EventCreateFailed, s.query.createFailed)
	sub.Delay = s.delay
	return sub
}

func (s *Service) Subscriptions() []*eventstore.Subscription {
	return []*eventstore.Subscription{s.QuerySubscription(), s.CommandSubscription()}
}

func (s *Service) handleCreateRequested(ctx context.Context, ev eventstore.Event) error {
	var md Metadata
	if err := ev.DecodeMetadata(&md); err != nil {
		return err
	}

	_, err := s.events.Commit(ctx, eventstore.Save{
		AggregateType:   AggregateType,
		AggregateID:     ev.AggregateID,
		OriginalVersion: ev.Version,
		RoutingKey:      ev.RoutingKey,
		Metadata:        md,
		Events:          []eventstore.Pending{{Name: EventCreated, Data: Created{State: StateReady}}},
	})
	if errors.Is(err, eventstore.ErrVersionConflict) {
		// Already decided by an earlier delivery.
		return nil
	}
	if err != nil {
		return err
	}
	slog.Info("product created", "id", ev.AggregateID)
	return nil
}

// OpenQueryDB opens the read model database and applies its migrations.
func OpenQueryDB(ctx context.Context, path string) (*sql.DB, error) {
	db, err := eventstore.OpenDB(ctx, path)
	if err != nil {
		return nil, err
	}
	if err := eventstore.Migrate(ctx, db, QueryMigrations); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
