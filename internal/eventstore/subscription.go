package eventstore

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// HandlerFunc reacts to one event. Returning an error leaves the cursor
// before the event so it is delivered again on the next poll.
type HandlerFunc func(ctx context.Context, ev Event) error

// Subscription delivers events in seq order to handlers keyed by event
// name. Events without a handler are acknowledged and skipped.
type Subscription struct {
	Key            string
	RoutingKey     string
	AggregateTypes []string
	Handlers       map[string]HandlerFunc
	Delay          time.Duration
	BatchSize      int
}

func NewSubscription(key string) *Subscription {
	return &Subscription{
		Key:      key,
		Handlers: make(map[string]HandlerFunc),
		Delay:    300 * time.Millisecond,
	}
}

func (s *Subscription) Routing(key string) *Subscription {
	s.RoutingKey = key
	return s
}

func (s *Subscription) Aggregate(aggregateType string) *Subscription {
	s.AggregateTypes = append(s.AggregateTypes, aggregateType)
	return s
}

func (s *Subscription) Handle(name string, fn HandlerFunc) *Subscription {
	s.Handlers[name] = fn
	return s
}

// Run polls until ctx is done.
func (s *Subscription) Run(ctx context.Context, store *Store) error {
	delay := s.Delay
	if delay <= 0 {
		delay = 300 * time.Millisecond
	}
	slog.Info("subscription started", "key", s.Key, "routing", s.RoutingKey)

	ticker := time.NewTicker(delay)
	defer ticker.Stop()

	for {
		if _, err := s.Tick(ctx, store); err != nil && ctx.Err() == nil {
			slog.Error("subscription tick failed", "key", s.Key, "err", err)
		}
		select {
		case <-ctx.Done():
			slog.Info("subscription stopped", "key", s.Key)
			return nil
		case <-ticker.C:
		}
	}
}

// Tick processes one batch and returns how many events were acknowledged.
func (s *Subscription) Tick(ctx context.Context, store *Store) (int, error) {
	cursor, err := store.Cursor(ctx, s.Key)
	if err != nil {
		return 0, err
	}
	events, err := store.ReadAfter(ctx, cursor, s.RoutingKey, s.AggregateTypes, s.BatchSize)
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, ev := range events {
		if fn, ok := s.Handlers[ev.Name]; ok {
			if err := fn(ctx, ev); err != nil {
				return processed, fmt.Errorf("%s handling %s (seq %d): %w", s.Key, ev.Name, ev.Seq, err)
			}
		} else {
			slog.Debug("event skipped", "key", s.Key, "name", ev.Name, "seq", ev.Seq)
		}
		if err := store.Acknowledge(ctx, s.Key, ev.Seq); err != nil {
			return processed, err
		}
		processed++
	}
	return processed, nil
}
