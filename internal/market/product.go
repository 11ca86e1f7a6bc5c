// Package market holds the product catalogue: an event-sourced Product
// aggregate, the command subscription that checks new products, and the
// query projection the search page reads.
package market

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/timada/market/internal/eventstore"
	"github.com/timada/market/internal/idutil"
)

const AggregateType = "market/Product"

const (
	EventCreateRequested = "CreateRequested"
	EventCreated         = "Created"
	EventCreateFailed    = "CreateFailed"
)

var ErrNotFound = errors.New("product not found")

type ProductState string

const (
	StateChecking ProductState = "checking"
	StateFailed   ProductState = "failed"
	StateReady    ProductState = "ready"
)

func (s ProductState) Valid() bool {
	switch s {
	case StateChecking, StateFailed, StateReady:
		return true
	}
	return false
}

type CreateRequested struct {
	Name  string       `json:"name"`
	State ProductState `json:"state"`
}

type Created struct {
	State ProductState `json:"state"`
}

type CreateFailed struct {
	State        ProductState `json:"state"`
	FailedReason string       `json:"failed_reason"`
}

// Metadata travels with every event of a request.
type Metadata struct {
	RequestID string  `json:"request_id"`
	RequestBy string  `json:"request_by"`
	RequestAs *string `json:"request_as,omitempty"`
}

func NewMetadata() Metadata {
	return Metadata{RequestID: idutil.NewID()}
}

type Product struct {
	ID           string       `json:"id"`
	Name         string       `json:"name"`
	State        ProductState `json:"state"`
	FailedReason string       `json:"failed_reason,omitempty"`
	Version      int          `json:"version"`
}

// Apply folds one event into the product.
func (p *Product) Apply(ev eventstore.Event) error {
	switch ev.Name {
	case EventCreateRequested:
		var d CreateRequested
		if err := ev.Decode(&d); err != nil {
			return err
		}
		p.ID = ev.AggregateID
		p.Name = d.Name
		p.State = d.State
	case EventCreated:
		var d Created
		if err := ev.Decode(&d); err != nil {
			return err
		}
		p.State = d.State
	case EventCreateFailed:
		var d CreateFailed
		if err := ev.Decode(&d); err != nil {
			return err
		}
		p.State = d.State
		p.FailedReason = d.FailedReason
	default:
		return fmt.Errorf("unknown product event %q", ev.Name)
	}
	p.Version = ev.Version
	return nil
}

func Fold(events []eventstore.Event) (*Product, error) {
	p := &Product{}
	for _, ev := range events {
		if err := p.Apply(ev); err != nil {
			return nil, err
		}
	}
	return p, nil
}

const (
	nameMinLen = 3
	nameMaxLen = 25
)

type CreateInput struct {
	Name string `json:"name"`
}

type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Field + ": " + e.Message
}

// Validate trims the name in place and checks its length in characters.
func (in *CreateInput) Validate() error {
	in.Name = strings.TrimSpace(in.Name)
	n := utf8.RuneCountInString(in.Name)
	if n < nameMinLen || n > nameMaxLen {
		return &ValidationError{
			Field:   "name",
			Message: fmt.Sprintf("must be between %d and %d characters", nameMinLen, nameMaxLen),
		}
	}
	return nil
}
