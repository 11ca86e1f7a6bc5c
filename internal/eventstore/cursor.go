package eventstore

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
)

const DefaultPageSize = 40

var ErrInvalidCursor = errors.New("invalid cursor")

// Args selects a page: forward with First/After, backward with Last/Before.
type Args struct {
	First  int
	After  string
	Last   int
	Before string
}

func Forward(first int, after string) Args {
	return Args{First: first, After: after}
}

func Backward(last int, before string) Args {
	return Args{Last: last, Before: before}
}

func (a Args) IsBackward() bool {
	return (a.Last > 0 || a.Before != "") && a.First == 0 && a.After == ""
}

// Limit returns the page size and the cursor to resume from.
func (a Args) Limit() (int, string) {
	if a.IsBackward() {
		if a.Last <= 0 {
			return DefaultPageSize, a.Before
		}
		return a.Last, a.Before
	}
	if a.First <= 0 {
		return DefaultPageSize, a.After
	}
	return a.First, a.After
}

type Edge[N any] struct {
	Cursor string `json:"cursor"`
	Node   N      `json:"node"`
}

type PageInfo struct {
	HasPreviousPage bool   `json:"hasPreviousPage"`
	HasNextPage     bool   `json:"hasNextPage"`
	StartCursor     string `json:"startCursor,omitempty"`
	EndCursor       string `json:"endCursor,omitempty"`
}

type ReadResult[N any] struct {
	Edges    []Edge[N] `json:"edges"`
	PageInfo PageInfo  `json:"pageInfo"`
}

// Nodes returns the page items without their cursors.
func (r ReadResult[N]) Nodes() []N {
	out := make([]N, 0, len(r.Edges))
	for _, e := range r.Edges {
		out = append(out, e.Node)
	}
	return out
}

// EncodeCursor serializes v as URL-safe base64 JSON.
func EncodeCursor(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encode cursor: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

func DecodeCursor(s string, v any) error {
	b, err := base64.URLEncoding.DecodeString(s)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCursor, err)
	}
	return nil
}
