package idutil

import (
	"testing"
	"time"
)

func TestNewIDOrdered(t *testing.T) {
	prev := NewID()
	for i := 0; i < 50; i++ {
		time.Sleep(time.Millisecond)
		next := NewID()
		if next <= prev {
			t.Fatalf("ids not ordered: %s <= %s", next, prev)
		}
		prev = next
	}
}

func TestIsValidID(t *testing.T) {
	if !IsValidID(NewID()) {
		t.Error("generated id should be valid")
	}
	if IsValidID("not-an-id") {
		t.Error("garbage should be invalid")
	}
}

func TestTime(t *testing.T) {
	before := time.Now().Add(-time.Second)
	ts, err := Time(NewID())
	if err != nil {
		t.Fatal(err)
	}
	if ts.Before(before) || ts.After(time.Now().Add(time.Second)) {
		t.Errorf("embedded time %v out of range", ts)
	}

	if _, err := Time("6ba7b810-9dad-41d1-80b4-00c04fd430c8"); err == nil {
		t.Error("v4 id should be rejected")
	}
}
