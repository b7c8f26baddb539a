package idgen

import (
	"testing"

	"github.com/oklog/ulid/v2"
)

func TestULIDGeneratorProducesSortableIDs(t *testing.T) {
	gen := NewULIDGenerator()

	prev := gen.Generate()
	if _, err := ulid.Parse(prev); err != nil {
		t.Fatalf("expected valid ulid, got %q: %v", prev, err)
	}

	for i := 0; i < 1000; i++ {
		next := gen.Generate()
		if next <= prev {
			t.Fatalf("expected %q to sort after %q", next, prev)
		}
		prev = next
	}
}
