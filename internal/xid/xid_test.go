package xid

import (
	"strings"
	"testing"

	"github.com/google/uuid"
)

func TestNewCarriesPrefixAndUUID(t *testing.T) {
	id := New("ord")
	if !strings.HasPrefix(id, "ord-") {
		t.Fatalf("expected ord- prefix, got %q", id)
	}
	if _, err := uuid.Parse(strings.TrimPrefix(id, "ord-")); err != nil {
		t.Fatalf("expected uuid suffix, got %q: %v", id, err)
	}
	if New("ord") == id {
		t.Fatalf("expected unique ids")
	}
}
