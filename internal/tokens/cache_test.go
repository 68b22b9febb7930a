package tokens

import (
	"errors"
	"testing"
)

func TestCache_ValidateBeforeAndAfterLoad(t *testing.T) {
	c := NewCache()
	if c.Ready() {
		t.Fatalf("new cache must not be ready")
	}
	if err := c.Validate("a"); !errors.Is(err, ErrTokenStoreNotReady) {
		t.Fatalf("expected ErrTokenStoreNotReady, got %v", err)
	}

	src := map[string]Entry{"a": {RateLimit: 5}, "b": {RateLimit: 10}}
	c.Replace(src)
	src["c"] = Entry{RateLimit: 1}

	if err := c.Validate("a"); err != nil {
		t.Fatalf("expected a to be valid: %v", err)
	}
	if err := c.Validate("c"); !errors.Is(err, ErrInvalidAPIKey) {
		t.Fatalf("replace must copy its input, got %v", err)
	}
	if got := c.RateLimit("b"); got != 10 {
		t.Fatalf("expected 10, got %d", got)
	}
	if got := c.RateLimit("unknown"); got != 0 {
		t.Fatalf("unknown tokens are unlimited, got %d", got)
	}
}

func TestCache_EmptyLoadIsReady(t *testing.T) {
	c := NewCache()
	c.Replace(nil)
	if !c.Ready() {
		t.Fatalf("an empty token table still counts as loaded")
	}
}
