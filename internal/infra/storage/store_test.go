package storage

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
)

func TestNewStore_AlwaysReturnsStorage(t *testing.T) {
	if s := NewStore(RedisConfig{}); s == nil {
		t.Fatalf("expected non-nil memory store when redis addr empty")
	}

	if s := NewStore(RedisConfig{Addr: "127.0.0.1:1", DB: 0}); s == nil {
		t.Fatalf("expected non-nil store even with unreachable redis")
	}
}

func TestNewStore_RedisRoundTrip(t *testing.T) {
	mrs, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	defer mrs.Close()

	s := NewStore(RedisConfig{Addr: mrs.Addr(), DB: 2})
	defer s.Close()

	if err := s.Set("docs/abc", []byte("payload"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}
	got, err := s.Get("docs/abc")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if string(got) != "payload" {
		t.Fatalf("unexpected payload %q", got)
	}
	mrs.Select(2)
	if !mrs.Exists("docs/abc") {
		t.Fatalf("expected key in redis db 2")
	}
}
