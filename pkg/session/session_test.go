package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/matzehuels/stagegraph/pkg/layout"
	"github.com/matzehuels/stagegraph/pkg/measure"
)

func newEngine(t *testing.T) *layout.Engine {
	t.Helper()
	e, err := layout.NewEngine(layout.Options{}, measure.Fixed(15))
	if err != nil {
		t.Fatalf("NewEngine: %v", err)
	}
	return e
}

func TestNew(t *testing.T) {
	sess, err := New(newEngine(t), 0)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if sess.ID == "" {
		t.Error("ID is empty")
	}
	if sess.TTL != DefaultTTL {
		t.Errorf("TTL = %v, want %v", sess.TTL, DefaultTTL)
	}
	if sess.IsExpired() {
		t.Error("new session is expired")
	}

	other, _ := New(newEngine(t), time.Minute)
	if other.ID == sess.ID {
		t.Error("two sessions share an id")
	}

	if _, err := New(nil, time.Minute); !errors.Is(err, ErrNoEngine) {
		t.Errorf("New(nil) error = %v, want ErrNoEngine", err)
	}
}

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	sess, _ := New(newEngine(t), time.Minute)

	if err := store.Set(ctx, sess); err != nil {
		t.Fatalf("Set: %v", err)
	}
	got, err := store.Get(ctx, sess.ID)
	if err != nil || got != sess {
		t.Fatalf("Get = %v, %v, want stored session", got, err)
	}

	got, err = store.Get(ctx, "missing")
	if err != nil || got != nil {
		t.Errorf("Get(missing) = %v, %v, want nil, nil", got, err)
	}

	if err := store.Delete(ctx, sess.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := store.Delete(ctx, sess.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete error = %v, want ErrNotFound", err)
	}
	if store.Len() != 0 {
		t.Errorf("Len = %d, want 0", store.Len())
	}

	if err := store.Set(ctx, &Session{ID: "x"}); !errors.Is(err, ErrNoEngine) {
		t.Errorf("Set without engine error = %v, want ErrNoEngine", err)
	}
}

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	live, _ := New(newEngine(t), time.Minute)
	stale, _ := New(newEngine(t), time.Minute)
	stale.ExpiresAt = time.Now().Add(-time.Second)
	gone, _ := New(newEngine(t), time.Minute)
	gone.ExpiresAt = time.Now().Add(-time.Second)
	for _, s := range []*Session{live, stale, gone} {
		store.Set(ctx, s)
	}

	if got, _ := store.Get(ctx, gone.ID); got != nil {
		t.Error("Get returned an expired session")
	}
	if store.Len() != 2 {
		t.Errorf("Len after expired Get = %d, want 2", store.Len())
	}

	removed, err := store.Cleanup(ctx)
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if removed != 1 {
		t.Errorf("Cleanup removed %d, want 1", removed)
	}
	if got, _ := store.Get(ctx, live.ID); got != live {
		t.Error("live session was removed")
	}
}

func TestGetExtendsExpiry(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	sess, _ := New(newEngine(t), time.Minute)
	sess.ExpiresAt = time.Now().Add(time.Second)
	store.Set(ctx, sess)

	store.Get(ctx, sess.ID)
	if until := time.Until(sess.ExpiresAt); until < 30*time.Second {
		t.Errorf("expiry after Get is %v away, want about a minute", until)
	}
}
