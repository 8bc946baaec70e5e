package booking

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestKeyedLockerSerializesSameKey(t *testing.T) {
	t.Parallel()

	l := newKeyedLocker()
	unlock, err := l.Lock(context.Background(), "SUB1")
	if err != nil {
		t.Fatalf("Lock() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := l.Lock(ctx, "SUB1"); !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline exceeded, got %v", err)
	}

	other, err := l.Lock(context.Background(), "SUB2")
	if err != nil {
		t.Fatalf("Lock(other key) error = %v", err)
	}
	other()

	unlock()
	unlock()

	again, err := l.Lock(context.Background(), "SUB1")
	if err != nil {
		t.Fatalf("Lock() after release error = %v", err)
	}
	again()

	if n := l.size(); n != 0 {
		t.Fatalf("expected no retained locks, got %d", n)
	}
}
