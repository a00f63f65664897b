package db

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type stubConn struct {
	failures atomic.Int32
}

func (s *stubConn) Do(context.Context, string, []string) ([]byte, error) { return nil, nil }
func (s *stubConn) Close()                                               {}

func (s *stubConn) Ping(context.Context) error {
	if s.failures.Add(-1) >= 0 {
		return errors.New("not ready")
	}
	return nil
}

func TestWaitForReady_EventuallyReady(t *testing.T) {
	c := &stubConn{}
	c.failures.Store(2)

	if err := WaitForReady(context.Background(), c, 2*time.Second); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWaitForReady_Timeout(t *testing.T) {
	c := &stubConn{}
	c.failures.Store(1 << 20)

	err := WaitForReady(context.Background(), c, 150*time.Millisecond)
	var dbErr *Error
	if !errors.As(err, &dbErr) || dbErr.Op != OpPing {
		t.Fatalf("err = %v, want Error{Op: PING}", err)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("cause = %v, want DeadlineExceeded", err)
	}
}

func TestErrorReply(t *testing.T) {
	got := string(ErrorReply(`bad "quote"`))
	if got != `{"ok":false,"err":"bad \"quote\""}` {
		t.Errorf("ErrorReply = %s", got)
	}
}
