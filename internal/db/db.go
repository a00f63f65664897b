// Package db holds the connection contract shared by the RESP drivers.
package db

import (
	"context"
	"encoding/json"
	"time"
)

// Conn sends one command and returns the JSON reply body.
// Implementations switch their connections to JSON output before use.
type Conn interface {
	Do(ctx context.Context, verb string, args []string) ([]byte, error)
	Ping(ctx context.Context) error
	Close()
}

// WaitForReady polls Ping until the connection responds or timeout expires.
func WaitForReady(ctx context.Context, c Conn, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	if err := c.Ping(ctx); err == nil {
		return nil
	}

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return &Error{Op: OpPing, Err: ctx.Err()}
		case <-ticker.C:
			if err := c.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

// ErrorReply renders a RESP error as a JSON error body so that every
// server-side failure reaches the caller in the same `ok:false` shape.
func ErrorReply(msg string) []byte {
	b, _ := json.Marshal(struct {
		OK  bool   `json:"ok"`
		Err string `json:"err"`
	}{OK: false, Err: msg})
	return b
}
