// Package goredisdb implements db.Conn on top of a go-redis connection pool.
package goredisdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/kailas-cloud/geo38/internal/db"
)

// Compile-time check: Store implements db.Conn.
var _ db.Conn = (*Store)(nil)

// Config holds connection parameters.
type Config struct {
	Addrs    []string
	Username string
	Password string
	PoolSize int
}

// doer is the subset of *redis.Client the store needs.
type doer interface {
	Do(ctx context.Context, args ...any) *redis.Cmd
	Ping(ctx context.Context) *redis.StatusCmd
	Close() error
}

// Store sends commands over a go-redis pool.
type Store struct {
	client doer
}

// NewStore creates a pooled store. Every new pooled connection is switched
// to JSON output in OnConnect, so Do needs no per-command preamble.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:            cfg.Addrs[0],
		Username:        cfg.Username,
		Password:        cfg.Password,
		PoolSize:        cfg.PoolSize,
		Protocol:        2,
		DisableIdentity: true,
		OnConnect:       switchToJSON,
	})

	return &Store{client: rdb}, nil
}

func switchToJSON(ctx context.Context, cn *redis.Conn) error {
	cmd := redis.NewCmd(ctx, "OUTPUT", "json")
	if err := cn.Process(ctx, cmd); err != nil {
		return &db.Error{Op: db.OpOutput, Err: err}
	}
	return nil
}

// Do sends verb with args and returns the JSON reply body.
func (s *Store) Do(ctx context.Context, verb string, args []string) ([]byte, error) {
	cmdArgs := make([]any, 0, len(args)+1)
	cmdArgs = append(cmdArgs, verb)
	for _, a := range args {
		cmdArgs = append(cmdArgs, a)
	}

	text, err := s.client.Do(ctx, cmdArgs...).Text()
	if err == nil {
		return []byte(text), nil
	}
	if errors.Is(err, redis.Nil) {
		return nil, &db.Error{Op: verb, Err: db.ErrEmptyReply}
	}
	var re redis.Error
	if errors.As(err, &re) {
		return db.ErrorReply(re.Error()), nil
	}
	return nil, &db.Error{Op: verb, Err: err}
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// Close closes the pool.
func (s *Store) Close() {
	_ = s.client.Close()
}
