// Package rueidisdb implements db.Conn on top of rueidis.
package rueidisdb

import (
	"context"
	"fmt"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/geo38/internal/db"
)

// Compile-time check: Store implements db.Conn.
var _ db.Conn = (*Store)(nil)

// Config holds connection parameters.
type Config struct {
	Addrs    []string
	Username string
	Password string
}

// Store sends commands over a rueidis client.
type Store struct {
	client rueidis.Client
}

// NewStore creates a rueidis-backed store. The server is not a Redis
// cluster and does not speak RESP3, so topology discovery, client-side
// caching and CLIENT SETINFO are disabled.
func NewStore(cfg Config) (*Store, error) {
	if len(cfg.Addrs) == 0 {
		return nil, fmt.Errorf("addrs is required")
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:       cfg.Addrs,
		Username:          cfg.Username,
		Password:          cfg.Password,
		DisableCache:      true,
		AlwaysRESP2:       true,
		ForceSingleClient: true,
		ClientSetInfo:     rueidis.DisableClientSetInfo,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create client: %w", err)
	}

	return &Store{client: client}, nil
}

// Do sends verb with args. OUTPUT json is pipelined ahead of the command on
// the same connection, so the reply is always a JSON body.
func (s *Store) Do(ctx context.Context, verb string, args []string) ([]byte, error) {
	results := s.client.DoMulti(ctx,
		s.b().Arbitrary("OUTPUT").Args("json").Build(),
		s.b().Arbitrary(verb).Args(args...).Build(),
	)
	if err := results[0].Error(); err != nil {
		if _, ok := rueidis.IsRedisErr(err); !ok {
			return nil, &db.Error{Op: db.OpOutput, Err: err}
		}
	}
	return replyBytes(verb, results[1])
}

// Ping checks connectivity.
func (s *Store) Ping(ctx context.Context) error {
	cmd := s.b().Ping().Build()
	if err := s.client.Do(ctx, cmd).Error(); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// Close shuts down the client.
func (s *Store) Close() {
	s.client.Close()
}

func (s *Store) b() rueidis.Builder {
	return s.client.B()
}

func replyBytes(verb string, res rueidis.RedisResult) ([]byte, error) {
	data, err := res.AsBytes()
	if err == nil {
		return data, nil
	}
	if rueidis.IsRedisNil(err) {
		return nil, &db.Error{Op: verb, Err: db.ErrEmptyReply}
	}
	if re, ok := rueidis.IsRedisErr(err); ok {
		return db.ErrorReply(re.Error()), nil
	}
	return nil, &db.Error{Op: verb, Err: err}
}
