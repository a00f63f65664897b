package geo38

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kailas-cloud/geo38/internal/db"
	"github.com/kailas-cloud/geo38/internal/db/goredisdb"
	"github.com/kailas-cloud/geo38/internal/db/rueidisdb"
)

// Driver names accepted by NewTransport.
const (
	DriverRueidis = "rueidis"
	DriverGoRedis = "goredis"
)

const defaultReadinessTimeout = 10 * time.Second

// Transport sends one command and returns the JSON reply body. It owns
// pooling, retries and cancellation; the client never retries.
type Transport interface {
	Do(ctx context.Context, verb string, args []string) ([]byte, error)
	Close()
}

// Client is the geo38 entry point. It is safe for concurrent use when its
// transport is; both built-in drivers are.
type Client struct {
	transport Transport
	obs       *observer
}

// New creates a Client. With a driver option it dials the server. Either a
// dialed or an injected transport that can PING is polled until the server
// answers or the readiness timeout expires; on failure the transport is closed.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{readinessTimeout: defaultReadinessTimeout}
	for _, o := range opts {
		o.apply(cfg)
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	conn := cfg.transport
	if conn == nil {
		if len(cfg.addrs) == 0 {
			return nil, errors.New("geo38: server address required (use WithRueidis, WithGoRedis or WithTransport)")
		}
		conn, err = NewTransport(cfg.driver, cfg.addrs, cfg.username, cfg.password)
		if err != nil {
			return nil, err
		}
	}

	if dc, ok := conn.(db.Conn); ok {
		if err := db.WaitForReady(ctx, dc, cfg.readinessTimeout); err != nil {
			conn.Close()
			return nil, fmt.Errorf("geo38: server not ready: %w", err)
		}
	}

	return &Client{transport: conn, obs: obs}, nil
}

// NewTransport dials a built-in driver.
func NewTransport(driver string, addrs []string, username, password string) (Transport, error) {
	switch driver {
	case DriverRueidis, "":
		s, err := rueidisdb.NewStore(rueidisdb.Config{
			Addrs:    addrs,
			Username: username,
			Password: password,
		})
		if err != nil {
			return nil, fmt.Errorf("geo38: create rueidis transport: %w", err)
		}
		return s, nil
	case DriverGoRedis:
		s, err := goredisdb.NewStore(goredisdb.Config{
			Addrs:    addrs,
			Username: username,
			Password: password,
		})
		if err != nil {
			return nil, fmt.Errorf("geo38: create go-redis transport: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("geo38: unknown driver %q", driver)
	}
}

// Close releases the transport.
func (c *Client) Close() {
	if c.transport != nil {
		c.transport.Close()
	}
}

// exec compiles q, sends it once and returns the reply after the error
// classifier has run. Nothing here is retried.
func (c *Client) exec(ctx context.Context, q Compiler) (*reply, error) {
	cmd, err := q.Compile()
	if err != nil {
		return nil, err
	}
	r, _, err := c.dispatch(ctx, cmd)
	return r, err
}

// Raw dispatches a compiled command and returns the reply body verbatim
// once it has passed the error classifier. Use it for commands the
// builders do not cover.
func (c *Client) Raw(ctx context.Context, cmd Command) ([]byte, error) {
	_, raw, err := c.dispatch(ctx, cmd)
	return raw, err
}

func (c *Client) dispatch(ctx context.Context, cmd Command) (*reply, []byte, error) {
	start := time.Now()
	r, raw, err := c.send(ctx, cmd)
	c.obs.observe(cmd.Verb, start, err)
	return r, raw, err
}

func (c *Client) send(ctx context.Context, cmd Command) (*reply, []byte, error) {
	raw, err := c.transport.Do(ctx, string(cmd.Verb), cmd.Strings())
	if err != nil {
		return nil, nil, &TransportError{Op: string(cmd.Verb), Err: err}
	}
	r, err := parseReply(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", cmd.Verb, err)
	}
	return r, raw, nil
}
