package geo38

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver   string // "rueidis" or "goredis"
	addrs    []string
	username string
	password string

	transport        Transport
	readinessTimeout time.Duration

	logger     *zap.Logger
	metricsReg prometheus.Registerer
}

// WithRueidis connects through rueidis (auto-pipelined, single multiplexed connection).
func WithRueidis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = DriverRueidis
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithGoRedis connects through a go-redis connection pool.
func WithGoRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = DriverGoRedis
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithUsername sets the AUTH username for either driver.
func WithUsername(username string) Option {
	return optionFunc(func(c *clientConfig) {
		c.username = username
	})
}

// WithTransport injects a transport. Driver options are ignored. A transport
// with a Ping(ctx) error method gets the same readiness check as a dialed
// one. The transport is closed by Client.Close.
func WithTransport(t Transport) Option {
	return optionFunc(func(c *clientConfig) {
		c.transport = t
	})
}

// WithReadinessTimeout bounds the initial connectivity check in New.
// Default: 10s.
func WithReadinessTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.readinessTimeout = d
	})
}

// WithLogger enables structured logging for client operations.
// Pass nil to disable (default).
func WithLogger(l *zap.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers client metrics (operation counts and durations)
// on the given registerer. Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
