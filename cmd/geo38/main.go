// Command geo38 talks to a Tile38 server from the shell and can run the
// HTTP gateway.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/geo38"
	logpkg "github.com/kailas-cloud/geo38/internal/logger"
)

func main() {
	if err := newRootCmd(geo38.New).Execute(); err != nil {
		os.Exit(1)
	}
}

type clientFactory func(ctx context.Context, opts ...geo38.Option) (*geo38.Client, error)

// app carries the flags shared by every client command.
type app struct {
	addr     string
	username string
	password string
	driver   string
	logLevel string
	timeout  time.Duration

	newClient clientFactory
	logger    *zap.Logger
}

func newRootCmd(newClient clientFactory) *cobra.Command {
	a := &app{newClient: newClient}

	root := &cobra.Command{
		Use:           "geo38",
		Short:         "Typed client for the Tile38 geospatial database",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			_ = godotenv.Load(".env")
			_ = godotenv.Load(".env.local")
			a.applyEnv(cmd)

			l, err := logpkg.NewLogger("cli", a.logLevel)
			if err != nil {
				return err
			}
			a.logger = l
			return nil
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.addr, "addr", "localhost:9851", "server address (env TILE38_ADDR)")
	flags.StringVar(&a.username, "username", "", "AUTH username (env TILE38_USERNAME)")
	flags.StringVar(&a.password, "password", "", "AUTH password (env TILE38_PASSWORD)")
	flags.StringVar(&a.driver, "driver", geo38.DriverRueidis, "transport driver: rueidis or goredis (env GEO38_DRIVER)")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.DurationVar(&a.timeout, "timeout", 5*time.Second, "per-command timeout")

	root.AddCommand(
		a.getCmd(),
		a.setCmd(),
		a.delCmd(),
		a.pdelCmd(),
		a.dropCmd(),
		a.expireCmd(),
		a.persistCmd(),
		a.ttlCmd(),
		a.fsetCmd(),
		a.keysCmd(),
		a.boundsCmd(),
		a.searchCmd(geo38.VerbWithin),
		a.searchCmd(geo38.VerbIntersects),
		a.searchCmd(geo38.VerbNearby),
		a.searchCmd(geo38.VerbScan),
		a.pingCmd(),
		serveCmd(),
		versionCmd(),
	)
	return root
}

// applyEnv fills flags the user did not set from the environment.
func (a *app) applyEnv(cmd *cobra.Command) {
	fromEnv := func(flag, env string, dst *string) {
		if cmd.Flags().Changed(flag) {
			return
		}
		if v := os.Getenv(env); v != "" {
			*dst = v
		}
	}
	fromEnv("addr", "TILE38_ADDR", &a.addr)
	fromEnv("username", "TILE38_USERNAME", &a.username)
	fromEnv("password", "TILE38_PASSWORD", &a.password)
	fromEnv("driver", "GEO38_DRIVER", &a.driver)
}

// run opens a client, applies the command timeout and prints fn's result as JSON.
func (a *app) run(cmd *cobra.Command, fn func(ctx context.Context, c *geo38.Client) (any, error)) error {
	ctx, cancel := context.WithTimeout(cmd.Context(), a.timeout)
	defer cancel()

	opts := []geo38.Option{
		geo38.WithUsername(a.username),
		geo38.WithReadinessTimeout(a.timeout),
		geo38.WithLogger(a.logger),
	}
	switch a.driver {
	case geo38.DriverGoRedis:
		opts = append(opts, geo38.WithGoRedis(a.addr, a.password))
	case geo38.DriverRueidis, "":
		opts = append(opts, geo38.WithRueidis(a.addr, a.password))
	default:
		return fmt.Errorf("unknown driver %q", a.driver)
	}

	c, err := a.newClient(ctx, opts...)
	if err != nil {
		return err
	}
	defer c.Close()

	res, err := fn(ctx, c)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), res)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	return nil
}
