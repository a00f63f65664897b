package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/geo38"
	"github.com/kailas-cloud/geo38/internal/version"
)

// parseFloats splits a comma separated list and checks its length against want.
func parseFloats(s string, want ...int) ([]float64, error) {
	parts := strings.Split(s, ",")
	ok := false
	for _, n := range want {
		if len(parts) == n {
			ok = true
			break
		}
	}
	if !ok {
		return nil, fmt.Errorf("%q: expected %v comma separated numbers", s, want)
	}
	out := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, fmt.Errorf("%q: %w", s, err)
		}
		out[i] = v
	}
	return out, nil
}

// parseField parses name=value.
func parseField(s string) (string, float64, error) {
	name, raw, ok := strings.Cut(s, "=")
	if !ok || name == "" {
		return "", 0, fmt.Errorf("field %q: expected name=value", s)
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return "", 0, fmt.Errorf("field %q: %w", s, err)
	}
	return name, v, nil
}

func (a *app) getCmd() *cobra.Command {
	var (
		format     string
		precision  int
		withFields bool
	)
	cmd := &cobra.Command{
		Use:   "get [key] [id]",
		Short: "Fetch an object",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, c *geo38.Client) (any, error) {
				q := c.Get(args[0], args[1])
				if withFields {
					q.WithFields()
				}
				switch strings.ToLower(format) {
				case "object":
					return q.AsObject(ctx)
				case "point":
					return q.AsPoint(ctx)
				case "bounds":
					return q.AsBounds(ctx)
				case "hash":
					return q.AsHash(ctx, precision)
				default:
					return nil, fmt.Errorf("unknown format %q", format)
				}
			})
		},
	}
	cmd.Flags().StringVar(&format, "format", "object", "reply shape: object, point, bounds, hash")
	cmd.Flags().IntVar(&precision, "precision", 7, "geohash precision for --format hash")
	cmd.Flags().BoolVar(&withFields, "withfields", false, "include field values")
	return cmd
}

func (a *app) setCmd() *cobra.Command {
	var (
		point, bounds, object, hash, text string
		fields                            []string
		ex                                int
		nx, xx                            bool
	)
	cmd := &cobra.Command{
		Use:   "set [key] [id]",
		Short: "Store an object",
		Long: `Store an object. Exactly one of --point, --bounds, --object, --hash or
--string is required.`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts []func(*geo38.SetQuery)
			for _, f := range fields {
				name, v, err := parseField(f)
				if err != nil {
					return err
				}
				opts = append(opts, func(q *geo38.SetQuery) { q.Field(name, v) })
			}
			switch {
			case point != "":
				v, err := parseFloats(point, 2, 3)
				if err != nil {
					return err
				}
				if len(v) == 3 {
					opts = append(opts, func(q *geo38.SetQuery) { q.PointZ(v[0], v[1], v[2]) })
				} else {
					opts = append(opts, func(q *geo38.SetQuery) { q.Point(v[0], v[1]) })
				}
			case bounds != "":
				v, err := parseFloats(bounds, 4)
				if err != nil {
					return err
				}
				opts = append(opts, func(q *geo38.SetQuery) { q.Bounds(v[0], v[1], v[2], v[3]) })
			case object != "":
				opts = append(opts, func(q *geo38.SetQuery) { q.Object(object) })
			case hash != "":
				opts = append(opts, func(q *geo38.SetQuery) { q.Hash(hash) })
			case cmd.Flags().Changed("string"):
				opts = append(opts, func(q *geo38.SetQuery) { q.Text(text) })
			}

			return a.run(cmd, func(ctx context.Context, c *geo38.Client) (any, error) {
				q := c.Set(args[0], args[1]).Ex(ex)
				for _, opt := range opts {
					opt(q)
				}
				if nx {
					q.NX()
				}
				if xx {
					q.XX()
				}
				return q.Exec(ctx)
			})
		},
	}
	f := cmd.Flags()
	f.StringVar(&point, "point", "", "lat,lon[,z]")
	f.StringVar(&bounds, "bounds", "", "minlat,minlon,maxlat,maxlon")
	f.StringVar(&object, "object", "", "GeoJSON object")
	f.StringVar(&hash, "hash", "", "geohash")
	f.StringVar(&text, "string", "", "plain string value")
	f.StringArrayVar(&fields, "field", nil, "name=value (repeatable)")
	f.IntVar(&ex, "ex", 0, "expire after seconds")
	f.BoolVar(&nx, "nx", false, "only set if the id does not exist")
	f.BoolVar(&xx, "xx", false, "only set if the id exists")
	cmd.MarkFlagsMutuallyExclusive("point", "bounds", "object", "hash", "string")
	cmd.MarkFlagsOneRequired("point", "bounds", "object", "hash", "string")
	cmd.MarkFlagsMutuallyExclusive("nx", "xx")
	return cmd
}

func (a *app) delCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "del [key] [id]",
		Short: "Delete an object",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, c *geo38.Client) (any, error) {
				return c.Del(args[0], args[1]).Exec(ctx)
			})
		},
	}
}

func (a *app) pdelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pdel [key] [pattern]",
		Short: "Delete every object whose id matches a pattern",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, c *geo38.Client) (any, error) {
				return c.PDel(args[0], args[1]).Exec(ctx)
			})
		},
	}
}

func (a *app) dropCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "drop [key]",
		Short: "Remove a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, c *geo38.Client) (any, error) {
				return c.Drop(args[0]).Exec(ctx)
			})
		},
	}
}

func (a *app) expireCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "expire [key] [id] [seconds]",
		Short: "Set an object's expiry",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			seconds, err := strconv.Atoi(args[2])
			if err != nil {
				return fmt.Errorf("seconds must be a number: %w", err)
			}
			return a.run(cmd, func(ctx context.Context, c *geo38.Client) (any, error) {
				return c.Expire(args[0], args[1], seconds).Exec(ctx)
			})
		},
	}
}

func (a *app) persistCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "persist [key] [id]",
		Short: "Remove an object's expiry",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, c *geo38.Client) (any, error) {
				return c.Persist(args[0], args[1]).Exec(ctx)
			})
		},
	}
}

func (a *app) ttlCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ttl [key] [id]",
		Short: "Show an object's remaining time to live",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, c *geo38.Client) (any, error) {
				return c.TTL(args[0], args[1]).Exec(ctx)
			})
		},
	}
}

func (a *app) fsetCmd() *cobra.Command {
	var xx bool
	cmd := &cobra.Command{
		Use:   "fset [key] [id] [name=value]...",
		Short: "Update field values of an existing object",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			type field struct {
				name  string
				value float64
			}
			parsed := make([]field, 0, len(args)-2)
			for _, f := range args[2:] {
				name, v, err := parseField(f)
				if err != nil {
					return err
				}
				parsed = append(parsed, field{name, v})
			}
			return a.run(cmd, func(ctx context.Context, c *geo38.Client) (any, error) {
				q := c.FSet(args[0], args[1])
				if xx {
					q.XX()
				}
				for _, f := range parsed {
					q.Field(f.name, f.value)
				}
				return q.Exec(ctx)
			})
		},
	}
	cmd.Flags().BoolVar(&xx, "xx", false, "skip instead of failing when the id does not exist")
	return cmd
}

func (a *app) keysCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "keys [pattern]",
		Short: "List collection keys",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pattern := "*"
			if len(args) == 1 {
				pattern = args[0]
			}
			return a.run(cmd, func(ctx context.Context, c *geo38.Client) (any, error) {
				return c.Keys(ctx, pattern)
			})
		},
	}
}

func (a *app) boundsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "bounds [key]",
		Short: "Show the bounding polygon of a collection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.run(cmd, func(ctx context.Context, c *geo38.Client) (any, error) {
				return c.KeyBounds(ctx, args[0])
			})
		},
	}
}

func (a *app) pingCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "ping",
		Short: "Check that the server answers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.run(cmd, func(ctx context.Context, c *geo38.Client) (any, error) {
				return c.Ping(ctx)
			})
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number of geo38",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version.String())
		},
	}
}
