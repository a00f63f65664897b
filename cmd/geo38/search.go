package main

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kailas-cloud/geo38"
)

// searchFlags holds the options shared by WITHIN, INTERSECTS, NEARBY and SCAN.
type searchFlags struct {
	match     string
	wheres    []string
	limit     int
	cursor    int
	output    string
	precision int
	noFields  bool
	clip      bool
	distance  bool

	point   string
	circle  string
	bounds  string
	object  string
	hash    string
	quadkey string
	tile    string
	get     string
}

var areaFlags = []string{"point", "circle", "bounds", "object", "hash", "quadkey", "tile", "get"}

func (a *app) searchCmd(verb geo38.Verb) *cobra.Command {
	var sf searchFlags
	name := strings.ToLower(string(verb))

	cmd := &cobra.Command{
		Use:   name + " [key]",
		Short: searchShort(verb),
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			apply, err := sf.build(cmd, verb)
			if err != nil {
				return err
			}
			return a.run(cmd, func(ctx context.Context, c *geo38.Client) (any, error) {
				q := c.Scan(args[0])
				switch verb {
				case geo38.VerbWithin:
					q = c.Within(args[0])
				case geo38.VerbIntersects:
					q = c.Intersects(args[0])
				case geo38.VerbNearby:
					q = c.Nearby(args[0])
				}
				apply(q)
				return q.Exec(ctx)
			})
		},
	}

	f := cmd.Flags()
	f.StringVar(&sf.match, "match", "", "id glob pattern")
	f.StringArrayVar(&sf.wheres, "where", nil, "field:min:max (repeatable)")
	f.IntVar(&sf.limit, "limit", 0, "maximum number of results")
	f.IntVar(&sf.cursor, "cursor", 0, "start position for paging")
	f.StringVar(&sf.output, "output", "objects", "objects, ids, points, hashes, bounds or count")
	f.IntVar(&sf.precision, "precision", 7, "geohash precision for --output hashes")
	f.BoolVar(&sf.noFields, "nofields", false, "omit field values")

	if verb == geo38.VerbScan {
		return cmd
	}

	f.StringVar(&sf.point, "point", "", "lat,lon[,meters]")
	if verb == geo38.VerbNearby {
		f.BoolVar(&sf.distance, "distance", false, "include the distance from the point")
		return cmd
	}
	if verb == geo38.VerbIntersects {
		f.BoolVar(&sf.clip, "clip", false, "clip objects to the area")
	}
	f.StringVar(&sf.circle, "circle", "", "lat,lon,meters")
	f.StringVar(&sf.bounds, "bounds", "", "minlat,minlon,maxlat,maxlon")
	f.StringVar(&sf.object, "object", "", "GeoJSON object")
	f.StringVar(&sf.hash, "hash", "", "geohash")
	f.StringVar(&sf.quadkey, "quadkey", "", "quadkey")
	f.StringVar(&sf.tile, "tile", "", "x,y,z")
	f.StringVar(&sf.get, "get", "", "key:id of a stored object")
	cmd.MarkFlagsMutuallyExclusive(areaFlags...)
	cmd.MarkFlagsOneRequired(areaFlags...)
	return cmd
}

func searchShort(verb geo38.Verb) string {
	switch verb {
	case geo38.VerbWithin:
		return "Find objects fully inside an area"
	case geo38.VerbIntersects:
		return "Find objects that intersect an area"
	case geo38.VerbNearby:
		return "Find objects near a point, closest first"
	default:
		return "Iterate over the objects of a collection"
	}
}

// build validates the flags and returns the function that applies them to a query.
func (sf *searchFlags) build(cmd *cobra.Command, verb geo38.Verb) (func(*geo38.SearchQuery), error) {
	var steps []func(*geo38.SearchQuery)
	add := func(fn func(*geo38.SearchQuery)) { steps = append(steps, fn) }
	changed := cmd.Flags().Changed

	if sf.match != "" {
		add(func(q *geo38.SearchQuery) { q.Match(sf.match) })
	}
	for _, w := range sf.wheres {
		field, lo, hi, err := parseWhere(w)
		if err != nil {
			return nil, err
		}
		add(func(q *geo38.SearchQuery) { q.Where(field, lo, hi) })
	}
	if sf.noFields {
		add(func(q *geo38.SearchQuery) { q.NoFields() })
	}
	if sf.clip {
		add(func(q *geo38.SearchQuery) { q.Clip() })
	}
	if changed("cursor") {
		add(func(q *geo38.SearchQuery) { q.Cursor(sf.cursor) })
	}
	if changed("limit") {
		add(func(q *geo38.SearchQuery) { q.Limit(sf.limit) })
	}
	if sf.distance {
		add(func(q *geo38.SearchQuery) { q.Distance() })
	}

	format, err := parseOutput(sf.output)
	if err != nil {
		return nil, err
	}
	add(func(q *geo38.SearchQuery) { q.Output(format, sf.precision) })

	if verb != geo38.VerbScan {
		step, err := sf.area(verb)
		if err != nil {
			return nil, err
		}
		add(step)
	}

	return func(q *geo38.SearchQuery) {
		for _, s := range steps {
			s(q)
		}
	}, nil
}

func (sf *searchFlags) area(verb geo38.Verb) (func(*geo38.SearchQuery), error) {
	switch {
	case sf.point != "":
		v, err := parseFloats(sf.point, 2, 3)
		if err != nil {
			return nil, err
		}
		if len(v) == 3 {
			return func(q *geo38.SearchQuery) { q.PointRadius(v[0], v[1], v[2]) }, nil
		}
		return func(q *geo38.SearchQuery) { q.Point(v[0], v[1]) }, nil
	case sf.circle != "":
		v, err := parseFloats(sf.circle, 3)
		if err != nil {
			return nil, err
		}
		return func(q *geo38.SearchQuery) { q.Circle(v[0], v[1], v[2]) }, nil
	case sf.bounds != "":
		v, err := parseFloats(sf.bounds, 4)
		if err != nil {
			return nil, err
		}
		return func(q *geo38.SearchQuery) { q.Bounds(v[0], v[1], v[2], v[3]) }, nil
	case sf.object != "":
		return func(q *geo38.SearchQuery) { q.Object(sf.object) }, nil
	case sf.hash != "":
		return func(q *geo38.SearchQuery) { q.Hash(sf.hash) }, nil
	case sf.quadkey != "":
		return func(q *geo38.SearchQuery) { q.Quadkey(sf.quadkey) }, nil
	case sf.tile != "":
		parts := strings.Split(sf.tile, ",")
		if len(parts) != 3 {
			return nil, fmt.Errorf("tile %q: expected x,y,z", sf.tile)
		}
		xyz := make([]int, 3)
		for i, p := range parts {
			n, err := strconv.Atoi(strings.TrimSpace(p))
			if err != nil {
				return nil, fmt.Errorf("tile %q: %w", sf.tile, err)
			}
			xyz[i] = n
		}
		return func(q *geo38.SearchQuery) { q.Tile(xyz[0], xyz[1], xyz[2]) }, nil
	case sf.get != "":
		key, id, ok := strings.Cut(sf.get, ":")
		if !ok || key == "" || id == "" {
			return nil, fmt.Errorf("get %q: expected key:id", sf.get)
		}
		return func(q *geo38.SearchQuery) { q.Get(key, id) }, nil
	}
	if verb == geo38.VerbNearby {
		return nil, errors.New("nearby requires --point")
	}
	return nil, fmt.Errorf("%s requires one of --%s", strings.ToLower(string(verb)), strings.Join(areaFlags, ", --"))
}

// parseWhere parses field:min:max. Bounds accept -inf and +inf.
func parseWhere(s string) (string, float64, float64, error) {
	parts := strings.Split(s, ":")
	if len(parts) != 3 || parts[0] == "" {
		return "", 0, 0, fmt.Errorf("where %q: expected field:min:max", s)
	}
	lo, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return "", 0, 0, fmt.Errorf("where %q: %w", s, err)
	}
	hi, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return "", 0, 0, fmt.Errorf("where %q: %w", s, err)
	}
	return parts[0], lo, hi, nil
}

func parseOutput(s string) (geo38.OutputFormat, error) {
	switch f := geo38.OutputFormat(strings.ToUpper(s)); f {
	case geo38.OutputObjects, geo38.OutputIDs, geo38.OutputPoints,
		geo38.OutputHashes, geo38.OutputBounds, geo38.OutputCount:
		return f, nil
	}
	return "", fmt.Errorf("unknown output %q", s)
}
