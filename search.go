package geo38

import (
	"context"
	"fmt"
	"strings"
)

type whereClause struct {
	field    string
	min, max float64
}

// SearchQuery builds the search family: WITHIN, INTERSECTS, NEARBY and SCAN.
//
//	VERB key [MATCH p] [WHERE f min max ...] [NOFIELDS] [CLIP] [CURSOR n] [LIMIT n]
//	     [FENCE [DETECT list] [COMMANDS list]] [DISTANCE] [output] <area>
//
// The clause order is the one the server's parser expects and is fixed.
type SearchQuery struct {
	client *Client
	verb   Verb
	key    string

	match    *string
	wheres   []whereClause
	noFields bool
	clip     bool
	cursor   *int
	limit    *int
	fence    bool
	detect   []string
	commands []string
	distance bool

	output    OutputFormat
	precision int

	area area
}

func (c *Client) search(verb Verb, key string) *SearchQuery {
	return &SearchQuery{client: c, verb: verb, key: key, output: OutputObjects}
}

// Within searches for objects fully contained by an area.
func (c *Client) Within(key string) *SearchQuery { return c.search(VerbWithin, key) }

// Intersects searches for objects intersecting an area.
func (c *Client) Intersects(key string) *SearchQuery { return c.search(VerbIntersects, key) }

// Nearby searches for objects nearest to a point, ordered by distance.
func (c *Client) Nearby(key string) *SearchQuery { return c.search(VerbNearby, key) }

// Scan iterates a collection by id. It takes no area.
func (c *Client) Scan(key string) *SearchQuery { return c.search(VerbScan, key) }

// Match filters ids by a glob pattern.
func (q *SearchQuery) Match(pattern string) *SearchQuery {
	q.match = &pattern
	return q
}

// Where filters on a numeric field range. One clause per field; a repeated
// field replaces its earlier range.
func (q *SearchQuery) Where(field string, minValue, maxValue float64) *SearchQuery {
	for i := range q.wheres {
		if q.wheres[i].field == field {
			q.wheres[i].min, q.wheres[i].max = minValue, maxValue
			return q
		}
	}
	q.wheres = append(q.wheres, whereClause{field: field, min: minValue, max: maxValue})
	return q
}

// NoFields omits field values from the results.
func (q *SearchQuery) NoFields() *SearchQuery {
	q.noFields = true
	return q
}

// Clip clips returned geometries to the search area. Only INTERSECTS
// accepts it; on other verbs it is not recorded.
func (q *SearchQuery) Clip() *SearchQuery {
	if q.verb == VerbIntersects {
		q.clip = true
	}
	return q
}

// Cursor starts iteration at position n. Zero is emitted.
func (q *SearchQuery) Cursor(n int) *SearchQuery {
	q.cursor = &n
	return q
}

// Limit caps the number of results.
func (q *SearchQuery) Limit(n int) *SearchQuery {
	q.limit = &n
	return q
}

// Fence turns the query into a geofence.
func (q *SearchQuery) Fence() *SearchQuery {
	q.fence = true
	return q
}

// Detect restricts geofence notifications to the given events (enter, exit, ...).
func (q *SearchQuery) Detect(events ...string) *SearchQuery {
	q.detect = events
	return q
}

// Commands restricts geofence notifications to the given commands (set, del, ...).
func (q *SearchQuery) Commands(commands ...string) *SearchQuery {
	q.commands = commands
	return q
}

// Distance includes the distance from the search point in NEARBY results.
func (q *SearchQuery) Distance() *SearchQuery {
	q.distance = true
	return q
}

// Output selects the result format. precision is only used with OutputHashes.
func (q *SearchQuery) Output(format OutputFormat, precision int) *SearchQuery {
	q.output = format
	q.precision = precision
	return q
}

// Point searches around a point. NEARBY uses it as its center.
func (q *SearchQuery) Point(lat, lon float64) *SearchQuery {
	q.area = pointArea{lat: lat, lon: lon}
	return q
}

// PointRadius limits a NEARBY search to meters around the point.
func (q *SearchQuery) PointRadius(lat, lon, meters float64) *SearchQuery {
	q.area = pointArea{lat: lat, lon: lon, radius: &meters}
	return q
}

// Circle searches a circle of radius meters.
func (q *SearchQuery) Circle(lat, lon, radius float64) *SearchQuery {
	q.area = circleArea{lat: lat, lon: lon, radius: radius}
	return q
}

// Bounds searches a bounding box.
func (q *SearchQuery) Bounds(minLat, minLon, maxLat, maxLon float64) *SearchQuery {
	q.area = boundsArea{minLat: minLat, minLon: minLon, maxLat: maxLat, maxLon: maxLon}
	return q
}

// Object searches a GeoJSON area. v is marshalled like SetQuery.Object.
func (q *SearchQuery) Object(v any) *SearchQuery {
	q.area = newObjectArea(v)
	return q
}

// Hash searches a geohash cell.
func (q *SearchQuery) Hash(hash string) *SearchQuery {
	q.area = hashArea{hash: hash}
	return q
}

// Quadkey searches a quadkey tile.
func (q *SearchQuery) Quadkey(quadkey string) *SearchQuery {
	q.area = quadkeyArea{quadkey: quadkey}
	return q
}

// Tile searches an XYZ tile.
func (q *SearchQuery) Tile(x, y, z int) *SearchQuery {
	q.area = tileArea{x: x, y: y, z: z}
	return q
}

// Get searches the area of an object already stored on the server.
func (q *SearchQuery) Get(key, id string) *SearchQuery {
	q.area = getArea{key: key, id: id}
	return q
}

// Compile returns the command. A missing area is not reported; the server
// rejects it.
func (q *SearchQuery) Compile() (Command, error) {
	if q.key == "" {
		return Command{}, stateErr(string(q.verb) + " requires a key")
	}
	if err := areaErr(q.area); err != nil {
		return Command{}, stateErr(err.Error())
	}
	if _, ok := q.area.(pointArea); q.verb == VerbNearby && q.area != nil && !ok {
		return Command{}, stateErr("NEARBY only accepts a POINT area")
	}

	args := []any{q.key}
	if q.match != nil {
		args = append(args, tokMatch, *q.match)
	}
	for _, w := range q.wheres {
		args = append(args, tokWhere, w.field, w.min, w.max)
	}
	if q.noFields {
		args = append(args, tokNoFields)
	}
	if q.clip {
		args = append(args, tokClip)
	}
	if q.cursor != nil {
		args = append(args, tokCursor, *q.cursor)
	}
	if q.limit != nil {
		args = append(args, tokLimit, *q.limit)
	}
	if q.fence {
		args = append(args, tokFence)
	}
	if len(q.detect) > 0 {
		args = append(args, tokDetect, strings.Join(q.detect, ","))
	}
	if len(q.commands) > 0 {
		args = append(args, tokCommands, strings.Join(q.commands, ","))
	}
	if q.distance {
		args = append(args, tokDistance)
	}

	switch q.output {
	case OutputObjects, "":
	case OutputHashes:
		args = append(args, string(OutputHashes), q.precision)
	case OutputIDs, OutputPoints, OutputBounds, OutputCount:
		args = append(args, string(q.output))
	default:
		return Command{}, stateErr(fmt.Sprintf("unknown output format %q", q.output))
	}

	if q.area != nil && q.verb != VerbScan {
		args = append(args, q.area.args()...)
	}
	return Command{Verb: q.verb, Args: args}, nil
}

// Exec runs the query with the configured output format.
func (q *SearchQuery) Exec(ctx context.Context) (Response, error) {
	r, err := q.client.exec(ctx, q)
	if err != nil {
		return nil, err
	}
	return r.decodeSearch(q.output, q.precision)
}

// AsObjects runs the query returning full objects.
func (q *SearchQuery) AsObjects(ctx context.Context) (*ObjectsResponse, error) {
	res, err := q.Output(OutputObjects, 0).Exec(ctx)
	if err != nil {
		return nil, err
	}
	return res.(*ObjectsResponse), nil
}

// AsIDs runs the query returning ids only.
func (q *SearchQuery) AsIDs(ctx context.Context) (*IDsResponse, error) {
	res, err := q.Output(OutputIDs, 0).Exec(ctx)
	if err != nil {
		return nil, err
	}
	return res.(*IDsResponse), nil
}

// AsPoints runs the query returning center points.
func (q *SearchQuery) AsPoints(ctx context.Context) (*PointsResponse, error) {
	res, err := q.Output(OutputPoints, 0).Exec(ctx)
	if err != nil {
		return nil, err
	}
	return res.(*PointsResponse), nil
}

// AsBounds runs the query returning bounding boxes.
func (q *SearchQuery) AsBounds(ctx context.Context) (*BoundsResponse, error) {
	res, err := q.Output(OutputBounds, 0).Exec(ctx)
	if err != nil {
		return nil, err
	}
	return res.(*BoundsResponse), nil
}

// AsHashes runs the query returning geohashes at precision.
func (q *SearchQuery) AsHashes(ctx context.Context, precision int) (*HashesResponse, error) {
	res, err := q.Output(OutputHashes, precision).Exec(ctx)
	if err != nil {
		return nil, err
	}
	return res.(*HashesResponse), nil
}

// AsCount runs the query returning only the number of matches.
func (q *SearchQuery) AsCount(ctx context.Context) (*CountResponse, error) {
	res, err := q.Output(OutputCount, 0).Exec(ctx)
	if err != nil {
		return nil, err
	}
	return res.(*CountResponse), nil
}
