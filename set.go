package geo38

import "context"

type fieldValue struct {
	name  string
	value float64
}

// setField replaces an existing field of the same name or appends a new one.
func setField(fields []fieldValue, name string, value float64) []fieldValue {
	for i := range fields {
		if fields[i].name == name {
			fields[i].value = value
			return fields
		}
	}
	return append(fields, fieldValue{name: name, value: value})
}

// SetQuery builds SET key id [FIELD name value ...] [EX seconds] [NX|XX] <input>.
type SetQuery struct {
	client *Client
	key    string
	id     string
	fields []fieldValue
	ex     int
	mode   string // tokNX, tokXX or ""
	input  area
}

// Set starts a SET command for id in the collection key.
func (c *Client) Set(key, id string) *SetQuery {
	return &SetQuery{client: c, key: key, id: id}
}

// Key replaces the collection key.
func (q *SetQuery) Key(key string) *SetQuery {
	q.key = key
	return q
}

// ID replaces the object id.
func (q *SetQuery) ID(id string) *SetQuery {
	q.id = id
	return q
}

// Field attaches a numeric field to the object. Setting the same name twice keeps the last value.
func (q *SetQuery) Field(name string, value float64) *SetQuery {
	q.fields = setField(q.fields, name, value)
	return q
}

// Ex sets the expiry in seconds. Zero or negative means no expiry and
// clears a previously set value.
func (q *SetQuery) Ex(seconds int) *SetQuery {
	if seconds <= 0 {
		q.ex = 0
		return q
	}
	q.ex = seconds
	return q
}

// NX only sets the object if it does not exist yet. Overrides XX.
func (q *SetQuery) NX() *SetQuery {
	q.mode = tokNX
	return q
}

// XX only sets the object if it already exists. Overrides NX.
func (q *SetQuery) XX() *SetQuery {
	q.mode = tokXX
	return q
}

// Object stores a GeoJSON value. A geom.T is encoded as GeoJSON; strings,
// []byte and json.RawMessage are sent as is; anything else goes through
// encoding/json.
func (q *SetQuery) Object(v any) *SetQuery {
	q.input = newObjectArea(v)
	return q
}

// Point stores a point.
func (q *SetQuery) Point(lat, lon float64) *SetQuery {
	q.input = pointArea{lat: lat, lon: lon}
	return q
}

// PointZ stores a point with elevation.
func (q *SetQuery) PointZ(lat, lon, z float64) *SetQuery {
	q.input = pointArea{lat: lat, lon: lon, z: &z}
	return q
}

// Bounds stores a bounding box.
func (q *SetQuery) Bounds(minLat, minLon, maxLat, maxLon float64) *SetQuery {
	q.input = boundsArea{minLat: minLat, minLon: minLon, maxLat: maxLat, maxLon: maxLon}
	return q
}

// Hash stores the center of a geohash.
func (q *SetQuery) Hash(hash string) *SetQuery {
	q.input = hashArea{hash: hash}
	return q
}

// Text stores a plain string value (SET ... STRING).
func (q *SetQuery) Text(value string) *SetQuery {
	q.input = stringArea{value: value}
	return q
}

// Compile returns the SET command. Only a missing key or id is reported;
// a missing input is left for the server to reject.
func (q *SetQuery) Compile() (Command, error) {
	if q.key == "" {
		return Command{}, stateErr("SET requires a key")
	}
	if q.id == "" {
		return Command{}, stateErr("SET requires an id")
	}
	if err := areaErr(q.input); err != nil {
		return Command{}, stateErr(err.Error())
	}

	args := []any{q.key, q.id}
	for _, f := range q.fields {
		args = append(args, tokField, f.name, f.value)
	}
	if q.ex > 0 {
		args = append(args, tokEX, q.ex)
	}
	if q.mode != "" {
		args = append(args, q.mode)
	}
	if q.input != nil {
		args = append(args, q.input.args()...)
	}
	return Command{Verb: VerbSet, Args: args}, nil
}

// Exec sends the command.
func (q *SetQuery) Exec(ctx context.Context) (*JSONResponse, error) {
	r, err := q.client.exec(ctx, q)
	if err != nil {
		return nil, err
	}
	return r.decodeJSON(), nil
}
