package geo38

import (
	"context"
	"fmt"
)

// GetQuery builds GET key id [WITHFIELDS] [OBJECT | POINT | BOUNDS | HASH precision].
type GetQuery struct {
	client     *Client
	key        string
	id         string
	withFields bool
	format     GetFormat
	precision  int
}

// Get starts a GET command for id in the collection key.
func (c *Client) Get(key, id string) *GetQuery {
	return &GetQuery{client: c, key: key, id: id, format: GetObject}
}

// WithFields asks the server to return the object's fields.
func (q *GetQuery) WithFields() *GetQuery {
	q.withFields = true
	return q
}

// Output selects the reply shape. precision is only used with GetHash.
func (q *GetQuery) Output(format GetFormat, precision int) *GetQuery {
	q.format = format
	q.precision = precision
	return q
}

// Compile returns the GET command. GetObject is the server default and
// emits no token.
func (q *GetQuery) Compile() (Command, error) {
	if q.key == "" {
		return Command{}, stateErr("GET requires a key")
	}
	if q.id == "" {
		return Command{}, stateErr("GET requires an id")
	}

	args := []any{q.key, q.id}
	if q.withFields {
		args = append(args, tokWithFields)
	}
	switch q.format {
	case GetObject, "":
	case GetHash:
		args = append(args, string(GetHash), q.precision)
	case GetPoint, GetBounds:
		args = append(args, string(q.format))
	default:
		return Command{}, stateErr(fmt.Sprintf("unknown GET format %q", q.format))
	}
	return Command{Verb: VerbGet, Args: args}, nil
}

// AsObject fetches the object.
func (q *GetQuery) AsObject(ctx context.Context) (*GetObjectResponse, error) {
	r, err := q.client.exec(ctx, q.Output(GetObject, 0))
	if err != nil {
		return nil, err
	}
	return r.decodeGetObject()
}

// AsPoint fetches the object's center point.
func (q *GetQuery) AsPoint(ctx context.Context) (*GetPointResponse, error) {
	r, err := q.client.exec(ctx, q.Output(GetPoint, 0))
	if err != nil {
		return nil, err
	}
	return r.decodeGetPoint()
}

// AsBounds fetches the object's bounding box.
func (q *GetQuery) AsBounds(ctx context.Context) (*GetBoundsResponse, error) {
	r, err := q.client.exec(ctx, q.Output(GetBounds, 0))
	if err != nil {
		return nil, err
	}
	return r.decodeGetBounds()
}

// AsHash fetches the geohash of the object's center at precision.
func (q *GetQuery) AsHash(ctx context.Context, precision int) (*GetHashResponse, error) {
	r, err := q.client.exec(ctx, q.Output(GetHash, precision))
	if err != nil {
		return nil, err
	}
	return r.decodeGetHash(precision)
}
