package geo38

import "context"

// DelQuery builds DEL key id.
type DelQuery struct {
	client  *Client
	key, id string
}

// Del starts a DEL command removing id from key.
func (c *Client) Del(key, id string) *DelQuery {
	return &DelQuery{client: c, key: key, id: id}
}

// Compile returns the DEL command.
func (q *DelQuery) Compile() (Command, error) {
	if q.key == "" {
		return Command{}, stateErr("DEL requires a key")
	}
	if q.id == "" {
		return Command{}, stateErr("DEL requires an id")
	}
	return Command{Verb: VerbDel, Args: []any{q.key, q.id}}, nil
}

// Exec sends the command.
func (q *DelQuery) Exec(ctx context.Context) (*JSONResponse, error) {
	return execJSON(ctx, q.client, q)
}

// PDelQuery builds PDEL key pattern.
type PDelQuery struct {
	client       *Client
	key, pattern string
}

// PDel starts a PDEL command removing every id in key matching pattern.
func (c *Client) PDel(key, pattern string) *PDelQuery {
	return &PDelQuery{client: c, key: key, pattern: pattern}
}

// Compile returns the PDEL command.
func (q *PDelQuery) Compile() (Command, error) {
	if q.key == "" {
		return Command{}, stateErr("PDEL requires a key")
	}
	if q.pattern == "" {
		return Command{}, stateErr("PDEL requires a pattern")
	}
	return Command{Verb: VerbPDel, Args: []any{q.key, q.pattern}}, nil
}

// Exec sends the command.
func (q *PDelQuery) Exec(ctx context.Context) (*JSONResponse, error) {
	return execJSON(ctx, q.client, q)
}

// DropQuery builds DROP key.
type DropQuery struct {
	client *Client
	key    string
}

// Drop starts a DROP command removing the whole collection.
func (c *Client) Drop(key string) *DropQuery {
	return &DropQuery{client: c, key: key}
}

// Compile returns the DROP command.
func (q *DropQuery) Compile() (Command, error) {
	if q.key == "" {
		return Command{}, stateErr("DROP requires a key")
	}
	return Command{Verb: VerbDrop, Args: []any{q.key}}, nil
}

// Exec sends the command.
func (q *DropQuery) Exec(ctx context.Context) (*JSONResponse, error) {
	return execJSON(ctx, q.client, q)
}

// ExpireQuery builds EXPIRE key id seconds.
type ExpireQuery struct {
	client  *Client
	key, id string
	seconds int
}

// Expire starts an EXPIRE command.
func (c *Client) Expire(key, id string, seconds int) *ExpireQuery {
	return &ExpireQuery{client: c, key: key, id: id, seconds: seconds}
}

// Compile returns the EXPIRE command.
func (q *ExpireQuery) Compile() (Command, error) {
	if q.key == "" {
		return Command{}, stateErr("EXPIRE requires a key")
	}
	if q.id == "" {
		return Command{}, stateErr("EXPIRE requires an id")
	}
	return Command{Verb: VerbExpire, Args: []any{q.key, q.id, q.seconds}}, nil
}

// Exec sends the command.
func (q *ExpireQuery) Exec(ctx context.Context) (*JSONResponse, error) {
	return execJSON(ctx, q.client, q)
}

// PersistQuery builds PERSIST key id.
type PersistQuery struct {
	client  *Client
	key, id string
}

// Persist starts a PERSIST command removing an object's expiry.
func (c *Client) Persist(key, id string) *PersistQuery {
	return &PersistQuery{client: c, key: key, id: id}
}

// Compile returns the PERSIST command.
func (q *PersistQuery) Compile() (Command, error) {
	if q.key == "" {
		return Command{}, stateErr("PERSIST requires a key")
	}
	if q.id == "" {
		return Command{}, stateErr("PERSIST requires an id")
	}
	return Command{Verb: VerbPersist, Args: []any{q.key, q.id}}, nil
}

// Exec sends the command.
func (q *PersistQuery) Exec(ctx context.Context) (*JSONResponse, error) {
	return execJSON(ctx, q.client, q)
}

// TTLQuery builds TTL key id.
type TTLQuery struct {
	client  *Client
	key, id string
}

// TTL starts a TTL command.
func (c *Client) TTL(key, id string) *TTLQuery {
	return &TTLQuery{client: c, key: key, id: id}
}

// Compile returns the TTL command.
func (q *TTLQuery) Compile() (Command, error) {
	if q.key == "" {
		return Command{}, stateErr("TTL requires a key")
	}
	if q.id == "" {
		return Command{}, stateErr("TTL requires an id")
	}
	return Command{Verb: VerbTTL, Args: []any{q.key, q.id}}, nil
}

// Exec sends the command.
func (q *TTLQuery) Exec(ctx context.Context) (*TTLResponse, error) {
	r, err := q.client.exec(ctx, q)
	if err != nil {
		return nil, err
	}
	return r.decodeTTL()
}

// FSetQuery builds FSET key id [XX] field value [field value ...].
type FSetQuery struct {
	client  *Client
	key, id string
	xx      bool
	fields  []fieldValue
}

// FSet starts an FSET command updating fields of an existing object.
func (c *Client) FSet(key, id string) *FSetQuery {
	return &FSetQuery{client: c, key: key, id: id}
}

// XX skips the update instead of failing when the id does not exist.
func (q *FSetQuery) XX() *FSetQuery {
	q.xx = true
	return q
}

// Field sets name to value. The same name twice keeps the last value.
func (q *FSetQuery) Field(name string, value float64) *FSetQuery {
	q.fields = setField(q.fields, name, value)
	return q
}

// Compile returns the FSET command.
func (q *FSetQuery) Compile() (Command, error) {
	if q.key == "" {
		return Command{}, stateErr("FSET requires a key")
	}
	if q.id == "" {
		return Command{}, stateErr("FSET requires an id")
	}
	if len(q.fields) == 0 {
		return Command{}, stateErr("FSET requires at least one field")
	}
	args := []any{q.key, q.id}
	if q.xx {
		args = append(args, tokXX)
	}
	for _, f := range q.fields {
		args = append(args, f.name, f.value)
	}
	return Command{Verb: VerbFSet, Args: args}, nil
}

// Exec sends the command.
func (q *FSetQuery) Exec(ctx context.Context) (*JSONResponse, error) {
	return execJSON(ctx, q.client, q)
}

// staticCommand is a Compiler for commands without builder state.
type staticCommand Command

func (s staticCommand) Compile() (Command, error) { return Command(s), nil }

// Keys lists collection keys matching pattern.
func (c *Client) Keys(ctx context.Context, pattern string) (*KeysResponse, error) {
	if pattern == "" {
		return nil, stateErr("KEYS requires a pattern")
	}
	r, err := c.exec(ctx, staticCommand{Verb: VerbKeys, Args: []any{pattern}})
	if err != nil {
		return nil, err
	}
	return r.decodeKeys()
}

// KeyBounds returns the minimum bounding polygon of every object in key.
func (c *Client) KeyBounds(ctx context.Context, key string) (*KeyBoundsResponse, error) {
	if key == "" {
		return nil, stateErr("BOUNDS requires a key")
	}
	r, err := c.exec(ctx, staticCommand{Verb: VerbBounds, Args: []any{key}})
	if err != nil {
		return nil, err
	}
	return r.decodeKeyBounds()
}

// Ping round-trips a PING.
func (c *Client) Ping(ctx context.Context) (*PingResponse, error) {
	r, err := c.exec(ctx, staticCommand{Verb: VerbPing})
	if err != nil {
		return nil, err
	}
	return r.decodePing()
}

// FlushDB removes every collection on the server.
func (c *Client) FlushDB(ctx context.Context) (*JSONResponse, error) {
	return execJSON(ctx, c, staticCommand{Verb: VerbFlushDB})
}

func execJSON(ctx context.Context, c *Client, q Compiler) (*JSONResponse, error) {
	r, err := c.exec(ctx, q)
	if err != nil {
		return nil, err
	}
	return r.decodeJSON(), nil
}
