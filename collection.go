package geo38

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

// Collection is a typed view of one collection key. Items are stored as
// points with their tagged numeric fields; the layout is inferred from T's
// struct tags at construction time.
type Collection[T any] struct {
	key    string
	client *Client
	meta   *schemaMeta
}

// NewCollection creates a typed handle for key. T must be a struct with
// geo38 tags for id, lat and lon. The schema is parsed once and cached.
func NewCollection[T any](client *Client, key string) (*Collection[T], error) {
	if key == "" {
		return nil, stateErr("collection requires a key")
	}
	meta, err := parseSchema[T]()
	if err != nil {
		return nil, fmt.Errorf("new collection %q: %w", key, err)
	}
	return &Collection[T]{key: key, client: client, meta: meta}, nil
}

// Key returns the collection key.
func (c *Collection[T]) Key() string { return c.key }

// SetQuery returns the SET builder for item without sending it, so callers
// can add EX, NX or XX.
func (c *Collection[T]) SetQuery(item T) *SetQuery {
	q := c.client.Set(c.key, c.meta.id(item))
	c.meta.applySet(q, item)
	return q
}

// Upsert stores item, replacing any previous object with the same id.
func (c *Collection[T]) Upsert(ctx context.Context, item T) error {
	if err := c.meta.checkItem(item); err != nil {
		return fmt.Errorf("upsert: %w", err)
	}
	if _, err := c.SetQuery(item).Exec(ctx); err != nil {
		return fmt.Errorf("upsert: %w", err)
	}
	return nil
}

// BatchResult is the outcome for one item of UpsertBatch.
type BatchResult struct {
	ID  string
	Err error
}

// UpsertBatch stores items one SET each and reports per-item results. Nil
// items fail with ErrInvalidState without being sent. It stops at the first
// transport failure.
func (c *Collection[T]) UpsertBatch(ctx context.Context, items []T) ([]BatchResult, error) {
	results := make([]BatchResult, 0, len(items))
	for _, item := range items {
		id := c.meta.id(item)
		if err := c.meta.checkItem(item); err != nil {
			results = append(results, BatchResult{ID: id, Err: err})
			continue
		}
		_, err := c.SetQuery(item).Exec(ctx)
		results = append(results, BatchResult{ID: id, Err: err})
		if errors.Is(err, ErrTransport) {
			return results, fmt.Errorf("upsert batch: %w", err)
		}
	}
	return results, nil
}

// Get fetches one item by id.
func (c *Collection[T]) Get(ctx context.Context, id string) (T, error) {
	var zero T
	res, err := c.client.Get(c.key, id).WithFields().AsPoint(ctx)
	if err != nil {
		return zero, fmt.Errorf("get: %w", err)
	}
	values, err := rawFieldValues(res.Fields)
	if err != nil {
		return zero, err
	}
	item, ok := c.meta.build(id, res.Point, values).(T)
	if !ok {
		return zero, fmt.Errorf("get: type assertion failed")
	}
	return item, nil
}

// Delete removes an item by id.
func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	_, err := c.client.Del(c.key, id).Exec(ctx)
	return err
}

// Count returns the number of objects in the collection.
func (c *Collection[T]) Count(ctx context.Context) (int, error) {
	res, err := c.client.Scan(c.key).AsCount(ctx)
	if err != nil {
		return 0, fmt.Errorf("count: %w", err)
	}
	return res.Count, nil
}

// Drop removes the whole collection.
func (c *Collection[T]) Drop(ctx context.Context) error {
	_, err := c.client.Drop(c.key).Exec(ctx)
	return err
}

// Nearby returns a typed NEARBY builder for this collection.
func (c *Collection[T]) Nearby() *NearbyBuilder[T] {
	return &NearbyBuilder[T]{col: c}
}

// rawFieldValues decodes a WITHFIELDS map. Non-numeric values are a decode error.
func rawFieldValues(raw map[string]json.RawMessage) (map[string]float64, error) {
	out := make(map[string]float64, len(raw))
	for name, v := range raw {
		var f float64
		if err := json.Unmarshal(v, &f); err != nil {
			return nil, decodeErr("fields."+name, err)
		}
		out[name] = f
	}
	return out, nil
}
