package geo38

import (
	"context"
	"fmt"

	"github.com/kailas-cloud/geo38/internal/geo"
)

// Hit is a typed NEARBY result.
type Hit[T any] struct {
	Item     T
	Distance float64 // meters from the search point
}

// NearbyBuilder is a fluent builder for typed NEARBY queries. Results come
// back closest first with their distance.
type NearbyBuilder[T any] struct {
	col *Collection[T]

	lat, lon float64
	radiusKm float64
	wheres   []whereClause
	limit    int
}

// Near sets the search point.
func (b *NearbyBuilder[T]) Near(lat, lon float64) *NearbyBuilder[T] {
	b.lat = lat
	b.lon = lon
	return b
}

// Km bounds the search radius in kilometers. Zero means unbounded.
func (b *NearbyBuilder[T]) Km(radius float64) *NearbyBuilder[T] {
	b.radiusKm = radius
	return b
}

// Where keeps items whose field lies in [minValue, maxValue].
func (b *NearbyBuilder[T]) Where(field string, minValue, maxValue float64) *NearbyBuilder[T] {
	b.wheres = append(b.wheres, whereClause{field: field, min: minValue, max: maxValue})
	return b
}

// Limit sets the maximum number of results. Default: 10.
func (b *NearbyBuilder[T]) Limit(n int) *NearbyBuilder[T] {
	b.limit = n
	return b
}

// query builds the underlying search.
func (b *NearbyBuilder[T]) query() *SearchQuery {
	limit := b.limit
	if limit <= 0 {
		limit = 10
	}
	q := b.col.client.Nearby(b.col.key).Limit(limit).Distance()
	for _, w := range b.wheres {
		q.Where(w.field, w.min, w.max)
	}
	if b.radiusKm > 0 {
		return q.PointRadius(b.lat, b.lon, b.radiusKm*1000)
	}
	return q.Point(b.lat, b.lon)
}

// Do executes the search and returns typed results.
func (b *NearbyBuilder[T]) Do(ctx context.Context) ([]Hit[T], error) {
	res, err := b.query().AsPoints(ctx)
	if err != nil {
		return nil, fmt.Errorf("nearby: %w", err)
	}
	return b.toHits(res)
}

func (b *NearbyBuilder[T]) toHits(res *PointsResponse) ([]Hit[T], error) {
	hits := make([]Hit[T], 0, len(res.Points))
	for i, p := range res.Points {
		values := make(map[string]float64, len(res.Fields))
		for j, name := range res.Fields {
			if j >= len(p.Fields) {
				break
			}
			f, ok := p.Fields[j].(float64)
			if !ok {
				return nil, decodeErr(fmt.Sprintf("points[%d].fields[%d]", i, j), fmt.Errorf("not a number: %v", p.Fields[j]))
			}
			values[name] = f
		}
		item, ok := b.col.meta.build(p.ID, p.Point, values).(T)
		if !ok {
			continue
		}
		hit := Hit[T]{Item: item}
		if p.Distance != nil {
			hit.Distance = *p.Distance
		} else {
			hit.Distance = geo.Haversine(b.lat, b.lon, p.Point.Lat, p.Point.Lon)
		}
		hits = append(hits, hit)
	}
	return hits, nil
}
