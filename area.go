package geo38

import (
	"encoding/json"
	"fmt"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// area is the terminating geometry clause of SET and search commands.
// Exactly one is held per builder; setters replace the previous one.
type area interface {
	args() []any
}

type pointArea struct {
	lat, lon float64
	z        *float64
	radius   *float64
}

func (a pointArea) args() []any {
	out := []any{tokPoint, a.lat, a.lon}
	if a.z != nil {
		out = append(out, *a.z)
	}
	if a.radius != nil {
		out = append(out, *a.radius)
	}
	return out
}

type objectArea struct {
	json string
	err  error
}

func (a objectArea) args() []any { return []any{tokObject, a.json} }

func newObjectArea(v any) objectArea {
	switch o := v.(type) {
	case string:
		return objectArea{json: o}
	case []byte:
		return objectArea{json: string(o)}
	case json.RawMessage:
		return objectArea{json: string(o)}
	case geom.T:
		// go-geom types keep their coordinates in unexported fields.
		b, err := geojson.Marshal(o)
		if err != nil {
			return objectArea{err: fmt.Errorf("marshal geometry: %w", err)}
		}
		return objectArea{json: string(b)}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return objectArea{err: fmt.Errorf("marshal object: %w", err)}
	}
	return objectArea{json: string(b)}
}

type boundsArea struct {
	minLat, minLon, maxLat, maxLon float64
}

func (a boundsArea) args() []any {
	return []any{tokBounds, a.minLat, a.minLon, a.maxLat, a.maxLon}
}

type hashArea struct{ hash string }

func (a hashArea) args() []any { return []any{tokHash, a.hash} }

type stringArea struct{ value string }

func (a stringArea) args() []any { return []any{tokString, a.value} }

type quadkeyArea struct{ quadkey string }

func (a quadkeyArea) args() []any { return []any{tokQuadkey, a.quadkey} }

type tileArea struct{ x, y, z int }

func (a tileArea) args() []any { return []any{tokTile, a.x, a.y, a.z} }

type circleArea struct{ lat, lon, radius float64 }

func (a circleArea) args() []any { return []any{tokCircle, a.lat, a.lon, a.radius} }

type getArea struct{ key, id string }

func (a getArea) args() []any { return []any{tokGet, a.key, a.id} }

func areaErr(a area) error {
	if o, ok := a.(objectArea); ok && o.err != nil {
		return o.err
	}
	return nil
}
