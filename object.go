package geo38

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
)

// ObjectTypeString is the Type of objects stored with SET ... STRING.
const ObjectTypeString = "String"

// Object is a stored value: a GeoJSON geometry, a Feature, a
// FeatureCollection or a plain string.
type Object struct {
	// Type is the GeoJSON type ("Point", "Polygon", "Feature", ...) or ObjectTypeString.
	Type string
	// Geometry is set for bare geometries and for Features that carry one.
	Geometry geom.T
	// Feature is set when Type is "Feature".
	Feature *geojson.Feature
	// Collection is set when Type is "FeatureCollection".
	Collection *geojson.FeatureCollection
	// Text is set when Type is ObjectTypeString.
	Text string

	raw json.RawMessage
}

// ParseObject decodes an encoded object. Malformed geometries are errors.
func ParseObject(raw []byte) (Object, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Object{}, errors.New("empty object")
	}

	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return Object{}, fmt.Errorf("string object: %w", err)
		}
		return Object{Type: ObjectTypeString, Text: s, raw: cloneRaw(raw)}, nil
	}

	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(raw, &head); err != nil {
		return Object{}, fmt.Errorf("object header: %w", err)
	}

	obj := Object{Type: head.Type, raw: cloneRaw(raw)}
	switch head.Type {
	case "":
		return Object{}, errors.New("object has no type")
	case "Feature":
		var f geojson.Feature
		if err := json.Unmarshal(raw, &f); err != nil {
			return Object{}, fmt.Errorf("feature: %w", err)
		}
		obj.Feature = &f
		obj.Geometry = f.Geometry
	case "FeatureCollection":
		var fc geojson.FeatureCollection
		if err := json.Unmarshal(raw, &fc); err != nil {
			return Object{}, fmt.Errorf("feature collection: %w", err)
		}
		obj.Collection = &fc
	case "Point", "MultiPoint", "LineString", "MultiLineString",
		"Polygon", "MultiPolygon", "GeometryCollection":
		var g geom.T
		if err := geojson.Unmarshal(raw, &g); err != nil {
			return Object{}, fmt.Errorf("%s: %w", head.Type, err)
		}
		obj.Geometry = g
	default:
		return Object{}, fmt.Errorf("unsupported object type %q", head.Type)
	}
	return obj, nil
}

// Raw returns the object exactly as the server encoded it.
func (o Object) Raw() json.RawMessage { return o.raw }

// MarshalJSON re-emits the server encoding.
func (o Object) MarshalJSON() ([]byte, error) {
	if len(o.raw) == 0 {
		return []byte("null"), nil
	}
	return o.raw, nil
}

// UnmarshalJSON parses via ParseObject.
func (o *Object) UnmarshalJSON(b []byte) error {
	parsed, err := ParseObject(b)
	if err != nil {
		return err
	}
	*o = parsed
	return nil
}

func cloneRaw(b []byte) json.RawMessage {
	out := make(json.RawMessage, len(b))
	copy(out, b)
	return out
}
