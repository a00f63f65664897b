package geo38

import (
	"encoding/json"
	"errors"
	"fmt"
)

var errMissing = errors.New("missing")

// reply is the untyped server reply, with every field optional so shape
// mismatches can be detected instead of defaulted.
type reply struct {
	OK      *bool           `json:"ok"`
	Err     string          `json:"err"`
	Elapsed string          `json:"elapsed"`
	Fields  json.RawMessage `json:"fields"`
	Count   *int            `json:"count"`
	Cursor  *int            `json:"cursor"`

	IDs     []string     `json:"ids"`
	Objects []replyEntry `json:"objects"`
	Points  []replyEntry `json:"points"`
	Hashes  []replyEntry `json:"hashes"`

	// Bounds is a list in search replies, a box in GET replies and a
	// GeoJSON object in BOUNDS key replies.
	Bounds json.RawMessage `json:"bounds"`

	Object json.RawMessage `json:"object"`
	Point  *wirePoint      `json:"point"`
	Hash   *string         `json:"hash"`
	TTL    *float64        `json:"ttl"`
	Keys   []string        `json:"keys"`
	Ping   *string         `json:"ping"`

	has map[string]json.RawMessage
}

type replyEntry struct {
	ID     *string         `json:"id"`
	Object json.RawMessage `json:"object"`
	Point  *wirePoint      `json:"point"`
	Hash   *string         `json:"hash"`
	Bounds *wireBounds     `json:"bounds"`
	Fields []any           `json:"fields"`
	// Distance is set when the search asked for DISTANCE.
	Distance *float64 `json:"distance"`
}

type wirePoint struct {
	Lat *float64 `json:"lat"`
	Lon *float64 `json:"lon"`
	Z   *float64 `json:"z"`
}

type wireBounds struct {
	SW *wirePoint `json:"sw"`
	NE *wirePoint `json:"ne"`
}

// parseReply unmarshals raw and classifies `ok:false` replies. A failed
// reply never reaches the format-specific decoders.
func parseReply(raw []byte) (*reply, error) {
	var r reply
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil, decodeErr("", fmt.Errorf("invalid json: %w", err))
	}
	if err := json.Unmarshal(raw, &r.has); err != nil {
		return nil, decodeErr("", fmt.Errorf("reply is not an object: %w", err))
	}
	if r.OK == nil {
		return nil, decodeErr("ok", errMissing)
	}
	if !*r.OK {
		return nil, NewServerError(r.Err)
	}
	return &r, nil
}

func (r *reply) present(field string) bool {
	v, ok := r.has[field]
	return ok && string(v) != "null"
}

func (r *reply) meta() (Meta, error) {
	m := Meta{Elapsed: r.Elapsed}
	if r.Cursor != nil {
		m.Cursor = *r.Cursor
	}
	if r.Count != nil {
		m.Count = *r.Count
	}
	if len(r.Fields) > 0 && string(r.Fields) != "null" {
		if err := json.Unmarshal(r.Fields, &m.Fields); err != nil {
			return Meta{}, decodeErr("fields", err)
		}
	}
	return m, nil
}

// Decode shapes a raw search reply according to format. precision is
// recorded on HASHES responses as requested; it is not derived from the reply.
func Decode(raw []byte, format OutputFormat, precision int) (Response, error) {
	r, err := parseReply(raw)
	if err != nil {
		return nil, err
	}
	return r.decodeSearch(format, precision)
}

func (r *reply) decodeSearch(format OutputFormat, precision int) (Response, error) {
	m, err := r.meta()
	if err != nil {
		return nil, err
	}

	switch format {
	case OutputIDs:
		if !r.present("ids") {
			return nil, decodeErr("ids", errMissing)
		}
		return &IDsResponse{Meta: m, IDs: r.IDs}, nil
	case OutputObjects, "":
		return r.decodeObjects(m)
	case OutputPoints:
		return r.decodePoints(m)
	case OutputHashes:
		return r.decodeHashes(m, precision)
	case OutputBounds:
		return r.decodeBoundsList(m)
	case OutputCount:
		if r.Count == nil {
			return nil, decodeErr("count", errMissing)
		}
		return &CountResponse{Meta: m}, nil
	default:
		return nil, decodeErr("", fmt.Errorf("unknown output format %q", format))
	}
}

func (r *reply) decodeObjects(m Meta) (*ObjectsResponse, error) {
	if !r.present("objects") {
		return nil, decodeErr("objects", errMissing)
	}
	out := &ObjectsResponse{Meta: m, Objects: make([]ObjectEntry, len(r.Objects))}
	for i, e := range r.Objects {
		field := fmt.Sprintf("objects[%d]", i)
		if e.ID == nil {
			return nil, decodeErr(field+".id", errMissing)
		}
		if len(e.Object) == 0 {
			return nil, decodeErr(field+".object", errMissing)
		}
		obj, err := ParseObject(e.Object)
		if err != nil {
			return nil, decodeErr(field+".object", err)
		}
		out.Objects[i] = ObjectEntry{ID: *e.ID, Object: obj, Fields: e.Fields, Distance: e.Distance}
	}
	return out, nil
}

func (r *reply) decodePoints(m Meta) (*PointsResponse, error) {
	if !r.present("points") {
		return nil, decodeErr("points", errMissing)
	}
	out := &PointsResponse{Meta: m, Points: make([]PointEntry, len(r.Points))}
	for i, e := range r.Points {
		field := fmt.Sprintf("points[%d]", i)
		if e.ID == nil {
			return nil, decodeErr(field+".id", errMissing)
		}
		p, err := e.Point.point(field + ".point")
		if err != nil {
			return nil, err
		}
		out.Points[i] = PointEntry{ID: *e.ID, Point: p, Fields: e.Fields, Distance: e.Distance}
	}
	return out, nil
}

func (r *reply) decodeHashes(m Meta, precision int) (*HashesResponse, error) {
	if !r.present("hashes") {
		return nil, decodeErr("hashes", errMissing)
	}
	out := &HashesResponse{Meta: m, Precision: precision, Hashes: make([]HashEntry, len(r.Hashes))}
	for i, e := range r.Hashes {
		field := fmt.Sprintf("hashes[%d]", i)
		if e.ID == nil {
			return nil, decodeErr(field+".id", errMissing)
		}
		if e.Hash == nil {
			return nil, decodeErr(field+".hash", errMissing)
		}
		out.Hashes[i] = HashEntry{ID: *e.ID, Hash: *e.Hash, Fields: e.Fields, Distance: e.Distance}
	}
	return out, nil
}

func (r *reply) decodeBoundsList(m Meta) (*BoundsResponse, error) {
	if !r.present("bounds") {
		return nil, decodeErr("bounds", errMissing)
	}
	var entries []replyEntry
	if err := json.Unmarshal(r.Bounds, &entries); err != nil {
		return nil, decodeErr("bounds", err)
	}
	out := &BoundsResponse{Meta: m, Bounds: make([]BoundsEntry, len(entries))}
	for i, e := range entries {
		field := fmt.Sprintf("bounds[%d]", i)
		if e.ID == nil {
			return nil, decodeErr(field+".id", errMissing)
		}
		b, err := e.Bounds.bounds(field + ".bounds")
		if err != nil {
			return nil, err
		}
		out.Bounds[i] = BoundsEntry{ID: *e.ID, Bounds: b, Fields: e.Fields, Distance: e.Distance}
	}
	return out, nil
}

func (p *wirePoint) point(field string) (Point, error) {
	if p == nil {
		return Point{}, decodeErr(field, errMissing)
	}
	if p.Lat == nil {
		return Point{}, decodeErr(field+".lat", errMissing)
	}
	if p.Lon == nil {
		return Point{}, decodeErr(field+".lon", errMissing)
	}
	return Point{Lat: *p.Lat, Lon: *p.Lon, Z: p.Z}, nil
}

func (b *wireBounds) bounds(field string) (Bounds, error) {
	if b == nil {
		return Bounds{}, decodeErr(field, errMissing)
	}
	sw, err := b.SW.point(field + ".sw")
	if err != nil {
		return Bounds{}, err
	}
	ne, err := b.NE.point(field + ".ne")
	if err != nil {
		return Bounds{}, err
	}
	return Bounds{MinLat: sw.Lat, MinLon: sw.Lon, MaxLat: ne.Lat, MaxLon: ne.Lon}, nil
}

func (r *reply) getFields() (map[string]json.RawMessage, error) {
	if len(r.Fields) == 0 || string(r.Fields) == "null" {
		return nil, nil
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(r.Fields, &fields); err != nil {
		return nil, decodeErr("fields", err)
	}
	return fields, nil
}

// DecodeGet shapes a raw GET reply according to format. precision is
// recorded on GetHashResponse as requested.
func DecodeGet(raw []byte, format GetFormat, precision int) (GetResponse, error) {
	r, err := parseReply(raw)
	if err != nil {
		return nil, err
	}
	switch format {
	case GetObject, "":
		return r.decodeGetObject()
	case GetPoint:
		return r.decodeGetPoint()
	case GetBounds:
		return r.decodeGetBounds()
	case GetHash:
		return r.decodeGetHash(precision)
	default:
		return nil, decodeErr("", fmt.Errorf("unknown GET format %q", format))
	}
}

// DecodeGetObject decodes a GET reply in object form.
func DecodeGetObject(raw []byte) (*GetObjectResponse, error) {
	r, err := parseReply(raw)
	if err != nil {
		return nil, err
	}
	return r.decodeGetObject()
}

func (r *reply) decodeGetObject() (*GetObjectResponse, error) {
	if len(r.Object) == 0 {
		return nil, decodeErr("object", errMissing)
	}
	obj, err := ParseObject(r.Object)
	if err != nil {
		return nil, decodeErr("object", err)
	}
	fields, err := r.getFields()
	if err != nil {
		return nil, err
	}
	return &GetObjectResponse{Elapsed: r.Elapsed, Object: obj, Fields: fields}, nil
}

func (r *reply) decodeGetPoint() (*GetPointResponse, error) {
	p, err := r.Point.point("point")
	if err != nil {
		return nil, err
	}
	fields, err := r.getFields()
	if err != nil {
		return nil, err
	}
	return &GetPointResponse{Elapsed: r.Elapsed, Point: p, Fields: fields}, nil
}

func (r *reply) decodeGetBounds() (*GetBoundsResponse, error) {
	if !r.present("bounds") {
		return nil, decodeErr("bounds", errMissing)
	}
	var wb wireBounds
	if err := json.Unmarshal(r.Bounds, &wb); err != nil {
		return nil, decodeErr("bounds", err)
	}
	b, err := wb.bounds("bounds")
	if err != nil {
		return nil, err
	}
	fields, err := r.getFields()
	if err != nil {
		return nil, err
	}
	return &GetBoundsResponse{Elapsed: r.Elapsed, Bounds: b, Fields: fields}, nil
}

func (r *reply) decodeGetHash(precision int) (*GetHashResponse, error) {
	if r.Hash == nil {
		return nil, decodeErr("hash", errMissing)
	}
	fields, err := r.getFields()
	if err != nil {
		return nil, err
	}
	return &GetHashResponse{Elapsed: r.Elapsed, Precision: precision, Hash: *r.Hash, Fields: fields}, nil
}

func (r *reply) decodeTTL() (*TTLResponse, error) {
	if r.TTL == nil {
		return nil, decodeErr("ttl", errMissing)
	}
	return &TTLResponse{Elapsed: r.Elapsed, TTL: *r.TTL}, nil
}

func (r *reply) decodeKeys() (*KeysResponse, error) {
	if !r.present("keys") {
		return nil, decodeErr("keys", errMissing)
	}
	return &KeysResponse{Elapsed: r.Elapsed, Keys: r.Keys}, nil
}

func (r *reply) decodeKeyBounds() (*KeyBoundsResponse, error) {
	if !r.present("bounds") {
		return nil, decodeErr("bounds", errMissing)
	}
	obj, err := ParseObject(r.Bounds)
	if err != nil {
		return nil, decodeErr("bounds", err)
	}
	return &KeyBoundsResponse{Elapsed: r.Elapsed, Bounds: obj}, nil
}

func (r *reply) decodePing() (*PingResponse, error) {
	if r.Ping == nil {
		return nil, decodeErr("ping", errMissing)
	}
	return &PingResponse{Elapsed: r.Elapsed, Ping: *r.Ping}, nil
}

func (r *reply) decodeJSON() *JSONResponse {
	return &JSONResponse{Elapsed: r.Elapsed}
}
