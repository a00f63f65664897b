package geo38

import (
	"errors"
	"reflect"
	"testing"

	"github.com/twpayne/go-geom"
)

func TestDecode_Objects(t *testing.T) {
	raw := []byte(`{
		"ok": true,
		"fields": ["speed"],
		"objects": [
			{"id": "truck", "object": {"type": "Feature", "geometry": {"type": "Point", "coordinates": [13.37, 52.25]}, "properties": {"name": "t1"}}, "fields": [90]},
			{"id": "zone", "object": {"type": "Polygon", "coordinates": [[[0,0],[1,0],[1,1],[0,0]]]}},
			{"id": "note", "object": "hello"}
		],
		"count": 3,
		"cursor": 0,
		"elapsed": "12.3µs"
	}`)

	res, err := Decode(raw, OutputObjects, 0)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	objs, ok := res.(*ObjectsResponse)
	if !ok {
		t.Fatalf("response type = %T, want *ObjectsResponse", res)
	}
	if objs.Format() != OutputObjects {
		t.Errorf("Format() = %q", objs.Format())
	}

	m := objs.Metadata()
	if m.Count != 3 || m.Cursor != 0 || m.Elapsed != "12.3µs" {
		t.Errorf("meta = %+v", m)
	}
	if !reflect.DeepEqual(m.Fields, []string{"speed"}) {
		t.Errorf("fields = %v", m.Fields)
	}
	if len(objs.Objects) != 3 {
		t.Fatalf("len(objects) = %d, want 3", len(objs.Objects))
	}

	truck := objs.Objects[0]
	if truck.ID != "truck" || truck.Object.Type != "Feature" {
		t.Errorf("truck = %+v", truck)
	}
	if truck.Object.Feature == nil || truck.Object.Feature.Properties["name"] != "t1" {
		t.Errorf("feature properties not decoded: %+v", truck.Object.Feature)
	}
	p, ok := truck.Object.Geometry.(*geom.Point)
	if !ok {
		t.Fatalf("geometry = %T, want *geom.Point", truck.Object.Geometry)
	}
	if p.X() != 13.37 || p.Y() != 52.25 {
		t.Errorf("coords = %v", p.Coords())
	}
	if !reflect.DeepEqual(truck.Fields, []any{90.0}) {
		t.Errorf("truck fields = %v", truck.Fields)
	}

	if _, ok := objs.Objects[1].Object.Geometry.(*geom.Polygon); !ok {
		t.Errorf("zone geometry = %T, want *geom.Polygon", objs.Objects[1].Object.Geometry)
	}
	note := objs.Objects[2].Object
	if note.Type != ObjectTypeString || note.Text != "hello" {
		t.Errorf("note = %+v", note)
	}
}

func TestDecode_Points(t *testing.T) {
	raw := []byte(`{"ok":true,"points":[
		{"id":"a","point":{"lat":52.25,"lon":13.37}},
		{"id":"b","point":{"lat":1,"lon":2,"z":30}}
	],"count":2,"cursor":5,"elapsed":"1µs"}`)

	res, err := Decode(raw, OutputPoints, 0)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	pts := res.(*PointsResponse)
	if pts.Cursor != 5 {
		t.Errorf("cursor = %d, want 5", pts.Cursor)
	}
	if got := pts.Points[0].Point; got.Lat != 52.25 || got.Lon != 13.37 || got.Z != nil {
		t.Errorf("a = %+v", got)
	}
	if got := pts.Points[1].Point; got.Z == nil || *got.Z != 30 {
		t.Errorf("b z = %v", got.Z)
	}
}

func TestDecode_Hashes(t *testing.T) {
	raw := []byte(`{"ok":true,"hashes":[{"id":"a","hash":"u33db"}],"count":1,"cursor":0}`)

	res, err := Decode(raw, OutputHashes, 5)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	h := res.(*HashesResponse)
	if h.Precision != 5 {
		t.Errorf("precision = %d, want 5", h.Precision)
	}
	if !reflect.DeepEqual(h.Hashes, []HashEntry{{ID: "a", Hash: "u33db"}}) {
		t.Errorf("hashes = %+v", h.Hashes)
	}
}

func TestDecode_Bounds(t *testing.T) {
	raw := []byte(`{"ok":true,"bounds":[
		{"id":"a","bounds":{"sw":{"lat":1,"lon":2},"ne":{"lat":3,"lon":4}}}
	],"count":1,"cursor":0}`)

	res, err := Decode(raw, OutputBounds, 0)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	b := res.(*BoundsResponse)
	want := Bounds{MinLat: 1, MinLon: 2, MaxLat: 3, MaxLon: 4}
	if len(b.Bounds) != 1 || b.Bounds[0].Bounds != want {
		t.Errorf("bounds = %+v, want %+v", b.Bounds, want)
	}
}

func TestDecode_Distance(t *testing.T) {
	raw := []byte(`{"ok":true,"points":[
		{"id":"near","point":{"lat":33.5,"lon":-112.2},"distance":12.5},
		{"id":"plain","point":{"lat":33.6,"lon":-112.1}}
	],"count":2,"cursor":0}`)

	res, err := Decode(raw, OutputPoints, 0)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	pts := res.(*PointsResponse).Points
	if pts[0].Distance == nil || *pts[0].Distance != 12.5 {
		t.Errorf("distance = %v, want 12.5", pts[0].Distance)
	}
	if pts[1].Distance != nil {
		t.Errorf("distance = %v, want nil when not requested", *pts[1].Distance)
	}
}

func TestDecode_IDsAndCount(t *testing.T) {
	res, err := Decode([]byte(`{"ok":true,"ids":["a","b"],"count":2,"cursor":0}`), OutputIDs, 0)
	if err != nil {
		t.Fatalf("Decode ids: %v", err)
	}
	if ids := res.(*IDsResponse).IDs; !reflect.DeepEqual(ids, []string{"a", "b"}) {
		t.Errorf("ids = %v", ids)
	}

	res, err = Decode([]byte(`{"ok":true,"count":42,"cursor":0}`), OutputCount, 0)
	if err != nil {
		t.Fatalf("Decode count: %v", err)
	}
	if c := res.(*CountResponse); c.Count != 42 || c.Format() != OutputCount {
		t.Errorf("count = %+v", c)
	}
}

func TestDecode_EmptyResultSet(t *testing.T) {
	res, err := Decode([]byte(`{"ok":true,"objects":[],"count":0,"cursor":0}`), OutputObjects, 0)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if objs := res.(*ObjectsResponse); len(objs.Objects) != 0 {
		t.Errorf("objects = %v, want empty", objs.Objects)
	}
}

func TestDecode_ShapeErrors(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		format OutputFormat
		field  string
	}{
		{"missing ok", `{"objects":[]}`, OutputObjects, "ok"},
		{"missing objects", `{"ok":true,"count":0}`, OutputObjects, "objects"},
		{"missing id", `{"ok":true,"objects":[{"object":{"type":"Point","coordinates":[1,2]}}]}`, OutputObjects, "objects[0].id"},
		{"missing object", `{"ok":true,"objects":[{"id":"a"}]}`, OutputObjects, "objects[0].object"},
		{"malformed geometry", `{"ok":true,"objects":[{"id":"a","object":{"type":"Point","coordinates":"x"}}]}`, OutputObjects, "objects[0].object"},
		{"unknown geometry", `{"ok":true,"objects":[{"id":"a","object":{"type":"Blob"}}]}`, OutputObjects, "objects[0].object"},
		{"point without lon", `{"ok":true,"points":[{"id":"a","point":{"lat":1}}]}`, OutputPoints, "points[0].point.lon"},
		{"hash missing", `{"ok":true,"hashes":[{"id":"a"}]}`, OutputHashes, "hashes[0].hash"},
		{"bounds missing ne", `{"ok":true,"bounds":[{"id":"a","bounds":{"sw":{"lat":1,"lon":2}}}]}`, OutputBounds, "bounds[0].bounds.ne"},
		{"count missing", `{"ok":true}`, OutputCount, "count"},
		{"ids missing", `{"ok":true,"count":1}`, OutputIDs, "ids"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode([]byte(tt.raw), tt.format, 0)
			if !errors.Is(err, ErrDecode) {
				t.Fatalf("err = %v, want ErrDecode", err)
			}
			var de *DecodeError
			if !errors.As(err, &de) {
				t.Fatalf("err = %T, want *DecodeError", err)
			}
			if de.Field != tt.field {
				t.Errorf("field = %q, want %q", de.Field, tt.field)
			}
		})
	}
}

func TestDecode_InvalidJSON(t *testing.T) {
	_, err := Decode([]byte(`not json`), OutputObjects, 0)
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("err = %v, want ErrDecode", err)
	}
}

func TestDecode_ServerErrorBeforeShape(t *testing.T) {
	_, err := Decode([]byte(`{"ok":false,"err":"key not found","elapsed":"1µs"}`), OutputPoints, 0)
	if !errors.Is(err, ErrKeyNotFound) {
		t.Fatalf("err = %v, want ErrKeyNotFound", err)
	}
	if errors.Is(err, ErrDecode) {
		t.Error("server error must not be reported as decode error")
	}
	var se *ServerError
	if !errors.As(err, &se) || se.Message != "key not found" {
		t.Errorf("server error = %+v", se)
	}
}

func TestDecodeGetObject(t *testing.T) {
	raw := []byte(`{"ok":true,"object":{"type":"Point","coordinates":[13.37,52.25]},"fields":{"speed":90},"elapsed":"3µs"}`)

	res, err := DecodeGetObject(raw)
	if err != nil {
		t.Fatalf("DecodeGetObject: %v", err)
	}
	if res.Object.Type != "Point" {
		t.Errorf("type = %q", res.Object.Type)
	}
	if string(res.Fields["speed"]) != "90" {
		t.Errorf("fields = %v", res.Fields)
	}
	if got := string(res.Object.Raw()); got != `{"type":"Point","coordinates":[13.37,52.25]}` {
		t.Errorf("raw = %s", got)
	}
}

func TestDecodeGet(t *testing.T) {
	tests := []struct {
		name   string
		raw    string
		format GetFormat
		check  func(t *testing.T, res GetResponse)
	}{
		{
			name:   "object",
			raw:    `{"ok":true,"object":{"type":"Point","coordinates":[1,2]}}`,
			format: GetObject,
			check: func(t *testing.T, res GetResponse) {
				if _, ok := res.(*GetObjectResponse); !ok {
					t.Errorf("type = %T", res)
				}
			},
		},
		{
			name:   "point",
			raw:    `{"ok":true,"point":{"lat":2,"lon":1}}`,
			format: GetPoint,
			check: func(t *testing.T, res GetResponse) {
				p, ok := res.(*GetPointResponse)
				if !ok || p.Point.Lat != 2 {
					t.Errorf("res = %#v", res)
				}
			},
		},
		{
			name:   "bounds",
			raw:    `{"ok":true,"bounds":{"sw":{"lat":1,"lon":2},"ne":{"lat":3,"lon":4}}}`,
			format: GetBounds,
			check: func(t *testing.T, res GetResponse) {
				if _, ok := res.(*GetBoundsResponse); !ok {
					t.Errorf("type = %T", res)
				}
			},
		},
		{
			name:   "hash keeps requested precision",
			raw:    `{"ok":true,"hash":"u33db"}`,
			format: GetHash,
			check: func(t *testing.T, res GetResponse) {
				h, ok := res.(*GetHashResponse)
				if !ok || h.Precision != 5 || h.Hash != "u33db" {
					t.Errorf("res = %#v", res)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := DecodeGet([]byte(tt.raw), tt.format, 5)
			if err != nil {
				t.Fatalf("DecodeGet: %v", err)
			}
			tt.check(t, res)
		})
	}

	if _, err := DecodeGet([]byte(`{"ok":true}`), GetFormat("WKT"), 0); !errors.Is(err, ErrDecode) {
		t.Errorf("unknown format err = %v, want ErrDecode", err)
	}
	if _, err := DecodeGet([]byte(`{"ok":false,"err":"id not found"}`), GetPoint, 0); !errors.Is(err, ErrIDNotFound) {
		t.Errorf("server err = %v, want ErrIDNotFound", err)
	}
}

func TestReply_GetShapes(t *testing.T) {
	r, err := parseReply([]byte(`{"ok":true,"point":{"lat":1,"lon":2}}`))
	if err != nil {
		t.Fatal(err)
	}
	p, err := r.decodeGetPoint()
	if err != nil || p.Point.Lat != 1 || p.Point.Lon != 2 {
		t.Errorf("point = %+v, err = %v", p, err)
	}

	r, err = parseReply([]byte(`{"ok":true,"bounds":{"sw":{"lat":1,"lon":2},"ne":{"lat":3,"lon":4}}}`))
	if err != nil {
		t.Fatal(err)
	}
	b, err := r.decodeGetBounds()
	if err != nil || b.Bounds != (Bounds{MinLat: 1, MinLon: 2, MaxLat: 3, MaxLon: 4}) {
		t.Errorf("bounds = %+v, err = %v", b, err)
	}

	r, err = parseReply([]byte(`{"ok":true,"hash":"u33"}`))
	if err != nil {
		t.Fatal(err)
	}
	h, err := r.decodeGetHash(3)
	if err != nil || h.Hash != "u33" || h.Precision != 3 {
		t.Errorf("hash = %+v, err = %v", h, err)
	}

	r, err = parseReply([]byte(`{"ok":true}`))
	if err != nil {
		t.Fatal(err)
	}
	if _, err := r.decodeGetObject(); !errors.Is(err, ErrDecode) {
		t.Errorf("missing object err = %v, want ErrDecode", err)
	}
	if _, err := r.decodeTTL(); !errors.Is(err, ErrDecode) {
		t.Errorf("missing ttl err = %v, want ErrDecode", err)
	}
}

func TestObject_JSONRoundTrip(t *testing.T) {
	in := []byte(`{"type":"LineString","coordinates":[[0,0],[1,1]]}`)
	var o Object
	if err := o.UnmarshalJSON(in); err != nil {
		t.Fatalf("UnmarshalJSON: %v", err)
	}
	if _, ok := o.Geometry.(*geom.LineString); !ok {
		t.Errorf("geometry = %T", o.Geometry)
	}
	out, err := o.MarshalJSON()
	if err != nil || string(out) != string(in) {
		t.Errorf("MarshalJSON = %s, %v", out, err)
	}
}
