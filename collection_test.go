package geo38

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"
)

type truck struct {
	ID    string  `geo38:"id,id"`
	Lat   float64 `geo38:"lat,lat"`
	Lon   float64 `geo38:"lon,lon"`
	Speed float64 `geo38:"speed,field"`
	Load  int     `geo38:"load,field"`
	Note  string
}

type drone struct {
	ID  string  `geo38:"id,id"`
	Lat float64 `geo38:"lat,lat"`
	Lon float64 `geo38:"lon,lon"`
	Alt float64 `geo38:"alt,z"`
}

func TestParseSchema(t *testing.T) {
	meta, err := parseSchema[truck]()
	if err != nil {
		t.Fatalf("parseSchema: %v", err)
	}
	if meta.idIdx != 0 || meta.latIdx != 1 || meta.lonIdx != 2 || meta.zIdx != -1 {
		t.Errorf("indices = %+v", meta)
	}
	want := []fieldMapping{{structIdx: 3, name: "speed"}, {structIdx: 4, name: "load"}}
	if !reflect.DeepEqual(meta.fields, want) {
		t.Errorf("fields = %+v, want %+v", meta.fields, want)
	}
}

func TestParseSchema_Errors(t *testing.T) {
	type noID struct {
		Lat float64 `geo38:"lat,lat"`
		Lon float64 `geo38:"lon,lon"`
	}
	type noLon struct {
		ID  string  `geo38:"id,id"`
		Lat float64 `geo38:"lat,lat"`
	}
	type intID struct {
		ID  int     `geo38:"id,id"`
		Lat float64 `geo38:"lat,lat"`
		Lon float64 `geo38:"lon,lon"`
	}
	type dupLat struct {
		ID   string  `geo38:"id,id"`
		Lat  float64 `geo38:"lat,lat"`
		Lat2 float64 `geo38:"lat2,lat"`
		Lon  float64 `geo38:"lon,lon"`
	}
	type textField struct {
		ID   string  `geo38:"id,id"`
		Lat  float64 `geo38:"lat,lat"`
		Lon  float64 `geo38:"lon,lon"`
		Name string  `geo38:"name,field"`
	}
	type badModifier struct {
		ID  string  `geo38:"id,id"`
		Lat float64 `geo38:"lat,lat"`
		Lon float64 `geo38:"lon,lon"`
		X   float64 `geo38:"x,vector"`
	}

	tests := []struct {
		name  string
		parse func() error
		want  string
	}{
		{"no id", func() error { _, err := parseSchema[noID](); return err }, "no field"},
		{"no lon", func() error { _, err := parseSchema[noLon](); return err }, "lat and lon"},
		{"int id", func() error { _, err := parseSchema[intID](); return err }, "must be a string"},
		{"duplicate lat", func() error { _, err := parseSchema[dupLat](); return err }, "duplicate lat"},
		{"text field", func() error { _, err := parseSchema[textField](); return err }, "must be numeric"},
		{"unknown modifier", func() error { _, err := parseSchema[badModifier](); return err }, "unknown modifier"},
		{"not a struct", func() error { _, err := parseSchema[int](); return err }, "not a struct"},
		{"interface", func() error { _, err := parseSchema[any](); return err }, "must be a struct"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.parse()
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Errorf("err = %v, want containing %q", err, tt.want)
			}
		})
	}
}

func TestNewCollection_EmptyKey(t *testing.T) {
	c, _ := newTestClient(t)
	if _, err := NewCollection[truck](c, ""); !errors.Is(err, ErrInvalidState) {
		t.Errorf("err = %v, want ErrInvalidState", err)
	}
}

func TestCollection_Upsert(t *testing.T) {
	c, ft := newTestClient(t, `{"ok":true}`, `{"ok":true}`)
	trucks, err := NewCollection[truck](c, "fleet")
	if err != nil {
		t.Fatalf("NewCollection: %v", err)
	}
	ctx := context.Background()

	if err := trucks.Upsert(ctx, truck{ID: "t1", Lat: 33.5, Lon: -112.25, Speed: 90, Load: 3}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	drones, err := NewCollection[drone](c, "sky")
	if err != nil {
		t.Fatalf("NewCollection: %v", err)
	}
	if err := drones.Upsert(ctx, drone{ID: "d1", Lat: 1, Lon: 2, Alt: 120}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}

	want := [][]string{
		{"fleet", "t1", "FIELD", "speed", "90", "FIELD", "load", "3", "POINT", "33.5", "-112.25"},
		{"sky", "d1", "POINT", "1", "2", "120"},
	}
	for i, w := range want {
		if ft.sent[i].verb != "SET" || !reflect.DeepEqual(ft.sent[i].args, w) {
			t.Errorf("call %d = %s %v, want SET %v", i, ft.sent[i].verb, ft.sent[i].args, w)
		}
	}
}

func TestCollection_SetQueryModifiers(t *testing.T) {
	c, _ := newTestClient(t)
	trucks, err := NewCollection[truck](c, "fleet")
	if err != nil {
		t.Fatalf("NewCollection: %v", err)
	}
	cmd, err := trucks.SetQuery(truck{ID: "t1", Lat: 1, Lon: 2}).Ex(30).NX().Compile()
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	want := []string{"fleet", "t1", "FIELD", "speed", "0", "FIELD", "load", "0", "EX", "30", "NX", "POINT", "1", "2"}
	if got := cmd.Strings(); !reflect.DeepEqual(got, want) {
		t.Errorf("args = %v, want %v", got, want)
	}
}

func TestCollection_UpsertBatchStopsOnTransportError(t *testing.T) {
	c, ft := newTestClient(t, `{"ok":true}`, `{"ok":false,"err":"id not found"}`)
	trucks, err := NewCollection[truck](c, "fleet")
	if err != nil {
		t.Fatalf("NewCollection: %v", err)
	}
	items := []truck{{ID: "a"}, {ID: "b"}, {ID: "c"}, {ID: "d"}}

	results, err := trucks.UpsertBatch(context.Background(), items)
	if !errors.Is(err, ErrTransport) {
		t.Fatalf("err = %v, want ErrTransport", err)
	}
	// a ok, b server error, c hits the empty reply queue.
	if len(results) != 3 {
		t.Fatalf("results = %d, want 3", len(results))
	}
	if results[0].Err != nil || results[0].ID != "a" {
		t.Errorf("results[0] = %+v", results[0])
	}
	if !errors.Is(results[1].Err, ErrServer) {
		t.Errorf("results[1].Err = %v, want ErrServer", results[1].Err)
	}
	if len(ft.sent) != 3 {
		t.Errorf("sent = %d, want 3", len(ft.sent))
	}
}

func TestCollection_Get(t *testing.T) {
	c, ft := newTestClient(t, `{"ok":true,"point":{"lat":33.5,"lon":-112.25},"fields":{"speed":90,"load":2}}`)
	trucks, err := NewCollection[truck](c, "fleet")
	if err != nil {
		t.Fatalf("NewCollection: %v", err)
	}

	got, err := trucks.Get(context.Background(), "t1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	want := truck{ID: "t1", Lat: 33.5, Lon: -112.25, Speed: 90, Load: 2}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
	if !reflect.DeepEqual(ft.sent[0].args, []string{"fleet", "t1", "WITHFIELDS", "POINT"}) {
		t.Errorf("args = %v", ft.sent[0].args)
	}
}

func TestCollection_GetNotFound(t *testing.T) {
	c, _ := newTestClient(t, `{"ok":false,"err":"id not found"}`)
	trucks, err := NewCollection[truck](c, "fleet")
	if err != nil {
		t.Fatalf("NewCollection: %v", err)
	}
	if _, err := trucks.Get(context.Background(), "nope"); !errors.Is(err, ErrIDNotFound) {
		t.Errorf("err = %v, want ErrIDNotFound", err)
	}
}

func TestCollection_Nearby(t *testing.T) {
	c, ft := newTestClient(t, `{"ok":true,"fields":["speed","load"],"points":[`+
		`{"id":"t2","point":{"lat":33.51,"lon":-112.26},"fields":[40,1],"distance":120.5},`+
		`{"id":"t1","point":{"lat":33.6,"lon":-112.3},"fields":[90,0],"distance":1500}`+
		`],"count":2,"cursor":0}`)
	trucks, err := NewCollection[truck](c, "fleet")
	if err != nil {
		t.Fatalf("NewCollection: %v", err)
	}

	hits, err := trucks.Nearby().
		Near(33.5, -112.25).
		Km(2).
		Where("speed", 0, 100).
		Limit(5).
		Do(context.Background())
	if err != nil {
		t.Fatalf("Do: %v", err)
	}

	wantArgs := []string{"fleet", "WHERE", "speed", "0", "100", "LIMIT", "5", "DISTANCE", "POINTS", "POINT", "33.5", "-112.25", "2000"}
	if ft.sent[0].verb != "NEARBY" || !reflect.DeepEqual(ft.sent[0].args, wantArgs) {
		t.Errorf("sent %s %v, want NEARBY %v", ft.sent[0].verb, ft.sent[0].args, wantArgs)
	}

	want := []Hit[truck]{
		{Item: truck{ID: "t2", Lat: 33.51, Lon: -112.26, Speed: 40, Load: 1}, Distance: 120.5},
		{Item: truck{ID: "t1", Lat: 33.6, Lon: -112.3, Speed: 90}, Distance: 1500},
	}
	if !reflect.DeepEqual(hits, want) {
		t.Errorf("hits = %+v, want %+v", hits, want)
	}
}

func TestCollection_NearbyDefaults(t *testing.T) {
	c, ft := newTestClient(t, `{"ok":true,"points":[],"count":0,"cursor":0}`)
	trucks, err := NewCollection[truck](c, "fleet")
	if err != nil {
		t.Fatalf("NewCollection: %v", err)
	}
	hits, err := trucks.Nearby().Near(1, 2).Do(context.Background())
	if err != nil {
		t.Fatalf("Do: %v", err)
	}
	if len(hits) != 0 {
		t.Errorf("hits = %v", hits)
	}
	want := []string{"fleet", "LIMIT", "10", "DISTANCE", "POINTS", "POINT", "1", "2"}
	if !reflect.DeepEqual(ft.sent[0].args, want) {
		t.Errorf("args = %v, want %v", ft.sent[0].args, want)
	}
}

func TestCollection_CountDeleteDrop(t *testing.T) {
	c, ft := newTestClient(t, `{"ok":true,"count":12,"cursor":0}`, `{"ok":true}`, `{"ok":true}`)
	trucks, err := NewCollection[truck](c, "fleet")
	if err != nil {
		t.Fatalf("NewCollection: %v", err)
	}
	ctx := context.Background()

	n, err := trucks.Count(ctx)
	if err != nil || n != 12 {
		t.Fatalf("Count = %d, %v", n, err)
	}
	if err := trucks.Delete(ctx, "t1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if err := trucks.Drop(ctx); err != nil {
		t.Fatalf("Drop: %v", err)
	}

	want := []sent{
		{verb: "SCAN", args: []string{"fleet", "COUNT"}},
		{verb: "DEL", args: []string{"fleet", "t1"}},
		{verb: "DROP", args: []string{"fleet"}},
	}
	if !reflect.DeepEqual(ft.sent, want) {
		t.Errorf("sent = %+v, want %+v", ft.sent, want)
	}
}

func TestRawFieldValues_NonNumeric(t *testing.T) {
	c, _ := newTestClient(t, `{"ok":true,"point":{"lat":1,"lon":2},"fields":{"speed":"fast"}}`)
	trucks, err := NewCollection[truck](c, "fleet")
	if err != nil {
		t.Fatalf("NewCollection: %v", err)
	}
	if _, err := trucks.Get(context.Background(), "t1"); !errors.Is(err, ErrDecode) {
		t.Errorf("err = %v, want ErrDecode", err)
	}
}

func TestCollection_PointerType(t *testing.T) {
	c, ft := newTestClient(t, `{"ok":true}`, `{"ok":true,"point":{"lat":1,"lon":2},"fields":{"speed":5}}`)
	trucks, err := NewCollection[*truck](c, "fleet")
	if err != nil {
		t.Fatalf("NewCollection: %v", err)
	}
	ctx := context.Background()

	if err := trucks.Upsert(ctx, &truck{ID: "t1", Lat: 1, Lon: 2, Speed: 5}); err != nil {
		t.Fatalf("Upsert: %v", err)
	}
	got, err := trucks.Get(ctx, "t1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got == nil || *got != (truck{ID: "t1", Lat: 1, Lon: 2, Speed: 5}) {
		t.Errorf("got %+v", got)
	}
	if ft.sent[0].args[1] != "t1" {
		t.Errorf("SET args = %v", ft.sent[0].args)
	}
}

func TestCollection_NilPointerItem(t *testing.T) {
	c, ft := newTestClient(t, `{"ok":true}`)
	trucks, err := NewCollection[*truck](c, "fleet")
	if err != nil {
		t.Fatalf("NewCollection: %v", err)
	}
	ctx := context.Background()

	if err := trucks.Upsert(ctx, nil); !errors.Is(err, ErrInvalidState) {
		t.Errorf("Upsert(nil) err = %v, want ErrInvalidState", err)
	}

	results, err := trucks.UpsertBatch(ctx, []*truck{nil, {ID: "t2", Lat: 1, Lon: 2}})
	if err != nil {
		t.Fatalf("UpsertBatch: %v", err)
	}
	if len(results) != 2 || !errors.Is(results[0].Err, ErrInvalidState) || results[1].Err != nil {
		t.Errorf("results = %+v", results)
	}

	if _, err := trucks.SetQuery(nil).Compile(); !errors.Is(err, ErrInvalidState) {
		t.Errorf("SetQuery(nil) err = %v, want ErrInvalidState", err)
	}
	if len(ft.sent) != 1 || ft.sent[0].args[1] != "t2" {
		t.Errorf("sent = %+v, want only t2", ft.sent)
	}
}
