package geo38

import (
	"fmt"
	"reflect"
	"strings"
)

const tagKey = "geo38"

// schemaMeta holds parsed struct tag metadata, cached per Collection.
type schemaMeta struct {
	typ reflect.Type
	ptr bool // T is *struct

	idIdx  int
	latIdx int
	lonIdx int
	zIdx   int // -1 when the type has no elevation

	fields []fieldMapping
}

type fieldMapping struct {
	structIdx int
	name      string
}

// parseSchema reflects on T and extracts geo38 struct tag metadata.
//
//	type Truck struct {
//		ID    string  `geo38:"id,id"`
//		Lat   float64 `geo38:"lat,lat"`
//		Lon   float64 `geo38:"lon,lon"`
//		Speed float64 `geo38:"speed,field"`
//	}
func parseSchema[T any]() (*schemaMeta, error) {
	var zero T
	t := reflect.TypeOf(zero)
	if t == nil {
		return nil, fmt.Errorf("geo38: type parameter must be a struct")
	}
	ptr := t.Kind() == reflect.Pointer
	if ptr {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("geo38: type %s is not a struct", t)
	}

	meta := &schemaMeta{typ: t, ptr: ptr, idIdx: -1, latIdx: -1, lonIdx: -1, zIdx: -1}

	for i := range t.NumField() {
		f := t.Field(i)
		tag := f.Tag.Get(tagKey)
		if tag == "" || tag == "-" {
			continue
		}
		if err := applyTag(meta, i, f, tag); err != nil {
			return nil, err
		}
	}

	return validateSchema(meta, t)
}

func applyTag(meta *schemaMeta, idx int, f reflect.StructField, tag string) error {
	name, modifier, _ := strings.Cut(tag, ",")
	if name == "" {
		name = f.Name
	}

	single := func(dst *int, what string) error {
		if *dst != -1 {
			return fmt.Errorf("geo38: duplicate %s tag on field %s", what, f.Name)
		}
		if what != "id" && !isNumeric(f.Type.Kind()) {
			return fmt.Errorf("geo38: %s field %s must be numeric", what, f.Name)
		}
		*dst = idx
		return nil
	}

	switch modifier {
	case "id":
		if f.Type.Kind() != reflect.String {
			return fmt.Errorf("geo38: id field %s must be a string", f.Name)
		}
		return single(&meta.idIdx, "id")
	case "lat":
		return single(&meta.latIdx, "lat")
	case "lon":
		return single(&meta.lonIdx, "lon")
	case "z":
		return single(&meta.zIdx, "z")
	case "field":
		if !isNumeric(f.Type.Kind()) {
			return fmt.Errorf("geo38: field %s must be numeric", f.Name)
		}
		meta.fields = append(meta.fields, fieldMapping{structIdx: idx, name: name})
	default:
		return fmt.Errorf("geo38: unknown modifier %q on field %s", modifier, f.Name)
	}
	return nil
}

func validateSchema(meta *schemaMeta, t reflect.Type) (*schemaMeta, error) {
	if meta.idIdx == -1 {
		return nil, fmt.Errorf("geo38: no field with `geo38:\"...,id\"` tag in %s", t)
	}
	if meta.latIdx == -1 || meta.lonIdx == -1 {
		return nil, fmt.Errorf("geo38: lat and lon must both be present in %s", t)
	}
	return meta, nil
}

// id returns the item's id, or "" for a nil item.
func (m *schemaMeta) id(item any) string {
	v, ok := m.value(item)
	if !ok {
		return ""
	}
	return v.Field(m.idIdx).String()
}

// applySet fills a SET builder from item: every field, then the point.
// A nil item leaves q without input, so it fails to compile.
func (m *schemaMeta) applySet(q *SetQuery, item any) {
	v, ok := m.value(item)
	if !ok {
		return
	}
	for _, f := range m.fields {
		q.Field(f.name, toFloat64(v.Field(f.structIdx)))
	}
	lat := toFloat64(v.Field(m.latIdx))
	lon := toFloat64(v.Field(m.lonIdx))
	if m.zIdx != -1 {
		q.PointZ(lat, lon, toFloat64(v.Field(m.zIdx)))
		return
	}
	q.Point(lat, lon)
}

// build reconstructs an item. Fields missing from values keep their zero value.
func (m *schemaMeta) build(id string, p Point, values map[string]float64) any {
	v := reflect.New(m.typ).Elem()

	v.Field(m.idIdx).SetString(id)
	setFloat(v.Field(m.latIdx), p.Lat)
	setFloat(v.Field(m.lonIdx), p.Lon)
	if m.zIdx != -1 && p.Z != nil {
		setFloat(v.Field(m.zIdx), *p.Z)
	}
	for _, f := range m.fields {
		if val, ok := values[f.name]; ok {
			setFloat(v.Field(f.structIdx), val)
		}
	}
	if m.ptr {
		return v.Addr().Interface()
	}
	return v.Interface()
}

// value returns the struct behind item. ok is false for a nil pointer.
func (m *schemaMeta) value(item any) (reflect.Value, bool) {
	v := reflect.ValueOf(item)
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return reflect.Value{}, false
		}
		v = v.Elem()
	}
	return v, v.IsValid()
}

func (m *schemaMeta) checkItem(item any) error {
	if _, ok := m.value(item); !ok {
		return stateErr("nil item")
	}
	return nil
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Float32, reflect.Float64,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return true
	}
	return false
}

func toFloat64(v reflect.Value) float64 {
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		return v.Float()
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(v.Int())
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(v.Uint())
	default:
		return 0
	}
}

func setFloat(v reflect.Value, f float64) {
	switch v.Kind() {
	case reflect.Float32, reflect.Float64:
		v.SetFloat(f)
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v.SetInt(int64(f))
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v.SetUint(uint64(f))
	}
}
