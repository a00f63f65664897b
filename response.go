package geo38

import "encoding/json"

// OutputFormat selects the shape of search results.
type OutputFormat string

// Search output formats. OutputObjects is the server default.
const (
	OutputObjects OutputFormat = "OBJECTS"
	OutputIDs     OutputFormat = "IDS"
	OutputPoints  OutputFormat = "POINTS"
	OutputHashes  OutputFormat = "HASHES"
	OutputBounds  OutputFormat = "BOUNDS"
	OutputCount   OutputFormat = "COUNT"
)

// GetFormat selects the shape of a GET reply.
type GetFormat string

// GET output formats. GetObject is the server default.
const (
	GetObject GetFormat = "OBJECT"
	GetPoint  GetFormat = "POINT"
	GetBounds GetFormat = "BOUNDS"
	GetHash   GetFormat = "HASH"
)

// Point is a geographic position. Z is set only for objects stored with elevation.
type Point struct {
	Lat float64  `json:"lat"`
	Lon float64  `json:"lon"`
	Z   *float64 `json:"z,omitempty"`
}

// Bounds is a bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLat float64 `json:"max_lat"`
	MaxLon float64 `json:"max_lon"`
}

// Meta is reply metadata copied verbatim from the server.
type Meta struct {
	Elapsed string `json:"elapsed,omitempty"`
	Cursor  int    `json:"cursor"`
	Count   int    `json:"count"`
	// Fields names the per-entry field values, in order.
	Fields []string `json:"fields,omitempty"`
}

// Response is a decoded search reply. The concrete type is determined by
// the requested OutputFormat:
//
//	OutputObjects -> *ObjectsResponse
//	OutputIDs     -> *IDsResponse
//	OutputPoints  -> *PointsResponse
//	OutputHashes  -> *HashesResponse
//	OutputBounds  -> *BoundsResponse
//	OutputCount   -> *CountResponse
type Response interface {
	Format() OutputFormat
	Metadata() Meta
	isResponse()
}

// ObjectEntry is one OBJECTS result.
type ObjectEntry struct {
	ID     string `json:"id"`
	Object Object `json:"object"`
	Fields []any  `json:"fields,omitempty"`
	// Distance from the search point in meters, set by DISTANCE.
	Distance *float64 `json:"distance,omitempty"`
}

// ObjectsResponse holds OBJECTS results.
type ObjectsResponse struct {
	Meta
	Objects []ObjectEntry `json:"objects"`
}

// IDsResponse holds IDS results.
type IDsResponse struct {
	Meta
	IDs []string `json:"ids"`
}

// PointEntry is one POINTS result.
type PointEntry struct {
	ID     string `json:"id"`
	Point  Point  `json:"point"`
	Fields []any  `json:"fields,omitempty"`
	// Distance from the search point in meters, set by DISTANCE.
	Distance *float64 `json:"distance,omitempty"`
}

// PointsResponse holds POINTS results.
type PointsResponse struct {
	Meta
	Points []PointEntry `json:"points"`
}

// HashEntry is one HASHES result.
type HashEntry struct {
	ID     string `json:"id"`
	Hash   string `json:"hash"`
	Fields []any  `json:"fields,omitempty"`
	// Distance from the search point in meters, set by DISTANCE.
	Distance *float64 `json:"distance,omitempty"`
}

// HashesResponse holds HASHES results at the requested precision.
type HashesResponse struct {
	Meta
	Precision int         `json:"precision"`
	Hashes    []HashEntry `json:"hashes"`
}

// BoundsEntry is one BOUNDS result.
type BoundsEntry struct {
	ID     string `json:"id"`
	Bounds Bounds `json:"bounds"`
	Fields []any  `json:"fields,omitempty"`
	// Distance from the search point in meters, set by DISTANCE.
	Distance *float64 `json:"distance,omitempty"`
}

// BoundsResponse holds BOUNDS results.
type BoundsResponse struct {
	Meta
	Bounds []BoundsEntry `json:"bounds"`
}

// CountResponse holds a COUNT result; the count is Meta.Count.
type CountResponse struct {
	Meta
}

func (*ObjectsResponse) Format() OutputFormat { return OutputObjects }
func (*IDsResponse) Format() OutputFormat     { return OutputIDs }
func (*PointsResponse) Format() OutputFormat  { return OutputPoints }
func (*HashesResponse) Format() OutputFormat  { return OutputHashes }
func (*BoundsResponse) Format() OutputFormat  { return OutputBounds }
func (*CountResponse) Format() OutputFormat   { return OutputCount }

func (r *ObjectsResponse) Metadata() Meta { return r.Meta }
func (r *IDsResponse) Metadata() Meta     { return r.Meta }
func (r *PointsResponse) Metadata() Meta  { return r.Meta }
func (r *HashesResponse) Metadata() Meta  { return r.Meta }
func (r *BoundsResponse) Metadata() Meta  { return r.Meta }
func (r *CountResponse) Metadata() Meta   { return r.Meta }

func (*ObjectsResponse) isResponse() {}
func (*IDsResponse) isResponse()     {}
func (*PointsResponse) isResponse()  {}
func (*HashesResponse) isResponse()  {}
func (*BoundsResponse) isResponse()  {}
func (*CountResponse) isResponse()   {}

// JSONResponse is the reply of commands that only acknowledge success.
type JSONResponse struct {
	Elapsed string `json:"elapsed,omitempty"`
}

// GetResponse is a decoded GET reply: *GetObjectResponse, *GetPointResponse,
// *GetBoundsResponse or *GetHashResponse.
type GetResponse interface {
	isGetResponse()
}

func (*GetObjectResponse) isGetResponse() {}
func (*GetPointResponse) isGetResponse()  {}
func (*GetBoundsResponse) isGetResponse() {}
func (*GetHashResponse) isGetResponse()   {}

// GetObjectResponse is a GET reply in object form.
type GetObjectResponse struct {
	Elapsed string                     `json:"elapsed,omitempty"`
	Object  Object                     `json:"object"`
	Fields  map[string]json.RawMessage `json:"fields,omitempty"`
}

// GetPointResponse is a GET ... POINT reply.
type GetPointResponse struct {
	Elapsed string                     `json:"elapsed,omitempty"`
	Point   Point                      `json:"point"`
	Fields  map[string]json.RawMessage `json:"fields,omitempty"`
}

// GetBoundsResponse is a GET ... BOUNDS reply.
type GetBoundsResponse struct {
	Elapsed string                     `json:"elapsed,omitempty"`
	Bounds  Bounds                     `json:"bounds"`
	Fields  map[string]json.RawMessage `json:"fields,omitempty"`
}

// GetHashResponse is a GET ... HASH reply.
type GetHashResponse struct {
	Elapsed   string                     `json:"elapsed,omitempty"`
	Precision int                        `json:"precision"`
	Hash      string                     `json:"hash"`
	Fields    map[string]json.RawMessage `json:"fields,omitempty"`
}

// TTLResponse is a TTL reply. TTL is in seconds; -1 means no expiry.
type TTLResponse struct {
	Elapsed string  `json:"elapsed,omitempty"`
	TTL     float64 `json:"ttl"`
}

// KeysResponse is a KEYS reply.
type KeysResponse struct {
	Elapsed string   `json:"elapsed,omitempty"`
	Keys    []string `json:"keys"`
}

// KeyBoundsResponse is a BOUNDS key reply: the minimum bounding polygon of a collection.
type KeyBoundsResponse struct {
	Elapsed string `json:"elapsed,omitempty"`
	Bounds  Object `json:"bounds"`
}

// PingResponse is a PING reply.
type PingResponse struct {
	Elapsed string `json:"elapsed,omitempty"`
	Ping    string `json:"ping"`
}
