package chi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kailas-cloud/geo38"
	"github.com/kailas-cloud/geo38/internal/geo"
)

type whereInput struct {
	Field string  `json:"field"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

type circleInput struct {
	Lat    float64 `json:"lat"`
	Lon    float64 `json:"lon"`
	Radius float64 `json:"radius"`
}

type tileInput struct {
	X int `json:"x"`
	Y int `json:"y"`
	Z int `json:"z"`
}

type refInput struct {
	Key string `json:"key"`
	ID  string `json:"id"`
}

type areaInput struct {
	Point   *pointInput     `json:"point,omitempty"`
	Circle  *circleInput    `json:"circle,omitempty"`
	Bounds  *geo38.Bounds   `json:"bounds,omitempty"`
	Object  json.RawMessage `json:"object,omitempty"`
	Hash    string          `json:"hash,omitempty"`
	Quadkey string          `json:"quadkey,omitempty"`
	Tile    *tileInput      `json:"tile,omitempty"`
	Get     *refInput       `json:"get,omitempty"`
}

type searchRequest struct {
	Match     string       `json:"match,omitempty"`
	Where     []whereInput `json:"where,omitempty"`
	NoFields  bool         `json:"nofields,omitempty"`
	Clip      bool         `json:"clip,omitempty"`
	Cursor    *int         `json:"cursor,omitempty"`
	Limit     *int         `json:"limit,omitempty"`
	Distance  bool         `json:"distance,omitempty"`
	Output    string       `json:"output,omitempty"` // objects, ids, points, hashes, bounds, count
	Precision int          `json:"precision,omitempty"`
	Area      *areaInput   `json:"area,omitempty"`
}

// validCoordinates reports whether every lat/lon pair in the area is in range.
func (a *areaInput) validCoordinates() bool {
	if a == nil {
		return true
	}
	if a.Point != nil && !geo.ValidCoordinates(a.Point.Lat, a.Point.Lon) {
		return false
	}
	if a.Circle != nil && !geo.ValidCoordinates(a.Circle.Lat, a.Circle.Lon) {
		return false
	}
	if a.Bounds != nil && !geo.ValidBounds(a.Bounds.MinLat, a.Bounds.MinLon, a.Bounds.MaxLat, a.Bounds.MaxLon) {
		return false
	}
	return true
}

// apply sets the single area on q. It returns the number of areas given.
func (a *areaInput) apply(q *geo38.SearchQuery) int {
	if a == nil {
		return 0
	}
	n := 0
	if a.Point != nil {
		if a.Point.Radius != nil {
			q.PointRadius(a.Point.Lat, a.Point.Lon, *a.Point.Radius)
		} else {
			q.Point(a.Point.Lat, a.Point.Lon)
		}
		n++
	}
	if a.Circle != nil {
		q.Circle(a.Circle.Lat, a.Circle.Lon, a.Circle.Radius)
		n++
	}
	if a.Bounds != nil {
		q.Bounds(a.Bounds.MinLat, a.Bounds.MinLon, a.Bounds.MaxLat, a.Bounds.MaxLon)
		n++
	}
	if len(a.Object) > 0 {
		q.Object(a.Object)
		n++
	}
	if a.Hash != "" {
		q.Hash(a.Hash)
		n++
	}
	if a.Quadkey != "" {
		q.Quadkey(a.Quadkey)
		n++
	}
	if a.Tile != nil {
		q.Tile(a.Tile.X, a.Tile.Y, a.Tile.Z)
		n++
	}
	if a.Get != nil {
		q.Get(a.Get.Key, a.Get.ID)
		n++
	}
	return n
}

// search returns the handler for POST /v1/keys/{key}/{within|intersects|nearby|scan}.
func (s *Server) search(verb geo38.Verb) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req searchRequest
		if !s.decodeBody(w, r, &req) {
			return
		}

		key := chi.URLParam(r, "key")
		var q *geo38.SearchQuery
		switch verb {
		case geo38.VerbWithin:
			q = s.client.Within(key)
		case geo38.VerbIntersects:
			q = s.client.Intersects(key)
		case geo38.VerbNearby:
			q = s.client.Nearby(key)
		default:
			q = s.client.Scan(key)
		}

		if req.Match != "" {
			q.Match(req.Match)
		}
		for _, wh := range req.Where {
			q.Where(wh.Field, wh.Min, wh.Max)
		}
		if req.NoFields {
			q.NoFields()
		}
		if req.Clip {
			q.Clip()
		}
		if req.Cursor != nil {
			q.Cursor(*req.Cursor)
		}
		switch {
		case req.Limit != nil && s.maxLimit > 0 && *req.Limit > s.maxLimit:
			writeError(w, http.StatusBadRequest, codeBadRequest, fmt.Sprintf("limit must not exceed %d", s.maxLimit))
			return
		case req.Limit != nil:
			q.Limit(*req.Limit)
		case s.defaultLimit > 0:
			q.Limit(s.defaultLimit)
		}
		if req.Distance {
			q.Distance()
		}
		if req.Output != "" {
			q.Output(geo38.OutputFormat(strings.ToUpper(req.Output)), req.Precision)
		}

		areas := req.Area.apply(q)
		switch {
		case verb == geo38.VerbScan && areas > 0:
			writeError(w, http.StatusBadRequest, codeBadRequest, "scan takes no area")
			return
		case verb != geo38.VerbScan && areas != 1:
			writeError(w, http.StatusBadRequest, codeBadRequest, "exactly one area is required")
			return
		case !req.Area.validCoordinates():
			writeError(w, http.StatusBadRequest, codeBadRequest, "coordinates out of range")
			return
		}

		res, err := q.Exec(r.Context())
		if err != nil {
			s.handleError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, res)
	}
}
