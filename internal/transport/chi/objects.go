package chi

import (
	"encoding/json"
	"net/http"
	"slices"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/kailas-cloud/geo38"
	"github.com/kailas-cloud/geo38/internal/geo"
)

type pointInput struct {
	Lat    float64  `json:"lat"`
	Lon    float64  `json:"lon"`
	Z      *float64 `json:"z,omitempty"`
	Radius *float64 `json:"radius,omitempty"`
}

type setRequest struct {
	Object json.RawMessage    `json:"object,omitempty"`
	Point  *pointInput        `json:"point,omitempty"`
	Bounds *geo38.Bounds      `json:"bounds,omitempty"`
	Hash   string             `json:"hash,omitempty"`
	String *string            `json:"string,omitempty"`
	Fields map[string]float64 `json:"fields,omitempty"`
	Ex     int                `json:"ex,omitempty"`
	Mode   string             `json:"mode,omitempty"` // nx or xx
}

type fieldsRequest struct {
	Fields map[string]float64 `json:"fields"`
	XX     bool               `json:"xx,omitempty"`
}

type expireRequest struct {
	Seconds int `json:"seconds"`
}

// sortedFields returns field names in a stable order so compiled commands
// do not depend on map iteration.
func sortedFields(fields map[string]float64) []string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// ListKeys handles GET /v1/keys?pattern=...
func (s *Server) ListKeys(w http.ResponseWriter, r *http.Request) {
	pattern := r.URL.Query().Get("pattern")
	if pattern == "" {
		pattern = "*"
	}
	res, err := s.client.Keys(r.Context(), pattern)
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// DeleteKey handles DELETE /v1/keys/{key}. With ?pattern= only matching ids
// are removed (PDEL); otherwise the collection is dropped.
func (s *Server) DeleteKey(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")

	var (
		res *geo38.JSONResponse
		err error
	)
	if pattern := r.URL.Query().Get("pattern"); pattern != "" {
		res, err = s.client.PDel(key, pattern).Exec(r.Context())
	} else {
		res, err = s.client.Drop(key).Exec(r.Context())
	}
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// KeyBounds handles GET /v1/keys/{key}/bounds.
func (s *Server) KeyBounds(w http.ResponseWriter, r *http.Request) {
	res, err := s.client.KeyBounds(r.Context(), chi.URLParam(r, "key"))
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GetObject handles GET /v1/keys/{key}/objects/{id}?format=&precision=&withfields=.
func (s *Server) GetObject(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	get := s.client.Get(chi.URLParam(r, "key"), chi.URLParam(r, "id"))
	if withFields, _ := strconv.ParseBool(q.Get("withfields")); withFields {
		get.WithFields()
	}

	var (
		res any
		err error
	)
	switch strings.ToLower(q.Get("format")) {
	case "", "object":
		res, err = get.AsObject(r.Context())
	case "point":
		res, err = get.AsPoint(r.Context())
	case "bounds":
		res, err = get.AsBounds(r.Context())
	case "hash":
		precision, perr := strconv.Atoi(q.Get("precision"))
		if perr != nil {
			writeError(w, http.StatusBadRequest, codeBadRequest, "hash format requires an integer precision")
			return
		}
		res, err = get.AsHash(r.Context(), precision)
	default:
		writeError(w, http.StatusBadRequest, codeBadRequest, "unknown format "+strconv.Quote(q.Get("format")))
		return
	}
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// SetObject handles PUT /v1/keys/{key}/objects/{id}.
func (s *Server) SetObject(w http.ResponseWriter, r *http.Request) {
	var req setRequest
	if !s.decodeBody(w, r, &req) {
		return
	}

	set := s.client.Set(chi.URLParam(r, "key"), chi.URLParam(r, "id")).Ex(req.Ex)
	for _, name := range sortedFields(req.Fields) {
		set.Field(name, req.Fields[name])
	}
	switch strings.ToLower(req.Mode) {
	case "":
	case "nx":
		set.NX()
	case "xx":
		set.XX()
	default:
		writeError(w, http.StatusBadRequest, codeBadRequest, "mode must be \"nx\" or \"xx\"")
		return
	}

	inputs := 0
	if len(req.Object) > 0 {
		set.Object(req.Object)
		inputs++
	}
	if req.Point != nil {
		if req.Point.Z != nil {
			set.PointZ(req.Point.Lat, req.Point.Lon, *req.Point.Z)
		} else {
			set.Point(req.Point.Lat, req.Point.Lon)
		}
		inputs++
	}
	if req.Bounds != nil {
		set.Bounds(req.Bounds.MinLat, req.Bounds.MinLon, req.Bounds.MaxLat, req.Bounds.MaxLon)
		inputs++
	}
	if req.Hash != "" {
		set.Hash(req.Hash)
		inputs++
	}
	if req.String != nil {
		set.Text(*req.String)
		inputs++
	}
	if inputs != 1 {
		writeError(w, http.StatusBadRequest, codeBadRequest,
			"exactly one of object, point, bounds, hash or string is required")
		return
	}
	if (req.Point != nil && !geo.ValidCoordinates(req.Point.Lat, req.Point.Lon)) ||
		(req.Bounds != nil && !geo.ValidBounds(req.Bounds.MinLat, req.Bounds.MinLon, req.Bounds.MaxLat, req.Bounds.MaxLon)) {
		writeError(w, http.StatusBadRequest, codeBadRequest, "coordinates out of range")
		return
	}

	res, err := set.Exec(r.Context())
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// DeleteObject handles DELETE /v1/keys/{key}/objects/{id}.
func (s *Server) DeleteObject(w http.ResponseWriter, r *http.Request) {
	res, err := s.client.Del(chi.URLParam(r, "key"), chi.URLParam(r, "id")).Exec(r.Context())
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// SetFields handles PATCH /v1/keys/{key}/objects/{id}/fields.
func (s *Server) SetFields(w http.ResponseWriter, r *http.Request) {
	var req fieldsRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	fset := s.client.FSet(chi.URLParam(r, "key"), chi.URLParam(r, "id"))
	if req.XX {
		fset.XX()
	}
	for _, name := range sortedFields(req.Fields) {
		fset.Field(name, req.Fields[name])
	}
	res, err := fset.Exec(r.Context())
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// GetTTL handles GET /v1/keys/{key}/objects/{id}/ttl.
func (s *Server) GetTTL(w http.ResponseWriter, r *http.Request) {
	res, err := s.client.TTL(chi.URLParam(r, "key"), chi.URLParam(r, "id")).Exec(r.Context())
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Expire handles PUT /v1/keys/{key}/objects/{id}/expire.
func (s *Server) Expire(w http.ResponseWriter, r *http.Request) {
	var req expireRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if req.Seconds <= 0 {
		writeError(w, http.StatusBadRequest, codeBadRequest, "seconds must be positive")
		return
	}
	res, err := s.client.Expire(chi.URLParam(r, "key"), chi.URLParam(r, "id"), req.Seconds).Exec(r.Context())
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// Persist handles DELETE /v1/keys/{key}/objects/{id}/expire.
func (s *Server) Persist(w http.ResponseWriter, r *http.Request) {
	res, err := s.client.Persist(chi.URLParam(r, "key"), chi.URLParam(r, "id")).Exec(r.Context())
	if err != nil {
		s.handleError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
