package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"go.uber.org/zap"

	"github.com/kailas-cloud/campusnav/internal/domain"
	"github.com/kailas-cloud/campusnav/internal/domain/geo"
	"github.com/kailas-cloud/campusnav/internal/domain/search/request"
	"github.com/kailas-cloud/campusnav/internal/export/geojson"
	buildinguc "github.com/kailas-cloud/campusnav/internal/usecase/building"
	healthuc "github.com/kailas-cloud/campusnav/internal/usecase/health"
	imageuc "github.com/kailas-cloud/campusnav/internal/usecase/image"
	searchuc "github.com/kailas-cloud/campusnav/internal/usecase/search"
)

const (
	maxBodyBytes     = 1 << 20
	multipartMemory  = 8 << 20
	multipartOverrun = 1 << 20 // headers and boundaries on top of the file
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the HTTP handlers of the building API.
type Server struct {
	buildings     *buildinguc.Service
	images        *imageuc.Service
	search        *searchuc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	buildings *buildinguc.Service,
	images *imageuc.Service,
	search *searchuc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		buildings: buildings,
		images:    images,
		search:    search,
		health:    health,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		revisionConflictHandler,
		sentinelHandler(domain.ErrBuildingNotFound, http.StatusNotFound, CodeBuildingNotFound),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
		sentinelHandler(domain.ErrAlreadyExists, http.StatusConflict, CodeBuildingExists),
		sentinelHandler(domain.ErrInvalidBuilding, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrImageTooLarge, http.StatusRequestEntityTooLarge, CodeImageTooLarge),
		sentinelHandler(domain.ErrInvalidImage, http.StatusBadRequest, CodeInvalidImage),
		sentinelHandler(domain.ErrImageStorageDisabled, http.StatusNotImplemented, CodeImageStorageDisabled),
	}
	return s
}

// SearchBuildings handles GET /buildings/search.
func (s *Server) SearchBuildings(w http.ResponseWriter, r *http.Request) {
	var (
		q, category, department *string
		lat, lng                *float64
		limit                   *int
	)
	query := r.URL.Query()
	for name, dest := range map[string]any{
		"q": &q, "category": &category, "department": &department,
		"lat": &lat, "lng": &lng, "limit": &limit,
	} {
		if err := runtime.BindQueryParameter("form", true, false, name, query, dest); err != nil {
			writeError(w, http.StatusBadRequest, CodeBadRequest, fmt.Sprintf("Invalid parameter %s", name))
			return
		}
	}

	if (lat == nil) != (lng == nil) {
		s.handleDomainError(w, fmt.Errorf("%w: lat and lng must be provided together", domain.ErrInvalidRequest))
		return
	}
	var loc *geo.Point
	if lat != nil {
		loc = &geo.Point{Latitude: *lat, Longitude: *lng}
	}

	req, err := request.New(deref(q), loc, deref(limit), deref(category), deref(department))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	results, err := s.search.Search(r.Context(), &req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	items := make([]SearchResultItem, len(results))
	for i := range results {
		items[i] = searchResultToResponse(&results[i])
	}
	writeJSON(w, http.StatusOK, SearchResponse{
		Mode:  string(req.Mode()),
		Items: items,
		Total: len(items),
	})
}

// ListBuildings handles GET /buildings.
func (s *Server) ListBuildings(w http.ResponseWriter, r *http.Request) {
	var (
		cursor *string
		limit  *int
	)
	if err := runtime.BindQueryParameter("form", true, false, "cursor", r.URL.Query(), &cursor); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid parameter cursor")
		return
	}
	if err := runtime.BindQueryParameter("form", true, false, "limit", r.URL.Query(), &limit); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid parameter limit")
		return
	}
	if limit != nil && (*limit < 1 || *limit > s.buildings.MaxPageSize()) {
		writeError(w, http.StatusBadRequest, CodeValidationFailed,
			fmt.Sprintf("limit must be between 1 and %d", s.buildings.MaxPageSize()))
		return
	}

	page, next, err := s.buildings.Page(r.Context(), deref(cursor), deref(limit))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	resp := BuildingListResponse{
		Items:   make([]BuildingResponse, len(page)),
		HasMore: next != "",
	}
	for i := range page {
		resp.Items[i] = buildingToResponse(&page[i])
	}
	if next != "" {
		resp.NextCursor = &next
	}
	writeJSON(w, http.StatusOK, resp)
}

// ExportGeoJSON handles GET /buildings.geojson.
func (s *Server) ExportGeoJSON(w http.ResponseWriter, r *http.Request) {
	all, err := s.buildings.List(r.Context())
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	data, err := geojson.Encode(all)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/geo+json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// CreateBuilding handles POST /buildings.
func (s *Server) CreateBuilding(w http.ResponseWriter, r *http.Request) {
	var req BuildingRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	attrs, err := buildingFromRequest(&req)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	b, err := s.buildings.Create(r.Context(), attrs)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	w.Header().Set("Location", "/api/v1/buildings/"+b.Slug())
	w.Header().Set("ETag", etag(b.Revision()))
	writeJSON(w, http.StatusCreated, buildingToResponse(&b))
}

// GetBuilding handles GET /buildings/{ref}.
func (s *Server) GetBuilding(w http.ResponseWriter, r *http.Request) {
	b, err := s.buildings.Get(r.Context(), chi.URLParam(r, "ref"))
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.Header().Set("ETag", etag(b.Revision()))
	writeJSON(w, http.StatusOK, buildingToResponse(&b))
}

// ReplaceBuilding handles PUT /buildings/{ref}.
func (s *Server) ReplaceBuilding(w http.ResponseWriter, r *http.Request) {
	ifMatch, err := parseIfMatch(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	var req BuildingRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	attrs, err := buildingFromRequest(&req)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	b, err := s.buildings.Replace(r.Context(), chi.URLParam(r, "ref"), attrs, ifMatch)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.Header().Set("ETag", etag(b.Revision()))
	writeJSON(w, http.StatusOK, buildingToResponse(&b))
}

// PatchBuilding handles PATCH /buildings/{ref}.
func (s *Server) PatchBuilding(w http.ResponseWriter, r *http.Request) {
	ifMatch, err := parseIfMatch(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, err.Error())
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return
	}
	p, err := patchFromJSON(body)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, err.Error())
		return
	}

	b, err := s.buildings.Patch(r.Context(), chi.URLParam(r, "ref"), p, ifMatch)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.Header().Set("ETag", etag(b.Revision()))
	writeJSON(w, http.StatusOK, buildingToResponse(&b))
}

// DeleteBuilding handles DELETE /buildings/{ref}.
func (s *Server) DeleteBuilding(w http.ResponseWriter, r *http.Request) {
	if err := s.buildings.Delete(r.Context(), chi.URLParam(r, "ref")); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// UploadImage handles PUT /buildings/{ref}/image (multipart field "file").
func (s *Server) UploadImage(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.images.MaxBytes()+multipartOverrun)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			s.handleDomainError(w, domain.ErrImageTooLarge)
			return
		}
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid multipart body")
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeValidationFailed, "file field is required")
		return
	}
	defer func() { _ = file.Close() }()

	if ct := header.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "image/") {
		s.handleDomainError(w, fmt.Errorf("%w: content type %s", domain.ErrInvalidImage, ct))
		return
	}

	b, err := s.images.Upload(r.Context(), chi.URLParam(r, "ref"), header.Filename, file)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.Header().Set("ETag", etag(b.Revision()))
	writeJSON(w, http.StatusOK, buildingToResponse(&b))
}

// DeleteImage handles DELETE /buildings/{ref}/image.
func (s *Server) DeleteImage(w http.ResponseWriter, r *http.Request) {
	if _, err := s.images.Delete(r.Context(), chi.URLParam(r, "ref")); err != nil {
		s.handleDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// parseIfMatch reads an optional If-Match revision ("3" or 3). Missing means 0.
func parseIfMatch(r *http.Request) (int, error) {
	v := strings.TrimSpace(r.Header.Get("If-Match"))
	if v == "" || v == "*" {
		return 0, nil
	}
	v = strings.TrimPrefix(v, "W/")
	if unq, err := strconv.Unquote(v); err == nil {
		v = unq
	}
	rev, err := strconv.Atoi(v)
	if err != nil || rev < 1 {
		return 0, fmt.Errorf("If-Match must be a positive revision number")
	}
	return rev, nil
}

func etag(revision int) string {
	return strconv.Quote(strconv.Itoa(revision))
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
// Validation errors keep their detail since it only describes client input.
func safeDomainMessage(err error) string {
	if errors.Is(err, domain.ErrInvalidBuilding) || errors.Is(err, domain.ErrInvalidRequest) ||
		errors.Is(err, domain.ErrInvalidImage) {
		return err.Error()
	}
	sentinels := []error{
		domain.ErrBuildingNotFound,
		domain.ErrNotFound,
		domain.ErrAlreadyExists,
		domain.ErrRevisionConflict,
		domain.ErrImageTooLarge,
		domain.ErrImageStorageDisabled,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// revisionConflictHandler handles ErrRevisionConflict with ETag header and extra fields.
func revisionConflictHandler(w http.ResponseWriter, err error, msg string) bool {
	if !errors.Is(err, domain.ErrRevisionConflict) {
		return false
	}
	var rce *domain.RevisionConflictError
	if errors.As(err, &rce) {
		w.Header().Set("ETag", etag(rce.CurrentRevision))
		writeJSON(w, http.StatusConflict, map[string]any{
			"code":             CodeRevisionConflict,
			"message":          msg,
			"current_revision": rce.CurrentRevision,
		})
		return true
	}
	writeError(w, http.StatusConflict, CodeRevisionConflict, msg)
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
