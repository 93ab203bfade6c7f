package chi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"

	dombuilding "github.com/kailas-cloud/campusnav/internal/domain/building"
	"github.com/kailas-cloud/campusnav/internal/domain/building/patch"
	"github.com/kailas-cloud/campusnav/internal/domain/geo"
	"github.com/kailas-cloud/campusnav/internal/domain/search/result"
)

// ErrorCode is the machine-readable error identifier.
type ErrorCode string

// Error codes.
const (
	CodeBadRequest           ErrorCode = "bad_request"
	CodeUnauthorized         ErrorCode = "unauthorized"
	CodeValidationFailed     ErrorCode = "validation_failed"
	CodeNotFound             ErrorCode = "not_found"
	CodeBuildingNotFound     ErrorCode = "building_not_found"
	CodeBuildingExists       ErrorCode = "building_already_exists"
	CodeRevisionConflict     ErrorCode = "revision_conflict"
	CodeInvalidImage         ErrorCode = "invalid_image"
	CodeImageTooLarge        ErrorCode = "image_too_large"
	CodeImageStorageDisabled ErrorCode = "image_storage_disabled"
	CodeInternalError        ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-2xx response.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// BuildingRequest is the body of POST and PUT building requests.
type BuildingRequest struct {
	ID           string                    `json:"id,omitempty"`
	Slug         string                    `json:"slug,omitempty"`
	Name         string                    `json:"name"`
	ShortName    string                    `json:"short_name,omitempty"`
	Description  string                    `json:"description,omitempty"`
	Coordinates  *geo.Point                `json:"coordinates"`
	Category     string                    `json:"category,omitempty"`
	Department   string                    `json:"department,omitempty"`
	Keywords     []string                  `json:"keywords,omitempty"`
	Facilities   []string                  `json:"facilities,omitempty"`
	Entrances    []dombuilding.Entrance    `json:"entrances,omitempty"`
	Floors       []dombuilding.Floor       `json:"floors,omitempty"`
	OpeningHours *dombuilding.OpeningHours `json:"opening_hours,omitempty"`
	Metadata     map[string]any            `json:"metadata,omitempty"`
}

// BuildingResponse is the full building representation.
type BuildingResponse struct {
	ID           string                    `json:"id"`
	Slug         string                    `json:"slug"`
	Name         string                    `json:"name"`
	ShortName    string                    `json:"short_name,omitempty"`
	Description  string                    `json:"description,omitempty"`
	Coordinates  geo.Point                 `json:"coordinates"`
	Category     string                    `json:"category,omitempty"`
	Department   string                    `json:"department,omitempty"`
	Keywords     []string                  `json:"keywords"`
	Facilities   []string                  `json:"facilities"`
	Entrances    []dombuilding.Entrance    `json:"entrances,omitempty"`
	Floors       []dombuilding.Floor       `json:"floors,omitempty"`
	OpeningHours *dombuilding.OpeningHours `json:"opening_hours,omitempty"`
	ImageURL     string                    `json:"image_url,omitempty"`
	ThumbnailURL string                    `json:"thumbnail_url,omitempty"`
	Metadata     map[string]any            `json:"metadata,omitempty"`
	Revision     int                       `json:"revision"`
	CreatedAt    int64                     `json:"created_at"`
	UpdatedAt    int64                     `json:"updated_at"`
}

// BuildingListResponse is a cursor page of buildings.
type BuildingListResponse struct {
	Items      []BuildingResponse `json:"items"`
	NextCursor *string            `json:"next_cursor,omitempty"`
	HasMore    bool               `json:"has_more"`
}

// SearchResultItem is one ranked building.
type SearchResultItem struct {
	ID           string    `json:"id"`
	Slug         string    `json:"slug"`
	Name         string    `json:"name"`
	ShortName    string    `json:"short_name,omitempty"`
	Description  string    `json:"description,omitempty"`
	Coordinates  geo.Point `json:"coordinates"`
	Category     string    `json:"category,omitempty"`
	Department   string    `json:"department,omitempty"`
	ThumbnailURL string    `json:"thumbnail_url,omitempty"`
	DistanceKm   *float64  `json:"distance_km,omitempty"`
	Score        *float64  `json:"score,omitempty"`
}

// SearchResponse wraps search results.
type SearchResponse struct {
	Mode  string             `json:"mode"`
	Items []SearchResultItem `json:"items"`
	Total int                `json:"total"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

func buildingFromRequest(req *BuildingRequest) (dombuilding.Attributes, error) {
	if req.Coordinates == nil {
		return dombuilding.Attributes{}, errors.New("coordinates are required")
	}
	return dombuilding.Attributes{
		ID:           req.ID,
		Slug:         req.Slug,
		Name:         req.Name,
		ShortName:    req.ShortName,
		Description:  req.Description,
		Coordinates:  *req.Coordinates,
		Category:     req.Category,
		Department:   req.Department,
		Keywords:     req.Keywords,
		Facilities:   req.Facilities,
		Entrances:    req.Entrances,
		Floors:       req.Floors,
		OpeningHours: req.OpeningHours,
		Metadata:     req.Metadata,
	}, nil
}

func buildingToResponse(b *dombuilding.Building) BuildingResponse {
	a := b.Attributes()
	resp := BuildingResponse{
		ID:           a.ID,
		Slug:         a.Slug,
		Name:         a.Name,
		ShortName:    a.ShortName,
		Description:  a.Description,
		Coordinates:  a.Coordinates,
		Category:     a.Category,
		Department:   a.Department,
		Keywords:     a.Keywords,
		Facilities:   a.Facilities,
		Entrances:    a.Entrances,
		Floors:       a.Floors,
		OpeningHours: a.OpeningHours,
		ImageURL:     a.ImageURL,
		ThumbnailURL: a.ThumbnailURL,
		Metadata:     a.Metadata,
		Revision:     b.Revision(),
		CreatedAt:    b.CreatedAt(),
		UpdatedAt:    b.UpdatedAt(),
	}
	if resp.Keywords == nil {
		resp.Keywords = []string{}
	}
	if resp.Facilities == nil {
		resp.Facilities = []string{}
	}
	return resp
}

func searchResultToResponse(r *result.Result) SearchResultItem {
	return SearchResultItem{
		ID:           r.ID(),
		Slug:         r.Slug(),
		Name:         r.Name(),
		ShortName:    r.ShortName(),
		Description:  r.Description(),
		Coordinates:  r.Coordinates(),
		Category:     r.Category(),
		Department:   r.Department(),
		ThumbnailURL: r.ThumbnailURL(),
		DistanceKm:   r.DistanceKm(),
		Score:        r.Score(),
	}
}

// patchFromJSON decodes a PATCH body. An explicit null clears optional fields;
// absent keys are left untouched.
func patchFromJSON(body []byte) (patch.Patch, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return patch.Patch{}, fmt.Errorf("invalid request body: %w", err)
	}

	var f patch.Fields
	for key, val := range raw {
		var err error
		switch key {
		case "id":
			return patch.Patch{}, errors.New("id is immutable")
		case "slug":
			f.Slug, err = optString(val)
		case "name":
			f.Name, err = optString(val)
		case "short_name":
			f.ShortName, err = optString(val)
		case "description":
			f.Description, err = optString(val)
		case "category":
			f.Category, err = optString(val)
		case "department":
			f.Department, err = optString(val)
		case "coordinates":
			if isNull(val) {
				return patch.Patch{}, errors.New("coordinates cannot be cleared")
			}
			var p geo.Point
			err = json.Unmarshal(val, &p)
			f.Coordinates = &p
		case "keywords":
			f.Keywords, err = optSlice[string](val)
		case "facilities":
			f.Facilities, err = optSlice[string](val)
		case "entrances":
			f.Entrances, err = optSlice[dombuilding.Entrance](val)
		case "floors":
			f.Floors, err = optSlice[dombuilding.Floor](val)
		case "opening_hours":
			var oh *dombuilding.OpeningHours
			if !isNull(val) {
				oh = &dombuilding.OpeningHours{}
				err = json.Unmarshal(val, oh)
			}
			f.OpeningHours = &oh
		case "metadata":
			if !isNull(val) {
				err = json.Unmarshal(val, &f.Metadata)
			}
		default:
			return patch.Patch{}, fmt.Errorf("unknown field %q", key)
		}
		if err != nil {
			return patch.Patch{}, fmt.Errorf("field %s: %w", key, err)
		}
	}
	return patch.New(f)
}

func isNull(val json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(val), []byte("null"))
}

func optString(val json.RawMessage) (*string, error) {
	s := ""
	if isNull(val) {
		return &s, nil
	}
	if err := json.Unmarshal(val, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func optSlice[T any](val json.RawMessage) (*[]T, error) {
	var out []T
	if isNull(val) {
		return &out, nil
	}
	if err := json.Unmarshal(val, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
