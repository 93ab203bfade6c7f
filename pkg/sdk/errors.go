package campusnav

import "github.com/kailas-cloud/campusnav/internal/domain"

// Sentinel errors re-exported from the domain layer.
// Use errors.Is() to check.
var (
	ErrNotFound         = domain.ErrNotFound
	ErrBuildingNotFound = domain.ErrBuildingNotFound
	ErrAlreadyExists    = domain.ErrAlreadyExists
	ErrInvalidBuilding  = domain.ErrInvalidBuilding
	ErrInvalidRequest   = domain.ErrInvalidRequest
	ErrRevisionConflict = domain.ErrRevisionConflict
)
