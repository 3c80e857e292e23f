package validation

import (
	"errors"
	"fmt"
	"regexp"

	"github.com/go-playground/validator/v10"

	"github.com/dd0wney/cluso-resilience/pkg/graph"
)

var (
	validate *validator.Validate

	MaxMetadataEntries = 50
	MaxMetadataKey     = 64
	MaxPathsPerRequest = 50

	metadataKeyPattern = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_.-]*$`)
)

func init() {
	validate = validator.New()
}

// FieldError reports the first invalid field of a request.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string {
	return e.Field + ": " + e.Message
}

// IsValidationError reports whether err came from this package.
func IsValidationError(err error) bool {
	var fe *FieldError
	return errors.As(err, &fe)
}

// DisruptionRequest names a node or a route to take out of the network.
type DisruptionRequest struct {
	NodeID     string `json:"nodeId" validate:"omitempty,max=128"`
	EdgeSource string `json:"edgeSource" validate:"omitempty,max=128"`
	EdgeTarget string `json:"edgeTarget" validate:"omitempty,max=128"`
}

// PathRequest asks for alternative routes between two facilities.
type PathRequest struct {
	Source   string `json:"source" validate:"required,max=128"`
	Target   string `json:"target" validate:"required,max=128"`
	MaxPaths int    `json:"maxPaths" validate:"omitempty,min=1,max=50"`
}

func ValidateNodeRecord(rec *graph.NodeRecord) error {
	if rec == nil {
		return &FieldError{Field: "node", Message: "cannot be nil"}
	}
	if err := validate.Struct(rec); err != nil {
		return formatValidationError(err)
	}
	return validateMetadata(rec.Metadata)
}

func ValidateRouteRecord(rec *graph.RouteRecord) error {
	if rec == nil {
		return &FieldError{Field: "route", Message: "cannot be nil"}
	}
	if err := validate.Struct(rec); err != nil {
		return formatValidationError(err)
	}
	if rec.Source == rec.Target {
		return &FieldError{Field: "Target", Message: "route cannot start and end at the same node"}
	}
	return validateMetadata(rec.Metadata)
}

// ValidateDisruptionRequest checks field lengths and that exactly one of a
// node or a complete edge is named.
func ValidateDisruptionRequest(req *DisruptionRequest) error {
	if req == nil {
		return &FieldError{Field: "request", Message: "cannot be nil"}
	}
	if err := validate.Struct(req); err != nil {
		return formatValidationError(err)
	}
	hasEdge := req.EdgeSource != "" || req.EdgeTarget != ""
	switch {
	case req.NodeID == "" && !hasEdge:
		return &FieldError{Field: "nodeId", Message: "provide either nodeId or both edgeSource and edgeTarget"}
	case req.NodeID != "" && hasEdge:
		return &FieldError{Field: "nodeId", Message: "nodeId and edge fields are mutually exclusive"}
	case req.NodeID == "" && (req.EdgeSource == "" || req.EdgeTarget == ""):
		return &FieldError{Field: "edgeTarget", Message: "both edgeSource and edgeTarget are required"}
	}
	return nil
}

func ValidatePathRequest(req *PathRequest) error {
	if req == nil {
		return &FieldError{Field: "request", Message: "cannot be nil"}
	}
	if err := validate.Struct(req); err != nil {
		return formatValidationError(err)
	}
	return nil
}

func validateMetadata(m map[string]string) error {
	if len(m) > MaxMetadataEntries {
		return &FieldError{Field: "Metadata", Message: fmt.Sprintf("maximum %d entries allowed, got %d", MaxMetadataEntries, len(m))}
	}
	for key := range m {
		if len(key) > MaxMetadataKey {
			return &FieldError{Field: "Metadata", Message: fmt.Sprintf("key '%s' exceeds %d characters", key, MaxMetadataKey)}
		}
		if !metadataKeyPattern.MatchString(key) {
			return &FieldError{Field: "Metadata", Message: fmt.Sprintf("key '%s' is invalid", key)}
		}
	}
	return nil
}

// formatValidationError turns the first validator failure into a FieldError.
func formatValidationError(err error) error {
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) || len(validationErrs) == 0 {
		return err
	}

	e := validationErrs[0]
	field, param := e.Field(), e.Param()
	var msg string
	switch e.Tag() {
	case "required":
		msg = "field is required"
	case "min", "gte":
		msg = "must be at least " + param
	case "max", "lte":
		msg = "must not exceed " + param
	case "oneof":
		msg = "must be one of: " + param
	default:
		msg = fmt.Sprintf("validation failed (%s)", e.Tag())
	}
	return &FieldError{Field: field, Message: msg}
}
