package validation

import (
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validate is the global validator instance
var Validate *validator.Validate

func init() {
	Validate = validator.New()

	_ = Validate.RegisterValidation("latitude", validateLatitude)
	_ = Validate.RegisterValidation("longitude", validateLongitude)
	_ = Validate.RegisterValidation("request_status", validateRequestStatus)
	_ = Validate.RegisterValidation("group_status", validateGroupStatus)
	_ = Validate.RegisterValidation("actor_kind", validateActorKind)
}

// ValidationError carries per-field validation messages
type ValidationError struct {
	Errors map[string]string `json:"errors"`
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for field, msg := range e.Errors {
		parts = append(parts, fmt.Sprintf("%s: %s", field, msg))
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// AddError records a validation message for a field
func (e *ValidationError) AddError(field, message string) {
	if e.Errors == nil {
		e.Errors = make(map[string]string)
	}
	e.Errors[field] = message
}

// HasErrors reports whether any validation messages were recorded
func (e *ValidationError) HasErrors() bool {
	return len(e.Errors) > 0
}

// NewValidationError converts validator errors into a ValidationError
func NewValidationError(errs validator.ValidationErrors) *ValidationError {
	ve := &ValidationError{Errors: make(map[string]string)}
	for _, fe := range errs {
		ve.Errors[strings.ToLower(fe.Field())] = messageForTag(fe)
	}
	return ve
}

func messageForTag(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "latitude":
		return "must be between -90 and 90"
	case "longitude":
		return "must be between -180 and 180"
	case "request_status":
		return "invalid request status"
	case "group_status":
		return "invalid group status"
	case "actor_kind":
		return "invalid actor kind"
	case "uuid":
		return "must be a valid UUID"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	default:
		return fmt.Sprintf("failed validation on %s", fe.Tag())
	}
}

// ValidateStruct validates a struct and returns a ValidationError if validation fails
func ValidateStruct(s interface{}) error {
	err := Validate.Struct(s)
	if err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			return NewValidationError(validationErrors)
		}
		return err
	}
	return nil
}

func validateLatitude(fl validator.FieldLevel) bool {
	latitude := fl.Field().Float()
	return latitude >= -90.0 && latitude <= 90.0
}

func validateLongitude(fl validator.FieldLevel) bool {
	longitude := fl.Field().Float()
	return longitude >= -180.0 && longitude <= 180.0
}

func validateRequestStatus(fl validator.FieldLevel) bool {
	status := fl.Field().String()
	valid := []string{"pending", "grouped", "accepted", "rejected", "completed", "cancelled"}
	return contains(valid, status)
}

func validateGroupStatus(fl validator.FieldLevel) bool {
	status := fl.Field().String()
	valid := []string{"pending_acceptance", "confirmed", "in_progress", "completed", "cancelled"}
	return contains(valid, status)
}

func validateActorKind(fl validator.FieldLevel) bool {
	kind := fl.Field().String()
	valid := []string{"user", "driver", "admin"}
	return contains(valid, kind)
}

func contains(slice []string, item string) bool {
	item = strings.ToLower(strings.TrimSpace(item))
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}

// ValidateRating validates a driver rating value (0-5 scale)
func ValidateRating(rating float64) error {
	if rating < 0 || rating > 5 {
		return fmt.Errorf("rating must be between 0 and 5, got: %f", rating)
	}
	return nil
}

// ValidateSeats validates a requested seat count against a group capacity
func ValidateSeats(seats, capacity int) error {
	if seats < 1 {
		return fmt.Errorf("seats must be at least 1, got: %d", seats)
	}
	if capacity > 0 && seats > capacity {
		return fmt.Errorf("seats must be at most %d, got: %d", capacity, seats)
	}
	return nil
}
