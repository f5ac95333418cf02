package trail

import (
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/teranos/wander/errors"
)

var validate = validator.New()

// ValidateVisits checks a visit history at the boundary before it can reach
// the frame loop. Index positions are included so adapters can point at the
// offending entry.
func ValidateVisits(visits []Visit) error {
	for i, v := range visits {
		if err := validate.Struct(v); err != nil {
			return errors.Wrapf(errors.ErrInvalidRequest, "visit %d: %s", i, formatValidationError(err))
		}
	}
	return nil
}

// ValidateSimilarityMap checks a neighbor mapping at the boundary.
func ValidateSimilarityMap(similar SimilarityMap) error {
	for ref, neighbors := range similar {
		if ref == "" {
			return errors.Wrap(errors.ErrInvalidRequest, "similarity map key must be a ref id")
		}
		for i, n := range neighbors {
			if err := validate.Struct(n); err != nil {
				return errors.Wrapf(errors.ErrInvalidRequest, "neighbor %d of %s: %s", i, ref, formatValidationError(err))
			}
		}
	}
	return nil
}

// formatValidationError flattens validator output into a readable message
func formatValidationError(err error) string {
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return err.Error()
	}
	msgs := make([]string, 0, len(validationErrors))
	for _, e := range validationErrors {
		msgs = append(msgs, formatFieldError(e))
	}
	return strings.Join(msgs, "; ")
}

// formatFieldError formats a single field validation error
func formatFieldError(e validator.FieldError) string {
	field := strings.ToLower(e.Field())

	switch e.Tag() {
	case "required":
		return field + " is required"
	case "max":
		return field + " must be at most " + e.Param() + " characters"
	default:
		return field + " is invalid"
	}
}
