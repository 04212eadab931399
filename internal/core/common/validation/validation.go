package validation

import (
	"fmt"
	"time"

	errors "github.com/frahmantamala/leave-management/internal"
)

// DateLayout is the wire format for calendar dates.
const DateLayout = "2006-01-02"

type ValidatorFunc func(interface{}) *errors.AppError

type FieldValidator struct {
	FieldName  string
	Value      interface{}
	Validators []ValidatorFunc
}

type ValidationBuilder struct {
	fields []FieldValidator
}

func NewValidator() *ValidationBuilder {
	return &ValidationBuilder{
		fields: make([]FieldValidator, 0),
	}
}

func (v *ValidationBuilder) Field(name string, value interface{}) *FieldValidator {
	fv := FieldValidator{
		FieldName:  name,
		Value:      value,
		Validators: make([]ValidatorFunc, 0),
	}
	v.fields = append(v.fields, fv)
	return &v.fields[len(v.fields)-1]
}

func (fv *FieldValidator) Required() *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		missing := false
		switch v := value.(type) {
		case string:
			missing = v == ""
		case int64:
			missing = v == 0
		case *string:
			missing = v == nil || *v == ""
		case time.Time:
			missing = v.IsZero()
		}
		if missing {
			return errors.NewValidationFieldError(fv.FieldName, fmt.Sprintf("%s is required", fv.FieldName), errors.ErrCodeValidationFailed)
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) Positive(code errors.ErrorCode) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		var positive bool
		switch v := value.(type) {
		case int64:
			positive = v > 0
		case float64:
			positive = v > 0
		default:
			return nil
		}
		if !positive {
			return errors.NewValidationFieldError(fv.FieldName, fmt.Sprintf("%s must be positive", fv.FieldName), code)
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) NonNegative(code errors.ErrorCode) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		if v, ok := value.(float64); ok && v < 0 {
			return errors.NewValidationFieldError(fv.FieldName, fmt.Sprintf("%s must not be negative", fv.FieldName), code)
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) MaxLength(max int) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		if v, ok := value.(string); ok {
			if len(v) > max {
				message := fmt.Sprintf("%s must not exceed %d characters", fv.FieldName, max)
				return errors.NewValidationFieldError(fv.FieldName, message, errors.ErrCodeValidationFailed)
			}
		}
		return nil
	})
	return fv
}

// Date checks a YYYY-MM-DD string.
func (fv *FieldValidator) Date() *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		if v, ok := value.(string); ok && v != "" {
			if _, err := time.Parse(DateLayout, v); err != nil {
				message := fmt.Sprintf("%s must be a date in YYYY-MM-DD format", fv.FieldName)
				return errors.NewValidationFieldError(fv.FieldName, message, errors.ErrCodeInvalidDate)
			}
		}
		return nil
	})
	return fv
}

// NotBefore rejects a date earlier than other.
func (fv *FieldValidator) NotBefore(otherField string, other time.Time) *FieldValidator {
	fv.Validators = append(fv.Validators, func(value interface{}) *errors.AppError {
		if v, ok := value.(time.Time); ok && !v.IsZero() && !other.IsZero() && v.Before(other) {
			message := fmt.Sprintf("%s must not be before %s", fv.FieldName, otherField)
			return errors.NewValidationFieldError(fv.FieldName, message, errors.ErrCodeInvalidDateRange)
		}
		return nil
	})
	return fv
}

func (fv *FieldValidator) Custom(validator func(interface{}) *errors.AppError) *FieldValidator {
	fv.Validators = append(fv.Validators, validator)
	return fv
}

func (v *ValidationBuilder) Validate() *errors.AppError {
	var validationErrors []errors.ValidationError

	for _, field := range v.fields {
		for _, validator := range field.Validators {
			appErr := validator(field.Value)
			if appErr == nil {
				continue
			}
			if details, ok := appErr.Details.(errors.ValidationErrors); ok {
				validationErrors = append(validationErrors, details.Errors...)
				continue
			}
			validationErrors = append(validationErrors, errors.ValidationError{
				Field:   field.FieldName,
				Message: appErr.Message,
				Code:    string(appErr.Code),
			})
		}
	}

	if len(validationErrors) > 0 {
		return errors.NewValidationError("Validation failed", errors.ErrCodeValidationFailed).
			WithDetails(errors.ValidationErrors{Errors: validationErrors})
	}

	return nil
}

// ParseDate parses a YYYY-MM-DD value into a UTC midnight time.
func ParseDate(field, value string) (time.Time, *errors.AppError) {
	if value == "" {
		return time.Time{}, errors.NewValidationFieldError(field, fmt.Sprintf("%s is required", field), errors.ErrCodeValidationFailed)
	}
	t, err := time.ParseInLocation(DateLayout, value, time.UTC)
	if err != nil {
		return time.Time{}, errors.NewValidationFieldError(field, fmt.Sprintf("%s must be a date in YYYY-MM-DD format", field), errors.ErrCodeInvalidDate)
	}
	return t, nil
}

// ValidateDateRange enforces from <= to.
func ValidateDateRange(from, to time.Time) *errors.AppError {
	validator := NewValidator()
	validator.Field("from_date", from).Required()
	validator.Field("to_date", to).Required().NotBefore("from_date", from)
	return validator.Validate()
}

// Truncate normalises t to a UTC calendar date.
func Truncate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
