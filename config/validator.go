package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is the global validator instance.
var validate *validator.Validate

func init() {
	validate = validator.New()
}

// ConfigError represents a validation error for a specific field.
type ConfigError struct {
	Field   string
	Message string
	Value   interface{}
}

func (e ConfigError) Error() string {
	return fmt.Sprintf("%s: %s (got %v)", e.Field, e.Message, e.Value)
}

// ValidationErrors is a collection of config errors.
type ValidationErrors []ConfigError

func (e ValidationErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}

	var sb strings.Builder
	sb.WriteString("configuration validation failed:\n")
	for _, err := range e {
		sb.WriteString(fmt.Sprintf("  - %s\n", err.Error()))
	}
	return sb.String()
}

// ValidateWithDetails performs validation and returns detailed errors.
func ValidateWithDetails(cfg *Config) error {
	var details ValidationErrors

	if err := validate.Struct(cfg); err != nil {
		if validationErrors, ok := err.(validator.ValidationErrors); ok {
			for _, fe := range validationErrors {
				details = append(details, ConfigError{
					Field:   fe.Namespace(),
					Message: formatValidationError(fe),
					Value:   fe.Value(),
				})
			}
		} else {
			return err
		}
	}

	details = append(details, crossFieldErrors(cfg)...)

	if len(details) > 0 {
		return details
	}
	return nil
}

// crossFieldErrors checks constraints spanning multiple fields.
func crossFieldErrors(cfg *Config) ValidationErrors {
	var errs ValidationErrors

	if cfg.Burnout.HighThreshold < cfg.Burnout.MediumThreshold {
		errs = append(errs, ConfigError{
			Field:   "Burnout.HighThreshold",
			Message: "must be >= medium threshold",
			Value:   cfg.Burnout.HighThreshold,
		})
	}

	if cfg.Intent.DeepThreshold < cfg.Intent.BalancedThreshold {
		errs = append(errs, ConfigError{
			Field:   "Intent.DeepThreshold",
			Message: "must be >= balanced threshold",
			Value:   cfg.Intent.DeepThreshold,
		})
	}

	shares := cfg.Quest.MainShare + cfg.Quest.ReviewShare + cfg.Quest.BonusShare
	if math.Abs(shares-1.0) > 0.01 {
		errs = append(errs, ConfigError{
			Field:   "Quest",
			Message: "main/review/bonus shares must sum to 1.0",
			Value:   shares,
		})
	}

	if cfg.Memory.Pinecone.Enabled && cfg.Memory.Pinecone.APIKey == "" {
		errs = append(errs, ConfigError{
			Field:   "Memory.Pinecone.APIKey",
			Message: "required when pinecone is enabled",
			Value:   "",
		})
	}

	return errs
}

// formatValidationError converts validator.FieldError to a human-readable message.
func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "this field is required"
	case "min":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of [%s]", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	default:
		return fmt.Sprintf("failed validation: %s", fe.Tag())
	}
}
