package config

import (
	"errors"
	"fmt"
	"strings"

	apperrors "setdb-init/internal/shared/errors"

	"github.com/go-playground/validator/v10"
)

const (
	maxDatabaseNameLength   = 63
	maxCollectionNameLength = 255
	invalidDatabaseChars    = "/\\. \"$*<>:|?\x00"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("mongodb_dbname", func(fl validator.FieldLevel) bool {
		return ValidateDatabaseName(fl.Field().String()) == nil
	})
	_ = v.RegisterValidation("mongodb_collection", func(fl validator.FieldLevel) bool {
		return ValidateCollectionName(fl.Field().String()) == nil
	})
	return v
}

// envNames maps struct fields to the variables that set them, for error messages
var envNames = map[string]string{
	"DatabaseName": "DATABASE_NAME",
	"AppUsername":  "APP_DB_USER",
	"AppPassword":  "APP_DB_PASSWORD",
	"AppRole":      "APP_DB_ROLE",
	"Collections":  "BOOTSTRAP_COLLECTIONS",
	"Mode":         "BOOTSTRAP_MODE",
	"Timeout":      "BOOTSTRAP_TIMEOUT",
	"TTL":          "BOOTSTRAP_LOCK_TTL",
}

// Validate checks the configuration and returns a VALIDATION_ERROR describing
// every offending field.
func (c *Config) Validate() error {
	return validationError(validate.Struct(c))
}

// ValidateExceptPassword checks everything Validate does except the
// application password, which read-only commands never use.
func (c *Config) ValidateExceptPassword() error {
	return validationError(validate.StructExcept(c, "AppPassword"))
}

func validationError(err error) error {
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperrors.NewValidationError("invalid configuration").WithCause(err)
	}

	ve := apperrors.NewValidationErrors()
	for _, fe := range fieldErrs {
		value := fe.Value()
		if fe.StructField() == "AppPassword" {
			value = nil
		}
		ve.Add(fe.Namespace(), describe(fe), value)
	}
	return ve.ToAppError().WithComponent("config")
}

func describe(fe validator.FieldError) string {
	field := fe.StructField()
	if idx := strings.Index(field, "["); idx > 0 {
		field = field[:idx]
	}
	name := envNames[field]
	if name == "" {
		name = fe.Namespace()
	}

	switch fe.Tag() {
	case "required":
		if field == "AppPassword" {
			return "APP_DB_PASSWORD or APP_DB_PASSWORD_FILE must be set"
		}
		return fmt.Sprintf("%s must be set", name)
	case "oneof":
		return fmt.Sprintf("%s must be one of [%s]", name, fe.Param())
	case "unique":
		return fmt.Sprintf("%s must not contain duplicates", name)
	case "mongodb_dbname":
		return fmt.Sprintf("%s: %v", name, ValidateDatabaseName(fmt.Sprint(fe.Value())))
	case "mongodb_collection":
		return fmt.Sprintf("%s: %v", name, ValidateCollectionName(fmt.Sprint(fe.Value())))
	default:
		return fmt.Sprintf("%s failed %q validation", name, fe.Tag())
	}
}

// ValidateDatabaseName checks a MongoDB database name
func ValidateDatabaseName(name string) error {
	if name == "" {
		return fmt.Errorf("database name cannot be empty")
	}
	if len(name) > maxDatabaseNameLength {
		return fmt.Errorf("database name too long (max %d characters)", maxDatabaseNameLength)
	}
	if strings.ContainsAny(name, invalidDatabaseChars) {
		return fmt.Errorf("database name %q contains invalid characters", name)
	}
	return nil
}

// ValidateCollectionName checks a MongoDB collection name
func ValidateCollectionName(name string) error {
	if name == "" {
		return fmt.Errorf("collection name cannot be empty")
	}
	if len(name) > maxCollectionNameLength {
		return fmt.Errorf("collection name too long (max %d characters)", maxCollectionNameLength)
	}
	if strings.ContainsAny(name, "$\x00") {
		return fmt.Errorf("collection name %q contains invalid characters", name)
	}
	if strings.HasPrefix(name, "system.") {
		return fmt.Errorf("collection name %q uses the reserved system. prefix", name)
	}
	return nil
}
