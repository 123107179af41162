package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/getmockd/mockapi/pkg/cache"
)

var validate = validator.New()

func init() {
	// Report fields by their config key rather than the Go field name.
	validate.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("mapstructure"), ",")
		if name == "" || name == "-" {
			return f.Name
		}
		return name
	})
}

// ValidationError describes one invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("config: %s: %s", e.Field, e.Message)
}

// Validate checks c and returns every problem found, joined.
func (c *Config) Validate() error {
	var errs []error

	if err := validate.Struct(c); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return err
		}
		for _, fe := range fieldErrs {
			errs = append(errs, &ValidationError{
				Field:   fieldPath(fe.Namespace()),
				Message: describe(fe),
			})
		}
	}

	if c.Cache.SweepSchedule != "" {
		if err := cache.ValidateSchedule(c.Cache.SweepSchedule); err != nil {
			errs = append(errs, &ValidationError{Field: "cache.sweep_schedule", Message: err.Error()})
		}
	}
	if c.usesRedis() && c.Storage.Redis.Addr == "" {
		errs = append(errs, &ValidationError{Field: "storage.redis.addr", Message: "required when a redis backend is selected"})
	}

	return errors.Join(errs...)
}

func (c *Config) usesRedis() bool {
	return c.Storage.Backend == BackendRedis || (c.Cache.Enabled && c.Cache.Backend == BackendRedis)
}

// fieldPath turns "Config.cache.ttl" into "cache.ttl".
func fieldPath(namespace string) string {
	_, rest, ok := strings.Cut(namespace, ".")
	if !ok {
		return namespace
	}
	return rest
}

func describe(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of [%s], got %q", fe.Param(), fe.Value())
	case "gt", "gte":
		return fmt.Sprintf("must be %s %s", map[string]string{"gt": ">", "gte": ">="}[fe.Tag()], fe.Param())
	case "url":
		return fmt.Sprintf("must be a URL, got %q", fe.Value())
	default:
		return fmt.Sprintf("failed %q validation", fe.Tag())
	}
}
