package timer

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/multierr"
)

// Config describes an interval workout. Once accepted by Validate it is never mutated.
type Config struct {
	WorkSeconds int `json:"workSeconds" toml:"work_seconds"`
	RestSeconds int `json:"restSeconds" toml:"rest_seconds"`
	Rounds      int `json:"rounds" toml:"rounds"`
	Sets        int `json:"sets" toml:"sets"`
}

func (c Config) String() string {
	return fmt.Sprintf("work=%ds rest=%ds rounds=%d sets=%d", c.WorkSeconds, c.RestSeconds, c.Rounds, c.Sets)
}

// FieldError describes a single rejected configuration field.
type FieldError struct {
	Field  string
	Value  int
	Reason string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%s %s, got %d", e.Field, e.Reason, e.Value)
}

// ConfigError is returned for a configuration with one or more invalid fields.
type ConfigError struct {
	err error
}

func (e *ConfigError) Error() string {
	return "invalid timer config: " + e.err.Error()
}

func (e *ConfigError) Unwrap() []error {
	return multierr.Errors(e.err)
}

// Fields returns the names of the offending fields, in declaration order.
func (e *ConfigError) Fields() []string {
	var fields []string
	for _, err := range multierr.Errors(e.err) {
		var fieldErr *FieldError
		if errors.As(err, &fieldErr) {
			fields = append(fields, fieldErr.Field)
		}
	}
	return fields
}

// FieldErrors maps each offending field to its reason, handy for API responses.
func (e *ConfigError) FieldErrors() map[string]string {
	res := make(map[string]string)
	for _, err := range multierr.Errors(e.err) {
		var fieldErr *FieldError
		if errors.As(err, &fieldErr) {
			res[fieldErr.Field] = fieldErr.Reason
		}
	}
	return res
}

// IsConfigError reports whether err is (or wraps) a ConfigError.
func IsConfigError(err error) bool {
	var cfgErr *ConfigError
	return errors.As(err, &cfgErr)
}

// Validate checks all four fields and returns the normalized config, or a *ConfigError
// naming every offending field. It has no side effects.
func Validate(cfg Config) (Config, error) {
	var err error
	err = multierr.Append(err, positive("workSeconds", cfg.WorkSeconds, "must be at least 1 second"))
	err = multierr.Append(err, positive("restSeconds", cfg.RestSeconds, "must be at least 1 second"))
	err = multierr.Append(err, positive("rounds", cfg.Rounds, "must be at least 1"))
	err = multierr.Append(err, positive("sets", cfg.Sets, "must be at least 1"))
	if err != nil {
		return Config{}, &ConfigError{err: err}
	}
	if total, ok := boundedTotal(cfg); !ok {
		return Config{}, &ConfigError{err: &FieldError{
			Field:  "totalSeconds",
			Value:  int(total),
			Reason: fmt.Sprintf("must be at most %d", MaxTotalSeconds),
		}}
	}

	return Config{
		WorkSeconds: cfg.WorkSeconds,
		RestSeconds: cfg.RestSeconds,
		Rounds:      cfg.Rounds,
		Sets:        cfg.Sets,
	}, nil
}

// MaxTotalSeconds bounds (work+rest)*rounds*sets, so progress arithmetic
// cannot overflow on any platform.
const MaxTotalSeconds = math.MaxInt32

// boundedTotal computes the workout length of a config with positive fields. When it
// exceeds MaxTotalSeconds it returns false and the partial product that crossed the bound.
func boundedTotal(cfg Config) (int64, bool) {
	const limit = int64(MaxTotalSeconds)
	work, rest := int64(cfg.WorkSeconds), int64(cfg.RestSeconds)
	if work > limit {
		return work, false
	}
	if rest > limit {
		return rest, false
	}

	total := work + rest
	for _, factor := range []int64{int64(cfg.Rounds), int64(cfg.Sets)} {
		if total > limit || factor > limit {
			return max(total, factor), false
		}
		total *= factor
	}
	if total > limit {
		return total, false
	}
	return total, true
}

func positive(field string, value int, reason string) error {
	if value >= 1 {
		return nil
	}
	return &FieldError{
		Field:  field,
		Value:  value,
		Reason: reason,
	}
}
