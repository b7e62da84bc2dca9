package timer_test

import (
	"errors"
	"fmt"
	"math"
	"testing"

	"github.com/2beens/intervaltimer/internal/timer"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidate_Valid(t *testing.T) {
	cfg := timer.Config{WorkSeconds: 20, RestSeconds: 10, Rounds: 8, Sets: 1}
	validated, err := timer.Validate(cfg)
	require.NoError(t, err)
	assert.Equal(t, cfg, validated)

	validated, err = timer.Validate(timer.Config{WorkSeconds: 1, RestSeconds: 1, Rounds: 1, Sets: 1})
	require.NoError(t, err)
	assert.Equal(t, 1, validated.Sets)
}

func TestValidate_Invalid(t *testing.T) {
	testCases := []struct {
		name   string
		cfg    timer.Config
		fields []string
	}{
		{
			name:   "zero work",
			cfg:    timer.Config{WorkSeconds: 0, RestSeconds: 10, Rounds: 8, Sets: 1},
			fields: []string{"workSeconds"},
		},
		{
			name:   "negative rest",
			cfg:    timer.Config{WorkSeconds: 20, RestSeconds: -1, Rounds: 8, Sets: 1},
			fields: []string{"restSeconds"},
		},
		{
			name:   "zero rounds and sets",
			cfg:    timer.Config{WorkSeconds: 20, RestSeconds: 10},
			fields: []string{"rounds", "sets"},
		},
		{
			name:   "everything",
			cfg:    timer.Config{},
			fields: []string{"workSeconds", "restSeconds", "rounds", "sets"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			validated, err := timer.Validate(tc.cfg)
			require.Error(t, err)
			assert.Equal(t, timer.Config{}, validated)
			assert.True(t, timer.IsConfigError(err))

			var cfgErr *timer.ConfigError
			require.ErrorAs(t, err, &cfgErr)
			assert.Equal(t, tc.fields, cfgErr.Fields())
			assert.Len(t, cfgErr.FieldErrors(), len(tc.fields))

			var fieldErr *timer.FieldError
			require.ErrorAs(t, err, &fieldErr)
			assert.Equal(t, tc.fields[0], fieldErr.Field)
		})
	}
}

func TestIsConfigError_Wrapped(t *testing.T) {
	_, err := timer.Validate(timer.Config{WorkSeconds: 10})
	require.Error(t, err)

	wrapped := fmt.Errorf("create session: %w", err)
	assert.True(t, timer.IsConfigError(wrapped))
	assert.False(t, timer.IsConfigError(errors.New("boom")))
	assert.Contains(t, wrapped.Error(), "restSeconds must be at least 1 second, got 0")
}

func TestValidate_TotalTooLong(t *testing.T) {
	testCases := []struct {
		name string
		cfg  timer.Config
	}{
		{
			name: "wrapping product",
			cfg:  timer.Config{WorkSeconds: math.MaxInt64 / 2, RestSeconds: math.MaxInt64 / 2, Rounds: 3, Sets: 1},
		},
		{
			name: "huge rounds",
			cfg:  timer.Config{WorkSeconds: 20, RestSeconds: 10, Rounds: math.MaxInt64, Sets: 1},
		},
		{
			name: "just above the bound",
			cfg:  timer.Config{WorkSeconds: timer.MaxTotalSeconds / 2, RestSeconds: timer.MaxTotalSeconds/2 + 1, Rounds: 1, Sets: 2},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			validated, err := timer.Validate(tc.cfg)
			require.Error(t, err)
			assert.Equal(t, timer.Config{}, validated)

			var cfgErr *timer.ConfigError
			require.True(t, errors.As(err, &cfgErr))
			assert.Equal(t, []string{"totalSeconds"}, cfgErr.Fields())
			assert.Contains(t, cfgErr.FieldErrors()["totalSeconds"], "must be at most")
		})
	}

	// the bound itself is accepted and its total is exact
	cfg := timer.Config{WorkSeconds: timer.MaxTotalSeconds - 1, RestSeconds: 1, Rounds: 1, Sets: 1}
	_, err := timer.Validate(cfg)
	require.NoError(t, err)
	assert.Equal(t, timer.MaxTotalSeconds, timer.TotalSeconds(cfg))
}
