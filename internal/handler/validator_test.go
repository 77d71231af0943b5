package handler

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testRequest struct {
	Name  string `validate:"required,max=20"`
	Limit int    `validate:"omitempty,min=1,max=500"`
}

func TestValidator_SweepLimit(t *testing.T) {
	InitValidator()
	v := GetValidator()

	tests := []struct {
		name    string
		limit   int
		wantErr bool
	}{
		{"omitted", 0, false},
		{"minimum", 1, false},
		{"maximum", 500, false},
		{"negative", -1, true},
		{"over maximum", 501, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.ValidateStruct(SweepRequest{Limit: tt.limit})
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestFormatValidationError(t *testing.T) {
	v := GetValidator()

	err := v.ValidateStruct(testRequest{Limit: 600})
	require.Error(t, err)

	fields := FormatValidationError(err)
	assert.Equal(t, "This field is required", fields["name"])
	assert.Equal(t, "Must be at most 500", fields["limit"])

	err = v.ValidateStruct(testRequest{Name: "sweep", Limit: -5})
	require.Error(t, err)
	assert.Equal(t, "Must be at least 1", FormatValidationError(err)["limit"])
}

func TestFormatValidationError_NonValidationError(t *testing.T) {
	assert.Nil(t, FormatValidationError(nil))
	assert.Equal(t, map[string]string{"error": "Invalid request format"}, FormatValidationError(errors.New("eof")))
}

func TestFormatValidationError_UsesJSONNames(t *testing.T) {
	type tagged struct {
		BatchSize int `json:"batch_size,omitempty" validate:"max=10"`
	}

	err := GetValidator().ValidateStruct(tagged{BatchSize: 11})
	require.Error(t, err)
	assert.Equal(t, map[string]string{"batch_size": "Must be at most 10"}, FormatValidationError(err))
}
