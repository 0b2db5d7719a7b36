package validation_test

import (
	"testing"

	"github.com/curioapp/curio-server/internal/validation"
	"github.com/stretchr/testify/assert"
)

type TestParams struct {
	MediumID string   `json:"medium_id" validate:"required"`
	Limit    int      `json:"limit" validate:"gte=0,lte=1000"`
	URL      string   `json:"url" validate:"omitempty,url"`
	Order    []string `json:"order" validate:"omitempty,min=1,dive,required"`
}

func TestValidator_ValidateSuccess(t *testing.T) {
	v := validation.New()

	params := TestParams{
		MediumID: "0190a5e2-7f3a-7000-8000-000000000001",
		Limit:    100,
		URL:      "https://example.com/file.png",
	}

	err := v.Validate(params)
	assert.NoError(t, err)
}

func TestValidator_ValidateErrors(t *testing.T) {
	v := validation.New()

	tests := []struct {
		name       string
		params     TestParams
		wantErrMsg string
	}{
		{
			name: "missing required field",
			params: TestParams{
				MediumID: "",
				Limit:    10,
			},
			wantErrMsg: "medium_id",
		},
		{
			name: "limit out of range",
			params: TestParams{
				MediumID: "m1",
				Limit:    5000,
			},
			wantErrMsg: "limit",
		},
		{
			name: "malformed url",
			params: TestParams{
				MediumID: "m1",
				URL:      "not a url",
			},
			wantErrMsg: "url",
		},
		{
			name: "empty element in order",
			params: TestParams{
				MediumID: "m1",
				Order:    []string{"r1", ""},
			},
			wantErrMsg: "order",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Validate(tt.params)
			assert.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErrMsg)
		})
	}
}

func TestValidator_JSONFieldNames(t *testing.T) {
	v := validation.New()

	params := TestParams{Limit: 10}

	err := v.Validate(params)
	assert.Error(t, err)

	// Should use JSON tag name "medium_id", not struct field name "MediumID"
	assert.Contains(t, err.Error(), "medium_id")
	assert.NotContains(t, err.Error(), "MediumID")
}
