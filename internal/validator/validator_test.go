package validator

import (
	"testing"

	ierr "github.com/flexprice/curbside/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sampleRequest struct {
	Email string `validate:"required,email"`
	Count int    `validate:"gte=1"`
}

func TestValidateRequest(t *testing.T) {
	NewValidator()

	require.NoError(t, ValidateRequest(sampleRequest{Email: "a@b.co", Count: 1}))

	err := ValidateRequest(sampleRequest{Email: "nope"})
	require.Error(t, err)
	assert.True(t, ierr.IsValidation(err))

	details := ierr.ReportableDetails(err)
	assert.Equal(t, "email", details["sampleRequest.Email"])
	assert.Equal(t, "gte", details["sampleRequest.Count"])
}
