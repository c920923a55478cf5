package dto

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/helpdesk/it-helpdesk/pkg/util/errorutil"
)

func TestValidatorListsEveryFailure(t *testing.T) {
	v := NewValidator()

	err := v.Struct(&SubDepartmentRequest{Name: strings.Repeat("n", 101)})
	require.Error(t, err)
	domainErr := apperrors.ToDomainError(err)
	assert.Equal(t, 400, domainErr.HTTPStatus)
	assert.Equal(t, "Validation failed", domainErr.Message)
	assert.ElementsMatch(t, []string{
		"Department id must be greater than 0.",
		"Sub-department name must be at most 100 characters.",
	}, domainErr.Errors)
}

func TestValidatorAcceptsValidRequests(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.Struct(&LoginRequest{Email: "a@example.com", Password: "x"}))
	assert.NoError(t, v.Struct(&UpdatePasswordRequest{
		CurrentPassword:    "old-secret",
		NewPassword:        "new-secret",
		ConfirmNewPassword: "new-secret",
	}))
}

func TestValidatorFallsBackToJSONName(t *testing.T) {
	type untagged struct {
		Code string `json:"code,omitempty" validate:"required"`
	}

	err := NewValidator().Struct(&untagged{})
	require.Error(t, err)
	assert.Equal(t, []string{"code is required."}, apperrors.ToDomainError(err).Errors)
}
