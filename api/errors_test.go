package api

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"example.com/backstage/services/bipagem/domain"
	"example.com/backstage/services/bipagem/repository"
)

func TestToAPIError(t *testing.T) {
	cases := []struct {
		name   string
		err    error
		status int
		code   string
	}{
		{"api error", ErrNotFound, http.StatusNotFound, "NOT_FOUND"},
		{"concurrent write", fmt.Errorf("save cart: %w", repository.ErrConcurrentModification), http.StatusConflict, "CONFLICT"},
		{"not found", &domain.NotFoundError{Resource: "cart", ID: "c-1"}, http.StatusNotFound, domain.KindNotFound},
		{"permission", &domain.PermissionDeniedError{Action: "unpack"}, http.StatusForbidden, domain.KindPermissionDenied},
		{"transition", &domain.InvalidTransitionError{From: domain.CartPacking}, http.StatusConflict, domain.KindInvalidTransition},
		{"divergence", &domain.DivergencePresentError{Divergent: 1}, http.StatusUnprocessableEntity, domain.KindDivergencePresent},
		{"format", &domain.FormatError{Fields: 3}, http.StatusBadRequest, domain.KindFormat},
		{"session", &domain.InvalidSessionError{Field: "colaboradores", Reason: "blank"}, http.StatusBadRequest, domain.KindInvalidSession},
		{"report", &domain.InvalidReportError{Reason: "blank"}, http.StatusBadRequest, domain.KindInvalidReport},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			apiErr := toAPIError(tc.err)
			require.NotNil(t, apiErr)
			assert.Equal(t, tc.status, apiErr.StatusCode)
			assert.Equal(t, tc.code, apiErr.Code)
		})
	}

	assert.Nil(t, toAPIError(errors.New("db down")))
}
