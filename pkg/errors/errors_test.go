package errors_test

import (
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/clinicore/clinic-api/pkg/errors"
)

func TestStatusCodes(t *testing.T) {
	cases := []struct {
		err  *errors.AppError
		want int
	}{
		{errors.NotFound("doctor", nil), http.StatusNotFound},
		{errors.ProfileNotFound("patient"), http.StatusNotFound},
		{errors.BadRequest("bad", nil), http.StatusBadRequest},
		{errors.Unauthenticated(nil), http.StatusUnauthorized},
		{errors.Unauthorized("nope"), http.StatusForbidden},
		{errors.SlotUnavailable(errors.SlotConflict{}), http.StatusConflict},
		{errors.Validation("invalid"), http.StatusUnprocessableEntity},
		{errors.Internal(nil), http.StatusInternalServerError},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.err.StatusCode(), tc.err.Message)
	}
}

func TestSlotUnavailableCarriesDetails(t *testing.T) {
	when := time.Date(2026, 9, 14, 10, 0, 0, 0, time.UTC)
	err := errors.SlotUnavailable(errors.SlotConflict{DoctorName: "Dr. Reyes", AppointmentTime: when})

	conflict, ok := err.Details.(errors.SlotConflict)
	assert.True(t, ok)
	assert.Equal(t, "Dr. Reyes", conflict.DoctorName)
	assert.Equal(t, when, conflict.AppointmentTime)
}

func TestIsCodeUnwraps(t *testing.T) {
	inner := errors.Validation("invalid")
	wrapped := fmt.Errorf("handling request: %w", inner)

	assert.True(t, errors.IsCode(wrapped, errors.ErrValidation))
	assert.False(t, errors.IsCode(wrapped, errors.ErrNotFound))
	assert.False(t, errors.IsCode(fmt.Errorf("plain"), errors.ErrValidation))
}
