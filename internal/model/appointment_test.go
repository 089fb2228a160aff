package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/clinicore/clinic-api/internal/model"
)

func TestAppointmentStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to model.AppointmentStatus
		allowed  bool
	}{
		{model.AppointmentStatusPending, model.AppointmentStatusConfirmed, true},
		{model.AppointmentStatusPending, model.AppointmentStatusCancelled, true},
		{model.AppointmentStatusPending, model.AppointmentStatusCompleted, false},
		{model.AppointmentStatusConfirmed, model.AppointmentStatusCompleted, true},
		{model.AppointmentStatusConfirmed, model.AppointmentStatusCancelled, true},
		{model.AppointmentStatusConfirmed, model.AppointmentStatusPending, false},
		{model.AppointmentStatusCompleted, model.AppointmentStatusCancelled, false},
		{model.AppointmentStatusCompleted, model.AppointmentStatusConfirmed, false},
		{model.AppointmentStatusCancelled, model.AppointmentStatusPending, false},
		{model.AppointmentStatusCancelled, model.AppointmentStatusConfirmed, false},
	}

	for _, tc := range cases {
		assert.Equal(t, tc.allowed, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}
