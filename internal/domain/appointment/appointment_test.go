package appointment

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusTransitions(t *testing.T) {
	tests := []struct {
		from    AppointmentStatus
		to      AppointmentStatus
		allowed bool
	}{
		{StatusScheduled, StatusCompleted, true},
		{StatusScheduled, StatusCancelled, true},
		{StatusScheduled, StatusNoShow, true},
		{StatusCompleted, StatusScheduled, false},
		{StatusCompleted, StatusCancelled, false},
		{StatusCancelled, StatusScheduled, false},
		{StatusCancelled, StatusCompleted, false},
		{StatusNoShow, StatusScheduled, false},
		{StatusNoShow, StatusCompleted, false},
	}

	for _, tt := range tests {
		a := &Appointment{Status: tt.from}
		assert.Equal(t, tt.allowed, a.CanTransitionTo(tt.to), "%s → %s", tt.from, tt.to)
	}
}

func TestCompleteFromScheduled(t *testing.T) {
	a := &Appointment{Status: StatusScheduled}

	require.NoError(t, a.Complete())
	assert.Equal(t, StatusCompleted, a.Status)
	assert.NotNil(t, a.CompletedAt)
}

func TestCancelRecordsReason(t *testing.T) {
	by := uuid.New()
	a := &Appointment{Status: StatusScheduled}

	require.NoError(t, a.Cancel("patient moved away", by))
	assert.Equal(t, StatusCancelled, a.Status)
	assert.Equal(t, "patient moved away", a.CancellationReason)
	require.NotNil(t, a.CancelledBy)
	assert.Equal(t, by, *a.CancelledBy)
	assert.NotNil(t, a.CancelledAt)
}

func TestTerminalStatesAreClosed(t *testing.T) {
	for _, status := range []AppointmentStatus{StatusCompleted, StatusCancelled, StatusNoShow} {
		a := &Appointment{Status: status}

		assert.ErrorIs(t, a.Complete(), ErrInvalidStatusTransition)
		assert.ErrorIs(t, a.Cancel("x", uuid.New()), ErrInvalidStatusTransition)
		assert.ErrorIs(t, a.MarkNoShow(), ErrInvalidStatusTransition)
		assert.True(t, status.IsTerminal())
	}
}

func TestStatusValidity(t *testing.T) {
	assert.True(t, StatusScheduled.IsValid())
	assert.True(t, StatusNoShow.IsValid())
	assert.False(t, AppointmentStatus("rescheduled").IsValid())
	assert.False(t, AppointmentStatus("").IsValid())
}
