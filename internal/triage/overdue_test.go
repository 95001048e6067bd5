package triage

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func datePtr(y int, m time.Month, d int) *time.Time {
	t := date(y, m, d)
	return &t
}

func TestComputeOverdue(t *testing.T) {
	today := date(2026, 3, 16)

	tests := []struct {
		name          string
		lastCompleted *time.Time
		enrolledAt    *time.Time
		intervalDays  int
		wantDays      *int
		wantDeadline  *time.Time
	}{
		{
			name:          "overdue after interval elapsed",
			lastCompleted: datePtr(2026, 1, 30), // 45 days before today
			intervalDays:  30,
			wantDays:      intPtr(15),
			wantDeadline:  datePtr(2026, 3, 1),
		},
		{
			name:          "exactly on deadline is not overdue",
			lastCompleted: datePtr(2026, 2, 14),
			intervalDays:  30,
			wantDays:      nil,
			wantDeadline:  datePtr(2026, 3, 16),
		},
		{
			name:          "one day past deadline",
			lastCompleted: datePtr(2026, 2, 13),
			intervalDays:  30,
			wantDays:      intPtr(1),
			wantDeadline:  datePtr(2026, 3, 15),
		},
		{
			name:          "within interval reports deadline only",
			lastCompleted: datePtr(2026, 3, 1),
			intervalDays:  30,
			wantDays:      nil,
			wantDeadline:  datePtr(2026, 3, 31),
		},
		{
			name:         "enrollment date stands in when no completed visit",
			enrolledAt:   datePtr(2026, 1, 1),
			intervalDays: 30,
			wantDays:     intPtr(44),
			wantDeadline: datePtr(2026, 1, 31),
		},
		{
			name:          "completed visit wins over enrollment",
			lastCompleted: datePtr(2026, 3, 10),
			enrolledAt:    datePtr(2025, 1, 1),
			intervalDays:  30,
			wantDays:      nil,
			wantDeadline:  datePtr(2026, 4, 9),
		},
		{
			name:         "no basis at all",
			intervalDays: 30,
			wantDays:     nil,
			wantDeadline: nil,
		},
		{
			name:          "per-patient interval shifts the deadline",
			lastCompleted: datePtr(2026, 1, 30),
			intervalDays:  60,
			wantDays:      nil,
			wantDeadline:  datePtr(2026, 3, 31),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			days, deadline := ComputeOverdue(tt.lastCompleted, tt.enrolledAt, tt.intervalDays, today)

			if tt.wantDays == nil {
				assert.Nil(t, days)
			} else {
				require.NotNil(t, days)
				assert.Equal(t, *tt.wantDays, *days)
			}

			if tt.wantDeadline == nil {
				assert.Nil(t, deadline)
			} else {
				require.NotNil(t, deadline)
				assert.True(t, tt.wantDeadline.Equal(*deadline), "deadline = %v, want %v", deadline, tt.wantDeadline)
			}
		})
	}
}

func TestComputeOverdueIgnoresTimeOfDay(t *testing.T) {
	// A completion late in the evening counts the same as one at dawn.
	completedEvening := time.Date(2026, 1, 30, 23, 55, 0, 0, time.UTC)
	today := time.Date(2026, 3, 16, 0, 5, 0, 0, time.UTC)

	days, _ := ComputeOverdue(&completedEvening, nil, 30, today)
	require.NotNil(t, days)
	assert.Equal(t, 15, *days)
}

func intPtr(v int) *int { return &v }
