package triage

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/saudecomunitaria/buscativa/internal/domain/patient"
)

func TestResolveAutomaticBands(t *testing.T) {
	tests := []struct {
		name string
		days *int
		want patient.Priority
	}{
		{"nil days is green", nil, patient.PriorityGreen},
		{"zero is green", intPtr(0), patient.PriorityGreen},
		{"one day is yellow", intPtr(1), patient.PriorityYellow},
		{"fourteen is yellow", intPtr(14), patient.PriorityYellow},
		{"fifteen is orange", intPtr(15), patient.PriorityOrange},
		{"thirty is orange", intPtr(30), patient.PriorityOrange},
		{"thirty-one is red", intPtr(31), patient.PriorityRed},
		{"far overdue is red", intPtr(365), patient.PriorityRed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Resolve(tt.days, nil)
			assert.Equal(t, tt.want, res.Tier)
			assert.Equal(t, SourceAutomatic, res.Source)
		})
	}
}

func TestResolveOverrideWins(t *testing.T) {
	red := patient.PriorityRed
	green := patient.PriorityGreen

	// An override applies even when the patient is not overdue at all.
	res := Resolve(nil, &red)
	assert.Equal(t, patient.PriorityRed, res.Tier)
	assert.Equal(t, SourceOverride, res.Source)

	// And it can lower severity below the computed band.
	res = Resolve(intPtr(90), &green)
	assert.Equal(t, patient.PriorityGreen, res.Tier)
	assert.Equal(t, SourceOverride, res.Source)
}

func TestAutoTierMonotonic(t *testing.T) {
	// Severity never decreases as days overdue grow.
	prev := 0
	for d := 0; d <= 120; d++ {
		rank := autoTier(&d).Rank()
		assert.GreaterOrEqual(t, rank, prev, "rank dropped at %d days", d)
		prev = rank
	}
}
