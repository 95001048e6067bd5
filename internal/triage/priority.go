package triage

import (
	"github.com/saudecomunitaria/buscativa/internal/domain/patient"
)

// Source tells whether an effective priority came from the overdue
// calculation or from a clinician's override.
type Source string

const (
	SourceAutomatic Source = "automatic"
	SourceOverride  Source = "override"
)

// Resolution is the effective priority for a patient: the tier actually
// used for ordering, card colors, and map markers, tagged with where it
// came from so callers can tell an override apart from the computed band.
type Resolution struct {
	Tier   patient.Priority `json:"tier"`
	Source Source           `json:"source"`
}

// Resolve merges the automatic overdue signal with an optional manual
// override. The override always wins; it never alters daysOverdue itself.
//
// Automatic bands, inclusive on the lower edge:
//
//	nil or 0  → green
//	1..14     → yellow
//	15..30    → orange
//	>30       → red
func Resolve(daysOverdue *int, override *patient.Priority) Resolution {
	if override != nil {
		return Resolution{Tier: *override, Source: SourceOverride}
	}
	return Resolution{Tier: autoTier(daysOverdue), Source: SourceAutomatic}
}

func autoTier(daysOverdue *int) patient.Priority {
	if daysOverdue == nil || *daysOverdue <= 0 {
		return patient.PriorityGreen
	}
	switch d := *daysOverdue; {
	case d > 30:
		return patient.PriorityRed
	case d > 14:
		return patient.PriorityOrange
	default:
		return patient.PriorityYellow
	}
}
