package risk

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTotalClasses(t *testing.T) {
	assert.Equal(t, 30, TotalClasses(60, 2))
	assert.Equal(t, 0, TotalClasses(60, 0))
	assert.Equal(t, 0, TotalClasses(60, -1))
	assert.Equal(t, 40, TotalClasses(60, 1.5))
	// floor, never round
	assert.Equal(t, 17, TotalClasses(70, 4))
}

func TestEvaluateDerivedFigures(t *testing.T) {
	r := Evaluate(Input{TotalWorkloadHours: 60, ClassDurationHours: 2, AbsenceCount: 3})

	assert.Equal(t, 30, r.TotalClasses)
	assert.InDelta(t, 6.0, r.HoursMissed, 1e-9)
	assert.InDelta(t, 15.0, r.MaxAbsenceHours, 1e-9)
	assert.InDelta(t, 9.0, r.RemainingAbsenceHours, 1e-9)
	assert.InDelta(t, 10.0, r.PercentMissed, 1e-9)
	// ceil(30*0.25 - 3) = ceil(4.5) = 5
	assert.Equal(t, 5, r.RemainingAllowedClasses)
}

func TestEvaluateTierBoundaries(t *testing.T) {
	// Workload 60h gives a 15h limit; the tier flips at 7.5h and 11.25h missed.
	cases := []struct {
		name     string
		duration float64
		absences int
		want     Tier
	}{
		{"just under half the limit", 0.74, 10, TierLow},
		{"exactly half the limit", 0.75, 10, TierModerate},
		{"just under three quarters", 1.12, 10, TierModerate},
		{"exactly three quarters", 0.75, 15, TierHigh},
		{"over the limit", 2, 10, TierHigh},
		{"no absences", 2, 0, TierLow},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := Evaluate(Input{TotalWorkloadHours: 60, ClassDurationHours: tc.duration, AbsenceCount: tc.absences})
			require.InDelta(t, 15.0, r.MaxAbsenceHours, 1e-9)
			assert.Equal(t, tc.want, r.Tier, "missed %.2fh of a 15h limit", r.HoursMissed)
		})
	}
}

func TestEvaluateZeroClasses(t *testing.T) {
	r := Evaluate(Input{TotalWorkloadHours: 60, ClassDurationHours: 0, AbsenceCount: 4})
	assert.Equal(t, 0, r.TotalClasses)
	assert.Zero(t, r.PercentMissed)
	assert.Equal(t, 0, r.RemainingAllowedClasses)
}

func TestEvaluateRemainingClassesNeverNegative(t *testing.T) {
	r := Evaluate(Input{TotalWorkloadHours: 60, ClassDurationHours: 2, AbsenceCount: 20})
	assert.Equal(t, 0, r.RemainingAllowedClasses)
}

func TestEvaluateDefaultShare(t *testing.T) {
	explicit := Evaluate(Input{TotalWorkloadHours: 80, ClassDurationHours: 2, AbsenceCount: 5, MaxAbsenceShare: 0.25})
	implicit := Evaluate(Input{TotalWorkloadHours: 80, ClassDurationHours: 2, AbsenceCount: 5})
	assert.Equal(t, explicit, implicit)
}
