// Package risk derives attendance-risk figures for a subject. It is pure
// computation: no I/O, no clock, no persistence.
package risk

import "math"

// Tier classifies how close a student is to failing a subject by absence.
type Tier string

const (
	TierLow      Tier = "BAIXO RISCO"
	TierModerate Tier = "RISCO MODERADO"
	TierHigh     Tier = "ALTO RISCO"
)

// DefaultMaxAbsenceShare is the fraction of the total workload a student
// may miss before reproval.
const DefaultMaxAbsenceShare = 0.25

// Input carries the subject totals the evaluation is computed from.
type Input struct {
	TotalWorkloadHours float64
	ClassDurationHours float64
	AbsenceCount       int
	// MaxAbsenceShare defaults to DefaultMaxAbsenceShare when zero.
	MaxAbsenceShare float64
}

// Result is the full set of derived attendance figures.
type Result struct {
	TotalClasses            int
	HoursMissed             float64
	MaxAbsenceHours         float64
	RemainingAbsenceHours   float64
	PercentMissed           float64
	RemainingAllowedClasses int
	Tier                    Tier
}

// TotalClasses returns floor(workload/duration), or 0 when the class
// duration is not positive.
func TotalClasses(totalWorkloadHours, classDurationHours float64) int {
	if classDurationHours <= 0 {
		return 0
	}
	return int(math.Floor(totalWorkloadHours / classDurationHours))
}

// Evaluate computes every derived figure for the given totals. Thresholds
// compare hours missed against the hour limit: below half the limit is low
// risk, at or above three quarters is high risk, in between is moderate.
func Evaluate(in Input) Result {
	share := in.MaxAbsenceShare
	if share <= 0 {
		share = DefaultMaxAbsenceShare
	}

	totalClasses := TotalClasses(in.TotalWorkloadHours, in.ClassDurationHours)
	hoursMissed := float64(in.AbsenceCount) * in.ClassDurationHours
	limit := in.TotalWorkloadHours * share

	percentMissed := 0.0
	if totalClasses > 0 {
		percentMissed = 100 * float64(in.AbsenceCount) / float64(totalClasses)
	}

	remainingClasses := int(math.Ceil(float64(totalClasses)*share - float64(in.AbsenceCount)))
	if remainingClasses < 0 {
		remainingClasses = 0
	}

	return Result{
		TotalClasses:            totalClasses,
		HoursMissed:             hoursMissed,
		MaxAbsenceHours:         limit,
		RemainingAbsenceHours:   limit - hoursMissed,
		PercentMissed:           percentMissed,
		RemainingAllowedClasses: remainingClasses,
		Tier:                    classify(hoursMissed, limit),
	}
}

func classify(hoursMissed, limit float64) Tier {
	switch {
	case hoursMissed >= limit*0.75:
		return TierHigh
	case hoursMissed >= limit*0.5:
		return TierModerate
	default:
		return TierLow
	}
}
