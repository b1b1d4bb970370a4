package models

import (
	"time"

	"github.com/faltometro/faltometro-api/internal/risk"
)

// DurationTypeDefault is used when a subject is registered without a
// duration label.
const DurationTypeDefault = "Semestre"

// Subject is a course ("cadeira") whose attendance is tracked per user.
// AbsenceCount is denormalized and kept in lockstep with the absence rows
// by the repository; it must never be written outside the same transaction
// that inserts or deletes a record.
type Subject struct {
	ID                 string    `db:"id" json:"id"`
	UserID             string    `db:"user_id" json:"-"`
	Name               string    `db:"name" json:"name"`
	DurationType       string    `db:"duration_type" json:"type"`
	TotalWorkloadHours float64   `db:"total_workload_hours" json:"totalWorkloadHours"`
	ClassDurationHours float64   `db:"class_duration_hours" json:"classDurationHours"`
	AbsenceCount       int       `db:"absence_count" json:"absences"`
	CreatedAt          time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt          time.Time `db:"updated_at" json:"updatedAt"`
}

// SubjectView is a subject annotated with the derived attendance figures
// shown on the dashboard.
type SubjectView struct {
	Subject
	TotalClasses            int     `json:"totalClasses"`
	TotalHoursMissed        float64 `json:"totalHoursMissed"`
	MaxAbsenceHours         float64 `json:"maxAbsencesHoursLimit"`
	RemainingAbsenceHours   float64 `json:"remainingAbsenceHours"`
	PercentMissed           float64 `json:"percentMissed"`
	RemainingAllowedClasses int     `json:"remainingAllowedClasses"`
	RiskTier                string  `json:"riskStatus"`
}

// Annotate derives the dashboard figures for the subject.
func (s Subject) Annotate(maxShare float64) SubjectView {
	r := risk.Evaluate(risk.Input{
		TotalWorkloadHours: s.TotalWorkloadHours,
		ClassDurationHours: s.ClassDurationHours,
		AbsenceCount:       s.AbsenceCount,
		MaxAbsenceShare:    maxShare,
	})
	return SubjectView{
		Subject:                 s,
		TotalClasses:            r.TotalClasses,
		TotalHoursMissed:        r.HoursMissed,
		MaxAbsenceHours:         r.MaxAbsenceHours,
		RemainingAbsenceHours:   r.RemainingAbsenceHours,
		PercentMissed:           r.PercentMissed,
		RemainingAllowedClasses: r.RemainingAllowedClasses,
		RiskTier:                string(r.Tier),
	}
}
