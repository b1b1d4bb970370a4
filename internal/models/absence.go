package models

import "time"

// AbsenceRecord is one dated missed class of a subject. Records are never
// updated in place, only created and deleted. At most one record may exist
// per (subject, date) pair; the schema enforces it.
type AbsenceRecord struct {
	ID        string    `db:"id" json:"id"`
	SubjectID string    `db:"subject_id" json:"subjectId"`
	Date      time.Time `db:"date" json:"date"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}
