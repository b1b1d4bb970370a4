package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/faltometro/faltometro-api/internal/models"
	"github.com/faltometro/faltometro-api/internal/service"
	"github.com/faltometro/faltometro-api/pkg/response"
)

type absenceRepoStub struct {
	subjects *subjectRepoStub
	seq      int
}

func (s *absenceRepoStub) ListBySubject(_ context.Context, subjectID string) ([]models.AbsenceRecord, error) {
	records := s.subjects.records[subjectID]
	out := make([]models.AbsenceRecord, len(records))
	copy(out, records)
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].Date.After(out[i].Date) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out, nil
}

func (s *absenceRepoStub) Create(_ context.Context, record *models.AbsenceRecord) error {
	for _, existing := range s.subjects.records[record.SubjectID] {
		if existing.Date.Equal(record.Date) {
			return &pq.Error{Code: "23505", Constraint: "absence_records_subject_id_date_key"}
		}
	}
	s.seq++
	record.ID = fmt.Sprintf("record-%d", s.seq)
	record.CreatedAt = time.Now()
	s.subjects.records[record.SubjectID] = append(s.subjects.records[record.SubjectID], *record)
	if subject, ok := s.subjects.subjects[record.SubjectID]; ok {
		subject.AbsenceCount++
	}
	return nil
}

func (s *absenceRepoStub) Delete(_ context.Context, recordID, subjectID string) error {
	records := s.subjects.records[subjectID]
	for i, record := range records {
		if record.ID == recordID {
			s.subjects.records[subjectID] = append(records[:i], records[i+1:]...)
			if subject, ok := s.subjects.subjects[subjectID]; ok && subject.AbsenceCount > 0 {
				subject.AbsenceCount--
			}
			return nil
		}
	}
	return sql.ErrNoRows
}

func newAbsenceFixtureHandler(t *testing.T) (*AbsenceHandler, *subjectRepoStub) {
	t.Helper()
	subjects := newSubjectRepoStub()
	subjectSvc := service.NewSubjectService(subjects, nil, nil, zap.NewNop(), 0.25)
	absenceSvc := service.NewAbsenceService(&absenceRepoStub{subjects: subjects}, subjectSvc, zap.NewNop())

	w, c := authedRequest(t, http.MethodPost, "/subjects",
		`{"name":"Cálculo I","totalWorkloadHours":60,"classDurationHours":2}`, "user-1")
	NewSubjectHandler(subjectSvc).Create(c)
	require.Equal(t, http.StatusCreated, w.Code)

	return NewAbsenceHandler(absenceSvc), subjects
}

func TestAbsenceHandlerAdd(t *testing.T) {
	handler, subjects := newAbsenceFixtureHandler(t)

	w, c := authedRequest(t, http.MethodPost, "/subjects/subject-1/absences",
		`{"date":"2025-03-10"}`, "user-1", gin.Param{Key: "id", Value: "subject-1"})
	handler.Add(c)

	require.Equal(t, http.StatusCreated, w.Code)
	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	data, ok := envelope.Data.(map[string]interface{})
	require.True(t, ok)
	assert.NotEmpty(t, data["id"])
	assert.Equal(t, 1, subjects.subjects["subject-1"].AbsenceCount)
}

func TestAbsenceHandlerAddMissingDate(t *testing.T) {
	handler, _ := newAbsenceFixtureHandler(t)

	w, c := authedRequest(t, http.MethodPost, "/subjects/subject-1/absences",
		`{}`, "user-1", gin.Param{Key: "id", Value: "subject-1"})
	handler.Add(c)
	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAbsenceHandlerAddDuplicateDate(t *testing.T) {
	handler, subjects := newAbsenceFixtureHandler(t)

	w, c := authedRequest(t, http.MethodPost, "/subjects/subject-1/absences",
		`{"date":"2025-03-10"}`, "user-1", gin.Param{Key: "id", Value: "subject-1"})
	handler.Add(c)
	require.Equal(t, http.StatusCreated, w.Code)

	w, c = authedRequest(t, http.MethodPost, "/subjects/subject-1/absences",
		`{"date":"2025-03-10"}`, "user-1", gin.Param{Key: "id", Value: "subject-1"})
	handler.Add(c)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, 1, subjects.subjects["subject-1"].AbsenceCount)
}

func TestAbsenceHandlerAddForeignSubject(t *testing.T) {
	handler, _ := newAbsenceFixtureHandler(t)

	w, c := authedRequest(t, http.MethodPost, "/subjects/subject-1/absences",
		`{"date":"2025-03-10"}`, "intruder", gin.Param{Key: "id", Value: "subject-1"})
	handler.Add(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}

func TestAbsenceHandlerList(t *testing.T) {
	handler, _ := newAbsenceFixtureHandler(t)

	for _, date := range []string{"2025-03-10", "2025-03-17"} {
		w, c := authedRequest(t, http.MethodPost, "/subjects/subject-1/absences",
			fmt.Sprintf(`{"date":%q}`, date), "user-1", gin.Param{Key: "id", Value: "subject-1"})
		handler.Add(c)
		require.Equal(t, http.StatusCreated, w.Code)
	}

	w, c := authedRequest(t, http.MethodGet, "/subjects/subject-1/absences", "", "user-1",
		gin.Param{Key: "id", Value: "subject-1"})
	handler.List(c)

	require.Equal(t, http.StatusOK, w.Code)
	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	items, ok := envelope.Data.([]interface{})
	require.True(t, ok)
	require.Len(t, items, 2)
	first, ok := items[0].(map[string]interface{})
	require.True(t, ok)
	assert.Contains(t, first["date"], "2025-03-17")
}

func TestAbsenceHandlerRemove(t *testing.T) {
	handler, subjects := newAbsenceFixtureHandler(t)

	w, c := authedRequest(t, http.MethodPost, "/subjects/subject-1/absences",
		`{"date":"2025-03-10"}`, "user-1", gin.Param{Key: "id", Value: "subject-1"})
	handler.Add(c)
	require.Equal(t, http.StatusCreated, w.Code)

	var envelope response.Envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	data := envelope.Data.(map[string]interface{})
	recordID := data["id"].(string)

	w, c = authedRequest(t, http.MethodDelete, "/subjects/subject-1/absences/"+recordID, "", "user-1",
		gin.Param{Key: "id", Value: "subject-1"}, gin.Param{Key: "recordId", Value: recordID})
	handler.Remove(c)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, subjects.subjects["subject-1"].AbsenceCount)
}

func TestAbsenceHandlerRemoveUnknownRecord(t *testing.T) {
	handler, _ := newAbsenceFixtureHandler(t)

	w, c := authedRequest(t, http.MethodDelete, "/subjects/subject-1/absences/record-99", "", "user-1",
		gin.Param{Key: "id", Value: "subject-1"}, gin.Param{Key: "recordId", Value: "record-99"})
	handler.Remove(c)
	require.Equal(t, http.StatusNotFound, w.Code)
}
