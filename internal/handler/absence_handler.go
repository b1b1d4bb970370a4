package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/faltometro/faltometro-api/internal/service"
	appErrors "github.com/faltometro/faltometro-api/pkg/errors"
	"github.com/faltometro/faltometro-api/pkg/response"
)

// AbsenceHandler handles absence-record endpoints.
type AbsenceHandler struct {
	service *service.AbsenceService
}

// NewAbsenceHandler constructs an absence handler.
func NewAbsenceHandler(svc *service.AbsenceService) *AbsenceHandler {
	return &AbsenceHandler{service: svc}
}

// List godoc
// @Summary List a subject's absences, newest date first
// @Tags Absences
// @Produce json
// @Security BearerAuth
// @Param id path string true "Subject ID"
// @Success 200 {object} response.Envelope
// @Router /subjects/{id}/absences [get]
func (h *AbsenceHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	records, err := h.service.List(c.Request.Context(), claims.UserID, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, records)
}

// Add godoc
// @Summary Log a missed class
// @Tags Absences
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Subject ID"
// @Param payload body service.AddAbsenceRequest true "Absence payload"
// @Success 201 {object} response.Envelope
// @Router /subjects/{id}/absences [post]
func (h *AbsenceHandler) Add(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.AddAbsenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	record, err := h.service.Add(c.Request.Context(), claims.UserID, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, record)
}

// Remove godoc
// @Summary Retract a logged absence
// @Tags Absences
// @Produce json
// @Security BearerAuth
// @Param id path string true "Subject ID"
// @Param recordId path string true "Absence record ID"
// @Success 200 {object} response.Envelope
// @Router /subjects/{id}/absences/{recordId} [delete]
func (h *AbsenceHandler) Remove(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	err := h.service.Remove(c.Request.Context(), claims.UserID, c.Param("id"), c.Param("recordId"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.OK(c, gin.H{"message": "absence record deleted"})
}
