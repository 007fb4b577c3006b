package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/rosterly/staffing-api/internal/service"
	appErrors "github.com/rosterly/staffing-api/pkg/errors"
	"github.com/rosterly/staffing-api/pkg/response"
)

// WorkShiftHandler exposes work shift configuration endpoints.
type WorkShiftHandler struct {
	service *service.WorkShiftService
}

// NewWorkShiftHandler constructs a work shift handler.
func NewWorkShiftHandler(svc *service.WorkShiftService) *WorkShiftHandler {
	return &WorkShiftHandler{service: svc}
}

// List godoc
// @Summary List work shifts in display order
// @Tags WorkShifts
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /work-shifts [get]
func (h *WorkShiftHandler) List(c *gin.Context) {
	shifts, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, shifts, nil)
}

// Create godoc
// @Summary Create a work shift
// @Tags WorkShifts
// @Accept json
// @Produce json
// @Param payload body service.WorkShiftRequest true "Shift payload"
// @Success 201 {object} response.Envelope
// @Router /work-shifts [post]
func (h *WorkShiftHandler) Create(c *gin.Context) {
	var req service.WorkShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid work shift payload"))
		return
	}
	shift, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, shift)
}

// Update godoc
// @Summary Update a work shift
// @Tags WorkShifts
// @Accept json
// @Produce json
// @Param id path string true "Shift ID"
// @Param payload body service.WorkShiftRequest true "Shift payload"
// @Success 200 {object} response.Envelope
// @Router /work-shifts/{id} [put]
func (h *WorkShiftHandler) Update(c *gin.Context) {
	var req service.WorkShiftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid work shift payload"))
		return
	}
	shift, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, shift, nil)
}

// Delete godoc
// @Summary Delete a work shift
// @Tags WorkShifts
// @Param id path string true "Shift ID"
// @Success 204
// @Router /work-shifts/{id} [delete]
func (h *WorkShiftHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
