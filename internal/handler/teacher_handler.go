package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rosterly/staffing-api/internal/models"
	"github.com/rosterly/staffing-api/internal/service"
	appErrors "github.com/rosterly/staffing-api/pkg/errors"
	"github.com/rosterly/staffing-api/pkg/response"
)

const dateParamLayout = "2006-01-02"

// TeacherHandler wires teacher and availability services to HTTP routes.
type TeacherHandler struct {
	teachers     *service.TeacherService
	availability *service.AvailabilityService
}

// NewTeacherHandler constructs a new TeacherHandler.
func NewTeacherHandler(teachers *service.TeacherService, availability *service.AvailabilityService) *TeacherHandler {
	return &TeacherHandler{teachers: teachers, availability: availability}
}

// List godoc
// @Summary List teachers
// @Tags Teachers
// @Produce json
// @Param search query string false "Search by name or email"
// @Param status query string false "Filter by status (active/inactive/on_leave)"
// @Param page query int false "Page number"
// @Param limit query int false "Page size"
// @Param sort query string false "Sort field (full_name,email,created_at)"
// @Param order query string false "Sort order (asc/desc)"
// @Success 200 {object} response.Envelope
// @Router /teachers [get]
func (h *TeacherHandler) List(c *gin.Context) {
	filter := models.TeacherFilter{
		Search:    strings.TrimSpace(c.Query("search")),
		SortBy:    c.Query("sort"),
		SortOrder: c.Query("order"),
	}
	if raw := c.Query("status"); raw != "" {
		status := models.TeacherStatus(strings.ToLower(raw))
		filter.Status = &status
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	teachers, pagination, err := h.teachers.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teachers, pagination)
}

// Get godoc
// @Summary Get teacher detail
// @Tags Teachers
// @Produce json
// @Param id path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id} [get]
func (h *TeacherHandler) Get(c *gin.Context) {
	teacher, err := h.teachers.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teacher, nil)
}

// Create godoc
// @Summary Create teacher
// @Tags Teachers
// @Accept json
// @Produce json
// @Param payload body service.CreateTeacherRequest true "Teacher payload"
// @Success 201 {object} response.Envelope
// @Router /teachers [post]
func (h *TeacherHandler) Create(c *gin.Context) {
	var req service.CreateTeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid teacher payload"))
		return
	}
	teacher, err := h.teachers.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, teacher)
}

// Update godoc
// @Summary Update teacher
// @Tags Teachers
// @Accept json
// @Produce json
// @Param id path string true "Teacher ID"
// @Param payload body service.UpdateTeacherRequest true "Teacher payload"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id} [put]
func (h *TeacherHandler) Update(c *gin.Context) {
	var req service.UpdateTeacherRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid teacher payload"))
		return
	}
	teacher, err := h.teachers.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, teacher, nil)
}

// Delete godoc
// @Summary Deactivate teacher
// @Description Marks the teacher inactive; past allocations keep referencing the record
// @Tags Teachers
// @Param id path string true "Teacher ID"
// @Success 204
// @Router /teachers/{id} [delete]
func (h *TeacherHandler) Delete(c *gin.Context) {
	if err := h.teachers.SetStatus(c.Request.Context(), c.Param("id"), models.TeacherInactive); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Qualifications godoc
// @Summary List teacher qualifications
// @Tags Teachers
// @Produce json
// @Param id path string true "Teacher ID"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id}/qualifications [get]
func (h *TeacherHandler) Qualifications(c *gin.Context) {
	levels, err := h.teachers.Qualifications(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, levels, nil)
}

// AddQualification godoc
// @Summary Attach a subject level qualification
// @Tags Teachers
// @Accept json
// @Produce json
// @Param id path string true "Teacher ID"
// @Param payload body service.QualificationRequest true "Qualification payload"
// @Success 201 {object} response.Envelope
// @Router /teachers/{id}/qualifications [post]
func (h *TeacherHandler) AddQualification(c *gin.Context) {
	var req service.QualificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid qualification payload"))
		return
	}
	level, err := h.teachers.AddQualification(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, level)
}

// RemoveQualification godoc
// @Summary Detach a subject level qualification
// @Tags Teachers
// @Param id path string true "Teacher ID"
// @Param levelId path string true "Subject level ID"
// @Success 204
// @Router /teachers/{id}/qualifications/{levelId} [delete]
func (h *TeacherHandler) RemoveQualification(c *gin.Context) {
	if err := h.teachers.RemoveQualification(c.Request.Context(), c.Param("id"), c.Param("levelId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// FreeSlots godoc
// @Summary List a teacher's free windows on a date
// @Tags Teachers
// @Produce json
// @Param id path string true "Teacher ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param window_start query string false "Window start (HH:MM), defaults to the working day start"
// @Param window_end query string false "Window end (HH:MM), defaults to the working day end"
// @Success 200 {object} response.Envelope
// @Router /teachers/{id}/free-slots [get]
func (h *TeacherHandler) FreeSlots(c *gin.Context) {
	if _, err := h.teachers.Get(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	date, err := time.Parse(dateParamLayout, c.Query("date"))
	if err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD"))
		return
	}
	slots, err := h.availability.FreeSlots(c.Request.Context(), c.Param("id"), date, c.Query("window_start"), c.Query("window_end"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}
