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

// ClassHandler exposes ad-hoc class lifecycle and allocation endpoints.
type ClassHandler struct {
	classes    *service.AdHocClassService
	allocation *service.AllocationService
	importer   *service.ImportService
}

// NewClassHandler constructs a class handler.
func NewClassHandler(classes *service.AdHocClassService, allocation *service.AllocationService, importer *service.ImportService) *ClassHandler {
	return &ClassHandler{classes: classes, allocation: allocation, importer: importer}
}

// List godoc
// @Summary List ad-hoc classes
// @Tags Classes
// @Produce json
// @Param kind query string false "Filter by kind (offset/supplementary/test)"
// @Param status query string false "Comma separated statuses (pending,assigned,completed,cancelled)"
// @Param teacher_id query string false "Filter by assigned teacher"
// @Param subject_level_id query string false "Filter by subject level"
// @Param from query string false "Scheduled date from (YYYY-MM-DD)"
// @Param to query string false "Scheduled date to (YYYY-MM-DD)"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /classes [get]
func (h *ClassHandler) List(c *gin.Context) {
	filter := models.AdHocClassFilter{
		AssignedTeacherID: c.Query("teacher_id"),
		SubjectLevelID:    c.Query("subject_level_id"),
		SortBy:            c.Query("sort"),
		SortOrder:         c.Query("order"),
	}
	if raw := c.Query("kind"); raw != "" {
		kind := models.ClassKind(strings.ToLower(raw))
		filter.Kind = &kind
	}
	if raw := c.Query("status"); raw != "" {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part != "" {
				filter.Statuses = append(filter.Statuses, models.ClassStatus(part))
			}
		}
	}
	if raw := c.Query("from"); raw != "" {
		from, err := time.Parse(dateParamLayout, raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "from must be YYYY-MM-DD"))
			return
		}
		filter.DateFrom = &from
	}
	if raw := c.Query("to"); raw != "" {
		to, err := time.Parse(dateParamLayout, raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "to must be YYYY-MM-DD"))
			return
		}
		filter.DateTo = &to
	}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("limit", "20")); err == nil {
		filter.PageSize = size
	}

	classes, pagination, err := h.classes.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, classes, pagination)
}

// Get godoc
// @Summary Get class detail
// @Tags Classes
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{id} [get]
func (h *ClassHandler) Get(c *gin.Context) {
	class, err := h.classes.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class, nil)
}

// Create godoc
// @Summary Create an ad-hoc class
// @Tags Classes
// @Accept json
// @Produce json
// @Param payload body service.CreateClassRequest true "Class payload"
// @Success 201 {object} response.Envelope
// @Router /classes [post]
func (h *ClassHandler) Create(c *gin.Context) {
	var req service.CreateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid class payload"))
		return
	}
	class, err := h.classes.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, class)
}

// Update godoc
// @Summary Update an ad-hoc class
// @Description Window changes are rejected once a teacher is assigned
// @Tags Classes
// @Accept json
// @Produce json
// @Param id path string true "Class ID"
// @Param payload body service.UpdateClassRequest true "Class payload"
// @Success 200 {object} response.Envelope
// @Router /classes/{id} [put]
func (h *ClassHandler) Update(c *gin.Context) {
	var req service.UpdateClassRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid class payload"))
		return
	}
	class, err := h.classes.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class, nil)
}

// Delete godoc
// @Summary Delete a pending or cancelled class
// @Tags Classes
// @Param id path string true "Class ID"
// @Success 204
// @Router /classes/{id} [delete]
func (h *ClassHandler) Delete(c *gin.Context) {
	if err := h.classes.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

type assignRequest struct {
	TeacherID string `json:"teacher_id"`
	Strategy  string `json:"strategy"`
}

// Assign godoc
// @Summary Assign a teacher to a class
// @Description Without teacher_id the allocator picks one per the requested strategy
// @Tags Classes
// @Accept json
// @Produce json
// @Param id path string true "Class ID"
// @Param payload body assignRequest false "Manual pick or strategy"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/allocate [post]
func (h *ClassHandler) Assign(c *gin.Context) {
	var req assignRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
			return
		}
	}
	strategy, ok := service.ParseStrategy(req.Strategy)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown allocation strategy"))
		return
	}
	class, err := h.allocation.AssignClass(c.Request.Context(), c.Param("id"), req.TeacherID, strategy)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class, nil)
}

type reallocateRequest struct {
	Strategy string `json:"strategy"`
}

// Reallocate godoc
// @Summary Replace the assigned teacher
// @Description Previously assigned teachers are excluded from the candidate pool
// @Tags Classes
// @Accept json
// @Produce json
// @Param id path string true "Class ID"
// @Param payload body reallocateRequest false "Strategy"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/reallocate [post]
func (h *ClassHandler) Reallocate(c *gin.Context) {
	var req reallocateRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid reallocation payload"))
			return
		}
	}
	strategy, ok := service.ParseStrategy(req.Strategy)
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unknown allocation strategy"))
		return
	}
	class, err := h.allocation.ReallocateClass(c.Request.Context(), c.Param("id"), strategy)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class, nil)
}

// Unassign godoc
// @Summary Drop the assigned teacher, back to pending
// @Tags Classes
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/unassign [post]
func (h *ClassHandler) Unassign(c *gin.Context) {
	class, err := h.classes.Unassign(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class, nil)
}

// Complete godoc
// @Summary Mark a class completed
// @Tags Classes
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/complete [post]
func (h *ClassHandler) Complete(c *gin.Context) {
	class, err := h.classes.Complete(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class, nil)
}

// Cancel godoc
// @Summary Cancel a class
// @Tags Classes
// @Produce json
// @Param id path string true "Class ID"
// @Success 200 {object} response.Envelope
// @Router /classes/{id}/cancel [post]
func (h *ClassHandler) Cancel(c *gin.Context) {
	class, err := h.classes.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, class, nil)
}

// Import godoc
// @Summary Import classes from a CSV file
// @Description Accepts a multipart "file" field or a raw CSV body
// @Tags Classes
// @Accept mpfd
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /classes/import [post]
func (h *ClassHandler) Import(c *gin.Context) {
	reader := c.Request.Body
	if file, err := c.FormFile("file"); err == nil {
		opened, err := file.Open()
		if err != nil {
			response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "unreadable upload"))
			return
		}
		defer opened.Close()
		reader = opened
	}

	result, err := h.importer.ImportClasses(c.Request.Context(), reader)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
