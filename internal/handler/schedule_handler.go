package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rosterly/staffing-api/internal/models"
	"github.com/rosterly/staffing-api/internal/service"
	appErrors "github.com/rosterly/staffing-api/pkg/errors"
	"github.com/rosterly/staffing-api/pkg/response"
)

// ScheduleHandler manages fixed schedule and leave endpoints.
type ScheduleHandler struct {
	service *service.FixedScheduleService
}

// NewScheduleHandler constructs a schedule handler.
func NewScheduleHandler(svc *service.FixedScheduleService) *ScheduleHandler {
	return &ScheduleHandler{service: svc}
}

// List godoc
// @Summary List fixed schedules
// @Tags Schedules
// @Produce json
// @Param teacher_id query string false "Filter by teacher"
// @Param subject_level_id query string false "Filter by subject level"
// @Param day_of_week query string false "Filter by weekday (monday..sunday)"
// @Param active query bool false "Only active schedules"
// @Success 200 {object} response.Envelope
// @Router /schedules [get]
func (h *ScheduleHandler) List(c *gin.Context) {
	filter := models.FixedScheduleFilter{
		TeacherID:      c.Query("teacher_id"),
		SubjectLevelID: c.Query("subject_level_id"),
		ActiveOnly:     c.Query("active") == "true",
	}
	if raw := c.Query("day_of_week"); raw != "" {
		day, ok := models.ParseWeekday(raw)
		if !ok {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid day of week"))
			return
		}
		filter.DayOfWeek = &day
	}

	schedules, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedules, nil)
}

// Get godoc
// @Summary Get schedule detail
// @Tags Schedules
// @Produce json
// @Param id path string true "Schedule ID"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id} [get]
func (h *ScheduleHandler) Get(c *gin.Context) {
	schedule, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}

// Create godoc
// @Summary Create a recurring schedule
// @Tags Schedules
// @Accept json
// @Produce json
// @Param payload body service.FixedScheduleRequest true "Schedule payload"
// @Success 201 {object} response.Envelope
// @Router /schedules [post]
func (h *ScheduleHandler) Create(c *gin.Context) {
	var req service.FixedScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid schedule payload"))
		return
	}
	schedule, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, schedule)
}

// Update godoc
// @Summary Update a recurring schedule
// @Tags Schedules
// @Accept json
// @Produce json
// @Param id path string true "Schedule ID"
// @Param payload body service.FixedScheduleRequest true "Schedule payload"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id} [put]
func (h *ScheduleHandler) Update(c *gin.Context) {
	var req service.FixedScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid schedule payload"))
		return
	}
	schedule, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, schedule, nil)
}

// Deactivate godoc
// @Summary Deactivate a recurring schedule
// @Description The schedule stops emitting occurrences; leave history stays intact
// @Tags Schedules
// @Param id path string true "Schedule ID"
// @Success 204
// @Router /schedules/{id} [delete]
func (h *ScheduleHandler) Deactivate(c *gin.Context) {
	if err := h.service.Deactivate(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Occurrences godoc
// @Summary Expand a schedule into concrete dates
// @Tags Schedules
// @Produce json
// @Param id path string true "Schedule ID"
// @Param from query string true "Range start (YYYY-MM-DD)"
// @Param to query string true "Range end (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id}/occurrences [get]
func (h *ScheduleHandler) Occurrences(c *gin.Context) {
	from, to, err := parseDateRange(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	occurrences, err := h.service.Occurrences(c.Request.Context(), c.Param("id"), from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, occurrences, nil)
}

// ListLeaves godoc
// @Summary List leaves of a schedule
// @Tags Schedules
// @Produce json
// @Param id path string true "Schedule ID"
// @Param from query string false "Range start (YYYY-MM-DD)"
// @Param to query string false "Range end (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /schedules/{id}/leaves [get]
func (h *ScheduleHandler) ListLeaves(c *gin.Context) {
	filter := models.LeaveFilter{FixedScheduleID: c.Param("id")}
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

	leaves, err := h.service.ListLeaves(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, leaves, nil)
}

// CreateLeave godoc
// @Summary Record a leave on one occurrence
// @Tags Schedules
// @Accept json
// @Produce json
// @Param id path string true "Schedule ID"
// @Param payload body service.LeaveRequest true "Leave payload"
// @Success 201 {object} response.Envelope
// @Router /schedules/{id}/leaves [post]
func (h *ScheduleHandler) CreateLeave(c *gin.Context) {
	var req service.LeaveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid leave payload"))
		return
	}
	leave, err := h.service.CreateLeave(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, leave)
}

// DeleteLeave godoc
// @Summary Remove a leave record
// @Tags Schedules
// @Param id path string true "Schedule ID"
// @Param leaveId path string true "Leave ID"
// @Success 204
// @Router /schedules/{id}/leaves/{leaveId} [delete]
func (h *ScheduleHandler) DeleteLeave(c *gin.Context) {
	if err := h.service.DeleteLeave(c.Request.Context(), c.Param("leaveId")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

func parseDateRange(c *gin.Context) (time.Time, time.Time, error) {
	from, err := time.Parse(dateParamLayout, c.Query("from"))
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "from must be YYYY-MM-DD")
	}
	to, err := time.Parse(dateParamLayout, c.Query("to"))
	if err != nil {
		return time.Time{}, time.Time{}, appErrors.Clone(appErrors.ErrValidation, "to must be YYYY-MM-DD")
	}
	return from, to, nil
}
