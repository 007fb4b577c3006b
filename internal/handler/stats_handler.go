package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rosterly/staffing-api/internal/middleware"
	"github.com/rosterly/staffing-api/internal/service"
	appErrors "github.com/rosterly/staffing-api/pkg/errors"
	"github.com/rosterly/staffing-api/pkg/response"
)

// StatsHandler exposes workload statistics and report exports.
type StatsHandler struct {
	workload *service.WorkloadService
	exports  *service.ReportExportService
}

// NewStatsHandler constructs a stats handler.
func NewStatsHandler(workload *service.WorkloadService, exports *service.ReportExportService) *StatsHandler {
	return &StatsHandler{workload: workload, exports: exports}
}

// TeamSummary godoc
// @Summary Team workload summary over a date range
// @Tags Stats
// @Produce json
// @Param from query string true "Range start (YYYY-MM-DD)"
// @Param to query string true "Range end (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /stats/summary [get]
func (h *StatsHandler) TeamSummary(c *gin.Context) {
	from, to, err := parseDateRange(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	start := time.Now()
	summary, cacheHit, err := h.workload.TeamSummary(c.Request.Context(), from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil, statsMeta(c, cacheHit, start))
}

// statsMeta records the cache outcome on the request context and returns the
// envelope meta for a stats response.
func statsMeta(c *gin.Context, cacheHit bool, start time.Time) map[string]interface{} {
	middleware.SetCacheHit(c, cacheHit)
	meta := middleware.ExtractMeta(c)
	if meta == nil {
		meta = map[string]interface{}{}
		meta["cache_hit"] = cacheHit
	}
	meta["processing_time_ms"] = time.Since(start).Milliseconds()
	return meta
}

// TeacherStats godoc
// @Summary Per-teacher workload breakdown
// @Tags Stats
// @Produce json
// @Param id path string true "Teacher ID"
// @Param from query string true "Range start (YYYY-MM-DD)"
// @Param to query string true "Range end (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Router /stats/teachers/{id} [get]
func (h *StatsHandler) TeacherStats(c *gin.Context) {
	from, to, err := parseDateRange(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	start := time.Now()
	stats, cacheHit, err := h.workload.TeacherStats(c.Request.Context(), c.Param("id"), from, to)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil, statsMeta(c, cacheHit, start))
}

// PersonalStats godoc
// @Summary Current teacher's month-to-date hours plus a 7-day agenda
// @Tags Stats
// @Produce json
// @Param date query string false "Reference date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} response.Envelope
// @Router /stats/me [get]
func (h *StatsHandler) PersonalStats(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil || claims.TeacherID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrForbidden, "account is not linked to a teacher"))
		return
	}
	ref := time.Now().UTC()
	if raw := c.Query("date"); raw != "" {
		parsed, err := time.Parse(dateParamLayout, raw)
		if err != nil {
			response.Error(c, appErrors.Clone(appErrors.ErrValidation, "date must be YYYY-MM-DD"))
			return
		}
		ref = parsed
	}
	stats, err := h.workload.PersonalStats(c.Request.Context(), claims.TeacherID, ref)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}

// Export godoc
// @Summary Download the team workload report
// @Tags Stats
// @Produce text/csv
// @Produce application/pdf
// @Param from query string true "Range start (YYYY-MM-DD)"
// @Param to query string true "Range end (YYYY-MM-DD)"
// @Param format query string false "Report format (csv/pdf), defaults to csv"
// @Success 200 {file} file
// @Router /stats/export [get]
func (h *StatsHandler) Export(c *gin.Context) {
	from, to, err := parseDateRange(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	format, ok := service.ParseReportFormat(c.Query("format"))
	if !ok {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
		return
	}
	result, err := h.exports.TeamWorkload(c.Request.Context(), from, to, format)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+result.Filename+`"`)
	c.Data(http.StatusOK, result.ContentType, result.Payload)
}
