package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/airwaves-fm/airwaves-api/internal/middleware"
	"github.com/airwaves-fm/airwaves-api/internal/models"
	"github.com/airwaves-fm/airwaves-api/internal/service"
	appErrors "github.com/airwaves-fm/airwaves-api/pkg/errors"
	"github.com/airwaves-fm/airwaves-api/pkg/response"
)

type scheduleService interface {
	List(ctx context.Context, stationID string) ([]models.ScheduleSlot, error)
	Week(ctx context.Context, stationID string, withIssues bool) (*service.ScheduleWeek, error)
	NowPlaying(ctx context.Context, stationID string) (*service.NowPlaying, error)
	Validate(ctx context.Context, stationID string, req service.ReplaceScheduleRequest) (*service.ScheduleValidation, error)
	Replace(ctx context.Context, stationID string, req service.ReplaceScheduleRequest) ([]models.ScheduleSlot, error)
	Delete(ctx context.Context, slotID string) error
	ICS(ctx context.Context, stationID string) ([]byte, error)
	Export(ctx context.Context, stationID string, format service.ExportFormat) (*service.ExportResult, error)
}

const publicWeekMaxAge = time.Minute

// ScheduleHandler exposes weekly grids, now-playing and the editor save path.
type ScheduleHandler struct {
	service scheduleService
}

// NewScheduleHandler constructs handler.
func NewScheduleHandler(svc *service.ScheduleService) *ScheduleHandler {
	return &ScheduleHandler{service: svc}
}

// List godoc
// @Summary List stored schedule slots
// @Tags Schedule
// @Produce json
// @Param stationId query string true "Station ID"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /schedule [get]
func (h *ScheduleHandler) List(c *gin.Context) {
	stationID := strings.TrimSpace(c.Query("stationId"))
	if stationID == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "stationId is required"))
		return
	}
	slots, err := h.service.List(c.Request.Context(), stationID)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}

// Week godoc
// @Summary Weekly schedule grid
// @Description Seven weekday buckets sorted by start time. Validation issues are included for staff tokens only.
// @Tags Schedule
// @Produce json
// @Param id path string true "Station ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /stations/{id}/schedule/week [get]
func (h *ScheduleHandler) Week(c *gin.Context) {
	staff := middleware.IsStaff(c)
	week, err := h.service.Week(c.Request.Context(), c.Param("id"), staff)
	if err != nil {
		response.Error(c, err)
		return
	}
	if staff {
		response.JSON(c, http.StatusOK, week, nil)
		return
	}
	response.Public(c, http.StatusOK, week, publicWeekMaxAge)
}

// NowPlaying godoc
// @Summary Current and next show
// @Tags Schedule
// @Produce json
// @Param id path string true "Station ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /stations/{id}/now-playing [get]
func (h *ScheduleHandler) NowPlaying(c *gin.Context) {
	result, err := h.service.NowPlaying(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// ICS godoc
// @Summary Weekly iCalendar feed
// @Tags Schedule
// @Produce text/calendar
// @Param id path string true "Station ID"
// @Success 200 {string} string "text/calendar"
// @Failure 404 {object} response.Envelope
// @Router /stations/{id}/schedule.ics [get]
func (h *ScheduleHandler) ICS(c *gin.Context) {
	body, err := h.service.ICS(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	c.Header("Cache-Control", "public, max-age=300")
	c.Data(http.StatusOK, "text/calendar; charset=utf-8", body)
}

// Validate godoc
// @Summary Dry-run a schedule save
// @Tags Schedule
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Station ID"
// @Param payload body service.ReplaceScheduleRequest true "Slots"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /stations/{id}/schedule/validate [post]
func (h *ScheduleHandler) Validate(c *gin.Context) {
	var req service.ReplaceScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid schedule payload"))
		return
	}
	result, err := h.service.Validate(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}

// Replace godoc
// @Summary Replace a station's schedule
// @Description Last write wins. Malformed slots give 400, overlapping slots give 409.
// @Tags Schedule
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Station ID"
// @Param payload body service.ReplaceScheduleRequest true "Slots"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /stations/{id}/schedule [put]
func (h *ScheduleHandler) Replace(c *gin.Context) {
	var req service.ReplaceScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid schedule payload"))
		return
	}
	slots, err := h.service.Replace(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, slots, nil)
}

// Delete godoc
// @Summary Delete one slot
// @Tags Schedule
// @Security BearerAuth
// @Param id path string true "Slot ID"
// @Success 204
// @Failure 404 {object} response.Envelope
// @Router /schedule/{id} [delete]
func (h *ScheduleHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// Export godoc
// @Summary Export the weekly schedule
// @Tags Schedule
// @Produce json
// @Security BearerAuth
// @Param id path string true "Station ID"
// @Param format query string false "csv or pdf" default(csv)
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /stations/{id}/schedule/export [post]
func (h *ScheduleHandler) Export(c *gin.Context) {
	format := service.ExportFormat(strings.ToLower(c.DefaultQuery("format", string(service.ExportFormatCSV))))
	if !format.Valid() {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "format must be csv or pdf"))
		return
	}
	result, err := h.service.Export(c.Request.Context(), c.Param("id"), format)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, result)
}
