package handler

import (
	"context"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/airwaves-fm/airwaves-api/internal/models"
	"github.com/airwaves-fm/airwaves-api/internal/service"
	appErrors "github.com/airwaves-fm/airwaves-api/pkg/errors"
	"github.com/airwaves-fm/airwaves-api/pkg/response"
)

type stationService interface {
	List(ctx context.Context, filter models.StationFilter) ([]models.Station, *models.Pagination, error)
	Get(ctx context.Context, id string) (*models.Station, error)
	GetBySlug(ctx context.Context, slug string) (*models.Station, error)
	Create(ctx context.Context, req service.StationRequest) (*models.Station, error)
	Update(ctx context.Context, id string, req service.StationRequest) (*models.Station, error)
	Delete(ctx context.Context, id string) error
}

// StationHandler handles station endpoints.
type StationHandler struct {
	service stationService
}

// NewStationHandler constructs a station handler.
func NewStationHandler(svc *service.StationService) *StationHandler {
	return &StationHandler{service: svc}
}

// List godoc
// @Summary List stations
// @Tags Stations
// @Produce json
// @Param search query string false "Search keyword"
// @Param active query bool false "Only active stations"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Param sort query string false "name|slug|created_at"
// @Param order query string false "asc|desc"
// @Success 200 {object} response.Envelope
// @Router /stations [get]
func (h *StationHandler) List(c *gin.Context) {
	var filter models.StationFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.ActiveOnly, _ = strconv.ParseBool(c.Query("active"))
	filter.Page, filter.PageSize = pageParams(c)
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")

	stations, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stations, pagination)
}

// Get godoc
// @Summary Get station by id
// @Tags Stations
// @Produce json
// @Param id path string true "Station ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /stations/{id} [get]
func (h *StationHandler) Get(c *gin.Context) {
	station, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, station, nil)
}

// GetBySlug godoc
// @Summary Get station by slug
// @Tags Stations
// @Produce json
// @Param slug path string true "Station slug"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /stations/slug/{slug} [get]
func (h *StationHandler) GetBySlug(c *gin.Context) {
	station, err := h.service.GetBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, station, nil)
}

// Create godoc
// @Summary Create station
// @Tags Stations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.StationRequest true "Station payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /stations [post]
func (h *StationHandler) Create(c *gin.Context) {
	var req service.StationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	station, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, station)
}

// Update godoc
// @Summary Update station
// @Tags Stations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Station ID"
// @Param payload body service.StationRequest true "Station payload"
// @Success 200 {object} response.Envelope
// @Router /stations/{id} [put]
func (h *StationHandler) Update(c *gin.Context) {
	var req service.StationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	station, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, station, nil)
}

// Delete godoc
// @Summary Delete station
// @Tags Stations
// @Security BearerAuth
// @Param id path string true "Station ID"
// @Success 204
// @Router /stations/{id} [delete]
func (h *StationHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
