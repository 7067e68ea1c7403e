package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/airwaves-fm/airwaves-api/internal/models"
	"github.com/airwaves-fm/airwaves-api/internal/service"
	appErrors "github.com/airwaves-fm/airwaves-api/pkg/errors"
	"github.com/airwaves-fm/airwaves-api/pkg/response"
)

type oapService interface {
	List(ctx context.Context, filter models.OAPFilter) ([]models.OAP, *models.Pagination, error)
	Get(ctx context.Context, idOrSlug string) (*models.OAP, error)
	Create(ctx context.Context, req service.OAPRequest) (*models.OAP, error)
	Update(ctx context.Context, id string, req service.OAPRequest) (*models.OAP, error)
	Delete(ctx context.Context, id string) error
}

// OAPHandler serves presenter profiles.
type OAPHandler struct {
	service oapService
}

// NewOAPHandler constructs a presenter handler.
func NewOAPHandler(svc *service.OAPService) *OAPHandler {
	return &OAPHandler{service: svc}
}

// List godoc
// @Summary List presenters
// @Tags OAPs
// @Produce json
// @Param stationId query string false "Filter by station"
// @Param search query string false "Search keyword"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /oaps [get]
func (h *OAPHandler) List(c *gin.Context) {
	filter := models.OAPFilter{
		StationID: c.Query("stationId"),
		Search:    strings.TrimSpace(c.Query("search")),
	}
	filter.Page, filter.PageSize = pageParams(c)

	oaps, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, oaps, pagination)
}

// Get godoc
// @Summary Get presenter by id or slug
// @Tags OAPs
// @Produce json
// @Param id path string true "Presenter ID or slug"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /oaps/{id} [get]
func (h *OAPHandler) Get(c *gin.Context) {
	oap, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, oap, nil)
}

// Create godoc
// @Summary Create presenter
// @Tags OAPs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.OAPRequest true "Presenter payload"
// @Success 201 {object} response.Envelope
// @Router /oaps [post]
func (h *OAPHandler) Create(c *gin.Context) {
	var req service.OAPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	oap, err := h.service.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, oap)
}

// Update godoc
// @Summary Update presenter
// @Tags OAPs
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Presenter ID"
// @Param payload body service.OAPRequest true "Presenter payload"
// @Success 200 {object} response.Envelope
// @Router /oaps/{id} [put]
func (h *OAPHandler) Update(c *gin.Context) {
	var req service.OAPRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	oap, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, oap, nil)
}

// Delete godoc
// @Summary Delete presenter
// @Tags OAPs
// @Security BearerAuth
// @Param id path string true "Presenter ID"
// @Success 204
// @Router /oaps/{id} [delete]
func (h *OAPHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
