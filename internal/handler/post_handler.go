package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/airwaves-fm/airwaves-api/internal/middleware"
	"github.com/airwaves-fm/airwaves-api/internal/models"
	"github.com/airwaves-fm/airwaves-api/internal/service"
	appErrors "github.com/airwaves-fm/airwaves-api/pkg/errors"
	"github.com/airwaves-fm/airwaves-api/pkg/response"
)

type postService interface {
	List(ctx context.Context, filter models.PostFilter) ([]models.Post, *models.Pagination, error)
	GetBySlug(ctx context.Context, slug string, includeDrafts bool) (*models.Post, error)
	Create(ctx context.Context, authorID string, req service.PostRequest) (*models.Post, error)
	Update(ctx context.Context, id string, req service.PostRequest) (*models.Post, error)
	Delete(ctx context.Context, id string) error
}

// PostHandler serves the blog.
type PostHandler struct {
	service postService
}

// NewPostHandler constructs a blog handler.
func NewPostHandler(svc *service.PostService) *PostHandler {
	return &PostHandler{service: svc}
}

// List godoc
// @Summary List posts
// @Description Anonymous callers only see published posts.
// @Tags Posts
// @Produce json
// @Param stationId query string false "Filter by station"
// @Param search query string false "Search keyword"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /posts [get]
func (h *PostHandler) List(c *gin.Context) {
	filter := models.PostFilter{
		StationID:     c.Query("stationId"),
		Search:        strings.TrimSpace(c.Query("search")),
		PublishedOnly: !middleware.IsStaff(c),
	}
	filter.Page, filter.PageSize = pageParams(c)

	posts, pagination, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, posts, pagination)
}

// Get godoc
// @Summary Get post by slug with rendered HTML
// @Tags Posts
// @Produce json
// @Param slug path string true "Post slug"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /posts/{slug} [get]
func (h *PostHandler) Get(c *gin.Context) {
	post, err := h.service.GetBySlug(c.Request.Context(), c.Param("slug"), middleware.IsStaff(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, post, nil)
}

// Create godoc
// @Summary Create post
// @Tags Posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body service.PostRequest true "Post payload"
// @Success 201 {object} response.Envelope
// @Router /posts [post]
func (h *PostHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.PostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	post, err := h.service.Create(c.Request.Context(), claims.UserID, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, post)
}

// Update godoc
// @Summary Update post
// @Tags Posts
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Post ID"
// @Param payload body service.PostRequest true "Post payload"
// @Success 200 {object} response.Envelope
// @Router /posts/{id} [put]
func (h *PostHandler) Update(c *gin.Context) {
	var req service.PostRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	post, err := h.service.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, post, nil)
}

// Delete godoc
// @Summary Delete post
// @Tags Posts
// @Security BearerAuth
// @Param id path string true "Post ID"
// @Success 204
// @Router /posts/{id} [delete]
func (h *PostHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}
