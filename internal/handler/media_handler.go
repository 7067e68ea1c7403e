package handler

import (
	"context"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/airwaves-fm/airwaves-api/internal/models"
	"github.com/airwaves-fm/airwaves-api/internal/service"
	appErrors "github.com/airwaves-fm/airwaves-api/pkg/errors"
	"github.com/airwaves-fm/airwaves-api/pkg/response"
)

type mediaUploader interface {
	Upload(ctx context.Context, filename string, size int64, body io.ReadSeeker) (*models.MediaUpload, error)
}

// MediaHandler accepts editor uploads.
type MediaHandler struct {
	service mediaUploader
}

// NewMediaHandler constructs a media handler.
func NewMediaHandler(svc *service.MediaService) *MediaHandler {
	return &MediaHandler{service: svc}
}

// Upload godoc
// @Summary Upload an image
// @Tags Media
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param file formData file true "File"
// @Success 201 {object} response.Envelope
// @Failure 413 {object} response.Envelope
// @Failure 415 {object} response.Envelope
// @Router /uploads [post]
func (h *MediaHandler) Upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "file field is required"))
		return
	}
	file, err := header.Open()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open upload"))
		return
	}
	defer file.Close()

	upload, err := h.service.Upload(c.Request.Context(), header.Filename, header.Size, file)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, upload)
}
