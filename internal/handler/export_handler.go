package handler

import (
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/airwaves-fm/airwaves-api/internal/service"
	appErrors "github.com/airwaves-fm/airwaves-api/pkg/errors"
	"github.com/airwaves-fm/airwaves-api/pkg/response"
)

type exportDownloader interface {
	ParseToken(token string, allowExpired bool) (stationID, relPath string, expiresAt time.Time, err error)
	Open(relPath string) (*os.File, error)
}

// ExportHandler serves signed schedule downloads.
type ExportHandler struct {
	exports exportDownloader
}

// NewExportHandler constructs an export download handler.
func NewExportHandler(svc *service.ExportService) *ExportHandler {
	return &ExportHandler{exports: svc}
}

// Download godoc
// @Summary Download a schedule export
// @Tags Schedule
// @Produce octet-stream
// @Param token path string true "Signed token"
// @Success 200 {file} file
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /export/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	_, relPath, _, err := h.exports.ParseToken(c.Param("token"), false)
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "download link is invalid or expired"))
		return
	}
	file, err := h.exports.Open(relPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			response.Error(c, appErrors.Clone(appErrors.ErrNotFound, "export no longer available"))
			return
		}
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export"))
		return
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to stat export"))
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filepath.Base(relPath)+`"`)
	c.Header("Cache-Control", "private, no-store")
	http.ServeContent(c.Writer, c.Request, filepath.Base(relPath), info.ModTime(), file)
}
