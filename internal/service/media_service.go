package service

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/airwaves-fm/airwaves-api/internal/models"
	appErrors "github.com/airwaves-fm/airwaves-api/pkg/errors"
	"github.com/airwaves-fm/airwaves-api/pkg/storage"
)

// MediaConfig limits what editors may upload.
type MediaConfig struct {
	MaxSize      int64
	AllowedTypes []string
}

// MediaService stores thumbnails, logos and presenter photos in the configured backend.
type MediaService struct {
	store   storage.MediaStore
	cfg     MediaConfig
	allowed map[string]bool
	logger  *zap.Logger
	now     func() time.Time
}

// NewMediaService constructs a media service over store.
func NewMediaService(store storage.MediaStore, cfg MediaConfig, logger *zap.Logger) *MediaService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.MaxSize <= 0 {
		cfg.MaxSize = 10 << 20
	}
	allowed := make(map[string]bool, len(cfg.AllowedTypes))
	for _, t := range cfg.AllowedTypes {
		allowed[strings.ToLower(strings.TrimSpace(t))] = true
	}
	return &MediaService{store: store, cfg: cfg, allowed: allowed, logger: logger, now: time.Now}
}

// Upload sniffs the content type of body, enforces the size limit and whitelist, and stores it.
func (s *MediaService) Upload(ctx context.Context, filename string, size int64, body io.ReadSeeker) (*models.MediaUpload, error) {
	if size > s.cfg.MaxSize {
		return nil, appErrors.Clone(appErrors.ErrPayloadTooLarge, "file exceeds upload limit")
	}
	if size <= 0 {
		return nil, appErrors.Clone(appErrors.ErrValidation, "file is empty")
	}

	contentType, err := sniff(body)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read upload")
	}
	if contentType == "application/octet-stream" || strings.HasPrefix(contentType, "text/plain") {
		contentType = storage.ContentTypeFor(filename)
	}
	if len(s.allowed) > 0 && !s.allowed[contentType] {
		return nil, appErrors.Clone(appErrors.ErrUnsupportedMedia, "file type "+contentType+" is not allowed")
	}

	now := s.now()
	key := storage.MediaKey(filename, now)
	url, err := s.store.Put(ctx, key, body, contentType)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store upload")
	}
	s.logger.Info("media uploaded", zap.String("key", key), zap.String("content_type", contentType), zap.Int64("size", size))
	return &models.MediaUpload{Key: key, URL: url, ContentType: contentType, Size: size, UploadedAt: now.UTC()}, nil
}

// sniff reads the first 512 bytes and rewinds body.
func sniff(body io.ReadSeeker) (string, error) {
	head := make([]byte, 512)
	n, err := io.ReadFull(body, head)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", err
	}
	if _, err := body.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return http.DetectContentType(head[:n]), nil
}
