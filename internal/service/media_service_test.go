package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/airwaves-fm/airwaves-api/pkg/errors"
)

type mediaStoreStub struct {
	key         string
	contentType string
	body        []byte
	err         error
}

func (m *mediaStoreStub) Put(ctx context.Context, key string, body io.ReadSeeker, contentType string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	raw, err := io.ReadAll(body)
	if err != nil {
		return "", err
	}
	m.key, m.contentType, m.body = key, contentType, raw
	return "https://cdn.example.com/" + key, nil
}

func (m *mediaStoreStub) Delete(ctx context.Context, key string) error { return nil }

var pngHeader = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func newMediaServiceForTest(store *mediaStoreStub, maxSize int64) *MediaService {
	svc := NewMediaService(store, MediaConfig{MaxSize: maxSize, AllowedTypes: []string{"image/png", "image/jpeg"}}, nil)
	svc.now = func() time.Time { return monday0730 }
	return svc
}

func TestMediaServiceUploadStoresWholeBody(t *testing.T) {
	store := &mediaStoreStub{}
	svc := newMediaServiceForTest(store, 1024)

	upload, err := svc.Upload(context.Background(), "Show Art.PNG", int64(len(pngHeader)), bytes.NewReader(pngHeader))
	require.NoError(t, err)
	assert.Equal(t, "image/png", upload.ContentType)
	assert.Equal(t, pngHeader, store.body)
	assert.Equal(t, "https://cdn.example.com/"+upload.Key, upload.URL)
	assert.Contains(t, upload.Key, "2024/01")
}

func TestMediaServiceRejectsOversizedFile(t *testing.T) {
	svc := newMediaServiceForTest(&mediaStoreStub{}, 4)

	_, err := svc.Upload(context.Background(), "art.png", int64(len(pngHeader)), bytes.NewReader(pngHeader))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPayloadTooLarge.Code, appErrors.FromError(err).Code)
}

func TestMediaServiceRejectsDisallowedType(t *testing.T) {
	svc := newMediaServiceForTest(&mediaStoreStub{}, 1024)
	body := []byte("%PDF-1.4 not an image")

	_, err := svc.Upload(context.Background(), "art.pdf", int64(len(body)), bytes.NewReader(body))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnsupportedMedia.Code, appErrors.FromError(err).Code)
}

func TestMediaServiceStoreFailure(t *testing.T) {
	svc := newMediaServiceForTest(&mediaStoreStub{err: errors.New("bucket down")}, 1024)

	_, err := svc.Upload(context.Background(), "art.png", int64(len(pngHeader)), bytes.NewReader(pngHeader))
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}
