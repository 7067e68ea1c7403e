package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
)

// MediaStore persists uploaded media and returns the public URL it is served from.
type MediaStore interface {
	Put(ctx context.Context, key string, body io.ReadSeeker, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
}

// LocalMediaStore writes uploads to disk; the HTTP layer serves them under publicBaseURL.
type LocalMediaStore struct {
	files         *LocalStorage
	publicBaseURL string
}

// NewLocalMediaStore wraps files for media uploads.
func NewLocalMediaStore(files *LocalStorage, publicBaseURL string) *LocalMediaStore {
	return &LocalMediaStore{files: files, publicBaseURL: strings.TrimRight(publicBaseURL, "/")}
}

// Put implements MediaStore.
func (m *LocalMediaStore) Put(_ context.Context, key string, body io.ReadSeeker, _ string) (string, error) {
	if _, err := m.files.SaveStream(key, body); err != nil {
		return "", err
	}
	return m.publicBaseURL + "/" + strings.TrimLeft(key, "/"), nil
}

// Delete implements MediaStore.
func (m *LocalMediaStore) Delete(_ context.Context, key string) error {
	return m.files.Delete(key)
}

// S3Store uploads media to an S3 compatible bucket such as DigitalOcean Spaces.
type S3Store struct {
	client s3iface.S3API
	bucket string
	cdnURL string
}

// S3Options configures NewS3Store.
type S3Options struct {
	Bucket    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
	CDNURL    string
}

// NewS3Store opens an AWS session for the bucket.
func NewS3Store(opts S3Options) (*S3Store, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	cfg := &aws.Config{Region: aws.String(opts.Region)}
	if opts.AccessKey != "" {
		cfg.Credentials = credentials.NewStaticCredentials(opts.AccessKey, opts.SecretKey, "")
	}
	if opts.Endpoint != "" {
		cfg.Endpoint = aws.String(opts.Endpoint)
	}
	sess, err := session.NewSession(cfg)
	if err != nil {
		return nil, fmt.Errorf("create s3 session: %w", err)
	}
	cdn := opts.CDNURL
	if cdn == "" {
		cdn = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", opts.Bucket, opts.Region)
	}
	return NewS3StoreWithClient(s3.New(sess), opts.Bucket, cdn), nil
}

// NewS3StoreWithClient builds a store over an existing client.
func NewS3StoreWithClient(client s3iface.S3API, bucket, cdnURL string) *S3Store {
	return &S3Store{client: client, bucket: bucket, cdnURL: strings.TrimRight(cdnURL, "/")}
}

// Put implements MediaStore.
func (s *S3Store) Put(ctx context.Context, key string, body io.ReadSeeker, contentType string) (string, error) {
	if contentType == "" {
		contentType = ContentTypeFor(key)
	}
	_, err := s.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:       aws.String(s.bucket),
		Key:          aws.String(key),
		Body:         body,
		ContentType:  aws.String(contentType),
		ACL:          aws.String(s3.ObjectCannedACLPublicRead),
		CacheControl: aws.String("public, max-age=31536000"),
	})
	if err != nil {
		return "", fmt.Errorf("put object %s: %w", key, err)
	}
	return s.cdnURL + "/" + key, nil
}

// Delete implements MediaStore.
func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("delete object %s: %w", key, err)
	}
	return nil
}

var unsafeNameChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

// MediaKey builds a collision resistant object key such as "uploads/2024/01/night_lounge_20240107_203000.png".
func MediaKey(original string, now time.Time) string {
	ext := strings.ToLower(filepath.Ext(original))
	base := strings.TrimSuffix(filepath.Base(original), filepath.Ext(original))
	base = unsafeNameChars.ReplaceAllString(strings.ReplaceAll(base, " ", "_"), "")
	if base == "" {
		base = "file"
	}
	name := fmt.Sprintf("%s_%s%s", strings.ToLower(base), now.UTC().Format("20060102_150405"), ext)
	return path.Join("uploads", now.UTC().Format("2006/01"), name)
}

// ContentTypeFor guesses a content type from the file extension.
func ContentTypeFor(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".png":
		return "image/png"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".mp3":
		return "audio/mpeg"
	case ".pdf":
		return "application/pdf"
	case ".csv":
		return "text/csv"
	case ".ics":
		return "text/calendar"
	default:
		return "application/octet-stream"
	}
}
