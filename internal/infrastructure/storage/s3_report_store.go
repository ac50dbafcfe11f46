package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"path"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/l3hautikpatel/credwise-sub000/internal/domain/port"
)

// Compile-time interface check.
var _ port.ReportStore = (*S3ReportStore)(nil)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type S3Config struct {
	Endpoint        string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	UseSSL          bool
	Region          string
	Prefix          string
}

// objectClient is the subset of *minio.Client the store needs.
type objectClient interface {
	PutObject(ctx context.Context, bucket, key string, r io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	PresignedGetObject(ctx context.Context, bucket, key string, expires time.Duration, params url.Values) (*url.URL, error)
}

// S3ReportStore uploads batch reports to an S3-compatible bucket.
type S3ReportStore struct {
	raw    objectClient
	bucket string
	prefix string
	now    func() time.Time
}

func NewS3ReportStore(cfg S3Config) (*S3ReportStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create s3 client: %w", err)
	}
	return newS3ReportStore(client, cfg.Bucket, cfg.Prefix), nil
}

func newS3ReportStore(client objectClient, bucket, prefix string) *S3ReportStore {
	return &S3ReportStore{raw: client, bucket: bucket, prefix: prefix, now: time.Now}
}

// Upload stores data under prefix/YYYY/MM/DD/<timestamp>-name and returns
// the object key.
func (s *S3ReportStore) Upload(ctx context.Context, name string, data []byte) (string, error) {
	if name == "" {
		return "", errors.New("report name is required")
	}
	now := s.now().UTC()
	key := path.Join(s.prefix, now.Format("2006/01/02"), now.Format("20060102T150405")+"-"+path.Base(name))

	_, err := s.raw.PutObject(ctx, s.bucket, key, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: xlsxContentType,
	})
	if err != nil {
		return "", fmt.Errorf("put object %q failed: %w", key, err)
	}
	return key, nil
}

// PresignedURL returns a temporary download link for key.
func (s *S3ReportStore) PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	u, err := s.raw.PresignedGetObject(ctx, s.bucket, key, ttl, nil)
	if err != nil {
		return "", fmt.Errorf("presign get object %q failed: %w", key, err)
	}
	return u.String(), nil
}
