package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/pkg/errors"

	"example.com/backstage/services/bipagem/config"
)

// ReportsPrefix is the object prefix of archived report spreadsheets
const ReportsPrefix = "relatorios"

// MinioService stores report archives in an S3-compatible bucket
type MinioService struct {
	client *minio.Client
	bucket string
	config config.MinioConfig
}

// NewMinioService creates the client. No request is made until first use.
func NewMinioService(cfg config.MinioConfig) (*MinioService, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to create minio client")
	}

	return &MinioService{
		client: client,
		bucket: cfg.Bucket,
		config: cfg,
	}, nil
}

// EnsureBucket creates the bucket if it doesn't exist
func (s *MinioService) EnsureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return errors.Wrap(err, "failed to check bucket")
	}

	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return errors.Wrapf(err, "failed to create bucket %s", s.bucket)
		}
	}

	return nil
}

// UploadFile uploads an object
func (s *MinioService) UploadFile(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) error {
	_, err := s.client.PutObject(ctx, s.bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return errors.Wrapf(err, "failed to upload %s", objectName)
	}

	return nil
}

// GetPresignedURL generates a download URL valid for expiry
func (s *MinioService) GetPresignedURL(ctx context.Context, objectName string, expiry time.Duration) (string, error) {
	url, err := s.client.PresignedGetObject(ctx, s.bucket, objectName, expiry, nil)
	if err != nil {
		return "", errors.Wrap(err, "failed to generate presigned URL")
	}

	return url.String(), nil
}

// GetPublicURL returns a public URL for the object (if bucket policy allows)
func (s *MinioService) GetPublicURL(objectName string) string {
	protocol := "http"
	if s.config.UseSSL {
		protocol = "https"
	}
	return fmt.Sprintf("%s://%s/%s/%s", protocol, s.config.Endpoint, s.bucket, objectName)
}

// ReportObjectName is where the spreadsheet of a report is archived
func ReportObjectName(date, fileName string) string {
	return path.Join(ReportsPrefix, date, fileName)
}
