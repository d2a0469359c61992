package uploads

import (
	"bytes"
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/glowdesk/platform/pkg/logging"
)

// S3API is the subset of the S3 client the store uses.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store writes uploaded images to an S3 bucket and hands back their public
// URL.
type S3Store struct {
	bucket   string
	baseURL  string
	s3Client S3API
	logger   *logging.Logger
}

// NewS3Store creates an image store. baseURL is the public prefix objects are
// served from, typically the bucket website or CDN origin.
func NewS3Store(s3Client S3API, bucket, baseURL string, logger *logging.Logger) *S3Store {
	if s3Client == nil {
		panic("uploads: s3 client required")
	}
	if bucket == "" {
		panic("uploads: bucket required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &S3Store{bucket: bucket, baseURL: baseURL, s3Client: s3Client, logger: logger}
}

// Upload stores one object and returns the URL it will be served from.
func (s *S3Store) Upload(ctx context.Context, key string, contentType string, body []byte) (string, error) {
	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("uploads: s3 put %s: %w", key, err)
	}
	url := fmt.Sprintf("%s/%s", s.baseURL, key)
	s.logger.Info("image uploaded", "key", key, "bytes", len(body))
	return url, nil
}
