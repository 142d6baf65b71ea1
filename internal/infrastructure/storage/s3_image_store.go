package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"clinic-booking/internal/service"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/sirupsen/logrus"
)

// S3API is the subset of the S3 client used by S3ImageStore.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3ImageStore keeps doctor pictures in one bucket. Public URLs are
// <baseURL>/<key>, so Delete can recover the key from a stored URL.
type S3ImageStore struct {
	client  S3API
	bucket  string
	baseURL string
	log     *logrus.Logger
}

// NewS3ImageStore returns nil when no bucket is configured.
func NewS3ImageStore(client S3API, bucket, publicBaseURL, region string, log *logrus.Logger) *S3ImageStore {
	if client == nil || bucket == "" {
		return nil
	}
	if publicBaseURL == "" {
		publicBaseURL = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region)
	}
	return &S3ImageStore{
		client:  client,
		bucket:  bucket,
		baseURL: strings.TrimSuffix(publicBaseURL, "/"),
		log:     log,
	}
}

func (s *S3ImageStore) Upload(ctx context.Context, key, contentType string, size int64, body io.Reader) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
		CacheControl:  aws.String("max-age=3600"),
	})
	if err != nil {
		return "", fmt.Errorf("storage: s3 put %s: %w", key, err)
	}

	s.log.WithFields(logrus.Fields{"bucket": s.bucket, "key": key}).Info("Uploaded doctor image")
	return s.URL(key), nil
}

func (s *S3ImageStore) Delete(ctx context.Context, url string) error {
	key, ok := s.keyFromURL(url)
	if !ok {
		s.log.Debugf("Skipping delete of foreign image url %s", url)
		return nil
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("storage: s3 delete %s: %w", key, err)
	}
	return nil
}

func (s *S3ImageStore) URL(key string) string {
	return s.baseURL + "/" + key
}

func (s *S3ImageStore) keyFromURL(url string) (string, bool) {
	key, ok := strings.CutPrefix(url, s.baseURL+"/")
	if !ok || key == "" || strings.Contains(key, "/") {
		return "", false
	}
	return key, true
}

var _ service.ImageStore = (*S3ImageStore)(nil)
