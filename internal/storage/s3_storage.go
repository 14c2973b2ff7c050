package storage

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	aws_config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"dwellhub/backend/internal/config"
)

// IMediaStorage defines the interface for listing image storage.
type IMediaStorage interface {
	Upload(ctx context.Context, body io.Reader, filename, contentType string, size int64) (string, error)
	Delete(ctx context.Context, publicURL string) error
}

// s3Storage implements IMediaStorage against an S3 bucket. Uploads are
// proxied through the API rather than presigned so size and count limits
// are enforced server-side.
type s3Storage struct {
	cfg    *config.Config
	client *s3.Client
}

// NewS3Storage creates a new S3-backed media storage.
func NewS3Storage(cfg *config.Config) (IMediaStorage, error) {
	awsCfg, err := aws_config.LoadDefaultConfig(context.TODO(),
		aws_config.WithRegion(cfg.AwsRegion),
		aws_config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AwsAccessKeyID,
			cfg.AwsSecretAccessKey,
			"", // session token
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &s3Storage{cfg: cfg, client: s3.NewFromConfig(awsCfg)}, nil
}

// Upload stores one image under a fresh uuid key and returns its public URL.
// The uuid prefix makes keys unguessable and collision-free; the original
// extension is kept so content negotiation keeps working.
func (s *s3Storage) Upload(ctx context.Context, body io.Reader, filename, contentType string, size int64) (string, error) {
	key := fmt.Sprintf("properties/%s%s", uuid.NewString(), strings.ToLower(path.Ext(filename)))

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.cfg.AwsS3Bucket),
		Key:           aws.String(key),
		Body:          body,
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(size),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload object %s: %w", key, err)
	}
	return s.publicURL(key), nil
}

// Delete removes an object previously uploaded through this storage. URLs
// not under the configured base are ignored.
func (s *s3Storage) Delete(ctx context.Context, publicURL string) error {
	base := s.baseURL()
	if !strings.HasPrefix(publicURL, base+"/") {
		return nil
	}
	key := strings.TrimPrefix(publicURL, base+"/")

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.cfg.AwsS3Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %s: %w", key, err)
	}
	return nil
}

func (s *s3Storage) baseURL() string {
	if s.cfg.ImageBaseURL != "" {
		return strings.TrimSuffix(s.cfg.ImageBaseURL, "/")
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", s.cfg.AwsS3Bucket, s.cfg.AwsRegion)
}

func (s *s3Storage) publicURL(key string) string {
	return s.baseURL() + "/" + key
}
