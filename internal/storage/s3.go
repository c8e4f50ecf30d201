package storage

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/rs/zerolog"

	"github.com/glimpse-app/glimpse/internal/config"
	"github.com/glimpse-app/glimpse/internal/domain"
)

// S3Backend stores images in an S3-compatible object store.
// Filenames map directly to object keys inside a single bucket.
type S3Backend struct {
	client *s3.Client
	bucket string
	logger zerolog.Logger
}

// NewS3Backend creates an S3-compatible storage backend.
// A custom endpoint enables MinIO and other S3-compatible stores.
func NewS3Backend(ctx context.Context, cfg config.S3StorageConfig, logger zerolog.Logger) (*S3Backend, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
	}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	logger.Info().
		Str("bucket", cfg.Bucket).
		Str("region", cfg.Region).
		Msg("s3 storage initialized")

	return &S3Backend{
		client: client,
		bucket: cfg.Bucket,
		logger: logger.With().Str("storage", "s3").Logger(),
	}, nil
}

// Save stores content under the given filename.
func (b *S3Backend) Save(ctx context.Context, filename string, reader io.Reader, size int64) error {
	name, ok := SanitizeFilename(filename)
	if !ok {
		return fmt.Errorf("invalid filename %q", filename)
	}

	input := &s3.PutObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(name),
		Body:   reader,
	}
	if size >= 0 {
		input.ContentLength = aws.Int64(size)
	}

	if _, err := b.client.PutObject(ctx, input); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}

	b.logger.Debug().Str("filename", name).Int64("size", size).Msg("image stored")
	return nil
}

// Open retrieves stored content by filename.
func (b *S3Backend) Open(ctx context.Context, filename string) (io.ReadCloser, error) {
	name, ok := SanitizeFilename(filename)
	if !ok {
		return nil, domain.ErrImageNotFound
	}

	out, err := b.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(name),
	})
	if err != nil {
		if isNoSuchKey(err) {
			return nil, domain.ErrImageNotFound
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	return out.Body, nil
}

// Delete removes stored content by filename.
func (b *S3Backend) Delete(ctx context.Context, filename string) error {
	name, ok := SanitizeFilename(filename)
	if !ok {
		return nil
	}

	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(name),
	})
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}

	b.logger.Debug().Str("filename", name).Msg("image deleted")
	return nil
}

// Exists checks if a file with the given name exists.
func (b *S3Backend) Exists(ctx context.Context, filename string) (bool, error) {
	name, ok := SanitizeFilename(filename)
	if !ok {
		return false, nil
	}

	_, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(name),
	})
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	return true, nil
}

// Size returns the size of a stored file in bytes.
func (b *S3Backend) Size(ctx context.Context, filename string) (int64, error) {
	name, ok := SanitizeFilename(filename)
	if !ok {
		return 0, domain.ErrImageNotFound
	}

	out, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(name),
	})
	if err != nil {
		if isNotFound(err) {
			return 0, domain.ErrImageNotFound
		}
		return 0, fmt.Errorf("%w: %v", domain.ErrStorageUnavailable, err)
	}
	return aws.ToInt64(out.ContentLength), nil
}

func isNoSuchKey(err error) bool {
	var noSuchKey *types.NoSuchKey
	return errors.As(err, &noSuchKey)
}

func isNotFound(err error) bool {
	var notFound *types.NotFound
	return errors.As(err, &notFound) || isNoSuchKey(err)
}

// Ensure S3Backend implements Backend.
var _ Backend = (*S3Backend)(nil)
