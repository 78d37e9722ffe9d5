// Package storage keeps archived provider files in S3-compatible object storage.
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	applogistics "github.com/giftcampaign/backend/internal/application/logistics"
	infraconfig "github.com/giftcampaign/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

var _ applogistics.SnapshotArchive = (*S3Archive)(nil)

// S3Archive stores snapshot files in a bucket. It works with AWS S3 and
// S3-compatible servers such as MinIO.
type S3Archive struct {
	client *s3.Client
	bucket string
	logger *zap.Logger
}

// S3ArchiveOption configures an S3Archive
type S3ArchiveOption func(*S3Archive)

// WithLogger sets the archive logger
func WithLogger(logger *zap.Logger) S3ArchiveOption {
	return func(a *S3Archive) {
		a.logger = logger
	}
}

// NewS3Archive creates an archive from configuration. Without an access key
// the default AWS credential chain is used.
func NewS3Archive(ctx context.Context, cfg *infraconfig.StorageConfig, opts ...S3ArchiveOption) (*S3Archive, error) {
	if cfg == nil {
		return nil, errors.New("storage configuration is required")
	}
	if cfg.Bucket == "" {
		return nil, errors.New("storage bucket is required")
	}

	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}
	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	archive := &S3Archive{
		client: client,
		bucket: cfg.Bucket,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(archive)
	}
	return archive, nil
}

// Exists reports whether key is already archived
func (a *S3Archive) Exists(ctx context.Context, key string) (bool, error) {
	if key == "" {
		return false, errors.New("archive key is required")
	}
	_, err := a.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err == nil {
		return true, nil
	}
	var notFound *types.NotFound
	var noSuchKey *types.NoSuchKey
	if errors.As(err, &notFound) || errors.As(err, &noSuchKey) {
		return false, nil
	}
	// some S3-compatible servers answer HEAD without a typed error
	if strings.Contains(err.Error(), "NotFound") || strings.Contains(err.Error(), "StatusCode: 404") {
		return false, nil
	}
	return false, fmt.Errorf("failed to check object %s: %w", key, err)
}

// Put uploads body under key
func (a *S3Archive) Put(ctx context.Context, key string, body []byte) error {
	if key == "" {
		return errors.New("archive key is required")
	}
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String(contentType(key)),
	})
	if err != nil {
		return fmt.Errorf("failed to upload object %s: %w", key, err)
	}
	a.logger.Debug("archived object", zap.String("bucket", a.bucket), zap.String("key", key), zap.Int("size", len(body)))
	return nil
}

// Bucket returns the bucket name
func (a *S3Archive) Bucket() string {
	return a.bucket
}

func contentType(key string) string {
	if strings.HasSuffix(strings.ToLower(key), ".xml") {
		return "application/xml"
	}
	return "application/octet-stream"
}
