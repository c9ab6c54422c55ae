package clients

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/beam-cloud/s3meta/pkg/types"
	"github.com/rs/zerolog/log"
)

// ObjectPage is one page of a bucket listing. An empty NextToken means the
// listing is complete.
type ObjectPage struct {
	Keys      []string
	NextToken string
}

// BucketClient lists the keys of a single bucket. Handles are never mutated
// after construction and are safe for concurrent use.
type BucketClient interface {
	Bucket() string
	// ListPage returns the first page when token is empty, otherwise the page
	// following token.
	ListPage(ctx context.Context, token string) (*ObjectPage, error)
}

// S3BucketClient implements BucketClient against an S3-compatible endpoint
// using per-bucket static credentials.
type S3BucketClient struct {
	s3       *s3.Client
	bucket   string
	pageSize int32
}

// NewS3BucketClient builds a credentialed client for perm.Bucket. MaxRetries,
// Region and Endpoint are read from cfg once, here.
func NewS3BucketClient(ctx context.Context, cfg types.MetadataConfig, perm types.BucketPermission) (*S3BucketClient, error) {
	if perm.Bucket == "" {
		return nil, &types.ClientCreationError{Bucket: perm.Bucket, Err: errors.New("bucket name required")}
	}
	if perm.AccessId == "" || perm.AccessKey == "" {
		return nil, &types.ClientCreationError{Bucket: perm.Bucket, Err: errors.New("access id and access key required")}
	}

	cfg = cfg.WithDefaults()
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(cfg.Region),
		// MaxRetries counts retries; the SDK counts attempts.
		config.WithRetryMaxAttempts(cfg.MaxRetries + 1),
		config.WithRetryMode(aws.RetryModeStandard),
		config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(perm.AccessId, perm.AccessKey, ""),
		),
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, &types.ClientCreationError{Bucket: perm.Bucket, Err: fmt.Errorf("load aws config: %w", err)}
	}

	s3Client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
		if cfg.ForcePathStyle {
			o.UsePathStyle = true
		}
	})

	log.Info().
		Str("bucket", perm.Bucket).
		Str("region", cfg.Region).
		Str("endpoint", cfg.Endpoint).
		Int("max_retries", cfg.MaxRetries).
		Msg("bucket client initialized")

	return &S3BucketClient{
		s3:       s3Client,
		bucket:   perm.Bucket,
		pageSize: cfg.ListPageSize,
	}, nil
}

func (c *S3BucketClient) Bucket() string { return c.bucket }

// ListPage fetches one ListObjectsV2 page.
func (c *S3BucketClient) ListPage(ctx context.Context, token string) (*ObjectPage, error) {
	input := &s3.ListObjectsV2Input{
		Bucket:  aws.String(c.bucket),
		MaxKeys: aws.Int32(c.pageSize),
	}
	if token != "" {
		input.ContinuationToken = aws.String(token)
	}

	resp, err := c.s3.ListObjectsV2(ctx, input)
	if err != nil {
		return nil, err
	}

	page := &ObjectPage{Keys: make([]string, 0, len(resp.Contents))}
	for _, obj := range resp.Contents {
		page.Keys = append(page.Keys, aws.ToString(obj.Key))
	}

	if aws.ToBool(resp.IsTruncated) {
		page.NextToken = aws.ToString(resp.NextContinuationToken)
		if page.NextToken == "" {
			return nil, fmt.Errorf("truncated listing without continuation token")
		}
	}
	return page, nil
}
