package cloud

import (
	"context"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	awscreds "github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/mariellemanlulu/irida-uploader/internal/config"
	"github.com/mariellemanlulu/irida-uploader/internal/parsers"
)

// s3API is the slice of the S3 client the lister needs, so tests can
// substitute a fake.
type s3API interface {
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// S3Lister lists run data from an S3 bucket.
type S3Lister struct {
	client s3API
	bucket string
	prefix string
}

// NewS3Lister creates an S3-backed lister. Credentials come from the
// standard AWS chain unless a static key pair is configured.
func NewS3Lister(ctx context.Context, cfg config.CloudConfig) (*S3Lister, error) {
	if cfg.S3Bucket == "" {
		return nil, fmt.Errorf("s3 backend requires s3_bucket")
	}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.S3Region),
	}
	if cfg.S3AccessKey != "" && cfg.S3SecretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			awscreds.NewStaticCredentialsProvider(cfg.S3AccessKey, cfg.S3SecretKey, "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	return &S3Lister{
		client: s3.NewFromConfig(awsCfg),
		bucket: cfg.S3Bucket,
		prefix: cfg.S3Prefix,
	}, nil
}

// ListRunData lists every object under the run prefix and materializes the
// project directory structure from the keys.
func (l *S3Lister) ListRunData(ctx context.Context, runPrefix string) (*parsers.DataDirectory, error) {
	prefix := joinPrefix(l.prefix, runPrefix)
	listPrefix := prefix
	if listPrefix != "" {
		listPrefix += "/"
	}

	var keys []string
	var continuation *string
	for {
		out, err := l.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
			Bucket:            aws.String(l.bucket),
			Prefix:            aws.String(listPrefix),
			ContinuationToken: continuation,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to list s3://%s/%s: %w", l.bucket, listPrefix, err)
		}

		for _, obj := range out.Contents {
			if obj.Key == nil {
				continue
			}
			keys = append(keys, strings.TrimPrefix(*obj.Key, listPrefix))
		}

		if out.IsTruncated == nil || !*out.IsTruncated {
			break
		}
		continuation = out.NextContinuationToken
	}

	root := fmt.Sprintf("s3://%s/%s", l.bucket, prefix)
	return buildListing(root, keys), nil
}
