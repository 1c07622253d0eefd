// internal/output/s3.go
package output

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/socialpulse/viralpipe/pkg/types"
)

// s3API is the slice of the S3 client the sinks use; tests substitute a fake.
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// newS3Client builds an S3 client from the ambient AWS configuration. A
// custom endpoint switches to path-style addressing for S3-compatible stores.
func newS3Client(ctx context.Context, region, endpoint string) (s3API, error) {
	opts := []func(*awsconfig.LoadOptions) error{}
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})
	return client, nil
}

// S3Sink writes the record set as one timestamped JSON object per run.
type S3Sink struct {
	client s3API
	bucket string
	prefix string
}

// NewS3Sink creates an object storage record sink.
func NewS3Sink(ctx context.Context, bucket, prefix, region, endpoint string) (*S3Sink, error) {
	if bucket == "" {
		return nil, fmt.Errorf("s3 sink requires a bucket")
	}
	client, err := newS3Client(ctx, region, endpoint)
	if err != nil {
		return nil, err
	}
	return &S3Sink{client: client, bucket: bucket, prefix: prefix}, nil
}

func (s *S3Sink) Name() string { return "s3" }

func (s *S3Sink) Write(ctx context.Context, records []types.Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode records: %w", err)
	}

	key := path.Join(s.prefix, "records", time.Now().UTC().Format("2006-01-02T15-04-05Z")+".json")
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return fmt.Errorf("failed to put s3://%s/%s: %w", s.bucket, key, err)
	}
	return nil
}

// AssetStore uploads resolved video assets to object storage, keyed by post.
type AssetStore struct {
	client s3API
	bucket string
	prefix string
}

// NewAssetStore creates an object storage uploader for video assets.
func NewAssetStore(ctx context.Context, bucket, prefix, region, endpoint string) (*AssetStore, error) {
	if bucket == "" {
		return nil, fmt.Errorf("asset store requires a bucket")
	}
	client, err := newS3Client(ctx, region, endpoint)
	if err != nil {
		return nil, err
	}
	return &AssetStore{client: client, bucket: bucket, prefix: prefix}, nil
}

// Store uploads the asset and returns its object key.
func (s *AssetStore) Store(ctx context.Context, asset *types.VideoAsset) (string, error) {
	if asset.PostID == "" {
		return "", fmt.Errorf("asset has no post id")
	}

	contentType := asset.ContentType
	if contentType == "" {
		contentType = "video/mp4"
	}

	key := path.Join(s.prefix, "videos", asset.PostID+".mp4")
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(asset.Data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to put s3://%s/%s: %w", s.bucket, key, err)
	}
	return key, nil
}
