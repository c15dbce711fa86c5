package statestore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"folderwatch/internal/watch"
)

// S3Options configures an S3Store.
type S3Options struct {
	Bucket         string
	Key            string
	Region         string
	Endpoint       string // optional, for S3-compatible stores such as MinIO
	AccessKey      string // optional; default credential chain when empty
	SecretKey      string
	ForcePathStyle bool
}

// S3Store keeps the snapshot as a single object. The object's ETag is the
// revision, and Put uses conditional writes (If-Match / If-None-Match) so a
// stale writer gets watch.ErrRevisionConflict.
type S3Store struct {
	client *s3.Client
	bucket string
	key    string
}

// NewS3Store creates an S3Store, loading AWS configuration from the environment.
func NewS3Store(ctx context.Context, opts S3Options) (*S3Store, error) {
	if opts.Bucket == "" {
		return nil, fmt.Errorf("s3 state store requires s3_bucket to be set")
	}
	if opts.Key == "" {
		opts.Key = "folderwatch/state.json"
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{}
	if opts.Region != "" {
		loadOpts = append(loadOpts, awsconfig.WithRegion(opts.Region))
	}
	if opts.AccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(opts.AccessKey, opts.SecretKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("loading aws config: %w", err)
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
		}
		o.UsePathStyle = opts.ForcePathStyle
	})

	return NewS3StoreFromClient(client, opts.Bucket, opts.Key), nil
}

// NewS3StoreFromClient wraps an existing S3 client.
func NewS3StoreFromClient(client *s3.Client, bucket, key string) *S3Store {
	return &S3Store{client: client, bucket: bucket, key: key}
}

// Get downloads the snapshot object. A missing object is not an error.
func (s *S3Store) Get(ctx context.Context) (string, string, error) {
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) || apiErrorCode(err) == "NotFound" {
			return "", "", nil
		}
		return "", "", fmt.Errorf("getting s3://%s/%s: %w", s.bucket, s.key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return "", "", fmt.Errorf("reading s3 object: %w", err)
	}
	return string(data), aws.ToString(out.ETag), nil
}

// Put uploads the snapshot if the object's ETag still equals expectRevision.
func (s *S3Store) Put(ctx context.Context, data string, expectRevision string) (string, error) {
	in := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(s.key),
		Body:          strings.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String("application/json"),
	}
	if expectRevision == "" {
		in.IfNoneMatch = aws.String("*")
	} else {
		in.IfMatch = aws.String(expectRevision)
	}

	out, err := s.client.PutObject(ctx, in)
	if err != nil {
		if isConditionFailure(err) {
			return "", fmt.Errorf("%w: %v", watch.ErrRevisionConflict, err)
		}
		return "", fmt.Errorf("putting s3://%s/%s: %w", s.bucket, s.key, err)
	}
	return aws.ToString(out.ETag), nil
}

// ValidateSetup verifies that the bucket is reachable with the configured credentials.
func (s *S3Store) ValidateSetup(ctx context.Context) error {
	if _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(s.bucket)}); err != nil {
		return fmt.Errorf("bucket %s not accessible: %w", s.bucket, err)
	}
	return nil
}

// isConditionFailure reports whether err is S3 rejecting a conditional write.
func isConditionFailure(err error) bool {
	switch apiErrorCode(err) {
	case "PreconditionFailed", "ConditionalRequestConflict":
		return true
	}
	return false
}

func apiErrorCode(err error) string {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode()
	}
	return ""
}

// Compile-time check that S3Store implements watch.StateStore interface
var _ watch.StateStore = (*S3Store)(nil)
