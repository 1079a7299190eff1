// Package s3 is an S3 (and S3-compatible) implementation of blob interface.
package s3

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/Decentr-net/odyssey/internal/blob"
)

const defaultRegion = "us-east-1"

// Config options for the S3 backend.
type Config struct {
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	// Endpoint is an optional custom endpoint for S3-compatible services.
	Endpoint     string
	UsePathStyle bool
}

type client interface {
	HeadBucket(ctx context.Context, params *s3.HeadBucketInput, optFns ...func(*s3.Options)) (*s3.HeadBucketOutput, error)
	CreateBucket(ctx context.Context, params *s3.CreateBucketInput, optFns ...func(*s3.Options)) (*s3.CreateBucketOutput, error)
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	ListBuckets(ctx context.Context, params *s3.ListBucketsInput, optFns ...func(*s3.Options)) (*s3.ListBucketsOutput, error)
}

// Store ...
type Store struct {
	client client
	cfg    Config
}

// Open creates S3 client.
func Open(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Region == "" {
		cfg.Region = defaultRegion
	}

	if (cfg.AccessKeyID == "") != (cfg.SecretAccessKey == "") {
		return nil, fmt.Errorf("%w: both access key id and secret access key should be set", blob.ErrConfiguration)
	}

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
		return nil, fmt.Errorf("%w: failed to load aws config: %v", blob.ErrConfiguration, err)
	}

	c := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return &Store{client: c, cfg: cfg}, nil
}

// Opener returns blob.Opener creating the client on first use.
func Opener(cfg Config) blob.Opener {
	return blob.Lazy(func(ctx context.Context) (blob.Store, error) {
		s, err := Open(ctx, cfg)
		if err != nil {
			return nil, err
		}
		return s, nil
	})
}

// EnsureContainer creates the bucket if it doesn't exist.
func (s *Store) EnsureContainer(ctx context.Context, container string) error {
	if _, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{
		Bucket: aws.String(container),
	}); err == nil {
		return nil
	}

	in := &s3.CreateBucketInput{
		Bucket: aws.String(container),
	}
	// us-east-1 is the only region which rejects an explicit location constraint.
	if s.cfg.Region != "" && s.cfg.Region != defaultRegion {
		in.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(s.cfg.Region),
		}
	}

	if _, err := s.client.CreateBucket(ctx, in); err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		if errors.As(err, &owned) {
			return nil
		}
		return fmt.Errorf("%w: failed to create bucket %s: %w", blob.ErrUnavailable, container, err)
	}

	return nil
}

// Put ...
func (s *Store) Put(ctx context.Context, container, name string, data []byte, contentType string) (string, error) {
	if _, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(container),
		Key:           aws.String(name),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	}); err != nil {
		return "", fmt.Errorf("%w: failed to upload %s: %w", blob.ErrUnavailable, name, err)
	}

	return s.url(container, name), nil
}

// Ping ...
func (s *Store) Ping(ctx context.Context) error {
	if _, err := s.client.ListBuckets(ctx, &s3.ListBucketsInput{}); err != nil {
		return fmt.Errorf("%w: %w", blob.ErrUnavailable, err)
	}

	return nil
}

func (s *Store) url(bucket, key string) string {
	key = url.PathEscape(key)

	if s.cfg.Endpoint != "" {
		base := strings.TrimSuffix(s.cfg.Endpoint, "/")
		if s.cfg.UsePathStyle {
			return fmt.Sprintf("%s/%s/%s", base, bucket, key)
		}

		u, err := url.Parse(base)
		if err != nil || u.Host == "" {
			return fmt.Sprintf("%s/%s/%s", base, bucket, key)
		}
		u.Host = bucket + "." + u.Host
		return fmt.Sprintf("%s/%s", strings.TrimSuffix(u.String(), "/"), key)
	}

	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", bucket, s.cfg.Region, key)
}
