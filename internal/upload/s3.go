package upload

import (
	"context"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"shorts-web/internal/common/errors"
	"shorts-web/internal/common/logging"
)

// S3API is the part of the S3 client the compensator uses.
type S3API interface {
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// S3Config configures the compensator. Static keys are optional; without them
// the default AWS credential chain applies.
type S3Config struct {
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// S3Compensator deletes orphaned objects from the upload bucket.
type S3Compensator struct {
	client S3API
	bucket string
}

// NewS3Compensator loads AWS configuration and builds an S3 client.
func NewS3Compensator(ctx context.Context, cfg S3Config) (*S3Compensator, error) {
	if cfg.Bucket == "" {
		return nil, errors.ConfigError("S3 bucket is required for upload compensation")
	}

	opts := []func(*awsConfig.LoadOptions) error{awsConfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsConfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID,
			cfg.SecretAccessKey,
			cfg.SessionToken,
		)))
	}

	awsCfg, err := awsConfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, errors.ConnectionError("failed to load AWS config", err)
	}

	return NewS3CompensatorWithClient(s3.NewFromConfig(awsCfg), cfg.Bucket), nil
}

// NewS3CompensatorWithClient wraps an existing client.
func NewS3CompensatorWithClient(client S3API, bucket string) *S3Compensator {
	return &S3Compensator{client: client, bucket: bucket}
}

// Compensate deletes the object behind slot.
func (c *S3Compensator) Compensate(ctx context.Context, slot Slot) error {
	key, err := c.objectKey(slot)
	if err != nil {
		return err
	}

	_, err = c.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(c.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return errors.ConnectionError("failed to delete object", err).WithContext("key", key)
	}

	logging.WithContext(ctx).Info("Deleted orphaned upload",
		logging.String("bucket", c.bucket),
		logging.String("key", key))
	return nil
}

// objectKey extracts the key from a virtual-hosted or path-style S3 URL.
func (c *S3Compensator) objectKey(slot Slot) (string, error) {
	raw := slot.UploadURL
	if raw == "" {
		raw = slot.PublicURL
	}

	u, err := url.Parse(raw)
	if err != nil || u.Path == "" || u.Path == "/" {
		return "", errors.ValidationError("cannot derive object key from upload URL")
	}

	key := strings.TrimPrefix(u.Path, "/")
	// Path-style URLs carry the bucket as the first segment.
	if strings.HasPrefix(key, c.bucket+"/") && !strings.HasPrefix(u.Host, c.bucket+".") {
		key = strings.TrimPrefix(key, c.bucket+"/")
	}
	if key == "" {
		return "", errors.ValidationError("cannot derive object key from upload URL")
	}
	return key, nil
}
