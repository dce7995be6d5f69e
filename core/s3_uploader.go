package core

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// S3Client is the subset of the S3 API the uploader needs.
type S3Client interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Uploader publishes generated workbooks to a bucket.
type S3Uploader struct {
	Client S3Client
	Bucket string
	Prefix string
}

// NewS3Uploader creates a new uploader.
func NewS3Uploader(cfg aws.Config, bucket, prefix string) *S3Uploader {
	return &S3Uploader{
		Client: s3.NewFromConfig(cfg),
		Bucket: bucket,
		Prefix: prefix,
	}
}

// Key returns the object key for a file name below the configured prefix.
func (u *S3Uploader) Key(name string) string {
	return strings.TrimPrefix(path.Join(u.Prefix, name), "/")
}

// Upload stores the workbook under Key(name) with its MIME type.
func (u *S3Uploader) Upload(ctx context.Context, name string, out *Output) (string, error) {
	key := u.Key(name)
	slog.Info("Uploading to S3", "bucket", u.Bucket, "key", key, "bytes", len(out.Data))

	_, err := u.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(u.Bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(out.Data),
		ContentType:   aws.String(out.MimeType),
		ContentLength: aws.Int64(int64(len(out.Data))),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to s3: %w", err)
	}
	return key, nil
}
