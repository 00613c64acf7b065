// utils/r2.go
package utils

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime/multipart"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	appconfig "thunderbloop/config"
)

// ObjectPutter is the slice of the S3 client the uploader needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// R2Uploader stores files in a Cloudflare R2 bucket and returns CDN URLs.
type R2Uploader struct {
	client     ObjectPutter
	bucket     string
	cdnBaseURL string
}

// NewR2Uploader builds an S3 client pointed at the account's R2 endpoint.
func NewR2Uploader(ctx context.Context, cfg appconfig.R2Config) (*R2Uploader, error) {
	endpoint := fmt.Sprintf("https://%s.r2.cloudflarestorage.com", cfg.AccountID)

	awsCfg, err := config.LoadDefaultConfig(ctx,
		config.WithRegion("auto"),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKeyID, cfg.AccessKeySecret, "",
		)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load R2 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
	})

	cdn := cfg.CDNBaseURL
	if cdn == "" {
		cdn = endpoint + "/" + cfg.Bucket
	}
	return NewR2UploaderWithClient(client, cfg.Bucket, cdn), nil
}

// NewR2UploaderWithClient wires an existing client, e.g. a fake in tests.
func NewR2UploaderWithClient(client ObjectPutter, bucket, cdnBaseURL string) *R2Uploader {
	return &R2Uploader{
		client:     client,
		bucket:     bucket,
		cdnBaseURL: strings.TrimRight(cdnBaseURL, "/"),
	}
}

// UploadFile uploads a multipart file under key and returns its public URL.
func (u *R2Uploader) UploadFile(ctx context.Context, fileHeader *multipart.FileHeader, key string) (string, error) {
	file, err := fileHeader.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	buf := new(bytes.Buffer)
	if _, err := io.Copy(buf, file); err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}

	contentType := fileHeader.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}

	_, err = u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to R2: %w", err)
	}

	return fmt.Sprintf("%s/%s", u.cdnBaseURL, key), nil
}
