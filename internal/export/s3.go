package export

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
)

// PutObjectAPI is the part of the S3 client used for uploads.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *awss3.PutObjectInput, optFns ...func(*awss3.Options)) (*awss3.PutObjectOutput, error)
}

// S3Uploader copies exported files into a bucket.
type S3Uploader struct {
	client PutObjectAPI
	prefix string
}

// NewS3Uploader builds an uploader from the default AWS credential chain.
func NewS3Uploader(ctx context.Context, prefix string) (*S3Uploader, error) {
	region := os.Getenv("AWS_REGION")
	if region == "" {
		region = "us-west-2"
	}
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("unable to load AWS config: %w", err)
	}
	return NewS3UploaderWithClient(awss3.NewFromConfig(cfg), prefix), nil
}

func NewS3UploaderWithClient(client PutObjectAPI, prefix string) *S3Uploader {
	return &S3Uploader{client: client, prefix: prefix}
}

var contentTypes = map[string]string{
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	".csv":  "text/csv",
	".json": "application/json",
	".db":   "application/vnd.sqlite3",
}

// Upload stores the file at path under the uploader's prefix and returns its s3:// URL.
func (u *S3Uploader) Upload(ctx context.Context, bucket, path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return "", err
	}

	contentType, ok := contentTypes[filepath.Ext(path)]
	if !ok {
		contentType = "application/octet-stream"
	}

	key := u.prefix + filepath.Base(path)
	_, err = u.client.PutObject(ctx, &awss3.PutObjectInput{
		Bucket:        aws.String(bucket),
		Key:           aws.String(key),
		ContentType:   aws.String(contentType),
		Body:          file,
		ContentLength: aws.Int64(info.Size()),
	})
	if err != nil {
		return "", fmt.Errorf("error storing s3 object to %s:%s: %w", bucket, key, err)
	}
	return fmt.Sprintf("s3://%s/%s", bucket, key), nil
}
