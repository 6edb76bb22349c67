package writer

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	appconfig "priceflow/config"
	"priceflow/logger"
)

// S3Uploader pushes export artifacts to an S3 bucket under a date-partitioned
// prefix.
type S3Uploader struct {
	client *s3.Client
	bucket string
	prefix string
	log    *logger.Log
}

// NewS3Uploader configures the AWS SDK from the export settings. Static
// credentials from the config take precedence over the default chain.
func NewS3Uploader(cfg *appconfig.Config) (*S3Uploader, error) {
	s3cfg := cfg.Export.S3

	loadOpts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(s3cfg.Region)}
	if s3cfg.AccessKeyID != "" && s3cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s3cfg.AccessKeyID, s3cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS configuration: %w", err)
	}

	return &S3Uploader{
		client: s3.NewFromConfig(awsCfg),
		bucket: s3cfg.Bucket,
		prefix: s3cfg.Prefix,
		log:    logger.GetLogger(),
	}, nil
}

// Upload stores data under a unique, date-partitioned key derived from
// filename and returns the key.
func (u *S3Uploader) Upload(ctx context.Context, filename string, data []byte, contentType string) (string, error) {
	key := path.Join(
		u.prefix,
		fmt.Sprintf("date=%s", time.Now().UTC().Format("2006-01-02")),
		fmt.Sprintf("%s_%s", uuid.NewString(), filename),
	)

	log := u.log.WithComponent("s3_uploader").WithFields(logger.Fields{
		"bucket":    u.bucket,
		"s3_key":    key,
		"data_size": len(data),
	})
	log.Info("uploading export to S3")

	_, err := u.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload to S3 bucket %s: %w", u.bucket, err)
	}

	log.Info("successfully uploaded export to S3")
	return key, nil
}
