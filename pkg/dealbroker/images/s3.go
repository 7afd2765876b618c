package images

import (
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"github.com/cardealbroker/dealbroker/pkg/dealbroker/dal"
)

// S3Config holds the bucket settings.
type S3Config struct {
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Region          string
	// Endpoint targets S3 compatible stores; empty means AWS.
	Endpoint string
	// PublicBaseURL overrides the generated object URL prefix.
	PublicBaseURL string
}

// S3Uploader puts public-read objects into a bucket.
type S3Uploader struct {
	client  s3iface.S3API
	bucket  string
	baseURL string
}

// NewS3Uploader builds a session from static credentials.
func NewS3Uploader(cfg S3Config) (*S3Uploader, error) {
	if cfg.AccessKeyID == "" || cfg.SecretAccessKey == "" || cfg.Bucket == "" {
		return nil, fmt.Errorf("missing required S3 settings")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-2"
	}
	awsCfg := &aws.Config{
		Region:      aws.String(cfg.Region),
		Credentials: credentials.NewStaticCredentials(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}
	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("aws session: %w", err)
	}
	return NewS3UploaderWithClient(s3.New(sess), cfg), nil
}

// NewS3UploaderWithClient uses an existing client.
func NewS3UploaderWithClient(client s3iface.S3API, cfg S3Config) *S3Uploader {
	base := cfg.PublicBaseURL
	if base == "" {
		base = fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.Bucket, cfg.Region)
	}
	return &S3Uploader{client: client, bucket: cfg.Bucket, baseURL: base}
}

func (u *S3Uploader) Upload(ctx context.Context, kind dal.Kind, contentType string, body io.ReadSeeker) (string, error) {
	key, err := ObjectKey(kind, contentType)
	if err != nil {
		return "", err
	}
	_, err = u.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(u.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
		ACL:         aws.String(s3.ObjectCannedACLPublicRead),
	})
	if err != nil {
		return "", uploadErr(key, err)
	}
	return u.baseURL + "/" + key, nil
}
