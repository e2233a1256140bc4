package uploads

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// ObjectPutter is the part of the S3 client the store needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type S3Store struct { // implements Store
	client        ObjectPutter
	bucket        string
	publicBaseURL string
	limit         int64
}

// NewS3Client builds a client for an S3-compatible endpoint with static credentials.
func NewS3Client(ctx context.Context, accessKeyID, accessKeySecret, baseEndpoint string) (*s3.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx,
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(accessKeyID, accessKeySecret, "")),
		config.WithRegion("auto"),
	)
	if err != nil {
		return nil, fmt.Errorf("load s3 config: %w", err)
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		if baseEndpoint != "" {
			o.BaseEndpoint = aws.String(baseEndpoint)
		}
		o.UsePathStyle = true
	}), nil
}

func NewS3Store(client ObjectPutter, bucket, publicBaseURL string, limit int64) *S3Store {
	return &S3Store{
		client:        client,
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(publicBaseURL, "/"),
		limit:         limit,
	}
}

func (s *S3Store) Put(ctx context.Context, filename, contentType string, r io.Reader) (string, error) {
	if err := checkImage(contentType); err != nil {
		return "", err
	}
	data, err := readLimited(r, s.limit)
	if err != nil {
		return "", err
	}

	key := "uploads/" + uuid.New().String() + strings.ToLower(path.Ext(filename))
	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(data))),
	})
	if err != nil {
		uploadsLogger.Error().Err(err).Str("key", key).Msg("Error uploading object")
		return "", fmt.Errorf("put object %s: %w", key, err)
	}

	uploadsLogger.Info().Str("key", key).Int("size", len(data)).Msg("Upload stored in bucket")
	return s.publicBaseURL + "/" + key, nil
}
