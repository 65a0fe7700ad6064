package s3store

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/kgellert/hodatay-groups/internal/uploads"
	uploadsdomain "github.com/kgellert/hodatay-groups/internal/uploads/domain"
)

const defaultURLTTL = 15 * time.Minute

type Store struct {
	bucket    string
	client    *s3.Client
	presigner *s3.PresignClient
	ttl       time.Duration
}

func New(bucket string, client *s3.Client, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = defaultURLTTL
	}
	return &Store{
		bucket:    bucket,
		client:    client,
		presigner: s3.NewPresignClient(client),
		ttl:       ttl,
	}
}

// NewClient builds an S3 client for a static key pair. A non-empty endpoint
// switches to path-style addressing for S3-compatible stores.
func NewClient(ctx context.Context, region, endpoint, accessKey, secretKey string) (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	}), nil
}

// Put expects a seekable reader; the SDK signs the payload.
func (s *Store) Put(ctx context.Context, r io.Reader, size int64, contentType string) (string, error) {
	const op = "uploads.s3store.Put"

	key, err := uploadsdomain.GenerateKey(contentType)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	in := &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        r,
		ContentType: aws.String(contentType),
	}
	if size >= 0 {
		in.ContentLength = aws.Int64(size)
	}

	if _, err := s.client.PutObject(ctx, in); err != nil {
		return "", fmt.Errorf("%s: put object: %w", op, err)
	}

	return key, nil
}

func (s *Store) URL(ctx context.Context, key string) (string, error) {
	const op = "uploads.s3store.URL"

	if err := uploadsdomain.ValidateKey(key); err != nil {
		return "", err
	}

	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return "", nil
		}
		return "", fmt.Errorf("%s: head object: %w", op, err)
	}

	ps, err := s.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	}, func(po *s3.PresignOptions) {
		po.Expires = s.ttl
	})
	if err != nil {
		return "", fmt.Errorf("%s: presign: %w", op, err)
	}

	return ps.URL, nil
}

func (s *Store) Open(ctx context.Context, key string) (io.ReadCloser, string, error) {
	const op = "uploads.s3store.Open"

	if err := uploadsdomain.ValidateKey(key); err != nil {
		return nil, "", err
	}

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, "", uploads.ErrBlobNotFound
		}
		return nil, "", fmt.Errorf("%s: get object: %w", op, err)
	}

	return out.Body, aws.ToString(out.ContentType), nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	const op = "uploads.s3store.Delete"

	if err := uploadsdomain.ValidateKey(key); err != nil {
		return err
	}

	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("%s: delete object: %w", op, err)
	}

	return nil
}

func isNotFound(err error) bool {
	var nf *types.NotFound
	if errors.As(err, &nf) {
		return true
	}
	var nsk *types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey":
			return true
		}
	}
	return false
}
