package s3

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	s3aws "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/gabriel-vasile/mimetype"

	"github.com/dmitrymomot/uploadgate/core/storage"
)

var _ storage.Mirror = (*Mirror)(nil)

// Client is the subset of the S3 API used by Mirror.
type Client interface {
	PutObject(ctx context.Context, params *s3aws.PutObjectInput, optFns ...func(*s3aws.Options)) (*s3aws.PutObjectOutput, error)
	HeadObject(ctx context.Context, params *s3aws.HeadObjectInput, optFns ...func(*s3aws.Options)) (*s3aws.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3aws.DeleteObjectInput, optFns ...func(*s3aws.Options)) (*s3aws.DeleteObjectOutput, error)
}

// Mirror copies finished uploads into a bucket under an optional prefix.
type Mirror struct {
	client        Client
	bucket        string
	prefix        string
	uploadTimeout time.Duration
}

// Option configures Mirror construction.
type Option func(*options)

type options struct {
	client        Client
	httpClient    *http.Client
	uploadTimeout time.Duration
}

// WithClient uses a pre-built client, mainly for tests.
func WithClient(c Client) Option {
	return func(o *options) { o.client = c }
}

func WithHTTPClient(c *http.Client) Option {
	return func(o *options) { o.httpClient = c }
}

// WithUploadTimeout bounds each PutObject call.
func WithUploadTimeout(d time.Duration) Option {
	return func(o *options) { o.uploadTimeout = d }
}

// New builds a Mirror. Static credentials are used when both keys are set,
// otherwise the default AWS credential chain applies.
func New(ctx context.Context, cfg Config, opts ...Option) (*Mirror, error) {
	if cfg.Bucket == "" || cfg.Region == "" {
		return nil, storage.ErrInvalidConfig
	}

	o := &options{uploadTimeout: cfg.UploadTimeout}
	for _, opt := range opts {
		opt(o)
	}

	client := o.client
	if client == nil {
		loadOpts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
		if cfg.AccessKeyID != "" && cfg.SecretKey != "" {
			loadOpts = append(loadOpts, config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretKey, ""),
			))
		}
		if o.httpClient != nil {
			loadOpts = append(loadOpts, config.WithHTTPClient(o.httpClient))
		}

		awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
		if err != nil {
			return nil, fmt.Errorf("failed to load AWS config: %w", err)
		}
		client = s3aws.NewFromConfig(awsCfg, func(so *s3aws.Options) {
			if cfg.Endpoint != "" {
				so.BaseEndpoint = aws.String(cfg.Endpoint)
			}
			so.UsePathStyle = cfg.ForcePathStyle
		})
	}

	return &Mirror{
		client:        client,
		bucket:        cfg.Bucket,
		prefix:        strings.Trim(cfg.Prefix, "/"),
		uploadTimeout: o.uploadTimeout,
	}, nil
}

// Put uploads the file at localPath as key. The content type is sniffed
// from the file.
func (m *Mirror) Put(ctx context.Context, key, localPath string) error {
	objectKey, err := m.objectKey(key)
	if err != nil {
		return err
	}

	if m.uploadTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.uploadTimeout)
		defer cancel()
	}

	f, err := os.Open(localPath)
	if err != nil {
		return errors.Join(storage.ErrFailedToOpenFile, err)
	}
	defer func() { _ = f.Close() }()

	contentType := "application/octet-stream"
	if mt, err := mimetype.DetectFile(localPath); err == nil {
		contentType = mt.String()
	}

	_, err = m.client.PutObject(ctx, &s3aws.PutObjectInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(objectKey),
		Body:        f,
		ContentType: aws.String(contentType),
	})
	return classifyS3Error(err, "put object")
}

// Delete removes key from the bucket. Missing keys are not an error.
func (m *Mirror) Delete(ctx context.Context, key string) error {
	objectKey, err := m.objectKey(key)
	if err != nil {
		return err
	}
	_, err = m.client.DeleteObject(ctx, &s3aws.DeleteObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(objectKey),
	})
	if err = classifyS3Error(err, "delete object"); errors.Is(err, storage.ErrFileNotFound) {
		return nil
	}
	return err
}

// Exists reports whether key is present in the bucket.
func (m *Mirror) Exists(ctx context.Context, key string) (bool, error) {
	objectKey, err := m.objectKey(key)
	if err != nil {
		return false, err
	}
	_, err = m.client.HeadObject(ctx, &s3aws.HeadObjectInput{
		Bucket: aws.String(m.bucket),
		Key:    aws.String(objectKey),
	})
	if err = classifyS3Error(err, "head object"); err != nil {
		if errors.Is(err, storage.ErrFileNotFound) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Healthcheck returns a readiness check that succeeds when the bucket
// answers a HEAD for a sentinel key, missing or not.
func (m *Mirror) Healthcheck() func(context.Context) error {
	return func(ctx context.Context) error {
		_, err := m.Exists(ctx, ".healthcheck")
		return err
	}
}

func (m *Mirror) objectKey(key string) (string, error) {
	key = strings.TrimPrefix(key, "/")
	if key == "" || strings.Contains(key, "..") {
		return "", fmt.Errorf("%w: %q", storage.ErrInvalidPath, key)
	}
	if m.prefix == "" {
		return key, nil
	}
	return path.Join(m.prefix, key), nil
}
