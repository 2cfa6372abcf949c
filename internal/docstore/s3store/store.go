// Package s3store keeps one object per document in an S3 bucket.
// Any S3-compatible service (MinIO, R2) works through a custom endpoint.
package s3store

import (
	"bytes"
	"context"
	"encoding/json/jsontext"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/listenupapp/shelfwise/internal/docstore"
	"github.com/listenupapp/shelfwise/internal/errors"
	"github.com/listenupapp/shelfwise/internal/id"
	"github.com/listenupapp/shelfwise/internal/logger"
)

const contentType = "application/json"

// API is the subset of the S3 client the store uses.
type API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	HeadObject(ctx context.Context, in *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Config holds bucket and credential settings.
type Config struct {
	Bucket    string
	Prefix    string
	Region    string
	Endpoint  string // optional
	AccessKey string
	SecretKey string
}

// Store is a docstore.Store on S3.
type Store struct {
	api    API
	bucket string
	prefix string
	logger *slog.Logger
}

var _ docstore.Store = (*Store)(nil)

// New builds an S3 client from cfg. Static credentials are used when set,
// otherwise the default AWS credential chain applies.
func New(ctx context.Context, cfg Config, log *slog.Logger) (*Store, error) {
	opts := []func(*config.LoadOptions) error{config.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewWithAPI(client, cfg.Bucket, cfg.Prefix, log), nil
}

// NewWithAPI wraps an existing client.
func NewWithAPI(api API, bucket, prefix string, log *slog.Logger) *Store {
	return &Store{
		api:    api,
		bucket: bucket,
		prefix: prefix,
		logger: logger.OrDiscard(log),
	}
}

// Create writes a new object.
func (s *Store) Create(ctx context.Context, data []byte) (docstore.Handle, error) {
	if !jsontext.Value(data).IsValid() {
		return "", errors.Validation("document is not valid JSON")
	}

	handle, err := id.Document()
	if err != nil {
		return "", errors.Wrap(err, errors.KeyInternal, "generate handle")
	}
	h := docstore.Handle(handle)

	if err := s.put(ctx, h, data); err != nil {
		return "", err
	}
	return h, nil
}

// List returns every handle under the prefix in key order.
func (s *Store) List(ctx context.Context) ([]docstore.Handle, error) {
	var handles []docstore.Handle

	p := s3.NewListObjectsV2Paginator(s.api, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(s.prefix),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, errors.Fetch(err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			if h := strings.TrimPrefix(key, s.prefix); h != "" && !strings.Contains(h, "/") {
				handles = append(handles, docstore.Handle(h))
			}
		}
	}
	return handles, nil
}

// Get reads the object for h.
func (s *Store) Get(ctx context.Context, h docstore.Handle) ([]byte, error) {
	out, err := s.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(h)),
	})
	if err != nil {
		return nil, s.mapErr(h, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, errors.Fetch(err)
	}
	return data, nil
}

// Update overwrites the object for h. The object must already exist.
func (s *Store) Update(ctx context.Context, h docstore.Handle, data []byte) error {
	if !jsontext.Value(data).IsValid() {
		return errors.Validation("document is not valid JSON")
	}

	_, err := s.api.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(h)),
	})
	if err != nil {
		return s.mapErr(h, err)
	}

	return s.put(ctx, h, data)
}

func (s *Store) put(ctx context.Context, h docstore.Handle, data []byte) error {
	_, err := s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(h)),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		s.logger.Warn("put object failed", "handle", h, "error", err)
		return errors.Fetch(err)
	}
	return nil
}

func (s *Store) key(h docstore.Handle) string {
	return s.prefix + string(h)
}

func (s *Store) mapErr(h docstore.Handle, err error) error {
	var noKey *types.NoSuchKey
	var notFound *types.NotFound
	if errors.As(err, &noKey) || errors.As(err, &notFound) {
		return docstore.NotFound(h)
	}
	return errors.Fetch(err)
}
