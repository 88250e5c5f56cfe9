// Package s3store keeps the dataset as an object in an S3-compatible bucket
// (AWS S3 or MinIO).
package s3store

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"

	"github.com/dmitrijs2005/gistkeeper/internal/client/client"
	"github.com/dmitrijs2005/gistkeeper/internal/client/comparator"
	"github.com/dmitrijs2005/gistkeeper/internal/client/models"
)

const (
	datasetObject = "dataset.json"
	statsObject   = "stats.json"
)

// ObjectAPI is the subset of *s3.Client the store uses.
type ObjectAPI interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type Config struct {
	Region       string
	BaseEndpoint string
	AccessKey    string
	SecretKey    string
	Bucket       string
	Prefix       string
}

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

type Store struct {
	api    ObjectAPI
	bucket string
	prefix string
}

var _ client.Remote = (*Store)(nil)

// New builds an S3 client from static credentials. A non-empty BaseEndpoint
// switches to path-style addressing, which MinIO expects.
func New(ctx context.Context, cfg Config) (*Store, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	api := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
			o.UsePathStyle = true
		}
	})
	return NewWithAPI(api, cfg.Bucket, cfg.Prefix), nil
}

// NewWithAPI wraps an existing client.
func NewWithAPI(api ObjectAPI, bucket, prefix string) *Store {
	return &Store{api: api, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

func (s *Store) Name() string { return "s3" }

func (s *Store) key(name string) string {
	if s.prefix == "" {
		return name
	}
	return s.prefix + "/" + name
}

func (s *Store) FetchDataset(ctx context.Context) (*models.Dataset, error) {
	raw, err := s.get(ctx, datasetObject)
	if err != nil {
		return nil, err
	}
	return models.DecodeDataset(raw)
}

// FetchStatistics reads the statistics object, falling back to the dataset
// when it is missing or unreadable.
func (s *Store) FetchStatistics(ctx context.Context) (*models.Statistics, error) {
	raw, err := s.get(ctx, statsObject)
	switch {
	case err == nil:
		var st models.Statistics
		if json.Unmarshal(raw, &st) == nil {
			return &st, nil
		}
	case !errors.Is(err, client.ErrNotFound):
		return nil, err
	}

	ds, err := s.FetchDataset(ctx)
	if err != nil {
		return nil, err
	}
	st := comparator.Statistics(ds)
	return &st, nil
}

// PushDataset writes the dataset first and the statistics second, so a
// reader never sees statistics newer than the dataset they describe.
func (s *Store) PushDataset(ctx context.Context, ds *models.Dataset) error {
	data, err := models.EncodeDataset(ds)
	if err != nil {
		return fmt.Errorf("encode dataset: %w", err)
	}
	stats, err := json.Marshal(comparator.Statistics(ds))
	if err != nil {
		return fmt.Errorf("encode statistics: %w", err)
	}

	if err := s.put(ctx, datasetObject, data); err != nil {
		return err
	}
	return s.put(ctx, statsObject, stats)
}

func (s *Store) get(ctx context.Context, name string) ([]byte, error) {
	out, err := s.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err != nil {
		return nil, mapError(ctx, s.key(name), err)
	}
	defer out.Body.Close()

	b, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", client.ErrUnavailable, s.key(name), err)
	}
	return b, nil
}

func (s *Store) put(ctx context.Context, name string, body []byte) error {
	_, err := s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(s.key(name)),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return mapError(ctx, s.key(name), err)
	}
	return nil
}

func mapError(ctx context.Context, key string, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}

	var nsk *types.NoSuchKey
	var nsb *types.NoSuchBucket
	if errors.As(err, &nsk) || errors.As(err, &nsb) {
		return fmt.Errorf("%w: %s", client.ErrNotFound, key)
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound":
			return fmt.Errorf("%w: %s", client.ErrNotFound, key)
		case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch", "ExpiredToken":
			return fmt.Errorf("%w: %s: %s", client.ErrUnauthorized, key, apiErr.ErrorCode())
		case "SlowDown", "Throttling", "ThrottlingException", "RequestLimitExceeded":
			return fmt.Errorf("%w: %s: %s", client.ErrRateLimited, key, apiErr.ErrorCode())
		}
	}
	return fmt.Errorf("%w: %s: %v", client.ErrUnavailable, key, err)
}
