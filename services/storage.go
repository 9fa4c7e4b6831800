package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog/log"

	"github.com/rpupo63/portfolio-cms-backend/config"
)

// Object is an upload ready to be stored under Key.
type Object struct {
	Key         string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Store persists uploaded files and returns the public URL of each.
type Store interface {
	Put(ctx context.Context, obj Object) (string, error)
}

// NewStore returns an S3 store when S3_BUCKET is set and a local disk store
// under UPLOAD_DIR otherwise.
func NewStore(ctx context.Context, cfg map[string]string) (Store, error) {
	bucket := config.GetString(cfg, "S3_BUCKET", "")
	if bucket == "" {
		dir := config.GetString(cfg, "UPLOAD_DIR", "uploads")
		log.Info().Str("dir", dir).Msg("storing uploads on local disk")
		return NewLocalStore(dir, "/uploads")
	}

	region := config.GetString(cfg, "S3_REGION", config.GetString(cfg, "AWS_REGION", "us-east-1"))
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	publicURL := config.GetString(cfg, "S3_PUBLIC_URL", fmt.Sprintf("https://%s.s3.%s.amazonaws.com", bucket, region))
	log.Info().Str("bucket", bucket).Str("region", region).Msg("storing uploads in S3")
	return &S3Store{
		client:    s3.NewFromConfig(awsCfg),
		bucket:    bucket,
		publicURL: strings.TrimRight(publicURL, "/"),
	}, nil
}

// S3Store writes objects to a bucket.
type S3Store struct {
	client    *s3.Client
	bucket    string
	publicURL string
}

func (s *S3Store) Put(ctx context.Context, obj Object) (string, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(obj.Key),
		Body:          obj.Body,
		ContentType:   aws.String(obj.ContentType),
		ContentLength: aws.Int64(obj.Size),
		CacheControl:  aws.String("public, max-age=31536000, immutable"),
	})
	if err != nil {
		return "", fmt.Errorf("put s3://%s/%s: %w", s.bucket, obj.Key, err)
	}
	return s.publicURL + "/" + obj.Key, nil
}

// LocalStore writes objects below a directory served at urlPrefix.
type LocalStore struct {
	dir       string
	urlPrefix string
}

func NewLocalStore(dir, urlPrefix string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &LocalStore{dir: dir, urlPrefix: strings.TrimRight(urlPrefix, "/")}, nil
}

func (s *LocalStore) Dir() string {
	return s.dir
}

func (s *LocalStore) Put(ctx context.Context, obj Object) (string, error) {
	key := path.Clean("/" + obj.Key)[1:]
	if key == "" || strings.HasPrefix(key, "..") {
		return "", fmt.Errorf("invalid object key %q", obj.Key)
	}

	target := filepath.Join(s.dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return "", fmt.Errorf("create upload folder: %w", err)
	}

	f, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create %s: %w", key, err)
	}
	if _, err := io.Copy(f, obj.Body); err != nil {
		f.Close()
		os.Remove(target)
		return "", fmt.Errorf("write %s: %w", key, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close %s: %w", key, err)
	}
	return s.urlPrefix + "/" + key, nil
}
