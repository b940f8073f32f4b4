package dbfiles

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/rankview/internal/core"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"golang.org/x/sync/singleflight"
)

// S3Config holds the bucket location and the local cache directory.
type S3Config struct {
	Bucket    string
	Region    string
	Endpoint  string // optional; set for MinIO and other S3-compatible stores
	PathStyle bool
	Prefix    string // key prefix, e.g. "josaa/"
	CacheDir  string

	// Optional static credentials. The default chain is used when empty.
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// downloadTimeout bounds one shared download, independent of any caller's
// context.
const downloadTimeout = 10 * time.Minute

// S3 downloads a selection's file once and serves it from the cache after.
type S3 struct {
	client   *s3.Client
	bucket   string
	prefix   string
	cacheDir string
	timeout  time.Duration
	group    singleflight.Group
}

// NewS3 creates an S3 mirror resolver from cfg.
func NewS3(ctx context.Context, cfg S3Config) (*S3, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3 bucket required")
	}
	if cfg.CacheDir == "" {
		return nil, fmt.Errorf("s3 cache directory required")
	}
	region := cfg.Region
	if region == "" {
		region = "us-east-1"
	}

	loadOpts := []func(*config.LoadOptions) error{config.WithRegion(region)}
	if cfg.AccessKeyID != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, cfg.SessionToken),
		))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.PathStyle {
			o.UsePathStyle = true
		}
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})
	return newS3(client, cfg), nil
}

func newS3(client *s3.Client, cfg S3Config) *S3 {
	return &S3{
		client:   client,
		bucket:   cfg.Bucket,
		prefix:   cfg.Prefix,
		cacheDir: cfg.CacheDir,
		timeout:  downloadTimeout,
	}
}

// ObjectKey returns <prefix><year>/data-<year>-<round>.db.
func ObjectKey(prefix string, sel core.Selection) string {
	return prefix + strconv.Itoa(int(sel.Year)) + "/" + sel.FileName()
}

// Resolve returns the cached copy of the selection's file, downloading it
// first if needed. Concurrent calls for one selection share a download,
// and each caller stops waiting when its own ctx is done.
func (s *S3) Resolve(ctx context.Context, sel core.Selection) (string, error) {
	path := sel.DBPath(s.cacheDir)
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	key := ObjectKey(s.prefix, sel)
	ch := s.group.DoChan(key, func() (any, error) {
		if _, err := os.Stat(path); err == nil {
			return nil, nil
		}
		dctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		return nil, s.download(dctx, key, path)
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return path, nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

// download writes the object to a temp file next to path and renames it
// into place, so readers never see a partial file.
func (s *S3) download(ctx context.Context, key, path string) error {
	logger := slog.With("bucket", s.bucket, "key", key)
	logger.Info("downloading dataset file")

	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{Bucket: &s.bucket, Key: &key})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return fmt.Errorf("%w: s3 get %s: %v", core.ErrSourceUnavailable, key, err)
	}
	defer func() { _ = out.Body.Close() }()

	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("%w: create cache dir: %v", core.ErrSourceUnavailable, err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".download-*")
	if err != nil {
		return fmt.Errorf("%w: create temp file: %v", core.ErrSourceUnavailable, err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	n, err := io.Copy(tmp, out.Body)
	if err == nil {
		err = tmp.Sync()
	}
	if closeErr := tmp.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return fmt.Errorf("%w: download %s: %v", core.ErrSourceUnavailable, key, err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("%w: install %s: %v", core.ErrSourceUnavailable, path, err)
	}

	logger.Info("dataset file cached", "bytes", n, "path", path)
	return nil
}

// String describes the resolver for logs.
func (s *S3) String() string {
	return "s3://" + s.bucket + "/" + strings.TrimPrefix(s.prefix, "/")
}
