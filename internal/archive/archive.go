// Package archive stores raw search provider payloads in S3-compatible
// object storage. Archiving is best effort: callers log failures and keep
// the run going.
package archive

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Config holds object storage connection settings.
type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	UseSSL    bool
}

// Writer archives payloads to a single bucket.
type Writer struct {
	client *minio.Client
	bucket string
	region string
}

// New creates an archive writer from config.
func New(cfg Config) (*Writer, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create object storage client: %w", err)
	}

	return &Writer{client: client, bucket: cfg.Bucket, region: cfg.Region}, nil
}

// EnsureBucket creates the archive bucket if it does not exist.
func (w *Writer) EnsureBucket(ctx context.Context) error {
	exists, err := w.client.BucketExists(ctx, w.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket %s: %w", w.bucket, err)
	}
	if exists {
		return nil
	}

	err = w.client.MakeBucket(ctx, w.bucket, minio.MakeBucketOptions{Region: w.region})
	if err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", w.bucket, err)
	}
	return nil
}

// Store writes the raw payload under a date-partitioned key and returns the
// key it wrote.
func (w *Writer) Store(ctx context.Context, runID string, payload []byte) (string, error) {
	key := objectKey(runID, time.Now().UTC())

	_, err := w.client.PutObject(ctx, w.bucket, key,
		bytes.NewReader(payload), int64(len(payload)),
		minio.PutObjectOptions{ContentType: "application/json"})
	if err != nil {
		return "", fmt.Errorf("failed to archive payload for run %s: %w", runID, err)
	}

	return key, nil
}

// objectKey builds the date-partitioned object key for a run's raw payload.
func objectKey(runID string, t time.Time) string {
	return fmt.Sprintf("runs/%04d/%02d/%02d/%s.json", t.Year(), t.Month(), t.Day(), runID)
}
