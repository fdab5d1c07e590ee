package storage

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/claimdesk/claimdesk/backend/go-services/internal/apperr"
	"github.com/claimdesk/claimdesk/backend/go-services/pkg/logger"
	"github.com/claimdesk/claimdesk/backend/go-services/pkg/metrics"
)

// ReceiptPrefix is the key prefix of every stored receipt.
const ReceiptPrefix = "receipts"

// ObjectPutter is the part of *minio.Client the receipt store uses.
type ObjectPutter interface {
	PutObject(ctx context.Context, bucket, key string, reader io.Reader, size int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
}

// NewMinIOClient creates a MinIO client, ensures the bucket exists and makes
// the receipts prefix anonymously readable so returned URLs resolve.
func NewMinIOClient(ctx context.Context, cfg *MinIOConfig) (*minio.Client, error) {
	if cfg == nil || cfg.Endpoint == "" {
		return nil, fmt.Errorf("minio config missing")
	}
	mc, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio new: %w", err)
	}
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := mc.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
		// ignore "already exists" style errors
		exist, xerr := mc.BucketExists(ctx, cfg.Bucket)
		if xerr != nil || !exist {
			return nil, fmt.Errorf("minio bucket ensure: %w", err)
		}
	}
	if err := mc.SetBucketPolicy(ctx, cfg.Bucket, publicReadPolicy(cfg.Bucket)); err != nil {
		return nil, fmt.Errorf("minio bucket policy: %w", err)
	}
	return mc, nil
}

func publicReadPolicy(bucket string) string {
	return fmt.Sprintf(`{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/%s/*"]}]}`, bucket, ReceiptPrefix)
}

// File is a receipt to upload.
type File struct {
	Reader      io.Reader
	Size        int64
	Name        string
	ContentType string
}

// ReceiptStore uploads receipts and returns their public URLs.
type ReceiptStore struct {
	client  ObjectPutter
	bucket  string
	baseURL string
}

func NewReceiptStore(client ObjectPutter, bucket, baseURL string) *ReceiptStore {
	return &ReceiptStore{client: client, bucket: bucket, baseURL: strings.TrimRight(baseURL, "/")}
}

// ReceiptName reduces an uploaded filename to its base name.
func ReceiptName(filename string) string {
	name := path.Base(strings.ReplaceAll(filename, "\\", "/"))
	if name == "." || name == "/" || name == "" {
		return "receipt"
	}
	return name
}

// ReceiptKey is the deterministic object key for a claim's receipt.
func ReceiptKey(employeeID, claimID, filename string) string {
	return path.Join(ReceiptPrefix, employeeID, claimID, ReceiptName(filename))
}

// Upload writes the file under ReceiptKey, overwriting any previous object,
// and returns its public URL. No retry is attempted.
func (s *ReceiptStore) Upload(ctx context.Context, employeeID, claimID string, f File) (string, error) {
	key := ReceiptKey(employeeID, claimID, f.Name)
	contentType := f.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	if _, err := s.client.PutObject(ctx, s.bucket, key, f.Reader, f.Size, minio.PutObjectOptions{ContentType: contentType}); err != nil {
		metrics.ReceiptUploads.WithLabelValues("error").Inc()
		logger.Errorf("receipt upload failed: key=%s err=%v", key, err)
		return "", apperr.Upload(err)
	}
	metrics.ReceiptUploads.WithLabelValues("ok").Inc()
	return s.PublicURL(key), nil
}

// PublicURL returns the URL at which key is served.
func (s *ReceiptStore) PublicURL(key string) string {
	parts := strings.Split(key, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return s.baseURL + "/" + url.PathEscape(s.bucket) + "/" + strings.Join(parts, "/")
}
