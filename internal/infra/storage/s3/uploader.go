package s3

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"path"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"travelstay/internal/app/policies"
)

var (
	ErrNotConfigured = errors.New("s3: image storage is not configured")
	ErrForeignURL    = errors.New("s3: url does not belong to this bucket")
)

// Client stores listing images in an S3-compatible bucket and returns public URLs.
type Client struct {
	bucket         string
	publicBaseURL  string
	client         *minio.Client
	logger         *slog.Logger
	bucketInitOnce sync.Once
	bucketInitErr  error
}

// NewClient configures an image store using the provided endpoint and credentials.
func NewClient(endpoint string, useSSL bool, accessKey, secretKey, bucket, publicBaseURL string, logger *slog.Logger) (*Client, error) {
	cleanEndpoint := strings.TrimSpace(endpoint)
	if cleanEndpoint == "" {
		return nil, errors.New("s3: endpoint is required")
	}
	if bucket = strings.TrimSpace(bucket); bucket == "" {
		return nil, errors.New("s3: bucket is required")
	}

	opts := &minio.Options{
		Creds:  credentials.NewStaticV4(strings.TrimSpace(accessKey), strings.TrimSpace(secretKey), ""),
		Secure: useSSL,
	}
	minioClient, err := minio.New(parseEndpoint(cleanEndpoint), opts)
	if err != nil {
		return nil, fmt.Errorf("s3: create client: %w", err)
	}

	base := strings.TrimSpace(publicBaseURL)
	if base == "" {
		base = cleanEndpoint
		if !strings.Contains(base, "://") {
			base = schemeFor(useSSL) + base
		}
	}
	return &Client{
		bucket:        bucket,
		publicBaseURL: strings.TrimRight(base, "/"),
		client:        minioClient,
		logger:        logger,
	}, nil
}

// Upload stores the image under listings/<listing id>/ with a random name that
// keeps the original extension.
func (c *Client) Upload(ctx context.Context, upload policies.ImageUpload) (string, error) {
	if upload.Body == nil {
		return "", errors.New("s3: image body is required")
	}
	if err := c.ensureBucket(ctx); err != nil {
		return "", err
	}
	key := ObjectKey(upload.ListingID, upload.FileName)
	contentType := upload.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	size := upload.Size
	if size <= 0 {
		size = -1
	}
	if _, err := c.client.PutObject(ctx, c.bucket, key, upload.Body, size, minio.PutObjectOptions{ContentType: contentType}); err != nil {
		return "", fmt.Errorf("s3: put object: %w", err)
	}

	publicURL := c.objectURL(key)
	if c.logger != nil {
		c.logger.Info("s3 upload completed", "bucket", c.bucket, "key", key, "url", publicURL)
	}
	return publicURL, nil
}

// Delete removes the object behind a URL returned by Upload.
func (c *Client) Delete(ctx context.Context, publicURL string) error {
	prefix := c.publicBaseURL + "/" + c.bucket + "/"
	key, ok := strings.CutPrefix(publicURL, prefix)
	if !ok || key == "" {
		return fmt.Errorf("%w: %s", ErrForeignURL, publicURL)
	}
	if err := c.client.RemoveObject(ctx, c.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("s3: remove object: %w", err)
	}
	if c.logger != nil {
		c.logger.Info("s3 object removed", "bucket", c.bucket, "key", key)
	}
	return nil
}

// ObjectKey builds the storage key for a listing image.
func ObjectKey(listingID, fileName string) string {
	ext := strings.ToLower(path.Ext(strings.TrimSpace(fileName)))
	if len(ext) > 8 {
		ext = ""
	}
	return fmt.Sprintf("listings/%s/%s%s", strings.Trim(listingID, "/"), uuid.NewString(), ext)
}

// NoopStore fails fast when S3 is unavailable.
type NoopStore struct{}

func (NoopStore) Upload(context.Context, policies.ImageUpload) (string, error) {
	return "", ErrNotConfigured
}

func (NoopStore) Delete(context.Context, string) error { return nil }

func (c *Client) ensureBucket(ctx context.Context) error {
	c.bucketInitOnce.Do(func() {
		exists, err := c.client.BucketExists(ctx, c.bucket)
		if err != nil {
			c.bucketInitErr = fmt.Errorf("s3: check bucket: %w", err)
			return
		}
		if exists {
			return
		}
		if err := c.client.MakeBucket(ctx, c.bucket, minio.MakeBucketOptions{}); err != nil {
			c.bucketInitErr = fmt.Errorf("s3: create bucket: %w", err)
			return
		}
		if err := c.allowPublicRead(ctx); err != nil {
			c.bucketInitErr = err
		}
	})
	return c.bucketInitErr
}

func (c *Client) allowPublicRead(ctx context.Context) error {
	policy := fmt.Sprintf(`{"Version":"2012-10-17","Statement":[{"Effect":"Allow","Principal":{"AWS":["*"]},"Action":["s3:GetObject"],"Resource":["arn:aws:s3:::%s/*"]}]}`, c.bucket)
	if err := c.client.SetBucketPolicy(ctx, c.bucket, policy); err != nil {
		return fmt.Errorf("s3: set bucket policy: %w", err)
	}
	return nil
}

func (c *Client) objectURL(key string) string {
	return fmt.Sprintf("%s/%s/%s", c.publicBaseURL, c.bucket, strings.TrimLeft(key, "/"))
}

func parseEndpoint(endpoint string) string {
	if parsed, err := url.Parse(endpoint); err == nil && parsed.Host != "" {
		return parsed.Host
	}
	return endpoint
}

func schemeFor(useSSL bool) string {
	if useSSL {
		return "https://"
	}
	return "http://"
}

var (
	_ policies.ImageStore = (*Client)(nil)
	_ policies.ImageStore = NoopStore{}
)
