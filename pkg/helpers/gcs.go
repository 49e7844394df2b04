package helpers

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// NewGCSClient creates a Google Cloud Storage client. If credsPath is empty, ADC is used.
func NewGCSClient(ctx context.Context, credsPath string) (*storage.Client, error) {
	if credsPath == "" {
		return storage.NewClient(ctx)
	}
	return storage.NewClient(ctx, option.WithCredentialsFile(credsPath))
}

// GCSBucket stores application documents in one bucket.
type GCSBucket struct {
	Client *storage.Client
	Bucket string
}

func NewGCSBucket(client *storage.Client, bucket string) *GCSBucket {
	return &GCSBucket{Client: client, Bucket: bucket}
}

// Upload streams r into objectPath in a single request and returns the
// object's gs:// URI.
func (b *GCSBucket) Upload(ctx context.Context, objectPath, contentType string, r io.Reader) (string, error) {
	wc := b.Client.Bucket(b.Bucket).Object(objectPath).NewWriter(ctx)
	wc.ContentType = contentType
	wc.ChunkSize = 0
	if _, err := io.Copy(wc, r); err != nil {
		_ = wc.Close()
		return "", err
	}
	if err := wc.Close(); err != nil {
		return "", err
	}
	return fmt.Sprintf("gs://%s/%s", b.Bucket, objectPath), nil
}
