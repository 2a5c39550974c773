package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"time"

	"cloud.google.com/go/storage"
	"github.com/google/uuid"
	"google.golang.org/api/option"
)

// CloudStorageClient uploads reassembled chat attachments to GCS and hands
// back the public URL.
type CloudStorageClient struct {
	client     *storage.Client
	bucketName string
}

func NewCloudStorageClient(ctx context.Context, bucketName, credentialsPath string) (*CloudStorageClient, error) {
	var opts []option.ClientOption
	if credentialsPath != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsPath))
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage client: %v", err)
	}

	return &CloudStorageClient{
		client:     client,
		bucketName: bucketName,
	}, nil
}

// Upload writes data under chat-uploads/ with a unique object name derived
// from the original filename.
func (c *CloudStorageClient) Upload(ctx context.Context, data []byte, filename, mimeType string) (string, error) {
	objectName := fmt.Sprintf("chat-uploads/%s-%s%s",
		uuid.New().String(),
		time.Now().Format("20060102150405"),
		path.Ext(filename),
	)

	obj := c.client.Bucket(c.bucketName).Object(objectName)
	wc := obj.NewWriter(ctx)
	wc.ContentType = mimeType
	wc.CacheControl = "public, max-age=86400"

	if _, err := io.Copy(wc, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("failed to copy file to GCS: %v", err)
	}
	if err := wc.Close(); err != nil {
		return "", fmt.Errorf("failed to close writer: %v", err)
	}

	if err := obj.ACL().Set(ctx, storage.AllUsers, storage.RoleReader); err != nil {
		return "", fmt.Errorf("failed to set ACL: %v", err)
	}

	return fmt.Sprintf("https://storage.googleapis.com/%s/%s", c.bucketName, objectName), nil
}

func (c *CloudStorageClient) Close() error {
	return c.client.Close()
}
