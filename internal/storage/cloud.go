package storage

import (
	"context"
	"fmt"
	"io"

	"cloud.google.com/go/storage"
)

// CloudClient stores objects in a Google Cloud Storage bucket.
type CloudClient struct {
	BucketName string
	Ctx        context.Context
	Client     *storage.Client
}

// NewCloudClient connects to GCS using ambient credentials.
func NewCloudClient(bucketName string) (*CloudClient, error) {
	ctx := context.Background()
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create cloud storage client: %w", err)
	}
	return &CloudClient{
		BucketName: bucketName,
		Ctx:        ctx,
		Client:     client,
	}, nil
}

// UploadFile writes the object into the bucket.
func (c *CloudClient) UploadFile(objectName string, fileData io.Reader) error {
	obj := c.Client.Bucket(c.BucketName).Object(objectName)
	wc := obj.NewWriter(c.Ctx)
	if _, err := io.Copy(wc, fileData); err != nil {
		return fmt.Errorf("failed to write data to object: %w", err)
	}
	if err := wc.Close(); err != nil {
		return fmt.Errorf("failed to close object writer: %w", err)
	}
	return nil
}

// DownloadFile opens the object for reading and reports its size.
func (c *CloudClient) DownloadFile(objectName string) (io.ReadCloser, int64, error) {
	obj := c.Client.Bucket(c.BucketName).Object(objectName)
	reader, err := obj.NewReader(c.Ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open object reader: %w", err)
	}
	return reader, reader.Attrs.Size, nil
}
