// Package storage persists uploaded resume blobs. The default backend keeps
// them under a local uploads directory; a cloud bucket can be swapped in
// through the same interface.
package storage

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Client abstracts the blob store used for resumes.
type Client interface {
	UploadFile(objectName string, fileData io.Reader) error
	DownloadFile(objectName string) (io.ReadCloser, int64, error)
}

// DiskClient stores objects as plain files under a root directory.
type DiskClient struct {
	Root string
}

// NewDiskClient creates the root directory when missing and returns a client
// rooted there.
func NewDiskClient(root string) (*DiskClient, error) {
	if root == "" {
		root = "uploads"
	}
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &DiskClient{Root: root}, nil
}

// path maps an object name onto the root directory, refusing traversal
// outside of it.
func (d *DiskClient) path(objectName string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(objectName))
	if cleaned == "." || strings.HasPrefix(cleaned, "..") || filepath.IsAbs(cleaned) {
		return "", fmt.Errorf("invalid object name: %s", objectName)
	}
	return filepath.Join(d.Root, cleaned), nil
}

// UploadFile writes the object, creating intermediate directories as needed.
func (d *DiskClient) UploadFile(objectName string, fileData io.Reader) error {
	target, err := d.path(objectName)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("failed to create object directory: %w", err)
	}

	f, err := os.Create(target)
	if err != nil {
		return fmt.Errorf("failed to create object file: %w", err)
	}
	if _, err := io.Copy(f, fileData); err != nil {
		_ = f.Close()
		return fmt.Errorf("failed to write object data: %w", err)
	}
	return f.Close()
}

// DownloadFile opens the object for reading and reports its size.
func (d *DiskClient) DownloadFile(objectName string) (io.ReadCloser, int64, error) {
	target, err := d.path(objectName)
	if err != nil {
		return nil, 0, err
	}

	f, err := os.Open(target)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to open object file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, 0, fmt.Errorf("failed to stat object file: %w", err)
	}
	return f, info.Size(), nil
}
