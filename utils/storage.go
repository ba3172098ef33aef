// tavle/utils/storage.go
package utils

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// LocalStorage implements models.StorageService on local disk.
type LocalStorage struct {
	ImagesDir string
}

func (ls *LocalStorage) SaveFile(filename string, data []byte, contentType string) error {
	fullPath := filepath.Join(ls.ImagesDir, filepath.Base(filename))
	return os.WriteFile(fullPath, data, 0644)
}

func (ls *LocalStorage) ReadFile(filename string) ([]byte, error) {
	fullPath := filepath.Join(ls.ImagesDir, filepath.Base(filename))
	return os.ReadFile(fullPath)
}

func (ls *LocalStorage) DeleteFile(filename string) error {
	fullPath := filepath.Join(ls.ImagesDir, filepath.Base(filename))
	err := os.Remove(fullPath)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// S3Storage implements models.StorageService for S3-compatible object
// storage.
type S3Storage struct {
	Client     *minio.Client
	BucketName string
}

func NewS3Storage(endpoint, accessKey, secretKey, bucket, region string, useSSL bool) (*S3Storage, error) {
	// Strip scheme if present
	endpoint = strings.TrimPrefix(endpoint, "https://")
	endpoint = strings.TrimPrefix(endpoint, "http://")

	var creds *credentials.Credentials
	if accessKey == "" || secretKey == "" {
		// Use IAM role credentials if keys are not provided
		creds = credentials.NewIAM("")
	} else {
		creds = credentials.NewStaticV4(accessKey, secretKey, "")
	}

	minioClient, err := minio.New(endpoint, &minio.Options{
		Creds:  creds,
		Secure: useSSL,
		Region: region,
	})
	if err != nil {
		return nil, err
	}

	ctx := context.Background()
	exists, err := minioClient.BucketExists(ctx, bucket)
	if err != nil {
		return nil, fmt.Errorf("failed to check bucket existence: %w", err)
	}
	if !exists {
		return nil, fmt.Errorf("bucket %s does not exist", bucket)
	}

	return &S3Storage{
		Client:     minioClient,
		BucketName: bucket,
	}, nil
}

func (s3 *S3Storage) SaveFile(filename string, data []byte, contentType string) error {
	ctx := context.Background()
	reader := bytes.NewReader(data)
	_, err := s3.Client.PutObject(ctx, s3.BucketName, filename, reader, int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	return err
}

func (s3 *S3Storage) ReadFile(filename string) ([]byte, error) {
	ctx := context.Background()
	obj, err := s3.Client.GetObject(ctx, s3.BucketName, filename, minio.GetObjectOptions{})
	if err != nil {
		return nil, err
	}
	defer obj.Close()
	return io.ReadAll(obj)
}

func (s3 *S3Storage) DeleteFile(filename string) error {
	ctx := context.Background()
	return s3.Client.RemoveObject(ctx, s3.BucketName, filename, minio.RemoveObjectOptions{})
}
