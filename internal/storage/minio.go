// Package storage keeps uploaded bill images in MinIO. Storage is optional;
// when unconfigured the service keeps only the local copy on disk.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"

	"github.com/ledgerly/bill-extraction-service/internal/logger"
)

// ErrNoStorage is returned by storage operations when MinIO is not
// configured.
var ErrNoStorage = errors.New("object storage not configured")

var Client *minio.Client
var BucketName string

// Available reports whether an object storage backend is configured.
func Available() bool {
	return Client != nil
}

// Init connects to MinIO using the MINIO_* environment variables. Missing
// credentials are not an error; the service degrades to local-disk storage.
func Init() error {
	endpoint := os.Getenv("MINIO_ENDPOINT")
	accessKey := os.Getenv("MINIO_ACCESS_KEY")
	secretKey := os.Getenv("MINIO_SECRET_KEY")

	if endpoint == "" || accessKey == "" || secretKey == "" {
		logger.GetLogger().Info("no object storage configuration found, bill images stay on local disk")
		return ErrNoStorage
	}

	BucketName = os.Getenv("MINIO_BUCKET")
	if BucketName == "" {
		BucketName = "bills"
	}

	useSSL := os.Getenv("MINIO_USE_SSL") == "true"

	client, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(accessKey, secretKey, ""),
		Secure: useSSL,
	})
	if err != nil {
		return fmt.Errorf("failed to create MinIO client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	exists, err := client.BucketExists(ctx, BucketName)
	if err != nil {
		return fmt.Errorf("failed to check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, BucketName, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket %s: %w", BucketName, err)
		}
	}

	Client = client
	logger.GetLogger().Infow("object storage initialized", "endpoint", endpoint, "bucket", BucketName)
	return nil
}

// UploadBillImage stores a bill image under a per-owner path,
// {user_id}/YYYY/MM/{filename}, and returns the object key for the bill row.
func UploadBillImage(ctx context.Context, userID int64, filename string, reader io.Reader, size int64, contentType string) (string, error) {
	if Client == nil {
		return "", ErrNoStorage
	}

	now := time.Now()
	objectName := fmt.Sprintf("%d/%d/%02d/%s", userID, now.Year(), now.Month(), filename)

	_, err := Client.PutObject(ctx, BucketName, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload bill image: %w", err)
	}

	return fmt.Sprintf("%s/%s", BucketName, objectName), nil
}

// GetPresignedURL generates a 24-hour read URL for a stored bill image.
func GetPresignedURL(ctx context.Context, objectPath string) (string, error) {
	if Client == nil {
		return "", ErrNoStorage
	}

	url, err := Client.PresignedGetObject(ctx, BucketName, trimBucket(objectPath), 24*time.Hour, nil)
	if err != nil {
		return "", fmt.Errorf("failed to generate presigned URL: %w", err)
	}
	return url.String(), nil
}

// DeleteImage removes a bill image from storage.
func DeleteImage(ctx context.Context, objectPath string) error {
	if Client == nil {
		return ErrNoStorage
	}
	return Client.RemoveObject(ctx, BucketName, trimBucket(objectPath), minio.RemoveObjectOptions{})
}

func trimBucket(objectPath string) string {
	return strings.TrimPrefix(objectPath, BucketName+"/")
}

// GetFileExtension maps a content type to a storage filename extension.
func GetFileExtension(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	case "image/bmp":
		return ".bmp"
	case "image/tiff":
		return ".tiff"
	case "application/pdf":
		return ".pdf"
	default:
		return ".bin"
	}
}
