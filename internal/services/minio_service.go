package services

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"movie-catalog/internal/config"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/sirupsen/logrus"
)

// DatasetStorage reads and stages catalog CSV datasets in a MinIO/S3 bucket.
type DatasetStorage struct {
	client *minio.Client
	bucket string
	logger *logrus.Logger
}

func NewDatasetStorage(cfg *config.MinIOConfig, logger *logrus.Logger) (*DatasetStorage, error) {
	endpoint := cfg.Endpoint
	endpoint = strings.TrimPrefix(endpoint, "https://")
	endpoint = strings.TrimPrefix(endpoint, "http://")

	minioClient, err := minio.New(endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	logger.WithFields(logrus.Fields{
		"endpoint": endpoint,
		"bucket":   cfg.BucketName,
		"useSSL":   cfg.UseSSL,
	}).Info("MinIO client initialized successfully")

	return &DatasetStorage{
		client: minioClient,
		bucket: cfg.BucketName,
		logger: logger,
	}, nil
}

func (s *DatasetStorage) Bucket() string {
	return s.bucket
}

// Open streams an object. An empty bucket means the configured one.
func (s *DatasetStorage) Open(ctx context.Context, bucket, object string) (io.ReadCloser, error) {
	if bucket == "" {
		bucket = s.bucket
	}

	obj, err := s.client.GetObject(ctx, bucket, object, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s/%s: %w", bucket, object, err)
	}

	// GetObject is lazy; Stat surfaces a missing object before the CSV reader does.
	if _, err := obj.Stat(); err != nil {
		_ = obj.Close()
		return nil, fmt.Errorf("failed to stat %s/%s: %w", bucket, object, err)
	}

	s.logger.WithFields(logrus.Fields{
		"bucket": bucket,
		"object": object,
	}).Info("Opened dataset object")

	return obj, nil
}

// Upload stages a local dataset in the configured bucket under a unique name
// and returns the s3:// source for it.
func (s *DatasetStorage) Upload(ctx context.Context, filename string, r io.Reader, size int64) (string, error) {
	if err := s.ensureBucket(ctx); err != nil {
		return "", err
	}

	base := filepath.Base(filename)
	ext := filepath.Ext(base)
	nameWithoutExt := strings.TrimSuffix(base, ext)
	objectPath := fmt.Sprintf("%s_%s%s", nameWithoutExt, uuid.New().String()[:8], ext)

	_, err := s.client.PutObject(ctx, s.bucket, objectPath, r, size, minio.PutObjectOptions{
		ContentType: "text/csv",
	})
	if err != nil {
		s.logger.WithError(err).WithField("objectPath", objectPath).Error("Failed to upload dataset")
		return "", fmt.Errorf("failed to upload dataset: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"filename":   filename,
		"objectPath": objectPath,
	}).Info("Dataset uploaded")

	return "s3://" + s.bucket + "/" + objectPath, nil
}

func (s *DatasetStorage) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return fmt.Errorf("failed to check bucket existence: %w", err)
	}

	if !exists {
		if err := s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{}); err != nil {
			return fmt.Errorf("failed to create bucket: %w", err)
		}
		s.logger.WithField("bucket", s.bucket).Info("Bucket created successfully")
	}
	return nil
}
