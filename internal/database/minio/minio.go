package minio

import (
	"context"
	"fmt"
	"sync"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/config"
)

var (
	client  *minio.Client
	once    sync.Once
	initErr error
)

// GetClient initializes and returns the singleton MinIO client used for
// rendered page images.
func GetClient(cfg *config.MinIOConfig) (*minio.Client, error) {
	once.Do(func() {
		c, err := minio.New(cfg.Endpoint, &minio.Options{
			Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
			Secure: cfg.Secure,
		})
		if err != nil {
			initErr = fmt.Errorf("cannot create MinIO client: %w", err)
			return
		}

		if _, err := c.ListBuckets(context.Background()); err != nil {
			initErr = fmt.Errorf("MinIO health check failed: %w", err)
			return
		}
		client = c
	})

	return client, initErr
}

// HealthCheck verifies connectivity and credentials.
func HealthCheck(ctx context.Context) error {
	if client == nil {
		return fmt.Errorf("MinIO client not initialized")
	}
	if _, err := client.ListBuckets(ctx); err != nil {
		return fmt.Errorf("MinIO health check failed: %w", err)
	}
	return nil
}
