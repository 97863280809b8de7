// Package pagesource supplies rendered page images for grounding
// hierarchical answers. Missing pages are an expected condition: callers
// degrade to node summaries, so absence is reported as an empty result,
// not an error.
package pagesource

import (
	"context"
	"fmt"
	"io"

	"github.com/minio/minio-go/v7"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/internal/rag_service/rag/interfaces"
	"github.com/patrick-jaritz/document-intelligence-suite-sub006/pkg/logger"
)

// maxPagesPerQuery bounds the number of images attached to one prompt.
const maxPagesPerQuery = 8

// MinioPageSource reads rendered page images from the object store, one
// object per page under "<documentID>/page-<n>.png".
type MinioPageSource struct {
	client *minio.Client
	bucket string
	log    *logger.Logger
}

// NewMinioPageSource creates a MinioPageSource.
func NewMinioPageSource(client *minio.Client, bucket string, log *logger.Logger) *MinioPageSource {
	return &MinioPageSource{client: client, bucket: bucket, log: log}
}

// Pages fetches the images for an inclusive page range. Pages that do not
// exist are skipped; a fully missing range yields (nil, nil).
func (s *MinioPageSource) Pages(ctx context.Context, documentID string, start, end int) ([][]byte, error) {
	if start <= 0 {
		return nil, nil
	}
	if end < start {
		end = start
	}
	if end-start+1 > maxPagesPerQuery {
		end = start + maxPagesPerQuery - 1
	}

	var images [][]byte
	for page := start; page <= end; page++ {
		key := fmt.Sprintf("%s/page-%d.png", documentID, page)
		obj, err := s.client.GetObject(ctx, s.bucket, key, minio.GetObjectOptions{})
		if err != nil {
			s.log.WithError(err).Debug(fmt.Sprintf("page object %s unavailable", key))
			continue
		}
		data, err := io.ReadAll(obj)
		closeErr := obj.Close()
		if err != nil || closeErr != nil || len(data) == 0 {
			// GetObject is lazy; read errors cover missing objects too.
			continue
		}
		images = append(images, data)
	}
	return images, nil
}

var _ interfaces.PageSource = (*MinioPageSource)(nil)
