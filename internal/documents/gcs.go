package documents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	storage "google.golang.org/api/storage/v1"
)

// GCS reads documents from a Cloud Storage bucket as objects named key/fileName.
type GCS struct {
	service *storage.Service
	bucket  string
	logger  *zap.Logger
}

// NewGCS builds a fetcher for bucket. An empty credentialsFile falls back to
// application default credentials.
func NewGCS(ctx context.Context, logger *zap.Logger, bucket, credentialsFile string, opts ...option.ClientOption) (*GCS, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if bucket == "" {
		return nil, fmt.Errorf("documents bucket is required")
	}
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}

	svc, err := storage.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage service: %w", err)
	}
	return &GCS{service: svc, bucket: bucket, logger: logger}, nil
}

// Fetch downloads key/fileName.
func (g *GCS) Fetch(ctx context.Context, key, fileName string) (Document, error) {
	name := objectName(key, fileName)
	resp, err := g.service.Objects.Get(g.bucket, name).Context(ctx).Download()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusNotFound {
			return Document{}, ErrNotFound
		}
		return Document{}, fmt.Errorf("download %s: %w", name, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Document{}, fmt.Errorf("read %s: %w", name, err)
	}

	g.logger.Debug("fetched document",
		zap.String("op", "documents.GCS.Fetch"),
		zap.String("bucket", g.bucket),
		zap.String("object", name),
		zap.Int("bytes", len(raw)),
	)
	return newDocument(fileName, raw)
}
