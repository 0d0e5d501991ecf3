package artifact

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sitesmith/ai-gateway/internal/logger"
	"github.com/sitesmith/ai-gateway/internal/utils"
)

// StoredArtifact describes a persisted artifact
type StoredArtifact struct {
	ID          string `json:"id"`
	URL         string `json:"url"`
	ContentType string `json:"content_type"`
	SizeBytes   int64  `json:"size_bytes"`
}

// Store persists validated artifacts and returns a client-reachable URL.
// Implementations decide where bytes live; callers only see opaque URLs.
type Store interface {
	Persist(ctx context.Context, data []byte, extension, contentType string) (*StoredArtifact, error)
}

// DiskStore writes artifacts to a local directory served as static files
type DiskStore struct {
	dir     string
	baseURL string
}

// NewDiskStore creates a disk-backed artifact store rooted at dir. Files are
// served under baseURL by the router's static handler.
func NewDiskStore(dir, baseURL string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create artifact directory: %w", err)
	}
	return &DiskStore{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Persist implements Store. Filenames are random so artifact URLs are not
// guessable from one another.
func (s *DiskStore) Persist(ctx context.Context, data []byte, extension, contentType string) (*StoredArtifact, error) {
	id := utils.GenerateArtifactID()
	filename := id + "." + strings.TrimPrefix(extension, ".")
	path := filepath.Join(s.dir, filename)

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write artifact %s: %w", filename, err)
	}

	logger.Debug(logger.WithComponent(ctx, "ArtifactStore"), "Artifact persisted",
		"artifact_id", id,
		"path", path,
		"size_bytes", len(data),
	)

	return &StoredArtifact{
		ID:          id,
		URL:         s.baseURL + "/" + filename,
		ContentType: contentType,
		SizeBytes:   int64(len(data)),
	}, nil
}

// Dir returns the directory artifacts are written to
func (s *DiskStore) Dir() string {
	return s.dir
}
