// internal/app/system/blobstore/blobstore.go
package blobstore

import (
	"bytes"
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"kpihub/internal/app/lifecycle"

	"github.com/dalemusser/waffle/pantry/storage"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// presignExpiry is how long generated evidence download links stay valid.
const presignExpiry = 15 * time.Minute

// Blobs adapts a waffle storage backend (local disk or S3) to the evidence
// storage interface the lifecycle engine expects.
type Blobs struct {
	store    storage.Store
	localURL string // URL prefix for serving local files
	log      *zap.Logger
}

// New creates a storage adapter. localURL is the public prefix under which
// locally stored files are served; it is ignored for S3 backends.
func New(store storage.Store, localURL string, logger *zap.Logger) *Blobs {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Blobs{store: store, localURL: localURL, log: logger}
}

// Store uploads one evidence binary and returns its storage coordinates.
// The path is generated as: <folder>/YYYY/MM/uuid-filename
func (b *Blobs) Store(ctx context.Context, data []byte, folder, name, contentType string) (lifecycle.StoredObject, error) {
	path := objectPath(folder, name)

	opts := &storage.PutOptions{
		ContentType: contentType,
	}
	if err := b.store.Put(ctx, path, bytes.NewReader(data), opts); err != nil {
		return lifecycle.StoredObject{}, fmt.Errorf("failed to upload file: %w", err)
	}

	url, err := b.secureURL(ctx, path)
	if err != nil {
		// The object is stored; a link can be regenerated later.
		b.log.Warn("failed to generate download URL", zap.Error(err), zap.String("path", path))
		url = ""
	}

	return lifecycle.StoredObject{
		PublicID:     path,
		ResourceKind: resourceKindFor(contentType),
		AccessTier:   "authenticated",
		Format:       formatFor(name),
		SecureURL:    url,
	}, nil
}

// Release deletes one stored evidence binary.
func (b *Blobs) Release(ctx context.Context, publicID, resourceKind string) error {
	return b.store.Delete(ctx, publicID)
}

// DownloadURL returns a fresh link for a stored object, presigned for S3
// backends and prefix-joined for local storage.
func (b *Blobs) DownloadURL(ctx context.Context, publicID string) (string, error) {
	return b.secureURL(ctx, publicID)
}

func (b *Blobs) secureURL(ctx context.Context, path string) (string, error) {
	// Local storage is served directly by the app; no presigning needed.
	if _, ok := b.store.(*storage.Local); ok {
		return strings.TrimRight(b.localURL, "/") + "/" + path, nil
	}
	return b.store.PresignedURL(ctx, path, &storage.PresignOptions{
		Expires: presignExpiry,
	})
}

// objectPath builds a collision-free storage path under folder, keyed by
// upload month so buckets stay browsable.
func objectPath(folder, name string) string {
	now := time.Now().UTC()
	dateDir := fmt.Sprintf("%s/%04d/%02d", folder, now.Year(), now.Month())
	uniqueName := fmt.Sprintf("%s-%s", uuid.New().String()[:8], sanitizeFilename(name))
	return filepath.ToSlash(filepath.Join(dateDir, uniqueName))
}

// resourceKindFor maps a MIME type onto the engine's coarse resource kinds.
func resourceKindFor(contentType string) string {
	switch {
	case strings.HasPrefix(contentType, "image/"):
		return "image"
	case strings.HasPrefix(contentType, "video/"):
		return "video"
	default:
		return "raw"
	}
}

// formatFor extracts the lowercase file extension, without the dot.
func formatFor(name string) string {
	ext := strings.TrimPrefix(filepath.Ext(name), ".")
	return strings.ToLower(ext)
}

// sanitizeFilename removes or replaces characters that could be problematic
// in storage paths.
func sanitizeFilename(filename string) string {
	filename = filepath.Base(filename)

	result := make([]byte, 0, len(filename))
	for i := 0; i < len(filename); i++ {
		c := filename[i]
		if isAllowedFilenameChar(c) {
			result = append(result, c)
		} else {
			result = append(result, '_')
		}
	}

	if len(result) == 0 {
		return "file"
	}
	if len(result) > 100 {
		// Truncate but preserve extension if present
		ext := filepath.Ext(string(result))
		if len(ext) > 0 && len(ext) < 10 {
			result = append(result[:100-len(ext)], ext...)
		} else {
			result = result[:100]
		}
	}

	return string(result)
}

func isAllowedFilenameChar(c byte) bool {
	return (c >= 'a' && c <= 'z') ||
		(c >= 'A' && c <= 'Z') ||
		(c >= '0' && c <= '9') ||
		c == '-' || c == '_' || c == '.'
}
