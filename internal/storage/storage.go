// Package storage provides object storage for ReadyHire device state and
// exported progress reports.
//
// Implementations:
//   - LocalStorage: files under a base directory
//   - R2Storage: Cloudflare R2 (S3-compatible) for devices without a durable disk
//
// The kvstore package builds its "file" and "r2" backends on this interface,
// and the export command uploads rendered reports through it.
package storage

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// Interface Definition
// =============================================================================

// Storage is a flat object store addressed by slash-separated keys.
type Storage interface {
	// Put stores data at key. ErrKeyExists is returned when the key is
	// taken and opts.Overwrite is false.
	Put(ctx context.Context, key string, data io.Reader, opts PutOptions) error

	// Get returns the object at key. The caller must close the reader.
	// Returns ErrNotFound if the key doesn't exist.
	Get(ctx context.Context, key string) (io.ReadCloser, ObjectInfo, error)

	// Delete removes the object at key. Missing keys are not an error.
	Delete(ctx context.Context, key string) error

	// URL returns a link to the object. Implementations without public
	// access return a presigned URL valid for expires.
	URL(ctx context.Context, key string, expires time.Duration) (string, error)

	// Exists reports whether an object is stored at key.
	Exists(ctx context.Context, key string) (bool, error)
}

// =============================================================================
// Data Types
// =============================================================================

// PutOptions configures how an object is stored.
type PutOptions struct {
	// ContentType is detected from the key extension when empty.
	ContentType string

	// MaxSize rejects payloads larger than this many bytes. Zero means no limit.
	MaxSize int64

	// Overwrite allows replacing an existing object.
	Overwrite bool

	// Public marks the object public-read where the backend supports ACLs.
	Public bool

	// IfMatch only writes when the stored object still has this ETag.
	IfMatch string

	// IfNoneMatch only writes when no object exists at the key.
	IfNoneMatch bool
}

// ObjectInfo contains metadata about a stored object.
type ObjectInfo struct {
	Key          string
	Size         int64
	ContentType  string
	LastModified time.Time
	ETag         string
}

// =============================================================================
// Configuration Types
// =============================================================================

// LocalConfig holds configuration for local filesystem storage.
type LocalConfig struct {
	// BasePath is the root directory, e.g. "$XDG_DATA_HOME/readyhire/state".
	BasePath string

	// BaseURL prefixes links returned by URL. A "file://" URL is used when empty.
	BaseURL string
}

// R2Config holds configuration for Cloudflare R2 storage.
type R2Config struct {
	AccountID       string
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string

	// PublicURL is the bucket's custom domain, if any. Presigned URLs are
	// used when empty.
	PublicURL string

	// Region defaults to "auto".
	Region string
}

const (
	ProviderLocal = "local"
	ProviderR2    = "r2"
)

// MaxStateObjectSize bounds a single persisted state value.
const MaxStateObjectSize = 4 << 20

// =============================================================================
// Key Generation Helpers
// =============================================================================

// StateKey returns the object key for one device state entry.
// Format: state/{namespace}/{key}.json
func StateKey(namespace, key string) string {
	return fmt.Sprintf("state/%s/%s.json", sanitizeSegment(namespace), sanitizeSegment(key))
}

// ReportKey returns the object key for an exported progress report.
// Format: reports/{userID}/{20060102-150405}.{ext}
func ReportKey(userID uuid.UUID, at time.Time, ext string) string {
	return fmt.Sprintf("reports/%s/%s.%s", userID, at.UTC().Format("20060102-150405"), ext)
}

// sanitizeSegment keeps a key segment to a safe character set.
func sanitizeSegment(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	out := b.String()
	if out == "" || strings.Trim(out, ".") == "" {
		return "_"
	}
	return out
}
