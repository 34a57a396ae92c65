// Package blob stores JSON documents by kind and id on the local
// filesystem, Google Cloud Storage or S3.
package blob

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

// ErrNotFound is returned by Get when no object exists for the key.
var ErrNotFound = errors.New("blob: not found")

// Store abstracts blob storage for classifier tables and project records.
// Delete of a missing object is not an error.
type Store interface {
	Put(ctx context.Context, kind, id string, data []byte) error
	Get(ctx context.Context, kind, id string) ([]byte, error)
	Delete(ctx context.Context, kind, id string) error
	List(ctx context.Context, kind string) ([]string, error)
}

// Config selects and configures a backend.
type Config struct {
	Backend   string // local, gcs or s3
	Dir       string
	Bucket    string
	Prefix    string
	Region    string
	Endpoint  string
	AccessKey string
	SecretKey string
}

// Open creates the Store described by cfg.
func Open(ctx context.Context, cfg Config) (Store, error) {
	switch cfg.Backend {
	case "", "local":
		if cfg.Dir == "" {
			return nil, fmt.Errorf("local storage: dir is required")
		}
		return NewLocalStorage(cfg.Dir), nil
	case "gcs":
		if cfg.Bucket == "" {
			return nil, fmt.Errorf("gcs storage: bucket is required")
		}
		return NewGCSStorage(ctx, cfg.Bucket, cfg.Prefix)
	case "s3":
		if cfg.Bucket == "" {
			return nil, fmt.Errorf("s3 storage: bucket is required")
		}
		return NewS3Storage(ctx, cfg)
	}
	return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
}

// objectKey joins prefix, kind and id into "<prefix>/<kind>/<id>.json".
func objectKey(prefix, kind, id string) string {
	return path.Join(prefix, kind, id+".json")
}

// kindDir is the listing prefix for kind, with a trailing slash.
func kindDir(prefix, kind string) string {
	return path.Join(prefix, kind) + "/"
}

// idFromKey reverses objectKey for keys under dir, returning "" otherwise.
func idFromKey(dir, key string) string {
	rest, ok := strings.CutPrefix(key, dir)
	if !ok || strings.Contains(rest, "/") {
		return ""
	}
	id, ok := strings.CutSuffix(rest, ".json")
	if !ok {
		return ""
	}
	return id
}
