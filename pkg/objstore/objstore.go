package objstore

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned by Head and Get when the object does not exist.
// Storage backends that answer 403 on missing keys (bucket without list
// permission) must map that to ErrNotFound too.
var ErrNotFound = errors.New("object not found")

type ObjectInfo struct {
	Key           string    `json:"key"`
	ContentLength int64     `json:"content_length"`
	ContentType   string    `json:"content_type"`
	LastModified  time.Time `json:"last_modified"`
}

// Storage abstracts the blob store that holds app icons.
type Storage interface {
	// SignedUploadURL returns a pre-signed PUT url for key, valid for
	// expiry. The signature pins contentType, a PUT with another
	// Content-Type header is rejected by the store.
	SignedUploadURL(ctx context.Context, key, contentType string, expiry time.Duration) (string, error)

	// Head returns object metadata, or ErrNotFound.
	Head(ctx context.Context, key string) (ObjectInfo, error)

	// Copy copies srcKey to dstKey inside the same bucket.
	Copy(ctx context.Context, srcKey, dstKey string) error

	Delete(ctx context.Context, key string) error

	Get(ctx context.Context, key string) ([]byte, error)

	Put(ctx context.Context, key string, body []byte, contentType string) error
}
