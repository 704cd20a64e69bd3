// registration/storage/storage.go
package storage

import (
	"context"
	"errors"
	"sync"
)

// ErrUnavailable marks a transport-level blob store failure; the upload can
// be retried because no team state was changed.
var ErrUnavailable = errors.New("blob store unavailable")

// Object is the opaque handle plus public URL the core persists for an
// uploaded artifact. Raw bytes never touch the team aggregate.
type Object struct {
	URL string
	Key string
}

// BlobStore is the document storage collaborator.
type BlobStore interface {
	Put(ctx context.Context, key, contentType string, data []byte) (*Object, error)
	Delete(ctx context.Context, key string) error
}

// MemoryStore keeps blobs in process memory. Used in tests and local
// development when no asset store is configured.
type MemoryStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

// NewMemoryStore creates an empty in-memory blob store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{blobs: make(map[string][]byte)}
}

// Put stores the blob under key and fabricates a mem:// URL.
func (ms *MemoryStore) Put(_ context.Context, key, _ string, data []byte) (*Object, error) {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	ms.blobs[key] = append([]byte(nil), data...)
	return &Object{URL: "mem://" + key, Key: key}, nil
}

// Delete removes the blob; deleting an unknown key is not an error.
func (ms *MemoryStore) Delete(_ context.Context, key string) error {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	delete(ms.blobs, key)
	return nil
}

// Has reports whether a blob with the given key exists. Test helper.
func (ms *MemoryStore) Has(key string) bool {
	ms.mu.Lock()
	defer ms.mu.Unlock()
	_, ok := ms.blobs[key]
	return ok
}
