package session

import (
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/hack-pad/hackpadfs"
	"github.com/hack-pad/hackpadfs/mem"

	pkgerrors "github.com/whikwon/nexusnote/pkg/errors"
)

const blobURLPrefix = "blob:nexusnote/"

// BlobHandle is a transient reference to document bytes held in memory
type BlobHandle struct {
	URL         string
	ContentType string
	Size        int
}

// BlobRegistry owns the transient handles of open documents. Every acquired
// handle must be released exactly once.
type BlobRegistry struct {
	fs *mem.FS

	mu   sync.Mutex
	live map[string]BlobHandle
}

// NewBlobRegistry creates a registry backed by an in-memory filesystem
func NewBlobRegistry() (*BlobRegistry, error) {
	fs, err := mem.NewFS()
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to create blob filesystem").WithCause(err)
	}
	return &BlobRegistry{
		fs:   fs,
		live: make(map[string]BlobHandle),
	}, nil
}

// Acquire stores data and returns a handle for it
func (r *BlobRegistry) Acquire(data []byte, contentType string) (BlobHandle, error) {
	name := uuid.NewString()
	if err := hackpadfs.WriteFullFile(r.fs, name, data, 0o600); err != nil {
		return BlobHandle{}, pkgerrors.NewInternalError("failed to store document content").WithCause(err)
	}

	handle := BlobHandle{
		URL:         blobURLPrefix + name,
		ContentType: contentType,
		Size:        len(data),
	}

	r.mu.Lock()
	r.live[handle.URL] = handle
	r.mu.Unlock()
	return handle, nil
}

// Open reads the bytes behind a live handle
func (r *BlobRegistry) Open(url string) ([]byte, error) {
	r.mu.Lock()
	_, ok := r.live[url]
	r.mu.Unlock()
	if !ok {
		return nil, pkgerrors.NewNotFoundError("blob")
	}

	data, err := hackpadfs.ReadFile(r.fs, strings.TrimPrefix(url, blobURLPrefix))
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to read document content").WithCause(err)
	}
	return data, nil
}

// Release frees a handle. Releasing an unknown or already released handle is
// reported as not found.
func (r *BlobRegistry) Release(url string) error {
	r.mu.Lock()
	_, ok := r.live[url]
	delete(r.live, url)
	r.mu.Unlock()
	if !ok {
		return pkgerrors.NewNotFoundError("blob")
	}

	if err := hackpadfs.Remove(r.fs, strings.TrimPrefix(url, blobURLPrefix)); err != nil {
		return pkgerrors.NewInternalError("failed to release document content").WithCause(err)
	}
	return nil
}

// Live returns the number of unreleased handles
func (r *BlobRegistry) Live() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.live)
}
