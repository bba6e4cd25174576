// Package storage keeps uploaded document bytes on a hackpadfs file system.
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	gofs "io/fs"
	"path/filepath"
	"strings"
	"sync"

	"github.com/hack-pad/hackpadfs"
	"github.com/hack-pad/hackpadfs/mem"
	osfs "github.com/hack-pad/hackpadfs/os"
	"go.uber.org/zap"

	"github.com/whikwon/nexusnote/application/ports"
	pkgerrors "github.com/whikwon/nexusnote/pkg/errors"
)

var _ ports.BlobStore = (*BlobStore)(nil)

// BlobStore writes one file per key. Keys are flat file names.
type BlobStore struct {
	fs     hackpadfs.FS
	logger *zap.Logger
	mu     sync.RWMutex
}

// NewBlobStore wraps an existing file system
func NewBlobStore(fs hackpadfs.FS, logger *zap.Logger) *BlobStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BlobStore{fs: fs, logger: logger}
}

// NewDiskBlobStore stores blobs under root on the host file system, creating it if needed
func NewDiskBlobStore(root string, logger *zap.Logger) (*BlobStore, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("resolve blob root: %w", err)
	}
	dir := strings.TrimPrefix(filepath.ToSlash(abs), "/")

	host := osfs.NewFS()
	if err := hackpadfs.MkdirAll(host, dir, 0o755); err != nil {
		return nil, fmt.Errorf("create blob root %s: %w", abs, err)
	}
	sub, err := host.Sub(dir)
	if err != nil {
		return nil, fmt.Errorf("open blob root %s: %w", abs, err)
	}
	return NewBlobStore(sub, logger), nil
}

// NewMemoryBlobStore keeps blobs in memory
func NewMemoryBlobStore(logger *zap.Logger) (*BlobStore, error) {
	fs, err := mem.NewFS()
	if err != nil {
		return nil, fmt.Errorf("create memory fs: %w", err)
	}
	return NewBlobStore(fs, logger), nil
}

// Put stores the reader's content under key
func (s *BlobStore) Put(ctx context.Context, key string, r io.Reader) (int64, error) {
	if err := validKey(key); err != nil {
		return 0, err
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return 0, pkgerrors.NewValidationError("failed to read upload").WithCause(err)
	}
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := hackpadfs.WriteFullFile(s.fs, key, data, 0o644); err != nil {
		return 0, pkgerrors.NewInternalError("failed to store document content").WithCause(err)
	}

	s.logger.Debug("Blob stored", zap.String("key", key), zap.Int("bytes", len(data)))
	return int64(len(data)), nil
}

// Get returns the bytes stored under key
func (s *BlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := validKey(key); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	data, err := hackpadfs.ReadFile(s.fs, key)
	if errors.Is(err, hackpadfs.ErrNotExist) {
		return nil, pkgerrors.ErrBlobNotFound.WithDetail("key", key)
	}
	if err != nil {
		return nil, pkgerrors.NewInternalError("failed to read document content").WithCause(err)
	}
	return data, nil
}

// Delete removes the blob. A missing blob is not an error.
func (s *BlobStore) Delete(ctx context.Context, key string) error {
	if err := validKey(key); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	err := hackpadfs.Remove(s.fs, key)
	if err != nil && !errors.Is(err, hackpadfs.ErrNotExist) {
		return pkgerrors.NewInternalError("failed to delete document content").WithCause(err)
	}
	return nil
}

func validKey(key string) error {
	if key == "" || strings.Contains(key, "/") || !gofs.ValidPath(key) {
		return pkgerrors.NewValidationError(fmt.Sprintf("invalid blob key %q", key))
	}
	return nil
}
