package storage

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/whikwon/nexusnote/pkg/errors"
)

func TestBlobStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store, err := NewMemoryBlobStore(nil)
	require.NoError(t, err)

	n, err := store.Put(ctx, "abc.pdf", strings.NewReader("%PDF-1.7"))
	require.NoError(t, err)
	assert.Equal(t, int64(8), n)

	data, err := store.Get(ctx, "abc.pdf")
	require.NoError(t, err)
	assert.Equal(t, "%PDF-1.7", string(data))

	require.NoError(t, store.Delete(ctx, "abc.pdf"))
	_, err = store.Get(ctx, "abc.pdf")
	assert.True(t, pkgerrors.IsNotFound(err))

	// Deleting twice is fine
	assert.NoError(t, store.Delete(ctx, "abc.pdf"))
}

func TestBlobStore_RejectsNestedKeys(t *testing.T) {
	store, err := NewMemoryBlobStore(nil)
	require.NoError(t, err)

	for _, key := range []string{"", "../escape.pdf", "a/b.pdf", "/abs.pdf"} {
		_, err := store.Put(context.Background(), key, strings.NewReader("x"))
		assert.True(t, pkgerrors.IsValidation(err), key)
	}
}

func TestDiskBlobStore(t *testing.T) {
	ctx := context.Background()
	store, err := NewDiskBlobStore(t.TempDir(), nil)
	require.NoError(t, err)

	_, err = store.Put(ctx, "doc.pdf", strings.NewReader("bytes"))
	require.NoError(t, err)

	data, err := store.Get(ctx, "doc.pdf")
	require.NoError(t, err)
	assert.Equal(t, "bytes", string(data))
}
