package storage

import (
	"bytes"
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
	"testing/iotest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) (*FSStore, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := NewFS(dir)
	require.NoError(t, err)
	return s, dir
}

func pattern(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i % 251)
	}
	return b
}

func TestFSStore_Put(t *testing.T) {
	tests := []struct {
		name string
		size int
	}{
		{name: "empty stream", size: 0},
		{name: "single byte", size: 1},
		{name: "exactly one chunk", size: chunkSize},
		{name: "several chunks plus tail", size: 3*chunkSize + 17},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _ := newTestStore(t)
			data := pattern(tt.size)

			info, err := s.Put(context.Background(), "blob.bin", bytes.NewReader(data), PutOptions{Size: int64(tt.size)})
			require.NoError(t, err)
			assert.Equal(t, "blob.bin", info.Key)
			assert.Equal(t, int64(tt.size), info.Size)

			rc, oi, err := s.Open(context.Background(), info.Key)
			require.NoError(t, err)
			defer rc.Close()
			assert.Equal(t, int64(tt.size), oi.Size)

			got, err := io.ReadAll(rc)
			require.NoError(t, err)
			assert.True(t, bytes.Equal(data, got))
		})
	}
}

func TestFSStore_PutFailingReaderRemovesPartial(t *testing.T) {
	s, dir := newTestStore(t)

	boom := errors.New("connection reset")
	r := io.MultiReader(bytes.NewReader(pattern(chunkSize+5)), iotest.ErrReader(boom))

	_, err := s.Put(context.Background(), "broken.bin", r, PutOptions{})
	require.Error(t, err)

	var werr *WriteError
	require.ErrorAs(t, err, &werr)
	assert.Equal(t, "broken.bin", werr.Name)
	assert.ErrorIs(t, err, boom)

	_, err = os.Stat(filepath.Join(dir, "broken.bin"))
	assert.True(t, os.IsNotExist(err), "partial file should have been removed")
}

func TestFSStore_PutContextCanceled(t *testing.T) {
	s, dir := newTestStore(t)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := s.Put(ctx, "canceled.bin", bytes.NewReader(pattern(10)), PutOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)

	_, err = os.Stat(filepath.Join(dir, "canceled.bin"))
	assert.True(t, os.IsNotExist(err))
}

func TestFSStore_PutDuplicateName(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.Put(context.Background(), "same.bin", bytes.NewReader([]byte("one")), PutOptions{})
	require.NoError(t, err)

	_, err = s.Put(context.Background(), "same.bin", bytes.NewReader([]byte("two")), PutOptions{})
	require.Error(t, err)

	// The original blob must be untouched.
	rc, _, err := s.Open(context.Background(), "same.bin")
	require.NoError(t, err)
	defer rc.Close()
	got, err := io.ReadAll(rc)
	require.NoError(t, err)
	assert.Equal(t, "one", string(got))
}

func TestFSStore_PutRejectsPathNames(t *testing.T) {
	s, _ := newTestStore(t)

	for _, name := range []string{"", "a/b.bin", "../escape.bin"} {
		_, err := s.Put(context.Background(), name, bytes.NewReader(nil), PutOptions{})
		assert.Error(t, err, "name %q", name)
	}
}

func TestFSStore_OpenMissing(t *testing.T) {
	s, _ := newTestStore(t)

	_, _, err := s.Open(context.Background(), "nope.bin")
	assert.ErrorIs(t, err, ErrNotExist)
}

func TestFSStore_DeleteIdempotent(t *testing.T) {
	s, _ := newTestStore(t)

	_, err := s.Put(context.Background(), "gone.bin", bytes.NewReader([]byte("x")), PutOptions{})
	require.NoError(t, err)

	require.NoError(t, s.Delete(context.Background(), "gone.bin"))
	require.NoError(t, s.Delete(context.Background(), "gone.bin"))

	_, _, err = s.Open(context.Background(), "gone.bin")
	assert.ErrorIs(t, err, ErrNotExist)
}
