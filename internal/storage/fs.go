package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// chunkSize is the fixed buffer used by the copy loop. Peak memory per upload
// stays at one chunk no matter how large the incoming stream is.
const chunkSize = 1 << 20 // 1 MiB

// FSStore keeps blobs as plain files under a single root directory. Names are
// always server-generated, so concurrent Puts never target the same file.
type FSStore struct {
	root string
}

// NewFS returns a filesystem blob store rooted at dir, creating the directory
// if it does not exist yet.
func NewFS(dir string) (*FSStore, error) {
	if dir == "" {
		return nil, errors.New("storage root directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create storage root: %w", err)
	}
	return &FSStore{root: dir}, nil
}

var _ BlobStore = (*FSStore)(nil)

// Put streams r into a new file named name under the store root. The stream
// is copied in chunkSize pieces, and every chunk boundary observes ctx so an
// abandoned upload stops promptly. On any failure the partial file is removed
// and a *WriteError is returned; on success the exact number of bytes written
// is reported.
func (s *FSStore) Put(ctx context.Context, name string, r io.Reader, opt PutOptions) (ObjectInfo, error) {
	if name == "" || name != filepath.Base(name) {
		return ObjectInfo{}, &WriteError{Name: name, Err: errors.New("blob name must be a bare file name")}
	}

	path := filepath.Join(s.root, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return ObjectInfo{}, &WriteError{Name: name, Err: err}
	}

	// Close the handle and drop the partial file. Used on every failure exit.
	abort := func(cause error) (ObjectInfo, error) {
		f.Close()
		os.Remove(path)
		return ObjectInfo{}, &WriteError{Name: name, Err: cause}
	}

	buf := make([]byte, chunkSize)
	var written int64
	for {
		if err := ctx.Err(); err != nil {
			return abort(err)
		}
		nr, rerr := r.Read(buf)
		if nr > 0 {
			nw, werr := f.Write(buf[:nr])
			written += int64(nw)
			if werr != nil {
				return abort(werr)
			}
			if nw < nr {
				return abort(io.ErrShortWrite)
			}
		}
		if rerr == io.EOF {
			break
		}
		if rerr != nil {
			return abort(rerr)
		}
	}

	if err := f.Close(); err != nil {
		os.Remove(path)
		return ObjectInfo{}, &WriteError{Name: name, Err: err}
	}
	return ObjectInfo{Key: name, Size: written, ContentType: opt.ContentType}, nil
}

// Open returns a reader over the blob at location. The file is stat-ed first,
// so a blob deleted out-of-band surfaces as ErrNotExist rather than a broken
// stream.
func (s *FSStore) Open(ctx context.Context, location string) (io.ReadCloser, ObjectInfo, error) {
	path := filepath.Join(s.root, filepath.FromSlash(location))
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ObjectInfo{}, ErrNotExist
		}
		return nil, ObjectInfo{}, fmt.Errorf("open blob %s: %w", location, err)
	}
	st, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, ObjectInfo{}, fmt.Errorf("stat blob %s: %w", location, err)
	}
	return f, ObjectInfo{Key: location, Size: st.Size()}, nil
}

// Delete removes the blob at location. A blob that is already gone is not an
// error, which keeps rollback after a failed insert idempotent.
func (s *FSStore) Delete(ctx context.Context, location string) error {
	err := os.Remove(filepath.Join(s.root, filepath.FromSlash(location)))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("delete blob %s: %w", location, err)
	}
	return nil
}
