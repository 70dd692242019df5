package storage

// Package storage holds the blob store abstraction and its backends. Records
// never live here, only raw payload bytes keyed by server-generated names.

import (
	"context"
	"errors"
	"fmt"
	"io"
)

// ErrNotExist is returned by Open when no blob lives at the given location,
// for example because it was removed out-of-band after the record was
// written.
var ErrNotExist = errors.New("blob does not exist")

// WriteError wraps a failure while persisting a blob. Backends remove any
// partial output before returning it, so a WriteError never leaves an
// orphaned blob behind.
type WriteError struct {
	Name string
	Err  error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("write blob %s: %v", e.Name, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// PutOptions carries optional parameters for storing a blob. Size is the
// expected byte count if the caller knows it, or -1 for a stream of unknown
// length; either way the authoritative size is the one reported back in
// ObjectInfo.
type PutOptions struct {
	Size        int64
	ContentType string
	Metadata    map[string]string
}

// ObjectInfo describes a stored blob. Key is the backend's opaque locator for
// it and is what records persist as their storage location.
type ObjectInfo struct {
	Key         string
	Size        int64
	ContentType string
}

// BlobStore persists and serves raw blob payloads. Put consumes the reader as
// a stream; implementations must bound their memory use regardless of blob
// size. Open streams a blob back given the locator a previous Put returned.
type BlobStore interface {
	Put(ctx context.Context, name string, r io.Reader, opt PutOptions) (ObjectInfo, error)
	Open(ctx context.Context, location string) (io.ReadCloser, ObjectInfo, error)
	Delete(ctx context.Context, location string) error
}
