package assets

import (
	"bytes"
	"context"
	"fmt"

	"github.com/LAMpbrien/adventures-of/internal/media/sniffer"
)

// PersistenceError wraps a failed fetch or store write for one page.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist illustration: %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

type BlobFetcher interface {
	Fetch(ctx context.Context, rawURL string) (Blob, error)
}

type BlobStore interface {
	Put(ctx context.Context, bucket, key string, data []byte, contentType string) (string, error)
}

// Persister copies generated illustrations into the illustrations bucket.
type Persister struct {
	fetcher BlobFetcher
	store   BlobStore
	bucket  string
}

func NewPersister(fetcher BlobFetcher, store BlobStore, bucket string) *Persister {
	return &Persister{fetcher: fetcher, store: store, bucket: bucket}
}

// Key is the object key of a page illustration.
func Key(bookID string, page int, ext string) string {
	return fmt.Sprintf("%s/page-%d.%s", bookID, page, ext)
}

// Prefix is the key prefix holding every illustration of a book.
func Prefix(bookID string) string {
	return bookID + "/"
}

// Persist downloads sourceURL and writes it to the page's key, replacing
// whatever was there. It returns the public URL of the stored copy.
func (p *Persister) Persist(ctx context.Context, sourceURL, bookID string, page int) (string, error) {
	blob, err := p.fetcher.Fetch(ctx, sourceURL)
	if err != nil {
		return "", &PersistenceError{Op: "fetch", Err: err}
	}

	kind, _, err := sniffer.Detect(bytes.NewReader(blob.Data))
	if err != nil {
		return "", &PersistenceError{Op: "detect", Err: err}
	}

	url, err := p.store.Put(ctx, p.bucket, Key(bookID, page, kind.Ext()), blob.Data, kind.MIME)
	if err != nil {
		return "", &PersistenceError{Op: "store", Err: err}
	}
	return url, nil
}
