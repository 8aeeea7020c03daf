package assets

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"net"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = append([]byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}, bytes.Repeat([]byte{7}, 64)...)

func trustedFetcher(t *testing.T, srv *httptest.Server, maxBytes int64) *Fetcher {
	t.Helper()
	u, err := url.Parse(srv.URL)
	require.NoError(t, err)
	return NewFetcher(FetchConfig{Timeout: 5 * time.Second, MaxBytes: maxBytes, TrustedHosts: []string{u.Hostname()}})
}

func TestFetch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.png":
			w.Header().Set("Content-Type", "image/png; charset=binary")
			_, _ = w.Write(pngBytes)
		case "/big.png":
			_, _ = w.Write(bytes.Repeat([]byte{1}, 2048))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	f := trustedFetcher(t, srv, 1024)

	blob, err := f.Fetch(context.Background(), srv.URL+"/ok.png")
	require.NoError(t, err)
	assert.Equal(t, pngBytes, blob.Data)
	assert.Equal(t, "image/png", blob.ContentType)

	_, err = f.Fetch(context.Background(), srv.URL+"/big.png")
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = f.Fetch(context.Background(), srv.URL+"/missing.png")
	assert.ErrorIs(t, err, ErrUnexpectedHTTP)
}

func TestFetchRejectsUnsafeURLs(t *testing.T) {
	f := NewFetcher(FetchConfig{Timeout: time.Second})
	f.lookupIP = func(host string) ([]net.IP, error) {
		if host == "internal.example" {
			return []net.IP{net.ParseIP("10.0.0.5")}, nil
		}
		return []net.IP{net.ParseIP("93.184.216.34")}, nil
	}

	for _, raw := range []string{
		"ftp://example.com/a.png",
		"http://127.0.0.1:9000/a.png",
		"http://169.254.169.254/latest/meta-data",
		"https://internal.example/a.png",
		"not a url",
	} {
		_, err := f.Fetch(context.Background(), raw)
		assert.ErrorIs(t, err, ErrUnsafeURL, raw)
	}

	_, err := f.checkURL("https://cdn.example/a.png")
	assert.NoError(t, err)
}

func TestFetchRejectsRedirectToPrivateHost(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "http://10.0.0.5/secret.png", http.StatusFound)
	}))
	defer srv.Close()

	_, err := trustedFetcher(t, srv, 0).Fetch(context.Background(), srv.URL+"/a.png")
	assert.ErrorIs(t, err, ErrUnsafeURL)
}

func TestFetchChecksAddressAtDialTime(t *testing.T) {
	f := NewFetcher(FetchConfig{Timeout: time.Second})
	lookups := 0
	f.lookupIP = func(string) ([]net.IP, error) {
		lookups++
		if lookups == 1 {
			return []net.IP{net.ParseIP("93.184.216.34")}, nil
		}
		return []net.IP{net.ParseIP("127.0.0.1")}, nil
	}

	_, err := f.Fetch(context.Background(), "http://rebind.example/a.png")
	assert.ErrorIs(t, err, ErrUnsafeURL)
	assert.Equal(t, 2, lookups)
}

func TestFetchDataURL(t *testing.T) {
	f := NewFetcher(FetchConfig{MaxBytes: 1024})
	raw := "data:image/png;base64," + base64.StdEncoding.EncodeToString(pngBytes)

	blob, err := f.Fetch(context.Background(), raw)
	require.NoError(t, err)
	assert.Equal(t, pngBytes, blob.Data)
	assert.Equal(t, "image/png", blob.ContentType)

	small := NewFetcher(FetchConfig{MaxBytes: 8})
	_, err = small.Fetch(context.Background(), raw)
	assert.ErrorIs(t, err, ErrTooLarge)
}

type fakeFetcher struct {
	blob Blob
	err  error
}

func (f fakeFetcher) Fetch(context.Context, string) (Blob, error) { return f.blob, f.err }

type putCall struct {
	bucket, key, contentType string
	data                     []byte
}

type fakeStore struct {
	calls []putCall
	err   error
}

func (s *fakeStore) Put(_ context.Context, bucket, key string, data []byte, contentType string) (string, error) {
	s.calls = append(s.calls, putCall{bucket, key, contentType, data})
	if s.err != nil {
		return "", s.err
	}
	return "https://cdn.example/" + bucket + "/" + key, nil
}

func TestPersist(t *testing.T) {
	store := &fakeStore{}
	p := NewPersister(fakeFetcher{blob: Blob{Data: pngBytes}}, store, "illustrations")

	got, err := p.Persist(context.Background(), "https://renders.example/x", "book-1", 3)
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/illustrations/book-1/page-3.png", got)

	_, err = p.Persist(context.Background(), "https://renders.example/y", "book-1", 3)
	require.NoError(t, err)
	require.Len(t, store.calls, 2)
	assert.Equal(t, store.calls[0].key, store.calls[1].key)
	assert.Equal(t, "image/png", store.calls[0].contentType)
	assert.Equal(t, "book-1/", Prefix("book-1"))
}

func TestPersistErrors(t *testing.T) {
	boom := errors.New("boom")

	tests := []struct {
		name    string
		fetcher fakeFetcher
		store   *fakeStore
		op      string
	}{
		{"fetch", fakeFetcher{err: boom}, &fakeStore{}, "fetch"},
		{"not an image", fakeFetcher{blob: Blob{Data: []byte("<html>")}}, &fakeStore{}, "detect"},
		{"store", fakeFetcher{blob: Blob{Data: pngBytes}}, &fakeStore{err: boom}, "store"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewPersister(tt.fetcher, tt.store, "illustrations").Persist(context.Background(), "https://x", "b", 1)
			var perr *PersistenceError
			require.True(t, errors.As(err, &perr))
			assert.Equal(t, tt.op, perr.Op)
		})
	}
}
