package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/vincent-petithory/dataurl"

	"github.com/LAMpbrien/adventures-of/internal/media/sniffer"
)

var (
	ErrTooLarge       = errors.New("remote object exceeds size limit")
	ErrUnsafeURL      = errors.New("url is not allowed")
	ErrUnexpectedHTTP = errors.New("unexpected http status")
)

type Blob struct {
	Data        []byte
	ContentType string
}

type FetchConfig struct {
	Timeout  time.Duration
	MaxBytes int64
	// TrustedHosts skip the private network check. Our own object store
	// usually lives on a private address.
	TrustedHosts []string
}

// Fetcher downloads images over http(s) and decodes data: URLs.
type Fetcher struct {
	client   *http.Client
	dialer   *net.Dialer
	maxBytes int64
	trusted  map[string]struct{}
	lookupIP func(host string) ([]net.IP, error)
}

func NewFetcher(cfg FetchConfig) *Fetcher {
	trusted := make(map[string]struct{}, len(cfg.TrustedHosts))
	for _, h := range cfg.TrustedHosts {
		if h = strings.ToLower(strings.TrimSpace(h)); h != "" {
			trusted[h] = struct{}{}
		}
	}
	f := &Fetcher{
		dialer:   &net.Dialer{Timeout: 10 * time.Second, KeepAlive: 30 * time.Second},
		maxBytes: cfg.MaxBytes,
		trusted:  trusted,
		lookupIP: net.LookupIP,
	}
	f.client = &http.Client{
		Timeout: cfg.Timeout,
		Transport: &http.Transport{
			DialContext:         f.dialContext,
			ForceAttemptHTTP2:   true,
			MaxIdleConns:        20,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
		CheckRedirect: f.checkRedirect,
	}
	return f
}

// dialContext resolves the host itself and connects only to addresses that
// passed the network check, so a second lookup by the transport cannot
// return a different answer.
func (f *Fetcher) dialContext(ctx context.Context, network, addr string) (net.Conn, error) {
	host, port, err := net.SplitHostPort(addr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsafeURL, err)
	}
	if f.isTrusted(host, addr) {
		return f.dialer.DialContext(ctx, network, addr)
	}

	ips, err := f.resolve(host)
	if err != nil {
		return nil, err
	}
	var lastErr error
	for _, ip := range ips {
		conn, err := f.dialer.DialContext(ctx, network, net.JoinHostPort(ip.String(), port))
		if err == nil {
			return conn, nil
		}
		lastErr = err
	}
	return nil, lastErr
}

const maxRedirects = 5

// checkRedirect applies the same host rules to every hop.
func (f *Fetcher) checkRedirect(req *http.Request, via []*http.Request) error {
	if len(via) >= maxRedirects {
		return fmt.Errorf("%w: too many redirects", ErrUnsafeURL)
	}
	_, err := f.checkURL(req.URL.String())
	return err
}

func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (Blob, error) {
	if strings.HasPrefix(rawURL, "data:") {
		return f.decodeDataURL(rawURL)
	}

	u, err := f.checkURL(rawURL)
	if err != nil {
		return Blob{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return Blob{}, fmt.Errorf("build request: %w", err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return Blob{}, fmt.Errorf("get %s: %w", u.Redacted(), err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Blob{}, fmt.Errorf("%w: %d from %s", ErrUnexpectedHTTP, resp.StatusCode, u.Redacted())
	}
	if f.maxBytes > 0 && resp.ContentLength > f.maxBytes {
		return Blob{}, ErrTooLarge
	}

	body := io.Reader(resp.Body)
	if f.maxBytes > 0 {
		body = io.LimitReader(resp.Body, f.maxBytes+1)
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return Blob{}, fmt.Errorf("read body: %w", err)
	}
	if f.maxBytes > 0 && int64(len(data)) > f.maxBytes {
		return Blob{}, ErrTooLarge
	}

	return Blob{Data: data, ContentType: sniffer.MimeTypeFromHTTP(resp.Header)}, nil
}

func (f *Fetcher) decodeDataURL(raw string) (Blob, error) {
	d, err := dataurl.DecodeString(raw)
	if err != nil {
		return Blob{}, fmt.Errorf("decode data url: %w", err)
	}
	if f.maxBytes > 0 && int64(len(d.Data)) > f.maxBytes {
		return Blob{}, ErrTooLarge
	}
	return Blob{Data: d.Data, ContentType: d.ContentType()}, nil
}

// checkURL rejects non-http schemes and hosts that resolve to private,
// loopback or link-local addresses unless the host is trusted. The dialer
// repeats the address check on connect.
func (f *Fetcher) checkURL(raw string) (*url.URL, error) {
	u, err := url.ParseRequestURI(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnsafeURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("%w: scheme %q", ErrUnsafeURL, u.Scheme)
	}
	if f.isTrusted(u.Hostname(), u.Host) {
		return u, nil
	}
	if _, err := f.resolve(u.Hostname()); err != nil {
		return nil, err
	}
	return u, nil
}

func (f *Fetcher) isTrusted(host, hostPort string) bool {
	if _, ok := f.trusted[strings.ToLower(host)]; ok {
		return true
	}
	_, ok := f.trusted[strings.ToLower(hostPort)]
	return ok
}

// resolve returns the addresses of host, failing if any of them is not
// publicly routable.
func (f *Fetcher) resolve(host string) ([]net.IP, error) {
	host = strings.ToLower(host)
	ips := []net.IP{net.ParseIP(host)}
	if ips[0] == nil {
		var err error
		ips, err = f.lookupIP(host)
		if err != nil {
			return nil, fmt.Errorf("%w: resolve %s: %v", ErrUnsafeURL, host, err)
		}
	}
	if len(ips) == 0 {
		return nil, fmt.Errorf("%w: %s has no addresses", ErrUnsafeURL, host)
	}
	for _, ip := range ips {
		if ip.IsPrivate() || ip.IsLoopback() || ip.IsLinkLocalUnicast() || ip.IsLinkLocalMulticast() || ip.IsUnspecified() {
			return nil, fmt.Errorf("%w: %s resolves to %s", ErrUnsafeURL, host, ip)
		}
	}
	return ips, nil
}
