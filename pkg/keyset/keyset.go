// Package keyset caches a remote identity provider's public signing keys.
package keyset

import (
	"context"
	"crypto/rsa"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	// DefaultTTL is how long a fetched key set is considered fresh.
	DefaultTTL = 5 * time.Minute
	// DefaultMinRefresh bounds how often an unknown key id can force a
	// re-fetch, so a flood of bad tokens cannot hammer the provider.
	DefaultMinRefresh = 30 * time.Second
	// DefaultFetchTimeout bounds a single key-set fetch.
	DefaultFetchTimeout = 5 * time.Second
)

var (
	// ErrKeyNotFound indicates a fresh key set was consulted and does not
	// contain the requested key id. The token cannot be verified, ever,
	// until the provider publishes the key.
	ErrKeyNotFound = errors.New("no matching key in remote key set")
	// ErrUnavailable indicates the key set could not be fetched or parsed.
	// The token cannot be verified right now; it is not known to be
	// invalid.
	ErrUnavailable = errors.New("remote key set unavailable")
)

// Cache lazily fetches a provider's JWKS and serves keys by key id. The
// cache is refreshed wholesale: on first use, when the TTL lapses, and when
// an unknown key id is requested (subject to the minimum refresh interval).
// Concurrent misses collapse into a single in-flight fetch.
type Cache struct {
	url        string
	client     *http.Client
	ttl        time.Duration
	minRefresh time.Duration

	mu        sync.Mutex
	keys      map[string]*rsa.PublicKey
	fetchedAt time.Time
	inflight  chan struct{}
	lastErr   error
}

// Option configures a Cache.
type Option func(*Cache)

// WithTTL overrides the freshness window.
func WithTTL(ttl time.Duration) Option {
	return func(c *Cache) { c.ttl = ttl }
}

// WithMinRefresh overrides the minimum interval between miss-triggered
// fetches.
func WithMinRefresh(d time.Duration) Option {
	return func(c *Cache) { c.minRefresh = d }
}

// WithHTTPClient overrides the HTTP client used for fetches.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Cache) { c.client = client }
}

// New creates a Cache for the given JWKS URL.
func New(jwksURL string, opts ...Option) *Cache {
	c := &Cache{
		url:        jwksURL,
		client:     &http.Client{Timeout: DefaultFetchTimeout},
		ttl:        DefaultTTL,
		minRefresh: DefaultMinRefresh,
		keys:       make(map[string]*rsa.PublicKey),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ForDomain creates a Cache for a provider domain's well-known JWKS
// endpoint.
func ForDomain(domain string, opts ...Option) *Cache {
	return New("https://"+domain+"/.well-known/jwks.json", opts...)
}

// ResolveKey returns the public key for the given key id, fetching or
// refreshing the key set as needed. It returns ErrKeyNotFound when a fresh
// key set does not contain the id, and ErrUnavailable when the key set
// cannot be fetched and no cached key matches. A cached key outlives its
// TTL while the provider is unreachable.
func (c *Cache) ResolveKey(ctx context.Context, kid string) (*rsa.PublicKey, error) {
	c.mu.Lock()
	if key, ok := c.keys[kid]; ok && time.Since(c.fetchedAt) < c.ttl {
		c.mu.Unlock()
		return key, nil
	}
	refreshable := time.Since(c.fetchedAt) >= c.minRefresh
	c.mu.Unlock()

	if !refreshable {
		// The key set was fetched very recently and the id is still
		// unknown; re-fetching would not help.
		c.mu.Lock()
		defer c.mu.Unlock()
		if key, ok := c.keys[kid]; ok {
			return key, nil
		}
		return nil, ErrKeyNotFound
	}

	if err := c.refresh(ctx); err != nil {
		// A provider outage must not invalidate tokens signed with a key
		// we already hold; serve the stale key and let the TTL retry later.
		c.mu.Lock()
		defer c.mu.Unlock()
		if key, ok := c.keys[kid]; ok {
			return key, nil
		}
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if key, ok := c.keys[kid]; ok {
		return key, nil
	}
	return nil, ErrKeyNotFound
}

// refresh fetches and replaces the key set. If a fetch is already in
// flight, refresh waits for it instead of starting another.
func (c *Cache) refresh(ctx context.Context) error {
	c.mu.Lock()
	if c.inflight != nil {
		done := c.inflight
		c.mu.Unlock()
		select {
		case <-done:
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
		}
		c.mu.Lock()
		err := c.lastErr
		c.mu.Unlock()
		return err
	}
	done := make(chan struct{})
	c.inflight = done
	c.mu.Unlock()

	keys, err := c.fetch(ctx)

	c.mu.Lock()
	if err == nil {
		c.keys = keys
		c.fetchedAt = time.Now()
	}
	c.lastErr = err
	c.inflight = nil
	c.mu.Unlock()
	close(done)

	return err
}

// fetch performs the network round trip. No lock is held while the request
// is in flight.
func (c *Cache) fetch(ctx context.Context) (map[string]*rsa.PublicKey, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: key set endpoint returned %s", ErrUnavailable, resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	keys, err := parseJWKS(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return keys, nil
}

// parseJWKS parses a JWKS document into a kid-indexed key map. Keys that
// are not RSA or fail to parse are skipped.
func parseJWKS(body []byte) (map[string]*rsa.PublicKey, error) {
	var jwks struct {
		Keys []json.RawMessage `json:"keys"`
	}
	if err := json.Unmarshal(body, &jwks); err != nil {
		return nil, fmt.Errorf("failed to parse key set: %w", err)
	}

	keys := make(map[string]*rsa.PublicKey)
	for _, keyData := range jwks.Keys {
		var keyInfo struct {
			Kid string `json:"kid"`
			Kty string `json:"kty"`
			N   string `json:"n"`
			E   string `json:"e"`
		}
		if err := json.Unmarshal(keyData, &keyInfo); err != nil {
			continue
		}
		if keyInfo.Kty != "RSA" {
			continue
		}

		pubKey, err := parseRSAPublicKey(keyInfo.N, keyInfo.E)
		if err != nil {
			continue
		}
		keys[keyInfo.Kid] = pubKey
	}
	return keys, nil
}

// parseRSAPublicKey builds an RSA public key from JWK modulus and exponent
// components.
func parseRSAPublicKey(nBase64, eBase64 string) (*rsa.PublicKey, error) {
	nBytes, err := jwt.NewParser().DecodeSegment(nBase64)
	if err != nil {
		return nil, err
	}

	eBytes, err := jwt.NewParser().DecodeSegment(eBase64)
	if err != nil {
		return nil, err
	}

	var e int
	for _, b := range eBytes {
		e = e<<8 + int(b)
	}

	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: e,
	}, nil
}
