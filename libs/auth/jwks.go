package auth

import (
	"context"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/big"
	"net/http"
	"sync"
	"time"
)

var ErrKeyNotFound = errors.New("jwks key not found")

type jwk struct {
	Kty string `json:"kty"`
	Kid string `json:"kid"`
	Use string `json:"use"`
	Alg string `json:"alg"`
	N   string `json:"n"`
	E   string `json:"e"`
}

type jwks struct {
	Keys []jwk `json:"keys"`
}

// JWKSClient caches the RSA signing keys published at a JWKS URL. Keys are
// refetched after ttl, or early when a token names an unknown kid, but never
// more often than minRefresh. A failed or empty fetch keeps the last good set.
type JWKSClient struct {
	url        string
	ttl        time.Duration
	minRefresh time.Duration
	http       *http.Client

	mu          sync.Mutex
	fetchedAt   time.Time
	keys        map[string]*rsa.PublicKey
	lastAttempt time.Time
}

func NewJWKSClient(url string, ttl time.Duration) *JWKSClient {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &JWKSClient{
		url:        url,
		ttl:        ttl,
		minRefresh: min(30*time.Second, ttl),
		http:       &http.Client{Timeout: 3 * time.Second},
		keys:       map[string]*rsa.PublicKey{},
	}
}

func (c *JWKSClient) PublicKey(kid string) (*rsa.PublicKey, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	key, known := c.keys[kid]
	stale := now.Sub(c.fetchedAt) >= c.ttl
	if known && !stale {
		return key, nil
	}
	if now.Sub(c.lastAttempt) < c.minRefresh {
		if known {
			return key, nil
		}
		return nil, ErrKeyNotFound
	}

	c.lastAttempt = now
	if err := c.refresh(context.Background()); err != nil && !known {
		return nil, fmt.Errorf("jwks refresh: %w", err)
	}
	if key, ok := c.keys[kid]; ok {
		return key, nil
	}
	return nil, ErrKeyNotFound
}

func (c *JWKSClient) refresh(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("jwks endpoint returned %d", resp.StatusCode)
	}

	var data jwks
	if err := json.NewDecoder(io.LimitReader(resp.Body, 1<<20)).Decode(&data); err != nil {
		return err
	}

	keys := make(map[string]*rsa.PublicKey, len(data.Keys))
	for _, k := range data.Keys {
		if k.Kty != "RSA" || k.Kid == "" || (k.Use != "" && k.Use != "sig") {
			continue
		}
		if pub, err := jwkToPublicKey(k); err == nil {
			keys[k.Kid] = pub
		}
	}
	if len(keys) == 0 {
		return errors.New("jwks contains no usable RSA signing keys")
	}
	c.keys = keys
	c.fetchedAt = time.Now()
	return nil
}

func jwkToPublicKey(k jwk) (*rsa.PublicKey, error) {
	nBytes, err := base64.RawURLEncoding.DecodeString(k.N)
	if err != nil {
		return nil, err
	}
	eBytes, err := base64.RawURLEncoding.DecodeString(k.E)
	if err != nil {
		return nil, err
	}

	e := new(big.Int).SetBytes(eBytes)
	if !e.IsInt64() || e.Int64() > int64(^uint32(0)>>1) {
		return nil, errors.New("invalid jwk exponent")
	}
	return &rsa.PublicKey{
		N: new(big.Int).SetBytes(nBytes),
		E: int(e.Int64()),
	}, nil
}
