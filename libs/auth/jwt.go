package auth

import (
	"crypto/rsa"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var ErrInvalidToken = errors.New("invalid token")

// Claims carried by access tokens issued by the identity service. The subject is
// the patient or doctor id.
type Claims struct {
	Role string `json:"role"`
	jwt.RegisteredClaims
}

// KeySource resolves RS256 public keys by key id (see JWKSClient).
type KeySource interface {
	PublicKey(kid string) (*rsa.PublicKey, error)
}

// Verifier checks HS256 tokens against a shared secret and, when keys is set,
// RS256 tokens against the identity service's JWKS.
type Verifier struct {
	secret []byte
	keys   KeySource
	parser *jwt.Parser
}

func NewVerifier(secret string, keys KeySource) *Verifier {
	return &Verifier{
		secret: []byte(secret),
		keys:   keys,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg(), jwt.SigningMethodRS256.Alg()}),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(30*time.Second),
		),
	}
}

func (v *Verifier) Verify(raw string) (*Claims, error) {
	claims := &Claims{}
	tok, err := v.parser.ParseWithClaims(raw, claims, v.keyFunc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !tok.Valid || strings.TrimSpace(claims.Subject) == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

func (v *Verifier) keyFunc(t *jwt.Token) (any, error) {
	switch t.Method.(type) {
	case *jwt.SigningMethodHMAC:
		if len(v.secret) == 0 {
			return nil, errors.New("hs256 not configured")
		}
		return v.secret, nil
	case *jwt.SigningMethodRSA:
		if v.keys == nil {
			return nil, errors.New("rs256 not configured")
		}
		kid, _ := t.Header["kid"].(string)
		if kid == "" {
			return nil, errors.New("missing kid")
		}
		key, err := v.keys.PublicKey(kid)
		if err != nil {
			return nil, err
		}
		return key, nil
	default:
		return nil, fmt.Errorf("unexpected signing method %s", t.Method.Alg())
	}
}

// SignHS256 issues a token; used by tests and local tooling only.
func SignHS256(subject, role, secret string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
}
