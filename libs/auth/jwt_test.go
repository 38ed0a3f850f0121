package auth

import (
	"crypto/rand"
	"crypto/rsa"
	"encoding/base64"
	"encoding/json"
	"math/big"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func TestHS256RoundTrip(t *testing.T) {
	secret := "test-secret"
	token, err := SignHS256("patient-1", "patient", secret, time.Hour)
	if err != nil {
		t.Fatalf("SignHS256 failed: %v", err)
	}

	claims, err := NewVerifier(secret, nil).Verify(token)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if claims.Subject != "patient-1" || claims.Role != "patient" {
		t.Fatalf("claims mismatch: got %+v", claims)
	}
	if _, err := NewVerifier("wrong-secret", nil).Verify(token); err == nil {
		t.Fatal("expected verification error with wrong secret")
	}
}

func TestVerifyRejectsExpiredAndUnbounded(t *testing.T) {
	secret := "test-secret"
	expired, err := SignHS256("patient-1", "patient", secret, -time.Hour)
	if err != nil {
		t.Fatalf("SignHS256 failed: %v", err)
	}
	if _, err := NewVerifier(secret, nil).Verify(expired); err == nil {
		t.Fatal("expected expired token to fail")
	}

	noExp, err := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Role:             "patient",
		RegisteredClaims: jwt.RegisteredClaims{Subject: "patient-1"},
	}).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := NewVerifier(secret, nil).Verify(noExp); err == nil {
		t.Fatal("expected token without exp to fail")
	}
}

func TestRS256ViaJWKS(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("rsa.GenerateKey failed: %v", err)
	}

	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_ = json.NewEncoder(w).Encode(jwks{Keys: []jwk{{
			Kty: "RSA",
			Kid: "kid-1",
			Alg: "RS256",
			N:   base64.RawURLEncoding.EncodeToString(key.N.Bytes()),
			E:   base64.RawURLEncoding.EncodeToString(big.NewInt(int64(key.E)).Bytes()),
		}}})
	}))
	defer srv.Close()

	tok := jwt.NewWithClaims(jwt.SigningMethodRS256, Claims{
		Role: "doctor",
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "doctor-7",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})
	tok.Header["kid"] = "kid-1"
	raw, err := tok.SignedString(key)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}

	v := NewVerifier("", NewJWKSClient(srv.URL, time.Minute))
	for i := 0; i < 2; i++ {
		claims, err := v.Verify(raw)
		if err != nil {
			t.Fatalf("Verify failed: %v", err)
		}
		if claims.Subject != "doctor-7" || claims.Role != "doctor" {
			t.Fatalf("claims mismatch: got %+v", claims)
		}
	}
	if hits.Load() != 1 {
		t.Fatalf("expected the key set to be cached, fetched %d times", hits.Load())
	}
}

func TestRequireAuthAndRole(t *testing.T) {
	secret := "test-secret"
	v := NewVerifier(secret, nil)

	var seen Actor
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = ActorFromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	})
	h := RequireAuth(v)(RequireRole(RoleDoctor)(inner))

	doctorToken, _ := SignHS256("doctor-1", "Doctor", secret, time.Hour)
	patientToken, _ := SignHS256("patient-1", "patient", secret, time.Hour)

	cases := []struct {
		name   string
		header string
		code   int
	}{
		{name: "missing header", header: "", code: http.StatusUnauthorized},
		{name: "bad token", header: "Bearer nope", code: http.StatusUnauthorized},
		{name: "wrong role", header: "Bearer " + patientToken, code: http.StatusForbidden},
		{name: "doctor", header: "Bearer " + doctorToken, code: http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "http://example.com", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rw := httptest.NewRecorder()
			h.ServeHTTP(rw, req)
			if rw.Code != tc.code {
				t.Fatalf("expected %d, got %d", tc.code, rw.Code)
			}
		})
	}
	if seen.ID != "doctor-1" || seen.Role != RoleDoctor {
		t.Fatalf("unexpected actor: %+v", seen)
	}
}

func TestJWKSUnknownKidDoesNotHammer(t *testing.T) {
	key, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		t.Fatalf("rsa.GenerateKey failed: %v", err)
	}
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		_ = json.NewEncoder(w).Encode(jwks{Keys: []jwk{
			{Kty: "RSA", Kid: "enc-1", Use: "enc", N: base64.RawURLEncoding.EncodeToString(key.N.Bytes()), E: "AQAB"},
			{Kty: "RSA", Kid: "sig-1", Use: "sig", N: base64.RawURLEncoding.EncodeToString(key.N.Bytes()), E: "AQAB"},
		}})
	}))
	defer srv.Close()

	c := NewJWKSClient(srv.URL, time.Hour)
	if _, err := c.PublicKey("sig-1"); err != nil {
		t.Fatalf("PublicKey(sig-1): %v", err)
	}
	for i := 0; i < 3; i++ {
		if _, err := c.PublicKey("enc-1"); err != ErrKeyNotFound {
			t.Fatalf("expected encryption key to be ignored, got %v", err)
		}
	}
	if hits.Load() != 1 {
		t.Fatalf("expected one fetch, got %d", hits.Load())
	}
}
