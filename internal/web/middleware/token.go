package middleware

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/kozaktomas/snapx/internal/gallery"
)

// DefaultTokenTTL is the lifetime of tokens minted without an explicit TTL.
const DefaultTokenTTL = 24 * time.Hour

var (
	ErrMalformedToken = errors.New("malformed token")
	ErrBadSignature   = errors.New("invalid token signature")
	ErrTokenExpired   = errors.New("token expired")
)

// TokenVerifier checks bearer tokens of the form
// <principalID>.<unix expiry>.<signature>, where the signature is an
// HMAC-SHA256 over "<principalID>.<unix expiry>" keyed with a shared secret.
type TokenVerifier struct {
	secret []byte
	now    func() time.Time
}

// NewTokenVerifier creates a verifier for tokens signed with secret.
func NewTokenVerifier(secret string) *TokenVerifier {
	return &TokenVerifier{
		secret: []byte(secret),
		now:    time.Now,
	}
}

// Mint issues a token for principalID that expires after ttl.
func (v *TokenVerifier) Mint(principalID string, ttl time.Duration) (string, error) {
	if principalID == "" {
		return "", errors.New("principal id is required")
	}
	if ttl <= 0 {
		ttl = DefaultTokenTTL
	}
	payload := principalID + "." + strconv.FormatInt(v.now().Add(ttl).Unix(), 10)
	return payload + "." + v.signData(payload), nil
}

// Verify returns the principal a token was issued for.
func (v *TokenVerifier) Verify(token string) (gallery.Principal, error) {
	sigAt := strings.LastIndexByte(token, '.')
	if sigAt <= 0 {
		return gallery.Principal{}, ErrMalformedToken
	}
	payload, signature := token[:sigAt], token[sigAt+1:]

	expAt := strings.LastIndexByte(payload, '.')
	if expAt <= 0 {
		return gallery.Principal{}, ErrMalformedToken
	}
	principalID, expiry := payload[:expAt], payload[expAt+1:]

	if !v.verifySignature(payload, signature) {
		return gallery.Principal{}, ErrBadSignature
	}
	exp, err := strconv.ParseInt(expiry, 10, 64)
	if err != nil {
		return gallery.Principal{}, ErrMalformedToken
	}
	if !v.now().Before(time.Unix(exp, 0)) {
		return gallery.Principal{}, ErrTokenExpired
	}
	return gallery.Principal{ID: principalID}, nil
}

// signData creates an HMAC signature for data
func (v *TokenVerifier) signData(data string) string {
	h := hmac.New(sha256.New, v.secret)
	h.Write([]byte(data))
	return base64.RawURLEncoding.EncodeToString(h.Sum(nil))
}

// verifySignature verifies an HMAC signature
func (v *TokenVerifier) verifySignature(data, signature string) bool {
	expected := v.signData(data)
	return hmac.Equal([]byte(signature), []byte(expected))
}
