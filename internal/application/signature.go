package application

import (
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// ErrUnauthorized is the single caller-visible authorization failure. Every
// specific reason below wraps it, so errors.Is(err, ErrUnauthorized) holds
// for all of them while logs keep the precise reason.
var ErrUnauthorized = errors.New("unauthorized")

var (
	ErrMissingSignature   = fmt.Errorf("%w: missing signature header", ErrUnauthorized)
	ErrMalformedSignature = fmt.Errorf("%w: signature scheme prefix missing", ErrUnauthorized)
	ErrInvalidHex         = fmt.Errorf("%w: signature is not valid hex", ErrUnauthorized)
	ErrEmptySecret        = fmt.Errorf("%w: no secret configured", ErrUnauthorized)
	ErrSignatureMismatch  = fmt.Errorf("%w: signature mismatch", ErrUnauthorized)
	ErrMissingBearer      = fmt.Errorf("%w: missing authorization header", ErrUnauthorized)
	ErrMalformedBearer    = fmt.Errorf("%w: authorization is not a bearer token", ErrUnauthorized)
	ErrBearerMismatch     = fmt.Errorf("%w: bearer token mismatch", ErrUnauthorized)
)

const (
	// SignatureHeader carries the webhook HMAC.
	SignatureHeader = "X-Hub-Signature-256"
	signaturePrefix = "sha256="
	bearerPrefix    = "Bearer "
)

// SignatureVerifier authenticates webhook bodies with HMAC-SHA256.
type SignatureVerifier struct {
	secret []byte
}

// NewSignatureVerifier creates a verifier for the shared webhook secret.
func NewSignatureVerifier(secret string) *SignatureVerifier {
	return &SignatureVerifier{secret: []byte(secret)}
}

// Verify checks header ("sha256=<hex>") against the HMAC of the raw body.
// It returns nil when authorized, otherwise one of the Err* reasons above.
func (v *SignatureVerifier) Verify(body []byte, header string) error {
	if header == "" {
		return ErrMissingSignature
	}
	hexSig, ok := strings.CutPrefix(header, signaturePrefix)
	if !ok {
		return ErrMalformedSignature
	}
	got, err := hex.DecodeString(hexSig)
	if err != nil {
		return ErrInvalidHex
	}
	if len(v.secret) == 0 {
		return ErrEmptySecret
	}

	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)

	if !hmac.Equal(got, mac.Sum(nil)) {
		return ErrSignatureMismatch
	}
	return nil
}

// Sign returns the header value a sender would compute for body.
func (v *SignatureVerifier) Sign(body []byte) string {
	mac := hmac.New(sha256.New, v.secret)
	mac.Write(body)
	return signaturePrefix + hex.EncodeToString(mac.Sum(nil))
}

// BearerVerifier authenticates requests carrying "Authorization: Bearer <token>".
type BearerVerifier struct {
	token []byte
}

// NewBearerVerifier creates a verifier for the pre-shared token.
func NewBearerVerifier(token string) *BearerVerifier {
	return &BearerVerifier{token: []byte(token)}
}

// Verify checks the Authorization header value in constant time.
func (v *BearerVerifier) Verify(authorization string) error {
	if authorization == "" {
		return ErrMissingBearer
	}
	token, ok := strings.CutPrefix(authorization, bearerPrefix)
	if !ok || token == "" {
		return ErrMalformedBearer
	}
	if len(v.token) == 0 {
		return ErrEmptySecret
	}
	if subtle.ConstantTimeCompare([]byte(token), v.token) != 1 {
		return ErrBearerMismatch
	}
	return nil
}
