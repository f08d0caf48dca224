package application_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ericfisherdev/assetsync/internal/application"
)

func sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func TestSignatureVerifier_Verify(t *testing.T) {
	body := []byte(`{"ref":"refs/heads/main"}`)
	v := application.NewSignatureVerifier("s3cret")

	tests := []struct {
		name    string
		header  string
		body    []byte
		wantErr error
	}{
		{name: "valid signature", header: sign("s3cret", body), body: body},
		{name: "missing header", header: "", body: body, wantErr: application.ErrMissingSignature},
		{name: "missing prefix", header: sign("s3cret", body)[len("sha256="):], body: body, wantErr: application.ErrMalformedSignature},
		{name: "wrong scheme", header: "sha1=abcdef", body: body, wantErr: application.ErrMalformedSignature},
		{name: "non-hex digest", header: "sha256=zzzz", body: body, wantErr: application.ErrInvalidHex},
		{name: "different secret", header: sign("other", body), body: body, wantErr: application.ErrSignatureMismatch},
		{name: "tampered body", header: sign("s3cret", body), body: []byte(`{"ref":"refs/heads/dev"}`), wantErr: application.ErrSignatureMismatch},
		{name: "truncated digest", header: sign("s3cret", body)[:21], body: body, wantErr: application.ErrSignatureMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Verify(tt.body, tt.header)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
			assert.True(t, errors.Is(err, application.ErrUnauthorized), "every reason must collapse to unauthorized")
		})
	}
}

func TestSignatureVerifier_EmptySecretNeverAuthorizes(t *testing.T) {
	body := []byte(`{}`)
	v := application.NewSignatureVerifier("")

	err := v.Verify(body, sign("", body))

	assert.ErrorIs(t, err, application.ErrEmptySecret)
	assert.ErrorIs(t, err, application.ErrUnauthorized)
}

func TestSignatureVerifier_SignRoundTrip(t *testing.T) {
	v := application.NewSignatureVerifier("s3cret")
	body := []byte("payload")

	assert.Equal(t, sign("s3cret", body), v.Sign(body))
	assert.NoError(t, v.Verify(body, v.Sign(body)))
}

func TestBearerVerifier_Verify(t *testing.T) {
	v := application.NewBearerVerifier("tok-123")

	tests := []struct {
		name    string
		header  string
		wantErr error
	}{
		{name: "valid", header: "Bearer tok-123"},
		{name: "missing", header: "", wantErr: application.ErrMissingBearer},
		{name: "no scheme", header: "tok-123", wantErr: application.ErrMalformedBearer},
		{name: "basic scheme", header: "Basic dG9rLTEyMw==", wantErr: application.ErrMalformedBearer},
		{name: "empty token", header: "Bearer ", wantErr: application.ErrMalformedBearer},
		{name: "wrong token", header: "Bearer tok-124", wantErr: application.ErrBearerMismatch},
		{name: "prefix of token", header: "Bearer tok", wantErr: application.ErrBearerMismatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := v.Verify(tt.header)
			if tt.wantErr == nil {
				require.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, application.ErrUnauthorized)
		})
	}
}

func TestBearerVerifier_EmptyConfiguredToken(t *testing.T) {
	v := application.NewBearerVerifier("")

	assert.ErrorIs(t, v.Verify("Bearer anything"), application.ErrEmptySecret)
}
