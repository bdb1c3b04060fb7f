// Package resettoken encodes password-reset tokens as AES-GCM ciphertext of a
// small JSON payload. Reset tokens are deliberately not JWTs: the payload is
// opaque to clients but fully recoverable server-side with the key alone.
package resettoken

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"time"

	customErrors "github.com/forja-app/auth-service/internal/auth/errors"
)

type payload struct {
	Email string `json:"email"`
	Exp   int64  `json:"exp"`
}

type Codec struct {
	aead cipher.AEAD
}

// NewCodec builds a codec around a 16, 24 or 32 byte AES key.
func NewCodec(key []byte) (*Codec, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("resettoken: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("resettoken: %w", err)
	}
	return &Codec{aead: aead}, nil
}

// Encrypt seals {email, exp} under a fresh nonce. The nonce is prepended to
// the ciphertext and the whole token is URL-safe base64, ready to embed in a
// recovery link.
func (c *Codec) Encrypt(email string, exp time.Time) (string, error) {
	plaintext, err := json.Marshal(payload{Email: email, Exp: exp.Unix()})
	if err != nil {
		return "", customErrors.WrapInternal(err, "resettoken encode")
	}

	nonce := make([]byte, c.aead.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", customErrors.WrapInternal(err, "resettoken nonce")
	}

	sealed := c.aead.Seal(nonce, nonce, plaintext, nil)
	return base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a token and returns the embedded email and expiry. Any
// malformation (bad base64, truncated nonce, wrong key, corrupted payload)
// comes back as ErrInvalidToken; expiry is left to the caller so that all
// rejection paths collapse into one client-facing message.
func (c *Codec) Decrypt(token string) (string, time.Time, error) {
	sealed, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return "", time.Time{}, customErrors.ErrInvalidToken
	}
	if len(sealed) < c.aead.NonceSize() {
		return "", time.Time{}, customErrors.ErrInvalidToken
	}

	nonce, ciphertext := sealed[:c.aead.NonceSize()], sealed[c.aead.NonceSize():]
	plaintext, err := c.aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", time.Time{}, customErrors.ErrInvalidToken
	}

	var p payload
	if err := json.Unmarshal(plaintext, &p); err != nil {
		return "", time.Time{}, customErrors.ErrInvalidToken
	}

	return p.Email, time.Unix(p.Exp, 0), nil
}
