package resettoken

import (
	"encoding/base64"
	"testing"
	"time"

	customErrors "github.com/forja-app/auth-service/internal/auth/errors"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func TestEncryptDecrypt(t *testing.T) {
	codec, err := NewCodec(testKey)
	require.NoError(t, err)

	exp := time.Now().Add(time.Hour).Truncate(time.Second)
	token, err := codec.Encrypt("user@forja.test", exp)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	email, gotExp, err := codec.Decrypt(token)
	require.NoError(t, err)
	require.Equal(t, "user@forja.test", email)
	require.True(t, gotExp.Equal(exp))
}

func TestTokensAreUnique(t *testing.T) {
	codec, err := NewCodec(testKey)
	require.NoError(t, err)

	exp := time.Now().Add(time.Hour)
	a, err := codec.Encrypt("user@forja.test", exp)
	require.NoError(t, err)
	b, err := codec.Encrypt("user@forja.test", exp)
	require.NoError(t, err)

	// fresh nonce per token
	require.NotEqual(t, a, b)
}

func TestDecryptGarbage(t *testing.T) {
	codec, err := NewCodec(testKey)
	require.NoError(t, err)

	for _, token := range []string{"", "x", "not base64 ###", "YWJjZGVm"} {
		_, _, err := codec.Decrypt(token)
		require.ErrorIs(t, err, customErrors.ErrInvalidToken)
	}
}

func TestDecryptWithWrongKey(t *testing.T) {
	codec, err := NewCodec(testKey)
	require.NoError(t, err)
	other, err := NewCodec([]byte("fedcba9876543210fedcba9876543210"))
	require.NoError(t, err)

	token, err := codec.Encrypt("user@forja.test", time.Now().Add(time.Hour))
	require.NoError(t, err)

	_, _, err = other.Decrypt(token)
	require.ErrorIs(t, err, customErrors.ErrInvalidToken)
}

func TestDecryptTampered(t *testing.T) {
	codec, err := NewCodec(testKey)
	require.NoError(t, err)

	token, err := codec.Encrypt("user@forja.test", time.Now().Add(time.Hour))
	require.NoError(t, err)

	raw, err := base64.RawURLEncoding.DecodeString(token)
	require.NoError(t, err)
	raw[len(raw)-1] ^= 1
	_, _, err = codec.Decrypt(base64.RawURLEncoding.EncodeToString(raw))
	require.ErrorIs(t, err, customErrors.ErrInvalidToken)
}

func TestNewCodecBadKey(t *testing.T) {
	_, err := NewCodec([]byte("short"))
	require.Error(t, err)
}
