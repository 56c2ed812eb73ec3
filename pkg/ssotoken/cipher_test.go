package ssotoken_test

import (
	"encoding/base64"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/ssokit/pkg/ssotoken"
)

func newToken(t *testing.T) ssotoken.Token {
	t.Helper()
	tok, err := ssotoken.Generate()
	require.NoError(t, err)
	return tok
}

func TestNewCipher(t *testing.T) {
	t.Run("defaults to AES", func(t *testing.T) {
		c, err := ssotoken.NewCipher("")
		require.NoError(t, err)
		assert.Equal(t, ssotoken.AlgorithmAES, c.Algorithm())
	})

	t.Run("case insensitive", func(t *testing.T) {
		c, err := ssotoken.NewCipher("secretbox")
		require.NoError(t, err)
		assert.Equal(t, ssotoken.AlgorithmSecretbox, c.Algorithm())
	})

	t.Run("rejects unknown algorithm", func(t *testing.T) {
		_, err := ssotoken.NewCipher("DES")
		assert.ErrorIs(t, err, ssotoken.ErrUnsupportedAlgorithm)
	})
}

func TestCipher(t *testing.T) {
	for _, algo := range []string{ssotoken.AlgorithmAES, ssotoken.AlgorithmSecretbox} {
		t.Run(algo, func(t *testing.T) {
			c, err := ssotoken.NewCipher(algo)
			require.NoError(t, err)

			t.Run("round trip", func(t *testing.T) {
				tok := newToken(t)
				payload := []byte(`{"client":"oidc","id":"alice"}`)

				ct, err := c.Encrypt(tok, "profiles", payload)
				require.NoError(t, err)

				_, err = base64.StdEncoding.DecodeString(ct)
				require.NoError(t, err, "ciphertext must be base64")
				assert.NotContains(t, ct, "alice")

				pt, err := c.Decrypt(tok, "profiles", ct)
				require.NoError(t, err)
				assert.Equal(t, payload, pt)
			})

			t.Run("multi block payload", func(t *testing.T) {
				tok := newToken(t)
				payload := make([]byte, 4096)
				for i := range payload {
					payload[i] = byte(i % 7)
				}

				ct, err := c.Encrypt(tok, "blob", payload)
				require.NoError(t, err)
				pt, err := c.Decrypt(tok, "blob", ct)
				require.NoError(t, err)
				assert.Equal(t, payload, pt)
			})

			t.Run("randomized ciphertext", func(t *testing.T) {
				tok := newToken(t)
				a, err := c.Encrypt(tok, "k", []byte("same"))
				require.NoError(t, err)
				b, err := c.Encrypt(tok, "k", []byte("same"))
				require.NoError(t, err)
				assert.NotEqual(t, a, b)
			})

			t.Run("wrong key fails", func(t *testing.T) {
				ct, err := c.Encrypt(newToken(t), "k", []byte("secret"))
				require.NoError(t, err)

				_, err = c.Decrypt(newToken(t), "k", ct)
				assert.ErrorIs(t, err, ssotoken.ErrDecrypt)
			})

			t.Run("other attribute fails", func(t *testing.T) {
				tok := newToken(t)
				ct, err := c.Encrypt(tok, "a", []byte("secret"))
				require.NoError(t, err)

				_, err = c.Decrypt(tok, "b", ct)
				assert.ErrorIs(t, err, ssotoken.ErrDecrypt)
			})

			t.Run("tampered ciphertext fails", func(t *testing.T) {
				tok := newToken(t)
				ct, err := c.Encrypt(tok, "k", []byte("secret"))
				require.NoError(t, err)

				raw, _ := base64.StdEncoding.DecodeString(ct)
				raw[len(raw)-1] ^= 0xff
				_, err = c.Decrypt(tok, "k", base64.StdEncoding.EncodeToString(raw))
				assert.ErrorIs(t, err, ssotoken.ErrDecrypt)
			})

			t.Run("garbage fails", func(t *testing.T) {
				tok := newToken(t)
				_, err := c.Decrypt(tok, "k", "%%%not-base64")
				assert.ErrorIs(t, err, ssotoken.ErrDecrypt)

				_, err = c.Decrypt(tok, "k", base64.StdEncoding.EncodeToString([]byte("short")))
				assert.ErrorIs(t, err, ssotoken.ErrDecrypt)
			})
		})
	}

	t.Run("algorithms are not interchangeable", func(t *testing.T) {
		aes, err := ssotoken.NewCipher(ssotoken.AlgorithmAES)
		require.NoError(t, err)
		box, err := ssotoken.NewCipher(ssotoken.AlgorithmSecretbox)
		require.NoError(t, err)

		tok := newToken(t)
		ct, err := aes.Encrypt(tok, "k", []byte("payload"))
		require.NoError(t, err)
		_, err = box.Decrypt(tok, "k", ct)
		assert.ErrorIs(t, err, ssotoken.ErrDecrypt)
	})
}
