package cookie

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"slices"
	"time"
)

const minSecretLength = 32

// Manager writes and reads cookies with shared default attributes. Values
// written with SetEncrypted are sealed with AES-256-GCM under the first secret
// and can be opened with any configured secret, so secrets can be rotated by
// prepending a new one.
type Manager struct {
	secrets  []string
	defaults Options
}

// New creates a Manager. At least one secret of 32 or more characters is required.
func New(secrets []string, opts ...Option) (*Manager, error) {
	secrets = slices.DeleteFunc(slices.Clone(secrets), func(s string) bool { return s == "" })
	if len(secrets) == 0 {
		return nil, ErrNoSecret
	}

	for i, s := range secrets {
		if len(s) < minSecretLength {
			return nil, fmt.Errorf("%w: secret %d has %d chars, need at least %d", ErrSecretTooShort, i, len(s), minSecretLength)
		}
	}

	return &Manager{
		secrets:  secrets,
		defaults: applyOptions(DefaultOptions(), opts),
	}, nil
}

// Make builds a cookie from DefaultOptions overridden by opts.
func Make(name, value string, opts ...Option) *http.Cookie {
	return build(name, value, applyOptions(DefaultOptions(), opts))
}

// Expire builds a cookie that instructs the browser to drop name.
func Expire(name string, opts ...Option) *http.Cookie {
	c := build(name, "", applyOptions(DefaultOptions(), opts))
	c.MaxAge = -1
	c.Expires = time.Unix(0, 0)
	return c
}

func build(name, value string, o Options) *http.Cookie {
	return &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     o.Path,
		Domain:   o.Domain,
		MaxAge:   o.MaxAge,
		Secure:   o.Secure,
		HttpOnly: o.HttpOnly,
		SameSite: o.SameSite,
	}
}

func (m *Manager) Set(w http.ResponseWriter, name, value string, opts ...Option) {
	http.SetCookie(w, build(name, value, applyOptions(m.defaults, opts)))
}

func (m *Manager) Get(r *http.Request, name string) (string, error) {
	c, err := r.Cookie(name)
	if err != nil {
		if errors.Is(err, http.ErrNoCookie) {
			return "", ErrCookieNotFound
		}
		return "", err
	}
	return c.Value, nil
}

// Delete expires the cookie. opts must repeat any Path or Domain it was set with.
func (m *Manager) Delete(w http.ResponseWriter, name string, opts ...Option) {
	c := build(name, "", applyOptions(m.defaults, opts))
	c.MaxAge = -1
	c.Expires = time.Unix(0, 0)
	http.SetCookie(w, c)
}

func (m *Manager) SetEncrypted(w http.ResponseWriter, name, value string, opts ...Option) error {
	sealed, err := m.encrypt(value)
	if err != nil {
		return errors.Join(ErrEncryptionFailed, err)
	}
	m.Set(w, name, sealed, opts...)
	return nil
}

func (m *Manager) GetEncrypted(r *http.Request, name string) (string, error) {
	sealed, err := m.Get(r, name)
	if err != nil {
		return "", err
	}
	return m.decrypt(sealed)
}

func newGCM(secret string) (cipher.AEAD, error) {
	block, err := aes.NewCipher([]byte(secret[:32]))
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func (m *Manager) encrypt(value string) (string, error) {
	gcm, err := newGCM(m.secrets[0])
	if err != nil {
		return "", err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	return base64.RawURLEncoding.EncodeToString(gcm.Seal(nonce, nonce, []byte(value), nil)), nil
}

func (m *Manager) decrypt(sealed string) (string, error) {
	raw, err := base64.RawURLEncoding.DecodeString(sealed)
	if err != nil {
		return "", ErrInvalidFormat
	}

	for _, secret := range m.secrets {
		gcm, err := newGCM(secret)
		if err != nil {
			continue
		}
		if len(raw) < gcm.NonceSize() {
			return "", ErrInvalidFormat
		}
		nonce, ct := raw[:gcm.NonceSize()], raw[gcm.NonceSize():]
		if plain, err := gcm.Open(nil, nonce, ct, nil); err == nil {
			return string(plain), nil
		}
	}

	return "", ErrDecryptionFailed
}
