package ssotoken

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"io"
	"strings"

	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/nacl/secretbox"
)

// Supported algorithm names.
const (
	AlgorithmAES       = "AES"
	AlgorithmSecretbox = "SECRETBOX"
)

const (
	secretboxKeySize   = 32
	secretboxNonceSize = 24
	secretboxInfo      = "ssotoken/secretbox/"
)

// Cipher encrypts attribute payloads with a token's session key.
// It holds no key material and is safe for concurrent use.
type Cipher struct {
	algorithm string
}

// NewCipher returns a cipher for the named algorithm. Names are case-insensitive;
// an empty name selects AES.
func NewCipher(algorithm string) (*Cipher, error) {
	name := strings.ToUpper(strings.TrimSpace(algorithm))
	if name == "" {
		name = AlgorithmAES
	}
	switch name {
	case AlgorithmAES, AlgorithmSecretbox:
		return &Cipher{algorithm: name}, nil
	default:
		return nil, errors.Join(ErrUnsupportedAlgorithm, errors.New(algorithm))
	}
}

// Algorithm returns the normalized algorithm name.
func (c *Cipher) Algorithm() string { return c.algorithm }

// Encrypt seals payload for the given attribute and returns base64 ciphertext.
func (c *Cipher) Encrypt(t Token, field string, payload []byte) (string, error) {
	var (
		sealed []byte
		err    error
	)
	switch c.algorithm {
	case AlgorithmSecretbox:
		sealed, err = sealSecretbox(t, field, payload)
	default:
		sealed, err = sealGCM(t, field, payload)
	}
	if err != nil {
		return "", errors.Join(ErrEncrypt, err)
	}
	return base64.StdEncoding.EncodeToString(sealed), nil
}

// Decrypt opens a ciphertext produced by Encrypt for the same token and attribute.
// Any mismatch (wrong key, other session, other attribute, tampering) returns ErrDecrypt.
func (c *Cipher) Decrypt(t Token, field string, ciphertext string) ([]byte, error) {
	raw, err := base64.StdEncoding.DecodeString(ciphertext)
	if err != nil {
		return nil, errors.Join(ErrDecrypt, err)
	}

	var plain []byte
	switch c.algorithm {
	case AlgorithmSecretbox:
		plain, err = openSecretbox(t, field, raw)
	default:
		plain, err = openGCM(t, field, raw)
	}
	if err != nil {
		return nil, errors.Join(ErrDecrypt, err)
	}
	return plain, nil
}

// associatedData binds a ciphertext to one session and one attribute.
func associatedData(t Token, field string) []byte {
	ad := make([]byte, 0, len(t.id)+len(field))
	ad = append(ad, t.id[:]...)
	return append(ad, field...)
}

func newGCM(t Token) (cipher.AEAD, error) {
	block, err := aes.NewCipher(t.keyBytes())
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}

func sealGCM(t Token, field string, payload []byte) ([]byte, error) {
	gcm, err := newGCM(t)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}

	// Nonce is prepended so the ciphertext is self-contained.
	return gcm.Seal(nonce, nonce, payload, associatedData(t, field)), nil
}

func openGCM(t Token, field string, raw []byte) ([]byte, error) {
	gcm, err := newGCM(t)
	if err != nil {
		return nil, err
	}

	nonceSize := gcm.NonceSize()
	if len(raw) < nonceSize+gcm.Overhead() {
		return nil, errors.New("ciphertext too short")
	}
	nonce, sealed := raw[:nonceSize], raw[nonceSize:]
	return gcm.Open(nil, nonce, sealed, associatedData(t, field))
}

// secretboxKey expands the 16-byte session key to a 32-byte secretbox key.
// The session id is the salt and the attribute name is part of the info string.
func secretboxKey(t Token, field string) (*[secretboxKeySize]byte, error) {
	r := hkdf.New(sha256.New, t.keyBytes(), t.id[:], []byte(secretboxInfo+field))
	var key [secretboxKeySize]byte
	if _, err := io.ReadFull(r, key[:]); err != nil {
		return nil, err
	}
	return &key, nil
}

func sealSecretbox(t Token, field string, payload []byte) ([]byte, error) {
	key, err := secretboxKey(t, field)
	if err != nil {
		return nil, err
	}

	var nonce [secretboxNonceSize]byte
	if _, err := io.ReadFull(rand.Reader, nonce[:]); err != nil {
		return nil, err
	}
	return secretbox.Seal(nonce[:], payload, &nonce, key), nil
}

func openSecretbox(t Token, field string, raw []byte) ([]byte, error) {
	if len(raw) < secretboxNonceSize+secretbox.Overhead {
		return nil, errors.New("ciphertext too short")
	}
	key, err := secretboxKey(t, field)
	if err != nil {
		return nil, err
	}

	var nonce [secretboxNonceSize]byte
	copy(nonce[:], raw[:secretboxNonceSize])
	plain, ok := secretbox.Open(nil, raw[secretboxNonceSize:], &nonce, key)
	if !ok {
		return nil, errors.New("secretbox open failed")
	}
	return plain, nil
}
