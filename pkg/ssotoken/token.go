package ssotoken

import (
	"crypto/rand"
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const (
	pairSeparator = "/"
	halfSeparator = "-"
)

// Token is the (session id, session key) pair identifying and unlocking one session.
type Token struct {
	id  uuid.UUID
	key uuid.UUID
}

// Generate creates a token whose halves are drawn independently from crypto/rand.
// All 128 bits of both halves are random; no version bits are set.
func Generate() (Token, error) {
	var t Token
	if _, err := rand.Read(t.id[:]); err != nil {
		return Token{}, errors.Join(ErrGenerate, err)
	}
	if _, err := rand.Read(t.key[:]); err != nil {
		return Token{}, errors.Join(ErrGenerate, err)
	}
	return t, nil
}

// ID returns the session id in its hex form. This is the backend lookup key.
func (t Token) ID() string { return encodeHalf(t.id) }

// UUID returns the raw session id.
func (t Token) UUID() uuid.UUID { return t.id }

// IsZero reports whether the token is the zero value.
func (t Token) IsZero() bool { return t.id == uuid.Nil && t.key == uuid.Nil }

// CookieValue encodes the token as "<sessionId-hex>/<sessionKey-hex>".
func (t Token) CookieValue() string {
	return encodeHalf(t.id) + pairSeparator + encodeHalf(t.key)
}

// String never reveals the session key.
func (t Token) String() string { return t.ID() }

// keyBytes returns a copy of the session key material.
func (t Token) keyBytes() []byte {
	b := make([]byte, len(t.key))
	copy(b, t.key[:])
	return b
}

// Parse decodes a cookie value produced by CookieValue.
// Malformed input yields ok == false and never panics.
func Parse(value string) (Token, bool) {
	parts := strings.Split(strings.TrimSpace(value), pairSeparator)
	if len(parts) != 2 {
		return Token{}, false
	}

	id, err := decodeHalf(parts[0])
	if err != nil {
		return Token{}, false
	}
	key, err := decodeHalf(parts[1])
	if err != nil {
		return Token{}, false
	}

	t := Token{id: id, key: key}
	if t.IsZero() {
		return Token{}, false
	}
	return t, true
}

// ParseID decodes a session id as returned by Token.ID.
func ParseID(value string) (uuid.UUID, error) {
	return decodeHalf(value)
}

func encodeHalf(u uuid.UUID) string {
	hi := binary.BigEndian.Uint64(u[:8])
	lo := binary.BigEndian.Uint64(u[8:])
	return fmt.Sprintf("%016x%s%016x", hi, halfSeparator, lo)
}

// decodeHalf accepts one to sixteen hex digits per word so that values written
// without zero padding still parse.
func decodeHalf(s string) (uuid.UUID, error) {
	words := strings.Split(s, halfSeparator)
	if len(words) != 2 {
		return uuid.Nil, ErrMalformed
	}

	var u uuid.UUID
	for i, w := range words {
		if len(w) == 0 || len(w) > 16 {
			return uuid.Nil, ErrMalformed
		}
		n, err := strconv.ParseUint(w, 16, 64)
		if err != nil {
			return uuid.Nil, ErrMalformed
		}
		binary.BigEndian.PutUint64(u[i*8:], n)
	}
	return u, nil
}
