// Package ssotoken implements the split-key session token used by the SSO
// cookie and the symmetric cipher keyed by it.
//
// A Token is a pair of independent 128-bit random values. The first half
// (the session id) is the lookup key that is persisted server-side; the second
// half (the session key) is key material that only ever travels inside the
// cookie. A record stored in a shared backend therefore cannot be decrypted
// without the browser's cookie.
//
// # Cookie format
//
// Each half is encoded as two lowercase 64-bit hex words joined by "-", and the
// pair is joined by "/":
//
//	0f3c5e0d9a1b2c3d-4e5f60718293a4b5/9c8d7e6f5a4b3c2d-1e0f1a2b3c4d5e6f
//
// Parse fails closed: anything that does not decode to exactly two halves of
// valid hex is reported as "no token".
//
// # Cipher
//
// Cipher encrypts attribute payloads with the session key. The default "AES"
// algorithm is AES-128-GCM with a random nonce prepended to the ciphertext and
// the session id plus attribute name as associated data, so a ciphertext
// cannot be replayed into another session or attribute. "SECRETBOX" uses
// NaCl secretbox with a key expanded from the session key via HKDF-SHA256.
//
// # Usage
//
//	tok, _ := ssotoken.Generate()
//	c, _ := ssotoken.NewCipher(ssotoken.AlgorithmAES)
//
//	ct, _ := c.Encrypt(tok, "profiles", []byte(`{"id":"alice"}`))
//	pt, _ := c.Decrypt(tok, "profiles", ct)
//
//	cookieValue := tok.CookieValue()
//	parsed, ok := ssotoken.Parse(cookieValue)
package ssotoken
