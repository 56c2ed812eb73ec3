package ssotoken

import "errors"

var (
	// ErrGenerate indicates the random source failed
	ErrGenerate = errors.New("ssotoken.generate_failed")

	// ErrMalformed indicates a cookie value or session id could not be decoded
	ErrMalformed = errors.New("ssotoken.malformed")

	// ErrUnsupportedAlgorithm indicates an unknown cipher algorithm name
	ErrUnsupportedAlgorithm = errors.New("ssotoken.unsupported_algorithm")

	// ErrEncrypt indicates payload encryption failed
	ErrEncrypt = errors.New("ssotoken.encrypt_failed")

	// ErrDecrypt indicates the ciphertext is tampered, truncated or was sealed with another key
	ErrDecrypt = errors.New("ssotoken.decrypt_failed")
)
