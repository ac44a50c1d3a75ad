// Package cryptox implements the cryptographic primitives of the vault:
// authenticated encryption under one of two AEAD suites, the SHA3-256 digest
// used for key verification, and key derivation.
//
// Seal always draws a fresh random nonce; there is no API that accepts a
// caller-chosen nonce for encryption. Every failure inside Open is reported
// as common.ErrAuthentication so that callers cannot tell a wrong key from
// corrupted data.
package cryptox

import (
	"crypto/rand"
	"crypto/subtle"
	"fmt"

	"github.com/dmitrijs2005/credvault/internal/common"
	"golang.org/x/crypto/sha3"
)

// DigestSize is the length of Digest output.
const DigestSize = 32

// Digest returns the SHA3-256 hash of data.
func Digest(data []byte) []byte {
	h := sha3.Sum256(data)
	return h[:]
}

// MakeVerifier returns the value sealed into vault metadata to check a key:
// the digest of the key itself.
func MakeVerifier(key []byte) []byte {
	return Digest(key)
}

// EqualDigest compares two digests in constant time.
func EqualDigest(a, b []byte) bool {
	return subtle.ConstantTimeCompare(a, b) == 1
}

// Seal encrypts plaintext under key with the given suite and binds ad as
// associated data.
//
// A new random nonce of suite.NonceSize() bytes is generated for every call.
// The returned ciphertext carries the authentication tag at its end.
//
// Example:
//
//	nonce, ct, err := cryptox.Seal(cryptox.SuiteAESGCM, key, []byte("s3cr3t"), ad)
//	if err != nil {
//	    return err
//	}
func Seal(suite Suite, key, plaintext, ad []byte) (nonce, ciphertext []byte, err error) {
	aead, err := suite.aead(key)
	if err != nil {
		return nil, nil, fmt.Errorf("seal: %w", err)
	}

	nonce = make([]byte, aead.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, fmt.Errorf("seal: nonce: %w", err)
	}

	ciphertext = aead.Seal(nil, nonce, plaintext, ad)
	return nonce, ciphertext, nil
}

// Open authenticates and decrypts ciphertext produced by Seal.
//
// Any mismatch of key, nonce, ciphertext, tag or associated data yields
// common.ErrAuthentication and no plaintext. The caller owns the returned
// slice and should wipe it with common.WipeByteArray once done.
func Open(suite Suite, key, nonce, ciphertext, ad []byte) ([]byte, error) {
	aead, err := suite.aead(key)
	if err != nil {
		return nil, common.ErrAuthentication
	}
	if len(nonce) != aead.NonceSize() {
		return nil, common.ErrAuthentication
	}

	plaintext, err := aead.Open(nil, nonce, ciphertext, ad)
	if err != nil {
		return nil, common.ErrAuthentication
	}
	return plaintext, nil
}
