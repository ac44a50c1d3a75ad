package cryptox

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"
	"strings"

	"golang.org/x/crypto/chacha20poly1305"
)

// Suite identifies the AEAD construction a vault is sealed with. It is
// chosen when the vault is created and recorded in its metadata.
type Suite string

const (
	SuiteAESGCM           Suite = "aes-256-gcm"
	SuiteChaCha20Poly1305 Suite = "chacha20-poly1305"
)

// KeySize is the sealing key length shared by both suites.
const KeySize = 32

// ParseSuite maps a configured name to a Suite. Matching ignores case.
func ParseSuite(name string) (Suite, error) {
	switch Suite(strings.ToLower(strings.TrimSpace(name))) {
	case SuiteAESGCM:
		return SuiteAESGCM, nil
	case SuiteChaCha20Poly1305:
		return SuiteChaCha20Poly1305, nil
	}
	return "", fmt.Errorf("unknown cipher suite %q", name)
}

func (s Suite) String() string { return string(s) }

// aead builds the cipher.AEAD for the suite. The key must be KeySize bytes.
func (s Suite) aead(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("invalid key length %d", len(key))
	}
	switch s {
	case SuiteAESGCM:
		block, err := aes.NewCipher(key)
		if err != nil {
			return nil, err
		}
		return cipher.NewGCM(block)
	case SuiteChaCha20Poly1305:
		return chacha20poly1305.New(key)
	}
	return nil, fmt.Errorf("unknown cipher suite %q", string(s))
}

// NonceSize returns the nonce length of the suite, or 0 for an unknown suite.
func (s Suite) NonceSize() int {
	switch s {
	case SuiteAESGCM:
		return 12
	case SuiteChaCha20Poly1305:
		return chacha20poly1305.NonceSize
	}
	return 0
}
