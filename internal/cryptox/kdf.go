package cryptox

import (
	"fmt"
	"io"

	"github.com/dmitrijs2005/credvault/internal/common"
	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/sha3"
)

// KDFParams holds the Argon2id cost parameters used to turn a passphrase
// into a vault key.
type KDFParams struct {
	Time    uint32
	Memory  uint32 // KiB
	Threads uint8
}

// DefaultKDFParams matches the cost the client has always used.
var DefaultKDFParams = KDFParams{Time: 1, Memory: 64 * 1024, Threads: 4}

// DeriveMasterKey stretches a passphrase into a KeySize vault key with Argon2id.
func DeriveMasterKey(password []byte, salt []byte, p KDFParams) []byte {
	return argon2.IDKey(password, salt, p.Time, p.Memory, p.Threads, KeySize)
}

// DeriveSealingKey expands the opaque vault key into the AEAD key for suite
// using HKDF-SHA3-256 over the vault salt. The label carries the suite, so
// the same key never feeds two different ciphers.
func DeriveSealingKey(key, salt []byte, suite Suite) ([]byte, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("%w: empty key", common.ErrInvalidArgument)
	}
	info := []byte(common.AppName + "/seal/v1/" + suite.String())
	r := hkdf.New(sha3.New256, key, salt, info)

	out := make([]byte, KeySize)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, fmt.Errorf("derive sealing key: %w", err)
	}
	return out, nil
}
