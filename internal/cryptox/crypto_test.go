package cryptox

import (
	"bytes"
	"encoding/hex"
	"testing"

	"github.com/dmitrijs2005/credvault/internal/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var suites = []Suite{SuiteAESGCM, SuiteChaCha20Poly1305}

func testKey() []byte {
	return bytes.Repeat([]byte{0x42}, KeySize)
}

func TestDeriveMasterKey_Deterministic(t *testing.T) {
	password := []byte("secret-password")
	salt := []byte("fixed-salt")

	key1 := DeriveMasterKey(password, salt, DefaultKDFParams)
	key2 := DeriveMasterKey(password, salt, DefaultKDFParams)

	// same inputs -> same output
	if !bytes.Equal(key1, key2) {
		t.Errorf("expected same result for same inputs, got different")
	}

	// snapshot of the argon2id output for the default cost
	expectedHex := "34f7a1c64df63ab1ad5b5ee06e64db5713b35f81839823304db63e8e5e6a6a39"
	if hex.EncodeToString(key1) != expectedHex {
		t.Errorf("expected %s, got %s", expectedHex, hex.EncodeToString(key1))
	}
}

func TestDeriveMasterKey_DifferentInputs(t *testing.T) {
	password := []byte("secret-password")

	key1 := DeriveMasterKey(password, []byte("salt-1"), DefaultKDFParams)
	key2 := DeriveMasterKey(password, []byte("salt-2"), DefaultKDFParams)

	if bytes.Equal(key1, key2) {
		t.Errorf("expected different results for different salts, got same")
	}
}

func TestDigest_KnownVector(t *testing.T) {
	// SHA3-256("")
	require.Equal(t,
		"a7ffc6f8bf1ed76651c14756a061d662f580ff4de43b49fa82d80a4b80f8434a",
		hex.EncodeToString(Digest(nil)))
	require.Len(t, MakeVerifier([]byte("correct-horse")), DigestSize)
}

func TestEqualDigest(t *testing.T) {
	a := Digest([]byte("a"))
	assert.True(t, EqualDigest(a, Digest([]byte("a"))))
	assert.False(t, EqualDigest(a, Digest([]byte("b"))))
	assert.False(t, EqualDigest(a, a[:16]))
}

func TestParseSuite(t *testing.T) {
	s, err := ParseSuite(" AES-256-GCM ")
	require.NoError(t, err)
	require.Equal(t, SuiteAESGCM, s)

	s, err = ParseSuite("chacha20-poly1305")
	require.NoError(t, err)
	require.Equal(t, SuiteChaCha20Poly1305, s)

	_, err = ParseSuite("rot13")
	require.Error(t, err)
}

func TestSealOpen_RoundTrip(t *testing.T) {
	for _, s := range suites {
		t.Run(s.String(), func(t *testing.T) {
			key := testKey()
			ad := []byte("vault-ad")

			nonce, ct, err := Seal(s, key, []byte("s3cr3t"), ad)
			require.NoError(t, err)
			require.Len(t, nonce, s.NonceSize())
			require.NotContains(t, string(ct), "s3cr3t")

			pt, err := Open(s, key, nonce, ct, ad)
			require.NoError(t, err)
			require.Equal(t, "s3cr3t", string(pt))
		})
	}
}

func TestSeal_EmptyPlaintext(t *testing.T) {
	for _, s := range suites {
		nonce, ct, err := Seal(s, testKey(), nil, nil)
		require.NoError(t, err)
		require.Len(t, ct, 16, "tag only")

		pt, err := Open(s, testKey(), nonce, ct, nil)
		require.NoError(t, err)
		require.Empty(t, pt)
	}
}

func TestSeal_NonceUniqueness(t *testing.T) {
	const n = 10000
	for _, s := range suites {
		seen := make(map[string]struct{}, n)
		for i := 0; i < n; i++ {
			nonce, _, err := Seal(s, testKey(), []byte("x"), nil)
			require.NoError(t, err)
			k := string(nonce)
			_, dup := seen[k]
			require.False(t, dup, "nonce repeated after %d seals", i)
			seen[k] = struct{}{}
		}
	}
}

func TestOpen_TamperDetection(t *testing.T) {
	for _, s := range suites {
		t.Run(s.String(), func(t *testing.T) {
			key := testKey()
			ad := []byte("vault-ad|password")
			nonce, ct, err := Seal(s, key, []byte("s3cr3t"), ad)
			require.NoError(t, err)

			for i := range ct {
				for bit := 0; bit < 8; bit++ {
					bad := bytes.Clone(ct)
					bad[i] ^= 1 << bit
					_, err := Open(s, key, nonce, bad, ad)
					require.ErrorIs(t, err, common.ErrAuthentication, "ct byte %d bit %d", i, bit)
				}
			}

			for i := range ad {
				badAD := bytes.Clone(ad)
				badAD[i] ^= 0x01
				_, err := Open(s, key, nonce, ct, badAD)
				require.ErrorIs(t, err, common.ErrAuthentication, "ad byte %d", i)
			}

			badNonce := bytes.Clone(nonce)
			badNonce[0] ^= 0x80
			_, err = Open(s, key, badNonce, ct, ad)
			require.ErrorIs(t, err, common.ErrAuthentication)

			_, err = Open(s, key, nonce[:4], ct, ad)
			require.ErrorIs(t, err, common.ErrAuthentication)

			_, err = Open(s, key, nonce, ct[:len(ct)-1], ad)
			require.ErrorIs(t, err, common.ErrAuthentication)
		})
	}
}

func TestOpen_WrongKeyOrSuite(t *testing.T) {
	key := testKey()
	nonce, ct, err := Seal(SuiteAESGCM, key, []byte("s3cr3t"), nil)
	require.NoError(t, err)

	other := bytes.Clone(key)
	other[0] ^= 1
	_, err = Open(SuiteAESGCM, other, nonce, ct, nil)
	require.ErrorIs(t, err, common.ErrAuthentication)

	// both suites use 12-byte nonces, so only the tag can reject this
	_, err = Open(SuiteChaCha20Poly1305, key, nonce, ct, nil)
	require.ErrorIs(t, err, common.ErrAuthentication)

	_, err = Open(SuiteAESGCM, key[:16], nonce, ct, nil)
	require.ErrorIs(t, err, common.ErrAuthentication)
}

func TestSeal_Errors(t *testing.T) {
	_, _, err := Seal(SuiteAESGCM, []byte("short"), []byte("x"), nil)
	require.Error(t, err)

	_, _, err = Seal(Suite("rot13"), testKey(), []byte("x"), nil)
	require.Error(t, err)
	require.Zero(t, Suite("rot13").NonceSize())
}

func TestDeriveSealingKey(t *testing.T) {
	salt := []byte("salt-salt-salt")

	k1, err := DeriveSealingKey([]byte("correct-horse"), salt, SuiteAESGCM)
	require.NoError(t, err)
	require.Len(t, k1, KeySize)

	k2, err := DeriveSealingKey([]byte("correct-horse"), salt, SuiteAESGCM)
	require.NoError(t, err)
	require.Equal(t, k1, k2)

	k3, err := DeriveSealingKey([]byte("correct-horse"), salt, SuiteChaCha20Poly1305)
	require.NoError(t, err)
	require.NotEqual(t, k1, k3, "suite is part of the label")

	k4, err := DeriveSealingKey([]byte("correct-horse"), []byte("other"), SuiteAESGCM)
	require.NoError(t, err)
	require.NotEqual(t, k1, k4)

	_, err = DeriveSealingKey(nil, salt, SuiteAESGCM)
	require.ErrorIs(t, err, common.ErrInvalidArgument)
}

func FuzzSealOpen(f *testing.F) {
	f.Add([]byte("s3cr3t"), []byte("ad"))
	f.Add([]byte{}, []byte{})
	f.Add(bytes.Repeat([]byte{0xff}, 1024), []byte("application"))

	f.Fuzz(func(t *testing.T, pt, ad []byte) {
		for _, s := range suites {
			nonce, ct, err := Seal(s, testKey(), pt, ad)
			if err != nil {
				t.Fatalf("seal: %v", err)
			}
			got, err := Open(s, testKey(), nonce, ct, ad)
			if err != nil {
				t.Fatalf("open: %v", err)
			}
			if !bytes.Equal(got, pt) {
				t.Fatalf("round trip mismatch")
			}
		}
	})
}
