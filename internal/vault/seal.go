package vault

import (
	"fmt"

	"github.com/dmitrijs2005/credvault/internal/common"
	"github.com/dmitrijs2005/credvault/internal/cryptox"
	"github.com/dmitrijs2005/credvault/internal/models"
)

const verifierLabel = "key-verifier"

// fieldAD binds a ciphertext to its vault and to the slot it lives in.
func fieldAD(vaultAD []byte, label string) []byte {
	ad := make([]byte, 0, len(vaultAD)+1+len(label))
	ad = append(ad, vaultAD...)
	ad = append(ad, 0)
	return append(ad, label...)
}

// sealer holds a derived sealing key for one vault key generation.
// Call wipe when done.
type sealer struct {
	suite   cryptox.Suite
	key     []byte
	vaultAD []byte
}

func newSealer(key, salt []byte, suite cryptox.Suite, vaultAD []byte) (*sealer, error) {
	sk, err := cryptox.DeriveSealingKey(key, salt, suite)
	if err != nil {
		return nil, err
	}
	return &sealer{suite: suite, key: sk, vaultAD: vaultAD}, nil
}

func sealerFor(key []byte, m *models.VaultMetadata) (*sealer, error) {
	suite, err := cryptox.ParseSuite(m.CipherSuite)
	if err != nil {
		return nil, common.StorageError("bad cipher suite in metadata", err)
	}
	return newSealer(key, m.Salt, suite, m.AssociatedData)
}

func (s *sealer) wipe() {
	common.WipeByteArray(s.key)
}

func (s *sealer) seal(label string, plaintext []byte) (models.SealedField, error) {
	nonce, ct, err := cryptox.Seal(s.suite, s.key, plaintext, fieldAD(s.vaultAD, label))
	if err != nil {
		return models.SealedField{}, err
	}
	return models.SealedField{Nonce: nonce, Ciphertext: ct}, nil
}

func (s *sealer) open(label string, f models.SealedField) ([]byte, error) {
	return cryptox.Open(s.suite, s.key, f.Nonce, f.Ciphertext, fieldAD(s.vaultAD, label))
}

// sealString seals v and wipes the temporary byte copy.
func (s *sealer) sealString(label, v string) (models.SealedField, error) {
	b := []byte(v)
	defer common.WipeByteArray(b)
	return s.seal(label, b)
}

// openString opens f and returns the plaintext as a string, wiping the
// intermediate buffer.
func (s *sealer) openString(label string, f models.SealedField) (string, error) {
	b, err := s.open(label, f)
	if err != nil {
		return "", err
	}
	defer common.WipeByteArray(b)
	return string(b), nil
}

func (s *sealer) sealVerifier(key []byte) (models.SealedField, error) {
	d := cryptox.MakeVerifier(key)
	defer common.WipeByteArray(d)
	return s.seal(verifierLabel, d)
}

// checkVerifier reports whether v opens under s and holds the digest of key.
// Any AEAD failure is reported as false.
func (s *sealer) checkVerifier(key []byte, v models.SealedField) bool {
	got, err := s.open(verifierLabel, v)
	if err != nil {
		return false
	}
	defer common.WipeByteArray(got)

	want := cryptox.MakeVerifier(key)
	defer common.WipeByteArray(want)
	return cryptox.EqualDigest(got, want)
}

// sealOptional seals v when present.
func (s *sealer) sealOptional(label string, v *string) (*models.SealedField, error) {
	if v == nil {
		return nil, nil
	}
	f, err := s.sealString(label, *v)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func (s *sealer) openOptional(label string, f *models.SealedField) (*string, error) {
	if f == nil {
		return nil, nil
	}
	v, err := s.openString(label, *f)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func (s *sealer) sealCredential(c Credential, epoch int64) (*models.CredentialRow, error) {
	row := &models.CredentialRow{KeyEpoch: epoch}
	var err error

	if row.Application, err = s.sealOptional(string(models.FieldApplication), c.Application); err != nil {
		return nil, err
	}
	if row.User, err = s.sealString(string(models.FieldUser), c.User); err != nil {
		return nil, err
	}
	if row.Password, err = s.sealString(string(models.FieldPassword), c.Password); err != nil {
		return nil, err
	}
	if row.Obs, err = s.sealOptional(string(models.FieldObs), c.Obs); err != nil {
		return nil, err
	}
	return row, nil
}

func (s *sealer) openCredential(row *models.CredentialRow) (*Credential, error) {
	c := &Credential{ID: row.ID}
	var err error

	if c.Application, err = s.openOptional(string(models.FieldApplication), row.Application); err != nil {
		return nil, err
	}
	if c.User, err = s.openString(string(models.FieldUser), row.User); err != nil {
		return nil, err
	}
	if c.Password, err = s.openString(string(models.FieldPassword), row.Password); err != nil {
		return nil, err
	}
	if c.Obs, err = s.openOptional(string(models.FieldObs), row.Obs); err != nil {
		return nil, err
	}
	return c, nil
}

// reseal opens every field of row under from and seals it again under s
// with fresh nonces, tagging the result with epoch.
func (s *sealer) reseal(from *sealer, row *models.CredentialRow, epoch int64) (*models.CredentialRow, error) {
	out := &models.CredentialRow{ID: row.ID, KeyEpoch: epoch}
	for _, f := range models.Fields {
		src := row.Sealed(f)
		if src == nil {
			continue
		}
		pt, err := from.open(string(f), *src)
		if err != nil {
			return nil, fmt.Errorf("record %d field %s: %w", row.ID, f, err)
		}
		sealed, err := s.seal(string(f), pt)
		common.WipeByteArray(pt)
		if err != nil {
			return nil, err
		}
		switch f {
		case models.FieldApplication:
			out.Application = &sealed
		case models.FieldUser:
			out.User = sealed
		case models.FieldPassword:
			out.Password = sealed
		case models.FieldObs:
			out.Obs = &sealed
		}
	}
	return out, nil
}
