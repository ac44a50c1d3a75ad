// Package models defines the persisted shapes of vault metadata and
// credential records. Every secret field is held as a SealedField; plaintext
// never appears in these types.
package models

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Field enumerates the updatable parts of a credential record.
type Field string

const (
	FieldApplication Field = "application"
	FieldUser        Field = "user"
	FieldPassword    Field = "password"
	FieldObs         Field = "obs"
)

// Fields lists every Field in storage order.
var Fields = []Field{FieldApplication, FieldUser, FieldPassword, FieldObs}

// ParseField maps a user-supplied name to a Field.
func ParseField(s string) (Field, error) {
	for _, f := range Fields {
		if string(f) == s {
			return f, nil
		}
	}
	return "", fmt.Errorf("unknown field %q", s)
}

// Optional reports whether the field may be absent.
func (f Field) Optional() bool {
	return f == FieldApplication || f == FieldObs
}

// SealedField is one AEAD output with the nonce it was sealed under.
type SealedField struct {
	Nonce      []byte `json:"nonce"`
	Ciphertext []byte `json:"ciphertext"`
}

// CredentialRow is a stored credential. Application and Obs are nil when the
// field is absent.
type CredentialRow struct {
	ID          int64        `json:"id"`
	KeyEpoch    int64        `json:"key_epoch"`
	Application *SealedField `json:"application,omitempty"`
	User        SealedField  `json:"user"`
	Password    SealedField  `json:"password"`
	Obs         *SealedField `json:"obs,omitempty"`
}

// Sealed returns the stored value of f, or nil when an optional field is absent.
func (r *CredentialRow) Sealed(f Field) *SealedField {
	switch f {
	case FieldApplication:
		return r.Application
	case FieldUser:
		return &r.User
	case FieldPassword:
		return &r.Password
	case FieldObs:
		return r.Obs
	}
	return nil
}

// VaultMetadata is the single metadata record of a vault.
type VaultMetadata struct {
	VaultID        uuid.UUID   `json:"vault_id"`
	CreationTime   time.Time   `json:"creation_time"`
	ModifiedTime   time.Time   `json:"modified_time"`
	LastReadTime   time.Time   `json:"last_read_time"`
	Verifier       SealedField `json:"key_verifier"`
	AssociatedData []byte      `json:"vault_associated_data"`
	Salt           []byte      `json:"vault_salt"`
	CipherSuite    string      `json:"cipher_suite"`
	KeyEpoch       int64       `json:"key_epoch"`
}

// RotationState records a key rotation that has started but not finished.
type RotationState struct {
	TargetEpoch int64       `json:"target_epoch"`
	Salt        []byte      `json:"vault_salt"`
	Verifier    SealedField `json:"key_verifier"`
}
