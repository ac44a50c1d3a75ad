package vault

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/credvault/internal/common"
	"github.com/dmitrijs2005/credvault/internal/cryptox"
	"github.com/google/uuid"
)

// KeyFromPassphrase stretches a passphrase into a vault key with Argon2id.
// The vault id is the salt, so the same passphrase yields a different key
// in every vault and the key survives rotation of the sealing salt.
func KeyFromPassphrase(passphrase []byte, vaultID uuid.UUID, p cryptox.KDFParams) []byte {
	return cryptox.DeriveMasterKey(passphrase, vaultID[:], p)
}

// CreateFromPassphrase is Create with the key derived from passphrase and
// the id of the new vault. The derived key is returned and must be wiped by
// the caller.
func (v *Vault) CreateFromPassphrase(ctx context.Context, passphrase []byte, p cryptox.KDFParams, suite cryptox.Suite, ad []byte) ([]byte, error) {
	if len(passphrase) == 0 {
		return nil, fmt.Errorf("%w: empty passphrase", common.ErrInvalidArgument)
	}

	v.mu.Lock()
	defer v.mu.Unlock()

	id := uuid.New()
	key := KeyFromPassphrase(passphrase, id, p)
	if err := v.create(ctx, id, key, suite, ad); err != nil {
		common.WipeByteArray(key)
		return nil, err
	}
	return key, nil
}

// KeyFor derives the key passphrase gives for the opened vault.
func (v *Vault) KeyFor(passphrase []byte, p cryptox.KDFParams) ([]byte, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.current == nil {
		if v.state == StateUninitialized {
			return nil, common.ErrNotInitialized
		}
		return nil, fmt.Errorf("%w: vault is closed", common.ErrInvalidArgument)
	}
	return KeyFromPassphrase(passphrase, v.current.VaultID, p), nil
}
