package cli

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/credvault/internal/common"
)

var errPassphraseMismatch = errors.New("passphrases do not match")

// readNewPassphrase asks for a passphrase twice. The result must be wiped.
func (a *App) readNewPassphrase(prompt string) ([]byte, error) {
	pass, err := getPassword(a.out, prompt)
	if err != nil {
		return nil, err
	}
	confirm, err := getPassword(a.out, "Repeat passphrase")
	if err != nil {
		common.WipeByteArray(pass)
		return nil, err
	}
	defer common.WipeByteArray(confirm)

	if !bytes.Equal(pass, confirm) {
		common.WipeByteArray(pass)
		return nil, errPassphraseMismatch
	}
	if len(pass) == 0 {
		return nil, fmt.Errorf("%w: empty passphrase", common.ErrInvalidArgument)
	}
	return pass, nil
}

// Init creates a new vault protected by a passphrase and unlocks it.
func (a *App) Init(ctx context.Context, args []string) error {
	pass, err := a.readNewPassphrase("New passphrase")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pass)

	key, err := a.vault.CreateFromPassphrase(ctx, pass, a.kdf, a.suite, []byte(a.cfg.AssociatedData))
	if err != nil {
		return err
	}
	a.setKey(key)

	info, err := a.vault.Status(ctx)
	if err != nil {
		return err
	}
	a.printf("Vault %s created (%s)\n", info.VaultID, info.CipherSuite)
	return nil
}

// Unlock asks for the passphrase and unlocks the vault with the key it
// derives.
func (a *App) Unlock(ctx context.Context, args []string) error {
	pass, err := getPassword(a.out, "Passphrase")
	if err != nil {
		return err
	}
	defer common.WipeByteArray(pass)

	key, err := a.vault.KeyFor(pass, a.kdf)
	if err != nil {
		return err
	}
	if err := a.vault.Unlock(ctx, key); err != nil {
		common.WipeByteArray(key)
		a.forgetKey()
		return err
	}
	a.setKey(key)

	info, err := a.vault.Status(ctx)
	if err != nil {
		return err
	}
	a.printf("Unlocked\n")
	if info.RotationPending {
		a.printf("A key rotation is pending: run 'rotate' to resume it or 'rotate rollback' to undo it\n")
	}
	return nil
}

// Lock forgets the key.
func (a *App) Lock(ctx context.Context, args []string) error {
	a.vault.Lock()
	a.forgetKey()
	a.printf("Locked\n")
	return nil
}

// Status prints the session state and non-secret vault metadata.
func (a *App) Status(ctx context.Context, args []string) error {
	info, err := a.vault.Status(ctx)
	if err != nil {
		return err
	}

	a.printf("State:         %s\n", info.State)
	if info.VaultID == "" {
		return nil
	}
	a.printf("Vault:         %s\n", info.VaultID)
	a.printf("Cipher suite:  %s\n", info.CipherSuite)
	a.printf("Key epoch:     %d\n", info.KeyEpoch)
	a.printf("Created:       %s\n", info.CreationTime.Local().Format(timeFormat))
	a.printf("Modified:      %s\n", info.ModifiedTime.Local().Format(timeFormat))
	a.printf("Last read:     %s\n", info.LastReadTime.Local().Format(timeFormat))
	if info.RotationPending {
		a.printf("Rotation:      pending\n")
	}
	return nil
}
