package cli

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/dmitrijs2005/credvault/internal/common"
	"github.com/dmitrijs2005/credvault/internal/filex"
)

// Export writes the sealed vault to a JSON file readable only by the owner.
func (a *App) Export(ctx context.Context, args []string) error {
	var path string
	if len(args) > 0 {
		path = args[0]
	} else {
		var err error
		if path, err = getSimpleText(a.reader, "Enter export file", a.out); err != nil {
			return err
		}
	}
	if path == "" {
		return fmt.Errorf("%w: export file is required", common.ErrInvalidArgument)
	}

	abs, err := filex.EnsureParentDir(path)
	if err != nil {
		return err
	}
	f, err := os.OpenFile(abs, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0o600)
	if err != nil {
		return err
	}

	exp, err := a.vault.Export(ctx, a.key, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}
	a.printf("Exported %d records to %s\n", len(exp.Credentials), abs)
	return nil
}

// Backup uploads a sealed export to the configured bucket.
func (a *App) Backup(ctx context.Context, args []string) error {
	var buf bytes.Buffer
	exp, err := a.vault.Export(ctx, a.key, &buf)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, a.cfg.BackupTimeout)
	defer cancel()

	key, err := a.uploader.Upload(ctx, exp.Metadata.VaultID.String(), buf.Bytes())
	if err != nil {
		return err
	}
	a.log.Info(ctx, "backup uploaded", "object", key, "records", len(exp.Credentials))
	a.printf("Backup stored as %s\n", key)
	return nil
}

// Rotate moves the vault to a new passphrase. Ctrl-C stops it between
// records; running rotate again with the same new passphrase resumes, and
// "rotate rollback" undoes the records already moved.
func (a *App) Rotate(ctx context.Context, args []string) error {
	rollback := len(args) > 0 && args[0] == "rollback"

	var (
		pass []byte
		err  error
	)
	if rollback {
		pass, err = getPassword(a.out, "Passphrase of the pending rotation")
	} else {
		pass, err = a.readNewPassphrase("New passphrase")
	}
	if err != nil {
		return err
	}
	newKey, err := a.vault.KeyFor(pass, a.kdf)
	common.WipeByteArray(pass)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	progress := func(done, total int) {
		a.printf("\rResealed %d/%d", done, total)
		if done == total {
			a.printf("\n")
		}
	}

	if rollback {
		defer common.WipeByteArray(newKey)
		if err := a.vault.RollbackRotation(ctx, a.key, newKey, progress); err != nil {
			return err
		}
		a.printf("Rotation rolled back\n")
		return nil
	}

	if err := a.vault.RotateKey(ctx, a.key, newKey, progress); err != nil {
		common.WipeByteArray(newKey)
		return err
	}
	a.setKey(newKey)
	a.printf("Key rotated\n")
	return nil
}
