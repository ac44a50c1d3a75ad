package vault

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/credvault/internal/common"
	"github.com/dmitrijs2005/credvault/internal/cryptox"
	"github.com/dmitrijs2005/credvault/internal/dbx"
	"github.com/dmitrijs2005/credvault/internal/models"
)

// RotationProgress is reported after every resealed record.
type RotationProgress func(done, total int)

// RotateKey re-encrypts every record from oldKey to newKey.
//
// The rotation is recorded before any record changes, and each record is
// resealed in its own transaction, so at every point a record opens under
// exactly one of the two keys. If ctx is cancelled or the process dies,
// calling RotateKey again with the same keys resumes where it stopped;
// RollbackRotation undoes it instead. The metadata switches to newKey only
// after the last record, and the session stays unlocked under newKey.
func (v *Vault) RotateKey(ctx context.Context, oldKey, newKey []byte, progress RotationProgress) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	oldS, err := v.authorize(oldKey)
	if err != nil {
		return err
	}
	defer oldS.wipe()

	if len(newKey) == 0 {
		return fmt.Errorf("%w: empty key", common.ErrInvalidArgument)
	}
	if cryptox.EqualDigest(cryptox.Digest(newKey), v.keyDigest) {
		return fmt.Errorf("%w: new key equals current key", common.ErrInvalidArgument)
	}

	state, err := v.beginRotation(ctx, oldS.suite, newKey)
	if err != nil {
		return err
	}
	v.rotating = true

	newS, err := newSealer(newKey, state.Salt, oldS.suite, v.current.AssociatedData)
	if err != nil {
		return err
	}
	defer newS.wipe()
	if !newS.checkVerifier(newKey, state.Verifier) {
		return common.ErrAuthentication
	}

	if err := v.resealAll(ctx, oldS, newS, v.current.KeyEpoch, state.TargetEpoch, progress); err != nil {
		return err
	}

	err = dbx.WithTx(ctx, v.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := v.repos.Metadata(tx).ReplaceKey(ctx, state.Salt, state.Verifier, state.TargetEpoch); err != nil {
			return err
		}
		if err := v.meta.touchModified(ctx, tx); err != nil {
			return err
		}
		return v.repos.Rotation(tx).Delete(ctx)
	})
	if err != nil {
		return err
	}

	meta, err := v.meta.Get(ctx)
	if err != nil {
		return err
	}
	v.current = meta
	v.rotating = false
	v.setKey(newKey)
	v.log.Info(ctx, "key rotation finished", "key_epoch", meta.KeyEpoch)
	return nil
}

// beginRotation returns the pending rotation, creating it when none exists.
func (v *Vault) beginRotation(ctx context.Context, suite cryptox.Suite, newKey []byte) (*models.RotationState, error) {
	state, err := v.repos.Rotation(v.db).Get(ctx)
	if err == nil {
		v.log.Info(ctx, "resuming key rotation", "target_epoch", state.TargetEpoch)
		return state, nil
	}
	if !errors.Is(err, common.ErrNotFound) {
		return nil, err
	}

	salt := common.GenerateRandByteArray(common.SaltSize)
	s, err := newSealer(newKey, salt, suite, v.current.AssociatedData)
	if err != nil {
		return nil, err
	}
	defer s.wipe()

	verifier, err := s.sealVerifier(newKey)
	if err != nil {
		return nil, err
	}
	state = &models.RotationState{
		TargetEpoch: v.current.KeyEpoch + 1,
		Salt:        salt,
		Verifier:    verifier,
	}

	err = dbx.WithTx(ctx, v.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return v.repos.Rotation(tx).Create(ctx, state)
	})
	if err != nil {
		return nil, err
	}
	v.log.Info(ctx, "key rotation started", "target_epoch", state.TargetEpoch)
	return state, nil
}

// resealAll moves every record at epoch from to epoch to, one transaction
// per record, checking ctx between records.
func (v *Vault) resealAll(ctx context.Context, src, dst *sealer, from, to int64, progress RotationProgress) error {
	ids, err := v.repos.Credentials(v.db).ListIDsByEpoch(ctx, from)
	if err != nil {
		return err
	}

	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			v.log.Warn(ctx, "key rotation interrupted", "done", i, "total", len(ids))
			return err
		}

		err := dbx.WithTx(ctx, v.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
			repo := v.repos.Credentials(tx)
			row, err := repo.Get(ctx, id)
			if errors.Is(err, common.ErrNotFound) {
				return nil
			}
			if err != nil {
				return err
			}
			if row.KeyEpoch != from {
				return nil
			}
			out, err := dst.reseal(src, row, to)
			if err != nil {
				return err
			}
			return repo.Replace(ctx, out)
		})
		if err != nil {
			return err
		}

		v.log.Debug(ctx, "record resealed", "id", id, "key_epoch", to)
		if progress != nil {
			progress(i+1, len(ids))
		}
	}
	return nil
}

// RollbackRotation returns records already moved to newKey back to oldKey
// and discards the pending rotation. The metadata never changed, so the
// session stays unlocked under oldKey.
func (v *Vault) RollbackRotation(ctx context.Context, oldKey, newKey []byte, progress RotationProgress) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	oldS, err := v.authorize(oldKey)
	if err != nil {
		return err
	}
	defer oldS.wipe()

	state, err := v.repos.Rotation(v.db).Get(ctx)
	if errors.Is(err, common.ErrNotFound) {
		return common.ErrNoRotation
	}
	if err != nil {
		return err
	}

	newS, err := newSealer(newKey, state.Salt, oldS.suite, v.current.AssociatedData)
	if err != nil {
		return err
	}
	defer newS.wipe()
	if !newS.checkVerifier(newKey, state.Verifier) {
		return common.ErrAuthentication
	}

	if err := v.resealAll(ctx, newS, oldS, state.TargetEpoch, v.current.KeyEpoch, progress); err != nil {
		return err
	}

	err = dbx.WithTx(ctx, v.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return v.repos.Rotation(tx).Delete(ctx)
	})
	if err != nil {
		return err
	}
	v.rotating = false
	v.log.Info(ctx, "key rotation rolled back", "key_epoch", v.current.KeyEpoch)
	return nil
}
