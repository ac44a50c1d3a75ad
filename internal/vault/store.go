package vault

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/credvault/internal/common"
	"github.com/dmitrijs2005/credvault/internal/dbx"
	"github.com/dmitrijs2005/credvault/internal/models"
)

// Credential is a decrypted credential record. Application and Obs are nil
// when absent, which is distinct from present and empty.
type Credential struct {
	ID          int64
	Application *string
	User        string
	Password    string
	Obs         *string
}

// Changes maps fields to their new values. A nil value clears an optional
// field.
type Changes map[models.Field]*string

func validateCredential(c Credential) error {
	if c.Password == "" {
		return fmt.Errorf("%w: password is required", common.ErrInvalidArgument)
	}
	return nil
}

func validateChanges(ch Changes) error {
	if len(ch) == 0 {
		return fmt.Errorf("%w: no fields to update", common.ErrInvalidArgument)
	}
	for f, val := range ch {
		if _, err := models.ParseField(string(f)); err != nil {
			return fmt.Errorf("%w: %w", common.ErrInvalidArgument, err)
		}
		if val == nil && !f.Optional() {
			return fmt.Errorf("%w: field %s cannot be cleared", common.ErrInvalidArgument, f)
		}
		if f == models.FieldPassword && *val == "" {
			return fmt.Errorf("%w: password is required", common.ErrInvalidArgument)
		}
	}
	return nil
}

// Insert seals c field by field and stores it. The returned id is greater
// than every id handed out before.
func (v *Vault) Insert(ctx context.Context, key []byte, c Credential) (int64, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	s, err := v.authorizeCRUD(key)
	if err != nil {
		return 0, err
	}
	defer s.wipe()

	if err := validateCredential(c); err != nil {
		return 0, err
	}

	row, err := s.sealCredential(c, v.current.KeyEpoch)
	if err != nil {
		return 0, err
	}

	var id int64
	err = dbx.WithTx(ctx, v.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		var err error
		if id, err = v.repos.Credentials(tx).Insert(ctx, row); err != nil {
			return err
		}
		return v.meta.touchModified(ctx, tx)
	})
	if err != nil {
		return 0, err
	}

	v.log.Info(ctx, "credential inserted", "id", id)
	return id, nil
}

// Read returns the decrypted record id. A record that fails authentication
// yields common.ErrAuthentication; last_read_time only moves on success.
func (v *Vault) Read(ctx context.Context, key []byte, id int64) (*Credential, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	s, err := v.authorizeCRUD(key)
	if err != nil {
		return nil, err
	}
	defer s.wipe()

	row, err := v.repos.Credentials(v.db).Get(ctx, id)
	if err != nil {
		return nil, err
	}
	c, err := s.openCredential(row)
	if err != nil {
		v.log.Warn(ctx, "credential failed authentication", "id", id)
		return nil, err
	}

	if err := v.meta.TouchRead(ctx); err != nil {
		return nil, err
	}
	return c, nil
}

// Update reseals the named fields with fresh nonces. Either every change is
// stored or none is.
func (v *Vault) Update(ctx context.Context, key []byte, id int64, changes Changes) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	s, err := v.authorizeCRUD(key)
	if err != nil {
		return err
	}
	defer s.wipe()

	if err := validateChanges(changes); err != nil {
		return err
	}

	sealed := make(map[models.Field]*models.SealedField, len(changes))
	for f, val := range changes {
		if sealed[f], err = s.sealOptional(string(f), val); err != nil {
			return err
		}
	}

	err = dbx.WithTx(ctx, v.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := v.repos.Credentials(tx).UpdateFields(ctx, id, sealed); err != nil {
			return err
		}
		return v.meta.touchModified(ctx, tx)
	})
	if err != nil {
		return err
	}

	v.log.Info(ctx, "credential updated", "id", id, "fields", len(changes))
	return nil
}

// Delete removes record id. Deleting a missing id returns common.ErrNotFound.
func (v *Vault) Delete(ctx context.Context, key []byte, id int64) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	s, err := v.authorizeCRUD(key)
	if err != nil {
		return err
	}
	s.wipe()

	err = dbx.WithTx(ctx, v.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		if err := v.repos.Credentials(tx).Delete(ctx, id); err != nil {
			return err
		}
		return v.meta.touchModified(ctx, tx)
	})
	if err != nil {
		return err
	}

	v.log.Info(ctx, "credential deleted", "id", id)
	return nil
}

// ListIDs returns the ids of all records in ascending order. Nothing is
// decrypted.
func (v *Vault) ListIDs(ctx context.Context, key []byte) ([]int64, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	s, err := v.authorizeCRUD(key)
	if err != nil {
		return nil, err
	}
	s.wipe()

	return v.repos.Credentials(v.db).ListIDs(ctx)
}
