package vault

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/credvault/internal/common"
	"github.com/dmitrijs2005/credvault/internal/cryptox"
	"github.com/dmitrijs2005/credvault/internal/dbx"
	"github.com/dmitrijs2005/credvault/internal/models"
	"github.com/dmitrijs2005/credvault/internal/repositories/repomanager"
	"github.com/google/uuid"
)

// MetadataManager owns the vault metadata record: creation, key
// verification and the modified/last-read timestamps.
type MetadataManager struct {
	db    *sql.DB
	repos repomanager.RepositoryManager
	now   func() time.Time
}

func NewMetadataManager(db *sql.DB, repos repomanager.RepositoryManager, now func() time.Time) *MetadataManager {
	if now == nil {
		now = time.Now
	}
	return &MetadataManager{db: db, repos: repos, now: now}
}

// Get loads the metadata. It returns common.ErrNotInitialized for an empty vault.
func (m *MetadataManager) Get(ctx context.Context) (*models.VaultMetadata, error) {
	return m.get(ctx, m.db)
}

func (m *MetadataManager) get(ctx context.Context, db dbx.DBTX) (*models.VaultMetadata, error) {
	meta, err := m.repos.Metadata(db).Get(ctx)
	if errors.Is(err, common.ErrNotFound) {
		return nil, common.ErrNotInitialized
	}
	return meta, err
}

// Initialize creates the metadata of a new vault under key.
//
// It draws a vault id and salt, seals digest(key) under the key with a fresh
// nonce and sets all three timestamps to now. The stored associated data is
// the vault id followed by ad. Fails with common.ErrAlreadyExists if the
// vault already has metadata.
func (m *MetadataManager) Initialize(ctx context.Context, key []byte, suite cryptox.Suite, ad []byte) (*models.VaultMetadata, error) {
	return m.initialize(ctx, uuid.New(), key, suite, ad)
}

func (m *MetadataManager) initialize(ctx context.Context, id uuid.UUID, key []byte, suite cryptox.Suite, ad []byte) (*models.VaultMetadata, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("%w: empty key", common.ErrInvalidArgument)
	}

	vaultAD := append(id[:len(id):len(id)], ad...)
	salt := common.GenerateRandByteArray(common.SaltSize)

	s, err := newSealer(key, salt, suite, vaultAD)
	if err != nil {
		return nil, err
	}
	defer s.wipe()

	verifier, err := s.sealVerifier(key)
	if err != nil {
		return nil, err
	}

	now := m.now().UTC()
	meta := &models.VaultMetadata{
		VaultID:        id,
		CreationTime:   now,
		ModifiedTime:   now,
		LastReadTime:   now,
		Verifier:       verifier,
		AssociatedData: vaultAD,
		Salt:           salt,
		CipherSuite:    suite.String(),
	}

	err = dbx.WithTx(ctx, m.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return m.repos.Metadata(tx).Create(ctx, meta)
	})
	if err != nil {
		return nil, err
	}
	return meta, nil
}

// Verify reports whether key unlocks the vault. AEAD failures yield false;
// only storage faults and a missing vault are returned as errors.
func (m *MetadataManager) Verify(ctx context.Context, key []byte) (bool, error) {
	meta, err := m.Get(ctx)
	if err != nil {
		return false, err
	}
	return verifyAgainst(key, meta), nil
}

func verifyAgainst(key []byte, meta *models.VaultMetadata) bool {
	if len(key) == 0 {
		return false
	}
	s, err := sealerFor(key, meta)
	if err != nil {
		return false
	}
	defer s.wipe()
	return s.checkVerifier(key, meta.Verifier)
}

// TouchModified moves modified_time forward to now.
func (m *MetadataManager) TouchModified(ctx context.Context) error {
	return dbx.WithTx(ctx, m.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return m.touchModified(ctx, tx)
	})
}

// TouchRead moves last_read_time forward to now.
func (m *MetadataManager) TouchRead(ctx context.Context) error {
	return dbx.WithTx(ctx, m.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		return m.touchRead(ctx, tx)
	})
}

// Timestamps never move backwards, even if the wall clock does.
func later(prev, now time.Time) time.Time {
	if now.Before(prev) {
		return prev
	}
	return now
}

func (m *MetadataManager) touchModified(ctx context.Context, tx dbx.DBTX) error {
	meta, err := m.get(ctx, tx)
	if err != nil {
		return err
	}
	return m.repos.Metadata(tx).SetModifiedTime(ctx, later(meta.ModifiedTime, m.now()))
}

func (m *MetadataManager) touchRead(ctx context.Context, tx dbx.DBTX) error {
	meta, err := m.get(ctx, tx)
	if err != nil {
		return err
	}
	return m.repos.Metadata(tx).SetLastReadTime(ctx, later(meta.LastReadTime, m.now()))
}
