package vault

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dmitrijs2005/credvault/internal/common"
	"github.com/dmitrijs2005/credvault/internal/cryptox"
	"github.com/dmitrijs2005/credvault/internal/logging"
	"github.com/dmitrijs2005/credvault/internal/models"
	"github.com/dmitrijs2005/credvault/internal/repositories/repomanager"
	"github.com/google/uuid"
	"golang.org/x/time/rate"
)

// State is the lifecycle position of a Vault session.
type State int

const (
	StateClosed State = iota
	StateUninitialized
	StateLocked
	StateUnlocked
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateUninitialized:
		return "uninitialized"
	case StateLocked:
		return "locked"
	case StateUnlocked:
		return "unlocked"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Option configures a Vault.
type Option func(*Vault)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l logging.Logger) Option {
	return func(v *Vault) { v.log = l }
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(v *Vault) { v.now = now }
}

// WithUnlockLimiter throttles Unlock attempts. Nil disables throttling.
func WithUnlockLimiter(l *rate.Limiter) Option {
	return func(v *Vault) { v.limiter = l }
}

// Vault is a session over one credential vault.
//
// A Vault starts Closed. Open loads the metadata and moves to Locked, or to
// Uninitialized for an empty store, where Create may be called. Unlock with
// the right key moves to Unlocked; Lock goes back to Locked and Close to
// Closed. Credential operations require Unlocked and take the key on every
// call; it must be the key the session was unlocked with.
//
// All methods are safe for concurrent use; calls are serialised.
type Vault struct {
	mu sync.Mutex

	db      *sql.DB
	repos   repomanager.RepositoryManager
	meta    *MetadataManager
	log     logging.Logger
	now     func() time.Time
	limiter *rate.Limiter

	state     State
	current   *models.VaultMetadata
	keyDigest []byte
	rotating  bool
}

// New returns a Closed session over db.
func New(db *sql.DB, repos repomanager.RepositoryManager, opts ...Option) *Vault {
	v := &Vault{
		db:    db,
		repos: repos,
		log:   logging.Nop(),
		now:   time.Now,
		state: StateClosed,
	}
	for _, o := range opts {
		o(v)
	}
	v.meta = NewMetadataManager(db, repos, v.now)
	return v
}

// State returns the current lifecycle state.
func (v *Vault) State() State {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.state
}

// Metadata returns the vault's metadata manager.
func (v *Vault) Metadata() *MetadataManager {
	return v.meta
}

// Open loads the vault metadata. The session becomes Locked, or
// Uninitialized when the store holds no vault yet.
func (v *Vault) Open(ctx context.Context) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	if v.state != StateClosed {
		return fmt.Errorf("%w: vault is already open", common.ErrInvalidArgument)
	}

	meta, err := v.meta.Get(ctx)
	if errors.Is(err, common.ErrNotInitialized) {
		v.state = StateUninitialized
		return nil
	}
	if err != nil {
		return err
	}
	if err := v.load(ctx, meta); err != nil {
		return err
	}
	v.state = StateLocked
	v.log.Info(ctx, "vault opened", "vault_id", meta.VaultID.String(), "cipher_suite", meta.CipherSuite)
	return nil
}

func (v *Vault) load(ctx context.Context, meta *models.VaultMetadata) error {
	if _, err := cryptox.ParseSuite(meta.CipherSuite); err != nil {
		return common.StorageError("bad cipher suite in metadata", err)
	}
	_, err := v.repos.Rotation(v.db).Get(ctx)
	switch {
	case err == nil:
		v.rotating = true
	case errors.Is(err, common.ErrNotFound):
		v.rotating = false
	default:
		return err
	}
	v.current = meta
	return nil
}

// Create initializes an empty vault under key and leaves the session
// Unlocked. It fails with common.ErrAlreadyExists if the store already holds
// a vault.
func (v *Vault) Create(ctx context.Context, key []byte, suite cryptox.Suite, ad []byte) error {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.create(ctx, uuid.New(), key, suite, ad)
}

func (v *Vault) create(ctx context.Context, id uuid.UUID, key []byte, suite cryptox.Suite, ad []byte) error {

	switch v.state {
	case StateUninitialized:
	case StateLocked, StateUnlocked:
		return common.ErrAlreadyExists
	default:
		return fmt.Errorf("%w: vault is closed", common.ErrInvalidArgument)
	}

	meta, err := v.meta.initialize(ctx, id, key, suite, ad)
	if err != nil {
		return err
	}
	v.current = meta
	v.rotating = false
	v.setKey(key)
	v.state = StateUnlocked
	v.log.Info(ctx, "vault created", "vault_id", meta.VaultID.String(), "cipher_suite", meta.CipherSuite)
	return nil
}

// Unlock verifies key against the vault. A wrong key leaves the session
// Locked, even if it was unlocked before, and returns common.ErrAuthentication.
func (v *Vault) Unlock(ctx context.Context, key []byte) error {
	v.mu.Lock()
	defer v.mu.Unlock()

	switch v.state {
	case StateLocked, StateUnlocked:
	case StateUninitialized:
		return common.ErrNotInitialized
	default:
		return fmt.Errorf("%w: vault is closed", common.ErrInvalidArgument)
	}

	if v.limiter != nil && !v.limiter.Allow() {
		v.log.Warn(ctx, "unlock throttled")
		return common.ErrTooManyAttempts
	}

	meta, err := v.meta.Get(ctx)
	if err != nil {
		return err
	}
	if !verifyAgainst(key, meta) {
		v.lock()
		v.log.Warn(ctx, "unlock failed", "vault_id", meta.VaultID.String())
		return common.ErrAuthentication
	}
	if err := v.load(ctx, meta); err != nil {
		return err
	}

	v.setKey(key)
	v.state = StateUnlocked
	v.log.Info(ctx, "vault unlocked", "vault_id", meta.VaultID.String(), "rotation_pending", v.rotating)
	return nil
}

// Lock forgets the verified key. Locking a locked vault is a no-op.
func (v *Vault) Lock() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.lock()
}

func (v *Vault) lock() {
	common.WipeByteArray(v.keyDigest)
	v.keyDigest = nil
	if v.state == StateUnlocked {
		v.state = StateLocked
	}
}

// Close locks the session and returns it to Closed. The database handle is
// owned by the caller and stays open.
func (v *Vault) Close() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.lock()
	v.current = nil
	v.state = StateClosed
}

func (v *Vault) setKey(key []byte) {
	common.WipeByteArray(v.keyDigest)
	v.keyDigest = cryptox.Digest(key)
}

// authorize checks that the session is unlocked with key and returns a
// sealer for it. The caller must wipe the sealer.
func (v *Vault) authorize(key []byte) (*sealer, error) {
	if v.state != StateUnlocked {
		return nil, common.ErrLocked
	}
	d := cryptox.Digest(key)
	defer common.WipeByteArray(d)
	if !cryptox.EqualDigest(d, v.keyDigest) {
		return nil, common.ErrAuthentication
	}
	return sealerFor(key, v.current)
}

// authorizeCRUD is authorize plus the check that no rotation is pending.
func (v *Vault) authorizeCRUD(key []byte) (*sealer, error) {
	s, err := v.authorize(key)
	if err != nil {
		return nil, err
	}
	if v.rotating {
		s.wipe()
		return nil, common.ErrRotationInProgress
	}
	return s, nil
}

// Info is a non-secret summary of the open vault.
type Info struct {
	State           State
	VaultID         string
	CipherSuite     string
	KeyEpoch        int64
	CreationTime    time.Time
	ModifiedTime    time.Time
	LastReadTime    time.Time
	RotationPending bool
}

// Status reports the session state and, once a vault exists, its metadata.
func (v *Vault) Status(ctx context.Context) (Info, error) {
	v.mu.Lock()
	defer v.mu.Unlock()

	info := Info{State: v.state, RotationPending: v.rotating}
	if v.state != StateLocked && v.state != StateUnlocked {
		return info, nil
	}
	meta, err := v.meta.Get(ctx)
	if err != nil {
		return info, err
	}
	info.VaultID = meta.VaultID.String()
	info.CipherSuite = meta.CipherSuite
	info.KeyEpoch = meta.KeyEpoch
	info.CreationTime = meta.CreationTime
	info.ModifiedTime = meta.ModifiedTime
	info.LastReadTime = meta.LastReadTime
	return info, nil
}
