// Package vault implements an encrypted credential vault on top of a SQL
// store.
//
// # Overview
//
// A vault is one metadata record plus any number of credential records.
// The metadata holds a key verifier: the SHA3-256 digest of the vault key,
// sealed under that key. Unlocking succeeds only if the verifier opens and
// the recovered digest matches. The key itself is never stored.
//
// Every field of a record (application, user, password, obs) is sealed on
// its own with a fresh nonce. The associated data of each seal is the vault
// associated data (vault id followed by caller data) and the field name, so
// a ciphertext copied into another field or another vault fails to open.
// The AEAD key is derived from the vault key with HKDF over a per-vault salt.
//
// # Sessions
//
// Vault is an explicit session object:
//
//	Closed --Open--> Locked --Unlock--> Unlocked --Lock--> Locked --Close--> Closed
//	Closed --Open--> Uninitialized --Create--> Unlocked
//
// Credential operations require Unlocked and take the key again on every
// call. Derived keys and plaintext buffers are wiped before each call
// returns.
//
// # Key rotation
//
// RotateKey reseals records one transaction at a time and can be resumed or
// rolled back after an interruption. While a rotation is pending, credential
// operations return common.ErrRotationInProgress.
//
// Typical Usage
//
//	db, repos, _ := repomanager.Open(ctx, repomanager.BackendSQLite, path)
//	v := vault.New(db, repos, vault.WithLogger(log))
//	_ = v.Open(ctx)
//	_ = v.Unlock(ctx, key)
//	id, _ := v.Insert(ctx, key, vault.Credential{User: "alice", Password: "s3cr3t"})
//	c, _ := v.Read(ctx, key, id)
package vault
