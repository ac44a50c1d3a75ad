// Package credentials provides the persistence layer for sealed credential
// records.
//
// # Data Model
//
// Each record stores four fields (application, user, password, obs). Every
// field is kept as its own nonce and ciphertext pair, so a field can be
// resealed without touching its neighbours. The optional fields carry an
// explicit has_* flag; an absent field has NULL nonce and ciphertext, while a
// present empty field still has a nonce and a tag-only ciphertext.
//
// Column names are taken from a fixed table keyed by models.Field and are
// never built from caller input.
//
// Key Types
//
//   - type Repository: interface used by the vault
//   - type SQLRepository: SQLite or PostgreSQL implementation over dbx.DBTX
//
// Typical Usage
//
//	repo := credentials.NewSQLiteRepository(tx)
//	id, _ := repo.Insert(ctx, row)
//	one, _ := repo.Get(ctx, id)
//	_ = repo.UpdateFields(ctx, id, map[models.Field]*models.SealedField{models.FieldPassword: sealed})
//	_ = repo.Delete(ctx, id)
package credentials
