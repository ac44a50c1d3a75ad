package rotation

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/credvault/internal/common"
	"github.com/dmitrijs2005/credvault/internal/models"
	"github.com/dmitrijs2005/credvault/internal/testutil"
	"github.com/stretchr/testify/require"
)

func state() *models.RotationState {
	return &models.RotationState{
		TargetEpoch: 1,
		Salt:        []byte("new-salt"),
		Verifier:    models.SealedField{Nonce: []byte("n"), Ciphertext: []byte("c")},
	}
}

func TestLifecycle(t *testing.T) {
	r := NewSQLiteRepository(testutil.NewSQLiteDB(t))
	ctx := context.Background()

	_, err := r.Get(ctx)
	require.ErrorIs(t, err, common.ErrNotFound)

	require.NoError(t, r.Create(ctx, state()))
	require.ErrorIs(t, r.Create(ctx, state()), common.ErrRotationInProgress)

	got, err := r.Get(ctx)
	require.NoError(t, err)
	require.Equal(t, state(), got)

	require.NoError(t, r.Delete(ctx))
	require.NoError(t, r.Delete(ctx), "deleting nothing is fine")
	_, err = r.Get(ctx)
	require.ErrorIs(t, err, common.ErrNotFound)
}

func TestClosedDB_WrapsStorageError(t *testing.T) {
	db := testutil.NewSQLiteDB(t)
	r := NewSQLiteRepository(db)
	require.NoError(t, db.Close())

	_, err := r.Get(context.Background())
	require.ErrorIs(t, err, common.ErrStorage)
	require.ErrorIs(t, r.Create(context.Background(), state()), common.ErrStorage)
	require.ErrorIs(t, r.Delete(context.Background()), common.ErrStorage)
}

func TestPostgres_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`(?s)INSERT INTO rotation_state .* VALUES \(1, \$1, \$2, \$3, \$4\)`).
		WithArgs(int64(1), []byte("new-salt"), []byte("n"), []byte("c")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err = NewPostgresRepository(db).Create(context.Background(), state())
	require.ErrorIs(t, err, common.ErrRotationInProgress)
	require.NoError(t, mock.ExpectationsWereMet())
}
