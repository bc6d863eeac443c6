package persistence

import (
	"context"
	"testing"
	"time"

	apperrors "terraforming-mars-backend/internal/errors"
	"terraforming-mars-backend/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testServer(id string) model.Server {
	now := time.Now()
	return model.Server{ID: id, Name: "srv", Hostname: "localhost", Port: 1, Status: model.ServerOnline, CreatedAt: now, UpdatedAt: now}
}

func TestOpenRunsMigrationsAndIsQueryable(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	n, err := CountServers(context.Background(), store.DB())
	require.NoError(t, err)
	assert.Equal(t, 0, n)
}

func TestWithTxCommitsOnSuccess(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	err = store.WithTx(context.Background(), func(ctx context.Context, tx *Tx) error {
		return CreateServer(ctx, tx.Ext(), testServer("server-1"))
	})
	require.NoError(t, err)

	_, err = ServerByID(context.Background(), store.DB(), "server-1")
	assert.NoError(t, err, "a committed write is visible outside the transaction")
}

func TestWithTxRollsBackOnDomainError(t *testing.T) {
	store, err := Open(":memory:")
	require.NoError(t, err)
	defer store.Close()

	domainErr := apperrors.New(apperrors.KindMissingFields, "nope")
	err = store.WithTx(context.Background(), func(ctx context.Context, tx *Tx) error {
		if createErr := CreateServer(ctx, tx.Ext(), testServer("server-2")); createErr != nil {
			return createErr
		}
		return domainErr
	})
	assert.Equal(t, domainErr, err, "a non-transient domain error is returned unwrapped, not retried")

	_, lookupErr := ServerByID(context.Background(), store.DB(), "server-2")
	assert.Error(t, lookupErr, "the rollback discards the write the failed attempt made")
}

func TestNotFoundWrapsSQLNoRowsWithTheGivenKind(t *testing.T) {
	err := NotFound(apperrors.KindServerNotFound, "server", "missing-id")
	var appErr *apperrors.Error
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, apperrors.KindServerNotFound, appErr.Kind)
	assert.Contains(t, appErr.Error(), "missing-id")
}
