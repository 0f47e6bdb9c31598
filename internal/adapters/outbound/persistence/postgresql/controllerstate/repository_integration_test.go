//go:build integration

package controllerstate

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	postgresqlbootstrap "invoicesweep/internal/adapters/outbound/persistence/postgresql/bootstrap"
	postgresqlshared "invoicesweep/internal/adapters/outbound/persistence/postgresql/shared"
	"invoicesweep/internal/domain/entities"
	valueobjects "invoicesweep/internal/domain/value_objects"
	apperrors "invoicesweep/internal/shared_kernel/errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

var (
	controller = common.HexToAddress("0x1111111111111111111111111111111111111111")
	owner      = common.HexToAddress("0x2222222222222222222222222222222222222222")
	receiverA  = common.HexToAddress("0x3333333333333333333333333333333333333333")
	receiverB  = common.HexToAddress("0x4444444444444444444444444444444444444444")
)

func newIntegrationRepository(t *testing.T) *Repository {
	t.Helper()

	databaseURL := os.Getenv("TEST_DATABASE_URL")
	if databaseURL == "" {
		t.Skip("set TEST_DATABASE_URL to run integration test")
	}

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	gateway := postgresqlbootstrap.NewGateway(databaseURL, "integration-target", filepath.Join("..", "migrations"), logger)
	if appErr := gateway.RunMigrations(ctx); appErr != nil {
		t.Fatalf("expected migrations to apply, got %v", appErr)
	}

	db := postgresqlshared.NewDatabasePool(databaseURL, logger)
	t.Cleanup(func() { _ = db.Close() })
	if _, err := db.ExecContext(ctx, `TRUNCATE app.receiver_whitelist, app.controller_state`); err != nil {
		t.Fatalf("failed to reset controller tables: %v", err)
	}

	return NewRepository(db, logger)
}

func TestRepositoryRoundTripsStateAndWhitelist(t *testing.T) {
	repository := newIntegrationRepository(t)
	ctx := context.Background()

	_, found, appErr := repository.Load(ctx)
	require.Nil(t, appErr)
	require.False(t, found)

	state, appErr := entities.NewControllerState(controller, owner)
	require.Nil(t, appErr)
	require.Nil(t, repository.Save(ctx, state))

	fingerprint := valueobjects.FingerprintTemplate([]byte{0xde, 0xad, 0xbe, 0xef})
	initializedAt := time.Now().UTC().Truncate(time.Microsecond)
	require.Nil(t, state.Initialize(owner, fingerprint, initializedAt))
	_, appErr = state.AddReceiver(owner, receiverA)
	require.Nil(t, appErr)
	_, appErr = state.AddReceiver(owner, receiverB)
	require.Nil(t, appErr)
	require.Nil(t, repository.Save(ctx, state))

	loaded, found, appErr := repository.Load(ctx)
	require.Nil(t, appErr)
	require.True(t, found)
	require.Equal(t, controller, loaded.ControllerAddress)
	require.Equal(t, owner, loaded.Owner)
	require.True(t, loaded.Initialized())
	require.Equal(t, fingerprint, loaded.TemplateFingerprint)
	require.True(t, loaded.InitializedAt.Equal(initializedAt))
	require.ElementsMatch(t, []common.Address{receiverA, receiverB}, loaded.ReceiverList())

	_, appErr = loaded.RemoveReceiver(owner, receiverA)
	require.Nil(t, appErr)
	require.Nil(t, repository.Save(ctx, loaded))

	reloaded, _, appErr := repository.Load(ctx)
	require.Nil(t, appErr)
	require.Equal(t, []common.Address{receiverB}, reloaded.ReceiverList())
}

func TestRepositoryRejectsIdentityChange(t *testing.T) {
	repository := newIntegrationRepository(t)
	ctx := context.Background()

	state, appErr := entities.NewControllerState(controller, owner)
	require.Nil(t, appErr)
	require.Nil(t, repository.Save(ctx, state))

	other, appErr := entities.NewControllerState(controller, receiverA)
	require.Nil(t, appErr)

	appErr = repository.Save(ctx, other)
	require.NotNil(t, appErr)
	require.Equal(t, apperrors.TypeConflict, appErr.Type)
	require.Equal(t, "controller_identity_immutable", appErr.Code)
}
