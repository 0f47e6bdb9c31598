//go:build !integration

package use_cases

import (
	"testing"

	"invoicesweep/internal/application/dto"
	valueobjects "invoicesweep/internal/domain/value_objects"
	apperrors "invoicesweep/internal/shared_kernel/errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var nativeAsset = common.Address{}

func TestWithdrawSingleUserSingleToken(t *testing.T) {
	f := newSweepFixture(t, 0)
	user := testUserID(1)
	subAccount := f.addressOf(user)
	f.fund(user, nativeAsset, 1)
	f.fund(user, testTokenA, 1)

	output, appErr := f.withdraw.Execute(f.ctx, dto.WithdrawCommand{
		PrincipalAddress: testOwnerHex,
		Mode:             valueobjects.WithdrawModeStandard,
		UserIDs:          []string{user},
		AssetTypes:       []string{testTokenA.Hex()},
		Receiver:         testReceiver.Hex(),
	})
	require.Nil(t, appErr)

	assert.Equal(t, int64(1), f.balanceOf(nativeAsset, testReceiver).Int64())
	assert.Equal(t, int64(1), f.balanceOf(testTokenA, testReceiver).Int64())
	assert.Zero(t, f.balanceOf(nativeAsset, subAccount).Sign())
	assert.Zero(t, f.balanceOf(testTokenA, subAccount).Sign())

	assert.Equal(t, "standard", output.Batch.Mode)
	assert.Len(t, output.Batch.Transfers, 2)
	assert.Equal(t, []string{"native", testTokenA.Hex()}, output.Batch.AssetTypes)
	assert.Equal(t, 1, f.metrics.withdraws["standard/committed"])
	assert.Equal(t, 1, f.metrics.transfers["native"])
	assert.Equal(t, 1, f.metrics.transfers["token"])
	require.Len(t, f.publisher.records, 1)
	assert.Equal(t, output.Batch.ID, f.publisher.records[0].ID)

	stored, found, storeErr := f.ledger.GetByID(f.ctx, output.Batch.ID)
	require.Nil(t, storeErr)
	require.True(t, found)
	assert.Len(t, stored.Transfers, 2)
}

func TestWithdrawInTwoRoutesAssetsByKind(t *testing.T) {
	f := newSweepFixture(t, 0)
	user := testUserID(7)
	f.fund(user, nativeAsset, 50)
	f.fund(user, testTokenA, 10)
	f.fund(user, testTokenB, 20)
	f.fund(user, testTokenC, 30)

	_, appErr := f.withdraw.Execute(f.ctx, dto.WithdrawCommand{
		PrincipalAddress: testOwnerHex,
		Mode:             valueobjects.WithdrawModeInTwo,
		UserIDs:          []string{user},
		AssetTypes:       []string{testTokenA.Hex(), testTokenB.Hex(), testTokenC.Hex()},
		TokenReceiver:    testTokenReceiver.Hex(),
		EthReceiver:      testEthReceiver.Hex(),
	})
	require.Nil(t, appErr)

	assert.Equal(t, int64(10), f.balanceOf(testTokenA, testTokenReceiver).Int64())
	assert.Equal(t, int64(20), f.balanceOf(testTokenB, testTokenReceiver).Int64())
	assert.Equal(t, int64(30), f.balanceOf(testTokenC, testTokenReceiver).Int64())
	assert.Zero(t, f.balanceOf(nativeAsset, testTokenReceiver).Sign())

	assert.Equal(t, int64(50), f.balanceOf(nativeAsset, testEthReceiver).Int64())
	for _, token := range []common.Address{testTokenA, testTokenB, testTokenC} {
		assert.Zero(t, f.balanceOf(token, testEthReceiver).Sign())
	}
}

func TestWithdrawInOneRepeatedWithoutDepositsIsNoop(t *testing.T) {
	f := newSweepFixture(t, 0)
	tokens := []common.Address{testTokenA, testTokenB, testTokenC}
	users := make([]string, 0, 5)
	holders := []common.Address{testReceiver}
	for n := 1; n <= 5; n++ {
		user := testUserID(n)
		users = append(users, user)
		holders = append(holders, f.addressOf(user))
		f.fund(user, nativeAsset, int64(n*100))
		for index, token := range tokens {
			f.fund(user, token, int64(n*10+index))
		}
	}
	command := dto.WithdrawCommand{
		PrincipalAddress: testOwnerHex,
		Mode:             valueobjects.WithdrawModeInOne,
		UserIDs:          users,
		AssetTypes:       []string{testTokenA.Hex(), testTokenB.Hex(), testTokenC.Hex()},
		Receiver:         testReceiver.Hex(),
	}

	first, appErr := f.withdraw.Execute(f.ctx, command)
	require.Nil(t, appErr)
	assert.Len(t, first.Batch.Transfers, 20)
	assert.Equal(t, int64(1500), f.balanceOf(nativeAsset, testReceiver).Int64())

	allAssets := append([]common.Address{nativeAsset}, tokens...)
	before := f.snapshot(holders, allAssets)

	second, appErr := f.withdraw.Execute(f.ctx, command)
	require.Nil(t, appErr)
	assert.Empty(t, second.Batch.Transfers)
	assert.Equal(t, before, f.snapshot(holders, allAssets))
}

func TestWithdrawAndWithdrawInOneProduceIdenticalOutcomes(t *testing.T) {
	users := []string{testUserID(1), testUserID(2), testUserID(1), testUserID(3)}
	tokens := []string{testTokenA.Hex(), testTokenB.Hex()}

	run := func(mode valueobjects.WithdrawMode) (*sweepFixture, dto.SweepBatchResource) {
		f := newSweepFixture(t, 0)
		f.fund(testUserID(1), nativeAsset, 3)
		f.fund(testUserID(1), testTokenA, 5)
		f.fund(testUserID(2), testTokenB, 7)
		f.fund(testUserID(3), nativeAsset, 11)

		output, appErr := f.withdraw.Execute(f.ctx, dto.WithdrawCommand{
			PrincipalAddress: testOwnerHex,
			Mode:             mode,
			UserIDs:          users,
			AssetTypes:       tokens,
			Receiver:         testReceiver.Hex(),
		})
		require.Nil(t, appErr)
		return f, output.Batch
	}

	standardFixture, standard := run(valueobjects.WithdrawModeStandard)
	bulkFixture, bulk := run(valueobjects.WithdrawModeInOne)

	assert.Equal(t, standard.Transfers, bulk.Transfers)
	holders := []common.Address{testReceiver}
	for _, user := range users {
		holders = append(holders, standardFixture.addressOf(user))
	}
	assets := []common.Address{nativeAsset, testTokenA, testTokenB}
	assert.Equal(t, standardFixture.snapshot(holders, assets), bulkFixture.snapshot(holders, assets))
	assert.Equal(t, int64(14), bulkFixture.balanceOf(nativeAsset, testReceiver).Int64())
}

func TestWithdrawRejectsNonWhitelistedReceiversInEveryMode(t *testing.T) {
	stranger := common.HexToAddress("0x9999999999999999999999999999999999999999")
	commands := []dto.WithdrawCommand{
		{Mode: valueobjects.WithdrawModeStandard, Receiver: stranger.Hex()},
		{Mode: valueobjects.WithdrawModeInOne, Receiver: stranger.Hex()},
		{Mode: valueobjects.WithdrawModeInTwo, TokenReceiver: testTokenReceiver.Hex(), EthReceiver: stranger.Hex()},
		{Mode: valueobjects.WithdrawModeInTwo, TokenReceiver: stranger.Hex(), EthReceiver: testEthReceiver.Hex()},
	}

	for _, command := range commands {
		f := newSweepFixture(t, 0)
		user := testUserID(1)
		subAccount := f.addressOf(user)
		f.fund(user, nativeAsset, 9)
		f.fund(user, testTokenA, 4)

		command.PrincipalAddress = testOwnerHex
		command.UserIDs = []string{user}
		command.AssetTypes = []string{testTokenA.Hex()}

		_, appErr := f.withdraw.Execute(f.ctx, command)
		require.NotNil(t, appErr, "mode %s", command.Mode)
		assert.Equal(t, "receiver_not_whitelisted", appErr.Code)
		assert.Equal(t, apperrors.TypeForbidden, appErr.Type)

		assert.Equal(t, int64(9), f.balanceOf(nativeAsset, subAccount).Int64())
		assert.Equal(t, int64(4), f.balanceOf(testTokenA, subAccount).Int64())
		assert.Empty(t, f.publisher.records)
		assert.Equal(t, 1, f.metrics.withdraws[string(command.Mode)+"/rejected"])
	}
}

func TestWithdrawRequiresOwner(t *testing.T) {
	f := newSweepFixture(t, 0)
	user := testUserID(1)
	f.fund(user, nativeAsset, 9)

	for _, principal := range []string{testStrangerHex, testControllerHex} {
		_, appErr := f.withdraw.Execute(f.ctx, dto.WithdrawCommand{
			PrincipalAddress: principal,
			Mode:             valueobjects.WithdrawModeStandard,
			UserIDs:          []string{user},
			Receiver:         testReceiver.Hex(),
		})
		require.NotNil(t, appErr)
		assert.Equal(t, "sender_not_owner", appErr.Code)
	}

	_, appErr := f.withdraw.Execute(f.ctx, dto.WithdrawCommand{
		Mode:     valueobjects.WithdrawModeStandard,
		UserIDs:  []string{user},
		Receiver: testReceiver.Hex(),
	})
	require.NotNil(t, appErr)
	assert.Equal(t, apperrors.TypeUnauthorized, appErr.Type)
	assert.Equal(t, int64(9), f.balanceOf(nativeAsset, f.addressOf(user)).Int64())
}

func TestWithdrawRejectsBatchesOverBudget(t *testing.T) {
	f := newSweepFixture(t, 4)
	users := []string{testUserID(1), testUserID(2), testUserID(3)}
	f.fund(users[0], nativeAsset, 1)

	_, appErr := f.withdraw.Execute(f.ctx, dto.WithdrawCommand{
		PrincipalAddress: testOwnerHex,
		Mode:             valueobjects.WithdrawModeInOne,
		UserIDs:          users,
		AssetTypes:       []string{testTokenA.Hex()},
		Receiver:         testReceiver.Hex(),
	})
	require.NotNil(t, appErr)
	assert.Equal(t, "batch_budget_exceeded", appErr.Code)
	assert.Equal(t, apperrors.TypeResourceExhausted, appErr.Type)
	assert.Equal(t, 6, appErr.Details["entries"])
	assert.Equal(t, int64(1), f.balanceOf(nativeAsset, f.addressOf(users[0])).Int64())
}

func TestWithdrawDeduplicatesAssetTypesAndToleratesNativeSentinel(t *testing.T) {
	f := newSweepFixture(t, 0)
	user := testUserID(4)
	f.fund(user, nativeAsset, 2)
	f.fund(user, testTokenA, 3)

	output, appErr := f.withdraw.Execute(f.ctx, dto.WithdrawCommand{
		PrincipalAddress: testOwnerHex,
		Mode:             valueobjects.WithdrawModeStandard,
		UserIDs:          []string{user},
		AssetTypes:       []string{testTokenA.Hex(), "native", testTokenA.Hex()},
		Receiver:         testReceiver.Hex(),
	})
	require.Nil(t, appErr)
	assert.Equal(t, []string{"native", testTokenA.Hex()}, output.Batch.AssetTypes)
	assert.Len(t, output.Batch.Transfers, 2)
	assert.Equal(t, int64(3), f.balanceOf(testTokenA, testReceiver).Int64())
}

func TestWithdrawValidatesInput(t *testing.T) {
	f := newSweepFixture(t, 0)

	testCases := []struct {
		name    string
		command dto.WithdrawCommand
		code    string
	}{
		{
			name:    "unknown mode",
			command: dto.WithdrawCommand{Mode: "in_three", Receiver: testReceiver.Hex()},
			code:    "invalid_request",
		},
		{
			name:    "bad user id",
			command: dto.WithdrawCommand{Mode: valueobjects.WithdrawModeStandard, UserIDs: []string{"0x01"}, Receiver: testReceiver.Hex()},
			code:    "user_id_invalid",
		},
		{
			name:    "bad asset type",
			command: dto.WithdrawCommand{Mode: valueobjects.WithdrawModeStandard, AssetTypes: []string{"usdt"}, Receiver: testReceiver.Hex()},
			code:    "asset_type_invalid",
		},
		{
			name:    "missing eth receiver",
			command: dto.WithdrawCommand{Mode: valueobjects.WithdrawModeInTwo, TokenReceiver: testTokenReceiver.Hex()},
			code:    "invalid_request",
		},
	}

	for _, testCase := range testCases {
		t.Run(testCase.name, func(t *testing.T) {
			command := testCase.command
			command.PrincipalAddress = testOwnerHex
			_, appErr := f.withdraw.Execute(f.ctx, command)
			require.NotNil(t, appErr)
			assert.Equal(t, testCase.code, appErr.Code)
			assert.Equal(t, apperrors.TypeValidation, appErr.Type)
		})
	}
}

func TestWithdrawEmptyBatchCommitsWithoutTransfers(t *testing.T) {
	f := newSweepFixture(t, 0)

	output, appErr := f.withdraw.Execute(f.ctx, dto.WithdrawCommand{
		PrincipalAddress: testOwnerHex,
		Mode:             valueobjects.WithdrawModeInOne,
		Receiver:         testReceiver.Hex(),
	})
	require.Nil(t, appErr)
	assert.Empty(t, output.Batch.Transfers)
	assert.Equal(t, 0, output.Batch.UserCount)
	assert.Zero(t, f.balanceOf(nativeAsset, testReceiver).Sign())
}
