//go:build !integration

package use_cases

import (
	"context"
	"fmt"
	"math/big"
	"testing"
	"time"

	"invoicesweep/internal/adapters/outbound/derivation/create2"
	ledgermemory "invoicesweep/internal/adapters/outbound/ledger/memory"
	locallock "invoicesweep/internal/adapters/outbound/lock/local"
	persistencememory "invoicesweep/internal/adapters/outbound/persistence/memory"
	"invoicesweep/internal/application/dto"
	portsin "invoicesweep/internal/application/ports/in"
	"invoicesweep/internal/domain/policies"
	valueobjects "invoicesweep/internal/domain/value_objects"
	apperrors "invoicesweep/internal/shared_kernel/errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/require"
)

const (
	testControllerHex = "0x00000000000000000000000000000000000000C0"
	testOwnerHex      = "0x00000000000000000000000000000000000000a1"
	testStrangerHex   = "0x00000000000000000000000000000000000000b2"
)

var (
	testReceiver      = common.HexToAddress("0x1111111111111111111111111111111111111111")
	testTokenReceiver = common.HexToAddress("0x2222222222222222222222222222222222222222")
	testEthReceiver   = common.HexToAddress("0x3333333333333333333333333333333333333333")
	testTokenA        = common.HexToAddress("0x000000000000000000000000000000000000f0A1")
	testTokenB        = common.HexToAddress("0x000000000000000000000000000000000000F0b2")
	testTokenC        = common.HexToAddress("0x000000000000000000000000000000000000f0c3")
)

type fixedClock struct {
	now time.Time
}

func (f fixedClock) NowUTC() time.Time {
	return f.now
}

type recordingMetrics struct {
	withdraws  map[string]int
	transfers  map[string]int
	deposits   map[string]int
	autoSweeps map[string]int
}

func newRecordingMetrics() *recordingMetrics {
	return &recordingMetrics{
		withdraws:  map[string]int{},
		transfers:  map[string]int{},
		deposits:   map[string]int{},
		autoSweeps: map[string]int{},
	}
}

func (m *recordingMetrics) ObserveWithdraw(mode string, result string, _ time.Duration) {
	m.withdraws[mode+"/"+result]++
}

func (m *recordingMetrics) AddSweepTransfers(assetKind string, count int) {
	m.transfers[assetKind] += count
}

func (m *recordingMetrics) IncDeposits(source string) {
	m.deposits[source]++
}

func (m *recordingMetrics) IncAutoSweepCycle(result string) {
	m.autoSweeps[result]++
}

type recordingPublisher struct {
	records []dto.SweepBatchRecord
}

func (p *recordingPublisher) PublishSweepCompleted(_ context.Context, record dto.SweepBatchRecord) *apperrors.AppError {
	p.records = append(p.records, record)
	return nil
}

type sweepFixture struct {
	t           *testing.T
	ctx         context.Context
	clock       fixedClock
	ledger      *ledgermemory.Ledger
	states      *persistencememory.ControllerStateRepository
	registry    *persistencememory.SubAccountRegistry
	lock        *locallock.BatchLock
	metrics     *recordingMetrics
	publisher   *recordingPublisher
	fingerprint valueobjects.TemplateFingerprint

	withdraw   portsin.WithdrawUseCase
	balance    portsin.GetBalanceUseCase
	compute    portsin.ComputeAddressUseCase
	deposit    portsin.RecordDepositUseCase
	addReceive portsin.AddReceiverUseCase
}

func newSweepFixture(t *testing.T, maxEntries int) *sweepFixture {
	t.Helper()

	f := &sweepFixture{
		t:           t,
		ctx:         context.Background(),
		clock:       fixedClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)},
		ledger:      ledgermemory.NewLedger(),
		states:      persistencememory.NewControllerStateRepository(),
		registry:    persistencememory.NewSubAccountRegistry(),
		lock:        locallock.NewBatchLock(),
		metrics:     newRecordingMetrics(),
		publisher:   &recordingPublisher{},
		fingerprint: valueobjects.FingerprintTemplate([]byte("sweep-template-v1")),
	}
	deriver := create2.NewDeriver()

	_, appErr := NewBootstrapControllerUseCase(f.states, f.lock, f.clock).Execute(f.ctx, dto.BootstrapControllerCommand{
		ControllerAddress:   testControllerHex,
		OwnerAddress:        testOwnerHex,
		TemplateFingerprint: f.fingerprint.String(),
	})
	require.Nil(t, appErr)

	f.withdraw = NewWithdrawUseCase(WithdrawDependencies{
		Repository: f.states,
		Deriver:    deriver,
		Ledger:     f.ledger,
		Lock:       f.lock,
		Publisher:  f.publisher,
		Metrics:    f.metrics,
		Budget:     policies.NewBatchBudget(maxEntries),
		Clock:      f.clock,
	})
	f.balance = NewGetBalanceUseCase(f.states, deriver, f.ledger)
	f.compute = NewComputeAddressUseCase(f.states, deriver)
	f.deposit = NewRecordDepositUseCase(f.states, deriver, f.ledger, f.metrics)
	f.addReceive = NewAddReceiverUseCase(f.states, f.lock)

	for _, receiver := range []common.Address{testReceiver, testTokenReceiver, testEthReceiver} {
		f.whitelist(receiver)
	}

	return f
}

func (f *sweepFixture) whitelist(receiver common.Address) {
	f.t.Helper()
	_, appErr := f.addReceive.Execute(f.ctx, dto.AddReceiverCommand{
		PrincipalAddress: testOwnerHex,
		Receiver:         receiver.Hex(),
	})
	require.Nil(f.t, appErr)
}

func testUserID(n int) string {
	return fmt.Sprintf("0x%064x", n)
}

func assetArg(asset common.Address) string {
	if asset == (common.Address{}) {
		return "native"
	}
	return asset.Hex()
}

func (f *sweepFixture) addressOf(userID string) common.Address {
	f.t.Helper()
	output, appErr := f.compute.Execute(f.ctx, dto.ComputeAddressQuery{UserID: userID})
	require.Nil(f.t, appErr)
	return common.HexToAddress(output.Address)
}

func (f *sweepFixture) fund(userID string, asset common.Address, amount int64) {
	f.t.Helper()
	_, appErr := f.deposit.Execute(f.ctx, dto.RecordDepositCommand{
		Source:    "test",
		AssetType: assetArg(asset),
		UserID:    userID,
		Amount:    big.NewInt(amount).String(),
	})
	require.Nil(f.t, appErr)
}

func (f *sweepFixture) balanceOf(asset common.Address, holder common.Address) *big.Int {
	f.t.Helper()
	balance, appErr := f.ledger.BalanceOf(f.ctx, valueobjects.AssetType{Token: asset}, holder)
	require.Nil(f.t, appErr)
	return balance
}

func (f *sweepFixture) snapshot(holders []common.Address, assets []common.Address) map[string]string {
	out := map[string]string{}
	for _, holder := range holders {
		for _, asset := range assets {
			out[holder.Hex()+"/"+asset.Hex()] = f.balanceOf(asset, holder).String()
		}
	}
	return out
}
