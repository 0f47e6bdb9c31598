package use_cases

import (
	"context"
	"time"

	"invoicesweep/internal/application/dto"
	portsin "invoicesweep/internal/application/ports/in"
	portsout "invoicesweep/internal/application/ports/out"
	"invoicesweep/internal/domain/entities"
	"invoicesweep/internal/domain/policies"
	valueobjects "invoicesweep/internal/domain/value_objects"
	apperrors "invoicesweep/internal/shared_kernel/errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	withdrawResultCommitted = "committed"
	withdrawResultRejected  = "rejected"
	withdrawResultFailed    = "failed"
)

type WithdrawDependencies struct {
	Repository portsout.ControllerStateRepository
	Deriver    portsout.SubAccountAddressDeriver
	Ledger     portsout.AssetLedger
	Lock       portsout.BatchLock
	Publisher  portsout.SweepEventPublisher
	Metrics    portsout.SweepMetrics
	Budget     policies.BatchBudget
	Clock      Clock
	Logger     logrus.FieldLogger
}

type withdrawUseCase struct {
	repository portsout.ControllerStateRepository
	deriver    portsout.SubAccountAddressDeriver
	ledger     portsout.AssetLedger
	lock       portsout.BatchLock
	publisher  portsout.SweepEventPublisher
	metrics    portsout.SweepMetrics
	budget     policies.BatchBudget
	clock      Clock
	logger     logrus.FieldLogger
}

// NewWithdrawUseCase builds the owner-only batch sweep. Every mode sweeps
// the native currency plus the requested token types, and a batch either
// commits entirely or leaves every balance untouched.
func NewWithdrawUseCase(deps WithdrawDependencies) portsin.WithdrawUseCase {
	useCase := &withdrawUseCase{
		repository: deps.Repository,
		deriver:    deps.Deriver,
		ledger:     deps.Ledger,
		lock:       deps.Lock,
		publisher:  deps.Publisher,
		metrics:    deps.Metrics,
		budget:     deps.Budget,
		clock:      deps.Clock,
		logger:     deps.Logger,
	}
	if useCase.metrics == nil {
		useCase.metrics = noopSweepMetrics{}
	}
	if useCase.budget.MaxEntries <= 0 {
		useCase.budget = policies.NewBatchBudget(0)
	}
	if useCase.clock == nil {
		useCase.clock = NewSystemClock()
	}
	if useCase.logger == nil {
		useCase.logger = discardLogger()
	}

	return useCase
}

type withdrawRequest struct {
	mode      valueobjects.WithdrawMode
	principal common.Address
	userIDs   []valueobjects.UserID
	assets    []valueobjects.AssetType
	routing   dto.SweepRouting
}

func (u *withdrawUseCase) Execute(ctx context.Context, command dto.WithdrawCommand) (dto.WithdrawOutput, *apperrors.AppError) {
	startedAt := time.Now()
	mode := string(command.Mode)

	output, result, appErr := u.execute(ctx, command)
	u.metrics.ObserveWithdraw(mode, result, time.Since(startedAt))
	if appErr != nil {
		return dto.WithdrawOutput{}, appErr
	}

	return output, nil
}

func (u *withdrawUseCase) execute(ctx context.Context, command dto.WithdrawCommand) (dto.WithdrawOutput, string, *apperrors.AppError) {
	if u.ledger == nil {
		return dto.WithdrawOutput{}, withdrawResultFailed, apperrors.NewInternal(
			"asset_ledger_missing",
			"asset ledger is required",
			nil,
		)
	}

	request, appErr := u.parse(command)
	if appErr != nil {
		return dto.WithdrawOutput{}, withdrawResultRejected, appErr
	}

	release, appErr := acquireBatchLock(ctx, u.lock)
	if appErr != nil {
		return dto.WithdrawOutput{}, withdrawResultFailed, appErr
	}
	defer release()

	state, appErr := loadControllerState(ctx, u.repository)
	if appErr != nil {
		return dto.WithdrawOutput{}, withdrawResultFailed, appErr
	}
	accounts, appErr := u.authorize(state, request)
	if appErr != nil {
		return dto.WithdrawOutput{}, withdrawResultRejected, appErr
	}

	record := dto.SweepBatchRecord{
		ID:         uuid.NewString(),
		Mode:       request.mode,
		Principal:  request.principal,
		Routing:    request.routing,
		UserIDs:    request.userIDs,
		AssetTypes: request.assets,
		CreatedAt:  u.clock.NowUTC(),
	}

	sweeper := newSubAccountSweeper(state.ControllerAddress)
	appErr = u.ledger.Atomic(ctx, func(tx portsout.AssetLedgerTx) *apperrors.AppError {
		transfers, sweepErr := u.sweep(ctx, tx, sweeper, state.ControllerAddress, request, accounts)
		if sweepErr != nil {
			return sweepErr
		}
		record.Transfers = transfers
		return tx.RecordSweepBatch(ctx, record)
	})
	if appErr != nil {
		u.logger.WithFields(logrus.Fields{
			"mode":  request.mode.String(),
			"users": len(request.userIDs),
			"code":  appErr.Code,
		}).Warn("withdraw batch rolled back")
		return dto.WithdrawOutput{}, withdrawResultFailed, appErr
	}

	u.recordTransferMetrics(record.Transfers)
	u.logger.Infof(
		"withdraw batch committed batch_id=%s mode=%s users=%d assets=%d transfers=%d",
		record.ID,
		record.Mode,
		len(record.UserIDs),
		len(record.AssetTypes),
		len(record.Transfers),
	)
	if u.publisher != nil {
		if publishErr := u.publisher.PublishSweepCompleted(ctx, record); publishErr != nil {
			u.logger.Warnf("sweep event publish failed batch_id=%s code=%s message=%s", record.ID, publishErr.Code, publishErr.Message)
		}
	}

	return dto.WithdrawOutput{Batch: toSweepBatchResource(record)}, withdrawResultCommitted, nil
}

func (u *withdrawUseCase) parse(command dto.WithdrawCommand) (withdrawRequest, *apperrors.AppError) {
	mode, appErr := valueobjects.ParseWithdrawMode(string(command.Mode))
	if appErr != nil {
		return withdrawRequest{}, appErr
	}
	principal, appErr := parsePrincipal(command.PrincipalAddress)
	if appErr != nil {
		return withdrawRequest{}, appErr
	}
	userIDs, appErr := valueobjects.ParseUserIDs(command.UserIDs)
	if appErr != nil {
		return withdrawRequest{}, appErr
	}
	requested, appErr := parseAssetTypes(command.AssetTypes)
	if appErr != nil {
		return withdrawRequest{}, appErr
	}

	var routing dto.SweepRouting
	switch mode {
	case valueobjects.WithdrawModeInTwo:
		tokenReceiver, parseErr := valueobjects.ParseNonZeroAddress("token_receiver", command.TokenReceiver)
		if parseErr != nil {
			return withdrawRequest{}, parseErr
		}
		ethReceiver, parseErr := valueobjects.ParseNonZeroAddress("eth_receiver", command.EthReceiver)
		if parseErr != nil {
			return withdrawRequest{}, parseErr
		}
		routing = dto.SweepRouting{TokenReceiver: tokenReceiver, EthReceiver: ethReceiver}
	default:
		receiver, parseErr := valueobjects.ParseNonZeroAddress("receiver", command.Receiver)
		if parseErr != nil {
			return withdrawRequest{}, parseErr
		}
		routing = dto.SweepRouting{TokenReceiver: receiver, EthReceiver: receiver}
	}

	return withdrawRequest{
		mode:      mode,
		principal: principal,
		userIDs:   userIDs,
		assets:    valueobjects.SweepAssetSet(requested),
		routing:   routing,
	}, nil
}

func (u *withdrawUseCase) authorize(state entities.ControllerState, request withdrawRequest) ([]subAccount, *apperrors.AppError) {
	if appErr := state.RequireOwner(request.principal); appErr != nil {
		return nil, appErr
	}
	if appErr := state.RequireWhitelisted(request.routing.TokenReceiver, request.routing.EthReceiver); appErr != nil {
		return nil, appErr
	}
	if appErr := u.budget.Check(len(request.userIDs), len(request.assets)); appErr != nil {
		return nil, appErr
	}

	addresses, appErr := deriveSubAccounts(u.deriver, state, request.userIDs)
	if appErr != nil {
		return nil, appErr
	}

	accounts := make([]subAccount, 0, len(addresses))
	for index, address := range addresses {
		accounts = append(accounts, subAccount{UserID: request.userIDs[index], Address: address})
	}

	return accounts, nil
}

func (u *withdrawUseCase) sweep(
	ctx context.Context,
	tx portsout.AssetLedgerTx,
	sweeper subAccountSweeper,
	caller common.Address,
	request withdrawRequest,
	accounts []subAccount,
) ([]dto.SweepTransfer, *apperrors.AppError) {
	if request.mode == valueobjects.WithdrawModeStandard {
		transfers := make([]dto.SweepTransfer, 0, len(accounts))
		for _, account := range accounts {
			swept, appErr := sweeper.Sweep(ctx, tx, caller, account, request.assets, request.routing)
			if appErr != nil {
				return nil, appErr
			}
			transfers = append(transfers, swept...)
		}
		return transfers, nil
	}

	return sweeper.SweepBatch(ctx, tx, caller, accounts, request.assets, request.routing)
}

func (u *withdrawUseCase) recordTransferMetrics(transfers []dto.SweepTransfer) {
	counts := map[string]int{}
	for _, transfer := range transfers {
		counts[transfer.Asset.Kind()]++
	}
	for kind, count := range counts {
		u.metrics.AddSweepTransfers(kind, count)
	}
}
