package use_cases

import (
	"context"

	"invoicesweep/internal/application/dto"
	portsin "invoicesweep/internal/application/ports/in"
	portsout "invoicesweep/internal/application/ports/out"
	"invoicesweep/internal/domain/policies"
	valueobjects "invoicesweep/internal/domain/value_objects"
	apperrors "invoicesweep/internal/shared_kernel/errors"
)

type sweepSubAccountUseCase struct {
	repository portsout.ControllerStateRepository
	deriver    portsout.SubAccountAddressDeriver
	ledger     portsout.AssetLedger
	lock       portsout.BatchLock
}

func NewSweepSubAccountUseCase(
	repository portsout.ControllerStateRepository,
	deriver portsout.SubAccountAddressDeriver,
	ledger portsout.AssetLedger,
	lock portsout.BatchLock,
) portsin.SweepSubAccountUseCase {
	return &sweepSubAccountUseCase{
		repository: repository,
		deriver:    deriver,
		ledger:     ledger,
		lock:       lock,
	}
}

func (u *sweepSubAccountUseCase) Execute(ctx context.Context, command dto.SweepSubAccountCommand) *apperrors.AppError {
	caller, appErr := parsePrincipal(command.CallerAddress)
	if appErr != nil {
		return appErr
	}

	state, appErr := loadControllerState(ctx, u.repository)
	if appErr != nil {
		return appErr
	}
	if appErr := policies.RequireControllerCaller(caller, state.ControllerAddress); appErr != nil {
		return appErr
	}
	if u.ledger == nil {
		return apperrors.NewInternal(
			"asset_ledger_missing",
			"asset ledger is required",
			nil,
		)
	}

	userID, appErr := valueobjects.ParseUserID(command.UserID)
	if appErr != nil {
		return appErr
	}
	requested, appErr := parseAssetTypes(command.AssetTypes)
	if appErr != nil {
		return appErr
	}
	receiver, appErr := valueobjects.ParseNonZeroAddress("receiver", command.Receiver)
	if appErr != nil {
		return appErr
	}

	release, appErr := acquireBatchLock(ctx, u.lock)
	if appErr != nil {
		return appErr
	}
	defer release()

	if appErr := state.RequireWhitelisted(receiver); appErr != nil {
		return appErr
	}
	addresses, appErr := deriveSubAccounts(u.deriver, state, []valueobjects.UserID{userID})
	if appErr != nil {
		return appErr
	}

	sweeper := newSubAccountSweeper(state.ControllerAddress)
	account := subAccount{UserID: userID, Address: addresses[0]}
	routing := dto.SweepRouting{TokenReceiver: receiver, EthReceiver: receiver}
	return u.ledger.Atomic(ctx, func(tx portsout.AssetLedgerTx) *apperrors.AppError {
		_, sweepErr := sweeper.Sweep(ctx, tx, caller, account, valueobjects.SweepAssetSet(requested), routing)
		return sweepErr
	})
}
