package use_cases

import (
	"context"

	"invoicesweep/internal/application/dto"
	portsin "invoicesweep/internal/application/ports/in"
	portsout "invoicesweep/internal/application/ports/out"
	"invoicesweep/internal/domain/entities"
	valueobjects "invoicesweep/internal/domain/value_objects"
	apperrors "invoicesweep/internal/shared_kernel/errors"

	"github.com/ethereum/go-ethereum/common"
)

type receiverMutation func(state *entities.ControllerState, principal, receiver common.Address) (bool, *apperrors.AppError)

type receiverWhitelistMutator struct {
	repository portsout.ControllerStateRepository
	lock       portsout.BatchLock
}

func (m receiverWhitelistMutator) apply(
	ctx context.Context,
	rawPrincipal string,
	rawReceiver string,
	mutate receiverMutation,
) (dto.ReceiverMutationOutput, *apperrors.AppError) {
	principal, appErr := parsePrincipal(rawPrincipal)
	if appErr != nil {
		return dto.ReceiverMutationOutput{}, appErr
	}
	receiver, appErr := valueobjects.ParseAddress("address", rawReceiver)
	if appErr != nil {
		return dto.ReceiverMutationOutput{}, appErr
	}

	release, appErr := acquireBatchLock(ctx, m.lock)
	if appErr != nil {
		return dto.ReceiverMutationOutput{}, appErr
	}
	defer release()

	state, appErr := loadControllerState(ctx, m.repository)
	if appErr != nil {
		return dto.ReceiverMutationOutput{}, appErr
	}

	changed, appErr := mutate(&state, principal, receiver)
	if appErr != nil {
		return dto.ReceiverMutationOutput{}, appErr
	}
	if changed {
		if saveErr := m.repository.Save(ctx, state); saveErr != nil {
			return dto.ReceiverMutationOutput{}, saveErr
		}
	}

	return dto.ReceiverMutationOutput{
		Receiver:  valueobjects.FormatAddress(receiver),
		Changed:   changed,
		Receivers: formatAddresses(state.ReceiverList()),
	}, nil
}

type addReceiverUseCase struct {
	mutator receiverWhitelistMutator
}

func NewAddReceiverUseCase(repository portsout.ControllerStateRepository, lock portsout.BatchLock) portsin.AddReceiverUseCase {
	return &addReceiverUseCase{mutator: receiverWhitelistMutator{repository: repository, lock: lock}}
}

func (u *addReceiverUseCase) Execute(ctx context.Context, command dto.AddReceiverCommand) (dto.ReceiverMutationOutput, *apperrors.AppError) {
	return u.mutator.apply(ctx, command.PrincipalAddress, command.Receiver, func(state *entities.ControllerState, principal, receiver common.Address) (bool, *apperrors.AppError) {
		return state.AddReceiver(principal, receiver)
	})
}

type removeReceiverUseCase struct {
	mutator receiverWhitelistMutator
}

func NewRemoveReceiverUseCase(repository portsout.ControllerStateRepository, lock portsout.BatchLock) portsin.RemoveReceiverUseCase {
	return &removeReceiverUseCase{mutator: receiverWhitelistMutator{repository: repository, lock: lock}}
}

func (u *removeReceiverUseCase) Execute(ctx context.Context, command dto.RemoveReceiverCommand) (dto.ReceiverMutationOutput, *apperrors.AppError) {
	return u.mutator.apply(ctx, command.PrincipalAddress, command.Receiver, func(state *entities.ControllerState, principal, receiver common.Address) (bool, *apperrors.AppError) {
		return state.RemoveReceiver(principal, receiver)
	})
}
