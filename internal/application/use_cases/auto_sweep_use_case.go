package use_cases

import (
	"context"
	"strings"

	"invoicesweep/internal/application/dto"
	portsin "invoicesweep/internal/application/ports/in"
	portsout "invoicesweep/internal/application/ports/out"
	valueobjects "invoicesweep/internal/domain/value_objects"
	apperrors "invoicesweep/internal/shared_kernel/errors"
)

const (
	autoSweepResultIdle   = "idle"
	autoSweepResultSwept  = "swept"
	autoSweepResultFailed = "failed"
)

type AutoSweepTarget struct {
	Receiver   string
	AssetTypes []string
}

type autoSweepUseCase struct {
	repository portsout.ControllerStateRepository
	registry   portsout.SubAccountRegistry
	withdraw   portsin.WithdrawUseCase
	target     AutoSweepTarget
	metrics    portsout.SweepMetrics
}

// NewAutoSweepUseCase claims registered sub-accounts and sweeps them to the
// configured receiver on behalf of the controller owner.
func NewAutoSweepUseCase(
	repository portsout.ControllerStateRepository,
	registry portsout.SubAccountRegistry,
	withdraw portsin.WithdrawUseCase,
	target AutoSweepTarget,
	metrics portsout.SweepMetrics,
) portsin.AutoSweepUseCase {
	if metrics == nil {
		metrics = noopSweepMetrics{}
	}

	return &autoSweepUseCase{
		repository: repository,
		registry:   registry,
		withdraw:   withdraw,
		target:     target,
		metrics:    metrics,
	}
}

func (u *autoSweepUseCase) Execute(ctx context.Context, command dto.AutoSweepCommand) (dto.AutoSweepOutput, *apperrors.AppError) {
	if u.registry == nil {
		return dto.AutoSweepOutput{}, apperrors.NewInternal(
			"sub_account_registry_missing",
			"sub-account registry is required",
			nil,
		)
	}
	if u.withdraw == nil {
		return dto.AutoSweepOutput{}, apperrors.NewInternal(
			"withdraw_use_case_missing",
			"withdraw use case is required",
			nil,
		)
	}
	if strings.TrimSpace(u.target.Receiver) == "" {
		return dto.AutoSweepOutput{}, apperrors.NewValidation(
			"autosweep_receiver_missing",
			"auto-sweep receiver is required",
			nil,
		)
	}
	if command.BatchSize <= 0 {
		return dto.AutoSweepOutput{}, apperrors.NewValidation(
			"autosweep_batch_size_invalid",
			"auto-sweep batch size must be greater than zero",
			map[string]any{"batch_size": command.BatchSize},
		)
	}
	workerID := strings.TrimSpace(command.WorkerID)
	if workerID == "" {
		return dto.AutoSweepOutput{}, apperrors.NewValidation(
			"autosweep_worker_id_invalid",
			"auto-sweep worker id is required",
			nil,
		)
	}
	if command.LeaseDuration <= 0 {
		return dto.AutoSweepOutput{}, apperrors.NewValidation(
			"autosweep_lease_duration_invalid",
			"auto-sweep lease duration must be greater than zero",
			map[string]any{"lease_duration": command.LeaseDuration.String()},
		)
	}

	state, appErr := loadControllerState(ctx, u.repository)
	if appErr != nil {
		u.metrics.IncAutoSweepCycle(autoSweepResultFailed)
		return dto.AutoSweepOutput{}, appErr
	}

	now := command.Now.UTC()
	claimed, appErr := u.registry.ClaimForSweep(ctx, now, command.BatchSize, workerID, now.Add(command.LeaseDuration))
	if appErr != nil {
		u.metrics.IncAutoSweepCycle(autoSweepResultFailed)
		return dto.AutoSweepOutput{}, appErr
	}
	output := dto.AutoSweepOutput{Claimed: len(claimed)}
	if len(claimed) == 0 {
		u.metrics.IncAutoSweepCycle(autoSweepResultIdle)
		return output, nil
	}

	userIDs := make([]string, 0, len(claimed))
	claimedIDs := make([]valueobjects.UserID, 0, len(claimed))
	for _, record := range claimed {
		userIDs = append(userIDs, record.UserID.String())
		claimedIDs = append(claimedIDs, record.UserID)
	}

	withdrawn, appErr := u.withdraw.Execute(ctx, dto.WithdrawCommand{
		PrincipalAddress: valueobjects.FormatAddress(state.Owner),
		Mode:             valueobjects.WithdrawModeInOne,
		UserIDs:          userIDs,
		AssetTypes:       u.target.AssetTypes,
		Receiver:         u.target.Receiver,
	})
	if appErr != nil {
		u.metrics.IncAutoSweepCycle(autoSweepResultFailed)
		output.Errors = len(claimed)
		return output, appErr
	}

	if markErr := u.registry.MarkSwept(ctx, claimedIDs, workerID, now); markErr != nil {
		u.metrics.IncAutoSweepCycle(autoSweepResultFailed)
		output.Errors = len(claimed)
		output.BatchID = withdrawn.Batch.ID
		return output, markErr
	}

	u.metrics.IncAutoSweepCycle(autoSweepResultSwept)
	output.Swept = len(claimed)
	output.Transfers = len(withdrawn.Batch.Transfers)
	output.BatchID = withdrawn.Batch.ID
	return output, nil
}
