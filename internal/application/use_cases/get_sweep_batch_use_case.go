package use_cases

import (
	"context"
	"strings"

	"invoicesweep/internal/application/dto"
	portsin "invoicesweep/internal/application/ports/in"
	portsout "invoicesweep/internal/application/ports/out"
	valueobjects "invoicesweep/internal/domain/value_objects"
	apperrors "invoicesweep/internal/shared_kernel/errors"

	"github.com/google/uuid"
)

type getSweepBatchUseCase struct {
	readModel portsout.SweepBatchReadModel
}

func NewGetSweepBatchUseCase(readModel portsout.SweepBatchReadModel) portsin.GetSweepBatchUseCase {
	return &getSweepBatchUseCase{readModel: readModel}
}

func (u *getSweepBatchUseCase) Execute(ctx context.Context, query dto.GetSweepBatchQuery) (dto.SweepBatchResource, *apperrors.AppError) {
	if u.readModel == nil {
		return dto.SweepBatchResource{}, apperrors.NewInternal(
			"sweep_batch_read_model_missing",
			"sweep batch read model is required",
			nil,
		)
	}

	id := strings.TrimSpace(query.ID)
	if _, err := uuid.Parse(id); err != nil {
		return dto.SweepBatchResource{}, apperrors.NewValidation(
			"invalid_request",
			"id must be a uuid",
			map[string]any{"field": "id"},
		)
	}

	record, found, appErr := u.readModel.GetByID(ctx, id)
	if appErr != nil {
		return dto.SweepBatchResource{}, appErr
	}
	if !found {
		return dto.SweepBatchResource{}, apperrors.NewNotFound(
			"sweep_batch_not_found",
			"sweep batch not found",
			map[string]any{"id": id},
		)
	}

	return toSweepBatchResource(record), nil
}

func toSweepBatchResource(record dto.SweepBatchRecord) dto.SweepBatchResource {
	assetTypes := make([]string, 0, len(record.AssetTypes))
	for _, asset := range record.AssetTypes {
		assetTypes = append(assetTypes, asset.String())
	}

	transfers := make([]dto.SweepTransferResource, 0, len(record.Transfers))
	for _, transfer := range record.Transfers {
		transfers = append(transfers, dto.SweepTransferResource{
			UserID:     transfer.UserID.String(),
			SubAccount: valueobjects.FormatAddress(transfer.From),
			AssetType:  transfer.Asset.String(),
			Receiver:   valueobjects.FormatAddress(transfer.To),
			Amount:     transfer.Amount.String(),
		})
	}

	return dto.SweepBatchResource{
		ID:            record.ID,
		Mode:          record.Mode.String(),
		Principal:     valueobjects.FormatAddress(record.Principal),
		TokenReceiver: valueobjects.FormatAddress(record.Routing.TokenReceiver),
		EthReceiver:   valueobjects.FormatAddress(record.Routing.EthReceiver),
		UserCount:     len(record.UserIDs),
		AssetTypes:    assetTypes,
		Transfers:     transfers,
		CreatedAt:     record.CreatedAt,
	}
}
