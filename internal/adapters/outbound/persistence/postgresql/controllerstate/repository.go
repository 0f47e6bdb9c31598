package controllerstate

import (
	"context"
	"database/sql"
	stderrors "errors"
	"time"

	portsout "invoicesweep/internal/application/ports/out"
	"invoicesweep/internal/domain/entities"
	valueobjects "invoicesweep/internal/domain/value_objects"
	apperrors "invoicesweep/internal/shared_kernel/errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
)

// Repository stores the singleton controller row and its receiver whitelist.
type Repository struct {
	db     *sql.DB
	logger logrus.FieldLogger
}

var _ portsout.ControllerStateRepository = (*Repository)(nil)

func NewRepository(db *sql.DB, logger logrus.FieldLogger) *Repository {
	return &Repository{db: db, logger: logger}
}

func (r *Repository) Load(ctx context.Context) (entities.ControllerState, bool, *apperrors.AppError) {
	const query = `
SELECT controller_address, owner_address, template_fingerprint, initialized_at
FROM app.controller_state
WHERE singleton = TRUE
`
	var (
		controller    string
		owner         string
		fingerprint   sql.NullString
		initializedAt sql.NullTime
	)
	err := r.db.QueryRowContext(ctx, query).Scan(&controller, &owner, &fingerprint, &initializedAt)
	if stderrors.Is(err, sql.ErrNoRows) {
		return entities.ControllerState{}, false, nil
	}
	if err != nil {
		return entities.ControllerState{}, false, queryFailed("failed to load controller state", err)
	}

	state := entities.ControllerState{
		ControllerAddress: common.HexToAddress(controller),
		Owner:             common.HexToAddress(owner),
		Receivers:         map[common.Address]struct{}{},
	}
	if fingerprint.Valid && initializedAt.Valid {
		parsed, appErr := valueobjects.ParseTemplateFingerprint(fingerprint.String)
		if appErr != nil {
			return entities.ControllerState{}, false, apperrors.NewInternal(
				"controller_state_row_invalid",
				"stored template fingerprint is invalid",
				map[string]any{"template_fingerprint": fingerprint.String},
			)
		}
		at := initializedAt.Time.UTC()
		state.TemplateFingerprint = parsed
		state.InitializedAt = &at
	}

	rows, err := r.db.QueryContext(ctx, `SELECT receiver_address FROM app.receiver_whitelist`)
	if err != nil {
		return entities.ControllerState{}, false, queryFailed("failed to load receiver whitelist", err)
	}
	defer rows.Close()

	for rows.Next() {
		var receiver string
		if err := rows.Scan(&receiver); err != nil {
			return entities.ControllerState{}, false, queryFailed("failed to scan receiver", err)
		}
		state.Receivers[common.HexToAddress(receiver)] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return entities.ControllerState{}, false, queryFailed("failed to iterate receiver whitelist", err)
	}

	return state, true, nil
}

// Save writes the controller row and replaces the whitelist. The controller
// address and owner never change once stored.
func (r *Repository) Save(ctx context.Context, state entities.ControllerState) *apperrors.AppError {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return queryFailed("failed to begin controller state transaction", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var (
		storedController string
		storedOwner      string
	)
	err = tx.QueryRowContext(
		ctx,
		`SELECT controller_address, owner_address FROM app.controller_state WHERE singleton = TRUE FOR UPDATE`,
	).Scan(&storedController, &storedOwner)
	switch {
	case stderrors.Is(err, sql.ErrNoRows):
	case err != nil:
		return queryFailed("failed to lock controller state", err)
	default:
		if storedController != valueobjects.CanonicalAddress(state.ControllerAddress) ||
			storedOwner != valueobjects.CanonicalAddress(state.Owner) {
			return apperrors.NewConflict(
				"controller_identity_immutable",
				"controller address and owner cannot change",
				map[string]any{
					"controller_address": storedController,
					"owner_address":      storedOwner,
				},
			)
		}
	}

	var (
		fingerprint   any
		initializedAt any
	)
	if state.Initialized() {
		fingerprint = state.TemplateFingerprint.String()
		initializedAt = state.InitializedAt.UTC()
	}

	const upsert = `
INSERT INTO app.controller_state (
  singleton, controller_address, owner_address, template_fingerprint, initialized_at, created_at, updated_at
) VALUES (TRUE, $1, $2, $3, $4, $5, $5)
ON CONFLICT (singleton) DO UPDATE
SET template_fingerprint = EXCLUDED.template_fingerprint,
    initialized_at = EXCLUDED.initialized_at,
    updated_at = EXCLUDED.updated_at
`
	now := time.Now().UTC()
	if _, err := tx.ExecContext(
		ctx,
		upsert,
		valueobjects.CanonicalAddress(state.ControllerAddress),
		valueobjects.CanonicalAddress(state.Owner),
		fingerprint,
		initializedAt,
		now,
	); err != nil {
		return queryFailed("failed to upsert controller state", err)
	}

	receivers := make([]string, 0, len(state.Receivers))
	for _, receiver := range state.ReceiverList() {
		receivers = append(receivers, valueobjects.CanonicalAddress(receiver))
	}

	if _, err := tx.ExecContext(
		ctx,
		`DELETE FROM app.receiver_whitelist WHERE NOT (receiver_address = ANY($1))`,
		receivers,
	); err != nil {
		return queryFailed("failed to prune receiver whitelist", err)
	}
	for _, receiver := range receivers {
		if _, err := tx.ExecContext(
			ctx,
			`INSERT INTO app.receiver_whitelist (receiver_address, added_at) VALUES ($1, $2) ON CONFLICT (receiver_address) DO NOTHING`,
			receiver,
			now,
		); err != nil {
			return queryFailed("failed to insert receiver", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return queryFailed("failed to commit controller state", err)
	}
	committed = true

	if r.logger != nil {
		r.logger.WithField("receivers", len(receivers)).Debug("controller state saved")
	}
	return nil
}

func queryFailed(message string, err error) *apperrors.AppError {
	return apperrors.NewInternal(
		"controller_state_query_failed",
		message,
		map[string]any{"error": err.Error()},
	)
}
