package subaccount

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"invoicesweep/internal/application/dto"
	portsout "invoicesweep/internal/application/ports/out"
	valueobjects "invoicesweep/internal/domain/value_objects"
	apperrors "invoicesweep/internal/shared_kernel/errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
)

type Registry struct {
	db     *sql.DB
	logger logrus.FieldLogger
}

var _ portsout.SubAccountRegistry = (*Registry)(nil)

func NewRegistry(db *sql.DB, logger logrus.FieldLogger) *Registry {
	return &Registry{db: db, logger: logger}
}

func (r *Registry) Register(ctx context.Context, records []dto.SubAccountRecord) (int, *apperrors.AppError) {
	if len(records) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, queryFailed("failed to begin sub-account transaction", err)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const query = `
INSERT INTO app.sub_accounts (user_id, address, registered_at)
VALUES ($1, $2, $3)
ON CONFLICT (user_id) DO NOTHING
`
	registered := 0
	for _, record := range records {
		result, err := tx.ExecContext(
			ctx,
			query,
			record.UserID.String(),
			valueobjects.CanonicalAddress(record.Address),
			record.RegisteredAt.UTC(),
		)
		if err != nil {
			return 0, queryFailed("failed to insert sub-account", err)
		}
		affected, err := result.RowsAffected()
		if err != nil {
			return 0, queryFailed("failed to read sub-account insert result", err)
		}
		registered += int(affected)
	}

	if err := tx.Commit(); err != nil {
		return 0, queryFailed("failed to commit sub-accounts", err)
	}
	committed = true

	if r.logger != nil && registered > 0 {
		r.logger.WithField("registered", registered).Info("sub-accounts registered")
	}
	return registered, nil
}

func (r *Registry) List(ctx context.Context) ([]dto.SubAccountRecord, *apperrors.AppError) {
	const query = `
SELECT user_id, address, registered_at, last_swept_at
FROM app.sub_accounts
ORDER BY registered_at ASC, user_id ASC
`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, queryFailed("failed to list sub-accounts", err)
	}
	defer rows.Close()

	return scanRecords(rows, 0)
}

// ClaimForSweep leases up to limit rows whose lease is free or expired, least
// recently swept first. Concurrent claimers never receive the same row.
func (r *Registry) ClaimForSweep(
	ctx context.Context,
	now time.Time,
	limit int,
	leaseOwner string,
	leaseUntil time.Time,
) ([]dto.SubAccountRecord, *apperrors.AppError) {
	const query = `
WITH candidates AS (
  SELECT user_id
  FROM app.sub_accounts
  WHERE sweep_lease_until IS NULL OR sweep_lease_until <= $1
  ORDER BY last_swept_at ASC NULLS FIRST, registered_at ASC, user_id ASC
  LIMIT $2
  FOR UPDATE SKIP LOCKED
)
UPDATE app.sub_accounts AS sa
SET
  sweep_lease_owner = $3,
  sweep_lease_until = $4
FROM candidates
WHERE sa.user_id = candidates.user_id
RETURNING sa.user_id, sa.address, sa.registered_at, sa.last_swept_at
`
	rows, err := r.db.QueryContext(
		ctx,
		query,
		now.UTC(),
		limit,
		strings.TrimSpace(leaseOwner),
		leaseUntil.UTC(),
	)
	if err != nil {
		return nil, queryFailed("failed to claim sub-accounts for sweep", err)
	}
	defer rows.Close()

	records, appErr := scanRecords(rows, limit)
	if appErr != nil {
		return nil, appErr
	}
	sortClaimed(records)
	return records, nil
}

func (r *Registry) MarkSwept(
	ctx context.Context,
	userIDs []valueobjects.UserID,
	leaseOwner string,
	sweptAt time.Time,
) *apperrors.AppError {
	if len(userIDs) == 0 {
		return nil
	}

	keys := make([]string, 0, len(userIDs))
	for _, userID := range userIDs {
		keys = append(keys, userID.String())
	}

	const query = `
UPDATE app.sub_accounts
SET
  last_swept_at = $1,
  sweep_lease_owner = NULL,
  sweep_lease_until = NULL
WHERE user_id = ANY($2)
  AND sweep_lease_owner = $3
`
	if _, err := r.db.ExecContext(ctx, query, sweptAt.UTC(), keys, strings.TrimSpace(leaseOwner)); err != nil {
		return queryFailed("failed to mark sub-accounts swept", err)
	}
	return nil
}

func scanRecords(rows *sql.Rows, capacity int) ([]dto.SubAccountRecord, *apperrors.AppError) {
	out := make([]dto.SubAccountRecord, 0, capacity)
	for rows.Next() {
		var (
			rawUserID    string
			address      string
			registeredAt time.Time
			lastSweptAt  sql.NullTime
		)
		if err := rows.Scan(&rawUserID, &address, &registeredAt, &lastSweptAt); err != nil {
			return nil, queryFailed("failed to scan sub-account", err)
		}
		userID, appErr := valueobjects.ParseUserID(rawUserID)
		if appErr != nil {
			return nil, apperrors.NewInternal(
				"sub_account_row_invalid",
				"stored sub-account user id is invalid",
				map[string]any{"user_id": rawUserID},
			)
		}

		record := dto.SubAccountRecord{
			UserID:       userID,
			Address:      common.HexToAddress(address),
			RegisteredAt: registeredAt.UTC(),
		}
		if lastSweptAt.Valid {
			swept := lastSweptAt.Time.UTC()
			record.LastSweptAt = &swept
		}
		out = append(out, record)
	}
	if err := rows.Err(); err != nil {
		return nil, queryFailed("failed to iterate sub-accounts", err)
	}
	return out, nil
}

func queryFailed(message string, err error) *apperrors.AppError {
	return apperrors.NewInternal(
		"sub_account_query_failed",
		message,
		map[string]any{"error": err.Error()},
	)
}
