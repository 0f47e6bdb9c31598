package ledger

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"math/big"
	"time"

	"invoicesweep/internal/adapters/outbound/persistence/postgresql/shared"
	"invoicesweep/internal/application/dto"
	portsout "invoicesweep/internal/application/ports/out"
	valueobjects "invoicesweep/internal/domain/value_objects"
	apperrors "invoicesweep/internal/shared_kernel/errors"

	"github.com/ethereum/go-ethereum/common"
	"github.com/sirupsen/logrus"
)

// Ledger keeps per-holder balances in app.ledger_balances. Every Atomic call
// runs in one database transaction.
type Ledger struct {
	db     *sql.DB
	logger logrus.FieldLogger
}

var (
	_ portsout.AssetLedger         = (*Ledger)(nil)
	_ portsout.SweepBatchReadModel = (*Ledger)(nil)
)

func NewLedger(db *sql.DB, logger logrus.FieldLogger) *Ledger {
	return &Ledger{db: db, logger: logger}
}

type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (l *Ledger) BalanceOf(ctx context.Context, asset valueobjects.AssetType, holder common.Address) (*big.Int, *apperrors.AppError) {
	return balanceOf(ctx, l.db, asset, holder, false)
}

func (l *Ledger) BalancesOf(ctx context.Context, asset valueobjects.AssetType, holders []common.Address) ([]*big.Int, *apperrors.AppError) {
	return balancesOf(ctx, l.db, asset, holders, false)
}

func (l *Ledger) Credit(ctx context.Context, asset valueobjects.AssetType, holder common.Address, amount *big.Int) (*big.Int, *apperrors.AppError) {
	if amount == nil || amount.Sign() <= 0 {
		return nil, apperrors.NewValidation(
			"invalid_request",
			"amount must be greater than zero",
			map[string]any{"field": "amount"},
		)
	}

	balance, appErr := credit(ctx, l.db, asset, holder, amount)
	if appErr != nil {
		return nil, appErr
	}
	l.logf("ledger credited asset=%s holder=%s amount=%s", asset.String(), valueobjects.FormatAddress(holder), amount.String())
	return balance, nil
}

func (l *Ledger) Atomic(ctx context.Context, fn func(tx portsout.AssetLedgerTx) *apperrors.AppError) *apperrors.AppError {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return apperrors.NewInternal(
			"ledger_transaction_begin_failed",
			"failed to begin ledger transaction",
			map[string]any{"error": err.Error()},
		)
	}

	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	if appErr := fn(&ledgerTx{tx: tx}); appErr != nil {
		return appErr
	}

	if err := tx.Commit(); err != nil {
		return apperrors.NewInternal(
			"ledger_transaction_commit_failed",
			"failed to commit ledger transaction",
			map[string]any{"error": err.Error()},
		)
	}
	committed = true
	return nil
}

func (l *Ledger) GetByID(ctx context.Context, id string) (dto.SweepBatchRecord, bool, *apperrors.AppError) {
	const batchQuery = `
SELECT mode, principal_address, token_receiver, eth_receiver, user_ids, asset_types, created_at
FROM app.sweep_batches
WHERE id = $1
`
	var (
		mode          string
		principal     string
		tokenReceiver string
		ethReceiver   string
		userIDsJSON   []byte
		assetsJSON    []byte
		createdAt     time.Time
	)
	err := l.db.QueryRowContext(ctx, batchQuery, id).Scan(
		&mode,
		&principal,
		&tokenReceiver,
		&ethReceiver,
		&userIDsJSON,
		&assetsJSON,
		&createdAt,
	)
	if stderrors.Is(err, sql.ErrNoRows) {
		return dto.SweepBatchRecord{}, false, nil
	}
	if err != nil {
		return dto.SweepBatchRecord{}, false, queryFailed("failed to load sweep batch", err)
	}

	record := dto.SweepBatchRecord{
		ID:        id,
		Mode:      valueobjects.WithdrawMode(mode),
		Principal: common.HexToAddress(principal),
		Routing: dto.SweepRouting{
			TokenReceiver: common.HexToAddress(tokenReceiver),
			EthReceiver:   common.HexToAddress(ethReceiver),
		},
		CreatedAt: createdAt.UTC(),
	}

	var rawUserIDs []string
	if err := json.Unmarshal(userIDsJSON, &rawUserIDs); err != nil {
		return dto.SweepBatchRecord{}, false, corruptRow("user_ids", err)
	}
	userIDs, appErr := valueobjects.ParseUserIDs(rawUserIDs)
	if appErr != nil {
		return dto.SweepBatchRecord{}, false, corruptRow("user_ids", appErr)
	}
	record.UserIDs = userIDs

	var rawAssets []string
	if err := json.Unmarshal(assetsJSON, &rawAssets); err != nil {
		return dto.SweepBatchRecord{}, false, corruptRow("asset_types", err)
	}
	record.AssetTypes = make([]valueobjects.AssetType, 0, len(rawAssets))
	for _, raw := range rawAssets {
		record.AssetTypes = append(record.AssetTypes, assetFromKey(raw))
	}

	const transferQuery = `
SELECT user_id, asset_address, from_address, to_address, amount::text
FROM app.sweep_transfers
WHERE batch_id = $1
ORDER BY seq ASC
`
	rows, err := l.db.QueryContext(ctx, transferQuery, id)
	if err != nil {
		return dto.SweepBatchRecord{}, false, queryFailed("failed to load sweep transfers", err)
	}
	defer rows.Close()

	record.Transfers = []dto.SweepTransfer{}
	for rows.Next() {
		var (
			rawUserID string
			assetKey  string
			from      string
			to        string
			rawAmount string
		)
		if err := rows.Scan(&rawUserID, &assetKey, &from, &to, &rawAmount); err != nil {
			return dto.SweepBatchRecord{}, false, queryFailed("failed to scan sweep transfer", err)
		}
		userID, appErr := valueobjects.ParseUserID(rawUserID)
		if appErr != nil {
			return dto.SweepBatchRecord{}, false, corruptRow("user_id", appErr)
		}
		amount, ok := new(big.Int).SetString(rawAmount, 10)
		if !ok {
			return dto.SweepBatchRecord{}, false, corruptRow("amount", stderrors.New("not a decimal integer"))
		}
		record.Transfers = append(record.Transfers, dto.SweepTransfer{
			UserID: userID,
			LedgerTransfer: dto.LedgerTransfer{
				Asset:  assetFromKey(assetKey),
				From:   common.HexToAddress(from),
				To:     common.HexToAddress(to),
				Amount: amount,
			},
		})
	}
	if err := rows.Err(); err != nil {
		return dto.SweepBatchRecord{}, false, queryFailed("failed to iterate sweep transfers", err)
	}

	return record, true, nil
}

func (l *Ledger) logf(format string, args ...any) {
	if l.logger == nil {
		return
	}
	l.logger.Debugf(format, args...)
}

type ledgerTx struct {
	tx *sql.Tx
}

func (t *ledgerTx) BalanceOf(ctx context.Context, asset valueobjects.AssetType, holder common.Address) (*big.Int, *apperrors.AppError) {
	return balanceOf(ctx, t.tx, asset, holder, true)
}

func (t *ledgerTx) BalancesOf(ctx context.Context, asset valueobjects.AssetType, holders []common.Address) ([]*big.Int, *apperrors.AppError) {
	return balancesOf(ctx, t.tx, asset, holders, true)
}

func (t *ledgerTx) Transfer(ctx context.Context, transfer dto.LedgerTransfer) *apperrors.AppError {
	if transfer.Amount == nil || transfer.Amount.Sign() == 0 {
		return nil
	}
	if transfer.Amount.Sign() < 0 {
		return apperrors.NewValidation(
			"ledger_transfer_amount_invalid",
			"transfer amount must not be negative",
			map[string]any{"amount": transfer.Amount.String()},
		)
	}

	const debitQuery = `
UPDATE app.ledger_balances
SET amount = amount - $3::numeric, updated_at = now()
WHERE asset_address = $1
  AND holder_address = $2
  AND amount >= $3::numeric
`
	result, err := t.tx.ExecContext(
		ctx,
		debitQuery,
		transfer.Asset.Key(),
		valueobjects.CanonicalAddress(transfer.From),
		transfer.Amount.String(),
	)
	if err != nil {
		return queryFailed("failed to debit ledger balance", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return queryFailed("failed to read debit result", err)
	}
	if affected == 0 {
		balance, appErr := balanceOf(ctx, t.tx, transfer.Asset, transfer.From, false)
		if appErr != nil {
			return appErr
		}
		return apperrors.NewConflict(
			"ledger_insufficient_balance",
			"holder balance is lower than the transfer amount",
			map[string]any{
				"asset":   transfer.Asset.String(),
				"holder":  valueobjects.FormatAddress(transfer.From),
				"balance": balance.String(),
				"amount":  transfer.Amount.String(),
			},
		)
	}

	_, appErr := credit(ctx, t.tx, transfer.Asset, transfer.To, transfer.Amount)
	return appErr
}

func (t *ledgerTx) TransferBatch(ctx context.Context, transfers []dto.LedgerTransfer) *apperrors.AppError {
	for _, transfer := range transfers {
		if appErr := t.Transfer(ctx, transfer); appErr != nil {
			return appErr
		}
	}
	return nil
}

func (t *ledgerTx) RecordSweepBatch(ctx context.Context, record dto.SweepBatchRecord) *apperrors.AppError {
	userIDs := make([]string, 0, len(record.UserIDs))
	for _, userID := range record.UserIDs {
		userIDs = append(userIDs, userID.String())
	}
	assets := make([]string, 0, len(record.AssetTypes))
	for _, asset := range record.AssetTypes {
		assets = append(assets, asset.Key())
	}
	userIDsJSON, err := json.Marshal(userIDs)
	if err != nil {
		return queryFailed("failed to encode sweep batch user ids", err)
	}
	assetsJSON, err := json.Marshal(assets)
	if err != nil {
		return queryFailed("failed to encode sweep batch asset types", err)
	}

	const batchQuery = `
INSERT INTO app.sweep_batches (
  id, mode, principal_address, token_receiver, eth_receiver, user_ids, asset_types, created_at
) VALUES ($1, $2, $3, $4, $5, $6::jsonb, $7::jsonb, $8)
`
	_, err = t.tx.ExecContext(
		ctx,
		batchQuery,
		record.ID,
		record.Mode.String(),
		valueobjects.CanonicalAddress(record.Principal),
		valueobjects.CanonicalAddress(record.Routing.TokenReceiver),
		valueobjects.CanonicalAddress(record.Routing.EthReceiver),
		string(userIDsJSON),
		string(assetsJSON),
		record.CreatedAt.UTC(),
	)
	if err != nil {
		if shared.IsUniqueViolation(err) {
			return apperrors.NewConflict(
				"sweep_batch_duplicate",
				"sweep batch id already recorded",
				map[string]any{"id": record.ID},
			)
		}
		return queryFailed("failed to insert sweep batch", err)
	}

	const transferQuery = `
INSERT INTO app.sweep_transfers (
  batch_id, seq, user_id, asset_address, from_address, to_address, amount
) VALUES ($1, $2, $3, $4, $5, $6, $7::numeric)
`
	for seq, transfer := range record.Transfers {
		_, err := t.tx.ExecContext(
			ctx,
			transferQuery,
			record.ID,
			seq,
			transfer.UserID.String(),
			transfer.Asset.Key(),
			valueobjects.CanonicalAddress(transfer.From),
			valueobjects.CanonicalAddress(transfer.To),
			transfer.Amount.String(),
		)
		if err != nil {
			return queryFailed("failed to insert sweep transfer", err)
		}
	}

	return nil
}

func balanceOf(ctx context.Context, q queryer, asset valueobjects.AssetType, holder common.Address, forUpdate bool) (*big.Int, *apperrors.AppError) {
	query := `
SELECT amount::text
FROM app.ledger_balances
WHERE asset_address = $1 AND holder_address = $2
`
	if forUpdate {
		query += "FOR UPDATE\n"
	}

	var raw string
	err := q.QueryRowContext(ctx, query, asset.Key(), valueobjects.CanonicalAddress(holder)).Scan(&raw)
	if stderrors.Is(err, sql.ErrNoRows) {
		return new(big.Int), nil
	}
	if err != nil {
		return nil, queryFailed("failed to read ledger balance", err)
	}
	return parseAmount(raw)
}

func balancesOf(ctx context.Context, q queryer, asset valueobjects.AssetType, holders []common.Address, forUpdate bool) ([]*big.Int, *apperrors.AppError) {
	out := make([]*big.Int, len(holders))
	for i := range out {
		out[i] = new(big.Int)
	}
	if len(holders) == 0 {
		return out, nil
	}

	keys := make([]string, 0, len(holders))
	for _, holder := range holders {
		keys = append(keys, valueobjects.CanonicalAddress(holder))
	}

	query := `
SELECT holder_address, amount::text
FROM app.ledger_balances
WHERE asset_address = $1 AND holder_address = ANY($2)
ORDER BY holder_address
`
	if forUpdate {
		query += "FOR UPDATE\n"
	}

	rows, err := q.QueryContext(ctx, query, asset.Key(), keys)
	if err != nil {
		return nil, queryFailed("failed to read ledger balances", err)
	}
	defer rows.Close()

	found := make(map[string]*big.Int, len(holders))
	for rows.Next() {
		var holder, raw string
		if err := rows.Scan(&holder, &raw); err != nil {
			return nil, queryFailed("failed to scan ledger balance", err)
		}
		amount, appErr := parseAmount(raw)
		if appErr != nil {
			return nil, appErr
		}
		found[holder] = amount
	}
	if err := rows.Err(); err != nil {
		return nil, queryFailed("failed to iterate ledger balances", err)
	}

	for i, key := range keys {
		if amount, exists := found[key]; exists {
			out[i] = new(big.Int).Set(amount)
		}
	}
	return out, nil
}

func credit(ctx context.Context, q queryer, asset valueobjects.AssetType, holder common.Address, amount *big.Int) (*big.Int, *apperrors.AppError) {
	const query = `
INSERT INTO app.ledger_balances (asset_address, holder_address, amount, updated_at)
VALUES ($1, $2, $3::numeric, now())
ON CONFLICT (asset_address, holder_address) DO UPDATE
SET amount = app.ledger_balances.amount + EXCLUDED.amount,
    updated_at = EXCLUDED.updated_at
RETURNING amount::text
`
	var raw string
	err := q.QueryRowContext(ctx, query, asset.Key(), valueobjects.CanonicalAddress(holder), amount.String()).Scan(&raw)
	if err != nil {
		return nil, queryFailed("failed to credit ledger balance", err)
	}
	return parseAmount(raw)
}

func parseAmount(raw string) (*big.Int, *apperrors.AppError) {
	amount, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return nil, corruptRow("amount", stderrors.New("not a decimal integer"))
	}
	return amount, nil
}

func assetFromKey(key string) valueobjects.AssetType {
	return valueobjects.AssetType{Token: common.HexToAddress(key)}
}

func queryFailed(message string, err error) *apperrors.AppError {
	return apperrors.NewInternal(
		"ledger_query_failed",
		message,
		map[string]any{"error": err.Error()},
	)
}

func corruptRow(field string, err error) *apperrors.AppError {
	return apperrors.NewInternal(
		"ledger_row_invalid",
		"stored ledger row is invalid",
		map[string]any{"field": field, "error": err.Error()},
	)
}
