package nats

import (
	"context"
	"encoding/json"
	"time"

	"invoicesweep/internal/application/dto"
	portsout "invoicesweep/internal/application/ports/out"
	valueobjects "invoicesweep/internal/domain/value_objects"
	apperrors "invoicesweep/internal/shared_kernel/errors"

	"github.com/sirupsen/logrus"
)

const DefaultSweepSubject = "invoicesweep.sweep.completed"

// conn is satisfied by *nats.Conn.
type conn interface {
	Publish(subject string, data []byte) error
}

type SweepCompletedEvent struct {
	BatchID       string                   `json:"batch_id"`
	Mode          string                   `json:"mode"`
	Principal     string                   `json:"principal"`
	TokenReceiver string                   `json:"token_receiver"`
	EthReceiver   string                   `json:"eth_receiver"`
	UserIDs       []string                 `json:"user_ids"`
	Transfers     []SweepCompletedTransfer `json:"transfers"`
	CreatedAt     time.Time                `json:"created_at"`
}

type SweepCompletedTransfer struct {
	UserID     string `json:"user_id"`
	SubAccount string `json:"sub_account"`
	AssetType  string `json:"asset_type"`
	Receiver   string `json:"receiver"`
	Amount     string `json:"amount"`
}

type Publisher struct {
	conn    conn
	subject string
	logger  logrus.FieldLogger
}

var _ portsout.SweepEventPublisher = (*Publisher)(nil)

func NewPublisher(conn conn, subject string, logger logrus.FieldLogger) *Publisher {
	if subject == "" {
		subject = DefaultSweepSubject
	}
	return &Publisher{conn: conn, subject: subject, logger: logger}
}

func (p *Publisher) PublishSweepCompleted(_ context.Context, record dto.SweepBatchRecord) *apperrors.AppError {
	data, err := json.Marshal(newSweepCompletedEvent(record))
	if err != nil {
		return apperrors.NewInternal(
			"sweep_event_encode_failed",
			"failed to encode sweep event",
			map[string]any{"error": err.Error()},
		)
	}

	if err := p.conn.Publish(p.subject, data); err != nil {
		return apperrors.NewInternal(
			"sweep_event_publish_failed",
			"failed to publish sweep event",
			map[string]any{"subject": p.subject, "error": err.Error()},
		)
	}

	if p.logger != nil {
		p.logger.Debugf("sweep event published subject=%s batch_id=%s", p.subject, record.ID)
	}
	return nil
}

func newSweepCompletedEvent(record dto.SweepBatchRecord) SweepCompletedEvent {
	event := SweepCompletedEvent{
		BatchID:       record.ID,
		Mode:          record.Mode.String(),
		Principal:     valueobjects.FormatAddress(record.Principal),
		TokenReceiver: valueobjects.FormatAddress(record.Routing.TokenReceiver),
		EthReceiver:   valueobjects.FormatAddress(record.Routing.EthReceiver),
		UserIDs:       make([]string, 0, len(record.UserIDs)),
		Transfers:     make([]SweepCompletedTransfer, 0, len(record.Transfers)),
		CreatedAt:     record.CreatedAt.UTC(),
	}
	for _, userID := range record.UserIDs {
		event.UserIDs = append(event.UserIDs, userID.String())
	}
	for _, transfer := range record.Transfers {
		event.Transfers = append(event.Transfers, SweepCompletedTransfer{
			UserID:     transfer.UserID.String(),
			SubAccount: valueobjects.FormatAddress(transfer.From),
			AssetType:  transfer.Asset.String(),
			Receiver:   valueobjects.FormatAddress(transfer.To),
			Amount:     transfer.Amount.String(),
		})
	}
	return event
}
