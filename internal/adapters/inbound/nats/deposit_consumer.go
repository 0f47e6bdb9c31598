package nats

import (
	"context"
	"encoding/json"
	"time"

	"invoicesweep/internal/application/dto"
	portsin "invoicesweep/internal/application/ports/in"

	"github.com/nats-io/nats.go"
	"github.com/sirupsen/logrus"
)

const DefaultDepositSubject = "invoicesweep.deposits"

// subscriber is satisfied by *nats.Conn.
type subscriber interface {
	Subscribe(subject string, handler nats.MsgHandler) (*nats.Subscription, error)
}

// DepositEvent is an observed incoming transfer. Asset is "native" or a
// token contract; To is a sub-account address unless UserID is set.
type DepositEvent struct {
	Asset  string `json:"asset"`
	To     string `json:"to,omitempty"`
	UserID string `json:"user_id,omitempty"`
	Amount string `json:"amount"`
}

type DepositConsumer struct {
	conn           subscriber
	subject        string
	useCase        portsin.RecordDepositUseCase
	handlerTimeout time.Duration
	logger         logrus.FieldLogger
	subscription   *nats.Subscription
}

func NewDepositConsumer(
	conn subscriber,
	subject string,
	useCase portsin.RecordDepositUseCase,
	logger logrus.FieldLogger,
) *DepositConsumer {
	if subject == "" {
		subject = DefaultDepositSubject
	}
	return &DepositConsumer{
		conn:           conn,
		subject:        subject,
		useCase:        useCase,
		handlerTimeout: 10 * time.Second,
		logger:         logger,
	}
}

func (c *DepositConsumer) Start() error {
	subscription, err := c.conn.Subscribe(c.subject, c.handle)
	if err != nil {
		return err
	}
	c.subscription = subscription
	c.logger.Infof("deposit consumer subscribed subject=%s", c.subject)
	return nil
}

func (c *DepositConsumer) Stop() {
	if c.subscription == nil {
		return
	}
	if err := c.subscription.Unsubscribe(); err != nil {
		c.logger.Warnf("deposit consumer unsubscribe failed subject=%s error=%v", c.subject, err)
	}
	c.subscription = nil
}

func (c *DepositConsumer) handle(msg *nats.Msg) {
	event := DepositEvent{}
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		c.logger.Warnf("deposit event dropped subject=%s reason=decode error=%v", msg.Subject, err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), c.handlerTimeout)
	defer cancel()

	output, appErr := c.useCase.Execute(ctx, dto.RecordDepositCommand{
		Source:    "nats",
		AssetType: event.Asset,
		UserID:    event.UserID,
		Address:   event.To,
		Amount:    event.Amount,
	})
	if appErr != nil {
		c.logger.Warnf("deposit event rejected subject=%s code=%s message=%s", msg.Subject, appErr.Code, appErr.Message)
		return
	}

	c.logger.WithFields(logrus.Fields{
		"asset_type": output.AssetType,
		"address":    output.Address,
		"amount":     output.Amount,
		"balance":    output.Balance,
	}).Info("deposit recorded")
}
