package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"go.uber.org/zap"

	"github.com/xavierca1/leadgate/internal/entity"
)

// Sender delivers a notification that came off the queue (the SMTP sender in production).
type Sender interface {
	Send(ctx context.Context, n entity.LeadNotification) error
}

// Consumer is satisfied by *amqp.Channel.
type Consumer interface {
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

type Worker struct {
	Sender  Sender
	Logger  *zap.Logger
	Timeout time.Duration
}

func NewWorker(sender Sender, timeout time.Duration, logger *zap.Logger) *Worker {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Worker{
		Sender:  sender,
		Logger:  logger.Named("queue-worker"),
		Timeout: timeout,
	}
}

// Start registers the consumer and blocks until ctx is cancelled or the channel closes.
func (w *Worker) Start(ctx context.Context, ch Consumer, queueName string) error {
	msgs, err := ch.Consume(
		queueName,
		"",    // consumer
		false, // auto-ack (manual é mais seguro)
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("falha ao registrar consumidor RabbitMQ: %w", err)
	}

	w.Logger.Info("worker waiting on queue", zap.String("queue", queueName))
	return w.Run(ctx, msgs)
}

func (w *Worker) Run(ctx context.Context, msgs <-chan amqp.Delivery) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				return fmt.Errorf("delivery channel closed")
			}
			w.handle(ctx, d)
		}
	}
}

func (w *Worker) handle(ctx context.Context, d amqp.Delivery) {
	var n entity.LeadNotification
	if err := json.Unmarshal(d.Body, &n); err != nil {
		// Mensagem malformada. Rejeita sem requeue para não travar a fila.
		w.Logger.Warn("invalid notification payload", zap.Error(err))
		_ = d.Nack(false, false)
		return
	}

	sendCtx, cancel := context.WithTimeout(ctx, w.Timeout)
	defer cancel()

	if err := w.Sender.Send(sendCtx, n); err != nil {
		// vai pra DLQ
		w.Logger.Warn("notification delivery failed", zap.String("email", n.Email), zap.Error(err))
		_ = d.Nack(false, false)
		return
	}

	w.Logger.Debug("notification delivered", zap.String("email", n.Email))
	_ = d.Ack(false)
}
