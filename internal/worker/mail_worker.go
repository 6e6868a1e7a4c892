package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"

	"github.com/brookemaisy/storefront-api/internal/model"
)

const (
	mailQueueName  = "mail_events"
	dlxExchange    = "mail_events.dlx"
	dlqQueueName   = "mail_events.dlq"
	idempotencyTTL = 24 * time.Hour
)

// Sender delivers a single mail event. The real transport lives behind this
// interface; LogSender is what runs by default.
type Sender interface {
	Send(ctx context.Context, event model.MailEvent) error
}

// LogSender records the event instead of delivering it.
type LogSender struct {
	Log *slog.Logger
}

func (s LogSender) Send(_ context.Context, event model.MailEvent) error {
	s.Log.Info("mail dispatched", "type", event.Type, "order", event.OrderNumber, "to", event.Email)
	return nil
}

// MailWorker consumes the mail queue and dispatches each event exactly once.
// Failed deliveries dead-letter to the DLQ; duplicates are dropped via a
// redis idempotency key.
type MailWorker struct {
	channel     *amqp.Channel
	sender      Sender
	redisClient *redis.Client
	log         *slog.Logger
	done        chan struct{}
}

func NewMailWorker(ch *amqp.Channel, sender Sender, redisClient *redis.Client, log *slog.Logger) *MailWorker {
	return &MailWorker{
		channel:     ch,
		sender:      sender,
		redisClient: redisClient,
		log:         log,
		done:        make(chan struct{}),
	}
}

// SetupRabbitMQ declares the mail queue with its DLX/DLQ topology.
func SetupRabbitMQ(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(dlxExchange, "direct", true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLX: %w", err)
	}
	if _, err := ch.QueueDeclare(dlqQueueName, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare DLQ: %w", err)
	}
	if err := ch.QueueBind(dlqQueueName, mailQueueName, dlxExchange, false, nil); err != nil {
		return fmt.Errorf("bind DLQ: %w", err)
	}
	if _, err := ch.QueueDeclare(mailQueueName, true, false, false, false, amqp.Table{
		"x-dead-letter-exchange":    dlxExchange,
		"x-dead-letter-routing-key": mailQueueName,
	}); err != nil {
		return fmt.Errorf("declare mail queue: %w", err)
	}
	if err := ch.Qos(1, 0, false); err != nil {
		return fmt.Errorf("set QoS: %w", err)
	}
	return nil
}

func (w *MailWorker) Start(ctx context.Context) error {
	msgs, err := w.channel.Consume(mailQueueName, "", false, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}
				w.processMessage(ctx, msg)
			case <-w.done:
				return
			case <-ctx.Done():
				return
			}
		}
	}()

	w.log.Info("mail worker started")
	return nil
}

func (w *MailWorker) Stop() { close(w.done) }

func (w *MailWorker) processMessage(ctx context.Context, msg amqp.Delivery) {
	var event model.MailEvent
	if err := json.Unmarshal(msg.Body, &event); err != nil {
		w.log.Error("unmarshal mail event", "error", err)
		_ = msg.Nack(false, false)
		return
	}

	log := w.log.With("type", event.Type, "order", event.OrderNumber)

	idempotencyKey := "mail_sent:" + event.Type + ":" + event.OrderNumber
	exists, err := w.redisClient.Exists(ctx, idempotencyKey).Result()
	if err != nil {
		log.Error("check idempotency key", "error", err)
		_ = msg.Nack(false, true)
		return
	}
	if exists > 0 {
		log.Info("mail already sent, skipping")
		_ = msg.Ack(false)
		return
	}

	if err := w.sender.Send(ctx, event); err != nil {
		log.Error("send mail failed", "error", err)
		_ = msg.Nack(false, false) // to DLQ
		return
	}

	if err := w.redisClient.Set(ctx, idempotencyKey, "1", idempotencyTTL).Err(); err != nil {
		log.Error("set idempotency key", "error", err)
	}

	_ = msg.Ack(false)
}
