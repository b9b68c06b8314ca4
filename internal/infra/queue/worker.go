package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	amqp "github.com/rabbitmq/amqp091-go"
)

// QuoteMailer sends the quote email to the customer.
type QuoteMailer interface {
	SendQuote(payload QuoteGeneratedPayload) error
}

// Consumer is the part of *amqp.Channel the worker uses.
type Consumer interface {
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
}

type Worker struct {
	Channel Consumer
	Mailer  QuoteMailer
}

func NewWorker(ch Consumer, mailer QuoteMailer) *Worker {
	return &Worker{
		Channel: ch,
		Mailer:  mailer,
	}
}

// Start consumes queueName until ctx is cancelled or the channel closes.
func (w *Worker) Start(ctx context.Context, queueName string) error {
	msgs, err := w.Channel.Consume(
		queueName,
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register RabbitMQ consumer: %w", err)
	}

	log.Printf(" [*] Worker waiting on queue '%s'", queueName)

	for {
		select {
		case <-ctx.Done():
			return nil
		case d, ok := <-msgs:
			if !ok {
				log.Printf("⚠️ [WORKER] delivery channel closed")
				return nil
			}
			w.handle(d)
		}
	}
}

func (w *Worker) handle(d amqp.Delivery) {
	var payload QuoteGeneratedPayload
	if err := json.Unmarshal(d.Body, &payload); err != nil {
		log.Printf("❌ [WORKER] invalid JSON: %s", err)
		// Malformed message, dead-letter it instead of requeueing forever.
		d.Nack(false, false)
		return
	}

	if err := w.Mailer.SendQuote(payload); err != nil {
		log.Printf("❌ [WORKER] quote email %s to %s failed: %s", payload.QuoteID, payload.Email, err)
		d.Nack(false, false)
		return
	}

	log.Printf("✅ [WORKER] quote email %s sent to %s", payload.QuoteID, payload.Email)
	d.Ack(false)
}
