package queue

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

const (
	ExchangeName = "ex.leads"
	DLXName      = "ex.leads.dlx" // Dead Letter Exchange

	QuoteEmailQueue = "q.quote-emails"
	QuoteEmailDLQ   = "q.quote-emails.dlq"

	RoutingLeadCreated    = "lead.created"
	RoutingQuoteGenerated = "quote.generated"
	RoutingQuoteResponded = "quote.responded"
)

type RabbitMQ struct {
	Conn *amqp.Connection
	Ch   *amqp.Channel
}

func NewRabbitMQ(url string) (*RabbitMQ, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	if err := setupTopology(ch); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("failed to declare topology: %w", err)
	}

	return &RabbitMQ{Conn: conn, Ch: ch}, nil
}

// setupTopology declares the topic exchange for domain events and the quote
// email queue. Rejected quote emails are parked in the DLQ.
func setupTopology(ch *amqp.Channel) error {
	if err := ch.ExchangeDeclare(DLXName, "direct", true, false, false, false, nil); err != nil {
		return err
	}
	if _, err := ch.QueueDeclare(QuoteEmailDLQ, true, false, false, false, nil); err != nil {
		return err
	}
	if err := ch.QueueBind(QuoteEmailDLQ, RoutingQuoteGenerated, DLXName, false, nil); err != nil {
		return err
	}

	if err := ch.ExchangeDeclare(ExchangeName, "topic", true, false, false, false, nil); err != nil {
		return err
	}

	args := amqp.Table{
		"x-dead-letter-exchange":    DLXName,
		"x-dead-letter-routing-key": RoutingQuoteGenerated,
	}
	if _, err := ch.QueueDeclare(QuoteEmailQueue, true, false, false, false, args); err != nil {
		return err
	}
	return ch.QueueBind(QuoteEmailQueue, RoutingQuoteGenerated, ExchangeName, false, nil)
}

// Healthy reports whether the connection and channel are still open.
func (r *RabbitMQ) Healthy() bool {
	return r != nil && r.Conn != nil && !r.Conn.IsClosed() && r.Ch != nil && !r.Ch.IsClosed()
}

func (r *RabbitMQ) Close() {
	if r.Ch != nil {
		r.Ch.Close()
	}
	if r.Conn != nil {
		r.Conn.Close()
	}
}
