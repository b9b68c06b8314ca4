package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/xavierca1/matchday-leads/internal/pricing"
)

type LeadCreatedPayload struct {
	LeadID    string    `json:"lead_id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	EventID   string    `json:"event_id,omitempty"`
	Travelers int       `json:"travelers"`
	CreatedAt time.Time `json:"created_at"`
}

// QuoteGeneratedPayload carries everything the quote email needs, so the
// worker never reads the database.
type QuoteGeneratedPayload struct {
	QuoteID       string            `json:"quote_id"`
	LeadID        string            `json:"lead_id"`
	Name          string            `json:"name"`
	Email         string            `json:"email"`
	PackageName   string            `json:"package_name"`
	EventName     string            `json:"event_name"`
	EventLocation string            `json:"event_location"`
	EventDate     time.Time         `json:"event_date"`
	ValidUntil    time.Time         `json:"valid_until"`
	Breakdown     pricing.Breakdown `json:"breakdown"`
}

type QuoteRespondedPayload struct {
	QuoteID     string    `json:"quote_id"`
	LeadID      string    `json:"lead_id"`
	Response    string    `json:"response"`
	LeadStatus  string    `json:"lead_status"`
	RespondedAt time.Time `json:"responded_at"`
}

// Publisher is the part of *amqp.Channel the producer uses.
type Publisher interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type RabbitMQProducer struct {
	Ch Publisher
}

func NewProducer(ch Publisher) *RabbitMQProducer {
	return &RabbitMQProducer{Ch: ch}
}

func (p *RabbitMQProducer) PublishLeadCreated(ctx context.Context, payload LeadCreatedPayload) error {
	return p.publish(ctx, RoutingLeadCreated, payload)
}

func (p *RabbitMQProducer) PublishQuoteGenerated(ctx context.Context, payload QuoteGeneratedPayload) error {
	return p.publish(ctx, RoutingQuoteGenerated, payload)
}

func (p *RabbitMQProducer) PublishQuoteResponded(ctx context.Context, payload QuoteRespondedPayload) error {
	return p.publish(ctx, RoutingQuoteResponded, payload)
}

func (p *RabbitMQProducer) publish(ctx context.Context, key string, payload any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", key, err)
	}

	err = p.Ch.PublishWithContext(ctx,
		ExchangeName,
		key,
		false, // Mandatory
		false, // Immediate
		amqp.Publishing{
			ContentType:  "application/json",
			Body:         body,
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Type:         key,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish %s to RabbitMQ: %w", key, err)
	}

	return nil
}
