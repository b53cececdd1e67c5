package event

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"loan-engine/internal/ingestion"

	amqp "github.com/rabbitmq/amqp091-go"
)

const publisherAppID = "loan-engine"

var _ ingestion.Publisher = (*JobPublisher)(nil)

// JobPublisher publishes ingestion jobs to the topic exchange, one channel per message.
type JobPublisher struct {
	conn         channelOpener
	exchangeName string
	now          func() time.Time
	logger       *slog.Logger
}

func NewJobPublisher(conn *amqp.Connection, exchangeName string, logger *slog.Logger) (*JobPublisher, error) {
	if conn == nil {
		return nil, fmt.Errorf("RabbitMQ connection cannot be nil")
	}
	return newJobPublisher(amqpConnection{conn: conn}, exchangeName, logger)
}

func newJobPublisher(conn channelOpener, exchangeName string, logger *slog.Logger) (*JobPublisher, error) {
	if exchangeName == "" {
		return nil, fmt.Errorf("RabbitMQ exchange name cannot be empty")
	}

	tempCh, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open temporary channel for exchange declaration: %w", err)
	}
	defer tempCh.Close()

	if err := declareExchange(tempCh, exchangeName); err != nil {
		return nil, err
	}
	logger.Info("Ensured RabbitMQ exchange exists", "exchange", exchangeName, "type", amqp.ExchangeTopic)

	return &JobPublisher{
		conn:         conn,
		exchangeName: exchangeName,
		now:          time.Now,
		logger:       logger.With("component", "JobPublisher", "exchange", exchangeName),
	}, nil
}

func declareExchange(ch channel, name string) error {
	if err := ch.ExchangeDeclare(name, amqp.ExchangeTopic, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare exchange '%s': %w", name, err)
	}
	return nil
}

func (p *JobPublisher) Publish(ctx context.Context, req ingestion.JobRequest) error {
	routingKey := req.Kind.RoutingKey()
	logCtx := p.logger.With(slog.String("routingKey", routingKey), slog.String("jobID", req.JobID))

	msg, err := newJobPublishing(req, p.now())
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to marshal job request to JSON", slog.Any("error", err))
		return err
	}

	ch, err := p.conn.Channel()
	if err != nil {
		logCtx.ErrorContext(ctx, "Failed to open RabbitMQ channel", slog.Any("error", err))
		return fmt.Errorf("failed to open channel: %w", err)
	}
	defer ch.Close()

	if err := ch.PublishWithContext(ctx, p.exchangeName, routingKey, false, false, msg); err != nil {
		logCtx.ErrorContext(ctx, "Failed to publish message to RabbitMQ", slog.Any("error", err))
		return fmt.Errorf("failed to publish message: %w", err)
	}

	logCtx.InfoContext(ctx, "Published ingestion job")
	return nil
}

func newJobPublishing(req ingestion.JobRequest, now time.Time) (amqp.Publishing, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return amqp.Publishing{}, fmt.Errorf("failed to marshal job request: %w", err)
	}
	return amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    req.JobID,
		Timestamp:    now,
		Body:         body,
		AppId:        publisherAppID,
	}, nil
}
