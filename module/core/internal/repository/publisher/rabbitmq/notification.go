package rabbitmq

import (
	"context"
	"encoding/json"
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/nandanugg/region-notifier/module/core/domain"
	"github.com/nandanugg/region-notifier/module/core/internal/repository/publisher"
)

var _ publisher.NotificationPublisher = (*NotificationPublisher)(nil)

const (
	ExchangeName = "geofence.notifications"
	QueueName    = "notification_requests"
)

type NotificationPublisher struct {
	ch *amqp.Channel
}

func NewNotificationPublisher(conn *amqp.Connection) (*NotificationPublisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("rabbitmq channel: %w", err)
	}

	if err := declareTopology(ch); err != nil {
		return nil, err
	}

	return &NotificationPublisher{ch: ch}, nil
}

type topologyChannel interface {
	ExchangeDeclare(name, kind string, durable, autoDelete, internal, noWait bool, args amqp.Table) error
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	QueueBind(name, key, exchange string, noWait bool, args amqp.Table) error
	Close() error
}

// declareTopology closes ch when any declaration fails.
func declareTopology(ch topologyChannel) error {
	if err := ch.ExchangeDeclare(ExchangeName, "fanout", true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return fmt.Errorf("declare exchange: %w", err)
	}

	if _, err := ch.QueueDeclare(QueueName, true, false, false, false, nil); err != nil {
		_ = ch.Close()
		return fmt.Errorf("declare queue: %w", err)
	}

	if err := ch.QueueBind(QueueName, "", ExchangeName, false, nil); err != nil {
		_ = ch.Close()
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// Message is the wire format consumed by the notification delivery host.
// Times are unix milliseconds.
type Message struct {
	ID          string          `json:"id"`
	RegionID    string          `json:"region_id"`
	Title       string          `json:"title"`
	Body        string          `json:"body"`
	Location    MessageLocation `json:"location"`
	RequestedAt int64           `json:"requested_at"`
}

type MessageLocation struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Timestamp int64   `json:"timestamp"`
}

func encodeNotification(req *domain.NotificationRequest) ([]byte, error) {
	msg := Message{
		ID:       req.ID.String(),
		RegionID: string(req.RegionID),
		Title:    req.Title,
		Body:     req.Body,
		Location: MessageLocation{
			Latitude:  req.Fix.Latitude,
			Longitude: req.Fix.Longitude,
			Timestamp: req.Fix.Timestamp.UnixMilli(),
		},
		RequestedAt: req.RequestedAt.UnixMilli(),
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return nil, fmt.Errorf("marshal notification: %w", err)
	}
	return body, nil
}

func (p *NotificationPublisher) PublishNotification(ctx context.Context, req *domain.NotificationRequest) error {
	body, err := encodeNotification(req)
	if err != nil {
		return err
	}

	return p.ch.PublishWithContext(ctx, ExchangeName, "", false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    req.ID.String(),
		Body:         body,
	})
}

func (p *NotificationPublisher) Close() error {
	return p.ch.Close()
}
