package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/streadway/amqp"

	"hand_hockey/internal/domain"
	"hand_hockey/internal/logger"
)

// Publisher экспортирует уведомления в topic exchange.
// Ключ маршрутизации: match.<kind>, например match.round_resolved.
type Publisher struct {
	mu       sync.Mutex
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func DialPublisher(url, exchange string) (*Publisher, error) {
	conn, err := amqp.DialConfig(url, amqp.Config{Heartbeat: 30 * time.Second, Locale: "en_US"})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to AMQP: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}
	if err := ch.ExchangeDeclare(
		exchange,
		"topic",
		true,  // durable
		false, // auto-deleted
		false, // internal
		false, // no-wait
		nil,
	); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
	}
	return &Publisher{conn: conn, ch: ch, exchange: exchange}, nil
}

// RoutingKey - ключ маршрутизации уведомления
func RoutingKey(n domain.Notification) string {
	return "match." + string(n.Kind)
}

// Notify публикует уведомление; ошибка только логируется, матч от брокера не зависит
func (p *Publisher) Notify(_ context.Context, n domain.Notification) {
	body, err := json.Marshal(n)
	if err != nil {
		logger.Error("failed to encode notification", "match_id", n.MatchID, "error", err)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	err = p.ch.Publish(p.exchange, RoutingKey(n), false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    messageID(n),
		Timestamp:    n.CreatedAt,
		Body:         body,
	})
	if err != nil {
		logger.Error("failed to publish notification", "match_id", n.MatchID, "kind", n.Kind, "error", err)
	}
}

// messageID позволяет потребителю отбросить повторную доставку события раунда
func messageID(n domain.Notification) string {
	if n.Event != nil {
		return n.Event.ID
	}
	return fmt.Sprintf("%s:%s:%d", n.MatchID, n.Kind, n.CreatedAt.UnixNano())
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if err := p.ch.Close(); err != nil {
		p.conn.Close()
		return err
	}
	return p.conn.Close()
}
