// Package queue publishes booking events to RabbitMQ. Publishing is
// best-effort: callers log failures and move on, a booking is never rolled
// back because the broker was unreachable.
package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/kisscinema/booking-api/internal/domain"
)

const bookingEventsQueue = "booking.events"

// Publisher holds one long-lived connection and channel to the broker.
// The channel is established lazily on the first event and re-established
// after a failure.
type Publisher struct {
	url string

	mu   sync.Mutex
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewPublisher(url string) *Publisher {
	return &Publisher{url: url}
}

// PublishBookingEvent delivers the event to the booking.events queue.
// Messages are persistent so they survive broker restarts.
func (p *Publisher) PublishBookingEvent(ctx context.Context, event domain.BookingEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal booking event: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	ch, err := p.channel()
	if err != nil {
		return err
	}

	err = ch.PublishWithContext(ctx,
		"",
		bookingEventsQueue,
		false,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         body,
		},
	)
	if err != nil {
		// Drop the channel so the next event dials fresh.
		p.reset()
		return fmt.Errorf("amqp publish failed: %w", err)
	}

	return nil
}

func (p *Publisher) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.reset()
}

// channel returns the cached channel, dialing the broker and declaring the
// queue when no healthy channel exists. Callers must hold p.mu.
func (p *Publisher) channel() (*amqp.Channel, error) {
	if p.ch != nil && !p.ch.IsClosed() {
		return p.ch, nil
	}

	p.reset()

	conn, err := amqp.Dial(p.url)
	if err != nil {
		return nil, fmt.Errorf("amqp dial failed: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("amqp channel open failed: %w", err)
	}

	// Idempotent; durable so messages survive broker restarts.
	_, err = ch.QueueDeclare(bookingEventsQueue, true, false, false, false, nil)
	if err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("amqp queue declare failed: %w", err)
	}

	p.conn = conn
	p.ch = ch

	return ch, nil
}

// reset closes and clears the cached connection and channel. Callers must
// hold p.mu.
func (p *Publisher) reset() {
	if p.ch != nil {
		p.ch.Close()
		p.ch = nil
	}

	if p.conn != nil {
		p.conn.Close()
		p.conn = nil
	}
}
