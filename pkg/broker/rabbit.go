package broker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

const publishTimeout = 5 * time.Second

// RabbitPublisher sends order events to a durable fanout exchange.
type RabbitPublisher struct {
	l        *slog.Logger
	conn     *amqp.Connection
	ch       *amqp.Channel
	exchange string
}

func NewRabbitPublisher(l *slog.Logger, url, exchange string) (*RabbitPublisher, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, fmt.Errorf("dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	err = ch.ExchangeDeclare(exchange, amqp.ExchangeFanout, true, false, false, false, nil)
	if err != nil {
		_ = ch.Close()
		_ = conn.Close()

		return nil, fmt.Errorf("declare exchange %s: %w", exchange, err)
	}

	return &RabbitPublisher{
		l:        l.WithGroup("rabbitmq").With("exchange", exchange),
		conn:     conn,
		ch:       ch,
		exchange: exchange,
	}, nil
}

func (p *RabbitPublisher) SendOrderPaid(ctx context.Context, event OrderPaidEvent) {
	b, err := event.marshal()
	if err != nil {
		p.l.ErrorContext(ctx, fmt.Sprintf("marshal event: %s", err))
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	err = p.ch.PublishWithContext(ctx, p.exchange, "", false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    event.EventID.String(),
		Timestamp:    event.PaidAt,
		Body:         b,
	})
	if err != nil {
		p.l.ErrorContext(ctx, fmt.Sprintf("publish message: %s", err))
	}
}

func (p *RabbitPublisher) Close() {
	err := p.ch.Close()
	if err != nil {
		p.l.Error(fmt.Sprintf("close channel: %s", err))
	}

	err = p.conn.Close()
	if err != nil {
		p.l.Error(fmt.Sprintf("close connection: %s", err))
	}
}
