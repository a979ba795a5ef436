package util

import (
	"fmt"

	"friendlink/internal/config"

	amqp "github.com/rabbitmq/amqp091-go"
)

type RabbitMQClient struct {
	conn    *amqp.Connection
	channel *amqp.Channel
}

func NewRabbitMQClient(cfg *config.Config) (*RabbitMQClient, error) {
	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open RabbitMQ channel: %w", err)
	}

	return &RabbitMQClient{
		conn:    conn,
		channel: channel,
	}, nil
}

// GetChannel returns the underlying channel (for consumers)
func (r *RabbitMQClient) GetChannel() *amqp.Channel {
	return r.channel
}

// DeclareDirect declares a durable direct exchange and a durable queue
// bound to it with the given routing key.
func (r *RabbitMQClient) DeclareDirect(exchange, queue, routingKey string) error {
	if err := r.channel.ExchangeDeclare(exchange, "direct", true, false, false, false, nil); err != nil {
		return err
	}

	if _, err := r.channel.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return err
	}

	return r.channel.QueueBind(queue, routingKey, exchange, false, nil)
}

// Publish sends a persistent JSON message to an exchange.
func (r *RabbitMQClient) Publish(exchange, routingKey string, body []byte) error {
	return r.channel.Publish(exchange, routingKey, false, false, amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Body:         body,
	})
}

// IsClosed reports whether the underlying connection has been closed.
func (r *RabbitMQClient) IsClosed() bool {
	return r.conn == nil || r.conn.IsClosed()
}

// Close closes the channel and connection
func (r *RabbitMQClient) Close() error {
	if r.channel != nil {
		r.channel.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}
