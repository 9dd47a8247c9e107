package rabbitmq

import (
	"fmt"

	amqp "github.com/rabbitmq/amqp091-go"
)

type Config struct {
	URL string
}

// Client owns one connection and the channel the consumer runs on.
type Client struct {
	conn *amqp.Connection
	ch   *amqp.Channel
}

func NewClient(cfg Config) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	return &Client{conn: conn, ch: ch}, nil
}

func (c *Client) Channel() *amqp.Channel {
	return c.ch
}

// NotifyClose reports the connection-level error that ended the connection.
func (c *Client) NotifyClose() <-chan *amqp.Error {
	return c.conn.NotifyClose(make(chan *amqp.Error, 1))
}

func (c *Client) Close() error {
	if c.ch != nil {
		c.ch.Close()
	}
	return c.conn.Close()
}
