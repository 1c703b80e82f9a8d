package rabbitmq

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"accounts/internal/models"

	"github.com/sirupsen/logrus"
	amqp "github.com/streadway/amqp"
)

// Channel is the subset of *amqp.Channel the client uses.
type Channel interface {
	QueueDeclare(name string, durable, autoDelete, exclusive, noWait bool, args amqp.Table) (amqp.Queue, error)
	Publish(exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
	Consume(queue, consumer string, autoAck, exclusive, noLocal, noWait bool, args amqp.Table) (<-chan amqp.Delivery, error)
	Close() error
}

// Client holds the RabbitMQ connection and channel.
type Client struct {
	conn    *amqp.Connection
	channel Channel
	cfg     Config
	log     logrus.FieldLogger
	mu      sync.Mutex // amqp channels are not safe for concurrent publishing
}

// Config holds RabbitMQ connection details.
type Config struct {
	URL          string
	RequestQueue string
	EventQueue   string
}

// NewClient creates a new RabbitMQ client.
// It connects to RabbitMQ, opens a channel and declares both queues.
func NewClient(cfg Config, log logrus.FieldLogger) (*Client, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to open channel: %w", err)
	}

	c, err := NewClientWithChannel(ch, cfg, log)
	if err != nil {
		conn.Close()
		return nil, err
	}
	c.conn = conn
	return c, nil
}

// NewClientWithChannel wraps an already open channel and declares both queues.
func NewClientWithChannel(ch Channel, cfg Config, log logrus.FieldLogger) (*Client, error) {
	for _, queue := range []string{cfg.RequestQueue, cfg.EventQueue} {
		if _, err := declare(ch, queue); err != nil {
			ch.Close()
			return nil, err
		}
	}

	log.WithFields(logrus.Fields{
		"request_queue": cfg.RequestQueue,
		"event_queue":   cfg.EventQueue,
	}).Info("RabbitMQ client connected and queues declared")

	return &Client{
		channel: ch,
		cfg:     cfg,
		log:     log,
	}, nil
}

func declare(ch Channel, queue string) (amqp.Queue, error) {
	q, err := ch.QueueDeclare(
		queue,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		return amqp.Queue{}, fmt.Errorf("failed to declare %s: %w", queue, err)
	}
	return q, nil
}

// Close closes the RabbitMQ connection and channel.
func (c *Client) Close() error {
	var errs []error
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close channel: %w", err))
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close connection: %w", err))
		}
	}
	return errors.Join(errs...)
}

// Publish sends a persistent JSON message.
func (c *Client) Publish(exchange, routingKey string, body []byte) error {
	return c.publish(exchange, routingKey, amqp.Publishing{
		ContentType:  "application/json",
		Body:         body,
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now(),
	})
}

// PublishUserRegistered publishes a registration event to the event queue.
func (c *Client) PublishUserRegistered(event models.UserRegisteredEvent) error {
	body, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal user registered event: %w", err)
	}
	if err := c.Publish("", c.cfg.EventQueue, body); err != nil {
		return err
	}

	c.log.WithField("user_id", event.UserID).Debug("sent user registered event")
	return nil
}

// Reply answers a request on its reply-to queue.
func (c *Client) Reply(replyTo, correlationID string, body []byte) error {
	return c.publish("", replyTo, amqp.Publishing{
		ContentType:   "application/json",
		CorrelationId: correlationID,
		Body:          body,
		Timestamp:     time.Now(),
	})
}

func (c *Client) publish(exchange, routingKey string, msg amqp.Publishing) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.channel.Publish(exchange, routingKey, false, false, msg); err != nil {
		return fmt.Errorf("failed to publish message to %s: %w", routingKey, err)
	}
	return nil
}

// ConsumeRegistrationRequests starts a goroutine that hands every registration
// request to handler. Messages are acked when handler returns nil and requeued
// otherwise. The goroutine exits when the channel is closed.
func (c *Client) ConsumeRegistrationRequests(handler func(msg amqp.Delivery) error) error {
	if c.channel == nil {
		return fmt.Errorf("RabbitMQ channel is not available for consumption")
	}

	queue, err := declare(c.channel, c.cfg.RequestQueue)
	if err != nil {
		return err
	}

	msgs, err := c.channel.Consume(
		queue.Name,
		"",    // consumer tag
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register consumer: %w", err)
	}

	c.log.WithField("queue", queue.Name).Info("waiting for registration requests")

	go c.dispatch(msgs, handler)
	return nil
}

func (c *Client) dispatch(msgs <-chan amqp.Delivery, handler func(msg amqp.Delivery) error) {
	for msg := range msgs {
		entry := c.log.WithField("delivery_tag", msg.DeliveryTag)
		if err := handler(msg); err != nil {
			entry.WithError(err).Error("error processing registration request")
			if nackErr := msg.Nack(false, true); nackErr != nil {
				entry.WithError(nackErr).Error("error nacking message")
			}
			continue
		}
		if ackErr := msg.Ack(false); ackErr != nil {
			entry.WithError(ackErr).Error("error acking message")
		}
	}
}
