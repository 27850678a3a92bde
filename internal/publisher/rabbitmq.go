package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"blog_generator/internal/domain"
)

const (
	ActionCreate = "create"
	ActionUpdate = "update"
)

var ErrNotConfirmed = errors.New("broker did not confirm message")

// RabbitMQ announces generated posts on a durable direct exchange. The
// channel runs in confirm mode so Publish returns only once the broker has
// taken the message.
type RabbitMQ struct {
	conn       *amqp.Connection
	channel    *amqp.Channel
	exchange   string
	routingKey string
	logger     *slog.Logger
}

type Config struct {
	URL        string
	Exchange   string
	RoutingKey string
	QueueName  string
}

func NewRabbitMQ(cfg Config, logger *slog.Logger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to rabbitmq: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("open channel: %w", err)
	}

	if err := declareTopology(ch, cfg); err != nil {
		ch.Close()
		conn.Close()
		return nil, err
	}

	if err := ch.Confirm(false); err != nil {
		ch.Close()
		conn.Close()
		return nil, fmt.Errorf("enable confirms: %w", err)
	}

	logger.Info("connected to rabbitmq",
		"exchange", cfg.Exchange,
		"queue", cfg.QueueName,
		"routing_key", cfg.RoutingKey,
	)

	return &RabbitMQ{
		conn:       conn,
		channel:    ch,
		exchange:   cfg.Exchange,
		routingKey: cfg.RoutingKey,
		logger:     logger.With("component", "publisher"),
	}, nil
}

// declareTopology makes sure the exchange, the queue and their binding exist.
// All three are durable.
func declareTopology(ch *amqp.Channel, cfg Config) error {
	if err := ch.ExchangeDeclare(cfg.Exchange, amqp.ExchangeDirect, true, false, false, false, nil); err != nil {
		return fmt.Errorf("declare exchange %s: %w", cfg.Exchange, err)
	}

	q, err := ch.QueueDeclare(cfg.QueueName, true, false, false, false, nil)
	if err != nil {
		return fmt.Errorf("declare queue %s: %w", cfg.QueueName, err)
	}

	if err := ch.QueueBind(q.Name, cfg.RoutingKey, cfg.Exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue %s: %w", q.Name, err)
	}
	return nil
}

// PostSummary is what downstream consumers need to pick a post up; the HTML
// itself stays on disk or in the bucket.
type PostSummary struct {
	ID          uuid.UUID `json:"id"`
	Topic       string    `json:"topic"`
	Slug        string    `json:"slug"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Author      string    `json:"author"`
	Keywords    []string  `json:"keywords"`
	Tags        []string  `json:"tags"`
	URL         string    `json:"url"`
	FilePath    string    `json:"file_path"`
	ObjectKey   string    `json:"object_key,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}

type PostMessage struct {
	Action    string      `json:"action"`
	Post      PostSummary `json:"post"`
	Timestamp time.Time   `json:"timestamp"`
}

func NewPostMessage(post *domain.Post, isNew bool) PostMessage {
	action := ActionUpdate
	if isNew {
		action = ActionCreate
	}

	return PostMessage{
		Action: action,
		Post: PostSummary{
			ID:          post.ID,
			Topic:       post.Topic,
			Slug:        post.Slug,
			Title:       post.Content.Title,
			Description: post.Content.Description,
			Author:      post.Content.Author,
			Keywords:    post.Content.Keywords,
			Tags:        post.Content.Tags,
			URL:         post.URL,
			FilePath:    post.FilePath,
			ObjectKey:   post.ObjectKey,
			GeneratedAt: post.GeneratedAt,
		},
		Timestamp: time.Now().UTC(),
	}
}

// Publish sends a create or update message for post and waits for the
// broker's confirmation.
func (r *RabbitMQ) Publish(ctx context.Context, post *domain.Post, isNew bool) error {
	msg := NewPostMessage(post, isNew)

	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	confirm, err := r.channel.PublishWithDeferredConfirmWithContext(ctx, r.exchange, r.routingKey, false, false,
		amqp.Publishing{
			DeliveryMode: amqp.Persistent,
			ContentType:  "application/json",
			MessageId:    post.ID.String(),
			Type:         "post." + msg.Action,
			Timestamp:    msg.Timestamp,
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("publish message: %w", err)
	}

	acked, err := confirm.WaitContext(ctx)
	if err != nil {
		return fmt.Errorf("wait for confirm: %w", err)
	}
	if !acked {
		return ErrNotConfirmed
	}

	r.logger.Debug("published post",
		"post_id", post.ID,
		"slug", post.Slug,
		"action", msg.Action,
	)

	return nil
}

func (r *RabbitMQ) Close() error {
	var errs []error
	if r.channel != nil {
		errs = append(errs, r.channel.Close())
	}
	if r.conn != nil {
		errs = append(errs, r.conn.Close())
	}
	return errors.Join(errs...)
}
