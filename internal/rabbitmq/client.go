package rabbitmq

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/GoArmGo/PhotoCollections/internal/config"
	"github.com/GoArmGo/PhotoCollections/internal/messaging/payloads"

	amqp "github.com/rabbitmq/amqp091-go"
)

// Client клиент RabbitMQ для очереди скачиваний
type Client struct {
	conn    *amqp.Connection
	channel *amqp.Channel
	queue   amqp.Queue
	logger  *slog.Logger

	// ограничение параллельно обрабатываемых сообщений
	limiter  chan struct{}
	inflight sync.WaitGroup

	// stop закрывает Close; consumers ждёт выхода циклов разбора
	stop      chan struct{}
	stopOnce  sync.Once
	consumers sync.WaitGroup
}

func newClient(logger *slog.Logger, concurrency int) *Client {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Client{
		logger:  logger,
		limiter: make(chan struct{}, concurrency),
		stop:    make(chan struct{}),
	}
}

// NewClient подключается к RabbitMQ и объявляет очередь скачиваний
func NewClient(cfg *config.Config, logger *slog.Logger) (*Client, error) {
	client := newClient(logger, cfg.DownloadConcurrency)
	concurrency := cap(client.limiter)

	conn, err := amqp.Dial(cfg.RabbitMQ.RabbitMQURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}
	client.conn = conn
	logger.Info("connected to RabbitMQ")

	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to open a channel: %w", err)
	}
	client.channel = ch

	// идемпотентно: существующая очередь не пересоздаётся
	q, err := ch.QueueDeclare(
		cfg.RabbitMQ.RabbitMQQueueName,
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,
	)
	if err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to declare a queue: %w", err)
	}
	client.queue = q
	logger.Info("queue declared", "queue", q.Name, "messages", q.Messages)

	if err := ch.Qos(concurrency, 0, false); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	return client, nil
}

// Close останавливает потребителя, дожидается обрабатываемых сообщений
// и закрывает канал и соединение
func (c *Client) Close() {
	c.stopOnce.Do(func() { close(c.stop) })
	// после выхода циклов inflight.Add больше не вызывается
	c.consumers.Wait()
	c.inflight.Wait()
	if c.channel != nil {
		if err := c.channel.Close(); err != nil {
			c.logger.Warn("error closing RabbitMQ channel", "error", err)
		}
	}
	if c.conn != nil {
		if err := c.conn.Close(); err != nil {
			c.logger.Warn("error closing RabbitMQ connection", "error", err)
		}
	}
	c.logger.Info("RabbitMQ connection closed")
}

// PublishDownloadRequest публикует задачу на скачивание фото
func (c *Client) PublishDownloadRequest(ctx context.Context, payload payloads.DownloadPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload to JSON: %w", err)
	}

	publishCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	err = c.channel.PublishWithContext(
		publishCtx,
		"",           // exchange
		c.queue.Name, // routing key
		false,        // mandatory
		false,        // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    payload.JobID.String(),
			Timestamp:    time.Now(),
			Body:         body,
		},
	)
	if err != nil {
		return fmt.Errorf("failed to publish a message: %w", err)
	}

	c.logger.Info("download request published",
		"queue", c.queue.Name,
		"job_id", payload.JobID.String(),
		"unsplash_id", payload.UnsplashID,
	)
	return nil
}

// StartConsumingDownloadRequests регистрирует потребителя и обрабатывает
// сообщения в фоне, не больше DOWNLOAD_CONCURRENCY одновременно, пока не отменён ctx
func (c *Client) StartConsumingDownloadRequests(ctx context.Context, handler func(context.Context, payloads.DownloadPayload) error) error {
	msgs, err := c.channel.Consume(
		c.queue.Name,
		"",    // consumer
		false, // auto-ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		return fmt.Errorf("failed to register a consumer: %w", err)
	}

	c.logger.Info("consumer registered, waiting for messages", "queue", c.queue.Name)

	c.consume(ctx, msgs, handler)

	return nil
}

func (c *Client) consume(ctx context.Context, msgs <-chan amqp.Delivery, handler func(context.Context, payloads.DownloadPayload) error) {
	c.consumers.Add(1)
	go func() {
		defer c.consumers.Done()
		c.dispatch(ctx, msgs, handler)
	}()
}

// dispatch раздаёт сообщения обработчикам, пока не отменён ctx или не вызван Close.
// Сообщение, взятое после остановки, возвращается в очередь.
func (c *Client) dispatch(ctx context.Context, msgs <-chan amqp.Delivery, handler func(context.Context, payloads.DownloadPayload) error) {
	requeue := func(msg amqp.Delivery) {
		if err := msg.Nack(false, true); err != nil {
			c.logger.Warn("failed to requeue message on shutdown", "error", err)
		}
		c.logger.Info("stopping RabbitMQ consumer")
	}

	for {
		select {
		case msg, ok := <-msgs:
			if !ok {
				c.logger.Info("RabbitMQ channel closed, stopping consumer")
				return
			}
			select {
			case c.limiter <- struct{}{}:
			case <-ctx.Done():
				requeue(msg)
				return
			case <-c.stop:
				requeue(msg)
				return
			}
			// select выбирает готовую ветку случайно, поэтому остановку проверяем ещё раз
			if c.stopping(ctx) {
				<-c.limiter
				requeue(msg)
				return
			}
			c.inflight.Add(1)
			go func(msg amqp.Delivery) {
				defer func() {
					<-c.limiter
					c.inflight.Done()
				}()
				handleDelivery(ctx, c.logger, msg, msg.Body, handler)
			}(msg)
		case <-ctx.Done():
			c.logger.Info("context cancelled, stopping RabbitMQ consumer")
			return
		case <-c.stop:
			c.logger.Info("client closed, stopping RabbitMQ consumer")
			return
		}
	}
}

func (c *Client) stopping(ctx context.Context) bool {
	if ctx.Err() != nil {
		return true
	}
	select {
	case <-c.stop:
		return true
	default:
		return false
	}
}

// Acknowledger подтверждение сообщения, его реализует amqp.Delivery
type Acknowledger interface {
	Ack(multiple bool) error
	Nack(multiple, requeue bool) error
}

// handleDelivery разбирает сообщение и вызывает handler. Битые сообщения
// отклоняются без возврата в очередь, неудачные задачи возвращаются в очередь.
func handleDelivery(ctx context.Context, logger *slog.Logger, ack Acknowledger, body []byte, handler func(context.Context, payloads.DownloadPayload) error) {
	var payload payloads.DownloadPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		logger.Error("failed to unmarshal message", "error", err, "body", string(body))
		if err := ack.Nack(false, false); err != nil {
			logger.Error("failed to nack malformed message", "error", err)
		}
		return
	}
	if err := payload.Validate(); err != nil {
		logger.Error("invalid download payload", "error", err, "job_id", payload.JobID.String())
		if err := ack.Nack(false, false); err != nil {
			logger.Error("failed to nack invalid message", "error", err)
		}
		return
	}

	log := logger.With("job_id", payload.JobID.String(), "unsplash_id", payload.UnsplashID)
	log.Info("message received")

	if err := handler(ctx, payload); err != nil {
		requeue := !errors.Is(err, payloads.ErrInvalidPayload)
		log.Error("failed to process message", "error", err, "requeue", requeue)
		if err := ack.Nack(false, requeue); err != nil {
			log.Error("failed to nack message", "error", err)
		}
		return
	}

	if err := ack.Ack(false); err != nil {
		log.Error("failed to ack message", "error", err)
		return
	}
	log.Info("message processed and acked")
}
