// Package amqp publishes and consumes conflict alerts over RabbitMQ.
package amqp

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"cruce/internal/conflict"
	"cruce/internal/log"
	"cruce/internal/session"
)

// Circuit breaker states.
const (
	StateClosed int32 = iota
	StateOpen
	StateHalfOpen
)

const (
	maxFailures    = 5
	openTimeout    = 30 * time.Second
	maxBackoff     = 30 * time.Second
	publishTimeout = 5 * time.Second
	dialAttempts   = 3
	alertBuffer    = 64
)

var (
	ErrCircuitOpen = errors.New("circuit breaker is open")
	ErrQueueFull   = errors.New("conflict alert queue is full")
	ErrClosed      = errors.New("amqp client closed")
)

// Client queues conflict alerts for a background publish loop and consumes
// them for the archive worker.
type Client struct {
	url          string
	exchangeName string
	queueName    string
	logger       *log.Logger
	backoff      func(attempt int) time.Duration

	mu      sync.Mutex
	conn    *amqp091.Connection
	channel *amqp091.Channel

	state        int32
	failureCount int64
	lastFailure  time.Time

	alerts    chan *ConflictAlert
	stop      context.CancelFunc
	loopDone  chan struct{}
	closed    atomic.Bool
	closeOnce sync.Once
}

var _ session.Notifier = (*Client)(nil)

func NewClient(url, exchangeName, queueName string, logger *log.Logger) (*Client, error) {
	if logger == nil {
		logger = log.Discard()
	}
	client := &Client{
		url:          url,
		exchangeName: exchangeName,
		queueName:    queueName,
		logger:       logger.WithComponent(log.ComponentAMQP),
	}

	client.mu.Lock()
	err := client.connectLocked()
	client.mu.Unlock()
	if err != nil {
		return nil, err
	}
	client.start()
	return client, nil
}

// start launches the publish loop.
func (c *Client) start() {
	ctx, cancel := context.WithCancel(context.Background())
	c.alerts = make(chan *ConflictAlert, alertBuffer)
	c.stop = cancel
	c.loopDone = make(chan struct{})
	go c.publishLoop(ctx)
}

func (c *Client) publishLoop(ctx context.Context) {
	defer close(c.loopDone)
	for {
		select {
		case <-ctx.Done():
			return
		case alert := <-c.alerts:
			if err := c.PublishConflict(ctx, alert); err != nil && ctx.Err() == nil {
				c.logger.WarnContext(ctx, "Conflict alert not published",
					log.FieldOperation, log.OpPublish,
					log.FieldError, err,
					"alert_id", alert.ID)
			}
		}
	}
}

// connectLocked dials and declares the topology. Callers hold c.mu.
func (c *Client) connectLocked() error {
	conn, err := amqp091.Dial(c.url)
	if err != nil {
		return fmt.Errorf("dial AMQP: %w", err)
	}

	channel, err := conn.Channel()
	if err != nil {
		conn.Close()
		return fmt.Errorf("open channel: %w", err)
	}

	if err := c.setup(channel); err != nil {
		channel.Close()
		conn.Close()
		return fmt.Errorf("setup exchange and queue: %w", err)
	}

	c.conn, c.channel = conn, channel
	return nil
}

func (c *Client) setup(ch *amqp091.Channel) error {
	err := ch.ExchangeDeclare(
		c.exchangeName, // name
		"direct",       // type
		true,           // durable
		false,          // auto-deleted
		false,          // internal
		false,          // no-wait
		nil,            // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = ch.QueueDeclare(
		c.queueName, // name
		true,        // durable
		false,       // delete when unused
		false,       // exclusive
		false,       // no-wait
		nil,         // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// Routing key is the queue name on a direct exchange.
	if err := ch.QueueBind(c.queueName, c.queueName, c.exchangeName, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// channelFor returns a usable channel, redialing with backoff when the
// current one is gone.
func (c *Client) channelFor(ctx context.Context) (*amqp091.Channel, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var err error
	for attempt := range dialAttempts {
		if c.channel != nil && !c.channel.IsClosed() {
			return c.channel, nil
		}
		c.closeLocked()
		if err = c.connectLocked(); err == nil {
			c.logger.InfoContext(ctx, "Connected to AMQP broker", "attempt", attempt+1)
			return c.channel, nil
		}
		if attempt == dialAttempts-1 {
			break
		}

		c.mu.Unlock()
		select {
		case <-ctx.Done():
			c.mu.Lock()
			return nil, ctx.Err()
		case <-time.After(c.backoffFor(attempt)):
		}
		c.mu.Lock()
	}
	return nil, err
}

func (c *Client) backoffFor(attempt int) time.Duration {
	if c.backoff != nil {
		return c.backoff(attempt)
	}
	return exponentialBackoff(attempt)
}

// dropChannel closes the connection only while ch is still the current
// channel, so a newer connection survives a stale failure.
func (c *Client) dropChannel(ch *amqp091.Channel) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ch == nil || c.channel != ch {
		return
	}
	c.closeLocked()
}

// NotifyConflict queues an alert for declarant and returns at once. A full
// queue or an open circuit drops the alert with an error.
func (c *Client) NotifyConflict(ctx context.Context, declarant string, r conflict.Result) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.closed.Load() {
		return ErrClosed
	}
	if c.isCircuitOpen() {
		return fmt.Errorf("queue conflict alert: %w", ErrCircuitOpen)
	}

	alert := NewConflictAlert(declarant, r)
	select {
	case c.alerts <- alert:
		return nil
	default:
		return fmt.Errorf("queue conflict alert %s: %w", alert.ID, ErrQueueFull)
	}
}

// PublishConflict publishes one persistent alert and waits for the broker.
// It fails fast while the circuit is open.
func (c *Client) PublishConflict(ctx context.Context, alert *ConflictAlert) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.isCircuitOpen() {
		return fmt.Errorf("publish conflict alert: %w", ErrCircuitOpen)
	}

	body, err := alert.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	channel, err := c.channelFor(ctx)
	if err != nil {
		c.recordFailure()
		return fmt.Errorf("connect: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = channel.PublishWithContext(
		ctx,
		c.exchangeName, // exchange
		c.queueName,    // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			MessageId:    alert.ID,
			Timestamp:    alert.Timestamp,
			Body:         body,
		},
	)
	if err != nil {
		c.recordFailure()
		if isConnectionError(err) {
			c.dropChannel(channel)
		}
		return fmt.Errorf("publish message: %w", err)
	}
	c.recordSuccess()

	c.logger.InfoContext(ctx, "Published conflict alert",
		log.FieldOperation, log.OpPublish,
		log.FieldDeclarant, alert.Declarant,
		log.FieldEntity, alert.CoincidentEntity,
		"alert_id", alert.ID,
		"exchange", c.exchangeName)
	return nil
}

// ConsumeConflicts hands every alert to handler until ctx ends. Malformed
// messages are dropped; handler failures are requeued.
func (c *Client) ConsumeConflicts(ctx context.Context, handler func(context.Context, *ConflictAlert) error) error {
	c.mu.Lock()
	channel := c.channel
	c.mu.Unlock()
	if channel == nil {
		return errors.New("consume: not connected")
	}

	msgs, err := channel.ConsumeWithContext(
		ctx,
		c.queueName, // queue
		"",          // consumer
		false,       // auto-ack (we want manual ack)
		false,       // exclusive
		false,       // no-local
		false,       // no-wait
		nil,         // args
	)
	if err != nil {
		return fmt.Errorf("start consuming: %w", err)
	}

	c.logger.InfoContext(ctx, "Started consuming conflict alerts", "queue", c.queueName)

	for {
		select {
		case <-ctx.Done():
			c.logger.InfoContext(ctx, "Stopping message consumption", "reason", ctx.Err())
			return ctx.Err()
		case delivery, ok := <-msgs:
			if !ok {
				return errors.New("message channel closed")
			}

			alert, err := ConflictAlertFromJSON(delivery.Body)
			if err != nil {
				c.logger.ErrorContext(ctx, "Failed to unmarshal message", log.FieldError, err)
				_ = delivery.Nack(false, false)
				continue
			}

			if err := handler(ctx, alert); err != nil {
				c.logger.ErrorContext(ctx, "Failed to handle conflict alert",
					log.FieldError, err,
					"alert_id", alert.ID)
				_ = delivery.Nack(false, true)
				continue
			}
			_ = delivery.Ack(false)
		}
	}
}

func (c *Client) isCircuitOpen() bool {
	if atomic.LoadInt32(&c.state) != StateOpen {
		return false
	}
	c.mu.Lock()
	since := time.Since(c.lastFailure)
	c.mu.Unlock()
	if since > openTimeout {
		atomic.CompareAndSwapInt32(&c.state, StateOpen, StateHalfOpen)
		return false
	}
	return true
}

func (c *Client) recordSuccess() {
	atomic.StoreInt64(&c.failureCount, 0)
	atomic.StoreInt32(&c.state, StateClosed)
}

func (c *Client) recordFailure() {
	c.mu.Lock()
	c.lastFailure = time.Now()
	c.mu.Unlock()
	if atomic.AddInt64(&c.failureCount, 1) >= maxFailures || atomic.LoadInt32(&c.state) == StateHalfOpen {
		atomic.StoreInt32(&c.state, StateOpen)
	}
}

// exponentialBackoff returns 1s, 2s, 4s, ... capped at maxBackoff.
func exponentialBackoff(attempt int) time.Duration {
	if attempt >= 5 {
		return maxBackoff
	}
	return min(time.Second<<attempt, maxBackoff)
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := strings.ToLower(err.Error())
	for _, s := range []string{"connection", "eof", "broken pipe"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

// closeLocked drops the channel and connection. Callers hold c.mu.
func (c *Client) closeLocked() {
	if c.channel != nil {
		c.channel.Close()
		c.channel = nil
	}
	if c.conn != nil {
		c.conn.Close()
		c.conn = nil
	}
}

// Close stops the publish loop, dropping queued alerts, and closes the
// connection. It is safe to call more than once.
func (c *Client) Close() error {
	c.closeOnce.Do(func() {
		c.closed.Store(true)
		if c.stop != nil {
			c.stop()
			<-c.loopDone
		}
		if n := len(c.alerts); n > 0 {
			c.logger.Warn("Dropping queued conflict alerts", "count", n)
		}
		c.mu.Lock()
		c.closeLocked()
		c.mu.Unlock()
	})
	return nil
}
