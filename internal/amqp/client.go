// Package amqp publishes expense events to RabbitMQ. Publishing is best
// effort: the broker is dialed lazily and a circuit breaker stops a dead
// broker from slowing every submission down.
package amqp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rabbitmq/amqp091-go"

	"budget/internal/core"
	applog "budget/internal/log"
)

// Circuit breaker states
const (
	StateClosed int32 = iota
	StateOpen
	StateHalfOpen
)

const (
	maxFailures    = 3
	openTimeout    = 30 * time.Second
	publishTimeout = 5 * time.Second
	heartbeat      = 10 * time.Second
)

// dialTimeout bounds the TCP connect and the AMQP handshake. A CLI run
// publishes at most once, so this is what keeps a dead broker from stalling
// it; the circuit breaker only matters to long-lived publishers.
var dialTimeout = 5 * time.Second

var ErrCircuitOpen = errors.New("circuit breaker is open")

// channel is the part of *amqp091.Channel the publisher uses.
type channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp091.Publishing) error
	Close() error
}

type dialFunc func(url, exchange, queue string) (channel, io.Closer, error)

type Publisher struct {
	url          string
	exchangeName string
	queueName    string
	logger       *applog.Logger
	dial         dialFunc

	mu           sync.Mutex
	conn         io.Closer
	ch           channel
	state        int32
	failureCount int64
	lastFailure  time.Time
}

// NewPublisher returns a publisher for the given exchange and queue. No
// connection is made until the first publish.
func NewPublisher(url, exchangeName, queueName string, logger *applog.Logger) *Publisher {
	if logger == nil {
		logger = applog.Discard()
	}
	return &Publisher{
		url:          url,
		exchangeName: exchangeName,
		queueName:    queueName,
		logger:       logger.WithComponent(applog.ComponentAMQP),
		dial:         dialBroker,
	}
}

func dialBroker(url, exchange, queue string) (channel, io.Closer, error) {
	conn, err := amqp091.DialConfig(url, amqp091.Config{
		Heartbeat: heartbeat,
		Locale:    "en_US",
		Dial:      amqp091.DefaultDial(dialTimeout),
	})
	if err != nil {
		return nil, nil, fmt.Errorf("dial AMQP: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}

	if err := setup(ch, exchange, queue); err != nil {
		ch.Close()
		conn.Close()
		return nil, nil, fmt.Errorf("setup exchange and queue: %w", err)
	}
	return ch, conn, nil
}

func setup(ch *amqp091.Channel, exchange, queue string) error {
	err := ch.ExchangeDeclare(
		exchange, // name
		"direct", // type
		true,     // durable
		false,    // auto-deleted
		false,    // internal
		false,    // no-wait
		nil,      // arguments
	)
	if err != nil {
		return fmt.Errorf("declare exchange: %w", err)
	}

	_, err = ch.QueueDeclare(
		queue, // name
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		nil,   // arguments
	)
	if err != nil {
		return fmt.Errorf("declare queue: %w", err)
	}

	// Routing key is the queue name for a direct exchange.
	if err := ch.QueueBind(queue, queue, exchange, false, nil); err != nil {
		return fmt.Errorf("bind queue: %w", err)
	}
	return nil
}

// PublishExpenseAdded publishes an ExpenseAddedMessage for d.
func (p *Publisher) PublishExpenseAdded(ctx context.Context, d core.ExpenseDraft, userEmail string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	msg, err := NewExpenseAddedMessage(d, userEmail)
	if err != nil {
		return fmt.Errorf("build message: %w", err)
	}
	body, err := msg.ToJSON()
	if err != nil {
		return fmt.Errorf("marshal message: %w", err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if p.isCircuitOpen() {
		return ErrCircuitOpen
	}

	if p.ch == nil {
		ch, conn, err := p.dial(p.url, p.exchangeName, p.queueName)
		if err != nil {
			p.recordFailure()
			return err
		}
		p.ch, p.conn = ch, conn
	}

	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	err = p.ch.PublishWithContext(
		ctx,
		p.exchangeName, // exchange
		p.queueName,    // routing key
		false,          // mandatory
		false,          // immediate
		amqp091.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp091.Persistent,
			Timestamp:    msg.Timestamp,
			Body:         body,
		},
	)
	if err != nil {
		p.recordFailure()
		if isConnectionError(err) {
			p.dropLocked()
		}
		return fmt.Errorf("publish message: %w", err)
	}
	p.recordSuccess()

	p.logger.InfoContext(ctx, "Published expense added message",
		applog.FieldOperation, applog.OpPublish,
		applog.FieldExpenseDesc, msg.Description,
		"exchange", p.exchangeName,
		"queue", p.queueName)
	return nil
}

// isCircuitOpen moves an open circuit to half-open once openTimeout has
// passed. Callers hold p.mu.
func (p *Publisher) isCircuitOpen() bool {
	if p.state != StateOpen {
		return false
	}
	if time.Since(p.lastFailure) > openTimeout {
		p.state = StateHalfOpen
		return false
	}
	return true
}

func (p *Publisher) recordSuccess() {
	p.failureCount = 0
	p.state = StateClosed
}

func (p *Publisher) recordFailure() {
	p.failureCount++
	p.lastFailure = time.Now()
	if p.state == StateHalfOpen || p.failureCount >= maxFailures {
		p.state = StateOpen
	}
}

func (p *Publisher) dropLocked() {
	if p.ch != nil {
		p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		p.conn.Close()
		p.conn = nil
	}
}

func isConnectionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, amqp091.ErrClosed) {
		return true
	}
	msg := err.Error()
	for _, s := range []string{"connection", "EOF", "broken pipe", "channel/connection is not open"} {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	var err error
	if p.ch != nil {
		err = p.ch.Close()
		p.ch = nil
	}
	if p.conn != nil {
		err = errors.Join(err, p.conn.Close())
		p.conn = nil
	}
	return err
}
