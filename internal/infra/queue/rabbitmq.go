package queue

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/bytedance/sonic"
	"github.com/dynoform/composer/internal/config"
	"github.com/dynoform/composer/internal/modules/service"
	amqp "github.com/rabbitmq/amqp091-go"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// tableCarrier adapts amqp.Table to the TextMapCarrier shape so trace
// context rides in message headers.
type tableCarrier struct {
	table amqp.Table
}

func (c tableCarrier) Get(key string) string {
	if val, ok := c.table[key]; ok {
		if str, ok := val.(string); ok {
			return str
		}
		return fmt.Sprintf("%v", val)
	}
	return ""
}

func (c tableCarrier) Set(key, value string) {
	c.table[key] = value
}

func (c tableCarrier) Keys() []string {
	keys := make([]string, 0, len(c.table))
	for k := range c.table {
		keys = append(keys, k)
	}
	return keys
}

// DialFunc establishes a broker connection. Kept as a function so the
// publisher can re-dial after a dropped connection.
type DialFunc func() (*amqp.Connection, error)

// Publisher fans domain event envelopes out to the topic exchange.
// When the broker connection drops it reconnects with backoff in the
// background; publishes during the gap fail and the caller treats the
// event as best-effort.
type Publisher struct {
	conn *amqp.Connection
	ch   *amqp.Channel
	dial DialFunc
	log  *zap.Logger

	exchange string
	app      string

	mu     sync.RWMutex
	closed bool
}

func NewPublisher(conn *amqp.Connection, log *zap.Logger, cfg *config.Config, dial DialFunc) (*Publisher, error) {
	ch, err := conn.Channel()
	if err != nil {
		return nil, err
	}
	if err := declareExchange(ch, cfg.RabbitMQ.Exchange); err != nil {
		return nil, err
	}

	p := &Publisher{
		conn:     conn,
		ch:       ch,
		dial:     dial,
		log:      log,
		exchange: cfg.RabbitMQ.Exchange,
		app:      cfg.App.Name,
	}
	go p.watch()
	return p, nil
}

// declareExchange ensures the domain event exchange exists. Consumers
// bind their queues with topic patterns such as "form.*" or "*.deleted".
func declareExchange(ch *amqp.Channel, name string) error {
	return ch.ExchangeDeclare(name, "topic", true, false, false, false, nil)
}

// Publish sends the envelope onto the exchange under the routing key.
// The current trace context is stamped into both the AMQP headers and
// the JSON body, so consumers that only see the payload can still join
// the trace. Envelope identity doubles as the AMQP message properties.
func (p *Publisher) Publish(ctx context.Context, routingKey string, env service.EventEnvelope) error {
	tracer := otel.Tracer(p.app)
	ctx, span := tracer.Start(ctx, "queue.publish",
		trace.WithAttributes(
			attribute.String("messaging.system", "rabbitmq"),
			attribute.String("messaging.destination", p.exchange),
			attribute.String("messaging.rabbitmq.routing_key", routingKey),
			attribute.String("event.type", env.EventType),
		))
	defer span.End()

	headers := make(amqp.Table)
	otel.GetTextMapPropagator().Inject(ctx, tableCarrier{table: headers})
	if tp, ok := headers["traceparent"].(string); ok {
		env.Traceparent = tp
	}

	body, err := sonic.Marshal(env)
	if err != nil {
		return fmt.Errorf("serialize event %s: %w", env.EventID, err)
	}

	ch, err := p.channel()
	if err != nil {
		span.RecordError(err)
		return err
	}

	msg := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		MessageId:    env.EventID.String(),
		Type:         env.EventType,
		AppId:        env.Producer,
		Timestamp:    env.OccurredAt,
		Headers:      headers,
		Body:         body,
	}
	if err := ch.PublishWithContext(ctx, p.exchange, routingKey, false, false, msg); err != nil {
		span.RecordError(err)
		return fmt.Errorf("publish %s: %w", routingKey, err)
	}
	span.SetAttributes(attribute.Int("messaging.message.body.size", len(body)))
	return nil
}

func (p *Publisher) channel() (*amqp.Channel, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return nil, errors.New("publisher is closed")
	}
	if p.ch == nil {
		return nil, errors.New("channel is not available")
	}
	return p.ch, nil
}

func (p *Publisher) isClosed() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.closed
}

// watch blocks on the connection's close notification and swaps in a
// fresh connection whenever the broker drops us.
func (p *Publisher) watch() {
	for {
		p.mu.RLock()
		closed, conn := p.closed, p.conn
		p.mu.RUnlock()
		if closed {
			return
		}
		if conn == nil {
			time.Sleep(time.Second)
			continue
		}

		amqpErr := <-conn.NotifyClose(make(chan *amqp.Error, 1))
		if p.isClosed() {
			return
		}
		if amqpErr != nil {
			p.log.Warn("rabbitmq connection lost", zap.Error(amqpErr))
		} else {
			p.log.Warn("rabbitmq connection closed")
		}
		p.redial()
	}
}

func (p *Publisher) redial() {
	backoff := time.Second
	const maxBackoff = 30 * time.Second
	for !p.isClosed() {
		conn, ch, err := p.open()
		if err != nil {
			p.log.Error("rabbitmq reconnect failed",
				zap.Duration("backoff", backoff),
				zap.Error(err))
			time.Sleep(backoff)
			backoff = min(backoff*2, maxBackoff)
			continue
		}
		p.mu.Lock()
		p.conn, p.ch = conn, ch
		p.mu.Unlock()
		p.log.Info("rabbitmq connection restored")
		return
	}
}

func (p *Publisher) open() (*amqp.Connection, *amqp.Channel, error) {
	conn, err := p.dial()
	if err != nil {
		return nil, nil, fmt.Errorf("dial broker: %w", err)
	}
	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, nil, fmt.Errorf("open channel: %w", err)
	}
	if err := declareExchange(ch, p.exchange); err != nil {
		ch.Close()
		conn.Close()
		return nil, nil, fmt.Errorf("declare exchange: %w", err)
	}
	return conn, ch, nil
}

func (p *Publisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.closed = true
	if p.ch != nil {
		return p.ch.Close()
	}
	return nil
}
