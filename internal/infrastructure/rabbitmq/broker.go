package rabbitmq

import (
	"context"
	"encoding/json"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"
)

// Broker wraps an AMQP connection and a publishing channel. A channel is not
// safe for unsynchronized concurrent use; consumers open their own channel
// per queue via Consume.
type Broker struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	logger *logrus.Logger
}

func NewBroker(url string, logger *logrus.Logger) (*Broker, error) {
	conn, err := amqp.Dial(url)
	if err != nil {
		return nil, err
	}
	ch, err := conn.Channel()
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return &Broker{conn: conn, ch: ch, logger: logger}, nil
}

func (b *Broker) Close() {
	if b == nil {
		return
	}
	if b.ch != nil {
		_ = b.ch.Close()
	}
	if b.conn != nil {
		_ = b.conn.Close()
	}
}

// Publish declares a durable queue and sends body as a persistent JSON
// message through the default exchange.
func (b *Broker) Publish(ctx context.Context, queue string, body any) error {
	if _, err := b.ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return err
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return err
	}
	return b.ch.PublishWithContext(ctx,
		"",    // default exchange
		queue, // routing key = queue
		false, // mandatory
		false, // immediate
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			Timestamp:    time.Now().UTC(),
			Body:         raw,
		},
	)
}

// HandlerFunc processes one decoded message body. A non-nil error nacks the
// delivery with requeue; redelivery policy beyond that is the broker's.
type HandlerFunc func(ctx context.Context, body []byte) error

// Consume opens a dedicated channel on the queue and feeds deliveries to fn
// until ctx is cancelled. Messages are acked on success and nack-requeued on
// handler error.
func (b *Broker) Consume(ctx context.Context, queue string, prefetch int, fn HandlerFunc) error {
	ch, err := b.conn.Channel()
	if err != nil {
		return err
	}
	defer func() { _ = ch.Close() }()

	if err := ch.Qos(prefetch, 0, false); err != nil {
		return err
	}
	if _, err := ch.QueueDeclare(queue, true, false, false, false, nil); err != nil {
		return err
	}
	msgs, err := ch.Consume(queue, "", false, false, false, false, nil)
	if err != nil {
		return err
	}

	b.logger.WithField("queue", queue).Info("consuming")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-msgs:
			if !ok {
				return amqp.ErrClosed
			}
			if err := fn(ctx, msg.Body); err != nil {
				b.logger.WithError(err).WithField("queue", queue).Error("message handling failed")
				_ = msg.Nack(false, true)
				continue
			}
			_ = msg.Ack(false)
		}
	}
}

// QueueDepth reports the current message count of a queue. It opens its own
// channel so concurrent publishes on the shared one are undisturbed.
func (b *Broker) QueueDepth(queue string) (int, error) {
	ch, err := b.conn.Channel()
	if err != nil {
		return 0, err
	}
	defer func() { _ = ch.Close() }()
	q, err := ch.QueueDeclarePassive(queue, true, false, false, false, nil)
	if err != nil {
		return 0, err
	}
	return q.Messages, nil
}
