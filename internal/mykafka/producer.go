package mykafka

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
)

const (
	writeTimeout = 5 * time.Second
	batchTimeout = 10 * time.Millisecond
	queueSize    = 256
)

var (
	ErrQueueFull = errors.New("kafka: publish queue full")
	ErrClosed    = errors.New("kafka: producer closed")
)

// Producer hands events to a background writer. PublishEvent only
// enqueues, so callers on the request path never wait for the broker;
// delivery failures are logged by the writer loop.
type Producer struct {
	writer  *kafka.Writer
	brokers []string
	topics  []string

	write func(ctx context.Context, msgs ...kafka.Message) error
	log   *slog.Logger

	mu     sync.RWMutex
	closed bool
	queue  chan kafka.Message
	done   chan struct{}
}

// NewProducer builds a writer that routes each message by its Topic field,
// so one producer serves every topic the portal publishes to.
func NewProducer(brokers []string, topics []string) (*Producer, error) {
	if len(brokers) == 0 {
		return nil, errors.New("kafka: no brokers configured")
	}
	w := &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireOne,
		WriteTimeout:           writeTimeout,
		BatchTimeout:           batchTimeout,
		AllowAutoTopicCreation: true,
	}
	p := newProducer(w.WriteMessages, queueSize)
	p.writer = w
	p.brokers = brokers
	p.topics = topics
	return p, nil
}

func newProducer(write func(ctx context.Context, msgs ...kafka.Message) error, size int) *Producer {
	p := &Producer{
		write: write,
		log:   slog.Default().With("component", "kafka"),
		queue: make(chan kafka.Message, size),
		done:  make(chan struct{}),
	}
	go p.run()
	return p
}

func (p *Producer) run() {
	defer close(p.done)
	for msg := range p.queue {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		if err := p.write(ctx, msg); err != nil {
			p.log.Error("kafka_delivery_failed", "topic", msg.Topic, "error", err)
		}
		cancel()
	}
}

// PublishEvent marshals event to JSON and queues it for topic. It fails
// only when the event cannot be encoded, the queue is full, the context is
// already done or the producer is closed.
func (p *Producer) PublishEvent(ctx context.Context, topic, key string, event any) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("kafka: json.Marshal failed: %w", err)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	msg := kafka.Message{
		Topic: topic,
		Key:   []byte(key),
		Value: data,
		Time:  time.Now(),
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return ErrClosed
	}
	select {
	case p.queue <- msg:
		return nil
	default:
		return fmt.Errorf("%w: dropping %s event", ErrQueueFull, topic)
	}
}

// EnsureTopics creates the configured topics on the cluster controller.
// Existing topics are left as they are.
func (p *Producer) EnsureTopics(ctx context.Context) error {
	var d kafka.Dialer
	conn, err := d.DialContext(ctx, "tcp", p.brokers[0])
	if err != nil {
		return fmt.Errorf("kafka: dial: %w", err)
	}
	defer conn.Close()

	controller, err := conn.Controller()
	if err != nil {
		return fmt.Errorf("kafka: controller: %w", err)
	}
	cc, err := d.DialContext(ctx, "tcp", net.JoinHostPort(controller.Host, strconv.Itoa(controller.Port)))
	if err != nil {
		return fmt.Errorf("kafka: dial controller: %w", err)
	}
	defer cc.Close()

	cfgs := make([]kafka.TopicConfig, 0, len(p.topics))
	for _, t := range p.topics {
		cfgs = append(cfgs, kafka.TopicConfig{Topic: t, NumPartitions: 1, ReplicationFactor: 1})
	}
	if err := cc.CreateTopics(cfgs...); err != nil && !errors.Is(err, kafka.TopicAlreadyExists) {
		return fmt.Errorf("kafka: create topics: %w", err)
	}
	return nil
}

// Close stops accepting events, drains the queue and closes the writer.
func (p *Producer) Close() error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil
	}
	p.closed = true
	close(p.queue)
	p.mu.Unlock()

	<-p.done
	if p.writer == nil {
		return nil
	}
	return p.writer.Close()
}
