package kafka

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"TopMover/pkg/logger"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/segmentio/kafka-go"
)

// MessageHandler handles messages from a specific topic.
type MessageHandler interface {
	Topic() string
	Handle(context.Context, []byte) error
}

// ConsumerOption configures Consumer.
type ConsumerOption func(*ConsumerConfig)

// ConsumerConfig holds consumer configuration.
type ConsumerConfig struct {
	Brokers     []string
	GroupID     string
	WorkerCount int
	BufferSize  int
	RetryMax    int
	BackoffMin  time.Duration
	BackoffMax  time.Duration
	DLQTopic    string
	MinBytes    int
	MaxBytes    int
}

// WithConsumerBrokers sets Kafka brokers.
func WithConsumerBrokers(brokers []string) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.Brokers = brokers
	}
}

// WithConsumerGroupID sets consumer group ID.
func WithConsumerGroupID(groupID string) ConsumerOption {
	return func(c *ConsumerConfig) {
		if groupID != "" {
			c.GroupID = groupID
		}
	}
}

// WithConsumerWorkers sets number of worker goroutines.
func WithConsumerWorkers(count int) ConsumerOption {
	return func(c *ConsumerConfig) {
		if count > 0 {
			c.WorkerCount = count
		}
	}
}

// WithConsumerRetry configures retry attempts and backoff range.
func WithConsumerRetry(max int, backoffMin, backoffMax time.Duration) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.RetryMax = max
		c.BackoffMin = backoffMin
		c.BackoffMax = backoffMax
	}
}

// WithConsumerDLQ sets a Kafka topic name for DLQ.
func WithConsumerDLQ(topic string) ConsumerOption {
	return func(c *ConsumerConfig) {
		c.DLQTopic = topic
	}
}

// Consumer reads registered topics and hands messages to a worker pool.
type Consumer struct {
	cfg      *ConsumerConfig
	log      *logger.Logger
	readers  map[string]*kafka.Reader
	handlers map[string]MessageHandler
	stopChan chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
	msgChan  chan kafka.Message
	dlq      *kafka.Writer
	hook     ConsumerHook
}

// NewConsumer creates a new Kafka consumer.
func NewConsumer(log *logger.Logger, opts ...ConsumerOption) (*Consumer, error) {
	cfg := &ConsumerConfig{
		GroupID:     "default",
		WorkerCount: 1,
		BufferSize:  10,
		RetryMax:    3,
		BackoffMin:  50 * time.Millisecond,
		BackoffMax:  2 * time.Second,
		MinBytes:    1,
		MaxBytes:    10e6, // 10MB
	}

	for _, opt := range opts {
		opt(cfg)
	}

	if len(cfg.Brokers) == 0 {
		return nil, fmt.Errorf("brokers are required")
	}
	if log == nil {
		log = logger.Nop()
	}

	c := &Consumer{
		cfg:      cfg,
		log:      log,
		readers:  make(map[string]*kafka.Reader),
		handlers: make(map[string]MessageHandler),
		stopChan: make(chan struct{}),
		msgChan:  make(chan kafka.Message, cfg.BufferSize),
		hook:     NoopHook{},
	}

	initConsumerMetricsOnce()

	if cfg.DLQTopic != "" {
		c.dlq = &kafka.Writer{Addr: kafka.TCP(cfg.Brokers...), Balancer: &kafka.LeastBytes{}}
	}

	return c, nil
}

// RegisterHandler registers a message handler for a specific topic.
func (c *Consumer) RegisterHandler(handler MessageHandler) {
	topic := handler.Topic()
	if _, ok := c.handlers[topic]; ok {
		c.log.Warn("kafka consumer: handler already registered", logger.String("topic", topic))
		return
	}
	c.handlers[topic] = handler
}

// WithConsumerHook sets a hook implementation for lifecycle events.
func (c *Consumer) WithConsumerHook(h ConsumerHook) {
	if h != nil {
		c.hook = h
	}
}

// Start starts the readers and workers.
func (c *Consumer) Start() error {
	for topic := range c.handlers {
		c.readers[topic] = kafka.NewReader(kafka.ReaderConfig{
			Brokers:  c.cfg.Brokers,
			Topic:    topic,
			GroupID:  c.cfg.GroupID,
			MinBytes: c.cfg.MinBytes,
			MaxBytes: c.cfg.MaxBytes,
		})
	}

	for i := 0; i < c.cfg.WorkerCount; i++ {
		c.wg.Add(1)
		go c.messageWorker()
	}

	for topic, reader := range c.readers {
		c.wg.Add(1)
		go c.consumeMessages(topic, reader)
	}

	c.log.Info("kafka consumer: started",
		logger.Int("workers", c.cfg.WorkerCount),
		logger.Int("topics", len(c.readers)),
		logger.String("group", c.cfg.GroupID),
	)
	return nil
}

// Stop stops the Kafka consumer gracefully.
func (c *Consumer) Stop(ctx context.Context) error {
	var stopErr error

	c.stopOnce.Do(func() {
		close(c.stopChan)
		stopErr = c.waitForWg(ctx)

		for topic, reader := range c.readers {
			if err := reader.Close(); err != nil {
				c.log.Error("kafka consumer: close reader", logger.String("topic", topic), logger.Error(err))
			}
		}

		if c.dlq != nil {
			if err := c.dlq.Close(); err != nil {
				c.log.Error("kafka consumer: close dlq writer", logger.Error(err))
			}
		}

		if stopErr == nil {
			c.log.Info("kafka consumer: stopped")
		}
	})

	return stopErr
}

func (c *Consumer) waitForWg(ctx context.Context) error {
	doneChan := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(doneChan)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("timeout waiting for consumer to stop: %w", ctx.Err())
	case <-doneChan:
		return nil
	}
}

func (c *Consumer) consumeMessages(topic string, reader *kafka.Reader) {
	defer c.wg.Done()

	for {
		select {
		case <-c.stopChan:
			return
		default:
		}

		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		msg, err := reader.FetchMessage(ctx)
		cancel()
		if err != nil {
			if !errors.Is(err, context.DeadlineExceeded) {
				c.log.Error("kafka consumer: fetch", logger.String("topic", topic), logger.Error(err))
			}
			continue
		}

		select {
		case c.msgChan <- msg:
			if consumerQueueDepth != nil {
				consumerQueueDepth.WithLabelValues(topic).Set(float64(len(c.msgChan)))
			}
		case <-c.stopChan:
			return
		}
	}
}

func (c *Consumer) messageWorker() {
	defer c.wg.Done()

	for {
		select {
		case <-c.stopChan:
			return
		case km := <-c.msgChan:
			start := time.Now()
			err := c.process(km)
			if err == nil || c.dlq != nil {
				if reader := c.readers[km.Topic]; reader != nil {
					_ = c.commitWithRetry(reader, km, 3)
				}
			}
			if consumerHandleLatency != nil {
				consumerHandleLatency.WithLabelValues(km.Topic).Observe(time.Since(start).Seconds())
			}
		}
	}
}

// process runs the handler with retries and sends exhausted messages to the DLQ.
func (c *Consumer) process(km kafka.Message) (err error) {
	handler, ok := c.handlers[km.Topic]
	if !ok {
		return fmt.Errorf("no handler for topic %s", km.Topic)
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in handler: %v", r)
			c.log.Error("kafka consumer: handler panic", logger.String("topic", km.Topic), logger.Error(err))
		}
	}()

	attempts := 0
	for {
		attempts++
		hctx, hmsg, hdata, berr := c.hook.BeforeHandle(context.Background(), km.Topic, km, km.Value)
		if berr != nil {
			err = berr
			break
		}
		err = handler.Handle(hctx, hdata)
		c.hook.AfterHandle(hctx, km.Topic, hmsg, hdata, err)
		if err == nil || attempts > c.cfg.RetryMax {
			break
		}
		c.hook.OnError(hctx, km.Topic, hmsg, hdata, err)
		select {
		case <-time.After(backoffWithJitter(c.cfg.BackoffMin, c.cfg.BackoffMax, attempts)):
		case <-c.stopChan:
			return err
		}
	}

	if err == nil {
		return nil
	}

	c.log.Error("kafka consumer: message failed",
		logger.String("topic", km.Topic),
		logger.Int("attempts", attempts),
		logger.Error(err),
	)
	if consumerFailures != nil {
		consumerFailures.WithLabelValues(km.Topic).Inc()
	}
	if c.dlq != nil {
		if dlqErr := c.dlq.WriteMessages(context.Background(), kafka.Message{
			Topic:   c.cfg.DLQTopic,
			Key:     km.Key,
			Value:   km.Value,
			Time:    time.Now(),
			Headers: []kafka.Header{{Key: "source_topic", Value: []byte(km.Topic)}, {Key: "error", Value: []byte(err.Error())}},
		}); dlqErr != nil {
			c.log.Error("kafka consumer: dlq write", logger.String("topic", c.cfg.DLQTopic), logger.Error(dlqErr))
		}
	}
	return err
}

// commitWithRetry commits a single message offset with bounded retries.
func (c *Consumer) commitWithRetry(reader *kafka.Reader, km kafka.Message, max int) error {
	var err error
	for attempt := 1; attempt <= max; attempt++ {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		err = reader.CommitMessages(ctx, km)
		cancel()
		if err == nil {
			return nil
		}
		time.Sleep(backoffWithJitter(50*time.Millisecond, 500*time.Millisecond, attempt))
	}
	c.log.Error("kafka consumer: commit", logger.Int("attempts", max), logger.Error(err))
	return err
}

func backoffWithJitter(min, max time.Duration, attempt int) time.Duration {
	if min <= 0 {
		min = 50 * time.Millisecond
	}
	if max < min {
		max = min
	}
	exp := min * time.Duration(1<<uint(attempt-1))
	if exp > max || exp <= 0 {
		exp = max
	}
	// jitter up to 50%
	jitter := time.Duration(rand.Int63n(int64(exp)/2 + 1))
	return exp - jitter
}

var (
	consumerQueueDepth    *prometheus.GaugeVec
	consumerHandleLatency *prometheus.HistogramVec
	consumerFailures      *prometheus.CounterVec
	consumerOnce          = make(chan struct{}, 1)
)

func initConsumerMetricsOnce() {
	select {
	case consumerOnce <- struct{}{}:
		consumerQueueDepth = promauto.NewGaugeVec(
			prometheus.GaugeOpts{Name: "topmover_kafka_consumer_queue_depth", Help: "Number of messages waiting in consumer queue"},
			[]string{"topic"},
		)
		consumerHandleLatency = promauto.NewHistogramVec(
			prometheus.HistogramOpts{Name: "topmover_kafka_consumer_handle_seconds", Help: "Handling time per message"},
			[]string{"topic"},
		)
		consumerFailures = promauto.NewCounterVec(
			prometheus.CounterOpts{Name: "topmover_kafka_consumer_failures_total", Help: "Messages that exhausted their retries"},
			[]string{"topic"},
		)
	default:
		// already initialized
	}
}
