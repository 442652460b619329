package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"github.com/spec-kit/support-console/internal/config"
)

const mirrorBuffer = 256

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaMirror copies every inbound realtime event to a Kafka topic.
// Writes happen on the mirror's own goroutine so dispatch never waits on the broker.
type KafkaMirror struct {
	writer messageWriter
	logger *zap.Logger
	queue  chan kafka.Message
	done   chan struct{}

	mu        sync.RWMutex
	closed    bool
	closeOnce sync.Once
	closeErr  error
}

// NewKafkaMirror returns nil when no brokers are configured.
func NewKafkaMirror(cfg config.KafkaConfig, logger *zap.Logger) *KafkaMirror {
	if len(cfg.Brokers) == 0 {
		return nil
	}
	return newKafkaMirror(&kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}, logger, mirrorBuffer)
}

func newKafkaMirror(writer messageWriter, logger *zap.Logger, buffer int) *KafkaMirror {
	if logger == nil {
		logger = zap.NewNop()
	}
	m := &KafkaMirror{
		writer: writer,
		logger: logger,
		queue:  make(chan kafka.Message, buffer),
		done:   make(chan struct{}),
	}
	go m.run()
	return m
}

// Attach subscribes the mirror to every event on the dispatcher.
func (m *KafkaMirror) Attach(dispatcher Dispatcher) {
	if m == nil || dispatcher == nil {
		return
	}
	dispatcher.SubscribeAll(m.Handle)
}

// Handle queues one event keyed by its type. A full queue drops the event.
func (m *KafkaMirror) Handle(_ context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	msg := kafka.Message{
		Key:   []byte(event.Type),
		Value: data,
		Time:  event.ReceivedAt,
	}

	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil
	}
	select {
	case m.queue <- msg:
	default:
		m.logger.Warn("mirror queue full; event dropped", zap.String("type", string(event.Type)), zap.String("id", event.ID))
	}
	return nil
}

func (m *KafkaMirror) run() {
	defer close(m.done)
	for msg := range m.queue {
		if err := m.writer.WriteMessages(context.Background(), msg); err != nil {
			m.logger.Warn("mirror event failed", zap.ByteString("type", msg.Key), zap.Error(err))
			continue
		}
		m.logger.Debug("mirrored event", zap.ByteString("type", msg.Key))
	}
}

// Close drains queued events, then closes the writer.
func (m *KafkaMirror) Close() error {
	if m == nil {
		return nil
	}
	m.closeOnce.Do(func() {
		m.mu.Lock()
		m.closed = true
		close(m.queue)
		m.mu.Unlock()
		<-m.done
		m.closeErr = m.writer.Close()
	})
	return m.closeErr
}
