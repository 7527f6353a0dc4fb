// Package eventsink exports market events to Kafka for external indexers.
package eventsink

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	logging "github.com/ipfs/go-log/v2"
	"github.com/segmentio/kafka-go"
	"go.opencensus.io/stats"
	"golang.org/x/xerrors"

	"github.com/capmarket/capmarket/chain/market"
	"github.com/capmarket/capmarket/lib/retry"
	"github.com/capmarket/capmarket/metrics"
)

var log = logging.Logger("eventsink")

const (
	defaultQueueSize = 1024
	defaultBatchSize = 100

	writeAttempts = 3
	writeBackoff  = 500 * time.Millisecond
)

// MessageWriter is the part of *kafka.Writer the sink uses.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type Config struct {
	Brokers      []string
	Topic        string
	BatchTimeout time.Duration
}

// NewWriter returns a kafka writer that waits for all in-sync replicas.
func NewWriter(cfg Config) *kafka.Writer {
	return &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Async:        false,
		BatchTimeout: cfg.BatchTimeout,
	}
}

// Sink queues market events and writes them to Kafka from a background
// goroutine. Events are keyed by the entity they are about, so that all
// events of one deal land on the same partition in order. When the queue is
// full new events are dropped rather than stalling the market.
type Sink struct {
	w MessageWriter

	lk     sync.RWMutex
	closed bool
	queue  chan market.Event

	batchSize    int
	batchTimeout time.Duration

	ctx      context.Context
	cancel   context.CancelFunc
	done     chan struct{}
	stopOnce sync.Once
}

func New(w MessageWriter, batchTimeout time.Duration) *Sink {
	if batchTimeout <= 0 {
		batchTimeout = time.Second
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Sink{
		w:            w,
		queue:        make(chan market.Event, defaultQueueSize),
		batchSize:    defaultBatchSize,
		batchTimeout: batchTimeout,
		ctx:          ctx,
		cancel:       cancel,
		done:         make(chan struct{}),
	}
}

// Start subscribes the sink to m and starts the writer loop. The returned
// function unsubscribes and flushes what is queued.
func (s *Sink) Start(m *market.Market) func(context.Context) error {
	unsub := m.SubscribeEvents(s.Enqueue)
	go s.run()

	return func(ctx context.Context) error {
		unsub()
		return s.Stop(ctx)
	}
}

// Enqueue hands an event to the writer loop without blocking.
func (s *Sink) Enqueue(evt market.Event) {
	s.lk.RLock()
	defer s.lk.RUnlock()

	if s.closed {
		return
	}
	select {
	case s.queue <- evt:
	default:
		stats.Record(s.ctx, metrics.EventsDropped.M(1))
		log.Warnw("event queue full, dropping event", "event", evt.Key())
	}
}

// Stop flushes queued events and closes the writer.
func (s *Sink) Stop(ctx context.Context) error {
	var err error
	s.stopOnce.Do(func() {
		s.lk.Lock()
		s.closed = true
		close(s.queue)
		s.lk.Unlock()

		select {
		case <-s.done:
		case <-ctx.Done():
			s.cancel()
			<-s.done
		}
		s.cancel()
		err = s.w.Close()
	})
	return err
}

func (s *Sink) run() {
	defer close(s.done)

	batch := make([]market.Event, 0, s.batchSize)
	timer := time.NewTimer(s.batchTimeout)
	defer timer.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		s.write(batch)
		batch = batch[:0]
	}

	for {
		select {
		case evt, ok := <-s.queue:
			if !ok {
				flush()
				return
			}
			batch = append(batch, evt)
			if len(batch) >= s.batchSize {
				flush()
			}
		case <-timer.C:
			flush()
			timer.Reset(s.batchTimeout)
		}
	}
}

func (s *Sink) write(batch []market.Event) {
	msgs := make([]kafka.Message, 0, len(batch))
	for _, evt := range batch {
		msg, err := encode(evt)
		if err != nil {
			stats.Record(s.ctx, metrics.EventsDropped.M(1))
			log.Errorw("encoding event", "event", evt.Key(), "error", err)
			continue
		}
		msgs = append(msgs, msg)
	}

	_, err := retry.Retry(s.ctx, writeAttempts, writeBackoff, nil, func() (struct{}, error) {
		return struct{}{}, s.w.WriteMessages(s.ctx, msgs...)
	})
	if err != nil {
		stats.Record(s.ctx, metrics.EventsDropped.M(int64(len(msgs))))
		log.Errorw("writing events to kafka", "count", len(msgs), "error", err)
		return
	}
	stats.Record(s.ctx, metrics.EventsPublished.M(int64(len(msgs))))
	log.Debugw("exported events", "count", len(msgs))
}

func encode(evt market.Event) (kafka.Message, error) {
	value, err := json.Marshal(evt)
	if err != nil {
		return kafka.Message{}, xerrors.Errorf("marshaling event: %w", err)
	}
	return kafka.Message{
		Key:   []byte(evt.Key()),
		Value: value,
		Headers: []kafka.Header{
			{Key: "event-id", Value: []byte(uuid.New().String())},
			{Key: "event-type", Value: []byte(evt.Type)},
		},
		Time: time.Unix(int64(evt.Timestamp), 0),
	}, nil
}
