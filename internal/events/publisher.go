// Package events streams scan and insight events to Kafka.
package events

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/anishka-v/eco-dining/internal/ledger"
	"github.com/anishka-v/eco-dining/internal/report"

	"github.com/segmentio/kafka-go"
)

const (
	EventScanRecorded  = "scan.recorded"
	EventInsightDigest = "insights.digest"

	queueSize    = 256
	drainTimeout = 5 * time.Second
)

type Config struct {
	Brokers      []string
	ScanTopic    string
	InsightTopic string
}

func (c Config) Enabled() bool {
	return len(c.Brokers) > 0
}

type ScanEvent struct {
	Type      string        `json:"type"`
	EmittedAt time.Time     `json:"emitted_at"`
	Scan      ledger.Record `json:"scan"`
}

type InsightEvent struct {
	Type      string           `json:"type"`
	EmittedAt time.Time        `json:"emitted_at"`
	SchoolID  string           `json:"school_id"`
	Insights  []report.Insight `json:"insights"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// DropRecorder is told when the queue is full and an event is discarded.
type DropRecorder interface {
	EventDropped()
}

// Publisher sends scan events asynchronously and insight digests
// synchronously. A publisher built from a disabled Config logs and discards.
type Publisher struct {
	cfg      Config
	log      *slog.Logger
	writer   messageWriter
	recorder DropRecorder
	now      func() time.Time

	queue    chan kafka.Message
	stop     chan struct{}
	wg       sync.WaitGroup
	stopOnce sync.Once
	mu       sync.RWMutex
	stopped  bool
}

func NewPublisher(cfg Config, log *slog.Logger, recorder DropRecorder) *Publisher {
	var writer messageWriter
	if cfg.Enabled() {
		writer = &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Balancer:               &kafka.Hash{},
			RequiredAcks:           kafka.RequireOne,
			AllowAutoTopicCreation: false,
		}
	}
	return newPublisherWithWriter(cfg, log, writer, recorder)
}

func newPublisherWithWriter(cfg Config, log *slog.Logger, writer messageWriter, recorder DropRecorder) *Publisher {
	if log == nil {
		log = slog.Default()
	}
	p := &Publisher{
		cfg:      cfg,
		log:      log.With(slog.String("component", "event_publisher")),
		writer:   writer,
		recorder: recorder,
		now:      time.Now,
		stop:     make(chan struct{}),
	}
	if writer != nil {
		p.queue = make(chan kafka.Message, queueSize)
		p.wg.Add(1)
		go p.run()
		p.log.Info("publisher_started",
			slog.String("brokers", strings.Join(cfg.Brokers, ",")),
			slog.String("scan_topic", cfg.ScanTopic),
		)
	} else {
		p.log.Info("publisher_disabled")
	}
	return p
}

func (p *Publisher) enabled() bool {
	return p.writer != nil
}

// OnScan queues a scan event. It never blocks; a full queue drops the event.
func (p *Publisher) OnScan(rec ledger.Record) {
	if !p.enabled() || p.cfg.ScanTopic == "" {
		return
	}

	rec.Impact = rec.Impact.Rounded()
	value, err := json.Marshal(ScanEvent{Type: EventScanRecorded, EmittedAt: p.now().UTC(), Scan: rec})
	if err != nil {
		p.log.Error("scan_event_encode_err", slog.Any("err", err))
		return
	}
	msg := kafka.Message{Topic: p.cfg.ScanTopic, Key: []byte(rec.SchoolID), Value: value}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return
	}

	select {
	case p.queue <- msg:
	default:
		p.log.Warn("scan_event_dropped", slog.Int64("scan_id", rec.ID))
		if p.recorder != nil {
			p.recorder.EventDropped()
		}
	}
}

// PublishInsights writes a digest for one school and waits for the broker.
func (p *Publisher) PublishInsights(ctx context.Context, schoolID string, insights []report.Insight) error {
	if !p.enabled() || p.cfg.InsightTopic == "" {
		p.log.Info("insight_digest",
			slog.String("school_id", schoolID),
			slog.Int("insights", len(insights)),
		)
		return nil
	}

	value, err := json.Marshal(InsightEvent{
		Type:      EventInsightDigest,
		EmittedAt: p.now().UTC(),
		SchoolID:  schoolID,
		Insights:  insights,
	})
	if err != nil {
		return err
	}
	return p.writer.WriteMessages(ctx, kafka.Message{
		Topic: p.cfg.InsightTopic,
		Key:   []byte(schoolID),
		Value: value,
	})
}

func (p *Publisher) run() {
	defer p.wg.Done()
	for {
		select {
		case msg := <-p.queue:
			p.deliver(context.Background(), msg)
		case <-p.stop:
			p.drain()
			return
		}
	}
}

func (p *Publisher) drain() {
	ctx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	for {
		select {
		case msg := <-p.queue:
			p.deliver(ctx, msg)
		default:
			return
		}
	}
}

func (p *Publisher) deliver(ctx context.Context, msg kafka.Message) {
	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.log.Error("event_publish_err",
			slog.Any("err", err),
			slog.String("topic", msg.Topic),
			slog.String("key", string(msg.Key)),
		)
	}
}

// Close flushes queued events and closes the Kafka writer.
func (p *Publisher) Close() error {
	if !p.enabled() {
		return nil
	}
	var err error
	p.stopOnce.Do(func() {
		p.mu.Lock()
		p.stopped = true
		p.mu.Unlock()

		close(p.stop)
		p.wg.Wait()
		err = p.writer.Close()
		p.log.Info("publisher_stopped")
	})
	return err
}
