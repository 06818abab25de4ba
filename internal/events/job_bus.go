package events

import (
	"fmt"
	"sync"
	"sync/atomic"

	"log/slog"

	"github.com/smallnest/ringbuffer"

	"github.com/tphakala/audioqa/internal/logging"
)

// historySize is the number of recent events retained per topic so a late
// subscriber can inspect what already happened without replaying the channel.
const historySize = 64

// JobBusStats holds runtime counters for a JobBus.
type JobBusStats struct {
	EventsReceived  uint64
	EventsProcessed uint64
	EventsDropped   uint64
	ConsumerErrors  uint64
}

// JobBus is an in-process, synchronous, topic-based publish/subscribe bus for
// job lifecycle events. Publish calls each consumer inline on the
// publisher's goroutine, so a slow consumer delays the job queue engine
// that produced the event.
type JobBus struct {
	mu        sync.RWMutex
	consumers map[string][]JobEventConsumer
	history   map[string]*ringbuffer.RingBuffer
	stats     JobBusStats
	logger    *slog.Logger

	mqttSink atomic.Pointer[mqttSink]
}

// NewJobBus creates an empty job event bus.
func NewJobBus() *JobBus {
	return &JobBus{
		consumers: make(map[string][]JobEventConsumer),
		history:   make(map[string]*ringbuffer.RingBuffer),
		logger:    logging.ForService("events"),
	}
}

// Subscribe registers a consumer for a single topic ("job:<id>", "project:<id>"
// or TopicAllJobs). A consumer subscribed to TopicAllJobs receives every event
// published on any topic.
func (b *JobBus) Subscribe(consumer JobEventConsumer) {
	b.mu.Lock()
	defer b.mu.Unlock()

	topic := consumer.Topic()
	b.consumers[topic] = append(b.consumers[topic], consumer)
	if _, ok := b.history[topic]; !ok {
		b.history[topic] = ringbuffer.New(historySize)
	}
}

// Unsubscribe removes every registration for consumer.Topic() matching the
// given consumer value (by pointer identity, for comparable consumer types).
func (b *JobBus) Unsubscribe(consumer JobEventConsumer) {
	b.mu.Lock()
	defer b.mu.Unlock()

	topic := consumer.Topic()
	remaining := b.consumers[topic][:0]
	for _, c := range b.consumers[topic] {
		if c != consumer {
			remaining = append(remaining, c)
		}
	}
	b.consumers[topic] = remaining
}

// Publish fans event out to every subscriber of every topic it belongs to
// (job:<id>, project:<id> if set, and jobs:all), and appends it to each
// topic's bounded history. Delivery is synchronous: Publish returns once
// every consumer has been called. Consumer panics and errors are recovered
// or logged and counted, never retried.
func (b *JobBus) Publish(event JobEvent) {
	topics := Topics(event.GetJobID(), event.GetProjectID())

	atomic.AddUint64(&b.stats.EventsReceived, 1)

	b.mu.Lock()
	for _, topic := range topics {
		if hist, ok := b.history[topic]; ok {
			_, _ = hist.Write(encodeHistoryMarker(event))
		}
	}
	consumerSnapshot := make(map[string][]JobEventConsumer, len(topics))
	for _, topic := range topics {
		snap := make([]JobEventConsumer, len(b.consumers[topic]))
		copy(snap, b.consumers[topic])
		consumerSnapshot[topic] = snap
	}
	b.mu.Unlock()

	for topic, consumers := range consumerSnapshot {
		for _, consumer := range consumers {
			b.deliver(topic, consumer, event)
		}
	}

	if sink := b.mqttSink.Load(); sink != nil {
		sink.publish(event)
	}
}

func (b *JobBus) deliver(topic string, consumer JobEventConsumer, event JobEvent) {
	defer func() {
		if r := recover(); r != nil {
			atomic.AddUint64(&b.stats.ConsumerErrors, 1)
			b.logger.Error("job event consumer panicked",
				"topic", topic, "job_id", event.GetJobID(), "panic", r)
		}
	}()

	if err := consumer.ProcessJobEvent(event); err != nil {
		atomic.AddUint64(&b.stats.ConsumerErrors, 1)
		b.logger.Error("job event consumer error",
			"topic", topic, "job_id", event.GetJobID(), "error", err)
		return
	}
	atomic.AddUint64(&b.stats.EventsProcessed, 1)
}

// History returns up to historySize most recent event markers published on
// topic, oldest first. Markers are opaque summary strings, not full events:
// the ring buffer exists for observability, not replay.
func (b *JobBus) History(topic string) []string {
	b.mu.RLock()
	hist, ok := b.history[topic]
	b.mu.RUnlock()
	if !ok {
		return nil
	}

	buf := make([]byte, hist.Length())
	n, _ := hist.Read(buf)
	return splitMarkers(buf[:n])
}

// Stats returns current bus counters.
func (b *JobBus) Stats() JobBusStats {
	return JobBusStats{
		EventsReceived:  atomic.LoadUint64(&b.stats.EventsReceived),
		EventsProcessed: atomic.LoadUint64(&b.stats.EventsProcessed),
		EventsDropped:   atomic.LoadUint64(&b.stats.EventsDropped),
		ConsumerErrors:  atomic.LoadUint64(&b.stats.ConsumerErrors),
	}
}

func encodeHistoryMarker(event JobEvent) []byte {
	marker := fmt.Sprintf("%d|%s|%s\n", event.GetTimestamp().UnixNano(), event.GetJobID(), event.GetStatus())
	return []byte(marker)
}

func splitMarkers(buf []byte) []string {
	var out []string
	start := 0
	for i, c := range buf {
		if c == '\n' {
			out = append(out, string(buf[start:i]))
			start = i + 1
		}
	}
	return out
}

// FormatSSE renders a job event as a Server-Sent Events frame:
// "event: <status>\ndata: <json>\n\n". The caller owns the HTTP transport;
// this is pure formatting with no socket attached.
func FormatSSE(event JobEvent) (string, error) {
	payload, err := encodeSSEData(event)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("event: %s\ndata: %s\n\n", event.GetStatus(), payload), nil
}
