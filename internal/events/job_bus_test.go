package events

import (
	"sync"
	"testing"
	"time"
)

type recordingJobConsumer struct {
	topic string
	mu    sync.Mutex
	seen  []JobEvent
}

func (c *recordingJobConsumer) Topic() string { return c.topic }

func (c *recordingJobConsumer) ProcessJobEvent(event JobEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.seen = append(c.seen, event)
	return nil
}

func (c *recordingJobConsumer) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.seen)
}

func TestJobBusFanOut(t *testing.T) {
	bus := NewJobBus()

	jobTopic := &recordingJobConsumer{topic: "job:abc"}
	projectTopic := &recordingJobConsumer{topic: "project:p1"}
	allTopic := &recordingJobConsumer{topic: TopicAllJobs}

	bus.Subscribe(jobTopic)
	bus.Subscribe(projectTopic)
	bus.Subscribe(allTopic)

	event, err := NewJobEvent("abc", "p1", JobStatusRunning, 50, nil)
	if err != nil {
		t.Fatalf("NewJobEvent: %v", err)
	}
	bus.Publish(event)

	if jobTopic.count() != 1 {
		t.Errorf("expected job topic to receive 1 event, got %d", jobTopic.count())
	}
	if projectTopic.count() != 1 {
		t.Errorf("expected project topic to receive 1 event, got %d", projectTopic.count())
	}
	if allTopic.count() != 1 {
		t.Errorf("expected jobs:all topic to receive 1 event, got %d", allTopic.count())
	}
}

func TestJobBusUnrelatedTopicNotDelivered(t *testing.T) {
	bus := NewJobBus()

	other := &recordingJobConsumer{topic: "job:other"}
	bus.Subscribe(other)

	event, err := NewJobEvent("abc", "", JobStatusQueued, 0, nil)
	if err != nil {
		t.Fatalf("NewJobEvent: %v", err)
	}
	bus.Publish(event)

	if other.count() != 0 {
		t.Errorf("expected unrelated topic to receive 0 events, got %d", other.count())
	}
}

func TestJobBusHistory(t *testing.T) {
	bus := NewJobBus()
	consumer := &recordingJobConsumer{topic: TopicAllJobs}
	bus.Subscribe(consumer)

	for i := 0; i < 3; i++ {
		event, err := NewJobEvent("abc", "", JobStatusRunning, i*10, nil)
		if err != nil {
			t.Fatalf("NewJobEvent: %v", err)
		}
		bus.Publish(event)
	}

	history := bus.History(TopicAllJobs)
	if len(history) != 3 {
		t.Fatalf("expected 3 history entries, got %d", len(history))
	}
}

func TestNewJobEventValidation(t *testing.T) {
	if _, err := NewJobEvent("", "", JobStatusQueued, 0, nil); err == nil {
		t.Error("expected error for empty job ID")
	}
	if _, err := NewJobEvent("abc", "", JobStatusRunning, 101, nil); err == nil {
		t.Error("expected error for out-of-range progress")
	}
}

func TestFormatSSE(t *testing.T) {
	event, err := NewJobEvent("abc", "p1", JobStatusRunning, 42, nil)
	if err != nil {
		t.Fatalf("NewJobEvent: %v", err)
	}

	frame, err := FormatSSE(event)
	if err != nil {
		t.Fatalf("FormatSSE: %v", err)
	}
	if frame == "" {
		t.Fatal("expected non-empty SSE frame")
	}
	if frame[:7] != "event: " {
		t.Errorf("expected frame to start with 'event: ', got %q", frame[:7])
	}
}

func TestJobBusStats(t *testing.T) {
	bus := NewJobBus()
	consumer := &recordingJobConsumer{topic: TopicAllJobs}
	bus.Subscribe(consumer)

	event, err := NewJobEvent("abc", "", JobStatusSucceeded, 100, nil)
	if err != nil {
		t.Fatalf("NewJobEvent: %v", err)
	}
	bus.Publish(event)

	// give the synchronous delivery a moment to account in stats (delivery is inline, but keep the test robust)
	deadline := time.Now().Add(100 * time.Millisecond)
	for time.Now().Before(deadline) {
		if bus.Stats().EventsProcessed > 0 {
			break
		}
		time.Sleep(time.Millisecond)
	}

	stats := bus.Stats()
	if stats.EventsReceived == 0 {
		t.Error("expected at least one received event")
	}
	if stats.EventsProcessed == 0 {
		t.Error("expected at least one processed event")
	}
}
