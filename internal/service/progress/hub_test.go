package progress

import (
	"testing"

	"SmartMoney/internal/domain/models"
)

func TestHubBroadcast(t *testing.T) {
	h := NewHub()
	a, cancelA := h.Subscribe()
	b, cancelB := h.Subscribe()
	defer cancelB()

	h.Report(models.ProgressEvent{RunID: "r", Batch: 1, Batches: 2, Fraction: 0.5})

	for name, ch := range map[string]<-chan models.ProgressEvent{"a": a, "b": b} {
		ev := <-ch
		if ev.Batch != 1 || ev.Fraction != 0.5 {
			t.Fatalf("%s got %+v", name, ev)
		}
	}

	cancelA()
	cancelA()
	if _, ok := <-a; ok {
		t.Fatalf("cancelled channel should be closed")
	}
	if h.Subscribers() != 1 {
		t.Fatalf("subscribers = %d", h.Subscribers())
	}

	last, ok := h.Last()
	if !ok || last.RunID != "r" {
		t.Fatalf("last = %+v, %v", last, ok)
	}
}

func TestHubDropsForSlowSubscriber(t *testing.T) {
	h := NewHub()
	ch, cancel := h.Subscribe()
	defer cancel()

	for i := 0; i < subscriberBuffer+5; i++ {
		h.Report(models.ProgressEvent{Batch: i + 1})
	}
	if len(ch) != subscriberBuffer {
		t.Fatalf("buffered = %d", len(ch))
	}
	if ev := <-ch; ev.Batch != 1 {
		t.Fatalf("first buffered event = %d", ev.Batch)
	}
}
