package kafka

import (
	"context"
	"errors"
	"testing"

	"github.com/segmentio/kafka-go"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

func TestPublishBatchEncodesValues(t *testing.T) {
	w := &fakeWriter{}
	p := NewProducerWithWriter(w, "gzip")

	err := p.PublishBatch(context.Background(), "scores", []Message{
		{Key: []byte("BBCA.JK"), Value: map[string]int{"SmartScore": 9}, Headers: map[string]string{"run_id": "r1"}},
		{Key: []byte("raw"), Value: "text"},
	})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if len(w.msgs) != 2 {
		t.Fatalf("messages = %d", len(w.msgs))
	}
	if string(w.msgs[0].Value) != `{"SmartScore":9}` || w.msgs[0].Topic != "scores" {
		t.Fatalf("first = %+v", w.msgs[0])
	}
	if len(w.msgs[0].Headers) != 1 || string(w.msgs[0].Headers[0].Value) != "r1" {
		t.Fatalf("headers = %+v", w.msgs[0].Headers)
	}
	if string(w.msgs[1].Value) != "text" {
		t.Fatalf("second = %q", w.msgs[1].Value)
	}
}

func TestPublishWrapsWriterError(t *testing.T) {
	boom := errors.New("broker down")
	p := NewProducerWithWriter(&fakeWriter{err: boom}, "gzip")
	if err := p.Publish(context.Background(), "runs", nil, "x"); !errors.Is(err, boom) {
		t.Fatalf("want wrapped error, got %v", err)
	}
	if err := p.PublishBatch(context.Background(), "runs", nil); err != nil {
		t.Fatalf("empty batch: %v", err)
	}
}
