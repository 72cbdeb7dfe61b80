package repository

import (
	"context"
	"time"

	"SmartMoney/internal/domain/models"
	pkgkafka "SmartMoney/pkg/kafka"
)

// Producer is the slice of pkg/kafka.Producer the publisher needs.
type Producer interface {
	PublishBatch(ctx context.Context, topic string, messages []pkgkafka.Message) error
	Publish(ctx context.Context, topic string, key []byte, value interface{}) error
	Close() error
}

// ScoreEvent is one result row as published downstream.
type ScoreEvent struct {
	RunID      string    `json:"run_id"`
	ComputedAt time.Time `json:"computed_at"`
	Period     string    `json:"period"`
	Interval   string    `json:"interval"`
	models.ScoreRecord
}

// KafkaResultPublisher writes one message per scored ticker (keyed by
// ticker) and a run summary.
type KafkaResultPublisher struct {
	producer     Producer
	topic        string
	summaryTopic string
}

func NewKafkaResultPublisher(producer Producer, topic, summaryTopic string) *KafkaResultPublisher {
	return &KafkaResultPublisher{producer: producer, topic: topic, summaryTopic: summaryTopic}
}

func (p *KafkaResultPublisher) PublishResult(ctx context.Context, res *models.ScreeningResult) error {
	if res == nil {
		return nil
	}
	headers := map[string]string{"run_id": res.RunID}
	msgs := make([]pkgkafka.Message, len(res.Records))
	for i, r := range res.Records {
		msgs[i] = pkgkafka.Message{
			Key: []byte(r.Ticker),
			Value: ScoreEvent{
				RunID:       res.RunID,
				ComputedAt:  res.ComputedAt,
				Period:      res.Period,
				Interval:    res.Interval,
				ScoreRecord: r,
			},
			Headers: headers,
		}
	}
	if err := p.producer.PublishBatch(ctx, p.topic, msgs); err != nil {
		return err
	}
	if p.summaryTopic == "" {
		return nil
	}
	return p.producer.Publish(ctx, p.summaryTopic, []byte(res.RunID), res.Summary())
}

func (p *KafkaResultPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}
