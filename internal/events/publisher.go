package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/segmentio/kafka-go"
)

// Publisher emits catalog change events to the catalog topic.
type Publisher struct {
	writer *kafka.Writer
}

func NewPublisher(writer *kafka.Writer) *Publisher {
	return &Publisher{writer: writer}
}

// Publish writes one event keyed entity-action-id, e.g. item-created-3.
func (p *Publisher) Publish(ctx context.Context, entity, action string, id int, payload interface{}) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	msg := kafka.Message{
		Key:   []byte(fmt.Sprintf("%s-%s-%d", entity, action, id)),
		Value: value,
	}

	return p.writer.WriteMessages(ctx, msg)
}
