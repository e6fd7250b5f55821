package kafka

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/IBM/sarama"
)

// Producer publishes the storefront's typed events synchronously. Both event
// kinds are keyed so everything for one project or one chat session lands on
// the same partition.
type Producer struct {
	producer sarama.SyncProducer
}

func NewProducer(brokers []string, config *sarama.Config) (*Producer, error) {
	producer, err := sarama.NewSyncProducer(brokers, config)
	if err != nil {
		return nil, fmt.Errorf("create sync producer: %w", err)
	}
	return &Producer{producer: producer}, nil
}

// PublishOrder emits an order event for the fulfillment consumer, keyed by
// the project slug. The timestamp is stamped here.
func (p *Producer) PublishOrder(topic, projectSlug string, event OrderEvent) error {
	event.Timestamp = time.Now().Unix()
	return p.publish(topic, projectSlug, event)
}

// PublishChatMessage mirrors a persisted chat-log message, keyed by session.
func (p *Producer) PublishChatMessage(topic string, event MessageEvent) error {
	event.Timestamp = time.Now().Unix()
	return p.publish(topic, event.SessionKey, event)
}

func (p *Producer) publish(topic, key string, event interface{}) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal %s event: %w", topic, err)
	}

	msg := &sarama.ProducerMessage{
		Topic: topic,
		Key:   sarama.StringEncoder(key),
		Value: sarama.ByteEncoder(payload),
	}
	partition, offset, err := p.producer.SendMessage(msg)
	if err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}

	log.Printf("Published %s event to partition %d at offset %d", topic, partition, offset)
	return nil
}

func (p *Producer) Close() error {
	return p.producer.Close()
}
