package kafka

import (
	"context"
	"encoding/json"
	"log"

	"github.com/IBM/sarama"
)

// OrderEvent is published when a customer places an order and consumed by
// the fulfillment side to issue the download link.
type OrderEvent struct {
	OrderID     uint   `json:"order_id"`
	UserID      uint   `json:"user_id"`
	ProjectID   uint   `json:"project_id"`
	AmountCents int    `json:"amount_cents"`
	Status      string `json:"status"`
	Timestamp   int64  `json:"timestamp"`
}

// MessageEvent mirrors a chat message persisted through the REST log.
type MessageEvent struct {
	SessionKey string `json:"session_key"`
	AuthorID   string `json:"author_id"`
	SenderKind string `json:"sender_kind"`
	Content    string `json:"content"`
	Timestamp  int64  `json:"timestamp"`
}

type FulfillmentHandler struct {
}

func NewFulfillmentHandler() *FulfillmentHandler {
	return &FulfillmentHandler{}
}

func (h *FulfillmentHandler) Handle(ctx context.Context, message *sarama.ConsumerMessage) error {
	var order OrderEvent

	if err := json.Unmarshal(message.Value, &order); err != nil {
		log.Printf("Failed to unmarshal order event: %v", err)
		return err
	}

	log.Printf("Fulfilling order %d for project %d", order.OrderID, order.ProjectID)

	return nil
}
