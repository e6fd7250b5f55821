package kafka

import (
	"github.com/IBM/sarama"
)

// OriginInterceptor stamps every outgoing record with the producing service.
type OriginInterceptor struct {
}

func (i *OriginInterceptor) OnSend(msg *sarama.ProducerMessage) {
	msg.Headers = append(msg.Headers, sarama.RecordHeader{
		Key:   []byte("origin"),
		Value: []byte("codemart-api"),
	})
}

func NewOriginInterceptor() *OriginInterceptor {
	return &OriginInterceptor{}
}
