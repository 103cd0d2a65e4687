package adapter

import (
	"context"
	"encoding/json"

	"github.com/segmentio/kafka-go"

	"saregare/internal/pkg/mq"
	"saregare/internal/service/checkout/domain"
)

// KafkaOrderNotifier 把订单状态事件发布到 Kafka。
// 消息以买家 ID 为 key，保证同一买家的事件落在同一分区、保持有序，
// push-gateway 按买家路由到 WebSocket 连接。
type KafkaOrderNotifier struct {
	writer *kafka.Writer
}

func NewKafkaOrderNotifier(writer *kafka.Writer) *KafkaOrderNotifier {
	return &KafkaOrderNotifier{writer: writer}
}

func (n *KafkaOrderNotifier) PublishStatus(ctx context.Context, event *domain.OrderStatusChanged) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}
	return mq.ProduceMessage(ctx, n.writer, []byte(event.BuyerID), payload)
}
