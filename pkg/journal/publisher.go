// 文件: pkg/journal/publisher.go
// 账本流水 - 事件发布器
//
// JournalEvent 实现 kafka.Message 接口，
// 经通用 kafka 包异步发出

package journal

import (
	"mono.com/pkg/kafka"
)

// Publisher 流水发布器
// 发布失败只影响观测链路，不影响账本事务
type Publisher interface {
	PublishJournal(event *JournalEvent) error
}

// =============================================================================
// KafkaPublisher - Kafka 实现
// =============================================================================

// 确保实现了接口
var _ Publisher = (*KafkaPublisher)(nil)

// KafkaPublisher Kafka 流水发布器
type KafkaPublisher struct {
	producer *kafka.Producer
}

// NewKafkaPublisher 创建 Kafka 流水发布器
func NewKafkaPublisher(brokers []string) (*KafkaPublisher, error) {
	producer, err := kafka.NewProducer(kafka.DefaultProducerConfig(brokers))
	if err != nil {
		return nil, err
	}
	return &KafkaPublisher{producer: producer}, nil
}

// PublishJournal 发布流水事件
func (p *KafkaPublisher) PublishJournal(event *JournalEvent) error {
	return p.producer.Send(event)
}

// Close 关闭发布器
func (p *KafkaPublisher) Close() error {
	return p.producer.Close()
}
