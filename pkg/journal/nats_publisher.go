// 文件: pkg/journal/nats_publisher.go
// 账本流水 - NATS 事件发布器 (轻量级替代 Kafka)

package journal

import (
	"mono.com/pkg/nats"
)

// 确保实现了接口
var _ Publisher = (*NatsPublisher)(nil)

// NatsPublisher NATS 流水发布器
type NatsPublisher struct {
	publisher *nats.Publisher
}

// NewNatsPublisher 创建 NATS 流水发布器
func NewNatsPublisher(natsURL string) (*NatsPublisher, error) {
	publisher, err := nats.NewPublisher(natsURL)
	if err != nil {
		return nil, err
	}
	return &NatsPublisher{publisher: publisher}, nil
}

// PublishJournal 发布流水事件
func (p *NatsPublisher) PublishJournal(event *JournalEvent) error {
	return p.publisher.Publish(TopicJournalEvents, event)
}

// Close 关闭发布器
func (p *NatsPublisher) Close() error {
	p.publisher.Close()
	return nil
}
