// 文件: pkg/journal/nats_writer.go
// 账本流水 - NATS 落库器
//
// 队列订阅流水事件逐条幂等写入，
// 轻量部署下替代 Kafka 批量链路

package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"mono.com/pkg/nats"
)

// 落库器共用接口
var _ Writer = (*NatsDBWriter)(nil)

const natsWriterQueue = "journal_db_writer"

// NatsDBWriter NATS 流水落库器
type NatsDBWriter struct {
	repo       Repository
	subscriber *nats.Subscriber
	log        *logrus.Entry
}

// NewNatsDBWriter 创建 NATS 流水落库器
func NewNatsDBWriter(natsURL string, repo Repository) (*NatsDBWriter, error) {
	w := &NatsDBWriter{
		repo: repo,
		log:  logrus.WithField("component", "journal_nats_writer"),
	}

	subscriber, err := nats.NewSubscriber(natsURL, w.handleMessage)
	if err != nil {
		return nil, fmt.Errorf("create subscriber: %w", err)
	}
	w.subscriber = subscriber

	return w, nil
}

func (w *NatsDBWriter) handleMessage(subject string, data []byte) error {
	var event JournalEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return fmt.Errorf("unmarshal event: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return w.repo.BatchInsert(ctx, []*JournalEvent{&event})
}

// Start 开始订阅
func (w *NatsDBWriter) Start() {
	if err := w.subscriber.SubscribeQueue(TopicJournalEvents, natsWriterQueue); err != nil {
		w.log.Warnf("subscribe journal events: %v", err)
	}
}

// Stop 停止订阅
func (w *NatsDBWriter) Stop() error {
	return w.subscriber.Close()
}
