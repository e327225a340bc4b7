// 文件: pkg/journal/db_writer.go
// 账本流水 - 数据库写入器
//
// 消费 Kafka 流水事件，批量幂等写入 MySQL:
// - 批量写入提高吞吐
// - INSERT IGNORE 幂等，重复投递安全

package journal

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"mono.com/pkg/kafka"
)

// Writer 流水落库器生命周期
type Writer interface {
	Start()
	Stop() error
}

// 确保实现了接口
var _ Writer = (*DBWriter)(nil)

// DBWriterConfig 写入器配置
type DBWriterConfig struct {
	Brokers       []string      // Kafka brokers
	GroupID       string        // 消费者组
	BatchSize     int           // 批量大小
	FlushInterval time.Duration // 刷新间隔
}

// DefaultDBWriterConfig 默认配置
func DefaultDBWriterConfig(brokers []string) DBWriterConfig {
	return DBWriterConfig{
		Brokers:       brokers,
		GroupID:       "journal_db_writer",
		BatchSize:     100,
		FlushInterval: 500 * time.Millisecond,
	}
}

// DBWriterStats 写入统计
type DBWriterStats struct {
	ReceivedCount int64 // 接收数量
	WrittenCount  int64 // 写入数量
	ErrorCount    int64 // 错误数量
	BatchCount    int64 // 批次数量
}

// DBWriter 流水落库器
type DBWriter struct {
	repo     Repository
	consumer *kafka.Consumer
	log      *logrus.Entry

	// 批量缓冲
	buffer    []*JournalEvent
	bufferMu  sync.Mutex
	batchSize int
	flushCh   chan struct{}

	flushInterval time.Duration

	stats   DBWriterStats
	statsMu sync.Mutex

	// 生命周期
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewDBWriter 创建流水落库器
func NewDBWriter(cfg DBWriterConfig, repo Repository) (*DBWriter, error) {
	ctx, cancel := context.WithCancel(context.Background())

	w := &DBWriter{
		repo:          repo,
		log:           logrus.WithField("component", "journal_db_writer"),
		buffer:        make([]*JournalEvent, 0, cfg.BatchSize),
		batchSize:     cfg.BatchSize,
		flushCh:       make(chan struct{}, 1),
		flushInterval: cfg.FlushInterval,
		ctx:           ctx,
		cancel:        cancel,
	}

	consumerCfg := kafka.DefaultConsumerConfig(
		cfg.Brokers,
		cfg.GroupID,
		[]string{TopicJournalEvents},
	)

	consumer, err := kafka.NewConsumer(consumerCfg, w.handleMessage)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("create consumer: %w", err)
	}
	w.consumer = consumer

	return w, nil
}

// handleMessage 处理单条消息，入缓冲
func (w *DBWriter) handleMessage(topic string, partition int32, offset int64, key, value []byte) error {
	var event JournalEvent
	if err := json.Unmarshal(value, &event); err != nil {
		w.addError()
		return fmt.Errorf("unmarshal event: %w", err)
	}

	w.statsMu.Lock()
	w.stats.ReceivedCount++
	w.statsMu.Unlock()

	w.bufferMu.Lock()
	w.buffer = append(w.buffer, &event)
	shouldFlush := len(w.buffer) >= w.batchSize
	w.bufferMu.Unlock()

	if shouldFlush {
		select {
		case w.flushCh <- struct{}{}:
		default:
		}
	}

	return nil
}

// flush 刷新缓冲写入数据库
func (w *DBWriter) flush() {
	w.bufferMu.Lock()
	events := w.buffer
	w.buffer = make([]*JournalEvent, 0, w.batchSize)
	w.bufferMu.Unlock()

	if len(events) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := w.repo.BatchInsert(ctx, events); err != nil {
		w.addError()
		w.log.Warnf("batch insert error: %v", err)
		return
	}

	w.statsMu.Lock()
	w.stats.WrittenCount += int64(len(events))
	w.stats.BatchCount++
	w.statsMu.Unlock()
}

func (w *DBWriter) addError() {
	w.statsMu.Lock()
	w.stats.ErrorCount++
	w.statsMu.Unlock()
}

// Start 启动写入器
func (w *DBWriter) Start() {
	w.consumer.Start()

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		ticker := time.NewTicker(w.flushInterval)
		defer ticker.Stop()

		for {
			select {
			case <-w.ctx.Done():
				w.flush() // 最后刷新一次
				return
			case <-ticker.C:
				w.flush()
			case <-w.flushCh:
				w.flush()
			}
		}
	}()
}

// Stop 停止写入器
func (w *DBWriter) Stop() error {
	w.cancel()
	w.wg.Wait()
	return w.consumer.Stop()
}

// Stats 获取统计
func (w *DBWriter) Stats() DBWriterStats {
	w.statsMu.Lock()
	defer w.statsMu.Unlock()
	return w.stats
}
