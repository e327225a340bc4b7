// 文件: pkg/store/memory.go
// 内存事务管理器 (测试/本地模拟用)
//
// 用一把全局互斥锁把所有"事务"串行化，
// 任何隔离级别都满足。回滚通过快照实现:
// 最外层事务开始时对所有登记的仓库取快照，
// fn 返回 error 时逆序恢复，不留半截写入

package store

import (
	"context"
	"database/sql"
	"sync"
)

type memTxKey struct{}

// Snapshotter 可快照资源
// 内存仓库实现它以参与事务回滚
type Snapshotter interface {
	// Snapshot 返回当前状态的深拷贝
	Snapshot() any

	// Restore 恢复到 Snapshot 返回的状态
	Restore(snapshot any)
}

// 确保实现了接口
var _ TxManager = (*MemoryTxManager)(nil)

// MemoryTxManager 内存事务管理器
type MemoryTxManager struct {
	mu        sync.Mutex
	resources []Snapshotter
}

// NewMemoryTxManager 创建内存事务管理器
func NewMemoryTxManager() *MemoryTxManager {
	return &MemoryTxManager{}
}

// Track 登记参与事务回滚的仓库
// 必须在开启任何事务之前完成登记
func (m *MemoryTxManager) Track(resources ...Snapshotter) {
	m.resources = append(m.resources, resources...)
}

// WithinTx 串行执行 fn; 嵌套调用直接加入 (REQUIRED)
// 最外层 fn 返回 error 时恢复全部登记仓库的快照
func (m *MemoryTxManager) WithinTx(ctx context.Context, _ sql.IsolationLevel, fn func(ctx context.Context) error) error {
	if ctx.Value(memTxKey{}) != nil {
		return fn(ctx)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	snapshots := make([]any, len(m.resources))
	for i, resource := range m.resources {
		snapshots[i] = resource.Snapshot()
	}

	err := fn(context.WithValue(ctx, memTxKey{}, struct{}{}))
	if err != nil {
		for i := len(m.resources) - 1; i >= 0; i-- {
			m.resources[i].Restore(snapshots[i])
		}
	}
	return err
}
