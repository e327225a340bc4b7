// 文件: pkg/inventory/memory_repo.go
// 持仓账本 - 内存存储实现 (测试/本地模拟用)

package inventory

import (
	"context"
	"sort"
	"sync"

	"mono.com/pkg/store"
)

type positionKey struct {
	portfolioID  string
	instrumentID string
}

// 确保实现了接口
var (
	_ Repository        = (*MemoryRepository)(nil)
	_ store.Snapshotter = (*MemoryRepository)(nil)
)

// MemoryRepository 内存实现
type MemoryRepository struct {
	mu        sync.RWMutex
	positions map[positionKey]Position
}

// NewMemoryRepository 创建内存存储
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{positions: make(map[positionKey]Position)}
}

// Get 查询持仓
func (r *MemoryRepository) Get(_ context.Context, portfolioID, instrumentID string) (*Position, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	position, ok := r.positions[positionKey{portfolioID, instrumentID}]
	if !ok {
		return nil, nil
	}
	return &position, nil
}

// Save 保存持仓
func (r *MemoryRepository) Save(_ context.Context, position *Position) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.positions[positionKey{position.PortfolioID, position.InstrumentID}] = *position
	return nil
}

// ListByPortfolio 查询组合的全部持仓
func (r *MemoryRepository) ListByPortfolio(_ context.Context, portfolioID string) ([]*Position, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var positions []*Position
	for key, position := range r.positions {
		if key.portfolioID == portfolioID {
			p := position
			positions = append(positions, &p)
		}
	}

	sort.Slice(positions, func(i, j int) bool {
		return positions[i].InstrumentID < positions[j].InstrumentID
	})
	return positions, nil
}

// Snapshot 复制持仓表 (内存事务回滚用)
func (r *MemoryRepository) Snapshot() any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	copied := make(map[positionKey]Position, len(r.positions))
	for k, v := range r.positions {
		copied[k] = v
	}
	return copied
}

// Restore 恢复持仓表
func (r *MemoryRepository) Restore(snapshot any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.positions = snapshot.(map[positionKey]Position)
}
