// 文件: pkg/buyingpower/memory_repo.go
// 资金账本 - 内存存储实现 (测试/本地模拟用)

package buyingpower

import (
	"context"
	"sync"

	"mono.com/pkg/store"
)

// 确保实现了接口
var (
	_ Repository        = (*MemoryRepository)(nil)
	_ store.Snapshotter = (*MemoryRepository)(nil)
)

// MemoryRepository 内存实现
type MemoryRepository struct {
	mu       sync.RWMutex
	accounts map[string]Account
}

// NewMemoryRepository 创建内存存储
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{accounts: make(map[string]Account)}
}

// Get 查询账户
func (r *MemoryRepository) Get(_ context.Context, portfolioID string) (*Account, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	account, ok := r.accounts[portfolioID]
	if !ok {
		return nil, nil
	}
	return &account, nil
}

// Save 保存账户
func (r *MemoryRepository) Save(_ context.Context, account *Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.accounts[account.PortfolioID] = *account
	return nil
}

// CreateIfAbsent 不存在则插入
func (r *MemoryRepository) CreateIfAbsent(_ context.Context, account *Account) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.accounts[account.PortfolioID]; ok {
		return nil
	}
	r.accounts[account.PortfolioID] = *account
	return nil
}

// Snapshot 复制账户表 (内存事务回滚用)
func (r *MemoryRepository) Snapshot() any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	copied := make(map[string]Account, len(r.accounts))
	for k, v := range r.accounts {
		copied[k] = v
	}
	return copied
}

// Restore 恢复账户表
func (r *MemoryRepository) Restore(snapshot any) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.accounts = snapshot.(map[string]Account)
}
