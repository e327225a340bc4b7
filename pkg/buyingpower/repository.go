// 文件: pkg/buyingpower/repository.go

package buyingpower

import "context"

// Repository 购买力账户存储
type Repository interface {
	// Get 查询账户，不存在返回 (nil, nil)
	Get(ctx context.Context, portfolioID string) (*Account, error)

	// Save 保存账户 (存在则覆盖余额)
	Save(ctx context.Context, account *Account) error

	// CreateIfAbsent 不存在则插入，已存在不做任何事
	// 并发首读的竞态安全由这里保证
	CreateIfAbsent(ctx context.Context, account *Account) error
}
