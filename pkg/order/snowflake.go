// 文件: pkg/order/snowflake.go
// 订单 ID 生成 (snowflake)
//
// 订单号要求全局唯一且大致按时间递增，
// 多实例部署时节点号从配置注入，互不相同

package order

import (
	"sync"

	"github.com/bwmarrin/snowflake"
)

var (
	idNode *snowflake.Node
	idOnce sync.Once
)

// InitSnowflake 初始化订单 ID 生成器
// nodeID 取值 0-1023; 重复调用只有第一次生效
func InitSnowflake(nodeID int64) error {
	var err error
	idOnce.Do(func() {
		idNode, err = snowflake.NewNode(nodeID)
	})
	return err
}

// GenerateOrderID 生成订单 ID
func GenerateOrderID() int64 {
	if idNode == nil {
		// 未显式初始化时退回节点 0 (单实例测试场景)
		InitSnowflake(0)
	}
	return idNode.Generate().Int64()
}
