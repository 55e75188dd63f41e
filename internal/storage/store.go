package storage

import (
	"context"
	"errors"
)

// ErrNotFound 键不存在
var ErrNotFound = errors.New("key not found")

// Store 持久化键值存储契约
// 引擎的全部状态都以 JSON 序列化后的数组/对象形式存放在固定键下
type Store interface {
	// Get 读取键值，键不存在时返回 ErrNotFound
	Get(ctx context.Context, key string) (string, error)
	// Set 写入键值（整体覆盖）
	Set(ctx context.Context, key string, value string) error
	// Remove 删除键
	Remove(ctx context.Context, key string) error
}
