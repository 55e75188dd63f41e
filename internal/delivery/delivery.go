package delivery

import (
	"context"

	"safeplan-engine/internal/models"
)

// Content 通知内容（传给投递方的载荷）
type Content struct {
	Type     models.NotificationType     `json:"type"`
	Title    string                      `json:"title"`
	Body     string                      `json:"body"`
	Priority models.NotificationPriority `json:"priority"`
	Data     map[string]any              `json:"data,omitempty"`
}

// OpenedHandler 通知打开事件回调
type OpenedHandler func(notificationID string, data map[string]any)

// PermissionHandler 权限状态变化回调
type PermissionHandler func(status models.PermissionStatus)

// Deliverer 通知投递方契约
// 定时通知整体取消后全量重建（不做增量 diff）
type Deliverer interface {
	// PermissionStatus 查询当前通知权限状态
	PermissionStatus() models.PermissionStatus
	// RequestPermission 请求通知权限
	RequestPermission(ctx context.Context) (models.PermissionStatus, error)
	// ScheduleRecurring 登记定时重复通知
	// intervalDays <= 1 表示每天；hour/minute 为当地时刻
	ScheduleRecurring(ctx context.Context, id string, content Content, hour, minute, intervalDays int) error
	// SendImmediate 立即投递一条通知
	SendImmediate(ctx context.Context, id string, content Content) error
	// CancelAllScheduled 取消全部定时通知
	CancelAllScheduled(ctx context.Context) error
	// OnOpened 注册通知打开事件回调
	OnOpened(handler OpenedHandler)
	// OnPermissionChanged 注册权限状态变化回调
	// 权限应答可能是异步的（设备端稍后上报），调用方据此补建定时通知
	OnPermissionChanged(handler PermissionHandler)
}
