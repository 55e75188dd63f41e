package delivery

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"safeplan-engine/internal/models"
)

// PushSender 即时推送发送方（LocalScheduler 的下游）
type PushSender interface {
	Send(ctx context.Context, notificationID string, content Content) error
	HasToken() bool
}

// scheduleEntry 一条定时通知的登记信息
type scheduleEntry struct {
	id           string
	content      Content
	hour         int
	minute       int
	intervalDays int
	nextDue      time.Time
}

// LocalScheduler 进程内定时调度器 + 推送网关的投递实现
// 设备端不具备本地调度能力时使用：到点后经推送网关即时下发。
// 推送通道没有打开事件回流，OnOpened 回调仅在 MQTT 桥接下生效。
type LocalScheduler struct {
	sender PushSender
	tick   time.Duration
	logger *zap.Logger

	mu           sync.Mutex
	entries      map[string]*scheduleEntry
	onOpened     OpenedHandler
	onPermission PermissionHandler

	now func() time.Time
}

// NewLocalScheduler 创建本地调度器
func NewLocalScheduler(sender PushSender, tick time.Duration, logger *zap.Logger) *LocalScheduler {
	return &LocalScheduler{
		sender:  sender,
		tick:    tick,
		logger:  logger,
		entries: make(map[string]*scheduleEntry),
		now:     time.Now,
	}
}

// Run 启动调度循环（阻塞直到 ctx 取消）
func (s *LocalScheduler) Run(ctx context.Context) {
	s.logger.Info("Local notification scheduler started",
		zap.Duration("tick", s.tick),
	)

	ticker := time.NewTicker(s.tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Local notification scheduler stopped")
			return
		case <-ticker.C:
			s.firePending(ctx, s.now())
		}
	}
}

// firePending 下发所有到期的定时通知并推进下次触发时间
func (s *LocalScheduler) firePending(ctx context.Context, now time.Time) {
	s.mu.Lock()
	due := make([]*scheduleEntry, 0)
	for _, entry := range s.entries {
		if !entry.nextDue.After(now) {
			due = append(due, entry)
		}
	}
	s.mu.Unlock()

	for _, entry := range due {
		if err := s.sender.Send(ctx, entry.id, entry.content); err != nil {
			s.logger.Error("Failed to deliver scheduled notification",
				zap.String("id", entry.id),
				zap.Error(err),
			)
			// 投递失败也推进 nextDue，避免每个 tick 重试堆积
		}

		s.mu.Lock()
		interval := entry.intervalDays
		if interval < 1 {
			interval = 1
		}
		for !entry.nextDue.After(now) {
			entry.nextDue = entry.nextDue.Add(time.Duration(interval) * 24 * time.Hour)
		}
		s.mu.Unlock()
	}
}

// nextOccurrence 计算 hh:mm 的下一次触发时间
func nextOccurrence(now time.Time, hour, minute int) time.Time {
	next := time.Date(now.Year(), now.Month(), now.Day(), hour, minute, 0, 0, now.Location())
	if !next.After(now) {
		next = next.Add(24 * time.Hour)
	}
	return next
}

// PermissionStatus 令牌已配置视为已授权
func (s *LocalScheduler) PermissionStatus() models.PermissionStatus {
	if s.sender.HasToken() {
		return models.PermissionGranted
	}
	return models.PermissionDenied
}

// RequestPermission 推送通道无权限弹窗，直接返回当前状态
func (s *LocalScheduler) RequestPermission(ctx context.Context) (models.PermissionStatus, error) {
	return s.PermissionStatus(), nil
}

// ScheduleRecurring 登记定时重复通知（同 id 覆盖）
func (s *LocalScheduler) ScheduleRecurring(ctx context.Context, id string, content Content, hour, minute, intervalDays int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[id] = &scheduleEntry{
		id:           id,
		content:      content,
		hour:         hour,
		minute:       minute,
		intervalDays: intervalDays,
		nextDue:      nextOccurrence(s.now(), hour, minute),
	}
	return nil
}

// SendImmediate 立即投递
func (s *LocalScheduler) SendImmediate(ctx context.Context, id string, content Content) error {
	return s.sender.Send(ctx, id, content)
}

// CancelAllScheduled 取消全部定时通知
func (s *LocalScheduler) CancelAllScheduled(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]*scheduleEntry)
	return nil
}

// OnOpened 注册打开事件回调（推送通道不会触发）
func (s *LocalScheduler) OnOpened(handler OpenedHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onOpened = handler
}

// OnPermissionChanged 注册权限状态变化回调
// 推送通道的权限由令牌配置决定，进程内不会变化，回调不会触发
func (s *LocalScheduler) OnPermissionChanged(handler PermissionHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onPermission = handler
}

// ScheduledCount 当前登记的定时通知数量
func (s *LocalScheduler) ScheduledCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
