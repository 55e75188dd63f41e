package notifier

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"safeplan-engine/internal/config"
	"safeplan-engine/internal/delivery"
	"safeplan-engine/internal/engine"
	"safeplan-engine/internal/models"
	"safeplan-engine/internal/repository"
)

const (
	// maxHistory 通知历史上限
	maxHistory = 100
	// inactivityThresholdDays 触发"想念提醒"的未签到天数
	inactivityThresholdDays = 2
	// noEntriesDays 无任何记录时的天数哨兵值（强制命中不活跃分支）
	noEntriesDays = 999
	// encouragementProbability 鼓励消息的发送概率（防通知疲劳）
	encouragementProbability = 0.3
)

// 定时通知 ID
const (
	scheduleIDDailyCheckIn     = "daily-checkin"
	scheduleIDSafetyPlanReview = "safety-plan-review"
	scheduleIDMoodReminder     = "mood-reminder" // 后接 -<序号>
)

// Evaluator 智能通知触发评估器
// 持有通知偏好、历史与统计；在心情数据变化后评估即时触发条件，
// 并从偏好推导定时重复通知。
type Evaluator struct {
	config    *config.Config
	userID    string
	repo      *repository.NotificationRepository
	engine    *engine.Engine
	deliverer delivery.Deliverer
	logger    *zap.Logger

	mu        sync.Mutex
	prefs     models.NotificationPreferences
	history   []models.SmartNotification
	analytics models.NotificationAnalytics

	now       func() time.Time
	randFloat func() float64 // 鼓励消息概率门的随机源（测试可注入）
}

// NewEvaluator 创建评估器并加载持久化状态
func NewEvaluator(
	ctx context.Context,
	cfg *config.Config,
	userID string,
	repo *repository.NotificationRepository,
	eng *engine.Engine,
	deliverer delivery.Deliverer,
	logger *zap.Logger,
) *Evaluator {
	e := &Evaluator{
		config:    cfg,
		userID:    userID,
		repo:      repo,
		engine:    eng,
		deliverer: deliverer,
		logger:    logger,
		now:       time.Now,
		randFloat: rand.Float64,
	}

	prefs, err := repo.LoadPreferences(ctx, userID)
	if err != nil {
		logger.Error("Failed to load notification preferences, using defaults",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		prefs = models.DefaultPreferences()
	}
	e.prefs = prefs

	history, err := repo.LoadHistory(ctx, userID)
	if err != nil {
		logger.Error("Failed to load notification history, starting empty",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		history = []models.SmartNotification{}
	}
	e.history = history

	analytics, err := repo.LoadAnalytics(ctx, userID)
	if err != nil {
		logger.Error("Failed to load notification analytics, resetting",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		analytics = models.NewNotificationAnalytics()
	}
	e.analytics = analytics

	return e
}

// Init 初始化：请求通知权限并登记已启用的定时通知
// 打开事件回流接到统计跟踪上。权限应答可能异步到达（MQTT 桥接下设备端
// 稍后上报），授权事件到达时补建定时通知。
func (e *Evaluator) Init(ctx context.Context) {
	e.deliverer.OnOpened(func(notificationID string, data map[string]any) {
		e.TrackNotificationOpened(context.Background(), notificationID)
	})

	e.deliverer.OnPermissionChanged(func(status models.PermissionStatus) {
		if status != models.PermissionGranted {
			return
		}
		e.mu.Lock()
		enabled := e.prefs.Enabled
		e.mu.Unlock()
		if enabled {
			e.rescheduleAll(context.Background())
		}
	})

	status, err := e.deliverer.RequestPermission(ctx)
	if err != nil {
		e.logger.Error("Failed to request notification permission",
			zap.String("user_id", e.userID),
			zap.Error(err),
		)
		return
	}

	e.logger.Info("Notification permission status",
		zap.String("user_id", e.userID),
		zap.String("status", string(status)),
	)

	e.mu.Lock()
	enabled := e.prefs.Enabled
	e.mu.Unlock()

	if status == models.PermissionGranted && enabled {
		e.rescheduleAll(ctx)
	}
}

// PermissionStatus 当前通知权限状态
func (e *Evaluator) PermissionStatus() models.PermissionStatus {
	return e.deliverer.PermissionStatus()
}

// UpdatePreferences 合并部分更新并重建定时通知
// 总开关关闭时仅取消全部定时通知（历史与统计保留）
func (e *Evaluator) UpdatePreferences(ctx context.Context, patch models.PreferencesPatch) {
	e.mu.Lock()
	e.prefs.Apply(patch)
	prefs := e.prefs
	e.mu.Unlock()

	if err := e.repo.SavePreferences(ctx, e.userID, prefs); err != nil {
		e.logger.Error("Failed to persist notification preferences",
			zap.String("user_id", e.userID),
			zap.Error(err),
		)
	}

	if err := e.deliverer.CancelAllScheduled(ctx); err != nil {
		e.logger.Error("Failed to cancel scheduled notifications",
			zap.String("user_id", e.userID),
			zap.Error(err),
		)
	}
	if prefs.Enabled {
		e.rescheduleAll(ctx)
	}
}

// Preferences 当前通知偏好
func (e *Evaluator) Preferences() models.NotificationPreferences {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.prefs
}

// rescheduleAll 从当前偏好全量重建定时通知
func (e *Evaluator) rescheduleAll(ctx context.Context) {
	e.mu.Lock()
	prefs := e.prefs
	e.mu.Unlock()

	if prefs.DailyCheckIn.Enabled {
		e.scheduleAt(ctx, scheduleIDDailyCheckIn, prefs.DailyCheckIn.Time, 1, delivery.Content{
			Type:     models.NotificationDailyCheckIn,
			Title:    "Daily Check-in",
			Body:     "How are you feeling today? Take a moment to check in with yourself.",
			Priority: models.PriorityNormal,
			Data:     map[string]any{"type": string(models.NotificationDailyCheckIn)},
		})
	}

	if prefs.MoodReminders.Enabled {
		for i, clock := range prefs.MoodReminders.Times {
			id := fmt.Sprintf("%s-%d", scheduleIDMoodReminder, i)
			e.scheduleAt(ctx, id, clock, 1, delivery.Content{
				Type:     models.NotificationMoodReminder,
				Title:    "Mood Check",
				Body:     "Take a moment to record how you're feeling.",
				Priority: models.PriorityNormal,
				Data:     map[string]any{"type": string(models.NotificationMoodReminder)},
			})
		}
	}

	if prefs.SafetyPlanReminders.Enabled {
		intervalDays := 7
		if prefs.SafetyPlanReminders.ReviewFrequency == models.ReviewMonthly {
			intervalDays = 30
		}
		e.scheduleAt(ctx, scheduleIDSafetyPlanReview, e.config.Notify.SafetyPlanReviewTime, intervalDays, delivery.Content{
			Type:     models.NotificationSafetyPlanReview,
			Title:    "Safety Plan Review",
			Body:     "It's a good time to review and update your safety plan.",
			Priority: models.PriorityNormal,
			Data:     map[string]any{"type": string(models.NotificationSafetyPlanReview)},
		})
	}
}

// scheduleAt 解析 "HH:MM" 并登记定时通知，非法时刻跳过
func (e *Evaluator) scheduleAt(ctx context.Context, id, clock string, intervalDays int, content delivery.Content) {
	hour, minute, err := parseClock(clock)
	if err != nil {
		e.logger.Warn("Invalid notification time, skipping",
			zap.String("id", id),
			zap.String("time", clock),
			zap.Error(err),
		)
		return
	}

	if err := e.deliverer.ScheduleRecurring(ctx, id, content, hour, minute, intervalDays); err != nil {
		e.logger.Error("Failed to schedule recurring notification",
			zap.String("id", id),
			zap.Error(err),
		)
	}
}

// CheckForSmartTriggers 评估即时触发条件（心情/警报数据变化后调用）
// 各触发条件独立评估，一次调用可能发出多条通知
func (e *Evaluator) CheckForSmartTriggers(ctx context.Context) {
	e.mu.Lock()
	prefs := e.prefs
	e.mu.Unlock()

	if !prefs.Enabled {
		return
	}

	// 1. 不活跃提醒
	if prefs.MoodReminders.Enabled {
		days := e.daysSinceLastEntry()
		if days >= inactivityThresholdDays {
			e.SendSmartNotification(ctx, e.newNotification(
				models.NotificationMoodReminder,
				"We miss you!",
				fmt.Sprintf("You haven't checked in for %d days. How are you feeling?", days),
				models.PriorityNormal,
				nil,
			))
		}
	}

	summary := e.engine.GetMoodTrend()

	// 2. 下滑模式警示
	if prefs.CrisisSupport.Enabled && prefs.CrisisSupport.ProactiveReminders {
		if summary.Trend == models.TrendDeclining && summary.RiskLevel != models.RiskLow {
			e.SendSmartNotification(ctx, e.newNotification(
				models.NotificationPatternAlert,
				"Checking in with you",
				"We've noticed your mood has been declining. Your safety plan and support tools are here whenever you need them.",
				models.PriorityHigh,
				map[string]any{
					"mood_trend": string(summary.Trend),
					"risk_level": string(summary.RiskLevel),
					"suggested_actions": []string{
						"Review your safety plan",
						"Try one of your coping strategies",
						"Reach out to a support contact",
					},
				},
			))
		}
	}

	// 3. 鼓励消息（概率门防通知疲劳）
	if prefs.EncouragementMessages.Enabled && summary.Trend == models.TrendImproving {
		if e.randFloat() < encouragementProbability {
			e.SendSmartNotification(ctx, e.newNotification(
				models.NotificationEncouragement,
				"You're doing great!",
				"Your mood has been improving. Keep using the strategies that work for you.",
				models.PriorityLow,
				nil,
			))
		}
	}
}

// SendSmartNotification 即时通知的唯一发送入口
// 权限未授予时静默不发；发送成功后更新统计并写入历史
func (e *Evaluator) SendSmartNotification(ctx context.Context, notification models.SmartNotification) {
	if e.deliverer.PermissionStatus() != models.PermissionGranted {
		e.logger.Debug("Notification permission not granted, skipping send",
			zap.String("user_id", e.userID),
			zap.String("type", string(notification.Type)),
		)
		return
	}

	content := delivery.Content{
		Type:     notification.Type,
		Title:    notification.Title,
		Body:     notification.Body,
		Priority: notification.Priority,
		Data:     notification.Data,
	}
	if err := e.deliverer.SendImmediate(ctx, notification.NotificationID, content); err != nil {
		e.logger.Error("Failed to deliver notification",
			zap.String("user_id", e.userID),
			zap.String("notification_id", notification.NotificationID),
			zap.Error(err),
		)
		return
	}

	e.mu.Lock()
	e.analytics.TotalSent++
	stats := e.analytics.TypeBreakdown[notification.Type]
	stats.Sent++
	e.analytics.TypeBreakdown[notification.Type] = stats

	notification.Sent = true
	e.history = append([]models.SmartNotification{notification}, e.history...)
	if len(e.history) > maxHistory {
		e.history = e.history[:maxHistory]
	}
	history := e.history
	analytics := e.analytics
	e.mu.Unlock()

	if err := e.repo.SaveAnalytics(ctx, e.userID, analytics); err != nil {
		e.logger.Error("Failed to persist notification analytics",
			zap.String("user_id", e.userID),
			zap.Error(err),
		)
	}
	if err := e.repo.SaveHistory(ctx, e.userID, history); err != nil {
		e.logger.Error("Failed to persist notification history",
			zap.String("user_id", e.userID),
			zap.Error(err),
		)
	}

	e.logger.Info("Notification sent",
		zap.String("user_id", e.userID),
		zap.String("notification_id", notification.NotificationID),
		zap.String("type", string(notification.Type)),
	)
}

// TrackNotificationOpened 记录通知被打开（投递方的打开事件回调）
// 历史中找不到对应通知时不做任何处理
func (e *Evaluator) TrackNotificationOpened(ctx context.Context, notificationID string) {
	e.mu.Lock()

	var opened *models.SmartNotification
	for i := range e.history {
		if e.history[i].NotificationID == notificationID {
			opened = &e.history[i]
			break
		}
	}
	if opened == nil {
		e.mu.Unlock()
		return
	}

	e.analytics.TotalOpened++
	if e.analytics.TotalSent > 0 {
		e.analytics.OpenRate = float64(e.analytics.TotalOpened) / float64(e.analytics.TotalSent) * 100
	}
	stats := e.analytics.TypeBreakdown[opened.Type]
	stats.Opened++
	e.analytics.TypeBreakdown[opened.Type] = stats
	analytics := e.analytics
	e.mu.Unlock()

	if err := e.repo.SaveAnalytics(ctx, e.userID, analytics); err != nil {
		e.logger.Error("Failed to persist notification analytics",
			zap.String("user_id", e.userID),
			zap.Error(err),
		)
	}
}

// TestNotification 从设置界面发起的测试通知
func (e *Evaluator) TestNotification(ctx context.Context) {
	e.SendSmartNotification(ctx, e.newNotification(
		models.NotificationEncouragement,
		"Test Notification",
		"Notifications are working. You've got this!",
		models.PriorityNormal,
		nil,
	))
}

// History 通知历史快照（最新在前）
func (e *Evaluator) History() []models.SmartNotification {
	e.mu.Lock()
	defer e.mu.Unlock()

	snapshot := make([]models.SmartNotification, len(e.history))
	copy(snapshot, e.history)
	return snapshot
}

// Analytics 通知统计快照
func (e *Evaluator) Analytics() models.NotificationAnalytics {
	e.mu.Lock()
	defer e.mu.Unlock()

	snapshot := e.analytics
	snapshot.TypeBreakdown = make(map[models.NotificationType]models.TypeStats, len(e.analytics.TypeBreakdown))
	for k, v := range e.analytics.TypeBreakdown {
		snapshot.TypeBreakdown[k] = v
	}
	return snapshot
}

// newNotification 构建智能通知
func (e *Evaluator) newNotification(
	notificationType models.NotificationType,
	title, body string,
	priority models.NotificationPriority,
	data map[string]any,
) models.SmartNotification {
	if data == nil {
		data = map[string]any{}
	}
	if _, ok := data["type"]; !ok {
		data["type"] = string(notificationType)
	}

	return models.SmartNotification{
		NotificationID: uuid.New().String(),
		Type:           notificationType,
		Title:          title,
		Body:           body,
		Priority:       priority,
		Data:           data,
		Sent:           false,
		Timestamp:      e.now().UnixMilli(),
	}
}

// daysSinceLastEntry 距最近一次心情记录的天数，无记录时返回哨兵值
func (e *Evaluator) daysSinceLastEntry() int {
	entries := e.engine.Entries()
	if len(entries) == 0 {
		return noEntriesDays
	}

	last := time.UnixMilli(entries[0].Timestamp)
	return int(e.now().Sub(last).Hours() / 24)
}

// parseClock 解析 "HH:MM"
func parseClock(clock string) (int, int, error) {
	parts := strings.Split(clock, ":")
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time format: %s", clock)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour: %s", clock)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute: %s", clock)
	}

	return hour, minute, nil
}
