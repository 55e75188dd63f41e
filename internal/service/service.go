package service

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"safeplan-engine/internal/config"
	"safeplan-engine/internal/delivery"
	"safeplan-engine/internal/engine"
	"safeplan-engine/internal/export"
	"safeplan-engine/internal/models"
	"safeplan-engine/internal/notifier"
	"safeplan-engine/internal/repository"
	"safeplan-engine/internal/storage"
)

// SafetyPlanService 安全计划引擎服务（整合各层）
type SafetyPlanService struct {
	config *config.Config
	store  *storage.RedisStore
	logger *zap.Logger
	userID string

	// 各层组件
	moodRepo  *repository.MoodEntryRepository
	alertRepo *repository.CrisisAlertRepository
	notifRepo *repository.NotificationRepository
	engine    *engine.Engine
	deliverer delivery.Deliverer
	notifier  *notifier.Evaluator

	mqttDeliverer *delivery.MQTTDeliverer
	scheduler     *delivery.LocalScheduler
}

// NewSafetyPlanService 创建安全计划引擎服务
func NewSafetyPlanService(cfg *config.Config, logger *zap.Logger, userID string) (*SafetyPlanService, error) {
	// 1. 连接 Redis
	store := storage.NewRedisStore(&cfg.Redis)

	// 测试 Redis 连接
	ctx := context.Background()
	if err := store.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	// 2. 创建 Repository 层
	moodRepo := repository.NewMoodEntryRepository(store, cfg, logger)
	alertRepo := repository.NewCrisisAlertRepository(store, cfg, logger)
	notifRepo := repository.NewNotificationRepository(store, cfg, logger)

	// 3. 创建引擎（加载持久化状态）
	eng := engine.NewEngine(ctx, userID, moodRepo, alertRepo, logger)

	// 4. 创建通知投递方
	s := &SafetyPlanService{
		config:    cfg,
		store:     store,
		logger:    logger,
		userID:    userID,
		moodRepo:  moodRepo,
		alertRepo: alertRepo,
		notifRepo: notifRepo,
		engine:    eng,
	}

	switch cfg.Notify.Transport {
	case "mqtt":
		mqttDeliverer, err := delivery.NewMQTTDeliverer(&cfg.MQTT, userID, logger)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("failed to create MQTT deliverer: %w", err)
		}
		s.mqttDeliverer = mqttDeliverer
		s.deliverer = mqttDeliverer
	case "push":
		pushClient := delivery.NewPushClient(&cfg.Push, logger)
		tick := time.Duration(cfg.Notify.SchedulerTickSeconds) * time.Second
		s.scheduler = delivery.NewLocalScheduler(pushClient, tick, logger)
		s.deliverer = s.scheduler
	default:
		store.Close()
		return nil, fmt.Errorf("unsupported notify transport: %s", cfg.Notify.Transport)
	}

	// 5. 创建通知评估器
	s.notifier = notifier.NewEvaluator(ctx, cfg, userID, notifRepo, eng, s.deliverer, logger)

	return s, nil
}

// Start 启动服务
func (s *SafetyPlanService) Start(ctx context.Context) error {
	s.logger.Info("Starting safety plan service",
		zap.String("user_id", s.userID),
		zap.String("transport", s.config.Notify.Transport),
	)

	s.notifier.Init(ctx)

	// 推送通道下定时通知由进程内调度器触发
	if s.scheduler != nil {
		go s.scheduler.Run(ctx)
	}

	return nil
}

// Stop 停止服务
func (s *SafetyPlanService) Stop() error {
	s.logger.Info("Stopping safety plan service")

	if s.mqttDeliverer != nil {
		s.mqttDeliverer.Close()
	}

	if err := s.store.Close(); err != nil {
		s.logger.Error("Failed to close redis",
			zap.Error(err),
		)
	}

	return nil
}

// AddMoodEntry 新增心情记录，执行危机检测后评估智能通知触发条件
func (s *SafetyPlanService) AddMoodEntry(
	ctx context.Context,
	mood int,
	notes string,
	warningSignsPresent []string,
	copingStrategiesUsed []string,
	photoURI string,
) models.MoodEntry {
	entry := s.engine.AddMoodEntry(ctx, mood, notes, warningSignsPresent, copingStrategiesUsed, photoURI)
	s.notifier.CheckForSmartTriggers(ctx)
	return entry
}

// GetMoodTrend 心情趋势汇总
func (s *SafetyPlanService) GetMoodTrend() models.MoodTrendSummary {
	return s.engine.GetMoodTrend()
}

// GetActiveAlerts 最近24小时内的未解除警报
func (s *SafetyPlanService) GetActiveAlerts() []models.CrisisAlert {
	return s.engine.GetActiveAlerts()
}

// DismissAlert 解除警报
func (s *SafetyPlanService) DismissAlert(ctx context.Context, alertID string) {
	s.engine.DismissAlert(ctx, alertID)
}

// ClearHistory 清空心情记录与警报
func (s *SafetyPlanService) ClearHistory(ctx context.Context) {
	s.engine.ClearHistory(ctx)
}

// UpdateNotificationPreferences 更新通知偏好并重建定时通知
func (s *SafetyPlanService) UpdateNotificationPreferences(ctx context.Context, patch models.PreferencesPatch) {
	s.notifier.UpdatePreferences(ctx, patch)
}

// NotificationPreferences 当前通知偏好
func (s *SafetyPlanService) NotificationPreferences() models.NotificationPreferences {
	return s.notifier.Preferences()
}

// NotificationAnalytics 通知统计快照
func (s *SafetyPlanService) NotificationAnalytics() models.NotificationAnalytics {
	return s.notifier.Analytics()
}

// NotificationHistory 通知历史快照（最新在前）
func (s *SafetyPlanService) NotificationHistory() []models.SmartNotification {
	return s.notifier.History()
}

// PermissionStatus 当前通知权限状态
func (s *SafetyPlanService) PermissionStatus() models.PermissionStatus {
	return s.notifier.PermissionStatus()
}

// TestNotification 发送测试通知
func (s *SafetyPlanService) TestNotification(ctx context.Context) {
	s.notifier.TestNotification(ctx)
}

// ExportMoodReport 导出心情报告（Excel）
func (s *SafetyPlanService) ExportMoodReport() ([]byte, error) {
	return export.GenerateMoodReport(s.engine.Entries(), s.engine.Alerts())
}
