package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"safeplan-engine/internal/config"
	"safeplan-engine/internal/models"
	"safeplan-engine/internal/storage"
)

// NotificationRepository 通知相关数据仓库（偏好、历史、统计）
type NotificationRepository struct {
	store  storage.Store
	config *config.Config
	logger *zap.Logger
}

// NewNotificationRepository 创建通知数据仓库
func NewNotificationRepository(store storage.Store, cfg *config.Config, logger *zap.Logger) *NotificationRepository {
	return &NotificationRepository{
		store:  store,
		config: cfg,
		logger: logger,
	}
}

// LoadPreferences 读取通知偏好
// 键不存在或 JSON 损坏时返回默认偏好
func (r *NotificationRepository) LoadPreferences(ctx context.Context, userID string) (models.NotificationPreferences, error) {
	key := r.config.PreferencesKey(userID)

	val, err := r.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.DefaultPreferences(), nil
		}
		return models.DefaultPreferences(), fmt.Errorf("failed to load preferences: %w", err)
	}

	var prefs models.NotificationPreferences
	if err := json.Unmarshal([]byte(val), &prefs); err != nil {
		r.logger.Warn("Corrupted notification preferences, using defaults",
			zap.String("key", key),
			zap.Error(err),
		)
		return models.DefaultPreferences(), nil
	}

	return prefs, nil
}

// SavePreferences 写入通知偏好
func (r *NotificationRepository) SavePreferences(ctx context.Context, userID string, prefs models.NotificationPreferences) error {
	jsonData, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}

	key := r.config.PreferencesKey(userID)
	if err := r.store.Set(ctx, key, string(jsonData)); err != nil {
		return fmt.Errorf("failed to save preferences: %w", err)
	}

	return nil
}

// LoadHistory 读取通知历史
func (r *NotificationRepository) LoadHistory(ctx context.Context, userID string) ([]models.SmartNotification, error) {
	key := r.config.HistoryKey(userID)

	val, err := r.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return []models.SmartNotification{}, nil
		}
		return nil, fmt.Errorf("failed to load notification history: %w", err)
	}

	var history []models.SmartNotification
	if err := json.Unmarshal([]byte(val), &history); err != nil {
		r.logger.Warn("Corrupted notification history, treating as empty",
			zap.String("key", key),
			zap.Error(err),
		)
		return []models.SmartNotification{}, nil
	}

	return history, nil
}

// SaveHistory 整表写入通知历史
func (r *NotificationRepository) SaveHistory(ctx context.Context, userID string, history []models.SmartNotification) error {
	jsonData, err := json.Marshal(history)
	if err != nil {
		return fmt.Errorf("failed to marshal notification history: %w", err)
	}

	key := r.config.HistoryKey(userID)
	if err := r.store.Set(ctx, key, string(jsonData)); err != nil {
		return fmt.Errorf("failed to save notification history: %w", err)
	}

	return nil
}

// LoadAnalytics 读取通知统计
func (r *NotificationRepository) LoadAnalytics(ctx context.Context, userID string) (models.NotificationAnalytics, error) {
	key := r.config.AnalyticsKey(userID)

	val, err := r.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return models.NewNotificationAnalytics(), nil
		}
		return models.NewNotificationAnalytics(), fmt.Errorf("failed to load notification analytics: %w", err)
	}

	var analytics models.NotificationAnalytics
	if err := json.Unmarshal([]byte(val), &analytics); err != nil {
		r.logger.Warn("Corrupted notification analytics, resetting",
			zap.String("key", key),
			zap.Error(err),
		)
		return models.NewNotificationAnalytics(), nil
	}
	if analytics.TypeBreakdown == nil {
		analytics.TypeBreakdown = make(map[models.NotificationType]models.TypeStats)
	}

	return analytics, nil
}

// SaveAnalytics 写入通知统计
func (r *NotificationRepository) SaveAnalytics(ctx context.Context, userID string, analytics models.NotificationAnalytics) error {
	jsonData, err := json.Marshal(analytics)
	if err != nil {
		return fmt.Errorf("failed to marshal notification analytics: %w", err)
	}

	key := r.config.AnalyticsKey(userID)
	if err := r.store.Set(ctx, key, string(jsonData)); err != nil {
		return fmt.Errorf("failed to save notification analytics: %w", err)
	}

	return nil
}
