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

// CrisisAlertRepository 危机警报仓库
type CrisisAlertRepository struct {
	store  storage.Store
	config *config.Config
	logger *zap.Logger
}

// NewCrisisAlertRepository 创建危机警报仓库
func NewCrisisAlertRepository(store storage.Store, cfg *config.Config, logger *zap.Logger) *CrisisAlertRepository {
	return &CrisisAlertRepository{
		store:  store,
		config: cfg,
		logger: logger,
	}
}

// LoadAlerts 读取危机警报
func (r *CrisisAlertRepository) LoadAlerts(ctx context.Context, userID string) ([]models.CrisisAlert, error) {
	key := r.config.CrisisAlertsKey(userID)

	val, err := r.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return []models.CrisisAlert{}, nil
		}
		return nil, fmt.Errorf("failed to load crisis alerts: %w", err)
	}

	var alerts []models.CrisisAlert
	if err := json.Unmarshal([]byte(val), &alerts); err != nil {
		r.logger.Warn("Corrupted crisis alerts data, treating as empty",
			zap.String("key", key),
			zap.Error(err),
		)
		return []models.CrisisAlert{}, nil
	}

	return alerts, nil
}

// SaveAlerts 整表写入危机警报
func (r *CrisisAlertRepository) SaveAlerts(ctx context.Context, userID string, alerts []models.CrisisAlert) error {
	jsonData, err := json.Marshal(alerts)
	if err != nil {
		return fmt.Errorf("failed to marshal crisis alerts: %w", err)
	}

	key := r.config.CrisisAlertsKey(userID)
	if err := r.store.Set(ctx, key, string(jsonData)); err != nil {
		return fmt.Errorf("failed to save crisis alerts: %w", err)
	}

	return nil
}

// Clear 清除危机警报
func (r *CrisisAlertRepository) Clear(ctx context.Context, userID string) error {
	key := r.config.CrisisAlertsKey(userID)
	if err := r.store.Remove(ctx, key); err != nil {
		return fmt.Errorf("failed to clear crisis alerts: %w", err)
	}
	return nil
}
