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

// MoodEntryRepository 心情记录仓库
// 记录整表序列化为 JSON 数组存放在单个键下（最新在前，上限由引擎维护）
type MoodEntryRepository struct {
	store  storage.Store
	config *config.Config
	logger *zap.Logger
}

// NewMoodEntryRepository 创建心情记录仓库
func NewMoodEntryRepository(store storage.Store, cfg *config.Config, logger *zap.Logger) *MoodEntryRepository {
	return &MoodEntryRepository{
		store:  store,
		config: cfg,
		logger: logger,
	}
}

// LoadEntries 读取心情记录
// 键不存在或 JSON 损坏时按"无数据"处理，返回空列表
func (r *MoodEntryRepository) LoadEntries(ctx context.Context, userID string) ([]models.MoodEntry, error) {
	key := r.config.MoodEntriesKey(userID)

	val, err := r.store.Get(ctx, key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return []models.MoodEntry{}, nil
		}
		return nil, fmt.Errorf("failed to load mood entries: %w", err)
	}

	var entries []models.MoodEntry
	if err := json.Unmarshal([]byte(val), &entries); err != nil {
		// 损坏的数据按空数据处理，不视为致命错误
		r.logger.Warn("Corrupted mood entries data, treating as empty",
			zap.String("key", key),
			zap.Error(err),
		)
		return []models.MoodEntry{}, nil
	}

	return entries, nil
}

// SaveEntries 整表写入心情记录
func (r *MoodEntryRepository) SaveEntries(ctx context.Context, userID string, entries []models.MoodEntry) error {
	jsonData, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to marshal mood entries: %w", err)
	}

	key := r.config.MoodEntriesKey(userID)
	if err := r.store.Set(ctx, key, string(jsonData)); err != nil {
		return fmt.Errorf("failed to save mood entries: %w", err)
	}

	return nil
}

// Clear 清除心情记录
func (r *MoodEntryRepository) Clear(ctx context.Context, userID string) error {
	key := r.config.MoodEntriesKey(userID)
	if err := r.store.Remove(ctx, key); err != nil {
		return fmt.Errorf("failed to clear mood entries: %w", err)
	}
	return nil
}
