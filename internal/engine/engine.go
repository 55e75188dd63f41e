package engine

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"safeplan-engine/internal/models"
	"safeplan-engine/internal/repository"
)

const (
	// maxMoodEntries 心情记录上限（超出后最旧的静默淘汰，无归档）
	maxMoodEntries = 100
	// maxCrisisAlerts 危机警报上限
	maxCrisisAlerts = 100
	// recentWindow 模式检测使用的最近记录条数
	recentWindow = 7
	// trendWindow 趋势汇总使用的最近记录条数
	trendWindow = 14
	// activeAlertWindow 警报的"活跃"时间窗
	activeAlertWindow = 24 * time.Hour
)

// Engine 心情跟踪引擎
// 持有心情记录与危机警报两条日志（均最新在前），每次新增记录后执行模式检测。
// 内存状态为当前会话的权威数据，持久化失败仅记录日志不向上传播。
type Engine struct {
	userID    string
	moodRepo  *repository.MoodEntryRepository
	alertRepo *repository.CrisisAlertRepository
	logger    *zap.Logger

	mu      sync.RWMutex
	entries []models.MoodEntry
	alerts  []models.CrisisAlert

	// 模式规则（按优先级排列，首个命中生效）
	severe   *SevereRule
	moderate *ModerateRule
	mild     *MildRule

	now func() time.Time
}

// NewEngine 创建引擎并加载持久化状态
// 存储读取失败时以空日志启动（降级而非失败）
func NewEngine(
	ctx context.Context,
	userID string,
	moodRepo *repository.MoodEntryRepository,
	alertRepo *repository.CrisisAlertRepository,
	logger *zap.Logger,
) *Engine {
	e := &Engine{
		userID:    userID,
		moodRepo:  moodRepo,
		alertRepo: alertRepo,
		logger:    logger,
		severe:    NewSevereRule(),
		moderate:  NewModerateRule(),
		mild:      NewMildRule(),
		now:       time.Now,
	}

	entries, err := moodRepo.LoadEntries(ctx, userID)
	if err != nil {
		logger.Error("Failed to load mood entries, starting empty",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		entries = []models.MoodEntry{}
	}
	e.entries = entries

	alerts, err := alertRepo.LoadAlerts(ctx, userID)
	if err != nil {
		logger.Error("Failed to load crisis alerts, starting empty",
			zap.String("user_id", userID),
			zap.Error(err),
		)
		alerts = []models.CrisisAlert{}
	}
	e.alerts = alerts

	return e
}

// AddMoodEntry 新增一条心情记录并执行模式检测
// mood 的取值范围（1-10）由调用方保证，引擎不做校验
func (e *Engine) AddMoodEntry(
	ctx context.Context,
	mood int,
	notes string,
	warningSignsPresent []string,
	copingStrategiesUsed []string,
	photoURI string,
) models.MoodEntry {
	e.mu.Lock()
	defer e.mu.Unlock()

	now := e.now()
	if warningSignsPresent == nil {
		warningSignsPresent = []string{}
	}
	if copingStrategiesUsed == nil {
		copingStrategiesUsed = []string{}
	}

	entry := models.MoodEntry{
		EntryID:              uuid.New().String(),
		Date:                 now.Format("2006-01-02"),
		Mood:                 mood,
		Notes:                notes,
		WarningSignsPresent:  warningSignsPresent,
		CopingStrategiesUsed: copingStrategiesUsed,
		Timestamp:            now.UnixMilli(),
		PhotoURI:             photoURI,
	}

	// 最新在前，超限截断
	e.entries = append([]models.MoodEntry{entry}, e.entries...)
	if len(e.entries) > maxMoodEntries {
		e.entries = e.entries[:maxMoodEntries]
	}

	if err := e.moodRepo.SaveEntries(ctx, e.userID, e.entries); err != nil {
		// 持久化失败不中断：内存状态保持权威
		e.logger.Error("Failed to persist mood entries",
			zap.String("user_id", e.userID),
			zap.Error(err),
		)
	}

	e.checkForCrisisPatterns(ctx)

	return entry
}

// checkForCrisisPatterns 对最新记录执行模式检测（调用方需持有写锁）
// 不足3条记录时不评估；规则按 severe > moderate > mild 的优先级，
// 每条新记录最多产生一个警报
func (e *Engine) checkForCrisisPatterns(ctx context.Context) {
	if len(e.entries) < 3 {
		return
	}

	end := recentWindow
	if end > len(e.entries) {
		end = len(e.entries)
	}
	recent := e.entries[:end]
	timestamp := e.now().UnixMilli()

	alert := e.severe.Evaluate(recent, timestamp)
	if alert == nil {
		alert = e.moderate.Evaluate(recent, timestamp)
	}
	if alert == nil {
		alert = e.mild.Evaluate(recent, timestamp)
	}
	if alert == nil {
		return
	}

	e.alerts = append([]models.CrisisAlert{*alert}, e.alerts...)
	if len(e.alerts) > maxCrisisAlerts {
		e.alerts = e.alerts[:maxCrisisAlerts]
	}

	if err := e.alertRepo.SaveAlerts(ctx, e.userID, e.alerts); err != nil {
		e.logger.Error("Failed to persist crisis alerts",
			zap.String("user_id", e.userID),
			zap.Error(err),
		)
	}

	e.logger.Info("Crisis alert created",
		zap.String("user_id", e.userID),
		zap.String("alert_id", alert.AlertID),
		zap.String("level", string(alert.Level)),
		zap.Strings("triggers", alert.Triggers),
	)
}

// GetMoodTrend 推导当前心情趋势汇总（只读）
// 空日志返回中性默认值
func (e *Engine) GetMoodTrend() models.MoodTrendSummary {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if len(e.entries) == 0 {
		return models.MoodTrendSummary{
			AverageMood:     5,
			Trend:           models.TrendStable,
			RiskLevel:       models.RiskLow,
			PatternInsights: []string{},
		}
	}

	end := trendWindow
	if end > len(e.entries) {
		end = len(e.entries)
	}
	window := e.entries[:end]

	averageMood := meanMood(window)
	trend := calculateTrend(window)

	riskLevel := models.RiskLow
	insights := []string{}

	if averageMood <= 4 {
		riskLevel = models.RiskHigh
		insights = append(insights, "Your mood has been consistently low recently.")
	} else if averageMood <= 6 {
		riskLevel = models.RiskModerate
		insights = append(insights, "Your mood has been below average.")
	}

	if trend == models.TrendDeclining {
		riskLevel = escalateRisk(riskLevel)
		insights = append(insights, "Your mood trend is declining.")
	} else if trend == models.TrendImproving {
		insights = append(insights, "Your mood is improving - keep up the good work!")
	}

	// 预警信号密度：窗口内信号总数超过记录条数（平均每条多于一个）时上调风险
	warningSignCount := 0
	for _, entry := range window {
		warningSignCount += len(entry.WarningSignsPresent)
	}
	if warningSignCount > len(window) {
		riskLevel = escalateRisk(riskLevel)
		insights = append(insights, "You've been experiencing multiple warning signs.")
	}

	return models.MoodTrendSummary{
		AverageMood:     averageMood,
		Trend:           trend,
		RiskLevel:       riskLevel,
		PatternInsights: insights,
	}
}

// GetActiveAlerts 返回24小时内的警报（保持原有顺序）
func (e *Engine) GetActiveAlerts() []models.CrisisAlert {
	e.mu.RLock()
	defer e.mu.RUnlock()

	cutoff := e.now().Add(-activeAlertWindow).UnixMilli()
	active := make([]models.CrisisAlert, 0)
	for _, alert := range e.alerts {
		if alert.Timestamp > cutoff {
			active = append(active, alert)
		}
	}
	return active
}

// DismissAlert 移除指定警报（无软删除/审计）
func (e *Engine) DismissAlert(ctx context.Context, alertID string) {
	e.mu.Lock()
	defer e.mu.Unlock()

	remaining := make([]models.CrisisAlert, 0, len(e.alerts))
	for _, alert := range e.alerts {
		if alert.AlertID != alertID {
			remaining = append(remaining, alert)
		}
	}
	if len(remaining) == len(e.alerts) {
		return
	}
	e.alerts = remaining

	if err := e.alertRepo.SaveAlerts(ctx, e.userID, e.alerts); err != nil {
		e.logger.Error("Failed to persist crisis alerts",
			zap.String("user_id", e.userID),
			zap.Error(err),
		)
	}
}

// ClearHistory 清空心情记录及其派生的危机警报
func (e *Engine) ClearHistory(ctx context.Context) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.entries = []models.MoodEntry{}
	e.alerts = []models.CrisisAlert{}

	if err := e.moodRepo.Clear(ctx, e.userID); err != nil {
		e.logger.Error("Failed to clear mood entries",
			zap.String("user_id", e.userID),
			zap.Error(err),
		)
	}
	if err := e.alertRepo.Clear(ctx, e.userID); err != nil {
		e.logger.Error("Failed to clear crisis alerts",
			zap.String("user_id", e.userID),
			zap.Error(err),
		)
	}
}

// Entries 返回心情记录快照（最新在前）
func (e *Engine) Entries() []models.MoodEntry {
	e.mu.RLock()
	defer e.mu.RUnlock()

	snapshot := make([]models.MoodEntry, len(e.entries))
	copy(snapshot, e.entries)
	return snapshot
}

// Alerts 返回危机警报快照（最新在前）
func (e *Engine) Alerts() []models.CrisisAlert {
	e.mu.RLock()
	defer e.mu.RUnlock()

	snapshot := make([]models.CrisisAlert, len(e.alerts))
	copy(snapshot, e.alerts)
	return snapshot
}
