package repository

import (
	"context"
	"os"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"safeplan-engine/internal/config"
	"safeplan-engine/internal/models"
	"safeplan-engine/internal/storage"
)

func setupTestRepos(t *testing.T) (*miniredis.Miniredis, *config.Config, storage.Store) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{
		Addr: mr.Addr(),
	})

	os.Clearenv()
	cfg, err := config.Load()
	require.NoError(t, err)

	return mr, cfg, storage.NewRedisStoreWithClient(client)
}

func TestMoodEntryRepository_RoundTrip(t *testing.T) {
	_, cfg, store := setupTestRepos(t)
	repo := NewMoodEntryRepository(store, cfg, zap.NewNop())
	ctx := context.Background()

	entries := []models.MoodEntry{
		{
			EntryID:              "entry-2",
			Date:                 "2025-06-02",
			Mood:                 4,
			Notes:                "rough day",
			WarningSignsPresent:  []string{"isolation"},
			CopingStrategiesUsed: []string{"breathing exercise"},
			Timestamp:            1748851200000,
		},
		{
			EntryID:              "entry-1",
			Date:                 "2025-06-01",
			Mood:                 7,
			WarningSignsPresent:  []string{},
			CopingStrategiesUsed: []string{},
			Timestamp:            1748764800000,
		},
	}

	err := repo.SaveEntries(ctx, "user-1", entries)
	require.NoError(t, err)

	loaded, err := repo.LoadEntries(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, loaded, 2)
	assert.Equal(t, "entry-2", loaded[0].EntryID)
	assert.Equal(t, 4, loaded[0].Mood)
	assert.Equal(t, []string{"isolation"}, loaded[0].WarningSignsPresent)
	assert.Equal(t, "2025-06-01", loaded[1].Date)
}

func TestMoodEntryRepository_LoadEntries_Empty(t *testing.T) {
	_, cfg, store := setupTestRepos(t)
	repo := NewMoodEntryRepository(store, cfg, zap.NewNop())

	loaded, err := repo.LoadEntries(context.Background(), "user-none")
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestMoodEntryRepository_LoadEntries_CorruptedJSON(t *testing.T) {
	mr, cfg, store := setupTestRepos(t)
	repo := NewMoodEntryRepository(store, cfg, zap.NewNop())

	// 直接写入损坏的 JSON
	mr.Set(cfg.MoodEntriesKey("user-1"), "{not valid json")

	loaded, err := repo.LoadEntries(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestMoodEntryRepository_Clear(t *testing.T) {
	_, cfg, store := setupTestRepos(t)
	repo := NewMoodEntryRepository(store, cfg, zap.NewNop())
	ctx := context.Background()

	err := repo.SaveEntries(ctx, "user-1", []models.MoodEntry{{EntryID: "e1", Mood: 5}})
	require.NoError(t, err)

	err = repo.Clear(ctx, "user-1")
	require.NoError(t, err)

	loaded, err := repo.LoadEntries(ctx, "user-1")
	require.NoError(t, err)
	assert.Empty(t, loaded)
}

func TestCrisisAlertRepository_RoundTrip(t *testing.T) {
	_, cfg, store := setupTestRepos(t)
	repo := NewCrisisAlertRepository(store, cfg, zap.NewNop())
	ctx := context.Background()

	alerts := []models.CrisisAlert{
		{
			AlertID:            "alert-1",
			Level:              models.AlertLevelSevere,
			Triggers:           []string{"Very low mood detected"},
			RecommendedActions: []string{"Contact emergency services or crisis hotline immediately"},
			Timestamp:          1748851200000,
		},
	}

	err := repo.SaveAlerts(ctx, "user-1", alerts)
	require.NoError(t, err)

	loaded, err := repo.LoadAlerts(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, models.AlertLevelSevere, loaded[0].Level)
	assert.False(t, loaded[0].EmergencyContactsNotified)
}

func TestNotificationRepository_Preferences_DefaultsWhenMissing(t *testing.T) {
	_, cfg, store := setupTestRepos(t)
	repo := NewNotificationRepository(store, cfg, zap.NewNop())

	prefs, err := repo.LoadPreferences(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, prefs.Enabled)
	assert.True(t, prefs.DailyCheckIn.Enabled)
	assert.Equal(t, "20:00", prefs.DailyCheckIn.Time)
	assert.Equal(t, models.ReviewWeekly, prefs.SafetyPlanReminders.ReviewFrequency)
}

func TestNotificationRepository_Preferences_DefaultsWhenCorrupted(t *testing.T) {
	mr, cfg, store := setupTestRepos(t)
	repo := NewNotificationRepository(store, cfg, zap.NewNop())

	mr.Set(cfg.PreferencesKey("user-1"), "[[[")

	prefs, err := repo.LoadPreferences(context.Background(), "user-1")
	require.NoError(t, err)
	assert.True(t, prefs.Enabled)
}

func TestNotificationRepository_Preferences_RoundTrip(t *testing.T) {
	_, cfg, store := setupTestRepos(t)
	repo := NewNotificationRepository(store, cfg, zap.NewNop())
	ctx := context.Background()

	prefs := models.DefaultPreferences()
	prefs.Enabled = false
	prefs.MoodReminders.Enabled = true
	prefs.MoodReminders.Times = []string{"09:00", "18:30"}

	err := repo.SavePreferences(ctx, "user-1", prefs)
	require.NoError(t, err)

	loaded, err := repo.LoadPreferences(ctx, "user-1")
	require.NoError(t, err)
	assert.False(t, loaded.Enabled)
	assert.Equal(t, []string{"09:00", "18:30"}, loaded.MoodReminders.Times)
}

func TestNotificationRepository_Analytics_RoundTrip(t *testing.T) {
	_, cfg, store := setupTestRepos(t)
	repo := NewNotificationRepository(store, cfg, zap.NewNop())
	ctx := context.Background()

	analytics := models.NewNotificationAnalytics()
	analytics.TotalSent = 4
	analytics.TotalOpened = 3
	analytics.OpenRate = 75
	analytics.TypeBreakdown[models.NotificationEncouragement] = models.TypeStats{Sent: 4, Opened: 3}

	err := repo.SaveAnalytics(ctx, "user-1", analytics)
	require.NoError(t, err)

	loaded, err := repo.LoadAnalytics(ctx, "user-1")
	require.NoError(t, err)
	assert.Equal(t, 4, loaded.TotalSent)
	assert.Equal(t, 3, loaded.TotalOpened)
	assert.Equal(t, 75.0, loaded.OpenRate)
	assert.Equal(t, models.TypeStats{Sent: 4, Opened: 3}, loaded.TypeBreakdown[models.NotificationEncouragement])
}

func TestNotificationRepository_Analytics_EmptyDefault(t *testing.T) {
	_, cfg, store := setupTestRepos(t)
	repo := NewNotificationRepository(store, cfg, zap.NewNop())

	analytics, err := repo.LoadAnalytics(context.Background(), "user-1")
	require.NoError(t, err)
	assert.Equal(t, 0, analytics.TotalSent)
	assert.NotNil(t, analytics.TypeBreakdown)
}

func TestNotificationRepository_History_RoundTrip(t *testing.T) {
	_, cfg, store := setupTestRepos(t)
	repo := NewNotificationRepository(store, cfg, zap.NewNop())
	ctx := context.Background()

	history := []models.SmartNotification{
		{
			NotificationID: "n-1",
			Type:           models.NotificationMoodReminder,
			Title:          "We miss you!",
			Body:           "You haven't checked in for 3 days. How are you feeling?",
			Priority:       models.PriorityNormal,
			Sent:           true,
			Timestamp:      1748851200000,
		},
	}

	err := repo.SaveHistory(ctx, "user-1", history)
	require.NoError(t, err)

	loaded, err := repo.LoadHistory(ctx, "user-1")
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, models.NotificationMoodReminder, loaded[0].Type)
	assert.True(t, loaded[0].Sent)
}
