package delivery

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"safeplan-engine/internal/models"
)

// fakeSender 记录发送调用的假推送方
type fakeSender struct {
	hasToken bool
	sent     []string
}

func (f *fakeSender) Send(ctx context.Context, notificationID string, content Content) error {
	f.sent = append(f.sent, notificationID)
	return nil
}

func (f *fakeSender) HasToken() bool {
	return f.hasToken
}

func TestNextOccurrence(t *testing.T) {
	now := time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

	// 当天尚未到点
	next := nextOccurrence(now, 20, 0)
	assert.Equal(t, time.Date(2025, 6, 10, 20, 0, 0, 0, time.UTC), next)

	// 当天已过点，顺延到明天
	next = nextOccurrence(now, 9, 30)
	assert.Equal(t, time.Date(2025, 6, 11, 9, 30, 0, 0, time.UTC), next)
}

func TestLocalScheduler_FiresDueEntries(t *testing.T) {
	sender := &fakeSender{hasToken: true}
	s := NewLocalScheduler(sender, time.Second, zap.NewNop())

	current := time.Date(2025, 6, 10, 19, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return current }

	ctx := context.Background()
	err := s.ScheduleRecurring(ctx, "daily-checkin", Content{
		Type:  models.NotificationDailyCheckIn,
		Title: "Daily Check-in",
	}, 20, 0, 1)
	require.NoError(t, err)

	// 未到点不触发
	s.firePending(ctx, current)
	assert.Empty(t, sender.sent)

	// 到点触发一次
	current = time.Date(2025, 6, 10, 20, 0, 30, 0, time.UTC)
	s.firePending(ctx, current)
	assert.Equal(t, []string{"daily-checkin"}, sender.sent)

	// 同一天不重复触发
	current = time.Date(2025, 6, 10, 23, 0, 0, 0, time.UTC)
	s.firePending(ctx, current)
	assert.Len(t, sender.sent, 1)

	// 第二天再次触发
	current = time.Date(2025, 6, 11, 20, 0, 30, 0, time.UTC)
	s.firePending(ctx, current)
	assert.Len(t, sender.sent, 2)
}

func TestLocalScheduler_WeeklyInterval(t *testing.T) {
	sender := &fakeSender{hasToken: true}
	s := NewLocalScheduler(sender, time.Second, zap.NewNop())

	current := time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return current }

	ctx := context.Background()
	err := s.ScheduleRecurring(ctx, "safety-plan-review", Content{
		Type: models.NotificationSafetyPlanReview,
	}, 10, 0, 7)
	require.NoError(t, err)

	// 首次触发
	current = time.Date(2025, 6, 10, 10, 0, 30, 0, time.UTC)
	s.firePending(ctx, current)
	require.Len(t, sender.sent, 1)

	// 次日不触发（7天间隔）
	current = time.Date(2025, 6, 11, 10, 0, 30, 0, time.UTC)
	s.firePending(ctx, current)
	assert.Len(t, sender.sent, 1)

	// 7天后触发
	current = time.Date(2025, 6, 17, 10, 0, 30, 0, time.UTC)
	s.firePending(ctx, current)
	assert.Len(t, sender.sent, 2)
}

func TestLocalScheduler_CancelAllScheduled(t *testing.T) {
	sender := &fakeSender{hasToken: true}
	s := NewLocalScheduler(sender, time.Second, zap.NewNop())

	ctx := context.Background()
	require.NoError(t, s.ScheduleRecurring(ctx, "a", Content{}, 9, 0, 1))
	require.NoError(t, s.ScheduleRecurring(ctx, "b", Content{}, 12, 0, 1))
	assert.Equal(t, 2, s.ScheduledCount())

	require.NoError(t, s.CancelAllScheduled(ctx))
	assert.Equal(t, 0, s.ScheduledCount())
}

func TestLocalScheduler_ScheduleSameIDOverwrites(t *testing.T) {
	sender := &fakeSender{hasToken: true}
	s := NewLocalScheduler(sender, time.Second, zap.NewNop())

	ctx := context.Background()
	require.NoError(t, s.ScheduleRecurring(ctx, "daily-checkin", Content{}, 9, 0, 1))
	require.NoError(t, s.ScheduleRecurring(ctx, "daily-checkin", Content{}, 20, 0, 1))
	assert.Equal(t, 1, s.ScheduledCount())
}

func TestLocalScheduler_PermissionFromToken(t *testing.T) {
	granted := NewLocalScheduler(&fakeSender{hasToken: true}, time.Second, zap.NewNop())
	assert.Equal(t, models.PermissionGranted, granted.PermissionStatus())

	denied := NewLocalScheduler(&fakeSender{hasToken: false}, time.Second, zap.NewNop())
	assert.Equal(t, models.PermissionDenied, denied.PermissionStatus())

	status, err := denied.RequestPermission(context.Background())
	require.NoError(t, err)
	assert.Equal(t, models.PermissionDenied, status)
}
