package delivery

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"safeplan-engine/internal/config"
	"safeplan-engine/internal/models"
)

// newTestDeliverer 直接构造投递器（不连接 broker，事件处理不依赖客户端）
func newTestDeliverer() *MQTTDeliverer {
	return &MQTTDeliverer{
		config: &config.MQTTConfig{
			QoS:         1,
			TopicPrefix: "safeplan/user/",
		},
		userID:     "user-1",
		logger:     zap.NewNop(),
		permission: models.PermissionUndetermined,
	}
}

func TestMQTTDeliverer_Topics(t *testing.T) {
	d := newTestDeliverer()
	assert.Equal(t, "safeplan/user/user-1/commands", d.commandTopic())
	assert.Equal(t, "safeplan/user/user-1/events", d.eventTopic())
}

func TestHandleEvent_PermissionReported(t *testing.T) {
	d := newTestDeliverer()

	d.handleEvent([]byte(`{"kind":"permission","status":"granted"}`))
	assert.Equal(t, models.PermissionGranted, d.PermissionStatus())

	d.handleEvent([]byte(`{"kind":"permission","status":"denied"}`))
	assert.Equal(t, models.PermissionDenied, d.PermissionStatus())

	// 未知状态归一化为 undetermined
	d.handleEvent([]byte(`{"kind":"permission","status":"maybe"}`))
	assert.Equal(t, models.PermissionUndetermined, d.PermissionStatus())
}

func TestHandleEvent_PermissionChangeCallback(t *testing.T) {
	d := newTestDeliverer()

	var reported []models.PermissionStatus
	d.OnPermissionChanged(func(status models.PermissionStatus) {
		reported = append(reported, status)
	})

	d.handleEvent([]byte(`{"kind":"permission","status":"granted"}`))
	require.Equal(t, []models.PermissionStatus{models.PermissionGranted}, reported)

	// 状态未变化不重复触发
	d.handleEvent([]byte(`{"kind":"permission","status":"granted"}`))
	assert.Len(t, reported, 1)

	d.handleEvent([]byte(`{"kind":"permission","status":"denied"}`))
	assert.Equal(t, models.PermissionDenied, reported[1])
}

func TestHandleEvent_OpenedDispatch(t *testing.T) {
	d := newTestDeliverer()

	var openedID string
	var openedData map[string]any
	d.OnOpened(func(notificationID string, data map[string]any) {
		openedID = notificationID
		openedData = data
	})

	d.handleEvent([]byte(`{"kind":"opened","id":"n-42","data":{"type":"encouragement"}}`))

	assert.Equal(t, "n-42", openedID)
	assert.Equal(t, "encouragement", openedData["type"])
}

func TestHandleEvent_OpenedWithoutHandler(t *testing.T) {
	d := newTestDeliverer()

	// 未注册回调时不 panic
	d.handleEvent([]byte(`{"kind":"opened","id":"n-1"}`))
}

func TestHandleEvent_MalformedPayload(t *testing.T) {
	d := newTestDeliverer()
	d.handleEvent([]byte(`{"kind":"permission","status":"granted"}`))

	// 畸形载荷忽略，已缓存的状态不受影响
	d.handleEvent([]byte(`not-json`))
	assert.Equal(t, models.PermissionGranted, d.PermissionStatus())
}

func TestHandleEvent_ReceivedAndUnknownKinds(t *testing.T) {
	d := newTestDeliverer()

	d.handleEvent([]byte(`{"kind":"received","id":"n-1"}`))
	d.handleEvent([]byte(`{"kind":"mystery"}`))

	assert.Equal(t, models.PermissionUndetermined, d.PermissionStatus())
}
