package delivery

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"go.uber.org/zap"

	"safeplan-engine/internal/config"
	"safeplan-engine/internal/models"
)

// 桥接命令动作
const (
	actionScheduleRecurring = "schedule_recurring"
	actionSendImmediate     = "send_immediate"
	actionCancelAll         = "cancel_all"
	actionRequestPermission = "request_permission"
)

// 设备端事件类型
const (
	eventPermission = "permission"
	eventOpened     = "opened"
	eventReceived   = "received"
)

// bridgeCommand 发往设备端的通知命令
type bridgeCommand struct {
	Action       string   `json:"action"`
	ID           string   `json:"id,omitempty"`
	Content      *Content `json:"content,omitempty"`
	Hour         int      `json:"hour,omitempty"`
	Minute       int      `json:"minute,omitempty"`
	IntervalDays int      `json:"interval_days,omitempty"`
}

// bridgeEvent 设备端上报的事件
type bridgeEvent struct {
	Kind   string         `json:"kind"`
	Status string         `json:"status,omitempty"`
	ID     string         `json:"id,omitempty"`
	Data   map[string]any `json:"data,omitempty"`
}

// MQTTDeliverer 经 MQTT 桥接到设备端的通知投递实现
// 命令发布到 <prefix><userID>/commands，事件订阅自 <prefix><userID>/events
// 权限状态来自设备端上报，首次上报前为 undetermined
type MQTTDeliverer struct {
	client mqtt.Client
	config *config.MQTTConfig
	userID string
	logger *zap.Logger

	mu           sync.RWMutex
	permission   models.PermissionStatus
	onOpened     OpenedHandler
	onPermission PermissionHandler
}

// NewMQTTDeliverer 创建 MQTT 投递器并订阅设备事件
func NewMQTTDeliverer(cfg *config.MQTTConfig, userID string, logger *zap.Logger) (*MQTTDeliverer, error) {
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(cfg.ClientID + "-" + userID)

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}

	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}

	d := &MQTTDeliverer{
		client:     client,
		config:     cfg,
		userID:     userID,
		logger:     logger,
		permission: models.PermissionUndetermined,
	}

	if err := d.subscribeEvents(); err != nil {
		client.Disconnect(250)
		return nil, err
	}

	return d, nil
}

// commandTopic 命令主题
func (d *MQTTDeliverer) commandTopic() string {
	return d.config.TopicPrefix + d.userID + "/commands"
}

// eventTopic 事件主题
func (d *MQTTDeliverer) eventTopic() string {
	return d.config.TopicPrefix + d.userID + "/events"
}

// subscribeEvents 订阅设备端事件
func (d *MQTTDeliverer) subscribeEvents() error {
	topic := d.eventTopic()
	token := d.client.Subscribe(topic, d.config.QoS, func(_ mqtt.Client, msg mqtt.Message) {
		d.handleEvent(msg.Payload())
	})
	if token.Wait() && token.Error() != nil {
		return fmt.Errorf("failed to subscribe to topic %s: %w", topic, token.Error())
	}
	return nil
}

// handleEvent 处理设备端事件
func (d *MQTTDeliverer) handleEvent(payload []byte) {
	var event bridgeEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		d.logger.Warn("Malformed bridge event",
			zap.String("user_id", d.userID),
			zap.Error(err),
		)
		return
	}

	switch event.Kind {
	case eventPermission:
		status := models.PermissionStatus(event.Status)
		if status != models.PermissionGranted && status != models.PermissionDenied {
			status = models.PermissionUndetermined
		}
		d.mu.Lock()
		changed := d.permission != status
		d.permission = status
		handler := d.onPermission
		d.mu.Unlock()
		d.logger.Info("Notification permission reported",
			zap.String("user_id", d.userID),
			zap.String("status", string(status)),
		)
		if changed && handler != nil {
			handler(status)
		}
	case eventOpened:
		d.mu.RLock()
		handler := d.onOpened
		d.mu.RUnlock()
		if handler != nil {
			handler(event.ID, event.Data)
		}
	case eventReceived:
		// 前台送达事件，仅记录
		d.logger.Debug("Notification received on device",
			zap.String("user_id", d.userID),
			zap.String("notification_id", event.ID),
		)
	default:
		d.logger.Debug("Unknown bridge event kind",
			zap.String("kind", event.Kind),
		)
	}
}

// publishCommand 发布命令
func (d *MQTTDeliverer) publishCommand(cmd bridgeCommand) error {
	payload, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("failed to marshal bridge command: %w", err)
	}

	token := d.client.Publish(d.commandTopic(), d.config.QoS, false, payload)
	token.Wait()
	if token.Error() != nil {
		return fmt.Errorf("failed to publish command %s: %w", cmd.Action, token.Error())
	}
	return nil
}

// PermissionStatus 查询最近上报的权限状态
func (d *MQTTDeliverer) PermissionStatus() models.PermissionStatus {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.permission
}

// RequestPermission 请求设备端弹出权限申请
// 应答是异步的，返回最近一次已知状态
func (d *MQTTDeliverer) RequestPermission(ctx context.Context) (models.PermissionStatus, error) {
	if err := d.publishCommand(bridgeCommand{Action: actionRequestPermission}); err != nil {
		return d.PermissionStatus(), err
	}
	return d.PermissionStatus(), nil
}

// ScheduleRecurring 登记定时重复通知
func (d *MQTTDeliverer) ScheduleRecurring(ctx context.Context, id string, content Content, hour, minute, intervalDays int) error {
	return d.publishCommand(bridgeCommand{
		Action:       actionScheduleRecurring,
		ID:           id,
		Content:      &content,
		Hour:         hour,
		Minute:       minute,
		IntervalDays: intervalDays,
	})
}

// SendImmediate 立即投递
func (d *MQTTDeliverer) SendImmediate(ctx context.Context, id string, content Content) error {
	return d.publishCommand(bridgeCommand{
		Action:  actionSendImmediate,
		ID:      id,
		Content: &content,
	})
}

// CancelAllScheduled 取消全部定时通知
func (d *MQTTDeliverer) CancelAllScheduled(ctx context.Context) error {
	return d.publishCommand(bridgeCommand{Action: actionCancelAll})
}

// OnOpened 注册打开事件回调
func (d *MQTTDeliverer) OnOpened(handler OpenedHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onOpened = handler
}

// OnPermissionChanged 注册权限状态变化回调
// 设备端上报的状态与缓存不同时触发
func (d *MQTTDeliverer) OnPermissionChanged(handler PermissionHandler) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onPermission = handler
}

// Close 断开 MQTT 连接
func (d *MQTTDeliverer) Close() {
	d.client.Disconnect(250)
}
