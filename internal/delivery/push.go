package delivery

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"safeplan-engine/internal/config"
)

// pushRequest 推送网关请求（Expo push 消息格式）
type pushRequest struct {
	To       string         `json:"to"`
	Title    string         `json:"title"`
	Body     string         `json:"body"`
	Priority string         `json:"priority,omitempty"`
	Data     map[string]any `json:"data,omitempty"`
}

// pushResponse 推送网关响应
type pushResponse struct {
	Data struct {
		Status  string `json:"status"`
		Message string `json:"message,omitempty"`
	} `json:"data"`
	Errors json.RawMessage `json:"errors,omitempty"`
}

// PushClient 推送网关 HTTP 客户端
type PushClient struct {
	httpClient *resty.Client
	token      string
	logger     *zap.Logger
}

// NewPushClient 创建推送网关客户端
func NewPushClient(cfg *config.PushConfig, logger *zap.Logger) *PushClient {
	client := resty.New().
		SetBaseURL(cfg.GatewayURL).
		SetTimeout(10 * time.Second).
		SetRetryCount(3).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &PushClient{
		httpClient: client,
		token:      cfg.Token,
		logger:     logger,
	}
}

// HasToken 是否配置了设备推送令牌
func (c *PushClient) HasToken() bool {
	return c.token != ""
}

// Send 推送一条通知
func (c *PushClient) Send(ctx context.Context, notificationID string, content Content) error {
	request := pushRequest{
		To:       c.token,
		Title:    content.Title,
		Body:     content.Body,
		Priority: string(content.Priority),
		Data:     content.Data,
	}

	var response pushResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(request).
		SetResult(&response).
		Post("/send")
	if err != nil {
		return fmt.Errorf("failed to call push gateway: %w", err)
	}

	if resp.IsError() {
		return fmt.Errorf("push gateway returned status %d", resp.StatusCode())
	}
	if response.Data.Status == "error" {
		return fmt.Errorf("push gateway rejected notification: %s", response.Data.Message)
	}

	c.logger.Debug("Push notification sent",
		zap.String("notification_id", notificationID),
		zap.String("title", content.Title),
	)

	return nil
}
