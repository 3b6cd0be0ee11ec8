package service

import (
	"context"
	"fmt"
	"time"

	"github.com/danishayman/cpc357-project/internal/domain"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// AlertDetails 报警邮件的动态内容
type AlertDetails struct {
	CurrentValue *float64 // 当前值（food_low 用）
	Threshold    *float64 // 阈值（food_low 用）
	DeviceID     string
}

// Mailer 邮件发送接口
type Mailer interface {
	// SendAlert 向一组收件人发送一封报警邮件
	SendAlert(ctx context.Context, alertType string, recipients []string, details AlertDetails) error
}

// MailClient 事务邮件 HTTP API 客户端（Resend 风格：POST /emails）
type MailClient struct {
	httpClient *resty.Client
	configured bool
	from       string
	logger     *zap.Logger
}

// NewMailClient 创建邮件客户端
// apiKey 为空时 SendAlert 直接报错（邮件服务未配置）
func NewMailClient(baseURL, apiKey, from string, logger *zap.Logger) *MailClient {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(15 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(1 * time.Second).
		SetRetryMaxWaitTime(5 * time.Second).
		SetHeader("Content-Type", "application/json")
	if apiKey != "" {
		client.SetAuthToken(apiKey)
	}

	return &MailClient{
		httpClient: client,
		configured: apiKey != "",
		from:       from,
		logger:     logger,
	}
}

var _ Mailer = (*MailClient)(nil)

// mailRequest 邮件服务请求体
type mailRequest struct {
	From    string   `json:"from"`
	To      []string `json:"to"`
	Subject string   `json:"subject"`
	HTML    string   `json:"html"`
}

// mailResponse 邮件服务响应体
type mailResponse struct {
	ID      string `json:"id"`
	Message string `json:"message"`
}

// SendAlert 向一组收件人发送一封报警邮件
func (c *MailClient) SendAlert(ctx context.Context, alertType string, recipients []string, details AlertDetails) error {
	if len(recipients) == 0 {
		return ErrNoRecipients
	}
	if !c.configured {
		return fmt.Errorf("mail service not configured")
	}

	subject, body := renderAlertMail(alertType, details)

	var result mailResponse
	resp, err := c.httpClient.R().
		SetContext(ctx).
		SetBody(mailRequest{
			From:    c.from,
			To:      recipients,
			Subject: subject,
			HTML:    body,
		}).
		SetResult(&result).
		Post("/emails")
	if err != nil {
		return fmt.Errorf("failed to call mail API: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("mail API error: status %d", resp.StatusCode())
	}

	c.logger.Info("Alert email sent",
		zap.String("alert_type", alertType),
		zap.Int("recipient_count", len(recipients)),
		zap.String("mail_id", result.ID),
	)
	return nil
}

// renderAlertMail 按报警类型渲染邮件主题和正文
func renderAlertMail(alertType string, details AlertDetails) (subject, body string) {
	deviceID := details.DeviceID
	if deviceID == "" {
		deviceID = "unknown"
	}

	switch alertType {
	case domain.AlertTypeFoodLow:
		current, threshold := 0.0, domain.DefaultFoodLowThreshold
		if details.CurrentValue != nil {
			current = *details.CurrentValue
		}
		if details.Threshold != nil {
			threshold = *details.Threshold
		}
		subject = "Low Food Alert - Smart Feeder"
		body = fmt.Sprintf(
			"<h2>Low Food Level Alert</h2>"+
				"<p>The feeder's food level is running low and needs to be refilled.</p>"+
				"<p><strong>Device:</strong> %s<br>"+
				"<strong>Current Level:</strong> %.0fg<br>"+
				"<strong>Threshold:</strong> %.0fg</p>",
			deviceID, current, threshold)
	case domain.AlertTypeWaterLow:
		subject = "Low Water Alert - Smart Feeder"
		body = fmt.Sprintf(
			"<h2>Water Tank Empty</h2>"+
				"<p>The feeder's water tank is empty and needs to be refilled.</p>"+
				"<p><strong>Device:</strong> %s</p>",
			deviceID)
	case domain.AlertTypeDeviceOffline:
		subject = "Device Offline Alert - Smart Feeder"
		body = fmt.Sprintf(
			"<h2>Feeder Device Offline</h2>"+
				"<p>The feeder has gone offline and is no longer sending data. "+
				"Check power and WiFi connectivity at the feeder location.</p>"+
				"<p><strong>Device:</strong> %s</p>",
			deviceID)
	default:
		subject = "Alert - Smart Feeder"
		body = fmt.Sprintf("<p>Alert %q for device %s</p>", alertType, deviceID)
	}
	return subject, body
}
