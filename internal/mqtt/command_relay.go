package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	pkgmqtt "github.com/danishayman/cpc357-project/pkg/mqtt"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// CommandMessage 下发给设备的命令消息
type CommandMessage struct {
	CommandID string    `json:"command_id"`
	DeviceID  string    `json:"device_id"`
	Command   string    `json:"command"`
	Timestamp time.Time `json:"timestamp"`
}

// Relay 命令中继接口
// 中继是尽力而为的通知路径：发布失败不等于命令失败，设备仍会轮询取命令
type Relay interface {
	// Publish 发布命令消息，返回消息标识
	Publish(ctx context.Context, msg CommandMessage) (string, error)
}

// CommandRelay 基于 MQTT 的命令中继
// 主题为 {topicPrefix}/{device_id}，设备按自身 device_id 订阅
type CommandRelay struct {
	client      *pkgmqtt.Client
	topicPrefix string
	qos         byte
	logger      *zap.Logger
}

// NewCommandRelay 创建命令中继
func NewCommandRelay(client *pkgmqtt.Client, topicPrefix string, qos byte, logger *zap.Logger) *CommandRelay {
	return &CommandRelay{
		client:      client,
		topicPrefix: topicPrefix,
		qos:         qos,
		logger:      logger,
	}
}

var _ Relay = (*CommandRelay)(nil)

// Publish 发布命令消息到设备命令主题
// MQTT 本身不返回消息ID，这里生成一个用于日志关联
func (r *CommandRelay) Publish(ctx context.Context, msg CommandMessage) (string, error) {
	if !r.client.IsConnected() {
		return "", fmt.Errorf("mqtt client not connected")
	}

	payload, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("failed to marshal command message: %w", err)
	}

	topic := r.topicPrefix + "/" + msg.DeviceID
	messageID := uuid.NewString()

	if err := r.client.Publish(topic, r.qos, false, payload); err != nil {
		return "", fmt.Errorf("failed to publish command: %w", err)
	}

	r.logger.Info("Command published to relay",
		zap.String("topic", topic),
		zap.String("command_id", msg.CommandID),
		zap.String("message_id", messageID),
	)

	return messageID, nil
}
