package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/danishayman/cpc357-project/internal/config"
	"github.com/danishayman/cpc357-project/internal/service"
	rediscommon "github.com/danishayman/cpc357-project/pkg/redis"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// AlertConsumer 报警引擎的 Redis Streams 消费者
// 摄入路径把观测写到 Stream，这里异步取出并触发阈值评估，
// 让 Webhook 响应时间与邮件发送解耦
type AlertConsumer struct {
	config       *config.AlertConfig
	redisClient  *redis.Client
	alertService service.AlertService
	logger       *zap.Logger
}

// NewAlertConsumer 创建报警消费者
func NewAlertConsumer(cfg *config.AlertConfig, redisClient *redis.Client, alertService service.AlertService, logger *zap.Logger) *AlertConsumer {
	return &AlertConsumer{
		config:       cfg,
		redisClient:  redisClient,
		alertService: alertService,
		logger:       logger,
	}
}

// Start 启动消费循环（阻塞，ctx 取消后返回）
func (c *AlertConsumer) Start(ctx context.Context) error {
	// 创建消费者组
	if err := rediscommon.CreateConsumerGroup(ctx, c.redisClient, c.config.Stream, c.config.ConsumerGroup); err != nil {
		return fmt.Errorf("failed to create consumer group for %s: %w", c.config.Stream, err)
	}

	c.logger.Info("Alert consumer started",
		zap.String("stream", c.config.Stream),
		zap.String("consumer_group", c.config.ConsumerGroup),
		zap.String("consumer_name", c.config.ConsumerName),
	)

	backoffDuration := time.Second // 初始退避时间
	maxBackoff := 30 * time.Second // 最大退避时间

	for {
		select {
		case <-ctx.Done():
			return nil
		default:
			if err := c.consumeOnce(ctx); err != nil {
				c.logger.Error("Failed to consume alert stream",
					zap.Error(err),
					zap.Duration("backoff", backoffDuration),
				)

				// 指数退避：等待后重试
				select {
				case <-ctx.Done():
					return nil
				case <-time.After(backoffDuration):
					backoffDuration *= 2
					if backoffDuration > maxBackoff {
						backoffDuration = maxBackoff
					}
				}
			} else {
				backoffDuration = time.Second
			}
		}
	}
}

// consumeOnce 读取并处理一批消息
func (c *AlertConsumer) consumeOnce(ctx context.Context) error {
	messages, err := rediscommon.ReadFromStream(
		ctx,
		c.redisClient,
		c.config.Stream,
		c.config.ConsumerGroup,
		c.config.ConsumerName,
		c.config.BatchSize,
	)
	if err != nil {
		return fmt.Errorf("failed to read from stream %s: %w", c.config.Stream, err)
	}

	for _, msg := range messages {
		if err := c.processMessage(ctx, msg); err != nil {
			c.logger.Error("Failed to process observation",
				zap.String("message_id", msg.ID),
				zap.Error(err),
			)
			// 继续处理下一条消息，不中断
			continue
		}
		if err := rediscommon.AckMessage(ctx, c.redisClient, c.config.Stream, c.config.ConsumerGroup, msg.ID); err != nil {
			c.logger.Warn("Failed to ack message",
				zap.String("message_id", msg.ID),
				zap.Error(err),
			)
		}
	}
	return nil
}

// processMessage 解析一条观测并交给报警引擎
func (c *AlertConsumer) processMessage(ctx context.Context, msg rediscommon.StreamMessage) error {
	raw, ok := msg.Values["data"].(string)
	if !ok {
		return fmt.Errorf("message %s missing data field", msg.ID)
	}

	var obs service.Observation
	if err := json.Unmarshal([]byte(raw), &obs); err != nil {
		return fmt.Errorf("failed to parse observation: %w", err)
	}

	// 评估是 fire-and-forget：内部失败只记日志，消息照常 ack
	c.alertService.EvaluateAndNotify(ctx, obs)
	return nil
}
