package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danishayman/cpc357-project/internal/config"
	"github.com/danishayman/cpc357-project/internal/consumer"
	httpapi "github.com/danishayman/cpc357-project/internal/http"
	internalmqtt "github.com/danishayman/cpc357-project/internal/mqtt"
	"github.com/danishayman/cpc357-project/internal/repository"
	"github.com/danishayman/cpc357-project/internal/service"
	commoncfg "github.com/danishayman/cpc357-project/pkg/config"
	"github.com/danishayman/cpc357-project/pkg/database"
	"github.com/danishayman/cpc357-project/pkg/logger"
	pkgmqtt "github.com/danishayman/cpc357-project/pkg/mqtt"
	pkgredis "github.com/danishayman/cpc357-project/pkg/redis"

	"go.uber.org/zap"
)

func main() {
	cfg := config.Load()

	zlog, err := logger.NewLogger(cfg.Log.Level, cfg.Log.Format, "feeder-hub")
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer zlog.Sync()

	zlog.Info("Starting feeder-hub service",
		zap.String("http_addr", cfg.HTTP.Addr),
		zap.String("default_device", cfg.DefaultDeviceID),
		zap.Bool("mqtt_enabled", cfg.MQTT.Enabled),
	)

	// PostgreSQL
	db, err := database.NewPostgresDB(&cfg.Database)
	if err != nil {
		zlog.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer database.Close(db)

	// Redis
	redisClient := pkgredis.NewRedisClient(&cfg.Redis)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := pkgredis.Ping(ctx, redisClient); err != nil {
		zlog.Fatal("Failed to connect to redis", zap.Error(err))
	}
	defer pkgredis.Close(redisClient)

	// MQTT 命令中继（可选；连不上时降级为设备轮询）
	var relay internalmqtt.Relay
	if cfg.MQTT.Enabled {
		mqttClient, err := pkgmqtt.NewClient(&commoncfg.MQTTConfig{
			Broker:   cfg.MQTT.Broker,
			ClientID: cfg.MQTT.ClientID,
			Username: cfg.MQTT.Username,
			Password: cfg.MQTT.Password,
			QoS:      cfg.MQTT.QoS,
		})
		if err != nil {
			zlog.Warn("MQTT connection failed, commands fall back to device polling", zap.Error(err))
		} else {
			defer mqttClient.Disconnect()
			relay = internalmqtt.NewCommandRelay(mqttClient, cfg.MQTT.TopicPrefix, cfg.MQTT.QoS, zlog)
		}
	}

	// 统计时区
	location, err := time.LoadLocation(cfg.StatsTimezone)
	if err != nil {
		zlog.Warn("Invalid statistics timezone, falling back to local",
			zap.String("timezone", cfg.StatsTimezone),
			zap.Error(err),
		)
		location = time.Local
	}

	// 仓库层
	devicesRepo := repository.NewPostgresDevicesRepository(db)
	commandsRepo := repository.NewPostgresCommandsRepository(db)
	readingsRepo := repository.NewPostgresReadingsRepository(db)
	eventsRepo := repository.NewPostgresEventsRepository(db)
	notificationsRepo := repository.NewPostgresNotificationsRepository(db)

	// 服务层
	mailClient := service.NewMailClient(cfg.Mail.APIURL, cfg.Mail.APIKey, cfg.Mail.From, zlog)
	cooldown := service.NewRedisAlertCooldown(redisClient, cfg.Alert.Cooldown)
	alertService := service.NewAlertService(notificationsRepo, mailClient, cooldown, zlog)
	commandService := service.NewCommandService(commandsRepo, relay, cfg.DefaultDeviceID, zlog)
	deviceService := service.NewDeviceService(devicesRepo, zlog)
	notificationService := service.NewNotificationService(notificationsRepo, zlog)
	telemetryService := service.NewTelemetryService(devicesRepo, readingsRepo, eventsRepo, zlog)
	statisticsService := service.NewStatisticsService(eventsRepo, readingsRepo, location, zlog)
	ingestService := service.NewIngestService(devicesRepo, readingsRepo, eventsRepo, commandsRepo, redisClient, cfg.Alert.Stream, cfg.DefaultDeviceID, zlog)

	// 报警消费者（后台 goroutine）
	alertConsumer := consumer.NewAlertConsumer(&cfg.Alert, redisClient, alertService, zlog)
	go func() {
		if err := alertConsumer.Start(ctx); err != nil {
			zlog.Error("Alert consumer stopped", zap.Error(err))
		}
	}()

	// HTTP 层
	sessions := httpapi.NewRedisSessionStore(redisClient, 24*time.Hour)
	router := httpapi.NewRouter(zlog)
	router.RegisterRoutes(
		httpapi.NewCommandHandler(commandService, sessions, cfg.WebhookSecret, zlog),
		httpapi.NewDeviceHandler(deviceService, sessions, zlog),
		httpapi.NewNotificationHandler(notificationService, alertService, sessions, zlog),
		httpapi.NewSensorDataHandler(telemetryService, sessions, cfg.DefaultDeviceID, zlog),
		httpapi.NewStatisticsHandler(statisticsService, sessions, cfg.DefaultDeviceID, zlog),
		httpapi.NewWebhookHandler(ingestService, cfg.WebhookSecret, zlog),
	)

	server := service.NewServer(cfg.HTTP.Addr, router, zlog)
	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			zlog.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	// 等待中断信号
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	sig := <-sigChan
	zlog.Info("Received signal, shutting down", zap.String("signal", sig.String()))

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := server.Stop(shutdownCtx); err != nil {
		zlog.Error("Error during shutdown", zap.Error(err))
	}

	zlog.Info("Service stopped")
}
