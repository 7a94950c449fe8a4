// Worker consumes roster events from Kafka and pushes them to Loki as activity lines.
// Set KAFKA_BROKERS, ROSTER_EVENTS_TOPIC, KAFKA_GROUP_ID and LOKI_URL.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/zap"

	"workforce-console/backend/internal/config"
	"workforce-console/backend/internal/logger"
	"workforce-console/backend/internal/telemetry/loki"
)

func main() {
	cfg, err := config.LoadWorker()
	if err != nil {
		zap.L().Fatal("config", zap.Error(err))
	}
	log, err := logger.New(logger.Config{ServiceName: "roster-activity-worker", Environment: cfg.Env, Level: cfg.LogLevel, Format: cfg.LogFormat})
	if err != nil {
		zap.L().Fatal("logger", zap.Error(err))
	}
	defer func() { _ = log.Sync() }()

	push, err := loki.NewClient(cfg.LokiURL, 10*time.Second)
	if err != nil {
		log.Fatal("loki", zap.Error(err))
	}

	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        cfg.KafkaBrokersList(),
		Topic:          cfg.RosterEventsTopic,
		GroupID:        cfg.KafkaGroupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		MaxWait:        time.Second,
		CommitInterval: time.Second,
	})
	defer reader.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("consuming roster events",
		zap.String("topic", cfg.RosterEventsTopic),
		zap.String("group", cfg.KafkaGroupID),
		zap.String("loki", cfg.LokiURL),
	)
	for {
		msg, err := reader.ReadMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				log.Info("worker stopped")
				return
			}
			log.Warn("kafka read failed", zap.Error(err))
			continue
		}
		pushCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		if err := push.PushMessage(pushCtx, msg.Value, time.Now().UTC()); err != nil {
			log.Warn("loki push failed",
				zap.Int("partition", msg.Partition),
				zap.Int64("offset", msg.Offset),
				zap.Error(err),
			)
		}
		cancel()
	}
}
