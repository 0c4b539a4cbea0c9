// cmd/statd/main.go is the asynchronous statistics consumer: it drains queued
// article-view events from Redis and persists them to Postgres in batches.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/caarlos0/env/v11"
	_ "github.com/joho/godotenv/autoload"
	"github.com/sirupsen/logrus"

	"github.com/spacedog-labs/wikiracer/internal/database"
	"github.com/spacedog-labs/wikiracer/internal/store"
)

type statdConfig struct {
	DatabaseURL string `env:"DATABASE_URL,required"`
	RedisAddr   string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisDB     int    `env:"REDIS_DB" envDefault:"0"`

	BatchSize     int           `env:"STATD_BATCH_SIZE" envDefault:"20"`
	FlushInterval time.Duration `env:"STATD_FLUSH_INTERVAL" envDefault:"500ms"`

	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`
}

func main() {
	logger := logrus.New()

	var cfg statdConfig
	if err := env.Parse(&cfg); err != nil {
		logger.Fatalf("config: %v", err)
	}
	if level, err := logrus.ParseLevel(cfg.LogLevel); err == nil {
		logger.SetLevel(level)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	repo, err := database.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("postgres: %v", err)
	}
	defer repo.Close()
	if err := repo.EnsureSchema(ctx); err != nil {
		logger.Fatalf("schema: %v", err)
	}

	rdb, err := store.ConnectRedis(cfg.RedisAddr, cfg.RedisDB)
	if err != nil {
		logger.Fatalf("redis: %v", err)
	}
	defer rdb.Close()

	queue := store.NewViewQueue(rdb)
	logger.Infof("statd consuming view events (batch=%d, flush=%s)", cfg.BatchSize, cfg.FlushInterval)

	var batch []string
	flush := func() {
		if len(batch) == 0 {
			return
		}
		if err := repo.LogArticleViews(context.Background(), batch); err != nil {
			logger.Warnf("statd: batch flush of %d views failed: %v", len(batch), err)
			return
		}
		logger.Debugf("statd: flushed %d views", len(batch))
		batch = batch[:0]
	}

	for {
		if ctx.Err() != nil {
			flush()
			return
		}
		title, err := queue.PopView(ctx, cfg.FlushInterval)
		if err != nil {
			if ctx.Err() != nil {
				flush()
				return
			}
			logger.Warnf("statd: queue read failed: %v", err)
			time.Sleep(time.Second)
			continue
		}
		if title == "" {
			// Timed out waiting. Flush whatever accumulated.
			flush()
			continue
		}
		batch = append(batch, title)
		if len(batch) >= cfg.BatchSize {
			flush()
		}
	}
}
