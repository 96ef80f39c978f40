package localstore

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"resumeStudio/internal/config"
	"resumeStudio/internal/database"
)

// Open 按配置构造存储后端，返回的 closer 释放底层连接。
func Open(ctx context.Context, cfg *config.Config) (Storage, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Storage.Backend {
	case config.BackendFile, "":
		return NewFileStore(cfg.Storage.FilePath), noop, nil

	case config.BackendSQLite:
		db, err := database.OpenSQLite(cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		return openGorm(db)

	case config.BackendPostgres:
		db, err := database.InitDatabase(cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		return openGorm(db)

	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr(), DB: cfg.Redis.DB})
		if err := client.Ping(ctx).Err(); err != nil {
			_ = client.Close()
			return nil, nil, fmt.Errorf("ping redis: %w", err)
		}
		return NewRedisStore(client, cfg.Storage.RedisKeyPrefix), client.Close, nil
	}
	return nil, nil, fmt.Errorf("unsupported storage backend %q", cfg.Storage.Backend)
}

func openGorm(db *gorm.DB) (Storage, func() error, error) {
	if err := database.Migrate(db); err != nil {
		return nil, nil, err
	}
	sqlDB, err := db.DB()
	if err != nil {
		return nil, nil, fmt.Errorf("unwrap db: %w", err)
	}
	return NewGormStore(db), sqlDB.Close, nil
}
