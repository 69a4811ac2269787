// Package app 组装进程级依赖（配置、日志、存储、Redis、Service），供 server 与 homeworkctl 共用
package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"homework-tracker/config"
	"homework-tracker/internal/repository"
	"homework-tracker/internal/repository/gormstore"
	"homework-tracker/internal/repository/memstore"
	"homework-tracker/internal/repository/mongostore"
	"homework-tracker/internal/service"
	"homework-tracker/pkg/database"
	"homework-tracker/pkg/jwt"
	applogger "homework-tracker/pkg/logger"
	"homework-tracker/pkg/redis"
)

// App 已初始化的依赖集合
type App struct {
	Config  *config.Config
	Logger  *zap.Logger
	Repo    *repository.Repository
	Redis   *redis.Client // 可为 nil
	JWT     *jwt.Manager
	Service *service.Service
}

// Options 启动选项
type Options struct {
	ConfigPath string
	// WithRedis 为 false 时不连接 Redis（CLI 不需要）
	WithRedis bool
}

// New 按顺序初始化：配置 → 日志 → 存储 → Redis（可选）→ Service
func New(ctx context.Context, opts Options) (*App, error) {
	// 1. 加载配置
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("加载配置失败: %w", err)
	}

	// 2. 初始化日志
	logger, err := applogger.NewLogger(&cfg.Log)
	if err != nil {
		return nil, fmt.Errorf("初始化日志失败: %w", err)
	}

	// 3. 打开存储
	repo, err := OpenStore(ctx, cfg, logger)
	if err != nil {
		_ = logger.Sync()
		return nil, err
	}

	// 4. 连接 Redis（连接失败时降级运行，不中断启动）
	var rdb *redis.Client
	if opts.WithRedis {
		rdb, err = redis.NewClient(&cfg.Redis, logger)
		if err != nil {
			logger.Warn("Redis 连接失败，Token 黑名单与分布式限流将不可用", zap.Error(err))
			rdb = nil
		}
	}

	// 5. 依赖注入: Repository → Service
	jwtMgr := jwt.NewManager(&cfg.Auth)
	var blacklist service.TokenBlacklist
	if rdb != nil {
		blacklist = rdb
	}
	svc := service.NewService(cfg, repo, jwtMgr, blacklist, logger)

	return &App{
		Config:  cfg,
		Logger:  logger,
		Repo:    repo,
		Redis:   rdb,
		JWT:     jwtMgr,
		Service: svc,
	}, nil
}

// OpenStore 按 db.driver 打开存储后端
func OpenStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*repository.Repository, error) {
	switch cfg.Database.Driver {
	case config.DriverMongo:
		client, db, err := database.NewMongo(ctx, &cfg.Database.Mongo, logger)
		if err != nil {
			return nil, err
		}
		if err := mongostore.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(context.Background())
			return nil, fmt.Errorf("创建 MongoDB 索引失败: %w", err)
		}
		return mongostore.NewRepository(client, db, mongostore.Options{Transactions: cfg.Database.Mongo.Transactions}, logger), nil

	case config.DriverPostgres:
		db, err := database.NewDB(&cfg.Database.Postgres, cfg.Log.Level, logger)
		if err != nil {
			return nil, err
		}
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("获取底层 sql.DB 失败: %w", err)
		}
		if _, err := database.RunMigrations(sqlDB, logger); err != nil {
			sqlDB.Close()
			return nil, fmt.Errorf("数据库迁移失败: %w", err)
		}
		return gormstore.NewRepository(db), nil

	case config.DriverMemory:
		logger.Warn("使用内存存储，进程退出后数据丢失")
		return memstore.NewRepository(memstore.Open()), nil

	default:
		return nil, fmt.Errorf("不支持的存储后端: %q", cfg.Database.Driver)
	}
}

// Close 关闭存储与 Redis 连接
func (a *App) Close(ctx context.Context) {
	if err := a.Repo.Close(ctx); err != nil {
		a.Logger.Error("关闭存储失败", zap.Error(err))
	}
	if a.Redis != nil {
		if err := a.Redis.Close(); err != nil {
			a.Logger.Error("关闭 Redis 失败", zap.Error(err))
		}
	}
	_ = a.Logger.Sync()
}
