package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// MigrationsTable 作业库使用的版本记录表
const MigrationsTable = "homework_schema_migrations"

// MigrationStatus 一次迁移后的 schema 状态
type MigrationStatus struct {
	Version uint // 当前版本
	Target  uint // 内嵌迁移中的最新版本
	Dirty   bool
	Applied bool // 本次是否执行了新迁移
}

// UpToDate 当前版本已达到最新且非 dirty
func (s MigrationStatus) UpToDate() bool {
	return !s.Dirty && s.Version == s.Target
}

func openSource() (source.Driver, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("加载迁移文件失败: %w", err)
	}
	return src, nil
}

// LatestVersion 返回内嵌迁移文件的最新版本号
func LatestVersion() (uint, error) {
	src, err := openSource()
	if err != nil {
		return 0, err
	}
	defer src.Close()

	v, err := src.First()
	if err != nil {
		return 0, fmt.Errorf("读取迁移版本失败: %w", err)
	}
	for {
		next, err := src.Next(v)
		if errors.Is(err, os.ErrNotExist) {
			return v, nil
		}
		if err != nil {
			return 0, fmt.Errorf("读取迁移版本失败: %w", err)
		}
		v = next
	}
}

// RunMigrations 将 users / assignments / submissions 表迁移到最新版本
func RunMigrations(db *sql.DB, logger *zap.Logger) (MigrationStatus, error) {
	var status MigrationStatus

	target, err := LatestVersion()
	if err != nil {
		return status, err
	}
	status.Target = target

	src, err := openSource()
	if err != nil {
		return status, err
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{MigrationsTable: MigrationsTable})
	if err != nil {
		return status, fmt.Errorf("创建迁移驱动失败: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		return status, fmt.Errorf("初始化迁移实例失败: %w", err)
	}

	switch err := m.Up(); {
	case err == nil:
		status.Applied = true
	case errors.Is(err, migrate.ErrNoChange):
	default:
		return status, fmt.Errorf("执行迁移失败: %w", err)
	}

	version, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return status, fmt.Errorf("读取 schema 版本失败: %w", err)
	}
	status.Version, status.Dirty = version, dirty

	fields := []zap.Field{
		zap.String("table", MigrationsTable),
		zap.Uint("version", version),
		zap.Uint("target", target),
		zap.Bool("applied", status.Applied),
	}
	if dirty {
		logger.Warn("作业库 schema 处于 dirty 状态，需要人工修复", fields...)
	} else {
		logger.Info("作业库 schema 迁移完成", fields...)
	}

	return status, nil
}
