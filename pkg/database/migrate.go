package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"strconv"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// migrationsTable 版本表名，避免与同库其他服务的 schema_migrations 冲突
const migrationsTable = "jam_radar_schema_migrations"

// ErrDirtySchema 上次迁移中途失败，需人工修复后 force 到正确版本
var ErrDirtySchema = errors.New("数据库迁移处于 dirty 状态")

// RunMigrations 应用全部未执行的嵌入迁移
func RunMigrations(db *sql.DB, logger *zap.Logger) error {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("加载迁移文件失败: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{MigrationsTable: migrationsTable})
	if err != nil {
		return fmt.Errorf("创建迁移驱动失败: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return fmt.Errorf("初始化迁移实例失败: %w", err)
	}

	from, _, _ := m.Version()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		var dirty migrate.ErrDirty
		if errors.As(err, &dirty) {
			return fmt.Errorf("%w: version=%d", ErrDirtySchema, dirty.Version)
		}
		return fmt.Errorf("执行迁移失败: %w", err)
	}

	to, _, err := m.Version()
	if err != nil {
		return fmt.Errorf("读取迁移版本失败: %w", err)
	}

	latest, err := latestEmbeddedVersion()
	if err != nil {
		return err
	}
	if to > latest {
		// 数据库由更新的版本迁移过，当前二进制可能缺少新列
		logger.Warn("数据库版本高于当前程序", zap.Uint("db_version", to), zap.Uint("embedded_version", latest))
	}

	logger.Info("数据库迁移完成", zap.Uint("from", from), zap.Uint("to", to))
	return nil
}

// latestEmbeddedVersion 嵌入迁移中最大的版本号（文件名前缀）
func latestEmbeddedVersion() (uint, error) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		return 0, fmt.Errorf("读取嵌入迁移失败: %w", err)
	}

	var latest uint
	for _, e := range entries {
		prefix, _, ok := strings.Cut(e.Name(), "_")
		if !ok {
			continue
		}
		v, err := strconv.ParseUint(prefix, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("迁移文件名无效 %q: %w", e.Name(), err)
		}
		if uint(v) > latest {
			latest = uint(v)
		}
	}
	return latest, nil
}
