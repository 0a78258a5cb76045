package database

import (
	"io/fs"
	"strings"
	"testing"

	gormlogger "gorm.io/gorm/logger"
)

func TestGormLogLevel(t *testing.T) {
	tests := map[string]gormlogger.LogLevel{
		"debug": gormlogger.Info,
		"info":  gormlogger.Warn,
		"warn":  gormlogger.Warn,
		"error": gormlogger.Error,
	}
	for in, want := range tests {
		if got := GormLogLevel(in); got != want {
			t.Errorf("GormLogLevel(%q) 期望 %v，实际 %v", in, want, got)
		}
	}
}

func TestMigrationsEmbedded(t *testing.T) {
	entries, err := fs.ReadDir(migrationsFS, "migrations")
	if err != nil {
		t.Fatalf("读取嵌入迁移失败: %v", err)
	}

	ups, downs := 0, 0
	for _, e := range entries {
		switch {
		case strings.HasSuffix(e.Name(), ".up.sql"):
			ups++
		case strings.HasSuffix(e.Name(), ".down.sql"):
			downs++
		}
	}
	if ups == 0 || ups != downs {
		t.Errorf("迁移文件 up/down 数量应一致且非零: up=%d down=%d", ups, downs)
	}
}

func TestLatestEmbeddedVersion(t *testing.T) {
	v, err := latestEmbeddedVersion()
	if err != nil {
		t.Fatalf("latestEmbeddedVersion 失败: %v", err)
	}
	if v != 3 {
		t.Errorf("期望最新迁移版本为 3，实际 %d", v)
	}
}
