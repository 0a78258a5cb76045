package logger

import (
	"fmt"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"jam-radar/backend/config"
)

// ServiceName 每条日志附带的 service 字段
const ServiceName = "jam-radar"

// NewLogger 按 log.level 与 log.format 构建日志器
// json 用于生产采集，console 用于本地开发
func NewLogger(cfg *config.LogConfig) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("无效的日志级别 %q: %w", cfg.Level, err)
	}

	zapCfg, err := baseConfig(cfg.Format)
	if err != nil {
		return nil, err
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)
	zapCfg.EncoderConfig.TimeKey = "ts"
	zapCfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	// 业务错误已带上下文字段，堆栈只在 debug 下输出
	zapCfg.DisableStacktrace = level > zapcore.DebugLevel

	logger, err := zapCfg.Build()
	if err != nil {
		return nil, fmt.Errorf("初始化日志器失败: %w", err)
	}

	return logger.With(zap.String("service", ServiceName)), nil
}

func baseConfig(format string) (zap.Config, error) {
	switch format {
	case "", "json":
		return zap.NewProductionConfig(), nil
	case "console":
		cfg := zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return cfg, nil
	default:
		return zap.Config{}, fmt.Errorf("无效的日志格式 %q（可选 json / console）", format)
	}
}
