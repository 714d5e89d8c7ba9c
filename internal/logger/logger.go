// Package logger 构建服务与 CLI 共用的 zap logger。
package logger

import (
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ParseLevel 将 debug/info/warn/error 映射为 zap 级别，未知值回退到 info。
func ParseLevel(s string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	}
	return zapcore.InfoLevel
}

// New 按级别与格式构建 logger：format 为 json 时使用生产配置，否则为 console 开发配置。
// 日志统一写 stderr，stdout 留给 render 命令输出脚本。
func New(level, format string) (*zap.Logger, error) {
	var cfg zap.Config
	if strings.EqualFold(strings.TrimSpace(format), "json") {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.Level = zap.NewAtomicLevelAt(ParseLevel(level))
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}

// Must 与 New 相同，构建失败时退回 zap.NewNop。
func Must(level, format string) *zap.Logger {
	l, err := New(level, format)
	if err != nil {
		return zap.NewNop()
	}
	return l
}
