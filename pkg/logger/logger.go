package logger

import (
	"fmt"
	"os"

	"skillwise_backend/internal/config"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

const serviceName = "skillwise-review"

// Log 在 InitLogger 之前是 no-op logger，测试中无需初始化
var Log = zap.NewNop()

var encoderConfig = zapcore.EncoderConfig{
	TimeKey:        "time",
	LevelKey:       "level",
	NameKey:        "logger",
	CallerKey:      "caller",
	MessageKey:     "msg",
	StacktraceKey:  "stacktrace",
	LineEnding:     zapcore.DefaultLineEnding,
	EncodeLevel:    zapcore.CapitalLevelEncoder,
	EncodeTime:     zapcore.ISO8601TimeEncoder,
	EncodeDuration: zapcore.MillisDurationEncoder,
	EncodeCaller:   zapcore.ShortCallerEncoder,
}

// level 显式配置优先，否则 debug 模式输出 Debug
func level(cfg config.LogConfig, mode string) (zapcore.Level, error) {
	if cfg.Level != "" {
		lvl, err := zapcore.ParseLevel(cfg.Level)
		if err != nil {
			return zapcore.InfoLevel, fmt.Errorf("invalid log level %q: %w", cfg.Level, err)
		}
		return lvl, nil
	}
	if mode == "debug" {
		return zapcore.DebugLevel, nil
	}
	return zapcore.InfoLevel, nil
}

// New 文件输出 JSON，控制台输出可读格式，每条日志带 service/env 字段
func New(cfg config.LogConfig, mode string) (*zap.Logger, error) {
	lvl, err := level(cfg, mode)
	if err != nil {
		return nil, err
	}

	var cores []zapcore.Core
	if cfg.File != "" {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(encoderConfig),
			zapcore.AddSync(&lumberjack.Logger{
				Filename:   cfg.File,
				MaxSize:    cfg.MaxSizeMB,
				MaxBackups: cfg.MaxBackups,
				MaxAge:     cfg.MaxAgeDays,
				Compress:   true,
			}),
			lvl,
		))
	}
	if cfg.Console {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig),
			zapcore.AddSync(os.Stdout),
			lvl,
		))
	}
	if len(cores) == 0 {
		return zap.NewNop(), nil
	}

	return zap.New(zapcore.NewTee(cores...),
		zap.AddCaller(),
		zap.AddStacktrace(zap.ErrorLevel),
		zap.Fields(
			zap.String("service", serviceName),
			zap.String("env", mode),
			zap.Int("pid", os.Getpid()),
		),
	).Named("skillwise"), nil
}

func InitLogger(cfg *config.Config) error {
	l, err := New(cfg.Log, cfg.Server.Mode)
	if err != nil {
		return err
	}
	Log = l
	return nil
}
