package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/tg-collector/pkg/config"
)

type Logger = zap.Logger

const fileName = "tg-collector-%Y%m%d.log"

var (
	mu         sync.RWMutex
	baseLogger = zap.NewNop()
	level      = zap.NewAtomicLevelAt(zapcore.InfoLevel)
)

// ParseLevel 解析日志级别，未知级别返回错误
func ParseLevel(s string) (zapcore.Level, error) {
	switch strings.ToLower(s) {
	case "dbg", "debug":
		return zapcore.DebugLevel, nil
	case "inf", "info", "":
		return zapcore.InfoLevel, nil
	case "war", "warn":
		return zapcore.WarnLevel, nil
	case "err", "error":
		return zapcore.ErrorLevel, nil
	}
	return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", s)
}

// InitLogger builds the global logger: colored console on stdout plus a
// daily rotated file under cfg.Path. Calling it again replaces the previous
// logger.
func InitLogger(cfg *config.ZapLogConfig) (*zap.Logger, error) {
	lvl, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(cfg.Path, 0o755); err != nil {
		return nil, fmt.Errorf("create log dir %s: %w", cfg.Path, err)
	}

	writer, err := rotatelogs.New(filepath.Join(cfg.Path, fileName), rotateOptions(cfg)...)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	var fileEncoder zapcore.Encoder
	if cfg.Format == "console" {
		fileEncoder = zapcore.NewConsoleEncoder(plainEncoderConfig())
	} else {
		fileEncoder = zapcore.NewJSONEncoder(jsonEncoderConfig())
	}

	mu.Lock()
	defer mu.Unlock()

	level.SetLevel(lvl)
	core := zapcore.NewTee(
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleEncoderConfig()), zapcore.Lock(os.Stdout), level),
		zapcore.NewCore(fileEncoder, zapcore.AddSync(writer), level),
	)
	baseLogger = zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
	return baseLogger, nil
}

// rotatelogs refuses MaxAge together with RotationCount.
func rotateOptions(cfg *config.ZapLogConfig) []rotatelogs.Option {
	opts := []rotatelogs.Option{
		rotatelogs.WithRotationTime(24 * time.Hour),
	}
	if cfg.MaxSize > 0 {
		opts = append(opts, rotatelogs.WithRotationSize(int64(cfg.MaxSize)*1024*1024))
	}
	if cfg.MaxBackup > 0 {
		opts = append(opts, rotatelogs.WithMaxAge(-1), rotatelogs.WithRotationCount(uint(cfg.MaxBackup)))
	} else {
		opts = append(opts, rotatelogs.WithMaxAge(time.Duration(cfg.MaxAge)*24*time.Hour))
	}
	return opts
}

const timeLayout = "2006-01-02 15:04:05.000 -07:00"

// 控制台彩色时间、级别，Caller 两级路径
func consoleEncoderConfig() zapcore.EncoderConfig {
	c := zap.NewDevelopmentEncoderConfig()
	c.ConsoleSeparator = " "
	c.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString("\033[34m" + t.Format(timeLayout) + "\033[0m")
	}
	c.EncodeLevel = coloredLevelEncoder
	c.EncodeCaller = func(ec zapcore.EntryCaller, enc zapcore.PrimitiveArrayEncoder) {
		rel := filepath.Join(filepath.Base(filepath.Dir(ec.File)), filepath.Base(ec.File))
		enc.AppendString(fmt.Sprintf("%s:%d", rel, ec.Line))
	}
	return c
}

func plainEncoderConfig() zapcore.EncoderConfig {
	c := zap.NewDevelopmentEncoderConfig()
	c.ConsoleSeparator = " "
	c.EncodeTime = zapcore.TimeEncoderOfLayout(timeLayout)
	c.EncodeLevel = zapcore.CapitalLevelEncoder
	return c
}

// JSON 日志纯文本时间
func jsonEncoderConfig() zapcore.EncoderConfig {
	c := zap.NewProductionEncoderConfig()
	c.TimeKey = "timestamp"
	c.EncodeTime = zapcore.TimeEncoderOfLayout(timeLayout)
	c.EncodeLevel = zapcore.LowercaseLevelEncoder
	return c
}

func coloredLevelEncoder(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	var s string
	switch l {
	case zapcore.DebugLevel:
		s = "\033[36mDEBUG\033[0m"
	case zapcore.InfoLevel:
		s = "\033[32mINFO \033[0m"
	case zapcore.WarnLevel:
		s = "\033[33mWARN \033[0m"
	case zapcore.ErrorLevel:
		s = "\033[31mERROR\033[0m"
	case zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel:
		s = "\033[35m" + l.CapitalString() + "\033[0m"
	default:
		s = "UNK  "
	}
	enc.AppendString(s)
}

// SetLevel changes the level of the global logger at runtime.
func SetLevel(l zapcore.Level) { level.SetLevel(l) }

// GetGlobalLogger 返回全局 logger；未初始化时返回 no-op logger
func GetGlobalLogger() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return baseLogger
}

func helper() *zap.Logger {
	return GetGlobalLogger().WithOptions(zap.AddCallerSkip(1))
}

func Debug(msg string, fields ...zap.Field) { helper().Debug(msg, fields...) }
func Info(msg string, fields ...zap.Field)  { helper().Info(msg, fields...) }
func Warn(msg string, fields ...zap.Field)  { helper().Warn(msg, fields...) }
func Error(msg string, fields ...zap.Field) { helper().Error(msg, fields...) }
func Panic(msg string, fields ...zap.Field) { helper().Panic(msg, fields...) }
func Fatal(msg string, fields ...zap.Field) { helper().Fatal(msg, fields...) }

// Sync 刷盘；stdout 不支持 sync 时的错误忽略
func Sync() error {
	err := GetGlobalLogger().Sync()
	if err != nil && strings.Contains(err.Error(), os.Stdout.Name()) {
		return nil
	}
	return err
}
