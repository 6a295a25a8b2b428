package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var L *zap.Logger

func init() {
	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "ts"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	config.Level = zap.NewAtomicLevelAt(parseLevel(os.Getenv("LOG_LEVEL")))
	var err error
	L, err = config.Build(options()...)
	if err != nil {
		panic(err)
	}
}

// options WithComponent 直接回傳 logger，不需要 AddCallerSkip
func options() []zap.Option {
	return []zap.Option{zap.AddCaller()}
}

// parseLevel 解析 LOG_LEVEL，無法辨識時使用 info
func parseLevel(s string) zapcore.Level {
	level, err := zapcore.ParseLevel(s)
	if err != nil || s == "" {
		return zapcore.InfoLevel
	}
	return level
}

// WithComponent 回傳帶有 component 欄位的 logger，供 gateway、seatmap、booking 等使用
func WithComponent(component string) *zap.Logger {
	return L.With(zap.String("component", component))
}

// Replace 替換全域 logger（測試時可換成 zap.NewNop 或 observer），回傳還原函式
func Replace(l *zap.Logger) func() {
	prev := L
	L = l
	return func() { L = prev }
}
