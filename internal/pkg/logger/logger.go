package logger

import (
	"context"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Init 配置全局 zerolog，并为日志打上服务名标签。
// 各个服务的 main 在启动时调用一次。
func Init(serviceName string) {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = zerolog.New(os.Stdout).With().
		Timestamp().
		Str("service", serviceName).
		Logger()
}

// WithTraceID 返回一个携带 trace_id 字段的 logger，并存入 context，
// 便于 handler 内通过 Ctx() 取回同一个 logger。
func WithTraceID(ctx context.Context, traceID string) (context.Context, zerolog.Logger) {
	l := log.With().Str("trace_id", traceID).Logger()
	return l.WithContext(ctx), l
}

// Ctx 从 context 中取出 logger；未注入时退回全局 logger。
func Ctx(ctx context.Context) *zerolog.Logger {
	if l := zerolog.Ctx(ctx); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &log.Logger
}
