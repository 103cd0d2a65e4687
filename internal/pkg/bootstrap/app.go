package bootstrap

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"saregare/internal/pkg/logger"
	"saregare/internal/pkg/nacos"
	"saregare/internal/pkg/tracing"
)

// AppCtx 传给各服务的路由注册回调。
type AppCtx struct {
	Mux   *http.ServeMux
	Nacos *nacos.Client
}

// AppInfo 描述启动一个服务所需的特定信息。
type AppInfo struct {
	ServiceName      string
	Port             int
	RegisterHandlers func(appCtx AppCtx)
	// OnShutdown 在 HTTP 服务器关闭前按注册顺序的逆序执行清理
	OnShutdown []func(ctx context.Context)
}

// StartService 封装所有服务通用的启动与优雅关停流程：
// 日志、链路追踪、Nacos 注册、HTTP 服务器、信号处理。
func StartService(info AppInfo) {
	logger.Init(info.ServiceName)
	cfg := GetCurrentConfig()

	tp, err := tracing.InitTracerProvider(info.ServiceName, cfg.Infra.Jaeger.Endpoint)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize tracer provider")
	}

	naming, err := nacos.NewClient(cfg.Infra.Nacos.ServerAddrs, cfg.Infra.Nacos.Namespace, cfg.Infra.Nacos.Group)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize nacos client")
	}

	ip, err := GetOutboundIP()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to resolve outbound IP")
	}
	if err := naming.Register(info.ServiceName, ip, info.Port); err != nil {
		log.Fatal().Err(err).Msg("failed to register service")
	}

	mux := http.NewServeMux()
	if info.RegisterHandlers != nil {
		info.RegisterHandlers(AppCtx{Mux: mux, Nacos: naming})
	}
	server := &http.Server{Addr: ":" + strconv.Itoa(info.Port), Handler: mux}
	go func() {
		log.Info().Msgf("%s listening on :%d", info.ServiceName, info.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msgf("could not listen on %s", server.Addr)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msgf("Shutting down service %s...", info.ServiceName)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// 清理顺序：注销服务 -> 业务清理 -> 上报剩余 trace -> 关 HTTP
	if err := naming.Deregister(info.ServiceName, ip, info.Port); err != nil {
		log.Error().Err(err).Msg("error deregistering from nacos")
	}
	for i := len(info.OnShutdown) - 1; i >= 0; i-- {
		info.OnShutdown[i](ctx)
	}
	if err := tp.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("error shutting down tracer provider")
	}
	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("error shutting down http server")
	}
	log.Info().Msgf("Service %s gracefully shut down.", info.ServiceName)
}

// GetOutboundIP 通过一次 UDP "连接" 拿到本机对外 IP，不产生真实流量。
func GetOutboundIP() (string, error) {
	conn, err := net.Dial("udp", "8.8.8.8:80")
	if err != nil {
		return "", err
	}
	defer conn.Close()
	return conn.LocalAddr().(*net.UDPAddr).IP.String(), nil
}
