package main

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"

	"saregare/internal/pkg/bootstrap"
	"saregare/internal/pkg/httpclient"
	"saregare/internal/pkg/logger"
	"saregare/internal/pkg/mq"
	"saregare/internal/pkg/redis"
	"saregare/internal/pkg/zookeeper"
	catalogapp "saregare/internal/service/catalog/application"
	cataloginfra "saregare/internal/service/catalog/infrastructure"
	"saregare/internal/service/checkout/application"
	"saregare/internal/service/checkout/domain/port"
	"saregare/internal/service/checkout/infrastructure"
	"saregare/internal/service/checkout/infrastructure/adapter"
	"saregare/internal/service/checkout/interfaces"
	"saregare/internal/service/player"
	"saregare/internal/service/promotion/rule"
)

const (
	serviceName      = "checkout-service"
	orderStatusTopic = "order-status-events"
)

// main 是组合根：创建并组装所有依赖，然后交给 bootstrap 启动。
func main() {
	logger.Init(serviceName)
	cfg := bootstrap.GetCurrentConfig()
	tracer := otel.Tracer(serviceName)

	db, err := infrastructure.OpenMySQL(cfg.Infra.MySQLDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open mysql")
	}

	productRepo := cataloginfra.NewGormProductRepository(db)
	if err := productRepo.Migrate(); err != nil {
		log.Fatal().Err(err).Msg("failed to migrate catalog tables")
	}

	redisClient, err := redis.NewClient(cfg.Infra.RedisAddrs)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}

	zkConn, err := zookeeper.Connect(cfg.Infra.ZKAddrs, 5*time.Second)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to zookeeper")
	}

	kafkaWriter := mq.NewKafkaWriter(strings.Split(cfg.Infra.KafkaBrokers, ","), orderStatusTopic)

	// 支付网关：Razorpay 可用；Stripe 在服务端流程接入前保持未配置
	httpClient := httpclient.NewClient(tracer)
	gateways := port.NewRegistry(
		adapter.NewRazorpayGateway(cfg.Gateways.Razorpay.KeyID, cfg.Gateways.Razorpay.KeySecret, httpClient),
		adapter.NewStripeGateway(cfg.Gateways.Stripe.SecretKey),
	)

	promoEngine, err := rule.NewCELPromotionEngine(cfg.App.Promotions)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to build promotion engine")
	}

	catalogSvc := catalogapp.NewCatalogService(productRepo, tracer)
	orders := infrastructure.NewGormOrderRepository(db)
	txs := infrastructure.NewGormTransactionRepository(db)
	notifier := adapter.NewKafkaOrderNotifier(kafkaWriter)
	locker := adapter.NewZKOrderLocker(zkConn, cfg.App.OrderLockTimeout)

	checkoutSvc := application.NewCheckoutService(
		orders, txs, gateways, adapter.NewCatalogAdapter(catalogSvc),
		promoEngine, notifier, locker, tracer,
	)
	verifier := application.NewPaymentVerifier(orders, txs, gateways, notifier, locker, tracer)
	checkoutHandler := interfaces.NewCheckoutHandler(checkoutSvc, verifier, catalogSvc)

	playerStore := player.NewRedisStore(redisClient, cfg.App.PlayerSessionTTL)
	playerHandler := player.NewHandler(player.NewManager(playerStore))

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        8080,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			checkoutHandler.RegisterRoutes(appCtx.Mux)
			playerHandler.RegisterRoutes(appCtx.Mux)
		},
		OnShutdown: []func(ctx context.Context){
			func(ctx context.Context) {
				if err := kafkaWriter.Close(); err != nil {
					log.Error().Err(err).Msg("error closing kafka writer")
				}
			},
			func(ctx context.Context) {
				if err := redisClient.Close(); err != nil {
					log.Error().Err(err).Msg("error closing redis client")
				}
			},
			func(ctx context.Context) { zkConn.Close() },
		},
	})
}
