package bootstrap

import (
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"gopkg.in/yaml.v3"
)

// Config 汇总一个服务进程需要的全部外部配置。
// 基础设施地址来自环境变量，促销规则等易变配置来自 yaml 文件。
type Config struct {
	Infra struct {
		MySQLDSN     string
		KafkaBrokers string
		RedisAddrs   string
		ZKAddrs      string
		Jaeger       struct {
			Endpoint string
		}
		Nacos struct {
			ServerAddrs string
			Namespace   string
			Group       string
		}
	}

	Gateways struct {
		Razorpay struct {
			KeyID     string
			KeySecret string
		}
		Stripe struct {
			SecretKey string
		}
	}

	App struct {
		OrderLockTimeout  time.Duration
		PlayerSessionTTL  time.Duration
		PromotionRuleFile string
		Promotions        []PromotionRule
	}
}

// PromotionRule 是 yaml 促销配置的一条规则。Expr 是一个 CEL 表达式，
// 对结账事实求值为 true 时应用 DiscountPaise 的减免。
type PromotionRule struct {
	Name          string `yaml:"name"`
	Expr          string `yaml:"expr"`
	DiscountPaise int64  `yaml:"discount_paise"`
}

var (
	once    sync.Once
	current Config
)

// GetCurrentConfig 返回进程级配置，首次调用时从环境加载。
func GetCurrentConfig() Config {
	once.Do(func() {
		current = loadFromEnv()
	})
	return current
}

func loadFromEnv() Config {
	var c Config
	c.Infra.MySQLDSN = getEnv("MYSQL_DSN", "root:root@tcp(localhost:3306)/saregare?charset=utf8mb4&parseTime=True")
	c.Infra.KafkaBrokers = getEnv("KAFKA_BROKERS", "localhost:9092")
	c.Infra.RedisAddrs = getEnv("REDIS_ADDRS", "localhost:6379")
	c.Infra.ZKAddrs = getEnv("ZK_ADDRS", "localhost:2181")
	c.Infra.Jaeger.Endpoint = getEnv("JAEGER_ENDPOINT", "http://localhost:14268/api/traces")
	c.Infra.Nacos.ServerAddrs = getEnv("NACOS_SERVER_ADDRS", "localhost:8848")
	c.Infra.Nacos.Namespace = getEnv("NACOS_NAMESPACE", "")
	c.Infra.Nacos.Group = getEnv("NACOS_GROUP", "DEFAULT_GROUP")

	// 网关密钥：缺失不是致命错误，相应网关会降级为"未配置"
	c.Gateways.Razorpay.KeyID = os.Getenv("RAZORPAY_KEY_ID")
	c.Gateways.Razorpay.KeySecret = os.Getenv("RAZORPAY_KEY_SECRET")
	c.Gateways.Stripe.SecretKey = os.Getenv("STRIPE_SECRET_KEY")

	c.App.OrderLockTimeout = getDurationEnv("ORDER_LOCK_TIMEOUT", 10*time.Second)
	c.App.PlayerSessionTTL = getDurationEnv("PLAYER_SESSION_TTL", 2*time.Hour)
	c.App.PromotionRuleFile = getEnv("PROMOTION_RULE_FILE", "")

	if c.App.PromotionRuleFile != "" {
		rules, err := LoadPromotionRules(c.App.PromotionRuleFile)
		if err != nil {
			// 配置文件坏掉不应阻止结账主流程，促销直接为空
			fmt.Fprintf(os.Stderr, "WARN: failed to load promotion rules: %v\n", err)
		} else {
			c.App.Promotions = rules
		}
	}
	return c
}

// LoadPromotionRules 从 yaml 文件解析促销规则列表。
func LoadPromotionRules(path string) ([]PromotionRule, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var doc struct {
		Rules []PromotionRule `yaml:"rules"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("invalid promotion rule file %s: %w", path, err)
	}
	return doc.Rules, nil
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

func getDurationEnv(key string, fallback time.Duration) time.Duration {
	if v, ok := os.LookupEnv(key); ok {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}

func getIntEnv(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
