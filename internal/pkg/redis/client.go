package redis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// Client 封装 go-redis 的 UniversalClient。
// 传入多个地址时自动走 cluster 模式。
type Client struct {
	rdb redis.UniversalClient
}

// NewClient 连接 Redis。addrs 形如 "host1:6379,host2:6379"。
func NewClient(addrs string) (*Client, error) {
	rdb := redis.NewUniversalClient(&redis.UniversalOptions{
		Addrs: strings.Split(addrs, ","),
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", addrs, err)
	}

	return &Client{rdb: rdb}, nil
}

// GetClient 暴露底层客户端，给需要 pipeline 等高级用法的调用方。
func (c *Client) GetClient() redis.UniversalClient {
	return c.rdb
}

// Close 关闭底层连接。
func (c *Client) Close() error {
	return c.rdb.Close()
}
