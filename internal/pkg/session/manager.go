package session

import (
	"context"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"saregare/internal/pkg/redis"
)

const sessionTTL = 24 * time.Hour

// Manager 在 Redis 里维护 用户 -> push-gateway 节点 的路由表，
// 多实例部署时事件可以被转发到持有该用户连接的节点。
type Manager struct {
	client *redis.Client
}

func NewManager(client *redis.Client) *Manager {
	return &Manager{client: client}
}

func key(userID string) string {
	return "push:session:" + userID
}

// SetUserGateway 记录用户连接所在的节点。
func (m *Manager) SetUserGateway(ctx context.Context, userID, nodeID string) error {
	return m.client.GetClient().Set(ctx, key(userID), nodeID, sessionTTL).Err()
}

// GetUserGateway 返回用户连接的节点 ID，没有连接时返回空串。
func (m *Manager) GetUserGateway(ctx context.Context, userID string) (string, error) {
	node, err := m.client.GetClient().Get(ctx, key(userID)).Result()
	if err == goredis.Nil {
		return "", nil
	}
	return node, err
}

// ClearUserGateway 清除路由记录（连接断开时调用）。
func (m *Manager) ClearUserGateway(ctx context.Context, userID string) error {
	return m.client.GetClient().Del(ctx, key(userID)).Err()
}
