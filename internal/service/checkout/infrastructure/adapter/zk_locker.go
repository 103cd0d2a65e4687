package adapter

import (
	"context"
	"time"

	"saregare/internal/pkg/zookeeper"
)

// ZKOrderLocker 用 ZooKeeper 分布式锁实现 port.OrderLocker。
// 多实例部署时同一订单的回调与取消请求可能落在不同实例上，
// 进程内的互斥不够，所以锁放在 ZooKeeper。
type ZKOrderLocker struct {
	conn    *zookeeper.Conn
	timeout time.Duration
}

func NewZKOrderLocker(conn *zookeeper.Conn, timeout time.Duration) *ZKOrderLocker {
	return &ZKOrderLocker{conn: conn, timeout: timeout}
}

func (l *ZKOrderLocker) WithLock(ctx context.Context, orderID string, fn func() error) error {
	lock, err := zookeeper.NewDistributedLock(l.conn, "order-"+orderID, l.timeout)
	if err != nil {
		return err
	}
	if err := lock.Lock(); err != nil {
		return err
	}
	defer lock.Unlock()
	return fn()
}
