package zookeeper

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/go-zookeeper/zk"
	"github.com/pkg/errors"
)

const lockRoot = "/saregare/locks"

// DistributedLock 基于临时顺序节点实现的分布式互斥锁。
// 同一个 resourceID（例如一个订单号）同一时刻只有一个持有者，
// 用于串行化 webhook 回调与用户取消之间的竞争。
type DistributedLock struct {
	conn     *Conn
	path     string
	lockNode string
	timeout  time.Duration
}

// NewDistributedLock 创建一个锁实例并确保锁路径存在。
func NewDistributedLock(conn *Conn, resourceID string, timeout time.Duration) (*DistributedLock, error) {
	path := lockRoot + "/" + resourceID
	if err := conn.EnsurePath(path); err != nil {
		return nil, errors.Wrapf(err, "failed to ensure lock path %s", path)
	}
	return &DistributedLock{conn: conn, path: path, timeout: timeout}, nil
}

// Lock 尝试获取锁，拿不到时阻塞等待，超过 timeout 返回错误。
func (l *DistributedLock) Lock() error {
	node, err := l.conn.CreateProtectedEphemeralSequential(l.path+"/lock-", []byte{}, zk.WorldACL(zk.PermAll))
	if err != nil {
		return errors.Wrap(err, "failed to create sequential lock node")
	}
	l.lockNode = node

	deadline := time.Now().Add(l.timeout)
	for {
		children, _, err := l.conn.Children(l.path)
		if err != nil {
			return errors.Wrap(err, "failed to list lock children")
		}
		sort.Strings(children)

		myName := strings.TrimPrefix(l.lockNode, l.path+"/")
		if myName == children[0] {
			return nil // 序号最小，获得锁
		}

		// 只监听排在自己前面的那个节点，避免惊群
		prev := -1
		for i, child := range children {
			if child == myName {
				prev = i - 1
				break
			}
		}
		if prev < 0 {
			return fmt.Errorf("own lock node %s missing from children", myName)
		}

		_, _, eventCh, err := l.conn.ExistsW(l.path + "/" + children[prev])
		if err != nil {
			if err == zk.ErrNoNode {
				continue // 前驱节点刚好释放，重新竞争
			}
			return errors.Wrap(err, "failed to watch previous lock node")
		}

		remain := time.Until(deadline)
		if remain <= 0 {
			l.release()
			return fmt.Errorf("timeout acquiring lock on %s", l.path)
		}
		select {
		case ev := <-eventCh:
			if ev.Type == zk.EventNodeDeleted {
				continue
			}
		case <-time.After(remain):
			l.release()
			return fmt.Errorf("timeout acquiring lock on %s", l.path)
		}
	}
}

// Unlock 释放锁。
func (l *DistributedLock) Unlock() error {
	if l.lockNode == "" {
		return fmt.Errorf("unlock called without holding the lock")
	}
	return l.release()
}

func (l *DistributedLock) release() error {
	err := l.conn.Delete(l.lockNode, -1)
	l.lockNode = ""
	if err != nil && err != zk.ErrNoNode {
		return errors.Wrap(err, "failed to delete lock node")
	}
	return nil
}
