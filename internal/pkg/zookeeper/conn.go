package zookeeper

import (
	"strings"
	"time"

	"github.com/go-zookeeper/zk"
)

// Conn 是对 zk.Conn 的一层薄封装，统一连接参数。
type Conn struct {
	*zk.Conn
}

// Connect 建立到 ZooKeeper 集群的连接。addrs 形如 "host1:2181,host2:2181"。
func Connect(addrs string, sessionTimeout time.Duration) (*Conn, error) {
	conn, _, err := zk.Connect(strings.Split(addrs, ","), sessionTimeout)
	if err != nil {
		return nil, err
	}
	return &Conn{Conn: conn}, nil
}

// EnsurePath 确保一条路径上的所有节点都存在（幂等）。
func (c *Conn) EnsurePath(path string) error {
	parts := strings.Split(strings.Trim(path, "/"), "/")
	cur := ""
	for _, p := range parts {
		cur += "/" + p
		_, err := c.Create(cur, []byte{}, 0, zk.WorldACL(zk.PermAll))
		if err != nil && err != zk.ErrNodeExists {
			return err
		}
	}
	return nil
}
