package main

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"saregare/internal/pkg/bootstrap"
	"saregare/internal/pkg/logger"
	"saregare/internal/pkg/mq"
	"saregare/internal/pkg/redis"
	"saregare/internal/pkg/session"
	"saregare/internal/service/checkout/domain"
)

const (
	serviceName      = "push-gateway"
	orderStatusTopic = "order-status-events"
	consumerGroupID  = "push-gateway-group"

	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = 54 * time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// 前端和网关不同源，这里放开跨域
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Hub 维护所有活跃的 WebSocket 连接，按买家 ID 索引。
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
}

func newHub() *Hub {
	return &Hub{clients: make(map[string]*Client)}
}

func (h *Hub) register(c *Client) {
	h.mu.Lock()
	if old, ok := h.clients[c.userID]; ok {
		close(old.send)
	}
	h.clients[c.userID] = c
	h.mu.Unlock()
}

func (h *Hub) unregister(c *Client) {
	h.mu.Lock()
	if cur, ok := h.clients[c.userID]; ok && cur == c {
		delete(h.clients, c.userID)
		close(c.send)
	}
	h.mu.Unlock()
}

// Send 把消息投递给本节点上该用户的连接，没有连接时返回 false。
func (h *Hub) Send(userID string, payload []byte) bool {
	h.mu.RLock()
	c, ok := h.clients[userID]
	h.mu.RUnlock()
	if !ok {
		return false
	}
	select {
	case c.send <- payload:
		return true
	default:
		// 发送缓冲已满，丢弃该连接
		h.unregister(c)
		c.conn.Close()
		return false
	}
}

// Client 代表一条 WebSocket 连接。
type Client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID string
}

// readPump 只消费心跳；读出错即视为连接断开。
func (c *Client) readPump(sessions *session.Manager) {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
		if err := sessions.ClearUserGateway(context.Background(), c.userID); err != nil {
			log.Warn().Err(err).Str("user_id", c.userID).Msg("failed to clear push session")
		}
	}()
	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// writePump 把 send channel 里的消息写入连接，并定期发 ping 保活。
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func serveWs(hub *Hub, sessions *session.Manager, nodeID string, w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "userId is required", http.StatusBadRequest)
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	client := &Client{hub: hub, conn: conn, send: make(chan []byte, 256), userID: userID}
	hub.register(client)

	if err := sessions.SetUserGateway(r.Context(), userID, nodeID); err != nil {
		log.Warn().Err(err).Str("user_id", userID).Msg("failed to record push session")
	}
	go client.writePump()
	go client.readPump(sessions)
}

// consumeOrderEvents 消费订单状态事件并推给对应买家的连接。
func consumeOrderEvents(ctx context.Context, brokers []string, hub *Hub) error {
	reader := mq.NewKafkaReader(brokers, orderStatusTopic, consumerGroupID)
	defer reader.Close()
	log.Info().Str("topic", orderStatusTopic).Msg("push-gateway consuming order events")

	for {
		msg, err := reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			log.Error().Err(err).Msg("could not read message, retrying")
			time.Sleep(time.Second)
			continue
		}

		var event domain.OrderStatusChanged
		if err := json.Unmarshal(msg.Value, &event); err != nil {
			log.Error().Err(err).Msg("skipping malformed order event")
		} else if !hub.Send(event.BuyerID, msg.Value) {
			// 买家不在本节点（或没有活跃连接），由持有连接的节点投递
			log.Debug().Str("buyer_id", event.BuyerID).Str("order_id", event.OrderID).Msg("no local connection for buyer")
		}

		if err := reader.CommitMessages(ctx, msg); err != nil {
			log.Error().Err(err).Msg("failed to commit offset")
		}
	}
}

func main() {
	logger.Init(serviceName)
	cfg := bootstrap.GetCurrentConfig()
	nodeID := serviceName + "-" + uuid.New().String()[:8]

	redisClient, err := redis.NewClient(cfg.Infra.RedisAddrs)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to redis")
	}
	sessions := session.NewManager(redisClient)
	hub := newHub()

	consumerCtx, stopConsumer := context.WithCancel(context.Background())
	g, gctx := errgroup.WithContext(consumerCtx)
	g.Go(func() error {
		return consumeOrderEvents(gctx, strings.Split(cfg.Infra.KafkaBrokers, ","), hub)
	})

	bootstrap.StartService(bootstrap.AppInfo{
		ServiceName: serviceName,
		Port:        8090,
		RegisterHandlers: func(appCtx bootstrap.AppCtx) {
			appCtx.Mux.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
				serveWs(hub, sessions, nodeID, w, r)
			})
		},
		OnShutdown: []func(ctx context.Context){
			func(ctx context.Context) {
				stopConsumer()
				if err := g.Wait(); err != nil {
					log.Error().Err(err).Msg("consumer terminated with error")
				}
			},
			func(ctx context.Context) {
				if err := redisClient.Close(); err != nil {
					log.Error().Err(err).Msg("error closing redis client")
				}
			},
		},
	})
}
