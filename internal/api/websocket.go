// internal/api/websocket.go
package api

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/NovaCampus/EduForumHub/internal/utils"
)

// WebSocket 升级器配置
var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// 在生产环境中应该进行更严格的检查
		return true
	},
}

// hubClient 表示一个订阅了若干主题的 WebSocket 客户端
type hubClient struct {
	conn      *websocket.Conn
	topics    map[string]bool
	send      chan []byte
	closed    int32 // 原子操作标志，0=开启，1=关闭
	lastPing  time.Time
	createdAt time.Time
}

// close 安全关闭客户端连接
func (c *hubClient) close() {
	if atomic.CompareAndSwapInt32(&c.closed, 0, 1) {
		if c.conn != nil {
			c.conn.Close()
		}
	}
}

func (c *hubClient) isClosed() bool {
	return atomic.LoadInt32(&c.closed) == 1
}

// hubMessage 待广播的消息
type hubMessage struct {
	topic string
	data  []byte
}

// NotificationHub 按主题分发通知事件
// 点赞计数同步（upvotes 主题）和分数入账事件（scores 主题）走这里
type NotificationHub struct {
	clients     map[*hubClient]bool
	register    chan *hubClient
	unregister  chan *hubClient
	broadcast   chan hubMessage
	mutex       sync.RWMutex
	pingTimeout time.Duration
	logger      *utils.Logger
}

// NewNotificationHub 创建通知集线器并启动分发循环
func NewNotificationHub() *NotificationHub {
	h := &NotificationHub{
		clients:     make(map[*hubClient]bool),
		register:    make(chan *hubClient, 64),
		unregister:  make(chan *hubClient, 64),
		broadcast:   make(chan hubMessage, 256),
		pingTimeout: 60 * time.Second,
		logger:      utils.GetLogger(),
	}

	go h.run()
	return h
}

// run 分发循环
func (h *NotificationHub) run() {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.close()
			}
			h.mutex.Unlock()

		case msg := <-h.broadcast:
			h.mutex.RLock()
			for client := range h.clients {
				if client.isClosed() || !client.topics[msg.topic] {
					continue
				}
				select {
				case client.send <- msg.data:
				default:
					// 发送缓冲已满，丢弃本条，连接由超时清理兜底
				}
			}
			h.mutex.RUnlock()

		case <-ticker.C:
			h.cleanupExpired()
		}
	}
}

// Publish 实现 services.EventPublisher
func (h *NotificationHub) Publish(topic string, payload map[string]interface{}) {
	body := map[string]interface{}{
		"topic":   topic,
		"payload": payload,
	}

	data, err := json.Marshal(body)
	if err != nil {
		h.logger.Errorf("通知序列化失败: %v", err)
		return
	}

	select {
	case h.broadcast <- hubMessage{topic: topic, data: data}:
	default:
		h.logger.Warnf("通知广播队列已满，丢弃 topic=%s", topic)
	}
}

// cleanupExpired 清理超时连接
func (h *NotificationHub) cleanupExpired() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	now := time.Now()
	for client := range h.clients {
		if now.Sub(client.lastPing) > h.pingTimeout {
			delete(h.clients, client)
			client.close()
		}
	}
}

// Stats 当前连接统计
func (h *NotificationHub) Stats() map[string]interface{} {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	topicCounts := make(map[string]int)
	for client := range h.clients {
		for topic := range client.topics {
			topicCounts[topic]++
		}
	}

	return map[string]interface{}{
		"connections": len(h.clients),
		"topics":      topicCounts,
	}
}

// HandleConnection 处理 /ws/notifications 连接
// 订阅主题通过 ?topics=upvotes,scores 传入，缺省订阅全部
func (h *NotificationHub) HandleConnection(c *gin.Context) {
	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.logger.Errorf("WebSocket 升级失败: %v", err)
		return
	}

	topics := map[string]bool{"upvotes": true, "scores": true}
	if raw := c.Query("topics"); raw != "" {
		topics = make(map[string]bool)
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				topics[t] = true
			}
		}
	}

	client := &hubClient{
		conn:      conn,
		topics:    topics,
		send:      make(chan []byte, 64),
		lastPing:  time.Now(),
		createdAt: time.Now(),
	}

	h.register <- client

	go h.writeLoop(client)
	go h.readLoop(client)
}

// writeLoop 把广播消息和心跳写给客户端
func (h *NotificationHub) writeLoop(client *hubClient) {
	ticker := time.NewTicker(30 * time.Second)
	defer func() {
		ticker.Stop()
		h.unregister <- client
	}()

	for {
		select {
		case data, ok := <-client.send:
			if !ok {
				return
			}
			client.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}

		case <-ticker.C:
			client.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop 只处理 pong 和关闭
func (h *NotificationHub) readLoop(client *hubClient) {
	defer func() {
		h.unregister <- client
	}()

	client.conn.SetReadDeadline(time.Now().Add(h.pingTimeout))
	client.conn.SetPongHandler(func(string) error {
		client.lastPing = time.Now()
		client.conn.SetReadDeadline(time.Now().Add(h.pingTimeout))
		return nil
	})

	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}
