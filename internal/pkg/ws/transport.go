package ws

import (
	"Nocturne/internal/api/config"
	"Nocturne/internal/api/dto"
	"Nocturne/internal/pkg/security"
	"context"
	log "log/slog"
	"net/url"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
)

// Handler 事件回调。回调在读循环 goroutine 中执行，不要在其中阻塞
type Handler func(data json.RawMessage)

// Transport 实时事件通道客户端。连接生命周期（含限次重连与封顶退避）
// 由本层负责，上层只通过 On/Off 订阅具名事件。
type Transport struct {
	cfg     config.WSConfig
	session *security.Session

	mu       sync.Mutex
	handlers map[string]map[uint64]Handler
	nextID   uint64
	conn     *websocket.Conn

	stopOnce sync.Once
	stopChan chan struct{}
}

func NewTransport(cfg config.WSConfig, session *security.Session) *Transport {
	if cfg.HandshakeTimeout <= 0 {
		cfg.HandshakeTimeout = 10
	}
	if cfg.ReconnectBaseDelay <= 0 {
		cfg.ReconnectBaseDelay = 1000
	}
	if cfg.ReconnectMaxDelay <= 0 {
		cfg.ReconnectMaxDelay = 30000
	}
	return &Transport{
		cfg:      cfg,
		session:  session,
		handlers: make(map[string]map[uint64]Handler),
		stopChan: make(chan struct{}),
	}
}

// On 订阅具名事件，返回用于退订的句柄
func (s *Transport) On(event string, h Handler) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	if s.handlers[event] == nil {
		s.handlers[event] = make(map[uint64]Handler)
	}
	s.handlers[event][id] = h
	return id
}

// Off 退订。屏幕卸载时必须调用，否则处理器会跨挂载泄漏
func (s *Transport) Off(event string, id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m := s.handlers[event]; m != nil {
		delete(m, id)
	}
}

// HandlerCount 当前订阅数，仅诊断用
func (s *Transport) HandlerCount(event string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handlers[event])
}

// minStableConn 连接存活不足该窗口即判定为抖动，
// 断开按一次失败的重连计入退避与限次
const minStableConn = 3 * time.Second

// Run 阻塞运行连接循环，直到 ctx 取消、Close 被调用或重连次数耗尽
func (s *Transport) Run(ctx context.Context) error {
	base := time.Duration(s.cfg.ReconnectBaseDelay) * time.Millisecond
	maxDelay := time.Duration(s.cfg.ReconnectMaxDelay) * time.Millisecond
	backoff := base
	attempts := 0

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.stopChan:
			return nil
		default:
		}

		conn, err := s.dial(ctx)
		if err == nil {
			log.Info("WS 连接已建立")
			connectedAt := time.Now()
			s.readLoop(ctx, conn)
			if time.Since(connectedAt) >= minStableConn {
				attempts = 0
				backoff = base
				continue
			}
			// 握手成功但旋即断开的服务端同样不允许热重连
			err = errors.New("连接旋即断开")
		}

		attempts++
		if s.cfg.ReconnectMaxAttempts > 0 && attempts >= s.cfg.ReconnectMaxAttempts {
			log.Error("WS 重连次数耗尽，停止重试", "attempts", attempts, "err", err)
			return err
		}
		log.Warn("WS 连接失败，稍后重试", "attempt", attempts, "backoff", backoff, "err", err)
		select {
		case <-ctx.Done():
			return nil
		case <-s.stopChan:
			return nil
		case <-time.After(backoff):
		}
		backoff *= 2
		if backoff > maxDelay {
			backoff = maxDelay
		}
	}
}

// Close 主动关停通道
func (s *Transport) Close() {
	s.stopOnce.Do(func() {
		close(s.stopChan)
	})
	s.mu.Lock()
	if s.conn != nil {
		_ = s.conn.Close()
	}
	s.mu.Unlock()
}

func (s *Transport) dial(ctx context.Context) (*websocket.Conn, error) {
	token := s.session.Token()
	if token == "" {
		return nil, errors.New("缺少登录凭据")
	}

	dialer := websocket.Dialer{
		HandshakeTimeout: time.Duration(s.cfg.HandshakeTimeout) * time.Second,
	}
	endpoint := s.cfg.URL + "?token=" + url.QueryEscape(token)
	conn, _, err := dialer.DialContext(ctx, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, "ws 握手失败")
	}

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()
	return conn, nil
}

// readLoop 读取事件帧并分发，连接断开后返回交由 Run 重连
func (s *Transport) readLoop(ctx context.Context, conn *websocket.Conn) {
	done := make(chan struct{})
	defer close(done)

	// 监听取消信号，关闭连接促使 ReadMessage 返回
	go func() {
		select {
		case <-ctx.Done():
		case <-s.stopChan:
		case <-done:
		}
		_ = conn.Close()
	}()

	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			log.Info("WS 连接已断开", "err", err)
			return
		}

		var frame dto.EventFrame
		if err := json.Unmarshal(payload, &frame); err != nil {
			log.Warn("事件帧解析失败，已丢弃", "err", err)
			continue
		}
		s.dispatch(frame.Event, frame.Data)
	}
}

func (s *Transport) dispatch(event string, data json.RawMessage) {
	s.mu.Lock()
	hs := make([]Handler, 0, len(s.handlers[event]))
	for _, h := range s.handlers[event] {
		hs = append(hs, h)
	}
	s.mu.Unlock()

	for _, h := range hs {
		h(data)
	}
}
