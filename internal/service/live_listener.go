package service

import (
	"Nocturne/internal/api/dto"
	"Nocturne/internal/model"
	"Nocturne/internal/pkg/consts"
	"Nocturne/internal/pkg/ws"
	log "log/slog"
	"sync"

	"github.com/goccy/go-json"
	"github.com/jinzhu/copier"
)

// EventSource 实时事件源契约（由 ws.Transport 实现）
type EventSource interface {
	On(event string, h ws.Handler) uint64
	Off(event string, id uint64)
}

// LiveListener 订阅 new_message 与 messages_read 两个具名事件，
// 驱动本地状态刷新。订阅只在事件源就绪（非 nil）后安装，
// Close 必须成对调用，否则处理器会跨屏幕挂载泄漏。
type LiveListener struct {
	source        EventSource
	conversations ConversationService

	mu          sync.Mutex
	bound       MessageService
	boundConvID string

	installed bool
	newMsgID  uint64
	readID    uint64
}

func NewLiveListener(source EventSource, conversations ConversationService) *LiveListener {
	s := &LiveListener{
		source:        source,
		conversations: conversations,
	}
	if source != nil {
		s.newMsgID = source.On(consts.EventNewMessage, s.onNewMessage)
		s.readID = source.On(consts.EventMessagesRead, s.onMessagesRead)
		s.installed = true
	}
	return s
}

// Bind 进入会话页时绑定该会话的同步器，推送消息直接入列
func (s *LiveListener) Bind(conversationID string, ms MessageService) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bound = ms
	s.boundConvID = conversationID
}

// Unbind 离开会话页时解绑
func (s *LiveListener) Unbind() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.bound = nil
	s.boundConvID = ""
}

// Close 拆除全部订阅
func (s *LiveListener) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.installed {
		return
	}
	s.source.Off(consts.EventNewMessage, s.newMsgID)
	s.source.Off(consts.EventMessagesRead, s.readID)
	s.installed = false
}

func (s *LiveListener) onNewMessage(data json.RawMessage) {
	var d dto.MessageDTO
	if err := json.Unmarshal(data, &d); err != nil {
		log.Warn("new_message 事件体解析失败", "err", err)
		return
	}

	s.mu.Lock()
	bound := s.bound
	boundConvID := s.boundConvID
	s.mu.Unlock()

	if bound != nil && d.ConversationID == boundConvID {
		var msg model.Message
		if err := copier.Copy(&msg, &d); err != nil {
			log.Warn("new_message 映射失败", "id", d.ID, "err", err)
		} else {
			bound.AddMessage(msg)
		}
	}

	// 未读数与最后一条预览通过防抖重载刷新
	s.conversations.ScheduleReload()
}

func (s *LiveListener) onMessagesRead(data json.RawMessage) {
	var d dto.ReadReceiptDTO
	if err := json.Unmarshal(data, &d); err != nil {
		log.Warn("messages_read 事件体解析失败", "err", err)
		return
	}
	s.conversations.ScheduleReload()
}
