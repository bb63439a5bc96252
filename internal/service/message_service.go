package service

import (
	"Nocturne/internal/api/dto"
	"Nocturne/internal/model"
	"Nocturne/internal/pkg/consts"
	"Nocturne/internal/pkg/security"
	"Nocturne/internal/pkg/util"
	"context"
	"errors"
	log "log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

const defaultPageSize = 50

// MessageAPI 消息域后端契约（由 rest.Client 实现）
type MessageAPI interface {
	GetMessages(ctx context.Context, conversationID string, limit int, before *time.Time) (*dto.MessagePageDTO, error)
	SendMessage(ctx context.Context, conversationID string, req *dto.SendMessageReq) error
	MarkMessagesRead(ctx context.Context, conversationID, readerID string, lastReadID *string) error
}

// LoadOptions 分页参数。Before 非空时向更早方向翻页
type LoadOptions struct {
	Before *time.Time
	Limit  int
}

// MessageService 单会话消息同步器接口定义
type MessageService interface {
	LoadMessages(ctx context.Context, opts *LoadOptions)
	SendMessage(ctx context.Context, content, msgType string, attachments []model.Attachment) bool
	MarkAsRead(ctx context.Context)
	AddMessage(msg model.Message)
	Messages() []model.Message
	HasMore() bool
	Loading() bool
	LastError() string
}

type messageServiceImpl struct {
	api            MessageAPI
	session        *security.Session
	conversationID string
	pageSize       int

	// 分页与刷新不允许并发执行，避免乱序合并
	inFlight atomic.Bool

	mu       sync.RWMutex
	messages []model.Message
	hasMore  bool
	loading  bool
	lastErr  string
}

// NewMessageService 绑定到单个会话的同步器。pageSize 为 0 时取 50
func NewMessageService(api MessageAPI, session *security.Session, conversationID string, pageSize int) MessageService {
	if pageSize <= 0 {
		pageSize = defaultPageSize
	}
	return &messageServiceImpl{
		api:            api,
		session:        session,
		conversationID: conversationID,
		pageSize:       pageSize,
	}
}

// LoadMessages 拉取一页消息。Before 非空时合并进现有序列并重排，
// 否则整页替换。失败只记录错误文案，不清空已有消息。
func (s *messageServiceImpl) LoadMessages(ctx context.Context, opts *LoadOptions) {
	if s.conversationID == "" {
		return
	}
	if !s.inFlight.CompareAndSwap(false, true) {
		return
	}
	defer s.inFlight.Store(false)

	limit := s.pageSize
	var before *time.Time
	if opts != nil {
		if opts.Limit > 0 {
			limit = opts.Limit
		}
		before = opts.Before
	}

	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.loading = false
		s.mu.Unlock()
	}()

	page, err := s.api.GetMessages(ctx, s.conversationID, limit, before)
	if err != nil {
		log.Error("拉取消息失败", "conversationID", s.conversationID, "err", err)
		s.mu.Lock()
		s.lastErr = err.Error()
		s.mu.Unlock()
		return
	}
	if page == nil {
		page = &dto.MessagePageDTO{}
	}

	fetched := s.toModels(page.Data)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastErr = ""
	if before != nil {
		s.messages = mergeMessages(s.messages, fetched)
	} else {
		sortMessages(fetched)
		s.messages = fetched
	}
	// 分页元信息缺失按没有更多处理
	if page.Pagination != nil {
		s.hasMore = page.Pagination.HasMore
	} else {
		s.hasMore = false
	}
}

// SendMessage 发送消息。不做乐观插入，成功后由调用方决定何时重新同步
func (s *messageServiceImpl) SendMessage(ctx context.Context, content, msgType string, attachments []model.Attachment) bool {
	claims := s.session.Identity()
	if s.conversationID == "" || claims == nil {
		return false
	}
	if strings.TrimSpace(content) == "" {
		// 空白内容不触网
		return false
	}
	if msgType == "" {
		msgType = consts.MsgTypeText
	}

	req := &dto.SendMessageReq{
		Content:     content,
		MsgType:     msgType,
		SenderID:    claims.EntityID,
		EntityType:  claims.EntityType,
		EntityID:    claims.EntityID,
		ClientMsgID: uuid.NewString(),
	}
	if len(attachments) > 0 {
		if err := copier.Copy(&req.Attachments, &attachments); err != nil {
			log.Warn("附件映射失败", "err", err)
		}
	}

	if err := s.api.SendMessage(ctx, s.conversationID, req); err != nil {
		if errors.Is(err, ErrDuplicateSend) {
			// 服务端已收到同一条消息，按成功处理
			log.Warn("消息重复发送", "conversationID", s.conversationID)
			s.clearLastError()
			return true
		}
		log.Error("发送消息失败", "conversationID", s.conversationID, "err", err)
		s.mu.Lock()
		s.lastErr = err.Error()
		s.mu.Unlock()
		return false
	}
	s.clearLastError()
	return true
}

func (s *messageServiceImpl) clearLastError() {
	s.mu.Lock()
	s.lastErr = ""
	s.mu.Unlock()
}

// MarkAsRead 从尾部向前找最近一条非本人发送的消息作为已读位置。
// 全部为本人消息时上报空标记，避免服务端拒绝标记自己的消息。
func (s *messageServiceImpl) MarkAsRead(ctx context.Context) {
	claims := s.session.Identity()
	if s.conversationID == "" || claims == nil {
		return
	}

	var lastReadID *string
	s.mu.RLock()
	for i := len(s.messages) - 1; i >= 0; i-- {
		if s.messages[i].SenderID != claims.EntityID {
			id := s.messages[i].ID
			lastReadID = &id
			break
		}
	}
	s.mu.RUnlock()

	if err := s.api.MarkMessagesRead(ctx, s.conversationID, claims.EntityID, lastReadID); err != nil {
		log.Error("标记已读失败", "conversationID", s.conversationID, "err", err)
	}
}

// AddMessage 追加一条实时推送的消息，维持与加载路径一致的排序不变量
func (s *messageServiceImpl) AddMessage(msg model.Message) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.messages {
		if m.ID == msg.ID {
			return
		}
	}
	s.messages = append(s.messages, msg)
	sortMessages(s.messages)
}

func (s *messageServiceImpl) Messages() []model.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Message, len(s.messages))
	copy(out, s.messages)
	return out
}

func (s *messageServiceImpl) HasMore() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hasMore
}

func (s *messageServiceImpl) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *messageServiceImpl) LastError() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastErr
}

// toModels 边界校验后映射为内存模型，不合法的条目跳过
func (s *messageServiceImpl) toModels(dtos []dto.MessageDTO) []model.Message {
	out := make([]model.Message, 0, len(dtos))
	for i := range dtos {
		d := &dtos[i]
		if err := util.ValidateDTO(d); err != nil {
			log.Warn("消息数据不合法，已跳过", "id", d.ID, "err", err)
			continue
		}
		var msg model.Message
		if err := copier.Copy(&msg, d); err != nil {
			log.Warn("消息映射失败，已跳过", "id", d.ID, "err", err)
			continue
		}
		out = append(out, msg)
	}
	return out
}

// mergeMessages 合并两段消息：按 ID 去重后按创建时间稳定排序。
// 排序不信任网络返回顺序，乱序到达也能得到一致结果。
func mergeMessages(existing, incoming []model.Message) []model.Message {
	seen := make(map[string]struct{}, len(existing))
	merged := make([]model.Message, 0, len(existing)+len(incoming))
	for _, m := range existing {
		seen[m.ID] = struct{}{}
		merged = append(merged, m)
	}
	for _, m := range incoming {
		if _, ok := seen[m.ID]; ok {
			continue
		}
		merged = append(merged, m)
	}
	sortMessages(merged)
	return merged
}

func sortMessages(msgs []model.Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		return msgs[i].CreatedAt.Before(msgs[j].CreatedAt)
	})
}
