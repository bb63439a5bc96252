package service

import (
	"Nocturne/internal/api/dto"
	"Nocturne/internal/model"
	"Nocturne/internal/pkg/consts"
	"Nocturne/internal/pkg/security"
	"Nocturne/internal/pkg/util"
	"context"
	log "log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jinzhu/copier"
	"golang.org/x/sync/errgroup"
)

// ConversationAPI 会话域后端契约（由 rest.Client 实现）
type ConversationAPI interface {
	GetConversations(ctx context.Context, accountID string) ([]dto.ConversationDTO, error)
	GetProfileByEntityID(ctx context.Context, entityID string) (*dto.ProfileResp, error)
	CreateOrGetConversation(ctx context.Context, entityA, entityB string) (*dto.ConversationDTO, error)
}

// ConversationService 会话列表加载器接口定义
type ConversationService interface {
	LoadConversations(ctx context.Context)
	Refresh(ctx context.Context)
	ScheduleReload()
	CreateOrGet(ctx context.Context, targetEntityID string) (*model.Conversation, error)
	Conversations() []model.Conversation
	Profiles() map[string]model.Profile
	Loading() bool
	Refreshing() bool
	Close()
}

type conversationServiceImpl struct {
	api      ConversationAPI
	session  *security.Session
	cache    *ProfileCache
	debounce *Debouncer

	// inFlight 是本层唯一的互斥手段：在途期间的重复触发直接丢弃
	inFlight atomic.Bool

	mu            sync.RWMutex
	conversations []model.Conversation
	profiles      map[string]model.Profile
	loading       bool
	refreshing    bool
}

// NewConversationService 构造函数。debounceDelay 为 0 时取 1 秒
func NewConversationService(api ConversationAPI, session *security.Session, cache *ProfileCache, debounceDelay time.Duration) ConversationService {
	s := &conversationServiceImpl{
		api:      api,
		session:  session,
		cache:    cache,
		profiles: make(map[string]model.Profile),
	}
	s.debounce = NewDebouncer(debounceDelay, func() {
		s.LoadConversations(context.Background())
	})
	return s
}

// LoadConversations 拉取会话列表并批量解析对端资料。
// 成功时整体替换列表与资料映射；失败时保留上一次的好状态。
func (s *conversationServiceImpl) LoadConversations(ctx context.Context) {
	claims := s.session.Identity()
	if claims == nil {
		// 无身份：不触网，复位加载态后直接返回
		s.mu.Lock()
		s.loading = false
		s.refreshing = false
		s.mu.Unlock()
		return
	}

	if !s.inFlight.CompareAndSwap(false, true) {
		return
	}
	defer s.inFlight.Store(false)

	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.loading = false
		s.refreshing = false
		s.mu.Unlock()
	}()

	dtos, err := s.api.GetConversations(ctx, claims.EntityID)
	if err != nil {
		log.Error("拉取会话列表失败", "err", err)
		return
	}

	conversations := make([]model.Conversation, 0, len(dtos))
	for i := range dtos {
		d := &dtos[i]
		if err := util.ValidateDTO(d); err != nil {
			log.Warn("会话数据不合法，已跳过", "id", d.ID, "err", err)
			continue
		}
		var conv model.Conversation
		if err := copier.Copy(&conv, d); err != nil {
			log.Warn("会话映射失败，已跳过", "id", d.ID, "err", err)
			continue
		}
		conv.DeriveOthers(claims.EntityID)
		conversations = append(conversations, conv)
	}

	profiles := s.resolveProfiles(ctx, conversations)

	s.mu.Lock()
	s.conversations = conversations
	s.profiles = profiles
	s.mu.Unlock()
}

// resolveProfiles 去重对端实体后并发拉取资料。
// 单个资料失败只会缺席映射，不影响整体结果。
func (s *conversationServiceImpl) resolveProfiles(ctx context.Context, conversations []model.Conversation) map[string]model.Profile {
	peerSet := make(map[string]struct{})
	for _, c := range conversations {
		for _, p := range c.OtherParticipants {
			peerSet[p.EntityID] = struct{}{}
		}
	}

	profiles := make(map[string]model.Profile, len(peerSet))
	missing := make([]string, 0, len(peerSet))
	for id := range peerSet {
		if p, ok := s.cache.Get(id); ok {
			profiles[id] = p
			continue
		}
		missing = append(missing, id)
	}

	var pmu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, id := range missing {
		g.Go(func() error {
			resp, err := s.api.GetProfileByEntityID(gctx, id)
			if err != nil {
				log.Warn("拉取对端资料失败", "entityID", id, "err", err)
				return nil
			}
			if resp == nil || !resp.Success || resp.Data == nil {
				return nil
			}
			profile := model.Profile{
				EntityID:    resp.Data.EntityID,
				DisplayName: resp.Data.DisplayName,
				AvatarURL:   resp.Data.AvatarURL,
			}
			if profile.AvatarURL == "" {
				profile.AvatarURL = consts.DefaultAvatarURL
			}
			s.cache.Set(id, profile)
			pmu.Lock()
			profiles[id] = profile
			pmu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	return profiles
}

// Refresh 下拉刷新语义：置位刷新标记，加载完成后无条件复位
func (s *conversationServiceImpl) Refresh(ctx context.Context) {
	s.mu.Lock()
	s.refreshing = true
	s.mu.Unlock()

	s.LoadConversations(ctx)

	s.mu.Lock()
	s.refreshing = false
	s.mu.Unlock()
}

// ScheduleReload 防抖重载：窗口内的重复触发合并为一次
func (s *conversationServiceImpl) ScheduleReload() {
	s.debounce.Trigger()
}

// CreateOrGet 获取或创建与目标实体的单聊会话
func (s *conversationServiceImpl) CreateOrGet(ctx context.Context, targetEntityID string) (*model.Conversation, error) {
	claims := s.session.Identity()
	if claims == nil {
		return nil, ErrNoCredential
	}
	if targetEntityID == "" || targetEntityID == claims.EntityID {
		return nil, ErrTargetInvalid
	}

	d, err := s.api.CreateOrGetConversation(ctx, claims.EntityID, targetEntityID)
	if err != nil {
		return nil, err
	}
	if d == nil {
		return nil, ErrConversationNotFound
	}

	var conv model.Conversation
	if err := copier.Copy(&conv, d); err != nil {
		return nil, err
	}
	conv.DeriveOthers(claims.EntityID)
	return &conv, nil
}

func (s *conversationServiceImpl) Conversations() []model.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.Conversation, len(s.conversations))
	copy(out, s.conversations)
	return out
}

func (s *conversationServiceImpl) Profiles() map[string]model.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make(map[string]model.Profile, len(s.profiles))
	for id, p := range s.profiles {
		out[id] = p
	}
	return out
}

func (s *conversationServiceImpl) Loading() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.loading
}

func (s *conversationServiceImpl) Refreshing() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshing
}

// Close 取消待生效的防抖重载
func (s *conversationServiceImpl) Close() {
	s.debounce.Stop()
}
