package wire

import (
	"Nocturne/internal/api/config"
	"Nocturne/internal/job"
	"Nocturne/internal/pkg/cron"
	"Nocturne/internal/pkg/media"
	"Nocturne/internal/pkg/rest"
	"Nocturne/internal/pkg/security"
	"Nocturne/internal/pkg/ws"
	"Nocturne/internal/service"
	log "log/slog"
	"os"
	"strings"
	"time"
)

// ApplicationContainer 封装了同步层运行所需的所有顶级组件
type ApplicationContainer struct {
	Session       *security.Session
	API           *rest.Client
	Transport     *ws.Transport
	Conversations service.ConversationService
	Listener      *service.LiveListener
	Uploader      *media.Uploader
	CronMgr       *cron.Manager

	syncCfg config.SyncConfig
}

func BuildApplication(cfg *config.Config) (*ApplicationContainer, error) {
	session := security.NewSession(resolveToken(cfg.Auth))
	apiClient := rest.NewClient(cfg.API, session)

	cache := service.NewProfileCache(time.Duration(cfg.Sync.ProfileCacheTTL) * time.Minute)
	conversations := service.NewConversationService(
		apiClient, session, cache,
		time.Duration(cfg.Sync.DebounceMillis)*time.Millisecond,
	)

	transport := ws.NewTransport(cfg.WS, session)
	listener := service.NewLiveListener(transport, conversations)

	// 对象存储不可用时附件上传降级禁用，不阻塞消息同步
	uploader, err := media.NewUploader(cfg.MinIO)
	if err != nil {
		log.Warn("对象存储不可用，附件上传已禁用", "err", err)
		uploader = nil
	}

	cronMgr := cron.NewCronManager(
		job.NewConversationResyncJob(conversations),
		job.NewProfileSweepJob(cache),
	)

	return &ApplicationContainer{
		Session:       session,
		API:           apiClient,
		Transport:     transport,
		Conversations: conversations,
		Listener:      listener,
		Uploader:      uploader,
		CronMgr:       cronMgr,
		syncCfg:       cfg.Sync,
	}, nil
}

// OpenConversation 打开一个会话：构造同步器并把实时推送绑定到它
func (s *ApplicationContainer) OpenConversation(conversationID string) service.MessageService {
	ms := service.NewMessageService(s.API, s.Session, conversationID, s.syncCfg.PageSize)
	s.Listener.Bind(conversationID, ms)
	return ms
}

// CloseConversation 离开会话页
func (s *ApplicationContainer) CloseConversation() {
	s.Listener.Unbind()
}

// resolveToken 凭证优先取配置内联值，其次读取 token 文件
func resolveToken(cfg config.AuthConfig) string {
	if cfg.Token != "" {
		return cfg.Token
	}
	if cfg.TokenFile != "" {
		data, err := os.ReadFile(cfg.TokenFile)
		if err != nil {
			log.Warn("读取 token 文件失败", "path", cfg.TokenFile, "err", err)
			return ""
		}
		return strings.TrimSpace(string(data))
	}
	return ""
}
