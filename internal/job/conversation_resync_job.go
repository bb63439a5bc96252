package job

import (
	"Nocturne/internal/pkg/logger"
	"Nocturne/internal/service"
	"context"
	log "log/slog"
	"time"

	"github.com/google/uuid"
)

// ConversationResyncJob 周期性兜底刷新会话列表。
// 实时推送提供即时性，这里提供推送丢失后的最终一致。
type ConversationResyncJob struct {
	conversations service.ConversationService
}

func NewConversationResyncJob(conversations service.ConversationService) *ConversationResyncJob {
	return &ConversationResyncJob{conversations: conversations}
}

func (s *ConversationResyncJob) Run() {
	traceID := "job-resync-" + uuid.NewString()
	ctx := context.WithValue(context.Background(), logger.TraceIDKey, traceID)
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	s.conversations.LoadConversations(ctx)
	log.InfoContext(ctx, "ConversationResyncJob finished")
}
