package dto

import (
	"time"

	"github.com/goccy/go-json"
)

// Envelope 后端统一响应封装
type Envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// ParticipantDTO 会话参与方
type ParticipantDTO struct {
	EntityID   string `json:"entity_id" validate:"required"`
	EntityType string `json:"entity_type"`
}

// ConversationDTO 会话
type ConversationDTO struct {
	ID                 string            `json:"id" validate:"required"`
	Type               string            `json:"type"`
	Participants       []ParticipantDTO  `json:"participants" validate:"dive"`
	LastMessageID      *string           `json:"last_message_id"`
	LastMessagePreview string            `json:"last_message_preview"`
	LastMessageAt      *time.Time        `json:"last_message_at"`
	ParticipantStatus  map[string]string `json:"participant_status"`
	UnreadCount        uint64            `json:"unread_count"`
}

// AttachmentDTO 消息附件
type AttachmentDTO struct {
	URL      string `json:"url" validate:"required"`
	MimeType string `json:"mime_type"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// MessageDTO 消息明细
type MessageDTO struct {
	ID             string          `json:"id" validate:"required"`
	ConversationID string          `json:"conversation_id" validate:"required"`
	SenderID       string          `json:"sender_id"`
	SenderType     string          `json:"sender_type"`
	Content        string          `json:"content"`
	MsgType        string          `json:"msg_type"`
	Attachments    []AttachmentDTO `json:"attachments"`
	SharedStoryID  *string         `json:"shared_story_id"`
	SharedPostID   *string         `json:"shared_post_id"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// PaginationDTO 分页元信息，缺失时按没有更多处理
type PaginationDTO struct {
	HasMore bool `json:"has_more"`
}

// MessagePageDTO 消息分页响应
type MessagePageDTO struct {
	Data       []MessageDTO   `json:"data"`
	Pagination *PaginationDTO `json:"pagination"`
}

// SendMessageReq 发送消息请求体
type SendMessageReq struct {
	Content     string          `json:"content" validate:"required"`
	MsgType     string          `json:"msg_type" validate:"required"`
	SenderID    string          `json:"sender_id" validate:"required"`
	EntityType  string          `json:"entity_type" validate:"required"`
	EntityID    string          `json:"entity_id" validate:"required"`
	ClientMsgID string          `json:"client_msg_id"`
	Attachments []AttachmentDTO `json:"attachments,omitempty"`
	Metadata    map[string]any  `json:"metadata,omitempty"`
}

// MarkReadReq 标记已读请求体。LastReadMessageID 为空表示没有可标记的对端消息
type MarkReadReq struct {
	ReaderID          string  `json:"reader_id" validate:"required"`
	LastReadMessageID *string `json:"last_read_message_id"`
}

// ProfileDTO 公开资料投影
type ProfileDTO struct {
	EntityID    string `json:"entity_id" validate:"required"`
	DisplayName string `json:"display_name"`
	AvatarURL   string `json:"avatar_url"`
}

// ProfileResp getByEntityId 的响应外层
type ProfileResp struct {
	Success bool        `json:"success"`
	Data    *ProfileDTO `json:"data"`
}

// EventFrame 实时事件帧
type EventFrame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// ReadReceiptDTO messages_read 事件体
type ReadReceiptDTO struct {
	ConversationID    string `json:"conversation_id"`
	ReaderID          string `json:"reader_id"`
	LastReadMessageID string `json:"last_read_message_id"`
}
