package model

import "time"

// Attachment 消息附件
type Attachment struct {
	URL      string `json:"url"`
	MimeType string `json:"mimeType"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
}

// Message 消息。已加载序列内按 CreatedAt 非降序维护
type Message struct {
	ID             string       `json:"id"`
	ConversationID string       `json:"conversationId"`
	SenderID       string       `json:"senderId"`
	SenderType     string       `json:"senderType"`
	Content        string       `json:"content"`
	MsgType        string       `json:"msgType"`
	Attachments    []Attachment `json:"attachments"`
	SharedStoryID  *string      `json:"sharedStoryId"`
	SharedPostID   *string      `json:"sharedPostId"`
	CreatedAt      time.Time    `json:"createdAt"`
	UpdatedAt      time.Time    `json:"updatedAt"`
}
