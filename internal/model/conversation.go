package model

import "time"

// Participant 会话参与方身份
type Participant struct {
	EntityID   string `json:"entityId"`
	EntityType string `json:"entityType"`
}

// Conversation 客户端侧会话投影。服务端为唯一写方，
// 本地只读并整体替换，不做增量修补。
type Conversation struct {
	ID                 string            `json:"id"`
	Type               string            `json:"type"`
	Participants       []Participant     `json:"participants"`
	LastMessageID      *string           `json:"lastMessageId"`
	LastMessagePreview string            `json:"lastMessagePreview"`
	LastMessageAt      *time.Time        `json:"lastMessageAt"`
	ParticipantStatus  map[string]string `json:"participantStatus"`
	UnreadCount        uint64            `json:"unreadCount"`

	// OtherParticipants 派生字段：排除当前实体之后的对端列表
	OtherParticipants []Participant `json:"otherParticipants"`
}

// DeriveOthers 重算 OtherParticipants，唯一排除项是当前实体
func (c *Conversation) DeriveOthers(selfEntityID string) {
	others := make([]Participant, 0, len(c.Participants))
	for _, p := range c.Participants {
		if p.EntityID == selfEntityID {
			continue
		}
		others = append(others, p)
	}
	c.OtherParticipants = others
}
