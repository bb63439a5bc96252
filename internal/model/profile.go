package model

// Profile 对端实体的展示资料
type Profile struct {
	EntityID    string `json:"entityId"`
	DisplayName string `json:"displayName"`
	AvatarURL   string `json:"avatarUrl"`
}
