package consts

// 实时事件名
const (
	EventNewMessage   = "new_message"
	EventMessagesRead = "messages_read"
)

// 消息类型（开放式分类，服务端可扩展）
const (
	MsgTypeText       = "text"
	MsgTypeImage      = "image"
	MsgTypeStoryReply = "story_reply"
	MsgTypePostShare  = "post_share"
)

// 实体类型：一个账号可以以多种身份发言
const (
	EntityTypePersonal = "personal"
	EntityTypeBar      = "bar"
	EntityTypeDJ       = "dj"
)

const (
	MimePrefixImage = "image"
	MimePrefixAudio = "audio"
	MimePrefixVideo = "video"
)

const (
	DefaultAvatarURL = "default_avatar.png"
)
