package service

import (
	"errors"
	"strings"
)

const (
	BadRequest          = 400
	Unauthorized        = 401
	NotFound            = 404
	InternalServerError = 500
)

var (
	ErrNoCredential         = errors.New("缺少登录凭据")
	ErrNoConversation       = errors.New("未绑定会话")
	ErrEmptyContent         = errors.New("消息内容为空")
	ErrConversationNotFound = errors.New("会话不存在")
	ErrTargetInvalid        = errors.New("目标实体无效")
	ErrDuplicateSend        = errors.New("重复发送")
	ErrMarkOwnMessage       = errors.New("不能将自己的消息标记为已读")
	ErrFollowExist          = errors.New("已关注该实体")
	UnauthorizedError       = errors.New("权限不足")
	UnExpectedError         = errors.New("系统异常，请稍后重试")
)

var ErrorMap = map[error]int{
	ErrNoCredential:         Unauthorized,
	ErrNoConversation:       BadRequest,
	ErrEmptyContent:         BadRequest,
	ErrConversationNotFound: NotFound,
	ErrTargetInvalid:        BadRequest,
	ErrDuplicateSend:        BadRequest,
	ErrMarkOwnMessage:       BadRequest,
	ErrFollowExist:          BadRequest,
	UnauthorizedError:       Unauthorized,
	UnExpectedError:         InternalServerError,
}

// MatchConflict 后端未返回结构化错误码时，按文案兜底识别冲突类错误。
// 这是对旧接口的容忍策略，匹配不到时返回 nil。
func MatchConflict(message string) error {
	msg := strings.ToLower(message)
	switch {
	case strings.Contains(msg, "cannot mark own message"):
		return ErrMarkOwnMessage
	case strings.Contains(msg, "already following"):
		return ErrFollowExist
	case strings.Contains(msg, "already sent"), strings.Contains(msg, "duplicate"):
		return ErrDuplicateSend
	}
	return nil
}
