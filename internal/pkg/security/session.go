package security

import (
	log "log/slog"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session 持有当前登录实体的凭证。凭证由外部登录流程签发，
// 本层只读取自己的 Claims，不做签名校验。
type Session struct {
	mu     sync.RWMutex
	token  string
	static *EntityClaims // 测试与本地调试用的固定身份
}

func NewSession(token string) *Session {
	return &Session{token: token}
}

// NewStaticSession 直接指定实体身份，绕过 Token 解析
func NewStaticSession(token, entityID, entityType string) *Session {
	return &Session{
		token:  token,
		static: &EntityClaims{EntityID: entityID, EntityType: entityType},
	}
}

// Token 返回当前凭证，未登录时为空串
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token
}

// SetToken 登录态变更入口（刷新 Token 亦走此处）
func (s *Session) SetToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// Identity 解析凭证得到实体身份。凭证缺失或已过期时返回 nil，
// 上层据此将所有操作静默短路。
func (s *Session) Identity() *EntityClaims {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.static != nil {
		return s.static
	}
	if s.token == "" {
		return nil
	}

	claims := &EntityClaims{}
	parser := jwt.NewParser()
	if _, _, err := parser.ParseUnverified(s.token, claims); err != nil {
		log.Warn("Token 解析失败", "err", err)
		return nil
	}
	if claims.ExpiresAt != nil && time.Now().After(claims.ExpiresAt.Time) {
		return nil
	}
	if claims.EntityID == "" {
		return nil
	}
	return claims
}
