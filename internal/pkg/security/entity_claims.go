package security

import (
	"github.com/golang-jwt/jwt/v5"
)

// EntityClaims 服务端签发的 Token 中携带的实体身份信息
type EntityClaims struct {
	EntityID   string `json:"entity_id"`
	EntityType string `json:"entity_type"`
	jwt.RegisteredClaims
}
