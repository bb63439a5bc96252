package security

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

func signToken(t *testing.T, claims *EntityClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return token
}

func TestIdentityFromSignedToken(t *testing.T) {
	token := signToken(t, &EntityClaims{
		EntityID:   "u-100",
		EntityType: "personal",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	})

	claims := NewSession(token).Identity()
	if claims == nil {
		t.Fatal("expected identity from valid token")
	}
	if claims.EntityID != "u-100" || claims.EntityType != "personal" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestIdentityEmptyToken(t *testing.T) {
	if NewSession("").Identity() != nil {
		t.Fatal("empty token should yield nil identity")
	}
}

func TestIdentityExpiredToken(t *testing.T) {
	token := signToken(t, &EntityClaims{
		EntityID: "u-100",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		},
	})

	if NewSession(token).Identity() != nil {
		t.Fatal("expired token should yield nil identity")
	}
}

func TestIdentityMissingEntityID(t *testing.T) {
	token := signToken(t, &EntityClaims{EntityType: "personal"})

	if NewSession(token).Identity() != nil {
		t.Fatal("token without entity id should yield nil identity")
	}
}

func TestIdentityGarbageToken(t *testing.T) {
	if NewSession("not-a-jwt").Identity() != nil {
		t.Fatal("malformed token should yield nil identity")
	}
}

func TestStaticSession(t *testing.T) {
	s := NewStaticSession("tok", "bar-7", "bar")

	claims := s.Identity()
	if claims == nil || claims.EntityID != "bar-7" || claims.EntityType != "bar" {
		t.Fatalf("unexpected static identity: %+v", claims)
	}
	if s.Token() != "tok" {
		t.Fatalf("Token = %q", s.Token())
	}
}

func TestSetTokenSwitchesIdentity(t *testing.T) {
	s := NewSession("")
	if s.Identity() != nil {
		t.Fatal("expected nil identity before login")
	}

	s.SetToken(signToken(t, &EntityClaims{EntityID: "u-200"}))
	claims := s.Identity()
	if claims == nil || claims.EntityID != "u-200" {
		t.Fatalf("unexpected claims after SetToken: %+v", claims)
	}
}
