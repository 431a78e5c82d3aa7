package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"scholar-blog/config"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

var (
	ErrTokenExpired   = errors.New("token_expired")
	ErrInvalidToken   = errors.New("invalid_token")
	ErrWrongTokenType = errors.New("wrong_token_type")
)

// Claims 는 access/refresh 토큰 공통 클레임이다.
// Subject 는 사용자 ID(hex) 이고, refresh 토큰에는 Role 이 비어 있다.
type Claims struct {
	Role      string `json:"role,omitempty"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

// JWTManager 는 HS256 단일 시크릿 문자열을 사용해 JWT 를 발급/검증한다.
type JWTManager struct {
	secret     []byte
	issuer     string
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
}

// NewJWTManager 는 AuthConfig 로 JWTManager 를 생성한다.
//
// - JWTSecret: HS256 서명에 사용할 시크릿 문자열(필수)
// - Issuer: iss 클레임 값(선택, 기본값 "scholar-blog")
func NewJWTManager(cfg config.AuthConfig) (*JWTManager, error) {
	if cfg.JWTSecret == "" {
		return nil, fmt.Errorf("jwt secret is required (BLOG_AUTH_JWT_SECRET)")
	}

	issuer := cfg.Issuer
	if issuer == "" {
		issuer = "scholar-blog"
	}
	accessTTL := cfg.AccessTTL
	if accessTTL <= 0 {
		accessTTL = 15 * time.Minute
	}
	refreshTTL := cfg.RefreshTTL
	if refreshTTL <= 0 {
		refreshTTL = 7 * 24 * time.Hour
	}

	return &JWTManager{
		secret:     []byte(cfg.JWTSecret),
		issuer:     issuer,
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
	}, nil
}

// IssuePair 는 access + refresh 토큰 쌍을 발급한다.
func (m *JWTManager) IssuePair(userID, role string) (access string, refresh string, err error) {
	access, err = m.SignAccess(userID, role)
	if err != nil {
		return "", "", err
	}
	refresh, err = m.sign(userID, "", TokenTypeRefresh, m.refreshTTL)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

func (m *JWTManager) SignAccess(userID, role string) (string, error) {
	return m.sign(userID, role, TokenTypeAccess, m.accessTTL)
}

func (m *JWTManager) sign(userID, role, tokenType string, ttl time.Duration) (string, error) {
	now := m.now()
	claims := Claims{
		Role:      role,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ParseAccess 는 access 토큰을 검증하고 클레임을 반환한다.
func (m *JWTManager) ParseAccess(tokenString string) (*Claims, error) {
	return m.parse(tokenString, TokenTypeAccess)
}

// ParseRefresh 는 refresh 토큰을 검증하고 클레임을 반환한다.
func (m *JWTManager) ParseRefresh(tokenString string) (*Claims, error) {
	return m.parse(tokenString, TokenTypeRefresh)
}

func (m *JWTManager) parse(tokenString, wantType string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	},
		jwt.WithIssuer(m.issuer),
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if !parsed.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Subject == "" {
		return nil, fmt.Errorf("%w: token missing sub claim", ErrInvalidToken)
	}
	if claims.TokenType != wantType {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}
