package services

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"scholar-blog/cmd/api/auth"
	"scholar-blog/dto"
	"scholar-blog/models"
	"scholar-blog/repositories"
)

// UserStore 는 *repositories.UserRepository 가 구현한다.
type UserStore interface {
	Insert(ctx context.Context, u *models.User) error
	FindByEmail(ctx context.Context, email string) (*models.User, error)
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.User, error)
}

type AuthService struct {
	users      UserStore
	jwtManager *auth.JWTManager
}

func NewAuthService(users UserStore, jwtManager *auth.JWTManager) *AuthService {
	return &AuthService{users: users, jwtManager: jwtManager}
}

// Register 는 reader 계정을 만들고 바로 로그인 토큰을 발급한다.
func (s *AuthService) Register(ctx context.Context, in dto.RegisterRequest) (dto.LoginResponseDTO, error) {
	email := strings.ToLower(strings.TrimSpace(in.Email))
	if _, err := mail.ParseAddress(email); err != nil {
		return dto.LoginResponseDTO{}, invalid("invalid_email")
	}
	if len(in.Password) < auth.MinPasswordLength {
		return dto.LoginResponseDTO{}, invalid("password_too_short")
	}
	first, last := strings.TrimSpace(in.FirstName), strings.TrimSpace(in.LastName)
	if first == "" || last == "" {
		return dto.LoginResponseDTO{}, invalid("name_required")
	}

	hash, err := auth.HashPassword(in.Password)
	if err != nil {
		return dto.LoginResponseDTO{}, fmt.Errorf("hash password: %w", err)
	}
	u := &models.User{
		Email:        email,
		PasswordHash: hash,
		FirstName:    first,
		LastName:     last,
		Role:         models.RoleReader,
	}
	if err := s.users.Insert(ctx, u); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			return dto.LoginResponseDTO{}, ErrEmailTaken
		}
		return dto.LoginResponseDTO{}, err
	}
	return s.issue(u)
}

// Login 은 이메일/비밀번호를 확인하고 access/refresh 토큰 쌍을 발급한다.
// 존재하지 않는 이메일과 틀린 비밀번호는 같은 에러로 응답한다.
func (s *AuthService) Login(ctx context.Context, in dto.LoginRequest) (dto.LoginResponseDTO, error) {
	u, err := s.users.FindByEmail(ctx, in.Email)
	if errors.Is(err, repositories.ErrNotFound) {
		return dto.LoginResponseDTO{}, ErrInvalidCredentials
	}
	if err != nil {
		return dto.LoginResponseDTO{}, err
	}
	if err := auth.CheckPassword(u.PasswordHash, in.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return dto.LoginResponseDTO{}, ErrInvalidCredentials
		}
		return dto.LoginResponseDTO{}, err
	}
	return s.issue(u)
}

// Refresh 는 refresh 토큰으로 새 access 토큰을 발급한다.
// role 은 토큰이 아니라 현재 사용자 문서에서 읽는다.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.jwtManager.ParseRefresh(refreshToken)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidRefreshToken, err)
	}
	uid, err := primitive.ObjectIDFromHex(claims.Subject)
	if err != nil {
		return "", ErrInvalidRefreshToken
	}
	u, err := s.users.FindByID(ctx, uid)
	if errors.Is(err, repositories.ErrNotFound) {
		return "", ErrInvalidRefreshToken
	}
	if err != nil {
		return "", err
	}
	return s.jwtManager.SignAccess(u.ID.Hex(), u.Role)
}

// Me 는 userID 의 프로필을 반환한다.
func (s *AuthService) Me(ctx context.Context, userID string) (dto.UserProfileDTO, error) {
	uid, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return dto.UserProfileDTO{}, ErrUserNotFound
	}
	u, err := s.users.FindByID(ctx, uid)
	if errors.Is(err, repositories.ErrNotFound) {
		return dto.UserProfileDTO{}, ErrUserNotFound
	}
	if err != nil {
		return dto.UserProfileDTO{}, err
	}
	return dto.NewUserProfileDTO(*u), nil
}

func (s *AuthService) issue(u *models.User) (dto.LoginResponseDTO, error) {
	access, refresh, err := s.jwtManager.IssuePair(u.ID.Hex(), u.Role)
	if err != nil {
		return dto.LoginResponseDTO{}, fmt.Errorf("jwt sign: %w", err)
	}
	return dto.LoginResponseDTO{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         dto.NewUserProfileDTO(*u),
	}, nil
}
