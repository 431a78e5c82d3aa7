package services

import "errors"

var (
	ErrPostNotFound        = errors.New("post_not_found")
	ErrCategoryNotFound    = errors.New("category_not_found")
	ErrUserNotFound        = errors.New("user_not_found")
	ErrInvalidID           = errors.New("invalid_id")
	ErrEmailTaken          = errors.New("email_already_registered")
	ErrInvalidCredentials  = errors.New("invalid_credentials")
	ErrInvalidRefreshToken = errors.New("invalid_refresh_token")
)

// ValidationError 는 요청 값 검증 실패를 나타낸다. Code 는 snake_case 에러 코드다.
type ValidationError struct {
	Code string
}

func (e *ValidationError) Error() string { return e.Code }

func invalid(code string) error { return &ValidationError{Code: code} }
