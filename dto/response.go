package dto

// Response is the common envelope: {success, data} or {success:false, error}.
type Response[T any] struct {
	Success bool   `json:"success"`
	Data    T      `json:"data,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ErrorResponseDTO is the shared error body: {success:false, error}.
type ErrorResponseDTO struct {
	Success bool   `json:"success"`
	Error   string `json:"error" example:"invalid_token"`
}

// MessageResponseDTO is a plain {success, message} body.
type MessageResponseDTO struct {
	Success bool   `json:"success"`
	Message string `json:"message" example:"view count incremented successfully"`
}

func OK[T any](data T) Response[T] {
	return Response[T]{Success: true, Data: data}
}

func Fail(code string) ErrorResponseDTO {
	return ErrorResponseDTO{Success: false, Error: code}
}
