package logger

import "regexp"

// secretFields 는 로그에 남기면 안 되는 JSON 필드 값을 가린다.
var secretFields = regexp.MustCompile(`"(password|refreshToken|accessToken)"\s*:\s*"[^"]*"`)

// Redact 는 로그로 남기기 전에 바디 스니펫의 비밀 JSON 필드를 가린다.
func Redact(body string) string {
	return secretFields.ReplaceAllString(body, `"$1":"***"`)
}
