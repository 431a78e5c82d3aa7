package logger

import (
	"io"
	"os"
	"strings"
	"sync"

	"github.com/gookit/slog"
	"github.com/gookit/slog/handler"
)

// Logger 는 애플리케이션 전역에서 사용하는 최소 로거 인터페이스다.
type Logger interface {
	Debug(args ...any)
	Info(args ...any)
	Warn(args ...any)
	Error(args ...any)
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// Fields 는 구조화 로그를 위한 공통 필드 타입이다.
type Fields map[string]any

var (
	mu      sync.RWMutex
	log     *slog.Logger = NewLogger("info", os.Stdout)
	service string

	// Log 는 전역 로거 인스턴스다.
	// Init 이 호출되지 않더라도 기본 info 레벨로 동작한다.
	Log Logger = log
)

// Options 는 Setup 에 전달하는 전역 로거 설정이다.
type Options struct {
	Level string
	// Service 는 모든 로그의 service_name 필드가 된다. 비어 있으면 SERVICE_NAME 환경변수를 쓴다.
	Service string
	// Output 이 nil 이면 stdout 을 사용한다. blogcli 는 stderr 로 보낸다.
	Output io.Writer
}

// Setup 은 전역 로거를 교체한다.
func Setup(opts Options) {
	level := strings.ToLower(strings.TrimSpace(opts.Level))
	if level == "" {
		level = "info"
	}
	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	l := NewLogger(level, out)

	mu.Lock()
	defer mu.Unlock()
	log = l
	Log = l
	service = opts.Service
}

// Init 은 주어진 레벨 문자열로 전역 로거를 교체한다.
func Init(level string) {
	Setup(Options{Level: level})
}

// NewLogger 는 주어진 레벨로 out 에 쓰는 gookit/slog 기반 JSON 로거를 생성한다.
func NewLogger(level string, out io.Writer) *slog.Logger {
	logLevel := slog.LevelByName(level)

	var levels slog.Levels
	for _, lv := range slog.AllLevels {
		if lv <= logLevel {
			levels = append(levels, lv)
		}
	}

	h := handler.NewIOWriter(out, levels)
	// 기본 필드는 datetime/level/message 로만 제한하고 나머지 정보는
	// Fields(top-level 키)로만 출력한다.
	formatter := slog.NewJSONFormatter(func(f *slog.JSONFormatter) {
		f.Fields = []string{
			slog.FieldKeyDatetime,
			slog.FieldKeyLevel,
			slog.FieldKeyMessage,
		}
		f.Aliases = slog.StringMap{
			slog.FieldKeyDatetime: "datetime",
			slog.FieldKeyLevel:    "level",
			slog.FieldKeyMessage:  "message",
		}
		f.TimeFormat = "2006-01-02T15:04:05"
	})
	h.SetFormatter(formatter)

	return slog.NewWithHandlers(h)
}

// withServiceName 은 service_name 필드를 보강한다.
func withServiceName(fields Fields, sn string) Fields {
	if fields == nil {
		fields = Fields{}
	}
	if _, ok := fields["service_name"]; !ok {
		if sn == "" {
			sn = os.Getenv("SERVICE_NAME")
		}
		if sn != "" {
			fields["service_name"] = sn
		}
	}
	return fields
}

func current(fields Fields) (*slog.Logger, slog.M) {
	mu.RLock()
	defer mu.RUnlock()
	return log, slog.M(withServiceName(fields, service))
}

// InfoWithFields 는 request_id, span_id, service_name 등 구조화 필드를 포함한
// JSON 로그를 출력하기 위한 헬퍼 함수다.
func InfoWithFields(msg string, fields Fields) {
	l, m := current(fields)
	l.WithFields(m).Info(msg)
}

func DebugWithFields(msg string, fields Fields) {
	l, m := current(fields)
	l.WithFields(m).Debug(msg)
}

func WarnWithFields(msg string, fields Fields) {
	l, m := current(fields)
	l.WithFields(m).Warn(msg)
}

func ErrorWithFields(msg string, fields Fields) {
	l, m := current(fields)
	l.WithFields(m).Error(msg)
}
