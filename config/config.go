package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const ENV_FILE = ".env"
const CONFIG_FILE = "config.yaml"

type AppConfig struct {
	Logging LoggingConfig `yaml:"logging" envPrefix:"BLOG_LOG_"`
	Server  ServerConfig  `yaml:"server" envPrefix:"BLOG_SERVER_"`
	Mongo   MongoConfig   `yaml:"mongo" envPrefix:"BLOG_MONGO_"`
	Auth    AuthConfig    `yaml:"auth" envPrefix:"BLOG_AUTH_"`
	Client  ClientConfig  `yaml:"client" envPrefix:"BLOG_CLIENT_"`
	Filter  FilterConfig  `yaml:"filter" envPrefix:"BLOG_FILTER_"`
}

type LoggingConfig struct {
	Level string `yaml:"level" env:"LEVEL"`
}

type ServerConfig struct {
	Addr        string   `yaml:"addr" env:"ADDR"`
	CORSOrigins []string `yaml:"cors_origins" env:"CORS_ORIGINS" envSeparator:","`
	// SeedCategories 는 기동 시 slug 기준으로 upsert 되는 카테고리 이름 목록이다.
	SeedCategories []string `yaml:"seed_categories" env:"SEED_CATEGORIES" envSeparator:","`
}

// MongoConfig 의 URI 가 "memory://" 이면 API 서버는 프로세스 메모리 저장소를 사용한다.
type MongoConfig struct {
	URI    string `yaml:"uri" env:"URI"`
	DBName string `yaml:"db_name" env:"DB_NAME"`
}

// AuthConfig 는 API 서버의 토큰 발급 설정이다.
// Secret 은 config.yaml 에 두지 말고 BLOG_AUTH_JWT_SECRET 으로 주입한다.
type AuthConfig struct {
	JWTSecret  string        `yaml:"jwt_secret" env:"JWT_SECRET"`
	Issuer     string        `yaml:"issuer" env:"ISSUER"`
	AccessTTL  time.Duration `yaml:"access_ttl" env:"ACCESS_TTL"`
	RefreshTTL time.Duration `yaml:"refresh_ttl" env:"REFRESH_TTL"`
}

// ClientConfig 는 blogcli 가 API 서버를 호출할 때 사용하는 설정이다.
type ClientConfig struct {
	BaseURL string        `yaml:"base_url" env:"BASE_URL"`
	Timeout time.Duration `yaml:"timeout" env:"TIMEOUT"`

	// CredentialStore 는 "file", "redis", "memory" 중 하나다.
	CredentialStore string `yaml:"credential_store" env:"CREDENTIAL_STORE"`
	CredentialFile  string `yaml:"credential_file" env:"CREDENTIAL_FILE"`
	RedisURL        string `yaml:"redis_url" env:"REDIS_URL"`
	RedisKey        string `yaml:"redis_key" env:"REDIS_KEY"`

	// PublicPaths 는 401 이어도 토큰 갱신을 시도하지 않는 경로 패턴이다.
	// "GET /posts/*" 처럼 메서드를 앞에 붙일 수 있다.
	PublicPaths []string `yaml:"public_paths" env:"PUBLIC_PATHS" envSeparator:","`

	// PostWindow 는 필터링 전에 한 번에 가져오는 포스트 개수다.
	PostWindow int `yaml:"post_window" env:"POST_WINDOW"`
}

type FilterConfig struct {
	PageSize int           `yaml:"page_size" env:"PAGE_SIZE"`
	Debounce time.Duration `yaml:"debounce" env:"DEBOUNCE"`
}

var (
	mu     sync.Mutex
	config *AppConfig
)

// InitApp 은 .env, config.yaml, BLOG_* 환경변수를 읽는다.
// config.yaml 이 없으면 기본값으로 동작한다.
func InitApp() {
	c, err := Load(GetBasePath())
	if err != nil {
		panic(err)
	}
	mu.Lock()
	config = c
	mu.Unlock()
}

// Load 는 dir 기준으로 설정을 읽는다. 우선순위는
// 기본값 < config.yaml < 환경변수 순이다.
func Load(dir string) (*AppConfig, error) {
	// 환경변수 로드
	_ = godotenv.Load(filepath.Join(dir, ENV_FILE))

	c := Default()

	// 설정 파일 로드
	data, err := os.ReadFile(filepath.Join(dir, CONFIG_FILE))
	switch {
	case err == nil:
		if err := yaml.Unmarshal(data, c); err != nil {
			return nil, fmt.Errorf("parse %s: %w", CONFIG_FILE, err)
		}
	case os.IsNotExist(err):
	default:
		return nil, err
	}

	if err := env.Parse(c); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return c, nil
}

// Default 는 내장 기본 설정을 반환한다.
func Default() *AppConfig {
	return &AppConfig{
		Logging: LoggingConfig{Level: "info"},
		Server: ServerConfig{
			Addr:        ":8080",
			CORSOrigins:    []string{"http://localhost:3000"},
			SeedCategories: []string{"Biology", "Virology", "Chemistry", "Physics"},
		},
		Mongo: MongoConfig{
			URI:    "mongodb://localhost:27017",
			DBName: "scholarblog",
		},
		Auth: AuthConfig{
			Issuer:     "scholar-blog",
			AccessTTL:  15 * time.Minute,
			RefreshTTL: 7 * 24 * time.Hour,
		},
		Client: ClientConfig{
			BaseURL:         "http://localhost:8080/api/v1",
			Timeout:         10 * time.Second,
			CredentialStore: "file",
			RedisKey:        "blogcli:session",
			PublicPaths: []string{
				"/auth/login",
				"/auth/register",
				"/auth/refresh-token",
				"GET /posts",
				"GET /posts/*",
				"GET /posts/search/suggestions",
				"POST /posts/*/view",
				"GET /categories",
			},
			PostWindow: 100,
		},
		Filter: FilterConfig{
			PageSize: 9,
			Debounce: 300 * time.Millisecond,
		},
	}
}

func GetConfig() AppConfig {
	mu.Lock()
	loaded := config != nil
	mu.Unlock()
	if !loaded {
		InitApp()
	}

	mu.Lock()
	defer mu.Unlock()
	return *config
}

func GetBasePath() string {
	cwd, err := os.Getwd()
	if err != nil {
		return ""
	}

	dir := cwd
	for {
		cfgPath := filepath.Join(dir, CONFIG_FILE)
		if info, err := os.Stat(cfgPath); err == nil && !info.IsDir() {
			return dir
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	return cwd
}
