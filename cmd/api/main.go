package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/cors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"scholar-blog/cmd/api/auth"
	"scholar-blog/cmd/api/router"
	"scholar-blog/cmd/api/services"
	"scholar-blog/cmd/internal/logger"
	"scholar-blog/config"
	"scholar-blog/db"
	"scholar-blog/models"
	"scholar-blog/repositories"
	"scholar-blog/repositories/memstore"
)

const memoryURI = "memory://"

func main() {
	config.InitApp()
	cfg := config.GetConfig()
	logger.Setup(logger.Options{Level: cfg.Logging.Level, Service: "api"})
	gin.SetMode(gin.ReleaseMode)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	jwtManager, err := auth.NewJWTManager(cfg.Auth)
	if err != nil {
		logger.Log.Errorf("failed to initialize token issuer: %v", err)
		os.Exit(1)
	}

	deps, err := buildDeps(ctx, cfg)
	if err != nil {
		logger.Log.Errorf("failed to initialize storage: %v", err)
		os.Exit(1)
	}
	deps.Auth = services.NewAuthService(deps.users, jwtManager)
	deps.Tokens = jwtManager

	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           withCORS(router.New(deps.Deps), cfg.Server.CORSOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		storage := "mongo"
		if cfg.Mongo.URI == memoryURI {
			storage = "memory"
		}
		logger.InfoWithFields("api server listening", logger.Fields{"addr": srv.Addr, "storage": storage})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Log.Errorf("api server stopped: %v", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Log.Info("received shutdown signal, shutting down api server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Errorf("graceful shutdown failed: %v", err)
	}
	if err := db.Disconnect(shutdownCtx); err != nil {
		logger.Log.Warnf("mongo disconnect failed: %v", err)
	}
	logger.Log.Info("api server stopped")
}

// serverDeps 는 router.Deps 에 인증 서비스 조립용 사용자 저장소를 덧붙인다.
type serverDeps struct {
	router.Deps
	users services.UserStore
}

// buildDeps 는 설정된 저장소(MongoDB 또는 메모리)를 열고 포스트 서비스를 조립한다.
func buildDeps(ctx context.Context, cfg config.AppConfig) (serverDeps, error) {
	seed := make([]models.Category, 0, len(cfg.Server.SeedCategories))
	for _, name := range cfg.Server.SeedCategories {
		seed = append(seed, models.Category{Name: name, Slug: models.Slugify(name)})
	}

	if cfg.Mongo.URI == memoryURI {
		for i := range seed {
			seed[i].ID = primitive.NewObjectID()
			seed[i].CreatedAt = time.Now()
		}
		posts := memstore.NewPostRepository()
		cats := memstore.NewCategoryRepository(seed...)
		users := memstore.NewUserRepository()
		return serverDeps{
			Deps:  router.Deps{Posts: services.NewPostService(posts, cats, users)},
			users: users,
		}, nil
	}

	if err := db.Init(ctx); err != nil {
		return serverDeps{}, err
	}
	database := db.Database()
	posts := repositories.NewPostRepository(database)
	cats := repositories.NewCategoryRepository(database)
	users := repositories.NewUserRepository(database)

	for i := range seed {
		if _, err := cats.UpsertBySlug(ctx, &seed[i]); err != nil {
			return serverDeps{}, err
		}
	}

	return serverDeps{
		Deps: router.Deps{
			Posts: services.NewPostService(posts, cats, users),
			Health: func(ctx context.Context) error {
				return db.Client().Ping(ctx, readpref.Primary())
			},
		},
		users: users,
	}, nil
}

func withCORS(h http.Handler, origins []string) http.Handler {
	return cors.New(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "X-Request-Id"},
		ExposedHeaders:   []string{"X-Request-Id"},
		AllowCredentials: true,
	}).Handler(h)
}
