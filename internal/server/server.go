package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/sngm3741/storefinder/internal/config"
	"github.com/sngm3741/storefinder/internal/infrastructure/media"
	"github.com/sngm3741/storefinder/internal/infrastructure/memory"
	mongodoc "github.com/sngm3741/storefinder/internal/infrastructure/mongo"
	"github.com/sngm3741/storefinder/internal/infrastructure/redis"
	publichttp "github.com/sngm3741/storefinder/internal/interfaces/http/public"
	publicapp "github.com/sngm3741/storefinder/internal/public/application"
	"github.com/sngm3741/storefinder/internal/seed"
)

// Demo data set loaded into the memory backend when SEED_DEMO is on.
const (
	demoStores     = 20
	demoReviews    = 80
	demoRandomSeed = 1
)

// Server は HTTP サーバーのライフサイクルを管理し、ハンドラへ依存注入するコンポジションルート。
type Server struct {
	logger         *zap.Logger
	addr           string
	client         *mongo.Client
	cache          *redis.Client
	uploadsDir     string
	jwtConfigs     []config.JWTConfig
	jwtAudience    string
	allowedOrigins []string
	public         *publichttp.Handler
}

// New は Config を受け取り、ストアバックエンド・キャッシュ・画像取り込みを組み立てた Server を返す。
// client は STORE_BACKEND=mongo のときだけ必須。
func New(cfg config.Config, logger *zap.Logger, client *mongo.Client) (*Server, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	var (
		stores publicapp.StoreRepository
		users  publicapp.UserRepository
	)
	switch cfg.Backend {
	case config.BackendMongo:
		if client == nil {
			return nil, errors.New("mongo backend requires a connected client")
		}
		db := client.Database(cfg.MongoDatabase)
		stores = mongodoc.NewStoreRepository(db, cfg.StoreCollection, cfg.ReviewCollection, cfg.TopMinReviews)
		users = mongodoc.NewUserRepository(db, cfg.UserCollection)
	case config.BackendMemory:
		repo := memory.NewStoreRepository(cfg.TopMinReviews)
		if cfg.SeedDemo {
			res, err := seed.Load(context.Background(), repo, seed.Options{
				Stores:     demoStores,
				Reviews:    demoReviews,
				RandomSeed: demoRandomSeed,
			})
			if err != nil {
				return nil, fmt.Errorf("seed memory backend: %w", err)
			}
			logger.Info("デモデータを投入しました", zap.Int("stores", res.Stores), zap.Int("reviews", res.Reviews))
		}
		stores = repo
		users = memory.NewUserRepository()
	default:
		return nil, fmt.Errorf("unknown store backend %q", cfg.Backend)
	}

	srv := &Server{
		logger:         logger,
		addr:           cfg.Addr,
		client:         client,
		uploadsDir:     cfg.UploadsDir,
		jwtConfigs:     append([]config.JWTConfig(nil), cfg.JWTConfigs...),
		jwtAudience:    cfg.JWTAudience,
		allowedOrigins: append([]string(nil), cfg.AllowedOrigins...),
	}

	if len(cfg.RedisAddrs) > 0 {
		cache, err := redis.NewClient(redis.Config{Addrs: cfg.RedisAddrs, Password: cfg.RedisPassword})
		if err != nil {
			return nil, err
		}
		srv.cache = cache
		stores = redis.NewCachedStoreRepository(stores, cache, cfg.CacheTTL, logger)
		logger.Info("Redis キャッシュを有効化しました", zap.Strings("addrs", cfg.RedisAddrs))
	}

	files, err := media.NewLocalFileStore(cfg.UploadsDir)
	if err != nil {
		srv.closeCache()
		return nil, err
	}
	photos := media.NewIngestor(files, cfg.PhotoWidth, logger)

	srv.public = publichttp.NewHandler(publichttp.Config{
		Logger:    logger,
		Discovery: publicapp.NewDiscoveryService(stores),
		Favorites: publicapp.NewFavoritesService(users, stores),
		Commands:  publicapp.NewStoreCommandService(stores, photos),
		Reviews:   publicapp.NewReviewService(stores),
	})

	logger.Info("サーバーを構成しました",
		zap.String("backend", cfg.Backend),
		zap.String("uploads", files.Dir()),
		zap.Int("photoWidth", cfg.PhotoWidth),
	)
	return srv, nil
}

// Run はHTTPサーバーを起動し、シグナルを受けるかサーバーが停止するまでブロックする。
func (s *Server) Run() error {
	httpServer := &http.Server{
		Addr:              s.addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errChan := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP サーバー起動", zap.String("addr", s.addr))
		errChan <- httpServer.ListenAndServe()
	}()

	return s.waitForShutdown(httpServer, errChan)
}

// waitForShutdown は ListenAndServe の終了と OS シグナルを監視し、graceful shutdown を行う。
func (s *Server) waitForShutdown(httpServer *http.Server, errChan <-chan error) error {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	var runErr error
	select {
	case err := <-errChan:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			runErr = fmt.Errorf("http server: %w", err)
		}
	case sig := <-sigChan:
		s.logger.Info("シグナルを受信。サーバー停止処理を開始します", zap.String("signal", sig.String()))
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			s.logger.Error("サーバー停止時にエラー", zap.Error(err))
		}
	}

	s.shutdown(context.Background())
	return runErr
}

// shutdown は外部接続をタイムアウト付きで閉じる。
func (s *Server) shutdown(ctx context.Context) {
	s.closeCache()
	if s.client == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.client.Disconnect(shutdownCtx); err != nil {
		s.logger.Warn("MongoDB 切断時にエラー", zap.Error(err))
	}
}

func (s *Server) closeCache() {
	if s.cache != nil {
		s.cache.Close()
		s.cache = nil
	}
}
