package main

import (
	"context"
	"errors"
	"flag"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	mongodoc "github.com/sngm3741/storefinder/internal/infrastructure/mongo"
	"github.com/sngm3741/storefinder/internal/logger"
	"github.com/sngm3741/storefinder/internal/seed"
)

type seedOptions struct {
	envName         string
	storeCount      int
	reviewCount     int
	dropCollections bool
	randomSeed      int64
}

type collections struct {
	stores  string
	reviews string
	users   string
}

func main() {
	opts := parseFlags()

	if err := loadEnvFiles(opts.envName); err != nil {
		log.Fatalf("環境変数の読み込みに失敗しました: %v", err)
	}

	zl, err := logger.NewLogger("local")
	if err != nil {
		log.Fatalf("ロガーの初期化に失敗しました: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	cfg := collections{
		stores:  envOrDefault("STORE_COLLECTION", "stores"),
		reviews: envOrDefault("REVIEW_COLLECTION", "reviews"),
		users:   envOrDefault("USER_COLLECTION", "users"),
	}
	mongoURI := envOrDefault("MONGO_URI", "mongodb://localhost:27017")
	dbName := envOrDefault("MONGO_DB", "storefinder")

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		zl.Fatal("MongoDB 接続に失敗しました", zap.Error(err))
	}
	defer func() {
		_ = client.Disconnect(context.Background())
	}()

	db := client.Database(dbName)

	if opts.dropCollections {
		dropCollections(ctx, zl, db, cfg)
		zl.Info("既存コレクションを削除しました")
	}

	if err := mongodoc.EnsureIndexes(ctx, db, cfg.stores, cfg.reviews); err != nil {
		zl.Fatal("インデックス作成に失敗しました", zap.Error(err))
	}

	repo := mongodoc.NewStoreRepository(db, cfg.stores, cfg.reviews, 1)
	res, err := seed.Load(ctx, repo, seed.Options{
		Stores:     opts.storeCount,
		Reviews:    opts.reviewCount,
		RandomSeed: opts.randomSeed,
	})
	if err != nil {
		zl.Fatal("シード投入に失敗しました", zap.Error(err), zap.Int("stores", res.Stores), zap.Int("reviews", res.Reviews))
	}

	zl.Info("Seed 完了",
		zap.Int("stores", res.Stores),
		zap.Int("reviews", res.Reviews),
		zap.String("db", dbName),
		zap.String("env", opts.envName),
		zap.Int64("seed", opts.randomSeed),
	)
}

func parseFlags() seedOptions {
	var opts seedOptions
	flag.StringVar(&opts.envName, "env", "local", "env ディレクトリ内の env ファイル名 (例: local, staging)")
	flag.IntVar(&opts.storeCount, "stores", 20, "生成する店舗数")
	flag.IntVar(&opts.reviewCount, "reviews", 80, "生成するレビュー総数")
	flag.BoolVar(&opts.dropCollections, "drop", true, "既存コレクションを削除してから投入する")
	defaultSeed := time.Now().UnixNano()
	flag.Int64Var(&opts.randomSeed, "seed", defaultSeed, "乱数シード（再現用）")
	flag.Parse()

	if opts.storeCount <= 0 {
		log.Fatal("stores は 1 以上を指定してください")
	}
	if opts.reviewCount < 0 {
		opts.reviewCount = 0
	}
	return opts
}

// loadEnvFiles は env/shared.env と env/<name>.env を順に読み込む。
// 既に設定済みの環境変数は上書きしない。
func loadEnvFiles(envName string) error {
	base := filepath.Clean("env")
	files := []string{
		filepath.Join(base, "shared.env"),
		filepath.Join(base, envName+".env"),
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
	}
	return nil
}

func envOrDefault(key, fallback string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return fallback
}

func dropCollections(ctx context.Context, zl *zap.Logger, db *mongo.Database, cfg collections) {
	for _, name := range []string{cfg.stores, cfg.reviews, cfg.users} {
		if err := db.Collection(name).Drop(ctx); err != nil {
			// Drop は存在しない場合も err を返すので warning ログにとどめる
			zl.Warn("コレクションの削除に失敗", zap.String("collection", name), zap.Error(err))
		}
	}
}
