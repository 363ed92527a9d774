package main

import (
	"context"
	"log"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/sngm3741/storefinder/internal/config"
	mongodoc "github.com/sngm3741/storefinder/internal/infrastructure/mongo"
	"github.com/sngm3741/storefinder/internal/logger"
	"github.com/sngm3741/storefinder/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("設定の読み込みに失敗しました: %v", err)
	}

	zl, err := logger.NewLogger(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("ロガーの初期化に失敗しました: %v", err)
	}
	defer func() { _ = zl.Sync() }()

	var client *mongo.Client
	if cfg.Backend == config.BackendMongo {
		client, err = connectMongo(cfg)
		if err != nil {
			zl.Fatal("MongoDB 接続に失敗しました", zap.Error(err))
		}
	}

	app, err := server.New(cfg, zl, client)
	if err != nil {
		zl.Fatal("サーバーの構成に失敗しました", zap.Error(err))
	}
	if err := app.Run(); err != nil {
		zl.Fatal("サーバーが異常終了しました", zap.Error(err))
	}
}

func connectMongo(cfg config.Config) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Timeout)
	defer cancel()

	clientOptions := options.Client().ApplyURI(cfg.MongoURI).SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1))
	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return nil, err
	}

	db := client.Database(cfg.MongoDatabase)
	if err := mongodoc.EnsureIndexes(ctx, db, cfg.StoreCollection, cfg.ReviewCollection); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}
	return client, nil
}
