package infra

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/x/mongo/driver/connstring"

	"config-envelope-service/internal/domain"
)

// defaultMongoDatabase は接続文字列にDB名がない場合に使うDB名。
const defaultMongoDatabase = "test"

// MongoInspector はMongoDBの疎通確認と情報取得を行う。
type MongoInspector struct {
	client   *mongo.Client
	database string
}

// NewMongoInspector はMongoDBへ接続してMongoInspectorを生成する。
func NewMongoInspector(ctx context.Context, uri string, connectTimeout time.Duration) (*MongoInspector, error) {
	cs, err := connstring.ParseAndValidate(uri)
	if err != nil {
		return nil, fmt.Errorf("parsing mongodb uri: %w", err)
	}
	database := cs.Database
	if database == "" {
		database = defaultMongoDatabase
	}

	opts := options.Client().
		ApplyURI(uri).
		SetConnectTimeout(connectTimeout).
		SetServerSelectionTimeout(connectTimeout)

	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}

	return &MongoInspector{client: client, database: database}, nil
}

// Ping はpingコマンドで疎通を確認する。
func (p *MongoInspector) Ping(ctx context.Context) error {
	return p.client.Database(p.database).RunCommand(ctx, bson.D{{Key: "ping", Value: 1}}).Err()
}

type buildInfo struct {
	Version    string `bson:"version"`
	GitVersion string `bson:"gitVersion"`
}

// Inspect はコレクション一覧とbuildInfoを取得する。
// buildInfoは権限不足の場合があるため取得できなくてもエラーにしない。
func (p *MongoInspector) Inspect(ctx context.Context) (*domain.DatabaseInfo, error) {
	names, err := p.client.Database(p.database).ListCollectionNames(ctx, bson.D{})
	if err != nil {
		slog.ErrorContext(ctx, "failed to list collections",
			"operation", "inspect",
			"database", p.database,
			"error", err,
		)
		return nil, err
	}

	info := &domain.DatabaseInfo{
		Name:        p.database,
		Collections: names,
	}

	var bi buildInfo
	err = p.client.Database("admin").RunCommand(ctx, bson.D{{Key: "buildInfo", Value: 1}}).Decode(&bi)
	if err != nil {
		slog.WarnContext(ctx, "failed to read buildInfo",
			"operation", "inspect",
			"error", err,
		)
		return info, nil
	}

	gitVersion := bi.GitVersion
	if len(gitVersion) > 8 {
		gitVersion = gitVersion[:8]
	}
	info.Server = &domain.ServerInfo{Version: bi.Version, GitVersion: gitVersion}
	return info, nil
}

// Close は接続を切断する。
func (p *MongoInspector) Close(ctx context.Context) error {
	return p.client.Disconnect(ctx)
}
