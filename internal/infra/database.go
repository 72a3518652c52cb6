// Package infra は外部サービスとの接続を提供する。
package infra

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/plugin/opentelemetry/tracing"

	"config-envelope-service/config"
	"config-envelope-service/internal/domain"
	"config-envelope-service/internal/usecase"
)

// NewDB はgormによるデータベース接続を初期化する。
// 接続確認は呼び出し側がコンテキスト付きで行う。
func NewDB(dsn string, cfg *config.Config) (*gorm.DB, error) {
	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger:               logger.Default.LogMode(logger.Silent),
		DisableAutomaticPing: true,
	})
	if err != nil {
		return nil, err
	}

	if cfg != nil && cfg.OtelEnabled {
		if err := db.Use(tracing.NewPlugin(tracing.WithoutMetrics())); err != nil {
			return nil, fmt.Errorf("registering tracing plugin: %w", err)
		}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}

	// 接続プール設定
	sqlDB.SetMaxOpenConns(10)
	sqlDB.SetMaxIdleConns(5)
	sqlDB.SetConnMaxLifetime(30 * time.Minute)

	return db, nil
}

// GormInspector はSQLデータベースの疎通確認と情報取得を行う。
type GormInspector struct {
	db *gorm.DB
}

// NewGormInspector は新しいGormInspectorを生成する。
func NewGormInspector(db *gorm.DB) *GormInspector {
	return &GormInspector{db: db}
}

// Ping はデータベースへの疎通を確認する。
func (p *GormInspector) Ping(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Inspect はデータベース名・テーブル一覧・サーバーバージョンを取得する。
// サーバーバージョンは取得できない場合nilのまま返す。
func (p *GormInspector) Inspect(ctx context.Context) (*domain.DatabaseInfo, error) {
	db := p.db.WithContext(ctx)

	tables, err := db.Migrator().GetTables()
	if err != nil {
		slog.ErrorContext(ctx, "failed to list tables",
			"operation", "inspect",
			"error", err,
		)
		return nil, err
	}

	info := &domain.DatabaseInfo{
		Name:        db.Migrator().CurrentDatabase(),
		Collections: tables,
	}

	var versionQuery string
	switch p.db.Dialector.Name() {
	case "mysql":
		versionQuery = "SELECT VERSION()"
	case "sqlite":
		versionQuery = "SELECT sqlite_version()"
	}
	if versionQuery != "" {
		var version string
		if err := db.Raw(versionQuery).Scan(&version).Error; err == nil && version != "" {
			info.Server = &domain.ServerInfo{Version: version}
		} else if err != nil {
			slog.WarnContext(ctx, "failed to read server version",
				"operation", "inspect",
				"error", err,
			)
		}
	}

	return info, nil
}

// Close はコネクションプールを閉じる。
func (p *GormInspector) Close(ctx context.Context) error {
	sqlDB, err := p.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// IsMongoURI はMongoDBの接続文字列かどうかを返す。
func IsMongoURI(uri string) bool {
	return strings.HasPrefix(uri, "mongodb://") || strings.HasPrefix(uri, "mongodb+srv://")
}

// InspectorFactory はDATABASE_URLに応じたInspectorを生成する関数を返す。
// mongodb:// はMongoDB、それ以外はMySQLのDSNとして扱う。
func InspectorFactory(cfg *config.Config, connectTimeout time.Duration) usecase.InspectorFactory {
	return func(ctx context.Context, uri string) (usecase.DatabaseInspector, error) {
		if IsMongoURI(uri) {
			return NewMongoInspector(ctx, uri, connectTimeout)
		}
		db, err := NewDB(uri, cfg)
		if err != nil {
			return nil, err
		}
		return NewGormInspector(db), nil
	}
}
