// Package main はAPIサーバーのエントリポイント。
package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"config-envelope-service/config"
	"config-envelope-service/internal/envelope"
	"config-envelope-service/internal/handler"
	"config-envelope-service/internal/infra"
	"config-envelope-service/internal/middleware"
	"config-envelope-service/internal/usecase"
)

// version はリソース属性に載せるサービスのバージョン。
const version = "1.0.0"

// databaseConnectTimeout はDB接続の上限時間。
const databaseConnectTimeout = 10 * time.Second

func main() {
	ctx := context.Background()

	// .envファイルを読み込む（存在しない場合は無視）
	// 既存の環境変数は上書きしない
	_ = godotenv.Load()

	// 設定読み込み
	cfg := config.Load()

	// トレーサー初期化（ロガー設定の前に実行）
	shutdownTracer, err := infra.InitTracer(ctx, cfg, version)
	if err != nil {
		slog.Error("failed to init tracer", "error", err)
		os.Exit(1)
	}
	defer func() {
		if err := shutdownTracer(ctx); err != nil {
			slog.Error("failed to shutdown tracer", "error", err)
		}
	}()

	// トレース情報付きロガーを設定
	infra.SetupLogger(cfg, infra.ParseLevel(cfg.LogLevel))

	// 管理者パスワード
	authService, err := newAuthService(ctx, cfg)
	if err != nil {
		slog.Error("failed to init admin password", "error", err)
		os.Exit(1)
	}

	// DB初期化（未設定でも起動する）
	factory := infra.InspectorFactory(cfg, databaseConnectTimeout)
	var shared usecase.DatabaseInspector
	if cfg.DatabaseURL != "" {
		inspector, err := factory(ctx, cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to init database", "error", err, "uri", usecase.MaskURI(cfg.DatabaseURL))
		} else {
			shared = inspector
			defer func() {
				if closeErr := inspector.Close(context.WithoutCancel(ctx)); closeErr != nil {
					slog.Error("failed to close database", "error", closeErr)
				}
			}()
		}
	} else {
		slog.Warn("DATABASE_URL is not set, database endpoints are disabled")
	}

	// DI
	fetcher := infra.NewHTTPFetcher(cfg.FetchTimeout, cfg.FetchMaxBytes)
	decryptService := usecase.NewDecryptService(fetcher, envelope.NewOpener())
	databaseService := usecase.NewDatabaseService(cfg.DatabaseURL, shared, factory, nil)
	store := middleware.NewSessionStore(cfg.SessionSecret, cfg.SecureCookies)

	router := handler.NewRouter(handler.Handlers{
		Decrypt:  handler.NewDecryptHandler(decryptService),
		Database: handler.NewDatabaseHandler(databaseService),
		Auth:     handler.NewAuthHandler(authService, store),
	}, store, cfg)

	// サーバー起動
	server := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
		<-sigCh

		slog.Info("shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	slog.Info("starting server", "port", cfg.Port, "env", cfg.AppEnv)
	if err := server.ListenAndServe(); err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("server stopped")
}

// newAuthService は管理者パスワードを読み込む。
// ADMIN_PASSWORD_CIPHERTEXT が設定されている場合はKMSで復号する。
func newAuthService(ctx context.Context, cfg *config.Config) (*usecase.AuthService, error) {
	if cfg.AdminPasswordCiphertext == "" {
		if os.Getenv("ADMIN_PASSWORD") == "" {
			slog.Warn("ADMIN_PASSWORD is not set, using the default password")
		}
		return usecase.NewAuthService(cfg.AdminPassword), nil
	}

	kmsClient, err := infra.NewKMSClient(ctx, cfg.KMSKeyName)
	if err != nil {
		return nil, err
	}
	defer func() {
		if closeErr := kmsClient.Close(); closeErr != nil {
			slog.Error("failed to close KMS client", "error", closeErr)
		}
	}()

	return usecase.NewAuthServiceFromCiphertext(ctx, kmsClient, cfg.AdminPasswordCiphertext)
}
