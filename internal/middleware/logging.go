// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"log/slog"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
)

// 監査ログの結果
const (
	ResultSuccess = "SUCCESS"
	ResultFailed  = "FAILED"
)

// WriteAuditLog は監査ログを出力する。
// source は入力元（inline/url）や操作対象を表す。秘匿情報は渡さないこと。
func WriteAuditLog(ctx context.Context, operation string, source string, result string) {
	slog.InfoContext(ctx, "audit",
		"operation", operation,
		"source", source,
		"result", result,
		"request_id", chimiddleware.GetReqID(ctx),
		"timestamp", time.Now().UTC().Format(time.RFC3339),
	)
}
