package handler

import (
	"errors"
	"net/http"
	"time"

	"config-envelope-service/internal/domain"
	"config-envelope-service/internal/middleware"
	"config-envelope-service/internal/usecase"
	"config-envelope-service/pkg/httputil"
)

// DatabaseStatusResponse はデータベース状態のレスポンス形式。
// latency はミリ秒。
type DatabaseStatusResponse struct {
	Connected       bool               `json:"connected"`
	Latency         int64              `json:"latency"`
	Database        string             `json:"database,omitempty"`
	Collections     []string           `json:"collections,omitempty"`
	CollectionCount *int               `json:"collectionCount,omitempty"`
	ServerInfo      *domain.ServerInfo `json:"serverInfo"`
	Error           string             `json:"error,omitempty"`
	URI             string             `json:"uri"`
	Timestamp       string             `json:"timestamp"`
}

// ConnectionTestResponse は接続テストのレスポンス形式。
type ConnectionTestResponse struct {
	Success   bool   `json:"success"`
	Latency   int64  `json:"latency"`
	Message   string `json:"message,omitempty"`
	Error     string `json:"error,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
}

// DatabaseHandler はデータベース状態の確認APIを提供する。
type DatabaseHandler struct {
	service *usecase.DatabaseService
}

// NewDatabaseHandler は新しいDatabaseHandlerを生成する。
func NewDatabaseHandler(service *usecase.DatabaseService) *DatabaseHandler {
	return &DatabaseHandler{service: service}
}

// Status は共有接続の状態を返す。
func (h *DatabaseHandler) Status(w http.ResponseWriter, r *http.Request) {
	status := h.service.Status(r.Context())

	resp := DatabaseStatusResponse{
		Connected: status.Connected,
		Latency:   status.Latency.Milliseconds(),
		Error:     status.Error,
		URI:       status.MaskedURI,
		Timestamp: status.CheckedAt.Format(time.RFC3339),
	}
	if !status.Connected {
		middleware.WriteAuditLog(r.Context(), "DATABASE_STATUS", status.MaskedURI, middleware.ResultFailed)
		httputil.Data(w, http.StatusInternalServerError, resp)
		return
	}

	info := status.Info
	if info == nil {
		info = &domain.DatabaseInfo{}
	}
	collections := info.Collections
	if collections == nil {
		collections = []string{}
	}
	count := len(collections)
	resp.Database = info.Name
	resp.Collections = collections
	resp.CollectionCount = &count
	resp.ServerInfo = info.Server

	middleware.WriteAuditLog(r.Context(), "DATABASE_STATUS", status.MaskedURI, middleware.ResultSuccess)
	httputil.Data(w, http.StatusOK, resp)
}

// Test は新しい接続を作成して疎通を確認する。
func (h *DatabaseHandler) Test(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Test(r.Context())
	if err != nil {
		middleware.WriteAuditLog(r.Context(), "DATABASE_TEST", "", middleware.ResultFailed)
		if errors.Is(err, domain.ErrDatabaseNotConfigured) {
			httputil.Data(w, http.StatusBadRequest, ConnectionTestResponse{
				Success: false,
				Error:   err.Error(),
			})
			return
		}
		httputil.Error(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal server error")
		return
	}

	resp := ConnectionTestResponse{
		Success:   result.Success,
		Latency:   result.Latency.Milliseconds(),
		Timestamp: result.TestedAt.Format(time.RFC3339),
	}
	if !result.Success {
		resp.Error = result.Error
		middleware.WriteAuditLog(r.Context(), "DATABASE_TEST", "", middleware.ResultFailed)
		httputil.Data(w, http.StatusInternalServerError, resp)
		return
	}

	resp.Message = "connection test succeeded"
	middleware.WriteAuditLog(r.Context(), "DATABASE_TEST", "", middleware.ResultSuccess)
	httputil.Data(w, http.StatusOK, resp)
}
