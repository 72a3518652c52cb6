// Package handler はHTTPハンドラを提供する。
package handler

import (
	"errors"
	"net/http"

	"config-envelope-service/internal/domain"
	"config-envelope-service/internal/middleware"
	"config-envelope-service/internal/usecase"
	"config-envelope-service/pkg/httputil"
)

// maxRequestBytes はリクエストボディの上限。
const maxRequestBytes = 1 << 20

// DecryptRequest は復号リクエストの形式。
type DecryptRequest struct {
	Password        string `json:"password"`
	EncryptedData   string `json:"encryptedData"`
	SubscriptionURL string `json:"subscriptionUrl"`
}

// DecryptHandler は設定エンベロープの復号APIを提供する。
type DecryptHandler struct {
	service *usecase.DecryptService
}

// NewDecryptHandler は新しいDecryptHandlerを生成する。
func NewDecryptHandler(service *usecase.DecryptService) *DecryptHandler {
	return &DecryptHandler{service: service}
}

// Decrypt は暗号化データまたは購読URLの設定を復号して返す。
func (h *DecryptHandler) Decrypt(w http.ResponseWriter, r *http.Request) {
	var req DecryptRequest
	if err := httputil.Decode(w, r, maxRequestBytes, &req); err != nil {
		httputil.Error(w, http.StatusBadRequest, "INVALID_REQUEST", "invalid request body")
		return
	}

	in := usecase.DecryptInput{Data: req.EncryptedData, URL: req.SubscriptionURL}
	payload, err := h.service.Decrypt(r.Context(), req.Password, in)
	if err != nil {
		middleware.WriteAuditLog(r.Context(), "DECRYPT", in.Source(), domain.ErrorCode(err))
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrMissingPassword) || errors.Is(err, domain.ErrMissingInput) {
			status = http.StatusBadRequest
		}
		httputil.Error(w, status, domain.ErrorCode(err), errorMessage(err))
		return
	}

	middleware.WriteAuditLog(r.Context(), "DECRYPT", in.Source(), middleware.ResultSuccess)
	httputil.Success(w, payload)
}

// publicErrors はレスポンスにそのまま返してよいエラー。
// 内部の詳細（デコード位置や平文の断片）は含めない。
var publicErrors = []error{
	domain.ErrMissingPassword,
	domain.ErrMissingInput,
	domain.ErrInvalidFormat,
	domain.ErrUnsupportedVersion,
	domain.ErrUnsupportedAlgorithm,
	domain.ErrDecryptionFailed,
	domain.ErrMalformedPlaintext,
	domain.ErrExpired,
}

func errorMessage(err error) string {
	var fetchErr *domain.FetchError
	if errors.As(err, &fetchErr) {
		// ステータスまたは取得側の原因（サイズ超過・接続失敗）を返す
		return fetchErr.Error()
	}
	for _, target := range publicErrors {
		if errors.Is(err, target) {
			return target.Error()
		}
	}
	return "internal server error"
}
