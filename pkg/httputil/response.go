// Package httputil はHTTPレスポンス生成のユーティリティを提供する。
package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Response はAPIレスポンスの共通形式。
// 失敗時は Error にエラーコードを入れ、Data はnullになる。
type Response struct {
	Code    int    `json:"code"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data"`
}

// JSON はJSONレスポンスを返す。
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			// ヘッダーは既に送信済みのため、ログのみ出力する
			slog.Error("failed to encode response", "error", err)
		}
	}
}

// Success は成功レスポンスを返す。
func Success(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, Response{
		Code:    http.StatusOK,
		Message: "Success",
		Data:    data,
	})
}

// Data はステータスコードとデータのみのレスポンスを返す。
func Data(w http.ResponseWriter, status int, data any) {
	JSON(w, status, Response{
		Code: status,
		Data: data,
	})
}

// Error はエラーレスポンスを返す。
func Error(w http.ResponseWriter, status int, code string, message string) {
	JSON(w, status, Response{
		Code:    status,
		Message: message,
		Error:   code,
	})
}

// Decode はリクエストボディをJSONとしてデコードする。
// maxBytes を超えるボディはエラーになる。
func Decode(w http.ResponseWriter, r *http.Request, maxBytes int64, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	return json.NewDecoder(r.Body).Decode(v)
}
