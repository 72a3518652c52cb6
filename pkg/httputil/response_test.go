package httputil

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestSuccess(t *testing.T) {
	rec := httptest.NewRecorder()
	Success(rec, map[string]string{"type": "vod"})

	if rec.Code != http.StatusOK {
		t.Errorf("want status 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("want application/json, got %s", ct)
	}

	var resp map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["code"] != float64(200) || resp["message"] != "Success" {
		t.Errorf("unexpected response: %v", resp)
	}
	if _, ok := resp["error"]; ok {
		t.Error("want no error field on success")
	}
	data, ok := resp["data"].(map[string]any)
	if !ok || data["type"] != "vod" {
		t.Errorf("unexpected data: %v", resp["data"])
	}
}

func TestError(t *testing.T) {
	rec := httptest.NewRecorder()
	Error(rec, http.StatusInternalServerError, "DECRYPTION_FAILED", "decryption failed")

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("want status 500, got %d", rec.Code)
	}

	var resp map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp["code"] != float64(500) {
		t.Errorf("want code 500, got %v", resp["code"])
	}
	if resp["error"] != "DECRYPTION_FAILED" {
		t.Errorf("want error DECRYPTION_FAILED, got %v", resp["error"])
	}
	if v, ok := resp["data"]; !ok || v != nil {
		t.Errorf("want data null, got %v", v)
	}
}

func TestDecode_TooLarge(t *testing.T) {
	body := `{"password":"` + strings.Repeat("x", 100) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	rec := httptest.NewRecorder()

	var v map[string]string
	if err := Decode(rec, req, 16, &v); err == nil {
		t.Error("want error for oversized body")
	}
}
