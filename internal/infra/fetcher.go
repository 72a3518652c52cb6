package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"config-envelope-service/internal/domain"
	"config-envelope-service/internal/envelope"
)

// HTTPFetcher はURLから暗号化パッケージを取得する。
type HTTPFetcher struct {
	client   *http.Client
	maxBytes int64
}

// NewHTTPFetcher は新しいHTTPFetcherを生成する。
// timeout はリクエスト全体（ボディ読み込みを含む）の上限。
func NewHTTPFetcher(timeout time.Duration, maxBytes int64) *HTTPFetcher {
	return &HTTPFetcher{
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		maxBytes: maxBytes,
	}
}

// Fetch はURLを取得してEncryptedPackageを返す。
// Content-TypeがJSONの場合はボディを直接デコードし、それ以外はテキストとしてParseに渡す。
func (f *HTTPFetcher) Fetch(ctx context.Context, url string) (*domain.EncryptedPackage, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, &domain.FetchError{Err: fmt.Errorf("creating request: %w", err)}
	}
	req.Header.Set("Accept", "application/json, text/plain;q=0.9, */*;q=0.8")

	start := time.Now()
	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &domain.FetchError{Err: err}
	}
	defer resp.Body.Close()

	slog.DebugContext(ctx, "fetched encrypted config",
		"status", resp.StatusCode,
		"content_type", resp.Header.Get("Content-Type"),
		"duration_ms", time.Since(start).Milliseconds(),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// 接続を再利用できるようボディを読み捨てる
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, f.maxBytes))
		return nil, &domain.FetchError{StatusCode: resp.StatusCode}
	}

	body, err := f.readBody(resp.Body)
	if err != nil {
		// 応答自体は成功しているためステータスは付けない
		return nil, &domain.FetchError{Err: err}
	}

	if isJSONContentType(resp.Header.Get("Content-Type")) {
		var pkg domain.EncryptedPackage
		if err := json.Unmarshal(body, &pkg); err != nil {
			return nil, fmt.Errorf("%w: decoding json response: %v", domain.ErrInvalidFormat, err)
		}
		return &pkg, nil
	}

	return envelope.Parse(string(body))
}

func (f *HTTPFetcher) readBody(r io.Reader) ([]byte, error) {
	body, err := io.ReadAll(io.LimitReader(r, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading response: %w", err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, fmt.Errorf("response exceeds %d bytes", f.maxBytes)
	}
	return body, nil
}

func isJSONContentType(contentType string) bool {
	if contentType == "" {
		return false
	}
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.Contains(strings.ToLower(contentType), "application/json")
	}
	return mediaType == "application/json" || strings.HasSuffix(mediaType, "+json")
}
