// Package usecase はアプリケーションのユースケースを実装する。
package usecase

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"config-envelope-service/internal/domain"
	"config-envelope-service/internal/envelope"
	"config-envelope-service/internal/metrics"
)

var tracer = otel.Tracer("config-envelope-service/internal/usecase")

// 入力元のラベル
const (
	SourceInline = "inline"
	SourceURL    = "url"
)

// Fetcher はURLから暗号化パッケージを取得するインターフェース。
type Fetcher interface {
	Fetch(ctx context.Context, url string) (*domain.EncryptedPackage, error)
}

// Opener はエンベロープを復号するインターフェース。
type Opener interface {
	Open(pkg *domain.EncryptedPackage, password string) (*domain.ConfigPayload, error)
}

// DecryptInput は復号対象の入力。URLが指定されていればURLを優先する。
type DecryptInput struct {
	Data string
	URL  string
}

// Source は入力元のラベルを返す。
func (in DecryptInput) Source() string {
	if in.URL != "" {
		return SourceURL
	}
	return SourceInline
}

// DecryptService は設定エンベロープの取得から復号までを提供する。
type DecryptService struct {
	fetcher Fetcher
	opener  Opener
}

// NewDecryptService は新しいDecryptServiceを生成する。
func NewDecryptService(fetcher Fetcher, opener Opener) *DecryptService {
	return &DecryptService{
		fetcher: fetcher,
		opener:  opener,
	}
}

// Decrypt は入力を取得・解析し、パスワードで復号したペイロードを返す。
// どの段階でもリトライはせず、最初に失敗した段階のエラーを返す。
func (s *DecryptService) Decrypt(ctx context.Context, password string, in DecryptInput) (*domain.ConfigPayload, error) {
	source := in.Source()
	ctx, span := tracer.Start(ctx, "DecryptService.Decrypt")
	defer span.End()
	span.SetAttributes(attribute.String("config.source", source))

	start := time.Now()
	payload, err := s.decrypt(ctx, password, in)

	metrics.DecryptDuration.WithLabelValues(source).Observe(time.Since(start).Seconds())
	result := "SUCCESS"
	if err != nil {
		result = domain.ErrorCode(err)
		span.SetStatus(codes.Error, result)
	}
	metrics.DecryptRequestsTotal.WithLabelValues(source, result).Inc()

	return payload, err
}

func (s *DecryptService) decrypt(ctx context.Context, password string, in DecryptInput) (*domain.ConfigPayload, error) {
	if password == "" {
		return nil, domain.ErrMissingPassword
	}

	var (
		pkg *domain.EncryptedPackage
		err error
	)
	switch {
	case in.URL != "":
		pkg, err = s.fetch(ctx, in.URL)
	case in.Data != "":
		pkg, err = envelope.Parse(in.Data)
	default:
		return nil, domain.ErrMissingInput
	}
	if err != nil {
		return nil, err
	}

	// 取得中にキャンセルされた場合は復号に進まない
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("decrypt canceled: %w", err)
	}

	return s.opener.Open(pkg, password)
}

func (s *DecryptService) fetch(ctx context.Context, url string) (*domain.EncryptedPackage, error) {
	if s.fetcher == nil {
		return nil, &domain.FetchError{Err: fmt.Errorf("remote fetch is not configured")}
	}

	ctx, span := tracer.Start(ctx, "DecryptService.fetch")
	defer span.End()

	start := time.Now()
	pkg, err := s.fetcher.Fetch(ctx, url)
	metrics.FetchDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	return pkg, nil
}
