package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidFormat は入力をエンベロープとして解釈できない場合のエラー。
	ErrInvalidFormat = errors.New("invalid encrypted string format")

	// ErrUnsupportedVersion はエンベロープのバージョンが未対応の場合のエラー。
	ErrUnsupportedVersion = errors.New("unsupported envelope version")

	// ErrUnsupportedAlgorithm は暗号アルゴリズムが未対応の場合のエラー。
	ErrUnsupportedAlgorithm = errors.New("unsupported encryption algorithm")

	// ErrFetchFailed はリモートからのエンベロープ取得に失敗した場合のエラー。
	ErrFetchFailed = errors.New("failed to fetch encrypted config")

	// ErrDecryptionFailed は復号または改ざん検知に失敗した場合のエラー。
	// パスワード誤りと改ざんを区別しない。
	ErrDecryptionFailed = errors.New("decryption failed: wrong password or corrupted data")

	// ErrMalformedPlaintext は復号結果が設定ペイロードとして不正な場合のエラー。
	ErrMalformedPlaintext = errors.New("malformed config payload")

	// ErrExpired はペイロードの有効期限が切れている場合のエラー。
	ErrExpired = errors.New("config has expired")

	// ErrMissingPassword は復号パスワードが指定されていない場合のエラー。
	ErrMissingPassword = errors.New("missing decryption password")

	// ErrMissingInput は暗号化データもURLも指定されていない場合のエラー。
	ErrMissingInput = errors.New("missing encrypted data or subscription URL")

	// ErrInvalidCredentials は管理者パスワードが一致しない場合のエラー。
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrDatabaseNotConfigured はDATABASE_URLが未設定の場合のエラー。
	ErrDatabaseNotConfigured = errors.New("DATABASE_URL is not configured")
)

// FetchError はリモート取得失敗の詳細を保持する。
// StatusCode はHTTPステータス。レスポンスを受け取れなかった場合は0。
type FetchError struct {
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %d", ErrFetchFailed, e.StatusCode)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", ErrFetchFailed, e.Err)
	}
	return ErrFetchFailed.Error()
}

// Is はerrors.Is(err, ErrFetchFailed)を満たす。
func (e *FetchError) Is(target error) bool {
	return target == ErrFetchFailed
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ErrorCode はエラーをAPIレスポンス用のコード文字列に変換する。
func ErrorCode(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrMissingPassword):
		return "MISSING_PASSWORD"
	case errors.Is(err, ErrMissingInput):
		return "MISSING_INPUT"
	case errors.Is(err, ErrInvalidFormat):
		return "INVALID_FORMAT"
	case errors.Is(err, ErrUnsupportedVersion):
		return "UNSUPPORTED_VERSION"
	case errors.Is(err, ErrUnsupportedAlgorithm):
		return "UNSUPPORTED_ALGORITHM"
	case errors.Is(err, ErrFetchFailed):
		return "FETCH_FAILED"
	case errors.Is(err, ErrDecryptionFailed):
		return "DECRYPTION_FAILED"
	case errors.Is(err, ErrMalformedPlaintext):
		return "MALFORMED_PLAINTEXT"
	case errors.Is(err, ErrExpired):
		return "EXPIRED"
	default:
		return "INTERNAL_ERROR"
	}
}
