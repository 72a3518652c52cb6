package envelope

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"config-envelope-service/internal/domain"
)

// parseAttempt は入力の1つの解釈を試みる。
type parseAttempt func(raw string) (*domain.EncryptedPackage, error)

// parseAttempts は試行順。最初に成功したものを採用する。
var parseAttempts = []parseAttempt{
	parseDirectJSON,
	parseBase64JSON,
}

// Parse は入力文字列を EncryptedPackage に正規化する。
// JSONとして直接解釈し、version と algorithm を持たない場合は
// Base64をデコードしたUTF-8文字列をJSONとして解釈する。
func Parse(raw string) (*domain.EncryptedPackage, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, fmt.Errorf("%w: empty input", domain.ErrInvalidFormat)
	}

	// 全試行の失敗理由を残す
	reasons := make([]string, 0, len(parseAttempts))
	for _, attempt := range parseAttempts {
		pkg, err := attempt(raw)
		if err == nil {
			return pkg, nil
		}
		reasons = append(reasons, err.Error())
	}
	return nil, fmt.Errorf("%w: %s", domain.ErrInvalidFormat, strings.Join(reasons, "; "))
}

func parseDirectJSON(raw string) (*domain.EncryptedPackage, error) {
	var pkg domain.EncryptedPackage
	if err := json.Unmarshal([]byte(raw), &pkg); err != nil {
		return nil, fmt.Errorf("parsing json: %w", err)
	}
	if pkg.Version == "" || pkg.Algorithm == "" {
		return nil, fmt.Errorf("json lacks version or algorithm")
	}
	return &pkg, nil
}

func parseBase64JSON(raw string) (*domain.EncryptedPackage, error) {
	decoded, err := decodeBase64(raw)
	if err != nil {
		return nil, fmt.Errorf("decoding base64: %w", err)
	}
	if !utf8.Valid(decoded) {
		return nil, fmt.Errorf("decoded bytes are not valid UTF-8")
	}

	var pkg domain.EncryptedPackage
	if err := json.Unmarshal(decoded, &pkg); err != nil {
		return nil, fmt.Errorf("parsing decoded json: %w", err)
	}
	return &pkg, nil
}
