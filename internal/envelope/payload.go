package envelope

import (
	"encoding/json"
	"fmt"
	"time"
	"unicode/utf8"

	"config-envelope-service/internal/domain"
)

// ParsePayload は復号済み平文を ConfigPayload に変換し、有効期限を検証する。
// expiresAt が0または未指定の場合は期限なしとして扱う。
func ParsePayload(plaintext []byte, now time.Time) (*domain.ConfigPayload, error) {
	if !utf8.Valid(plaintext) {
		return nil, fmt.Errorf("%w: not valid UTF-8", domain.ErrMalformedPlaintext)
	}

	var payload domain.ConfigPayload
	if err := json.Unmarshal(plaintext, &payload); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrMalformedPlaintext, err)
	}
	if !payload.Type.Valid() {
		return nil, fmt.Errorf("%w: unknown type %q", domain.ErrMalformedPlaintext, payload.Type)
	}

	if payload.ExpiresAt != nil && *payload.ExpiresAt != 0 && now.UnixMilli() > *payload.ExpiresAt {
		expiredAt := time.UnixMilli(*payload.ExpiresAt).UTC()
		return nil, fmt.Errorf("%w: expired at %s", domain.ErrExpired, expiredAt.Format(time.RFC3339))
	}

	return &payload, nil
}
