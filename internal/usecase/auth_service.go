package usecase

import (
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"strings"

	"config-envelope-service/internal/domain"
	"config-envelope-service/internal/metrics"
)

// KMSClient は暗号化/復号のインターフェース。
type KMSClient interface {
	Encrypt(ctx context.Context, plaintext []byte) ([]byte, error)
	Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error)
}

// AuthService は管理者パスワードの検証を提供する。
type AuthService struct {
	digest [sha256.Size]byte
}

// NewAuthService は新しいAuthServiceを生成する。
func NewAuthService(adminPassword string) *AuthService {
	return &AuthService{digest: sha256.Sum256([]byte(adminPassword))}
}

// NewAuthServiceFromCiphertext はKMSで暗号化された管理者パスワード（Base64）を
// 復号してAuthServiceを生成する。
func NewAuthServiceFromCiphertext(ctx context.Context, kms KMSClient, ciphertextB64 string) (*AuthService, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(strings.TrimSpace(ciphertextB64))
	if err != nil {
		return nil, fmt.Errorf("decoding admin password ciphertext: %w", err)
	}
	plaintext, err := kms.Decrypt(ctx, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("decrypting admin password: %w", err)
	}
	return NewAuthService(string(plaintext)), nil
}

// ValidatePassword は管理者パスワードを定数時間で比較する。
func (s *AuthService) ValidatePassword(password string) error {
	got := sha256.Sum256([]byte(password))
	if subtle.ConstantTimeCompare(got[:], s.digest[:]) != 1 {
		metrics.AdminLoginsTotal.WithLabelValues("failure").Inc()
		return domain.ErrInvalidCredentials
	}
	metrics.AdminLoginsTotal.WithLabelValues("success").Inc()
	return nil
}
