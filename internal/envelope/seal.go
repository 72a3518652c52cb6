package envelope

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"io"

	"github.com/awnumar/memguard"

	"config-envelope-service/internal/domain"
)

// SealOptions はSealのパラメータ。ゼロ値はすべてデフォルトを使う。
type SealOptions struct {
	// Iterations が0の場合は domain.DefaultIterations
	Iterations int
	// Salt, IV が空の場合は Rand から生成する
	Salt []byte
	IV   []byte
	Rand io.Reader
}

// Seal は平文をパスワードで暗号化し、バージョン2.0のエンベロープを生成する。
func Seal(plaintext []byte, password string, opts SealOptions) (*domain.EncryptedPackage, error) {
	if opts.Rand == nil {
		opts.Rand = rand.Reader
	}
	if opts.Iterations < 0 || opts.Iterations > domain.MaxIterations {
		return nil, fmt.Errorf("iterations must be between 1 and %d, got %d", domain.MaxIterations, opts.Iterations)
	}
	iterations := opts.Iterations
	if iterations == 0 {
		iterations = domain.DefaultIterations
	}

	salt := opts.Salt
	if len(salt) == 0 {
		salt = make([]byte, SaltSize)
		if _, err := io.ReadFull(opts.Rand, salt); err != nil {
			return nil, fmt.Errorf("generating salt: %w", err)
		}
	}

	iv := opts.IV
	if len(iv) == 0 {
		iv = make([]byte, NonceSize)
		if _, err := io.ReadFull(opts.Rand, iv); err != nil {
			return nil, fmt.Errorf("generating iv: %w", err)
		}
	}

	key := DeriveKey(password, salt, iterations)
	defer memguard.WipeBytes(key)

	ciphertext, tag, err := Encrypt(key, iv, plaintext)
	if err != nil {
		return nil, fmt.Errorf("encrypting: %w", err)
	}

	return &domain.EncryptedPackage{
		Version:    domain.SupportedVersion,
		Algorithm:  domain.SupportedAlgorithm,
		KDF:        domain.DefaultKDF,
		Salt:       encodeBase64(salt),
		IV:         encodeBase64(iv),
		Iterations: iterations,
		Data:       encodeBase64(ciphertext),
		Tag:        encodeBase64(tag),
	}, nil
}

// EncodeToken はエンベロープをBase64トークン（JSONの標準Base64）に変換する。
func EncodeToken(pkg *domain.EncryptedPackage) (string, error) {
	b, err := json.Marshal(pkg)
	if err != nil {
		return "", fmt.Errorf("marshaling package: %w", err)
	}
	return encodeBase64(b), nil
}
