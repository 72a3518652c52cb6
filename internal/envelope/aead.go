package envelope

import (
	"crypto/aes"
	"crypto/cipher"
	"fmt"

	"config-envelope-service/internal/domain"
)

// Decrypt はAES-256-GCMで復号とタグ検証を同時に行う。
// 失敗理由（鍵違い・改ざん・長さ不正）は区別せず ErrDecryptionFailed を返す。
func Decrypt(key, iv, ciphertext, tag []byte) ([]byte, error) {
	if len(key) != KeySize || len(iv) != NonceSize || len(tag) != TagSize {
		return nil, domain.ErrDecryptionFailed
	}

	gcm, err := newGCM(key)
	if err != nil {
		return nil, domain.ErrDecryptionFailed
	}

	sealed := make([]byte, 0, len(ciphertext)+len(tag))
	sealed = append(sealed, ciphertext...)
	sealed = append(sealed, tag...)

	plaintext, err := gcm.Open(nil, iv, sealed, nil)
	if err != nil {
		return nil, domain.ErrDecryptionFailed
	}
	return plaintext, nil
}

// Encrypt はAES-256-GCMで暗号化し、暗号文と認証タグを分けて返す。
func Encrypt(key, iv, plaintext []byte) (ciphertext, tag []byte, err error) {
	if len(key) != KeySize {
		return nil, nil, fmt.Errorf("invalid key size: got %d, want %d", len(key), KeySize)
	}
	if len(iv) != NonceSize {
		return nil, nil, fmt.Errorf("invalid nonce size: got %d, want %d", len(iv), NonceSize)
	}

	gcm, err := newGCM(key)
	if err != nil {
		return nil, nil, err
	}

	sealed := gcm.Seal(nil, iv, plaintext, nil)
	split := len(sealed) - gcm.Overhead()
	return sealed[:split], sealed[split:], nil
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, fmt.Errorf("creating cipher: %w", err)
	}
	gcm, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("creating GCM: %w", err)
	}
	return gcm, nil
}
