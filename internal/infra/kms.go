package infra

import (
	"context"
	"errors"
	"fmt"
	"hash/crc32"

	kms "cloud.google.com/go/kms/apiv1"
	kmspb "cloud.google.com/go/kms/apiv1/kmspb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// adminSecretAAD は管理者パスワードの暗号文に結び付ける追加認証データ。
// 他の用途で作った同じ鍵の暗号文は復号できない。
var adminSecretAAD = []byte("config-envelope-service/admin-password")

// ErrKMSIntegrity はKMSとの通信で破損を検知した場合のエラー。
var ErrKMSIntegrity = errors.New("kms response failed integrity check")

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

func crc32c(data []byte) *wrapperspb.Int64Value {
	return wrapperspb.Int64(int64(crc32.Checksum(data, castagnoli)))
}

// kmsAPI はKeyManagementClientのうち使用するメソッド。
type kmsAPI interface {
	Encrypt(ctx context.Context, req *kmspb.EncryptRequest, opts ...gax.CallOption) (*kmspb.EncryptResponse, error)
	Decrypt(ctx context.Context, req *kmspb.DecryptRequest, opts ...gax.CallOption) (*kmspb.DecryptResponse, error)
	Close() error
}

// KMSClient は管理者パスワードの暗号化・復号をCloud KMSで行う。
// 要求・応答はCRC32Cで検証する。
type KMSClient struct {
	api     kmsAPI
	keyName string
}

// NewKMSClient は指定したキー名でKMSClientを生成する。
func NewKMSClient(ctx context.Context, keyName string) (*KMSClient, error) {
	if keyName == "" {
		return nil, fmt.Errorf("KMS_KEY_NAME is required")
	}

	client, err := kms.NewKeyManagementClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating KMS client: %w", err)
	}
	return &KMSClient{api: client, keyName: keyName}, nil
}

// Encrypt は管理者パスワードを暗号化する。
func (c *KMSClient) Encrypt(ctx context.Context, plaintext []byte) ([]byte, error) {
	resp, err := c.api.Encrypt(ctx, &kmspb.EncryptRequest{
		Name:                              c.keyName,
		Plaintext:                         plaintext,
		PlaintextCrc32C:                   crc32c(plaintext),
		AdditionalAuthenticatedData:       adminSecretAAD,
		AdditionalAuthenticatedDataCrc32C: crc32c(adminSecretAAD),
	})
	if err != nil {
		return nil, fmt.Errorf("encrypting admin password: %w", err)
	}

	if !resp.GetVerifiedPlaintextCrc32C() || !resp.GetVerifiedAdditionalAuthenticatedDataCrc32C() {
		return nil, fmt.Errorf("%w: request corrupted in transit", ErrKMSIntegrity)
	}
	if resp.GetCiphertextCrc32C().GetValue() != crc32c(resp.GetCiphertext()).GetValue() {
		return nil, fmt.Errorf("%w: ciphertext checksum mismatch", ErrKMSIntegrity)
	}
	return resp.GetCiphertext(), nil
}

// Decrypt は管理者パスワードの暗号文を復号する。
func (c *KMSClient) Decrypt(ctx context.Context, ciphertext []byte) ([]byte, error) {
	resp, err := c.api.Decrypt(ctx, &kmspb.DecryptRequest{
		Name:                              c.keyName,
		Ciphertext:                        ciphertext,
		CiphertextCrc32C:                  crc32c(ciphertext),
		AdditionalAuthenticatedData:       adminSecretAAD,
		AdditionalAuthenticatedDataCrc32C: crc32c(adminSecretAAD),
	})
	if err != nil {
		return nil, fmt.Errorf("decrypting admin password: %w", err)
	}

	if resp.GetPlaintextCrc32C().GetValue() != crc32c(resp.GetPlaintext()).GetValue() {
		return nil, fmt.Errorf("%w: plaintext checksum mismatch", ErrKMSIntegrity)
	}
	return resp.GetPlaintext(), nil
}

// Close はKMSクライアントを閉じる。
func (c *KMSClient) Close() error {
	return c.api.Close()
}
