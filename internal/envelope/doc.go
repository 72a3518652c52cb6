// Package envelope はパスワード保護された設定エンベロープの解析・鍵導出・認証付き復号・
// ペイロード検証を提供する。
//
// 復号の流れ:
//  1. Parse で入力文字列を EncryptedPackage に正規化する（JSON、失敗時はBase64+JSON）
//  2. version と algorithm を検証する（暗号処理の前に失敗させる）
//  3. PBKDF2-HMAC-SHA256 で32バイト鍵を導出する
//  4. AES-256-GCM で復号とタグ検証を同時に行う
//  5. 平文を ConfigPayload として解析し、有効期限を検証する
//
// 導出した鍵は呼び出しごとに生成し、復号直後に必ず消去する。
package envelope

const (
	// KeySize はAES-256の鍵長（バイト）。
	KeySize = 32
	// NonceSize はAES-GCMのナンス長（バイト）。
	NonceSize = 12
	// TagSize はAES-GCMの認証タグ長（バイト）。
	TagSize = 16
	// SaltSize はSealで生成するソルト長（バイト）。
	SaltSize = 16
)
