// Package domain はドメインモデルとビジネスルールを定義する。
package domain

const (
	// SupportedVersion は受け付ける暗号化パッケージのバージョン。
	SupportedVersion = "2.0"
	// SupportedAlgorithm は受け付ける暗号アルゴリズム。
	SupportedAlgorithm = "aes-256-gcm"
	// DefaultKDF はSealで付与する鍵導出方式の識別子。
	DefaultKDF = "pbkdf2-sha256"
	// DefaultIterations はiterations未指定時のPBKDF2反復回数。
	DefaultIterations = 100000
	// MaxIterations は受け付けるPBKDF2反復回数の上限。鍵導出は中断できないため入力で制限する。
	MaxIterations = 10000000
)

// EncryptedPackage は暗号化された設定パッケージ（エンベロープ）のワイヤ形式。
// salt, iv, data, tag はBase64文字列で保持する。
type EncryptedPackage struct {
	Version    string `json:"version"`
	Algorithm  string `json:"algorithm"`
	KDF        string `json:"kdf"`
	Salt       string `json:"salt"`
	IV         string `json:"iv"`
	Iterations int    `json:"iterations,omitempty"`
	Data       string `json:"data"`
	Tag        string `json:"tag"`
}

// EffectiveIterations はデフォルトを適用した反復回数を返す。
func (p *EncryptedPackage) EffectiveIterations() int {
	if p.Iterations == 0 {
		return DefaultIterations
	}
	return p.Iterations
}
