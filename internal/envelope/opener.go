package envelope

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/awnumar/memguard"
	"github.com/jonboulle/clockwork"

	"config-envelope-service/internal/domain"
)

// Opener はエンベロープを検証・復号して ConfigPayload を返す。
// 状態を持たないため並行利用できる。
type Opener struct {
	derive KeyDeriver
	clock  clockwork.Clock
}

// Option は Opener の設定を変更する。
type Option func(*Opener)

// WithKeyDeriver は鍵導出関数を差し替える。
func WithKeyDeriver(derive KeyDeriver) Option {
	return func(o *Opener) {
		o.derive = derive
	}
}

// WithClock は有効期限判定に使う時計を差し替える。
func WithClock(clock clockwork.Clock) Option {
	return func(o *Opener) {
		o.clock = clock
	}
}

// NewOpener は新しいOpenerを生成する。
func NewOpener(opts ...Option) *Opener {
	o := &Opener{
		derive: DeriveKey,
		clock:  clockwork.NewRealClock(),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// decodedPackage はBase64デコード・長さ検証済みのパッケージ。
type decodedPackage struct {
	salt       []byte
	iv         []byte
	data       []byte
	tag        []byte
	iterations int
}

// CheckHeader は version と algorithm を検証する。
func CheckHeader(pkg *domain.EncryptedPackage) error {
	if pkg.Version != domain.SupportedVersion {
		return fmt.Errorf("%w: %q", domain.ErrUnsupportedVersion, pkg.Version)
	}
	if pkg.Algorithm != domain.SupportedAlgorithm {
		return fmt.Errorf("%w: %q", domain.ErrUnsupportedAlgorithm, pkg.Algorithm)
	}
	return nil
}

func decodePackage(pkg *domain.EncryptedPackage) (*decodedPackage, error) {
	if pkg.Iterations < 0 {
		return nil, fmt.Errorf("%w: iterations must be positive, got %d", domain.ErrInvalidFormat, pkg.Iterations)
	}
	if pkg.Iterations > domain.MaxIterations {
		return nil, fmt.Errorf("%w: iterations must not exceed %d, got %d", domain.ErrInvalidFormat, domain.MaxIterations, pkg.Iterations)
	}

	d := &decodedPackage{iterations: pkg.EffectiveIterations()}
	fields := []struct {
		name  string
		value string
		dst   *[]byte
		size  int
	}{
		{name: "salt", value: pkg.Salt, dst: &d.salt},
		{name: "iv", value: pkg.IV, dst: &d.iv, size: NonceSize},
		{name: "data", value: pkg.Data, dst: &d.data},
		{name: "tag", value: pkg.Tag, dst: &d.tag, size: TagSize},
	}

	for _, f := range fields {
		b, err := decodeBase64(f.value)
		if err != nil {
			return nil, fmt.Errorf("%w: decoding %s: %v", domain.ErrInvalidFormat, f.name, err)
		}
		if f.size != 0 && len(b) != f.size {
			return nil, fmt.Errorf("%w: %s must be %d bytes, got %d", domain.ErrInvalidFormat, f.name, f.size, len(b))
		}
		*f.dst = b
	}
	return d, nil
}

// Open はエンベロープを復号し、ペイロードを検証して返す。
// どの段階で失敗してもその段階のエラーを返し、部分的な結果は返さない。
func (o *Opener) Open(pkg *domain.EncryptedPackage, password string) (*domain.ConfigPayload, error) {
	if pkg == nil {
		return nil, fmt.Errorf("%w: nil package", domain.ErrInvalidFormat)
	}
	if err := CheckHeader(pkg); err != nil {
		return nil, err
	}
	if pkg.KDF != "" && !strings.HasPrefix(strings.ToLower(pkg.KDF), "pbkdf2") {
		slog.Debug("envelope declares unexpected kdf, using pbkdf2-sha256", "kdf", pkg.KDF)
	}

	d, err := decodePackage(pkg)
	if err != nil {
		return nil, err
	}

	plaintext, err := o.decrypt(password, d)
	if err != nil {
		return nil, err
	}
	defer memguard.WipeBytes(plaintext)

	return ParsePayload(plaintext, o.clock.Now())
}

// decrypt は鍵を導出して復号する。鍵はすべての経路で消去する。
func (o *Opener) decrypt(password string, d *decodedPackage) ([]byte, error) {
	key := o.derive(password, d.salt, d.iterations)
	defer memguard.WipeBytes(key)

	return Decrypt(key, d.iv, d.data, d.tag)
}
