package envelope

import (
	"encoding/base64"
	"encoding/json"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"config-envelope-service/internal/domain"
)

const testIterations = 1000

var (
	fixedSalt = []byte("0123456789abcdef")
	fixedIV   = []byte("nonce-12byte")
)

func sealForTest(t *testing.T, plaintext, password string) *domain.EncryptedPackage {
	t.Helper()
	pkg, err := Seal([]byte(plaintext), password, SealOptions{
		Iterations: testIterations,
		Salt:       fixedSalt,
		IV:         fixedIV,
	})
	require.NoError(t, err)
	return pkg
}

// countingDeriver は鍵導出の呼び出し回数を数える。
func countingDeriver(calls *atomic.Int32) KeyDeriver {
	return func(password string, salt []byte, iterations int) []byte {
		calls.Add(1)
		return DeriveKey(password, salt, iterations)
	}
}

func TestOpener_ConcreteScenario(t *testing.T) {
	plaintext := `{"type":"vod","timestamp":1700000000000}`

	// 既定の100,000回・32バイト鍵で暗号化する
	pkg, err := Seal([]byte(plaintext), "secret123", SealOptions{Salt: fixedSalt, IV: fixedIV})
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultIterations, pkg.Iterations)

	opener := NewOpener()

	payload, err := opener.Open(pkg, "secret123")
	require.NoError(t, err)
	out, err := json.Marshal(payload)
	require.NoError(t, err)
	assert.JSONEq(t, plaintext, string(out))

	payload, err = opener.Open(pkg, "wrong")
	assert.ErrorIs(t, err, domain.ErrDecryptionFailed)
	assert.Nil(t, payload)
}

func TestOpener_DefaultIterationsWhenAbsent(t *testing.T) {
	pkg, err := Seal([]byte(`{"type":"all","timestamp":1}`), "pw", SealOptions{Salt: fixedSalt, IV: fixedIV})
	require.NoError(t, err)
	pkg.Iterations = 0

	var gotIterations int
	opener := NewOpener(WithKeyDeriver(func(password string, salt []byte, iterations int) []byte {
		gotIterations = iterations
		return DeriveKey(password, salt, iterations)
	}))

	_, err = opener.Open(pkg, "pw")
	require.NoError(t, err)
	assert.Equal(t, domain.DefaultIterations, gotIterations)
}

func TestOpener_RoundTrip(t *testing.T) {
	payloads := []string{
		`{"type":"vod","timestamp":1700000000000}`,
		`{"type":"dailymotion","timestamp":1,"dailymotionChannels":[{"id":"x7","name":"News"}]}`,
		`{"type":"all","timestamp":2,"vodSources":[{"a":[1,2,{"b":null}]}],"dailymotionChannels":[],"extra":{"k":"v"}}`,
		`{"type":"all","timestamp":3,"note":"日本語テキスト"}`,
	}
	passwords := []string{"p", "secret123", "パスワード", ""}

	opener := NewOpener()
	for _, plaintext := range payloads {
		for _, password := range passwords {
			pkg := sealForTest(t, plaintext, password)

			payload, err := opener.Open(pkg, password)
			require.NoError(t, err)

			out, err := json.Marshal(payload)
			require.NoError(t, err)
			assert.JSONEq(t, plaintext, string(out))
		}
	}
}

func TestOpener_TamperedEnvelope(t *testing.T) {
	pkg := sealForTest(t, `{"type":"vod","timestamp":1}`, "pw")
	opener := NewOpener()

	flip := func(encoded string, idx int) string {
		b, err := base64.StdEncoding.DecodeString(encoded)
		require.NoError(t, err)
		b[idx] ^= 0x01
		return base64.StdEncoding.EncodeToString(b)
	}

	t.Run("ciphertext", func(t *testing.T) {
		tampered := *pkg
		tampered.Data = flip(pkg.Data, 3)
		_, err := opener.Open(&tampered, "pw")
		assert.ErrorIs(t, err, domain.ErrDecryptionFailed)
	})

	t.Run("tag", func(t *testing.T) {
		tampered := *pkg
		tampered.Tag = flip(pkg.Tag, 15)
		_, err := opener.Open(&tampered, "pw")
		assert.ErrorIs(t, err, domain.ErrDecryptionFailed)
	})

	t.Run("salt", func(t *testing.T) {
		tampered := *pkg
		tampered.Salt = flip(pkg.Salt, 0)
		_, err := opener.Open(&tampered, "pw")
		assert.ErrorIs(t, err, domain.ErrDecryptionFailed)
	})

	t.Run("iterations", func(t *testing.T) {
		tampered := *pkg
		tampered.Iterations = testIterations + 1
		_, err := opener.Open(&tampered, "pw")
		assert.ErrorIs(t, err, domain.ErrDecryptionFailed)
	})
}

func TestOpener_FailFastOnMetadata(t *testing.T) {
	valid := sealForTest(t, `{"type":"vod","timestamp":1}`, "pw")

	tests := []struct {
		name    string
		mutate  func(p *domain.EncryptedPackage)
		wantErr error
	}{
		{name: "unsupported version", mutate: func(p *domain.EncryptedPackage) { p.Version = "1.0" }, wantErr: domain.ErrUnsupportedVersion},
		{name: "empty version", mutate: func(p *domain.EncryptedPackage) { p.Version = "" }, wantErr: domain.ErrUnsupportedVersion},
		{name: "unsupported algorithm", mutate: func(p *domain.EncryptedPackage) { p.Algorithm = "aes-128-cbc" }, wantErr: domain.ErrUnsupportedAlgorithm},
		{name: "short iv", mutate: func(p *domain.EncryptedPackage) { p.IV = base64.StdEncoding.EncodeToString(make([]byte, 16)) }, wantErr: domain.ErrInvalidFormat},
		{name: "short tag", mutate: func(p *domain.EncryptedPackage) { p.Tag = base64.StdEncoding.EncodeToString(make([]byte, 8)) }, wantErr: domain.ErrInvalidFormat},
		{name: "undecodable data", mutate: func(p *domain.EncryptedPackage) { p.Data = "%%%" }, wantErr: domain.ErrInvalidFormat},
		{name: "undecodable salt", mutate: func(p *domain.EncryptedPackage) { p.Salt = "***" }, wantErr: domain.ErrInvalidFormat},
		{name: "negative iterations", mutate: func(p *domain.EncryptedPackage) { p.Iterations = -5 }, wantErr: domain.ErrInvalidFormat},
		{name: "iterations over limit", mutate: func(p *domain.EncryptedPackage) { p.Iterations = 1 << 40 }, wantErr: domain.ErrInvalidFormat},
		{name: "iterations just over limit", mutate: func(p *domain.EncryptedPackage) { p.Iterations = domain.MaxIterations + 1 }, wantErr: domain.ErrInvalidFormat},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls atomic.Int32
			opener := NewOpener(WithKeyDeriver(countingDeriver(&calls)))

			pkg := *valid
			tt.mutate(&pkg)

			payload, err := opener.Open(&pkg, "pw")
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Nil(t, payload)
			assert.Equal(t, int32(0), calls.Load(), "key derivation must not run")
		})
	}

	t.Run("nil package", func(t *testing.T) {
		var calls atomic.Int32
		opener := NewOpener(WithKeyDeriver(countingDeriver(&calls)))
		_, err := opener.Open(nil, "pw")
		assert.ErrorIs(t, err, domain.ErrInvalidFormat)
		assert.Equal(t, int32(0), calls.Load())
	})
}

func TestOpener_ExpiredAfterSuccessfulDecryption(t *testing.T) {
	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := clockwork.NewFakeClockAt(now)
	expiresAt := now.Add(time.Hour).UnixMilli()

	plaintext, err := json.Marshal(map[string]any{
		"type":      "vod",
		"timestamp": now.UnixMilli(),
		"expiresAt": expiresAt,
	})
	require.NoError(t, err)
	pkg := sealForTest(t, string(plaintext), "pw")

	var calls atomic.Int32
	opener := NewOpener(WithClock(clock), WithKeyDeriver(countingDeriver(&calls)))

	payload, err := opener.Open(pkg, "pw")
	require.NoError(t, err)
	assert.Equal(t, expiresAt, *payload.ExpiresAt)

	clock.Advance(2 * time.Hour)
	payload, err = opener.Open(pkg, "pw")
	assert.ErrorIs(t, err, domain.ErrExpired)
	assert.NotErrorIs(t, err, domain.ErrDecryptionFailed)
	assert.Nil(t, payload)
	assert.Equal(t, int32(2), calls.Load())
}

func TestOpener_MalformedPlaintext(t *testing.T) {
	pkg := sealForTest(t, `not json at all`, "pw")

	_, err := NewOpener().Open(pkg, "pw")
	assert.ErrorIs(t, err, domain.ErrMalformedPlaintext)
}

func TestOpener_DualEncodingYieldsIdenticalPayloads(t *testing.T) {
	plaintext := `{"type":"all","timestamp":5,"vodSources":[{"id":1}]}`
	pkg := sealForTest(t, plaintext, "pw")

	raw, err := json.Marshal(pkg)
	require.NoError(t, err)
	token, err := EncodeToken(pkg)
	require.NoError(t, err)

	fromJSON, err := Parse(string(raw))
	require.NoError(t, err)
	fromToken, err := Parse(token)
	require.NoError(t, err)
	require.Equal(t, fromJSON, fromToken)

	opener := NewOpener()
	a, err := opener.Open(fromJSON, "pw")
	require.NoError(t, err)
	b, err := opener.Open(fromToken, "pw")
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestOpener_ConcurrentCallsDoNotInterfere(t *testing.T) {
	opener := NewOpener()

	type fixture struct {
		pkg       *domain.EncryptedPackage
		password  string
		plaintext string
	}
	fixtures := []fixture{
		{password: "alpha", plaintext: `{"type":"vod","timestamp":1}`},
		{password: "beta", plaintext: `{"type":"dailymotion","timestamp":2}`},
		{password: "gamma", plaintext: `{"type":"all","timestamp":3}`},
	}
	for i := range fixtures {
		fixtures[i].pkg = sealForTest(t, fixtures[i].plaintext, fixtures[i].password)
	}

	var wg sync.WaitGroup
	errs := make(chan error, len(fixtures)*8)
	for i := 0; i < 8; i++ {
		for _, f := range fixtures {
			wg.Add(1)
			go func(f fixture) {
				defer wg.Done()
				payload, err := opener.Open(f.pkg, f.password)
				if err != nil {
					errs <- err
					return
				}
				out, err := json.Marshal(payload)
				if err != nil {
					errs <- err
					return
				}
				if !assert.JSONEq(t, f.plaintext, string(out)) {
					errs <- assert.AnError
				}
			}(f)
		}
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		t.Errorf("concurrent open failed: %v", err)
	}
}

func TestSeal_RejectsIterationsOverLimit(t *testing.T) {
	_, err := Seal([]byte(`{"type":"vod","timestamp":1}`), "pw", SealOptions{Iterations: domain.MaxIterations + 1})
	assert.Error(t, err)
}

func TestOpener_HugeIterationsFromTokenRejectedBeforeDerivation(t *testing.T) {
	valid := sealForTest(t, `{"type":"vod","timestamp":1}`, "pw")
	raw, err := json.Marshal(valid)
	require.NoError(t, err)

	var fields map[string]any
	require.NoError(t, json.Unmarshal(raw, &fields))
	fields["iterations"] = int64(1099511627776)
	raw, err = json.Marshal(fields)
	require.NoError(t, err)

	pkg, err := Parse(string(raw))
	require.NoError(t, err)

	var calls atomic.Int32
	opener := NewOpener(WithKeyDeriver(countingDeriver(&calls)))
	_, err = opener.Open(pkg, "pw")
	assert.ErrorIs(t, err, domain.ErrInvalidFormat)
	assert.Equal(t, int32(0), calls.Load())
}
