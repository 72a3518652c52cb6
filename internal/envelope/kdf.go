package envelope

import (
	"crypto/sha256"

	"github.com/awnumar/memguard"
	"golang.org/x/crypto/pbkdf2"
)

// KeyDeriver はパスワードとソルトから対称鍵を導出する関数。
type KeyDeriver func(password string, salt []byte, iterations int) []byte

// DeriveKey はPBKDF2-HMAC-SHA256で32バイトの鍵を導出する。
// 反復回数の下限はここでは強制しない。
func DeriveKey(password string, salt []byte, iterations int) []byte {
	pw := []byte(password)
	defer memguard.WipeBytes(pw)
	return pbkdf2.Key(pw, salt, iterations, KeySize, sha256.New)
}
