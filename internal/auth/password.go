package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// minPasswordLength はパスワードの最小文字数。
const minPasswordLength = 8

// HashPassword はパスワードをbcryptでハッシュ化する。
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hash), nil
}

// ComparePasswordAndHash はパスワードと保存済みハッシュを照合する。
// 一致すればtrueを返す。比較はbcrypt内部で定数時間で行われる。
func ComparePasswordAndHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// validatePassword はパスワードポリシーを検証する。
func validatePassword(password string) error {
	if len(password) < minPasswordLength {
		return fmt.Errorf("password must be at least %d characters", minPasswordLength)
	}
	return nil
}
