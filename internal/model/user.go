// Package model はドメインモデルを定義する。
package model

import "time"

// Role はユーザーの役割を表す。
type Role string

const (
	// RoleEmployer は求人を掲載する企業側ユーザー。
	RoleEmployer Role = "employer"
	// RoleJobSeeker は求人に応募する求職者ユーザー。
	RoleJobSeeker Role = "job_seeker"
)

// IsValid はロールが許可された値かどうかを返す。
// employer と job_seeker 以外（admin等）はすべて不正とする。
func (r Role) IsValid() bool {
	switch r {
	case RoleEmployer, RoleJobSeeker:
		return true
	default:
		return false
	}
}

// User はサービス利用ユーザーを表す。
// PasswordHashにはbcryptハッシュのみを保持し、平文パスワードは保持しない。
// ロールは作成後に変更されない。
type User struct {
	ID           string
	Email        string
	PasswordHash string
	Role         Role
	FullName     string
	CompanyName  string // employerのみ必須
	Phone        string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// RefreshToken はリフレッシュトークンの失効マーカーを表す。
// トークン本文は保存せず、jtiのみを記録して個別失効を可能にする。
// expires_atを過ぎた行はクリーンアップジョブで削除されるため、
// テーブルはリフレッシュトークンの有効期間分に有界となる。
type RefreshToken struct {
	JTI       string
	UserID    string
	ExpiresAt time.Time
	Revoked   bool
	CreatedAt time.Time
}

// TokenPair はログイン・リフレッシュ時に発行されるトークンの組を表す。
type TokenPair struct {
	AccessToken  string
	RefreshToken string
}
