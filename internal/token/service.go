// Package token は署名付きアクセス/リフレッシュトークンの発行・検証・失効を提供する。
//
// アクセストークンはステートレスで、個別の失効はできない。
// リフレッシュトークンは発行時にjtiを永続化し、ログアウト時にjti単位で失効させる。
// 失効後のアクセストークンは自身の（短い）有効期限まで有効なままとなるが、
// これは検証コストと失効の正確性のトレードオフとして意図された挙動である。
package token

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/hitoshi/worklink/internal/model"
	"github.com/hitoshi/worklink/internal/repository"
)

// Kind はトークンの種別を表す。
type Kind string

const (
	// KindAccess は単一リクエストの認証に使う短命トークン。
	KindAccess Kind = "access"
	// KindRefresh はアクセストークンの再発行のみに使う長命トークン。
	KindRefresh Kind = "refresh"
)

// トークン検証エラー。呼び出し側はerrors.Isで判別し、HTTP 401にマッピングする。
var (
	ErrTokenExpired = errors.New("token expired")
	ErrTokenInvalid = errors.New("token invalid")
	ErrTokenRevoked = errors.New("token revoked")
)

// Claims はJWTに埋め込むクレームを表す。
// アクセストークンにはロールを含め、リフレッシュトークンには含めない。
type Claims struct {
	jwt.RegisteredClaims
	Role string `json:"role,omitempty"`
	Kind Kind   `json:"kind"`
}

// Identity は検証済みトークンから取り出した認証情報。
type Identity struct {
	UserID string
	Role   model.Role
	JTI    string // リフレッシュトークンのみ
}

// Config はトークンサービスの設定。
// グローバル変数ではなく構築時に注入し、テストでは偽の値を差し込む。
type Config struct {
	Secret     string
	AccessTTL  time.Duration
	RefreshTTL time.Duration
}

// Service はトークンの発行・検証・失効を行う。
type Service struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	repo       repository.RefreshTokenRepository
}

// NewService はServiceを生成する。
// 署名鍵が未設定の場合はエラーを返す（起動時の致命的エラーとして扱うこと）。
func NewService(cfg Config, repo repository.RefreshTokenRepository) (*Service, error) {
	if cfg.Secret == "" {
		return nil, fmt.Errorf("token signing secret is not configured")
	}
	if cfg.AccessTTL <= 0 {
		cfg.AccessTTL = 15 * time.Minute
	}
	if cfg.RefreshTTL <= 0 {
		cfg.RefreshTTL = 7 * 24 * time.Hour
	}
	return &Service{
		secret:     []byte(cfg.Secret),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		repo:       repo,
	}, nil
}

// IssueAccessToken はユーザーIDとロールを含むアクセストークンを発行する。
func (s *Service) IssueAccessToken(userID string, role model.Role) (string, error) {
	now := time.Now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(now.Add(s.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Role: string(role),
		Kind: KindAccess,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, nil
}

// IssueRefreshToken はリフレッシュトークンを発行し、jtiを失効マーカーとして永続化する。
func (s *Service) IssueRefreshToken(ctx context.Context, userID string) (string, error) {
	now := time.Now()
	jti := uuid.New().String()
	expiresAt := now.Add(s.refreshTTL)

	if err := s.repo.Create(ctx, &model.RefreshToken{
		JTI:       jti,
		UserID:    userID,
		ExpiresAt: expiresAt,
		Revoked:   false,
		CreatedAt: now,
	}); err != nil {
		return "", fmt.Errorf("failed to record refresh token: %w", err)
	}

	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        jti,
		},
		Kind: KindRefresh,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign refresh token: %w", err)
	}
	return signed, nil
}

// Verify はトークンの署名・有効期限・種別を検証し、認証情報を返す。
// 有効期限の比較には1回の検証で1度だけ取得したnowを使用し、
// 同一リクエスト内の複数チェックで判定が食い違わないようにする。
// 期限ちょうど（now == exp）は期限切れとして扱う。
// リフレッシュトークンは失効マーカーも照合し、失効済みならErrTokenRevokedを返す。
func (s *Service) Verify(ctx context.Context, tokenString string, kind Kind) (*Identity, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	}, jwt.WithoutClaimsValidation())
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrTokenInvalid, err)
	}
	if !parsed.Valid {
		return nil, ErrTokenInvalid
	}

	// 有効期限の判定に使うnowはここで1回だけ取得する
	now := time.Now()
	if claims.ExpiresAt == nil {
		return nil, ErrTokenInvalid
	}
	if !now.Before(claims.ExpiresAt.Time) {
		return nil, ErrTokenExpired
	}

	if claims.Kind != kind {
		return nil, ErrTokenInvalid
	}
	if claims.Subject == "" {
		return nil, ErrTokenInvalid
	}

	if kind == KindRefresh {
		record, err := s.repo.FindByJTI(ctx, claims.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check revocation: %w", err)
		}
		if record == nil {
			return nil, ErrTokenInvalid
		}
		if record.Revoked {
			return nil, ErrTokenRevoked
		}
	}

	return &Identity{
		UserID: claims.Subject,
		Role:   model.Role(claims.Role),
		JTI:    claims.ID,
	}, nil
}

// Revoke は指定jtiのリフレッシュトークンを失効させる。
// 冪等: 既に失効済み、または存在しないjtiでもエラーにならない。
func (s *Service) Revoke(ctx context.Context, jti string) error {
	if err := s.repo.Revoke(ctx, jti); err != nil {
		return fmt.Errorf("failed to revoke token: %w", err)
	}
	return nil
}

// RevokeAllForUser は指定ユーザーの未失効リフレッシュトークンをすべて失効させる。
// パスワード変更時のセッション無効化に使用する。
func (s *Service) RevokeAllForUser(ctx context.Context, userID string) error {
	if err := s.repo.RevokeAllByUserID(ctx, userID); err != nil {
		return fmt.Errorf("failed to revoke user tokens: %w", err)
	}
	return nil
}
