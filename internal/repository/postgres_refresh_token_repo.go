package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/worklink/internal/model"
)

// PostgresRefreshTokenRepo はPostgreSQLを使用したリフレッシュトークンリポジトリ。
// トークン本文は保持せず、失効判定に必要なjtiのみを記録する。
type PostgresRefreshTokenRepo struct {
	db *sql.DB
}

// NewPostgresRefreshTokenRepo はPostgresRefreshTokenRepoを生成する。
func NewPostgresRefreshTokenRepo(db *sql.DB) *PostgresRefreshTokenRepo {
	return &PostgresRefreshTokenRepo{db: db}
}

// Create は発行済みリフレッシュトークンのjtiを記録する。
func (r *PostgresRefreshTokenRepo) Create(ctx context.Context, token *model.RefreshToken) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO refresh_tokens (jti, user_id, expires_at, revoked, created_at)
		 VALUES ($1, $2, $3, $4, $5)`,
		token.JTI, token.UserID, token.ExpiresAt, token.Revoked, token.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert refresh token: %w", err)
	}
	return nil
}

// FindByJTI は指定jtiのレコードを取得する。見つからない場合はnilを返す。
func (r *PostgresRefreshTokenRepo) FindByJTI(ctx context.Context, jti string) (*model.RefreshToken, error) {
	token := &model.RefreshToken{}
	err := r.db.QueryRowContext(ctx,
		`SELECT jti, user_id, expires_at, revoked, created_at
		 FROM refresh_tokens WHERE jti = $1`,
		jti,
	).Scan(&token.JTI, &token.UserID, &token.ExpiresAt, &token.Revoked, &token.CreatedAt)

	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find refresh token: %w", err)
	}

	return token, nil
}

// Revoke は指定jtiを失効済みにする。
// 冪等: 対象が存在しない、または既に失効済みでもエラーを返さない。
func (r *PostgresRefreshTokenRepo) Revoke(ctx context.Context, jti string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked = TRUE WHERE jti = $1`,
		jti,
	)
	if err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

// RevokeAllByUserID は指定ユーザーの未失効トークンをすべて失効させる。
func (r *PostgresRefreshTokenRepo) RevokeAllByUserID(ctx context.Context, userID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE refresh_tokens SET revoked = TRUE WHERE user_id = $1 AND revoked = FALSE`,
		userID,
	)
	if err != nil {
		return fmt.Errorf("failed to revoke user refresh tokens: %w", err)
	}
	return nil
}

// DeleteExpired はexpires_atを過ぎたレコードを削除し、削除件数を返す。
func (r *PostgresRefreshTokenRepo) DeleteExpired(ctx context.Context) (int64, error) {
	result, err := r.db.ExecContext(ctx,
		`DELETE FROM refresh_tokens WHERE expires_at < now()`,
	)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired refresh tokens: %w", err)
	}
	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}
	return deleted, nil
}

// compile-time interface check
var _ RefreshTokenRepository = (*PostgresRefreshTokenRepo)(nil)
