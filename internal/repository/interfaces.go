// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/worklink/internal/model"
)

// UserRepository はユーザーデータの永続化インターフェース。
// 認証コアからは原子的な単一レコード操作として扱う。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail は正規化済みメールアドレスでユーザーを検索する。
	// 見つからない場合はnilを返す。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。メールアドレスの一意性はDB制約で保証される。
	Create(ctx context.Context, user *model.User) error

	// UpdatePasswordHash は指定ユーザーのパスワードハッシュを更新する。
	UpdatePasswordHash(ctx context.Context, id, newHash string) error
}

// RefreshTokenRepository はリフレッシュトークン失効マーカーの永続化インターフェース。
type RefreshTokenRepository interface {
	// Create は発行済みリフレッシュトークンのjtiを記録する。
	Create(ctx context.Context, token *model.RefreshToken) error

	// FindByJTI は指定jtiのレコードを取得する。見つからない場合はnilを返す。
	FindByJTI(ctx context.Context, jti string) (*model.RefreshToken, error)

	// Revoke は指定jtiを失効済みにする。
	// 冪等: 既に失効済み、または存在しないjtiに対してもエラーを返さない。
	Revoke(ctx context.Context, jti string) error

	// RevokeAllByUserID は指定ユーザーの未失効トークンをすべて失効させる。
	RevokeAllByUserID(ctx context.Context, userID string) error

	// DeleteExpired はexpires_atを過ぎたレコードを削除し、削除件数を返す。
	// クリーンアップジョブから定期的に呼ばれる。
	DeleteExpired(ctx context.Context) (int64, error)
}

// JobRepository は求人データの永続化インターフェース。
type JobRepository interface {
	// FindByID は指定IDの求人を取得する。見つからない場合はnilを返す。
	// ソフトデリート済み（is_active=false）の求人も返す。
	FindByID(ctx context.Context, id string) (*model.Job, error)

	// Create は求人を作成する。
	Create(ctx context.Context, job *model.Job) error

	// Update は求人情報を更新する。
	Update(ctx context.Context, job *model.Job) error

	// Deactivate は求人をソフトデリートする（is_active=false）。
	Deactivate(ctx context.Context, id string) error

	// Delete は求人と関連する応募を物理削除する。
	Delete(ctx context.Context, id string) error

	// List は検索条件に一致するアクティブな求人の一覧と総件数を返す。
	// created_at降順、ページネーションはOFFSET/LIMITを使用する。
	List(ctx context.Context, filter model.JobFilter) ([]*model.Job, int, error)

	// ListByEmployerID は指定employerの全求人（非アクティブ含む）を返す。
	ListByEmployerID(ctx context.Context, employerID string) ([]*model.Job, error)
}

// ApplicationRepository は応募データの永続化インターフェース。
type ApplicationRepository interface {
	// FindByID は指定IDの応募を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Application, error)

	// FindActiveByJobAndApplicant は取り下げ済みでない応募を検索する。
	// 見つからない場合はnilを返す。重複応募チェックに使用する。
	FindActiveByJobAndApplicant(ctx context.Context, jobID, applicantID string) (*model.Application, error)

	// Create は応募を作成する。
	Create(ctx context.Context, application *model.Application) error

	// UpdateStatus は応募のステータスを更新する。
	UpdateStatus(ctx context.Context, id string, status model.ApplicationStatus) error

	// Delete は指定IDの応募を物理削除する。
	Delete(ctx context.Context, id string) error

	// ListByApplicantID は指定応募者の応募一覧をcreated_at降順で返す。
	ListByApplicantID(ctx context.Context, applicantID string) ([]*model.Application, error)

	// ListByJobID は指定求人への応募一覧を返す。
	// statusがゼロ値でない場合はそのステータスのみに絞り込む。
	ListByJobID(ctx context.Context, jobID string, status model.ApplicationStatus) ([]*model.Application, error)

	// ListByEmployerID は指定employerの全求人に対する応募一覧を返す。
	ListByEmployerID(ctx context.Context, employerID string) ([]*model.Application, error)
}

// TxBeginner はトランザクション開始用のインターフェース。*sql.DBが満たす。
type TxBeginner interface {
	BeginTx(ctx context.Context, opts *sql.TxOptions) (*sql.Tx, error)
}

// withTx はトランザクション内でfnを実行する。
// fnがエラーを返した場合はロールバックし、そのエラーをそのまま返す。
func withTx(ctx context.Context, db TxBeginner, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
