// Package auth はユーザー登録・ログイン・トークン更新などの認証フローを提供する。
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/worklink/internal/model"
	"github.com/hitoshi/worklink/internal/repository"
	"github.com/hitoshi/worklink/internal/token"
)

// TokenIssuer はトークンの発行・検証・失効のインターフェース。
type TokenIssuer interface {
	IssueAccessToken(userID string, role model.Role) (string, error)
	IssueRefreshToken(ctx context.Context, userID string) (string, error)
	Verify(ctx context.Context, tokenString string, kind token.Kind) (*token.Identity, error)
	Revoke(ctx context.Context, jti string) error
	RevokeAllForUser(ctx context.Context, userID string) error
}

var _ TokenIssuer = (*token.Service)(nil)

// RegisterInput はユーザー登録の入力を表す。
type RegisterInput struct {
	Email       string
	Password    string
	Role        string
	FullName    string
	CompanyName string
	Phone       string
}

// Service は認証に関するビジネスロジックを提供する。
type Service struct {
	userRepo repository.UserRepository
	tokens   TokenIssuer
}

// NewService はServiceを生成する。
func NewService(userRepo repository.UserRepository, tokens TokenIssuer) *Service {
	return &Service{
		userRepo: userRepo,
		tokens:   tokens,
	}
}

// Register は新規ユーザーを登録する。トークンは発行しない（明示的なログインが必要）。
func (s *Service) Register(ctx context.Context, input RegisterInput) (*model.User, error) {
	// 1. 入力値の検証
	email := normalizeEmail(input.Email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, model.NewInvalidInputError("メールアドレスの形式が正しくありません")
	}

	role := model.Role(input.Role)
	if !role.IsValid() {
		return nil, model.NewInvalidInputError("ロールは employer または job_seeker を指定してください")
	}

	if err := validatePassword(input.Password); err != nil {
		return nil, model.NewInvalidInputError(fmt.Sprintf("パスワードは%d文字以上必要です", minPasswordLength))
	}

	if role == model.RoleEmployer && strings.TrimSpace(input.CompanyName) == "" {
		return nil, model.NewInvalidInputError("雇用主は会社名が必須です")
	}

	// 2. メールアドレスの重複チェック
	existing, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	if existing != nil {
		return nil, model.NewEmailTakenError()
	}

	// 3. パスワードをハッシュ化しユーザーを作成
	hash, err := HashPassword(input.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		Role:         role,
		FullName:     strings.TrimSpace(input.FullName),
		CompanyName:  strings.TrimSpace(input.CompanyName),
		Phone:        strings.TrimSpace(input.Phone),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	slog.Info("new user registered",
		slog.String("user_id", user.ID),
		slog.String("role", string(user.Role)),
	)
	return user, nil
}

// Login はメールアドレスとパスワードで認証し、トークンペアを発行する。
// ユーザー不在とパスワード不一致は同一のエラーを返す。
func (s *Service) Login(ctx context.Context, email, password string) (*model.TokenPair, error) {
	user, err := s.userRepo.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}
	if user == nil || !ComparePasswordAndHash(password, user.PasswordHash) {
		return nil, model.NewUnauthorizedError()
	}

	pair, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, err
	}

	slog.Info("user logged in", slog.String("user_id", user.ID))
	return pair, nil
}

// GetCurrentUser は検証済みのユーザーIDからユーザーを取得する。
func (s *Service) GetCurrentUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// Refresh はリフレッシュトークンを検証し、新しいトークンペアを発行する。
// 旧リフレッシュトークンは失効させる（ローテーション）。
// トークン自体の不受理のみ401とし、検証中のインフラ障害はそのまま返す。
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*model.TokenPair, error) {
	identity, err := s.tokens.Verify(ctx, refreshToken, token.KindRefresh)
	if err != nil {
		if isTokenRejection(err) {
			return nil, model.NewTokenUnauthorizedError()
		}
		return nil, fmt.Errorf("failed to verify refresh token: %w", err)
	}

	user, err := s.userRepo.FindByID(ctx, identity.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, model.NewTokenUnauthorizedError()
	}

	// 旧jtiを失効させてから新しいペアを発行する
	if err := s.tokens.Revoke(ctx, identity.JTI); err != nil {
		return nil, fmt.Errorf("failed to revoke refresh token: %w", err)
	}

	pair, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return nil, err
	}

	slog.Info("token refreshed", slog.String("user_id", user.ID))
	return pair, nil
}

// Logout はリフレッシュトークンを失効させる。冪等であり、
// 不正なトークンや失効済みトークンでもエラーにしない。
func (s *Service) Logout(ctx context.Context, refreshToken string) error {
	identity, err := s.tokens.Verify(ctx, refreshToken, token.KindRefresh)
	if err != nil {
		// トークンが不受理で失効対象が特定できない場合は何もしない
		if isTokenRejection(err) {
			return nil
		}
		return fmt.Errorf("failed to verify refresh token: %w", err)
	}

	if err := s.tokens.Revoke(ctx, identity.JTI); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}

	slog.Info("user logged out", slog.String("user_id", identity.UserID))
	return nil
}

// ChangePassword は現在のパスワードを確認したうえで新しいパスワードに更新する。
// 更新後は当該ユーザーの全リフレッシュトークンを失効させ、
// 既存のセッションからの再ログインを強制する。
func (s *Service) ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error {
	user, err := s.userRepo.FindByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return model.NewUserNotFoundError()
	}

	if !ComparePasswordAndHash(oldPassword, user.PasswordHash) {
		return model.NewUnauthorizedError()
	}

	if err := validatePassword(newPassword); err != nil {
		return model.NewInvalidInputError(fmt.Sprintf("パスワードは%d文字以上必要です", minPasswordLength))
	}

	hash, err := HashPassword(newPassword)
	if err != nil {
		return err
	}

	if err := s.userRepo.UpdatePasswordHash(ctx, userID, hash); err != nil {
		return fmt.Errorf("failed to update password hash: %w", err)
	}

	if err := s.tokens.RevokeAllForUser(ctx, userID); err != nil {
		return fmt.Errorf("failed to revoke refresh tokens: %w", err)
	}

	slog.Info("password changed", slog.String("user_id", userID))
	return nil
}

// issueTokenPair はアクセストークンとリフレッシュトークンのペアを発行する。
func (s *Service) issueTokenPair(ctx context.Context, user *model.User) (*model.TokenPair, error) {
	accessToken, err := s.tokens.IssueAccessToken(user.ID, user.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to issue access token: %w", err)
	}

	refreshToken, err := s.tokens.IssueRefreshToken(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue refresh token: %w", err)
	}

	return &model.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// isTokenRejection はトークン自体の不受理（不正・期限切れ・失効済み）かを判定する。
// これら以外のVerifyエラーは失効ストア照会の失敗などインフラ起因として扱う。
func isTokenRejection(err error) bool {
	return errors.Is(err, token.ErrTokenInvalid) ||
		errors.Is(err, token.ErrTokenExpired) ||
		errors.Is(err, token.ErrTokenRevoked)
}

// normalizeEmail はメールアドレスの前後空白を除去し小文字に正規化する。
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
