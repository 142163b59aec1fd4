// Package middleware はHTTPミドルウェアを提供する。
package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/hitoshi/worklink/internal/model"
	"github.com/hitoshi/worklink/internal/token"
)

// contextKey はコンテキストに値を格納するための型安全なキー。
type contextKey string

var (
	// userIDContextKey はリクエストコンテキストにユーザーIDを格納するためのキー。
	userIDContextKey = contextKey("user_id")
	// roleContextKey はリクエストコンテキストにロールを格納するためのキー。
	roleContextKey = contextKey("role")
)

// TokenVerifier はアクセストークンの検証に必要なインターフェース。
// token.Serviceの部分集合として定義する。
type TokenVerifier interface {
	Verify(ctx context.Context, tokenString string, kind token.Kind) (*token.Identity, error)
}

// NewAuthMiddleware はAuthorizationヘッダーのBearerトークンを検証し、
// 認証済みユーザーIDとロールをリクエストコンテキストに注入するミドルウェアを返す。
// ヘッダーの欠落・不正な形式・無効なトークンには401 Unauthorizedを返す。
func NewAuthMiddleware(verifier TokenVerifier) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// 1. AuthorizationヘッダーからBearerトークンを取得
			tokenString, ok := bearerToken(r)
			if !ok {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			// 2. アクセストークンとして検証
			identity, err := verifier.Verify(r.Context(), tokenString, token.KindAccess)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			// 3. 認証済みユーザーIDとロールをコンテキストに注入
			ctx := ContextWithIdentity(r.Context(), identity.UserID, identity.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// bearerToken はAuthorizationヘッダーからBearerトークンを取り出す。
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	if header == "" {
		return "", false
	}
	scheme, rest, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	tokenString := strings.TrimSpace(rest)
	if tokenString == "" {
		return "", false
	}
	return tokenString, true
}

// UserIDFromContext はリクエストコンテキストからユーザーIDを取得する。
// 認証ミドルウェアを通過したリクエストでのみ有効。
func UserIDFromContext(ctx context.Context) (string, error) {
	userID, ok := ctx.Value(userIDContextKey).(string)
	if !ok || userID == "" {
		return "", fmt.Errorf("user ID not found in context")
	}
	return userID, nil
}

// RoleFromContext はリクエストコンテキストからロールを取得する。
// 認証ミドルウェアを通過したリクエストでのみ有効。
func RoleFromContext(ctx context.Context) (model.Role, error) {
	role, ok := ctx.Value(roleContextKey).(model.Role)
	if !ok || role == "" {
		return "", fmt.Errorf("role not found in context")
	}
	return role, nil
}

// ContextWithIdentity はコンテキストにユーザーIDとロールを注入する。
// テストやミドルウェア以外のコンテキスト生成で使用する。
func ContextWithIdentity(ctx context.Context, userID string, role model.Role) context.Context {
	ctx = context.WithValue(ctx, userIDContextKey, userID)
	return context.WithValue(ctx, roleContextKey, role)
}
