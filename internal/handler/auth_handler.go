// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/worklink/internal/auth"
	"github.com/hitoshi/worklink/internal/middleware"
	"github.com/hitoshi/worklink/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Register(ctx context.Context, input auth.RegisterInput) (*model.User, error)
	Login(ctx context.Context, email, password string) (*model.TokenPair, error)
	GetCurrentUser(ctx context.Context, userID string) (*model.User, error)
	Refresh(ctx context.Context, refreshToken string) (*model.TokenPair, error)
	Logout(ctx context.Context, refreshToken string) error
	ChangePassword(ctx context.Context, userID, oldPassword, newPassword string) error
}

// AuthHandler は認証関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(service AuthServiceInterface) *AuthHandler {
	return &AuthHandler{service: service}
}

// registerRequest はユーザー登録リクエストのボディ。
type registerRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	Role        string `json:"role"`
	FullName    string `json:"full_name"`
	CompanyName string `json:"company_name"`
	Phone       string `json:"phone"`
}

// loginRequest はログインリクエストのボディ。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// refreshRequest はトークン更新・ログアウトリクエストのボディ。
type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// changePasswordRequest はパスワード変更リクエストのボディ。
type changePasswordRequest struct {
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
}

// userResponse はユーザー情報のAPIレスポンス。パスワードハッシュは含めない。
type userResponse struct {
	ID          string `json:"id"`
	Email       string `json:"email"`
	Role        string `json:"role"`
	FullName    string `json:"full_name"`
	CompanyName string `json:"company_name,omitempty"`
	Phone       string `json:"phone,omitempty"`
}

// tokenPairResponse はトークン発行のAPIレスポンス。
type tokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// Register は新規ユーザーを登録する。
// POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}

	user, err := h.service.Register(r.Context(), auth.RegisterInput{
		Email:       req.Email,
		Password:    req.Password,
		Role:        req.Role,
		FullName:    req.FullName,
		CompanyName: req.CompanyName,
		Phone:       req.Phone,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toUserResponse(user))
}

// Login はメールアドレスとパスワードでトークンを発行する。
// POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}

	pair, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toTokenPairResponse(pair))
}

// Me は現在のログインユーザー情報を返す。
// GET /api/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	user, err := h.service.GetCurrentUser(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toUserResponse(user))
}

// verifyRoleResponse はロール確認APIのレスポンス。
type verifyRoleResponse struct {
	HasRole       bool   `json:"has_role"`
	UserRole      string `json:"user_role"`
	RequestedRole string `json:"requested_role"`
}

// VerifyRole は現在のログインユーザーが指定ロールを持つかを返す。
// 判定はトークンのクレームではなくDB上の現在のロールに対して行う。
// GET /api/auth/verify-role/{role}
func (h *AuthHandler) VerifyRole(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	user, err := h.service.GetCurrentUser(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	requested := strings.ToLower(chi.URLParam(r, "role"))

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(verifyRoleResponse{
		HasRole:       string(user.Role) == requested,
		UserRole:      string(user.Role),
		RequestedRole: requested,
	})
}

// Refresh はリフレッシュトークンから新しいトークンペアを発行する。
// 使用済みのリフレッシュトークンは失効する（ローテーション）。
// POST /api/auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}

	pair, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toTokenPairResponse(pair))
}

// Logout はリフレッシュトークンを失効する。
// トークンが無効・失効済みでも204を返す（冪等）。
// POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		// ボディが不正でもログアウトは成功扱いにする
		w.WriteHeader(http.StatusNoContent)
		return
	}

	if err := h.service.Logout(r.Context(), req.RefreshToken); err != nil {
		slog.Error("failed to logout", slog.String("error", err.Error()))
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ChangePassword はパスワードを変更し、全リフレッシュトークンを失効する。
// POST /api/auth/change-password
func (h *AuthHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorizedResponse(w)
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}

	if err := h.service.ChangePassword(r.Context(), userID, req.OldPassword, req.NewPassword); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- ヘルパー関数 ---

// toUserResponse はmodel.UserからAPIレスポンスに変換する。
func toUserResponse(user *model.User) userResponse {
	return userResponse{
		ID:          user.ID,
		Email:       user.Email,
		Role:        string(user.Role),
		FullName:    user.FullName,
		CompanyName: user.CompanyName,
		Phone:       user.Phone,
	}
}

// toTokenPairResponse はmodel.TokenPairからAPIレスポンスに変換する。
func toTokenPairResponse(pair *model.TokenPair) tokenPairResponse {
	return tokenPairResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    "Bearer",
	}
}
