package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, job, application, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidInput          = "INVALID_INPUT"
	ErrCodeUnauthorized          = "UNAUTHORIZED"
	ErrCodeForbidden             = "FORBIDDEN"
	ErrCodeEmailTaken            = "EMAIL_TAKEN"
	ErrCodeUserNotFound          = "USER_NOT_FOUND"
	ErrCodeJobNotFound           = "JOB_NOT_FOUND"
	ErrCodeApplicationNotFound   = "APPLICATION_NOT_FOUND"
	ErrCodeDuplicateApplication  = "DUPLICATE_APPLICATION"
	ErrCodeApplicationNotPending = "APPLICATION_NOT_PENDING"
	ErrCodeInvalidStatusChange   = "INVALID_STATUS_CHANGE"
)

// NewInvalidInputError は入力値不正エラーを生成する。
func NewInvalidInputError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidInput,
		Message:  fmt.Sprintf("入力値が不正です: %s", reason),
		Category: "validation",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewUnauthorizedError は認証エラーを生成する。
// 「ユーザーが存在しない」と「パスワード不一致」は同一のエラーとして扱い、
// アカウントの存在有無を外部から判別できないようにする。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "認証情報を確認して再度ログインしてください。",
	}
}

// NewTokenUnauthorizedError はトークン起因の認証エラーを生成する。
func NewTokenUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証トークンが無効または期限切れです。",
		Category: "auth",
		Action:   "再度ログインしてください。",
	}
}

// NewForbiddenError は認可エラーを生成する。
// ロール権限の不足と所有権の不一致のどちらもこのエラーで表す。
func NewForbiddenError() *APIError {
	return &APIError{
		Code:     ErrCodeForbidden,
		Message:  "この操作を行う権限がありません。",
		Category: "auth",
		Action:   "自身のロールおよび対象リソースの所有者を確認してください。",
	}
}

// NewEmailTakenError はメールアドレス重複エラーを生成する。
func NewEmailTakenError() *APIError {
	return &APIError{
		Code:     ErrCodeEmailTaken,
		Message:  "このメールアドレスは既に登録されています。",
		Category: "validation",
		Action:   "別のメールアドレスを使用するか、ログインしてください。",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewJobNotFoundError は求人未検出エラーを生成する。
func NewJobNotFoundError(jobID string) *APIError {
	return &APIError{
		Code:     ErrCodeJobNotFound,
		Message:  fmt.Sprintf("指定された求人が見つかりません: %s", jobID),
		Category: "job",
		Action:   "求人IDを確認してください。",
	}
}

// NewApplicationNotFoundError は応募未検出エラーを生成する。
func NewApplicationNotFoundError(applicationID string) *APIError {
	return &APIError{
		Code:     ErrCodeApplicationNotFound,
		Message:  fmt.Sprintf("指定された応募が見つかりません: %s", applicationID),
		Category: "application",
		Action:   "応募IDを確認してください。",
	}
}

// NewDuplicateApplicationError は同一求人への重複応募エラーを生成する。
// 既存応募のIDを含め、クライアントが既存の応募を参照できるようにする。
func NewDuplicateApplicationError(existingID string) *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateApplication,
		Message:  fmt.Sprintf("この求人には既に応募しています: %s", existingID),
		Category: "application",
		Action:   "応募一覧から既存の応募を確認してください。",
	}
}

// NewApplicationNotPendingError はpending以外の応募への操作エラーを生成する。
func NewApplicationNotPendingError(status ApplicationStatus) *APIError {
	return &APIError{
		Code:     ErrCodeApplicationNotPending,
		Message:  fmt.Sprintf("審査待ち以外の応募には実行できません（現在: %s）", status),
		Category: "application",
		Action:   "応募のステータスを確認してください。",
	}
}

// NewInvalidStatusChangeError は許可されないステータス変更エラーを生成する。
func NewInvalidStatusChangeError(status string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidStatusChange,
		Message:  fmt.Sprintf("無効なステータスです: %s", status),
		Category: "validation",
		Action:   "ステータスには accepted または rejected を指定してください。",
	}
}
