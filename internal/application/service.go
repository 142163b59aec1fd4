// Package application は求人への応募管理のドメインロジックを提供する。
package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/hitoshi/worklink/internal/authz"
	"github.com/hitoshi/worklink/internal/model"
	"github.com/hitoshi/worklink/internal/repository"
	"github.com/hitoshi/worklink/internal/security"
)

// ApplyInput は応募作成の入力を表す。
type ApplyInput struct {
	JobID          string
	CoverLetter    string
	ResumeURL      string
	AdditionalInfo string
}

// Service は応募管理のサービス層。
// ロール権限チェック→レコード取得→所有者チェック→更新の順序を常に守る。
type Service struct {
	appRepo   repository.ApplicationRepository
	jobRepo   repository.JobRepository
	sanitizer security.ContentSanitizerService
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(
	appRepo repository.ApplicationRepository,
	jobRepo repository.JobRepository,
	sanitizer security.ContentSanitizerService,
) *Service {
	return &Service{
		appRepo:   appRepo,
		jobRepo:   jobRepo,
		sanitizer: sanitizer,
	}
}

// Apply は求人に応募する。job_seekerロールのみ実行できる。
// 同一求人への有効な（取り下げ済みでない）応募は1件のみ許可され、
// 重複時は既存応募のIDを含むエラーを返す。
func (s *Service) Apply(ctx context.Context, userID string, role model.Role, input ApplyInput) (*model.Application, error) {
	// 1. ロール権限チェック（レコード取得前）
	if !authz.Allow(role, authz.ActionApplyToJob) {
		return nil, model.NewForbiddenError()
	}

	// 2. 応募先の求人が存在しアクティブであること
	job, err := s.jobRepo.FindByID(ctx, input.JobID)
	if err != nil {
		return nil, fmt.Errorf("求人の取得に失敗しました: %w", err)
	}
	if job == nil || !job.IsActive {
		return nil, model.NewJobNotFoundError(input.JobID)
	}

	// 3. 重複応募チェック。DBの部分一意インデックスが競合時の最終防壁となる
	existing, err := s.appRepo.FindActiveByJobAndApplicant(ctx, input.JobID, userID)
	if err != nil {
		return nil, fmt.Errorf("応募の取得に失敗しました: %w", err)
	}
	if existing != nil {
		return nil, model.NewDuplicateApplicationError(existing.ID)
	}

	// 4. カバーレターをサニタイズして作成
	now := time.Now()
	app := &model.Application{
		ID:             uuid.New().String(),
		JobID:          input.JobID,
		ApplicantID:    userID,
		Status:         model.ApplicationPending,
		CoverLetter:    s.sanitizer.Sanitize(input.CoverLetter),
		ResumeURL:      strings.TrimSpace(input.ResumeURL),
		AdditionalInfo: s.sanitizer.Sanitize(input.AdditionalInfo),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.appRepo.Create(ctx, app); err != nil {
		return nil, fmt.Errorf("応募の作成に失敗しました: %w", err)
	}

	slog.Info("application submitted",
		slog.String("application_id", app.ID),
		slog.String("job_id", input.JobID),
		slog.String("applicant_id", userID),
	)
	return app, nil
}

// Get は応募を取得する。応募者本人と、応募先求人を掲載したemployerのみ閲覧できる。
func (s *Service) Get(ctx context.Context, userID string, applicationID string) (*model.Application, error) {
	app, err := s.appRepo.FindByID(ctx, applicationID)
	if err != nil {
		return nil, fmt.Errorf("応募の取得に失敗しました: %w", err)
	}
	if app == nil {
		return nil, model.NewApplicationNotFoundError(applicationID)
	}

	if app.ApplicantID == userID {
		return app, nil
	}

	job, err := s.jobRepo.FindByID(ctx, app.JobID)
	if err != nil {
		return nil, fmt.Errorf("求人の取得に失敗しました: %w", err)
	}
	if !authz.CanManageApplication(userID, job) {
		return nil, model.NewForbiddenError()
	}
	return app, nil
}

// Withdraw は応募を取り下げる。応募した本人のみ、pending状態でのみ実行できる。
// 取り下げ済みの応募への再実行は一貫してエラーを返す。
func (s *Service) Withdraw(ctx context.Context, userID string, role model.Role, applicationID string) error {
	// 1. ロール権限チェック（レコード取得前）
	if !authz.Allow(role, authz.ActionWithdrawApplication) {
		return model.NewForbiddenError()
	}

	// 2. レコード取得と所有者チェック
	app, err := s.appRepo.FindByID(ctx, applicationID)
	if err != nil {
		return fmt.Errorf("応募の取得に失敗しました: %w", err)
	}
	if app == nil {
		return model.NewApplicationNotFoundError(applicationID)
	}
	if !authz.CanWithdrawApplication(userID, app) {
		return model.NewForbiddenError()
	}

	// 3. pending以外（選考済み・取り下げ済み）は取り下げ不可
	if app.Status != model.ApplicationPending {
		return model.NewApplicationNotPendingError(app.Status)
	}

	if err := s.appRepo.UpdateStatus(ctx, applicationID, model.ApplicationWithdrawn); err != nil {
		return fmt.Errorf("応募の取り下げに失敗しました: %w", err)
	}

	slog.Info("application withdrawn",
		slog.String("application_id", applicationID),
		slog.String("applicant_id", userID),
	)
	return nil
}

// UpdateStatus は応募のステータスを更新する。
// 応募先求人を掲載したemployerのみ、pending状態の応募に対してのみ、
// accepted または rejected への変更を実行できる。
func (s *Service) UpdateStatus(ctx context.Context, userID string, role model.Role, applicationID, newStatus string) (*model.Application, error) {
	// 1. ロール権限チェック（レコード取得前）
	if !authz.Allow(role, authz.ActionManageApplicationStatus) {
		return nil, model.NewForbiddenError()
	}

	// 2. 遷移先ステータスの検証
	status := model.ApplicationStatus(newStatus)
	if status != model.ApplicationAccepted && status != model.ApplicationRejected {
		return nil, model.NewInvalidStatusChangeError(newStatus)
	}

	// 3. レコード取得と所有者チェック
	app, err := s.appRepo.FindByID(ctx, applicationID)
	if err != nil {
		return nil, fmt.Errorf("応募の取得に失敗しました: %w", err)
	}
	if app == nil {
		return nil, model.NewApplicationNotFoundError(applicationID)
	}

	job, err := s.jobRepo.FindByID(ctx, app.JobID)
	if err != nil {
		return nil, fmt.Errorf("求人の取得に失敗しました: %w", err)
	}
	if !authz.CanManageApplication(userID, job) {
		return nil, model.NewForbiddenError()
	}

	// 4. pending以外の応募は遷移不可
	if app.Status != model.ApplicationPending {
		return nil, model.NewApplicationNotPendingError(app.Status)
	}

	if err := s.appRepo.UpdateStatus(ctx, applicationID, status); err != nil {
		return nil, fmt.Errorf("応募ステータスの更新に失敗しました: %w", err)
	}

	app.Status = status
	app.UpdatedAt = time.Now()

	slog.Info("application status updated",
		slog.String("application_id", applicationID),
		slog.String("status", string(status)),
		slog.String("employer_id", userID),
	)
	return app, nil
}

// Delete は取り下げ済みの応募を物理削除する。応募した本人のみ実行できる。
func (s *Service) Delete(ctx context.Context, userID string, role model.Role, applicationID string) error {
	// 1. ロール権限チェック（レコード取得前）
	if !authz.Allow(role, authz.ActionWithdrawApplication) {
		return model.NewForbiddenError()
	}

	// 2. レコード取得と所有者チェック
	app, err := s.appRepo.FindByID(ctx, applicationID)
	if err != nil {
		return fmt.Errorf("応募の取得に失敗しました: %w", err)
	}
	if app == nil {
		return model.NewApplicationNotFoundError(applicationID)
	}
	if !authz.CanWithdrawApplication(userID, app) {
		return model.NewForbiddenError()
	}

	// 3. 取り下げ済みの応募のみ削除できる
	if app.Status != model.ApplicationWithdrawn {
		return model.NewInvalidInputError("取り下げ済みの応募のみ削除できます")
	}

	if err := s.appRepo.Delete(ctx, applicationID); err != nil {
		return fmt.Errorf("応募の削除に失敗しました: %w", err)
	}

	slog.Info("application deleted",
		slog.String("application_id", applicationID),
		slog.String("applicant_id", userID),
	)
	return nil
}

// ListMine はロールに応じた応募一覧を返す。
// job_seekerは自分が提出した応募、employerは自分の求人への応募を返す。
func (s *Service) ListMine(ctx context.Context, userID string, role model.Role) ([]*model.Application, error) {
	switch role {
	case model.RoleJobSeeker:
		apps, err := s.appRepo.ListByApplicantID(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("応募一覧の取得に失敗しました: %w", err)
		}
		return apps, nil
	case model.RoleEmployer:
		apps, err := s.appRepo.ListByEmployerID(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("応募一覧の取得に失敗しました: %w", err)
		}
		return apps, nil
	default:
		return nil, model.NewForbiddenError()
	}
}

// ListForJob は指定求人への応募一覧を返す。求人を掲載したemployerのみ実行できる。
// statusが空でない場合はそのステータスのみに絞り込む。
func (s *Service) ListForJob(ctx context.Context, userID string, role model.Role, jobID, statusFilter string) ([]*model.Application, error) {
	// 1. ロール権限チェック（レコード取得前）
	if !authz.Allow(role, authz.ActionManageApplicationStatus) {
		return nil, model.NewForbiddenError()
	}

	// 2. 絞り込みステータスの検証
	status := model.ApplicationStatus(statusFilter)
	if statusFilter != "" && !status.IsValid() {
		return nil, model.NewInvalidInputError(fmt.Sprintf("無効なステータスです: %s", statusFilter))
	}

	// 3. 求人の取得と所有者チェック
	job, err := s.jobRepo.FindByID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("求人の取得に失敗しました: %w", err)
	}
	if job == nil {
		return nil, model.NewJobNotFoundError(jobID)
	}
	if !authz.CanManageApplication(userID, job) {
		return nil, model.NewForbiddenError()
	}

	apps, err := s.appRepo.ListByJobID(ctx, jobID, status)
	if err != nil {
		return nil, fmt.Errorf("応募一覧の取得に失敗しました: %w", err)
	}
	return apps, nil
}

// CheckApplied は指定求人に有効な応募があるかを返す。
// あればその応募のIDも返す。job_seekerロールのみ実行できる。
func (s *Service) CheckApplied(ctx context.Context, userID string, role model.Role, jobID string) (bool, string, error) {
	if !authz.Allow(role, authz.ActionApplyToJob) {
		return false, "", model.NewForbiddenError()
	}

	app, err := s.appRepo.FindActiveByJobAndApplicant(ctx, jobID, userID)
	if err != nil {
		return false, "", fmt.Errorf("応募の取得に失敗しました: %w", err)
	}
	if app == nil {
		return false, "", nil
	}
	return true, app.ID, nil
}
