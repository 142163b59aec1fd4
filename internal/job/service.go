// Package job は求人管理のドメインロジックを提供する。
package job

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/hitoshi/worklink/internal/authz"
	"github.com/hitoshi/worklink/internal/model"
	"github.com/hitoshi/worklink/internal/repository"
	"github.com/hitoshi/worklink/internal/security"
)

// minTitleLength は求人タイトルの最小文字数。
const minTitleLength = 5

// デフォルトと上限のページサイズ。
const (
	defaultPerPage = 20
	maxPerPage     = 100
)

// CreateJobInput は求人作成の入力を表す。
type CreateJobInput struct {
	Title           string
	Description     string
	Requirements    string
	SalaryRange     string
	Location        string
	JobType         string
	ExperienceLevel string
	IsRemote        bool
}

// UpdateJobInput は求人更新の入力を表す。nilのフィールドは変更しない。
type UpdateJobInput struct {
	Title           *string
	Description     *string
	Requirements    *string
	SalaryRange     *string
	Location        *string
	JobType         *string
	ExperienceLevel *string
	IsRemote        *bool
}

// Service は求人管理のサービス層。
// ロール権限チェック→レコード取得→所有者チェック→更新の順序を常に守る。
type Service struct {
	jobRepo   repository.JobRepository
	sanitizer security.ContentSanitizerService
}

// NewService はServiceの新しいインスタンスを生成する。
func NewService(jobRepo repository.JobRepository, sanitizer security.ContentSanitizerService) *Service {
	return &Service{
		jobRepo:   jobRepo,
		sanitizer: sanitizer,
	}
}

// Create は求人を作成する。employerロールのみ実行できる。
func (s *Service) Create(ctx context.Context, userID string, role model.Role, input CreateJobInput) (*model.Job, error) {
	// 1. ロール権限チェック（レコード取得前）
	if !authz.Allow(role, authz.ActionCreateJob) {
		return nil, model.NewForbiddenError()
	}

	// 2. 入力値の検証
	title := strings.TrimSpace(input.Title)
	if utf8.RuneCountInString(title) < minTitleLength {
		return nil, model.NewInvalidInputError(fmt.Sprintf("タイトルは%d文字以上必要です", minTitleLength))
	}
	if strings.TrimSpace(input.Description) == "" {
		return nil, model.NewInvalidInputError("説明は必須です")
	}

	jobType := model.JobType(input.JobType)
	if !jobType.IsValid() {
		return nil, model.NewInvalidInputError("雇用形態は full-time, part-time, contract, internship のいずれかを指定してください")
	}
	level := model.ExperienceLevel(input.ExperienceLevel)
	if !level.IsValid() {
		return nil, model.NewInvalidInputError("経験レベルは entry, mid, senior のいずれかを指定してください")
	}

	// 3. HTMLをサニタイズして保存
	now := time.Now()
	job := &model.Job{
		ID:              uuid.New().String(),
		EmployerID:      userID,
		Title:           title,
		Description:     s.sanitizer.Sanitize(input.Description),
		Requirements:    s.sanitizer.Sanitize(input.Requirements),
		SalaryRange:     strings.TrimSpace(input.SalaryRange),
		Location:        strings.TrimSpace(input.Location),
		JobType:         jobType,
		ExperienceLevel: level,
		IsRemote:        input.IsRemote,
		IsActive:        true,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	if err := s.jobRepo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("求人の作成に失敗しました: %w", err)
	}

	slog.Info("job created",
		slog.String("job_id", job.ID),
		slog.String("employer_id", userID),
	)
	return job, nil
}

// Get は求人を取得する。ソフトデリート済みの求人は所有者にのみ見える。
func (s *Service) Get(ctx context.Context, userID, jobID string) (*model.Job, error) {
	job, err := s.jobRepo.FindByID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("求人の取得に失敗しました: %w", err)
	}
	if job == nil {
		return nil, model.NewJobNotFoundError(jobID)
	}
	if !job.IsActive && job.EmployerID != userID {
		return nil, model.NewJobNotFoundError(jobID)
	}
	return job, nil
}

// List はアクティブな求人の一覧と総件数を返す。
func (s *Service) List(ctx context.Context, filter model.JobFilter) ([]*model.Job, int, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.PerPage < 1 {
		filter.PerPage = defaultPerPage
	}
	if filter.PerPage > maxPerPage {
		filter.PerPage = maxPerPage
	}

	jobs, total, err := s.jobRepo.List(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("求人一覧の取得に失敗しました: %w", err)
	}
	return jobs, total, nil
}

// ListMine は自分が掲載した求人の一覧（非アクティブ含む）を返す。
func (s *Service) ListMine(ctx context.Context, userID string, role model.Role) ([]*model.Job, error) {
	// 求人の掲載管理はemployerロールのみ
	if !authz.Allow(role, authz.ActionCreateJob) {
		return nil, model.NewForbiddenError()
	}

	jobs, err := s.jobRepo.ListByEmployerID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("求人一覧の取得に失敗しました: %w", err)
	}
	return jobs, nil
}

// Update は求人を更新する。所有するemployerのみ実行できる。
func (s *Service) Update(ctx context.Context, userID string, role model.Role, jobID string, input UpdateJobInput) (*model.Job, error) {
	// 1. ロール権限チェック（レコード取得前）
	if !authz.Allow(role, authz.ActionEditJob) {
		return nil, model.NewForbiddenError()
	}

	// 2. レコード取得と所有者チェック
	job, err := s.jobRepo.FindByID(ctx, jobID)
	if err != nil {
		return nil, fmt.Errorf("求人の取得に失敗しました: %w", err)
	}
	if job == nil {
		return nil, model.NewJobNotFoundError(jobID)
	}
	if !authz.CanMutateJob(userID, job) {
		return nil, model.NewForbiddenError()
	}

	// 3. 指定されたフィールドのみ更新
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if utf8.RuneCountInString(title) < minTitleLength {
			return nil, model.NewInvalidInputError(fmt.Sprintf("タイトルは%d文字以上必要です", minTitleLength))
		}
		job.Title = title
	}
	if input.Description != nil {
		if strings.TrimSpace(*input.Description) == "" {
			return nil, model.NewInvalidInputError("説明は必須です")
		}
		job.Description = s.sanitizer.Sanitize(*input.Description)
	}
	if input.Requirements != nil {
		job.Requirements = s.sanitizer.Sanitize(*input.Requirements)
	}
	if input.SalaryRange != nil {
		job.SalaryRange = strings.TrimSpace(*input.SalaryRange)
	}
	if input.Location != nil {
		job.Location = strings.TrimSpace(*input.Location)
	}
	if input.JobType != nil {
		jobType := model.JobType(*input.JobType)
		if !jobType.IsValid() {
			return nil, model.NewInvalidInputError("雇用形態は full-time, part-time, contract, internship のいずれかを指定してください")
		}
		job.JobType = jobType
	}
	if input.ExperienceLevel != nil {
		level := model.ExperienceLevel(*input.ExperienceLevel)
		if !level.IsValid() {
			return nil, model.NewInvalidInputError("経験レベルは entry, mid, senior のいずれかを指定してください")
		}
		job.ExperienceLevel = level
	}
	if input.IsRemote != nil {
		job.IsRemote = *input.IsRemote
	}
	job.UpdatedAt = time.Now()

	if err := s.jobRepo.Update(ctx, job); err != nil {
		return nil, fmt.Errorf("求人の更新に失敗しました: %w", err)
	}

	slog.Info("job updated",
		slog.String("job_id", job.ID),
		slog.String("employer_id", userID),
	)
	return job, nil
}

// Deactivate は求人をソフトデリートする。所有するemployerのみ実行できる。
// 既に非アクティブな求人への再実行は冪等に成功する。
func (s *Service) Deactivate(ctx context.Context, userID string, role model.Role, jobID string) error {
	// 1. ロール権限チェック（レコード取得前）
	if !authz.Allow(role, authz.ActionDeleteJob) {
		return model.NewForbiddenError()
	}

	// 2. レコード取得と所有者チェック
	job, err := s.jobRepo.FindByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("求人の取得に失敗しました: %w", err)
	}
	if job == nil {
		return model.NewJobNotFoundError(jobID)
	}
	if !authz.CanMutateJob(userID, job) {
		return model.NewForbiddenError()
	}

	if err := s.jobRepo.Deactivate(ctx, jobID); err != nil {
		return fmt.Errorf("求人の削除に失敗しました: %w", err)
	}

	slog.Info("job deactivated",
		slog.String("job_id", jobID),
		slog.String("employer_id", userID),
	)
	return nil
}

// Delete は求人を関連する応募ごと物理削除する。所有するemployerのみ実行できる。
// 通常の削除はDeactivate（ソフトデリート）を使う。
func (s *Service) Delete(ctx context.Context, userID string, role model.Role, jobID string) error {
	// 1. ロール権限チェック（レコード取得前）
	if !authz.Allow(role, authz.ActionDeleteJob) {
		return model.NewForbiddenError()
	}

	// 2. レコード取得と所有者チェック
	job, err := s.jobRepo.FindByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("求人の取得に失敗しました: %w", err)
	}
	if job == nil {
		return model.NewJobNotFoundError(jobID)
	}
	if !authz.CanMutateJob(userID, job) {
		return model.NewForbiddenError()
	}

	if err := s.jobRepo.Delete(ctx, jobID); err != nil {
		return fmt.Errorf("求人の削除に失敗しました: %w", err)
	}

	slog.Info("job hard deleted",
		slog.String("job_id", jobID),
		slog.String("employer_id", userID),
	)
	return nil
}
