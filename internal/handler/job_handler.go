package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/worklink/internal/job"
	"github.com/hitoshi/worklink/internal/middleware"
	"github.com/hitoshi/worklink/internal/model"
)

// JobServiceInterface は求人ハンドラーが必要とするサービスインターフェース。
type JobServiceInterface interface {
	Create(ctx context.Context, userID string, role model.Role, input job.CreateJobInput) (*model.Job, error)
	Get(ctx context.Context, userID, jobID string) (*model.Job, error)
	List(ctx context.Context, filter model.JobFilter) ([]*model.Job, int, error)
	ListMine(ctx context.Context, userID string, role model.Role) ([]*model.Job, error)
	Update(ctx context.Context, userID string, role model.Role, jobID string, input job.UpdateJobInput) (*model.Job, error)
	Deactivate(ctx context.Context, userID string, role model.Role, jobID string) error
	Delete(ctx context.Context, userID string, role model.Role, jobID string) error
}

// JobHandler は求人管理のHTTPハンドラー。
type JobHandler struct {
	service JobServiceInterface
}

// NewJobHandler はJobHandlerを生成する。
func NewJobHandler(service JobServiceInterface) *JobHandler {
	return &JobHandler{service: service}
}

// createJobRequest は求人作成リクエストのボディ。
type createJobRequest struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	Requirements    string `json:"requirements"`
	SalaryRange     string `json:"salary_range"`
	Location        string `json:"location"`
	JobType         string `json:"job_type"`
	ExperienceLevel string `json:"experience_level"`
	IsRemote        bool   `json:"is_remote"`
}

// updateJobRequest は求人更新リクエストのボディ。省略されたフィールドは変更しない。
type updateJobRequest struct {
	Title           *string `json:"title"`
	Description     *string `json:"description"`
	Requirements    *string `json:"requirements"`
	SalaryRange     *string `json:"salary_range"`
	Location        *string `json:"location"`
	JobType         *string `json:"job_type"`
	ExperienceLevel *string `json:"experience_level"`
	IsRemote        *bool   `json:"is_remote"`
}

// jobResponse は求人情報のAPIレスポンス。
type jobResponse struct {
	ID              string `json:"id"`
	EmployerID      string `json:"employer_id"`
	Title           string `json:"title"`
	Description     string `json:"description"`
	Requirements    string `json:"requirements,omitempty"`
	SalaryRange     string `json:"salary_range,omitempty"`
	Location        string `json:"location,omitempty"`
	JobType         string `json:"job_type"`
	ExperienceLevel string `json:"experience_level"`
	IsRemote        bool   `json:"is_remote"`
	IsActive        bool   `json:"is_active"`
	CreatedAt       string `json:"created_at"`
}

// jobListResponse は求人一覧のAPIレスポンス。
type jobListResponse struct {
	Jobs    []jobResponse `json:"jobs"`
	Total   int           `json:"total"`
	Page    int           `json:"page"`
	PerPage int           `json:"per_page"`
}

// apiErrorResponse は統一エラーフォーマットのレスポンス。
type apiErrorResponse struct {
	Code     string `json:"code"`
	Message  string `json:"message"`
	Category string `json:"category"`
	Action   string `json:"action"`
}

// List は求人一覧を検索条件付きで返す。
// GET /api/jobs
func (h *JobHandler) List(w http.ResponseWriter, r *http.Request) {
	filter := parseJobFilter(r)

	jobs, total, err := h.service.List(r.Context(), filter)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := jobListResponse{
		Jobs:    make([]jobResponse, 0, len(jobs)),
		Total:   total,
		Page:    filter.Page,
		PerPage: filter.PerPage,
	}
	for _, j := range jobs {
		resp.Jobs = append(resp.Jobs, toJobResponse(j))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(resp)
}

// Get は求人詳細を返す。非公開求人は所有者のみ閲覧できる。
// GET /api/jobs/{id}
func (h *JobHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := identityFromRequest(w, r)
	if !ok {
		return
	}

	jobID := chi.URLParam(r, "id")

	j, err := h.service.Get(r.Context(), userID, jobID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toJobResponse(j))
}

// Create は新規求人を作成する。employerのみ。
// POST /api/jobs
func (h *JobHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := identityFromRequest(w, r)
	if !ok {
		return
	}

	var req createJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}

	j, err := h.service.Create(r.Context(), userID, role, job.CreateJobInput{
		Title:           req.Title,
		Description:     req.Description,
		Requirements:    req.Requirements,
		SalaryRange:     req.SalaryRange,
		Location:        req.Location,
		JobType:         req.JobType,
		ExperienceLevel: req.ExperienceLevel,
		IsRemote:        req.IsRemote,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toJobResponse(j))
}

// Update は求人を部分更新する。所有者のみ。
// PATCH /api/jobs/{id}
func (h *JobHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := identityFromRequest(w, r)
	if !ok {
		return
	}

	jobID := chi.URLParam(r, "id")

	var req updateJobRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}

	j, err := h.service.Update(r.Context(), userID, role, jobID, job.UpdateJobInput{
		Title:           req.Title,
		Description:     req.Description,
		Requirements:    req.Requirements,
		SalaryRange:     req.SalaryRange,
		Location:        req.Location,
		JobType:         req.JobType,
		ExperienceLevel: req.ExperienceLevel,
		IsRemote:        req.IsRemote,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toJobResponse(j))
}

// Delete は求人を削除する。所有者のみ。
// 通常は非公開化（ソフトデリート）で、?hard=true の場合のみ物理削除する。
// DELETE /api/jobs/{id}
func (h *JobHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := identityFromRequest(w, r)
	if !ok {
		return
	}

	jobID := chi.URLParam(r, "id")

	var err error
	if hard, _ := strconv.ParseBool(r.URL.Query().Get("hard")); hard {
		err = h.service.Delete(r.Context(), userID, role, jobID)
	} else {
		err = h.service.Deactivate(r.Context(), userID, role, jobID)
	}
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListMine は自分が掲載した求人一覧を返す。非公開求人も含む。
// GET /api/jobs/my-jobs
func (h *JobHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := identityFromRequest(w, r)
	if !ok {
		return
	}

	jobs, err := h.service.ListMine(r.Context(), userID, role)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]jobResponse, 0, len(jobs))
	for _, j := range jobs {
		resp = append(resp, toJobResponse(j))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"jobs": resp})
}

// --- ヘルパー関数 ---

// parseJobFilter はクエリパラメータから検索条件を組み立てる。
// 不正な数値は無視してサービス層のデフォルトに任せる。
func parseJobFilter(r *http.Request) model.JobFilter {
	q := r.URL.Query()

	filter := model.JobFilter{
		Search:   q.Get("search"),
		Location: q.Get("location"),
		JobType:  model.JobType(q.Get("job_type")),
	}

	if v := q.Get("is_remote"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			filter.IsRemote = &b
		}
	}
	if v := q.Get("page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.Page = n
		}
	}
	if v := q.Get("per_page"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			filter.PerPage = n
		}
	}

	return filter
}

// toJobResponse はmodel.JobからAPIレスポンスに変換する。
func toJobResponse(j *model.Job) jobResponse {
	return jobResponse{
		ID:              j.ID,
		EmployerID:      j.EmployerID,
		Title:           j.Title,
		Description:     j.Description,
		Requirements:    j.Requirements,
		SalaryRange:     j.SalaryRange,
		Location:        j.Location,
		JobType:         string(j.JobType),
		ExperienceLevel: string(j.ExperienceLevel),
		IsRemote:        j.IsRemote,
		IsActive:        j.IsActive,
		CreatedAt:       j.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// identityFromRequest はコンテキストから認証済みユーザーのIDとロールを取り出す。
// 未認証の場合は401を書き込み、okにfalseを返す。
func identityFromRequest(w http.ResponseWriter, r *http.Request) (string, model.Role, bool) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeUnauthorizedResponse(w)
		return "", "", false
	}
	role, err := middleware.RoleFromContext(r.Context())
	if err != nil {
		writeUnauthorizedResponse(w)
		return "", "", false
	}
	return userID, role, true
}

// writeAPIErrorResponse は統一エラーフォーマットでエラーレスポンスを書き込む。
func writeAPIErrorResponse(w http.ResponseWriter, statusCode int, apiErr *model.APIError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(apiErrorResponse{
		Code:     apiErr.Code,
		Message:  apiErr.Message,
		Category: apiErr.Category,
		Action:   apiErr.Action,
	})
}

// writeUnauthorizedResponse は認証が必要なことを示す401レスポンスを書き込む。
func writeUnauthorizedResponse(w http.ResponseWriter) {
	writeAPIErrorResponse(w, http.StatusUnauthorized, &model.APIError{
		Code:     model.ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	})
}

// writeInvalidBodyResponse はリクエストボディの解析失敗を示す400レスポンスを書き込む。
func writeInvalidBodyResponse(w http.ResponseWriter) {
	writeAPIErrorResponse(w, http.StatusBadRequest, &model.APIError{
		Code:     "INVALID_REQUEST",
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	})
}

// handleServiceError はサービス層から返されたエラーを適切なHTTPステータスコードに変換する。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if errors.As(err, &apiErr) {
		statusCode := mapAPIErrorToHTTPStatus(apiErr)
		writeAPIErrorResponse(w, statusCode, apiErr)
		return
	}

	// APIError以外のエラーは内部サーバーエラーとして扱う
	slog.Error("internal server error", slog.String("error", err.Error()))
	writeAPIErrorResponse(w, http.StatusInternalServerError, &model.APIError{
		Code:     "INTERNAL_ERROR",
		Message:  "内部エラーが発生しました。",
		Category: "system",
		Action:   "しばらく待ってから再度お試しください。",
	})
}

// mapAPIErrorToHTTPStatus はAPIErrorコードからHTTPステータスコードにマッピングする。
func mapAPIErrorToHTTPStatus(apiErr *model.APIError) int {
	switch apiErr.Code {
	case model.ErrCodeInvalidInput, model.ErrCodeInvalidStatusChange, "INVALID_REQUEST":
		return http.StatusBadRequest
	case model.ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodeUserNotFound, model.ErrCodeJobNotFound, model.ErrCodeApplicationNotFound:
		return http.StatusNotFound
	case model.ErrCodeEmailTaken, model.ErrCodeDuplicateApplication, model.ErrCodeApplicationNotPending:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
