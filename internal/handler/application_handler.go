package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/hitoshi/worklink/internal/application"
	"github.com/hitoshi/worklink/internal/model"
)

// ApplicationServiceInterface は応募ハンドラーが必要とするサービスインターフェース。
type ApplicationServiceInterface interface {
	Apply(ctx context.Context, userID string, role model.Role, input application.ApplyInput) (*model.Application, error)
	Get(ctx context.Context, userID string, applicationID string) (*model.Application, error)
	Withdraw(ctx context.Context, userID string, role model.Role, applicationID string) error
	UpdateStatus(ctx context.Context, userID string, role model.Role, applicationID, newStatus string) (*model.Application, error)
	Delete(ctx context.Context, userID string, role model.Role, applicationID string) error
	ListMine(ctx context.Context, userID string, role model.Role) ([]*model.Application, error)
	ListForJob(ctx context.Context, userID string, role model.Role, jobID, statusFilter string) ([]*model.Application, error)
	CheckApplied(ctx context.Context, userID string, role model.Role, jobID string) (bool, string, error)
}

// ApplicationHandler は応募管理のHTTPハンドラー。
type ApplicationHandler struct {
	service ApplicationServiceInterface
}

// NewApplicationHandler はApplicationHandlerを生成する。
func NewApplicationHandler(service ApplicationServiceInterface) *ApplicationHandler {
	return &ApplicationHandler{service: service}
}

// applyRequest は応募リクエストのボディ。
type applyRequest struct {
	JobID          string `json:"job_id"`
	CoverLetter    string `json:"cover_letter"`
	ResumeURL      string `json:"resume_url"`
	AdditionalInfo string `json:"additional_info"`
}

// updateApplicationStatusRequest は応募ステータス更新リクエストのボディ。
type updateApplicationStatusRequest struct {
	Status string `json:"status"`
}

// applicationResponse は応募情報のAPIレスポンス。
type applicationResponse struct {
	ID             string `json:"id"`
	JobID          string `json:"job_id"`
	ApplicantID    string `json:"applicant_id"`
	Status         string `json:"status"`
	CoverLetter    string `json:"cover_letter,omitempty"`
	ResumeURL      string `json:"resume_url,omitempty"`
	AdditionalInfo string `json:"additional_info,omitempty"`
	CreatedAt      string `json:"created_at"`
}

// Apply は求人への応募を作成する。job_seekerのみ。
// POST /api/applications
func (h *ApplicationHandler) Apply(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := identityFromRequest(w, r)
	if !ok {
		return
	}

	var req applyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}

	app, err := h.service.Apply(r.Context(), userID, role, application.ApplyInput{
		JobID:          req.JobID,
		CoverLetter:    req.CoverLetter,
		ResumeURL:      req.ResumeURL,
		AdditionalInfo: req.AdditionalInfo,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toApplicationResponse(app))
}

// ApplyToJob はURLで指定された求人への応募を作成する。job_seekerのみ。
// POST /api/jobs/{id}/apply
func (h *ApplicationHandler) ApplyToJob(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := identityFromRequest(w, r)
	if !ok {
		return
	}

	jobID := chi.URLParam(r, "id")

	// ボディは任意（カバーレターなしの応募を許可する）
	var req applyRequest
	if r.Body != nil {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil && err != io.EOF {
			writeInvalidBodyResponse(w)
			return
		}
	}

	app, err := h.service.Apply(r.Context(), userID, role, application.ApplyInput{
		JobID:          jobID,
		CoverLetter:    req.CoverLetter,
		ResumeURL:      req.ResumeURL,
		AdditionalInfo: req.AdditionalInfo,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(toApplicationResponse(app))
}

// Get は応募詳細を返す。応募者本人または求人の所有者のみ。
// GET /api/applications/{id}
func (h *ApplicationHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, _, ok := identityFromRequest(w, r)
	if !ok {
		return
	}

	applicationID := chi.URLParam(r, "id")

	app, err := h.service.Get(r.Context(), userID, applicationID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toApplicationResponse(app))
}

// Withdraw は審査待ちの応募を取り下げる。応募者本人のみ。
// POST /api/applications/{id}/withdraw
func (h *ApplicationHandler) Withdraw(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := identityFromRequest(w, r)
	if !ok {
		return
	}

	applicationID := chi.URLParam(r, "id")

	if err := h.service.Withdraw(r.Context(), userID, role, applicationID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// UpdateStatus は応募のステータスを更新する。求人の所有者のみ。
// PATCH /api/applications/{id}/status
func (h *ApplicationHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := identityFromRequest(w, r)
	if !ok {
		return
	}

	applicationID := chi.URLParam(r, "id")

	var req updateApplicationStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBodyResponse(w)
		return
	}

	app, err := h.service.UpdateStatus(r.Context(), userID, role, applicationID, req.Status)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(toApplicationResponse(app))
}

// Delete は取り下げ済みの応募を削除する。応募者本人のみ。
// DELETE /api/applications/{id}
func (h *ApplicationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := identityFromRequest(w, r)
	if !ok {
		return
	}

	applicationID := chi.URLParam(r, "id")

	if err := h.service.Delete(r.Context(), userID, role, applicationID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListMine は自分に関係する応募一覧を返す。
// job_seekerは自分の応募、employerは自分の求人への応募。
// GET /api/applications
func (h *ApplicationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := identityFromRequest(w, r)
	if !ok {
		return
	}

	apps, err := h.service.ListMine(r.Context(), userID, role)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]applicationResponse, 0, len(apps))
	for _, app := range apps {
		resp = append(resp, toApplicationResponse(app))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"applications": resp})
}

// ListForJob は求人ごとの応募一覧を返す。求人の所有者のみ。
// statusクエリパラメータでステータス絞り込みができる。
// GET /api/jobs/{id}/applications
func (h *ApplicationHandler) ListForJob(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := identityFromRequest(w, r)
	if !ok {
		return
	}

	jobID := chi.URLParam(r, "id")
	statusFilter := r.URL.Query().Get("status")

	apps, err := h.service.ListForJob(r.Context(), userID, role, jobID, statusFilter)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	resp := make([]applicationResponse, 0, len(apps))
	for _, app := range apps {
		resp = append(resp, toApplicationResponse(app))
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"applications": resp})
}

// CheckApplied は指定求人に応募済みかどうかを返す。
// GET /api/jobs/{id}/check-applied
func (h *ApplicationHandler) CheckApplied(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := identityFromRequest(w, r)
	if !ok {
		return
	}

	jobID := chi.URLParam(r, "id")

	applied, applicationID, err := h.service.CheckApplied(r.Context(), userID, role, jobID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"applied":        applied,
		"application_id": applicationID,
	})
}

// --- ヘルパー関数 ---

// toApplicationResponse はmodel.ApplicationからAPIレスポンスに変換する。
func toApplicationResponse(app *model.Application) applicationResponse {
	return applicationResponse{
		ID:             app.ID,
		JobID:          app.JobID,
		ApplicantID:    app.ApplicantID,
		Status:         string(app.Status),
		CoverLetter:    app.CoverLetter,
		ResumeURL:      app.ResumeURL,
		AdditionalInfo: app.AdditionalInfo,
		CreatedAt:      app.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
