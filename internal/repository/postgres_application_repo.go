package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hitoshi/worklink/internal/model"
)

// PostgresApplicationRepo はPostgreSQLを使用した応募リポジトリ。
type PostgresApplicationRepo struct {
	db *sql.DB
}

// NewPostgresApplicationRepo はPostgresApplicationRepoを生成する。
func NewPostgresApplicationRepo(db *sql.DB) *PostgresApplicationRepo {
	return &PostgresApplicationRepo{db: db}
}

const applicationColumns = `id, job_id, applicant_id, status, cover_letter,
	resume_url, additional_info, created_at, updated_at`

// scanApplication は1行分の応募レコードをスキャンする。
func scanApplication(row interface{ Scan(...any) error }) (*model.Application, error) {
	app := &model.Application{}
	err := row.Scan(&app.ID, &app.JobID, &app.ApplicantID, &app.Status,
		&app.CoverLetter, &app.ResumeURL, &app.AdditionalInfo, &app.CreatedAt, &app.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return app, nil
}

// FindByID は指定IDの応募を取得する。見つからない場合はnilを返す。
func (r *PostgresApplicationRepo) FindByID(ctx context.Context, id string) (*model.Application, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+applicationColumns+` FROM applications WHERE id = $1`,
		id,
	)

	app, err := scanApplication(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find application by ID: %w", err)
	}

	return app, nil
}

// FindActiveByJobAndApplicant は取り下げ済みでない応募を検索する。見つからない場合はnilを返す。
func (r *PostgresApplicationRepo) FindActiveByJobAndApplicant(ctx context.Context, jobID, applicantID string) (*model.Application, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+applicationColumns+` FROM applications
		 WHERE job_id = $1 AND applicant_id = $2 AND status <> 'withdrawn'`,
		jobID, applicantID,
	)

	app, err := scanApplication(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find active application: %w", err)
	}

	return app, nil
}

// Create は応募を作成する。
// 取り下げ済みでない応募の一意性は部分ユニークインデックスで保証される。
func (r *PostgresApplicationRepo) Create(ctx context.Context, application *model.Application) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO applications (id, job_id, applicant_id, status, cover_letter,
		 resume_url, additional_info, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		application.ID, application.JobID, application.ApplicantID, application.Status,
		application.CoverLetter, application.ResumeURL, application.AdditionalInfo,
		application.CreatedAt, application.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert application: %w", err)
	}
	return nil
}

// UpdateStatus は応募のステータスを更新する。
func (r *PostgresApplicationRepo) UpdateStatus(ctx context.Context, id string, status model.ApplicationStatus) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE applications SET status = $1, updated_at = now() WHERE id = $2`,
		status, id,
	)
	if err != nil {
		return fmt.Errorf("failed to update application status: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("application not found: %s", id)
	}
	return nil
}

// Delete は指定IDの応募を物理削除する。
func (r *PostgresApplicationRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM applications WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete application: %w", err)
	}
	return nil
}

// ListByApplicantID は指定応募者の応募一覧をcreated_at降順で返す。
func (r *PostgresApplicationRepo) ListByApplicantID(ctx context.Context, applicantID string) ([]*model.Application, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+applicationColumns+` FROM applications
		 WHERE applicant_id = $1 ORDER BY created_at DESC`,
		applicantID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications by applicant: %w", err)
	}
	defer rows.Close()

	return collectApplications(rows)
}

// ListByJobID は指定求人への応募一覧を返す。
// statusがゼロ値でない場合はそのステータスのみに絞り込む。
func (r *PostgresApplicationRepo) ListByJobID(ctx context.Context, jobID string, status model.ApplicationStatus) ([]*model.Application, error) {
	query := `SELECT ` + applicationColumns + ` FROM applications WHERE job_id = $1`
	args := []any{jobID}
	if status != "" {
		query += ` AND status = $2`
		args = append(args, status)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications by job: %w", err)
	}
	defer rows.Close()

	return collectApplications(rows)
}

// ListByEmployerID は指定employerの全求人に対する応募一覧を返す。
func (r *PostgresApplicationRepo) ListByEmployerID(ctx context.Context, employerID string) ([]*model.Application, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT a.id, a.job_id, a.applicant_id, a.status, a.cover_letter,
		 a.resume_url, a.additional_info, a.created_at, a.updated_at
		 FROM applications a
		 JOIN jobs j ON j.id = a.job_id
		 WHERE j.employer_id = $1
		 ORDER BY a.created_at DESC`,
		employerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list applications by employer: %w", err)
	}
	defer rows.Close()

	return collectApplications(rows)
}

// collectApplications は結果セットの全行をスキャンする。
func collectApplications(rows *sql.Rows) ([]*model.Application, error) {
	var apps []*model.Application
	for rows.Next() {
		app, err := scanApplication(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan application: %w", err)
		}
		apps = append(apps, app)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate applications: %w", err)
	}
	return apps, nil
}

// compile-time interface check
var _ ApplicationRepository = (*PostgresApplicationRepo)(nil)
