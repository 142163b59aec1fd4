package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"

	"github.com/hitoshi/worklink/internal/model"
)

// PostgresJobRepo はPostgreSQLを使用した求人リポジトリ。
type PostgresJobRepo struct {
	db *sql.DB
}

// NewPostgresJobRepo はPostgresJobRepoを生成する。
func NewPostgresJobRepo(db *sql.DB) *PostgresJobRepo {
	return &PostgresJobRepo{db: db}
}

const jobColumns = `id, employer_id, title, description, requirements, salary_range,
	location, job_type, experience_level, is_remote, is_active, created_at, updated_at`

// scanJob は1行分の求人レコードをスキャンする。
func scanJob(row interface{ Scan(...any) error }) (*model.Job, error) {
	job := &model.Job{}
	err := row.Scan(&job.ID, &job.EmployerID, &job.Title, &job.Description,
		&job.Requirements, &job.SalaryRange, &job.Location, &job.JobType,
		&job.ExperienceLevel, &job.IsRemote, &job.IsActive, &job.CreatedAt, &job.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return job, nil
}

// FindByID は指定IDの求人を取得する。見つからない場合はnilを返す。
// ソフトデリート済みの求人も返し、可視性の判定はサービス層で行う。
func (r *PostgresJobRepo) FindByID(ctx context.Context, id string) (*model.Job, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE id = $1`,
		id,
	)

	job, err := scanJob(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find job by ID: %w", err)
	}

	return job, nil
}

// Create は求人を作成する。
func (r *PostgresJobRepo) Create(ctx context.Context, job *model.Job) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO jobs (id, employer_id, title, description, requirements, salary_range,
		 location, job_type, experience_level, is_remote, is_active, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		job.ID, job.EmployerID, job.Title, job.Description, job.Requirements,
		job.SalaryRange, job.Location, job.JobType, job.ExperienceLevel,
		job.IsRemote, job.IsActive, job.CreatedAt, job.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert job: %w", err)
	}
	return nil
}

// Update は求人情報を更新する。
func (r *PostgresJobRepo) Update(ctx context.Context, job *model.Job) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE jobs SET title = $1, description = $2, requirements = $3, salary_range = $4,
		 location = $5, job_type = $6, experience_level = $7, is_remote = $8, is_active = $9,
		 updated_at = $10 WHERE id = $11`,
		job.Title, job.Description, job.Requirements, job.SalaryRange,
		job.Location, job.JobType, job.ExperienceLevel, job.IsRemote, job.IsActive,
		job.UpdatedAt, job.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update job: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("job not found: %s", job.ID)
	}
	return nil
}

// Deactivate は求人をソフトデリートする（is_active=false）。
func (r *PostgresJobRepo) Deactivate(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE jobs SET is_active = FALSE, updated_at = now() WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to deactivate job: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("job not found: %s", id)
	}
	return nil
}

// Delete は求人と関連する応募を同一トランザクションで物理削除する。
// FKのカスケードには依存せず、応募行を先に明示的に削除する。
func (r *PostgresJobRepo) Delete(ctx context.Context, id string) error {
	return withTx(ctx, r.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM applications WHERE job_id = $1`, id,
		); err != nil {
			return fmt.Errorf("failed to delete applications: %w", err)
		}

		result, err := tx.ExecContext(ctx, `DELETE FROM jobs WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("failed to delete job: %w", err)
		}
		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to get rows affected: %w", err)
		}
		if rowsAffected == 0 {
			return fmt.Errorf("job not found: %s", id)
		}
		return nil
	})
}

// List は検索条件に一致するアクティブな求人の一覧と総件数を返す。
// created_at降順、ページネーションはOFFSET/LIMITを使用する。
func (r *PostgresJobRepo) List(ctx context.Context, filter model.JobFilter) ([]*model.Job, int, error) {
	where := []string{"is_active = TRUE"}
	args := []any{}

	addArg := func(v any) string {
		args = append(args, v)
		return "$" + strconv.Itoa(len(args))
	}

	if filter.Search != "" {
		p := addArg("%" + filter.Search + "%")
		where = append(where, "(title ILIKE "+p+" OR description ILIKE "+p+")")
	}
	if filter.Location != "" {
		where = append(where, "location ILIKE "+addArg("%"+filter.Location+"%"))
	}
	if filter.JobType != "" {
		where = append(where, "job_type = "+addArg(string(filter.JobType)))
	}
	if filter.IsRemote != nil {
		where = append(where, "is_remote = "+addArg(*filter.IsRemote))
	}

	whereSQL := strings.Join(where, " AND ")

	// 総件数の取得
	var total int
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM jobs WHERE `+whereSQL, args...,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count jobs: %w", err)
	}

	// ページ取得
	limit := addArg(filter.PerPage)
	offset := addArg((filter.Page - 1) * filter.PerPage)

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE `+whereSQL+
			` ORDER BY created_at DESC LIMIT `+limit+` OFFSET `+offset,
		args...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list jobs: %w", err)
	}
	defer rows.Close()

	var jobs []*model.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate jobs: %w", err)
	}

	return jobs, total, nil
}

// ListByEmployerID は指定employerの全求人（非アクティブ含む）を返す。
func (r *PostgresJobRepo) ListByEmployerID(ctx context.Context, employerID string) ([]*model.Job, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+jobColumns+` FROM jobs WHERE employer_id = $1 ORDER BY created_at DESC`,
		employerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list jobs by employer: %w", err)
	}
	defer rows.Close()

	var jobs []*model.Job
	for rows.Next() {
		job, err := scanJob(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan job: %w", err)
		}
		jobs = append(jobs, job)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate jobs: %w", err)
	}

	return jobs, nil
}

// compile-time interface check
var _ JobRepository = (*PostgresJobRepo)(nil)
