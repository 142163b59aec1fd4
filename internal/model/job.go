package model

import "time"

// JobType は雇用形態を表す。
type JobType string

const (
	JobTypeFullTime   JobType = "full-time"
	JobTypePartTime   JobType = "part-time"
	JobTypeContract   JobType = "contract"
	JobTypeInternship JobType = "internship"
)

// IsValid は雇用形態が許可された値かどうかを返す。
func (t JobType) IsValid() bool {
	switch t {
	case JobTypeFullTime, JobTypePartTime, JobTypeContract, JobTypeInternship:
		return true
	default:
		return false
	}
}

// ExperienceLevel は求められる経験レベルを表す。
type ExperienceLevel string

const (
	ExperienceEntry  ExperienceLevel = "entry"
	ExperienceMid    ExperienceLevel = "mid"
	ExperienceSenior ExperienceLevel = "senior"
)

// IsValid は経験レベルが許可された値かどうかを返す。
func (l ExperienceLevel) IsValid() bool {
	switch l {
	case ExperienceEntry, ExperienceMid, ExperienceSenior:
		return true
	default:
		return false
	}
}

// Job は求人情報を表す。
// ちょうど1人のemployerロールのユーザー（EmployerID）に所有され、
// 更新・削除はその所有者のみが行える。
// 削除は物理削除ではなくIsActive=falseのソフトデリートで行う。
type Job struct {
	ID              string
	EmployerID      string
	Title           string
	Description     string
	Requirements    string
	SalaryRange     string
	Location        string
	JobType         JobType
	ExperienceLevel ExperienceLevel
	IsRemote        bool
	IsActive        bool
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// JobFilter は求人一覧の検索条件を表す。
// ゼロ値のフィールドは条件に含めない。
type JobFilter struct {
	Search   string  // タイトル・説明の部分一致検索
	Location string  // 勤務地の部分一致
	JobType  JobType // 雇用形態の完全一致
	IsRemote *bool   // リモート可否（nilなら条件に含めない）
	Page     int     // 1始まりのページ番号
	PerPage  int     // 1ページあたりの件数
}
