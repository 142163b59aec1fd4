package authz

import "github.com/hitoshi/worklink/internal/model"

// CanMutateJob は求人の更新・削除をユーザーに許可するかを判定する。
// 掲載した雇用主本人のみ許可し、レコードがなければ拒否する。
func CanMutateJob(userID string, job *model.Job) bool {
	if job == nil {
		return false
	}
	return job.EmployerID == userID
}

// CanManageApplication は応募のステータス変更をユーザーに許可するかを
// 判定する。応募が参照する求人を掲載した雇用主本人のみ許可する。
func CanManageApplication(userID string, job *model.Job) bool {
	if job == nil {
		return false
	}
	return job.EmployerID == userID
}

// CanWithdrawApplication は応募の取り下げ・削除をユーザーに許可するかを
// 判定する。応募した求職者本人のみ許可する。
func CanWithdrawApplication(userID string, app *model.Application) bool {
	if app == nil {
		return false
	}
	return app.ApplicantID == userID
}
