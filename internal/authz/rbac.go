// Package authz はロールベースの粗い権限チェックと、レコード単位の
// 所有者チェックを提供する。前者はレコード取得前に、後者は取得後かつ
// 更新前に呼び出す。
package authz

import "github.com/hitoshi/worklink/internal/model"

// Action は権限チェックの対象となる操作を表す。
type Action string

const (
	ActionViewJobs                Action = "view_jobs"
	ActionCreateJob               Action = "create_job"
	ActionEditJob                 Action = "edit_job"
	ActionDeleteJob               Action = "delete_job"
	ActionApplyToJob              Action = "apply_to_job"
	ActionManageApplicationStatus Action = "manage_application_status"
	ActionWithdrawApplication     Action = "withdraw_application"
)

// permissions はロールごとに許可される操作の決定表。
// 表にない組み合わせはすべて拒否となる。
var permissions = map[model.Role]map[Action]bool{
	model.RoleEmployer: {
		ActionViewJobs:                true,
		ActionCreateJob:               true,
		ActionEditJob:                 true,
		ActionDeleteJob:               true,
		ActionManageApplicationStatus: true,
	},
	model.RoleJobSeeker: {
		ActionViewJobs:            true,
		ActionApplyToJob:          true,
		ActionWithdrawApplication: true,
	},
}

// Allow はロールが操作を実行できるかを判定する。
// 未知のロール・未知の操作はすべて拒否する。
func Allow(role model.Role, action Action) bool {
	return permissions[role][action]
}
