package model

import "time"

// ApplicationStatus は応募のステータスを表す。
type ApplicationStatus string

const (
	// ApplicationPending は応募直後の審査待ち状態。
	ApplicationPending ApplicationStatus = "pending"
	// ApplicationAccepted は求人掲載者が承諾した状態。
	ApplicationAccepted ApplicationStatus = "accepted"
	// ApplicationRejected は求人掲載者が不採用とした状態。
	ApplicationRejected ApplicationStatus = "rejected"
	// ApplicationWithdrawn は応募者自身が取り下げた状態。
	ApplicationWithdrawn ApplicationStatus = "withdrawn"
)

// IsValid はステータスが許可された値かどうかを返す。
func (s ApplicationStatus) IsValid() bool {
	switch s {
	case ApplicationPending, ApplicationAccepted, ApplicationRejected, ApplicationWithdrawn:
		return true
	default:
		return false
	}
}

// Application は求人への応募を表す。
// ちょうど1人のjob_seekerロールのユーザー（ApplicantID)に所有され、
// ちょうど1件のJobを参照する。
// 同一の求人に対する取り下げ済みでない応募は1ユーザーにつき最大1件。
type Application struct {
	ID             string
	JobID          string
	ApplicantID    string
	Status         ApplicationStatus
	CoverLetter    string
	ResumeURL      string
	AdditionalInfo string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
